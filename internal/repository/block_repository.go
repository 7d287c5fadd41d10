package repository

import (
	"errors"

	"github.com/sevans717/aphila-sub007/internal/models"
	"gorm.io/gorm"
)

type BlockRepository struct {
	db *gorm.DB
}

func NewBlockRepository(db *gorm.DB) *BlockRepository {
	return &BlockRepository{db: db}
}

// CreateIfAbsent inserts the block, returning the existing row when the
// ordered (blocker, blocked) pair is already recorded.
func (r *BlockRepository) CreateIfAbsent(block *models.Block) (*models.Block, bool, error) {
	err := r.db.Create(block).Error
	if err == nil {
		return block, true, nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		var existing models.Block
		findErr := r.db.Where("blocker_id = ? AND blocked_id = ?", block.BlockerID, block.BlockedID).
			First(&existing).Error
		if findErr != nil {
			return nil, false, findErr
		}
		return &existing, false, nil
	}
	return nil, false, err
}

// ExistsBetween reports whether either user has blocked the other.
func (r *BlockRepository) ExistsBetween(userA, userB uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Block{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)",
			userA, userB, userB, userA).
		Count(&count).Error
	return count > 0, err
}
