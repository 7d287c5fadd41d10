package repository

import (
	"errors"

	"github.com/sevans717/aphila-sub007/internal/models"
	"gorm.io/gorm"
)

type LikeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(db *gorm.DB) *LikeRepository {
	return &LikeRepository{db: db}
}

// CreateIfAbsent inserts the like, or returns the existing row when the
// (liker, liked) pair already exists. The bool reports whether a row was
// actually created.
func (r *LikeRepository) CreateIfAbsent(like *models.Like) (*models.Like, bool, error) {
	err := r.db.Create(like).Error
	if err == nil {
		return like, true, nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		existing, findErr := r.Find(like.LikerID, like.LikedID)
		if findErr != nil {
			return nil, false, findErr
		}
		return existing, false, nil
	}
	return nil, false, err
}

func (r *LikeRepository) Find(likerID, likedID uint) (*models.Like, error) {
	var like models.Like
	err := r.db.Where("liker_id = ? AND liked_id = ?", likerID, likedID).First(&like).Error
	return &like, err
}

// DeletePair removes both directional likes between two users (block cascade).
func (r *LikeRepository) DeletePair(userA, userB uint) error {
	return r.db.Where(
		"(liker_id = ? AND liked_id = ?) OR (liker_id = ? AND liked_id = ?)",
		userA, userB, userB, userA,
	).Delete(&models.Like{}).Error
}
