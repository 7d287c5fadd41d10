package repository

import (
	"errors"

	"github.com/sevans717/aphila-sub007/internal/models"
	"gorm.io/gorm"
)

type ReactionRepository struct {
	db *gorm.DB
}

func NewReactionRepository(db *gorm.DB) *ReactionRepository {
	return &ReactionRepository{db: db}
}

// CreateIfAbsent inserts the reaction; a duplicate (message, user, reaction)
// triple returns the existing row with created=false.
func (r *ReactionRepository) CreateIfAbsent(reaction *models.MessageReaction) (*models.MessageReaction, bool, error) {
	err := r.db.Create(reaction).Error
	if err == nil {
		return reaction, true, nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		var existing models.MessageReaction
		findErr := r.db.Where("message_id = ? AND user_id = ? AND reaction = ?",
			reaction.MessageID, reaction.UserID, reaction.Reaction).First(&existing).Error
		if findErr != nil {
			return nil, false, findErr
		}
		return &existing, false, nil
	}
	return nil, false, err
}

func (r *ReactionRepository) ListByMessage(messageID uint) ([]models.MessageReaction, error) {
	var reactions []models.MessageReaction
	err := r.db.Where("message_id = ?", messageID).
		Order("created_at ASC").
		Find(&reactions).Error
	return reactions, err
}
