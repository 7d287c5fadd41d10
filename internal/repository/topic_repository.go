package repository

import (
	"errors"

	"github.com/sevans717/aphila-sub007/internal/models"
	"gorm.io/gorm"
)

type TopicRepository struct {
	db *gorm.DB
}

func NewTopicRepository(db *gorm.DB) *TopicRepository {
	return &TopicRepository{db: db}
}

// Subscribe adds a (device, topic) subscription; duplicates reactivate and
// return the existing row.
func (r *TopicRepository) Subscribe(userID, deviceID uint, topic string) (*models.TopicSubscription, bool, error) {
	sub := &models.TopicSubscription{
		UserID:   userID,
		DeviceID: deviceID,
		Topic:    topic,
		IsActive: true,
	}
	err := r.db.Create(sub).Error
	if err == nil {
		return sub, true, nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		var existing models.TopicSubscription
		findErr := r.db.Where("device_id = ? AND topic = ?", deviceID, topic).First(&existing).Error
		if findErr != nil {
			return nil, false, findErr
		}
		if !existing.IsActive {
			if updErr := r.db.Model(&existing).Update("is_active", true).Error; updErr != nil {
				return nil, false, updErr
			}
			existing.IsActive = true
		}
		return &existing, false, nil
	}
	return nil, false, err
}

func (r *TopicRepository) Unsubscribe(deviceID uint, topic string) error {
	return r.db.Model(&models.TopicSubscription{}).
		Where("device_id = ? AND topic = ?", deviceID, topic).
		Update("is_active", false).Error
}
