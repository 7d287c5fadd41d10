package repository

import (
	"errors"

	"github.com/sevans717/aphila-sub007/internal/models"
	"gorm.io/gorm"
)

type DeviceRepository struct {
	db *gorm.DB
}

func NewDeviceRepository(db *gorm.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// Upsert registers a device, refreshing the token/platform and reactivating
// it if a previous delivery failure had deactivated it.
func (r *DeviceRepository) Upsert(userID uint, deviceID, token, platform string) (*models.Device, error) {
	var device models.Device
	err := r.db.Where("user_id = ? AND device_id = ?", userID, deviceID).First(&device).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		device = models.Device{
			UserID:   userID,
			DeviceID: deviceID,
			Token:    token,
			Platform: platform,
			IsActive: true,
		}
		if createErr := r.db.Create(&device).Error; createErr != nil {
			if !errors.Is(createErr, gorm.ErrDuplicatedKey) {
				return nil, createErr
			}
			// Lost a concurrent registration; fall through to update.
			if findErr := r.db.Where("user_id = ? AND device_id = ?", userID, deviceID).
				First(&device).Error; findErr != nil {
				return nil, findErr
			}
		} else {
			return &device, nil
		}
	} else if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"token":     token,
		"platform":  platform,
		"is_active": true,
	}
	if err := r.db.Model(&device).Updates(updates).Error; err != nil {
		return nil, err
	}
	device.Token = token
	device.Platform = platform
	device.IsActive = true
	return &device, nil
}

func (r *DeviceRepository) FindByID(id uint) (*models.Device, error) {
	var device models.Device
	err := r.db.First(&device, id).Error
	return &device, err
}

func (r *DeviceRepository) FindByDeviceID(userID uint, deviceID string) (*models.Device, error) {
	var device models.Device
	err := r.db.Where("user_id = ? AND device_id = ?", userID, deviceID).First(&device).Error
	return &device, err
}

func (r *DeviceRepository) ActiveForUser(userID uint) ([]models.Device, error) {
	var devices []models.Device
	err := r.db.Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at ASC").
		Find(&devices).Error
	return devices, err
}

// ActiveForTopic resolves the broadcast fan-out set: active devices holding
// an active subscription on the topic.
func (r *DeviceRepository) ActiveForTopic(topic string) ([]models.Device, error) {
	var devices []models.Device
	err := r.db.
		Joins("JOIN topic_subscriptions ON topic_subscriptions.device_id = devices.id").
		Where("topic_subscriptions.topic = ? AND topic_subscriptions.is_active = ? AND devices.is_active = ?",
			topic, true, true).
		Order("devices.created_at ASC").
		Find(&devices).Error
	return devices, err
}

// Deactivate flips is_active off after the retry cap; the row stays so a
// later registration can revive the device.
func (r *DeviceRepository) Deactivate(id uint) error {
	return r.db.Model(&models.Device{}).Where("id = ?", id).Update("is_active", false).Error
}
