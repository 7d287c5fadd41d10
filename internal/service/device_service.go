package service

import (
	"errors"

	"github.com/sevans717/aphila-sub007/internal/models"
	"github.com/sevans717/aphila-sub007/internal/repository"
	"gorm.io/gorm"
)

// DeviceService manages push endpoints and topic subscriptions.
type DeviceService struct {
	devices repository.DeviceRepositoryInterface
	topics  repository.TopicRepositoryInterface
}

func NewDeviceService(devices repository.DeviceRepositoryInterface, topics repository.TopicRepositoryInterface) *DeviceService {
	return &DeviceService{devices: devices, topics: topics}
}

// RegisterDevice upserts a device; re-registration refreshes the token and
// revives a device the dispatcher had deactivated.
func (s *DeviceService) RegisterDevice(userID uint, deviceID, token, platform string) (*models.Device, error) {
	return s.devices.Upsert(userID, deviceID, token, platform)
}

// SubscribeTopic subscribes one of the caller's devices to a broadcast topic.
func (s *DeviceService) SubscribeTopic(userID uint, deviceID, topic string) (*models.TopicSubscription, bool, error) {
	device, err := s.devices.FindByDeviceID(userID, deviceID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, ErrNotFound
	}
	if err != nil {
		return nil, false, err
	}
	return s.topics.Subscribe(userID, device.ID, topic)
}

// UnsubscribeTopic deactivates the device's subscription; unknown topics
// no-op.
func (s *DeviceService) UnsubscribeTopic(userID uint, deviceID, topic string) error {
	device, err := s.devices.FindByDeviceID(userID, deviceID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return s.topics.Unsubscribe(device.ID, topic)
}
