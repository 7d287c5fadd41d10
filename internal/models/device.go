package models

import (
	"time"
)

// Device is a push-notification endpoint. A user has many devices; a device
// that fails delivery past the retry cap is deactivated, never deleted, so a
// later registration can revive it.
type Device struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID   uint   `gorm:"not null;uniqueIndex:idx_user_device" json:"user_id"`
	DeviceID string `gorm:"type:varchar(64);not null;uniqueIndex:idx_user_device" json:"device_id"`
	Token    string `gorm:"type:text;not null" json:"-"`
	Platform string `gorm:"type:varchar(20);not null" json:"platform"`
	IsActive bool   `gorm:"default:true;index" json:"is_active"`
}

func (Device) TableName() string {
	return "devices"
}

// TopicSubscription fans broadcast notifications out to a device. Unique per
// (device, topic); re-subscribing is a no-op.
type TopicSubscription struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	UserID   uint   `gorm:"not null;index" json:"user_id"`
	DeviceID uint   `gorm:"not null;uniqueIndex:idx_device_topic" json:"device_id"`
	Topic    string `gorm:"type:varchar(64);not null;uniqueIndex:idx_device_topic;index" json:"topic"`
	IsActive bool   `gorm:"default:true" json:"is_active"`
}

func (TopicSubscription) TableName() string {
	return "topic_subscriptions"
}
