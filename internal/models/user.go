package models

import (
	"time"
)

// User is the identity anchor for the interaction core. Profile data
// (bio, photos, preferences) lives in the profile service; this row only
// carries what matching and delivery need to reference.
type User struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Username string `gorm:"size:32;uniqueIndex" json:"username"`

	// Denormalized presence hints, maintained best-effort by the presence
	// tracker so list views can render without hitting the tracker.
	IsOnline bool       `gorm:"default:false" json:"is_online"`
	LastSeen *time.Time `json:"last_seen"`
}

type UserResponse struct {
	ID       uint       `json:"id"`
	Username string     `json:"username"`
	IsOnline bool       `json:"is_online"`
	LastSeen *time.Time `json:"last_seen"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:       u.ID,
		Username: u.Username,
		IsOnline: u.IsOnline,
		LastSeen: u.LastSeen,
	}
}
