package models

import (
	"time"
)

// Like is one directional swipe. The (liker_id, liked_id) pair is unique;
// a repeat like is resolved by returning the existing row, never an error.
// Likes between a pair are deleted when either party blocks the other.
type Like struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	LikerID   uint      `gorm:"not null;uniqueIndex:idx_liker_liked" json:"liker_id"`
	LikedID   uint      `gorm:"not null;uniqueIndex:idx_liker_liked;index" json:"liked_id"`
	IsSuper   bool      `gorm:"default:false" json:"is_super"`
	CreatedAt time.Time `json:"created_at"`
}

func (Like) TableName() string {
	return "likes"
}

// Block hides the pair from each other and pins any Match to BLOCKED.
// Unique per ordered (blocker, blocked) pair; blocking is not mutual.
type Block struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	BlockerID uint      `gorm:"not null;uniqueIndex:idx_blocker_blocked" json:"blocker_id"`
	BlockedID uint      `gorm:"not null;uniqueIndex:idx_blocker_blocked;index" json:"blocked_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Block) TableName() string {
	return "blocks"
}
