package models

import (
	"time"
)

type MessageStatus string

const (
	StatusSending   MessageStatus = "sending"
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
	StatusFailed    MessageStatus = "failed"
)

// Message is one chat message on a match. ClientNonce is the caller-supplied
// idempotency key, unique per (match, sender); Seq is the per-match total
// order used for history replay. Status is monotonic:
// sending -> {sent|failed} -> delivered -> read, failed terminal.
type Message struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	MatchID    uint   `gorm:"not null;index;uniqueIndex:idx_match_sender_nonce;uniqueIndex:idx_match_seq" json:"match_id"`
	SenderID   uint   `gorm:"not null;uniqueIndex:idx_match_sender_nonce;index" json:"sender_id"`
	ReceiverID uint   `gorm:"not null;index" json:"receiver_id"`
	Seq        uint64 `gorm:"not null;uniqueIndex:idx_match_seq" json:"seq"`

	Content     string `gorm:"type:text;not null" json:"content"`
	ClientNonce string `gorm:"type:varchar(64);not null;uniqueIndex:idx_match_sender_nonce" json:"client_nonce"`
	ParentID    *uint  `gorm:"index" json:"parent_id"`

	Status      MessageStatus `gorm:"type:varchar(20);default:'sent';index" json:"status"`
	DeliveredAt *time.Time    `json:"delivered_at"`
	ReadAt      *time.Time    `json:"read_at"`
}

func (Message) TableName() string {
	return "messages"
}

type MessageResponse struct {
	ID          uint          `json:"id"`
	MatchID     uint          `json:"match_id"`
	SenderID    uint          `json:"sender_id"`
	ReceiverID  uint          `json:"receiver_id"`
	Seq         uint64        `json:"seq"`
	Content     string        `json:"content"`
	ClientNonce string        `json:"client_nonce"`
	ParentID    *uint         `json:"parent_id"`
	Status      MessageStatus `json:"status"`
	DeliveredAt *time.Time    `json:"delivered_at"`
	ReadAt      *time.Time    `json:"read_at"`
	CreatedAt   time.Time     `json:"created_at"`
}

func (m *Message) ToResponse() MessageResponse {
	return MessageResponse{
		ID:          m.ID,
		MatchID:     m.MatchID,
		SenderID:    m.SenderID,
		ReceiverID:  m.ReceiverID,
		Seq:         m.Seq,
		Content:     m.Content,
		ClientNonce: m.ClientNonce,
		ParentID:    m.ParentID,
		Status:      m.Status,
		DeliveredAt: m.DeliveredAt,
		ReadAt:      m.ReadAt,
		CreatedAt:   m.CreatedAt,
	}
}

// MessageReaction is additive per (message, user, reaction); a duplicate
// triple resolves to the existing row.
type MessageReaction struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	MessageID uint      `gorm:"not null;uniqueIndex:idx_msg_user_reaction" json:"message_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_msg_user_reaction" json:"user_id"`
	Reaction  string    `gorm:"type:varchar(16);not null;uniqueIndex:idx_msg_user_reaction" json:"reaction"`
	CreatedAt time.Time `json:"created_at"`
}

func (MessageReaction) TableName() string {
	return "message_reactions"
}
