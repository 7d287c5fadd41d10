package repository

import (
	"errors"

	"github.com/sevans717/aphila-sub007/internal/models"
	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// seqRetries bounds how often an insert retries after losing a per-match
// sequence race before giving up with the underlying error.
const seqRetries = 3

// CreateWithSeq persists the message with the next per-match sequence number
// inside one transaction. Two unique indexes guard it: (match, sender, nonce)
// makes a nonce replay return the original row (replayed=true), and
// (match, seq) serializes concurrent senders: the loser re-reads MAX(seq)
// and retries.
func (r *MessageRepository) CreateWithSeq(message *models.Message) (*models.Message, bool, error) {
	var lastErr error
	for attempt := 0; attempt < seqRetries; attempt++ {
		err := r.db.Transaction(func(tx *gorm.DB) error {
			var maxSeq uint64
			row := tx.Model(&models.Message{}).
				Where("match_id = ?", message.MatchID).
				Select("COALESCE(MAX(seq), 0)").
				Row()
			if err := row.Scan(&maxSeq); err != nil {
				return err
			}
			message.Seq = maxSeq + 1
			return tx.Create(message).Error
		})
		if err == nil {
			return message, false, nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Nonce replay wins over a seq collision: check it first.
			existing, findErr := r.FindByNonce(message.MatchID, message.SenderID, message.ClientNonce)
			if findErr == nil {
				return existing, true, nil
			}
			if !errors.Is(findErr, gorm.ErrRecordNotFound) {
				return nil, false, findErr
			}
			// Seq collision with a concurrent sender; retry with a fresh MAX.
			message.ID = 0
			lastErr = err
			continue
		}
		return nil, false, err
	}
	return nil, false, lastErr
}

func (r *MessageRepository) FindByID(id uint) (*models.Message, error) {
	var message models.Message
	err := r.db.First(&message, id).Error
	return &message, err
}

func (r *MessageRepository) FindByNonce(matchID, senderID uint, clientNonce string) (*models.Message, error) {
	var message models.Message
	err := r.db.Where("match_id = ? AND sender_id = ? AND client_nonce = ?",
		matchID, senderID, clientNonce).First(&message).Error
	return &message, err
}

// ListByMatch returns messages in seq order for history replay. beforeSeq=0
// starts from the newest page; otherwise only messages with seq < beforeSeq
// are returned.
func (r *MessageRepository) ListByMatch(matchID uint, beforeSeq uint64, limit int) ([]models.Message, error) {
	q := r.db.Where("match_id = ?", matchID)
	if beforeSeq > 0 {
		q = q.Where("seq < ?", beforeSeq)
	}
	var messages []models.Message
	err := q.Order("seq DESC").Limit(limit).Find(&messages).Error

	// Reverse to get chronological order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, err
}

// MarkDelivered moves sent -> delivered. The guarded WHERE keeps the status
// monotonic; returns whether this call performed the transition.
func (r *MessageRepository) MarkDelivered(messageID uint) (bool, error) {
	res := r.db.Model(&models.Message{}).
		Where("id = ? AND status = ?", messageID, models.StatusSent).
		Updates(map[string]interface{}{
			"status":       models.StatusDelivered,
			"delivered_at": gorm.Expr("NOW()"),
		})
	return res.RowsAffected > 0, res.Error
}

// MarkRead moves sent/delivered -> read exactly once.
func (r *MessageRepository) MarkRead(messageID uint) (bool, error) {
	res := r.db.Model(&models.Message{}).
		Where("id = ? AND status IN ?", messageID,
			[]models.MessageStatus{models.StatusSent, models.StatusDelivered}).
		Updates(map[string]interface{}{
			"status":  models.StatusRead,
			"read_at": gorm.Expr("NOW()"),
		})
	return res.RowsAffected > 0, res.Error
}
