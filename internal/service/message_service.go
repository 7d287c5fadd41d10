package service

import (
	"errors"
	"log"

	"github.com/sevans717/aphila-sub007/internal/events"
	"github.com/sevans717/aphila-sub007/internal/models"
	"github.com/sevans717/aphila-sub007/internal/repository"
	"gorm.io/gorm"
)

// MessageService is the message pipeline: validate, dedup on client nonce,
// persist in per-match order, then best-effort delivery (live push or
// dispatcher fallback). Delivery never changes the persisted status; only
// client acks and markRead move it forward.
type MessageService struct {
	messages  repository.MessageRepositoryInterface
	reactions repository.ReactionRepositoryInterface
	matches   repository.MatchRepositoryInterface
	hub       LiveDeliverer
	queue     NotificationQueue
	bus       *events.Bus
}

func NewMessageService(
	messages repository.MessageRepositoryInterface,
	reactions repository.ReactionRepositoryInterface,
	matches repository.MatchRepositoryInterface,
	hub LiveDeliverer,
	queue NotificationQueue,
	bus *events.Bus,
) *MessageService {
	return &MessageService{
		messages:  messages,
		reactions: reactions,
		matches:   matches,
		hub:       hub,
		queue:     queue,
		bus:       bus,
	}
}

// Send runs the pipeline for one send request. A nonce replay returns the
// original message unchanged; a storage failure comes back with status
// FAILED alongside the error, never silently dropped.
func (s *MessageService) Send(matchID, senderID uint, content, clientNonce string, parentID *uint) (*models.Message, error) {
	if clientNonce == "" {
		return nil, ErrMissingNonce
	}

	match, err := s.matches.FindByID(matchID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !match.HasParty(senderID) {
		return nil, ErrNotAParty
	}
	if match.Status != models.MatchActive {
		return nil, ErrMatchNotActive
	}
	receiverID := match.OtherParty(senderID)

	if parentID != nil {
		parent, parentErr := s.messages.FindByID(*parentID)
		if errors.Is(parentErr, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidParent
		}
		if parentErr != nil {
			return nil, parentErr
		}
		if parent.MatchID != matchID {
			return nil, ErrInvalidParent
		}
	}

	// Fast-path idempotency check before paying for the insert transaction.
	if existing, findErr := s.messages.FindByNonce(matchID, senderID, clientNonce); findErr == nil {
		return existing, nil
	} else if !errors.Is(findErr, gorm.ErrRecordNotFound) {
		return nil, findErr
	}

	message := &models.Message{
		MatchID:     matchID,
		SenderID:    senderID,
		ReceiverID:  receiverID,
		Content:     content,
		ClientNonce: clientNonce,
		ParentID:    parentID,
		Status:      models.StatusSent,
	}

	persisted, replayed, err := s.messages.CreateWithSeq(message)
	if err != nil {
		message.Status = models.StatusFailed
		return message, err
	}
	if replayed {
		return persisted, nil
	}

	if s.bus != nil {
		s.bus.Publish(events.MessageSent, []uint{senderID, receiverID}, map[string]interface{}{
			"message_id": persisted.ID,
			"match_id":   matchID,
			"sender_id":  senderID,
			"seq":        persisted.Seq,
		})
	}

	// SENT confirms server receipt only; DELIVERED waits for the client ack.
	delivered := false
	if s.hub != nil {
		delivered = s.hub.Deliver(receiverID, map[string]interface{}{
			"type":    "message",
			"payload": persisted.ToResponse(),
		})
	}
	if !delivered && s.queue != nil {
		if qErr := s.queue.Enqueue(receiverID, "new_message", map[string]interface{}{
			"message_id": persisted.ID,
			"match_id":   matchID,
			"sender_id":  senderID,
		}); qErr != nil {
			log.Printf("message: enqueue fallback for user %d failed: %v", receiverID, qErr)
		}
	}

	return persisted, nil
}

// Ack records the receiving client's acceptance of a pushed message:
// sent -> delivered, monotonic, receiver-only.
func (s *MessageService) Ack(messageID, receiverID uint) (*models.Message, error) {
	message, err := s.find(messageID)
	if err != nil {
		return nil, err
	}
	if message.ReceiverID != receiverID {
		return nil, ErrNotReceiver
	}

	changed, err := s.messages.MarkDelivered(messageID)
	if err != nil {
		return nil, err
	}
	if !changed {
		return message, nil
	}

	message, err = s.find(messageID)
	if err != nil {
		return nil, err
	}
	if s.bus != nil {
		s.bus.Publish(events.MessageAcked, []uint{message.SenderID}, map[string]interface{}{
			"message_id": message.ID,
			"match_id":   message.MatchID,
		})
	}
	s.notifySender(message, "delivered")
	return message, nil
}

// MarkRead sets READ and read_at exactly once; repeat calls are no-ops and
// the status never regresses.
func (s *MessageService) MarkRead(messageID, readerID uint) (*models.Message, error) {
	message, err := s.find(messageID)
	if err != nil {
		return nil, err
	}
	if message.ReceiverID != readerID {
		return nil, ErrNotReceiver
	}

	changed, err := s.messages.MarkRead(messageID)
	if err != nil {
		return nil, err
	}
	if !changed {
		return message, nil
	}

	message, err = s.find(messageID)
	if err != nil {
		return nil, err
	}
	if s.bus != nil {
		s.bus.Publish(events.MessageRead, []uint{message.SenderID}, map[string]interface{}{
			"message_id": message.ID,
			"match_id":   message.MatchID,
		})
	}
	s.notifySender(message, "read")
	return message, nil
}

// React adds a reaction; the duplicate triple resolves to the existing row.
func (s *MessageService) React(messageID, userID uint, reaction string) (*models.MessageReaction, bool, error) {
	message, err := s.find(messageID)
	if err != nil {
		return nil, false, err
	}
	if message.SenderID != userID && message.ReceiverID != userID {
		return nil, false, ErrNotAParty
	}

	row, created, err := s.reactions.CreateIfAbsent(&models.MessageReaction{
		MessageID: messageID,
		UserID:    userID,
		Reaction:  reaction,
	})
	if err != nil {
		return nil, false, err
	}
	if !created {
		return row, false, nil
	}

	peerID := message.SenderID
	if userID == message.SenderID {
		peerID = message.ReceiverID
	}

	if s.bus != nil {
		s.bus.Publish(events.MessageReacted, []uint{peerID}, map[string]interface{}{
			"message_id": messageID,
			"user_id":    userID,
			"reaction":   reaction,
		})
	}

	delivered := false
	if s.hub != nil {
		delivered = s.hub.Deliver(peerID, map[string]interface{}{
			"type": "reaction",
			"payload": map[string]interface{}{
				"message_id": messageID,
				"user_id":    userID,
				"reaction":   reaction,
			},
		})
	}
	if !delivered && s.queue != nil {
		if qErr := s.queue.Enqueue(peerID, "message_reaction", map[string]interface{}{
			"message_id": messageID,
			"user_id":    userID,
			"reaction":   reaction,
		}); qErr != nil {
			log.Printf("message: enqueue reaction for user %d failed: %v", peerID, qErr)
		}
	}

	return row, true, nil
}

// History replays a match's messages in seq order with cursor pagination.
func (s *MessageService) History(matchID, requesterID uint, beforeSeq uint64, limit int) ([]models.Message, error) {
	match, err := s.matches.FindByID(matchID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !match.HasParty(requesterID) {
		return nil, ErrNotAParty
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.messages.ListByMatch(matchID, beforeSeq, limit)
}

// Reactions lists all reactions on a message for a match party.
func (s *MessageService) Reactions(messageID, requesterID uint) ([]models.MessageReaction, error) {
	message, err := s.find(messageID)
	if err != nil {
		return nil, err
	}
	if message.SenderID != requesterID && message.ReceiverID != requesterID {
		return nil, ErrNotAParty
	}
	return s.reactions.ListByMessage(messageID)
}

func (s *MessageService) find(messageID uint) (*models.Message, error) {
	message, err := s.messages.FindByID(messageID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return message, nil
}

// notifySender pushes a status frame to the sender's live sessions. Read and
// delivery receipts are fire-and-forget; an offline sender just misses them.
func (s *MessageService) notifySender(message *models.Message, status string) {
	if s.hub == nil {
		return
	}
	s.hub.Deliver(message.SenderID, map[string]interface{}{
		"type": "status",
		"payload": map[string]interface{}{
			"message_id": message.ID,
			"match_id":   message.MatchID,
			"status":     status,
		},
	})
}
