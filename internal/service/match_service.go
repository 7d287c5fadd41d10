package service

import (
	"errors"
	"log"

	"github.com/sevans717/aphila-sub007/internal/events"
	"github.com/sevans717/aphila-sub007/internal/models"
	"github.com/sevans717/aphila-sub007/internal/repository"
	"gorm.io/gorm"
)

// MatchService owns the per-pair state machine:
// NONE -> (one like) PENDING -> (reciprocal like) ACTIVE -> UNMATCHED|BLOCKED.
// BLOCKED is terminal; UNMATCHED can be revived by a fresh reciprocal like.
type MatchService struct {
	likes   repository.LikeRepositoryInterface
	blocks  repository.BlockRepositoryInterface
	matches repository.MatchRepositoryInterface
	queue   NotificationQueue
	bus     *events.Bus
}

func NewMatchService(
	likes repository.LikeRepositoryInterface,
	blocks repository.BlockRepositoryInterface,
	matches repository.MatchRepositoryInterface,
	queue NotificationQueue,
	bus *events.Bus,
) *MatchService {
	return &MatchService{likes: likes, blocks: blocks, matches: matches, queue: queue, bus: bus}
}

// LikeResult reports what a like call did. Created is false for a repeat
// like (a no-op, not an error); Match is set when the pair holds an ACTIVE
// match after the call.
type LikeResult struct {
	Like    *models.Like  `json:"like"`
	Created bool          `json:"created"`
	Match   *models.Match `json:"match,omitempty"`
}

// Like records a directional like and, when the reverse like already exists,
// atomically creates (or revives) the pair's match. The reciprocal check
// rides on the unique pair index, so concurrent likes from both sides end up
// with exactly one match: the loser reads back the winner's row.
func (s *MatchService) Like(likerID, likedID uint, isSuper bool) (*LikeResult, error) {
	if likerID == likedID {
		return nil, ErrSelfAction
	}

	blocked, err := s.blocks.ExistsBetween(likerID, likedID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, ErrBlocked
	}

	like, created, err := s.likes.CreateIfAbsent(&models.Like{
		LikerID: likerID,
		LikedID: likedID,
		IsSuper: isSuper,
	})
	if err != nil {
		return nil, err
	}

	result := &LikeResult{Like: like, Created: created}

	_, err = s.likes.Find(likedID, likerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// No reciprocal like yet; still surface an existing active match so
		// a repeat like reads consistently.
		if match, findErr := s.matches.FindByPair(likerID, likedID); findErr == nil && match.Status == models.MatchActive {
			result.Match = match
		}
		return result, nil
	}
	if err != nil {
		return nil, err
	}

	match, matchCreated, err := s.matches.CreateOrReactivate(likerID, likedID)
	if err != nil {
		return nil, err
	}
	if match.Status != models.MatchActive {
		// Terminal BLOCKED row; never revived by likes.
		return result, nil
	}
	result.Match = match

	if matchCreated {
		s.publish(events.MatchCreated, match)
		s.notifyMatched(match)
	}

	return result, nil
}

// Unmatch moves an ACTIVE match to UNMATCHED. Message history is untouched.
// Repeating the call is a no-op.
func (s *MatchService) Unmatch(matchID, actorID uint) (*models.Match, error) {
	match, err := s.matches.FindByID(matchID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !match.HasParty(actorID) {
		return nil, ErrNotAParty
	}

	changed, err := s.matches.UpdateStatus(matchID, []models.MatchStatus{models.MatchActive}, models.MatchUnmatched)
	if err != nil {
		return nil, err
	}
	if !changed {
		if match.Status == models.MatchBlocked {
			return nil, ErrMatchNotActive
		}
		match.Status = models.MatchUnmatched
		return match, nil
	}

	match.Status = models.MatchUnmatched
	s.publish(events.MatchUnmatched, match)
	return match, nil
}

// Block records the block, pins any existing match to BLOCKED and cascades
// the pair's likes away. Future likes between the pair are rejected at
// validation.
func (s *MatchService) Block(blockerID, blockedID uint) (*models.Block, error) {
	if blockerID == blockedID {
		return nil, ErrSelfAction
	}

	block, _, err := s.blocks.CreateIfAbsent(&models.Block{
		BlockerID: blockerID,
		BlockedID: blockedID,
	})
	if err != nil {
		return nil, err
	}

	match, err := s.matches.FindByPair(blockerID, blockedID)
	if err == nil && match.Status != models.MatchBlocked {
		changed, updErr := s.matches.UpdateStatus(match.ID,
			[]models.MatchStatus{models.MatchActive, models.MatchUnmatched}, models.MatchBlocked)
		if updErr != nil {
			return nil, updErr
		}
		if changed {
			match.Status = models.MatchBlocked
			s.publish(events.MatchBlocked, match)
		}
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err := s.likes.DeletePair(blockerID, blockedID); err != nil {
		return nil, err
	}

	return block, nil
}

// ListMatches returns the caller's matches, most recently updated first.
func (s *MatchService) ListMatches(userID uint, limit int) ([]models.Match, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.matches.ListForUser(userID, limit)
}

func (s *MatchService) publish(kind events.Kind, match *models.Match) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(kind, []uint{match.UserAID, match.UserBID}, map[string]interface{}{
		"match_id": match.ID,
		"user_a":   match.UserAID,
		"user_b":   match.UserBID,
		"status":   match.Status,
	})
}

// notifyMatched queues a push for both parties; live sessions get the event
// through the bus bridge, this covers their offline devices.
func (s *MatchService) notifyMatched(match *models.Match) {
	if s.queue == nil {
		return
	}
	payload := map[string]interface{}{
		"match_id": match.ID,
		"user_a":   match.UserAID,
		"user_b":   match.UserBID,
	}
	for _, userID := range []uint{match.UserAID, match.UserBID} {
		if err := s.queue.Enqueue(userID, "new_match", payload); err != nil {
			log.Printf("match: enqueue new_match for user %d failed: %v", userID, err)
		}
	}
}
