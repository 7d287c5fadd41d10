package service

import (
	"errors"
	"sync"
	"testing"

	"github.com/sevans717/aphila-sub007/internal/models"
)

func newMatchFixture() (*MatchService, *MockLikeRepository, *MockBlockRepository, *MockMatchRepository, *fakeQueue) {
	likes := NewMockLikeRepository()
	blocks := NewMockBlockRepository()
	matches := NewMockMatchRepository()
	queue := newFakeQueue()
	svc := NewMatchService(likes, blocks, matches, queue, nil)
	return svc, likes, blocks, matches, queue
}

func TestLikeWithoutReciprocal(t *testing.T) {
	svc, _, _, _, _ := newMatchFixture()

	result, err := svc.Like(1, 2, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Created {
		t.Error("expected like to be created")
	}
	if result.Match != nil {
		t.Error("expected no match without a reciprocal like")
	}
}

func TestLikeSelfRejected(t *testing.T) {
	svc, _, _, _, _ := newMatchFixture()

	if _, err := svc.Like(1, 1, false); !errors.Is(err, ErrSelfAction) {
		t.Errorf("expected ErrSelfAction, got %v", err)
	}
}

func TestReciprocalLikeCreatesMatch(t *testing.T) {
	svc, _, _, _, queue := newMatchFixture()

	if _, err := svc.Like(1, 2, false); err != nil {
		t.Fatalf("first like: %v", err)
	}
	result, err := svc.Like(2, 1, true)
	if err != nil {
		t.Fatalf("reciprocal like: %v", err)
	}
	if result.Match == nil {
		t.Fatal("expected a match from the reciprocal like")
	}
	if result.Match.Status != models.MatchActive {
		t.Errorf("expected active match, got %s", result.Match.Status)
	}
	if result.Match.UserAID != 1 || result.Match.UserBID != 2 {
		t.Errorf("expected normalized pair (1,2), got (%d,%d)", result.Match.UserAID, result.Match.UserBID)
	}

	// Both parties get an offline push for the new match.
	if queue.jobsFor(1, "new_match") != 1 || queue.jobsFor(2, "new_match") != 1 {
		t.Error("expected one new_match job per party")
	}
}

func TestRepeatLikeIsNoOp(t *testing.T) {
	svc, _, _, _, queue := newMatchFixture()

	svc.Like(1, 2, false)
	svc.Like(2, 1, false)

	result, err := svc.Like(1, 2, false)
	if err != nil {
		t.Fatalf("repeat like: %v", err)
	}
	if result.Created {
		t.Error("repeat like must not create a new row")
	}
	if result.Match == nil || result.Match.Status != models.MatchActive {
		t.Error("repeat like should still surface the active match")
	}
	// No duplicate match notifications.
	if queue.jobsFor(1, "new_match") != 1 {
		t.Errorf("expected 1 new_match job for user 1, got %d", queue.jobsFor(1, "new_match"))
	}
}

func TestConcurrentMutualLikeSingleMatch(t *testing.T) {
	svc, _, _, matches, _ := newMatchFixture()

	var wg sync.WaitGroup
	results := make([]*LikeResult, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		results[0], _ = svc.Like(1, 2, false)
	}()
	go func() {
		defer wg.Done()
		results[1], _ = svc.Like(2, 1, false)
	}()
	wg.Wait()

	match, err := matches.FindByPair(1, 2)
	// Depending on interleaving both likes may land before either reciprocal
	// check; at most one match row ever exists for the pair.
	if err == nil {
		if match.Status != models.MatchActive {
			t.Errorf("expected active match, got %s", match.Status)
		}
		if len(matches.matches) != 1 {
			t.Errorf("expected exactly one match row, got %d", len(matches.matches))
		}
	}
}

func TestLikeBlockedPairRejected(t *testing.T) {
	svc, _, _, _, _ := newMatchFixture()

	if _, err := svc.Block(2, 1); err != nil {
		t.Fatalf("block: %v", err)
	}
	// Rejected in both directions.
	if _, err := svc.Like(1, 2, false); !errors.Is(err, ErrBlocked) {
		t.Errorf("expected ErrBlocked, got %v", err)
	}
	if _, err := svc.Like(2, 1, false); !errors.Is(err, ErrBlocked) {
		t.Errorf("expected ErrBlocked, got %v", err)
	}
}

func TestUnmatchIsIdempotent(t *testing.T) {
	svc, _, _, _, _ := newMatchFixture()

	svc.Like(1, 2, false)
	result, _ := svc.Like(2, 1, false)

	match, err := svc.Unmatch(result.Match.ID, 1)
	if err != nil {
		t.Fatalf("unmatch: %v", err)
	}
	if match.Status != models.MatchUnmatched {
		t.Errorf("expected unmatched, got %s", match.Status)
	}

	again, err := svc.Unmatch(result.Match.ID, 2)
	if err != nil {
		t.Fatalf("repeat unmatch: %v", err)
	}
	if again.Status != models.MatchUnmatched {
		t.Errorf("repeat unmatch should stay unmatched, got %s", again.Status)
	}
}

func TestUnmatchRequiresParty(t *testing.T) {
	svc, _, _, _, _ := newMatchFixture()

	svc.Like(1, 2, false)
	result, _ := svc.Like(2, 1, false)

	if _, err := svc.Unmatch(result.Match.ID, 99); !errors.Is(err, ErrNotAParty) {
		t.Errorf("expected ErrNotAParty, got %v", err)
	}
	if _, err := svc.Unmatch(12345, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUnmatchedPairCanRematch(t *testing.T) {
	svc, _, _, _, _ := newMatchFixture()

	svc.Like(1, 2, false)
	result, _ := svc.Like(2, 1, false)
	svc.Unmatch(result.Match.ID, 1)

	// The old likes still exist, so a fresh like completes the pair again.
	rematch, err := svc.Like(1, 2, false)
	if err != nil {
		t.Fatalf("rematch like: %v", err)
	}
	if rematch.Match == nil || rematch.Match.Status != models.MatchActive {
		t.Fatal("expected unmatched pair to reactivate")
	}
	if rematch.Match.ID != result.Match.ID {
		t.Errorf("reactivation must reuse the pair row, got %d want %d", rematch.Match.ID, result.Match.ID)
	}
}

func TestBlockPinsMatchAndClearsLikes(t *testing.T) {
	svc, likes, _, matches, _ := newMatchFixture()

	svc.Like(1, 2, false)
	result, _ := svc.Like(2, 1, false)

	if _, err := svc.Block(1, 2); err != nil {
		t.Fatalf("block: %v", err)
	}

	match, _ := matches.FindByID(result.Match.ID)
	if match.Status != models.MatchBlocked {
		t.Errorf("expected blocked match, got %s", match.Status)
	}
	if _, err := likes.Find(1, 2); err == nil {
		t.Error("expected pair likes to be deleted")
	}
	if _, err := likes.Find(2, 1); err == nil {
		t.Error("expected pair likes to be deleted")
	}

	// Blocked matches never come back, not via unmatch and not via likes.
	if _, err := svc.Unmatch(result.Match.ID, 2); !errors.Is(err, ErrMatchNotActive) {
		t.Errorf("expected ErrMatchNotActive, got %v", err)
	}
}

func TestBlockWithoutMatch(t *testing.T) {
	svc, _, blocks, _, _ := newMatchFixture()

	block, err := svc.Block(1, 2)
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	if block == nil {
		t.Fatal("expected block row")
	}
	exists, _ := blocks.ExistsBetween(2, 1)
	if !exists {
		t.Error("block must be visible in both directions")
	}
}

func TestListMatchesClampsLimit(t *testing.T) {
	svc, _, _, matches, _ := newMatchFixture()

	matches.CreateOrReactivate(1, 2)
	matches.CreateOrReactivate(1, 3)

	list, err := svc.ListMatches(1, -5)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("expected 2 matches, got %d", len(list))
	}
}
