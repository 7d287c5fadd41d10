package presence

import (
	"sync"
	"testing"
	"time"

	"github.com/sevans717/aphila-sub007/internal/cache"
	"github.com/sevans717/aphila-sub007/internal/models"
)

// mockUserRepo records online-flag persistence calls.
type mockUserRepo struct {
	mu     sync.Mutex
	online map[uint]bool
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{online: make(map[uint]bool)}
}

func (m *mockUserRepo) FindByID(id uint) (*models.User, error) {
	return &models.User{ID: id}, nil
}

func (m *mockUserRepo) UpdateOnlineStatus(userID uint, isOnline bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.online[userID] = isOnline
	return nil
}

func (m *mockUserRepo) isOnline(userID uint) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online[userID]
}

func testConfig() Config {
	return Config{
		IdleWindow:    50 * time.Millisecond,
		OfflineWindow: 150 * time.Millisecond,
		SweepInterval: time.Hour, // sweeps are driven manually in tests
		TypingTTL:     30 * time.Millisecond,
		ActivityTTL:   time.Hour,
	}
}

func newTestTracker() (*Tracker, *mockUserRepo) {
	repo := newMockUserRepo()
	// Nil Redis client: the presence cache degrades to a no-op.
	tracker := NewTracker(testConfig(), cache.NewPresenceCache(nil), repo, nil)
	return tracker, repo
}

func TestConnectMarksOnline(t *testing.T) {
	tracker, repo := newTestTracker()

	tracker.HandleConnect(1, "phone")

	snap := tracker.Get(1)
	if snap.Status != models.PresenceOnline {
		t.Errorf("expected online, got %s", snap.Status)
	}
	if snap.DeviceID != "phone" {
		t.Errorf("expected device phone, got %s", snap.DeviceID)
	}
	if !repo.isOnline(1) {
		t.Error("online flag must be persisted on the edge")
	}
}

func TestUnknownUserReadsOffline(t *testing.T) {
	tracker, _ := newTestTracker()

	snap := tracker.Get(42)
	if snap.Status != models.PresenceOffline {
		t.Errorf("expected offline for unknown user, got %s", snap.Status)
	}
}

func TestLastDisconnectGoesOffline(t *testing.T) {
	tracker, repo := newTestTracker()

	tracker.HandleConnect(1, "phone")
	tracker.HandleConnect(1, "laptop")

	tracker.HandleDisconnect(1, "phone")
	if got := tracker.Get(1).Status; got != models.PresenceOnline {
		t.Errorf("one session left, expected online, got %s", got)
	}
	if tracker.SessionCount(1) != 1 {
		t.Errorf("expected 1 session, got %d", tracker.SessionCount(1))
	}

	tracker.HandleDisconnect(1, "laptop")
	if got := tracker.Get(1).Status; got != models.PresenceOffline {
		t.Errorf("no sessions left, expected offline, got %s", got)
	}
	if repo.isOnline(1) {
		t.Error("offline edge must be persisted")
	}
}

func TestSweepDemotesIdleThenOffline(t *testing.T) {
	tracker, _ := newTestTracker()

	tracker.HandleConnect(1, "phone")

	// Past the idle window but inside the offline window.
	tracker.sweep(time.Now().Add(80 * time.Millisecond))
	if got := tracker.Get(1).Status; got != models.PresenceAway {
		t.Errorf("expected away after idle window, got %s", got)
	}

	// Past the offline window: forced offline even with a registered session,
	// repairing a missed disconnect.
	tracker.sweep(time.Now().Add(200 * time.Millisecond))
	if got := tracker.Get(1).Status; got != models.PresenceOffline {
		t.Errorf("expected offline after offline window, got %s", got)
	}
}

func TestHeartbeatRevives(t *testing.T) {
	tracker, _ := newTestTracker()

	tracker.HandleConnect(1, "phone")
	tracker.sweep(time.Now().Add(80 * time.Millisecond))
	if got := tracker.Get(1).Status; got != models.PresenceAway {
		t.Fatalf("expected away, got %s", got)
	}

	tracker.Heartbeat(1, "phone")
	if got := tracker.Get(1).Status; got != models.PresenceOnline {
		t.Errorf("heartbeat must restore online, got %s", got)
	}
}

func TestTypingExpiresOnSweep(t *testing.T) {
	tracker, _ := newTestTracker()

	target := uint(7)
	tracker.Touch(1, models.ActivityTyping, &target)

	snap := tracker.Get(1)
	if !snap.IsActive || len(snap.Activities) != 1 {
		t.Fatalf("expected one live activity, got %+v", snap.Activities)
	}
	if snap.Status != models.PresenceOnline {
		t.Errorf("activity must imply online, got %s", snap.Status)
	}

	tracker.sweep(time.Now().Add(40 * time.Millisecond))
	snap = tracker.Get(1)
	if snap.IsActive {
		t.Error("typing must auto-expire after its TTL")
	}
	if snap.Status != models.PresenceOnline {
		t.Errorf("activity expiry must not change presence, got %s", snap.Status)
	}
}

func TestTouchSupersedesSameType(t *testing.T) {
	tracker, _ := newTestTracker()

	a, b := uint(7), uint(8)
	tracker.Touch(1, models.ActivityViewing, &a)
	tracker.Touch(1, models.ActivityViewing, &b)

	snap := tracker.Get(1)
	if len(snap.Activities) != 1 {
		t.Fatalf("same-type touch must supersede, got %d activities", len(snap.Activities))
	}
	if snap.Activities[0].TargetID == nil || *snap.Activities[0].TargetID != b {
		t.Error("latest target must win")
	}
}

func TestEndActivity(t *testing.T) {
	tracker, _ := newTestTracker()

	tracker.Touch(1, models.ActivityViewing, nil)
	tracker.EndActivity(1, models.ActivityViewing)

	if tracker.Get(1).IsActive {
		t.Error("ended activity must disappear")
	}

	// Unknown users and unknown types are no-ops.
	tracker.EndActivity(99, models.ActivityTyping)
	tracker.EndActivity(1, models.ActivityTyping)
}

func TestDisconnectClearsActivities(t *testing.T) {
	tracker, _ := newTestTracker()

	tracker.HandleConnect(1, "phone")
	tracker.Touch(1, models.ActivityTyping, nil)

	tracker.HandleDisconnect(1, "phone")
	snap := tracker.Get(1)
	if snap.IsActive {
		t.Error("going offline must clear activities")
	}
}

func TestSweepDropsStaleOfflineEntries(t *testing.T) {
	tracker, _ := newTestTracker()

	tracker.HandleConnect(1, "phone")
	tracker.HandleDisconnect(1, "phone")

	tracker.sweep(time.Now().Add(200 * time.Millisecond))

	tracker.mu.RLock()
	_, exists := tracker.users[1]
	tracker.mu.RUnlock()
	if exists {
		t.Error("stale offline entries must be evicted from memory")
	}
}
