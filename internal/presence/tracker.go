package presence

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/sevans717/aphila-sub007/internal/cache"
	"github.com/sevans717/aphila-sub007/internal/events"
	"github.com/sevans717/aphila-sub007/internal/models"
	"github.com/sevans717/aphila-sub007/internal/repository"
)

// Config tunes the presence state machine. All windows are best-effort; a
// missed disconnect is repaired by the sweep, never assumed away.
type Config struct {
	IdleWindow    time.Duration // ONLINE -> AWAY without a heartbeat
	OfflineWindow time.Duration // -> OFFLINE without sessions or heartbeats
	SweepInterval time.Duration
	TypingTTL     time.Duration // typing auto-expiry
	ActivityTTL   time.Duration // other activity auto-expiry
}

func DefaultConfig() Config {
	return Config{
		IdleWindow:    5 * time.Minute,
		OfflineWindow: 10 * time.Minute,
		SweepInterval: 30 * time.Second,
		TypingTTL:     6 * time.Second,
		ActivityTTL:   2 * time.Minute,
	}
}

type userState struct {
	status        models.PresenceStatus
	lastSeen      time.Time
	lastActivity  time.Time
	lastHeartbeat time.Time
	deviceID      string
	sessions      map[string]struct{}
	activities    map[string]*models.UserActivity
}

// Tracker derives online/away/offline presence from connection events,
// heartbeats and explicit activity touches. State is volatile and rebuildable
// from live connections; Redis mirrors snapshots best-effort and the user row
// keeps a denormalized online flag.
type Tracker struct {
	mu    sync.RWMutex
	users map[uint]*userState

	cfg      Config
	presence *cache.PresenceCache
	userRepo repository.UserRepositoryInterface
	bus      *events.Bus

	stop chan struct{}
	done chan struct{}
}

func NewTracker(cfg Config, presenceCache *cache.PresenceCache, userRepo repository.UserRepositoryInterface, bus *events.Bus) *Tracker {
	return &Tracker{
		users:    make(map[uint]*userState),
		cfg:      cfg,
		presence: presenceCache,
		userRepo: userRepo,
		bus:      bus,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the background sweep that demotes stale entries and expires
// activities.
func (t *Tracker) Start() {
	go func() {
		defer close(t.done)
		ticker := time.NewTicker(t.cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-t.stop:
				return
			case <-ticker.C:
				t.sweep(time.Now())
			}
		}
	}()
}

func (t *Tracker) Stop() {
	close(t.stop)
	<-t.done
}

func (t *Tracker) state(userID uint) *userState {
	st, ok := t.users[userID]
	if !ok {
		st = &userState{
			status:     models.PresenceOffline,
			sessions:   make(map[string]struct{}),
			activities: make(map[string]*models.UserActivity),
		}
		t.users[userID] = st
	}
	return st
}

// HandleConnect is invoked by the connection registry on session register.
func (t *Tracker) HandleConnect(userID uint, deviceID string) {
	now := time.Now()
	t.mu.Lock()
	st := t.state(userID)
	st.sessions[deviceID] = struct{}{}
	st.deviceID = deviceID
	st.lastSeen = now
	st.lastHeartbeat = now
	changed := st.status != models.PresenceOnline
	st.status = models.PresenceOnline
	snap := t.snapshotLocked(userID, st)
	t.mu.Unlock()

	t.publish(snap, changed)
}

// HandleDisconnect is invoked on session unregister; the last session going
// away takes the user offline immediately.
func (t *Tracker) HandleDisconnect(userID uint, deviceID string) {
	now := time.Now()
	t.mu.Lock()
	st := t.state(userID)
	delete(st.sessions, deviceID)
	st.lastSeen = now
	changed := false
	if len(st.sessions) == 0 && st.status != models.PresenceOffline {
		st.status = models.PresenceOffline
		st.activities = make(map[string]*models.UserActivity)
		changed = true
	}
	snap := t.snapshotLocked(userID, st)
	t.mu.Unlock()

	t.publish(snap, changed)
}

// Heartbeat refreshes liveness from a session keepalive frame.
func (t *Tracker) Heartbeat(userID uint, deviceID string) {
	now := time.Now()
	t.mu.Lock()
	st := t.state(userID)
	st.lastHeartbeat = now
	st.lastSeen = now
	if deviceID != "" {
		st.deviceID = deviceID
	}
	changed := st.status != models.PresenceOnline
	st.status = models.PresenceOnline
	snap := t.snapshotLocked(userID, st)
	t.mu.Unlock()

	t.publish(snap, changed)
}

// Touch records or refreshes an activity and implicitly marks the user
// online. A new activity of the same type supersedes the old one.
func (t *Tracker) Touch(userID uint, activityType string, targetID *uint) {
	now := time.Now()
	t.mu.Lock()
	st := t.state(userID)
	st.activities[activityType] = &models.UserActivity{
		Type:      activityType,
		TargetID:  targetID,
		StartedAt: now,
	}
	st.lastActivity = now
	st.lastSeen = now
	st.lastHeartbeat = now
	changed := st.status != models.PresenceOnline
	st.status = models.PresenceOnline
	snap := t.snapshotLocked(userID, st)
	t.mu.Unlock()

	t.publish(snap, changed)
}

// EndActivity explicitly terminates an activity type; unknown types no-op.
func (t *Tracker) EndActivity(userID uint, activityType string) {
	t.mu.Lock()
	st, ok := t.users[userID]
	if ok {
		delete(st.activities, activityType)
		st.lastSeen = time.Now()
	}
	var snap *models.PresenceSnapshot
	if ok {
		snap = t.snapshotLocked(userID, st)
	}
	t.mu.Unlock()

	if snap != nil {
		t.publish(snap, false)
	}
}

// Get returns an eventually consistent snapshot; unknown users read as
// offline.
func (t *Tracker) Get(userID uint) models.PresenceSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	st, ok := t.users[userID]
	if !ok {
		return models.PresenceSnapshot{UserID: userID, Status: models.PresenceOffline}
	}
	return *t.snapshotLocked(userID, st)
}

// SessionCount reports the live session count for a user.
func (t *Tracker) SessionCount(userID uint) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if st, ok := t.users[userID]; ok {
		return len(st.sessions)
	}
	return 0
}

func (t *Tracker) snapshotLocked(userID uint, st *userState) *models.PresenceSnapshot {
	snap := &models.PresenceSnapshot{
		UserID:       userID,
		Status:       st.status,
		LastSeen:     st.lastSeen,
		LastActivity: st.lastActivity,
		IsActive:     len(st.activities) > 0,
		DeviceID:     st.deviceID,
	}
	for _, a := range st.activities {
		snap.Activities = append(snap.Activities, *a)
	}
	return snap
}

// sweep demotes stale entries and expires activities. It also repairs missed
// disconnects: a user past the offline window is forced offline even if the
// registry still counts sessions for them.
func (t *Tracker) sweep(now time.Time) {
	type change struct {
		snap    *models.PresenceSnapshot
		changed bool
	}
	var changes []change

	t.mu.Lock()
	for userID, st := range t.users {
		dirty := false
		for typ, act := range st.activities {
			ttl := t.cfg.ActivityTTL
			if typ == models.ActivityTyping {
				ttl = t.cfg.TypingTTL
			}
			if now.Sub(act.StartedAt) > ttl {
				delete(st.activities, typ)
				dirty = true
			}
		}

		statusChanged := false
		switch st.status {
		case models.PresenceOnline:
			if now.Sub(st.lastHeartbeat) > t.cfg.OfflineWindow {
				st.status = models.PresenceOffline
				st.sessions = make(map[string]struct{})
				st.activities = make(map[string]*models.UserActivity)
				statusChanged = true
			} else if now.Sub(st.lastHeartbeat) > t.cfg.IdleWindow {
				st.status = models.PresenceAway
				statusChanged = true
			}
		case models.PresenceAway:
			if now.Sub(st.lastHeartbeat) > t.cfg.OfflineWindow {
				st.status = models.PresenceOffline
				st.sessions = make(map[string]struct{})
				st.activities = make(map[string]*models.UserActivity)
				statusChanged = true
			}
		case models.PresenceOffline:
			if len(st.sessions) == 0 && now.Sub(st.lastSeen) > t.cfg.OfflineWindow {
				delete(t.users, userID)
				continue
			}
		}

		if dirty || statusChanged {
			changes = append(changes, change{snap: t.snapshotLocked(userID, st), changed: statusChanged})
		}
	}
	t.mu.Unlock()

	for _, c := range changes {
		t.publish(c.snap, c.changed)
	}
}

// publish mirrors the snapshot into Redis, persists the denormalized online
// flag on status edges, and emits presence-changed. All best-effort.
func (t *Tracker) publish(snap *models.PresenceSnapshot, statusChanged bool) {
	ctx := context.Background()
	if err := t.presence.SetSnapshot(ctx, snap); err != nil {
		log.Printf("presence: cache update failed for user %d: %v", snap.UserID, err)
	}

	if !statusChanged {
		return
	}

	if t.userRepo != nil {
		online := snap.Status != models.PresenceOffline
		if err := t.userRepo.UpdateOnlineStatus(snap.UserID, online); err != nil {
			log.Printf("presence: persisting online flag failed for user %d: %v", snap.UserID, err)
		}
	}

	if t.bus != nil {
		t.bus.Publish(events.PresenceChanged, []uint{snap.UserID}, map[string]interface{}{
			"user_id":   snap.UserID,
			"status":    snap.Status,
			"last_seen": snap.LastSeen,
			"device_id": snap.DeviceID,
		})
	}
}
