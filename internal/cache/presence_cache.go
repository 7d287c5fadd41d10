package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/sevans717/aphila-sub007/internal/models"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	// PresenceTTL must outlive the heartbeat interval so a crashed node's
	// entries self-expire instead of sticking online forever.
	PresenceTTL = 90 * time.Second

	onlineSetKey = "presence:online"
)

// PresenceCache mirrors tracker snapshots into Redis so HTTP presence reads
// and cross-process consumers don't have to hit the tracker. Best-effort:
// every method tolerates a nil cache.
type PresenceCache struct {
	redis *RedisCache
}

// NewPresenceCache creates a new presence cache
func NewPresenceCache(redis *RedisCache) *PresenceCache {
	return &PresenceCache{redis: redis}
}

func presenceKey(userID uint) string {
	return fmt.Sprintf("presence:%d", userID)
}

// SetSnapshot stores the user's presence snapshot and maintains the online
// set membership.
func (pc *PresenceCache) SetSnapshot(ctx context.Context, snap *models.PresenceSnapshot) error {
	if pc == nil || pc.redis == nil {
		return nil
	}
	data, err := msgpack.Marshal(snap)
	if err != nil {
		return err
	}
	if err := pc.redis.Set(ctx, presenceKey(snap.UserID), data, PresenceTTL); err != nil {
		return err
	}
	if snap.Status == models.PresenceOffline {
		return pc.redis.SetRemove(ctx, onlineSetKey, snap.UserID)
	}
	return pc.redis.SetAdd(ctx, onlineSetKey, snap.UserID)
}

// GetSnapshot retrieves a cached snapshot; ok=false on miss or decode error.
func (pc *PresenceCache) GetSnapshot(ctx context.Context, userID uint) (*models.PresenceSnapshot, bool) {
	if pc == nil || pc.redis == nil {
		return nil, false
	}
	data, err := pc.redis.Get(ctx, presenceKey(userID))
	if err != nil || data == nil {
		return nil, false
	}
	var snap models.PresenceSnapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return nil, false
	}
	return &snap, true
}

// Remove clears a user's presence entry (used when the tracker goes offline).
func (pc *PresenceCache) Remove(ctx context.Context, userID uint) error {
	if pc == nil || pc.redis == nil {
		return nil
	}
	if err := pc.redis.SetRemove(ctx, onlineSetKey, userID); err != nil {
		return err
	}
	return pc.redis.Delete(ctx, presenceKey(userID))
}

// OnlineCount returns how many users the online set currently holds.
func (pc *PresenceCache) OnlineCount(ctx context.Context) (int64, error) {
	if pc == nil || pc.redis == nil {
		return 0, nil
	}
	return pc.redis.SetCard(ctx, onlineSetKey)
}
