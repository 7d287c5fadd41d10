package models

import (
	"time"
)

type PresenceStatus string

const (
	PresenceOnline  PresenceStatus = "online"
	PresenceAway    PresenceStatus = "away"
	PresenceOffline PresenceStatus = "offline"
)

// Activity types carried over the live-session protocol. Typing-class
// activities auto-expire quickly; viewing activities live until superseded
// or explicitly ended.
const (
	ActivityTyping  = "typing"
	ActivityViewing = "viewing"
)

// UserActivity is an ephemeral "currently doing X" marker attached to a
// user's presence. It is never durably stored.
type UserActivity struct {
	Type      string     `json:"type"`
	TargetID  *uint      `json:"target_id,omitempty"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// PresenceSnapshot is the read view handed out by the tracker and cached in
// Redis. It is eventually consistent with the latest touches and sweeps.
type PresenceSnapshot struct {
	UserID       uint           `json:"user_id" msgpack:"user_id"`
	Status       PresenceStatus `json:"status" msgpack:"status"`
	LastSeen     time.Time      `json:"last_seen" msgpack:"last_seen"`
	LastActivity time.Time      `json:"last_activity" msgpack:"last_activity"`
	IsActive     bool           `json:"is_active" msgpack:"is_active"`
	DeviceID     string         `json:"device_id,omitempty" msgpack:"device_id"`
	Activities   []UserActivity `json:"activities,omitempty" msgpack:"activities"`
}
