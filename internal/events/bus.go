package events

import (
	"log"
	"sync"
	"time"
)

type Kind string

const (
	MatchCreated    Kind = "match.created"
	MatchUnmatched  Kind = "match.unmatched"
	MatchBlocked    Kind = "match.blocked"
	MessageSent     Kind = "message.sent"
	MessageAcked    Kind = "message.delivered"
	MessageRead     Kind = "message.read"
	MessageReacted  Kind = "message.reacted"
	PresenceChanged Kind = "presence.changed"
)

// Event is the outbound envelope handed to collaborators (live push fan-out,
// analytics ingestion, notification template rendering). UserIDs lists the
// users the event concerns; Payload is an already-serializable view.
type Event struct {
	Kind    Kind                   `json:"kind"`
	UserIDs []uint                 `json:"user_ids"`
	Payload map[string]interface{} `json:"payload"`
	At      time.Time              `json:"at"`
}

// Bus fans events out to subscriber channels. Publishing never blocks: a
// subscriber that falls behind its buffer loses events, matching the
// best-effort contract of the outbound surface.
type Bus struct {
	mu     sync.RWMutex
	subs   []chan Event
	buffer int
	closed bool
}

func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 256
	}
	return &Bus{buffer: buffer}
}

// Subscribe returns a channel receiving all future events.
func (b *Bus) Subscribe() <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, b.buffer)
	b.subs = append(b.subs, ch)
	return ch
}

// Publish delivers the event to every subscriber without blocking.
func (b *Bus) Publish(kind Kind, userIDs []uint, payload map[string]interface{}) {
	ev := Event{Kind: kind, UserIDs: userIDs, Payload: payload, At: time.Now()}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			log.Printf("events: dropping %s for slow subscriber", kind)
		}
	}
}

// Close stops delivery and closes all subscriber channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}
