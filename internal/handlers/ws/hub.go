package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
)

// PresenceListener receives connection lifecycle signals from the hub.
type PresenceListener interface {
	HandleConnect(userID uint, deviceID string)
	HandleDisconnect(userID uint, deviceID string)
}

// Conn is the subset of the websocket connection the hub drives. Satisfied
// by *websocket.Conn.
type Conn interface {
	SetPongHandler(h func(appData string) error)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// ClientConnection wraps one live session for a (user, device) pair. All
// socket writes go through the send channel and a single writer goroutine.
type ClientConnection struct {
	Conn         Conn
	UserID       uint
	DeviceID     string
	SupportsGzip bool
	LastPong     time.Time

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func (c *ClientConnection) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.Conn.Close()
	})
}

// Hub is the connection registry: it owns every live session keyed by
// (userID, deviceID) and provides synchronous deliver-if-online semantics.
// Sessions are volatile; durable state never depends on them.
type Hub struct {
	mu       sync.RWMutex
	sessions map[uint]map[string]*ClientConnection

	listener     PresenceListener
	sendBuffer   int
	sendTimeout  time.Duration
	pingInterval time.Duration
	pongTimeout  time.Duration

	stop chan struct{}
}

// NewHub creates a new Hub instance and starts its health checker.
func NewHub(listener PresenceListener) *Hub {
	hub := &Hub{
		sessions:     make(map[uint]map[string]*ClientConnection),
		listener:     listener,
		sendBuffer:   256,
		sendTimeout:  10 * time.Second,
		pingInterval: 30 * time.Second,
		pongTimeout:  90 * time.Second,
		stop:         make(chan struct{}),
	}

	go hub.connectionHealthChecker()

	return hub
}

// Register adds a session, replacing any existing session for the same
// device. Emits a connect signal to the presence listener.
func (h *Hub) Register(userID uint, deviceID string, conn Conn, supportsGzip bool) *ClientConnection {
	client := &ClientConnection{
		Conn:         conn,
		UserID:       userID,
		DeviceID:     deviceID,
		SupportsGzip: supportsGzip,
		LastPong:     time.Now(),
		send:         make(chan []byte, h.sendBuffer),
		done:         make(chan struct{}),
	}

	conn.SetPongHandler(func(appData string) error {
		h.mu.Lock()
		if devices, ok := h.sessions[userID]; ok {
			if c, ok := devices[deviceID]; ok {
				c.LastPong = time.Now()
			}
		}
		h.mu.Unlock()
		conn.SetReadDeadline(time.Now().Add(h.pongTimeout))
		return nil
	})
	conn.SetReadDeadline(time.Now().Add(h.pongTimeout))

	h.mu.Lock()
	devices, ok := h.sessions[userID]
	if !ok {
		devices = make(map[string]*ClientConnection)
		h.sessions[userID] = devices
	}
	old := devices[deviceID]
	devices[deviceID] = client
	h.mu.Unlock()

	// A replaced session is closed silently: the device never went away.
	if old != nil {
		old.close()
	}

	go h.writePump(client)

	if h.listener != nil {
		h.listener.HandleConnect(userID, deviceID)
	}

	log.Printf("hub: user %d device %s connected (gzip: %v)", userID, deviceID, supportsGzip)
	return client
}

// Unregister removes the given session. Idempotent, and keyed on the session
// pointer rather than the (user, device) slot: a handler whose connection was
// replaced by a newer registration must not tear the replacement down.
func (h *Hub) Unregister(client *ClientConnection) {
	if client == nil {
		return
	}
	if !h.remove(client) {
		client.close()
		return
	}
	client.close()

	if h.listener != nil {
		h.listener.HandleDisconnect(client.UserID, client.DeviceID)
	}

	log.Printf("hub: user %d device %s disconnected", client.UserID, client.DeviceID)
}

// remove detaches the session from the registry if it still occupies its
// slot. Returns whether this call removed it.
func (h *Hub) remove(client *ClientConnection) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	devices, ok := h.sessions[client.UserID]
	if !ok || devices[client.DeviceID] != client {
		return false
	}
	delete(devices, client.DeviceID)
	if len(devices) == 0 {
		delete(h.sessions, client.UserID)
	}
	return true
}

// evict removes a session whose writer is stuck or erroring. Eviction never
// fails the delivering caller.
func (h *Hub) evict(client *ClientConnection) {
	h.mu.Lock()
	removed := false
	if devices, ok := h.sessions[client.UserID]; ok {
		if devices[client.DeviceID] == client {
			delete(devices, client.DeviceID)
			if len(devices) == 0 {
				delete(h.sessions, client.UserID)
			}
			removed = true
		}
	}
	h.mu.Unlock()

	client.close()

	if removed {
		if h.listener != nil {
			h.listener.HandleDisconnect(client.UserID, client.DeviceID)
		}
		log.Printf("hub: evicted stalled session user %d device %s", client.UserID, client.DeviceID)
	}
}

// Deliver attempts a non-blocking send to every live session of the user.
// Returns true if at least one session accepted the event; false means the
// caller must route through the notification dispatcher instead.
func (h *Hub) Deliver(userID uint, event interface{}) bool {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("hub: marshal failed for user %d: %v", userID, err)
		return false
	}

	h.mu.RLock()
	devices := h.sessions[userID]
	clients := make([]*ClientConnection, 0, len(devices))
	for _, c := range devices {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	accepted := 0
	for _, client := range clients {
		select {
		case client.send <- data:
			accepted++
		default:
			// Full buffer means the writer is stuck past its deadline.
			go h.evict(client)
		}
	}
	return accepted > 0
}

// IsOnline checks if a user has at least one live session.
func (h *Hub) IsOnline(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[userID]) > 0
}

// Count returns the number of live sessions across all users.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, devices := range h.sessions {
		n += len(devices)
	}
	return n
}

// OnlineUsers returns the IDs of users with at least one live session.
func (h *Hub) OnlineUsers() []uint {
	h.mu.RLock()
	defer h.mu.RUnlock()
	users := make([]uint, 0, len(h.sessions))
	for userID := range h.sessions {
		users = append(users, userID)
	}
	return users
}

// Stop shuts the hub down and closes every live session.
func (h *Hub) Stop() {
	close(h.stop)
	h.mu.Lock()
	clients := make([]*ClientConnection, 0)
	for _, devices := range h.sessions {
		for _, c := range devices {
			clients = append(clients, c)
		}
	}
	h.sessions = make(map[uint]map[string]*ClientConnection)
	h.mu.Unlock()
	for _, c := range clients {
		c.close()
	}
}

// writePump is the single writer for a session: it drains the send buffer,
// compresses large frames for gzip-capable clients, and keeps the connection
// alive with pings. Any write error evicts the session.
func (h *Hub) writePump(client *ClientConnection) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-client.done:
			return
		case data := <-client.send:
			frameType := websocket.TextMessage
			if client.SupportsGzip && len(data) > 512 {
				if compressed, err := CompressMessage(data); err == nil && len(compressed) < len(data) {
					data = compressed
					frameType = websocket.BinaryMessage
				}
			}
			client.Conn.SetWriteDeadline(time.Now().Add(h.sendTimeout))
			if err := client.Conn.WriteMessage(frameType, data); err != nil {
				log.Printf("hub: write to user %d device %s failed: %v", client.UserID, client.DeviceID, err)
				h.evict(client)
				return
			}
		case <-ticker.C:
			if err := client.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(h.sendTimeout)); err != nil {
				log.Printf("hub: ping to user %d device %s failed: %v", client.UserID, client.DeviceID, err)
				h.evict(client)
				return
			}
		}
	}
}

// connectionHealthChecker evicts sessions that stopped answering pings.
func (h *Hub) connectionHealthChecker() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
			now := time.Now()
			h.mu.RLock()
			dead := make([]*ClientConnection, 0)
			for _, devices := range h.sessions {
				for _, client := range devices {
					if now.Sub(client.LastPong) > h.pongTimeout {
						dead = append(dead, client)
					}
				}
			}
			h.mu.RUnlock()

			for _, client := range dead {
				log.Printf("hub: removing dead session user %d device %s (no pong)", client.UserID, client.DeviceID)
				h.evict(client)
			}
		}
	}
}
