package handlers

import (
	"log"
	"os"

	"github.com/gofiber/websocket/v2"
	"github.com/sevans717/aphila-sub007/internal/handlers/ws"
	"github.com/sevans717/aphila-sub007/internal/presence"
	"github.com/sevans717/aphila-sub007/internal/service"
)

type WebSocketHandler struct {
	messageService *service.MessageService
	tracker        *presence.Tracker
	hub            *ws.Hub
}

func NewWebSocketHandler(messageService *service.MessageService, tracker *presence.Tracker, hub *ws.Hub) *WebSocketHandler {
	return &WebSocketHandler{
		messageService: messageService,
		tracker:        tracker,
		hub:            hub,
	}
}

// GetHub returns the hub instance (useful for sending events from other handlers)
func (h *WebSocketHandler) GetHub() *ws.Hub {
	return h.hub
}

func (h *WebSocketHandler) HandleWebSocket(c *websocket.Conn) {
	userID := c.Locals("userID").(uint)
	deviceID := c.Locals("deviceID").(string)
	wsDebug := os.Getenv("WS_DEBUG") == "true"

	// Check if client supports gzip compression (via query param or header)
	supportsGzip := c.Query("gzip") == "1" || c.Headers("X-Supports-Gzip") == "1"

	// Unregister the session this handler registered, not whatever currently
	// occupies the slot: a reconnect replaces the session, and the stale
	// handler's teardown must leave the replacement alone.
	client := h.hub.Register(userID, deviceID, c, supportsGzip)

	defer h.hub.Unregister(client)

	log.Printf("User %d device %s connected via WebSocket", userID, deviceID)

	ctx := &ws.MessageContext{
		UserID:   userID,
		DeviceID: deviceID,
		Conn:     c,
		Hub:      h.hub,
		Messages: h.messageService,
		Presence: h.tracker,
	}

	for {
		messageType, messageBytes, err := c.ReadMessage()
		if err != nil {
			log.Printf("Error reading frame from user %d: %v", userID, err)
			break
		}

		if wsDebug {
			log.Printf("ws_recv user_id=%d device=%s frame_type=%d size=%d", userID, deviceID, messageType, len(messageBytes))
		}

		// Decompress if binary message (gzip compressed)
		if messageType == websocket.BinaryMessage {
			decompressed, err := ws.DecompressMessage(messageBytes)
			if err != nil {
				log.Printf("Error decompressing frame from user %d: %v", userID, err)
				ws.SendError(c, "decompression_failed", "Failed to decompress message", err.Error())
				continue
			}
			messageBytes = decompressed
		}

		msg, err := ws.Deserialize(messageBytes)
		if err != nil {
			log.Printf("Error deserializing frame from user %d: %v", userID, err)
			ws.SendError(c, "invalid_message", "Invalid message format", err.Error())
			continue
		}

		if err := msg.Process(ctx); err != nil {
			log.Printf("Error processing frame %s from user %d: %v", msg.GetType(), userID, err)
			ws.SendError(c, "processing_failed", "Failed to process message", err.Error())
		}
	}

	log.Printf("User %d device %s disconnected from WebSocket", userID, deviceID)
}
