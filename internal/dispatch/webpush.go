package dispatch

import (
	"encoding/json"
	"fmt"
	"log"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/sevans717/aphila-sub007/internal/models"
)

// WebPushSender delivers payloads over the Web Push protocol. Device.Token
// holds the serialized browser subscription (endpoint + keys) captured at
// registration.
type WebPushSender struct {
	vapidPublicKey  string
	vapidPrivateKey string
	subscriber      string
}

func NewWebPushSender(vapidPublicKey, vapidPrivateKey, subscriber string) *WebPushSender {
	return &WebPushSender{
		vapidPublicKey:  vapidPublicKey,
		vapidPrivateKey: vapidPrivateKey,
		subscriber:      subscriber,
	}
}

func (s *WebPushSender) Send(device *models.Device, payload []byte) error {
	if device.Platform != "web" {
		// Native platforms ship through their vendor bridge, which consumes
		// the same job queue out of process. Treat as accepted here.
		return nil
	}

	var sub webpush.Subscription
	if err := json.Unmarshal([]byte(device.Token), &sub); err != nil {
		return fmt.Errorf("invalid push subscription for device %d: %w", device.ID, err)
	}

	resp, err := webpush.SendNotification(payload, &sub, &webpush.Options{
		Subscriber:      s.subscriber,
		VAPIDPublicKey:  s.vapidPublicKey,
		VAPIDPrivateKey: s.vapidPrivateKey,
		TTL:             300,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("push endpoint returned %d", resp.StatusCode)
	}
	return nil
}

// LogSender is the dev fallback when VAPID keys are absent: it logs instead
// of pushing so the queue still drains.
type LogSender struct{}

func (LogSender) Send(device *models.Device, payload []byte) error {
	log.Printf("push (dry-run) device=%d platform=%s payload=%s", device.ID, device.Platform, payload)
	return nil
}
