package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestNormalizePair(t *testing.T) {
	tests := []struct {
		name         string
		inA, inB     uint
		wantA, wantB uint
	}{
		{"Already ordered", 1, 2, 1, 2},
		{"Reversed", 9, 3, 3, 9},
		{"Equal", 5, 5, 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := NormalizePair(tt.inA, tt.inB)
			if a != tt.wantA || b != tt.wantB {
				t.Errorf("NormalizePair(%d,%d) = (%d,%d), want (%d,%d)",
					tt.inA, tt.inB, a, b, tt.wantA, tt.wantB)
			}
		})
	}
}

func TestMatchParties(t *testing.T) {
	match := &Match{UserAID: 1, UserBID: 2}

	if !match.HasParty(1) || !match.HasParty(2) {
		t.Error("both users are parties")
	}
	if match.HasParty(3) {
		t.Error("user 3 is not a party")
	}
	if match.OtherParty(1) != 2 || match.OtherParty(2) != 1 {
		t.Error("OtherParty must return the peer")
	}
}

func TestMessageToResponse(t *testing.T) {
	now := time.Now()
	parent := uint(4)
	msg := &Message{
		ID:          10,
		MatchID:     3,
		SenderID:    1,
		ReceiverID:  2,
		Seq:         7,
		Content:     "hi",
		ClientNonce: "nonce",
		ParentID:    &parent,
		Status:      StatusDelivered,
		DeliveredAt: &now,
		CreatedAt:   now,
	}

	resp := msg.ToResponse()
	if resp.ID != 10 || resp.Seq != 7 || resp.Status != StatusDelivered {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.ParentID == nil || *resp.ParentID != parent {
		t.Error("parent id missing from response")
	}
}

func TestDeviceTokenNeverSerialized(t *testing.T) {
	device := Device{ID: 1, UserID: 2, DeviceID: "phone", Token: "secret-endpoint", Platform: "web"}
	data, err := json.Marshal(device)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), "secret-endpoint") {
		t.Error("push token must never appear in JSON output")
	}
}

func TestDeliveryTerminal(t *testing.T) {
	var d NotificationDelivery
	if d.Terminal() {
		t.Error("fresh delivery is not terminal")
	}
	d.Delivered = true
	if !d.Terminal() {
		t.Error("delivered is terminal")
	}
	d = NotificationDelivery{GaveUp: true}
	if !d.Terminal() {
		t.Error("gave up is terminal")
	}
}

func TestUserToResponse(t *testing.T) {
	lastSeen := time.Now()
	user := &User{ID: 1, Username: "ada", IsOnline: true, LastSeen: &lastSeen}

	resp := user.ToResponse()
	if resp.ID != 1 || resp.Username != "ada" || !resp.IsOnline {
		t.Errorf("unexpected response: %+v", resp)
	}
}
