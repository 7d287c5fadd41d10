package testutil

import (
	"os"
	"testing"
	"time"

	"github.com/sevans717/aphila-sub007/internal/models"
	"gorm.io/gorm"
)

// TestHelper provides utility functions for tests
type TestHelper struct {
	t *testing.T
}

func NewTestHelper(t *testing.T) *TestHelper {
	return &TestHelper{t: t}
}

// CreateTestUser creates a test user with default values
func (h *TestHelper) CreateTestUser(id uint, username string) *models.User {
	if id == 0 {
		id = 1
	}
	if username == "" {
		username = "testuser"
	}

	return &models.User{
		ID:        id,
		Username:  username,
		IsOnline:  false,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// CreateTestMatch creates an active match between two users
func (h *TestHelper) CreateTestMatch(id, userA, userB uint) *models.Match {
	if id == 0 {
		id = 1
	}
	a, b := models.NormalizePair(userA, userB)
	return &models.Match{
		ID:        id,
		UserAID:   a,
		UserBID:   b,
		Status:    models.MatchActive,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// CreateTestMessage creates a test message with default values
func (h *TestHelper) CreateTestMessage(id, matchID, senderID, receiverID uint, seq uint64) *models.Message {
	if id == 0 {
		id = 1
	}
	if matchID == 0 {
		matchID = 1
	}
	if seq == 0 {
		seq = 1
	}

	return &models.Message{
		ID:          id,
		MatchID:     matchID,
		SenderID:    senderID,
		ReceiverID:  receiverID,
		Seq:         seq,
		Content:     "Test message",
		ClientNonce: "nonce-" + time.Now().Format("150405.000000000"),
		Status:      models.StatusSent,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
}

// SetupTestEnv sets up required environment variables for testing
func (h *TestHelper) SetupTestEnv() {
	os.Setenv("JWT_SECRET", "test-secret-key-for-testing-only")
	os.Setenv("DATABASE_URL", "")
}

// TeardownTestEnv cleans up environment variables after testing
func (h *TestHelper) TeardownTestEnv() {
	os.Unsetenv("JWT_SECRET")
	os.Unsetenv("DATABASE_URL")
}

// AssertError checks if an error occurred when it should (or shouldn't)
func (h *TestHelper) AssertError(err error, shouldErr bool, testName string) {
	if (err != nil) != shouldErr {
		if shouldErr {
			h.t.Errorf("%s: expected error but got nil", testName)
		} else {
			h.t.Errorf("%s: unexpected error: %v", testName, err)
		}
	}
}

// AssertEqual checks if two values are equal
func (h *TestHelper) AssertEqual(got, want interface{}, testName string) {
	if got != want {
		h.t.Errorf("%s: got %v, want %v", testName, got, want)
	}
}

// AssertNotNil checks if a value is not nil
func (h *TestHelper) AssertNotNil(value interface{}, testName string) {
	if value == nil {
		h.t.Errorf("%s: expected non-nil value", testName)
	}
}

// GetRecordNotFoundError returns an error that mimics gorm.ErrRecordNotFound
func GetRecordNotFoundError() error {
	return gorm.ErrRecordNotFound
}
