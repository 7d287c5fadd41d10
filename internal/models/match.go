package models

import (
	"time"
)

type MatchStatus string

const (
	MatchActive    MatchStatus = "active"
	MatchUnmatched MatchStatus = "unmatched"
	MatchBlocked   MatchStatus = "blocked"
)

// Match is the mutual-consent edge permitting messaging. Exactly one row
// exists per unordered user pair: UserAID is always the smaller ID so the
// unique index covers both like directions. BLOCKED is terminal.
type Match struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserAID uint        `gorm:"not null;uniqueIndex:idx_match_pair" json:"user_a_id"`
	UserBID uint        `gorm:"not null;uniqueIndex:idx_match_pair;index" json:"user_b_id"`
	Status  MatchStatus `gorm:"type:varchar(20);default:'active';index" json:"status"`
}

func (Match) TableName() string {
	return "matches"
}

// NormalizePair orders a user pair so it can address the unique match index.
func NormalizePair(userA, userB uint) (uint, uint) {
	if userA > userB {
		return userB, userA
	}
	return userA, userB
}

// HasParty reports whether userID is one of the two matched users.
func (m *Match) HasParty(userID uint) bool {
	return m.UserAID == userID || m.UserBID == userID
}

// OtherParty returns the peer of userID in the match. Callers must check
// HasParty first; an unknown user maps to UserAID to stay total.
func (m *Match) OtherParty(userID uint) uint {
	if m.UserAID == userID {
		return m.UserBID
	}
	return m.UserAID
}
