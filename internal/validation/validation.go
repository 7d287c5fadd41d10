package validation

import (
	"os"
	"regexp"
	"strconv"
	"strings"
)

var (
	nonceRe    = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)
	topicRe    = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)
	deviceIDRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)
)

// Platforms accepted at device registration.
var allowedPlatforms = map[string]bool{
	"web":     true,
	"ios":     true,
	"android": true,
}

// Activity types accepted over the live-session protocol.
var allowedActivities = map[string]bool{
	"typing":  true,
	"viewing": true,
}

func MaxMessageLength() int {
	maxStr := os.Getenv("MAX_MESSAGE_LENGTH")
	if maxStr == "" {
		return 4000
	}
	max, err := strconv.Atoi(maxStr)
	if err != nil || max < 1 {
		return 4000
	}
	return max
}

func TrimAndLimit(s string, max int) string {
	s = strings.TrimSpace(s)
	if max > 0 && len(s) > max {
		return s[:max]
	}
	return s
}

// ValidateNonce accepts client idempotency keys: UUIDs and similar opaque
// tokens up to 64 chars.
func ValidateNonce(nonce string) bool {
	return nonceRe.MatchString(nonce)
}

func ValidateTopic(topic string) bool {
	return topicRe.MatchString(topic)
}

func ValidateDeviceID(deviceID string) bool {
	return deviceIDRe.MatchString(deviceID)
}

func ValidatePlatform(platform string) bool {
	return allowedPlatforms[strings.ToLower(strings.TrimSpace(platform))]
}

func NormalizePlatform(platform string) string {
	return strings.ToLower(strings.TrimSpace(platform))
}

func ValidateActivityType(activityType string) bool {
	return allowedActivities[activityType]
}

// ValidateReaction bounds reactions to short grapheme sequences; the client
// renders them, the core only stores and fans them out.
func ValidateReaction(reaction string) bool {
	reaction = strings.TrimSpace(reaction)
	return reaction != "" && len(reaction) <= 16
}
