package booking

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// inviteTokenBytes is the entropy of an invitation token. 32 bytes keeps the
// token unguessable even with the redemption endpoint exposed publicly.
const inviteTokenBytes = 32

// InviteTokenTTL is how long an invitation token stays redeemable
const InviteTokenTTL = 7 * 24 * time.Hour

// newInviteToken generates a single-use invitation secret
func newInviteToken() (string, error) {
	buf := make([]byte, inviteTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate invitation token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// tokenExpired reports whether a token's expiry instant has passed. Expiry is
// checked at redemption time; tokens are never actively swept.
func tokenExpired(expiresAt *time.Time, now time.Time) bool {
	return expiresAt != nil && now.After(*expiresAt)
}
