package model

import (
	"strings"
	"time"
)

// RedeemCode represents a single-use, human-distributed code that unlocks
// provisioning for one page.
type RedeemCode struct {
	ID               string
	Code             string
	PageID           *string    // nil until the code is activated
	CreatedAt        time.Time
	ExpiresAt        *time.Time // nil means no expiry
	UsedAt           *time.Time // nil until redeemed; set exactly once
	UsedByIdentityID *string
}

// NormalizeCode canonicalizes user input before any lookup: codes are
// upper-case and carry no surrounding whitespace.
func NormalizeCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Redeemable reports whether the code can still be claimed at t.
// An unactivated code (no page bound) is inert regardless of anything else.
func (c *RedeemCode) Redeemable(t time.Time) bool {
	if c == nil || c.PageID == nil || *c.PageID == "" {
		return false
	}
	if c.UsedAt != nil {
		return false
	}
	if c.ExpiresAt != nil && t.After(*c.ExpiresAt) {
		return false
	}
	return true
}
