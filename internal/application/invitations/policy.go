package invitations

import (
	"strings"
	"time"

	"concierge-backend/internal/domain"
	"concierge-backend/internal/pkg/validation"

	"github.com/google/uuid"
)

// DefaultTTL is how long an invitation stays redeemable.
// TODO: confirm the intended production TTL; the historical value of 6h30m is kept until then.
const DefaultTTL = 6*time.Hour + 30*time.Minute

// TokenPolicy issues invitation tokens and decides when they expire.
type TokenPolicy struct {
	TTL time.Duration
}

// NewTokenPolicy returns a policy with ttl, falling back to DefaultTTL for non-positive values.
func NewTokenPolicy(ttl time.Duration) TokenPolicy {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return TokenPolicy{TTL: ttl}
}

// IssueToken returns a random version 4 UUID string (122 bits of entropy).
func (p TokenPolicy) IssueToken() string {
	return uuid.NewString()
}

// Lifetime is the effective TTL.
func (p TokenPolicy) Lifetime() time.Duration {
	if p.TTL <= 0 {
		return DefaultTTL
	}
	return p.TTL
}

// ComputeExpiry returns now + TTL.
func (p TokenPolicy) ComputeExpiry(now time.Time) time.Time {
	return now.Add(p.Lifetime())
}

// IsExpired reports whether inv.ExpiresAt <= now.
func (p TokenPolicy) IsExpired(inv *domain.Invitation, now time.Time) bool {
	return !inv.ExpiresAt.After(now)
}

// ValidateCreation rejects an operator inviting their own address.
func ValidateCreation(email, actorEmail string) error {
	actor := strings.ToLower(strings.TrimSpace(actorEmail))
	if actor != "" && strings.ToLower(strings.TrimSpace(email)) == actor {
		return &validation.Error{Fields: map[string]string{"email": "You cannot invite yourself"}}
	}
	return nil
}
