package invitations

import (
	"testing"
	"time"

	"concierge-backend/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestIssueToken_Unique(t *testing.T) {
	p := NewTokenPolicy(0)
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		tok := p.IssueToken()
		assert.NotEmpty(t, tok)
		_, dup := seen[tok]
		assert.False(t, dup, "duplicate token %s", tok)
		seen[tok] = struct{}{}
	}
}

func TestComputeExpiry_Default(t *testing.T) {
	p := NewTokenPolicy(0)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, DefaultTTL, p.Lifetime())
	assert.Equal(t, now.Add(6*time.Hour+30*time.Minute), p.ComputeExpiry(now))
}

func TestComputeExpiry_Configured(t *testing.T) {
	p := NewTokenPolicy(time.Hour)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, now.Add(time.Hour), p.ComputeExpiry(now))
	assert.Equal(t, DefaultTTL, TokenPolicy{}.Lifetime())
}

func TestIsExpired_Boundary(t *testing.T) {
	p := NewTokenPolicy(0)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	inv := &domain.Invitation{ExpiresAt: p.ComputeExpiry(created)}
	expiry := created.Add(6*time.Hour + 30*time.Minute)

	assert.False(t, p.IsExpired(inv, created))
	assert.False(t, p.IsExpired(inv, expiry.Add(-time.Second)))
	assert.True(t, p.IsExpired(inv, expiry), "expires_at == now counts as expired")
	assert.True(t, p.IsExpired(inv, expiry.Add(time.Second)))
}

func TestBuildInviteLink(t *testing.T) {
	assert.Equal(t, "https://app.example.com/accept-invite?token=abc123",
		BuildInviteLink("abc123", "https://app.example.com"))
	assert.Equal(t, "https://app.example.com/accept-invite?token=abc123",
		BuildInviteLink("abc123", "https://app.example.com/"))
}
