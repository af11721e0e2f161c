package invitations

import (
	"context"
	"errors"
	"testing"
	"time"

	"concierge-backend/internal/application/emails"
	"concierge-backend/internal/domain"
	"concierge-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A freshly created invite is findable with a 6.5h expiry and a token.
func TestCreateInvite_StoresAndNotifies(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	name := "Ada"

	res, err := env.Service.CreateInvite(ctx, CreateInviteInput{
		Fields:    domain.InvitationFields{Email: " A@B.com ", Name: &name},
		CreatedBy: "admin@example.com",
	})
	require.NoError(t, err)
	assert.True(t, res.NotificationSent)
	assert.Equal(t, "https://app.example.com/accept-invite?token="+res.Invitation.Token, res.Link)

	got, err := env.Store.FindByToken(ctx, res.Invitation.Token)
	require.NoError(t, err)
	assert.NotEmpty(t, got.Token)
	assert.Equal(t, "a@b.com", got.Email)
	assert.WithinDuration(t, env.Clock.Add(6*time.Hour+30*time.Minute), got.ExpiresAt, time.Second)
	require.NotNil(t, got.CreatedBy)
	assert.Equal(t, "admin@example.com", *got.CreatedBy)

	require.Len(t, env.Sender.sent, 1)
	msg := env.Sender.sent[0]
	assert.Equal(t, "a@b.com", msg.To)
	assert.Equal(t, emails.InvitationSubject, msg.Subject)
	assert.Contains(t, msg.HTML, res.Link)
}

func TestCreateInvite_NotificationFailureKeepsInvite(t *testing.T) {
	env := setupEnv(t)
	env.Sender.err = errors.New("smtp down")

	res, err := env.Service.CreateInvite(context.Background(), CreateInviteInput{
		Fields: domain.InvitationFields{Email: "a@b.com"},
	})
	require.NoError(t, err)
	assert.False(t, res.NotificationSent)

	_, err = env.Service.Lookup(context.Background(), res.Invitation.Token)
	assert.NoError(t, err, "invite stays redeemable without the email")
}

func TestCreateInvite_NoSender(t *testing.T) {
	env := setupEnv(t)
	env.Service.Sender = nil

	res, err := env.Service.CreateInvite(context.Background(), CreateInviteInput{
		Fields: domain.InvitationFields{Email: "a@b.com"},
	})
	require.NoError(t, err)
	assert.False(t, res.NotificationSent)
}

func TestCreateInvite_RejectsSelfInvite(t *testing.T) {
	env := setupEnv(t)

	_, err := env.Service.CreateInvite(context.Background(), CreateInviteInput{
		Fields:    domain.InvitationFields{Email: " Admin@Example.com"},
		CreatedBy: "admin@example.com",
	})
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "email")
	assert.Empty(t, env.Sender.sent)

	all, err := env.Service.Store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateInvite_StoreFailureSendsNothing(t *testing.T) {
	env := setupEnv(t)
	sqlDB, err := env.DB.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = env.Service.CreateInvite(context.Background(), CreateInviteInput{
		Fields: domain.InvitationFields{Email: "a@b.com"},
	})
	require.Error(t, err)
	assert.True(t, domain.IsPersistence(err))
	assert.Empty(t, env.Sender.sent)
}

func TestResendInvite(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	inv := env.createInvite(t, "a@b.com")

	res, err := env.Service.ResendInvite(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.Token, res.Invitation.Token, "resend keeps the token")
	assert.Len(t, env.Sender.sent, 2)

	env.Sender.err = errors.New("rejected")
	_, err = env.Service.ResendInvite(ctx, inv.ID)
	var nerr *NotificationError
	assert.ErrorAs(t, err, &nerr)

	_, err = env.Service.ResendInvite(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResendInvite_ExpiredIsDeleted(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	inv := env.createInvite(t, "a@b.com")
	env.advance(7 * time.Hour)

	_, err := env.Service.ResendInvite(ctx, inv.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.Store.FindByID(ctx, inv.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRevokeInvite(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	inv := env.createInvite(t, "a@b.com")

	require.NoError(t, env.Service.RevokeInvite(ctx, inv.ID))
	require.NoError(t, env.Service.RevokeInvite(ctx, inv.ID))
	_, err := env.Service.Lookup(ctx, inv.Token)
	assert.ErrorIs(t, err, ErrNotFound)
}

// Listing after the clock passes expires_at reaps the record.
func TestListLive_ReapsExpired(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	old := env.createInvite(t, "old@example.com")
	env.advance(2 * time.Hour)
	fresh := env.createInvite(t, "fresh@example.com")
	env.advance(time.Hour)
	fresher := env.createInvite(t, "fresher@example.com")

	live, err := env.Service.ListLive(ctx)
	require.NoError(t, err)
	require.Len(t, live, 3)
	assert.Equal(t, old.ID, live[0].ID, "soonest-expiring first")
	assert.Equal(t, fresher.ID, live[2].ID)

	env.advance(4 * time.Hour) // old expired at 18:30, now 19:00
	live, err = env.Service.ListLive(ctx)
	require.NoError(t, err)
	require.Len(t, live, 2)
	assert.Equal(t, fresh.ID, live[0].ID)

	_, err = env.Store.FindByID(ctx, old.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLookup(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	inv := env.createInvite(t, "a@b.com")

	got, err := env.Service.Lookup(ctx, inv.Token)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, got.ID)

	_, err = env.Service.Lookup(ctx, "   ")
	assert.ErrorIs(t, err, ErrNotFound)

	env.advance(6*time.Hour + 30*time.Minute)
	_, err = env.Service.Lookup(ctx, inv.Token)
	assert.ErrorIs(t, err, ErrNotFound, "expires_at == now is expired")

	_, err = env.Store.FindByID(ctx, inv.ID)
	assert.NoError(t, err, "lookup has no side effects")
}
