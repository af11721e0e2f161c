package invitations

import (
	"context"
	"testing"
	"time"

	"concierge-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormStore_CreateFind(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	inv := &domain.Invitation{
		InvitationFields: domain.InvitationFields{Email: "a@b.com"},
		Token:            "tok-1",
		ExpiresAt:        time.Now().Add(time.Hour),
	}
	require.NoError(t, env.Store.Create(ctx, inv))
	assert.NotEqual(t, uuid.Nil, inv.ID)

	got, err := env.Store.FindByToken(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, inv.ID, got.ID)
	assert.Equal(t, "a@b.com", got.Email)

	byID, err := env.Store.FindByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", byID.Token)

	_, err = env.Store.FindByToken(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.Store.FindByToken(ctx, "")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.Store.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormStore_DuplicateTokenIsPersistenceError(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)
	require.NoError(t, env.Store.Create(ctx, &domain.Invitation{InvitationFields: domain.InvitationFields{Email: "a@b.com"}, Token: "same", ExpiresAt: exp}))
	err := env.Store.Create(ctx, &domain.Invitation{InvitationFields: domain.InvitationFields{Email: "c@d.com"}, Token: "same", ExpiresAt: exp})
	require.Error(t, err)
	assert.True(t, domain.IsPersistence(err))
}

func TestGormStore_ClaimOnce(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	inv := &domain.Invitation{InvitationFields: domain.InvitationFields{Email: "a@b.com"}, Token: "t", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, env.Store.Create(ctx, inv))

	ok, err := env.Store.Claim(ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = env.Store.Claim(ctx, inv.ID)
	require.NoError(t, err)
	assert.False(t, ok, "second claim must lose")

	assert.NoError(t, env.Store.Delete(ctx, inv.ID), "delete of a missing id is not an error")
}

func TestGormStore_List(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	for _, tok := range []string{"x", "y"} {
		require.NoError(t, env.Store.Create(ctx, &domain.Invitation{InvitationFields: domain.InvitationFields{Email: tok + "@b.com"}, Token: tok, ExpiresAt: time.Now()}))
	}
	all, err := env.Store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
