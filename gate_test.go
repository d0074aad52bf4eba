package tourdesk_test

import (
	"context"
	"testing"

	"github.com/opentours/tourdesk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gateFixture(t *testing.T, users ...*tourdesk.User) (*tourdesk.AccessGate, tourdesk.TokenService, *memUserStore) {
	t.Helper()

	store := newMemUserStore(users...)
	tokens := tourdesk.NewTokenService([]byte("gate-test-key"), 30, "tourdesk-test", nil, nil)
	return tourdesk.NewAccessGate(tokens, store), tokens, store
}

func tokenFor(t *testing.T, tokens tourdesk.TokenService, user *tourdesk.User) string {
	t.Helper()

	raw, err := tokens.Generate(tourdesk.NewIdentityFromUser(user))
	require.NoError(t, err)
	return raw
}

func TestAccessGate_CurrentUser(t *testing.T) {
	ctx := context.Background()
	user := newStoredUser(t, "alice@example.com", "correct-horse", tourdesk.RoleIDUser, tourdesk.StatusIDActive)
	gate, tokens, store := gateFixture(t, user)

	t.Run("valid token resolves to the stored user", func(t *testing.T) {
		raw := tokenFor(t, tokens, user)

		got, err := gate.CurrentUser(ctx, raw)

		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, user.Email, got.Email)
	})

	t.Run("authenticate returns the decoded claims next to the user", func(t *testing.T) {
		raw := tokenFor(t, tokens, user)

		got, claims, err := gate.Authenticate(ctx, raw)

		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		require.NotNil(t, claims)
		assert.Equal(t, user.Email, claims.Subject())
		assert.Equal(t, user.ID.String(), claims.UserID())
	})

	t.Run("garbage token", func(t *testing.T) {
		got, err := gate.CurrentUser(ctx, "garbage")

		assert.Nil(t, got)
		assert.Equal(t, tourdesk.ErrInvalidToken, err)
	})

	t.Run("valid token whose user was deleted", func(t *testing.T) {
		ghost := newStoredUser(t, "ghost@example.com", "password-1", tourdesk.RoleIDUser, tourdesk.StatusIDActive)
		store.add(ghost)
		raw := tokenFor(t, tokens, ghost)
		store.remove(ghost)

		got, err := gate.CurrentUser(ctx, raw)

		assert.Nil(t, got)
		assert.Equal(t, tourdesk.ErrInvalidToken, err)
	})
}

func TestAccessGate_RequireActive(t *testing.T) {
	gate, _, _ := gateFixture(t)

	t.Run("active user passes", func(t *testing.T) {
		user := &tourdesk.User{StatusID: tourdesk.StatusIDActive}
		assert.NoError(t, gate.RequireActive(user))
	})

	t.Run("inactive user fails", func(t *testing.T) {
		user := &tourdesk.User{StatusID: tourdesk.StatusIDInactive}
		assert.Equal(t, tourdesk.ErrInactiveUser, gate.RequireActive(user))
	})

	t.Run("nil user fails like a bad token", func(t *testing.T) {
		assert.Equal(t, tourdesk.ErrInvalidToken, gate.RequireActive(nil))
	})
}

func TestAccessGate_RequireSuperuser(t *testing.T) {
	gate, _, _ := gateFixture(t)

	t.Run("active admin passes", func(t *testing.T) {
		user := &tourdesk.User{RoleID: tourdesk.RoleIDAdmin, StatusID: tourdesk.StatusIDActive}
		assert.NoError(t, gate.RequireSuperuser(user))
	})

	t.Run("active regular user lacks privilege", func(t *testing.T) {
		user := &tourdesk.User{RoleID: tourdesk.RoleIDUser, StatusID: tourdesk.StatusIDActive}
		assert.Equal(t, tourdesk.ErrInsufficientPrivilege, gate.RequireSuperuser(user))
	})

	t.Run("inactive admin fails with the inactive reason", func(t *testing.T) {
		user := &tourdesk.User{RoleID: tourdesk.RoleIDAdmin, StatusID: tourdesk.StatusIDInactive}
		assert.Equal(t, tourdesk.ErrInactiveUser, gate.RequireSuperuser(user))
	})

	t.Run("inactive regular user also gets the inactive reason", func(t *testing.T) {
		user := &tourdesk.User{RoleID: tourdesk.RoleIDUser, StatusID: tourdesk.StatusIDInactive}
		assert.Equal(t, tourdesk.ErrInactiveUser, gate.RequireSuperuser(user))
	})
}

func TestAccessGate_ReadsCurrentStatus(t *testing.T) {
	ctx := context.Background()
	user := newStoredUser(t, "alice@example.com", "correct-horse", tourdesk.RoleIDAdmin, tourdesk.StatusIDActive)
	gate, tokens, _ := gateFixture(t, user)

	raw := tokenFor(t, tokens, user)

	// the token stays valid across the status flips; only the stored row changes
	got, err := gate.Superuser(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	user.StatusID = tourdesk.StatusIDInactive

	_, err = gate.Superuser(ctx, raw)
	assert.Equal(t, tourdesk.ErrInactiveUser, err)

	_, err = gate.ActiveUser(ctx, raw)
	assert.Equal(t, tourdesk.ErrInactiveUser, err)

	user.StatusID = tourdesk.StatusIDActive
	user.RoleID = tourdesk.RoleIDUser

	// demoted between requests: still active, no longer a superuser
	_, err = gate.ActiveUser(ctx, raw)
	assert.NoError(t, err)

	_, err = gate.Superuser(ctx, raw)
	assert.Equal(t, tourdesk.ErrInsufficientPrivilege, err)
}
