package tourdesk_test

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/opentours/tourdesk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func middlewareFixture(t *testing.T, users ...*tourdesk.User) (*tourdesk.RouteAuthenticator, tourdesk.TokenService, *memUserStore) {
	t.Helper()

	cfg := testConfig{tokenExpiration: 30}
	store := newMemUserStore(users...)
	tokens := tourdesk.NewTokenService([]byte(cfg.GetSigningKey()), 30, "", nil, nil)
	gate := tourdesk.NewAccessGate(tokens, store)

	mw, err := tourdesk.NewHTTPAuthenticator(gate, cfg)
	require.NoError(t, err)

	return mw, tokens, store
}

func TestRouteAuthenticator_Protected(t *testing.T) {
	user := newStoredUser(t, "alice@example.com", "correct-horse", tourdesk.RoleIDUser, tourdesk.StatusIDActive)
	mw, tokens, _ := middlewareFixture(t, user)

	t.Run("bearer token reaches the handler with the user in scope", func(t *testing.T) {
		raw := tokenFor(t, tokens, user)

		ctx := &MockContext{}
		ctx.On("GetString", router.HeaderAuthorization, "").Return("Bearer " + raw)
		ctx.On("Context").Return(context.Background())
		ctx.On("Locals", "user", mock.Anything).Return(nil)

		var stored context.Context
		ctx.On("SetContext", mock.Anything).Run(func(args mock.Arguments) {
			stored = args.Get(0).(context.Context)
		})

		called := false
		handler := mw.Protected()(func(c router.Context) error {
			called = true
			return nil
		})

		err := handler(ctx)

		require.NoError(t, err)
		assert.True(t, called)

		// the middleware propagated the resolved user to the std context
		require.NotNil(t, stored)
		fromCtx, ok := tourdesk.FromContext(stored)
		require.True(t, ok)
		assert.Equal(t, user.ID, fromCtx.ID)
		ctx.AssertCalled(t, "Locals", "user", mock.Anything)

		// the decoded claims travel alongside the user
		claims, ok := tourdesk.GetClaims(stored)
		require.True(t, ok)
		assert.Equal(t, user.Email, claims.Subject())
		assert.Equal(t, user.ID.String(), claims.UserID())
	})

	t.Run("missing header yields 401 with a challenge", func(t *testing.T) {
		ctx := &MockContext{}
		ctx.On("GetString", router.HeaderAuthorization, "").Return("")
		ctx.On("SetHeader", "WWW-Authenticate", "Bearer").Return(ctx)

		var code int
		var body router.ViewContext
		ctx.On("JSON", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			code = args.Int(0)
			body = args.Get(1).(router.ViewContext)
		}).Return(nil)

		called := false
		handler := mw.Protected()(func(c router.Context) error {
			called = true
			return nil
		})

		err := handler(ctx)

		require.NoError(t, err)
		assert.False(t, called)
		assert.Equal(t, router.StatusUnauthorized, code)
		assert.Equal(t, "could not validate credentials", body["detail"])
	})

	t.Run("non auth errors collapse to the token rejection", func(t *testing.T) {
		ctx := &MockContext{}
		ctx.On("SetHeader", "WWW-Authenticate", "Bearer").Return(ctx)

		var code int
		var body router.ViewContext
		ctx.On("JSON", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			code = args.Int(0)
			body = args.Get(1).(router.ViewContext)
		}).Return(nil)

		leak := goerrors.New("select users: connection refused", goerrors.CategoryInternal).
			WithCode(goerrors.CodeInternal)

		require.NoError(t, mw.ErrorHandler(ctx, leak))
		assert.Equal(t, router.StatusUnauthorized, code)
		assert.Equal(t, "could not validate credentials", body["detail"])
	})

	t.Run("forged token yields the same response as a missing one", func(t *testing.T) {
		ctx := &MockContext{}
		ctx.On("GetString", router.HeaderAuthorization, "").Return("Bearer forged.token.value")
		ctx.On("Context").Return(context.Background())
		ctx.On("SetHeader", "WWW-Authenticate", "Bearer").Return(ctx)

		var body router.ViewContext
		ctx.On("JSON", router.StatusUnauthorized, mock.Anything).Run(func(args mock.Arguments) {
			body = args.Get(1).(router.ViewContext)
		}).Return(nil)

		handler := mw.Protected()(func(c router.Context) error { return nil })

		err := handler(ctx)

		require.NoError(t, err)
		assert.Equal(t, "could not validate credentials", body["detail"])
	})
}

func TestRouteAuthenticator_SuperuserOnly(t *testing.T) {
	admin := newStoredUser(t, "admin@example.com", "correct-horse", tourdesk.RoleIDAdmin, tourdesk.StatusIDActive)
	regular := newStoredUser(t, "bob@example.com", "correct-horse", tourdesk.RoleIDUser, tourdesk.StatusIDActive)
	mw, tokens, _ := middlewareFixture(t, admin, regular)

	t.Run("active admin passes", func(t *testing.T) {
		raw := tokenFor(t, tokens, admin)

		ctx := &MockContext{}
		ctx.On("GetString", router.HeaderAuthorization, "").Return("Bearer " + raw)
		ctx.On("Context").Return(context.Background())
		ctx.On("Locals", "user", mock.Anything).Return(nil)
		ctx.On("SetContext", mock.Anything)

		called := false
		handler := mw.SuperuserOnly()(func(c router.Context) error {
			called = true
			return nil
		})

		require.NoError(t, handler(ctx))
		assert.True(t, called)
	})

	t.Run("active regular user gets 403 without a challenge", func(t *testing.T) {
		raw := tokenFor(t, tokens, regular)

		ctx := &MockContext{}
		ctx.On("GetString", router.HeaderAuthorization, "").Return("Bearer " + raw)
		ctx.On("Context").Return(context.Background())

		var code int
		var body router.ViewContext
		ctx.On("JSON", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			code = args.Int(0)
			body = args.Get(1).(router.ViewContext)
		}).Return(nil)

		called := false
		handler := mw.SuperuserOnly()(func(c router.Context) error {
			called = true
			return nil
		})

		require.NoError(t, handler(ctx))
		assert.False(t, called)
		assert.Equal(t, router.StatusForbidden, code)
		assert.Equal(t, "you do not have the privileges to perform this action", body["detail"])
		ctx.AssertNotCalled(t, "SetHeader", "WWW-Authenticate", "Bearer")
	})

	t.Run("inactive admin gets the inactive reason", func(t *testing.T) {
		sleeper := newStoredUser(t, "carol@example.com", "correct-horse", tourdesk.RoleIDAdmin, tourdesk.StatusIDInactive)
		mw2, tokens2, _ := middlewareFixture(t, sleeper)

		raw := tokenFor(t, tokens2, sleeper)

		ctx := &MockContext{}
		ctx.On("GetString", router.HeaderAuthorization, "").Return("Bearer " + raw)
		ctx.On("Context").Return(context.Background())

		var body router.ViewContext
		ctx.On("JSON", router.StatusForbidden, mock.Anything).Run(func(args mock.Arguments) {
			body = args.Get(1).(router.ViewContext)
		}).Return(nil)

		handler := mw2.SuperuserOnly()(func(c router.Context) error { return nil })

		require.NoError(t, handler(ctx))
		assert.Equal(t, "user is inactive", body["detail"])
	})
}

func TestGetExtractors(t *testing.T) {
	t.Run("header extractor honors the auth scheme", func(t *testing.T) {
		extractors := tourdesk.GetExtractors("header:Authorization", "Bearer")
		require.Len(t, extractors, 1)

		ctx := &MockContext{}
		ctx.On("GetString", "Authorization", "").Return("Bearer the-raw-token")

		raw, err := extractors[0](ctx)
		require.NoError(t, err)
		assert.Equal(t, "the-raw-token", raw)
	})

	t.Run("wrong scheme is rejected", func(t *testing.T) {
		extractors := tourdesk.GetExtractors("header:Authorization", "Bearer")

		ctx := &MockContext{}
		ctx.On("GetString", "Authorization", "").Return("Basic dXNlcjpwYXNz")

		raw, err := extractors[0](ctx)
		assert.Empty(t, raw)
		assert.Error(t, err)
	})

	t.Run("query and cookie fallbacks", func(t *testing.T) {
		extractors := tourdesk.GetExtractors("query:access_token,cookie:token", "Bearer")
		require.Len(t, extractors, 2)

		ctx := &MockContext{}
		ctx.On("Query", "access_token", "").Return("from-query")
		raw, err := extractors[0](ctx)
		require.NoError(t, err)
		assert.Equal(t, "from-query", raw)

		ctx.On("Cookies", "token").Return("from-cookie")
		raw, err = extractors[1](ctx)
		require.NoError(t, err)
		assert.Equal(t, "from-cookie", raw)
	})
}
