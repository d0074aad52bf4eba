package tourdesk

import (
	"context"
)

// AccessGate evaluates the escalating authorization predicates: a request is
// first authenticated (valid token, live user), then optionally checked for
// active status, then for superuser role. Every predicate works on the user
// row fetched for this request, so role/status edits take effect on the next
// call even though issued tokens stay valid until expiry.
type AccessGate struct {
	tokens TokenValidator
	users  UserStore
	logger Logger
}

// NewAccessGate returns a gate backed by the given validator and store.
func NewAccessGate(tokens TokenValidator, users UserStore) *AccessGate {
	return &AccessGate{
		tokens: tokens,
		users:  users,
		logger: defLogger{},
	}
}

func (g *AccessGate) WithLogger(logger Logger) *AccessGate {
	if logger != nil {
		g.logger = logger
	}
	return g
}

// Authenticate validates the raw token and resolves its subject to a user
// row, returning the decoded claims alongside. Any token failure, and a
// valid token whose user has been deleted, produce the same ErrInvalidToken
// outcome.
func (g *AccessGate) Authenticate(ctx context.Context, raw string) (*User, AuthClaims, error) {
	claims, err := g.tokens.Validate(raw)
	if err != nil {
		return nil, nil, ErrInvalidToken
	}

	user, err := g.users.GetByIdentifier(ctx, claims.Subject())
	if err != nil {
		g.logger.Debug("gate could not resolve token subject", "error", err)
		return nil, nil, ErrInvalidToken
	}

	if user == nil {
		return nil, nil, ErrInvalidToken
	}

	return user, claims, nil
}

// CurrentUser is Authenticate without the claims.
func (g *AccessGate) CurrentUser(ctx context.Context, raw string) (*User, error) {
	user, _, err := g.Authenticate(ctx, raw)
	return user, err
}

// RequireActive fails with ErrInactiveUser unless the user's current status
// is ACTIVE.
//
// The system this replaces carried an inverted boolean here that rejected
// active accounts on some branches; the corrected rule below is the
// documented intent and is pinned by tests.
func (g *AccessGate) RequireActive(user *User) error {
	if user == nil {
		return ErrInvalidToken
	}
	if !user.IsActive() {
		return ErrInactiveUser
	}
	return nil
}

// RequireSuperuser fails unless the user's current role is ADMIN and their
// status is ACTIVE. Inactive accounts get the inactive reason regardless of
// role; active non-admins get the privilege reason. Two distinct error
// kinds, one gate.
func (g *AccessGate) RequireSuperuser(user *User) error {
	if user == nil {
		return ErrInvalidToken
	}
	if !user.IsActive() {
		return ErrInactiveUser
	}
	if !user.IsSuperuser() {
		return ErrInsufficientPrivilege
	}
	return nil
}

// ActiveUser chains CurrentUser and RequireActive.
func (g *AccessGate) ActiveUser(ctx context.Context, raw string) (*User, error) {
	user, err := g.CurrentUser(ctx, raw)
	if err != nil {
		return nil, err
	}
	if err := g.RequireActive(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Superuser chains CurrentUser and RequireSuperuser.
func (g *AccessGate) Superuser(ctx context.Context, raw string) (*User, error) {
	user, err := g.CurrentUser(ctx, raw)
	if err != nil {
		return nil, err
	}
	if err := g.RequireSuperuser(user); err != nil {
		return nil, err
	}
	return user, nil
}
