package tourdesk

import (
	"context"
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

// UserStore is the read-only lookup surface the auth core needs from storage
type UserStore interface {
	GetByIdentifier(ctx context.Context, identifier string) (*User, error)
}

// UserProvider resolves identities for the authenticator
type UserProvider struct {
	store     UserStore
	hasher    PasswordAuthenticator
	Validator func(*User) error
	logger    Logger
}

// NewUserProvider will create a new UserProvider
func NewUserProvider(store UserStore) *UserProvider {
	return &UserProvider{
		store:     store,
		hasher:    bcryptAuthenticator{},
		logger:    defLogger{},
		Validator: defaultValidator,
	}
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	if l != nil {
		u.logger = l
	}
	return u
}

// WithPasswordAuthenticator swaps the credential checker, e.g. to migrate
// digests or to stub hashing in tests.
func (u *UserProvider) WithPasswordAuthenticator(h PasswordAuthenticator) *UserProvider {
	if h != nil {
		u.hasher = h
	}
	return u
}

func (u *UserProvider) validate(user *User) error {
	if u.Validator != nil {
		return u.Validator(user)
	}
	return defaultValidator(user)
}

// VerifyIdentity will find the user, compare the password, and return the
// identity. Unknown identifiers and wrong passwords are indistinguishable:
// both cost one bcrypt comparison and both return ErrInvalidCredentials.
// Status is deliberately not checked here; login is not status-gated, the
// authorization gates reject inactive accounts per request instead.
func (u UserProvider) VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error) {
	user, err := u.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		if goerrors.IsNotFound(err) {
			u.burnPasswordComparison(password)
			return nil, ErrInvalidCredentials
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user during verification")
	}

	if user == nil {
		u.burnPasswordComparison(password)
		return nil, ErrInvalidCredentials
	}

	if err := u.hasher.ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := u.validate(user); err != nil {
		return nil, err
	}

	return NewIdentityFromUser(user), nil
}

// FindIdentityByIdentifier resolves an identity without a credential check
func (u UserProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error) {
	user, err := u.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, ErrIdentityNotFound
	}

	if err := u.validate(user); err != nil {
		return nil, err
	}

	return NewIdentityFromUser(user), nil
}

func defaultValidator(u *User) error {
	role := u.RoleName()
	for _, known := range GetAllRoles() {
		if role == known {
			return nil
		}
	}
	return goerrors.New("user has an unknown or invalid role", goerrors.CategoryAuth).
		WithTextCode("INVALID_ROLE").
		WithMetadata(map[string]any{"role": role, "user_id": u.ID.String()})
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// burnPasswordComparison spends one hash verification on the miss path so
// an unknown identifier costs the same as a wrong password.
func (u UserProvider) burnPasswordComparison(password string) {
	dummyHashOnce.Do(func() {
		h, err := u.hasher.HashPassword("tourdesk-dummy-credential")
		if err != nil {
			h = RandomPasswordHash()
		}
		dummyHash = h
	})
	_ = u.hasher.ComparePasswordAndHash(password, dummyHash)
}
