package tourdesk

import (
	"context"
	"reflect"
)

type Auther struct {
	provider       IdentityProvider
	logger         Logger
	tokenService   TokenService
	tokenValidator TokenValidator
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)

	return &Auther{
		provider:     provider,
		logger:       defLogger{},
		tokenService: tokenService,
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	return s
}

// WithTokenValidator sets a custom token validator for externally issued tokens.
func (s *Auther) WithTokenValidator(validator TokenValidator) *Auther {
	s.tokenValidator = validator
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies the credential pair and mints an access token. An inactive
// account can still log in; the per-request gates are where status is
// enforced, against the row's current value.
func (s *Auther) Login(ctx context.Context, identifier, password string) (string, error) {
	identity, err := s.provider.VerifyIdentity(ctx, identifier, password)
	if err != nil {
		s.logger.Debug("Login verify identity error", "error", err)
		return "", err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("Login identity is nil or zero value")
		return "", ErrInvalidCredentials
	}

	return s.tokenService.Generate(identity)
}

// Impersonate mints a token for an identifier without a credential check.
// Reserved for operator tooling; never exposed on a route.
func (s *Auther) Impersonate(ctx context.Context, identifier string) (string, error) {
	identity, err := s.provider.FindIdentityByIdentifier(ctx, identifier)
	if err != nil {
		s.logger.Error("Impersonate find identity error", "error", err)
		return "", err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("Impersonate identity is nil")
		return "", ErrIdentityNotFound
	}

	return s.tokenService.Generate(identity)
}

// IdentityFromToken validates a raw token and resolves its subject to a
// live identity. A valid token whose subject no longer exists behaves
// exactly like an invalid token.
func (s *Auther) IdentityFromToken(ctx context.Context, raw string) (Identity, error) {
	validator := s.tokenValidator
	if validator == nil {
		validator = s.tokenService
	}

	claims, err := validator.Validate(raw)
	if err != nil {
		s.logger.Debug("IdentityFromToken validation failed", "error", err)
		return nil, ErrInvalidToken
	}

	identity, err := s.provider.FindIdentityByIdentifier(ctx, claims.Subject())
	if err != nil {
		s.logger.Debug("IdentityFromToken subject did not resolve", "error", err)
		return nil, ErrInvalidToken
	}

	return identity, nil
}

var _ Authenticator = (*Auther)(nil)
