package tourdesk

import (
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found")

// ErrNoEmptyString rejects empty passwords before they reach bcrypt
var ErrNoEmptyString = errors.New("password should not be an empty string")

// ErrMismatchedHashAndPassword is the internal bcrypt mismatch signal
var ErrMismatchedHashAndPassword = errors.New("mismatched hash and password")

// ErrInvalidCredentials is surfaced on every failed login regardless of
// which factor failed; callers must not learn whether the email exists.
var ErrInvalidCredentials = goerrors.New("incorrect username or password", goerrors.CategoryAuth).
	WithTextCode("INVALID_CREDENTIALS").
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidToken is the single outcome for every token failure: missing,
// malformed, forged, expired, or a subject that no longer resolves to a
// user. Collapsing them keeps the interface free of an expiry/forgery oracle.
var ErrInvalidToken = goerrors.New("could not validate credentials", goerrors.CategoryAuth).
	WithTextCode("INVALID_TOKEN").
	WithCode(goerrors.CodeUnauthorized)

// ErrInactiveUser is returned when an authenticated user's current status
// disqualifies access.
var ErrInactiveUser = goerrors.New("user is inactive", goerrors.CategoryAuthz).
	WithTextCode("INACTIVE_USER").
	WithCode(goerrors.CodeForbidden)

// ErrInsufficientPrivilege is returned when an authenticated, active user
// lacks the role a gate requires.
var ErrInsufficientPrivilege = goerrors.New("you do not have the privileges to perform this action", goerrors.CategoryAuthz).
	WithTextCode("INSUFFICIENT_PRIVILEGE").
	WithCode(goerrors.CodeForbidden)

// IsAuthError reports whether err belongs to the auth/authz taxonomy.
func IsAuthError(err error) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.Category == goerrors.CategoryAuth || richErr.Category == goerrors.CategoryAuthz
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
