package tourdesk

import (
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

var ErrTokenMissingOrMalformed = errors.New("missing or malformed bearer token")

// RouteAuthenticator turns an AccessGate into router middleware. Every
// protected request re-reads the account from storage, so role or status
// changes take effect on the next call regardless of what the token says.
type RouteAuthenticator struct {
	gate         *AccessGate
	cfg          Config
	Logger       Logger
	ErrorHandler func(c router.Context, err error) error
}

func NewHTTPAuthenticator(gate *AccessGate, cfg Config) (*RouteAuthenticator, error) {
	a := &RouteAuthenticator{
		gate:   gate,
		cfg:    cfg,
		Logger: defLogger{},
	}

	a.ErrorHandler = a.defaultErrHandler

	return a, nil
}

// Protected requires a valid bearer token that resolves to an existing user.
func (a *RouteAuthenticator) Protected() router.MiddlewareFunc {
	return a.requireUser(nil)
}

// ActiveOnly requires the resolved user to have ACTIVE status.
func (a *RouteAuthenticator) ActiveOnly() router.MiddlewareFunc {
	return a.requireUser(a.gate.RequireActive)
}

// SuperuserOnly requires an ACTIVE user holding the ADMIN role.
func (a *RouteAuthenticator) SuperuserOnly() router.MiddlewareFunc {
	return a.requireUser(a.gate.RequireSuperuser)
}

func (a *RouteAuthenticator) requireUser(check func(user *User) error) router.MiddlewareFunc {
	extractors := GetExtractors(a.cfg.GetTokenLookup(), a.cfg.GetAuthScheme())
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			raw, err := ExtractRawTokenFromContext(c, extractors)
			if err != nil {
				return a.ErrorHandler(c, ErrInvalidToken)
			}

			user, claims, err := a.gate.Authenticate(c.Context(), raw)
			if err != nil {
				return a.ErrorHandler(c, err)
			}

			if check != nil {
				if err := check(user); err != nil {
					return a.ErrorHandler(c, err)
				}
			}

			c.Locals(a.cfg.GetContextKey(), user)
			reqCtx := WithContext(c.Context(), user)
			c.SetContext(WithClaimsContext(reqCtx, claims))

			return hf(c)
		}
	}
}

func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	// Only the auth/authz taxonomy may reach the client; anything else
	// (storage failures, wrapped internals) collapses to the generic
	// token rejection so no error detail leaks through this surface.
	var richErr *goerrors.Error
	if !IsAuthError(err) || !goerrors.As(err, &richErr) {
		richErr = ErrInvalidToken
	}

	a.Logger.Debug(
		"request rejected",
		"error", richErr.Message,
		"category", richErr.Category,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	if richErr.Category == goerrors.CategoryAuth {
		c.SetHeader("WWW-Authenticate", a.cfg.GetAuthScheme())
	}

	return c.JSON(richErr.Code, router.ViewContext{
		"detail": richErr.Message,
	})
}

// CurrentUser returns the user stored by the route middleware.
func CurrentUser(c router.Context, contextKey string) *User {
	if user, ok := c.Locals(contextKey).(*User); ok {
		return user
	}
	if user, ok := FromContext(c.Context()); ok {
		return user
	}
	return nil
}

type TokenJWTExtractor func(c router.Context) (string, error)

func ExtractRawTokenFromContext(c router.Context, extractors []TokenJWTExtractor) (string, error) {
	var raw string
	var err error

	for _, extractor := range extractors {
		raw, err = extractor(c)
		if raw != "" && err == nil {
			break
		}
	}

	return raw, err
}

// GetExtractors parses a lookup definition such as
// "header:Authorization,query:access_token,cookie:token" into extractors.
func GetExtractors(tokenLookup string, authSchemes ...string) []TokenJWTExtractor {
	extractors := make([]TokenJWTExtractor, 0)

	authScheme := "Bearer"
	if len(authSchemes) > 0 && authSchemes[0] != "" {
		authScheme = authSchemes[0]
	}

	rootParts := strings.Split(tokenLookup, ",")
	for _, rootPart := range rootParts {
		parts := strings.Split(strings.TrimSpace(rootPart), ":")
		if len(parts) != 2 {
			continue
		}

		for i, el := range parts {
			parts[i] = strings.TrimSpace(el)
		}

		switch parts[0] {
		case "header":
			extractors = append(extractors, tokenFromHeader(parts[1], authScheme))
		case "query":
			extractors = append(extractors, tokenFromQuery(parts[1]))
		case "cookie":
			extractors = append(extractors, tokenFromCookie(parts[1]))
		}
	}

	return extractors
}

func tokenFromHeader(header string, authScheme string) TokenJWTExtractor {
	return func(c router.Context) (string, error) {
		a := c.GetString(header, "")
		authScheme = strings.TrimSpace(authScheme)
		l := len(authScheme)
		if l == 0 {
			return "", ErrTokenMissingOrMalformed
		}
		if len(a) > l+1 && strings.EqualFold(a[:l], authScheme) {
			return strings.TrimSpace(a[l:]), nil
		}
		return "", ErrTokenMissingOrMalformed
	}
}

func tokenFromQuery(param string) TokenJWTExtractor {
	return func(c router.Context) (string, error) {
		token := c.Query(param, "")
		if token == "" {
			return "", ErrTokenMissingOrMalformed
		}
		return token, nil
	}
}

func tokenFromCookie(name string) TokenJWTExtractor {
	return func(c router.Context) (string, error) {
		token := c.Cookies(name)
		if token == "" {
			return "", ErrTokenMissingOrMalformed
		}
		return token, nil
	}
}
