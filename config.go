package tourdesk

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

// AppConfig is the root configuration container, loaded once at startup
// and passed down explicitly. The signing key comes from the environment
// and never lives in source control.
type AppConfig struct {
	Auth        AuthConfig        `json:"auth" koanf:"auth"`
	Persistence PersistenceConfig `json:"persistence" koanf:"persistence"`
	Server      ServerConfig      `json:"server" koanf:"server"`
}

func (c *AppConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Auth),
		validation.Field(&c.Server),
	)
}

func (c *AppConfig) GetAuth() *AuthConfig               { return &c.Auth }
func (c *AppConfig) GetPersistence() *PersistenceConfig { return &c.Persistence }
func (c *AppConfig) GetServer() *ServerConfig           { return &c.Server }

// AuthConfig satisfies the Config interface consumed by the token service
// and the route middleware.
type AuthConfig struct {
	SigningKey      string   `json:"signing_key" koanf:"signing_key"`
	SigningMethod   string   `json:"signing_method" koanf:"signing_method"`
	ContextKey      string   `json:"context_key" koanf:"context_key"`
	TokenExpiration int      `json:"token_expiration" koanf:"token_expiration"`
	TokenLookup     string   `json:"token_lookup" koanf:"token_lookup"`
	AuthScheme      string   `json:"auth_scheme" koanf:"auth_scheme"`
	Issuer          string   `json:"issuer" koanf:"issuer"`
	Audience        []string `json:"audience" koanf:"audience"`
}

func (c AuthConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.SigningKey, validation.Required, validation.Length(32, 0)),
	)
}

func (c *AuthConfig) GetSigningKey() string { return c.SigningKey }

func (c *AuthConfig) GetSigningMethod() string {
	if c.SigningMethod == "" {
		return "HS256"
	}
	return c.SigningMethod
}

func (c *AuthConfig) GetContextKey() string {
	if c.ContextKey == "" {
		return "user"
	}
	return c.ContextKey
}

// GetTokenExpiration is the token lifetime in minutes.
func (c *AuthConfig) GetTokenExpiration() int {
	if c.TokenExpiration <= 0 {
		return DefaultTokenExpirationMinutes
	}
	return c.TokenExpiration
}

func (c *AuthConfig) GetTokenLookup() string {
	if c.TokenLookup == "" {
		return "header:Authorization"
	}
	return c.TokenLookup
}

func (c *AuthConfig) GetAuthScheme() string {
	if c.AuthScheme == "" {
		return "Bearer"
	}
	return c.AuthScheme
}

func (c *AuthConfig) GetIssuer() string     { return c.Issuer }
func (c *AuthConfig) GetAudience() []string { return c.Audience }

// PersistenceConfig feeds go-persistence-bun and sql.Open.
type PersistenceConfig struct {
	Debug                 bool   `json:"debug" koanf:"debug"`
	Driver                string `json:"driver" koanf:"driver"`
	Server                string `json:"server" koanf:"server"`
	Database              string `json:"database" koanf:"database"`
	DSN                   string `json:"dsn" koanf:"dsn"`
	PingTimeoutExpression string `json:"ping_timeout" koanf:"ping_timeout"`
}

func (p *PersistenceConfig) GetDebug() bool    { return p.Debug }
func (p *PersistenceConfig) GetDriver() string { return p.Driver }
func (p *PersistenceConfig) GetServer() string { return p.Server }

func (p *PersistenceConfig) GetDatabase() string { return p.Database }

func (p *PersistenceConfig) GetDSN() string {
	if p.DSN == "" {
		return "file::memory:?cache=shared"
	}
	return p.DSN
}

func (p *PersistenceConfig) GetPingTimeout() time.Duration {
	dur, err := time.ParseDuration(p.PingTimeoutExpression)
	if err != nil {
		return 5 * time.Second
	}
	return dur
}

// ServerConfig holds the HTTP listener options.
type ServerConfig struct {
	Address string `json:"address" koanf:"address"`
}

func (s ServerConfig) Validate() error { return nil }

func (s *ServerConfig) GetAddress() string {
	if s.Address == "" {
		return ":8572"
	}
	return s.Address
}
