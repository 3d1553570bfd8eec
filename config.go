package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvTest is the run mode under which the mock authentication strategy is
// selected. Any other value means live validation against the provider.
const EnvTest = "test"

// Config holds all environment-based configuration for the SDK.
// It is read once at process start and never changes afterwards.
type Config struct {
	// Env is the process run mode: "test" selects the mock strategy,
	// everything else the live one.
	Env string `env:"APP_ENV" envDefault:"production"`

	// Provider tenant domain, e.g. "example.auth0.com". Required in live mode.
	Domain string `env:"AUTH0_DOMAIN"`

	// Client credentials for machine-to-machine token exchange.
	ClientID     string `env:"AUTH0_CLIENT_ID"`
	ClientSecret string `env:"AUTH0_CLIENT_SECRET"`

	// Audience the provider mints tokens for. Required in live mode.
	Audience string `env:"AUTH0_AUDIENCE"`

	// Issuer expected in tokens. Computed as "https://{Domain}/" when unset.
	Issuer string `env:"AUTH0_ISSUER"`

	// BcryptCost is the adaptive hashing cost for the password hasher.
	BcryptCost int `env:"BCRYPT_COST" envDefault:"12"`

	// HTTPTimeout bounds outbound calls to the provider (JWKS fetch,
	// token exchange), so an unreachable provider fails fast instead of
	// hanging the request.
	HTTPTimeout time.Duration `env:"AUTH_HTTP_TIMEOUT" envDefault:"10s"`
}

// LoadConfig reads configuration from a .env file (if present) and the
// environment. Live mode requires the provider domain and audience.
func LoadConfig() (Config, error) {
	// Missing .env is fine: containers inject plain environment variables.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("auth: parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable for the selected run mode.
func (c Config) Validate() error {
	if c.IsTest() {
		return nil
	}
	if c.Domain == "" {
		return fmt.Errorf("auth: AUTH0_DOMAIN is required outside test mode")
	}
	if c.Audience == "" {
		return fmt.Errorf("auth: AUTH0_AUDIENCE is required outside test mode")
	}
	return nil
}

// IsTest reports whether the process runs in test mode.
func (c Config) IsTest() bool { return c.Env == EnvTest }

// IssuerURL returns the expected token issuer, defaulting to
// "https://{Domain}/" when no explicit issuer is configured.
func (c Config) IssuerURL() string {
	if c.Issuer != "" {
		return c.Issuer
	}
	return fmt.Sprintf("https://%s/", c.Domain)
}

// JWKSURL returns the provider's well-known key set endpoint.
func (c Config) JWKSURL() string {
	return strings.TrimSuffix(c.IssuerURL(), "/") + "/.well-known/jwks.json"
}

// TokenURL returns the provider's OAuth2 token endpoint.
func (c Config) TokenURL() string {
	return fmt.Sprintf("https://%s/oauth/token", c.Domain)
}
