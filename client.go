// Package auth provides authentication and identity resolution for services
// that sit behind an external OIDC identity provider.
//
// The package defines the SDK surface: typed claims, the internal identity
// record, failure kinds, configuration, and the capability interfaces.
// Concrete implementations live in subpackages and are injected via Option
// functions, keeping the SDK independent of any specific provider:
//
//   - jwks/     caches the provider's public signing keys
//   - token/    verifies RS256 bearer tokens against those keys
//   - identity/ maps verified claims to an internal identity
//   - authn/    selects the live or mock strategy once at startup
//   - mock/     deterministic stand-ins for test mode
//   - password/ bcrypt hashing of user secrets
//   - oauth2/   client-credentials token exchange
//
// Example wiring:
//
//	cfg, err := auth.LoadConfig()
//	...
//	authenticator, err := authn.New(ctx, cfg)
//	...
//	client, err := auth.NewClient(cfg,
//	    auth.WithAuthenticator(authenticator),
//	    auth.WithPasswordHasher(password.New(cfg.BcryptCost)),
//	)
package auth

import (
	"fmt"
	"io"
	"log/slog"
)

// Client is the main entry point for authentication operations.
// Capability implementations are injected via Option functions.
type Client struct {
	config        Config
	logger        *slog.Logger
	authenticator TokenAuthenticator
	hasher        PasswordHasher
	oauth2        OAuth2TokenExchanger
}

// Option configures the Client.
type Option func(*Client)

// WithLogger sets a structured logger for the client.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithAuthenticator sets the token authentication implementation.
func WithAuthenticator(a TokenAuthenticator) Option {
	return func(c *Client) { c.authenticator = a }
}

// WithPasswordHasher sets the password hashing implementation.
func WithPasswordHasher(h PasswordHasher) Option {
	return func(c *Client) { c.hasher = h }
}

// WithOAuth2Exchanger sets the OAuth2 token exchanger implementation.
func WithOAuth2Exchanger(e OAuth2TokenExchanger) Option {
	return func(c *Client) { c.oauth2 = e }
}

// NewClient creates a new auth client with the given configuration and options.
// An authenticator is required: every transport middleware depends on it.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	c := &Client{config: cfg, logger: slog.Default()}
	for _, o := range opts {
		o(c)
	}
	if c.authenticator == nil {
		return nil, fmt.Errorf("auth: an authenticator is required (see authn.New)")
	}
	return c, nil
}

// Config returns the client configuration.
func (c *Client) Config() Config { return c.config }

// Logger returns the client's structured logger.
func (c *Client) Logger() *slog.Logger { return c.logger }

// Authenticator returns the token authenticator.
func (c *Client) Authenticator() TokenAuthenticator { return c.authenticator }

// Passwords returns the password hasher, or nil if not configured.
func (c *Client) Passwords() PasswordHasher { return c.hasher }

// OAuth2 returns the OAuth2 token exchanger, or nil if not configured.
func (c *Client) OAuth2() OAuth2TokenExchanger { return c.oauth2 }

// Close releases all resources held by the client.
// Any injected capability that implements io.Closer will be closed.
func (c *Client) Close() error {
	closers := []any{c.authenticator, c.hasher, c.oauth2}
	var firstErr error
	for _, svc := range closers {
		if cl, ok := svc.(io.Closer); ok && cl != nil {
			if err := cl.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
