// Package authn selects and wires the process's authentication strategy.
//
// The choice between the live pipeline (key cache → token validator →
// identity resolver) and the mock strategy is made exactly once, at process
// start, from the configured run mode. Both strategies satisfy
// auth.TokenAuthenticator, so nothing downstream ever branches on the mode.
package authn

import (
	"context"
	"fmt"
	"net/http"

	auth "github.com/loopchat/auth-go"
	"github.com/loopchat/auth-go/identity"
	"github.com/loopchat/auth-go/jwks"
	"github.com/loopchat/auth-go/metrics"
	"github.com/loopchat/auth-go/mock"
	"github.com/loopchat/auth-go/token"
)

// Options configure the live pipeline. Test mode ignores them all.
type Option func(*settings)

type settings struct {
	httpClient *http.Client
	metrics    *metrics.Metrics
}

// WithHTTPClient sets the HTTP client used for key set fetches.
func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) { s.httpClient = c }
}

// WithMetrics wires key cache metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *settings) { s.metrics = m }
}

// New builds the process's token authenticator from the run mode.
//
// In test mode it returns the mock authenticator: no network, no crypto,
// one fixed identity for any input. Otherwise it builds the live pipeline
// and primes the key cache — when the provider cannot serve any keys at
// startup, New fails with auth.ErrUpstreamUnavailable rather than letting
// the process come up with an empty key set.
func New(ctx context.Context, cfg auth.Config, opts ...Option) (auth.TokenAuthenticator, error) {
	if cfg.IsTest() {
		return mock.Authenticator{}, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var s settings
	for _, o := range opts {
		o(&s)
	}
	if s.httpClient == nil {
		s.httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}

	cache := jwks.NewCache(cfg.JWKSURL(),
		jwks.WithHTTPClient(s.httpClient),
		jwks.WithMetrics(s.metrics),
	)
	if _, err := cache.KeySet(ctx); err != nil {
		return nil, fmt.Errorf("authn: prime key cache: %w", err)
	}

	return &Pipeline{
		Verifier: token.NewValidator(cache, cfg.Audience, cfg.IssuerURL()),
		Resolver: identity.NewResolver(),
		Keys:     cache,
	}, nil
}

// Pipeline is the live strategy: verify the token, then resolve the
// identity. Exposed so callers that need the key cache's Invalidate hook
// (operational key rotation) can reach it.
type Pipeline struct {
	Verifier auth.TokenVerifier
	Resolver *identity.Resolver
	Keys     *jwks.Cache
}

var _ auth.TokenAuthenticator = (*Pipeline)(nil)

// Authenticate verifies the raw token and resolves its identity.
func (p *Pipeline) Authenticate(ctx context.Context, raw string) (*auth.Identity, error) {
	claims, err := p.Verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	return p.Resolver.Resolve(claims)
}
