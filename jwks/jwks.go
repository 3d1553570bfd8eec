// Package jwks retrieves and caches the identity provider's public signing
// keys (RFC 7517 JSON Web Key Set).
//
// The cache holds the first successfully fetched key set for the remainder
// of the process: there is no expiry. A provider-side key rotation is picked
// up only after Invalidate is called, which is deliberate — the no-expiry
// policy is an explicit property of the cache, not a side effect hidden in
// a memoization layer. Readers always observe either the previous complete
// key set or the new one, never a partially populated set.
package jwks

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	auth "github.com/loopchat/auth-go"
	"github.com/loopchat/auth-go/metrics"
)

// Key is a single public signing key as published by the provider.
// Immutable once fetched.
type Key struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// PublicKey decodes the base64url modulus and exponent into an RSA public key.
func (k Key) PublicKey() (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decode modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decode exponent: %w", err)
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(new(big.Int).SetBytes(eBytes).Int64()),
	}, nil
}

// KeySet is an immutable snapshot of the provider's signing keys.
// The cache replaces it wholesale on refresh and never mutates it in place.
type KeySet struct {
	Keys      []Key
	FetchedAt time.Time
}

// Key returns the signing key with the given key ID.
func (s *KeySet) Key(kid string) (Key, bool) {
	for _, k := range s.Keys {
		if k.Kid == kid {
			return k, true
		}
	}
	return Key{}, false
}

// Cache fetches the provider's key set once and serves it for the process
// lifetime. Safe for concurrent use: the published set is swapped atomically
// and concurrent misses coalesce into a single outbound fetch.
type Cache struct {
	url        string
	httpClient *http.Client
	metrics    *metrics.Metrics

	current atomic.Pointer[KeySet]
	sf      singleflight.Group
}

// Option configures the Cache.
type Option func(*Cache)

// WithHTTPClient sets a custom HTTP client for fetching the key set.
// The default client has a 10 second timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(v *Cache) { v.httpClient = c }
}

// WithMetrics wires cache hit/miss and fetch counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(v *Cache) { v.metrics = m }
}

// NewCache creates a key cache for the given JWKS endpoint URL.
// No fetch happens until the first KeySet call.
func NewCache(jwksURL string, opts ...Option) *Cache {
	c := &Cache{
		url:        jwksURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// KeySet returns the cached key set, fetching it from the provider on the
// first call or after Invalidate. Concurrent callers during a fetch share
// its outcome. Fails with auth.ErrUpstreamUnavailable when the provider
// cannot be reached or returns an unusable document.
func (c *Cache) KeySet(ctx context.Context) (*KeySet, error) {
	if ks := c.current.Load(); ks != nil {
		c.metrics.KeySetCacheHit()
		return ks, nil
	}
	c.metrics.KeySetCacheMiss()

	v, err, _ := c.sf.Do("fetch", func() (any, error) {
		// Re-check under the flight: another caller may have published
		// between our Load and Do.
		if ks := c.current.Load(); ks != nil {
			return ks, nil
		}
		ks, err := c.fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.current.Store(ks)
		return ks, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*KeySet), nil
}

// Invalidate drops the cached key set so the next KeySet call fetches a
// fresh one. The manual rotation hook for tests and operations.
func (c *Cache) Invalidate() {
	c.current.Store(nil)
}

// fetch retrieves the key set document from the provider.
func (c *Cache) fetch(ctx context.Context) (*KeySet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("auth/jwks: create request: %w: %w", auth.ErrUpstreamUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.KeySetFetch(false)
		return nil, fmt.Errorf("auth/jwks: fetch key set: %w: %w", auth.ErrUpstreamUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		c.metrics.KeySetFetch(false)
		return nil, fmt.Errorf("auth/jwks: fetch key set: %w: status %d", auth.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var doc struct {
		Keys []Key `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		c.metrics.KeySetFetch(false)
		return nil, fmt.Errorf("auth/jwks: decode key set: %w: %w", auth.ErrUpstreamUnavailable, err)
	}

	keys := make([]Key, 0, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || (k.Use != "" && k.Use != "sig") {
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		c.metrics.KeySetFetch(false)
		return nil, fmt.Errorf("auth/jwks: no RSA signing keys in key set: %w", auth.ErrUpstreamUnavailable)
	}

	c.metrics.KeySetFetch(true)
	return &KeySet{Keys: keys, FetchedAt: time.Now()}, nil
}
