// Package oauth2 exchanges OAuth2 client credentials for provider access
// tokens (machine-to-machine authentication).
//
// Only the client-credentials grant is implemented; authorization-code
// flows are out of scope for this SDK.
package oauth2

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	auth "github.com/loopchat/auth-go"
)

// Exchanger implements auth.OAuth2TokenExchanger against the provider's
// token endpoint.
type Exchanger struct {
	clientID      string
	clientSecret  string
	audience      string
	tokenURL      string
	refreshBuffer time.Duration
	httpClient    *http.Client

	mu    sync.RWMutex
	token *auth.OAuth2Token

	sf singleflight.Group
}

// compile-time check
var _ auth.OAuth2TokenExchanger = (*Exchanger)(nil)

// Option configures the Exchanger.
type Option func(*Exchanger)

// WithHTTPClient sets a custom HTTP client for token requests.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Exchanger) { e.httpClient = c }
}

// WithRefreshBuffer sets how long before expiry to refresh the token.
// Default: 5 minutes.
func WithRefreshBuffer(d time.Duration) Option {
	return func(e *Exchanger) { e.refreshBuffer = d }
}

// WithTokenURL overrides the token endpoint derived from the provider
// domain. Useful for tests and providers with non-standard endpoints.
func WithTokenURL(u string) Option {
	return func(e *Exchanger) { e.tokenURL = u }
}

// New creates a token exchanger from the provider configuration.
func New(cfg auth.Config, opts ...Option) *Exchanger {
	e := &Exchanger{
		clientID:      cfg.ClientID,
		clientSecret:  cfg.ClientSecret,
		audience:      cfg.Audience,
		tokenURL:      cfg.TokenURL(),
		refreshBuffer: 5 * time.Minute,
		httpClient:    &http.Client{Timeout: cfg.HTTPTimeout},
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// tokenResponse is the raw JSON response from the token endpoint.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int32  `json:"expires_in"`
	Scope       string `json:"scope"`
}

// ExchangeToken requests a new access token using client credentials.
func (e *Exchanger) ExchangeToken(ctx context.Context) (*auth.OAuth2Token, error) {
	payload, err := json.Marshal(map[string]string{
		"grant_type":    "client_credentials",
		"client_id":     e.clientID,
		"client_secret": e.clientSecret,
		"audience":      e.audience,
	})
	if err != nil {
		return nil, fmt.Errorf("auth/oauth2: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.tokenURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("auth/oauth2: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth/oauth2: token request: %w: %w", auth.ErrUpstreamUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("auth/oauth2: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth/oauth2: token endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("auth/oauth2: decode response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("auth/oauth2: empty access_token in response")
	}

	return &auth.OAuth2Token{
		AccessToken: tokenResp.AccessToken,
		TokenType:   tokenResp.TokenType,
		ExpiresIn:   tokenResp.ExpiresIn,
		ExpiresAt:   time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second),
		Scope:       tokenResp.Scope,
	}, nil
}

// GetCachedToken returns a valid cached token, or fetches a new one if
// expired or missing.
func (e *Exchanger) GetCachedToken(ctx context.Context) (string, error) {
	e.mu.RLock()
	if e.token != nil && time.Now().Before(e.token.ExpiresAt.Add(-e.refreshBuffer)) {
		defer e.mu.RUnlock()
		return e.token.AccessToken, nil
	}
	e.mu.RUnlock()

	// singleflight prevents thundering herd
	result, err, _ := e.sf.Do("token", func() (interface{}, error) {
		return e.ExchangeToken(ctx)
	})
	if err != nil {
		return "", fmt.Errorf("auth/oauth2: token exchange failed: %w", err)
	}

	token := result.(*auth.OAuth2Token)
	e.mu.Lock()
	e.token = token
	e.mu.Unlock()

	return token.AccessToken, nil
}
