package auth

import "context"

// TokenVerifier verifies a raw bearer token and extracts its claims.
// Implementations: token/ (RS256 via JWKS), mock/ (testing).
type TokenVerifier interface {
	// Verify validates the token's signature and standard claims and
	// returns the full claim set. The raw token must never be logged.
	Verify(ctx context.Context, token string) (*Claims, error)
}

// TokenAuthenticator is the single authentication entry point handed to
// transports. The live implementation verifies the token and resolves an
// identity; the mock implementation returns a fixed identity for any input.
// Both expose this exact contract, so callers never know which is active.
//
// Implementations are selected once at process start — see the authn package.
type TokenAuthenticator interface {
	// Authenticate verifies the raw bearer token and resolves the
	// internal identity it represents.
	Authenticate(ctx context.Context, token string) (*Identity, error)
}

// PasswordHasher hashes and verifies user secrets.
// Implementation: password/ (bcrypt with SHA-256 pre-digest).
type PasswordHasher interface {
	// Hash produces a salted one-way hash of the password. Two calls with
	// the same password yield different hashes.
	Hash(password string) (string, error)

	// Verify reports whether password matches the stored hash.
	Verify(password, encoded string) bool
}

// OAuth2TokenExchanger exchanges OAuth2 client credentials for access tokens.
// Implementations should handle token caching and automatic refresh.
type OAuth2TokenExchanger interface {
	// ExchangeToken requests a new access token using client credentials.
	ExchangeToken(ctx context.Context) (*OAuth2Token, error)

	// GetCachedToken returns a valid cached token, or fetches a new one if expired.
	GetCachedToken(ctx context.Context) (string, error)
}
