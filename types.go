package auth

import (
	"time"

	"github.com/google/uuid"
)

// Claims is the structured claim set extracted from a verified token.
//
// Every claim this SDK reads has a named, typed field; anything else the
// provider attached ends up in Extra. Claims are produced only by a
// TokenVerifier after signature and standard-claim checks pass — never
// construct one from an unverified token.
type Claims struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
	Permissions   []string
	Role          string

	// IsActive is nil when the provider did not send the claim. The
	// identity resolver treats an absent claim as active.
	IsActive *bool

	Issuer    string
	Audience  string
	ExpiresAt time.Time
	IssuedAt  time.Time

	// Extra holds provider-specific extension claims not covered above.
	Extra map[string]any
}

// Identity is the internal identity derived from verified claims.
//
// It lives for a single request: nothing in this SDK persists it. The ID is
// stable across logins — the same external subject always resolves to the
// same ID (see the identity package).
type Identity struct {
	ID         uuid.UUID
	Email      string
	FirstName  string
	LastName   string
	IsActive   bool
	IsVerified bool
	Role       string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	LastLogin  time.Time

	// SecretHash is the bcrypt hash of the user's password where one
	// exists. Identities resolved from provider tokens carry a
	// placeholder; only the registration/password-change paths set a
	// real value.
	SecretHash string
}

// OAuth2Token represents an OAuth2 access token response.
type OAuth2Token struct {
	AccessToken string
	TokenType   string // "Bearer"
	ExpiresIn   int32
	ExpiresAt   time.Time
	Scope       string
}
