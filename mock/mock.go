// Package mock provides deterministic stand-ins for the live
// authentication pipeline.
//
// Nothing in this package touches the network or does cryptographic work:
// the authenticator accepts any token — including an empty one — and always
// returns the same fixed identity, and the key provider serves a fixed
// local key set no matter how often it is called. The authn package wires
// these in when the process runs in test mode; they are also useful
// directly in unit tests of code that consumes the SDK.
package mock

import (
	"context"
	"time"

	"github.com/google/uuid"

	auth "github.com/loopchat/auth-go"
	"github.com/loopchat/auth-go/jwks"
)

// IdentityID is the fixed ID of the mock identity.
var IdentityID = uuid.MustParse("223e4567-e89b-12d3-a456-426614174001")

// Identity returns the fixed identity every mock authentication yields.
// A fresh value each call: callers may mutate their copy.
func Identity() *auth.Identity {
	now := time.Now().UTC()
	return &auth.Identity{
		ID:         IdentityID,
		Email:      "test@example.com",
		FirstName:  "Test",
		LastName:   "User",
		IsActive:   true,
		IsVerified: true,
		Role:       "user",
		CreatedAt:  now,
		UpdatedAt:  now,
		LastLogin:  now,
		SecretHash: "$2b$12$mock_hashed_password",
	}
}

// Claims returns a fixed claim set shaped like a real provider token.
func Claims() *auth.Claims {
	active := true
	return &auth.Claims{
		Subject:       "auth0|testuser123",
		Email:         "test@example.com",
		EmailVerified: true,
		Name:          "Test User",
		Picture:       "https://example.com/avatar.jpg",
		Permissions:   []string{"read:users", "write:users"},
		IsActive:      &active,
		Issuer:        "https://test-domain.auth0.com/",
		Audience:      "test-audience",
		ExpiresAt:     time.Unix(1234571490, 0),
		IssuedAt:      time.Unix(1234567890, 0),
		Extra:         map[string]any{"last_login": "2023-01-01T00:00:00Z"},
	}
}

// KeySet returns the fixed local key set served in test mode. The entries
// are placeholders, not parseable RSA material — nothing in test mode ever
// verifies a signature against them.
func KeySet() *jwks.KeySet {
	return &jwks.KeySet{
		Keys: []jwks.Key{{
			Kid: "test-kid",
			Kty: "RSA",
			N:   "test-modulus",
			E:   "AQAB",
		}},
		FetchedAt: time.Now(),
	}
}

// Authenticator implements auth.TokenAuthenticator with a fixed result.
type Authenticator struct{}

var _ auth.TokenAuthenticator = Authenticator{}

// Authenticate returns the fixed mock identity for any input token.
func (Authenticator) Authenticate(_ context.Context, _ string) (*auth.Identity, error) {
	return Identity(), nil
}

// Verifier implements auth.TokenVerifier with a fixed claim set.
type Verifier struct{}

var _ auth.TokenVerifier = Verifier{}

// Verify returns the fixed mock claims for any input token.
func (Verifier) Verify(_ context.Context, _ string) (*auth.Claims, error) {
	return Claims(), nil
}

// KeyProvider serves the fixed key set without any network access,
// regardless of call count or injected failures elsewhere.
type KeyProvider struct{}

// KeySet returns the fixed local key set.
func (KeyProvider) KeySet(_ context.Context) (*jwks.KeySet, error) {
	return KeySet(), nil
}

// Invalidate is a no-op: the mock key set is never stale.
func (KeyProvider) Invalidate() {}
