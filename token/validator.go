// Package token verifies RS256 bearer tokens against the identity
// provider's published signing keys.
//
// The validator checks, in order: the unverified header's key ID, the
// signature against the matching key, the expiration, and finally audience
// and issuer. The order is observable through the returned failure kind —
// a correctly signed token with a stale expiration fails with
// auth.ErrExpiredToken even when every other claim matches.
package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	auth "github.com/loopchat/auth-go"
	"github.com/loopchat/auth-go/jwks"
)

// KeyProvider supplies the provider's current key set. Satisfied by
// *jwks.Cache in live mode and mock.KeyProvider in tests. Injected rather
// than reached for globally, so the caching policy stays testable.
type KeyProvider interface {
	KeySet(ctx context.Context) (*jwks.KeySet, error)
}

// Validator verifies a token's signature and standard claims.
// Stateless apart from the injected key provider; safe for concurrent use.
type Validator struct {
	keys     KeyProvider
	audience string
	issuer   string
	now      func() time.Time
	parser   *jwt.Parser
}

// compile-time check
var _ auth.TokenVerifier = (*Validator)(nil)

// Option configures the Validator.
type Option func(*Validator)

// WithClock overrides the time source used for expiration checks.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) { v.now = now }
}

// NewValidator creates a validator that accepts only RS256 tokens issued by
// the given issuer for the given audience.
func NewValidator(keys KeyProvider, audience, issuer string, opts ...Option) *Validator {
	v := &Validator{
		keys:     keys,
		audience: audience,
		issuer:   issuer,
		now:      time.Now,
		// Claim validation is done by hand below so each failure maps to
		// a distinct kind; the parser only checks the signature.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Verify validates the raw token and returns its claim set.
func (v *Validator) Verify(ctx context.Context, tokenString string) (*auth.Claims, error) {
	tok, err := v.parser.Parse(tokenString, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("auth/token: no key ID in header: %w", auth.ErrMalformedHeader)
		}

		ks, err := v.keys.KeySet(ctx)
		if err != nil {
			return nil, err
		}
		key, ok := ks.Key(kid)
		if !ok {
			return nil, fmt.Errorf("auth/token: no key for kid %q: %w", kid, auth.ErrKeyNotFound)
		}
		return key.PublicKey()
	})
	if err != nil {
		return nil, v.classify(err)
	}

	mapClaims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("auth/token: unexpected claims type: %w", auth.ErrAuthenticationFailed)
	}
	if err := v.validateClaims(mapClaims); err != nil {
		return nil, err
	}

	return toClaims(mapClaims), nil
}

// classify maps a parse error to one of the SDK failure kinds. Errors that
// already carry a kind (from the key lookup) pass through; everything
// unexpected collapses into the catch-all so internal detail never reaches
// the caller's response.
func (v *Validator) classify(err error) error {
	switch {
	case errors.Is(err, auth.ErrMalformedHeader),
		errors.Is(err, auth.ErrKeyNotFound),
		errors.Is(err, auth.ErrUpstreamUnavailable):
		return err
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("auth/token: %w", auth.ErrInvalidSignature)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("auth/token: %w", auth.ErrMalformedHeader)
	default:
		return fmt.Errorf("auth/token: %w: %w", auth.ErrAuthenticationFailed, err)
	}
}

// validateClaims checks expiration, audience, and issuer, in that order.
func (v *Validator) validateClaims(m jwt.MapClaims) error {
	exp, err := m.GetExpirationTime()
	if err != nil || exp == nil {
		return fmt.Errorf("auth/token: missing expiration: %w", auth.ErrInvalidClaims)
	}
	if !exp.After(v.now()) {
		return fmt.Errorf("auth/token: %w", auth.ErrExpiredToken)
	}

	aud, err := m.GetAudience()
	if err != nil || !containsAudience(aud, v.audience) {
		return fmt.Errorf("auth/token: audience mismatch: %w", auth.ErrInvalidClaims)
	}

	iss, err := m.GetIssuer()
	if err != nil || iss != v.issuer {
		return fmt.Errorf("auth/token: issuer mismatch: %w", auth.ErrInvalidClaims)
	}
	return nil
}

func containsAudience(aud jwt.ClaimStrings, want string) bool {
	for _, a := range aud {
		if a == want {
			return true
		}
	}
	return false
}

// toClaims converts jwt.MapClaims into the SDK's structured claim set.
func toClaims(m jwt.MapClaims) *auth.Claims {
	c := &auth.Claims{Extra: make(map[string]any)}

	if v, ok := m["sub"].(string); ok {
		c.Subject = v
	}
	if v, ok := m["email"].(string); ok {
		c.Email = v
	}
	if v, ok := m["email_verified"].(bool); ok {
		c.EmailVerified = v
	}
	if v, ok := m["name"].(string); ok {
		c.Name = v
	}
	if v, ok := m["picture"].(string); ok {
		c.Picture = v
	}
	if v, ok := m["role"].(string); ok {
		c.Role = v
	}
	if v, ok := m["is_active"].(bool); ok {
		c.IsActive = &v
	}
	if v, ok := m["iss"].(string); ok {
		c.Issuer = v
	}
	if aud, err := m.GetAudience(); err == nil && len(aud) > 0 {
		c.Audience = aud[0]
	}
	if exp, err := m.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	if iat, err := m.GetIssuedAt(); err == nil && iat != nil {
		c.IssuedAt = iat.Time
	}
	if perms, ok := m["permissions"].([]any); ok {
		for _, p := range perms {
			if s, ok := p.(string); ok {
				c.Permissions = append(c.Permissions, s)
			}
		}
	}

	standard := map[string]bool{
		"sub": true, "email": true, "email_verified": true, "name": true,
		"picture": true, "role": true, "is_active": true, "permissions": true,
		"iss": true, "aud": true, "exp": true, "iat": true, "nbf": true,
		"jti": true,
	}
	for k, v := range m {
		if !standard[k] {
			c.Extra[k] = v
		}
	}

	return c
}
