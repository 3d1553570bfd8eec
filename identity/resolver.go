// Package identity maps verified token claims to the internal identity
// record used everywhere downstream.
package identity

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	auth "github.com/loopchat/auth-go"
)

// placeholderHash stands in for the password hash of identities resolved
// from provider tokens, which never carry a local credential.
const placeholderHash = "$2b$12$mock_hashed_password"

// Resolver derives an auth.Identity from verified claims. Stateless apart
// from the clock; safe for concurrent use.
type Resolver struct {
	now func() time.Time
}

// Option configures the Resolver.
type Option func(*Resolver)

// WithClock overrides the time source for the request-scoped timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// NewResolver creates a claims-to-identity resolver.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{now: time.Now}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve builds the internal identity for the given verified claims.
// Fails with auth.ErrMissingRequiredClaim when the subject or email is
// absent — the token verified, but the provider sent nothing to identify
// the account with.
func (r *Resolver) Resolve(claims *auth.Claims) (*auth.Identity, error) {
	if claims.Subject == "" {
		return nil, fmt.Errorf("auth/identity: no subject claim: %w", auth.ErrMissingRequiredClaim)
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("auth/identity: no email claim: %w", auth.ErrMissingRequiredClaim)
	}

	first, last := splitName(claims.Name)

	isActive := true
	if claims.IsActive != nil {
		isActive = *claims.IsActive
	}
	role := claims.Role
	if role == "" {
		role = "user"
	}

	now := r.now()
	return &auth.Identity{
		ID:         SubjectID(claims.Subject),
		Email:      claims.Email,
		FirstName:  first,
		LastName:   last,
		IsActive:   isActive,
		IsVerified: claims.EmailVerified,
		Role:       role,
		CreatedAt:  now,
		UpdatedAt:  now,
		LastLogin:  now,
		SecretHash: placeholderHash,
	}, nil
}

// SubjectID derives the internal 128-bit ID for an external subject.
//
// A subject that already parses as a UUID is used unchanged. Anything else
// (provider-specific formats such as "auth0|abc123") is mapped through a
// name-based MD5 UUID (RFC 4122 version 3) under the DNS namespace, so the
// same external account always resolves to the same internal ID across
// logins while distinct subjects collide only with negligible probability.
func SubjectID(subject string) uuid.UUID {
	if id, err := uuid.Parse(subject); err == nil {
		return id
	}
	return uuid.NewMD5(uuid.NameSpaceDNS, []byte(subject))
}

// splitName splits a full name on the first space. A missing name yields
// empty first and last names.
func splitName(name string) (first, last string) {
	if name == "" {
		return "", ""
	}
	parts := strings.SplitN(name, " ", 2)
	first = parts[0]
	if len(parts) > 1 {
		last = parts[1]
	}
	return first, last
}
