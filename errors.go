package auth

import "errors"

// Failure kinds for the authentication pipeline. Every error returned by
// this SDK wraps exactly one of these sentinels, so callers classify with
// errors.Is and map to a transport status without parsing messages.
var (
	// ErrMissingCredentials indicates no Authorization header was sent.
	ErrMissingCredentials = errors.New("missing credentials")

	// ErrInvalidScheme indicates an Authorization scheme other than Bearer.
	ErrInvalidScheme = errors.New("invalid authentication scheme")

	// ErrMalformedHeader indicates the token header could not be read or
	// carries no key ID.
	ErrMalformedHeader = errors.New("malformed token header")

	// ErrKeyNotFound indicates the token's key ID matches no key in the
	// provider's current key set.
	ErrKeyNotFound = errors.New("signing key not found")

	// ErrInvalidSignature indicates the token signature does not verify
	// against the selected key.
	ErrInvalidSignature = errors.New("invalid token signature")

	// ErrExpiredToken indicates a correctly signed token whose expiration
	// is in the past. Kept distinct from ErrInvalidClaims so clients can
	// tell "log in again" from "token was never valid".
	ErrExpiredToken = errors.New("token has expired")

	// ErrInvalidClaims indicates the audience or issuer does not match the
	// configured values, or a required standard claim is missing.
	ErrInvalidClaims = errors.New("invalid token claims")

	// ErrUpstreamUnavailable indicates the identity provider's key set
	// could not be fetched. A server-side failure, never an auth failure.
	ErrUpstreamUnavailable = errors.New("identity provider unavailable")

	// ErrMissingRequiredClaim indicates a verified token lacks the subject
	// or email claim needed to build an identity.
	ErrMissingRequiredClaim = errors.New("missing required claim")

	// ErrAuthenticationFailed is the catch-all for unexpected validation
	// failures. The wrapped detail stays server-side; callers surface only
	// a generic authentication failure.
	ErrAuthenticationFailed = errors.New("could not validate credentials")
)

// IsAuthFailure reports whether err is a client-attributable authentication
// failure, as opposed to a server-side fault such as ErrUpstreamUnavailable.
func IsAuthFailure(err error) bool {
	for _, kind := range []error{
		ErrMissingCredentials, ErrInvalidScheme, ErrMalformedHeader,
		ErrKeyNotFound, ErrInvalidSignature, ErrExpiredToken,
		ErrInvalidClaims, ErrMissingRequiredClaim, ErrAuthenticationFailed,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
