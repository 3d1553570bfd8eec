// Package ginmw provides Gin HTTP middleware for bearer-token
// authentication.
//
// The middleware runs behind whatever request-rate gate the service
// installs; it imposes no throttling of its own. It extracts the bearer
// token, hands it to the client's TokenAuthenticator, and maps each failure
// kind to an HTTP status: client defects and trust failures become 401, an
// unreachable identity provider becomes 503 — never a silent pass.
package ginmw

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	auth "github.com/loopchat/auth-go"
	"github.com/loopchat/auth-go/audit"
	"github.com/loopchat/auth-go/metrics"
)

// KeyIdentity is the gin.Context key under which the authenticated
// identity is stored.
const KeyIdentity = "auth_identity"

// AuthOption configures Auth middleware behavior.
type AuthOption func(*authConfig)

type authConfig struct {
	excludedPaths map[string]bool
	metrics       *metrics.Metrics
	audit         *audit.Logger
}

// WithExcludedPaths sets paths that skip authentication (e.g. health checks).
func WithExcludedPaths(paths ...string) AuthOption {
	return func(cfg *authConfig) {
		for _, p := range paths {
			cfg.excludedPaths[p] = true
		}
	}
}

// WithMetrics wires authentication request/failure counters.
func WithMetrics(m *metrics.Metrics) AuthOption {
	return func(cfg *authConfig) { cfg.metrics = m }
}

// WithAuditLogger emits one audit event per authentication attempt.
func WithAuditLogger(l *audit.Logger) AuthOption {
	return func(cfg *authConfig) { cfg.audit = l }
}

// Auth returns Gin middleware that authenticates the bearer token via
// client.Authenticator(). On success the identity is stored in both the
// Gin context (KeyIdentity) and the request context
// (auth.IdentityFromContext).
func Auth(client *auth.Client, opts ...AuthOption) gin.HandlerFunc {
	cfg := &authConfig{excludedPaths: make(map[string]bool)}
	for _, o := range opts {
		o(cfg)
	}
	logger := client.Logger()

	return func(c *gin.Context) {
		if cfg.excludedPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()
		raw, err := extractBearerToken(c.Request)
		if err == nil {
			var id *auth.Identity
			id, err = client.Authenticator().Authenticate(c.Request.Context(), raw)
			if err == nil {
				cfg.metrics.RecordAuth(time.Since(start).Seconds())
				cfg.audit.Log(audit.Event{
					RequestID: auth.RequestIDFromContext(c.Request.Context()),
					UserID:    id.ID.String(),
					Email:     id.Email,
					Action:    "authenticate",
					Result:    "success",
					IP:        c.ClientIP(),
					UserAgent: c.Request.UserAgent(),
				})
				c.Set(KeyIdentity, id)
				c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), id))
				c.Next()
				return
			}
		}

		cfg.metrics.RecordAuth(time.Since(start).Seconds())
		cfg.metrics.RecordAuthFailure(failureReason(err))
		cfg.audit.Log(audit.Event{
			RequestID: auth.RequestIDFromContext(c.Request.Context()),
			Action:    "authenticate",
			Result:    "failure",
			Reason:    failureReason(err),
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})
		// Log the failure kind only — the raw token never reaches logs.
		logger.Warn("authentication failed",
			"path", c.Request.URL.Path,
			"reason", failureReason(err),
		)
		c.Header("WWW-Authenticate", "Bearer")
		c.AbortWithStatusJSON(statusFor(err), gin.H{"error": publicMessage(err)})
	}
}

// Identity returns the authenticated identity from the Gin context.
func Identity(c *gin.Context) *auth.Identity {
	v, _ := c.Get(KeyIdentity)
	id, _ := v.(*auth.Identity)
	return id
}

// statusFor maps a failure kind to an HTTP status code.
func statusFor(err error) int {
	if errors.Is(err, auth.ErrUpstreamUnavailable) {
		return http.StatusServiceUnavailable
	}
	return http.StatusUnauthorized
}

// publicMessage is the response body text per failure kind. Internal error
// detail stays server-side.
func publicMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissingCredentials):
		return "missing authorization token"
	case errors.Is(err, auth.ErrInvalidScheme):
		return "invalid authentication scheme"
	case errors.Is(err, auth.ErrExpiredToken):
		return "token has expired"
	case errors.Is(err, auth.ErrUpstreamUnavailable):
		return "authentication temporarily unavailable"
	default:
		return "could not validate credentials"
	}
}

// failureReason labels a failure kind for logs and metrics.
func failureReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissingCredentials):
		return "missing_credentials"
	case errors.Is(err, auth.ErrInvalidScheme):
		return "invalid_scheme"
	case errors.Is(err, auth.ErrMalformedHeader):
		return "malformed_header"
	case errors.Is(err, auth.ErrKeyNotFound):
		return "key_not_found"
	case errors.Is(err, auth.ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, auth.ErrExpiredToken):
		return "expired_token"
	case errors.Is(err, auth.ErrInvalidClaims):
		return "invalid_claims"
	case errors.Is(err, auth.ErrMissingRequiredClaim):
		return "missing_required_claim"
	case errors.Is(err, auth.ErrUpstreamUnavailable):
		return "upstream_unavailable"
	default:
		return "authentication_failed"
	}
}

// extractBearerToken pulls the raw token out of the Authorization header.
func extractBearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", auth.ErrMissingCredentials
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", auth.ErrInvalidScheme
	}
	return parts[1], nil
}
