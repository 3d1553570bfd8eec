package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/loopchat/auth-go"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")

	cfg, err := auth.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Env)
	assert.True(t, cfg.IsTest())
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
}

func TestLoadConfig_LiveModeRequiresProvider(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH0_DOMAIN", "")
	t.Setenv("AUTH0_AUDIENCE", "")

	_, err := auth.LoadConfig()
	require.Error(t, err)
}

func TestLoadConfig_LiveMode(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH0_DOMAIN", "example.auth0.com")
	t.Setenv("AUTH0_AUDIENCE", "https://api.example.com")

	cfg, err := auth.LoadConfig()
	require.NoError(t, err)
	assert.False(t, cfg.IsTest())
	assert.Equal(t, "example.auth0.com", cfg.Domain)
}

func TestConfig_IssuerDefaultsToDomain(t *testing.T) {
	cfg := auth.Config{Domain: "example.auth0.com"}
	assert.Equal(t, "https://example.auth0.com/", cfg.IssuerURL())

	cfg.Issuer = "https://issuer.example.com/"
	assert.Equal(t, "https://issuer.example.com/", cfg.IssuerURL())
}

func TestConfig_DerivedURLs(t *testing.T) {
	cfg := auth.Config{Domain: "example.auth0.com"}

	assert.Equal(t, "https://example.auth0.com/.well-known/jwks.json", cfg.JWKSURL())
	assert.Equal(t, "https://example.auth0.com/oauth/token", cfg.TokenURL())
}

func TestConfig_JWKSURLFromExplicitIssuer(t *testing.T) {
	cfg := auth.Config{Domain: "example.auth0.com", Issuer: "http://127.0.0.1:9999/"}
	assert.Equal(t, "http://127.0.0.1:9999/.well-known/jwks.json", cfg.JWKSURL())
}
