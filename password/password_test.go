package password_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopchat/auth-go/password"
)

// Low cost keeps the adaptive hash fast in tests; the pre-processing under
// test is independent of cost.
var hasher = password.New(4)

func TestHashVerify_RoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{"short", "s3cret!"},
		{"exactly 72 bytes", strings.Repeat("a", 72)},
		{"just over the bcrypt limit", strings.Repeat("a", 73)},
		{"long", strings.Repeat("a", 100)},
		{"unicode", "pässwörd-绝密-🔐"},
		{"long unicode", strings.Repeat("绝密", 50)},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := hasher.Hash(tt.password)
			require.NoError(t, err)

			assert.True(t, hasher.Verify(tt.password, encoded), "original password must verify")
			assert.False(t, hasher.Verify(tt.password+"x", encoded), "suffixed password must not verify")
		})
	}
}

func TestHash_FreshSaltPerCall(t *testing.T) {
	const pw = "correct horse battery staple"

	first, err := hasher.Hash(pw)
	require.NoError(t, err)
	second, err := hasher.Hash(pw)
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "two hashes of the same password must differ")
	assert.True(t, hasher.Verify(pw, first))
	assert.True(t, hasher.Verify(pw, second))
}

func TestVerify_LongPasswordTailMatters(t *testing.T) {
	// With naive bcrypt both of these would collapse to the same first 72
	// bytes; the SHA-256 pre-digest keeps the tail significant.
	long := strings.Repeat("a", 100)
	encoded, err := hasher.Hash(long)
	require.NoError(t, err)

	assert.True(t, hasher.Verify(long, encoded))
	assert.False(t, hasher.Verify(strings.Repeat("a", 99)+"b", encoded))
	assert.False(t, hasher.Verify(strings.Repeat("a", 73), encoded))
}

func TestVerify_GarbageEncoding(t *testing.T) {
	assert.False(t, hasher.Verify("whatever", "not-a-bcrypt-hash"))
	assert.False(t, hasher.Verify("whatever", ""))
}

func TestNew_CostFallback(t *testing.T) {
	// Out-of-range costs fall back to the default rather than failing at
	// hash time.
	h := password.New(99)
	encoded, err := h.Hash("pw")
	require.NoError(t, err)
	assert.True(t, h.Verify("pw", encoded))
}
