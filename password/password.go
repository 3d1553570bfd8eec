// Package password hashes and verifies user secrets with bcrypt.
//
// bcrypt only considers the first 72 bytes of its input. Rather than
// silently ignoring the tail of a long password, inputs over the limit are
// first collapsed through SHA-256 and the digest is what gets hashed.
// Verify applies the identical pre-processing, so a password that needed
// the digest at creation time still verifies afterwards.
package password

import (
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	auth "github.com/loopchat/auth-go"
)

// bcryptMaxLen is the number of password bytes bcrypt actually uses.
const bcryptMaxLen = 72

// DefaultCost is the bcrypt cost used when none is configured.
const DefaultCost = 12

// Hasher hashes and verifies passwords. Stateless; safe for concurrent use.
type Hasher struct {
	cost int
}

var _ auth.PasswordHasher = Hasher{}

// New creates a Hasher with the given bcrypt cost. Costs outside bcrypt's
// supported range fall back to DefaultCost.
func New(cost int) Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return Hasher{cost: cost}
}

// Hash produces a salted bcrypt hash of the password. The salt is fresh per
// call: hashing the same password twice yields two different encodings,
// both of which verify.
func (h Hasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword(preprocess(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("auth/password: hash: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether password matches the stored bcrypt encoding.
func (h Hasher) Verify(password, encoded string) bool {
	return bcrypt.CompareHashAndPassword([]byte(encoded), preprocess(password)) == nil
}

// preprocess collapses passwords beyond bcrypt's effective length through
// SHA-256; shorter ones pass through untouched.
func preprocess(password string) []byte {
	b := []byte(password)
	if len(b) <= bcryptMaxLen {
		return b
	}
	sum := sha256.Sum256(b)
	return sum[:]
}
