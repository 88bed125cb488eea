package core

import (
	"crypto/subtle"
	"encoding/base64"

	"golang.org/x/crypto/scrypt"
)

// DefaultHashCost is the default work factor (log2 of the scrypt N
// parameter). 1<<15 rounds is current interactive-login guidance.
const DefaultHashCost = 15

const hashKeyLen = 32

// NewSalt returns a fresh per-credential salt, encoded for storage.
func NewSalt() string {
	return TokenGenerator{}.Generate()
}

// HashPassword derives a storable hash from (password, salt, cost).
// Deterministic for equal inputs; raising cost doubles the work per hash
// without changing the stored format.
func HashPassword(password, salt string, cost int) string {
	if cost < 1 || cost > 30 {
		cost = DefaultHashCost
	}
	key, err := scrypt.Key([]byte(password), []byte(salt), 1<<cost, 8, 1, hashKeyLen)
	if err != nil {
		// Parameters are validated above; scrypt cannot fail here.
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(key)
}

// VerifyPassword recomputes the hash and compares in constant time.
func VerifyPassword(password, salt string, cost int, expected string) bool {
	computed := HashPassword(password, salt, cost)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(expected)) == 1
}
