package core

import (
	"crypto/rand"
	"encoding/base64"
)

// tokenBytes is the raw entropy per generated token (128 bits).
const tokenBytes = 16

// TokenGenerator produces URL-safe random identifiers for sessions,
// CSRF tokens and salts.
type TokenGenerator struct{}

// Generate returns 16 bytes of CSPRNG output, base64url-encoded without
// padding.
func (TokenGenerator) Generate() string {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms.
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// GenerateSessionID concatenates two independent tokens to widen the
// identifier space for long-lived session ids.
func (g TokenGenerator) GenerateSessionID() string {
	return g.Generate() + g.Generate()
}
