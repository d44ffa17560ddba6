package random

import (
	"crypto/rand"
	"encoding/base64"
)

// Opaque returns a URL-safe random string carrying the given number of
// bytes of entropy. 32 bytes = 256 bits.
func Opaque(bytes int) string {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failure means the platform RNG is broken;
		// nothing sensible can be issued past this point.
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// Secret returns a 256-bit random opaque string, the standard size for
// session identifiers, refresh tokens, state values and CSRF tokens.
func Secret() string {
	return Opaque(32)
}

const suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Suffix returns a short lowercase alphanumeric string used to
// disambiguate colliding generated identifiers.
func Suffix(length int) string {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	for i := range b {
		b[i] = suffixAlphabet[int(b[i])%len(suffixAlphabet)]
	}
	return string(b)
}
