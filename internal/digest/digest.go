// Package digest provides the one-way hash applied to opaque secrets
// before they are persisted. Session identifiers and refresh tokens are
// stored only as digests so a database compromise never yields a usable
// credential.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash returns the lowercase hex SHA-256 digest of secret.
// Deterministic and pure; the same secret always maps to the same digest.
func Hash(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
