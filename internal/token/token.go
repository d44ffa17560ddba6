// Package token implements the refresh-token store: hashed-at-rest
// opaque tokens grouped into rotation families, with replay detection
// that revokes an entire family when a revoked token is presented again.
package token

import "time"

// TTL is the refresh token lifetime.
const TTL = 7 * 24 * time.Hour

// RefreshToken is one row of a rotation family. TokenHash is the only
// stored form of the secret; RevokedAt non-nil marks a spent token whose
// reappearance is treated as theft.
type RefreshToken struct {
	TokenHash string
	MemberID  string
	FamilyID  string
	IP        string
	UserAgent string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// Metadata carries request attribution recorded at issue time.
type Metadata struct {
	IP        string
	UserAgent string
}

// Issued is returned once from Issue; the raw token is not recoverable
// afterwards.
type Issued struct {
	Token     string
	FamilyID  string
	ExpiresAt time.Time
}

// Identity is the result of a successful validation.
type Identity struct {
	MemberID string
	FamilyID string
}
