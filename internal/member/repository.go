package member

import (
	"context"
	"errors"
	"time"
)

var (
	ErrDuplicateID       = errors.New("member id already taken")
	ErrDuplicateNickname = errors.New("nickname already taken")
	ErrDuplicateEmail    = errors.New("email already taken")
)

// Repository persists members. Lookups return (nil, nil) when no row
// matches.
type Repository interface {
	FindByID(ctx context.Context, id string) (*Member, error)
	FindByEmail(ctx context.Context, email string) (*Member, error)
	Create(ctx context.Context, m *Member) error
	UpdateLastLogin(ctx context.Context, id, ip string, at time.Time) error
}

// SocialLinkRepository persists provider-to-member links.
type SocialLinkRepository interface {
	Find(ctx context.Context, provider, providerIdentifier string) (*SocialLink, error)
	Upsert(ctx context.Context, link *SocialLink) error
}

// CredentialRepository persists password hashes for direct login.
type CredentialRepository interface {
	FindByMemberID(ctx context.Context, memberID string) (*Credential, error)
	Upsert(ctx context.Context, c *Credential) error
}
