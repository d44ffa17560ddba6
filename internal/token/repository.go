package token

import (
	"context"
	"time"
)

// Repository defines refresh-token persistence. Missing rows are
// (nil, nil); errors are storage failures only.
type Repository interface {
	Insert(ctx context.Context, t *RefreshToken) error
	GetByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)
	Revoke(ctx context.Context, tokenHash string, at time.Time) error
	RevokeFamily(ctx context.Context, familyID string, at time.Time) error
	RevokeAllForMember(ctx context.Context, memberID string, at time.Time) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
