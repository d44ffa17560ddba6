package session

import (
	"context"
	"time"
)

// Repository defines session persistence. Implementations must treat a
// missing row as (nil, nil), reserving errors for storage failures.
type Repository interface {
	Insert(ctx context.Context, s *Session) error
	GetByHash(ctx context.Context, idHash string) (*Session, error)
	UpdateActivity(ctx context.Context, idHash string, lastActiveAt, expiresAt time.Time) error
	Delete(ctx context.Context, idHash string) error
	DeleteAllForMember(ctx context.Context, memberID string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
