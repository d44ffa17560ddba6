package session

import (
	"context"
	"fmt"
	"time"

	"github.com/unstable-code/angple/internal/digest"
	"github.com/unstable-code/angple/internal/random"
)

const (
	// TTL is the absolute session lifetime, extended on activity.
	TTL = 30 * 24 * time.Hour

	// slideThreshold is how long a session must have been idle before
	// its expiry window is extended by a full TTL again.
	slideThreshold = 15 * 24 * time.Hour

	// touchInterval amortizes last-active writes: a bump is persisted at
	// most once per interval, not on every request.
	touchInterval = 5 * time.Minute

	maxUserAgentLen = 512
)

// Service implements the session lifecycle over a Repository.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Create mints a new session for the member and persists its digest.
// The raw session identifier and CSRF token are returned exactly once.
func (s *Service) Create(ctx context.Context, memberID string, meta Metadata) (*Created, error) {
	if memberID == "" {
		return nil, fmt.Errorf("session: missing member id")
	}

	rawID := random.Secret()
	csrfToken := random.Secret()

	ua := meta.UserAgent
	if len(ua) > maxUserAgentLen {
		ua = ua[:maxUserAgentLen]
	}

	now := s.now()
	sess := &Session{
		IDHash:       digest.Hash(rawID),
		MemberID:     memberID,
		CSRFToken:    csrfToken,
		IP:           meta.IP,
		UserAgent:    ua,
		CreatedAt:    now,
		LastActiveAt: now,
		ExpiresAt:    now.Add(TTL),
	}

	if err := s.repo.Insert(ctx, sess); err != nil {
		return nil, fmt.Errorf("session: create: %w", err)
	}

	return &Created{
		SessionID: rawID,
		CSRFToken: csrfToken,
		ExpiresAt: sess.ExpiresAt,
	}, nil
}

// Validate looks up the session for a raw identifier. Expired sessions
// are deleted and reported as absent; live sessions have their sliding
// window advanced. Returns (nil, nil) when no valid session exists.
func (s *Service) Validate(ctx context.Context, rawID string) (*Session, error) {
	if rawID == "" {
		return nil, nil
	}

	idHash := digest.Hash(rawID)
	sess, err := s.repo.GetByHash(ctx, idHash)
	if err != nil {
		return nil, fmt.Errorf("session: lookup: %w", err)
	}
	if sess == nil {
		return nil, nil
	}

	now := s.now()
	if now.After(sess.ExpiresAt) {
		_ = s.repo.Delete(ctx, idHash)
		return nil, nil
	}

	idle := now.Sub(sess.LastActiveAt)
	switch {
	case idle > slideThreshold:
		sess.LastActiveAt = now
		sess.ExpiresAt = now.Add(TTL)
		_ = s.repo.UpdateActivity(ctx, idHash, sess.LastActiveAt, sess.ExpiresAt)
	case idle > touchInterval:
		sess.LastActiveAt = now
		_ = s.repo.UpdateActivity(ctx, idHash, sess.LastActiveAt, sess.ExpiresAt)
	}

	return sess, nil
}

func (s *Service) Destroy(ctx context.Context, rawID string) error {
	return s.repo.Delete(ctx, digest.Hash(rawID))
}

func (s *Service) DestroyAllForMember(ctx context.Context, memberID string) (int64, error) {
	return s.repo.DeleteAllForMember(ctx, memberID)
}

func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.now())
}
