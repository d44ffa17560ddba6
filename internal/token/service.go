package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/unstable-code/angple/internal/digest"
	"github.com/unstable-code/angple/internal/logger"
	"github.com/unstable-code/angple/internal/observability/metrics"
	"github.com/unstable-code/angple/internal/random"
)

// ErrInvalidToken is returned from Rotate when the presented token does
// not validate. Callers treat it as re-authentication required.
var ErrInvalidToken = errors.New("token: invalid refresh token")

// Service implements the refresh-token lifecycle over a Repository.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Issue mints a new refresh token. An empty familyID starts a new login
// lineage; rotation passes the existing family through.
func (s *Service) Issue(ctx context.Context, memberID, familyID string, meta Metadata) (*Issued, error) {
	if memberID == "" {
		return nil, fmt.Errorf("token: missing member id")
	}
	if familyID == "" {
		familyID = random.Secret()
	}

	raw := random.Secret()
	now := s.now()

	t := &RefreshToken{
		TokenHash: digest.Hash(raw),
		MemberID:  memberID,
		FamilyID:  familyID,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		CreatedAt: now,
		ExpiresAt: now.Add(TTL),
	}

	if err := s.repo.Insert(ctx, t); err != nil {
		return nil, fmt.Errorf("token: issue: %w", err)
	}

	return &Issued{Token: raw, FamilyID: familyID, ExpiresAt: t.ExpiresAt}, nil
}

// Validate checks a raw refresh token. Presenting a revoked token is
// reuse: the entire family is revoked and the attempt logged as a
// security event. Returns (nil, nil) for any invalid token.
func (s *Service) Validate(ctx context.Context, raw string) (*Identity, error) {
	if raw == "" {
		return nil, nil
	}

	t, err := s.repo.GetByHash(ctx, digest.Hash(raw))
	if err != nil {
		return nil, fmt.Errorf("token: lookup: %w", err)
	}
	if t == nil {
		return nil, nil
	}

	if t.RevokedAt != nil {
		// Replay of a rotated-past token: the legitimate chain and the
		// attacker's copy are indistinguishable, so invalidate both.
		if err := s.repo.RevokeFamily(ctx, t.FamilyID, s.now()); err != nil {
			return nil, fmt.Errorf("token: revoke family: %w", err)
		}
		metrics.RefreshReuseDetectedTotal.Inc()
		logger.Warn("refresh token reuse detected, family revoked", map[string]any{
			"member_id": t.MemberID,
			"family_id": t.FamilyID,
		})
		return nil, nil
	}

	if s.now().After(t.ExpiresAt) {
		return nil, nil
	}

	return &Identity{MemberID: t.MemberID, FamilyID: t.FamilyID}, nil
}

// Rotate exchanges a valid refresh token for a fresh one in the same
// family. The old token is revoked first; any failure aborts with no new
// token issued.
func (s *Service) Rotate(ctx context.Context, raw string, meta Metadata) (*Issued, string, error) {
	id, err := s.Validate(ctx, raw)
	if err != nil {
		return nil, "", err
	}
	if id == nil {
		return nil, "", ErrInvalidToken
	}

	if err := s.repo.Revoke(ctx, digest.Hash(raw), s.now()); err != nil {
		return nil, "", fmt.Errorf("token: rotate revoke: %w", err)
	}

	issued, err := s.Issue(ctx, id.MemberID, id.FamilyID, meta)
	if err != nil {
		return nil, "", err
	}

	metrics.RefreshRotationsTotal.Inc()
	return issued, id.MemberID, nil
}

func (s *Service) Revoke(ctx context.Context, raw string) error {
	return s.repo.Revoke(ctx, digest.Hash(raw), s.now())
}

func (s *Service) RevokeFamily(ctx context.Context, familyID string) error {
	return s.repo.RevokeFamily(ctx, familyID, s.now())
}

func (s *Service) RevokeAllForMember(ctx context.Context, memberID string) error {
	return s.repo.RevokeAllForMember(ctx, memberID, s.now())
}

func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.now())
}
