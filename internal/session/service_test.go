package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepository struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{sessions: make(map[string]*Session)}
}

func (m *memoryRepository) Insert(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sessions[s.IDHash] = &cp
	return nil
}

func (m *memoryRepository) GetByHash(_ context.Context, idHash string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[idHash]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *memoryRepository) UpdateActivity(_ context.Context, idHash string, lastActiveAt, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[idHash]; ok {
		s.LastActiveAt = lastActiveAt
		s.ExpiresAt = expiresAt
	}
	return nil
}

func (m *memoryRepository) Delete(_ context.Context, idHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, idHash)
	return nil
}

func (m *memoryRepository) DeleteAllForMember(_ context.Context, memberID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for h, s := range m.sessions {
		if s.MemberID == memberID {
			delete(m.sessions, h)
			count++
		}
	}
	return count, nil
}

func (m *memoryRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for h, s := range m.sessions {
		if now.After(s.ExpiresAt) {
			delete(m.sessions, h)
			count++
		}
	}
	return count, nil
}

func newTestService(repo Repository, now *time.Time) *Service {
	svc := NewService(repo)
	svc.now = func() time.Time { return *now }
	return svc
}

func TestCreateReturnsRawSecretsOnce(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepository()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(repo, &now)

	created, err := svc.Create(ctx, "m1", Metadata{IP: "10.0.0.1", UserAgent: "ua"})
	require.NoError(t, err)
	require.NotEmpty(t, created.SessionID)
	require.NotEmpty(t, created.CSRFToken)
	assert.Equal(t, now.Add(TTL), created.ExpiresAt)

	// raw id is never stored
	_, rawStored := repo.sessions[created.SessionID]
	assert.False(t, rawStored)
}

func TestValidateIsIdempotentRead(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepository()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(repo, &now)

	created, err := svc.Create(ctx, "m1", Metadata{})
	require.NoError(t, err)

	first, err := svc.Validate(ctx, created.SessionID)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := svc.Validate(ctx, created.SessionID)
	require.NoError(t, err)
	require.NotNil(t, second)

	assert.Equal(t, first.MemberID, second.MemberID)
	assert.Equal(t, first.CSRFToken, second.CSRFToken)
}

func TestValidateUnknownSession(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	svc := newTestService(newMemoryRepository(), &now)

	sess, err := svc.Validate(ctx, "no-such-session")
	require.NoError(t, err)
	assert.Nil(t, sess)

	sess, err = svc.Validate(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestValidateExpiredSessionIsRemoved(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepository()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(repo, &now)

	created, err := svc.Create(ctx, "m1", Metadata{})
	require.NoError(t, err)

	now = now.Add(TTL + time.Second)

	sess, err := svc.Validate(ctx, created.SessionID)
	require.NoError(t, err)
	assert.Nil(t, sess)

	// row is gone, not merely rejected
	assert.Empty(t, repo.sessions)
}

func TestValidateSlidingWindow(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepository()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := start
	svc := newTestService(repo, &now)

	created, err := svc.Create(ctx, "m1", Metadata{})
	require.NoError(t, err)

	// under the touch interval: no write at all
	now = start.Add(2 * time.Minute)
	sess, err := svc.Validate(ctx, created.SessionID)
	require.NoError(t, err)
	require.NotNil(t, sess)
	stored := repo.sessions[sess.IDHash]
	assert.Equal(t, start, stored.LastActiveAt)
	assert.Equal(t, start.Add(TTL), stored.ExpiresAt)

	// past the touch interval: last-active bumped, expiry untouched
	now = start.Add(10 * time.Minute)
	sess, err = svc.Validate(ctx, created.SessionID)
	require.NoError(t, err)
	require.NotNil(t, sess)
	stored = repo.sessions[sess.IDHash]
	assert.Equal(t, now, stored.LastActiveAt)
	assert.Equal(t, start.Add(TTL), stored.ExpiresAt)

	// past the slide threshold: expiry extended by a full TTL
	idleFrom := stored.LastActiveAt
	now = idleFrom.Add(16 * 24 * time.Hour)
	sess, err = svc.Validate(ctx, created.SessionID)
	require.NoError(t, err)
	require.NotNil(t, sess)
	stored = repo.sessions[sess.IDHash]
	assert.Equal(t, now, stored.LastActiveAt)
	assert.Equal(t, now.Add(TTL), stored.ExpiresAt)
}

func TestDestroyAllForMember(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepository()
	now := time.Now()
	svc := newTestService(repo, &now)

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, "m1", Metadata{})
		require.NoError(t, err)
	}
	other, err := svc.Create(ctx, "m2", Metadata{})
	require.NoError(t, err)

	count, err := svc.DestroyAllForMember(ctx, "m1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	sess, err := svc.Validate(ctx, other.SessionID)
	require.NoError(t, err)
	assert.NotNil(t, sess, "other member's session survives")
}

func TestSweepExpired(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepository()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(repo, &now)

	_, err := svc.Create(ctx, "m1", Metadata{})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "m2", Metadata{})
	require.NoError(t, err)

	now = now.Add(TTL + time.Hour)
	live, err := svc.Create(ctx, "m3", Metadata{})
	require.NoError(t, err)

	count, err := svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	sess, err := svc.Validate(ctx, live.SessionID)
	require.NoError(t, err)
	assert.NotNil(t, sess)
}
