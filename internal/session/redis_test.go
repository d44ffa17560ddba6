package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisRepo(t *testing.T) (*RedisRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisRepository(client), mr
}

func testSession(idHash, memberID string, expiresIn time.Duration) *Session {
	now := time.Now()
	return &Session{
		IDHash:       idHash,
		MemberID:     memberID,
		CSRFToken:    "csrf-" + idHash,
		CreatedAt:    now,
		LastActiveAt: now,
		ExpiresAt:    now.Add(expiresIn),
	}
}

func TestRedisInsertAndGet(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRedisRepo(t)

	s := testSession("h1", "m1", time.Hour)
	require.NoError(t, repo.Insert(ctx, s))

	got, err := repo.GetByHash(ctx, "h1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "m1", got.MemberID)
	assert.Equal(t, s.CSRFToken, got.CSRFToken)

	missing, err := repo.GetByHash(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRedisKeyExpiry(t *testing.T) {
	ctx := context.Background()
	repo, mr := newRedisRepo(t)

	require.NoError(t, repo.Insert(ctx, testSession("h1", "m1", time.Minute)))

	mr.FastForward(2 * time.Minute)

	got, err := repo.GetByHash(ctx, "h1")
	require.NoError(t, err)
	assert.Nil(t, got, "expired key reaped by TTL")
}

func TestRedisUpdateActivity(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRedisRepo(t)

	s := testSession("h1", "m1", time.Hour)
	require.NoError(t, repo.Insert(ctx, s))

	bumped := time.Now().Add(10 * time.Minute)
	expires := time.Now().Add(2 * time.Hour)
	require.NoError(t, repo.UpdateActivity(ctx, "h1", bumped, expires))

	got, err := repo.GetByHash(ctx, "h1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.WithinDuration(t, bumped, got.LastActiveAt, time.Second)
	assert.WithinDuration(t, expires, got.ExpiresAt, time.Second)
}

func TestRedisDeleteAllForMember(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRedisRepo(t)

	require.NoError(t, repo.Insert(ctx, testSession("h1", "m1", time.Hour)))
	require.NoError(t, repo.Insert(ctx, testSession("h2", "m1", time.Hour)))
	require.NoError(t, repo.Insert(ctx, testSession("h3", "m2", time.Hour)))

	count, err := repo.DeleteAllForMember(ctx, "m1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	got, err := repo.GetByHash(ctx, "h3")
	require.NoError(t, err)
	assert.NotNil(t, got)
}
