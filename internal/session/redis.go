package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRepository is the Redis-backed session repository. Row expiry is
// delegated to key TTLs; a per-member set supports bulk destruction.
type RedisRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{
		client: client,
		prefix: "session:",
	}
}

func (r *RedisRepository) key(idHash string) string {
	return r.prefix + idHash
}

func (r *RedisRepository) memberKey(memberID string) string {
	return r.prefix + "member:" + memberID
}

func (r *RedisRepository) Insert(ctx context.Context, s *Session) error {
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session: expires_at must be in the future")
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session: failed to marshal: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.key(s.IDHash), data, ttl)
	pipe.SAdd(ctx, r.memberKey(s.MemberID), s.IDHash)
	// member index outlives any single session by the session TTL
	pipe.Expire(ctx, r.memberKey(s.MemberID), ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisRepository) GetByHash(ctx context.Context, idHash string) (*Session, error) {
	val, err := r.client.Get(ctx, r.key(idHash)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var s Session
	if err := json.Unmarshal([]byte(val), &s); err != nil {
		return nil, fmt.Errorf("session: failed to unmarshal: %w", err)
	}
	return &s, nil
}

func (r *RedisRepository) UpdateActivity(
	ctx context.Context,
	idHash string,
	lastActiveAt, expiresAt time.Time,
) error {
	s, err := r.GetByHash(ctx, idHash)
	if err != nil || s == nil {
		return err
	}

	s.LastActiveAt = lastActiveAt
	s.ExpiresAt = expiresAt

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return r.client.Del(ctx, r.key(idHash)).Err()
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session: failed to marshal: %w", err)
	}
	return r.client.Set(ctx, r.key(idHash), data, ttl).Err()
}

func (r *RedisRepository) Delete(ctx context.Context, idHash string) error {
	s, err := r.GetByHash(ctx, idHash)
	if err != nil {
		return err
	}
	if s != nil {
		_ = r.client.SRem(ctx, r.memberKey(s.MemberID), idHash).Err()
	}
	return r.client.Del(ctx, r.key(idHash)).Err()
}

func (r *RedisRepository) DeleteAllForMember(ctx context.Context, memberID string) (int64, error) {
	hashes, err := r.client.SMembers(ctx, r.memberKey(memberID)).Result()
	if err != nil {
		return 0, err
	}

	var count int64
	for _, h := range hashes {
		n, err := r.client.Del(ctx, r.key(h)).Result()
		if err != nil {
			return count, err
		}
		count += n
	}
	_ = r.client.Del(ctx, r.memberKey(memberID)).Err()
	return count, nil
}

// DeleteExpired is a no-op for Redis; key TTLs already reap expired rows.
func (r *RedisRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}
