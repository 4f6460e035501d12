package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable is returned when the Redis backend cannot be reached.
var ErrRedisUnavailable = errors.New("redis unavailable")

// ErrNotFound is returned by Load when no snapshot exists for the uid.
var ErrNotFound = errors.New("snapshot not found")

// RedisStore persists session snapshots in Redis, one key per (tenant, uid).
// A zero TTL keeps snapshots until explicitly deleted.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a snapshot store backed by the given Redis client.
// prefix sets the key namespace.
func NewRedisStore(redis redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "gsnap"
	}
	return &RedisStore{
		redis:  redis,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *RedisStore) key(tenantID, uid string) string {
	return s.prefix + ":" + normalizeTenantID(tenantID) + ":" + uid
}

func normalizeTenantID(tenantID string) string {
	if tenantID == "" {
		return "0"
	}
	return tenantID
}

// Save writes the snapshot, replacing any previous one for the same uid.
func (s *RedisStore) Save(ctx context.Context, snap *Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(snap.TenantID, snap.UID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Load retrieves and decodes the snapshot for a uid.
func (s *RedisStore) Load(ctx context.Context, tenantID, uid string) (*Snapshot, error) {
	data, err := s.redis.Get(ctx, s.key(tenantID, uid)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return Decode(data)
}

// Delete removes the stored snapshot for a uid. Deleting a missing snapshot
// is not an error.
func (s *RedisStore) Delete(ctx context.Context, tenantID, uid string) error {
	if err := s.redis.Del(ctx, s.key(tenantID, uid)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *RedisStore) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}
