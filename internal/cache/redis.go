package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultRedisKeyPrefix namespaces segment entries in a shared Redis.
	DefaultRedisKeyPrefix = "wakeaudio:seg:"

	// redisScanBatch is the COUNT hint for SCAN during prefix invalidation.
	redisScanBatch = 200
)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379" or "redis://:password@host:6379/0")
	URL string

	// KeyPrefix namespaces this deployment's keys (defaults to "wakeaudio:seg:")
	KeyPrefix string
}

// RedisStore implements Store on Redis. Suitable as the hot tier for
// multi-instance deployments behind a load balancer.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a new Redis-backed hot tier.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = DefaultRedisKeyPrefix
	}

	slog.Info("redis hot tier connected", "key_prefix", prefix)

	return &RedisStore{client: client, prefix: prefix}, nil
}

// Get retrieves one entry from Redis.
func (s *RedisStore) Get(ctx context.Context, key string) (*Entry, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get entry from redis: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to parse entry from redis: %w", err)
	}

	if entry.Expired(time.Now()) {
		return nil, ErrNotFound
	}

	return &entry, nil
}

// Set stores an entry in Redis. The ttl bounds the Redis-side expiry; Redis
// handles eviction itself so Sweep has nothing to do.
func (s *RedisStore) Set(ctx context.Context, key string, entry *Entry, ttl time.Duration) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	if ttl <= 0 {
		ttl = time.Until(entry.ExpiresAt)
		if ttl <= 0 {
			return nil // already expired, nothing to keep hot
		}
	}

	if err := s.client.Set(ctx, s.prefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set entry in redis: %w", err)
	}

	return nil
}

// Delete removes one key from Redis.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete entry from redis: %w", err)
	}
	return nil
}

// DeleteByPrefix removes matching keys via SCAN. Best-effort: entries written
// concurrently with the scan may survive, which is acceptable for a hot tier
// whose copies expire on their own.
func (s *RedisStore) DeleteByPrefix(ctx context.Context, prefix string) (int64, error) {
	var removed int64
	iter := s.client.Scan(ctx, 0, s.prefix+prefix+"*", redisScanBatch).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return removed, fmt.Errorf("failed to delete entry from redis: %w", err)
		}
		removed++
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("failed to scan redis keys: %w", err)
	}
	return removed, nil
}

// IncrementUsage is a no-op on the hot tier: the durable tier owns the
// counter, and a stale hot copy would only undercount.
func (s *RedisStore) IncrementUsage(_ context.Context, _ string) error {
	return nil
}

// Sweep is a no-op: Redis expires keys via its own TTL mechanism.
func (s *RedisStore) Sweep(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
