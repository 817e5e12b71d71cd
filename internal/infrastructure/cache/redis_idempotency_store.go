package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/chefstock/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "chefstock:retry:"

// RedisIdempotencyStore keeps committed retry keys in Redis so retries
// landing on any process instance can be answered from the store. Keys are
// written with SETNX and carry the commit timestamp as their value, which
// makes stuck retries diagnosable from redis-cli.
type RedisIdempotencyStore struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisIdempotencyStore connects to Redis and verifies the connection
func NewRedisIdempotencyStore(cfg RedisConfig) (*RedisIdempotencyStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisIdempotencyStoreWithClient(client, defaultKeyPrefix), nil
}

// NewRedisIdempotencyStoreWithClient wraps an existing Redis client, useful
// for tests and for sharing one client across components
func NewRedisIdempotencyStoreWithClient(client *redis.Client, keyPrefix string) *RedisIdempotencyStore {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisIdempotencyStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// MarkProcessed records a committed retry key with SETNX, so exactly one of
// multiple concurrent attempts observes true
func (s *RedisIdempotencyStore) MarkProcessed(ctx context.Context, key shared.RetryKey, ttl time.Duration) (bool, error) {
	seenAt := time.Now().UTC().Format(time.RFC3339Nano)
	won, err := s.client.SetNX(ctx, s.redisKey(key), seenAt, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record retry key %s: %w", key, err)
	}
	return won, nil
}

// IsProcessed reports whether the key is still held in Redis
func (s *RedisIdempotencyStore) IsProcessed(ctx context.Context, key shared.RetryKey) (bool, error) {
	exists, err := s.client.Exists(ctx, s.redisKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to look up retry key %s: %w", key, err)
	}
	return exists > 0, nil
}

// Close closes the Redis client
func (s *RedisIdempotencyStore) Close() error {
	return s.client.Close()
}

func (s *RedisIdempotencyStore) redisKey(key shared.RetryKey) string {
	return s.keyPrefix + key.String()
}

var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)
