package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/orderflow/internal/domain/shared"
	"github.com/erp/orderflow/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

// RedisKeyPrefix namespaces replay keys when Redis is shared with other apps.
const RedisKeyPrefix = "orderflow:idempotency:"

const redisDialTimeout = 5 * time.Second

// RedisStore shares replay keys across every instance of the service.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// DialRedisStore connects and pings before returning.
func DialRedisStore(ctx context.Context, cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr(),
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: redisDialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisDialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: ping redis at %s: %w", cfg.Addr(), err)
	}
	return NewRedisStore(client, RedisKeyPrefix), nil
}

// NewRedisStore wraps an existing client. An empty prefix means RedisKeyPrefix.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = RedisKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

// MarkProcessed claims key with SET NX so concurrent instances agree on
// a single winner.
func (s *RedisStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	won, err := s.client.SetNX(ctx, s.prefix+key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("cache: claim replay key: %w", err)
	}
	return won, nil
}

func (s *RedisStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("cache: check replay key: %w", err)
	}
	return n == 1, nil
}

// TTL reports the remaining lifetime of key, negative when absent.
func (s *RedisStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	return s.client.TTL(ctx, s.prefix+key).Result()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ shared.IdempotencyStore = (*RedisStore)(nil)
