// Package cache holds the replay-guard stores behind shared.IdempotencyStore.
package cache

import (
	"context"
	"fmt"

	"github.com/erp/orderflow/internal/domain/shared"
	"github.com/erp/orderflow/internal/infrastructure/config"
	"go.uber.org/zap"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

type openOptions struct {
	logger   *zap.Logger
	fallback bool
}

type Option func(*openOptions)

func WithLogger(logger *zap.Logger) Option {
	return func(o *openOptions) { o.logger = logger }
}

// WithInMemoryFallback decides whether an unreachable Redis degrades to the
// in-memory store. On by default; production turns it off.
func WithInMemoryFallback(allow bool) Option {
	return func(o *openOptions) { o.fallback = allow }
}

// OpenIdempotencyStore builds the store selected by cfg.Backend. It returns
// nil without error when cfg.Enabled is false.
func OpenIdempotencyStore(ctx context.Context, cfg config.IdempotencyConfig, redisCfg config.RedisConfig, opts ...Option) (shared.IdempotencyStore, error) {
	o := openOptions{logger: zap.NewNop(), fallback: true}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger.With(zap.String("backend", cfg.Backend))

	if !cfg.Enabled {
		log.Info("Transition replay guard disabled")
		return nil, nil
	}

	switch cfg.Backend {
	case BackendMemory, "":
		log.Info("Transition replay guard uses process memory")
		return NewMemoryStore(DefaultSweepInterval), nil

	case BackendRedis:
		store, err := DialRedisStore(ctx, redisCfg)
		if err == nil {
			log.Info("Transition replay guard uses Redis", zap.String("addr", redisCfg.Addr()))
			return store, nil
		}
		if !o.fallback {
			return nil, fmt.Errorf("cache: redis replay guard unavailable: %w", err)
		}
		log.Warn("Redis unreachable, falling back to process memory; replays are only detected per instance",
			zap.Error(err))
		return NewMemoryStore(DefaultSweepInterval), nil
	}
	return nil, fmt.Errorf("cache: unknown idempotency backend %q", cfg.Backend)
}
