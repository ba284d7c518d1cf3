package cache

import (
	"context"
	"testing"

	"github.com/erp/orderflow/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// Nothing listens on port 1.
var deadRedis = config.RedisConfig{Host: "127.0.0.1", Port: 1}

func TestOpenIdempotencyStore(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled yields no store", func(t *testing.T) {
		store, err := OpenIdempotencyStore(ctx, config.IdempotencyConfig{Backend: BackendMemory}, deadRedis)
		require.NoError(t, err)
		assert.Nil(t, store)
	})

	t.Run("memory backend", func(t *testing.T) {
		store, err := OpenIdempotencyStore(ctx, config.IdempotencyConfig{Enabled: true, Backend: BackendMemory}, deadRedis)
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		assert.IsType(t, &MemoryStore{}, store)
	})

	t.Run("unreachable redis falls back to memory", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		store, err := OpenIdempotencyStore(ctx,
			config.IdempotencyConfig{Enabled: true, Backend: BackendRedis},
			deadRedis,
			WithLogger(zap.New(core)),
		)
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })

		assert.IsType(t, &MemoryStore{}, store)
		entries := logs.FilterMessageSnippet("falling back").All()
		require.Len(t, entries, 1)
		assert.Equal(t, BackendRedis, entries[0].ContextMap()["backend"])
	})

	t.Run("unreachable redis without fallback fails", func(t *testing.T) {
		store, err := OpenIdempotencyStore(ctx,
			config.IdempotencyConfig{Enabled: true, Backend: BackendRedis},
			deadRedis,
			WithInMemoryFallback(false),
		)
		assert.ErrorContains(t, err, "redis replay guard unavailable")
		assert.Nil(t, store)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := OpenIdempotencyStore(ctx, config.IdempotencyConfig{Enabled: true, Backend: "etcd"}, deadRedis)
		assert.ErrorContains(t, err, `"etcd"`)
	})
}
