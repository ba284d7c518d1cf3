//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/erp/orderflow/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newRedisContainer(t *testing.T) config.RedisConfig {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start Redis container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: Failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	return config.RedisConfig{Host: host, Port: port.Int()}
}

func TestRedisStore(t *testing.T) {
	cfg := newRedisContainer(t)
	ctx := context.Background()

	store, err := DialRedisStore(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	key := "transition:return_order:42:completed:req-1"

	seen, err := store.IsProcessed(ctx, key)
	require.NoError(t, err)
	assert.False(t, seen)

	won, err := store.MarkProcessed(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, won)

	won, err = store.MarkProcessed(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.False(t, won)

	seen, err = store.IsProcessed(ctx, key)
	require.NoError(t, err)
	assert.True(t, seen)

	ttl, err := store.TTL(ctx, key)
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)

	t.Run("open selects redis", func(t *testing.T) {
		s, err := OpenIdempotencyStore(ctx,
			config.IdempotencyConfig{Enabled: true, Backend: BackendRedis},
			cfg,
			WithInMemoryFallback(false),
		)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		assert.IsType(t, &RedisStore{}, s)
	})
}
