package cache

import (
	"context"
	"testing"

	"github.com/marketplace/inventory/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"go.uber.org/zap/zapcore"
)

// unreachable points at a port nothing listens on
var unreachable = config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}

func TestIdempotencyStoreFactory_CreateStore(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled redis uses memory", func(t *testing.T) {
		store, err := NewIdempotencyStoreFactory(config.RedisConfig{}).CreateStore(ctx)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	t.Run("unreachable redis falls back with a warning", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)
		store, err := NewIdempotencyStoreFactory(unreachable, WithLogger(zap.New(core))).CreateStore(ctx)
		require.NoError(t, err)
		defer store.Close()

		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
		assert.Equal(t, 1, logs.FilterMessageSnippet("falling back").Len())
	})

	t.Run("fallback can be disabled", func(t *testing.T) {
		_, err := NewIdempotencyStoreFactory(unreachable, WithInMemoryFallback(false)).CreateStore(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis required")
	})
}
