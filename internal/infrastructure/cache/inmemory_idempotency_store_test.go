package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T) (*InMemoryIdempotencyStore, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := newInMemoryIdempotencyStore(time.Hour, clock.Now)
	t.Cleanup(func() { _ = store.Close() })
	return store, clock
}

func TestInMemoryIdempotencyStore_Claim(t *testing.T) {
	ctx := context.Background()

	t.Run("first claim wins", func(t *testing.T) {
		store, _ := newTestStore(t)

		claimed, err := store.Claim(ctx, "req-1", time.Hour)
		require.NoError(t, err)
		assert.True(t, claimed)

		claimed, err = store.Claim(ctx, "req-1", time.Hour)
		require.NoError(t, err)
		assert.False(t, claimed)
	})

	t.Run("expired claim can be taken again", func(t *testing.T) {
		store, clock := newTestStore(t)

		_, err := store.Claim(ctx, "req-2", time.Minute)
		require.NoError(t, err)
		clock.Advance(time.Minute)

		claimed, err := store.Claim(ctx, "req-2", time.Minute)
		require.NoError(t, err)
		assert.True(t, claimed)
	})

	t.Run("released key can be claimed again", func(t *testing.T) {
		store, _ := newTestStore(t)

		_, err := store.Claim(ctx, "req-3", time.Hour)
		require.NoError(t, err)
		require.NoError(t, store.Release(ctx, "req-3"))

		claimed, err := store.Claim(ctx, "req-3", time.Hour)
		require.NoError(t, err)
		assert.True(t, claimed)
	})
}

func TestInMemoryIdempotencyStore_Exists(t *testing.T) {
	ctx := context.Background()
	store, clock := newTestStore(t)

	exists, err := store.Exists(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = store.Claim(ctx, "req", 10*time.Second)
	require.NoError(t, err)
	exists, err = store.Exists(ctx, "req")
	require.NoError(t, err)
	assert.True(t, exists)

	clock.Advance(11 * time.Second)
	exists, err = store.Exists(ctx, "req")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestInMemoryIdempotencyStore_Cleanup(t *testing.T) {
	ctx := context.Background()
	store, clock := newTestStore(t)

	_, _ = store.Claim(ctx, "short-1", time.Second)
	_, _ = store.Claim(ctx, "short-2", time.Second)
	_, _ = store.Claim(ctx, "long", time.Hour)
	assert.Equal(t, 3, store.Size())

	clock.Advance(2 * time.Second)
	store.cleanup()

	assert.Equal(t, 1, store.Size())
	exists, err := store.Exists(ctx, "long")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestInMemoryIdempotencyStore_ConcurrentClaims(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	const goroutines = 100
	results := make(chan bool, goroutines)
	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claimed, err := store.Claim(ctx, "same-key", time.Hour)
			results <- err == nil && claimed
		}()
	}
	wg.Wait()
	close(results)

	won := 0
	for claimed := range results {
		if claimed {
			won++
		}
	}
	assert.Equal(t, 1, won)
}

func TestInMemoryIdempotencyStore_Close(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
