package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers request keys that have already been claimed
type IdempotencyStore interface {
	// Claim records key with a TTL.
	// Returns true if the key was newly claimed, false if it was already present.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release forgets key so that a failed request can be retried with it
	Release(ctx context.Context, key string) error

	// Exists checks whether key is currently claimed
	Exists(ctx context.Context, key string) (bool, error)

	// Close closes the store and releases resources
	Close() error
}

// DefaultIdempotencyTTL is how long a claimed key blocks replays.
const DefaultIdempotencyTTL = 24 * time.Hour
