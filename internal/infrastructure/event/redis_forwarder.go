package event

import (
	"context"
	"fmt"

	"github.com/marketplace/inventory/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

// DefaultEventChannel is the Redis channel inventory events are published on.
const DefaultEventChannel = "inventory.events"

// redisPublisher is the subset of redis.UniversalClient the forwarder needs.
type redisPublisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisForwarder is a wildcard handler that republishes every domain event
// as an Envelope on a Redis pub/sub channel for storefront and reporting consumers.
type RedisForwarder struct {
	client     redisPublisher
	channel    string
	serializer *EventSerializer
}

// NewRedisForwarder creates a forwarder publishing on channel
func NewRedisForwarder(client redisPublisher, channel string, serializer *EventSerializer) *RedisForwarder {
	if channel == "" {
		channel = DefaultEventChannel
	}
	return &RedisForwarder{client: client, channel: channel, serializer: serializer}
}

// Handle publishes event on the channel
func (f *RedisForwarder) Handle(ctx context.Context, event shared.DomainEvent) error {
	data, err := f.serializer.Serialize(event)
	if err != nil {
		return err
	}
	if err := f.client.Publish(ctx, f.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish %s to redis: %w", event.EventType(), err)
	}
	return nil
}

// EventTypes returns nil so the forwarder receives every event
func (f *RedisForwarder) EventTypes() []string {
	return nil
}

var _ shared.EventHandler = (*RedisForwarder)(nil)
