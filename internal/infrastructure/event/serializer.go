package event

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/marketplace/inventory/internal/domain/inventory"
	"github.com/marketplace/inventory/internal/domain/shared"
)

// Envelope is the wire form of a domain event.
type Envelope struct {
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// EventSerializer converts domain events to and from Envelope JSON.
type EventSerializer struct {
	mu       sync.RWMutex
	registry map[string]reflect.Type
}

// NewEventSerializer creates a serializer with no registered types
func NewEventSerializer() *EventSerializer {
	return &EventSerializer{registry: make(map[string]reflect.Type)}
}

// NewInventoryEventSerializer creates a serializer that knows every inventory event
func NewInventoryEventSerializer() *EventSerializer {
	s := NewEventSerializer()
	s.Register(inventory.EventTypeStockChanged, &inventory.StockChangedEvent{})
	s.Register(inventory.EventTypeLowStockRaised, &inventory.LowStockAlertRaisedEvent{})
	s.Register(inventory.EventTypeLowStockAcknowledged, &inventory.LowStockAlertAcknowledgedEvent{})
	return s
}

// Register maps eventType to the concrete type of instance
func (s *EventSerializer) Register(eventType string, instance shared.DomainEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := reflect.TypeOf(instance)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	s.registry[eventType] = t
}

// Serialize wraps event in an Envelope
func (s *EventSerializer) Serialize(event shared.DomainEvent) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return json.Marshal(Envelope{
		Type:       event.EventType(),
		OccurredAt: event.OccurredAt(),
		Payload:    payload,
	})
}

// Deserialize decodes an Envelope into its registered event type
func (s *EventSerializer) Deserialize(data []byte) (shared.DomainEvent, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}

	s.mu.RLock()
	t, ok := s.registry[env.Type]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", env.Type)
	}

	ptr := reflect.New(t).Interface()
	if err := json.Unmarshal(env.Payload, ptr); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	event, ok := ptr.(shared.DomainEvent)
	if !ok {
		return nil, fmt.Errorf("type %s does not implement DomainEvent", t)
	}
	return event, nil
}
