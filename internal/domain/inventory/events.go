package inventory

import (
	"github.com/google/uuid"
	"github.com/marketplace/inventory/internal/domain/shared"
)

// AggregateTypeLowStockAlert is the aggregate type recorded on alert events
const AggregateTypeLowStockAlert = "LowStockAlert"

// Event type constants
const (
	EventTypeStockChanged         = "inventory.stock.changed"
	EventTypeLowStockRaised       = "inventory.low_stock.raised"
	EventTypeLowStockAcknowledged = "inventory.low_stock.acknowledged"
)

// StockChangedEvent is raised for every ledger entry written
type StockChangedEvent struct {
	shared.BaseDomainEvent
	LedgerEntryID  uuid.UUID  `json:"ledger_entry_id"`
	ProductID      uuid.UUID  `json:"product_id"`
	VariantID      uuid.UUID  `json:"variant_id"`
	ChangeType     ChangeType `json:"change_type"`
	QuantityBefore int        `json:"quantity_before"`
	QuantityChange int        `json:"quantity_change"`
	QuantityAfter  int        `json:"quantity_after"`
	Reason         Reason     `json:"reason"`
	ReferenceID    string     `json:"reference_id,omitempty"`
	ActorID        string     `json:"actor_id"`
}

// NewStockChangedEvent creates a StockChangedEvent from an entry just applied to account
func NewStockChangedEvent(account *StockAccount, entry *LedgerEntry) *StockChangedEvent {
	return &StockChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockChanged, AggregateTypeStockAccount, account.ID),
		LedgerEntryID:   entry.ID,
		ProductID:       entry.ProductID,
		VariantID:       entry.VariantID,
		ChangeType:      entry.ChangeType,
		QuantityBefore:  entry.QuantityBefore,
		QuantityChange:  entry.QuantityChange,
		QuantityAfter:   entry.QuantityAfter,
		Reason:          entry.Reason,
		ReferenceID:     entry.ReferenceID,
		ActorID:         entry.ActorID,
	}
}

// LowStockAlertRaisedEvent is raised when the monitor creates a new alert
type LowStockAlertRaisedEvent struct {
	shared.BaseDomainEvent
	AlertID   uuid.UUID `json:"alert_id"`
	ProductID uuid.UUID `json:"product_id"`
	VariantID uuid.UUID `json:"variant_id"`
	Threshold int       `json:"threshold"`
	Stock     int       `json:"stock"`
}

// NewLowStockAlertRaisedEvent creates a LowStockAlertRaisedEvent
func NewLowStockAlertRaisedEvent(alert *LowStockAlert) *LowStockAlertRaisedEvent {
	return &LowStockAlertRaisedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLowStockRaised, AggregateTypeLowStockAlert, alert.ID),
		AlertID:         alert.ID,
		ProductID:       alert.ProductID,
		VariantID:       alert.VariantID,
		Threshold:       alert.ThresholdAtTrigger,
		Stock:           alert.StockAtTrigger,
	}
}

// LowStockAlertAcknowledgedEvent is raised when an operator acknowledges an alert
type LowStockAlertAcknowledgedEvent struct {
	shared.BaseDomainEvent
	AlertID        uuid.UUID `json:"alert_id"`
	ProductID      uuid.UUID `json:"product_id"`
	VariantID      uuid.UUID `json:"variant_id"`
	AcknowledgedBy string    `json:"acknowledged_by"`
}

// NewLowStockAlertAcknowledgedEvent creates a LowStockAlertAcknowledgedEvent
func NewLowStockAlertAcknowledgedEvent(alert *LowStockAlert) *LowStockAlertAcknowledgedEvent {
	actor := ""
	if alert.AcknowledgedBy != nil {
		actor = *alert.AcknowledgedBy
	}
	return &LowStockAlertAcknowledgedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLowStockAcknowledged, AggregateTypeLowStockAlert, alert.ID),
		AlertID:         alert.ID,
		ProductID:       alert.ProductID,
		VariantID:       alert.VariantID,
		AcknowledgedBy:  actor,
	}
}
