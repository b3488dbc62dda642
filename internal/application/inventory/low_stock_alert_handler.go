package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/marketplace/inventory/internal/domain/inventory"
	"github.com/marketplace/inventory/internal/domain/shared"
	"go.uber.org/zap"
)

// LowStockNotifier delivers low-stock notifications to operators
type LowStockNotifier interface {
	NotifyLowStock(ctx context.Context, notification LowStockNotification) error
}

// LowStockNotification is what operators receive for a newly raised alert
type LowStockNotification struct {
	AlertID   string `json:"alert_id"`
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	Threshold int    `json:"threshold"`
	Stock     int    `json:"stock"`
}

// LowStockAlertHandler handles LowStockAlertRaisedEvent and forwards it to a notifier.
// Notifier failures are logged and never returned.
type LowStockAlertHandler struct {
	logger   *zap.Logger
	notifier LowStockNotifier
}

// NewLowStockAlertHandler creates a new handler for low-stock events
func NewLowStockAlertHandler(logger *zap.Logger) *LowStockAlertHandler {
	return &LowStockAlertHandler{logger: logger}
}

// WithNotifier sets the notifier for sending notifications
func (h *LowStockAlertHandler) WithNotifier(notifier LowStockNotifier) *LowStockAlertHandler {
	h.notifier = notifier
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *LowStockAlertHandler) EventTypes() []string {
	return []string{inventory.EventTypeLowStockRaised}
}

// Handle processes a LowStockAlertRaisedEvent
func (h *LowStockAlertHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	raised, ok := event.(*inventory.LowStockAlertRaisedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", inventory.EventTypeLowStockRaised),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			inventory.EventTypeLowStockRaised, event.EventType())
	}

	notification := LowStockNotification{
		AlertID:   raised.AlertID.String(),
		ProductID: raised.ProductID.String(),
		Threshold: raised.Threshold,
		Stock:     raised.Stock,
	}
	if raised.VariantID != uuid.Nil {
		notification.VariantID = raised.VariantID.String()
	}

	if h.notifier == nil {
		return nil
	}
	if err := h.notifier.NotifyLowStock(ctx, notification); err != nil {
		h.logger.Error("failed to send low stock notification",
			zap.String("alert_id", notification.AlertID),
			zap.Error(err),
		)
		return nil
	}
	h.logger.Info("low stock notification sent",
		zap.String("alert_id", notification.AlertID),
		zap.String("product_id", notification.ProductID),
	)
	return nil
}

var _ shared.EventHandler = (*LowStockAlertHandler)(nil)

// LoggingLowStockNotifier writes notifications to the log
type LoggingLowStockNotifier struct {
	logger *zap.Logger
}

// NewLoggingLowStockNotifier creates a new logging notifier
func NewLoggingLowStockNotifier(logger *zap.Logger) *LoggingLowStockNotifier {
	return &LoggingLowStockNotifier{logger: logger}
}

// NotifyLowStock logs the notification
func (n *LoggingLowStockNotifier) NotifyLowStock(_ context.Context, notification LowStockNotification) error {
	n.logger.Warn("LOW STOCK",
		zap.String("alert_id", notification.AlertID),
		zap.String("product_id", notification.ProductID),
		zap.String("variant_id", notification.VariantID),
		zap.Int("stock", notification.Stock),
		zap.Int("threshold", notification.Threshold),
	)
	return nil
}

var _ LowStockNotifier = (*LoggingLowStockNotifier)(nil)
