package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/marketplace/inventory/internal/domain/inventory"
	"github.com/marketplace/inventory/internal/domain/shared"
	"go.uber.org/zap"
)

// LowStockMonitor raises deduplicated low-stock alerts.
// At most one unacknowledged alert exists per account; alerts are not resolved
// automatically when stock recovers, only by acknowledgement.
type LowStockMonitor struct {
	scope          TransactionScope
	policy         inventory.ThresholdPolicy
	eventPublisher shared.EventPublisher
	recorder       MutationRecorder
	logger         *zap.Logger
}

// NewLowStockMonitor creates a monitor with the given global default threshold
func NewLowStockMonitor(scope TransactionScope, defaultThreshold int, logger *zap.Logger) *LowStockMonitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LowStockMonitor{
		scope:    scope,
		policy:   inventory.NewThresholdPolicy(defaultThreshold),
		recorder: noopRecorder{},
		logger:   logger,
	}
}

// SetEventPublisher sets the event publisher for alert events
func (m *LowStockMonitor) SetEventPublisher(publisher shared.EventPublisher) {
	m.eventPublisher = publisher
}

// SetRecorder sets the metrics recorder
func (m *LowStockMonitor) SetRecorder(recorder MutationRecorder) {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	m.recorder = recorder
}

// Check compares the account's stock with its threshold and creates an alert when stock
// is at or below it and no unacknowledged alert exists. Returns the new alert or nil.
func (m *LowStockMonitor) Check(ctx context.Context, key inventory.AccountKey) (*LowStockAlertResponse, error) {
	var created *inventory.LowStockAlert
	err := m.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		created = nil
		account, err := loadAccount(ctx, repos, key)
		if err != nil {
			return err
		}
		threshold, err := m.resolve(ctx, repos, key.ProductID)
		if err != nil {
			return err
		}
		if !inventory.IsLowStock(account.Quantity, threshold) {
			return nil
		}

		if _, err := repos.Alerts().FindOpenByKey(ctx, key); err == nil {
			return nil
		} else if !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		alert, err := inventory.NewLowStockAlert(key, threshold, account.Quantity)
		if err != nil {
			return err
		}
		if err := repos.Alerts().Create(ctx, alert); err != nil {
			return err
		}
		created = alert
		return nil
	})
	if err != nil {
		// A concurrent check created the open alert first.
		if shared.IsConflict(err) {
			return nil, nil
		}
		return nil, err
	}
	if created == nil {
		return nil, nil
	}

	m.logger.Warn("low stock alert raised",
		zap.String("alert_id", created.ID.String()),
		zap.String("account", key.String()),
		zap.Int("stock", created.StockAtTrigger),
		zap.Int("threshold", created.ThresholdAtTrigger),
	)
	m.recorder.RecordAlertRaised(ctx, created)
	m.publish(ctx, inventory.NewLowStockAlertRaisedEvent(created))
	resp := ToLowStockAlertResponse(created)
	return &resp, nil
}

// AcknowledgeLowStockAlert closes an alert, allowing a new one to be raised for the account
func (m *LowStockMonitor) AcknowledgeLowStockAlert(ctx context.Context, alertID uuid.UUID, actorID string) (*LowStockAlertResponse, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	var acknowledged *inventory.LowStockAlert
	err := m.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		alert, err := repos.Alerts().FindByID(ctx, alertID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewNotFoundError("Low-stock alert not found")
			}
			return err
		}
		if err := alert.Acknowledge(actorID); err != nil {
			return err
		}
		if err := repos.Alerts().Save(ctx, alert); err != nil {
			return err
		}
		acknowledged = alert
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("low stock alert acknowledged",
		zap.String("alert_id", alertID.String()),
		zap.String("actor_id", actorID),
	)
	m.publish(ctx, inventory.NewLowStockAlertAcknowledgedEvent(acknowledged))
	resp := ToLowStockAlertResponse(acknowledged)
	return &resp, nil
}

// ListUnacknowledgedAlerts returns every open alert, newest first
func (m *LowStockMonitor) ListUnacknowledgedAlerts(ctx context.Context) ([]LowStockAlertResponse, error) {
	var result []LowStockAlertResponse
	err := m.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		alerts, err := repos.Alerts().FindOpen(ctx)
		if err != nil {
			return err
		}
		result = make([]LowStockAlertResponse, len(alerts))
		for i := range alerts {
			result[i] = ToLowStockAlertResponse(&alerts[i])
		}
		return nil
	})
	return result, err
}

// GetLowStockThreshold returns the effective threshold of a product, or the global default
// when productID is nil
func (m *LowStockMonitor) GetLowStockThreshold(ctx context.Context, productID *uuid.UUID) (int, error) {
	resp, err := m.DescribeThreshold(ctx, productID)
	if err != nil {
		return 0, err
	}
	return resp.Threshold, nil
}

// DescribeThreshold is GetLowStockThreshold with the source of the value
func (m *LowStockMonitor) DescribeThreshold(ctx context.Context, productID *uuid.UUID) (*ThresholdResponse, error) {
	if productID == nil {
		return &ThresholdResponse{Threshold: m.policy.Default, Source: ThresholdSourceDefault}, nil
	}
	resp := &ThresholdResponse{ProductID: productID}
	err := m.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		override, err := findOverride(ctx, repos, *productID)
		if err != nil {
			return err
		}
		resp.Threshold = m.policy.Resolve(override)
		resp.Source = ThresholdSourceDefault
		if override != nil {
			resp.Source = ThresholdSourceOverride
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// SetLowStockThreshold overrides the threshold of one product. Existing alerts are kept;
// the new value applies from the next check.
func (m *LowStockMonitor) SetLowStockThreshold(ctx context.Context, input SetThresholdInput) (*ThresholdResponse, error) {
	override, err := inventory.NewThresholdOverride(input.ProductID, input.Threshold, input.ActorID)
	if err != nil {
		return nil, err
	}
	if err := m.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		return repos.Thresholds().Save(ctx, override)
	}); err != nil {
		return nil, err
	}

	m.logger.Info("low stock threshold overridden",
		zap.String("product_id", input.ProductID.String()),
		zap.Int("threshold", input.Threshold),
		zap.String("actor_id", input.ActorID),
	)
	productID := input.ProductID
	return &ThresholdResponse{ProductID: &productID, Threshold: override.Threshold, Source: ThresholdSourceOverride}, nil
}

// ClearLowStockThreshold removes a product override so the default applies again
func (m *LowStockMonitor) ClearLowStockThreshold(ctx context.Context, productID uuid.UUID, actorID string) error {
	if err := requireActor(actorID); err != nil {
		return err
	}
	err := m.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		return repos.Thresholds().Delete(ctx, productID)
	})
	if err != nil {
		return err
	}
	m.logger.Info("low stock threshold override cleared",
		zap.String("product_id", productID.String()),
		zap.String("actor_id", actorID),
	)
	return nil
}

func (m *LowStockMonitor) resolve(ctx context.Context, repos TransactionalRepositories, productID uuid.UUID) (int, error) {
	override, err := findOverride(ctx, repos, productID)
	if err != nil {
		return 0, err
	}
	return m.policy.Resolve(override), nil
}

func (m *LowStockMonitor) publish(ctx context.Context, event shared.DomainEvent) {
	if m.eventPublisher == nil {
		return
	}
	if err := m.eventPublisher.Publish(ctx, event); err != nil {
		m.logger.Warn("failed to publish alert event", zap.Error(err))
	}
}

// findOverride returns nil without error when the product has no override
func findOverride(ctx context.Context, repos TransactionalRepositories, productID uuid.UUID) (*inventory.ThresholdOverride, error) {
	override, err := repos.Thresholds().FindByProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return override, nil
}

var _ StockChecker = (*LowStockMonitor)(nil)
