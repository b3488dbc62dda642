package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/inventory/internal/domain/shared"
)

// DefaultLowStockThreshold applies when neither config nor a product override sets one
const DefaultLowStockThreshold = 10

// IsLowStock reports whether stock has reached the alerting level
func IsLowStock(stock, threshold int) bool {
	return stock <= threshold
}

// LowStockAlert records one low-stock crossing for a stock account.
// It starts unacknowledged and can only move to acknowledged; a later crossing
// produces a new alert rather than reopening this one.
type LowStockAlert struct {
	shared.BaseEntity
	ProductID          uuid.UUID
	VariantID          uuid.UUID
	ThresholdAtTrigger int
	StockAtTrigger     int
	Acknowledged       bool
	AcknowledgedBy     *string
	AcknowledgedAt     *time.Time
}

// NewLowStockAlert creates an unacknowledged alert for a stock level at or below threshold
func NewLowStockAlert(key AccountKey, threshold, stock int) (*LowStockAlert, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if !IsLowStock(stock, threshold) {
		return nil, shared.NewValidationError("Stock is above the low-stock threshold")
	}
	return &LowStockAlert{
		BaseEntity:         shared.NewBaseEntity(),
		ProductID:          key.ProductID,
		VariantID:          key.VariantID,
		ThresholdAtTrigger: threshold,
		StockAtTrigger:     stock,
	}, nil
}

// Key returns the stock account the alert was raised for
func (a *LowStockAlert) Key() AccountKey {
	return AccountKey{ProductID: a.ProductID, VariantID: a.VariantID}
}

// Acknowledge closes the alert
func (a *LowStockAlert) Acknowledge(actorID string) error {
	if strings.TrimSpace(actorID) == "" {
		return shared.NewValidationError("Actor is required")
	}
	if a.Acknowledged {
		return shared.NewValidationError("Alert has already been acknowledged")
	}
	now := time.Now()
	a.Acknowledged = true
	a.AcknowledgedBy = &actorID
	a.AcknowledgedAt = &now
	a.UpdatedAt = now
	return nil
}

// ThresholdOverride replaces the global low-stock threshold for one product and all its variants
type ThresholdOverride struct {
	ProductID uuid.UUID
	Threshold int
	UpdatedBy string
	UpdatedAt time.Time
}

// NewThresholdOverride validates and builds an override
func NewThresholdOverride(productID uuid.UUID, threshold int, actorID string) (*ThresholdOverride, error) {
	if productID == uuid.Nil {
		return nil, shared.NewValidationError("Product ID cannot be empty")
	}
	if threshold < 0 {
		return nil, shared.NewValidationError("Low-stock threshold cannot be negative")
	}
	if strings.TrimSpace(actorID) == "" {
		return nil, shared.NewValidationError("Actor is required")
	}
	return &ThresholdOverride{
		ProductID: productID,
		Threshold: threshold,
		UpdatedBy: actorID,
		UpdatedAt: time.Now(),
	}, nil
}

// ThresholdPolicy resolves the effective threshold for a product
type ThresholdPolicy struct {
	Default int
}

// NewThresholdPolicy returns a policy with the given default, falling back to
// DefaultLowStockThreshold when def is negative.
func NewThresholdPolicy(def int) ThresholdPolicy {
	if def < 0 {
		def = DefaultLowStockThreshold
	}
	return ThresholdPolicy{Default: def}
}

// Resolve returns the override when present, the default otherwise
func (p ThresholdPolicy) Resolve(override *ThresholdOverride) int {
	if override != nil {
		return override.Threshold
	}
	return p.Default
}
