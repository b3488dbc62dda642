package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/inventory/internal/domain/inventory"
)

// OpenAccountInput opens the stock account of a newly created product or variant
type OpenAccountInput struct {
	ProductID       uuid.UUID  `json:"product_id" binding:"required"`
	VariantID       *uuid.UUID `json:"variant_id"`
	InitialQuantity int        `json:"initial_quantity" binding:"min=0"`
	ActorID         string     `json:"-"`
}

// DeductStockInput removes stock for a confirmed sale or other outflow
type DeductStockInput struct {
	ProductID   uuid.UUID        `json:"product_id" binding:"required"`
	VariantID   *uuid.UUID       `json:"variant_id"`
	Quantity    int              `json:"quantity"`
	Reason      inventory.Reason `json:"reason" binding:"required,notblank"`
	ReferenceID string           `json:"reference_id"`
	ActorID     string           `json:"-"`
}

// AddStockInput puts stock on hand (restock, return)
type AddStockInput struct {
	ProductID   uuid.UUID        `json:"product_id" binding:"required"`
	VariantID   *uuid.UUID       `json:"variant_id"`
	Quantity    int              `json:"quantity"`
	Reason      inventory.Reason `json:"reason" binding:"required,notblank"`
	ReferenceID string           `json:"reference_id"`
	ActorID     string           `json:"-"`
}

// AdjustStockInput sets an absolute quantity with a reason and mandatory notes
type AdjustStockInput struct {
	ProductID   uuid.UUID
	VariantID   *uuid.UUID
	NewQuantity int
	Reason      inventory.Reason
	Notes       string
	ActorID     string
}

// ManualAdjustmentInput is the operator facing adjustment; the reason is always MANUAL_ADJUSTMENT
type ManualAdjustmentInput struct {
	ProductID   uuid.UUID  `json:"product_id" binding:"required"`
	VariantID   *uuid.UUID `json:"variant_id"`
	NewQuantity int        `json:"new_quantity"`
	Notes       string     `json:"notes"`
	ActorID     string     `json:"-"`
}

// ReserveInput holds stock for one order line
type ReserveInput struct {
	ProductID uuid.UUID  `json:"product_id" binding:"required"`
	VariantID *uuid.UUID `json:"variant_id"`
	Quantity  int        `json:"quantity"`
	OrderID   string     `json:"order_id" binding:"required,notblank"`
	ActorID   string     `json:"-"`
}

// ReleaseInput returns the stock held for one order line
type ReleaseInput struct {
	ProductID uuid.UUID  `json:"product_id" binding:"required"`
	VariantID *uuid.UUID `json:"variant_id"`
	Quantity  int        `json:"quantity"`
	OrderID   string     `json:"order_id" binding:"required,notblank"`
	ActorID   string     `json:"-"`
}

// SaleLine is one line of a point-of-sale cart
type SaleLine struct {
	ProductID uuid.UUID  `json:"product_id" binding:"required"`
	VariantID *uuid.UUID `json:"variant_id"`
	Quantity  int        `json:"quantity"`
}

// DeductImmediateInput is a point-of-sale cart deducted all-or-nothing
type DeductImmediateInput struct {
	Lines   []SaleLine `json:"lines" binding:"required,min=1,dive"`
	OrderID string     `json:"order_id" binding:"required,notblank"`
	ActorID string     `json:"-"`
}

// SetThresholdInput overrides the low-stock threshold of one product
type SetThresholdInput struct {
	ProductID uuid.UUID `json:"-"`
	Threshold int       `json:"threshold" binding:"min=0"`
	ActorID   string    `json:"-"`
}

// LedgerEntryResponse represents a ledger entry in API responses
type LedgerEntryResponse struct {
	ID             uuid.UUID            `json:"id"`
	Sequence       int64                `json:"sequence"`
	ProductID      uuid.UUID            `json:"product_id"`
	VariantID      *uuid.UUID           `json:"variant_id,omitempty"`
	ChangeType     inventory.ChangeType `json:"change_type"`
	QuantityBefore int                  `json:"quantity_before"`
	QuantityChange int                  `json:"quantity_change"`
	QuantityAfter  int                  `json:"quantity_after"`
	Reason         inventory.Reason     `json:"reason"`
	Notes          string               `json:"notes,omitempty"`
	ReferenceID    string               `json:"reference_id,omitempty"`
	ActorID        string               `json:"actor_id"`
	CreatedAt      time.Time            `json:"created_at"`
}

// ToLedgerEntryResponse converts a domain LedgerEntry to LedgerEntryResponse
func ToLedgerEntryResponse(e *inventory.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:             e.ID,
		Sequence:       e.Sequence,
		ProductID:      e.ProductID,
		VariantID:      e.Key().VariantPtr(),
		ChangeType:     e.ChangeType,
		QuantityBefore: e.QuantityBefore,
		QuantityChange: e.QuantityChange,
		QuantityAfter:  e.QuantityAfter,
		Reason:         e.Reason,
		Notes:          e.Notes,
		ReferenceID:    e.ReferenceID,
		ActorID:        e.ActorID,
		CreatedAt:      e.CreatedAt,
	}
}

// ToLedgerEntryResponses converts a slice of entries
func ToLedgerEntryResponses(entries []inventory.LedgerEntry) []LedgerEntryResponse {
	result := make([]LedgerEntryResponse, len(entries))
	for i := range entries {
		result[i] = ToLedgerEntryResponse(&entries[i])
	}
	return result
}

// StockAccountResponse represents a stock account in API responses
type StockAccountResponse struct {
	ID                uuid.UUID  `json:"id"`
	ProductID         uuid.UUID  `json:"product_id"`
	VariantID         *uuid.UUID `json:"variant_id,omitempty"`
	Quantity          int        `json:"quantity"`
	LowStockThreshold int        `json:"low_stock_threshold"`
	IsLowStock        bool       `json:"is_low_stock"`
	Version           int        `json:"version"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// ToStockAccountResponse converts a StockAccount with its effective threshold
func ToStockAccountResponse(a *inventory.StockAccount, threshold int) StockAccountResponse {
	return StockAccountResponse{
		ID:                a.ID,
		ProductID:         a.ProductID,
		VariantID:         a.Key().VariantPtr(),
		Quantity:          a.Quantity,
		LowStockThreshold: threshold,
		IsLowStock:        inventory.IsLowStock(a.Quantity, threshold),
		Version:           a.Version,
		UpdatedAt:         a.UpdatedAt,
	}
}

// ReservationResponse represents a reservation in API responses
type ReservationResponse struct {
	ID         uuid.UUID                   `json:"id"`
	OrderID    string                      `json:"order_id"`
	ProductID  uuid.UUID                   `json:"product_id"`
	VariantID  *uuid.UUID                  `json:"variant_id,omitempty"`
	Quantity   int                         `json:"quantity"`
	Status     inventory.ReservationStatus `json:"status"`
	ReservedBy string                      `json:"reserved_by"`
	ResolvedBy string                      `json:"resolved_by,omitempty"`
	ResolvedAt *time.Time                  `json:"resolved_at,omitempty"`
	CreatedAt  time.Time                   `json:"created_at"`
}

// ToReservationResponse converts a domain Reservation to ReservationResponse
func ToReservationResponse(r *inventory.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:         r.ID,
		OrderID:    r.OrderID,
		ProductID:  r.ProductID,
		VariantID:  r.Key().VariantPtr(),
		Quantity:   r.Quantity,
		Status:     r.Status,
		ReservedBy: r.ReservedBy,
		ResolvedBy: r.ResolvedBy,
		ResolvedAt: r.ResolvedAt,
		CreatedAt:  r.CreatedAt,
	}
}

// ReserveResponse is returned by a successful reservation
type ReserveResponse struct {
	Reservation ReservationResponse `json:"reservation"`
	Entry       LedgerEntryResponse `json:"ledger_entry"`
}

// ReleaseResponse is returned by a successful release
type ReleaseResponse struct {
	Reservation ReservationResponse `json:"reservation"`
	Entry       LedgerEntryResponse `json:"ledger_entry"`
}

// SaleResponse is returned by a successful point-of-sale deduction
type SaleResponse struct {
	OrderID string                `json:"order_id"`
	Entries []LedgerEntryResponse `json:"ledger_entries"`
}

// LowStockAlertResponse represents a low-stock alert in API responses
type LowStockAlertResponse struct {
	ID                 uuid.UUID  `json:"id"`
	ProductID          uuid.UUID  `json:"product_id"`
	VariantID          *uuid.UUID `json:"variant_id,omitempty"`
	ThresholdAtTrigger int        `json:"threshold_at_trigger"`
	StockAtTrigger     int        `json:"stock_at_trigger"`
	Acknowledged       bool       `json:"acknowledged"`
	AcknowledgedBy     *string    `json:"acknowledged_by,omitempty"`
	AcknowledgedAt     *time.Time `json:"acknowledged_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// ToLowStockAlertResponse converts a domain LowStockAlert to LowStockAlertResponse
func ToLowStockAlertResponse(a *inventory.LowStockAlert) LowStockAlertResponse {
	return LowStockAlertResponse{
		ID:                 a.ID,
		ProductID:          a.ProductID,
		VariantID:          a.Key().VariantPtr(),
		ThresholdAtTrigger: a.ThresholdAtTrigger,
		StockAtTrigger:     a.StockAtTrigger,
		Acknowledged:       a.Acknowledged,
		AcknowledgedBy:     a.AcknowledgedBy,
		AcknowledgedAt:     a.AcknowledgedAt,
		CreatedAt:          a.CreatedAt,
	}
}

// ThresholdSource tells where an effective threshold came from
type ThresholdSource string

const (
	ThresholdSourceDefault  ThresholdSource = "default"
	ThresholdSourceOverride ThresholdSource = "override"
)

// ThresholdResponse is the effective low-stock threshold for a product, or the global default
type ThresholdResponse struct {
	ProductID *uuid.UUID      `json:"product_id,omitempty"`
	Threshold int             `json:"threshold"`
	Source    ThresholdSource `json:"source"`
}

// ReconciliationResponse reports whether the ledger of an account replays to its stock
type ReconciliationResponse struct {
	ProductID  uuid.UUID   `json:"product_id"`
	VariantID  *uuid.UUID  `json:"variant_id,omitempty"`
	Entries    int         `json:"entries"`
	Replayed   int         `json:"replayed_quantity"`
	Current    int         `json:"current_quantity"`
	Consistent bool        `json:"consistent"`
	Gaps       []uuid.UUID `json:"gaps,omitempty"`
}
