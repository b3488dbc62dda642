package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/inventory/internal/domain/shared"
)

// ChangeType classifies a ledger entry
type ChangeType string

const (
	// ChangeTypeAddition is a restock, return or opening balance
	ChangeTypeAddition ChangeType = "ADDITION"
	// ChangeTypeDeduction is a confirmed sale
	ChangeTypeDeduction ChangeType = "DEDUCTION"
	// ChangeTypeAdjustment is a manual correction to an absolute quantity
	ChangeTypeAdjustment ChangeType = "ADJUSTMENT"
	// ChangeTypeReservation is stock held for an online order
	ChangeTypeReservation ChangeType = "RESERVATION"
	// ChangeTypeRelease is reserved stock returned after cancellation
	ChangeTypeRelease ChangeType = "RELEASE"
)

// String returns the string representation of ChangeType
func (t ChangeType) String() string {
	return string(t)
}

// IsValid returns true if the change type is known
func (t ChangeType) IsValid() bool {
	switch t {
	case ChangeTypeAddition,
		ChangeTypeDeduction,
		ChangeTypeAdjustment,
		ChangeTypeReservation,
		ChangeTypeRelease:
		return true
	}
	return false
}

// AllChangeTypes lists every ChangeType in declaration order
func AllChangeTypes() []ChangeType {
	return []ChangeType{
		ChangeTypeAddition,
		ChangeTypeDeduction,
		ChangeTypeAdjustment,
		ChangeTypeReservation,
		ChangeTypeRelease,
	}
}

// Reason records why stock moved
type Reason string

const (
	ReasonOfflineSale       Reason = "OFFLINE_SALE"
	ReasonOrderReservation  Reason = "ORDER_RESERVATION"
	ReasonOrderCancellation Reason = "ORDER_CANCELLATION"
	ReasonManualAdjustment  Reason = "MANUAL_ADJUSTMENT"
	ReasonInitialStock      Reason = "INITIAL_STOCK"
	ReasonRestock           Reason = "RESTOCK"
	ReasonCustomerReturn    Reason = "CUSTOMER_RETURN"
	ReasonDamageWriteOff    Reason = "DAMAGE_WRITE_OFF"
	ReasonPhysicalCount     Reason = "PHYSICAL_COUNT"
)

// String returns the string representation of Reason
func (r Reason) String() string {
	return string(r)
}

// IsBlank reports whether the reason carries no text
func (r Reason) IsBlank() bool {
	return strings.TrimSpace(string(r)) == ""
}

// IsOrderLifecycle reports whether the reason belongs to the reservation flow
func (r Reason) IsOrderLifecycle() bool {
	return r == ReasonOrderReservation || r == ReasonOrderCancellation
}

// LedgerEntry is an immutable record of one stock mutation.
// Entries are never updated or deleted; corrections are new entries.
type LedgerEntry struct {
	ID             uuid.UUID
	Sequence       int64
	ProductID      uuid.UUID
	VariantID      uuid.UUID
	ChangeType     ChangeType
	QuantityBefore int
	QuantityChange int
	QuantityAfter  int
	Reason         Reason
	Notes          string
	ReferenceID    string
	ActorID        string
	CreatedAt      time.Time
}

// LedgerEntryParams holds the fields needed to build a LedgerEntry
type LedgerEntryParams struct {
	Key            AccountKey
	ChangeType     ChangeType
	QuantityBefore int
	QuantityChange int
	Reason         Reason
	Notes          string
	ReferenceID    string
	ActorID        string
}

// NewLedgerEntry validates params and builds an entry with after = before + change
func NewLedgerEntry(p LedgerEntryParams) (*LedgerEntry, error) {
	if p.Key.ProductID == uuid.Nil {
		return nil, shared.NewValidationError("Product ID cannot be empty")
	}
	if !p.ChangeType.IsValid() {
		return nil, shared.NewValidationError(fmt.Sprintf("Invalid change type %q", p.ChangeType))
	}
	if p.Reason.IsBlank() {
		return nil, shared.NewValidationError("Reason is required")
	}
	if strings.TrimSpace(p.ActorID) == "" {
		return nil, shared.NewValidationError("Actor is required")
	}
	if p.ChangeType == ChangeTypeAdjustment && strings.TrimSpace(p.Notes) == "" {
		return nil, shared.NewValidationError("Adjustment notes are required")
	}
	if p.QuantityBefore < 0 {
		return nil, shared.NewValidationError("Stock quantity cannot be negative")
	}
	after := p.QuantityBefore + p.QuantityChange
	if after < 0 {
		return nil, shared.NewInsufficientStockError(fmt.Sprintf(
			"Insufficient stock: available %d, change %d", p.QuantityBefore, p.QuantityChange))
	}

	return &LedgerEntry{
		ID:             uuid.New(),
		ProductID:      p.Key.ProductID,
		VariantID:      p.Key.VariantID,
		ChangeType:     p.ChangeType,
		QuantityBefore: p.QuantityBefore,
		QuantityChange: p.QuantityChange,
		QuantityAfter:  after,
		Reason:         p.Reason,
		Notes:          p.Notes,
		ReferenceID:    p.ReferenceID,
		ActorID:        p.ActorID,
		CreatedAt:      time.Now(),
	}, nil
}

// Key returns the stock account this entry belongs to
func (e *LedgerEntry) Key() AccountKey {
	return AccountKey{ProductID: e.ProductID, VariantID: e.VariantID}
}

// IsBalanced reports whether the entry satisfies after = before + change and after >= 0
func (e *LedgerEntry) IsBalanced() bool {
	return e.QuantityAfter == e.QuantityBefore+e.QuantityChange && e.QuantityAfter >= 0
}

// LedgerReplay is the result of folding a ledger over an opening quantity
type LedgerReplay struct {
	Opening int
	Closing int
	Entries int
	// Gaps holds entries whose QuantityBefore did not match the previous entry's
	// QuantityAfter, or which are not balanced themselves.
	Gaps []uuid.UUID
}

// Continuous reports whether every entry picked up where the previous one left off
func (r LedgerReplay) Continuous() bool {
	return len(r.Gaps) == 0
}

// Replay folds entries, which must be in ledger order, starting from opening
func Replay(opening int, entries []LedgerEntry) LedgerReplay {
	result := LedgerReplay{Opening: opening, Closing: opening, Entries: len(entries)}
	prev := opening
	for i := range entries {
		e := &entries[i]
		if e.QuantityBefore != prev || !e.IsBalanced() {
			result.Gaps = append(result.Gaps, e.ID)
		}
		prev = e.QuantityAfter
		result.Closing += e.QuantityChange
	}
	return result
}
