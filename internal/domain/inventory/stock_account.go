package inventory

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/marketplace/inventory/internal/domain/shared"
)

// AggregateTypeStockAccount is the aggregate type recorded on stock events
const AggregateTypeStockAccount = "StockAccount"

// AccountKey identifies a stock account. VariantID is uuid.Nil for products without variants.
type AccountKey struct {
	ProductID uuid.UUID
	VariantID uuid.UUID
}

// NewAccountKey builds a key from a product and an optional variant
func NewAccountKey(productID uuid.UUID, variantID *uuid.UUID) AccountKey {
	key := AccountKey{ProductID: productID}
	if variantID != nil {
		key.VariantID = *variantID
	}
	return key
}

// HasVariant reports whether the key addresses a variant
func (k AccountKey) HasVariant() bool {
	return k.VariantID != uuid.Nil
}

// VariantPtr returns the variant as a pointer, nil when there is none
func (k AccountKey) VariantPtr() *uuid.UUID {
	if !k.HasVariant() {
		return nil
	}
	v := k.VariantID
	return &v
}

func (k AccountKey) String() string {
	if !k.HasVariant() {
		return k.ProductID.String()
	}
	return k.ProductID.String() + "/" + k.VariantID.String()
}

// Validate checks the key addresses a product
func (k AccountKey) Validate() error {
	if k.ProductID == uuid.Nil {
		return shared.NewValidationError("Product ID cannot be empty")
	}
	return nil
}

// StockAccount holds the authoritative on-hand quantity for one product or variant.
// Quantity only changes through Deduct, Add and Adjust, each of which returns the
// ledger entry describing the change.
type StockAccount struct {
	shared.BaseAggregateRoot
	ProductID uuid.UUID
	VariantID uuid.UUID
	Quantity  int
}

// NewStockAccount opens an empty account for key
func NewStockAccount(key AccountKey) (*StockAccount, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	return &StockAccount{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         key.ProductID,
		VariantID:         key.VariantID,
	}, nil
}

// Key returns the account key
func (a *StockAccount) Key() AccountKey {
	return AccountKey{ProductID: a.ProductID, VariantID: a.VariantID}
}

// CanDeduct reports whether quantity units are on hand
func (a *StockAccount) CanDeduct(quantity int) bool {
	return quantity > 0 && a.Quantity >= quantity
}

// Deduct removes quantity units as a DEDUCTION. The order reservation reasons are
// refused here; reservations go through Hold.
func (a *StockAccount) Deduct(quantity int, reason Reason, referenceID, actorID string) (*LedgerEntry, error) {
	if reason.IsOrderLifecycle() {
		return nil, shared.NewValidationError(fmt.Sprintf("Reason %s is reserved for order reservations", reason))
	}
	return a.decrease(ChangeTypeDeduction, quantity, reason, referenceID, actorID)
}

// Hold removes quantity units for an order as a RESERVATION entry with reason ORDER_RESERVATION.
func (a *StockAccount) Hold(quantity int, orderID, actorID string) (*LedgerEntry, error) {
	return a.decrease(ChangeTypeReservation, quantity, ReasonOrderReservation, orderID, actorID)
}

func (a *StockAccount) decrease(changeType ChangeType, quantity int, reason Reason, referenceID, actorID string) (*LedgerEntry, error) {
	if quantity <= 0 {
		return nil, shared.NewValidationError("Quantity must be greater than zero")
	}
	if a.Quantity < quantity {
		return nil, shared.NewInsufficientStockError(fmt.Sprintf(
			"Insufficient stock for %s: available %d, requested %d", a.Key(), a.Quantity, quantity))
	}
	return a.apply(LedgerEntryParams{
		Key:            a.Key(),
		ChangeType:     changeType,
		QuantityBefore: a.Quantity,
		QuantityChange: -quantity,
		Reason:         reason,
		ReferenceID:    referenceID,
		ActorID:        actorID,
	})
}

// Add puts quantity units on hand as an ADDITION. ORDER_RESERVATION and
// ORDER_CANCELLATION are refused; released reservations go through Restore.
func (a *StockAccount) Add(quantity int, reason Reason, referenceID, actorID string) (*LedgerEntry, error) {
	if reason.IsOrderLifecycle() {
		return nil, shared.NewValidationError(fmt.Sprintf("Reason %s is reserved for order reservations", reason))
	}
	return a.increase(ChangeTypeAddition, quantity, reason, referenceID, actorID)
}

// Restore returns held units of an order as a RELEASE entry with reason ORDER_CANCELLATION.
func (a *StockAccount) Restore(quantity int, orderID, actorID string) (*LedgerEntry, error) {
	return a.increase(ChangeTypeRelease, quantity, ReasonOrderCancellation, orderID, actorID)
}

func (a *StockAccount) increase(changeType ChangeType, quantity int, reason Reason, referenceID, actorID string) (*LedgerEntry, error) {
	if quantity <= 0 {
		return nil, shared.NewValidationError("Quantity must be greater than zero")
	}
	return a.apply(LedgerEntryParams{
		Key:            a.Key(),
		ChangeType:     changeType,
		QuantityBefore: a.Quantity,
		QuantityChange: quantity,
		Reason:         reason,
		ReferenceID:    referenceID,
		ActorID:        actorID,
	})
}

// Adjust sets the on-hand quantity to newQuantity. Notes are mandatory and are stored
// on the entry as "<reason>: <notes>".
func (a *StockAccount) Adjust(newQuantity int, reason Reason, notes, actorID string) (*LedgerEntry, error) {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return nil, shared.NewValidationError("Adjustment notes are required")
	}
	if newQuantity < 0 {
		return nil, shared.NewValidationError("Stock quantity cannot be negative")
	}
	return a.apply(LedgerEntryParams{
		Key:            a.Key(),
		ChangeType:     ChangeTypeAdjustment,
		QuantityBefore: a.Quantity,
		QuantityChange: newQuantity - a.Quantity,
		Reason:         reason,
		Notes:          fmt.Sprintf("%s: %s", reason, notes),
		ActorID:        actorID,
	})
}

// apply builds the entry first so a rejected change leaves the account untouched
func (a *StockAccount) apply(p LedgerEntryParams) (*LedgerEntry, error) {
	entry, err := NewLedgerEntry(p)
	if err != nil {
		return nil, err
	}
	a.Quantity = entry.QuantityAfter
	a.IncrementVersion()
	a.AddDomainEvent(NewStockChangedEvent(a, entry))
	return entry, nil
}
