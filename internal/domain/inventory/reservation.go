package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/inventory/internal/domain/shared"
)

// ReservationStatus is the state of one reserved order line
type ReservationStatus string

const (
	ReservationStatusReserved  ReservationStatus = "RESERVED"
	ReservationStatusFulfilled ReservationStatus = "FULFILLED"
	ReservationStatusReleased  ReservationStatus = "RELEASED"
)

// IsValid returns true if the status is known
func (s ReservationStatus) IsValid() bool {
	switch s {
	case ReservationStatusReserved, ReservationStatusFulfilled, ReservationStatusReleased:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed
func (s ReservationStatus) IsTerminal() bool {
	return s == ReservationStatusFulfilled || s == ReservationStatusReleased
}

// ErrNoActiveReservation is returned when an order line has nothing left to release or fulfil
var ErrNoActiveReservation = shared.NewNotFoundError("No active reservation found for this order line")

// Reservation tracks stock held for one (order, product, variant) line.
// The hold itself is a RESERVATION ledger entry; this record only carries the state machine
// RESERVED -> FULFILLED | RELEASED.
type Reservation struct {
	shared.BaseAggregateRoot
	OrderID    string
	ProductID  uuid.UUID
	VariantID  uuid.UUID
	Quantity   int
	Status     ReservationStatus
	ReservedBy string
	ResolvedBy string
	ResolvedAt *time.Time
}

// NewReservation creates a RESERVED line
func NewReservation(orderID string, key AccountKey, quantity int, actorID string) (*Reservation, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, shared.NewValidationError("Order ID is required")
	}
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return nil, shared.NewValidationError("Quantity must be greater than zero")
	}
	if strings.TrimSpace(actorID) == "" {
		return nil, shared.NewValidationError("Actor is required")
	}
	return &Reservation{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderID:           orderID,
		ProductID:         key.ProductID,
		VariantID:         key.VariantID,
		Quantity:          quantity,
		Status:            ReservationStatusReserved,
		ReservedBy:        actorID,
	}, nil
}

// Key returns the stock account the reservation holds stock from
func (r *Reservation) Key() AccountKey {
	return AccountKey{ProductID: r.ProductID, VariantID: r.VariantID}
}

// IsActive reports whether the reservation still holds stock
func (r *Reservation) IsActive() bool {
	return r.Status == ReservationStatusReserved
}

// Release moves the line to RELEASED. The quantity must match what was reserved.
func (r *Reservation) Release(quantity int, actorID string) error {
	if !r.IsActive() {
		return ErrNoActiveReservation
	}
	if quantity != r.Quantity {
		return shared.NewValidationError("Release quantity must match the reserved quantity")
	}
	return r.resolve(ReservationStatusReleased, actorID)
}

// Fulfill moves the line to FULFILLED without touching stock
func (r *Reservation) Fulfill(actorID string) error {
	if !r.IsActive() {
		return ErrNoActiveReservation
	}
	return r.resolve(ReservationStatusFulfilled, actorID)
}

func (r *Reservation) resolve(status ReservationStatus, actorID string) error {
	if strings.TrimSpace(actorID) == "" {
		return shared.NewValidationError("Actor is required")
	}
	now := time.Now()
	r.Status = status
	r.ResolvedBy = actorID
	r.ResolvedAt = &now
	r.IncrementVersion()
	return nil
}
