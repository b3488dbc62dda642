package inventory

import (
	"context"

	"github.com/google/uuid"
)

// StockAccountRepository persists stock accounts.
// Lookups return shared.ErrNotFound when the account does not exist.
type StockAccountRepository interface {
	FindByKey(ctx context.Context, key AccountKey) (*StockAccount, error)
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]StockAccount, error)
	// Create inserts a new account; an existing key is a validation error
	Create(ctx context.Context, account *StockAccount) error
	// SaveWithLock writes the account only if the stored version is account.Version-1.
	// A mismatch returns shared.ErrConcurrencyConflict.
	SaveWithLock(ctx context.Context, account *StockAccount) error
}

// LedgerRepository is the append-only ledger store. It has no update or delete.
type LedgerRepository interface {
	// Append stores entry and assigns its Sequence
	Append(ctx context.Context, entry *LedgerEntry) error
	// FindByProduct returns every entry of the product, all variants, oldest first
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]LedgerEntry, error)
	// FindByAccount returns the entries of one account, oldest first
	FindByAccount(ctx context.Context, key AccountKey) ([]LedgerEntry, error)
	// FindRecent returns at most limit entries, newest first
	FindRecent(ctx context.Context, limit int) ([]LedgerEntry, error)
}

// ReservationRepository persists reservations keyed by (order, product, variant)
type ReservationRepository interface {
	FindByLine(ctx context.Context, orderID string, key AccountKey) (*Reservation, error)
	FindByOrder(ctx context.Context, orderID string) ([]Reservation, error)
	Create(ctx context.Context, reservation *Reservation) error
	SaveWithLock(ctx context.Context, reservation *Reservation) error
}

// LowStockAlertRepository persists low-stock alerts
type LowStockAlertRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*LowStockAlert, error)
	// FindOpenByKey returns the unacknowledged alert for key, or shared.ErrNotFound
	FindOpenByKey(ctx context.Context, key AccountKey) (*LowStockAlert, error)
	// FindOpen lists unacknowledged alerts, newest first
	FindOpen(ctx context.Context) ([]LowStockAlert, error)
	// Create inserts alert; a second open alert for the same key returns shared.ErrConcurrencyConflict
	Create(ctx context.Context, alert *LowStockAlert) error
	Save(ctx context.Context, alert *LowStockAlert) error
}

// ThresholdRepository persists per-product low-stock threshold overrides
type ThresholdRepository interface {
	// FindByProduct returns the override, or shared.ErrNotFound when the default applies
	FindByProduct(ctx context.Context, productID uuid.UUID) (*ThresholdOverride, error)
	Save(ctx context.Context, override *ThresholdOverride) error
	Delete(ctx context.Context, productID uuid.UUID) error
}
