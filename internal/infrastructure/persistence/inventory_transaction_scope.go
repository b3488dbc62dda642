package persistence

import (
	"context"

	appinv "github.com/marketplace/inventory/internal/application/inventory"
	"github.com/marketplace/inventory/internal/domain/inventory"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// Every repository handed to fn shares the same *gorm.DB transaction.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appinv.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// Accounts returns the stock account repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Accounts() inventory.StockAccountRepository {
	return NewGormStockAccountRepository(r.tx)
}

// Ledger returns the ledger repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Ledger() inventory.LedgerRepository {
	return NewGormLedgerRepository(r.tx)
}

// Reservations returns the reservation repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Reservations() inventory.ReservationRepository {
	return NewGormReservationRepository(r.tx)
}

// Alerts returns the low-stock alert repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Alerts() inventory.LowStockAlertRepository {
	return NewGormLowStockAlertRepository(r.tx)
}

// Thresholds returns the threshold override repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Thresholds() inventory.ThresholdRepository {
	return NewGormThresholdRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appinv.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appinv.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
