package inventory

import (
	"context"

	"github.com/marketplace/inventory/internal/domain/inventory"
)

// TransactionScope provides transactional access to inventory repositories.
// Everything fn does through repos is committed or rolled back as one unit.
type TransactionScope interface {
	// Execute runs fn within a transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all inventory repositories.
// Inside a TransactionScope they share the same transaction.
type TransactionalRepositories interface {
	// Accounts returns the stock account repository, the only writer of quantities
	Accounts() inventory.StockAccountRepository
	// Ledger returns the append-only ledger store
	Ledger() inventory.LedgerRepository
	// Reservations returns the reservation repository
	Reservations() inventory.ReservationRepository
	// Alerts returns the low-stock alert repository
	Alerts() inventory.LowStockAlertRepository
	// Thresholds returns the threshold override repository
	Thresholds() inventory.ThresholdRepository
}

// NoOpTransactionScope runs fn against fixed repositories without a real transaction.
// Used in tests with mocked repositories.
type NoOpTransactionScope struct {
	accounts     inventory.StockAccountRepository
	ledger       inventory.LedgerRepository
	reservations inventory.ReservationRepository
	alerts       inventory.LowStockAlertRepository
	thresholds   inventory.ThresholdRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	accounts inventory.StockAccountRepository,
	ledger inventory.LedgerRepository,
	reservations inventory.ReservationRepository,
	alerts inventory.LowStockAlertRepository,
	thresholds inventory.ThresholdRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		accounts:     accounts,
		ledger:       ledger,
		reservations: reservations,
		alerts:       alerts,
		thresholds:   thresholds,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) Accounts() inventory.StockAccountRepository    { return s.accounts }
func (s *NoOpTransactionScope) Ledger() inventory.LedgerRepository            { return s.ledger }
func (s *NoOpTransactionScope) Reservations() inventory.ReservationRepository { return s.reservations }
func (s *NoOpTransactionScope) Alerts() inventory.LowStockAlertRepository     { return s.alerts }
func (s *NoOpTransactionScope) Thresholds() inventory.ThresholdRepository     { return s.thresholds }

var (
	_ TransactionScope          = (*NoOpTransactionScope)(nil)
	_ TransactionalRepositories = (*NoOpTransactionScope)(nil)
)
