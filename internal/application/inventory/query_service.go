package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketplace/inventory/internal/domain/inventory"
	"github.com/marketplace/inventory/internal/domain/shared"
)

// Ledger listing bounds
const (
	DefaultRecentLedgerLimit = 50
	MaxRecentLedgerLimit     = 500
)

// QueryService serves the read side: ledger history, stock levels and reconciliation
type QueryService struct {
	scope       TransactionScope
	checker     StockChecker
	recentLimit int
}

// NewQueryService creates a new QueryService
func NewQueryService(scope TransactionScope, checker StockChecker) *QueryService {
	return &QueryService{scope: scope, checker: checker, recentLimit: DefaultRecentLedgerLimit}
}

// SetDefaultRecentLimit changes the page size used when no limit is requested
func (s *QueryService) SetDefaultRecentLimit(limit int) {
	if limit > 0 {
		s.recentLimit = shared.NormalizeLimit(limit, DefaultRecentLedgerLimit, MaxRecentLedgerLimit)
	}
}

// GetLedgerByProduct returns the full history of a product across its variants, oldest first
func (s *QueryService) GetLedgerByProduct(ctx context.Context, productID uuid.UUID) ([]LedgerEntryResponse, error) {
	if productID == uuid.Nil {
		return nil, shared.NewValidationError("Product ID is required")
	}
	var result []LedgerEntryResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		entries, err := repos.Ledger().FindByProduct(ctx, productID)
		if err != nil {
			return err
		}
		result = ToLedgerEntryResponses(entries)
		return nil
	})
	return result, err
}

// GetRecentLedgerEntries returns the newest entries across all products
func (s *QueryService) GetRecentLedgerEntries(ctx context.Context, limit int) ([]LedgerEntryResponse, error) {
	limit = shared.NormalizeLimit(limit, s.recentLimit, MaxRecentLedgerLimit)
	var result []LedgerEntryResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		entries, err := repos.Ledger().FindRecent(ctx, limit)
		if err != nil {
			return err
		}
		result = ToLedgerEntryResponses(entries)
		return nil
	})
	return result, err
}

// GetStock returns one account with its effective low-stock threshold
func (s *QueryService) GetStock(ctx context.Context, key inventory.AccountKey) (*StockAccountResponse, error) {
	var account *inventory.StockAccount
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		account, err = loadAccount(ctx, repos, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	threshold, err := s.threshold(ctx, key.ProductID)
	if err != nil {
		return nil, err
	}
	resp := ToStockAccountResponse(account, threshold)
	return &resp, nil
}

// ListAccountsByProduct returns the product account and every variant account
func (s *QueryService) ListAccountsByProduct(ctx context.Context, productID uuid.UUID) ([]StockAccountResponse, error) {
	if productID == uuid.Nil {
		return nil, shared.NewValidationError("Product ID is required")
	}
	var accounts []inventory.StockAccount
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		accounts, err = repos.Accounts().FindByProduct(ctx, productID)
		return err
	})
	if err != nil {
		return nil, err
	}
	threshold, err := s.threshold(ctx, productID)
	if err != nil {
		return nil, err
	}
	result := make([]StockAccountResponse, len(accounts))
	for i := range accounts {
		result[i] = ToStockAccountResponse(&accounts[i], threshold)
	}
	return result, nil
}

// Reconcile replays the ledger of one account from zero and compares the result with
// the stored quantity. Account and ledger are read in the same transaction.
func (s *QueryService) Reconcile(ctx context.Context, key inventory.AccountKey) (*ReconciliationResponse, error) {
	var (
		account *inventory.StockAccount
		entries []inventory.LedgerEntry
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		if account, err = loadAccount(ctx, repos, key); err != nil {
			return err
		}
		entries, err = repos.Ledger().FindByAccount(ctx, key)
		return err
	})
	if err != nil {
		return nil, err
	}

	replay := inventory.Replay(0, entries)
	return &ReconciliationResponse{
		ProductID:  key.ProductID,
		VariantID:  key.VariantPtr(),
		Entries:    replay.Entries,
		Replayed:   replay.Closing,
		Current:    account.Quantity,
		Consistent: replay.Continuous() && replay.Closing == account.Quantity,
		Gaps:       replay.Gaps,
	}, nil
}

func (s *QueryService) threshold(ctx context.Context, productID uuid.UUID) (int, error) {
	if s.checker == nil {
		return inventory.DefaultLowStockThreshold, nil
	}
	return s.checker.GetLowStockThreshold(ctx, &productID)
}
