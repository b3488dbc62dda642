package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketplace/inventory/internal/domain/inventory"
	"github.com/marketplace/inventory/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// =============================================================================
// Mock Repositories
// =============================================================================

type MockStockAccountRepository struct {
	mock.Mock
}

func (m *MockStockAccountRepository) FindByKey(ctx context.Context, key inventory.AccountKey) (*inventory.StockAccount, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.StockAccount), args.Error(1)
}

func (m *MockStockAccountRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]inventory.StockAccount, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).([]inventory.StockAccount), args.Error(1)
}

func (m *MockStockAccountRepository) Create(ctx context.Context, account *inventory.StockAccount) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockStockAccountRepository) SaveWithLock(ctx context.Context, account *inventory.StockAccount) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Append(ctx context.Context, entry *inventory.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]inventory.LedgerEntry, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).([]inventory.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) FindByAccount(ctx context.Context, key inventory.AccountKey) ([]inventory.LedgerEntry, error) {
	args := m.Called(ctx, key)
	return args.Get(0).([]inventory.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) FindRecent(ctx context.Context, limit int) ([]inventory.LedgerEntry, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]inventory.LedgerEntry), args.Error(1)
}

type MockThresholdRepository struct {
	mock.Mock
}

func (m *MockThresholdRepository) FindByProduct(ctx context.Context, productID uuid.UUID) (*inventory.ThresholdOverride, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.ThresholdOverride), args.Error(1)
}

func (m *MockThresholdRepository) Save(ctx context.Context, override *inventory.ThresholdOverride) error {
	args := m.Called(ctx, override)
	return args.Error(0)
}

func (m *MockThresholdRepository) Delete(ctx context.Context, productID uuid.UUID) error {
	args := m.Called(ctx, productID)
	return args.Error(0)
}

type MockLowStockAlertRepository struct {
	mock.Mock
}

func (m *MockLowStockAlertRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.LowStockAlert, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.LowStockAlert), args.Error(1)
}

func (m *MockLowStockAlertRepository) FindOpenByKey(ctx context.Context, key inventory.AccountKey) (*inventory.LowStockAlert, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.LowStockAlert), args.Error(1)
}

func (m *MockLowStockAlertRepository) FindOpen(ctx context.Context) ([]inventory.LowStockAlert, error) {
	args := m.Called(ctx)
	return args.Get(0).([]inventory.LowStockAlert), args.Error(1)
}

func (m *MockLowStockAlertRepository) Create(ctx context.Context, alert *inventory.LowStockAlert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

func (m *MockLowStockAlertRepository) Save(ctx context.Context, alert *inventory.LowStockAlert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

// MockStockChecker records the accounts handed to the low-stock monitor
type MockStockChecker struct {
	mock.Mock
}

func (m *MockStockChecker) Check(ctx context.Context, key inventory.AccountKey) (*LowStockAlertResponse, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*LowStockAlertResponse), args.Error(1)
}

func (m *MockStockChecker) GetLowStockThreshold(ctx context.Context, productID *uuid.UUID) (int, error) {
	args := m.Called(ctx, productID)
	return args.Int(0), args.Error(1)
}

// MockEventPublisher captures published events
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// countingRecorder counts recorder calls
type countingRecorder struct {
	entries  int
	rejected map[string]int
	alerts   int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{rejected: make(map[string]int)}
}

func (r *countingRecorder) RecordLedgerEntry(context.Context, *inventory.LedgerEntry)   { r.entries++ }
func (r *countingRecorder) RecordRejected(_ context.Context, op, code string)           { r.rejected[op+":"+code]++ }
func (r *countingRecorder) RecordAlertRaised(context.Context, *inventory.LowStockAlert) { r.alerts++ }

// =============================================================================
// Helpers
// =============================================================================

type testRepos struct {
	accounts   *MockStockAccountRepository
	ledger     *MockLedgerRepository
	alerts     *MockLowStockAlertRepository
	thresholds *MockThresholdRepository
}

func newTestRepos() *testRepos {
	return &testRepos{
		accounts:   new(MockStockAccountRepository),
		ledger:     new(MockLedgerRepository),
		alerts:     new(MockLowStockAlertRepository),
		thresholds: new(MockThresholdRepository),
	}
}

func (r *testRepos) scope() *NoOpTransactionScope {
	return NewNoOpTransactionScope(r.accounts, r.ledger, nil, r.alerts, r.thresholds)
}

// newAccount returns a fresh account at quantity without going through the ledger
func newAccount(quantity int) *inventory.StockAccount {
	account, _ := inventory.NewStockAccount(inventory.AccountKey{ProductID: uuid.New()})
	account.Quantity = quantity
	return account
}

// copyAccount mimics a repository read
func copyAccount(a *inventory.StockAccount) *inventory.StockAccount {
	c := *a
	c.ClearDomainEvents()
	return &c
}
