package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/marketplace/inventory/internal/domain/inventory"
	"github.com/marketplace/inventory/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestService(t *testing.T, repos *testRepos, checker StockChecker) *StockAccountService {
	t.Helper()
	return NewStockAccountService(repos.scope(), checker, zaptest.NewLogger(t))
}

func TestStockAccountService_Deduct(t *testing.T) {
	ctx := context.Background()

	t.Run("writes a DEDUCTION entry and runs the low-stock check", func(t *testing.T) {
		repos := newTestRepos()
		checker := new(MockStockChecker)
		recorder := newCountingRecorder()
		account := newAccount(10)
		key := account.Key()

		repos.accounts.On("FindByKey", ctx, key).Return(copyAccount(account), nil)
		repos.accounts.On("SaveWithLock", ctx, mock.AnythingOfType("*inventory.StockAccount")).Return(nil)
		repos.ledger.On("Append", ctx, mock.AnythingOfType("*inventory.LedgerEntry")).Return(nil)
		checker.On("Check", mock.Anything, key).Return(nil, nil)

		svc := newTestService(t, repos, checker)
		svc.SetRecorder(recorder)
		resp, err := svc.Deduct(ctx, DeductStockInput{
			ProductID:   key.ProductID,
			Quantity:    3,
			Reason:      inventory.ReasonOfflineSale,
			ReferenceID: "order-1",
			ActorID:     "user-1",
		})

		require.NoError(t, err)
		assert.Equal(t, inventory.ChangeTypeDeduction, resp.ChangeType)
		assert.Equal(t, 10, resp.QuantityBefore)
		assert.Equal(t, -3, resp.QuantityChange)
		assert.Equal(t, 7, resp.QuantityAfter)
		assert.Equal(t, "order-1", resp.ReferenceID)
		assert.Nil(t, resp.VariantID)
		assert.Equal(t, 1, recorder.entries)
		repos.accounts.AssertExpectations(t)
		repos.ledger.AssertExpectations(t)
		checker.AssertExpectations(t)
	})

	t.Run("order reservation reasons are refused", func(t *testing.T) {
		repos := newTestRepos()
		account := newAccount(5)
		repos.accounts.On("FindByKey", ctx, account.Key()).Return(copyAccount(account), nil)

		svc := newTestService(t, repos, nil)
		for _, reason := range []inventory.Reason{inventory.ReasonOrderReservation, inventory.ReasonOrderCancellation} {
			resp, err := svc.Deduct(ctx, DeductStockInput{
				ProductID:   account.ProductID,
				Quantity:    5,
				Reason:      reason,
				ReferenceID: "order-x",
				ActorID:     "user-1",
			})

			require.Error(t, err)
			assert.Nil(t, resp)
			assert.True(t, shared.IsValidation(err), reason.String())
		}
		repos.accounts.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
		repos.ledger.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})

	t.Run("insufficient stock writes nothing", func(t *testing.T) {
		repos := newTestRepos()
		checker := new(MockStockChecker)
		recorder := newCountingRecorder()
		account := newAccount(2)
		repos.accounts.On("FindByKey", ctx, account.Key()).Return(copyAccount(account), nil)

		svc := newTestService(t, repos, checker)
		svc.SetRecorder(recorder)
		_, err := svc.Deduct(ctx, DeductStockInput{
			ProductID: account.ProductID,
			Quantity:  5,
			Reason:    inventory.ReasonOfflineSale,
			ActorID:   "user-1",
		})

		require.Error(t, err)
		assert.True(t, shared.IsInsufficientStock(err))
		assert.Equal(t, 1, recorder.rejected["deduct:INSUFFICIENT_STOCK"])
		repos.accounts.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
		repos.ledger.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
		checker.AssertNotCalled(t, "Check", mock.Anything, mock.Anything)
	})

	t.Run("non-positive quantity is a validation error", func(t *testing.T) {
		repos := newTestRepos()
		account := newAccount(2)
		repos.accounts.On("FindByKey", ctx, account.Key()).Return(copyAccount(account), nil)

		svc := newTestService(t, repos, nil)
		_, err := svc.Deduct(ctx, DeductStockInput{
			ProductID: account.ProductID,
			Quantity:  0,
			Reason:    inventory.ReasonOfflineSale,
			ActorID:   "user-1",
		})

		assert.True(t, shared.IsValidation(err))
	})

	t.Run("missing account is NotFound", func(t *testing.T) {
		repos := newTestRepos()
		account := newAccount(0)
		repos.accounts.On("FindByKey", ctx, account.Key()).Return(nil, shared.ErrNotFound)

		svc := newTestService(t, repos, nil)
		_, err := svc.Deduct(ctx, DeductStockInput{
			ProductID: account.ProductID,
			Quantity:  1,
			Reason:    inventory.ReasonOfflineSale,
			ActorID:   "user-1",
		})

		assert.True(t, shared.IsNotFound(err))
		assert.Contains(t, err.Error(), "Stock account not found")
	})

	t.Run("missing actor is rejected before any read", func(t *testing.T) {
		repos := newTestRepos()
		account := newAccount(5)

		svc := newTestService(t, repos, nil)
		_, err := svc.Deduct(ctx, DeductStockInput{
			ProductID: account.ProductID,
			Quantity:  1,
			Reason:    inventory.ReasonOfflineSale,
		})

		assert.True(t, shared.IsValidation(err))
		repos.accounts.AssertNotCalled(t, "FindByKey", mock.Anything, mock.Anything)
	})
}

func TestStockAccountService_ConflictRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("re-reads and succeeds after a version conflict", func(t *testing.T) {
		repos := newTestRepos()
		account := newAccount(10)
		key := account.Key()

		repos.accounts.On("FindByKey", ctx, key).Return(copyAccount(account), nil).Once()
		repos.accounts.On("SaveWithLock", ctx, mock.Anything).Return(shared.ErrConcurrencyConflict).Once()

		moved := copyAccount(account)
		moved.Quantity = 8
		moved.Version = 2
		repos.accounts.On("FindByKey", ctx, key).Return(moved, nil).Once()
		repos.accounts.On("SaveWithLock", ctx, mock.Anything).Return(nil).Once()
		repos.ledger.On("Append", ctx, mock.Anything).Return(nil).Once()

		svc := newTestService(t, repos, nil)
		resp, err := svc.Deduct(ctx, DeductStockInput{
			ProductID: key.ProductID,
			Quantity:  3,
			Reason:    inventory.ReasonOfflineSale,
			ActorID:   "user-1",
		})

		require.NoError(t, err)
		assert.Equal(t, 8, resp.QuantityBefore)
		assert.Equal(t, 5, resp.QuantityAfter)
		repos.accounts.AssertNumberOfCalls(t, "SaveWithLock", 2)
		repos.ledger.AssertNumberOfCalls(t, "Append", 1)
	})

	t.Run("surfaces the conflict once retries are exhausted", func(t *testing.T) {
		repos := newTestRepos()
		recorder := newCountingRecorder()
		account := newAccount(10)
		repos.accounts.On("FindByKey", ctx, account.Key()).Return(copyAccount(account), nil)
		repos.accounts.On("SaveWithLock", ctx, mock.Anything).Return(shared.ErrConcurrencyConflict)

		svc := newTestService(t, repos, nil)
		svc.SetRecorder(recorder)
		svc.SetMaxConflictRetries(2)
		_, err := svc.Add(ctx, AddStockInput{
			ProductID: account.ProductID,
			Quantity:  1,
			Reason:    inventory.ReasonRestock,
			ActorID:   "user-1",
		})

		require.Error(t, err)
		assert.True(t, shared.IsConflict(err))
		repos.accounts.AssertNumberOfCalls(t, "SaveWithLock", 3)
		repos.ledger.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
		assert.Equal(t, 1, recorder.rejected["add:CONCURRENCY_CONFLICT"])
	})
}

func TestStockAccountService_AfterCommit(t *testing.T) {
	ctx := context.Background()

	t.Run("a failing low-stock check does not fail the mutation", func(t *testing.T) {
		repos := newTestRepos()
		checker := new(MockStockChecker)
		account := newAccount(4)
		key := account.Key()
		repos.accounts.On("FindByKey", ctx, key).Return(copyAccount(account), nil)
		repos.accounts.On("SaveWithLock", ctx, mock.Anything).Return(nil)
		repos.ledger.On("Append", ctx, mock.Anything).Return(nil)
		checker.On("Check", mock.Anything, key).Return(nil, errors.New("alert store down"))

		svc := newTestService(t, repos, checker)
		resp, err := svc.Deduct(ctx, DeductStockInput{
			ProductID: key.ProductID,
			Quantity:  1,
			Reason:    inventory.ReasonOfflineSale,
			ActorID:   "user-1",
		})

		require.NoError(t, err)
		assert.Equal(t, 3, resp.QuantityAfter)
		checker.AssertExpectations(t)
	})

	t.Run("publishes one StockChangedEvent per entry", func(t *testing.T) {
		repos := newTestRepos()
		publisher := new(MockEventPublisher)
		account := newAccount(4)
		repos.accounts.On("FindByKey", ctx, account.Key()).Return(copyAccount(account), nil)
		repos.accounts.On("SaveWithLock", ctx, mock.Anything).Return(nil)
		repos.ledger.On("Append", ctx, mock.Anything).Return(nil)
		publisher.On("Publish", mock.Anything, mock.MatchedBy(func(events []shared.DomainEvent) bool {
			if len(events) != 1 {
				return false
			}
			changed, ok := events[0].(*inventory.StockChangedEvent)
			return ok && changed.QuantityAfter == 6 && changed.ChangeType == inventory.ChangeTypeAddition
		})).Return(nil).Once()

		svc := newTestService(t, repos, nil)
		svc.SetEventPublisher(publisher)
		_, err := svc.Add(ctx, AddStockInput{
			ProductID: account.ProductID,
			Quantity:  2,
			Reason:    inventory.ReasonCustomerReturn,
			ActorID:   "user-1",
		})

		require.NoError(t, err)
		publisher.AssertExpectations(t)
	})

	t.Run("ledger append failure is returned and skips the check", func(t *testing.T) {
		repos := newTestRepos()
		checker := new(MockStockChecker)
		account := newAccount(4)
		repos.accounts.On("FindByKey", ctx, account.Key()).Return(copyAccount(account), nil)
		repos.accounts.On("SaveWithLock", ctx, mock.Anything).Return(nil)
		repos.ledger.On("Append", ctx, mock.Anything).Return(errors.New("disk full"))

		svc := newTestService(t, repos, checker)
		_, err := svc.Add(ctx, AddStockInput{
			ProductID: account.ProductID,
			Quantity:  2,
			Reason:    inventory.ReasonRestock,
			ActorID:   "user-1",
		})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "append ledger entry")
		checker.AssertNotCalled(t, "Check", mock.Anything, mock.Anything)
	})
}

func TestStockAccountService_Adjust(t *testing.T) {
	ctx := context.Background()

	t.Run("stores notes prefixed with the reason", func(t *testing.T) {
		repos := newTestRepos()
		account := newAccount(12)
		repos.accounts.On("FindByKey", ctx, account.Key()).Return(copyAccount(account), nil)
		repos.accounts.On("SaveWithLock", ctx, mock.Anything).Return(nil)
		repos.ledger.On("Append", ctx, mock.Anything).Return(nil)

		svc := newTestService(t, repos, nil)
		resp, err := svc.Adjust(ctx, AdjustStockInput{
			ProductID:   account.ProductID,
			NewQuantity: 9,
			Reason:      inventory.ReasonPhysicalCount,
			Notes:       "cycle count aisle 4",
			ActorID:     "user-1",
		})

		require.NoError(t, err)
		assert.Equal(t, inventory.ChangeTypeAdjustment, resp.ChangeType)
		assert.Equal(t, -3, resp.QuantityChange)
		assert.Equal(t, "PHYSICAL_COUNT: cycle count aisle 4", resp.Notes)
	})

	t.Run("blank notes are rejected", func(t *testing.T) {
		repos := newTestRepos()
		account := newAccount(12)
		repos.accounts.On("FindByKey", ctx, account.Key()).Return(copyAccount(account), nil)

		svc := newTestService(t, repos, nil)
		_, err := svc.Adjust(ctx, AdjustStockInput{
			ProductID:   account.ProductID,
			NewQuantity: 9,
			Reason:      inventory.ReasonPhysicalCount,
			Notes:       "   ",
			ActorID:     "user-1",
		})

		require.Error(t, err)
		assert.Equal(t, "Adjustment notes are required", err.Error())
		repos.accounts.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("negative target is rejected", func(t *testing.T) {
		repos := newTestRepos()
		account := newAccount(12)
		repos.accounts.On("FindByKey", ctx, account.Key()).Return(copyAccount(account), nil)

		svc := newTestService(t, repos, nil)
		_, err := svc.Adjust(ctx, AdjustStockInput{
			ProductID:   account.ProductID,
			NewQuantity: -1,
			Reason:      inventory.ReasonPhysicalCount,
			Notes:       "recount",
			ActorID:     "user-1",
		})

		require.Error(t, err)
		assert.Equal(t, "Stock quantity cannot be negative", err.Error())
	})
}

func TestStockAccountService_OpenAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("books initial stock as INITIAL_STOCK addition", func(t *testing.T) {
		repos := newTestRepos()
		checker := new(MockStockChecker)
		account := newAccount(0)
		key := account.Key()
		repos.accounts.On("FindByKey", ctx, key).Return(nil, shared.ErrNotFound)
		repos.accounts.On("Create", ctx, mock.Anything).Return(nil)
		repos.accounts.On("SaveWithLock", ctx, mock.Anything).Return(nil)
		repos.ledger.On("Append", ctx, mock.MatchedBy(func(e *inventory.LedgerEntry) bool {
			return e.Reason == inventory.ReasonInitialStock && e.QuantityBefore == 0 && e.QuantityAfter == 40
		})).Return(nil)
		checker.On("Check", mock.Anything, key).Return(nil, nil)
		checker.On("GetLowStockThreshold", ctx, mock.Anything).Return(15, nil)

		svc := newTestService(t, repos, checker)
		resp, err := svc.OpenAccount(ctx, OpenAccountInput{
			ProductID:       key.ProductID,
			InitialQuantity: 40,
			ActorID:         "user-1",
		})

		require.NoError(t, err)
		assert.Equal(t, 40, resp.Quantity)
		assert.Equal(t, 15, resp.LowStockThreshold)
		assert.False(t, resp.IsLowStock)
		repos.ledger.AssertExpectations(t)
	})

	t.Run("existing account is rejected", func(t *testing.T) {
		repos := newTestRepos()
		account := newAccount(3)
		repos.accounts.On("FindByKey", ctx, account.Key()).Return(copyAccount(account), nil)

		svc := newTestService(t, repos, nil)
		_, err := svc.OpenAccount(ctx, OpenAccountInput{ProductID: account.ProductID, ActorID: "user-1"})

		assert.True(t, shared.IsValidation(err))
		repos.accounts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("negative initial quantity is rejected", func(t *testing.T) {
		svc := newTestService(t, newTestRepos(), nil)
		_, err := svc.OpenAccount(ctx, OpenAccountInput{ProductID: newAccount(0).ProductID, InitialQuantity: -1, ActorID: "user-1"})

		require.Error(t, err)
		assert.Equal(t, "Stock quantity cannot be negative", err.Error())
	})
}
