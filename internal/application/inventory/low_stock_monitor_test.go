package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/marketplace/inventory/internal/domain/inventory"
	"github.com/marketplace/inventory/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestLowStockMonitor_Check(t *testing.T) {
	ctx := context.Background()

	t.Run("raises an alert at the default threshold", func(t *testing.T) {
		repos := newTestRepos()
		recorder := newCountingRecorder()
		publisher := new(MockEventPublisher)
		account := newAccount(10)
		key := account.Key()
		repos.accounts.On("FindByKey", ctx, key).Return(account, nil)
		repos.thresholds.On("FindByProduct", ctx, key.ProductID).Return(nil, shared.ErrNotFound)
		repos.alerts.On("FindOpenByKey", ctx, key).Return(nil, shared.ErrNotFound)
		repos.alerts.On("Create", ctx, mock.AnythingOfType("*inventory.LowStockAlert")).Return(nil)
		publisher.On("Publish", ctx, mock.Anything).Return(nil).Once()

		monitor := NewLowStockMonitor(repos.scope(), inventory.DefaultLowStockThreshold, zaptest.NewLogger(t))
		monitor.SetRecorder(recorder)
		monitor.SetEventPublisher(publisher)
		alert, err := monitor.Check(ctx, key)

		require.NoError(t, err)
		require.NotNil(t, alert)
		assert.Equal(t, 10, alert.StockAtTrigger)
		assert.Equal(t, 10, alert.ThresholdAtTrigger)
		assert.False(t, alert.Acknowledged)
		assert.Equal(t, 1, recorder.alerts)
		publisher.AssertExpectations(t)
	})

	t.Run("stock above threshold raises nothing", func(t *testing.T) {
		repos := newTestRepos()
		account := newAccount(11)
		key := account.Key()
		repos.accounts.On("FindByKey", ctx, key).Return(account, nil)
		repos.thresholds.On("FindByProduct", ctx, key.ProductID).Return(nil, shared.ErrNotFound)

		monitor := NewLowStockMonitor(repos.scope(), 10, zaptest.NewLogger(t))
		alert, err := monitor.Check(ctx, key)

		require.NoError(t, err)
		assert.Nil(t, alert)
		repos.alerts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("product override replaces the default", func(t *testing.T) {
		repos := newTestRepos()
		account := newAccount(12)
		key := account.Key()
		override, err := inventory.NewThresholdOverride(key.ProductID, 20, "user-1")
		require.NoError(t, err)
		repos.accounts.On("FindByKey", ctx, key).Return(account, nil)
		repos.thresholds.On("FindByProduct", ctx, key.ProductID).Return(override, nil)
		repos.alerts.On("FindOpenByKey", ctx, key).Return(nil, shared.ErrNotFound)
		repos.alerts.On("Create", ctx, mock.Anything).Return(nil)

		monitor := NewLowStockMonitor(repos.scope(), 10, zaptest.NewLogger(t))
		alert, err := monitor.Check(ctx, key)

		require.NoError(t, err)
		require.NotNil(t, alert)
		assert.Equal(t, 20, alert.ThresholdAtTrigger)
	})

	t.Run("an open alert suppresses a new one", func(t *testing.T) {
		repos := newTestRepos()
		account := newAccount(3)
		key := account.Key()
		open, err := inventory.NewLowStockAlert(key, 10, 5)
		require.NoError(t, err)
		repos.accounts.On("FindByKey", ctx, key).Return(account, nil)
		repos.thresholds.On("FindByProduct", ctx, key.ProductID).Return(nil, shared.ErrNotFound)
		repos.alerts.On("FindOpenByKey", ctx, key).Return(open, nil)

		monitor := NewLowStockMonitor(repos.scope(), 10, zaptest.NewLogger(t))
		alert, err := monitor.Check(ctx, key)

		require.NoError(t, err)
		assert.Nil(t, alert)
		repos.alerts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("losing the create race is treated as deduplicated", func(t *testing.T) {
		repos := newTestRepos()
		recorder := newCountingRecorder()
		account := newAccount(3)
		key := account.Key()
		repos.accounts.On("FindByKey", ctx, key).Return(account, nil)
		repos.thresholds.On("FindByProduct", ctx, key.ProductID).Return(nil, shared.ErrNotFound)
		repos.alerts.On("FindOpenByKey", ctx, key).Return(nil, shared.ErrNotFound)
		repos.alerts.On("Create", ctx, mock.Anything).Return(shared.ErrConcurrencyConflict)

		monitor := NewLowStockMonitor(repos.scope(), 10, zaptest.NewLogger(t))
		monitor.SetRecorder(recorder)
		alert, err := monitor.Check(ctx, key)

		require.NoError(t, err)
		assert.Nil(t, alert)
		assert.Equal(t, 0, recorder.alerts)
	})

	t.Run("store failure is returned", func(t *testing.T) {
		repos := newTestRepos()
		account := newAccount(3)
		key := account.Key()
		repos.accounts.On("FindByKey", ctx, key).Return(account, nil)
		repos.thresholds.On("FindByProduct", ctx, key.ProductID).Return(nil, errors.New("connection reset"))

		monitor := NewLowStockMonitor(repos.scope(), 10, zaptest.NewLogger(t))
		_, err := monitor.Check(ctx, key)

		assert.EqualError(t, err, "connection reset")
	})
}

func TestLowStockMonitor_Acknowledge(t *testing.T) {
	ctx := context.Background()

	t.Run("acknowledges an open alert", func(t *testing.T) {
		repos := newTestRepos()
		alert, err := inventory.NewLowStockAlert(inventory.AccountKey{ProductID: uuid.New()}, 10, 2)
		require.NoError(t, err)
		repos.alerts.On("FindByID", ctx, alert.ID).Return(alert, nil)
		repos.alerts.On("Save", ctx, alert).Return(nil)

		monitor := NewLowStockMonitor(repos.scope(), 10, zaptest.NewLogger(t))
		resp, err := monitor.AcknowledgeLowStockAlert(ctx, alert.ID, "user-9")

		require.NoError(t, err)
		assert.True(t, resp.Acknowledged)
		require.NotNil(t, resp.AcknowledgedBy)
		assert.Equal(t, "user-9", *resp.AcknowledgedBy)
		assert.NotNil(t, resp.AcknowledgedAt)
	})

	t.Run("unknown alert is NotFound", func(t *testing.T) {
		repos := newTestRepos()
		id := uuid.New()
		repos.alerts.On("FindByID", ctx, id).Return(nil, shared.ErrNotFound)

		monitor := NewLowStockMonitor(repos.scope(), 10, zaptest.NewLogger(t))
		_, err := monitor.AcknowledgeLowStockAlert(ctx, id, "user-9")

		assert.True(t, shared.IsNotFound(err))
	})

	t.Run("second acknowledgement is rejected", func(t *testing.T) {
		repos := newTestRepos()
		alert, err := inventory.NewLowStockAlert(inventory.AccountKey{ProductID: uuid.New()}, 10, 2)
		require.NoError(t, err)
		require.NoError(t, alert.Acknowledge("user-1"))
		repos.alerts.On("FindByID", ctx, alert.ID).Return(alert, nil)

		monitor := NewLowStockMonitor(repos.scope(), 10, zaptest.NewLogger(t))
		_, err = monitor.AcknowledgeLowStockAlert(ctx, alert.ID, "user-9")

		assert.True(t, shared.IsValidation(err))
		repos.alerts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestLowStockMonitor_Thresholds(t *testing.T) {
	ctx := context.Background()

	t.Run("nil product returns the global default", func(t *testing.T) {
		monitor := NewLowStockMonitor(newTestRepos().scope(), 7, zaptest.NewLogger(t))
		threshold, err := monitor.GetLowStockThreshold(ctx, nil)

		require.NoError(t, err)
		assert.Equal(t, 7, threshold)
	})

	t.Run("negative default falls back to ten", func(t *testing.T) {
		monitor := NewLowStockMonitor(newTestRepos().scope(), -1, zaptest.NewLogger(t))
		threshold, err := monitor.GetLowStockThreshold(ctx, nil)

		require.NoError(t, err)
		assert.Equal(t, inventory.DefaultLowStockThreshold, threshold)
	})

	t.Run("describes the source of a product threshold", func(t *testing.T) {
		repos := newTestRepos()
		productID := uuid.New()
		override, err := inventory.NewThresholdOverride(productID, 3, "user-1")
		require.NoError(t, err)
		repos.thresholds.On("FindByProduct", ctx, productID).Return(override, nil)

		monitor := NewLowStockMonitor(repos.scope(), 10, zaptest.NewLogger(t))
		resp, err := monitor.DescribeThreshold(ctx, &productID)

		require.NoError(t, err)
		assert.Equal(t, 3, resp.Threshold)
		assert.Equal(t, ThresholdSourceOverride, resp.Source)
	})

	t.Run("set rejects a negative threshold", func(t *testing.T) {
		monitor := NewLowStockMonitor(newTestRepos().scope(), 10, zaptest.NewLogger(t))
		_, err := monitor.SetLowStockThreshold(ctx, SetThresholdInput{ProductID: uuid.New(), Threshold: -2, ActorID: "user-1"})

		assert.True(t, shared.IsValidation(err))
	})

	t.Run("set stores the override", func(t *testing.T) {
		repos := newTestRepos()
		productID := uuid.New()
		repos.thresholds.On("Save", ctx, mock.MatchedBy(func(o *inventory.ThresholdOverride) bool {
			return o.ProductID == productID && o.Threshold == 25 && o.UpdatedBy == "user-1"
		})).Return(nil)

		monitor := NewLowStockMonitor(repos.scope(), 10, zaptest.NewLogger(t))
		resp, err := monitor.SetLowStockThreshold(ctx, SetThresholdInput{ProductID: productID, Threshold: 25, ActorID: "user-1"})

		require.NoError(t, err)
		assert.Equal(t, 25, resp.Threshold)
		repos.thresholds.AssertExpectations(t)
	})

	t.Run("clear removes the override", func(t *testing.T) {
		repos := newTestRepos()
		productID := uuid.New()
		repos.thresholds.On("Delete", ctx, productID).Return(nil)

		monitor := NewLowStockMonitor(repos.scope(), 10, zaptest.NewLogger(t))
		require.NoError(t, monitor.ClearLowStockThreshold(ctx, productID, "user-1"))
		repos.thresholds.AssertExpectations(t)
	})
}
