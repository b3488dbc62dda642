package inventory

import (
	"testing"

	"github.com/google/uuid"
	"github.com/marketplace/inventory/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestAccount(t *testing.T, quantity int) *StockAccount {
	t.Helper()
	account, err := NewStockAccount(AccountKey{ProductID: uuid.New()})
	require.NoError(t, err)
	account.Quantity = quantity
	return account
}

func TestNewStockAccount(t *testing.T) {
	t.Run("opens empty account at version 1", func(t *testing.T) {
		variantID := uuid.New()
		key := NewAccountKey(uuid.New(), &variantID)

		account, err := NewStockAccount(key)

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, account.ID)
		assert.Equal(t, key, account.Key())
		assert.Equal(t, 0, account.Quantity)
		assert.Equal(t, 1, account.Version)
	})

	t.Run("fails with nil product ID", func(t *testing.T) {
		account, err := NewStockAccount(AccountKey{})

		require.Error(t, err)
		assert.Nil(t, account)
		assert.True(t, shared.IsValidation(err))
	})
}

func TestAccountKey(t *testing.T) {
	productID := uuid.New()

	plain := NewAccountKey(productID, nil)
	assert.False(t, plain.HasVariant())
	assert.Nil(t, plain.VariantPtr())
	assert.Equal(t, productID.String(), plain.String())

	variantID := uuid.New()
	withVariant := NewAccountKey(productID, &variantID)
	assert.True(t, withVariant.HasVariant())
	require.NotNil(t, withVariant.VariantPtr())
	assert.Equal(t, variantID, *withVariant.VariantPtr())
	assert.Equal(t, productID.String()+"/"+variantID.String(), withVariant.String())
}

func TestStockAccount_Deduct(t *testing.T) {
	t.Run("deducts and returns a DEDUCTION entry", func(t *testing.T) {
		account := createTestAccount(t, 15)

		entry, err := account.Deduct(7, ReasonOfflineSale, "order-1", "cashier-1")

		require.NoError(t, err)
		assert.Equal(t, 8, account.Quantity)
		assert.Equal(t, 2, account.Version)
		assert.Equal(t, ChangeTypeDeduction, entry.ChangeType)
		assert.Equal(t, 15, entry.QuantityBefore)
		assert.Equal(t, -7, entry.QuantityChange)
		assert.Equal(t, 8, entry.QuantityAfter)
		assert.Equal(t, "order-1", entry.ReferenceID)
		assert.Equal(t, "cashier-1", entry.ActorID)
		assert.True(t, entry.IsBalanced())
		require.Len(t, account.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeStockChanged, account.GetDomainEvents()[0].EventType())
	})

	t.Run("refuses the order reservation reasons", func(t *testing.T) {
		account := createTestAccount(t, 5)

		for _, reason := range []Reason{ReasonOrderReservation, ReasonOrderCancellation} {
			entry, err := account.Deduct(3, reason, "order-2", "checkout")

			require.Error(t, err, reason.String())
			assert.Nil(t, entry)
			assert.True(t, shared.IsValidation(err))
		}
		assert.Equal(t, 5, account.Quantity)
		assert.Equal(t, 1, account.Version)
	})

	t.Run("insufficient stock leaves account untouched", func(t *testing.T) {
		account := createTestAccount(t, 7)

		entry, err := account.Deduct(10, ReasonOfflineSale, "", "cashier-1")

		require.Error(t, err)
		assert.Nil(t, entry)
		assert.True(t, shared.IsInsufficientStock(err))
		assert.Equal(t, 7, account.Quantity)
		assert.Equal(t, 1, account.Version)
		assert.Empty(t, account.GetDomainEvents())
	})

	t.Run("deducting exactly the stock reaches zero", func(t *testing.T) {
		account := createTestAccount(t, 4)

		entry, err := account.Deduct(4, ReasonOfflineSale, "", "cashier-1")

		require.NoError(t, err)
		assert.Equal(t, 0, entry.QuantityAfter)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		account := createTestAccount(t, 4)

		_, err := account.Deduct(0, ReasonOfflineSale, "", "cashier-1")
		assert.True(t, shared.IsValidation(err))

		_, err = account.Deduct(-1, ReasonOfflineSale, "", "cashier-1")
		assert.True(t, shared.IsValidation(err))
	})

	t.Run("rejects missing actor", func(t *testing.T) {
		account := createTestAccount(t, 4)

		_, err := account.Deduct(1, ReasonOfflineSale, "", " ")

		assert.True(t, shared.IsValidation(err))
		assert.Equal(t, 4, account.Quantity)
	})
}

func TestStockAccount_HoldAndRestore(t *testing.T) {
	account := createTestAccount(t, 5)

	held, err := account.Hold(3, "order-2", "checkout")
	require.NoError(t, err)
	assert.Equal(t, ChangeTypeReservation, held.ChangeType)
	assert.Equal(t, ReasonOrderReservation, held.Reason)
	assert.Equal(t, "order-2", held.ReferenceID)
	assert.Equal(t, 2, account.Quantity)

	_, err = account.Hold(3, "order-3", "checkout")
	assert.True(t, shared.IsInsufficientStock(err))

	restored, err := account.Restore(3, "order-2", "checkout")
	require.NoError(t, err)
	assert.Equal(t, ChangeTypeRelease, restored.ChangeType)
	assert.Equal(t, ReasonOrderCancellation, restored.Reason)
	assert.Equal(t, 5, account.Quantity)
}

func TestStockAccount_Add(t *testing.T) {
	t.Run("adds and returns an ADDITION entry", func(t *testing.T) {
		account := createTestAccount(t, 2)

		entry, err := account.Add(10, ReasonRestock, "po-1", "seller-1")

		require.NoError(t, err)
		assert.Equal(t, 12, account.Quantity)
		assert.Equal(t, ChangeTypeAddition, entry.ChangeType)
		assert.Equal(t, 10, entry.QuantityChange)
	})

	t.Run("refuses the order reservation reasons", func(t *testing.T) {
		account := createTestAccount(t, 2)

		for _, reason := range []Reason{ReasonOrderReservation, ReasonOrderCancellation} {
			_, err := account.Add(3, reason, "never-reserved", "checkout")

			assert.True(t, shared.IsValidation(err), reason.String())
		}
		assert.Equal(t, 2, account.Quantity)
		assert.Empty(t, account.GetDomainEvents())
	})

	t.Run("rejects blank reason", func(t *testing.T) {
		account := createTestAccount(t, 2)

		_, err := account.Add(3, "", "", "seller-1")

		assert.True(t, shared.IsValidation(err))
		assert.Equal(t, 2, account.Quantity)
	})
}

func TestStockAccount_Adjust(t *testing.T) {
	t.Run("notes are checked before the quantity", func(t *testing.T) {
		account := createTestAccount(t, 20)

		_, err := account.Adjust(-5, ReasonManualAdjustment, "", "admin")

		require.Error(t, err)
		assert.Equal(t, "Adjustment notes are required", err.Error())
	})

	t.Run("rejects negative target", func(t *testing.T) {
		account := createTestAccount(t, 20)

		_, err := account.Adjust(-5, ReasonManualAdjustment, "recount", "admin")

		require.Error(t, err)
		assert.Equal(t, "Stock quantity cannot be negative", err.Error())
		assert.Equal(t, 20, account.Quantity)
	})

	t.Run("records the signed difference and prefixed notes", func(t *testing.T) {
		account := createTestAccount(t, 20)

		entry, err := account.Adjust(12, ReasonManualAdjustment, "  damaged in storage ", "admin")

		require.NoError(t, err)
		assert.Equal(t, 12, account.Quantity)
		assert.Equal(t, ChangeTypeAdjustment, entry.ChangeType)
		assert.Equal(t, -8, entry.QuantityChange)
		assert.Equal(t, "MANUAL_ADJUSTMENT: damaged in storage", entry.Notes)
	})

	t.Run("adjusting to the same quantity records a zero change", func(t *testing.T) {
		account := createTestAccount(t, 9)

		entry, err := account.Adjust(9, ReasonPhysicalCount, "count confirmed", "admin")

		require.NoError(t, err)
		assert.Equal(t, 0, entry.QuantityChange)
		assert.Equal(t, 2, account.Version)
	})
}
