package inventory

import (
	"testing"

	"github.com/google/uuid"
	"github.com/marketplace/inventory/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestReservation(t *testing.T) *Reservation {
	t.Helper()
	r, err := NewReservation("order-1", AccountKey{ProductID: uuid.New()}, 3, "checkout")
	require.NoError(t, err)
	return r
}

func TestNewReservation(t *testing.T) {
	t.Run("starts RESERVED", func(t *testing.T) {
		r := createTestReservation(t)

		assert.Equal(t, ReservationStatusReserved, r.Status)
		assert.True(t, r.IsActive())
		assert.Equal(t, "checkout", r.ReservedBy)
		assert.Nil(t, r.ResolvedAt)
	})

	t.Run("validates input", func(t *testing.T) {
		key := AccountKey{ProductID: uuid.New()}

		_, err := NewReservation(" ", key, 1, "a")
		assert.True(t, shared.IsValidation(err))

		_, err = NewReservation("o", AccountKey{}, 1, "a")
		assert.True(t, shared.IsValidation(err))

		_, err = NewReservation("o", key, 0, "a")
		assert.True(t, shared.IsValidation(err))

		_, err = NewReservation("o", key, 1, "")
		assert.True(t, shared.IsValidation(err))
	})
}

func TestReservation_Release(t *testing.T) {
	t.Run("moves to RELEASED", func(t *testing.T) {
		r := createTestReservation(t)

		require.NoError(t, r.Release(3, "support"))

		assert.Equal(t, ReservationStatusReleased, r.Status)
		assert.Equal(t, "support", r.ResolvedBy)
		assert.NotNil(t, r.ResolvedAt)
		assert.True(t, r.Status.IsTerminal())
		assert.Equal(t, 2, r.Version)
	})

	t.Run("second release is not found", func(t *testing.T) {
		r := createTestReservation(t)
		require.NoError(t, r.Release(3, "support"))

		err := r.Release(3, "support")

		assert.ErrorIs(t, err, ErrNoActiveReservation)
		assert.True(t, shared.IsNotFound(err))
	})

	t.Run("quantity must match", func(t *testing.T) {
		r := createTestReservation(t)

		err := r.Release(2, "support")

		assert.True(t, shared.IsValidation(err))
		assert.True(t, r.IsActive())
	})
}

func TestReservation_Fulfill(t *testing.T) {
	r := createTestReservation(t)

	require.NoError(t, r.Fulfill("warehouse"))
	assert.Equal(t, ReservationStatusFulfilled, r.Status)

	assert.True(t, shared.IsNotFound(r.Fulfill("warehouse")))
	assert.True(t, shared.IsNotFound(r.Release(3, "support")))
}
