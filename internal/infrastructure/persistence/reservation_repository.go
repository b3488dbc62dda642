package persistence

import (
	"context"

	"github.com/marketplace/inventory/internal/domain/inventory"
	"github.com/marketplace/inventory/internal/domain/shared"
	"github.com/marketplace/inventory/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormReservationRepository implements ReservationRepository using GORM
type GormReservationRepository struct {
	db *gorm.DB
}

// NewGormReservationRepository creates a new GormReservationRepository
func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

// WithTx returns a new repository instance with the given transaction
func (r *GormReservationRepository) WithTx(tx *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: tx}
}

// FindByLine finds the reservation of one order line
func (r *GormReservationRepository) FindByLine(ctx context.Context, orderID string, key inventory.AccountKey) (*inventory.Reservation, error) {
	var model models.ReservationModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ? AND product_id = ? AND variant_id = ?", orderID, key.ProductID, key.VariantID).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByOrder lists every reservation line of an order in creation order
func (r *GormReservationRepository) FindByOrder(ctx context.Context, orderID string) ([]inventory.Reservation, error) {
	var reservationModels []models.ReservationModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&reservationModels).Error; err != nil {
		return nil, err
	}
	reservations := make([]inventory.Reservation, len(reservationModels))
	for i, model := range reservationModels {
		reservations[i] = *model.ToDomain()
	}
	return reservations, nil
}

// Create inserts a reservation line; a line that already exists is a concurrency conflict
func (r *GormReservationRepository) Create(ctx context.Context, reservation *inventory.Reservation) error {
	model := models.ReservationModelFromDomain(reservation)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isDuplicateKey(err) {
			return shared.ErrConcurrencyConflict
		}
		return err
	}
	return nil
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormReservationRepository) SaveWithLock(ctx context.Context, reservation *inventory.Reservation) error {
	result := r.db.WithContext(ctx).
		Model(&models.ReservationModel{}).
		Where("id = ? AND version = ?", reservation.ID, reservation.Version-1).
		Updates(map[string]any{
			"quantity":    reservation.Quantity,
			"status":      string(reservation.Status),
			"resolved_by": reservation.ResolvedBy,
			"resolved_at": reservation.ResolvedAt,
			"version":     reservation.Version,
			"updated_at":  reservation.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Ensure GormReservationRepository implements ReservationRepository
var _ inventory.ReservationRepository = (*GormReservationRepository)(nil)
