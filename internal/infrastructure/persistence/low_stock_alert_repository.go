package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketplace/inventory/internal/domain/inventory"
	"github.com/marketplace/inventory/internal/domain/shared"
	"github.com/marketplace/inventory/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormLowStockAlertRepository implements LowStockAlertRepository using GORM
type GormLowStockAlertRepository struct {
	db *gorm.DB
}

// NewGormLowStockAlertRepository creates a new GormLowStockAlertRepository
func NewGormLowStockAlertRepository(db *gorm.DB) *GormLowStockAlertRepository {
	return &GormLowStockAlertRepository{db: db}
}

// WithTx returns a new repository instance with the given transaction
func (r *GormLowStockAlertRepository) WithTx(tx *gorm.DB) *GormLowStockAlertRepository {
	return &GormLowStockAlertRepository{db: tx}
}

// FindByID finds an alert by its ID
func (r *GormLowStockAlertRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.LowStockAlert, error) {
	var model models.LowStockAlertModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindOpenByKey finds the unacknowledged alert of an account
func (r *GormLowStockAlertRepository) FindOpenByKey(ctx context.Context, key inventory.AccountKey) (*inventory.LowStockAlert, error) {
	var model models.LowStockAlertModel
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND variant_id = ? AND acknowledged = ?", key.ProductID, key.VariantID, false).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindOpen lists unacknowledged alerts, newest first
func (r *GormLowStockAlertRepository) FindOpen(ctx context.Context) ([]inventory.LowStockAlert, error) {
	var alertModels []models.LowStockAlertModel
	if err := r.db.WithContext(ctx).
		Where("acknowledged = ?", false).
		Order("created_at DESC").
		Find(&alertModels).Error; err != nil {
		return nil, err
	}
	alerts := make([]inventory.LowStockAlert, len(alertModels))
	for i, model := range alertModels {
		alerts[i] = *model.ToDomain()
	}
	return alerts, nil
}

// Create inserts an alert. The partial unique index rejects a second open alert
// for the same account, reported as a concurrency conflict.
func (r *GormLowStockAlertRepository) Create(ctx context.Context, alert *inventory.LowStockAlert) error {
	if _, err := r.FindOpenByKey(ctx, alert.Key()); err == nil {
		return shared.ErrConcurrencyConflict
	} else if !shared.IsNotFound(err) {
		return err
	}
	model := models.LowStockAlertModelFromDomain(alert)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isDuplicateKey(err) {
			return shared.ErrConcurrencyConflict
		}
		return err
	}
	return nil
}

// Save updates the acknowledgement state of an alert
func (r *GormLowStockAlertRepository) Save(ctx context.Context, alert *inventory.LowStockAlert) error {
	result := r.db.WithContext(ctx).
		Model(&models.LowStockAlertModel{}).
		Where("id = ?", alert.ID).
		Updates(map[string]any{
			"acknowledged":    alert.Acknowledged,
			"acknowledged_by": alert.AcknowledgedBy,
			"acknowledged_at": alert.AcknowledgedAt,
			"updated_at":      alert.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormLowStockAlertRepository implements LowStockAlertRepository
var _ inventory.LowStockAlertRepository = (*GormLowStockAlertRepository)(nil)
