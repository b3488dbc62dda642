package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketplace/inventory/internal/domain/inventory"
	"github.com/marketplace/inventory/internal/domain/shared"
	"github.com/marketplace/inventory/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormThresholdRepository implements ThresholdRepository using GORM
type GormThresholdRepository struct {
	db *gorm.DB
}

// NewGormThresholdRepository creates a new GormThresholdRepository
func NewGormThresholdRepository(db *gorm.DB) *GormThresholdRepository {
	return &GormThresholdRepository{db: db}
}

// FindByProduct finds the threshold override of a product
func (r *GormThresholdRepository) FindByProduct(ctx context.Context, productID uuid.UUID) (*inventory.ThresholdOverride, error) {
	var model models.ThresholdOverrideModel
	if err := r.db.WithContext(ctx).First(&model, "product_id = ?", productID).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// Save inserts or replaces the override of a product
func (r *GormThresholdRepository) Save(ctx context.Context, override *inventory.ThresholdOverride) error {
	model := models.ThresholdOverrideModelFromDomain(override)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"threshold", "updated_by", "updated_at"}),
		}).
		Create(model).Error
}

// Delete removes the override so the default threshold applies again
func (r *GormThresholdRepository) Delete(ctx context.Context, productID uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ThresholdOverrideModel{}, "product_id = ?", productID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("No low-stock threshold override for product " + productID.String())
	}
	return nil
}

// Ensure GormThresholdRepository implements ThresholdRepository
var _ inventory.ThresholdRepository = (*GormThresholdRepository)(nil)
