package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketplace/inventory/internal/domain/inventory"
	"github.com/marketplace/inventory/internal/domain/shared"
	"github.com/marketplace/inventory/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormStockAccountRepository implements StockAccountRepository using GORM
type GormStockAccountRepository struct {
	db *gorm.DB
}

// NewGormStockAccountRepository creates a new GormStockAccountRepository
func NewGormStockAccountRepository(db *gorm.DB) *GormStockAccountRepository {
	return &GormStockAccountRepository{db: db}
}

// WithTx returns a new repository instance with the given transaction
func (r *GormStockAccountRepository) WithTx(tx *gorm.DB) *GormStockAccountRepository {
	return &GormStockAccountRepository{db: tx}
}

// FindByKey finds the account of a product or variant
func (r *GormStockAccountRepository) FindByKey(ctx context.Context, key inventory.AccountKey) (*inventory.StockAccount, error) {
	var model models.StockAccountModel
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND variant_id = ?", key.ProductID, key.VariantID).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByProduct lists the accounts of a product, the plain account first
func (r *GormStockAccountRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]inventory.StockAccount, error) {
	var accountModels []models.StockAccountModel
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("variant_id ASC").
		Find(&accountModels).Error; err != nil {
		return nil, err
	}
	accounts := make([]inventory.StockAccount, len(accountModels))
	for i, model := range accountModels {
		accounts[i] = *model.ToDomain()
	}
	return accounts, nil
}

// Create inserts a new account
func (r *GormStockAccountRepository) Create(ctx context.Context, account *inventory.StockAccount) error {
	model := models.StockAccountModelFromDomain(account)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isDuplicateKey(err) {
			return shared.NewValidationError("Stock account already exists for " + account.Key().String())
		}
		return err
	}
	return nil
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormStockAccountRepository) SaveWithLock(ctx context.Context, account *inventory.StockAccount) error {
	result := r.db.WithContext(ctx).
		Model(&models.StockAccountModel{}).
		Where("id = ? AND version = ?", account.ID, account.Version-1).
		Updates(map[string]any{
			"quantity":   account.Quantity,
			"version":    account.Version,
			"updated_at": account.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Ensure GormStockAccountRepository implements StockAccountRepository
var _ inventory.StockAccountRepository = (*GormStockAccountRepository)(nil)
