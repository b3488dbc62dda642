package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketplace/inventory/internal/domain/inventory"
	"github.com/marketplace/inventory/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormLedgerRepository implements LedgerRepository using GORM.
// It only inserts and reads; ledger rows are never updated or deleted.
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GormLedgerRepository
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// WithTx returns a new repository instance with the given transaction
func (r *GormLedgerRepository) WithTx(tx *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: tx}
}

// Append inserts entry and copies the database assigned sequence back onto it
func (r *GormLedgerRepository) Append(ctx context.Context, entry *inventory.LedgerEntry) error {
	model := models.LedgerEntryModelFromDomain(entry)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	entry.Sequence = model.Sequence
	return nil
}

// FindByProduct returns every entry of a product, oldest first
func (r *GormLedgerRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]inventory.LedgerEntry, error) {
	return r.find(r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("sequence ASC"))
}

// FindByAccount returns the entries of one account, oldest first
func (r *GormLedgerRepository) FindByAccount(ctx context.Context, key inventory.AccountKey) ([]inventory.LedgerEntry, error) {
	return r.find(r.db.WithContext(ctx).
		Where("product_id = ? AND variant_id = ?", key.ProductID, key.VariantID).
		Order("sequence ASC"))
}

// FindRecent returns at most limit entries, newest first
func (r *GormLedgerRepository) FindRecent(ctx context.Context, limit int) ([]inventory.LedgerEntry, error) {
	return r.find(r.db.WithContext(ctx).
		Order("sequence DESC").
		Limit(limit))
}

func (r *GormLedgerRepository) find(query *gorm.DB) ([]inventory.LedgerEntry, error) {
	var entryModels []models.LedgerEntryModel
	if err := query.Find(&entryModels).Error; err != nil {
		return nil, err
	}
	entries := make([]inventory.LedgerEntry, len(entryModels))
	for i, model := range entryModels {
		entries[i] = *model.ToDomain()
	}
	return entries, nil
}

// Ensure GormLedgerRepository implements LedgerRepository
var _ inventory.LedgerRepository = (*GormLedgerRepository)(nil)
