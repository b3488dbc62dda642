package inventory

import (
	"context"
	"strings"

	"github.com/marketplace/inventory/internal/domain/inventory"
	"github.com/marketplace/inventory/internal/domain/shared"
)

// AdjustmentService is the operator entry point for stock corrections: physical counts,
// damage write-offs and found inventory. Every correction is a MANUAL_ADJUSTMENT and
// must carry notes.
type AdjustmentService struct {
	stock *StockAccountService
}

// NewAdjustmentService creates a new AdjustmentService
func NewAdjustmentService(stock *StockAccountService) *AdjustmentService {
	return &AdjustmentService{stock: stock}
}

// AdjustStock sets the on-hand quantity of an account to input.NewQuantity
func (s *AdjustmentService) AdjustStock(ctx context.Context, input ManualAdjustmentInput) (*LedgerEntryResponse, error) {
	if strings.TrimSpace(input.Notes) == "" {
		return nil, shared.NewValidationError("Adjustment notes are required")
	}
	return s.stock.Adjust(ctx, AdjustStockInput{
		ProductID:   input.ProductID,
		VariantID:   input.VariantID,
		NewQuantity: input.NewQuantity,
		Reason:      inventory.ReasonManualAdjustment,
		Notes:       input.Notes,
		ActorID:     input.ActorID,
	})
}
