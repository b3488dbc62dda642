package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/marketplace/inventory/internal/domain/inventory"
	"github.com/marketplace/inventory/internal/domain/shared"
	"go.uber.org/zap"
)

// DeductionService deducts point-of-sale carts. A cart is validated in full before
// any line is written, so it is either deducted completely or not at all.
type DeductionService struct {
	stock  *StockAccountService
	logger *zap.Logger
}

// NewDeductionService creates a new DeductionService
func NewDeductionService(stock *StockAccountService, logger *zap.Logger) *DeductionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeductionService{stock: stock, logger: logger}
}

// DeductImmediate deducts every line with reason OFFLINE_SALE and the order as reference.
// One ledger entry is written per line.
func (s *DeductionService) DeductImmediate(ctx context.Context, input DeductImmediateInput) (*SaleResponse, error) {
	if err := requireActor(input.ActorID); err != nil {
		return nil, err
	}
	orderID := strings.TrimSpace(input.OrderID)
	if orderID == "" {
		return nil, shared.NewValidationError("Order ID is required")
	}
	if len(input.Lines) == 0 {
		return nil, shared.NewValidationError("At least one sale line is required")
	}

	keys := make([]inventory.AccountKey, len(input.Lines))
	demand := make(map[inventory.AccountKey]int, len(input.Lines))
	var order []inventory.AccountKey
	for i, line := range input.Lines {
		key := inventory.NewAccountKey(line.ProductID, line.VariantID)
		if err := key.Validate(); err != nil {
			return nil, shared.NewValidationError(fmt.Sprintf("Line %d: %s", i+1, err.Error()))
		}
		if line.Quantity <= 0 {
			return nil, shared.NewValidationError(fmt.Sprintf("Line %d: Quantity must be greater than zero", i+1))
		}
		keys[i] = key
		if _, seen := demand[key]; !seen {
			order = append(order, key)
		}
		demand[key] += line.Quantity
	}

	uow, err := s.stock.runUnit(ctx, "deduct_immediate", func(ctx context.Context, repos TransactionalRepositories, uow *unitOfWork) error {
		accounts := make(map[inventory.AccountKey]*inventory.StockAccount, len(order))
		var shortages []string
		for _, key := range order {
			account, err := loadAccount(ctx, repos, key)
			if err != nil {
				return err
			}
			accounts[key] = account
			if account.Quantity < demand[key] {
				shortages = append(shortages, fmt.Sprintf("%s available %d, requested %d", key, account.Quantity, demand[key]))
			}
		}
		if len(shortages) > 0 {
			return shared.NewInsufficientStockError("Insufficient stock: " + strings.Join(shortages, "; "))
		}

		for i, line := range input.Lines {
			if err := uow.deduct(ctx, repos, accounts[keys[i]], line.Quantity,
				inventory.ReasonOfflineSale, orderID, input.ActorID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Info("offline sale rejected",
			zap.String("order_id", orderID),
			zap.Int("lines", len(input.Lines)),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("offline sale deducted",
		zap.String("order_id", orderID),
		zap.Int("lines", len(input.Lines)),
	)
	return &SaleResponse{OrderID: orderID, Entries: uow.responses()}, nil
}
