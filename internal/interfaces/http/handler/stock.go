package handler

import (
	"github.com/gin-gonic/gin"
	inventoryapp "github.com/marketplace/inventory/internal/application/inventory"
	"github.com/marketplace/inventory/internal/domain/inventory"
)

// StockHandler serves account creation, lookups and single-line stock mutations
type StockHandler struct {
	BaseHandler
	stock       *inventoryapp.StockAccountService
	adjustments *inventoryapp.AdjustmentService
	query       *inventoryapp.QueryService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(stock *inventoryapp.StockAccountService, adjustments *inventoryapp.AdjustmentService, query *inventoryapp.QueryService) *StockHandler {
	return &StockHandler{stock: stock, adjustments: adjustments, query: query}
}

// OpenAccount handles POST /accounts
func (h *StockHandler) OpenAccount(c *gin.Context) {
	var input inventoryapp.OpenAccountInput
	if !bindJSON(c, &input) {
		return
	}
	input.ActorID = actorID(c)

	account, err := h.stock.OpenAccount(c.Request.Context(), input)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, account)
}

// GetAccounts handles GET /accounts/:productId.
// With ?variant_id= it returns that single account, otherwise every account of the product.
func (h *StockHandler) GetAccounts(c *gin.Context) {
	productID, ok := h.uuidParam(c, "productId")
	if !ok {
		return
	}
	variantID, ok := h.optionalUUIDQuery(c, "variant_id")
	if !ok {
		return
	}

	if variantID != nil {
		account, err := h.query.GetStock(c.Request.Context(), inventory.NewAccountKey(productID, variantID))
		if err != nil {
			h.HandleDomainError(c, err)
			return
		}
		h.Success(c, account)
		return
	}

	accounts, err := h.query.ListAccountsByProduct(c.Request.Context(), productID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	List(c, accounts)
}

// AddStock handles POST /stock/add
func (h *StockHandler) AddStock(c *gin.Context) {
	var input inventoryapp.AddStockInput
	if !bindJSON(c, &input) {
		return
	}
	input.ActorID = actorID(c)

	entry, err := h.stock.Add(c.Request.Context(), input)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, entry)
}

// DeductStock handles POST /stock/deduct
func (h *StockHandler) DeductStock(c *gin.Context) {
	var input inventoryapp.DeductStockInput
	if !bindJSON(c, &input) {
		return
	}
	input.ActorID = actorID(c)

	entry, err := h.stock.Deduct(c.Request.Context(), input)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, entry)
}

// AdjustStock handles POST /stock/adjust. The reason is always MANUAL_ADJUSTMENT.
func (h *StockHandler) AdjustStock(c *gin.Context) {
	var input inventoryapp.ManualAdjustmentInput
	if !bindJSON(c, &input) {
		return
	}
	input.ActorID = actorID(c)

	entry, err := h.adjustments.AdjustStock(c.Request.Context(), input)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, entry)
}
