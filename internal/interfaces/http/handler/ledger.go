package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	inventoryapp "github.com/marketplace/inventory/internal/application/inventory"
	"github.com/marketplace/inventory/internal/domain/inventory"
	"github.com/marketplace/inventory/internal/interfaces/http/dto"
)

// LedgerHandler serves the read side of the stock ledger
type LedgerHandler struct {
	BaseHandler
	query *inventoryapp.QueryService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(query *inventoryapp.QueryService) *LedgerHandler {
	return &LedgerHandler{query: query}
}

// ByProduct handles GET /ledger/products/:productId
func (h *LedgerHandler) ByProduct(c *gin.Context) {
	productID, ok := h.uuidParam(c, "productId")
	if !ok {
		return
	}
	entries, err := h.query.GetLedgerByProduct(c.Request.Context(), productID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	List(c, entries)
}

// Recent handles GET /ledger/recent?limit=
func (h *LedgerHandler) Recent(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.Error(c, http.StatusBadRequest, dto.ErrCodeValidation, "limit must be an integer")
			return
		}
		limit = n
	}
	entries, err := h.query.GetRecentLedgerEntries(c.Request.Context(), limit)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	List(c, entries)
}

// Reconcile handles GET /ledger/products/:productId/reconcile?variant_id=
func (h *LedgerHandler) Reconcile(c *gin.Context) {
	productID, ok := h.uuidParam(c, "productId")
	if !ok {
		return
	}
	variantID, ok := h.optionalUUIDQuery(c, "variant_id")
	if !ok {
		return
	}
	result, err := h.query.Reconcile(c.Request.Context(), inventory.NewAccountKey(productID, variantID))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}
