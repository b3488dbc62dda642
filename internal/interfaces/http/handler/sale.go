package handler

import (
	"github.com/gin-gonic/gin"
	inventoryapp "github.com/marketplace/inventory/internal/application/inventory"
)

// SaleHandler serves point-of-sale carts
type SaleHandler struct {
	BaseHandler
	deductions *inventoryapp.DeductionService
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(deductions *inventoryapp.DeductionService) *SaleHandler {
	return &SaleHandler{deductions: deductions}
}

// RecordSale handles POST /sales. Every line is deducted or none is.
func (h *SaleHandler) RecordSale(c *gin.Context) {
	var input inventoryapp.DeductImmediateInput
	if !bindJSON(c, &input) {
		return
	}
	input.ActorID = actorID(c)

	sale, err := h.deductions.DeductImmediate(c.Request.Context(), input)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, sale)
}
