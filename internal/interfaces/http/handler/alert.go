package handler

import (
	"github.com/gin-gonic/gin"
	inventoryapp "github.com/marketplace/inventory/internal/application/inventory"
)

// AlertHandler serves low-stock alerts and threshold overrides
type AlertHandler struct {
	BaseHandler
	monitor *inventoryapp.LowStockMonitor
}

// NewAlertHandler creates a new AlertHandler
func NewAlertHandler(monitor *inventoryapp.LowStockMonitor) *AlertHandler {
	return &AlertHandler{monitor: monitor}
}

// ListUnacknowledged handles GET /alerts
func (h *AlertHandler) ListUnacknowledged(c *gin.Context) {
	alerts, err := h.monitor.ListUnacknowledgedAlerts(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	List(c, alerts)
}

// Acknowledge handles POST /alerts/:id/acknowledge
func (h *AlertHandler) Acknowledge(c *gin.Context) {
	alertID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	alert, err := h.monitor.AcknowledgeLowStockAlert(c.Request.Context(), alertID, actorID(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, alert)
}

// GetThreshold handles GET /thresholds?product_id=.
// Without a product it returns the global default.
func (h *AlertHandler) GetThreshold(c *gin.Context) {
	productID, ok := h.optionalUUIDQuery(c, "product_id")
	if !ok {
		return
	}
	threshold, err := h.monitor.DescribeThreshold(c.Request.Context(), productID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, threshold)
}

// SetThreshold handles PUT /thresholds/:productId
func (h *AlertHandler) SetThreshold(c *gin.Context) {
	productID, ok := h.uuidParam(c, "productId")
	if !ok {
		return
	}
	var input inventoryapp.SetThresholdInput
	if !bindJSON(c, &input) {
		return
	}
	input.ProductID = productID
	input.ActorID = actorID(c)

	threshold, err := h.monitor.SetLowStockThreshold(c.Request.Context(), input)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, threshold)
}

// ClearThreshold handles DELETE /thresholds/:productId
func (h *AlertHandler) ClearThreshold(c *gin.Context) {
	productID, ok := h.uuidParam(c, "productId")
	if !ok {
		return
	}
	if err := h.monitor.ClearLowStockThreshold(c.Request.Context(), productID, actorID(c)); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}
