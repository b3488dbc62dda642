package router

import (
	"github.com/gin-gonic/gin"
	"github.com/marketplace/inventory/internal/interfaces/http/handler"
)

// InventoryHandlers groups the handlers mounted under /inventory
type InventoryHandlers struct {
	Stock        *handler.StockHandler
	Reservations *handler.ReservationHandler
	Sales        *handler.SaleHandler
	Ledger       *handler.LedgerHandler
	Alerts       *handler.AlertHandler
}

// NewInventoryRoutes builds the inventory route group.
// Idempotency guards the point-of-sale and reservation endpoints when non-nil.
func NewInventoryRoutes(h InventoryHandlers, idempotency gin.HandlerFunc) *DomainGroup {
	guard := func(next gin.HandlerFunc) []gin.HandlerFunc {
		if idempotency == nil {
			return []gin.HandlerFunc{next}
		}
		return []gin.HandlerFunc{idempotency, next}
	}

	routes := NewDomainGroup("inventory", "/inventory")

	routes.POST("/accounts", h.Stock.OpenAccount)
	routes.GET("/accounts/:productId", h.Stock.GetAccounts)
	routes.POST("/stock/add", guard(h.Stock.AddStock)...)
	routes.POST("/stock/deduct", guard(h.Stock.DeductStock)...)
	routes.POST("/stock/adjust", guard(h.Stock.AdjustStock)...)

	routes.POST("/reservations", guard(h.Reservations.Reserve)...)
	routes.POST("/reservations/release", guard(h.Reservations.Release)...)
	routes.POST("/orders/:orderId/fulfill", h.Reservations.Fulfill)
	routes.GET("/orders/:orderId/reservations", h.Reservations.ListByOrder)

	routes.POST("/sales", guard(h.Sales.RecordSale)...)

	ledger := routes.Group("ledger", "/ledger")
	ledger.GET("/recent", h.Ledger.Recent)
	ledger.GET("/products/:productId", h.Ledger.ByProduct)
	ledger.GET("/products/:productId/reconcile", h.Ledger.Reconcile)

	routes.GET("/alerts", h.Alerts.ListUnacknowledged)
	routes.POST("/alerts/:id/acknowledge", h.Alerts.Acknowledge)
	routes.GET("/thresholds", h.Alerts.GetThreshold)
	routes.PUT("/thresholds/:productId", h.Alerts.SetThreshold)
	routes.DELETE("/thresholds/:productId", h.Alerts.ClearThreshold)

	return routes
}
