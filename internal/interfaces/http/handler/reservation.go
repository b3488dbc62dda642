package handler

import (
	"github.com/gin-gonic/gin"
	inventoryapp "github.com/marketplace/inventory/internal/application/inventory"
)

// ReservationHandler serves the order reservation lifecycle
type ReservationHandler struct {
	BaseHandler
	reservations *inventoryapp.ReservationService
}

// NewReservationHandler creates a new ReservationHandler
func NewReservationHandler(reservations *inventoryapp.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservations: reservations}
}

// Reserve handles POST /reservations
func (h *ReservationHandler) Reserve(c *gin.Context) {
	var input inventoryapp.ReserveInput
	if !bindJSON(c, &input) {
		return
	}
	input.ActorID = actorID(c)

	result, err := h.reservations.Reserve(c.Request.Context(), input)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, result)
}

// Release handles POST /reservations/release
func (h *ReservationHandler) Release(c *gin.Context) {
	var input inventoryapp.ReleaseInput
	if !bindJSON(c, &input) {
		return
	}
	input.ActorID = actorID(c)

	result, err := h.reservations.Release(c.Request.Context(), input)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

// Fulfill handles POST /orders/:orderId/fulfill
func (h *ReservationHandler) Fulfill(c *gin.Context) {
	lines, err := h.reservations.Fulfill(c.Request.Context(), c.Param("orderId"), actorID(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	List(c, lines)
}

// ListByOrder handles GET /orders/:orderId/reservations
func (h *ReservationHandler) ListByOrder(c *gin.Context) {
	lines, err := h.reservations.ListByOrder(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	List(c, lines)
}
