package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amish-harsoor/inventory/internal/ledger"
	"github.com/amish-harsoor/inventory/internal/models"
)

// ========== Reservation Handlers ==========

// CreateReservation places a hold against available stock
func (h *Handler) CreateReservation(c *gin.Context) {
	var req models.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err.Error())
		return
	}

	reservation, err := h.ledger.Reserve(c.Request.Context(), ledger.ReserveInput{
		ProductID:      req.ProductID,
		LocationID:     req.LocationID,
		Quantity:       req.QuantityReserved,
		ReferenceID:    req.ReferenceID,
		ExpirationTime: req.ExpirationTime,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.ReservationResponse{
		Success: true,
		Data:    reservation,
	})
}

// ListReservations retrieves reservations with an optional status filter
func (h *Handler) ListReservations(c *gin.Context) {
	var status *models.ReservationStatus
	if statusStr := c.Query("status"); statusStr != "" {
		s := models.ReservationStatus(statusStr)
		status = &s
	}

	page, limit := h.pagination(c)
	reservations, total, err := h.repo.ListReservations(c.Request.Context(), status, page, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ReservationListResponse{
		Success:    true,
		Data:       reservations,
		Pagination: paginationMeta(page, limit, total),
	})
}

// GetReservation retrieves a reservation by ID
func (h *Handler) GetReservation(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	reservation, err := h.repo.GetReservation(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ReservationResponse{
		Success: true,
		Data:    reservation,
	})
}

// ReleaseReservation cancels an active reservation and returns its quantity
// to available stock. Releasing an already-closed reservation is a no-op.
func (h *Handler) ReleaseReservation(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.ledger.Release(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ReservationResponse{
		Success: true,
		Message: stringPtr("Reservation released"),
	})
}

// FulfillReservation converts an active reservation into a shipment
func (h *Handler) FulfillReservation(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	reservation, err := h.ledger.Fulfill(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ReservationResponse{
		Success: true,
		Data:    reservation,
		Message: stringPtr("Reservation fulfilled"),
	})
}
