package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/amish-harsoor/inventory/internal/ledger"
	"github.com/amish-harsoor/inventory/internal/models"
)

// ========== Movement Handlers ==========

// ReceiveStock records inbound stock at a location
func (h *Handler) ReceiveStock(c *gin.Context) {
	var req models.ReceiveStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err.Error())
		return
	}

	movement, err := h.ledger.Receive(c.Request.Context(), ledger.ReceiveInput{
		ProductID:       req.ProductID,
		ToLocationID:    req.ToLocationID,
		Quantity:        req.Quantity,
		UnitCost:        req.UnitCost,
		ReferenceNumber: req.ReferenceNumber,
		Notes:           req.Notes,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.MovementResponse{
		Success: true,
		Data:    movement,
	})
}

// ShipStock records outbound stock from a location
func (h *Handler) ShipStock(c *gin.Context) {
	var req models.ShipStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err.Error())
		return
	}

	movement, err := h.ledger.Ship(c.Request.Context(), ledger.ShipInput{
		ProductID:       req.ProductID,
		FromLocationID:  req.FromLocationID,
		Quantity:        req.Quantity,
		ReferenceNumber: req.ReferenceNumber,
		Notes:           req.Notes,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.MovementResponse{
		Success: true,
		Data:    movement,
	})
}

// TransferStock moves stock between two locations
func (h *Handler) TransferStock(c *gin.Context) {
	var req models.TransferStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err.Error())
		return
	}

	movement, err := h.ledger.Transfer(c.Request.Context(), ledger.TransferInput{
		ProductID:      req.ProductID,
		FromLocationID: req.FromLocationID,
		ToLocationID:   req.ToLocationID,
		Quantity:       req.Quantity,
		Notes:          req.Notes,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.MovementResponse{
		Success: true,
		Data:    movement,
	})
}

// GetMovement retrieves a single movement by ID
func (h *Handler) GetMovement(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	movement, err := h.repo.GetMovement(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MovementResponse{
		Success: true,
		Data:    movement,
	})
}

// ListMovements retrieves movement history, newest first
func (h *Handler) ListMovements(c *gin.Context) {
	var productID *uuid.UUID
	if idStr := c.Query("productId"); idStr != "" {
		id, err := uuid.Parse(idStr)
		if err != nil {
			h.badRequest(c, "Invalid productId")
			return
		}
		productID = &id
	}

	var movementType *models.MovementType
	if typeStr := c.Query("type"); typeStr != "" {
		mt := models.MovementType(typeStr)
		movementType = &mt
	}

	page, limit := h.pagination(c)
	movements, total, err := h.repo.ListMovements(c.Request.Context(), productID, movementType, page, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MovementListResponse{
		Success:    true,
		Data:       movements,
		Pagination: paginationMeta(page, limit, total),
	})
}
