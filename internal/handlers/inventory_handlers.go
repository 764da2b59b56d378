package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/amish-harsoor/inventory/internal/ledger"
	"github.com/amish-harsoor/inventory/internal/models"
)

// ========== Inventory Handlers ==========

// AdjustStock applies a signed quantity correction to a record
func (h *Handler) AdjustStock(c *gin.Context) {
	var req models.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err.Error())
		return
	}

	record, err := h.ledger.Adjust(c.Request.Context(), ledger.AdjustInput{
		ProductID:  req.ProductID,
		LocationID: req.LocationID,
		Adjustment: req.Adjustment,
		Notes:      req.Notes,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	if h.events != nil && record.QuantityOnHand <= record.ReorderPoint {
		h.events.LowStock(c.Request.Context(), record)
	}

	c.JSON(http.StatusOK, models.InventoryResponse{
		Success: true,
		Data:    record,
	})
}

// GetInventory retrieves the record for a (product, location) pair
func (h *Handler) GetInventory(c *gin.Context) {
	productID, ok := h.parseIDParam(c, "productId")
	if !ok {
		return
	}
	locationID, ok := h.parseIDParam(c, "locationId")
	if !ok {
		return
	}

	record, err := h.repo.GetInventoryCached(c.Request.Context(), productID, locationID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.InventoryResponse{
		Success: true,
		Data:    record,
	})
}

// ListInventory retrieves records with optional product/location filters
func (h *Handler) ListInventory(c *gin.Context) {
	var productID, locationID *uuid.UUID
	if idStr := c.Query("productId"); idStr != "" {
		id, err := uuid.Parse(idStr)
		if err != nil {
			h.badRequest(c, "Invalid productId")
			return
		}
		productID = &id
	}
	if idStr := c.Query("locationId"); idStr != "" {
		id, err := uuid.Parse(idStr)
		if err != nil {
			h.badRequest(c, "Invalid locationId")
			return
		}
		locationID = &id
	}

	page, limit := h.pagination(c)
	records, total, err := h.repo.ListInventory(c.Request.Context(), productID, locationID, page, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.InventoryListResponse{
		Success:    true,
		Data:       records,
		Pagination: paginationMeta(page, limit, total),
	})
}

// CheckAvailability reports whether a requested quantity is available for a
// product across all locations
func (h *Handler) CheckAvailability(c *gin.Context) {
	productID, err := uuid.Parse(c.Query("productId"))
	if err != nil {
		h.badRequest(c, "Invalid productId")
		return
	}
	requested, err := strconv.Atoi(c.Query("quantity"))
	if err != nil {
		h.badRequest(c, "Invalid quantity")
		return
	}

	result, err := h.ledger.Availability(c.Request.Context(), productID, requested)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    result,
	})
}

// SetReorderLevels updates the reorder point and quantity for a record
func (h *Handler) SetReorderLevels(c *gin.Context) {
	var req models.SetReorderLevelsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err.Error())
		return
	}

	record, err := h.ledger.SetReorderLevels(c.Request.Context(), req.ProductID, req.LocationID, req.ReorderPoint, req.ReorderQuantity)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.InventoryResponse{
		Success: true,
		Data:    record,
	})
}
