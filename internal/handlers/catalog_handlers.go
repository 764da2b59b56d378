package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amish-harsoor/inventory/internal/models"
)

// ========== Product Handlers ==========

// CreateProduct creates a new product
func (h *Handler) CreateProduct(c *gin.Context) {
	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err.Error())
		return
	}

	product := &models.Product{
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		Active:      true,
	}
	if req.UnitCost != nil {
		product.UnitCost = *req.UnitCost
	}

	if err := h.repo.CreateProduct(c.Request.Context(), product); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.SuccessResponse{
		Success: true,
		Data:    product,
		Message: stringPtr("Product created successfully"),
	})
}

// GetProduct retrieves a product by ID
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	product, err := h.repo.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    product,
	})
}

// ListProducts retrieves all products with pagination
func (h *Handler) ListProducts(c *gin.Context) {
	page, limit := h.pagination(c)
	products, total, err := h.repo.ListProducts(c.Request.Context(), page, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       products,
		"pagination": paginationMeta(page, limit, total),
	})
}

// UpdateProduct applies a partial update to a product
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.UnitCost != nil {
		updates["unit_cost"] = *req.UnitCost
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}
	if len(updates) == 0 {
		h.badRequest(c, "No fields to update")
		return
	}

	product, err := h.repo.UpdateProduct(c.Request.Context(), id, updates)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    product,
	})
}

// ========== Location Handlers ==========

// CreateLocation creates a new stock location
func (h *Handler) CreateLocation(c *gin.Context) {
	var req models.CreateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err.Error())
		return
	}

	location := &models.Location{
		WarehouseID:  req.WarehouseID,
		LocationType: models.LocationTypeWarehouse,
		Address:      req.Address,
		Capacity:     req.Capacity,
		Active:       true,
	}
	if req.LocationType != nil {
		location.LocationType = *req.LocationType
	}

	if err := h.repo.CreateLocation(c.Request.Context(), location); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.SuccessResponse{
		Success: true,
		Data:    location,
		Message: stringPtr("Location created successfully"),
	})
}

// GetLocation retrieves a location by ID
func (h *Handler) GetLocation(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	location, err := h.repo.GetLocation(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    location,
	})
}

// ListLocations retrieves all locations with pagination
func (h *Handler) ListLocations(c *gin.Context) {
	page, limit := h.pagination(c)
	locations, total, err := h.repo.ListLocations(c.Request.Context(), page, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       locations,
		"pagination": paginationMeta(page, limit, total),
	})
}

// UpdateLocation applies a partial update to a location
func (h *Handler) UpdateLocation(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.WarehouseID != nil {
		updates["warehouse_id"] = *req.WarehouseID
	}
	if req.LocationType != nil {
		updates["location_type"] = *req.LocationType
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.Capacity != nil {
		updates["capacity"] = *req.Capacity
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}
	if len(updates) == 0 {
		h.badRequest(c, "No fields to update")
		return
	}

	location, err := h.repo.UpdateLocation(c.Request.Context(), id, updates)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    location,
	})
}

// DeactivateLocation marks a location inactive instead of deleting it
func (h *Handler) DeactivateLocation(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.repo.DeactivateLocation(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: stringPtr("Location deactivated"),
	})
}
