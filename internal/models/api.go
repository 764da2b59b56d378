package models

import (
	"time"

	"github.com/google/uuid"
)

// Request models

type ReceiveStockRequest struct {
	ProductID       uuid.UUID `json:"productId" binding:"required"`
	ToLocationID    uuid.UUID `json:"toLocationId" binding:"required"`
	Quantity        int       `json:"quantity" binding:"required,gt=0"`
	UnitCost        *float64  `json:"unitCost,omitempty"`
	ReferenceNumber *string   `json:"referenceNumber,omitempty"`
	Notes           *string   `json:"notes,omitempty"`
}

type ShipStockRequest struct {
	ProductID       uuid.UUID `json:"productId" binding:"required"`
	FromLocationID  uuid.UUID `json:"fromLocationId" binding:"required"`
	Quantity        int       `json:"quantity" binding:"required,gt=0"`
	ReferenceNumber *string   `json:"referenceNumber,omitempty"`
	Notes           *string   `json:"notes,omitempty"`
}

type TransferStockRequest struct {
	ProductID      uuid.UUID `json:"productId" binding:"required"`
	FromLocationID uuid.UUID `json:"fromLocationId" binding:"required"`
	ToLocationID   uuid.UUID `json:"toLocationId" binding:"required"`
	Quantity       int       `json:"quantity" binding:"required,gt=0"`
	Notes          *string   `json:"notes,omitempty"`
}

type AdjustStockRequest struct {
	ProductID  uuid.UUID `json:"productId" binding:"required"`
	LocationID uuid.UUID `json:"locationId" binding:"required"`
	Adjustment int       `json:"adjustment" binding:"required"`
	Notes      *string   `json:"notes,omitempty"`
}

type CreateReservationRequest struct {
	ProductID        uuid.UUID  `json:"productId" binding:"required"`
	LocationID       uuid.UUID  `json:"locationId" binding:"required"`
	QuantityReserved int        `json:"quantityReserved" binding:"required,gt=0"`
	ReferenceID      *string    `json:"referenceId,omitempty"`
	ExpirationTime   *time.Time `json:"expirationTimestamp,omitempty"`
}

type CreateProductRequest struct {
	SKU         string   `json:"sku" binding:"required,min=1,max=100"`
	Name        string   `json:"name" binding:"required,min=1,max=255"`
	Description *string  `json:"description,omitempty"`
	UnitCost    *float64 `json:"unitCost,omitempty"`
}

type UpdateProductRequest struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	UnitCost    *float64 `json:"unitCost,omitempty"`
	Active      *bool    `json:"active,omitempty"`
}

type CreateLocationRequest struct {
	WarehouseID  string        `json:"warehouseId" binding:"required,min=1,max=50"`
	LocationType *LocationType `json:"locationType,omitempty"`
	Address      *string       `json:"address,omitempty"`
	Capacity     *int          `json:"capacity,omitempty"`
}

type UpdateLocationRequest struct {
	WarehouseID  *string       `json:"warehouseId,omitempty"`
	LocationType *LocationType `json:"locationType,omitempty"`
	Address      *string       `json:"address,omitempty"`
	Capacity     *int          `json:"capacity,omitempty"`
	Active       *bool         `json:"active,omitempty"`
}

type SetReorderLevelsRequest struct {
	ProductID       uuid.UUID `json:"productId" binding:"required"`
	LocationID      uuid.UUID `json:"locationId" binding:"required"`
	ReorderPoint    int       `json:"reorderPoint" binding:"gte=0"`
	ReorderQuantity int       `json:"reorderQuantity" binding:"gte=0"`
}

// Response models

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Success bool  `json:"success"`
	Error   Error `json:"error"`
}

type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message *string     `json:"message,omitempty"`
}

type MovementResponse struct {
	Success bool           `json:"success"`
	Data    *StockMovement `json:"data,omitempty"`
}

type MovementListResponse struct {
	Success    bool            `json:"success"`
	Data       []StockMovement `json:"data"`
	Pagination *PaginationMeta `json:"pagination,omitempty"`
}

type InventoryResponse struct {
	Success bool             `json:"success"`
	Data    *InventoryRecord `json:"data,omitempty"`
}

type InventoryListResponse struct {
	Success    bool              `json:"success"`
	Data       []InventoryRecord `json:"data"`
	Pagination *PaginationMeta   `json:"pagination,omitempty"`
}

type ReservationResponse struct {
	Success bool         `json:"success"`
	Data    *Reservation `json:"data,omitempty"`
	Message *string      `json:"message,omitempty"`
}

type ReservationListResponse struct {
	Success    bool            `json:"success"`
	Data       []Reservation   `json:"data"`
	Pagination *PaginationMeta `json:"pagination,omitempty"`
}

// AvailabilityResult is the product-wide availability check result.
type AvailabilityResult struct {
	ProductID         uuid.UUID `json:"productId"`
	RequestedQuantity int       `json:"requestedQuantity"`
	AvailableQuantity int       `json:"availableQuantity"`
	IsAvailable       bool      `json:"isAvailable"`
}

// InventorySummary aggregates current quantities across all records.
type InventorySummary struct {
	TotalOnHand    int               `json:"totalOnHand"`
	TotalReserved  int               `json:"totalReserved"`
	TotalAvailable int               `json:"totalAvailable"`
	RecordCount    int               `json:"recordCount"`
	Records        []InventoryRecord `json:"records"`
}

// ValuationLine is one row of the inventory valuation report.
type ValuationLine struct {
	ProductID   uuid.UUID `json:"productId"`
	ProductSKU  string    `json:"productSku"`
	ProductName string    `json:"productName"`
	LocationID  uuid.UUID `json:"locationId"`
	Quantity    int       `json:"quantity"`
	UnitCost    float64   `json:"unitCost"`
	Value       float64   `json:"value"`
}

type PaginationMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalItems int64 `json:"totalItems"`
	TotalPages int   `json:"totalPages"`
}
