package models

import (
	"time"

	"github.com/google/uuid"
)

// MovementType classifies a stock movement.
type MovementType string

const (
	MovementReceive  MovementType = "receive"
	MovementShip     MovementType = "ship"
	MovementTransfer MovementType = "transfer"
	MovementAdjust   MovementType = "adjust"
)

// MovementStatus represents the lifecycle status of a stock movement.
// Core flows write completed entries directly.
type MovementStatus string

const (
	MovementStatusPending   MovementStatus = "pending"
	MovementStatusCompleted MovementStatus = "completed"
	MovementStatusCancelled MovementStatus = "cancelled"
)

// ReservationStatus represents the lifecycle status of a reservation.
// A reservation starts active and moves to exactly one terminal state.
type ReservationStatus string

const (
	ReservationStatusActive    ReservationStatus = "active"
	ReservationStatusExpired   ReservationStatus = "expired"
	ReservationStatusFulfilled ReservationStatus = "fulfilled"
	ReservationStatusCancelled ReservationStatus = "cancelled"
)

// LocationType classifies a stock location.
type LocationType string

const (
	LocationTypeWarehouse LocationType = "warehouse"
	LocationTypeStore     LocationType = "store"
	LocationTypeTransit   LocationType = "transit"
)

// Product is the identity row for a stocked product.
type Product struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	SKU         string    `json:"sku" gorm:"type:varchar(100);not null;uniqueIndex"`
	Name        string    `json:"name" gorm:"type:varchar(255);not null"`
	Description *string   `json:"description,omitempty" gorm:"type:text"`
	UnitCost    float64   `json:"unitCost" gorm:"type:decimal(10,2);not null;default:0"`
	Active      bool      `json:"active" gorm:"default:true"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Location is a physical place stock can sit: a warehouse, a store, or in transit.
type Location struct {
	ID           uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey"`
	WarehouseID  string       `json:"warehouseId" gorm:"type:varchar(50);not null;index"`
	LocationType LocationType `json:"locationType" gorm:"type:varchar(20);not null;default:'warehouse'"`
	Address      *string      `json:"address,omitempty" gorm:"type:text"`
	Capacity     *int         `json:"capacity,omitempty"`
	Active       bool         `json:"active" gorm:"default:true"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// InventoryRecord is the current quantity state for one (product, location) pair.
// QuantityAvailable is stored and recomputed on every mutation so that
// QuantityAvailable == QuantityOnHand - QuantityReserved always holds.
// Records are created lazily on first movement and never deleted.
type InventoryRecord struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ProductID  uuid.UUID `json:"productId" gorm:"type:uuid;not null;uniqueIndex:idx_inventory_product_location"`
	LocationID uuid.UUID `json:"locationId" gorm:"type:uuid;not null;uniqueIndex:idx_inventory_product_location"`

	QuantityOnHand    int `json:"quantityOnHand" gorm:"not null;default:0"`
	QuantityReserved  int `json:"quantityReserved" gorm:"not null;default:0"`
	QuantityAvailable int `json:"quantityAvailable" gorm:"not null;default:0"`

	ReorderPoint    int `json:"reorderPoint" gorm:"default:0"`
	ReorderQuantity int `json:"reorderQuantity" gorm:"default:0"`

	LastUpdated time.Time `json:"lastUpdated"`
	CreatedAt   time.Time `json:"createdAt"`
}

// StockMovement is an immutable append-only log entry for a quantity change event.
/// Quantity is signed: outbound ship movements are stored negative.
type StockMovement struct {
	ID              uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	TransactionType MovementType   `json:"transactionType" gorm:"type:varchar(20);not null;index"`
	ProductID       uuid.UUID      `json:"productId" gorm:"type:uuid;not null;index"`
	FromLocationID  *uuid.UUID     `json:"fromLocationId,omitempty" gorm:"type:uuid;index"`
	ToLocationID    *uuid.UUID     `json:"toLocationId,omitempty" gorm:"type:uuid;index"`
	Quantity        int            `json:"quantity" gorm:"not null"`
	UnitCost        *float64       `json:"unitCost,omitempty" gorm:"type:decimal(10,2)"`
	ReferenceNumber *string        `json:"referenceNumber,omitempty" gorm:"type:varchar(100)"`
	MovementDate    time.Time      `json:"movementDate" gorm:"index"`
	Status          MovementStatus `json:"status" gorm:"type:varchar(20);not null;default:'completed'"`
	Notes           *string        `json:"notes,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"createdAt"`
}

// Reservation is a hold against available stock tied to an external reference.
type Reservation struct {
	ID               uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	ProductID        uuid.UUID         `json:"productId" gorm:"type:uuid;not null;index"`
	LocationID       uuid.UUID         `json:"locationId" gorm:"type:uuid;not null;index"`
	QuantityReserved int               `json:"quantityReserved" gorm:"not null"`
	ReferenceID      *string           `json:"referenceId,omitempty" gorm:"type:varchar(100)"`
	ExpirationTime   *time.Time        `json:"expirationTimestamp,omitempty"`
	Status           ReservationStatus `json:"status" gorm:"type:varchar(20);not null;default:'active';index"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Product) TableName() string {
	return "products"
}

func (Location) TableName() string {
	return "locations"
}

func (InventoryRecord) TableName() string {
	return "inventory_records"
}

func (StockMovement) TableName() string {
	return "stock_movements"
}

func (Reservation) TableName() string {
	return "reservations"
}
