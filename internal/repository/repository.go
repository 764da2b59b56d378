// Package repository provides the identity lookups and read-side queries
// around the ledger core: product and location rows, movement history,
// reservation listings and reports.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/amish-harsoor/inventory/internal/ledger"
	"github.com/amish-harsoor/inventory/internal/models"
)

// Cache TTL constants
const (
	inventoryCacheTTL = 2 * time.Minute
	cacheKeyPrefix    = "inventory:record:"
)

type Repository struct {
	db    *gorm.DB
	redis *redis.Client
}

func New(db *gorm.DB, redisClient *redis.Client) *Repository {
	return &Repository{db: db, redis: redisClient}
}

// RedisHealth reports the Redis connection state.
func (r *Repository) RedisHealth(ctx context.Context) error {
	if r.redis == nil {
		return fmt.Errorf("redis not configured")
	}
	return r.redis.Ping(ctx).Err()
}

// DBHealth pings the underlying database connection.
func (r *Repository) DBHealth(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// ========== Identity Lookups (consumed by the ledger) ==========

func (r *Repository) ProductExists(ctx context.Context, id uuid.UUID) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return &ledger.NotFoundError{Kind: "product", ID: id.String()}
	}
	return nil
}

func (r *Repository) LocationExists(ctx context.Context, id uuid.UUID) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Location{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return &ledger.NotFoundError{Kind: "location", ID: id.String()}
	}
	return nil
}

// ========== Inventory Read Cache ==========

func inventoryCacheKey(productID, locationID uuid.UUID) string {
	return fmt.Sprintf("%s%s:%s", cacheKeyPrefix, productID, locationID)
}

// GetInventoryCached serves a record from Redis when present, falling back
// to the database. The ledger invalidates the key after every committed
// mutation, so the cache never outlives a write in this process.
func (r *Repository) GetInventoryCached(ctx context.Context, productID, locationID uuid.UUID) (*models.InventoryRecord, error) {
	key := inventoryCacheKey(productID, locationID)

	if r.redis != nil {
		if val, err := r.redis.Get(ctx, key).Result(); err == nil {
			var rec models.InventoryRecord
			if err := json.Unmarshal([]byte(val), &rec); err == nil {
				return &rec, nil
			}
		}
	}

	var rec models.InventoryRecord
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND location_id = ?", productID, locationID).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &ledger.NotFoundError{Kind: "inventory record", ID: productID.String() + "/" + locationID.String()}
	}
	if err != nil {
		return nil, err
	}

	if r.redis != nil {
		if data, err := json.Marshal(rec); err == nil {
			r.redis.Set(ctx, key, data, inventoryCacheTTL)
		}
	}
	return &rec, nil
}

// InvalidateInventory drops the cached record for a key after a mutation.
func (r *Repository) InvalidateInventory(ctx context.Context, productID, locationID uuid.UUID) {
	if r.redis == nil {
		return
	}
	_ = r.redis.Del(ctx, inventoryCacheKey(productID, locationID)).Err()
}

// ========== Product Operations ==========

func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *Repository) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &ledger.NotFoundError{Kind: "product", ID: id.String()}
	}
	return &product, err
}

func (r *Repository) ListProducts(ctx context.Context, page, limit int) ([]models.Product, int64, error) {
	var products []models.Product
	var total int64
	query := r.db.WithContext(ctx).Model(&models.Product{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if page > 0 && limit > 0 {
		query = query.Offset((page - 1) * limit).Limit(limit)
	}
	err := query.Order("sku ASC").Find(&products).Error
	return products, total, err
}

func (r *Repository) UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*models.Product, error) {
	updates["updated_at"] = time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, &ledger.NotFoundError{Kind: "product", ID: id.String()}
	}
	return r.GetProduct(ctx, id)
}

// ========== Location Operations ==========

func (r *Repository) CreateLocation(ctx context.Context, location *models.Location) error {
	if location.ID == uuid.Nil {
		location.ID = uuid.New()
	}
	now := time.Now().UTC()
	location.CreatedAt = now
	location.UpdatedAt = now
	return r.db.WithContext(ctx).Create(location).Error
}

func (r *Repository) GetLocation(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	var location models.Location
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&location).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &ledger.NotFoundError{Kind: "location", ID: id.String()}
	}
	return &location, err
}

func (r *Repository) ListLocations(ctx context.Context, page, limit int) ([]models.Location, int64, error) {
	var locations []models.Location
	var total int64
	query := r.db.WithContext(ctx).Model(&models.Location{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if page > 0 && limit > 0 {
		query = query.Offset((page - 1) * limit).Limit(limit)
	}
	err := query.Order("warehouse_id ASC").Find(&locations).Error
	return locations, total, err
}

func (r *Repository) UpdateLocation(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*models.Location, error) {
	updates["updated_at"] = time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&models.Location{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, &ledger.NotFoundError{Kind: "location", ID: id.String()}
	}
	return r.GetLocation(ctx, id)
}

// DeactivateLocation marks a location inactive. Locations are never deleted
// because movements and inventory records reference them.
func (r *Repository) DeactivateLocation(ctx context.Context, id uuid.UUID) error {
	_, err := r.UpdateLocation(ctx, id, map[string]interface{}{"active": false})
	return err
}

// ========== Inventory Listings ==========

func (r *Repository) ListInventory(ctx context.Context, productID, locationID *uuid.UUID, page, limit int) ([]models.InventoryRecord, int64, error) {
	var records []models.InventoryRecord
	var total int64
	query := r.db.WithContext(ctx).Model(&models.InventoryRecord{})

	if productID != nil {
		query = query.Where("product_id = ?", *productID)
	}
	if locationID != nil {
		query = query.Where("location_id = ?", *locationID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if page > 0 && limit > 0 {
		query = query.Offset((page - 1) * limit).Limit(limit)
	}
	err := query.Order("last_updated DESC").Find(&records).Error
	return records, total, err
}

// ========== Movement History ==========

func (r *Repository) GetMovement(ctx context.Context, id uuid.UUID) (*models.StockMovement, error) {
	var movement models.StockMovement
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&movement).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &ledger.NotFoundError{Kind: "movement", ID: id.String()}
	}
	return &movement, err
}

func (r *Repository) ListMovements(ctx context.Context, productID *uuid.UUID, movementType *models.MovementType, page, limit int) ([]models.StockMovement, int64, error) {
	var movements []models.StockMovement
	var total int64
	query := r.db.WithContext(ctx).Model(&models.StockMovement{})

	if productID != nil {
		query = query.Where("product_id = ?", *productID)
	}
	if movementType != nil {
		query = query.Where("transaction_type = ?", *movementType)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if page > 0 && limit > 0 {
		query = query.Offset((page - 1) * limit).Limit(limit)
	}
	err := query.Order("movement_date DESC").Find(&movements).Error
	return movements, total, err
}

// MovementsBetween returns movements in [start, end], newest first.
func (r *Repository) MovementsBetween(ctx context.Context, start, end time.Time) ([]models.StockMovement, error) {
	var movements []models.StockMovement
	err := r.db.WithContext(ctx).
		Where("movement_date BETWEEN ? AND ?", start, end).
		Order("movement_date DESC").
		Find(&movements).Error
	return movements, err
}

// ========== Reservation Listings ==========

func (r *Repository) GetReservation(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	var reservation models.Reservation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&reservation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &ledger.NotFoundError{Kind: "reservation", ID: id.String()}
	}
	return &reservation, err
}

func (r *Repository) ListReservations(ctx context.Context, status *models.ReservationStatus, page, limit int) ([]models.Reservation, int64, error) {
	var reservations []models.Reservation
	var total int64
	query := r.db.WithContext(ctx).Model(&models.Reservation{})

	if status != nil {
		query = query.Where("status = ?", *status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if page > 0 && limit > 0 {
		query = query.Offset((page - 1) * limit).Limit(limit)
	}
	err := query.Order("created_at DESC").Find(&reservations).Error
	return reservations, total, err
}

// ========== Reports ==========

// InventorySummary returns all records with grand totals across them.
func (r *Repository) InventorySummary(ctx context.Context) (*models.InventorySummary, error) {
	var records []models.InventoryRecord
	if err := r.db.WithContext(ctx).Order("product_id ASC, location_id ASC").Find(&records).Error; err != nil {
		return nil, err
	}

	summary := &models.InventorySummary{
		RecordCount: len(records),
		Records:     records,
	}
	for _, rec := range records {
		summary.TotalOnHand += rec.QuantityOnHand
		summary.TotalReserved += rec.QuantityReserved
		summary.TotalAvailable += rec.QuantityAvailable
	}
	return summary, nil
}

// Valuation prices every record's on-hand quantity at the product unit cost.
func (r *Repository) Valuation(ctx context.Context) ([]models.ValuationLine, error) {
	var records []models.InventoryRecord
	if err := r.db.WithContext(ctx).Order("product_id ASC, location_id ASC").Find(&records).Error; err != nil {
		return nil, err
	}

	var products []models.Product
	if err := r.db.WithContext(ctx).Find(&products).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	lines := make([]models.ValuationLine, 0, len(records))
	for _, rec := range records {
		product := byID[rec.ProductID]
		lines = append(lines, models.ValuationLine{
			ProductID:   rec.ProductID,
			ProductSKU:  product.SKU,
			ProductName: product.Name,
			LocationID:  rec.LocationID,
			Quantity:    rec.QuantityOnHand,
			UnitCost:    product.UnitCost,
			Value:       float64(rec.QuantityOnHand) * product.UnitCost,
		})
	}
	return lines, nil
}
