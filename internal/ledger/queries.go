package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/amish-harsoor/inventory/internal/models"
)

// GetInventory returns the record for (productID, locationID) or a
// NotFoundError when the pair was never initialized.
func (l *Ledger) GetInventory(ctx context.Context, productID, locationID uuid.UUID) (*models.InventoryRecord, error) {
	var rec models.InventoryRecord
	err := l.db.WithContext(ctx).
		Where("product_id = ? AND location_id = ?", productID, locationID).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Kind: "inventory record", ID: productID.String() + "/" + locationID.String()}
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// LowStock returns the records at or below their reorder point, worst
// first. Recomputed fresh on every call.
func (l *Ledger) LowStock(ctx context.Context) ([]models.InventoryRecord, error) {
	var records []models.InventoryRecord
	err := l.db.WithContext(ctx).
		Where("quantity_on_hand <= reorder_point").
		Order("quantity_on_hand ASC").
		Find(&records).Error
	return records, err
}

// Availability sums available quantity for a product across all locations.
// Missing records contribute zero.
func (l *Ledger) Availability(ctx context.Context, productID uuid.UUID, requested int) (*models.AvailabilityResult, error) {
	if requested <= 0 {
		return nil, &ValidationError{Reason: "requested quantity must be positive"}
	}
	if err := l.ids.ProductExists(ctx, productID); err != nil {
		return nil, err
	}

	var total int64
	err := l.db.WithContext(ctx).Model(&models.InventoryRecord{}).
		Where("product_id = ?", productID).
		Select("COALESCE(SUM(quantity_available), 0)").
		Scan(&total).Error
	if err != nil {
		return nil, err
	}

	return &models.AvailabilityResult{
		ProductID:         productID,
		RequestedQuantity: requested,
		AvailableQuantity: int(total),
		IsAvailable:       int(total) >= requested,
	}, nil
}
