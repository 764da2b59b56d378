package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/amish-harsoor/inventory/internal/models"
)

// getRecordTx loads the inventory record for (productID, locationID) inside
// tx. Returns (nil, nil) when the pair was never initialized.
func getRecordTx(tx *gorm.DB, productID, locationID uuid.UUID) (*models.InventoryRecord, error) {
	var rec models.InventoryRecord
	err := tx.Where("product_id = ? AND location_id = ?", productID, locationID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load inventory record: %w", err)
	}
	return &rec, nil
}

// getOrCreateRecordTx loads the record, creating a zero-quantity one on
// first contact with a (product, location) pair.
func getOrCreateRecordTx(tx *gorm.DB, productID, locationID uuid.UUID) (*models.InventoryRecord, error) {
	rec, err := getRecordTx(tx, productID, locationID)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		return rec, nil
	}

	now := time.Now().UTC()
	rec = &models.InventoryRecord{
		ID:          uuid.New(),
		ProductID:   productID,
		LocationID:  locationID,
		LastUpdated: now,
		CreatedAt:   now,
	}
	if err := tx.Create(rec).Error; err != nil {
		return nil, fmt.Errorf("create inventory record: %w", err)
	}
	return rec, nil
}

// applyDeltaTx is the only mutation primitive over inventory records. It
// recomputes quantity_available and last_updated and rejects any delta whose
// result would break a quantity invariant, leaving the record untouched.
func applyDeltaTx(tx *gorm.DB, productID, locationID uuid.UUID, onHandDelta, reservedDelta int) (*models.InventoryRecord, error) {
	rec, err := getOrCreateRecordTx(tx, productID, locationID)
	if err != nil {
		return nil, err
	}

	onHand := rec.QuantityOnHand + onHandDelta
	reserved := rec.QuantityReserved + reservedDelta
	switch {
	case onHand < 0:
		return nil, &InvariantViolationError{
			ProductID:  productID,
			LocationID: locationID,
			Detail:     fmt.Sprintf("quantity on hand would become %d", onHand),
		}
	case reserved < 0:
		return nil, &InvariantViolationError{
			ProductID:  productID,
			LocationID: locationID,
			Detail:     fmt.Sprintf("quantity reserved would become %d", reserved),
		}
	case reserved > onHand:
		return nil, &InvariantViolationError{
			ProductID:  productID,
			LocationID: locationID,
			Detail:     fmt.Sprintf("quantity reserved %d would exceed quantity on hand %d", reserved, onHand),
		}
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"quantity_on_hand":   onHand,
		"quantity_reserved":  reserved,
		"quantity_available": onHand - reserved,
		"last_updated":       now,
	}
	if err := tx.Model(&models.InventoryRecord{}).Where("id = ?", rec.ID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("apply inventory delta: %w", err)
	}

	rec.QuantityOnHand = onHand
	rec.QuantityReserved = reserved
	rec.QuantityAvailable = onHand - reserved
	rec.LastUpdated = now
	return rec, nil
}
