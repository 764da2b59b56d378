package ledger_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amish-harsoor/inventory/internal/ledger"
	"github.com/amish-harsoor/inventory/internal/models"
)

func TestReserveHoldsAvailableStock(t *testing.T) {
	l, db := setupLedger(t)
	productID := seedProduct(t, db, "SKU-001")
	locationID := seedLocation(t, db, "WH-1")
	receiveStock(t, l, productID, locationID, 50)

	reservation, err := l.Reserve(context.Background(), ledger.ReserveInput{
		ProductID:  productID,
		LocationID: locationID,
		Quantity:   20,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusActive, reservation.Status)
	assert.Equal(t, 20, reservation.QuantityReserved)

	rec := getRecord(t, l, productID, locationID)
	assert.Equal(t, 50, rec.QuantityOnHand)
	assert.Equal(t, 20, rec.QuantityReserved)
	assert.Equal(t, 30, rec.QuantityAvailable)
}

func TestReserveCannotExceedAvailable(t *testing.T) {
	l, db := setupLedger(t)
	productID := seedProduct(t, db, "SKU-001")
	locationID := seedLocation(t, db, "WH-1")
	receiveStock(t, l, productID, locationID, 10)

	_, err := l.Reserve(context.Background(), ledger.ReserveInput{
		ProductID:  productID,
		LocationID: locationID,
		Quantity:   7,
	})
	require.NoError(t, err)

	// 3 available left, a second hold of 4 must be refused.
	_, err = l.Reserve(context.Background(), ledger.ReserveInput{
		ProductID:  productID,
		LocationID: locationID,
		Quantity:   4,
	})
	var is *ledger.InsufficientStockError
	require.ErrorAs(t, err, &is)
	assert.Equal(t, 3, is.Available)

	var count int64
	require.NoError(t, db.Model(&models.Reservation{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestReleaseRestoresAvailability(t *testing.T) {
	l, db := setupLedger(t)
	productID := seedProduct(t, db, "SKU-001")
	locationID := seedLocation(t, db, "WH-1")
	receiveStock(t, l, productID, locationID, 30)

	reservation, err := l.Reserve(context.Background(), ledger.ReserveInput{
		ProductID:  productID,
		LocationID: locationID,
		Quantity:   12,
	})
	require.NoError(t, err)

	require.NoError(t, l.Release(context.Background(), reservation.ID))

	rec := getRecord(t, l, productID, locationID)
	assert.Equal(t, 30, rec.QuantityOnHand)
	assert.Equal(t, 0, rec.QuantityReserved)
	assert.Equal(t, 30, rec.QuantityAvailable)

	var stored models.Reservation
	require.NoError(t, db.Where("id = ?", reservation.ID).First(&stored).Error)
	assert.Equal(t, models.ReservationStatusCancelled, stored.Status)
}

func TestReleaseIsIdempotent(t *testing.T) {
	l, db := setupLedger(t)
	productID := seedProduct(t, db, "SKU-001")
	locationID := seedLocation(t, db, "WH-1")
	receiveStock(t, l, productID, locationID, 30)

	reservation, err := l.Reserve(context.Background(), ledger.ReserveInput{
		ProductID:  productID,
		LocationID: locationID,
		Quantity:   12,
	})
	require.NoError(t, err)

	require.NoError(t, l.Release(context.Background(), reservation.ID))
	require.NoError(t, l.Release(context.Background(), reservation.ID))

	// The second release must not have double-credited the hold.
	rec := getRecord(t, l, productID, locationID)
	assert.Equal(t, 0, rec.QuantityReserved)
	assert.Equal(t, 30, rec.QuantityAvailable)
}

func TestReleaseUnknownReservation(t *testing.T) {
	l, _ := setupLedger(t)
	err := l.Release(context.Background(), uuid.New())
	assert.True(t, ledger.IsNotFound(err))
}

func TestFulfillConsumesStockAndAppendsShipMovement(t *testing.T) {
	l, db := setupLedger(t)
	productID := seedProduct(t, db, "SKU-001")
	locationID := seedLocation(t, db, "WH-1")
	receiveStock(t, l, productID, locationID, 40)

	ref := "ORDER-42"
	reservation, err := l.Reserve(context.Background(), ledger.ReserveInput{
		ProductID:   productID,
		LocationID:  locationID,
		Quantity:    15,
		ReferenceID: &ref,
	})
	require.NoError(t, err)
	movementsBefore := countMovements(t, db)

	fulfilled, err := l.Fulfill(context.Background(), reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusFulfilled, fulfilled.Status)

	rec := getRecord(t, l, productID, locationID)
	assert.Equal(t, 25, rec.QuantityOnHand)
	assert.Equal(t, 0, rec.QuantityReserved)
	assert.Equal(t, 25, rec.QuantityAvailable)

	// Exactly one ship movement carrying the reservation reference.
	assert.Equal(t, movementsBefore+1, countMovements(t, db))
	var movement models.StockMovement
	require.NoError(t, db.Where("transaction_type = ?", models.MovementShip).First(&movement).Error)
	assert.Equal(t, -15, movement.Quantity)
	require.NotNil(t, movement.ReferenceNumber)
	assert.Equal(t, ref, *movement.ReferenceNumber)
}

func TestFulfillIsIdempotent(t *testing.T) {
	l, db := setupLedger(t)
	productID := seedProduct(t, db, "SKU-001")
	locationID := seedLocation(t, db, "WH-1")
	receiveStock(t, l, productID, locationID, 40)

	reservation, err := l.Reserve(context.Background(), ledger.ReserveInput{
		ProductID:  productID,
		LocationID: locationID,
		Quantity:   15,
	})
	require.NoError(t, err)

	_, err = l.Fulfill(context.Background(), reservation.ID)
	require.NoError(t, err)
	movementsAfterFirst := countMovements(t, db)

	again, err := l.Fulfill(context.Background(), reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusFulfilled, again.Status)

	rec := getRecord(t, l, productID, locationID)
	assert.Equal(t, 25, rec.QuantityOnHand)
	assert.Equal(t, movementsAfterFirst, countMovements(t, db))
}

func TestFulfillAfterReleaseIsNoOp(t *testing.T) {
	l, db := setupLedger(t)
	productID := seedProduct(t, db, "SKU-001")
	locationID := seedLocation(t, db, "WH-1")
	receiveStock(t, l, productID, locationID, 40)

	reservation, err := l.Reserve(context.Background(), ledger.ReserveInput{
		ProductID:  productID,
		LocationID: locationID,
		Quantity:   15,
	})
	require.NoError(t, err)
	require.NoError(t, l.Release(context.Background(), reservation.ID))

	result, err := l.Fulfill(context.Background(), reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusCancelled, result.Status)

	rec := getRecord(t, l, productID, locationID)
	assert.Equal(t, 40, rec.QuantityOnHand)
	assert.Equal(t, 0, rec.QuantityReserved)
}

func TestReleaseExpiredSweep(t *testing.T) {
	l, db := setupLedger(t)
	productID := seedProduct(t, db, "SKU-001")
	locationID := seedLocation(t, db, "WH-1")
	receiveStock(t, l, productID, locationID, 100)
	ctx := context.Background()

	past := time.Now().UTC().Add(-time.Minute)
	future := time.Now().UTC().Add(time.Hour)

	expired, err := l.Reserve(ctx, ledger.ReserveInput{
		ProductID: productID, LocationID: locationID, Quantity: 10, ExpirationTime: &past,
	})
	require.NoError(t, err)
	live, err := l.Reserve(ctx, ledger.ReserveInput{
		ProductID: productID, LocationID: locationID, Quantity: 20, ExpirationTime: &future,
	})
	require.NoError(t, err)
	open, err := l.Reserve(ctx, ledger.ReserveInput{
		ProductID: productID, LocationID: locationID, Quantity: 5,
	})
	require.NoError(t, err)

	released, err := l.ReleaseExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, released)

	var stored models.Reservation
	require.NoError(t, db.Where("id = ?", expired.ID).First(&stored).Error)
	assert.Equal(t, models.ReservationStatusExpired, stored.Status)
	stored = models.Reservation{}
	require.NoError(t, db.Where("id = ?", live.ID).First(&stored).Error)
	assert.Equal(t, models.ReservationStatusActive, stored.Status)
	stored = models.Reservation{}
	require.NoError(t, db.Where("id = ?", open.ID).First(&stored).Error)
	assert.Equal(t, models.ReservationStatusActive, stored.Status)

	rec := getRecord(t, l, productID, locationID)
	assert.Equal(t, 25, rec.QuantityReserved)
	assert.Equal(t, 75, rec.QuantityAvailable)
}

func TestConcurrentReservesNeverOvercommit(t *testing.T) {
	l, db := setupLedger(t)
	productID := seedProduct(t, db, "SKU-001")
	locationID := seedLocation(t, db, "WH-1")
	receiveStock(t, l, productID, locationID, 10)

	const workers = 6
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = l.Reserve(context.Background(), ledger.ReserveInput{
				ProductID:  productID,
				LocationID: locationID,
				Quantity:   4,
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			require.True(t, ledger.IsInsufficientStock(err), "unexpected error: %v", err)
		}
	}

	// 10 on hand, 4 per hold: exactly 2 can win.
	assert.Equal(t, 2, succeeded)
	rec := getRecord(t, l, productID, locationID)
	assert.Equal(t, 8, rec.QuantityReserved)
	assert.Equal(t, 2, rec.QuantityAvailable)
}
