package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/amish-harsoor/inventory/internal/ledger"
	"github.com/amish-harsoor/inventory/internal/models"
)

func setupRepo(t *testing.T) (*Repository, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.Product{},
		&models.Location{},
		&models.InventoryRecord{},
		&models.StockMovement{},
		&models.Reservation{},
	)
	require.NoError(t, err)

	return New(db, nil), db
}

func TestProductLifecycle(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	product := &models.Product{SKU: "SKU-100", Name: "Widget", Active: true}
	require.NoError(t, repo.CreateProduct(ctx, product))
	require.NotEqual(t, uuid.Nil, product.ID)

	loaded, err := repo.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget", loaded.Name)

	require.NoError(t, repo.ProductExists(ctx, product.ID))

	updated, err := repo.UpdateProduct(ctx, product.ID, map[string]interface{}{
		"name":      "Widget v2",
		"unit_cost": 4.25,
	})
	require.NoError(t, err)
	assert.Equal(t, "Widget v2", updated.Name)
	assert.Equal(t, 4.25, updated.UnitCost)
}

func TestProductNotFound(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	_, err := repo.GetProduct(ctx, uuid.New())
	assert.True(t, ledger.IsNotFound(err))

	err = repo.ProductExists(ctx, uuid.New())
	assert.True(t, ledger.IsNotFound(err))

	_, err = repo.UpdateProduct(ctx, uuid.New(), map[string]interface{}{"name": "x"})
	assert.True(t, ledger.IsNotFound(err))
}

func TestDuplicateSKURejected(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateProduct(ctx, &models.Product{SKU: "SKU-1", Name: "A"}))
	err := repo.CreateProduct(ctx, &models.Product{SKU: "SKU-1", Name: "B"})
	assert.Error(t, err)
}

func TestLocationLifecycle(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	location := &models.Location{
		WarehouseID:  "WH-EAST",
		LocationType: models.LocationTypeWarehouse,
		Active:       true,
	}
	require.NoError(t, repo.CreateLocation(ctx, location))
	require.NoError(t, repo.LocationExists(ctx, location.ID))

	require.NoError(t, repo.DeactivateLocation(ctx, location.ID))
	loaded, err := repo.GetLocation(ctx, location.ID)
	require.NoError(t, err)
	assert.False(t, loaded.Active)
}

func TestListProductsPagination(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.CreateProduct(ctx, &models.Product{
			SKU:  fmt.Sprintf("SKU-%03d", i),
			Name: fmt.Sprintf("Product %d", i),
		}))
	}

	products, total, err := repo.ListProducts(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, products, 2)
	assert.Equal(t, "SKU-000", products[0].SKU)

	products, _, err = repo.ListProducts(ctx, 3, 2)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "SKU-004", products[0].SKU)
}

func seedMovement(t *testing.T, db *gorm.DB, productID uuid.UUID, mt models.MovementType, quantity int, when time.Time) uuid.UUID {
	t.Helper()
	m := &models.StockMovement{
		ID:              uuid.New(),
		TransactionType: mt,
		ProductID:       productID,
		Quantity:        quantity,
		MovementDate:    when,
		Status:          models.MovementStatusCompleted,
		CreatedAt:       when,
	}
	require.NoError(t, db.Create(m).Error)
	return m.ID
}

func TestListMovementsNewestFirstWithFilters(t *testing.T) {
	repo, db := setupRepo(t)
	ctx := context.Background()
	productA := uuid.New()
	productB := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)

	oldID := seedMovement(t, db, productA, models.MovementReceive, 10, base)
	newID := seedMovement(t, db, productA, models.MovementShip, -4, base.Add(30*time.Minute))
	seedMovement(t, db, productB, models.MovementReceive, 7, base.Add(10*time.Minute))

	movements, total, err := repo.ListMovements(ctx, &productA, nil, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, movements, 2)
	assert.Equal(t, newID, movements[0].ID)
	assert.Equal(t, oldID, movements[1].ID)

	shipType := models.MovementShip
	movements, total, err = repo.ListMovements(ctx, nil, &shipType, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, newID, movements[0].ID)
}

func TestMovementsBetween(t *testing.T) {
	repo, db := setupRepo(t)
	ctx := context.Background()
	productID := uuid.New()
	now := time.Now().UTC()

	seedMovement(t, db, productID, models.MovementReceive, 10, now.Add(-48*time.Hour))
	inRange := seedMovement(t, db, productID, models.MovementShip, -2, now.Add(-2*time.Hour))

	movements, err := repo.MovementsBetween(ctx, now.Add(-24*time.Hour), now)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, inRange, movements[0].ID)
}

func TestGetMovementNotFound(t *testing.T) {
	repo, _ := setupRepo(t)
	_, err := repo.GetMovement(context.Background(), uuid.New())
	assert.True(t, ledger.IsNotFound(err))
}

func seedRecord(t *testing.T, db *gorm.DB, productID, locationID uuid.UUID, onHand, reserved int) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, db.Create(&models.InventoryRecord{
		ID:                uuid.New(),
		ProductID:         productID,
		LocationID:        locationID,
		QuantityOnHand:    onHand,
		QuantityReserved:  reserved,
		QuantityAvailable: onHand - reserved,
		LastUpdated:       now,
		CreatedAt:         now,
	}).Error)
}

func TestInventorySummaryTotals(t *testing.T) {
	repo, db := setupRepo(t)
	productID := uuid.New()

	seedRecord(t, db, productID, uuid.New(), 30, 10)
	seedRecord(t, db, productID, uuid.New(), 20, 5)

	summary, err := repo.InventorySummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.RecordCount)
	assert.Equal(t, 50, summary.TotalOnHand)
	assert.Equal(t, 15, summary.TotalReserved)
	assert.Equal(t, 35, summary.TotalAvailable)
}

func TestValuationPricesOnHandAtUnitCost(t *testing.T) {
	repo, db := setupRepo(t)
	ctx := context.Background()

	product := &models.Product{SKU: "SKU-1", Name: "Widget", UnitCost: 2.5}
	require.NoError(t, repo.CreateProduct(ctx, product))
	seedRecord(t, db, product.ID, uuid.New(), 12, 4)

	lines, err := repo.Valuation(ctx)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "SKU-1", lines[0].ProductSKU)
	assert.Equal(t, 12, lines[0].Quantity)
	assert.Equal(t, 30.0, lines[0].Value)
}

func TestGetInventoryCachedFallsBackToDatabase(t *testing.T) {
	repo, db := setupRepo(t)
	productID := uuid.New()
	locationID := uuid.New()
	seedRecord(t, db, productID, locationID, 9, 3)

	rec, err := repo.GetInventoryCached(context.Background(), productID, locationID)
	require.NoError(t, err)
	assert.Equal(t, 9, rec.QuantityOnHand)
	assert.Equal(t, 6, rec.QuantityAvailable)

	_, err = repo.GetInventoryCached(context.Background(), productID, uuid.New())
	assert.True(t, ledger.IsNotFound(err))
}

func TestListInventoryFilters(t *testing.T) {
	repo, db := setupRepo(t)
	productA := uuid.New()
	productB := uuid.New()
	locationID := uuid.New()

	seedRecord(t, db, productA, locationID, 5, 0)
	seedRecord(t, db, productB, locationID, 8, 0)
	seedRecord(t, db, productA, uuid.New(), 3, 0)

	records, total, err := repo.ListInventory(context.Background(), &productA, nil, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, records, 2)

	records, total, err = repo.ListInventory(context.Background(), &productA, &locationID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, 5, records[0].QuantityOnHand)
}

func TestListReservationsByStatus(t *testing.T) {
	repo, db := setupRepo(t)
	now := time.Now().UTC()

	for _, status := range []models.ReservationStatus{
		models.ReservationStatusActive,
		models.ReservationStatusActive,
		models.ReservationStatusCancelled,
	} {
		require.NoError(t, db.Create(&models.Reservation{
			ID:               uuid.New(),
			ProductID:        uuid.New(),
			LocationID:       uuid.New(),
			QuantityReserved: 1,
			Status:           status,
			CreatedAt:        now,
			UpdatedAt:        now,
		}).Error)
	}

	active := models.ReservationStatusActive
	reservations, total, err := repo.ListReservations(context.Background(), &active, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, reservations, 2)

	_, total, err = repo.ListReservations(context.Background(), nil, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	loaded, err := repo.GetReservation(context.Background(), reservations[0].ID)
	require.NoError(t, err)
	assert.Equal(t, reservations[0].ID, loaded.ID)

	_, err = repo.GetReservation(context.Background(), uuid.New())
	assert.True(t, ledger.IsNotFound(err))
}
