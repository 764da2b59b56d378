// Package ledger is the inventory ledger core. It owns every quantity
// invariant: all stock movements and reservation transitions go through it,
// and each one commits its record mutation together with its log append in a
// single transaction, serialized per (product, location) key.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/amish-harsoor/inventory/internal/metrics"
	"github.com/amish-harsoor/inventory/internal/models"
)

// DefaultLockWait bounds how long an operation may block on a contended
// record before surfacing ErrResourceBusy.
const DefaultLockWait = 2 * time.Second

// IdentityLookup validates that referenced products and locations exist.
type IdentityLookup interface {
	ProductExists(ctx context.Context, id uuid.UUID) error
	LocationExists(ctx context.Context, id uuid.UUID) error
}

// EventSink receives notifications after a ledger transaction commits.
// Implementations must not block the caller for long; publishing is best
// effort and never fails the operation.
type EventSink interface {
	MovementRecorded(ctx context.Context, m *models.StockMovement)
	ReservationChanged(ctx context.Context, r *models.Reservation)
}

// CacheInvalidator drops cached reads for a record after its quantities
// change.
type CacheInvalidator interface {
	InvalidateInventory(ctx context.Context, productID, locationID uuid.UUID)
}

// Options configures optional ledger collaborators.
type Options struct {
	LockWait time.Duration
	Events   EventSink
	Cache    CacheInvalidator
	Logger   *logrus.Logger
}

// Ledger is the single source of truth for on-hand, reserved and available
// quantities.
type Ledger struct {
	db       *gorm.DB
	ids      IdentityLookup
	locks    *lockTable
	lockWait time.Duration
	events   EventSink
	cache    CacheInvalidator
	log      *logrus.Entry
}

func New(db *gorm.DB, ids IdentityLookup, opts Options) *Ledger {
	wait := opts.LockWait
	if wait <= 0 {
		wait = DefaultLockWait
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Ledger{
		db:       db,
		ids:      ids,
		locks:    newLockTable(),
		lockWait: wait,
		events:   opts.Events,
		cache:    opts.Cache,
		log:      logger.WithField("component", "ledger"),
	}
}

// ReceiveInput describes an inbound stock receipt.
type ReceiveInput struct {
	ProductID       uuid.UUID
	ToLocationID    uuid.UUID
	Quantity        int
	UnitCost        *float64
	ReferenceNumber *string
	Notes           *string
}

// ShipInput describes an outbound shipment.
type ShipInput struct {
	ProductID       uuid.UUID
	FromLocationID  uuid.UUID
	Quantity        int
	ReferenceNumber *string
	Notes           *string
}

// TransferInput moves stock between two locations as one unit.
type TransferInput struct {
	ProductID      uuid.UUID
	FromLocationID uuid.UUID
	ToLocationID   uuid.UUID
	Quantity       int
	Notes          *string
}

// AdjustInput applies a signed correction to on-hand quantity.
type AdjustInput struct {
	ProductID  uuid.UUID
	LocationID uuid.UUID
	Adjustment int
	Notes      *string
}

// Receive records inbound stock: one receive movement plus an on-hand
// increment at the destination.
func (l *Ledger) Receive(ctx context.Context, in ReceiveInput) (*models.StockMovement, error) {
	if in.Quantity <= 0 {
		return nil, fail("receive", &ValidationError{Reason: "quantity must be positive"})
	}
	if err := l.checkIdentity(ctx, in.ProductID, in.ToLocationID); err != nil {
		return nil, fail("receive", err)
	}

	k := recordKey{ProductID: in.ProductID, LocationID: in.ToLocationID}
	if err := l.lock(k); err != nil {
		return nil, fail("receive", err)
	}
	defer l.locks.release(k)

	var movement *models.StockMovement
	err := l.transact(ctx, func(tx *gorm.DB) error {
		m := newMovement(models.MovementReceive, in.ProductID, nil, &in.ToLocationID, in.Quantity)
		m.UnitCost = in.UnitCost
		m.ReferenceNumber = in.ReferenceNumber
		m.Notes = in.Notes
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		if _, err := applyDeltaTx(tx, in.ProductID, in.ToLocationID, in.Quantity, 0); err != nil {
			return err
		}
		movement = m
		return nil
	})
	if err != nil {
		return nil, fail("receive", err)
	}

	l.afterMutation(ctx, movement, k)
	ok("receive")
	return movement, nil
}

// Ship records outbound stock. The availability check and the decrement run
// under the same record lock and transaction, so a concurrent ship cannot
// slip between them. The movement stores the negated quantity.
func (l *Ledger) Ship(ctx context.Context, in ShipInput) (*models.StockMovement, error) {
	if in.Quantity <= 0 {
		return nil, fail("ship", &ValidationError{Reason: "quantity must be positive"})
	}
	if err := l.checkIdentity(ctx, in.ProductID, in.FromLocationID); err != nil {
		return nil, fail("ship", err)
	}

	k := recordKey{ProductID: in.ProductID, LocationID: in.FromLocationID}
	if err := l.lock(k); err != nil {
		return nil, fail("ship", err)
	}
	defer l.locks.release(k)

	var movement *models.StockMovement
	err := l.transact(ctx, func(tx *gorm.DB) error {
		if err := checkAvailableTx(tx, in.ProductID, in.FromLocationID, in.Quantity); err != nil {
			return err
		}
		m := newMovement(models.MovementShip, in.ProductID, &in.FromLocationID, nil, -in.Quantity)
		m.ReferenceNumber = in.ReferenceNumber
		m.Notes = in.Notes
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		if _, err := applyDeltaTx(tx, in.ProductID, in.FromLocationID, -in.Quantity, 0); err != nil {
			return err
		}
		movement = m
		return nil
	})
	if err != nil {
		return nil, fail("ship", err)
	}

	l.afterMutation(ctx, movement, k)
	ok("ship")
	return movement, nil
}

// Transfer moves stock between locations: one transfer movement, a decrement
// at the source and an increment at the destination, all in one transaction.
// Both record locks are held for the duration, taken in canonical order.
func (l *Ledger) Transfer(ctx context.Context, in TransferInput) (*models.StockMovement, error) {
	if in.Quantity <= 0 {
		return nil, fail("transfer", &ValidationError{Reason: "quantity must be positive"})
	}
	if in.FromLocationID == in.ToLocationID {
		return nil, fail("transfer", &ValidationError{Reason: "source and destination locations must differ"})
	}
	if err := l.checkIdentity(ctx, in.ProductID, in.FromLocationID); err != nil {
		return nil, fail("transfer", err)
	}
	if err := l.ids.LocationExists(ctx, in.ToLocationID); err != nil {
		return nil, fail("transfer", err)
	}

	keys := []recordKey{
		{ProductID: in.ProductID, LocationID: in.FromLocationID},
		{ProductID: in.ProductID, LocationID: in.ToLocationID},
	}
	if err := l.lockAll(keys); err != nil {
		return nil, fail("transfer", err)
	}
	defer l.locks.releaseAll(keys)

	var movement *models.StockMovement
	err := l.transact(ctx, func(tx *gorm.DB) error {
		if err := checkAvailableTx(tx, in.ProductID, in.FromLocationID, in.Quantity); err != nil {
			return err
		}
		m := newMovement(models.MovementTransfer, in.ProductID, &in.FromLocationID, &in.ToLocationID, in.Quantity)
		m.Notes = in.Notes
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		if _, err := applyDeltaTx(tx, in.ProductID, in.FromLocationID, -in.Quantity, 0); err != nil {
			return err
		}
		if _, err := applyDeltaTx(tx, in.ProductID, in.ToLocationID, in.Quantity, 0); err != nil {
			return err
		}
		movement = m
		return nil
	})
	if err != nil {
		return nil, fail("transfer", err)
	}

	l.afterMutation(ctx, movement, keys...)
	ok("transfer")
	return movement, nil
}

// Adjust applies a signed correction to on-hand quantity with no
// availability pre-check; the invariant check in applyDelta still rejects a
// correction that would drive any quantity negative.
func (l *Ledger) Adjust(ctx context.Context, in AdjustInput) (*models.InventoryRecord, error) {
	if in.Adjustment == 0 {
		return nil, fail("adjust", &ValidationError{Reason: "adjustment must be non-zero"})
	}
	if err := l.checkIdentity(ctx, in.ProductID, in.LocationID); err != nil {
		return nil, fail("adjust", err)
	}

	k := recordKey{ProductID: in.ProductID, LocationID: in.LocationID}
	if err := l.lock(k); err != nil {
		return nil, fail("adjust", err)
	}
	defer l.locks.release(k)

	var (
		movement *models.StockMovement
		record   *models.InventoryRecord
	)
	err := l.transact(ctx, func(tx *gorm.DB) error {
		m := newMovement(models.MovementAdjust, in.ProductID, nil, &in.LocationID, in.Adjustment)
		m.Notes = in.Notes
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		rec, err := applyDeltaTx(tx, in.ProductID, in.LocationID, in.Adjustment, 0)
		if err != nil {
			return err
		}
		movement = m
		record = rec
		return nil
	})
	if err != nil {
		return nil, fail("adjust", err)
	}

	l.afterMutation(ctx, movement, k)
	ok("adjust")
	return record, nil
}

// SetReorderLevels updates the reorder point and quantity for a record,
// creating it lazily. Quantities are untouched.
func (l *Ledger) SetReorderLevels(ctx context.Context, productID, locationID uuid.UUID, reorderPoint, reorderQuantity int) (*models.InventoryRecord, error) {
	if reorderPoint < 0 || reorderQuantity < 0 {
		return nil, &ValidationError{Reason: "reorder levels must be non-negative"}
	}
	if err := l.checkIdentity(ctx, productID, locationID); err != nil {
		return nil, err
	}

	k := recordKey{ProductID: productID, LocationID: locationID}
	if err := l.lock(k); err != nil {
		return nil, err
	}
	defer l.locks.release(k)

	var record *models.InventoryRecord
	err := l.transact(ctx, func(tx *gorm.DB) error {
		rec, err := getOrCreateRecordTx(tx, productID, locationID)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.InventoryRecord{}).Where("id = ?", rec.ID).
			Updates(map[string]interface{}{
				"reorder_point":    reorderPoint,
				"reorder_quantity": reorderQuantity,
			}).Error; err != nil {
			return err
		}
		rec.ReorderPoint = reorderPoint
		rec.ReorderQuantity = reorderQuantity
		record = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	if l.cache != nil {
		l.cache.InvalidateInventory(ctx, productID, locationID)
	}
	return record, nil
}

// checkAvailableTx reads the current available quantity (absent record
// counts as zero) and rejects with InsufficientStockError when it cannot
// cover the request.
func checkAvailableTx(tx *gorm.DB, productID, locationID uuid.UUID, quantity int) error {
	rec, err := getRecordTx(tx, productID, locationID)
	if err != nil {
		return err
	}
	available := 0
	if rec != nil {
		available = rec.QuantityAvailable
	}
	if available < quantity {
		return &InsufficientStockError{
			ProductID:  productID,
			LocationID: locationID,
			Requested:  quantity,
			Available:  available,
		}
	}
	return nil
}

func newMovement(mt models.MovementType, productID uuid.UUID, from, to *uuid.UUID, quantity int) *models.StockMovement {
	now := time.Now().UTC()
	return &models.StockMovement{
		ID:              uuid.New(),
		TransactionType: mt,
		ProductID:       productID,
		FromLocationID:  from,
		ToLocationID:    to,
		Quantity:        quantity,
		MovementDate:    now,
		Status:          models.MovementStatusCompleted,
		CreatedAt:       now,
	}
}

func (l *Ledger) checkIdentity(ctx context.Context, productID, locationID uuid.UUID) error {
	if err := l.ids.ProductExists(ctx, productID); err != nil {
		return err
	}
	return l.ids.LocationExists(ctx, locationID)
}

func (l *Ledger) lock(k recordKey) error {
	start := time.Now()
	err := l.locks.acquire(k, l.lockWait)
	metrics.ObserveLockWait(time.Since(start))
	return err
}

func (l *Ledger) lockAll(keys []recordKey) error {
	start := time.Now()
	err := l.locks.acquireAll(keys, l.lockWait)
	metrics.ObserveLockWait(time.Since(start))
	return err
}

// transact runs fn in one database transaction. The context is stripped of
// cancellation: a mutation that has begun runs to commit or rollback, never
// to an abandoned half-state.
func (l *Ledger) transact(ctx context.Context, fn func(tx *gorm.DB) error) error {
	err := l.db.WithContext(context.WithoutCancel(ctx)).Transaction(fn)
	var iv *InvariantViolationError
	if errors.As(err, &iv) {
		l.log.WithFields(logrus.Fields{
			"productId":  iv.ProductID,
			"locationId": iv.LocationID,
		}).WithError(err).Error("Inventory invariant violation, transaction rolled back")
	}
	return err
}

// fail records the operation outcome and passes the error through.
func fail(op string, err error) error {
	metrics.RecordOperation(op, outcomeLabel(err))
	return err
}

func ok(op string) {
	metrics.RecordOperation(op, "ok")
}

func outcomeLabel(err error) string {
	var (
		ve *ValidationError
		nf *NotFoundError
		is *InsufficientStockError
		iv *InvariantViolationError
	)
	switch {
	case errors.As(err, &ve):
		return "validation_error"
	case errors.As(err, &nf):
		return "not_found"
	case errors.As(err, &is):
		return "insufficient_stock"
	case errors.As(err, &iv):
		return "invariant_violation"
	case errors.Is(err, ErrResourceBusy):
		return "resource_busy"
	default:
		return "error"
	}
}

// afterMutation runs post-commit side effects: cache invalidation for every
// touched record and best-effort event publishing.
func (l *Ledger) afterMutation(ctx context.Context, m *models.StockMovement, keys ...recordKey) {
	if l.cache != nil {
		for _, k := range keys {
			l.cache.InvalidateInventory(ctx, k.ProductID, k.LocationID)
		}
	}
	if l.events != nil && m != nil {
		l.events.MovementRecorded(ctx, m)
	}
}
