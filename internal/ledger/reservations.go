package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/amish-harsoor/inventory/internal/models"
)

// ReserveInput describes a new hold against available stock.
type ReserveInput struct {
	ProductID      uuid.UUID
	LocationID     uuid.UUID
	Quantity       int
	ReferenceID    *string
	ExpirationTime *time.Time
}

// Reserve places a hold: the reservation row and the reserved-quantity
// increment commit together, with the availability check inside the same
// lock scope so concurrent reserves can never over-grant.
func (l *Ledger) Reserve(ctx context.Context, in ReserveInput) (*models.Reservation, error) {
	if in.Quantity <= 0 {
		return nil, fail("reserve", &ValidationError{Reason: "quantity must be positive"})
	}
	if err := l.checkIdentity(ctx, in.ProductID, in.LocationID); err != nil {
		return nil, fail("reserve", err)
	}

	k := recordKey{ProductID: in.ProductID, LocationID: in.LocationID}
	if err := l.lock(k); err != nil {
		return nil, fail("reserve", err)
	}
	defer l.locks.release(k)

	var reservation *models.Reservation
	err := l.transact(ctx, func(tx *gorm.DB) error {
		if err := checkAvailableTx(tx, in.ProductID, in.LocationID, in.Quantity); err != nil {
			return err
		}
		now := time.Now().UTC()
		r := &models.Reservation{
			ID:               uuid.New(),
			ProductID:        in.ProductID,
			LocationID:       in.LocationID,
			QuantityReserved: in.Quantity,
			ReferenceID:      in.ReferenceID,
			ExpirationTime:   in.ExpirationTime,
			Status:           models.ReservationStatusActive,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := tx.Create(r).Error; err != nil {
			return err
		}
		if _, err := applyDeltaTx(tx, in.ProductID, in.LocationID, 0, in.Quantity); err != nil {
			return err
		}
		reservation = r
		return nil
	})
	if err != nil {
		return nil, fail("reserve", err)
	}

	l.afterReservation(ctx, reservation, k)
	ok("reserve")
	return reservation, nil
}

// Release cancels an active reservation and returns its hold to available
// stock. Releasing a reservation that already reached a terminal state is a
// no-op, so a second release changes nothing.
func (l *Ledger) Release(ctx context.Context, reservationID uuid.UUID) error {
	_, err := l.closeReservation(ctx, "release", reservationID, models.ReservationStatusCancelled)
	return err
}

// Fulfill consumes an active reservation: on-hand and reserved both drop by
// the held quantity in one step, and a ship movement is appended for the
// audit trail. Fulfilling a non-active reservation is a no-op.
func (l *Ledger) Fulfill(ctx context.Context, reservationID uuid.UUID) (*models.Reservation, error) {
	return l.closeReservation(ctx, "fulfill", reservationID, models.ReservationStatusFulfilled)
}

// ReleaseExpired sweeps active reservations whose expiration has passed,
// marking each expired and returning its hold. Returns the number released.
func (l *Ledger) ReleaseExpired(ctx context.Context) (int, error) {
	var expired []models.Reservation
	err := l.db.WithContext(ctx).
		Where("status = ? AND expiration_time IS NOT NULL AND expiration_time < ?",
			models.ReservationStatusActive, time.Now().UTC()).
		Find(&expired).Error
	if err != nil {
		return 0, err
	}

	released := 0
	for _, r := range expired {
		if _, err := l.closeReservation(ctx, "expire", r.ID, models.ReservationStatusExpired); err != nil {
			l.log.WithField("reservationId", r.ID).WithError(err).Warn("Failed to expire reservation")
			continue
		}
		released++
	}
	return released, nil
}

// closeReservation moves an active reservation to the given terminal state
// and mirrors the transition in the inventory record atomically. The status
// is re-checked under the record lock inside the transaction, which makes
// the operation idempotent even under concurrent calls.
func (l *Ledger) closeReservation(ctx context.Context, op string, reservationID uuid.UUID, terminal models.ReservationStatus) (*models.Reservation, error) {
	r, err := l.getReservation(ctx, reservationID)
	if err != nil {
		return nil, fail(op, err)
	}
	if r.Status != models.ReservationStatusActive {
		ok(op)
		return r, nil
	}

	k := recordKey{ProductID: r.ProductID, LocationID: r.LocationID}
	if err := l.lock(k); err != nil {
		return nil, fail(op, err)
	}
	defer l.locks.release(k)

	var closed *models.Reservation
	err = l.transact(ctx, func(tx *gorm.DB) error {
		var cur models.Reservation
		if err := tx.Where("id = ?", reservationID).First(&cur).Error; err != nil {
			return err
		}
		if cur.Status != models.ReservationStatusActive {
			closed = &cur
			return nil
		}

		switch terminal {
		case models.ReservationStatusFulfilled:
			// Fulfillment removes the stock for good: on-hand and the
			// hold drop together, so available is unchanged.
			if _, err := applyDeltaTx(tx, cur.ProductID, cur.LocationID, -cur.QuantityReserved, -cur.QuantityReserved); err != nil {
				return err
			}
			m := newMovement(models.MovementShip, cur.ProductID, &cur.LocationID, nil, -cur.QuantityReserved)
			m.ReferenceNumber = cur.ReferenceID
			if err := tx.Create(m).Error; err != nil {
				return err
			}
		default:
			if _, err := applyDeltaTx(tx, cur.ProductID, cur.LocationID, 0, -cur.QuantityReserved); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		if err := tx.Model(&models.Reservation{}).Where("id = ?", cur.ID).
			Updates(map[string]interface{}{"status": terminal, "updated_at": now}).Error; err != nil {
			return err
		}
		cur.Status = terminal
		cur.UpdatedAt = now
		closed = &cur
		return nil
	})
	if err != nil {
		return nil, fail(op, err)
	}

	l.afterReservation(ctx, closed, k)
	ok(op)
	return closed, nil
}

func (l *Ledger) getReservation(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	var r models.Reservation
	err := l.db.WithContext(ctx).Where("id = ?", id).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Kind: "reservation", ID: id.String()}
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (l *Ledger) afterReservation(ctx context.Context, r *models.Reservation, k recordKey) {
	if l.cache != nil {
		l.cache.InvalidateInventory(ctx, k.ProductID, k.LocationID)
	}
	if l.events != nil && r != nil {
		l.events.ReservationChanged(ctx, r)
	}
}
