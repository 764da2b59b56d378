package ledger

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrResourceBusy is returned when a per-record lock could not be acquired
// within the configured wait. Nothing was committed; the whole operation is
// safe to retry.
var ErrResourceBusy = errors.New("inventory record busy, retry")

// ValidationError is the caller's fault: non-positive quantity, zero
// adjustment, malformed input. No state change.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// NotFoundError reports a missing product, location, inventory record or
// reservation.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// InsufficientStockError is a business-rule rejection: the requested quantity
// exceeds what is available at the source record. No state change; safe to
// retry with different parameters.
type InsufficientStockError struct {
	ProductID  uuid.UUID
	LocationID uuid.UUID
	Requested  int
	Available  int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s at location %s: requested %d, available %d",
		e.ProductID, e.LocationID, e.Requested, e.Available)
}

// InvariantViolationError means a delta would have broken a quantity
// invariant. The transaction is rolled back and the record is unchanged.
// Outside of Adjust this should be unreachable given correct delta
// composition and is logged as a bug.
type InvariantViolationError struct {
	ProductID  uuid.UUID
	LocationID uuid.UUID
	Detail     string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant violation for product %s at location %s: %s",
		e.ProductID, e.LocationID, e.Detail)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsInsufficientStock reports whether err is an InsufficientStockError.
func IsInsufficientStock(err error) bool {
	var is *InsufficientStockError
	return errors.As(err, &is)
}
