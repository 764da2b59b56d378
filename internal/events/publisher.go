// Package events publishes inventory change events to NATS JetStream.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/sirupsen/logrus"

	"github.com/amish-harsoor/inventory/internal/models"
)

const (
	streamName  = "INVENTORY_EVENTS"
	publishWait = 10 * time.Second
)

// Subjects published by this service.
const (
	SubjectMovementRecorded   = "inventory.movement.recorded"
	SubjectReservationChanged = "inventory.reservation.changed"
	SubjectLowStock           = "inventory.alert.low_stock"
)

// MovementEvent is the payload for movement.recorded events.
type MovementEvent struct {
	EventType      string    `json:"eventType"`
	Timestamp      time.Time `json:"timestamp"`
	MovementID     string    `json:"movementId"`
	MovementType   string    `json:"transactionType"`
	ProductID      string    `json:"productId"`
	FromLocationID string    `json:"fromLocationId,omitempty"`
	ToLocationID   string    `json:"toLocationId,omitempty"`
	Quantity       int       `json:"quantity"`
}

// ReservationEvent is the payload for reservation.changed events.
type ReservationEvent struct {
	EventType     string    `json:"eventType"`
	Timestamp     time.Time `json:"timestamp"`
	ReservationID string    `json:"reservationId"`
	ProductID     string    `json:"productId"`
	LocationID    string    `json:"locationId"`
	Quantity      int       `json:"quantity"`
	Status        string    `json:"status"`
}

// LowStockEvent is the payload for alert.low_stock events.
type LowStockEvent struct {
	EventType    string    `json:"eventType"`
	Timestamp    time.Time `json:"timestamp"`
	ProductID    string    `json:"productId"`
	LocationID   string    `json:"locationId"`
	OnHand       int       `json:"quantityOnHand"`
	ReorderPoint int       `json:"reorderPoint"`
}

// Publisher publishes inventory events. A nil Publisher is safe to call
// and drops every event, so callers never need to branch on whether
// NATS is configured.
type Publisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	logger *logrus.Entry
}

// NewPublisher connects to NATS and ensures the inventory stream exists.
func NewPublisher(natsURL string, logger *logrus.Logger) (*Publisher, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name("inventory-service"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.WithField("url", nc.ConnectedUrl()).Info("NATS reconnected")
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.WithError(err).Warn("NATS disconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishWait)
	defer cancel()
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{"inventory.>"},
		Storage:  jetstream.FileStorage,
		MaxAge:   7 * 24 * time.Hour,
	})
	if err != nil {
		logger.WithError(err).Warn("Failed to ensure inventory stream (may already exist)")
	}

	return &Publisher{
		nc:     nc,
		js:     js,
		logger: logger.WithField("component", "inventory-events"),
	}, nil
}

func (p *Publisher) Close() {
	if p != nil && p.nc != nil {
		p.nc.Close()
	}
}

// MovementRecorded publishes a movement.recorded event.
func (p *Publisher) MovementRecorded(ctx context.Context, movement *models.StockMovement) {
	event := MovementEvent{
		EventType:    SubjectMovementRecorded,
		Timestamp:    time.Now().UTC(),
		MovementID:   movement.ID.String(),
		MovementType: string(movement.TransactionType),
		ProductID:    movement.ProductID.String(),
		Quantity:     movement.Quantity,
	}
	if movement.FromLocationID != nil {
		event.FromLocationID = movement.FromLocationID.String()
	}
	if movement.ToLocationID != nil {
		event.ToLocationID = movement.ToLocationID.String()
	}
	p.publish(SubjectMovementRecorded, event)
}

// ReservationChanged publishes a reservation.changed event.
func (p *Publisher) ReservationChanged(ctx context.Context, reservation *models.Reservation) {
	p.publish(SubjectReservationChanged, ReservationEvent{
		EventType:     SubjectReservationChanged,
		Timestamp:     time.Now().UTC(),
		ReservationID: reservation.ID.String(),
		ProductID:     reservation.ProductID.String(),
		LocationID:    reservation.LocationID.String(),
		Quantity:      reservation.QuantityReserved,
		Status:        string(reservation.Status),
	})
}

// LowStock publishes an alert.low_stock event for a record at or below
// its reorder point.
func (p *Publisher) LowStock(ctx context.Context, rec *models.InventoryRecord) {
	p.publish(SubjectLowStock, LowStockEvent{
		EventType:    SubjectLowStock,
		Timestamp:    time.Now().UTC(),
		ProductID:    rec.ProductID.String(),
		LocationID:   rec.LocationID.String(),
		OnHand:       rec.QuantityOnHand,
		ReorderPoint: rec.ReorderPoint,
	})
}

// publish marshals and sends asynchronously. Event delivery is best
// effort: a failed publish is logged and never fails the mutation that
// produced it.
func (p *Publisher) publish(subject string, event interface{}) {
	if p == nil || p.js == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.WithError(err).WithField("subject", subject).Error("Failed to marshal event")
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishWait)
		defer cancel()
		if _, err := p.js.Publish(ctx, subject, data); err != nil {
			p.logger.WithError(err).WithField("subject", subject).Warn("Failed to publish event")
		}
	}()
}
