// Package mq publishes order lifecycle events on a Redis Pub/Sub channel
// for downstream consumers (notifications, fulfilment).
package mq

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"freshcart/models"
)

const Channel = "order-events"

const (
	OrderCreated       = "order.created"
	OrderStatusChanged = "order.status_changed"
	OrderPaid          = "order.paid"
)

// OrderEvent is the message published for every order state change.
type OrderEvent struct {
	Type          string    `json:"type"`
	OrderID       string    `json:"orderId"`
	User          string    `json:"user"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"paymentStatus"`
	TotalPrice    float64   `json:"totalPrice"`
	At            time.Time `json:"at"`
}

// NewOrderEvent snapshots o for an event of the given type.
func NewOrderEvent(typ string, o *models.Order) OrderEvent {
	return OrderEvent{
		Type:          typ,
		OrderID:       o.OrderID,
		User:          o.User,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		TotalPrice:    o.TotalPrice,
		At:            time.Now(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

type Emitter struct {
	pub Publisher
}

func NewEmitter(pub Publisher) *Emitter {
	return &Emitter{pub: pub}
}

// Emit publishes evt. Delivery is best effort: failures are logged and never
// reach the caller, whose write has already happened.
func (e *Emitter) Emit(ctx context.Context, evt OrderEvent) {
	if e == nil || e.pub == nil {
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		log.Printf("[Emit] marshal %s: %v", evt.Type, err)
		return
	}
	if err := e.pub.Publish(ctx, Channel, data); err != nil {
		log.Printf("[Emit] publish %s for %s: %v", evt.Type, evt.OrderID, err)
	}
}
