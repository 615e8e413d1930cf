package pay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"freshcart/db"
	"freshcart/errs"
	"freshcart/middleware"
	"freshcart/models"
	"freshcart/mq"

	"github.com/shopspring/decimal"
)

// OrderStore is the slice of order persistence payments touch.
type OrderStore interface {
	FindByRef(ctx context.Context, ref string) (*models.Order, error)
	Update(ctx context.Context, m db.OrderMatch, upd db.OrderUpdate) (*models.Order, error)
}

// PaymentStore records payments. Confirm applies the order update and the
// payment insert together and returns the updated order.
type PaymentStore interface {
	FindByGatewayPaymentID(ctx context.Context, id string) (*models.Payment, error)
	Confirm(ctx context.Context, m db.OrderMatch, upd db.OrderUpdate, pay *models.Payment) (*models.Order, error)
}

// EventSink receives order lifecycle events.
type EventSink interface {
	Emit(ctx context.Context, evt mq.OrderEvent)
}

type Service struct {
	events   EventSink
	gateway  Gateway
	orders   OrderStore
	payments PaymentStore
	secret   []byte
	uuid     func() string
	now      func() time.Time
}

func NewService(gateway Gateway, orders OrderStore, payments PaymentStore, secret string, uuid func() string) *Service {
	return &Service{
		gateway:  gateway,
		orders:   orders,
		payments: payments,
		secret:   []byte(secret),
		uuid:     uuid,
		now:      time.Now,
	}
}

// WithEvents makes the service announce confirmed payments to sink.
func (s *Service) WithEvents(sink EventSink) *Service {
	s.events = sink
	return s
}

// CreateGatewayOrder opens a payment intent for amount in major units.
func (s *Service) CreateGatewayOrder(ctx context.Context, amount float64, currency string) (*models.GatewayOrder, error) {
	if amount <= 0 {
		return nil, errs.E(errs.ValidationError, "Amount is required")
	}
	if currency == "" {
		currency = "INR"
	}
	return s.gateway.CreateOrder(ctx, GatewayOrderRequest{
		Amount:   MinorUnits(amount),
		Currency: strings.ToUpper(currency),
		Receipt:  fmt.Sprintf("receipt_order_%d", s.now().UnixMilli()),
	})
}

// MinorUnits converts a major-unit amount to paise/cents, rounding half away
// from zero.
func MinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// Signature is hex(HMAC-SHA256(secret, gatewayOrderID|gatewayPaymentID)).
func Signature(secret []byte, gatewayOrderID, gatewayPaymentID string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyInput is the client's payment callback.
type VerifyInput struct {
	OrderID           string  `json:"orderId" validate:"required"`
	RazorpayOrderID   string  `json:"razorpayOrderId" validate:"required"`
	RazorpayPaymentID string  `json:"razorpayPaymentId" validate:"required"`
	RazorpaySignature string  `json:"razorpaySignature" validate:"required"`
	Amount            float64 `json:"amount" validate:"gt=0"`
}

// payable lists the order statuses a verified payment may confirm.
var payable = []string{models.StatusPaymentPending, models.StatusOrderConfirmed}

func notPayable(o *models.Order) error {
	if models.IsTerminalStatus(o.Status) {
		return errs.E(errs.InvalidTransition, fmt.Sprintf("Order is already %s", o.Status))
	}
	return errs.E(errs.InvalidTransition, fmt.Sprintf("Order is %s and can no longer take a payment", o.Status))
}

func (in VerifyInput) missing() bool {
	return in.OrderID == "" || in.RazorpayOrderID == "" || in.RazorpayPaymentID == "" || in.RazorpaySignature == "" || in.Amount <= 0
}

// VerifyPayment checks the gateway signature and, if it holds, confirms the
// order and records the payment. Replaying a verified payment id re-applies
// the confirmation and returns the stored record.
func (s *Service) VerifyPayment(ctx context.Context, actor *models.Account, in VerifyInput) (*models.Payment, error) {
	if in.missing() {
		return nil, errs.E(errs.ValidationError, "Missing required payment details")
	}
	want := Signature(s.secret, in.RazorpayOrderID, in.RazorpayPaymentID)
	if !hmac.Equal([]byte(want), []byte(in.RazorpaySignature)) {
		return nil, errs.E(errs.InvalidSignature, "Payment signature verification failed")
	}

	order, err := s.orders.FindByRef(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil || !middleware.Allowed(middleware.PaymentVerify, actor, actor != nil && order.User == actor.ID) {
		return nil, errs.E(errs.OrderNotFound, "Order not found")
	}

	status, paid, paymentID := models.StatusOrderConfirmed, models.PaymentPaid, in.RazorpayPaymentID
	upd := db.OrderUpdate{Status: &status, PaymentStatus: &paid, RazorpayPaymentID: &paymentID}
	match := db.OrderMatch{Ref: order.ID, FromStatus: payable}

	existing, err := s.payments.FindByGatewayPaymentID(ctx, in.RazorpayPaymentID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Order != order.ID {
			return nil, errs.E(errs.Conflict, "Payment already recorded for another order")
		}
		// the order update is idempotent; this repairs a confirm that stored
		// the payment but lost the order write. Orders that moved on are left
		// as they are.
		if _, err := s.orders.Update(ctx, match, upd); err != nil {
			return nil, err
		}
		return existing, nil
	}
	if !slices.Contains(payable, order.Status) {
		return nil, notPayable(order)
	}

	now := s.now()
	payment := &models.Payment{
		ID:                s.uuid(),
		User:              order.User,
		Order:             order.ID,
		RazorpayOrderID:   in.RazorpayOrderID,
		RazorpayPaymentID: in.RazorpayPaymentID,
		RazorpaySignature: in.RazorpaySignature,
		Amount:            in.Amount,
		Status:            models.PaymentRecordCompleted,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	confirmed, err := s.payments.Confirm(ctx, match, upd, payment)
	if errs.Has(err, errs.Conflict) {
		// a concurrent verify of the same payment won the insert
		if existing, ferr := s.payments.FindByGatewayPaymentID(ctx, in.RazorpayPaymentID); ferr == nil && existing != nil {
			return existing, nil
		}
	}
	if err != nil {
		return nil, err
	}
	if confirmed == nil {
		// the order vanished or changed status since it was read
		current, err := s.orders.FindByRef(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, errs.E(errs.OrderNotFound, "Order not found")
		}
		return nil, notPayable(current)
	}
	log.Printf("payments: order %s confirmed with payment %s", confirmed.OrderID, payment.RazorpayPaymentID)
	if s.events != nil {
		s.events.Emit(ctx, mq.NewOrderEvent(mq.OrderPaid, confirmed))
	}
	return payment, nil
}
