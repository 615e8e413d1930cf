package models

import (
	"time"
)

const (
	PaymentRecordPending   = "pending"
	PaymentRecordCompleted = "completed"
	PaymentRecordFailed    = "failed"
)

// Payment records one verified gateway payment against a local order.
type Payment struct {
	ID                string    `json:"id" bson:"_id"`
	User              string    `json:"user" bson:"user"`
	Order             string    `json:"order" bson:"order"`
	RazorpayOrderID   string    `json:"razorpayOrderId" bson:"razorpayOrderId"`
	RazorpayPaymentID string    `json:"razorpayPaymentId" bson:"razorpayPaymentId"`
	RazorpaySignature string    `json:"razorpaySignature" bson:"razorpaySignature"`
	Amount            float64   `json:"amount" bson:"amount"`
	Status            string    `json:"status" bson:"status"`
	CreatedAt         time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt" bson:"updatedAt"`
}

// GatewayOrder is the payment intent created at the gateway.
type GatewayOrder struct {
	ID         string `json:"id"`
	Entity     string `json:"entity,omitempty"`
	Amount     int64  `json:"amount"`
	AmountPaid int64  `json:"amount_paid"`
	AmountDue  int64  `json:"amount_due"`
	Currency   string `json:"currency"`
	Receipt    string `json:"receipt"`
	Status     string `json:"status,omitempty"`
	CreatedAt  int64  `json:"created_at,omitempty"`
}

// IdempotencyRecord represents an idempotency key record stored in Mongo.
type IdempotencyRecord struct {
	Key         string                 `bson:"key" json:"key"`
	Method      string                 `bson:"method" json:"method"`
	Path        string                 `bson:"path" json:"path"`
	UserID      string                 `bson:"userid" json:"userid"`
	RequestHash string                 `bson:"request_hash" json:"request_hash"`
	Response    map[string]interface{} `bson:"response,omitempty" json:"response,omitempty"`
	CreatedAt   time.Time              `bson:"created_at" json:"created_at"`
	ExpiresAt   time.Time              `bson:"expires_at" json:"expires_at"`
}
