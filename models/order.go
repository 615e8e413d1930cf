package models

import (
	"slices"
	"time"
)

// Persisted order status strings. They round-trip unchanged.
const (
	StatusPaymentPending   = "Payment Pending"
	StatusOrderConfirmed   = "Order Confirmed"
	StatusShipped          = "shipped"
	StatusDelivered        = "delivered"
	StatusCancelledByUser  = "cancelled by user"
	StatusCancelledByAdmin = "cancelled by admin"
)

const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
	PaymentFailed  = "failed"
)

var OrderStatuses = []string{
	StatusPaymentPending,
	StatusOrderConfirmed,
	StatusShipped,
	StatusDelivered,
	StatusCancelledByUser,
	StatusCancelledByAdmin,
}

func IsOrderStatus(s string) bool {
	return slices.Contains(OrderStatuses, s)
}

// IsTerminalStatus reports whether no further transition is allowed.
func IsTerminalStatus(s string) bool {
	return s == StatusDelivered || s == StatusCancelledByUser || s == StatusCancelledByAdmin
}

// OrderItem is a line snapshot; Price is the unit price at order time.
type OrderItem struct {
	Product  string  `json:"product" bson:"product"`
	Quantity int     `json:"quantity" bson:"quantity"`
	Price    float64 `json:"price" bson:"price"`
}

type Order struct {
	ID                string      `json:"id" bson:"_id"`
	OrderID           string      `json:"orderId" bson:"orderId"`
	User              string      `json:"user" bson:"user"`
	OrderItems        []OrderItem `json:"orderItems" bson:"orderItems"`
	TotalPrice        float64     `json:"totalPrice" bson:"totalPrice"`
	ShippingAddress   Address     `json:"shippingAddress" bson:"shippingAddress"`
	PaymentMode       string      `json:"paymentMode,omitempty" bson:"paymentMode,omitempty"`
	Status            string      `json:"status" bson:"status"`
	PaymentStatus     string      `json:"paymentStatus" bson:"paymentStatus"`
	RazorpayPaymentID *string     `json:"razorpayPaymentId" bson:"razorpayPaymentId"`
	TrackingNumber    *string     `json:"trackingNumber" bson:"trackingNumber"`
	Notes             string      `json:"notes,omitempty" bson:"notes,omitempty"`
	DeliveredAt       *time.Time  `json:"deliveredAt" bson:"deliveredAt"`
	CreatedAt         time.Time   `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time   `json:"updatedAt" bson:"updatedAt"`
}

// OrderLine is an order item with its product expanded.
type OrderLine struct {
	OrderItem
	ProductDetail *Product `json:"productDetail"`
}

// OrderView is an order with owner and products expanded.
type OrderView struct {
	Order
	OrderItems []OrderLine `json:"orderItems"`
	UserDetail *Account    `json:"userDetail"`
}
