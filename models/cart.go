package models

import "time"

// CartItem is one product line in a cart. Price is never stored here; totals
// are always derived from the live catalog.
type CartItem struct {
	Product  string `json:"product" bson:"product"`
	Quantity int    `json:"quantity" bson:"quantity"`
}

// Cart is the single active cart of an account.
type Cart struct {
	ID         string     `json:"id" bson:"_id"`
	User       string     `json:"user" bson:"user"`
	Items      []CartItem `json:"items" bson:"items"`
	TotalPrice float64    `json:"totalPrice" bson:"totalPrice"`
	Version    int64      `json:"-" bson:"version"`
	CreatedAt  time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// CartLine is a cart item expanded with its product document. Product is nil
// when the referenced product no longer exists.
type CartLine struct {
	Product   *Product `json:"product"`
	ProductID string   `json:"productId"`
	Quantity  int      `json:"quantity"`
}

// CartView is the response shape of a cart with products expanded.
type CartView struct {
	ID         string     `json:"id"`
	User       string     `json:"user"`
	Items      []CartLine `json:"items"`
	TotalPrice float64    `json:"totalPrice"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}
