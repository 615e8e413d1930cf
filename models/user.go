package models

import "time"

const (
	RoleCustomer   = "customer"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
)

// Address is a shipping address, either stored on an Account or copied onto
// an Order at checkout.
type Address struct {
	Street  string `json:"street" bson:"street"`
	City    string `json:"city" bson:"city"`
	State   string `json:"state" bson:"state"`
	ZipCode string `json:"zipCode" bson:"zipCode"`
	Country string `json:"country" bson:"country"`
	Phone   string `json:"phone,omitempty" bson:"phone,omitempty"`
}

// Deliverable reports whether the address names a street or a city, the
// minimum a courier can work with.
func (a Address) Deliverable() bool {
	return a.Street != "" || a.City != ""
}

// Account is the storefront user, keyed by phone number.
type Account struct {
	ID           string    `json:"id" bson:"_id"`
	Phone        string    `json:"phone" bson:"phone"`
	Name         string    `json:"name,omitempty" bson:"name,omitempty"`
	Role         string    `json:"role" bson:"role"`
	Disabled     bool      `json:"disabled" bson:"disabled"`
	IsVerified   bool      `json:"isVerified" bson:"isVerified"`
	Addresses    []Address `json:"addresses" bson:"addresses"`
	ProfileImage string    `json:"profileImage,omitempty" bson:"profileImage,omitempty"`
	LastLogin    time.Time `json:"lastLogin,omitempty" bson:"lastLogin,omitempty"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}

// IsAdmin reports whether the account has back-office rights.
func (a *Account) IsAdmin() bool {
	return a != nil && (a.Role == RoleAdmin || a.Role == RoleSuperAdmin)
}
