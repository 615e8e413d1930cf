package db

import (
	"context"
	"time"

	"freshcart/errs"
	"freshcart/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

// Carts persists one cart per account. Writes are compare-and-swap on the
// version field so a concurrent writer cannot silently overwrite items.
type Carts struct{ s *Store }

func (s *Store) Carts() *Carts { return &Carts{s: s} }

func (c *Carts) FindByUser(ctx context.Context, user string) (*models.Cart, error) {
	var cart models.Cart
	ok, err := findOne(ctx, c.s.CartCollection, bson.M{"user": user}, &cart)
	if err != nil || !ok {
		return nil, err
	}
	return &cart, nil
}

// Save inserts a new cart (Version 0) or replaces the stored one if its
// version still matches. A lost race is reported as errs.Conflict.
func (c *Carts) Save(ctx context.Context, cart *models.Cart) error {
	now := time.Now()
	cart.UpdatedAt = now

	if cart.Version == 0 {
		if cart.ID == "" {
			cart.ID = uuid.New().String()
		}
		cart.CreatedAt = now
		cart.Version = 1
		if _, err := c.s.CartCollection.InsertOne(ctx, cart); err != nil {
			cart.Version = 0
			return duplicate(err, "cart was created concurrently")
		}
		return nil
	}

	expected := cart.Version
	cart.Version++
	res, err := c.s.CartCollection.ReplaceOne(ctx, bson.M{"_id": cart.ID, "version": expected}, cart)
	if err != nil {
		cart.Version = expected
		return err
	}
	if res.MatchedCount == 0 {
		cart.Version = expected
		return errs.E(errs.Conflict, "cart was modified concurrently")
	}
	return nil
}
