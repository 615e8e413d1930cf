package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"freshcart/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store owns the Mongo client and the collections the storefront uses.
type Store struct {
	Client *mongo.Client

	UserCollection        *mongo.Collection
	ProductCollection     *mongo.Collection
	CategoryCollection    *mongo.Collection
	CartCollection        *mongo.Collection
	OrderCollection       *mongo.Collection
	PaymentCollection     *mongo.Collection
	IdempotencyCollection *mongo.Collection
}

// Connect dials MongoDB and verifies the connection with a ping.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	d := client.Database(database)
	return &Store{
		Client:                client,
		UserCollection:        d.Collection("users"),
		ProductCollection:     d.Collection("products"),
		CategoryCollection:    d.Collection("categories"),
		CartCollection:        d.Collection("carts"),
		OrderCollection:       d.Collection("orders"),
		PaymentCollection:     d.Collection("payments"),
		IdempotencyCollection: d.Collection("idempotency"),
	}, nil
}

func (s *Store) Close(ctx context.Context) {
	if err := s.Client.Disconnect(ctx); err != nil {
		log.Printf("mongo disconnect: %v", err)
	}
}

// EnsureIndexes creates the unique and TTL indexes the invariants rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	unique := func(name string, keys bson.D) mongo.IndexModel {
		return mongo.IndexModel{Keys: keys, Options: options.Index().SetUnique(true).SetName(name)}
	}

	plan := []struct {
		coll *mongo.Collection
		idx  []mongo.IndexModel
	}{
		{s.UserCollection, []mongo.IndexModel{unique("unique_phone", bson.D{{Key: "phone", Value: 1}})}},
		{s.CategoryCollection, []mongo.IndexModel{unique("unique_name", bson.D{{Key: "name", Value: 1}})}},
		{s.ProductCollection, []mongo.IndexModel{{Keys: bson.D{{Key: "category", Value: 1}}}}},
		{s.CartCollection, []mongo.IndexModel{unique("unique_user", bson.D{{Key: "user", Value: 1}})}},
		{s.OrderCollection, []mongo.IndexModel{
			unique("unique_order_id", bson.D{{Key: "orderId", Value: 1}}),
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
		}},
		{s.PaymentCollection, []mongo.IndexModel{
			unique("unique_gateway_payment", bson.D{{Key: "razorpayPaymentId", Value: 1}}),
			{Keys: bson.D{{Key: "order", Value: 1}}},
		}},
		{s.IdempotencyCollection, []mongo.IndexModel{
			unique("unique_key", bson.D{{Key: "key", Value: 1}}),
			{
				Keys:    bson.D{{Key: "expires_at", Value: 1}},
				Options: options.Index().SetExpireAfterSeconds(0).SetName("ttl_expires_at"),
			},
		}},
	}
	for _, p := range plan {
		if _, err := p.coll.Indexes().CreateMany(ctx, p.idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", p.coll.Name(), err)
		}
	}
	return nil
}

// findOne decodes the first match into out and reports whether one existed.
func findOne(ctx context.Context, c *mongo.Collection, filter any, out any, opts ...*options.FindOneOptions) (bool, error) {
	err := c.FindOne(ctx, filter, opts...).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// duplicate turns a unique index violation into a Conflict error.
func duplicate(err error, msg string) error {
	if mongo.IsDuplicateKeyError(err) {
		return errs.Wrap(errs.Conflict, msg, err)
	}
	return err
}
