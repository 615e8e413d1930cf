package db

import (
	"context"

	"freshcart/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Idempotency stores Idempotency-Key records; expiry is handled by the TTL
// index on expires_at.
type Idempotency struct{ s *Store }

func (s *Store) Idempotency() *Idempotency { return &Idempotency{s: s} }

// Reserve inserts rec and reports false if the key is already taken.
func (i *Idempotency) Reserve(ctx context.Context, rec models.IdempotencyRecord) (bool, error) {
	_, err := i.s.IdempotencyCollection.InsertOne(ctx, rec)
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	return err == nil, err
}

func (i *Idempotency) Find(ctx context.Context, key string) (*models.IdempotencyRecord, error) {
	var rec models.IdempotencyRecord
	ok, err := findOne(ctx, i.s.IdempotencyCollection, bson.M{"key": key}, &rec)
	if err != nil || !ok {
		return nil, err
	}
	return &rec, nil
}

func (i *Idempotency) SaveResponse(ctx context.Context, key string, response map[string]interface{}) error {
	_, err := i.s.IdempotencyCollection.UpdateOne(ctx, bson.M{"key": key}, bson.M{"$set": bson.M{"response": response}})
	return err
}

// Release drops a reservation whose handler failed so the client can retry.
func (i *Idempotency) Release(ctx context.Context, key string) error {
	_, err := i.s.IdempotencyCollection.DeleteOne(ctx, bson.M{"key": key})
	return err
}
