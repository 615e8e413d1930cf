package db

import (
	"context"
	"time"

	"freshcart/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Accounts is the identity store.
type Accounts struct{ s *Store }

func (s *Store) Accounts() *Accounts { return &Accounts{s: s} }

// FindByID returns nil when no account has the id.
func (a *Accounts) FindByID(ctx context.Context, id string) (*models.Account, error) {
	var acc models.Account
	ok, err := findOne(ctx, a.s.UserCollection, bson.M{"_id": id}, &acc)
	if err != nil || !ok {
		return nil, err
	}
	return &acc, nil
}

// FindByIDs returns the accounts that exist among ids, in no particular order.
func (a *Accounts) FindByIDs(ctx context.Context, ids []string) ([]models.Account, error) {
	if len(ids) == 0 {
		return []models.Account{}, nil
	}
	cursor, err := a.s.UserCollection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	accs := []models.Account{}
	if err := cursor.All(ctx, &accs); err != nil {
		return nil, err
	}
	return accs, nil
}

func (a *Accounts) FindByPhone(ctx context.Context, phone string) (*models.Account, error) {
	var acc models.Account
	ok, err := findOne(ctx, a.s.UserCollection, bson.M{"phone": phone}, &acc)
	if err != nil || !ok {
		return nil, err
	}
	return &acc, nil
}

// EnsureByPhone returns the account for phone, creating a customer account
// on first use.
func (a *Accounts) EnsureByPhone(ctx context.Context, phone string) (*models.Account, error) {
	now := time.Now()
	update := bson.M{
		"$setOnInsert": bson.M{
			"_id":        uuid.New().String(),
			"role":       models.RoleCustomer,
			"disabled":   false,
			"isVerified": false,
			"addresses":  []models.Address{},
			"createdAt":  now,
		},
		"$set": bson.M{"updatedAt": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var acc models.Account
	if err := a.s.UserCollection.FindOneAndUpdate(ctx, bson.M{"phone": phone}, update, opts).Decode(&acc); err != nil {
		return nil, duplicate(err, "account already exists")
	}
	return &acc, nil
}

func (a *Accounts) MarkLoggedIn(ctx context.Context, id string) error {
	now := time.Now()
	_, err := a.s.UserCollection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"isVerified": true, "lastLogin": now, "updatedAt": now},
	})
	return err
}

func (a *Accounts) SetDisabled(ctx context.Context, id string, disabled bool) (*models.Account, error) {
	return a.update(ctx, id, bson.M{"$set": bson.M{"disabled": disabled, "updatedAt": time.Now()}})
}

func (a *Accounts) AddAddress(ctx context.Context, id string, addr models.Address) (*models.Account, error) {
	return a.update(ctx, id, bson.M{
		"$push": bson.M{"addresses": addr},
		"$set":  bson.M{"updatedAt": time.Now()},
	})
}

func (a *Accounts) SetName(ctx context.Context, id, name string) (*models.Account, error) {
	return a.update(ctx, id, bson.M{"$set": bson.M{"name": name, "updatedAt": time.Now()}})
}

func (a *Accounts) update(ctx context.Context, id string, update bson.M) (*models.Account, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var acc models.Account
	ok, err := decodeOrMissing(a.s.UserCollection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts), &acc)
	if err != nil || !ok {
		return nil, err
	}
	return &acc, nil
}
