package db

import (
	"context"
	"time"

	"freshcart/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// OrderUpdate lists the mutable order fields; nil pointers are left alone.
type OrderUpdate struct {
	Status            *string
	PaymentStatus     *string
	RazorpayPaymentID *string
	TrackingNumber    *string
	DeliveredAt       *time.Time
}

func (u OrderUpdate) bson() bson.M {
	set := bson.M{"updatedAt": time.Now()}
	if u.Status != nil {
		set["status"] = *u.Status
	}
	if u.PaymentStatus != nil {
		set["paymentStatus"] = *u.PaymentStatus
	}
	if u.RazorpayPaymentID != nil {
		set["razorpayPaymentId"] = *u.RazorpayPaymentID
	}
	if u.TrackingNumber != nil {
		set["trackingNumber"] = *u.TrackingNumber
	}
	if u.DeliveredAt != nil {
		set["deliveredAt"] = *u.DeliveredAt
	}
	return bson.M{"$set": set}
}

// OrderMatch selects the order to update. Ref is the internal id or the
// human-readable orderId; User and FromStatus narrow the match when set.
type OrderMatch struct {
	Ref        string
	User       string
	FromStatus []string
}

func (m OrderMatch) filter() bson.M {
	f := refFilter(m.Ref)
	if m.User != "" {
		f["user"] = m.User
	}
	if len(m.FromStatus) > 0 {
		f["status"] = bson.M{"$in": m.FromStatus}
	}
	return f
}

func refFilter(ref string) bson.M {
	return bson.M{"$or": bson.A{bson.M{"_id": ref}, bson.M{"orderId": ref}}}
}

type Orders struct{ s *Store }

func (s *Store) Orders() *Orders { return &Orders{s: s} }

// Insert stores a new order. A clash on orderId comes back as errs.Conflict.
func (o *Orders) Insert(ctx context.Context, order *models.Order) error {
	_, err := o.s.OrderCollection.InsertOne(ctx, order)
	return duplicate(err, "order id already taken")
}

// FindByRef looks an order up by internal id or orderId; nil if absent.
func (o *Orders) FindByRef(ctx context.Context, ref string) (*models.Order, error) {
	var order models.Order
	ok, err := findOne(ctx, o.s.OrderCollection, refFilter(ref), &order)
	if err != nil || !ok {
		return nil, err
	}
	return &order, nil
}

// List returns orders newest first, scoped to user when non-empty.
func (o *Orders) List(ctx context.Context, user string) ([]models.Order, error) {
	filter := bson.M{}
	if user != "" {
		filter["user"] = user
	}
	cursor, err := o.s.OrderCollection.Find(ctx, filter, options.Find().SetSort(bson.M{"createdAt": -1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// Update applies upd to the order selected by m and returns the updated
// document, or nil when nothing matched.
func (o *Orders) Update(ctx context.Context, m OrderMatch, upd OrderUpdate) (*models.Order, error) {
	return updateOrder(ctx, o.s.OrderCollection, m, upd)
}

func updateOrder(ctx context.Context, c *mongo.Collection, m OrderMatch, upd OrderUpdate) (*models.Order, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var order models.Order
	ok, err := decodeOrMissing(c.FindOneAndUpdate(ctx, m.filter(), upd.bson(), opts), &order)
	if err != nil || !ok {
		return nil, err
	}
	return &order, nil
}
