package db

import (
	"context"
	"log"

	"freshcart/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Payments records verified gateway payments. Confirm joins the order update
// and the payment insert; with transactions enabled both land atomically.
type Payments struct {
	s            *Store
	transactions bool
}

func (s *Store) Payments(transactions bool) *Payments {
	return &Payments{s: s, transactions: transactions}
}

func (p *Payments) FindByGatewayPaymentID(ctx context.Context, id string) (*models.Payment, error) {
	var pay models.Payment
	ok, err := findOne(ctx, p.s.PaymentCollection, bson.M{"razorpayPaymentId": id}, &pay)
	if err != nil || !ok {
		return nil, err
	}
	return &pay, nil
}

// Confirm marks the order paid and stores the payment. It returns the
// updated order, or nil if the order vanished.
func (p *Payments) Confirm(ctx context.Context, m OrderMatch, upd OrderUpdate, pay *models.Payment) (*models.Order, error) {
	if !p.transactions {
		return p.confirm(ctx, m, upd, pay)
	}

	session, err := p.s.Client.StartSession()
	if err != nil {
		return nil, err
	}
	defer session.EndSession(ctx)

	res, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return p.confirm(sc, m, upd, pay)
	})
	if err != nil {
		return nil, err
	}
	order, _ := res.(*models.Order)
	return order, nil
}

func (p *Payments) confirm(ctx context.Context, m OrderMatch, upd OrderUpdate, pay *models.Payment) (*models.Order, error) {
	order, err := updateOrder(ctx, p.s.OrderCollection, m, upd)
	if err != nil || order == nil {
		return nil, err
	}
	if _, err := p.s.PaymentCollection.InsertOne(ctx, pay); err != nil {
		if !p.transactions {
			log.Printf("payments: order %s confirmed but payment %s not stored: %v", order.OrderID, pay.RazorpayPaymentID, err)
		}
		return nil, duplicate(err, "payment already recorded")
	}
	return order, nil
}

