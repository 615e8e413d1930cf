package orders

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"freshcart/db"
	"freshcart/errs"
	"freshcart/middleware"
	"freshcart/models"
	"freshcart/mq"

	"github.com/shopspring/decimal"
)

const maxIDAttempts = 3

// Store is the order persistence the engine needs. FindByRef and Update
// return nil when nothing matches.
type Store interface {
	Insert(ctx context.Context, order *models.Order) error
	FindByRef(ctx context.Context, ref string) (*models.Order, error)
	List(ctx context.Context, user string) ([]models.Order, error)
	Update(ctx context.Context, m db.OrderMatch, upd db.OrderUpdate) (*models.Order, error)
}

type ProductFinder interface {
	FindProductsByIDs(ctx context.Context, ids []string) ([]models.Product, error)
}

type AccountFinder interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Account, error)
}

// EventSink receives order lifecycle events.
type EventSink interface {
	Emit(ctx context.Context, evt mq.OrderEvent)
}

type Service struct {
	orders   Store
	catalog  ProductFinder
	accounts AccountFinder
	events   EventSink
	now      func() time.Time
	newID    func() string
	uuid     func() string
}

func NewService(orders Store, catalog ProductFinder, accounts AccountFinder, uuid func() string) *Service {
	s := &Service{
		orders:   orders,
		catalog:  catalog,
		accounts: accounts,
		now:      time.Now,
		uuid:     uuid,
	}
	s.newID = s.orderID
	return s
}

// WithEvents makes the service publish order lifecycle events to sink.
func (s *Service) WithEvents(sink EventSink) *Service {
	s.events = sink
	return s
}

func (s *Service) emit(ctx context.Context, typ string, o *models.Order) {
	if s.events != nil && o != nil {
		s.events.Emit(ctx, mq.NewOrderEvent(typ, o))
	}
}

// orderID formats ORD-<epoch millis>-<0..9999>. Uniqueness is enforced by the
// store's index, not here.
func (s *Service) orderID() string {
	return fmt.Sprintf("ORD-%d-%d", s.now().UnixMilli(), rand.IntN(10000))
}

// CreateInput is an order as submitted at checkout.
type CreateInput struct {
	OrderItems      []models.OrderItem `json:"orderItems"`
	TotalPrice      float64            `json:"totalPrice"`
	ShippingAddress models.Address     `json:"shippingAddress"`
	PaymentMode     string             `json:"paymentMode"`
	Notes           string             `json:"notes"`
}

// Create places a new order awaiting payment. A zero TotalPrice is filled in
// from the item snapshot.
func (s *Service) Create(ctx context.Context, owner string, in CreateInput) (*models.Order, error) {
	if err := checkItems(in.OrderItems); err != nil {
		return nil, err
	}
	if !in.ShippingAddress.Deliverable() {
		return nil, errs.E(errs.MissingShippingAddress, "Shipping address is required")
	}
	if in.TotalPrice < 0 {
		return nil, errs.E(errs.ValidationError, "Total price cannot be negative")
	}
	total := in.TotalPrice
	if total == 0 {
		total = snapshotTotal(in.OrderItems)
	}

	now := s.now()
	order := &models.Order{
		User:            owner,
		OrderItems:      in.OrderItems,
		TotalPrice:      total,
		ShippingAddress: in.ShippingAddress,
		PaymentMode:     in.PaymentMode,
		Notes:           in.Notes,
		Status:          models.StatusPaymentPending,
		PaymentStatus:   models.PaymentPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	var err error
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		order.ID = s.uuid()
		order.OrderID = s.newID()
		err = s.orders.Insert(ctx, order)
		if err == nil {
			s.emit(ctx, mq.OrderCreated, order)
			return order, nil
		}
		if !errs.Has(err, errs.Conflict) {
			return nil, err
		}
	}
	return nil, err
}

func checkItems(items []models.OrderItem) error {
	if len(items) == 0 {
		return errs.E(errs.InvalidOrderItems, "Order items are required")
	}
	for i, it := range items {
		switch {
		case it.Product == "":
			return errs.E(errs.InvalidOrderItems, fmt.Sprintf("Item %d has no product", i))
		case it.Quantity <= 0:
			return errs.E(errs.InvalidOrderItems, fmt.Sprintf("Item %d must have a positive quantity", i))
		case it.Price <= 0:
			return errs.E(errs.InvalidOrderItems, fmt.Sprintf("Item %d must have a positive price", i))
		}
	}
	return nil
}

func snapshotTotal(items []models.OrderItem) float64 {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum.InexactFloat64()
}

// Get returns the order by internal id or orderId with its owner and
// products expanded. Orders the actor may not read look absent.
func (s *Service) Get(ctx context.Context, actor *models.Account, ref string) (*models.OrderView, error) {
	order, err := s.visible(ctx, actor, ref)
	if err != nil {
		return nil, err
	}
	return s.expand(ctx, order)
}

func (s *Service) visible(ctx context.Context, actor *models.Account, ref string) (*models.Order, error) {
	order, err := s.orders.FindByRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	if order == nil || !middleware.Allowed(middleware.OrderRead, actor, actor != nil && order.User == actor.ID) {
		return nil, errs.E(errs.OrderNotFound, "Order not found")
	}
	return order, nil
}

func (s *Service) expand(ctx context.Context, order *models.Order) (*models.OrderView, error) {
	views, err := s.expandAll(ctx, []models.Order{*order})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// expandAll resolves owners and products for a batch of orders with one
// lookup per collection.
func (s *Service) expandAll(ctx context.Context, orders []models.Order) ([]models.OrderView, error) {
	var productIDs, userIDs []string
	for _, o := range orders {
		userIDs = append(userIDs, o.User)
		for _, it := range o.OrderItems {
			productIDs = append(productIDs, it.Product)
		}
	}
	slices.Sort(productIDs)
	slices.Sort(userIDs)
	productIDs, userIDs = slices.Compact(productIDs), slices.Compact(userIDs)

	products, err := s.catalog.FindProductsByIDs(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("catalog lookup: %w", err)
	}
	productByID := make(map[string]*models.Product, len(products))
	for i := range products {
		productByID[products[i].ID] = &products[i]
	}
	accounts, err := s.accounts.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("owner lookup: %w", err)
	}
	accountByID := make(map[string]*models.Account, len(accounts))
	for i := range accounts {
		accountByID[accounts[i].ID] = &accounts[i]
	}

	views := make([]models.OrderView, 0, len(orders))
	for _, o := range orders {
		view := models.OrderView{Order: o, UserDetail: accountByID[o.User], OrderItems: make([]models.OrderLine, 0, len(o.OrderItems))}
		for _, it := range o.OrderItems {
			view.OrderItems = append(view.OrderItems, models.OrderLine{OrderItem: it, ProductDetail: productByID[it.Product]})
		}
		views = append(views, view)
	}
	return views, nil
}

// List returns every order, or only userFilter's when set, with owners and
// products expanded. Admins only.
func (s *Service) List(ctx context.Context, actor *models.Account, userFilter string) ([]models.OrderView, error) {
	if !middleware.Allowed(middleware.OrderListAll, actor, false) {
		return nil, errs.E(errs.Forbidden, "You are not allowed to list orders")
	}
	orders, err := s.orders.List(ctx, userFilter)
	if err != nil {
		return nil, err
	}
	return s.expandAll(ctx, orders)
}

// Mine returns the owner's orders, newest first.
func (s *Service) Mine(ctx context.Context, owner string) ([]models.Order, error) {
	return s.orders.List(ctx, owner)
}

// open lists the statuses an admin may still move an order out of.
var open = slices.DeleteFunc(slices.Clone(models.OrderStatuses), models.IsTerminalStatus)

// UpdateStatus is the back-office transition. Any enumerated status may be
// set as long as the order is not already terminal.
func (s *Service) UpdateStatus(ctx context.Context, actor *models.Account, ref, status, tracking string) (*models.Order, error) {
	if !models.IsOrderStatus(status) {
		return nil, errs.E(errs.InvalidStatus, fmt.Sprintf("Invalid status %q", status))
	}
	if !middleware.Allowed(middleware.OrderUpdateStatus, actor, false) {
		return nil, errs.E(errs.Forbidden, "You are not allowed to change order status")
	}

	upd := db.OrderUpdate{Status: &status}
	if tracking != "" {
		upd.TrackingNumber = &tracking
	}
	if status == models.StatusDelivered {
		at := s.now()
		upd.DeliveredAt = &at
	}

	order, err := s.orders.Update(ctx, db.OrderMatch{Ref: ref, FromStatus: open}, upd)
	if err != nil {
		return nil, err
	}
	if order != nil {
		s.emit(ctx, mq.OrderStatusChanged, order)
		return order, nil
	}
	return nil, s.whyNotUpdated(ctx, ref, "")
}

// CancelByUser lets the owner cancel an order that has not shipped yet.
func (s *Service) CancelByUser(ctx context.Context, actor *models.Account, ref, status string) (*models.Order, error) {
	if !models.IsOrderStatus(status) {
		return nil, errs.E(errs.InvalidStatus, fmt.Sprintf("Invalid status %q", status))
	}
	if status != models.StatusCancelledByUser {
		if actor.IsAdmin() {
			return s.UpdateStatus(ctx, actor, ref, status, "")
		}
		return nil, errs.E(errs.Forbidden, "You can only cancel your own orders")
	}
	if actor == nil {
		return nil, errs.E(errs.Unauthenticated, "Unauthorized")
	}

	order, err := s.orders.Update(ctx, db.OrderMatch{
		Ref:        ref,
		User:       actor.ID,
		FromStatus: []string{models.StatusPaymentPending, models.StatusOrderConfirmed},
	}, db.OrderUpdate{Status: &status})
	if err != nil {
		return nil, err
	}
	if order != nil {
		s.emit(ctx, mq.OrderStatusChanged, order)
		return order, nil
	}
	return nil, s.whyNotUpdated(ctx, ref, actor.ID)
}

// whyNotUpdated tells a missing (or foreign) order apart from one whose
// current status forbids the transition.
func (s *Service) whyNotUpdated(ctx context.Context, ref, owner string) error {
	order, err := s.orders.FindByRef(ctx, ref)
	if err != nil {
		return err
	}
	if order == nil || (owner != "" && order.User != owner) {
		return errs.E(errs.OrderNotFound, "Order not found")
	}
	if models.IsTerminalStatus(order.Status) {
		return errs.E(errs.InvalidTransition, fmt.Sprintf("Order is already %s", order.Status))
	}
	return errs.E(errs.InvalidTransition, fmt.Sprintf("Order can no longer be cancelled, it is %s", order.Status))
}
