package cart

import (
	"context"
	"fmt"
	"slices"
	"time"

	"freshcart/errs"
	"freshcart/models"

	"github.com/shopspring/decimal"
)

const (
	lockTTL       = 5 * time.Second
	maxCASRetries = 3
)

// Store persists carts. FindByUser returns nil when the user has none; Save
// reports a lost compare-and-swap as errs.Conflict.
type Store interface {
	FindByUser(ctx context.Context, user string) (*models.Cart, error)
	Save(ctx context.Context, cart *models.Cart) error
}

// ProductFinder is the catalog lookup used to price carts.
type ProductFinder interface {
	FindProductsByIDs(ctx context.Context, ids []string) ([]models.Product, error)
}

// Locker serializes mutations of one owner's cart.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

type Service struct {
	carts   Store
	catalog ProductFinder
	locker  Locker
}

// NewService builds the cart engine. locker may be nil, in which case only the
// store's version check guards concurrent writers.
func NewService(carts Store, catalog ProductFinder, locker Locker) *Service {
	return &Service{carts: carts, catalog: catalog, locker: locker}
}

// Total is the stored cart total and the number of units in the cart.
type Total struct {
	TotalPrice float64 `json:"totalPrice"`
	ItemCount  int     `json:"itemCount"`
}

func (s *Service) Get(ctx context.Context, owner string) (*models.CartView, error) {
	cart, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	products, err := s.products(ctx, cart.Items)
	if err != nil {
		return nil, err
	}
	return view(cart, products), nil
}

func (s *Service) Total(ctx context.Context, owner string) (Total, error) {
	cart, err := s.load(ctx, owner)
	if err != nil {
		return Total{}, err
	}
	t := Total{TotalPrice: cart.TotalPrice}
	for _, it := range cart.Items {
		t.ItemCount += it.Quantity
	}
	return t, nil
}

// AddItem puts quantity of product into the owner's cart, creating the cart
// on first use. Repeated adds of one product accumulate.
func (s *Service) AddItem(ctx context.Context, owner, product string, quantity int) (*models.CartView, error) {
	if product == "" {
		return nil, errs.E(errs.ValidationError, "Product is required")
	}
	if quantity <= 0 {
		return nil, errs.E(errs.ValidationError, "Quantity must be a positive integer")
	}
	return s.mutate(ctx, owner, true, func(c *models.Cart) error {
		if i := indexOf(c.Items, product); i >= 0 {
			c.Items[i].Quantity += quantity
			return nil
		}
		c.Items = append(c.Items, models.CartItem{Product: product, Quantity: quantity})
		return nil
	})
}

// UpdateItem replaces the quantity of a product already in the cart.
// Quantities below one are refused; removal has its own operation.
func (s *Service) UpdateItem(ctx context.Context, owner, product string, quantity int) (*models.CartView, error) {
	if product == "" {
		return nil, errs.E(errs.ValidationError, "Product is required")
	}
	if quantity <= 0 {
		return nil, errs.E(errs.ValidationError, "Quantity must be at least 1; use remove to delete an item")
	}
	return s.mutate(ctx, owner, false, func(c *models.Cart) error {
		i := indexOf(c.Items, product)
		if i < 0 {
			return errs.E(errs.ItemNotInCart, "Product not found in cart")
		}
		c.Items[i].Quantity = quantity
		return nil
	})
}

// RemoveItem drops product from the cart. Removing an absent product is a
// no-op.
func (s *Service) RemoveItem(ctx context.Context, owner, product string) (*models.CartView, error) {
	if product == "" {
		return nil, errs.E(errs.ValidationError, "Product is required")
	}
	return s.mutate(ctx, owner, false, func(c *models.Cart) error {
		c.Items = slices.DeleteFunc(c.Items, func(it models.CartItem) bool { return it.Product == product })
		return nil
	})
}

// ComputeTotal prices items at live catalog prices; products that cannot be
// resolved contribute nothing.
func (s *Service) ComputeTotal(ctx context.Context, items []models.CartItem) (float64, error) {
	products, err := s.products(ctx, items)
	if err != nil {
		return 0, err
	}
	return total(items, products), nil
}

func (s *Service) mutate(ctx context.Context, owner string, create bool, apply func(*models.Cart) error) (*models.CartView, error) {
	if s.locker != nil {
		release, err := s.locker.Lock(ctx, "cart_lock:"+owner, lockTTL)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	var lastErr error
	for attempt := 0; attempt < maxCASRetries; attempt++ {
		cart, err := s.carts.FindByUser(ctx, owner)
		if err != nil {
			return nil, err
		}
		if cart == nil {
			if !create {
				return nil, errs.E(errs.CartNotFound, "Cart not found")
			}
			cart = &models.Cart{User: owner, Items: []models.CartItem{}}
		}
		if err := apply(cart); err != nil {
			return nil, err
		}

		products, err := s.products(ctx, cart.Items)
		if err != nil {
			return nil, err
		}
		cart.TotalPrice = total(cart.Items, products)

		err = s.carts.Save(ctx, cart)
		if err == nil {
			return view(cart, products), nil
		}
		if !errs.Has(err, errs.Conflict) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (s *Service) load(ctx context.Context, owner string) (*models.Cart, error) {
	cart, err := s.carts.FindByUser(ctx, owner)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, errs.E(errs.CartNotFound, "Cart not found")
	}
	return cart, nil
}

func (s *Service) products(ctx context.Context, items []models.CartItem) (map[string]*models.Product, error) {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.Product)
	}
	found, err := s.catalog.FindProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("catalog lookup: %w", err)
	}
	byID := make(map[string]*models.Product, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
	}
	return byID, nil
}

func total(items []models.CartItem, products map[string]*models.Product) float64 {
	sum := decimal.Zero
	for _, it := range items {
		p, ok := products[it.Product]
		if !ok {
			continue
		}
		sum = sum.Add(decimal.NewFromFloat(p.CurrentPrice).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum.InexactFloat64()
}

func view(c *models.Cart, products map[string]*models.Product) *models.CartView {
	lines := make([]models.CartLine, 0, len(c.Items))
	for _, it := range c.Items {
		lines = append(lines, models.CartLine{
			Product:   products[it.Product],
			ProductID: it.Product,
			Quantity:  it.Quantity,
		})
	}
	return &models.CartView{
		ID:         c.ID,
		User:       c.User,
		Items:      lines,
		TotalPrice: c.TotalPrice,
		UpdatedAt:  c.UpdatedAt,
	}
}

func indexOf(items []models.CartItem, product string) int {
	return slices.IndexFunc(items, func(it models.CartItem) bool { return it.Product == product })
}
