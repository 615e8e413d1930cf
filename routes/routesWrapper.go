package routes

import (
	"time"

	"freshcart/accounts"
	"freshcart/auth"
	"freshcart/cart"
	"freshcart/middleware"
	"freshcart/orders"
	"freshcart/pay"
	"freshcart/products"
	"freshcart/ratelim"

	"github.com/julienschmidt/httprouter"
)

// Deps carries everything the route tables wire together.
type Deps struct {
	Resolver       *middleware.Resolver
	RateLimiter    *ratelim.RateLimiter
	Idempotency    pay.IdempotencyStore
	IdempotencyTTL time.Duration

	Auth     *auth.Handler
	Accounts *accounts.Handler
	Products *products.Handler
	Cart     *cart.Handler
	Orders   *orders.Handler
	Pay      *pay.Handler
}

func RoutesWrapper(router *httprouter.Router, d Deps) {
	AddAuthRoutes(router, d)
	AddAccountRoutes(router, d)
	AddProductRoutes(router, d)
	AddCartRoutes(router, d)
	AddOrderRoutes(router, d)
	AddPayRoutes(router, d)
}
