package routes

import (
	"freshcart/middleware"
	"freshcart/pay"

	"github.com/julienschmidt/httprouter"
)

// AddPayRoutes wires the payment handlers. Both endpoints honour
// Idempotency-Key.
func AddPayRoutes(router *httprouter.Router, d Deps) {
	idem := pay.Idempotent(d.Idempotency, d.IdempotencyTTL)

	router.POST("/payment/create",
		middleware.Chain(
			d.RateLimiter.Limit,
			d.Resolver.Authenticate,
			middleware.Require(middleware.PaymentCreate),
			idem,
		)(d.Pay.CreatePaymentOrder),
	)

	router.POST("/payment/verify-payment",
		middleware.Chain(
			d.RateLimiter.Limit,
			d.Resolver.Authenticate,
			idem,
		)(d.Pay.VerifyPayment),
	)
}
