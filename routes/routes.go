package routes

import (
	"freshcart/middleware"

	"github.com/julienschmidt/httprouter"
)

func AddAuthRoutes(router *httprouter.Router, d Deps) {
	router.POST("/api/send-otp", d.RateLimiter.Limit(d.Auth.SendOTP))
	router.POST("/api/verify-otp", d.RateLimiter.Limit(d.Auth.VerifyOTP))
}

func AddAccountRoutes(router *httprouter.Router, d Deps) {
	router.GET("/api/me", d.Resolver.Authenticate(d.Accounts.Me))
	router.PUT("/api/me", d.Resolver.Authenticate(d.Accounts.UpdateMe))
	router.POST("/api/me/addresses", d.Resolver.Authenticate(d.Accounts.AddAddress))

	toggle := middleware.Chain(d.Resolver.Authenticate, middleware.Require(middleware.AccountToggle))
	router.PUT("/api/users/:id/disable", toggle(d.Accounts.Disable))
	router.PUT("/api/users/:id/enable", toggle(d.Accounts.Enable))
}

func AddProductRoutes(router *httprouter.Router, d Deps) {
	router.GET("/product/list", d.Products.ListProducts)
	router.GET("/product/get/:id", d.Products.GetProduct)
	router.GET("/category/list", d.Products.ListCategories)

	admin := middleware.Chain(d.Resolver.Authenticate, middleware.Require(middleware.CatalogWrite))
	router.POST("/product/create", admin(d.Products.CreateProduct))
	router.PUT("/product/update/:id", admin(d.Products.UpdateProduct))
	router.POST("/category/create", admin(d.Products.CreateCategory))
}

func AddCartRoutes(router *httprouter.Router, d Deps) {
	router.GET("/cart/get", d.Resolver.Authenticate(d.Cart.GetCart))
	router.GET("/cart/total", d.Resolver.Authenticate(d.Cart.GetCartTotal))
	router.POST("/cart/add", d.Resolver.Authenticate(d.Cart.AddToCart))
	router.PUT("/cart/update", d.Resolver.Authenticate(d.Cart.UpdateCart))
	router.DELETE("/cart/remove", d.Resolver.Authenticate(d.Cart.RemoveFromCart))
}

func AddOrderRoutes(router *httprouter.Router, d Deps) {
	router.POST("/order/create",
		middleware.Chain(d.Resolver.Authenticate, middleware.Require(middleware.OrderCreate))(d.Orders.CreateOrder))
	router.GET("/order/get/:id", d.Resolver.Authenticate(d.Orders.GetOrder))
	router.GET("/order/invoice/:id", d.Resolver.Authenticate(d.Orders.Invoice))
	router.GET("/order/getOrders", d.Resolver.Authenticate(d.Orders.MyOrders))
	router.GET("/order/list",
		middleware.Chain(d.Resolver.Authenticate, middleware.Require(middleware.OrderListAll))(d.Orders.ListOrders))
	router.PUT("/order/update-status/:id",
		middleware.Chain(d.Resolver.Authenticate, middleware.Require(middleware.OrderUpdateStatus))(d.Orders.UpdateStatus))
	router.PUT("/order/update-status-by-user", d.Resolver.Authenticate(d.Orders.UpdateStatusByUser))
}
