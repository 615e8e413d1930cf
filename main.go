package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"freshcart/accounts"
	"freshcart/auth"
	"freshcart/cart"
	"freshcart/config"
	"freshcart/db"
	"freshcart/middleware"
	"freshcart/mq"
	"freshcart/orders"
	"freshcart/pay"
	"freshcart/products"
	"freshcart/ratelim"
	"freshcart/rdx"
	"freshcart/routes"
	"freshcart/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
)

// health reports liveness plus the reachability of Mongo and Redis.
func health(store *db.Store, kv *rdx.Client) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := utils.M{"mongo": "ok", "redis": "ok"}
		code := http.StatusOK
		if err := store.Client.Ping(ctx, nil); err != nil {
			status["mongo"] = err.Error()
			code = http.StatusServiceUnavailable
		}
		if err := kv.Conn.Ping(ctx).Err(); err != nil {
			status["redis"] = err.Error()
			code = http.StatusServiceUnavailable
		}
		utils.RespondWithJSON(w, code, status)
	}
}

func main() {
	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}
	if cfg.RazorpayKeyID == "" || cfg.RazorpayKeySecret == "" {
		log.Println("RAZORPAY_KEY_ID / RAZORPAY_KEY_SECRET not set; payment routes will fail")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	store, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("mongo: %v", err)
	}
	if err := store.EnsureIndexes(ctx); err != nil {
		log.Fatalf("mongo indexes: %v", err)
	}
	kv, err := rdx.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	cancel()

	accountStore := store.Accounts()
	catalog := store.Catalog()
	orderStore := store.Orders()

	events := mq.NewEmitter(kv)
	gateway := pay.NewRazorpayClient(cfg.RazorpayBaseURL, cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.GatewayTimeout)

	deps := routes.Deps{
		Resolver:       &middleware.Resolver{Secret: []byte(cfg.JWTSecret), Accounts: accountStore},
		RateLimiter:    ratelim.NewRateLimiter(cfg.RateLimitPerMin, cfg.RateLimitBurst),
		Idempotency:    store.Idempotency(),
		IdempotencyTTL: cfg.IdempotencyTTL,

		Auth:     auth.NewHandler(auth.NewService(kv, accountStore, auth.LogSender{}, cfg.JWTSecret, cfg.OTPTTL, cfg.TokenTTL)),
		Accounts: accounts.NewHandler(accountStore),
		Products: products.NewHandler(catalog),
		Cart:     cart.NewHandler(cart.NewService(store.Carts(), catalog, kv)),
		Orders:   orders.NewHandler(orders.NewService(orderStore, catalog, accountStore, utils.GetUUID).WithEvents(events)),
		Pay: pay.NewHandler(pay.NewService(gateway, orderStore, store.Payments(cfg.MongoTransactions),
			cfg.RazorpayKeySecret, utils.GetUUID).WithEvents(events)),
	}

	router := httprouter.New()
	router.GET("/health", health(store, kv))
	routes.RoutesWrapper(router, deps)

	// CORS → security headers → logging → router
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "Idempotency-Key"},
		AllowCredentials: true,
	}).Handler(router)

	handler := middleware.Logging(middleware.SecurityHeaders(corsHandler))

	server := &http.Server{
		Addr:              cfg.Port,
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      cfg.GatewayTimeout + 15*time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutdown signal received; shutting down gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
	store.Close(shutdownCtx)
	if err := kv.Close(); err != nil {
		log.Printf("redis close: %v", err)
	}
	log.Println("Server stopped cleanly")
}
