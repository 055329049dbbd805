package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/greenbasket/greenbasket/internal/cart"
	"github.com/greenbasket/greenbasket/internal/catalog"
	"github.com/greenbasket/greenbasket/internal/checkout"
	"github.com/greenbasket/greenbasket/internal/config"
	"github.com/greenbasket/greenbasket/internal/email"
	"github.com/greenbasket/greenbasket/internal/identity"
	"github.com/greenbasket/greenbasket/internal/messaging"
	"github.com/greenbasket/greenbasket/internal/orders"
	"github.com/greenbasket/greenbasket/internal/payment"
	"github.com/greenbasket/greenbasket/internal/reviews"
	"github.com/greenbasket/greenbasket/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	svc := telemetry.Service{Name: "api", Version: "0.1.0"}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, svc, os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(svc)
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	db, err := telemetry.OpenDB("postgres", cfg.PostgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	passcodes, err := identity.NewRedisPasscodeStore(cfg.RedisURL)
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}

	var publisher checkout.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		producer := messaging.NewProducer(cfg.KafkaBrokers, messaging.TopicOrderCreated)
		defer func() { _ = producer.Close() }()
		publisher = producer
	}

	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	users := identity.NewUserRepository(db)
	products := catalog.NewRepository(db)
	carts := cart.NewRepository(db)
	orderRepo := orders.NewRepository(db)
	payments := payment.NewRepository(db)
	reviewRepo := reviews.NewRepository(db)

	tokens := identity.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	mailer := email.NewClient(cfg.EmailServiceURL, httpClient)
	gateway := payment.NewClient(cfg.Payment.GatewayURL, cfg.Payment.KeyID, httpClient)

	identityService := identity.NewService(users, passcodes, tokens, mailer, logger)
	checkoutService := checkout.NewService(
		products, users, orderRepo, payments, gateway, publisher,
		cfg.Payment.KeySecret, cfg.Payment.Currency, logger,
	)

	identityHandler := identity.NewHandler(identityService, logger)
	catalogHandler := catalog.NewHandler(products, logger)
	cartHandler := cart.NewHandler(carts, logger)
	orderHandler := orders.NewHandler(orderRepo, logger)
	checkoutHandler := checkout.NewHandler(checkoutService, logger)
	reviewHandler := reviews.NewHandler(reviewRepo, logger)

	mux := http.NewServeMux()

	route := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, telemetry.WithHTTPRoute(h))
	}
	authed := func(pattern string, h http.HandlerFunc) {
		route(pattern, tokens.RequireAuth(h))
	}
	admin := func(pattern string, h http.HandlerFunc) {
		route(pattern, tokens.RequireAdmin(h))
	}

	route("POST /auth/register", identityHandler.HandleRegister)
	route("POST /auth/login", identityHandler.HandleLogin)
	route("POST /auth/logout", identityHandler.HandleLogout)
	route("POST /auth/forgot-password", identityHandler.HandleForgotPassword)
	route("POST /auth/verify-otp", identityHandler.HandleVerifyPasscode)
	authed("GET /auth/users/{id}", identityHandler.HandleGetUser)
	authed("PUT /auth/profile", identityHandler.HandleUpdateProfile)
	authed("PUT /auth/password", identityHandler.HandleChangePassword)
	authed("GET /auth/users/{id}/addresses", identityHandler.HandleGetAddresses)
	authed("PUT /auth/users/{id}/addresses", identityHandler.HandleUpdateAddresses)
	authed("PUT /auth/users/{id}/role", identityHandler.HandleUpdateRole)

	route("GET /products", catalogHandler.HandleList)
	route("GET /products/slug/{slug}", catalogHandler.HandleGetBySlug)
	route("GET /products/id/{id}", catalogHandler.HandleGetByID)
	route("GET /products/search", catalogHandler.HandleSearch)
	route("GET /products/featured", catalogHandler.HandleFeatured)
	route("GET /products/bulk", catalogHandler.HandleBulk)
	route("GET /products/similar/{slug}", catalogHandler.HandleSimilar)
	route("GET /products/category/{slug}", catalogHandler.HandleListByCategory)
	admin("POST /products", catalogHandler.HandleCreate)
	admin("PUT /products/{id}", catalogHandler.HandleUpdate)
	admin("DELETE /products/{id}", catalogHandler.HandleDelete)
	route("GET /categories", catalogHandler.HandleListCategories)
	admin("POST /categories", catalogHandler.HandleCreateCategory)

	authed("GET /cart/{userId}", cartHandler.HandleGet)
	authed("POST /cart/add", cartHandler.HandleAddItem)
	authed("PUT /cart/update", cartHandler.HandleUpdateItem)
	authed("DELETE /cart/remove/{productId}", cartHandler.HandleRemoveItem)
	authed("DELETE /cart/clear/{userId}", cartHandler.HandleClear)

	authed("POST /payment/create-order", checkoutHandler.HandleCreateIntent)
	authed("POST /payment/verify", checkoutHandler.HandleVerify)
	authed("POST /payment/place-cod-order", checkoutHandler.HandlePlaceCOD)

	authed("GET /orders/get/{userId}", orderHandler.HandleListByUser)
	admin("GET /orders/admin/orders", orderHandler.HandleListAll)
	admin("PATCH /orders/{id}/delivered", orderHandler.HandleMarkDelivered)

	authed("POST /reviews/create", reviewHandler.HandleCreate)
	route("GET /reviews/product/{productId}", reviewHandler.HandleListForProduct)
	authed("PUT /reviews/{id}", reviewHandler.HandleUpdate)
	authed("DELETE /reviews/{id}", reviewHandler.HandleDelete)

	route("GET /testimonials/featured", reviewHandler.HandleFeaturedTestimonials)
	admin("POST /testimonials/create", reviewHandler.HandleCreateTestimonial)
	admin("GET /testimonials/getall", reviewHandler.HandleListTestimonials)
	admin("PUT /testimonials/update/{id}", reviewHandler.HandleUpdateTestimonial)
	admin("DELETE /testimonials/delete/{id}", reviewHandler.HandleDeleteTestimonial)

	mux.Handle("GET /metrics", metricsHandler)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: otelhttp.NewHandler(mux, "api",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting api service", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
