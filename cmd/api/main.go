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
	"go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/rmarques/storefront/internal/auth"
	"github.com/rmarques/storefront/internal/cart"
	"github.com/rmarques/storefront/internal/catalog"
	"github.com/rmarques/storefront/internal/config"
	"github.com/rmarques/storefront/internal/messaging"
	"github.com/rmarques/storefront/internal/orders"
	"github.com/rmarques/storefront/internal/telemetry"
	"github.com/rmarques/storefront/internal/users"
)

const (
	serviceName    = "storefront-api"
	serviceVersion = "0.1.0"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.PostgresURL == "" {
		logger.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}
	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.OTLPEndpoint, serviceName, serviceVersion)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(serviceName, serviceVersion)
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	if err := runtime.Start(); err != nil {
		logger.Error("failed to start runtime instrumentation", "error", err)
		os.Exit(1)
	}

	db, err := telemetry.OpenDB("postgres", cfg.PostgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	db.SetMaxOpenConns(cfg.MaxOpenConns)

	if err := db.Ping(); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	var producer *messaging.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = messaging.NewProducer(cfg.KafkaBrokers, cfg.OrderTopic)
		defer func() { _ = producer.Close() }()
	}

	userRepo := users.NewRepository(db)
	cartRepo := cart.NewRepository(db)
	orderRepo := orders.NewRepository(db)
	productRepo := catalog.NewRepository(db)

	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	mw := auth.NewMiddleware(issuer, userRepo, logger)

	authHandler := auth.NewHandler(userRepo, issuer, logger)
	cartHandler := cart.NewHandler(cartRepo, logger)
	orderHandler := orders.NewHandler(orderRepo, producer, cfg.RestockOnCancel, logger)
	productHandler := catalog.NewHandler(productRepo, logger)

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metricsHandler)

	mux.HandleFunc("POST /auth/signup", telemetry.WithHTTPRoute(authHandler.HandleSignup))
	mux.HandleFunc("POST /auth/login", telemetry.WithHTTPRoute(authHandler.HandleLogin))
	mux.HandleFunc("PATCH /auth/password", telemetry.WithHTTPRoute(mw.Authenticate(authHandler.HandleChangePassword)))

	mux.HandleFunc("GET /products", telemetry.WithHTTPRoute(productHandler.HandleList))
	mux.HandleFunc("GET /products/{id}", telemetry.WithHTTPRoute(productHandler.HandleGet))
	mux.HandleFunc("POST /admin/products", telemetry.WithHTTPRoute(mw.RequireAdmin(productHandler.HandleCreate)))
	mux.HandleFunc("PUT /admin/products/{id}", telemetry.WithHTTPRoute(mw.RequireAdmin(productHandler.HandleUpdate)))
	mux.HandleFunc("DELETE /admin/products/{id}", telemetry.WithHTTPRoute(mw.RequireAdmin(productHandler.HandleDelete)))

	mux.HandleFunc("GET /cart", telemetry.WithHTTPRoute(mw.Authenticate(cartHandler.HandleGet)))
	mux.HandleFunc("POST /cart/items", telemetry.WithHTTPRoute(mw.Authenticate(cartHandler.HandleAddLine)))
	mux.HandleFunc("PATCH /cart/items/{id}", telemetry.WithHTTPRoute(mw.Authenticate(cartHandler.HandleUpdateQuantity)))
	mux.HandleFunc("DELETE /cart/items/{id}", telemetry.WithHTTPRoute(mw.Authenticate(cartHandler.HandleRemoveLine)))
	mux.HandleFunc("DELETE /cart", telemetry.WithHTTPRoute(mw.Authenticate(cartHandler.HandleClear)))

	mux.HandleFunc("POST /orders", telemetry.WithHTTPRoute(mw.Authenticate(orderHandler.HandleCreate)))
	mux.HandleFunc("GET /orders", telemetry.WithHTTPRoute(mw.Authenticate(orderHandler.HandleListOwn)))
	mux.HandleFunc("GET /orders/{id}", telemetry.WithHTTPRoute(mw.Authenticate(orderHandler.HandleGet)))
	mux.HandleFunc("PATCH /orders/{id}/cancel", telemetry.WithHTTPRoute(mw.Authenticate(orderHandler.HandleCancel)))

	mux.HandleFunc("GET /admin/orders", telemetry.WithHTTPRoute(mw.RequireAdmin(orderHandler.HandleListAll)))
	mux.HandleFunc("PATCH /admin/orders/{id}", telemetry.WithHTTPRoute(mw.RequireAdmin(orderHandler.HandleUpdateStatus)))

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: otelhttp.NewHandler(mux, serviceName,
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
		logger.Info("starting storefront api", "port", cfg.Port, "env", cfg.Env)
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
