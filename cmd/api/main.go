package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/gosbiromania/storefront-backend/api/routes"
	"github.com/gosbiromania/storefront-backend/internal/auth"
	"github.com/gosbiromania/storefront-backend/internal/cart"
	"github.com/gosbiromania/storefront-backend/internal/catalog"
	"github.com/gosbiromania/storefront-backend/internal/checkout"
	"github.com/gosbiromania/storefront-backend/internal/customers"
	"github.com/gosbiromania/storefront-backend/internal/orders"
	"github.com/gosbiromania/storefront-backend/pkg/auth/session"
	"github.com/gosbiromania/storefront-backend/pkg/config"
	"github.com/gosbiromania/storefront-backend/pkg/db"
	"github.com/gosbiromania/storefront-backend/pkg/instance"
	"github.com/gosbiromania/storefront-backend/pkg/logger"
	"github.com/gosbiromania/storefront-backend/pkg/metrics"
	"github.com/gosbiromania/storefront-backend/pkg/migrate"
	"github.com/gosbiromania/storefront-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Console:     cfg.App.ConsoleLogs(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		return err
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.AutoApply(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		return err
	}
	defer func() {
		err = multierr.Append(err, redisClient.Close())
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(ctx, "failed to create session manager", err)
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	customerRepo := customers.NewRepository(dbClient.DB())
	customerService, err := customers.NewService(customers.ServiceParams{
		Repo:   customerRepo,
		Tx:     dbClient,
		Logger: logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create customers service", err)
		return err
	}

	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()), customerService)
	if err != nil {
		logg.Error(ctx, "failed to create catalog service", err)
		return err
	}

	slots, err := cart.SlotFactoryFromConfig(cfg.Cart, redisClient)
	if err != nil {
		logg.Error(ctx, "failed to configure cart slots", err)
		return err
	}
	cartService, err := cart.NewService(cart.ServiceParams{
		Slots:   slots,
		Logger:  logg,
		Metrics: metrics.NewCartMetrics(registry),
	})
	if err != nil {
		logg.Error(ctx, "failed to create cart service", err)
		return err
	}

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:    orders.NewRepository(dbClient.DB()),
		Tx:      dbClient,
		Logger:  logg,
		Metrics: metrics.NewOrderMetrics(registry),
		RetryPolicy: db.RetryPolicy{
			MaxAttempts: cfg.Orders.TxMaxAttempts,
			BaseBackoff: cfg.Orders.TxBaseBackoff,
		},
	})
	if err != nil {
		logg.Error(ctx, "failed to create orders service", err)
		return err
	}

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Gate:     customerService,
		Clients:  customerService,
		Carts:    cartService,
		Products: catalogService,
		Orders:   ordersService,
	})
	if err != nil {
		logg.Error(ctx, "failed to create checkout service", err)
		return err
	}

	authService, err := auth.NewService(auth.ServiceParams{
		Customers:      customerRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(ctx, "failed to create auth service", err)
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":       cfg.App.Env,
		"addr":      addr,
		"instance":  instance.GetID(),
		"cart_slot": cfg.Cart.SlotKind,
		"db_driver": dbClient.Driver(),
	})

	handler := routes.NewRouter(
		cfg,
		logg,
		dbClient,
		redisClient,
		sessionManager,
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		authService,
		customerService,
		catalogService,
		cartService,
		checkoutService,
		ordersService,
	)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(ctx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
