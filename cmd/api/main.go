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

	"github.com/zycart/zycart-backend/api/routes"
	"github.com/zycart/zycart-backend/internal/catalog"
	"github.com/zycart/zycart-backend/internal/orders"
	"github.com/zycart/zycart-backend/internal/reviews"
	"github.com/zycart/zycart-backend/internal/users"
	"github.com/zycart/zycart-backend/pkg/config"
	"github.com/zycart/zycart-backend/pkg/db"
	"github.com/zycart/zycart-backend/pkg/instance"
	"github.com/zycart/zycart-backend/pkg/logger"
	"github.com/zycart/zycart-backend/pkg/metrics"
	"github.com/zycart/zycart-backend/pkg/migrate"
	"github.com/zycart/zycart-backend/pkg/outbox"
	"github.com/zycart/zycart-backend/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

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
	cfg.Service.Kind = "api"

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	promRegistry := metrics.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(promRegistry)
	orderMetrics := metrics.NewOrderMetrics(promRegistry)

	catalogRepo := catalog.NewRepository(dbClient.DB())
	catalogGateway, err := catalog.NewGateway(catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog gateway", err)
		os.Exit(1)
	}
	categoryCache, err := catalog.NewCategoryCache(catalogRepo, cfg.Catalog.CategoryCacheTTL, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create category cache", err)
		os.Exit(1)
	}
	if err := categoryCache.Load(context.Background()); err != nil {
		logg.Error(context.Background(), "failed to preload categories", err)
		os.Exit(1)
	}

	outboxRepo := outbox.NewRepository(dbClient.DB())
	outboxService := outbox.NewService(outboxRepo, logg)
	ordersRepo := orders.NewRepository(dbClient.DB())

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:               ordersRepo,
		Tx:                 dbClient,
		Outbox:             outboxService,
		Events:             outboxRepo,
		Catalog:            catalogGateway,
		Customers:          users.NewRepository(dbClient.DB()),
		Numbers:            orders.NewNumberGenerator(cfg.Orders.NumberPrefix, nil),
		PlatformFeePercent: cfg.Orders.PlatformFeePercent,
		Metrics:            orderMetrics,
		Logger:             logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	reviewGate, err := reviews.NewGate(ordersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create review gate", err)
		os.Exit(1)
	}
	reviewsService, err := reviews.NewService(reviews.NewRepository(dbClient.DB()), reviewGate, dbClient, outboxService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create reviews service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID("local"),
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			httpMetrics,
			metrics.Handler(promRegistry),
			categoryCache,
			ordersService,
			reviewsService,
		),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "api server shutdown failed", err)
		return
	}
	logg.Info(ctx, "api server shut down gracefully")
}
