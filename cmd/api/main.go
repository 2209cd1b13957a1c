package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/massaviva/massaviva-backend/api/routes"
	"github.com/massaviva/massaviva-backend/internal/cart"
	"github.com/massaviva/massaviva-backend/internal/cartsync"
	"github.com/massaviva/massaviva-backend/internal/identity"
	"github.com/massaviva/massaviva-backend/pkg/config"
	"github.com/massaviva/massaviva-backend/pkg/db"
	"github.com/massaviva/massaviva-backend/pkg/docstore"
	"github.com/massaviva/massaviva-backend/pkg/logger"
	"github.com/massaviva/massaviva-backend/pkg/metrics"
	"github.com/massaviva/massaviva-backend/pkg/redis"
)

const shutdownGrace = 10 * time.Second

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
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	repo := cart.NewRepository(dbClient.DB())
	if err := repo.AutoMigrate(); err != nil {
		logg.Error(context.Background(), "failed to migrate cart snapshots", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	docs, err := docstore.NewRedisStore(redisClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create document store", err)
		os.Exit(1)
	}

	ids := identity.NewMemoryProvider()
	store := cart.NewStore(context.Background(), repo, logg)

	syncMetrics := metrics.NewCartSyncMetrics(prometheus.DefaultRegisterer)
	synchronizer, err := cartsync.New(cartsync.Params{
		Store:       store,
		Docs:        docs,
		Identity:    ids,
		Logger:      logg,
		Metrics:     syncMetrics,
		PushTimeout: cfg.Sync.PushTimeout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart synchronizer", err)
		os.Exit(1)
	}
	synchronizer.Start()

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, ids, store),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stopCh:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	var closeErr error
	closeErr = multierr.Append(closeErr, server.Shutdown(shutdownCtx))
	synchronizer.Stop()
	closeErr = multierr.Append(closeErr, redisClient.Close())
	closeErr = multierr.Append(closeErr, dbClient.Close())

	if closeErr != nil {
		logg.Error(ctx, "shutdown finished with errors", closeErr)
		os.Exit(1)
	}
	logg.Info(ctx, "api server shut down gracefully")
}
