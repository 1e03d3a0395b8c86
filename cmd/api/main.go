package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/itqan-platform/itqan-backend/api/controllers"
	"github.com/itqan-platform/itqan-backend/api/routes"
	"github.com/itqan-platform/itqan-backend/internal/badges"
	"github.com/itqan-platform/itqan-backend/internal/favorites"
	"github.com/itqan-platform/itqan-backend/internal/invoices"
	"github.com/itqan-platform/itqan-backend/internal/ledger"
	"github.com/itqan-platform/itqan-backend/internal/profiles"
	"github.com/itqan-platform/itqan-backend/internal/sequence"
	"github.com/itqan-platform/itqan-backend/pkg/config"
	"github.com/itqan-platform/itqan-backend/pkg/db"
	"github.com/itqan-platform/itqan-backend/pkg/instance"
	"github.com/itqan-platform/itqan-backend/pkg/logger"
	"github.com/itqan-platform/itqan-backend/pkg/metrics"
	"github.com/itqan-platform/itqan-backend/pkg/migrate"
	"github.com/itqan-platform/itqan-backend/pkg/redis"
)

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
		Instance:    instance.GetID(),
		Level:       logger.ParseLevel(cfg.App.LogLevel),
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

	// Redis only backs readiness here; the API runs without it.
	var redisPinger controllers.Pinger
	if cfg.Redis.URL != "" || cfg.Redis.Address != "" {
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
		redisPinger = redisClient
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	coreMetrics := metrics.NewCoreMetrics(registry)

	services, err := buildServices(cfg, dbClient, logg, coreMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	router := routes.NewRouter(cfg, logg, routes.Dependencies{
		DB:       dbClient,
		Redis:    redisPinger,
		Gatherer: registry,
		HTTP:     metrics.NewHTTPMetrics(registry),
	}, services)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server shut down gracefully")
}

func buildServices(cfg *config.Config, dbClient *db.Client, logg *logger.Logger, coreMetrics *metrics.CoreMetrics) (routes.Services, error) {
	conn := dbClient.DB()

	ledgerService, err := ledger.NewService(ledger.ServiceParams{
		Repo:         ledger.NewRepository(conn),
		DB:           dbClient,
		Logger:       logg,
		Metrics:      coreMetrics,
		MaxRetries:   cfg.Ledger.MaxRetries,
		RetryBackoff: cfg.Ledger.RetryBackoff,
	})
	if err != nil {
		return routes.Services{}, err
	}

	allocator, err := sequence.NewService(sequence.ServiceParams{
		Repo:         sequence.NewRepository(conn),
		DB:           dbClient,
		Logger:       logg,
		Metrics:      coreMetrics,
		MaxRetries:   cfg.Sequence.MaxRetries,
		RetryBackoff: cfg.Sequence.RetryBackoff,
	})
	if err != nil {
		return routes.Services{}, err
	}

	invoiceService, err := invoices.NewService(invoices.ServiceParams{
		Repo:         invoices.NewRepository(conn),
		Sequence:     allocator,
		DB:           dbClient,
		Logger:       logg,
		InvoiceCode:  cfg.Sequence.InvoiceCode,
		MaxRetries:   cfg.Sequence.MaxRetries,
		RetryBackoff: cfg.Sequence.RetryBackoff,
	})
	if err != nil {
		return routes.Services{}, err
	}

	favoritesService, err := favorites.NewService(favorites.ServiceParams{
		Repo:    favorites.NewRepository(conn),
		DB:      dbClient,
		Metrics: coreMetrics,
	})
	if err != nil {
		return routes.Services{}, err
	}

	profileRepo := profiles.NewRepository(conn)
	badgeService, err := badges.NewService(badges.ServiceParams{
		Repo:        badges.NewRepository(conn),
		Profiles:    profileRepo,
		DB:          dbClient,
		Logger:      logg,
		Metrics:     coreMetrics,
		Synchronous: cfg.FeatureFlags.SyncBadgeRecompute,
	})
	if err != nil {
		return routes.Services{}, err
	}

	profileService, err := profiles.NewService(profiles.ServiceParams{
		Repo:   profileRepo,
		Hook:   badgeService,
		Logger: logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Ledger:    ledgerService,
		Invoices:  invoiceService,
		Favorites: favoritesService,
		Badges:    badgeService,
		Profiles:  profileService,
	}, nil
}
