package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/avaldezm/marketbox-backend/api/controllers"
	"github.com/avaldezm/marketbox-backend/api/routes"
	"github.com/avaldezm/marketbox-backend/internal/cart"
	"github.com/avaldezm/marketbox-backend/internal/favorites"
	"github.com/avaldezm/marketbox-backend/internal/notifications"
	"github.com/avaldezm/marketbox-backend/internal/orders"
	"github.com/avaldezm/marketbox-backend/pkg/config"
	"github.com/avaldezm/marketbox-backend/pkg/db"
	"github.com/avaldezm/marketbox-backend/pkg/kvstore"
	"github.com/avaldezm/marketbox-backend/pkg/logger"
	"github.com/avaldezm/marketbox-backend/pkg/metrics"
	"github.com/avaldezm/marketbox-backend/pkg/migrate"
	"github.com/avaldezm/marketbox-backend/pkg/redis"
	"github.com/avaldezm/marketbox-backend/pkg/upstream"
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
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	var (
		store       kvstore.Store
		readyChecks []controllers.ReadyCheck
		idemStore   redis.IdempotencyStore
	)

	switch cfg.Store.Normalized() {
	case config.StoreBackendSQL:
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

		gormStore, err := kvstore.NewGormStore(dbClient.DB(), logg)
		if err != nil {
			logg.Error(context.Background(), "failed to build sql store", err)
			os.Exit(1)
		}
		store = gormStore
		readyChecks = append(readyChecks, controllers.ReadyCheck{Name: "database", Pinger: dbClient})

	default:
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

		redisStore, err := kvstore.NewRedisStore(redisClient, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to build redis store", err)
			os.Exit(1)
		}
		store = redisStore
		idemStore = redisClient
		readyChecks = append(readyChecks, controllers.ReadyCheck{Name: "redis", Pinger: redisClient})
	}

	upstreamMetrics := metrics.NewUpstreamMetrics(prometheus.DefaultRegisterer)
	upstreamClient, err := upstream.NewClient(cfg.Upstream, logg, upstream.WithMetrics(upstreamMetrics))
	if err != nil {
		logg.Error(context.Background(), "failed to build upstream client", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(store, logg, cfg.Cart.TTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	favoritesService, err := favorites.NewService(store, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create favorites service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(upstreamClient, store, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(upstreamClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":     cfg.App.Env,
		"addr":    addr,
		"backend": cfg.Store.Normalized(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:           cfg,
			Logger:           logg,
			ReadyChecks:      readyChecks,
			IdempotencyStore: idemStore,
			Catalog:          upstreamClient,
			Cart:             cartService,
			Favorites:        favoritesService,
			Notifications:    notificationsService,
			Orders:           ordersService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
