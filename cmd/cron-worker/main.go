package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/avaldezm/marketbox-backend/internal/cart"
	"github.com/avaldezm/marketbox-backend/internal/cron"
	"github.com/avaldezm/marketbox-backend/pkg/config"
	"github.com/avaldezm/marketbox-backend/pkg/db"
	"github.com/avaldezm/marketbox-backend/pkg/kvstore"
	"github.com/avaldezm/marketbox-backend/pkg/logger"
	"github.com/avaldezm/marketbox-backend/pkg/metrics"
	"github.com/avaldezm/marketbox-backend/pkg/migrate"
	"github.com/avaldezm/marketbox-backend/pkg/redis"
)

const lockKeyFormat = "mb:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	sweepMetrics := metrics.NewSweepMetrics(prometheus.DefaultRegisterer)
	registry := cron.NewRegistry()
	var lock cron.Lock = cron.NoopLock{}

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

		retentionJob, err := cron.NewKVRetentionJob(gormStore, logg, cfg.Sweeper.BatchSize, sweepMetrics)
		if err != nil {
			logg.Error(context.Background(), "failed to create retention job", err)
			os.Exit(1)
		}
		registry.Register(retentionJob)

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

		sweepJob, err := cart.NewSweepJob(redisClient, redisStore, logg, cfg.Cart.TTL, cfg.Sweeper.BatchSize, sweepMetrics)
		if err != nil {
			logg.Error(context.Background(), "failed to create sweep job", err)
			os.Exit(1)
		}
		registry.Register(sweepJob)

		redisLock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
		if err != nil {
			logg.Error(context.Background(), "failed to create cron lock", err)
			os.Exit(1)
		}
		lock = redisLock
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  sweepMetrics,
		Interval: cfg.Sweeper.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
