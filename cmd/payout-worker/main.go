package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sellerpay/payouts-backend/internal/payouts"
	"github.com/sellerpay/payouts-backend/internal/vendors"
	"github.com/sellerpay/payouts-backend/internal/worker"
	"github.com/sellerpay/payouts-backend/pkg/config"
	"github.com/sellerpay/payouts-backend/pkg/db"
	"github.com/sellerpay/payouts-backend/pkg/logger"
	"github.com/sellerpay/payouts-backend/pkg/marketplace"
	"github.com/sellerpay/payouts-backend/pkg/metrics"
	"github.com/sellerpay/payouts-backend/pkg/migrate"
	"github.com/sellerpay/payouts-backend/pkg/pubsub"
	"github.com/sellerpay/payouts-backend/pkg/redis"
	"github.com/sellerpay/payouts-backend/pkg/wallet"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "payout-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "payout-worker",
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

	walletClient, err := wallet.NewClient(cfg.Wallet)
	if err != nil {
		logg.Error(context.Background(), "failed to create wallet client", err)
		os.Exit(1)
	}
	marketplaceClient, err := marketplace.NewClient(cfg.Marketplace)
	if err != nil {
		logg.Error(context.Background(), "failed to create marketplace client", err)
		os.Exit(1)
	}

	var notifier payouts.Notifier = payouts.NopNotifier{}
	if cfg.PubSub.EventsEnabled() {
		pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create pubsub client", err)
			os.Exit(1)
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()
		notifier = payouts.NewPubSubNotifier(pubsubClient, logg)
	}

	operationRepo := payouts.NewRepository(dbClient.DB())
	vendorRepo := vendors.NewRepository(dbClient.DB())
	directory := vendors.NewDirectory(vendorRepo, cfg.Operator)

	labels, err := payouts.NewLabelSet(cfg.Payouts)
	if err != nil {
		logg.Error(context.Background(), "failed to parse label templates", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewJobMetrics(prometheus.DefaultRegisterer)

	engine, err := payouts.NewEngine(payouts.EngineParams{
		Logger:      logg,
		Store:       operationRepo,
		Directory:   directory,
		Gateway:     walletClient,
		Labels:      labels,
		Notifier:    notifier,
		Metrics:     metricsCollector,
		RetryWindow: cfg.Payouts.RetryWindow,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payout engine", err)
		os.Exit(1)
	}

	syncService, err := vendors.NewService(vendors.ServiceParams{
		Logger:      logg,
		Repo:        vendorRepo,
		Marketplace: marketplaceClient,
		Wallet:      walletClient,
		Locale:      cfg.Wallet.Locale,
		Timezone:    cfg.Wallet.Timezone,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create vendor sync service", err)
		os.Exit(1)
	}

	vendorSyncJob, err := worker.NewVendorSyncJob(worker.VendorSyncJobParams{
		Logger:  logg,
		Service: syncService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create vendor sync job", err)
		os.Exit(1)
	}
	payoutJob, err := worker.NewPayoutJob(worker.PayoutJobParams{
		Logger: logg,
		Engine: engine,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payout job", err)
		os.Exit(1)
	}

	lockTTL := worker.LockTTL(cfg.Payouts.RunInterval)
	lock, err := worker.NewRedisLock(redisClient, redisClient.LockKey(lockScope(cfg.App.Env)), lockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create worker lock", err)
		os.Exit(1)
	}

	// vendor accounts first so freshly provisioned sellers are resolvable
	// in the same cycle's payout pass
	registry := worker.NewRegistry(vendorSyncJob, payoutJob)
	service, err := worker.NewService(worker.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Payouts.RunInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create worker service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})
	logg.Info(ctx, "starting payout worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "payout worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "payout worker shutting down gracefully")
}

func lockScope(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("payout-worker:%s", env)
}
