package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	wishlistsvc "github.com/aurelle-jewelry/storefront-backend/internal/wishlist"
	"github.com/aurelle-jewelry/storefront-backend/pkg/config"
	"github.com/aurelle-jewelry/storefront-backend/pkg/db"
	"github.com/aurelle-jewelry/storefront-backend/pkg/idempotency"
	"github.com/aurelle-jewelry/storefront-backend/pkg/instance"
	"github.com/aurelle-jewelry/storefront-backend/pkg/logger"
	"github.com/aurelle-jewelry/storefront-backend/pkg/pubsub"
	"github.com/aurelle-jewelry/storefront-backend/pkg/redis"
	"github.com/aurelle-jewelry/storefront-backend/pkg/shopify"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "wishlist-sync"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "wishlist-sync"

	logg = logger.New(logger.Options{
		ServiceName: "wishlist-sync",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if cfg.PubSub.WishlistSubscription == "" {
		logg.Error(ctx, "wishlist subscription is not configured", nil)
		os.Exit(1)
	}

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer redisClient.Close()

	guard, err := idempotency.NewManager(redisClient, cfg.WishlistSync.DedupeTTL)
	requireResource(ctx, logg, "event dedupe guard", err)

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer pubsubClient.Close()

	adminClient, err := shopify.NewAdminClient(ctx, cfg.Shopify, logg)
	requireResource(ctx, logg, "admin client", err)

	syncer, err := wishlistsvc.NewMetafieldSyncer(adminClient, cfg.WishlistSync, logg, nil)
	requireResource(ctx, logg, "wishlist syncer", err)

	consumer, err := wishlistsvc.NewSyncConsumer(
		pubsubClient.WishlistSubscription(),
		wishlistsvc.NewRepository(dbClient.DB()),
		syncer,
		guard,
		logg,
	)
	requireResource(ctx, logg, "wishlist sync consumer", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.GetID(),
		"env":         cfg.App.Env,
	})
	logg.Info(runCtx, "wishlist sync worker ready")

	if err := consumer.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "wishlist sync worker stopped unexpectedly", err)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "resource not working: "+resource, err)
	os.Exit(1)
}
