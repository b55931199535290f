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

	"github.com/aurelle-jewelry/storefront-backend/api/controllers"
	"github.com/aurelle-jewelry/storefront-backend/api/routes"
	cartsvc "github.com/aurelle-jewelry/storefront-backend/internal/cart"
	customersvc "github.com/aurelle-jewelry/storefront-backend/internal/customer"
	"github.com/aurelle-jewelry/storefront-backend/internal/events"
	wishlistsvc "github.com/aurelle-jewelry/storefront-backend/internal/wishlist"
	"github.com/aurelle-jewelry/storefront-backend/pkg/auth/session"
	"github.com/aurelle-jewelry/storefront-backend/pkg/config"
	"github.com/aurelle-jewelry/storefront-backend/pkg/db"
	"github.com/aurelle-jewelry/storefront-backend/pkg/env"
	"github.com/aurelle-jewelry/storefront-backend/pkg/instance"
	"github.com/aurelle-jewelry/storefront-backend/pkg/logger"
	"github.com/aurelle-jewelry/storefront-backend/pkg/metrics"
	"github.com/aurelle-jewelry/storefront-backend/pkg/migrate"
	"github.com/aurelle-jewelry/storefront-backend/pkg/pubsub"
	"github.com/aurelle-jewelry/storefront-backend/pkg/redis"
	"github.com/aurelle-jewelry/storefront-backend/pkg/shopify"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	var closers []func() error

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	requireResource(ctx, logg, "database", err)
	closers = append(closers, dbClient.Close)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	closers = append(closers, redisClient.Close)

	sessionManager, err := session.NewManager(redisClient, cfg.Session)
	requireResource(ctx, logg, "session manager", err)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	storeMetrics := metrics.NewStorefrontMetrics(registry)

	var activity *events.ActivityPublisher
	checks := []controllers.Check{
		{Name: "database", Pinger: dbClient},
		{Name: "redis", Pinger: redisClient},
	}
	if cfg.FeatureFlags.Events {
		pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		requireResource(ctx, logg, "pubsub", err)
		closers = append(closers, pubsubClient.Close)
		checks = append(checks, controllers.Check{Name: "pubsub", Pinger: pubsubClient})

		activity, err = events.NewActivityPublisher(pubsubClient.ActivityPublisher(), logg)
		requireResource(ctx, logg, "activity publisher", err)
	}

	storefrontClient, err := shopify.NewStorefrontClient(ctx, cfg.Shopify, logg)
	requireResource(ctx, logg, "storefront client", err)

	customerClient, err := shopify.NewCustomerClient(ctx, cfg.Shopify, logg)
	requireResource(ctx, logg, "customer client", err)

	mirrors, err := cartsvc.NewRedisSnapshotStore(redisClient, cfg.Cart.MirrorTTL)
	requireResource(ctx, logg, "cart mirror store", err)

	cartService, err := cartsvc.NewService(storefrontClient, mirrors, logg, storeMetrics, activityRecorder(activity))
	requireResource(ctx, logg, "cart service", err)

	var syncer wishlistsvc.ProfileSyncer
	if cfg.FeatureFlags.WishlistSync && cfg.Shopify.AdminToken != "" {
		adminClient, err := shopify.NewAdminClient(ctx, cfg.Shopify, logg)
		requireResource(ctx, logg, "admin client", err)
		metafieldSyncer, err := wishlistsvc.NewMetafieldSyncer(adminClient, cfg.WishlistSync, logg, storeMetrics)
		requireResource(ctx, logg, "wishlist syncer", err)
		syncer = metafieldSyncer
	}

	wishlistService, err := wishlistsvc.NewService(wishlistsvc.ServiceParams{
		Repo:     wishlistsvc.NewRepository(dbClient.DB()),
		Logger:   logg,
		Syncer:   syncer,
		Activity: activityRecorder(activity),
	})
	requireResource(ctx, logg, "wishlist service", err)

	customerService, err := customersvc.NewService(customersvc.ServiceParams{
		OAuth:     customerClient,
		Verifiers: redisClient,
		Keyer:     redisClient,
		Sessions:  sessionManager,
		Logger:    logg,
		Config:    cfg.Session,
	})
	requireResource(ctx, logg, "customer service", err)

	handler := routes.NewRouter(routes.RouterParams{
		Config:          cfg,
		Logger:          logg,
		Sessions:        sessionManager,
		Limiter:         redisClient,
		CartService:     cartService,
		WishlistService: wishlistService,
		CustomerService: customerService,
		MetricsHandler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Checks:          checks,
	})

	addr := ":" + env.Get("PORT", cfg.App.Port)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":      cfg.App.Env,
		"instance": instance.GetID(),
		"addr":     addr,
	})
	logg.Info(runCtx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(runCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(runCtx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	closeErr := server.Shutdown(shutdownCtx)
	for _, closeFn := range closers {
		closeErr = multierr.Append(closeErr, closeFn())
	}
	if closeErr != nil {
		logg.Error(runCtx, "shutdown finished with errors", closeErr)
		os.Exit(1)
	}
	logg.Info(runCtx, "api server stopped")
}

// activityRecorder avoids handing services a non-nil interface wrapping a
// nil publisher when events are disabled.
func activityRecorder(p *events.ActivityPublisher) cartsvc.ActivityRecorder {
	if p == nil {
		return nil
	}
	return p
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "resource not working: "+resource, err)
	os.Exit(1)
}
