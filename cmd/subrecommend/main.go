package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"subrecommend/internal/backend"
	"subrecommend/internal/cli"
	"subrecommend/internal/config"
	apphttp "subrecommend/internal/http"
	applog "subrecommend/internal/log"
	"subrecommend/internal/services"
	"subrecommend/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentView)
	cfg := cli.LoadAndValidateConfig(logger, "8082")

	ctx, stop := cli.GracefulShutdown(logger)
	defer stop()

	if err := run(ctx, logger, cfg); err != nil {
		logger.Error("Recommendation service failed", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Recommendation service stopped gracefully")
}

func run(ctx context.Context, logger *applog.Logger, cfg *config.Config) error {
	factory := backend.NewFactory(logger.Logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := factory.CreateBackend(ctx, backendCfg)
	if err != nil {
		return err
	}
	defer closeWith(logger, "store", res.Cleanup)

	cacheCfg, err := backend.CacheFromAppConfig(cfg)
	if err != nil {
		return err
	}
	caches, err := factory.CreateCaches(ctx, cacheCfg)
	if err != nil {
		return err
	}
	defer closeWith(logger, "cache", caches.Cleanup)

	catalog := services.NewCatalogService(res.Store, caches.Categories)
	if cfg.SeedCatalog {
		if err := catalog.Seed(ctx); err != nil {
			return err
		}
	}
	views := services.NewViewService(res.Store, caches.Views)
	recommendations := services.NewRecommendationService(views, catalog)

	srv := apphttp.NewRecommendationServer(":"+cfg.Port, views, recommendations, catalog, apphttp.Options{
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Ready:              res.Store,
		TrustedProxies:     cfg.TrustedProxies,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return cli.ServeHTTP(gctx, logger, srv, cfg.ShutdownTimeout)
	})

	switch {
	case !cfg.ConsumerEnabled:
		logger.Info("In-process consumer disabled, run subrecommend-worker to update views")
	case !cfg.AMQPEnabled():
		logger.Warn("AMQP_URL is empty, views will not be updated")
	default:
		client, err := cli.NewAMQPClient(ctx, cfg)
		if err != nil {
			return fmt.Errorf("initialize AMQP client: %w", err)
		}
		defer closeWith(logger, "amqp", client.Close)

		viewWorker := worker.NewViewWorker(views)
		g.Go(func() error {
			if err := viewWorker.Run(gctx, client); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("consume top spending: %w", err)
			}
			return nil
		})
	}

	logger.Info("Starting recommendation service",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"cache", cfg.CacheBackend,
		"consumer_enabled", cfg.ConsumerEnabled && cfg.AMQPEnabled())
	return g.Wait()
}

func closeWith(logger *applog.Logger, name string, cleanup backend.CleanupFunc) {
	if cleanup == nil {
		return
	}
	if err := cleanup(); err != nil {
		logger.Error("Failed to close "+name, applog.FieldError, err)
	}
}
