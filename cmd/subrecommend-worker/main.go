package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"subrecommend/internal/backend"
	"subrecommend/internal/cli"
	"subrecommend/internal/config"
	applog "subrecommend/internal/log"
	"subrecommend/internal/services"
	"subrecommend/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	logger.Info("Starting subrecommend-worker")

	cfg := cli.LoadAndValidateConfig(logger, "8082")
	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required for the worker",
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
		os.Exit(1)
	}

	ctx, stop := cli.GracefulShutdown(logger)
	defer stop()

	if err := run(ctx, logger, cfg); err != nil {
		logger.Error("Worker failed", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

// run consumes until ctx is cancelled. With CACHE_BACKEND=redis the worker
// writes through to the cache the API reads.
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
	defer res.Cleanup()

	cacheCfg, err := backend.CacheFromAppConfig(cfg)
	if err != nil {
		return err
	}
	caches, err := factory.CreateCaches(ctx, cacheCfg)
	if err != nil {
		return err
	}
	if caches.Cleanup != nil {
		defer caches.Cleanup()
	}

	client, err := cli.NewAMQPClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize AMQP client: %w", err)
	}
	defer client.Close()

	viewWorker := worker.NewViewWorker(services.NewViewService(res.Store, caches.Views))
	if err := viewWorker.Run(ctx, client); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
