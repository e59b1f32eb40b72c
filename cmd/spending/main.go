package main

import (
	"context"
	"fmt"
	"os"

	"subrecommend/internal/backend"
	"subrecommend/internal/cli"
	"subrecommend/internal/config"
	"subrecommend/internal/core"
	apphttp "subrecommend/internal/http"
	applog "subrecommend/internal/log"
	"subrecommend/internal/ports"
	"subrecommend/internal/services"
	"subrecommend/internal/storage"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentSpending)
	cfg := cli.LoadAndValidateConfig(logger, "8081")

	ctx, stop := cli.GracefulShutdown(logger)
	defer stop()

	if err := run(ctx, logger, cfg); err != nil {
		logger.Error("Spending service failed", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Spending service stopped gracefully")
}

func run(ctx context.Context, logger *applog.Logger, cfg *config.Config) error {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return err
	}

	var publisher ports.EventPublisher
	if cfg.AMQPEnabled() {
		client, err := cli.NewAMQPClient(ctx, cfg)
		if err != nil {
			_ = res.Cleanup()
			return fmt.Errorf("initialize AMQP client: %w", err)
		}
		publisher = client
		logger.Info("AMQP publisher ready",
			"exchange", cfg.AMQPExchange,
			"routing_key", cfg.AMQPRoutingKey)
	} else {
		logger.Warn("AMQP_URL is empty, top spending events will not be published")
	}

	svc := services.NewSpendingService(res.Store, publisher)
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Error("Failed to close resources", applog.FieldError, err)
		}
	}()

	if cfg.SeedSampleSpending {
		if err := svc.SeedSample(ctx, storage.SampleSpending(core.Today())); err != nil {
			logger.Warn("Sample spending seed failed", applog.FieldError, err, applog.FieldOperation, applog.OpSeed)
		}
	}

	srv := apphttp.NewSpendingServer(":"+cfg.Port, svc, apphttp.Options{
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Ready:              res.Store,
		TrustedProxies:     cfg.TrustedProxies,
	})

	logger.Info("Starting spending service",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"amqp_enabled", publisher != nil)
	return cli.ServeHTTP(ctx, logger, srv, cfg.ShutdownTimeout)
}
