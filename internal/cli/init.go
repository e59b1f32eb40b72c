// Package cli provides common CLI initialization utilities shared by
// cmd/spending, cmd/subrecommend and cmd/subrecommend-worker.
package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"subrecommend/internal/amqp"
	"subrecommend/internal/config"
	applog "subrecommend/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the logger from LOG_LEVEL and LOG_FORMAT and installs it
// as the default slog logger.
func SetupLogger(component string) *applog.Logger {
	level, err := applog.ParseLevel(os.Getenv("LOG_LEVEL"))
	logger := applog.New(applog.Config{
		Level:     level,
		Format:    os.Getenv("LOG_FORMAT"),
		Component: component,
		Output:    os.Stdout,
	})
	applog.SetDefault(logger)
	if err != nil {
		logger.Warn("Falling back to info log level", applog.FieldError, err)
	}
	return logger
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger, defaultPort string) *config.Config {
	cfg := config.Load(defaultPort)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed",
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
		os.Exit(1)
	}
	return cfg
}

// TopologyFromConfig maps the AMQP_* settings onto the broker topology.
func TopologyFromConfig(cfg *config.Config) amqp.Topology {
	return amqp.Topology{
		Exchange:      cfg.AMQPExchange,
		Queue:         cfg.AMQPQueue,
		RoutingKey:    cfg.AMQPRoutingKey,
		DLXExchange:   cfg.AMQPDLXExchange,
		DLXQueue:      cfg.AMQPDLXQueue,
		DLXRoutingKey: cfg.AMQPDLXRoutingKey,
	}
}

// NewAMQPClient connects to the broker and declares the topology.
func NewAMQPClient(ctx context.Context, cfg *config.Config) (*amqp.Client, error) {
	return amqp.NewClient(ctx, amqp.ClientConfig{
		URL:             cfg.AMQPURL,
		Topology:        TopologyFromConfig(cfg),
		Prefetch:        cfg.AMQPPrefetch,
		RedeliveryLimit: cfg.AMQPRedeliveryLimit,
	})
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. The
// returned stop function releases the signal handler.
func GracefulShutdown(logger *applog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

// HTTPServer is the part of an http.Server that ServeHTTP drives.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// ServeHTTP runs srv until ctx is cancelled, then shuts it down within
// timeout.
func ServeHTTP(ctx context.Context, logger *applog.Logger, srv HTTPServer, timeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	logger.Info("Shutting down HTTP server", applog.FieldOperation, applog.OpShutdown)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return <-errCh
}
