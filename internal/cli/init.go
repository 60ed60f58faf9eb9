// Package cli holds the start-up steps shared by the spesebot binaries.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"spesebot/internal/amqp"
	"spesebot/internal/backend"
	"spesebot/internal/config"
	"spesebot/internal/log"
)

// ShutdownTimeout bounds the time given to components to stop after a signal.
const ShutdownTimeout = 15 * time.Second

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds a logger from the LOG_LEVEL and LOG_FORMAT settings and
// installs it as the process default. A nil out writes to stdout.
func SetupLogger(cfg *config.Config, component string, out io.Writer) *log.Logger {
	if out == nil {
		out = os.Stdout
	}
	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: component,
		Output:    out,
	})
	log.SetDefault(logger)
	return logger
}

// Bootstrap loads .env, reads the environment and builds the logger.
func Bootstrap(component string, out io.Writer) (*config.Config, *log.Logger) {
	LoadEnvFile()
	cfg := config.Load()
	return cfg, SetupLogger(cfg, component, out)
}

// OpenBackend creates the record store selected by DATA_BACKEND.
func OpenBackend(ctx context.Context, logger *log.Logger, cfg *config.Config) (*backend.BackendResult, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", bcfg.Type, err)
	}
	logger.Info("Record store ready", "backend", bcfg.Type.String())
	return res, nil
}

// OpenPublisher connects to the broker when AMQP_URL is set. Events are
// optional, so a failed connection is logged and nil is returned.
func OpenPublisher(logger *log.Logger, cfg *config.Config) *amqp.Client {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP disabled - no AMQP_URL provided")
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("Failed to connect to AMQP, events disabled", log.FieldError, err)
		return nil
	}
	logger.Info("AMQP publisher connected", "exchange", cfg.AMQPExchange)
	return client
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM, or when the
// returned cancel func is called.
func SignalContext(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// WaitWithTimeout runs fn and gives up after timeout.
// It reports whether fn returned in time.
func WaitWithTimeout(logger *log.Logger, timeout time.Duration, fn func()) bool {
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	select {
	case <-done:
		logger.Info("Shutdown complete")
		return true
	case <-time.After(timeout):
		logger.Warn("Shutdown timeout reached", "timeout", timeout)
		return false
	}
}
