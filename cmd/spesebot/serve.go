package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"spesebot/internal/bot"
	"spesebot/internal/chat/discord"
	"spesebot/internal/chat/telegram"
	"spesebot/internal/cli"
	"spesebot/internal/config"
	apphttp "spesebot/internal/http"
	"spesebot/internal/log"
	"spesebot/internal/services"
)

// transport is a chat platform connection driven by Run until ctx ends.
type transport interface {
	apphttp.ReadinessCheck
	Run(ctx context.Context) error
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the chat transports and the health server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger := cli.Bootstrap(log.ComponentApp, nil)
	if err := cfg.ValidateServe(); err != nil {
		return err
	}
	catalog, err := cfg.Catalog()
	if err != nil {
		return err
	}

	ctx, stop := cli.SignalContext(cmd.Context(), logger)
	defer stop()

	store, err := cli.OpenBackend(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close record store", log.FieldError, err)
		}
	}()

	var publisher services.Publisher
	if client := cli.OpenPublisher(logger, cfg); client != nil {
		defer client.Close()
		publisher = client
	}

	svc := services.NewExpenseService(store.Store, publisher, logger)
	sessions := bot.NewSessions()
	dispatcher := bot.NewDispatcher(svc, sessions, bot.Options{
		Prefix:       cfg.CommandPrefix,
		Catalog:      catalog,
		ReplyTimeout: cfg.ReplyTimeout,
		AcceptBare:   cfg.AcceptBare,
	}, logger)

	transports, err := openTransports(cfg, dispatcher, logger)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	checks := make([]apphttp.ReadinessCheck, 0, len(transports)+1)
	if rc, ok := store.Store.(apphttp.ReadinessCheck); ok {
		checks = append(checks, rc)
	}
	for _, t := range transports {
		checks = append(checks, t)
		g.Go(func() error {
			if err := t.Run(gctx); err != nil {
				return fmt.Errorf("%s transport: %w", t.Name(), err)
			}
			return nil
		})
	}
	if cfg.HealthPort != "" {
		srv := apphttp.NewServer(":"+cfg.HealthPort, logger, checks...)
		g.Go(func() error { return srv.Run(gctx) })
	}
	// Release interactions still waiting for a reply.
	g.Go(func() error {
		<-gctx.Done()
		sessions.Close()
		return nil
	})

	logger.Info("spesebot started",
		"transports", len(transports),
		"backend", cfg.DataBackend,
		"health_port", cfg.HealthPort)

	<-gctx.Done()

	var runErr error
	if !cli.WaitWithTimeout(logger, cli.ShutdownTimeout, func() { runErr = g.Wait() }) {
		return errors.New("shutdown timed out")
	}
	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

func openTransports(cfg *config.Config, h bot.Handler, logger *log.Logger) ([]transport, error) {
	var ts []transport
	if cfg.DiscordToken != "" {
		d, err := discord.New(cfg.DiscordToken, h, logger)
		if err != nil {
			return nil, err
		}
		ts = append(ts, d)
	}
	if cfg.TelegramToken != "" {
		t, err := telegram.New(cfg.TelegramToken, h, logger)
		if err != nil {
			return nil, err
		}
		ts = append(ts, t)
	}
	return ts, nil
}
