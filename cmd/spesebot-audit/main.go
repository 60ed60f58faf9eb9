// Command spesebot-audit consumes expense.recorded events and logs each one.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"spesebot/internal/amqp"
	"spesebot/internal/cli"
	"spesebot/internal/log"
	"spesebot/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentAudit, nil)
	logger.Info("Starting spesebot-audit")

	if err := cfg.ValidateAMQP(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	if err := run(logger, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue); err != nil {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}
}

func run(logger *log.Logger, url, exchange, queue string) error {
	client, err := amqp.NewClient(url, exchange, queue)
	if err != nil {
		return fmt.Errorf("initialize AMQP client: %w", err)
	}
	defer client.Close()

	ctx, stop := cli.SignalContext(context.Background(), logger)
	defer stop()

	audit := services.NewAuditLog(logger)
	err = client.ConsumeExpenseEvents(ctx, audit.Handle)
	logger.Info("spesebot-audit stopped", "events", audit.Seen())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
