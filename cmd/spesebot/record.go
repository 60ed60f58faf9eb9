package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"spesebot/internal/bot"
	"spesebot/internal/cli"
	"spesebot/internal/config"
	"spesebot/internal/core"
	"spesebot/internal/log"
	"spesebot/internal/services"
)

const platformCLI = "cli"

func newAddCmd() *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   `add "<item>, <amount>"`,
		Short: "Record one expense from the shell",
		Example: `  spesebot add "Coffee, 3.50"
  spesebot add --category Food "Groceries, 42.10"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := openClient(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer client.close()

			if category != "" {
				name, ok := client.catalog.Lookup(category)
				if !ok {
					return fmt.Errorf("%w %q (one of %s)", core.ErrUnknownCategory, category, strings.Join(client.catalog.Names(), ", "))
				}
				category = name
			}
			e, err := core.NewExpense(time.Now(), category, strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("invalid expense: %w", err)
			}
			ref, err := client.svc.Record(cmd.Context(), e, services.Origin{Platform: platformCLI, UserID: os.Getenv("USER")})
			if err != nil {
				return err
			}
			client.logger.Debug("Stored expense", log.FieldSheetsRef, ref)

			if e.Category != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Saved: [%s] %s - %s\n", e.Category, e.Item, e.Amount)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Saved: %s - %s\n", e.Item, e.Amount)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "category from BOT_CATEGORIES")
	return cmd
}

func newSummaryCmd() *cobra.Command {
	keys := make([]string, 0, len(core.Windows()))
	for _, w := range core.Windows() {
		keys = append(keys, w.Key)
	}
	return &cobra.Command{
		Use:       "summary [" + strings.Join(keys, "|") + "]",
		Short:     "Print per-category totals for a period (default 1m)",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: keys,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := core.OneMonth
			if len(args) == 1 {
				var err error
				if w, err = core.ParseWindow(args[0]); err != nil {
					return err
				}
			}

			client, err := openClient(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer client.close()

			sum, err := client.svc.Summarize(cmd.Context(), w, time.Now())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if sum.IsEmpty() {
				fmt.Fprintln(out, bot.MsgNoExpenses)
				return nil
			}
			fmt.Fprintln(out, sum.Render())
			return nil
		},
	}
}

// shellClient is the store and service used by one-shot commands.
type shellClient struct {
	catalog core.Catalog
	svc     *services.ExpenseService
	logger  *log.Logger
	close   func()
}

// openClient logs to stderr so that stdout only carries command output.
func openClient(ctx context.Context, cmd *cobra.Command) (*shellClient, error) {
	cfg, logger := cli.Bootstrap(log.ComponentApp, cmd.ErrOrStderr())
	return newShellClient(ctx, cfg, logger)
}

func newShellClient(ctx context.Context, cfg *config.Config, logger *log.Logger) (*shellClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	catalog, err := cfg.Catalog()
	if err != nil {
		return nil, err
	}
	store, err := cli.OpenBackend(ctx, logger, cfg)
	if err != nil {
		return nil, err
	}

	closers := []func(){func() { _ = store.Close() }}
	var publisher services.Publisher
	if client := cli.OpenPublisher(logger, cfg); client != nil {
		publisher = client
		closers = append(closers, func() { _ = client.Close() })
	}

	return &shellClient{
		catalog: catalog,
		svc:     services.NewExpenseService(store.Store, publisher, logger),
		logger:  logger,
		close: func() {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		},
	}, nil
}
