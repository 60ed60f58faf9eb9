package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "spesebot",
		Short: "Personal expense tracker for Discord and Telegram",
		Long: `spesebot records expenses sent to it in direct messages and answers
with per-category summaries.

Without a subcommand it runs the chat transports, like "spesebot serve".
Configuration is read from the environment and from a .env file if present.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.AddCommand(newServeCmd(), newAddCmd(), newSummaryCmd())
	return root
}
