package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/npocrawl/internal/log"
)

// NewRootCmd creates the root command for npocrawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "npocrawl",
		Short: "Crawl a nonprofit directory site into CSV files",
		Long: `npocrawl crawls a hierarchical nonprofit directory site
(country page, paginated city pages, nonprofit detail pages) and writes the
extracted organizations to output-<Country>.csv.

Every run is also recorded in a local SQLite database; use "npocrawl history"
to inspect past runs and stored records.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write log lines as JSON")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewPreviewCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return false
	}
	return verbose
}

// setupLogger creates the logger for a command, writing to its error stream.
func setupLogger(cmd *cobra.Command) *slog.Logger {
	verbose := getVerboseFlag(cmd)
	if asJSON, err := cmd.Flags().GetBool("log-json"); err == nil && asJSON {
		return log.NewSecureJSONLogger(cmd.ErrOrStderr(), verbose)
	}
	return log.NewSecureLogger(cmd.ErrOrStderr(), verbose)
}
