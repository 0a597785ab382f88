package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/npocrawl/internal/config"
	"github.com/nao1215/npocrawl/internal/crawler"
	"github.com/nao1215/npocrawl/internal/fetcher"
	"github.com/nao1215/npocrawl/internal/report"
)

// defaultPreviewLimit is the number of records preview prints by default.
const defaultPreviewLimit = 5

// NewPreviewCmd creates the preview command.
func NewPreviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview <country>",
		Short: "Print the first records of a country without storing anything",
		Long: `Preview crawls a country only until the requested number of records was
extracted and prints them as JSON Lines to standard output. It is a quick
way to check a layout or selector change in the configuration file.

Nothing is written to the output directory or the database.

Examples:
  npocrawl preview Thailand
  npocrawl preview -n 20 -c site.yaml Thailand`,
		Args: cobra.ExactArgs(1),
		RunE: runPreviewCmd,
	}

	addFetchFlags(cmd)
	cmd.Flags().IntP("limit", "n", defaultPreviewLimit, "Number of records to print")

	return cmd
}

func runPreviewCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	if limit <= 0 {
		return fmt.Errorf("--limit must be positive, got %d", limit)
	}

	logger := setupLogger(cmd)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runPreview(ctx, cfg, limit, cmd.OutOrStdout(), logger)
}

// runPreview prints up to limit records of the first configured country.
func runPreview(ctx context.Context, cfg *config.Config, limit int, out io.Writer, logger *slog.Logger) error {
	opts := cfg.FetchOptions()
	opts.Logger = logger
	f, err := fetcher.New(cfg.Engine, opts)
	if err != nil {
		return fmt.Errorf("failed to create fetcher: %w", err)
	}

	spider := crawler.NewSpider(f, cfg.File.Layout(), cfg.File.SelectorSet(),
		crawler.WithLogger(logger),
	)
	sink := report.NewJSONLSink(out)

	n := 0
	for record, err := range spider.Records(ctx, cfg.Countries[0]) {
		if err != nil {
			return fmt.Errorf("preview of %s failed: %w", cfg.Countries[0], err)
		}
		if err := sink.Emit(ctx, record); err != nil {
			return err
		}
		n++
		if n == limit {
			break
		}
	}
	// The sink is not closed: out is usually os.Stdout.
	return nil
}
