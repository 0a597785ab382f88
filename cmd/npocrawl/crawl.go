package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/npocrawl/internal/config"
	"github.com/nao1215/npocrawl/internal/crawler"
	"github.com/nao1215/npocrawl/internal/database"
	"github.com/nao1215/npocrawl/internal/fetcher"
	"github.com/nao1215/npocrawl/internal/model"
	"github.com/nao1215/npocrawl/internal/pipeline"
	"github.com/nao1215/npocrawl/internal/report"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [country...]",
		Short: "Crawl the nonprofits of one or more countries",
		Long: `Crawl walks the directory from each country page through its city listings
to the nonprofit detail pages and writes one row per organization to
output-<Country>.csv in the output directory.

Countries are taken from the arguments, or from the "countries" list of the
configuration file when no argument is given.

Examples:
  # Crawl one country
  npocrawl crawl Thailand

  # Crawl two countries concurrently and write JSON Lines
  npocrawl crawl --batch 2 --json Thailand Vietnam

  # Stop after 50 pages and write a Markdown summary
  npocrawl crawl -p 50 -s summary.md Thailand

  # Use the colly engine with a 2 second delay between requests
  npocrawl crawl -e colly -d 2s Thailand`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	addFetchFlags(cmd)

	cmd.Flags().StringP("output-dir", "o", config.DefaultOutputDir,
		"Directory for output-<Country>.csv files")
	cmd.Flags().BoolP("json", "j", false,
		"Write JSON Lines (output-<Country>.jsonl) instead of CSV")
	cmd.Flags().StringP("summary", "s", "",
		"Write a Markdown summary of all runs to this file")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages fetched per country (0 = unlimited)")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of countries crawled concurrently")
	cmd.Flags().Bool("no-db", false,
		"Do not record the run in the database")
	cmd.Flags().Bool("no-visited-guard", false,
		"Follow links to pages already queued in the same run")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the npocrawl database")

	return cmd
}

// addFetchFlags registers the flags shared by every command that fetches.
func addFetchFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .npocrawl in current or home directory)")
	cmd.Flags().StringP("engine", "e", config.DefaultEngine,
		"Fetch engine: "+strings.Join(fetcher.Engines(), ", "))
	cmd.Flags().DurationP("delay", "d", config.DefaultCrawlDelay,
		"Minimum interval between two requests")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().IntP("retries", "r", config.DefaultRetries,
		"Retries after a transient fetch failure")
}

func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCrawl(ctx, cfg, cmd.OutOrStdout(), logger)
}

// buildConfig creates a Config from the flags of a command that fetches.
// Flags only some commands have are read when present.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	if cfg.Engine, err = flags.GetString("engine"); err != nil {
		return nil, err
	}
	if cfg.CrawlDelay, err = flags.GetDuration("delay"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.Retries, err = flags.GetInt("retries"); err != nil {
		return nil, err
	}

	if flags.Lookup("output-dir") != nil {
		if cfg.OutputDir, err = flags.GetString("output-dir"); err != nil {
			return nil, err
		}
		if cfg.JSONLines, err = flags.GetBool("json"); err != nil {
			return nil, err
		}
		if cfg.SummaryFile, err = flags.GetString("summary"); err != nil {
			return nil, err
		}
		if cfg.MaxPages, err = flags.GetInt("max-pages"); err != nil {
			return nil, err
		}
		if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
			return nil, err
		}
		if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
			return nil, err
		}

		noDB, err := flags.GetBool("no-db")
		if err != nil {
			return nil, err
		}
		cfg.SaveToDB = !noDB

		noGuard, err := flags.GetBool("no-visited-guard")
		if err != nil {
			return nil, err
		}
		cfg.VisitedGuard = !noGuard
	}

	cfg.Verbose = getVerboseFlag(cmd)

	// An explicit --config must exist; otherwise a missing file means
	// defaults.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cfg.File, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	countries := args
	if len(countries) == 0 && cfg.File != nil {
		countries = cfg.File.Countries
	}
	cfg.Countries = config.NormalizeCountries(countries)

	return cfg, nil
}

// runCrawl crawls every configured country and prints a summary.
func runCrawl(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger) error {
	logger.Info("starting crawl",
		"countries", cfg.Countries,
		"engine", cfg.Engine,
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	opts := cfg.FetchOptions()
	opts.Logger = logger
	f, err := fetcher.New(cfg.Engine, opts)
	if err != nil {
		return fmt.Errorf("failed to create fetcher: %w", err)
	}

	var db *database.RecordDB
	if cfg.SaveToDB {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "path", db.Path())
	}

	cc := &countryCrawler{
		cfg:     cfg,
		fetcher: f,
		db:      db,
		logger:  logger,
		out:     out,
	}

	startTime := time.Now()
	runner := pipeline.NewBatchRunner(cc.crawl,
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)
	results, batchErr := runner.Run(ctx, cfg.Countries)

	runs := make([]*model.RunStats, 0, len(results))
	for _, r := range results {
		if r.Stats != nil {
			runs = append(runs, r.Stats)
		}
	}

	fmt.Fprintf(out, "\nCrawl finished in %s\n\n", time.Since(startTime).Round(time.Millisecond))
	if len(runs) > 0 {
		if _, err := report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose)).Write(runs...); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}

	if cfg.SummaryFile != "" {
		if err := writeMarkdownSummary(cfg.SummaryFile, runs); err != nil {
			return err
		}
		fmt.Fprintf(out, "Summary written to %s\n", cfg.SummaryFile)
	}

	if batchErr != nil {
		return batchErr
	}
	return failedCountries(results)
}

// failedCountries joins the errors of every failed country.
func failedCountries(results []pipeline.Result) error {
	var errs []error
	for _, r := range results {
		if r.Failed() {
			errs = append(errs, fmt.Errorf("%s: %w", r.Country, r.Err))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d countries failed: %w", len(errs), len(results), errors.Join(errs...))
}

// countryCrawler crawls one country per call. It is shared by the batch
// goroutines; everything per country is created inside crawl.
type countryCrawler struct {
	cfg     *config.Config
	fetcher fetcher.Fetcher
	db      *database.RecordDB
	logger  *slog.Logger

	mu  sync.Mutex
	out io.Writer
}

func (c *countryCrawler) crawl(ctx context.Context, country string) (*model.RunStats, error) {
	layout := c.cfg.File.Layout()
	seed, err := layout.SeedURL(country)
	if err != nil {
		return nil, fmt.Errorf("invalid seed URL: %w", err)
	}

	sink, path, err := c.openSink(country)
	if err != nil {
		return nil, err
	}
	sinks := []report.RecordSink{sink}

	spiderOpts := []crawler.SpiderOption{
		crawler.WithLogger(c.logger),
		crawler.WithMaxPages(c.cfg.MaxPages),
		crawler.WithVisitedGuard(c.cfg.VisitedGuard),
	}

	var runSink *database.RunSink
	if c.db != nil {
		runID, err := c.db.StartRun(ctx, country, seed)
		if err != nil {
			_ = sink.Close() //nolint:errcheck // Already failing
			return nil, fmt.Errorf("failed to start run: %w", err)
		}
		runSink = c.db.Sink(runID)
		sinks = append(sinks, runSink)
		spiderOpts = append(spiderOpts, crawler.WithPageRecorder(runSink))
	}

	multi := report.NewMultiSink(sinks...)
	spider := crawler.NewSpider(c.fetcher, layout, c.cfg.File.SelectorSet(), spiderOpts...)

	stats, crawlErr := spider.Crawl(ctx, country, multi)
	if err := multi.Close(); err != nil && crawlErr == nil {
		crawlErr = fmt.Errorf("failed to close output: %w", err)
	}

	if runSink != nil && stats != nil {
		// Interrupted runs are recorded too.
		if err := c.db.FinishRun(context.WithoutCancel(ctx), runSink.RunID(), stats); err != nil {
			c.logger.Warn("failed to finish run", "country", country, "error", err)
		}
	}

	if stats != nil {
		c.printf("[%s] %d record(s) written to %s\n", country, stats.RecordsEmitted, path)
	}
	return stats, crawlErr
}

// openSink creates the CSV or JSON Lines file of a country.
func (c *countryCrawler) openSink(country string) (report.RecordSink, string, error) {
	if c.cfg.JSONLines {
		s, path, err := report.CreateJSONLSink(c.cfg.OutputDir, country)
		if err != nil {
			return nil, "", err
		}
		return s, path, nil
	}
	s, path, err := report.CreateCSVSink(c.cfg.OutputDir, country)
	if err != nil {
		return nil, "", err
	}
	return s, path, nil
}

func (c *countryCrawler) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

// writeMarkdownSummary writes the Markdown summary of runs to path.
func writeMarkdownSummary(path string, runs []*model.RunStats) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create summary directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer f.Close()

	if _, err := report.NewMarkdownWriter(f).Write(runs...); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}
