package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/npocrawl/internal/model"
)

// DefaultConcurrency is the number of countries crawled at once when no
// option overrides it. The crawls usually hit the same site, so the
// default is sequential.
const DefaultConcurrency = 1

// CrawlFunc crawls one country. Stats may be non-nil even when err is not.
type CrawlFunc func(ctx context.Context, country string) (*model.RunStats, error)

// Result is the outcome of one country.
type Result struct {
	Country string
	Stats   *model.RunStats
	Err     error
}

// Failed reports whether the crawl returned an error.
func (r Result) Failed() bool {
	return r.Err != nil
}

// BatchRunner runs crawls of several countries concurrently.
type BatchRunner struct {
	// crawl is called once per country.
	crawl CrawlFunc

	// concurrency is the maximum number of concurrent crawls.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger
}

// BatchOption configures a BatchRunner.
type BatchOption func(*BatchRunner)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchRunner) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent crawls.
// Non-positive values keep the default.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchRunner) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchRunner creates a new BatchRunner.
func NewBatchRunner(crawl CrawlFunc, opts ...BatchOption) *BatchRunner {
	br := &BatchRunner{
		crawl:       crawl,
		concurrency: DefaultConcurrency,
	}

	for _, opt := range opts {
		opt(br)
	}

	if br.logger == nil {
		br.logger = slog.Default()
	}

	return br
}

// Run crawls every country and returns one Result per country in input
// order. The returned error is non-nil only when ctx was cancelled; the
// countries that never started carry the context error in their Result.
func (br *BatchRunner) Run(ctx context.Context, countries []string) ([]Result, error) {
	br.logger.Info("starting batch",
		"countries", len(countries),
		"concurrency", br.concurrency,
	)

	startTime := time.Now()

	// Each goroutine writes only its own index.
	results := make([]Result, len(countries))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(br.concurrency)

	for i, country := range countries {
		results[i].Country = country

		g.Go(func() error {
			select {
			case <-ctx.Done():
				results[i].Err = ctx.Err()
				return ctx.Err()
			default:
			}

			br.logger.Info("crawling country",
				"country", country,
				"index", i+1,
				"total", len(countries),
			)

			stats, err := br.crawl(ctx, country)
			results[i].Stats = stats
			results[i].Err = err

			if err != nil {
				// Recorded in the result; the other countries keep going.
				br.logger.Warn("crawl failed",
					"country", country,
					"error", err,
				)
			}
			return nil
		})
	}

	err := g.Wait()

	br.logger.Info("batch complete",
		"countries", len(countries),
		"elapsed", time.Since(startTime),
	)

	return results, err
}
