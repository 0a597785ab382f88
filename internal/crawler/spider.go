package crawler

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/nao1215/npocrawl/internal/model"
)

// Fetcher fetches one URL. Retries, politeness delays and connection reuse
// are the fetcher's business; a returned error means the target yields no
// page.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*model.Page, error)
}

// Sink receives every emitted record, one call per record.
type Sink interface {
	Emit(ctx context.Context, record model.Nonprofit) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, record model.Nonprofit) error

// Emit calls f.
func (f SinkFunc) Emit(ctx context.Context, record model.Nonprofit) error {
	return f(ctx, record)
}

// PageRecorder is told about every dequeued target after it was fetched
// and classified. fetchErr is non-nil when the fetch failed, in which case
// page is nil and kind is KindUnknown.
type PageRecorder interface {
	RecordPage(ctx context.Context, target model.Target, page *model.Page, kind model.PageKind, fetchErr error) error
}

// Spider is the traversal driver. A Spider holds no per-run state, so one
// Spider may run several countries concurrently as long as its Fetcher is
// safe for concurrent use.
type Spider struct {
	fetcher   Fetcher
	layout    Layout
	selectors Selectors
	logger    *slog.Logger
	recorder  PageRecorder

	// maxPages stops a run after this many fetched pages. 0 is unlimited.
	maxPages int

	// visitedGuard drops targets already enqueued in the same run.
	visitedGuard bool
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithLogger sets the logger. Each run derives a child logger carrying the
// country.
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		s.logger = logger
	}
}

// WithMaxPages limits the number of pages fetched per run. 0 is unlimited.
func WithMaxPages(n int) SpiderOption {
	return func(s *Spider) {
		s.maxPages = n
	}
}

// WithVisitedGuard turns the per-run visited set on or off. It is on by
// default; without it a directory linking back to an earlier page is
// crawled forever.
func WithVisitedGuard(enabled bool) SpiderOption {
	return func(s *Spider) {
		s.visitedGuard = enabled
	}
}

// WithPageRecorder sets a recorder notified about every dequeued target.
func WithPageRecorder(r PageRecorder) SpiderOption {
	return func(s *Spider) {
		s.recorder = r
	}
}

// NewSpider creates a Spider. Empty layout and selector fields are filled
// with the defaults.
func NewSpider(fetcher Fetcher, layout Layout, selectors Selectors, opts ...SpiderOption) *Spider {
	s := &Spider{
		fetcher:      fetcher,
		layout:       layout.WithDefaults(),
		selectors:    selectors.WithDefaults(),
		visitedGuard: true,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// run is the state of one crawl of one country.
type run struct {
	log        *slog.Logger
	country    string
	classifier *Classifier
	table      map[model.PageKind]Handler
	stats      *model.RunStats
	queue      []model.Target
	seen       map[string]struct{}
}

// Crawl crawls one country from its country page and emits every record to
// sink. It returns when the queue is empty, the page limit is reached, the
// context is cancelled or the sink fails. Stats are returned in every case.
func (s *Spider) Crawl(ctx context.Context, country string, sink Sink) (*model.RunStats, error) {
	seed, err := s.layout.SeedURL(country)
	if err != nil {
		stats := model.NewRunStats(country, "")
		stats.FinishedAt = stats.StartedAt
		return stats, fmt.Errorf("invalid base URL %q: %w", s.layout.BaseURL, err)
	}

	r := &run{
		log:        s.logger.With("country", country),
		country:    country,
		classifier: NewClassifier(s.layout, s.selectors, country),
		table:      NewHandlers(s.layout, s.selectors, country).Table(),
		stats:      model.NewRunStats(country, seed),
		queue:      []model.Target{{URL: seed}},
		seen:       map[string]struct{}{seed: {}},
	}
	defer func() { r.stats.FinishedAt = time.Now() }()

	r.log.Info("starting crawl", "seed", seed, "maxPages", s.maxPages)

	for len(r.queue) > 0 {
		if err := ctx.Err(); err != nil {
			r.stats.Truncated = true
			r.log.Warn("crawl cancelled", "queued", len(r.queue), "reason", err)
			return r.stats, err
		}
		if s.maxPages > 0 && r.stats.PagesFetched >= s.maxPages {
			r.stats.Truncated = true
			r.log.Warn("page limit reached", "maxPages", s.maxPages, "queued", len(r.queue))
			break
		}

		target := r.queue[0]
		r.queue = r.queue[1:]

		outcome := s.visit(ctx, r, target)
		s.enqueue(r, outcome.Targets)

		if outcome.Record == nil {
			continue
		}
		if err := sink.Emit(ctx, *outcome.Record); err != nil {
			return r.stats, fmt.Errorf("failed to emit record from %s: %w", target.URL, err)
		}
		r.stats.CountRecord(*outcome.Record)
	}

	r.log.Info("crawl finished",
		"pages", r.stats.PagesFetched,
		"records", r.stats.RecordsEmitted,
		"skipped", r.stats.RecordsSkipped,
		"fetchFailures", r.stats.FetchFailures,
	)
	return r.stats, nil
}

// visit fetches, classifies and dispatches one target.
func (s *Spider) visit(ctx context.Context, r *run, target model.Target) Outcome {
	page, err := s.fetcher.Fetch(ctx, target.URL)
	if err != nil {
		r.stats.FetchFailures++
		r.log.Warn("fetch failed", "url", target.URL, "referrer", target.Referrer, "error", err)
		s.record(ctx, r, target, nil, model.KindUnknown, err)
		return Outcome{}
	}
	r.stats.PagesFetched++

	kind, doc := s.classify(r, page)
	r.stats.CountPage(kind)
	s.record(ctx, r, target, page, kind, nil)

	outcome, err := Dispatch(r.table, kind, doc)
	switch {
	case errors.Is(err, ErrUnknownPage):
		r.stats.UnknownDropped++
		r.log.Debug("dropping page", "url", target.URL, "kind", kind)
		return Outcome{}
	case errors.Is(err, ErrMissingRequiredField):
		r.stats.RecordsSkipped++
		r.log.Warn("skipping record", "url", target.URL, "error", err)
		return Outcome{}
	case err != nil:
		r.log.Warn("handler failed", "kind", kind, "url", target.URL, "error", err)
		return Outcome{}
	}

	r.log.Debug("parsed page", "kind", kind, "url", target.URL, "targets", len(outcome.Targets))
	return outcome
}

// classify parses the page and runs the two-stage classifier. Non-HTML and
// unparseable pages are KindUnknown.
func (s *Spider) classify(r *run, page *model.Page) (model.PageKind, *Document) {
	if !page.IsHTML() {
		return model.KindUnknown, nil
	}
	doc, err := ParseDocument(page)
	if err != nil {
		r.log.Warn("failed to parse page", "url", page.RequestURL, "error", err)
		return model.KindUnknown, nil
	}
	return r.classifier.Classify(page, doc), doc
}

func (s *Spider) enqueue(r *run, targets []model.Target) {
	for _, t := range targets {
		if s.visitedGuard {
			if _, dup := r.seen[t.URL]; dup {
				r.stats.DuplicateTargets++
				continue
			}
			r.seen[t.URL] = struct{}{}
		}
		r.queue = append(r.queue, t)
	}
}

func (s *Spider) record(ctx context.Context, r *run, target model.Target, page *model.Page, kind model.PageKind, fetchErr error) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordPage(ctx, target, page, kind, fetchErr); err != nil {
		r.log.Warn("failed to record page", "url", target.URL, "error", err)
	}
}

// errStopIteration ends a crawl when the consumer of Records stops early.
var errStopIteration = errors.New("iteration stopped")

// Records returns the records of one country as a lazy sequence. The crawl
// advances only while the consumer pulls; breaking out of the loop stops
// it. Each call starts a fresh crawl from the country page. A crawl error
// other than an early stop is yielded once as the final element.
func (s *Spider) Records(ctx context.Context, country string) iter.Seq2[model.Nonprofit, error] {
	return func(yield func(model.Nonprofit, error) bool) {
		sink := SinkFunc(func(_ context.Context, record model.Nonprofit) error {
			if !yield(record, nil) {
				return errStopIteration
			}
			return nil
		})

		_, err := s.Crawl(ctx, country, sink)
		if err != nil && !errors.Is(err, errStopIteration) {
			yield(model.Nonprofit{}, err)
		}
	}
}
