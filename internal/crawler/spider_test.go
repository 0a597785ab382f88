package crawler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"

	"github.com/nao1215/npocrawl/internal/model"
)

const (
	seedURL    = "http://www.charity-charities.org/Thailand-charities/Thailand.html"
	bangkokURL = "http://www.charity-charities.org/Thailand-charities/Bangkok.html"
)

var errNotFound = errors.New("not found")

// mapFetcher serves pages from memory and remembers every request.
type mapFetcher struct {
	mu       sync.Mutex
	pages    map[string]string
	requests []string
}

func (f *mapFetcher) Fetch(_ context.Context, rawURL string) (*model.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, rawURL)
	body, ok := f.pages[rawURL]
	if !ok {
		return nil, errNotFound
	}
	return newPage(rawURL, body), nil
}

func (f *mapFetcher) requested() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.requests)
}

type sliceSink struct {
	records []model.Nonprofit
	err     error
}

func (s *sliceSink) Emit(_ context.Context, record model.Nonprofit) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, record)
	return nil
}

func detailHTML(name string) string {
	return `<html><body>
		<h1 class="npname">` + name + `</h1>
		<div class="npdesc">About ` + name + `</div>
		<span class="npcity">Bangkok</span>
		<a class="deadlink" href="/dead">Report</a>
	</body></html>`
}

// thaiSite is a small directory: one city with two listing pages, three
// nonprofits and a foreign-section link on the country page.
func thaiSite() map[string]string {
	return map[string]string{
		seedURL: `<html><body>
			<a class="nwslink" href="Bangkok.html">Bangkok</a>
			<a class="nwslink" href="/Environmental/Thailand.html">Environmental</a>
		</body></html>`,
		bangkokURL: `<html><body>
			<a class="fndname" href="/orgs/a.html">A</a>
			<a class="fndname" href="/orgs/b.html">B</a>
			<a class="chnlink" href="Bangkok.html?start=20">Next &gt;&gt;</a>
		</body></html>`,
		bangkokURL + "?start=20": `<html><body>
			<a class="fndname" href="/orgs/c.html">C</a>
			<a class="chnlink" href="Bangkok.html">&lt;&lt; Prev</a>
		</body></html>`,
		"http://www.charity-charities.org/orgs/a.html": detailHTML("Alpha"),
		"http://www.charity-charities.org/orgs/b.html": detailHTML("Beta"),
		"http://www.charity-charities.org/orgs/c.html": detailHTML("Gamma"),
	}
}

func newTestSpider(f Fetcher, opts ...SpiderOption) *Spider {
	opts = append([]SpiderOption{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return NewSpider(f, DefaultLayout(), DefaultSelectors(), opts...)
}

func recordNames(records []model.Nonprofit) []string {
	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.Name
	}
	return names
}

func TestSpiderCrawl(t *testing.T) {
	t.Parallel()

	t.Run("crawls the whole directory in FIFO order", func(t *testing.T) {
		t.Parallel()

		f := &mapFetcher{pages: thaiSite()}
		sink := &sliceSink{}

		stats, err := newTestSpider(f).Crawl(context.Background(), "Thailand", sink)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got, want := recordNames(sink.records), []string{"Alpha", "Beta", "Gamma"}; !slices.Equal(got, want) {
			t.Errorf("got records %v, want %v", got, want)
		}
		for _, r := range sink.records {
			if r.Country != "Thailand" {
				t.Errorf("expected country Thailand, got %q", r.Country)
			}
		}

		wantRequests := []string{
			seedURL,
			bangkokURL,
			"http://www.charity-charities.org/orgs/a.html",
			"http://www.charity-charities.org/orgs/b.html",
			bangkokURL + "?start=20",
			"http://www.charity-charities.org/orgs/c.html",
		}
		if got := f.requested(); !slices.Equal(got, wantRequests) {
			t.Errorf("got requests %v, want %v", got, wantRequests)
		}

		if stats.PagesFetched != 6 {
			t.Errorf("expected 6 pages fetched, got %d", stats.PagesFetched)
		}
		if stats.RecordsEmitted != 3 {
			t.Errorf("expected 3 records, got %d", stats.RecordsEmitted)
		}
		if stats.PagesByKind[model.KindCity.String()] != 2 || stats.PagesByKind[model.KindNonprofit.String()] != 3 {
			t.Errorf("unexpected pages by kind: %v", stats.PagesByKind)
		}
		if stats.RecordsByCity["Bangkok"] != 3 {
			t.Errorf("expected 3 records in Bangkok, got %v", stats.RecordsByCity)
		}
		if stats.Truncated {
			t.Error("expected a complete run")
		}
		if stats.FinishedAt.IsZero() {
			t.Error("expected FinishedAt to be set")
		}
	})

	t.Run("country page with one valid city link", func(t *testing.T) {
		t.Parallel()

		f := &mapFetcher{pages: map[string]string{
			seedURL: `<a class="nwslink" href="/Thailand-charities/A.html">A</a>
				<a class="nwslink" href="/Laos-charities/B.html">B</a>`,
		}}

		stats, err := newTestSpider(f).Crawl(context.Background(), "Thailand", &sliceSink{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []string{seedURL, "http://www.charity-charities.org/Thailand-charities/A.html"}
		if got := f.requested(); !slices.Equal(got, want) {
			t.Errorf("got requests %v, want %v", got, want)
		}
		if stats.FetchFailures != 1 {
			t.Errorf("expected the missing city page to count as a fetch failure, got %d", stats.FetchFailures)
		}
	})

	t.Run("fetch failures do not stop the run", func(t *testing.T) {
		t.Parallel()

		site := thaiSite()
		delete(site, "http://www.charity-charities.org/orgs/a.html")
		f := &mapFetcher{pages: site}
		sink := &sliceSink{}

		stats, err := newTestSpider(f).Crawl(context.Background(), "Thailand", sink)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got, want := recordNames(sink.records), []string{"Beta", "Gamma"}; !slices.Equal(got, want) {
			t.Errorf("got records %v, want %v", got, want)
		}
		if stats.FetchFailures != 1 {
			t.Errorf("expected 1 fetch failure, got %d", stats.FetchFailures)
		}
	})

	t.Run("unreachable seed yields no records", func(t *testing.T) {
		t.Parallel()

		sink := &sliceSink{}
		stats, err := newTestSpider(&mapFetcher{}).Crawl(context.Background(), "Thailand", sink)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(sink.records) != 0 || stats.FetchFailures != 1 {
			t.Errorf("unexpected result: records=%d failures=%d", len(sink.records), stats.FetchFailures)
		}
	})

	t.Run("detail page missing required fields is skipped", func(t *testing.T) {
		t.Parallel()

		site := thaiSite()
		site["http://www.charity-charities.org/orgs/b.html"] = `<a class="deadlink" href="/dead">Report</a>`
		sink := &sliceSink{}

		stats, err := newTestSpider(&mapFetcher{pages: site}).Crawl(context.Background(), "Thailand", sink)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got, want := recordNames(sink.records), []string{"Alpha", "Gamma"}; !slices.Equal(got, want) {
			t.Errorf("got records %v, want %v", got, want)
		}
		if stats.RecordsSkipped != 1 {
			t.Errorf("expected 1 skipped record, got %d", stats.RecordsSkipped)
		}
	})

	t.Run("unknown pages are dropped", func(t *testing.T) {
		t.Parallel()

		site := thaiSite()
		site[bangkokURL] += `<a class="fndname" href="/about.html">About</a>`
		site["http://www.charity-charities.org/about.html"] = `<p>about us</p>`

		stats, err := newTestSpider(&mapFetcher{pages: site}).Crawl(context.Background(), "Thailand", &sliceSink{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if stats.UnknownDropped != 1 {
			t.Errorf("expected 1 dropped page, got %d", stats.UnknownDropped)
		}
	})

	t.Run("sink error aborts the run", func(t *testing.T) {
		t.Parallel()

		sinkErr := errors.New("disk full")
		stats, err := newTestSpider(&mapFetcher{pages: thaiSite()}).Crawl(context.Background(), "Thailand", &sliceSink{err: sinkErr})
		if !errors.Is(err, sinkErr) {
			t.Fatalf("expected sink error, got %v", err)
		}
		if stats == nil || stats.RecordsEmitted != 0 {
			t.Errorf("expected stats with no emitted records, got %+v", stats)
		}
	})

	t.Run("invalid base URL", func(t *testing.T) {
		t.Parallel()

		layout := Layout{BaseURL: "http://bad host\x7f"}
		s := NewSpider(&mapFetcher{}, layout, DefaultSelectors())
		if _, err := s.Crawl(context.Background(), "Thailand", &sliceSink{}); err == nil {
			t.Error("expected error for invalid base URL")
		}
	})
}

func TestSpiderVisitedGuard(t *testing.T) {
	t.Parallel()

	// The second listing page links back to the first as "Next >>".
	loop := thaiSite()
	loop[bangkokURL+"?start=20"] = `<html><body>
		<a class="fndname" href="/orgs/a.html">A again</a>
		<a class="chnlink" href="Bangkok.html">Next &gt;&gt;</a>
	</body></html>`

	t.Run("enabled by default", func(t *testing.T) {
		t.Parallel()

		f := &mapFetcher{pages: loop}
		sink := &sliceSink{}

		stats, err := newTestSpider(f).Crawl(context.Background(), "Thailand", sink)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(f.requested()) != 5 {
			t.Errorf("expected 5 requests, got %v", f.requested())
		}
		if got, want := recordNames(sink.records), []string{"Alpha", "Beta"}; !slices.Equal(got, want) {
			t.Errorf("got records %v, want %v", got, want)
		}
		if stats.DuplicateTargets != 2 {
			t.Errorf("expected 2 duplicate targets, got %d", stats.DuplicateTargets)
		}
	})

	t.Run("disabled relies on the page limit", func(t *testing.T) {
		t.Parallel()

		f := &mapFetcher{pages: loop}
		stats, err := newTestSpider(f, WithVisitedGuard(false), WithMaxPages(20)).Crawl(context.Background(), "Thailand", &sliceSink{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !stats.Truncated {
			t.Error("expected the run to be truncated")
		}
		if stats.PagesFetched != 20 {
			t.Errorf("expected 20 pages, got %d", stats.PagesFetched)
		}
		if stats.DuplicateTargets != 0 {
			t.Errorf("expected no duplicate accounting, got %d", stats.DuplicateTargets)
		}
	})
}

func TestSpiderMaxPages(t *testing.T) {
	t.Parallel()

	f := &mapFetcher{pages: thaiSite()}
	stats, err := newTestSpider(f, WithMaxPages(2)).Crawl(context.Background(), "Thailand", &sliceSink{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.PagesFetched != 2 || len(f.requested()) != 2 {
		t.Errorf("expected 2 pages, got %d (requests %v)", stats.PagesFetched, f.requested())
	}
	if !stats.Truncated {
		t.Error("expected the run to be truncated")
	}
}

func TestSpiderCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	f := &mapFetcher{pages: thaiSite()}

	sink := SinkFunc(func(_ context.Context, _ model.Nonprofit) error {
		cancel()
		return nil
	})

	stats, err := newTestSpider(f).Crawl(ctx, "Thailand", sink)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if stats.RecordsEmitted != 1 {
		t.Errorf("expected 1 record before cancellation, got %d", stats.RecordsEmitted)
	}
	if !stats.Truncated {
		t.Error("expected the run to be truncated")
	}
}

func TestSpiderInvalidBaseURL(t *testing.T) {
	t.Parallel()

	f := &mapFetcher{pages: thaiSite()}
	layout := DefaultLayout()
	layout.BaseURL = "://no-scheme"
	spider := NewSpider(f, layout, DefaultSelectors(), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	stats, err := spider.Crawl(context.Background(), "Thailand", &sliceSink{})
	if err == nil {
		t.Fatal("expected error for invalid base URL")
	}
	if stats == nil {
		t.Fatal("expected stats even when the crawl cannot start")
	}
	if stats.Country != "Thailand" || stats.PagesFetched != 0 || stats.FinishedAt.IsZero() {
		t.Errorf("unexpected stats %+v", stats)
	}
	if len(f.requested()) != 0 {
		t.Errorf("expected no requests, got %v", f.requested())
	}
}

func TestSpiderRecords(t *testing.T) {
	t.Parallel()

	t.Run("yields every record", func(t *testing.T) {
		t.Parallel()

		var names []string
		for record, err := range newTestSpider(&mapFetcher{pages: thaiSite()}).Records(context.Background(), "Thailand") {
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			names = append(names, record.Name)
		}
		if want := []string{"Alpha", "Beta", "Gamma"}; !slices.Equal(names, want) {
			t.Errorf("got %v, want %v", names, want)
		}
	})

	t.Run("stops fetching when the consumer stops", func(t *testing.T) {
		t.Parallel()

		f := &mapFetcher{pages: thaiSite()}
		for record, err := range newTestSpider(f).Records(context.Background(), "Thailand") {
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if record.Name != "Alpha" {
				t.Errorf("expected Alpha first, got %q", record.Name)
			}
			break
		}

		// seed, city, first detail page
		if got := len(f.requested()); got != 3 {
			t.Errorf("expected 3 requests before stopping, got %v", f.requested())
		}
	})

	t.Run("yields the crawl error last", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var gotErr error
		for _, err := range newTestSpider(&mapFetcher{pages: thaiSite()}).Records(ctx, "Thailand") {
			gotErr = err
		}
		if !errors.Is(gotErr, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", gotErr)
		}
	})
}

type pageEvent struct {
	url  string
	kind model.PageKind
	err  bool
}

type memRecorder struct {
	events []pageEvent
}

func (m *memRecorder) RecordPage(_ context.Context, target model.Target, _ *model.Page, kind model.PageKind, fetchErr error) error {
	m.events = append(m.events, pageEvent{url: target.URL, kind: kind, err: fetchErr != nil})
	return nil
}

func TestSpiderPageRecorder(t *testing.T) {
	t.Parallel()

	site := thaiSite()
	delete(site, "http://www.charity-charities.org/orgs/c.html")
	rec := &memRecorder{}

	if _, err := newTestSpider(&mapFetcher{pages: site}, WithPageRecorder(rec)).Crawl(context.Background(), "Thailand", &sliceSink{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []pageEvent{
		{seedURL, model.KindCountry, false},
		{bangkokURL, model.KindCity, false},
		{"http://www.charity-charities.org/orgs/a.html", model.KindNonprofit, false},
		{"http://www.charity-charities.org/orgs/b.html", model.KindNonprofit, false},
		{bangkokURL + "?start=20", model.KindCity, false},
		{"http://www.charity-charities.org/orgs/c.html", model.KindUnknown, true},
	}
	if !slices.Equal(rec.events, want) {
		t.Errorf("got events %v, want %v", rec.events, want)
	}
}
