package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/nao1215/npocrawl/internal/model"
)

// HTTPFetcher fetches pages with net/http. A single limiter spaces all
// requests by Options.Delay, so one HTTPFetcher shared by several runs
// stays polite towards the site. It is safe for concurrent use.
type HTTPFetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	opts    Options
}

// NewHTTPFetcher creates an HTTPFetcher.
func NewHTTPFetcher(opts Options) *HTTPFetcher {
	opts = opts.withDefaults()

	limit := rate.Inf
	if opts.Delay > 0 {
		limit = rate.Every(opts.Delay)
	}

	return &HTTPFetcher{
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(limit, 1),
		opts:    opts,
	}
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*model.Page, error) {
	return withRetry(ctx, f.opts, rawURL, func() (*model.Page, error) {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, &permanentError{err: fmt.Errorf("rate limiter wait: %w", err)}
		}
		return f.do(ctx, rawURL)
	})
}

func (f *HTTPFetcher) do(ctx context.Context, rawURL string) (*model.Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &permanentError{err: err}
	}
	f.setHeaders(req.Header)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.MaxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read body of %s: %w", rawURL, err)
	}

	return newPage(rawURL, resp.Request.URL.String(), resp.StatusCode, resp.Header.Get("Content-Type"), body), nil
}

func (f *HTTPFetcher) setHeaders(h http.Header) {
	h.Set("User-Agent", f.opts.UserAgent)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	h.Set("Accept-Language", "en-US,en;q=0.5")
	for k, v := range f.opts.Headers {
		h.Set(k, v)
	}
	if f.opts.Cookie != "" {
		h.Set("Cookie", f.opts.Cookie)
	}
}

// permanentError marks a failure that no retry can fix.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }
