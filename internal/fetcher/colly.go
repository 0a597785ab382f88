package fetcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/gocolly/colly/v2"

	"github.com/nao1215/npocrawl/internal/model"
)

// CollyFetcher fetches pages with a gocolly collector. Every Fetch runs on
// a clone of one base collector; clones share the HTTP backend, so the
// LimitRule delay and the robots.txt cache apply across all fetches.
type CollyFetcher struct {
	base *colly.Collector
	opts Options
}

// NewCollyFetcher creates a CollyFetcher.
func NewCollyFetcher(opts Options) (*CollyFetcher, error) {
	opts = opts.withDefaults()

	collyOpts := []colly.CollectorOption{
		colly.UserAgent(opts.UserAgent),
		colly.MaxBodySize(int(opts.MaxBodySize)),
		// The spider decides what to revisit.
		colly.AllowURLRevisit(),
	}
	if !opts.RespectRobots {
		collyOpts = append(collyOpts, colly.IgnoreRobotsTxt())
	}

	c := colly.NewCollector(collyOpts...)
	c.SetRequestTimeout(opts.Timeout)
	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Delay:       opts.Delay,
		Parallelism: 1,
	}); err != nil {
		return nil, fmt.Errorf("failed to set colly limit rule: %w", err)
	}

	return &CollyFetcher{base: c, opts: opts}, nil
}

// Fetch implements Fetcher.
func (f *CollyFetcher) Fetch(ctx context.Context, rawURL string) (*model.Page, error) {
	return withRetry(ctx, f.opts, rawURL, func() (*model.Page, error) {
		return f.visit(ctx, rawURL)
	})
}

func (f *CollyFetcher) visit(ctx context.Context, rawURL string) (*model.Page, error) {
	c := f.base.Clone()
	c.Context = ctx

	var (
		page   *model.Page
		status int
	)

	c.OnRequest(func(r *colly.Request) {
		for k, v := range f.opts.Headers {
			r.Headers.Set(k, v)
		}
		if f.opts.Cookie != "" {
			r.Headers.Set("Cookie", f.opts.Cookie)
		}
	})
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		page = newPage(rawURL, r.Request.URL.String(), r.StatusCode, r.Headers.Get("Content-Type"), r.Body)
	})
	c.OnError(func(r *colly.Response, _ error) {
		if r != nil {
			status = r.StatusCode
		}
	})

	err := c.Visit(rawURL)
	switch {
	case status != 0 && !isSuccess(status):
		return nil, &StatusError{URL: rawURL, StatusCode: status}
	case errors.Is(err, colly.ErrRobotsTxtBlocked), errors.Is(err, colly.ErrMissingURL):
		return nil, &permanentError{err: err}
	case err != nil:
		return nil, err
	case page == nil:
		return nil, &permanentError{err: fmt.Errorf("no response for %s", rawURL)}
	}
	return page, nil
}
