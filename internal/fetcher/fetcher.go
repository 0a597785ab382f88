package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/nao1215/npocrawl/internal/model"
)

// Engine names accepted by New.
const (
	EngineHTTP  = "http"
	EngineColly = "colly"
)

// Default option values.
const (
	DefaultUserAgent    = "Mozilla/5.0 (compatible; npocrawl; +https://github.com/nao1215/npocrawl)"
	DefaultTimeout      = 30 * time.Second
	DefaultRetryBackoff = time.Second
)

var (
	// ErrUnknownEngine is returned by New for an unsupported engine name.
	ErrUnknownEngine = errors.New("unknown fetch engine")

	// ErrUnexpectedStatus is wrapped by every *StatusError.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")
)

// StatusError is returned when the final response is not 2xx.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Unwrap returns ErrUnexpectedStatus.
func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}

// Fetcher fetches one URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*model.Page, error)
}

// Options configures a fetch engine.
type Options struct {
	// UserAgent is sent with every request.
	UserAgent string

	// Timeout bounds a single request.
	Timeout time.Duration

	// Delay is the minimum interval between two requests.
	Delay time.Duration

	// Retries is the number of additional attempts after a retryable
	// failure. 0 disables retrying.
	Retries int

	// RetryBackoff is multiplied by the attempt number before each retry.
	RetryBackoff time.Duration

	// Headers are added to every request.
	Headers map[string]string

	// Cookie is sent as the Cookie header when set.
	Cookie string

	// MaxBodySize limits the bytes read per response.
	MaxBodySize int64

	// RespectRobots makes the colly engine honour robots.txt.
	RespectRobots bool

	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Retries < 0 {
		o.Retries = 0
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = DefaultRetryBackoff
	}
	if o.MaxBodySize <= 0 {
		o.MaxBodySize = model.MaxPageSize
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Engines returns the supported engine names.
func Engines() []string {
	return []string{EngineHTTP, EngineColly}
}

// IsEngine reports whether name is a supported engine. The empty name
// selects the default engine and is accepted.
func IsEngine(name string) bool {
	return name == "" || slices.Contains(Engines(), name)
}

// New returns the fetch engine called name. The empty name selects
// EngineHTTP.
func New(name string, opts Options) (Fetcher, error) {
	switch name {
	case "", EngineHTTP:
		return NewHTTPFetcher(opts), nil
	case EngineColly:
		return NewCollyFetcher(opts)
	default:
		return nil, fmt.Errorf("%w: %q (supported: %v)", ErrUnknownEngine, name, Engines())
	}
}

// retryable reports whether a failed attempt should be retried.
// Failures other than a status or a permanentError are treated as
// transient network failures.
func retryable(err error) bool {
	var permErr *permanentError
	if errors.As(err, &permErr) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= 500
	}
	return true
}

// withRetry runs attempt until it succeeds, fails permanently or the
// retries are used up. The n-th retry waits n*RetryBackoff.
func withRetry(ctx context.Context, opts Options, rawURL string, attempt func() (*model.Page, error)) (*model.Page, error) {
	var lastErr error
	for n := 0; n <= opts.Retries; n++ {
		if n > 0 {
			if err := sleep(ctx, time.Duration(n)*opts.RetryBackoff); err != nil {
				return nil, err
			}
		}

		page, err := attempt()
		if err == nil {
			return page, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !retryable(err) {
			return nil, err
		}

		lastErr = err
		if n < opts.Retries {
			opts.Logger.Debug("fetch failed, retrying", "url", rawURL, "attempt", n+1, "error", err)
		}
	}

	if opts.Retries == 0 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("giving up after %d attempts: %w", opts.Retries+1, lastErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// newPage builds a Page from a successful response.
func newPage(requestURL, finalURL string, status int, contentType string, body []byte) *model.Page {
	page := &model.Page{
		RequestURL:  requestURL,
		BaseURL:     finalURL,
		StatusCode:  status,
		ContentType: contentType,
		Body:        body,
	}
	page.TruncateBody()
	page.ComputeHash()
	return page
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
