// Package fetcher provides the fetch engines used by the crawler.
//
// Two engines implement the same Fetch(ctx, url) contract:
//
//   - HTTPFetcher: net/http with a politeness rate limiter
//   - CollyFetcher: a gocolly/colly collector with a LimitRule delay and
//     optional robots.txt handling
//
// Both retry network errors, 429 and 5xx responses with a linear backoff.
// Any other non-2xx response is returned as a *StatusError. The returned
// Page carries the final URL after redirects as its BaseURL.
//
// Usage:
//
//	f, err := fetcher.New(fetcher.EngineHTTP, fetcher.Options{Delay: time.Second})
//	if err != nil {
//	    return err
//	}
//	page, err := f.Fetch(ctx, "http://www.charity-charities.org/Thailand-charities/Thailand.html")
package fetcher
