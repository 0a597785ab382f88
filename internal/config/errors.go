package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so callers can use
// errors.Is() while users still get a readable message.
var (
	// ErrNoCountry is returned when neither an argument nor the configuration
	// file names a country.
	ErrNoCountry = errors.New("no country specified: provide a country name or list countries in the config file")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	// Use 0 for no delay between requests.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidRetries is returned when the retry count is negative.
	ErrInvalidRetries = errors.New("invalid retries: must be non-negative")

	// ErrInvalidMaxPages is returned when the page limit is negative.
	// Use 0 for no limit.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidEngine is returned for an unknown fetch engine name.
	ErrInvalidEngine = errors.New("invalid engine: must be \"http\" or \"colly\"")

	// ErrInvalidTemplate is returned when a directory template in the
	// configuration file lacks the {country} placeholder, or when the path
	// template does not start with a slash or ends with one.
	ErrInvalidTemplate = errors.New("invalid directory template")

	// ErrInvalidBaseURL is returned when the configured base URL is not an
	// absolute http(s) URL.
	ErrInvalidBaseURL = errors.New("invalid base URL: must be an absolute http or https URL")
)
