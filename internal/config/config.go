package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/npocrawl/internal/fetcher"
	"github.com/nao1215/npocrawl/internal/model"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "npocrawl"

	// DefaultTimeout bounds a single request.
	DefaultTimeout = 30 * time.Second

	// DefaultCrawlDelay is the minimum interval between two requests.
	DefaultCrawlDelay = 1 * time.Second

	// DefaultRetries is the number of retries after a transient fetch failure.
	DefaultRetries = 2

	// DefaultBatchSize crawls one country at a time; several countries
	// usually share one site.
	DefaultBatchSize = 1

	// DefaultMaxPages of 0 crawls until the queue is empty.
	DefaultMaxPages = 0

	// DefaultOutputDir is where output-<Country>.csv files are written.
	DefaultOutputDir = "."

	// DefaultEngine is the fetch engine.
	DefaultEngine = fetcher.EngineHTTP

	// DefaultUserAgent identifies npocrawl in HTTP requests.
	DefaultUserAgent = fetcher.DefaultUserAgent

	// DefaultMaxBodySize limits the response body size to read.
	DefaultMaxBodySize = model.MaxPageSize
)

// Config holds all configuration options for a crawl.
// It is populated from CLI flags and the configuration file and passed
// through the application rather than kept in global state.
type Config struct {
	// Countries are the directory countries to crawl, e.g. "Thailand".
	Countries []string

	// OutputDir is the directory that receives the per-country output files.
	OutputDir string

	// JSONLines writes output-<Country>.jsonl instead of CSV.
	JSONLines bool

	// SummaryFile, when set, receives a Markdown summary of all runs.
	SummaryFile string

	// Engine selects the fetch engine ("http" or "colly").
	Engine string

	// CrawlDelay is the minimum interval between two requests.
	CrawlDelay time.Duration

	// Timeout bounds a single request.
	Timeout time.Duration

	// Retries is the number of retries after a transient fetch failure.
	Retries int

	// MaxPages stops a country run after this many fetched pages.
	// 0 means unlimited.
	MaxPages int

	// BatchSize is the number of countries crawled concurrently.
	BatchSize int

	// VisitedGuard drops targets already enqueued in the same run.
	VisitedGuard bool

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .npocrawl in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// File holds the settings loaded from the configuration file.
	// Nil when no file was found.
	File *File

	// DBDir is the directory of the SQLite database.
	// Defaults to the XDG data directory (~/.local/share/npocrawl on Linux).
	DBDir string

	// SaveToDB stores runs, pages and records in the database.
	SaveToDB bool

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		OutputDir:    DefaultOutputDir,
		Engine:       DefaultEngine,
		CrawlDelay:   DefaultCrawlDelay,
		Timeout:      DefaultTimeout,
		Retries:      DefaultRetries,
		MaxPages:     DefaultMaxPages,
		BatchSize:    DefaultBatchSize,
		VisitedGuard: true,
		DBDir:        XDGDataDir(),
		SaveToDB:     true,
		UserAgent:    DefaultUserAgent,
		MaxBodySize:  DefaultMaxBodySize,
	}
}

// XDGDataDir returns the XDG data directory for npocrawl.
// On Linux: ~/.local/share/npocrawl
// On macOS: ~/Library/Application Support/npocrawl
// On Windows: %LOCALAPPDATA%\npocrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as a sentinel error.
func (c *Config) Validate() error {
	if len(c.Countries) == 0 {
		return ErrNoCountry
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}

	if c.Retries < 0 {
		return ErrInvalidRetries
	}

	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if !fetcher.IsEngine(c.Engine) {
		return ErrInvalidEngine
	}

	if c.File != nil {
		if err := c.File.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// FetchOptions returns the fetch engine options. Request settings from the
// configuration file override the flag values.
func (c *Config) FetchOptions() fetcher.Options {
	opts := fetcher.Options{
		UserAgent:   c.UserAgent,
		Timeout:     c.Timeout,
		Delay:       c.CrawlDelay,
		Retries:     c.Retries,
		MaxBodySize: c.MaxBodySize,
	}

	if c.File != nil {
		f := c.File.Fetch
		if f.UserAgent != "" {
			opts.UserAgent = f.UserAgent
		}
		opts.Cookie = f.Cookie
		opts.Headers = f.Headers
		opts.RespectRobots = f.RespectRobots
	}
	return opts
}
