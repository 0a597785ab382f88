package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/npocrawl/internal/model"
)

// FileName is the database file name inside the database directory.
const FileName = "npocrawl.db"

// RecordDB provides SQLite-based storage for runs, pages and records.
type RecordDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures RecordDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a RecordDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*RecordDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s: %w", dbPath, ErrDatabaseNotFound)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// The driver ignores query parameters on plain paths; only the Stat
	// check above prevents creating a missing database.
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &RecordDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// ErrDatabaseNotFound is returned by Open when the database must exist but does not.
var ErrDatabaseNotFound = errors.New("database not found")

// Close closes the database connection.
func (rdb *RecordDB) Close() error {
	return rdb.db.Close()
}

// Path returns the database file path.
func (rdb *RecordDB) Path() string {
	return rdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (rdb *RecordDB) createTables() error {
	schema := `
	-- One row per crawled country
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		country TEXT NOT NULL,
		seed_url TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		pages_fetched INTEGER DEFAULT 0,
		fetch_failures INTEGER DEFAULT 0,
		records_emitted INTEGER DEFAULT 0,
		records_skipped INTEGER DEFAULT 0,
		truncated INTEGER DEFAULT 0,
		stats_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_country ON runs(country);

	-- Every dequeued target of a run
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		url TEXT NOT NULL,
		referrer TEXT,
		kind TEXT NOT NULL,
		status_code INTEGER,
		content_type TEXT,
		content_hash TEXT,
		fetch_error TEXT,
		fetched_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_pages_run ON pages(run_id);

	-- Records, deduplicated across runs by their detail page
	CREATE TABLE IF NOT EXISTS nonprofits (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		country TEXT NOT NULL,
		source_url TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL,
		website TEXT,
		cause_area TEXT,
		city TEXT,
		first_run_id INTEGER,
		last_run_id INTEGER,
		updated_at TEXT NOT NULL,
		UNIQUE(country, source_url)
	);

	CREATE INDEX IF NOT EXISTS idx_nonprofits_country ON nonprofits(country);
	`

	_, err := rdb.db.ExecContext(context.Background(), schema)
	return err
}

// RunRecord is a stored run.
type RunRecord struct {
	ID         int64           `json:"id"`
	Country    string          `json:"country"`
	SeedURL    string          `json:"seed_url"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at,omitzero"`
	Stats      *model.RunStats `json:"stats,omitempty"`
}

// Finished reports whether FinishRun was called for the run.
func (r RunRecord) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// StartRun inserts a new run and returns its ID.
func (rdb *RecordDB) StartRun(ctx context.Context, country, seedURL string) (int64, error) {
	result, err := rdb.db.ExecContext(ctx,
		`INSERT INTO runs (country, seed_url, started_at) VALUES (?, ?, ?)`,
		country, seedURL, formatTimestamp(time.Now()),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to start run: %w", err)
	}
	return result.LastInsertId()
}

// FinishRun stores the final statistics of a run.
func (rdb *RecordDB) FinishRun(ctx context.Context, runID int64, stats *model.RunStats) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to serialize run stats: %w", err)
	}

	finished := stats.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}

	query := `
	UPDATE runs SET
		finished_at = ?,
		pages_fetched = ?,
		fetch_failures = ?,
		records_emitted = ?,
		records_skipped = ?,
		truncated = ?,
		stats_json = ?
	WHERE id = ?
	`

	result, err := rdb.db.ExecContext(ctx, query,
		formatTimestamp(finished),
		stats.PagesFetched,
		stats.FetchFailures,
		stats.RecordsEmitted,
		stats.RecordsSkipped,
		stats.Truncated,
		string(statsJSON),
		runID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %d: %w", runID, ErrRunNotFound)
	}
	return nil
}

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = errors.New("run not found")

// RecordPage stores one dequeued target. page is nil when the fetch failed.
func (rdb *RecordDB) RecordPage(ctx context.Context, runID int64, target model.Target, page *model.Page, kind model.PageKind, fetchErr error) error {
	var (
		status      sql.NullInt64
		contentType sql.NullString
		hash        sql.NullString
		errText     sql.NullString
	)
	if page != nil {
		status = sql.NullInt64{Int64: int64(page.StatusCode), Valid: true}
		contentType = sql.NullString{String: page.ContentType, Valid: page.ContentType != ""}
		hash = sql.NullString{String: page.Hash, Valid: page.Hash != ""}
	}
	if fetchErr != nil {
		errText = sql.NullString{String: fetchErr.Error(), Valid: true}
	}

	query := `
	INSERT INTO pages (run_id, url, referrer, kind, status_code, content_type, content_hash, fetch_error, fetched_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if _, err := rdb.db.ExecContext(ctx, query,
		runID,
		target.URL,
		target.Referrer,
		kind.String(),
		status,
		contentType,
		hash,
		errText,
		formatTimestamp(time.Now()),
	); err != nil {
		return fmt.Errorf("failed to record page: %w", err)
	}
	return nil
}

// PageRecord is a stored page row.
type PageRecord struct {
	URL        string `json:"url"`
	Referrer   string `json:"referrer,omitempty"`
	Kind       string `json:"kind"`
	StatusCode int    `json:"status_code,omitempty"`
	FetchError string `json:"fetch_error,omitempty"`
}

// ListPages returns the pages of a run in the order they were dequeued.
func (rdb *RecordDB) ListPages(ctx context.Context, runID int64) ([]PageRecord, error) {
	rows, err := rdb.db.QueryContext(ctx, `
	SELECT url, COALESCE(referrer, ''), kind, COALESCE(status_code, 0), COALESCE(fetch_error, '')
	FROM pages
	WHERE run_id = ?
	ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	defer rows.Close()

	var pages []PageRecord
	for rows.Next() {
		var p PageRecord
		if err := rows.Scan(&p.URL, &p.Referrer, &p.Kind, &p.StatusCode, &p.FetchError); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// UpsertNonprofit inserts a record or updates the stored one with the same
// country and source URL.
func (rdb *RecordDB) UpsertNonprofit(ctx context.Context, runID int64, n model.Nonprofit) error {
	query := `
	INSERT INTO nonprofits (country, source_url, name, description, website, cause_area, city, first_run_id, last_run_id, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(country, source_url) DO UPDATE SET
		name = excluded.name,
		description = excluded.description,
		website = excluded.website,
		cause_area = excluded.cause_area,
		city = excluded.city,
		last_run_id = excluded.last_run_id,
		updated_at = excluded.updated_at
	`

	if _, err := rdb.db.ExecContext(ctx, query,
		n.Country,
		n.SourceURL,
		n.Name,
		n.Description,
		n.Website,
		n.CauseArea,
		n.City,
		runID,
		runID,
		formatTimestamp(time.Now()),
	); err != nil {
		return fmt.Errorf("failed to upsert nonprofit: %w", err)
	}
	return nil
}

// ListRuns returns stored runs, newest first. An empty country lists all.
func (rdb *RecordDB) ListRuns(ctx context.Context, country string) ([]RunRecord, error) {
	query := `
	SELECT id, country, seed_url, started_at, COALESCE(finished_at, ''), COALESCE(stats_json, '')
	FROM runs
	WHERE ? = '' OR country = ?
	ORDER BY id DESC
	`

	rows, err := rdb.db.QueryContext(ctx, query, country, country)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var (
			r                     RunRecord
			started, finished, js string
		)
		if err := rows.Scan(&r.ID, &r.Country, &r.SeedURL, &started, &finished, &js); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		r.StartedAt = parseTimestamp(started)
		if finished != "" {
			r.FinishedAt = parseTimestamp(finished)
		}
		if js != "" {
			var stats model.RunStats
			if err := json.Unmarshal([]byte(js), &stats); err != nil {
				return nil, fmt.Errorf("failed to parse stats of run %d: %w", r.ID, err)
			}
			r.Stats = &stats
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ListNonprofits returns the stored records of a country ordered by city
// and name. An empty country lists all.
func (rdb *RecordDB) ListNonprofits(ctx context.Context, country string) ([]model.Nonprofit, error) {
	query := `
	SELECT name, country, description, COALESCE(website, ''), COALESCE(cause_area, ''), COALESCE(city, ''), source_url
	FROM nonprofits
	WHERE ? = '' OR country = ?
	ORDER BY country, city, name
	`

	rows, err := rdb.db.QueryContext(ctx, query, country, country)
	if err != nil {
		return nil, fmt.Errorf("failed to list nonprofits: %w", err)
	}
	defer rows.Close()

	var records []model.Nonprofit
	for rows.Next() {
		var n model.Nonprofit
		if err := rows.Scan(&n.Name, &n.Country, &n.Description, &n.Website, &n.CauseArea, &n.City, &n.SourceURL); err != nil {
			return nil, fmt.Errorf("failed to scan nonprofit: %w", err)
		}
		records = append(records, n)
	}
	return records, rows.Err()
}

// CountNonprofits returns the number of stored records of a country.
// An empty country counts all.
func (rdb *RecordDB) CountNonprofits(ctx context.Context, country string) (int, error) {
	var n int
	err := rdb.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM nonprofits WHERE ? = '' OR country = ?`,
		country, country,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count nonprofits: %w", err)
	}
	return n, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,          // written by formatTimestamp
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
