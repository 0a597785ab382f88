// Package database provides SQLite-based storage for crawl runs.
//
// The RecordDB stores:
//   - Runs: one row per crawled country with the final RunStats
//   - Pages: every dequeued target with its kind, status and fetch error
//   - Nonprofits: deduplicated records, unique per country and detail URL
//
// SQLite (via modernc.org/sqlite) keeps the store a single CGO-free file in
// the user's data directory, so repeated crawls can be compared with the
// history command.
package database
