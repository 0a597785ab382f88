// Package model defines the data structures shared by the crawler, the
// fetch engines, the sinks and the database.
//
// This package contains the following main types:
//   - PageKind: the closed set of page kinds a fetched response can be
//   - Target: a URL queued for fetching
//   - Page: a fetched response handed to the classifier and handlers
//   - Nonprofit: the record extracted from a nonprofit detail page
//   - RunStats: counters collected over one crawl run
//
// The types live in their own package so that crawler, fetcher, report and
// database can all depend on them without import cycles.
package model
