package model

import (
	"maps"
	"slices"
	"time"
)

// RunStats collects counters for one crawl run of one country.
type RunStats struct {
	Country    string    `json:"country"`
	SeedURL    string    `json:"seed_url"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// PagesFetched counts successful fetches.
	PagesFetched int `json:"pages_fetched"`

	// PagesByKind counts classified pages per kind name.
	PagesByKind map[string]int `json:"pages_by_kind"`

	FetchFailures    int `json:"fetch_failures"`
	UnknownDropped   int `json:"unknown_dropped"`
	DuplicateTargets int `json:"duplicate_targets"`
	RecordsEmitted   int `json:"records_emitted"`
	RecordsSkipped   int `json:"records_skipped"`

	// RecordsByCity counts emitted records per city. Records without a
	// city are counted under the empty string.
	RecordsByCity map[string]int `json:"records_by_city"`

	// Truncated is true when the run stopped at the page limit or was
	// cancelled before the queue emptied.
	Truncated bool `json:"truncated"`
}

// NewRunStats returns zeroed stats for a country.
func NewRunStats(country, seedURL string) *RunStats {
	return &RunStats{
		Country:       country,
		SeedURL:       seedURL,
		StartedAt:     time.Now(),
		PagesByKind:   make(map[string]int),
		RecordsByCity: make(map[string]int),
	}
}

// CountPage records one classified page.
func (s *RunStats) CountPage(kind PageKind) {
	s.PagesByKind[kind.String()]++
}

// CountRecord records one emitted record.
func (s *RunStats) CountRecord(n Nonprofit) {
	s.RecordsEmitted++
	s.RecordsByCity[n.City]++
}

// Duration returns the wall time of the run.
func (s *RunStats) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Cities returns the cities with records, sorted by name.
func (s *RunStats) Cities() []string {
	return slices.Sorted(maps.Keys(s.RecordsByCity))
}
