package database

import (
	"context"

	"github.com/nao1215/npocrawl/internal/model"
)

// RunSink binds a RecordDB to one run. It records pages for the spider and
// stores emitted records, so it serves as both page recorder and record
// sink.
type RunSink struct {
	db    *RecordDB
	runID int64
}

// Sink returns the RunSink of a run started with StartRun.
func (rdb *RecordDB) Sink(runID int64) *RunSink {
	return &RunSink{db: rdb, runID: runID}
}

// RunID returns the bound run.
func (s *RunSink) RunID() int64 {
	return s.runID
}

// Emit upserts the record.
func (s *RunSink) Emit(ctx context.Context, record model.Nonprofit) error {
	return s.db.UpsertNonprofit(ctx, s.runID, record)
}

// RecordPage stores one dequeued target of the run.
func (s *RunSink) RecordPage(ctx context.Context, target model.Target, page *model.Page, kind model.PageKind, fetchErr error) error {
	return s.db.RecordPage(ctx, s.runID, target, page, kind, fetchErr)
}

// Close is a no-op; the RecordDB outlives its runs.
func (s *RunSink) Close() error {
	return nil
}
