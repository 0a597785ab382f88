package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/nao1215/npocrawl/internal/model"
)

// OutputFileName returns the per-country output file name,
// "output-<country>.<ext>". Path separators in the country are replaced so
// the file always lands in the output directory.
func OutputFileName(country, ext string) string {
	safe := strings.NewReplacer("/", "_", `\`, "_").Replace(country)
	return "output-" + safe + "." + ext
}

// CSVSink writes records as CSV with a header row. Each record is flushed
// as soon as it is emitted, so an aborted crawl keeps everything emitted
// so far.
type CSVSink struct {
	mu     sync.Mutex
	w      *csv.Writer
	closer io.Closer
	header bool
}

// NewCSVSink creates a CSVSink writing to w. The header is written with the
// first record, or on Close when no record was emitted.
func NewCSVSink(w io.Writer) *CSVSink {
	s := &CSVSink{w: csv.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// CreateCSVSink creates dir/output-<country>.csv, truncating an existing
// file, and returns a sink writing to it.
func CreateCSVSink(dir, country string) (*CSVSink, string, error) {
	path := filepath.Join(dir, OutputFileName(country, "csv"))
	f, err := createOutputFile(path)
	if err != nil {
		return nil, "", err
	}
	return NewCSVSink(f), path, nil
}

// Emit writes one row.
func (s *CSVSink) Emit(_ context.Context, record model.Nonprofit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeHeader(); err != nil {
		return err
	}
	if err := s.w.Write(record.CSVRow()); err != nil {
		return fmt.Errorf("failed to write CSV row: %w", err)
	}
	s.w.Flush()
	return s.w.Error()
}

// Close writes the header if nothing was written yet, flushes and closes
// the underlying file.
func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.writeHeader()
	s.w.Flush()
	if err == nil {
		err = s.w.Error()
	}
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (s *CSVSink) writeHeader() error {
	if s.header {
		return nil
	}
	s.header = true
	if err := s.w.Write(model.CSVHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	return nil
}

func createOutputFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path) //nolint:gosec // path is built from the output dir and country
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}
