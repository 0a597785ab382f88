package report

import (
	"context"
	"errors"
	"io"

	"github.com/nao1215/npocrawl/internal/model"
)

// Writer renders run summaries.
type Writer interface {
	// Write outputs the summaries of the given runs.
	// Returns the number of bytes written and any error encountered.
	Write(runs ...*model.RunStats) (int, error)
}

// MultiWriter writes to multiple Writers in order.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the summaries to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(runs ...*model.RunStats) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(runs...)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// RecordSink receives emitted records, one call per record.
// Close flushes buffered output and releases the destination.
type RecordSink interface {
	Emit(ctx context.Context, record model.Nonprofit) error
	Close() error
}

// MultiSink emits every record to all of its sinks.
type MultiSink struct {
	sinks []RecordSink
}

// NewMultiSink creates a RecordSink that fans out to sinks.
func NewMultiSink(sinks ...RecordSink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Emit forwards the record to every sink and stops on the first error.
func (m *MultiSink) Emit(ctx context.Context, record model.Nonprofit) error {
	for _, s := range m.sinks {
		if err := s.Emit(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink and joins their errors.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
