package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/nao1215/npocrawl/internal/model"
)

// JSONLSink writes one JSON object per record and line.
type JSONLSink struct {
	mu     sync.Mutex
	enc    *json.Encoder
	closer io.Closer
}

// NewJSONLSink creates a JSONLSink writing to w.
func NewJSONLSink(w io.Writer) *JSONLSink {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	s := &JSONLSink{enc: enc}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// CreateJSONLSink creates dir/output-<country>.jsonl, truncating an
// existing file, and returns a sink writing to it.
func CreateJSONLSink(dir, country string) (*JSONLSink, string, error) {
	path := filepath.Join(dir, OutputFileName(country, "jsonl"))
	f, err := createOutputFile(path)
	if err != nil {
		return nil, "", err
	}
	return NewJSONLSink(f), path, nil
}

// Emit writes one line.
func (s *JSONLSink) Emit(_ context.Context, record model.Nonprofit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enc.Encode(record); err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	return nil
}

// Close closes the underlying file, if any.
func (s *JSONLSink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
