package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/npocrawl/internal/model"
)

// pageKinds is the display order of page kinds.
var pageKinds = []model.PageKind{
	model.KindCountry,
	model.KindCity,
	model.KindNonprofit,
	model.KindUnknown,
}

// SimpleWriter outputs plain-text run summaries for terminal display.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether zero counters and empty sections are shown.
	showEmpty bool

	// verbose adds the per-city record breakdown.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables the per-city breakdown.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs one block per run.
func (w *SimpleWriter) Write(runs ...*model.RunStats) (int, error) {
	var sb strings.Builder

	for _, run := range runs {
		w.writeHeader(&sb, run)
		w.writeCounters(&sb, run)
		w.writePages(&sb, run)
		if w.verbose {
			w.writeCities(&sb, run)
		}
	}
	w.writeFooter(&sb, runs)

	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, run *model.RunStats) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  CRAWL SUMMARY: %s\n", run.Country))
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Seed URL:  %s\n", run.SeedURL))
	sb.WriteString(fmt.Sprintf("Started:   %s\n", run.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Duration:  %s\n", run.Duration().Round(time.Millisecond)))
	sb.WriteString(fmt.Sprintf("Status:    %s\n", statusText(run)))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeCounters(sb *strings.Builder, run *model.RunStats) {
	writeSection(sb, "COUNTERS")

	counters := []struct {
		label string
		value int
	}{
		{"Pages fetched", run.PagesFetched},
		{"Fetch failures", run.FetchFailures},
		{"Unknown pages dropped", run.UnknownDropped},
		{"Duplicate targets", run.DuplicateTargets},
		{"Records emitted", run.RecordsEmitted},
		{"Records skipped", run.RecordsSkipped},
	}
	for _, c := range counters {
		if c.value == 0 && !w.showEmpty && c.label != "Records emitted" {
			continue
		}
		sb.WriteString(fmt.Sprintf("  %-24s %d\n", c.label+":", c.value))
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writePages(sb *strings.Builder, run *model.RunStats) {
	if len(run.PagesByKind) == 0 && !w.showEmpty {
		return
	}

	writeSection(sb, "PAGES BY KIND")
	for _, kind := range pageKinds {
		n := run.PagesByKind[kind.String()]
		if n == 0 && !w.showEmpty {
			continue
		}
		sb.WriteString(fmt.Sprintf("  %-24s %d\n", kind.String()+":", n))
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeCities(sb *strings.Builder, run *model.RunStats) {
	cities := run.Cities()
	if len(cities) == 0 && !w.showEmpty {
		return
	}

	writeSection(sb, "RECORDS BY CITY")
	if len(cities) == 0 {
		sb.WriteString("  No records\n\n")
		return
	}
	for _, city := range cities {
		sb.WriteString(fmt.Sprintf("  %-24s %d\n", cityLabel(city)+":", run.RecordsByCity[city]))
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder, runs []*model.RunStats) {
	total := 0
	for _, run := range runs {
		total += run.RecordsEmitted
	}

	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("%d record(s) from %d country run(s)\n", total, len(runs)))
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

func writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

func statusText(run *model.RunStats) string {
	if run.Truncated {
		return "TRUNCATED (partial results)"
	}
	return "Complete"
}

// cityLabel names the bucket of records without a city.
func cityLabel(city string) string {
	if city == "" {
		return "(no city)"
	}
	return city
}
