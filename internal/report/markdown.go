package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/npocrawl/internal/model"
)

// MarkdownWriter outputs run summaries in Markdown format, for sharing or
// committing next to the CSV output.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs an overview table followed by one section per run.
func (w *MarkdownWriter) Write(runs ...*model.RunStats) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Crawl Summary")
	md.PlainText("")

	w.writeOverview(md, runs)
	for _, run := range runs {
		w.writeRun(md, run)
	}

	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeOverview(md *markdown.Markdown, runs []*model.RunStats) {
	if len(runs) == 0 {
		md.Note("No crawl runs.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(runs)+1)
	total := 0
	for _, run := range runs {
		total += run.RecordsEmitted
		rows = append(rows, []string{
			run.Country,
			strconv.Itoa(run.PagesFetched),
			strconv.Itoa(run.RecordsEmitted),
			w.getStatusText(run),
		})
	}
	rows = append(rows, []string{"**Total**", "", "**" + strconv.Itoa(total) + "**", ""})

	md.Table(markdown.TableSet{
		Header: []string{"Country", "Pages", "Records", "Status"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeRun(md *markdown.Markdown, run *model.RunStats) {
	md.H2(run.Country)
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Seed URL", "`" + run.SeedURL + "`"},
			{"Started", run.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", run.Duration().Round(time.Millisecond).String()},
			{"Pages fetched", strconv.Itoa(run.PagesFetched)},
			{"Fetch failures", strconv.Itoa(run.FetchFailures)},
			{"Unknown pages dropped", strconv.Itoa(run.UnknownDropped)},
			{"Duplicate targets", strconv.Itoa(run.DuplicateTargets)},
			{"Records emitted", strconv.Itoa(run.RecordsEmitted)},
			{"Records skipped", strconv.Itoa(run.RecordsSkipped)},
		},
	})
	md.PlainText("")

	w.writeAlert(md, run)
	w.writePieChart(md, run)
	w.writeCities(md, run)
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, run *model.RunStats) {
	switch {
	case run.Truncated:
		md.Warningf("The crawl of %s stopped early; the output is partial.", run.Country)
	case run.FetchFailures > 0:
		md.Importantf("%d page(s) could not be fetched.", run.FetchFailures)
	case run.RecordsSkipped > 0:
		md.Notef("%d detail page(s) lacked a name or description and were skipped.", run.RecordsSkipped)
	default:
		md.Tip("The crawl completed without failures.")
	}
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of the fetched pages by kind.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, run *model.RunStats) {
	if run.PagesFetched == 0 {
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Pages by kind"),
		piechart.WithShowData(true),
	)
	for _, kind := range pageKinds {
		if n := run.PagesByKind[kind.String()]; n > 0 {
			chart.LabelAndIntValue(kind.String(), uint64(n))
		}
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeCities(md *markdown.Markdown, run *model.RunStats) {
	cities := run.Cities()
	if len(cities) == 0 {
		return
	}

	md.H3("Records by city")
	md.PlainText("")

	rows := make([][]string, len(cities))
	for i, city := range cities {
		rows[i] = []string{cityLabel(city), strconv.Itoa(run.RecordsByCity[city])}
	}
	md.Table(markdown.TableSet{
		Header: []string{"City", "Records"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) getStatusText(run *model.RunStats) string {
	if run.Truncated {
		return "⚠️ Truncated"
	}
	return "✅ Complete"
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Generated by [npocrawl](https://github.com/nao1215/npocrawl)*")
}
