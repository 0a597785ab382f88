// Package report provides record sinks and run summary writers.
//
// Record sinks receive every nonprofit record a crawl emits:
//   - CSVSink: delimited text, one file per country (output-<Country>.csv)
//   - JSONLSink: JSON Lines, one file per country (output-<Country>.jsonl)
//   - MultiSink: fans out to several sinks
//
// Summary writers render the statistics of finished runs:
//   - SimpleWriter: plain text for terminal display
//   - MarkdownWriter: Markdown tables built with nao1215/markdown
//   - JSONWriter: structured JSON for tool integration
//
// Sinks implement RecordSink and writers implement Writer, so either can be
// composed with MultiSink or MultiWriter.
package report
