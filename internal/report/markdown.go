package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/dohadev/visaingest/internal/database"
	"github.com/dohadev/visaingest/internal/pipeline"
)

// MarkdownWriter outputs summaries in Markdown format.
// This format is designed for documentation and sharing, e.g. pasting a
// run summary into an issue tracker.
//
// Design decision: We use the nao1215/markdown library for fluent
// markdown generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// WriteSummary outputs the run summary in Markdown format.
func (w *MarkdownWriter) WriteSummary(summary *pipeline.Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Ingestion Run Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"URLs seen", strconv.Itoa(summary.URLsSeen)},
			{"Pages crawled", strconv.Itoa(summary.PagesCrawled)},
			{"Pages loaded", strconv.Itoa(summary.PagesLoaded)},
			{"New", strconv.Itoa(summary.New)},
			{"Updated", strconv.Itoa(summary.Updated)},
			{"Unchanged", strconv.Itoa(summary.Unchanged)},
			{"Skipped", strconv.Itoa(summary.Skipped)},
			{"Errors", strconv.Itoa(summary.Errors)},
			{"Elapsed", summary.Elapsed.Round(timeRounding).String()},
		},
	})
	md.PlainText("")

	w.writeAlert(md, summary)

	if len(summary.ErrorDetails) > 0 {
		md.H2("Errors")
		md.PlainText("")
		md.BulletList(summary.ErrorDetails...)
		md.PlainText("")
	}

	return len(md.String()), md.Build()
}

// writeAlert writes an alert reflecting the run outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary *pipeline.Summary) {
	switch {
	case summary.Errors > 0:
		md.Warningf("%d page(s) failed permanently during this run.", summary.Errors)
	case summary.Updated > 0:
		md.Importantf("%d page(s) changed since the previous run.", summary.Updated)
	case summary.New > 0:
		md.Note(fmt.Sprintf("%d new page(s) stored.", summary.New))
	default:
		md.Tip("No content changes detected.")
	}
	md.PlainText("")
}

// WriteStats outputs store statistics in Markdown format.
func (w *MarkdownWriter) WriteStats(stats *database.Stats) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Store Statistics")
	md.PlainText("")

	rows := [][]string{
		{"Sources", strconv.Itoa(stats.Sources)},
		{"Pages", strconv.Itoa(stats.Pages)},
		{"Visa types", strconv.Itoa(stats.VisaTypes)},
		{"Changes", strconv.Itoa(stats.Changes)},
	}
	if !stats.LastFetchedAt.IsZero() {
		rows = append(rows, []string{"Last fetch", stats.LastFetchedAt.Format("2006-01-02 15:04:05 MST")})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Entity", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	return len(md.String()), md.Build()
}
