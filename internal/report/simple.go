package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dohadev/visaingest/internal/database"
	"github.com/dohadev/visaingest/internal/pipeline"
)

// SimpleWriter outputs human-readable text summaries.
//
// Design decision: Plain text with ASCII formatting rather than ANSI
// colors because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
type SimpleWriter struct {
	baseWriter

	// verbose includes per-error detail lines in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables per-error detail lines.
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

// WriteSummary outputs the run summary in human-readable format.
func (w *SimpleWriter) WriteSummary(summary *pipeline.Summary) (int, error) {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n")
	sb.WriteString("                 INGESTION RUN SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  URLs seen:      %d\n", summary.URLsSeen))
	sb.WriteString(fmt.Sprintf("  Pages crawled:  %d\n", summary.PagesCrawled))
	sb.WriteString(fmt.Sprintf("  Pages loaded:   %d\n", summary.PagesLoaded))
	sb.WriteString(fmt.Sprintf("    new:          %d\n", summary.New))
	sb.WriteString(fmt.Sprintf("    updated:      %d\n", summary.Updated))
	sb.WriteString(fmt.Sprintf("    unchanged:    %d\n", summary.Unchanged))
	sb.WriteString(fmt.Sprintf("  Skipped:        %d\n", summary.Skipped))
	sb.WriteString(fmt.Sprintf("  Errors:         %d\n", summary.Errors))
	sb.WriteString(fmt.Sprintf("  Elapsed:        %s\n", summary.Elapsed.Round(timeRounding)))
	sb.WriteString("\n")

	if w.verbose && len(summary.ErrorDetails) > 0 {
		sb.WriteString(strings.Repeat("-", 60))
		sb.WriteString("\nERRORS\n")
		sb.WriteString(strings.Repeat("-", 60))
		sb.WriteString("\n\n")
		for _, detail := range summary.ErrorDetails {
			sb.WriteString(fmt.Sprintf("  * %s\n", detail))
		}
		sb.WriteString("\n")
	}

	return w.output.Write([]byte(sb.String()))
}

// WriteStats outputs store statistics in human-readable format.
func (w *SimpleWriter) WriteStats(stats *database.Stats) (int, error) {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n")
	sb.WriteString("                    STORE STATISTICS\n")
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  Sources:     %d\n", stats.Sources))
	sb.WriteString(fmt.Sprintf("  Pages:       %d\n", stats.Pages))
	sb.WriteString(fmt.Sprintf("  Visa types:  %d\n", stats.VisaTypes))
	sb.WriteString(fmt.Sprintf("  Changes:     %d\n", stats.Changes))
	if !stats.LastFetchedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("  Last fetch:  %s\n", stats.LastFetchedAt.Format("2006-01-02 15:04:05 MST")))
	}
	sb.WriteString("\n")

	return w.output.Write([]byte(sb.String()))
}
