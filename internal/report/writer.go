package report

import (
	"io"
	"time"

	"github.com/dohadev/visaingest/internal/database"
	"github.com/dohadev/visaingest/internal/pipeline"
)

// timeRounding is the display precision for elapsed durations.
const timeRounding = 10 * time.Millisecond

// Writer defines the interface for run-summary output.
// Implementations render the same data in different formats.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files or stdout with the
// same API.
type Writer interface {
	// WriteSummary outputs an ingestion run summary.
	// Returns the number of bytes written and any error encountered.
	WriteSummary(summary *pipeline.Summary) (int, error)

	// WriteStats outputs store statistics.
	WriteStats(stats *database.Stats) (int, error)
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
