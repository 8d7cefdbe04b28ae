package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestTruncatingHandlerCapsLongStrings(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewLogger(&buf, false)

	long := strings.Repeat("x", MaxAttrLen+100)
	logger.Info("fetched page", "body", long)

	out := buf.String()
	if !strings.Contains(out, "(truncated)") {
		t.Error("expected truncation marker in output")
	}
	if strings.Contains(out, long) {
		t.Error("full oversized value should not appear in output")
	}
}

func TestTruncatingHandlerKeepsShortStrings(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewLogger(&buf, false)

	logger.Info("fetched page", "url", "https://example.gov/visa")

	out := buf.String()
	if !strings.Contains(out, "https://example.gov/visa") {
		t.Errorf("short value should pass through unchanged, got %q", out)
	}
	if strings.Contains(out, "(truncated)") {
		t.Error("short value should not be truncated")
	}
}

func TestTruncatingHandlerWithAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewLogger(&buf, false).With("page", strings.Repeat("y", MaxAttrLen*2))

	logger.Info("processing")

	if !strings.Contains(buf.String(), "(truncated)") {
		t.Error("attributes added via With should be capped too")
	}
}

func TestVerboseEnablesDebug(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewLogger(&buf, true)
	logger.Debug("details")
	if !strings.Contains(buf.String(), "details") {
		t.Error("verbose logger should emit debug records")
	}

	buf.Reset()
	quiet := NewLogger(&buf, false)
	quiet.Debug("details")
	if buf.Len() != 0 {
		t.Error("non-verbose logger should drop debug records")
	}
}

func TestJSONLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, false)
	logger.Info("hello", "k", "v")

	out := buf.String()
	if !strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Errorf("expected JSON output, got %q", out)
	}
	if !strings.Contains(out, `"k":"v"`) {
		t.Errorf("expected attribute in JSON output, got %q", out)
	}
}

func TestTruncatingHandlerGroups(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewLogger(&buf, false)

	logger.Info("grouped",
		slog.Group("page",
			slog.String("text", strings.Repeat("z", MaxAttrLen+1)),
		),
	)

	if !strings.Contains(buf.String(), "(truncated)") {
		t.Error("grouped string attributes should be capped")
	}
}
