package logging

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newBufferLogger returns a logger that writes only to the buffer
func newBufferLogger(component string) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	log := NewLogger(component)
	log.outputs = []io.Writer{&buf}
	return log, &buf
}

func TestLevelFiltering(t *testing.T) {
	log, buf := newBufferLogger("test")

	log.Debug("hidden")
	log.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	buf.Reset()
	log.SetMinLevel(LogLevelDebug)
	log.Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")

	buf.Reset()
	log.SetMinLevel(LogLevelError)
	log.Warnf("suppressed %d", 42)
	assert.Empty(t, buf.String())
}

func TestFormatIncludesComponentAndLevel(t *testing.T) {
	log, buf := newBufferLogger("vision")

	log.Warn("low contrast frame")

	line := buf.String()
	assert.Contains(t, line, "WARN")
	assert.Contains(t, line, "[vision]")
	assert.Contains(t, line, "low contrast frame")
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestErrorAppendsCause(t *testing.T) {
	log, buf := newBufferLogger("test")

	log.Error("capture failed", errors.New("no display"))
	assert.Contains(t, buf.String(), "error=no display")
}

func TestWithFieldsSortedOutput(t *testing.T) {
	log, buf := newBufferLogger("test")

	log.WithFields(LogLevelInfo, "cycle done", map[string]interface{}{
		"windows": 2,
		"clicks":  1,
	})

	line := buf.String()
	clicksAt := strings.Index(line, "clicks=1")
	windowsAt := strings.Index(line, "windows=2")
	require.Positive(t, clicksAt)
	require.Positive(t, windowsAt)
	assert.Less(t, clicksAt, windowsAt, "fields print in key order")
}

func TestNamedInheritsSinksAndLevel(t *testing.T) {
	log, buf := newBufferLogger("parent")
	log.SetMinLevel(LogLevelWarn)

	child := log.Named("child")
	child.Info("filtered")
	child.Warn("passed")

	assert.NotContains(t, buf.String(), "filtered")
	assert.Contains(t, buf.String(), "[child] passed")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLevel("debug"))
	assert.Equal(t, LogLevelWarn, ParseLevel("WARNING"))
	assert.Equal(t, LogLevelError, ParseLevel(" error "))
	assert.Equal(t, LogLevelInfo, ParseLevel("nonsense"))
	assert.Equal(t, LogLevelInfo, ParseLevel(""))
}

func TestTextFormatterTimestamp(t *testing.T) {
	f := &TextFormatter{}
	e := &Entry{
		Timestamp: time.Date(2025, 6, 1, 12, 30, 45, 123_000_000, time.UTC),
		Level:     LogLevelInfo,
		Component: "engine",
		Message:   "started",
	}
	assert.Equal(t, "2025-06-01 12:30:45.123 INFO  [engine] started\n", f.Format(e))
}
