// Package testutil provides shared test helpers.
package testutil

import (
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// NewTestLogger creates a test logger that discards output.
// Use NewTestLoggerWithOutput to log through t.Log().
func NewTestLogger(t *testing.T) zerolog.Logger {
	t.Helper()
	return zerolog.New(io.Discard).With().Timestamp().Logger()
}

// NewTestLoggerWithOutput creates a test logger whose lines interleave with
// the test output via t.Log().
func NewTestLoggerWithOutput(t *testing.T) zerolog.Logger {
	t.Helper()
	return zerolog.New(testLogWriter{t: t}).With().Timestamp().Logger()
}

// testLogWriter adapts testing.T to io.Writer.
type testLogWriter struct {
	t *testing.T
}

func (w testLogWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}
