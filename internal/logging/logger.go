// Package logging builds the CLI's diagnostic logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config contains logger configuration.
type Config struct {
	// Verbosity counts -v flags: 0 shows warnings and errors, 1 adds info,
	// 2 and above add debug.
	Verbosity int
	// Output sets the output writer (defaults to os.Stderr, keeping stdout
	// reserved for pipeable results).
	Output io.Writer
}

// New creates a zerolog console logger for the given configuration.
func New(cfg Config) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	level := zerolog.WarnLevel
	switch {
	case cfg.Verbosity >= 2:
		level = zerolog.DebugLevel
	case cfg.Verbosity == 1:
		level = zerolog.InfoLevel
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	console := zerolog.ConsoleWriter{
		Out:        output,
		TimeFormat: "15:04:05",
	}

	return zerolog.New(console).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// NewWithComponent creates a logger with a component field for structured logging.
func NewWithComponent(cfg Config, component string) zerolog.Logger {
	return New(cfg).With().Str("component", component).Logger()
}
