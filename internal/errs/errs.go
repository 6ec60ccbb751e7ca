// Package errs provides error-handling helpers shared by the CLI.
package errs

import (
	"io"

	"github.com/rs/zerolog"
)

// DeferClose closes an io.Closer and logs a close failure instead of
// suppressing it. Use in defer statements.
func DeferClose(logger zerolog.Logger, closer io.Closer, msg string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logger.Warn().Err(err).Msg(msg)
	}
}
