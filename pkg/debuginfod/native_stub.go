//go:build !linux

package debuginfod

import (
	"fmt"

	"github.com/rs/zerolog"
)

// loadEngine always fails: libdebuginfod and the dlopen binding behind this
// package are Linux-only.
func loadEngine(libraryPath string, logger zerolog.Logger) (engine, error) {
	return nil, fmt.Errorf("%w: libdebuginfod requires linux", ErrUnavailable)
}
