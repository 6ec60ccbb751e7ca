package debuginfod

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

var (
	// ErrNotOpen reports an operation on a Client whose session is closed.
	// Open the client (or use With) before querying.
	ErrNotOpen = errors.New("debuginfod: client session is not open")

	// ErrNotImplemented reports an operation this binding deliberately does
	// not implement. The user-data accessors return it unconditionally.
	ErrNotImplemented = errors.New("debuginfod: not implemented")

	// ErrUnavailable reports that the engine's shared library could not be
	// located or loaded on this system.
	ErrUnavailable = errors.New("debuginfod: engine library unavailable")
)

// ResourceError reports that the engine failed to create a session. It
// carries the platform error code observed at the call site; the session may
// be retried later without discarding the Client.
type ResourceError struct {
	Errno unix.Errno
}

func (e *ResourceError) Error() string {
	if e.Errno == 0 {
		return "debuginfod: create session failed"
	}
	return fmt.Sprintf("debuginfod: create session: %s", e.Errno.Error())
}

// Unwrap exposes the platform error code for errors.Is/As chains.
func (e *ResourceError) Unwrap() error {
	if e.Errno == 0 {
		return nil
	}
	return e.Errno
}

// CapabilityError reports that the loaded engine build does not export the
// entry point behind an optional operation. It is distinct from an operation
// that is present but fails, so callers can degrade gracefully on older
// engine builds.
type CapabilityError struct {
	Capability Capability
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("debuginfod: engine build does not provide %s", e.Capability)
}
