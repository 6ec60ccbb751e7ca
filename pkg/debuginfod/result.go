package debuginfod

import (
	"golang.org/x/sys/unix"
)

// Result is the outcome of a single artifact lookup.
//
// A failed lookup is an expected, common outcome (the servers simply may not
// know the build id), so it is reported as a value rather than an error:
// check Found, or compare Fd against zero, before using the descriptor.
type Result struct {
	// Fd is the engine's raw return value. When non-negative it is an open,
	// readable file descriptor for the retrieved artifact; when negative it
	// is a negated POSIX error code (for example -ENOSYS when no server list
	// is configured, -ENOENT when no server recognizes the build id).
	Fd int

	// Path is the absolute path of the artifact in the engine's local
	// cache. It is non-empty exactly when Fd is non-negative.
	Path string
}

// Found reports whether the lookup produced an artifact.
func (r Result) Found() bool { return r.Fd >= 0 }

// Errno returns the failure as a platform error code, or zero when the
// lookup succeeded.
func (r Result) Errno() unix.Errno {
	if r.Fd >= 0 {
		return 0
	}
	return unix.Errno(-r.Fd)
}

// Err returns the failure as an error, or nil when the lookup succeeded.
// The error is the unix.Errno itself, so it renders through the platform's
// standard error strings and matches errors.Is(err, unix.ENOENT) style
// comparisons.
func (r Result) Err() error {
	if r.Fd >= 0 {
		return nil
	}
	return r.Errno()
}

// Close releases the artifact's file descriptor. It is a no-op on a failed
// result and must be called at most once on a successful one.
func (r Result) Close() error {
	if r.Fd < 0 {
		return nil
	}
	return unix.Close(r.Fd)
}
