package debuginfod

import "golang.org/x/sys/unix"

// engine is the call surface of the native retrieval engine. It mirrors the
// libdebuginfod entry points one-to-one so the Client above it can stay a
// pure lifecycle-and-contract layer.
//
// Exactly one production implementation exists (the dlopen-based binding in
// native_linux.go); tests substitute an in-process fake. Sessions are opaque
// non-zero references vended by begin and owned by the caller until passed
// to end.
type engine interface {
	// begin creates a session. A zero session reference signals failure and
	// errno carries the platform error code observed at the call site.
	begin() (session uintptr, errno unix.Errno)

	// end releases a session. Passing a session twice is a caller bug; the
	// Client guards against it.
	end(session uintptr)

	// findDebuginfo, findExecutable and findSource run one blocking lookup
	// each. buildID is the canonical NUL-terminated buffer and lengthTag the
	// matching length tag from canonicalize; sourcePath is a NUL-terminated
	// absolute path for findSource. The int result is an open descriptor
	// when non-negative and a negated POSIX error code otherwise; path is
	// non-empty exactly when the result is non-negative, and any
	// engine-allocated output buffer has already been reclaimed by the time
	// these return.
	findDebuginfo(session uintptr, buildID []byte, lengthTag int) (int, string)
	findExecutable(session uintptr, buildID []byte, lengthTag int) (int, string)
	findSource(session uintptr, buildID []byte, lengthTag int, sourcePath []byte) (int, string)

	// setProgressFn registers fn to observe transfers on this session; a nil
	// fn unregisters. The implementation keeps fn reachable until the
	// session ends.
	setProgressFn(session uintptr, fn ProgressFunc)

	// supports reports whether the loaded engine build exports the optional
	// entry point behind c. Computed once at load time.
	supports(c Capability) bool

	// setVerboseFd forwards a descriptor for engine diagnostics. Only valid
	// when supports(CapVerboseFd).
	setVerboseFd(session uintptr, fd int)

	// url reports the URL of the most recent successful transfer; ok is
	// false while none is known. Only valid when supports(CapURL).
	url(session uintptr) (string, bool)

	// addHTTPHeader attaches a NUL-terminated "Name: value" header to all
	// subsequent requests, returning 0 or a negated POSIX error code. Only
	// valid when supports(CapHTTPHeader).
	addHTTPHeader(session uintptr, header []byte) int
}
