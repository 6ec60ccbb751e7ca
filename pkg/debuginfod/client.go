package debuginfod

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

const (
	// EnvServerURLs is the environment variable the retrieval engine reads
	// its space-separated server list from.
	EnvServerURLs = "DEBUGINFOD_URLS"

	// DefaultServerURL is the federating server run by the elfutils project.
	// It is installed into the process environment when EnvServerURLs is
	// empty at Open time, so queries work on an unconfigured system. Without
	// any server list the engine fails every lookup with -ENOSYS.
	DefaultServerURL = "https://debuginfod.elfutils.org/"
)

// ProgressFunc observes an in-flight transfer. The engine invokes it zero or
// more times while a Find call blocks, passing the bytes transferred so far
// and the expected total; bytesTotal stays 0 until the download size is
// known. A non-zero return aborts the transfer, which then surfaces as a
// failed Result. This is the only way to interrupt a blocking query.
type ProgressFunc func(bytesDone, bytesTotal int64) int

// Config contains client configuration options.
type Config struct {
	// ServerURLs is the server list installed into EnvServerURLs when this
	// client opens. Leaving it empty keeps whatever the environment already
	// carries, falling back to DefaultServerURL when that is empty too.
	ServerURLs []string

	// LibraryPath loads the engine from an explicit shared-object path
	// instead of searching the standard sonames.
	LibraryPath string

	// Logger is the logger instance (optional, defaults to zerolog.Nop()).
	Logger zerolog.Logger
}

// Client owns one session of the native retrieval engine and exposes the
// artifact lookups against it. Obtain one with New, or run a scoped session
// with With.
//
// A Client is a single mutable resource with no internal locking: calls on
// one Client must be serialized by the caller. Distinct Clients are
// independent and may be used concurrently.
type Client struct {
	logger zerolog.Logger
	eng    engine
	urls   []string

	// session is the opaque engine reference; zero means closed.
	session uintptr

	// progressFn keeps the last-registered callback reachable while the
	// engine may still invoke it during a query. See SetProgressFn.
	progressFn ProgressFunc
}

// New loads the retrieval engine, creates a Client and opens its session.
// It returns ErrUnavailable (wrapped) when the engine library cannot be
// loaded and *ResourceError when session creation fails.
func New(cfg Config) (*Client, error) {
	eng, err := loadEngine(cfg.LibraryPath, loggerFor(cfg))
	if err != nil {
		return nil, err
	}
	return newClient(cfg, eng)
}

// With runs fn against a freshly opened Client and releases it on every
// exit path, including panics.
func With(cfg Config, fn func(*Client) error) error {
	c, err := New(cfg)
	if err != nil {
		return err
	}
	return c.scoped(fn)
}

// newClient wraps an already-loaded engine. Tests inject a fake here.
func newClient(cfg Config, eng engine) (*Client, error) {
	c := &Client{
		logger: loggerFor(cfg),
		eng:    eng,
		urls:   cfg.ServerURLs,
	}
	if err := c.Open(); err != nil {
		return nil, err
	}
	return c, nil
}

func loggerFor(cfg Config) zerolog.Logger {
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}
	return logger.With().Str("component", "debuginfod").Logger()
}

func (c *Client) scoped(fn func(*Client) error) error {
	defer func() { _ = c.Close() }()
	return fn(c)
}

// Open creates the engine session. It is a no-op on an already-open Client,
// so a Client closed earlier can be reused. Before the session is created
// the server list is installed into the environment (see Config.ServerURLs
// and DefaultServerURL); the variable is process-wide and stays set for the
// rest of the process lifetime.
func (c *Client) Open() error {
	if c.session != 0 {
		return nil
	}
	c.installServerURLs()

	session, errno := c.eng.begin()
	if session == 0 {
		return &ResourceError{Errno: errno}
	}
	c.session = session
	// Release a leaked session when the Client is collected. Close disarms
	// this, keeping set/clear pairs balanced across reopen cycles.
	runtime.SetFinalizer(c, (*Client).finalize)
	c.logger.Debug().Str("urls", os.Getenv(EnvServerURLs)).Msg("engine session created")
	return nil
}

// Close releases the engine session. It is idempotent: closing a closed or
// never-opened Client is a no-op. The error return satisfies io.Closer and
// is always nil.
func (c *Client) Close() error {
	if c.session == 0 {
		return nil
	}
	c.eng.end(c.session)
	c.session = 0
	runtime.SetFinalizer(c, nil)
	c.logger.Debug().Msg("engine session released")
	return nil
}

func (c *Client) finalize() {
	_ = c.Close()
}

// installServerURLs makes sure the engine sees a server list when the
// session opens. Configured URLs win; otherwise an empty environment gets
// the federating default.
func (c *Client) installServerURLs() {
	if len(c.urls) > 0 {
		_ = os.Setenv(EnvServerURLs, strings.Join(c.urls, " "))
		return
	}
	if os.Getenv(EnvServerURLs) == "" {
		_ = os.Setenv(EnvServerURLs, DefaultServerURL)
	}
}

// FindDebuginfo retrieves the debug-info file for a build id. The returned
// error is non-nil only for usage errors such as ErrNotOpen; a lookup the
// servers cannot satisfy is reported through the Result itself.
func (c *Client) FindDebuginfo(id BuildID) (Result, error) {
	if c.session == 0 {
		return Result{}, ErrNotOpen
	}
	buf, tag := canonicalize(id)
	fd, path := c.eng.findDebuginfo(c.session, buf, tag)
	c.logQuery("debuginfo", fd, path)
	return Result{Fd: fd, Path: path}, nil
}

// FindExecutable retrieves the original executable for a build id.
func (c *Client) FindExecutable(id BuildID) (Result, error) {
	if c.session == 0 {
		return Result{}, ErrNotOpen
	}
	buf, tag := canonicalize(id)
	fd, path := c.eng.findExecutable(c.session, buf, tag)
	c.logQuery("executable", fd, path)
	return Result{Fd: fd, Path: path}, nil
}

// FindSource retrieves one source file of the binary behind a build id.
// sourcePath must be the absolute path of the file as recorded in the
// binary's debug information; it is forwarded verbatim, so a path the
// metadata does not know fails the lookup rather than erroring locally.
func (c *Client) FindSource(id BuildID, sourcePath string) (Result, error) {
	if c.session == 0 {
		return Result{}, ErrNotOpen
	}
	buf, tag := canonicalize(id)
	fd, path := c.eng.findSource(c.session, buf, tag, terminate([]byte(sourcePath)))
	c.logQuery("source", fd, path)
	return Result{Fd: fd, Path: path}, nil
}

func (c *Client) logQuery(kind string, fd int, path string) {
	if fd < 0 {
		c.logger.Debug().Str("kind", kind).Int("code", fd).Msg("artifact lookup failed")
		return
	}
	c.logger.Debug().Str("kind", kind).Int("fd", fd).Str("path", path).Msg("artifact retrieved")
}

// SetProgressFn registers fn to observe transfers on this session; a nil fn
// unregisters. The Client retains the last-registered callback so the engine
// can safely invoke it for as long as the session lives. The registration
// itself dies with the session: after Close and a later Open the caller must
// register again.
func (c *Client) SetProgressFn(fn ProgressFunc) error {
	if c.session == 0 {
		return ErrNotOpen
	}
	c.progressFn = fn
	c.eng.setProgressFn(c.session, fn)
	return nil
}

// Supports reports whether the loaded engine build exports the optional
// entry point behind capability. The probe is computed once at load time, so
// the answer is stable for the life of the process.
func (c *Client) Supports(capability Capability) bool {
	return c.eng.supports(capability)
}

// SetVerboseFd redirects the engine's diagnostic output to an open file
// descriptor. Engine builds without this entry point fail with
// *CapabilityError.
func (c *Client) SetVerboseFd(fd int) error {
	if !c.eng.supports(CapVerboseFd) {
		return &CapabilityError{Capability: CapVerboseFd}
	}
	if c.session == 0 {
		return ErrNotOpen
	}
	c.eng.setVerboseFd(c.session, fd)
	return nil
}

// URL reports the URL of the most recent successful transfer on this
// session. It returns ("", nil) while no transfer has completed yet and
// *CapabilityError on engine builds without this entry point.
func (c *Client) URL() (string, error) {
	if !c.eng.supports(CapURL) {
		return "", &CapabilityError{Capability: CapURL}
	}
	if c.session == 0 {
		return "", ErrNotOpen
	}
	url, ok := c.eng.url(c.session)
	if !ok {
		return "", nil
	}
	return url, nil
}

// AddHTTPHeader attaches a custom "Name: value" header to all subsequent
// outgoing requests of this session. The engine rejects malformed headers
// (no separator), which surfaces here as an error wrapping the negated
// error code; engine builds without this entry point fail with
// *CapabilityError.
func (c *Client) AddHTTPHeader(header string) error {
	if !c.eng.supports(CapHTTPHeader) {
		return &CapabilityError{Capability: CapHTTPHeader}
	}
	if c.session == 0 {
		return ErrNotOpen
	}
	if rc := c.eng.addHTTPHeader(c.session, terminate([]byte(header))); rc < 0 {
		return fmt.Errorf("debuginfod: add http header %q: %w", header, unix.Errno(-rc))
	}
	return nil
}

// SetUserData is not implemented and always returns ErrNotImplemented. No
// engine call is attempted, regardless of handle state.
func (c *Client) SetUserData(any) error {
	return ErrNotImplemented
}

// UserData is not implemented and always returns ErrNotImplemented. No
// engine call is attempted, regardless of handle state.
func (c *Client) UserData() (any, error) {
	return nil, ErrNotImplemented
}
