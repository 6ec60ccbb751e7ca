package debuginfod

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"golang.org/x/sys/unix"
)

// fakeEngine is an in-process stand-in for the native retrieval engine. It
// vends real file descriptors backed by files under a test temp dir, so
// Result behaves exactly as it does against libdebuginfod, and it folds
// both build-id wire forms into the same lowercase hex key the way a server
// does. Like the real engine it fails every lookup with -ENOSYS while no
// server list is configured.
type fakeEngine struct {
	dir string

	mu          sync.Mutex
	nextSession uintptr
	live        map[uintptr]bool
	beginErrno  unix.Errno
	artifacts   map[string][]byte
	caps        capabilitySet
	progress    map[uintptr]ProgressFunc
	headers     []string
	verboseFd   int
	lastURL     string

	begins int
	ends   int
}

func newFakeEngine(t *testing.T) *fakeEngine {
	t.Helper()
	return &fakeEngine{
		dir:       t.TempDir(),
		live:      make(map[uintptr]bool),
		artifacts: make(map[string][]byte),
		progress:  make(map[uintptr]ProgressFunc),
		verboseFd: -1,
	}
}

// put registers a debuginfo or executable artifact under a lowercase hex
// build id.
func (f *fakeEngine) put(kind, hexID string, content []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.artifacts[artifactKey(kind, hexID, "")] = content
}

// putSource registers a source artifact under a build id and the absolute
// path recorded in its debug metadata.
func (f *fakeEngine) putSource(hexID, sourcePath string, content []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.artifacts[artifactKey("source", hexID, sourcePath)] = content
}

func artifactKey(kind, hexID, extra string) string {
	return kind + "\x00" + hexID + "\x00" + extra
}

// decodeBuildID folds canonicalize's two wire forms into the lowercase hex
// rendering: a zero tag means the buffer (minus its NUL terminator) is hex
// text already, a non-zero tag counts raw bytes.
func decodeBuildID(buildID []byte, lengthTag int) string {
	if lengthTag == 0 {
		return strings.ToLower(string(buildID[:len(buildID)-1]))
	}
	return hex.EncodeToString(buildID[:lengthTag])
}

func (f *fakeEngine) begin() (uintptr, unix.Errno) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.beginErrno != 0 {
		return 0, f.beginErrno
	}
	f.begins++
	f.nextSession++
	f.live[f.nextSession] = true
	return f.nextSession, 0
}

func (f *fakeEngine) end(session uintptr) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ends++
	delete(f.live, session)
	delete(f.progress, session)
}

func (f *fakeEngine) findDebuginfo(session uintptr, buildID []byte, lengthTag int) (int, string) {
	return f.find("debuginfo", session, buildID, lengthTag, "")
}

func (f *fakeEngine) findExecutable(session uintptr, buildID []byte, lengthTag int) (int, string) {
	return f.find("executable", session, buildID, lengthTag, "")
}

func (f *fakeEngine) findSource(session uintptr, buildID []byte, lengthTag int, sourcePath []byte) (int, string) {
	return f.find("source", session, buildID, lengthTag, string(sourcePath[:len(sourcePath)-1]))
}

func (f *fakeEngine) find(kind string, session uintptr, buildID []byte, lengthTag int, extra string) (int, string) {
	if os.Getenv(EnvServerURLs) == "" {
		return -int(unix.ENOSYS), ""
	}
	key := decodeBuildID(buildID, lengthTag)

	f.mu.Lock()
	alive := f.live[session]
	content, ok := f.artifacts[artifactKey(kind, key, extra)]
	fn := f.progress[session]
	f.mu.Unlock()

	if !alive {
		return -int(unix.EBADF), ""
	}
	if !ok {
		return -int(unix.ENOENT), ""
	}
	if fn != nil {
		total := int64(len(content))
		if fn(total/2, total) != 0 || fn(total, total) != 0 {
			return -int(unix.EINTR), ""
		}
	}

	name := kind
	if kind == "source" {
		// The real cache stores source files with slashes escaped.
		name = "source" + strings.ReplaceAll(extra, "/", "#")
	}
	dir := filepath.Join(f.dir, key)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return -int(unix.EIO), ""
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return -int(unix.EIO), ""
	}
	fd, err := unix.Open(path, unix.O_RDONLY, 0)
	if err != nil {
		return -int(unix.EIO), ""
	}

	f.mu.Lock()
	f.lastURL = "https://debuginfod.example.org/buildid/" + key + "/" + kind
	f.mu.Unlock()
	return fd, path
}

func (f *fakeEngine) setProgressFn(session uintptr, fn ProgressFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if fn == nil {
		delete(f.progress, session)
		return
	}
	f.progress[session] = fn
}

func (f *fakeEngine) supports(c Capability) bool {
	return f.caps.has(c)
}

func (f *fakeEngine) setVerboseFd(session uintptr, fd int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verboseFd = fd
}

func (f *fakeEngine) url(session uintptr) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastURL, f.lastURL != ""
}

func (f *fakeEngine) addHTTPHeader(session uintptr, header []byte) int {
	h := string(header[:len(header)-1])
	if !strings.Contains(h, ":") {
		return -int(unix.EINVAL)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.headers = append(f.headers, h)
	return 0
}

func (f *fakeEngine) registeredProgressFns() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.progress)
}
