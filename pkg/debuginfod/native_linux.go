//go:build linux

package debuginfod

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

// engineSonames are tried in order when Config.LibraryPath is empty. The
// versioned name is what distributions actually install; the bare name covers
// development trees with a linker symlink.
var engineSonames = []string{"libdebuginfod.so.1", "libdebuginfod.so"}

// nativeEngine drives libdebuginfod through dlopen/dlsym. All fields are
// resolved once in loadEngine and read-only afterwards, so the methods are
// safe for concurrent use on distinct sessions.
type nativeEngine struct {
	symBegin          uintptr
	symEnd            uintptr
	symFindDebuginfo  uintptr
	symFindExecutable uintptr
	symFindSource     uintptr
	symSetProgressfn  uintptr
	symFree           uintptr
	symErrnoLocation  uintptr

	symOptional [numCapabilities]uintptr
	caps        capabilitySet
}

// progressRegistry maps live sessions to their registered Go callbacks. The
// native layer only ever sees progressTrampoline; dispatch to the right Go
// function happens here, keyed by the session reference the engine hands back
// as the first callback argument.
var progressRegistry = struct {
	sync.RWMutex
	fns map[uintptr]ProgressFunc
}{fns: make(map[uintptr]ProgressFunc)}

// progressTrampoline is the single C-callable thunk shared by every session.
// Signature on the native side: int (*)(debuginfod_client *, long, long).
// A non-zero return tells the engine to abort the transfer in flight.
var progressTrampoline = purego.NewCallback(func(session, done, total uintptr) uintptr {
	progressRegistry.RLock()
	fn := progressRegistry.fns[session]
	progressRegistry.RUnlock()
	if fn == nil {
		return 0
	}
	return uintptr(int32(fn(int64(done), int64(total))))
})

// loadEngine opens the retrieval engine library and resolves its entry
// points. libraryPath overrides the soname search when non-empty. Optional
// entry points that the loaded build does not export are recorded as absent
// rather than failing the load.
func loadEngine(libraryPath string, logger zerolog.Logger) (engine, error) {
	candidates := engineSonames
	if libraryPath != "" {
		candidates = []string{libraryPath}
	}

	var (
		handle  uintptr
		loadErr error
	)
	for _, name := range candidates {
		h, err := purego.Dlopen(name, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			loadErr = err
			continue
		}
		handle = h
		logger.Debug().Str("library", name).Msg("loaded retrieval engine")
		break
	}
	if handle == 0 {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, loadErr)
	}

	e := &nativeEngine{}
	required := []struct {
		name string
		dst  *uintptr
	}{
		{"debuginfod_begin", &e.symBegin},
		{"debuginfod_end", &e.symEnd},
		{"debuginfod_find_debuginfo", &e.symFindDebuginfo},
		{"debuginfod_find_executable", &e.symFindExecutable},
		{"debuginfod_find_source", &e.symFindSource},
		{"debuginfod_set_progressfn", &e.symSetProgressfn},
		// free and __errno_location resolve through the engine's own
		// dependency chain, so allocations are returned to the allocator
		// that made them.
		{"free", &e.symFree},
		{"__errno_location", &e.symErrnoLocation},
	}
	for _, s := range required {
		addr, err := purego.Dlsym(handle, s.name)
		if err != nil {
			return nil, fmt.Errorf("%w: symbol %s: %v", ErrUnavailable, s.name, err)
		}
		*s.dst = addr
	}

	var probed []string
	for c := Capability(0); c < numCapabilities; c++ {
		addr, err := purego.Dlsym(handle, c.symbol())
		if err != nil || addr == 0 {
			continue
		}
		e.symOptional[c] = addr
		e.caps[c] = true
		probed = append(probed, c.String())
	}
	logger.Debug().Strs("capabilities", probed).Msg("probed optional entry points")

	return e, nil
}

func (e *nativeEngine) begin() (uintptr, unix.Errno) {
	// Pin the OS thread so the errno read observes the slot the failing
	// call wrote.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	session, _, _ := purego.SyscallN(e.symBegin)
	if session != 0 {
		return session, 0
	}
	return 0, e.lastErrno()
}

func (e *nativeEngine) end(session uintptr) {
	purego.SyscallN(e.symEnd, session)

	progressRegistry.Lock()
	delete(progressRegistry.fns, session)
	progressRegistry.Unlock()
}

func (e *nativeEngine) findDebuginfo(session uintptr, buildID []byte, lengthTag int) (int, string) {
	return e.find(e.symFindDebuginfo, session, buildID, lengthTag, nil)
}

func (e *nativeEngine) findExecutable(session uintptr, buildID []byte, lengthTag int) (int, string) {
	return e.find(e.symFindExecutable, session, buildID, lengthTag, nil)
}

func (e *nativeEngine) findSource(session uintptr, buildID []byte, lengthTag int, sourcePath []byte) (int, string) {
	return e.find(e.symFindSource, session, buildID, lengthTag, sourcePath)
}

// find runs one blocking lookup. On success the engine stores a heap-
// allocated cache path in the out-parameter; find copies it into a Go string
// and hands the allocation back to the engine's allocator before returning.
func (e *nativeEngine) find(sym, session uintptr, buildID []byte, lengthTag int, sourcePath []byte) (int, string) {
	var (
		out uintptr
		r1  uintptr
	)
	if sourcePath == nil {
		r1, _, _ = purego.SyscallN(sym, session,
			uintptr(unsafe.Pointer(&buildID[0])),
			uintptr(lengthTag),
			uintptr(unsafe.Pointer(&out)))
	} else {
		r1, _, _ = purego.SyscallN(sym, session,
			uintptr(unsafe.Pointer(&buildID[0])),
			uintptr(lengthTag),
			uintptr(unsafe.Pointer(&sourcePath[0])),
			uintptr(unsafe.Pointer(&out)))
	}

	fd := int(int32(uint32(r1)))
	if fd < 0 || out == 0 {
		return fd, ""
	}
	path := goString(out)
	purego.SyscallN(e.symFree, out)
	return fd, path
}

func (e *nativeEngine) setProgressFn(session uintptr, fn ProgressFunc) {
	progressRegistry.Lock()
	if fn == nil {
		delete(progressRegistry.fns, session)
	} else {
		progressRegistry.fns[session] = fn
	}
	progressRegistry.Unlock()

	trampoline := progressTrampoline
	if fn == nil {
		trampoline = 0
	}
	purego.SyscallN(e.symSetProgressfn, session, trampoline)
}

func (e *nativeEngine) supports(c Capability) bool {
	return e.caps.has(c)
}

func (e *nativeEngine) setVerboseFd(session uintptr, fd int) {
	purego.SyscallN(e.symOptional[CapVerboseFd], session, uintptr(fd))
}

func (e *nativeEngine) url(session uintptr) (string, bool) {
	// The engine owns the returned string; it must not be freed here.
	p, _, _ := purego.SyscallN(e.symOptional[CapURL], session)
	if p == 0 {
		return "", false
	}
	return goString(p), true
}

func (e *nativeEngine) addHTTPHeader(session uintptr, header []byte) int {
	r1, _, _ := purego.SyscallN(e.symOptional[CapHTTPHeader], session,
		uintptr(unsafe.Pointer(&header[0])))
	return int(int32(uint32(r1)))
}

// lastErrno reads the calling thread's errno slot. The caller must hold the
// OS thread across the failing call and this read.
func (e *nativeEngine) lastErrno() unix.Errno {
	loc, _, _ := purego.SyscallN(e.symErrnoLocation)
	if loc == 0 {
		return 0
	}
	return unix.Errno(*(*int32)(unsafe.Pointer(loc)))
}

// goString copies the NUL-terminated native string at p into a Go string.
func goString(p uintptr) string {
	if p == 0 {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Pointer(p + uintptr(n))) != 0 {
		n++
	}
	if n == 0 {
		return ""
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(p)), n))
}
