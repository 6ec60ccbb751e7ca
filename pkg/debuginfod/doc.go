// Package debuginfod provides Go bindings for libdebuginfod, the elfutils
// client library that retrieves debugging artifacts for a binary identified
// only by its GNU build ID.
//
// The library is loaded with dlopen at runtime, so binaries built against
// this package run on systems without libdebuginfod installed and report
// ErrUnavailable when the engine is missing. All HTTP transport, server
// racing and on-disk caching live inside the engine; this package covers the
// session lifecycle, build-id canonicalization, the three artifact lookups
// and the capability negotiation that keeps the binding working against
// older engine builds.
//
// The engine reads its server list from the DEBUGINFOD_URLS environment
// variable. When the variable is empty at open time the client installs the
// elfutils federating server as a process-wide default, so lookups work
// without any setup.
//
// Basic usage:
//
//	client, err := debuginfod.New(debuginfod.Config{})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	res, err := client.FindDebuginfo(debuginfod.HexID("18b9a9a8c523e5cfe5b5d946d605d09242f09798"))
//	if err != nil {
//		log.Fatal(err)
//	}
//	if !res.Found() {
//		log.Fatalf("no artifact: %v", res.Err())
//	}
//	defer res.Close()
//	fmt.Println(res.Path)
//
// A failed lookup is an expected outcome, not an error: the Result carries
// either an open file descriptor plus the cache path, or a negated POSIX
// error code. Optional engine features (verbose output, URL introspection,
// custom HTTP headers) are probed by symbol presence at load time; invoking
// one against an engine build that lacks it fails with *CapabilityError
// rather than a symbol fault, so callers can degrade gracefully.
package debuginfod
