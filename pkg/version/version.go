// Package version carries the build's identifying information, stamped at
// build time through -ldflags.
package version

import (
	"runtime"
)

var (
	// Version is the release version; "dev" for unstamped builds.
	Version = "dev"

	// GitCommit is the git commit hash of the build.
	GitCommit = "unknown"

	// BuildDate is the build timestamp.
	BuildDate = "unknown"

	// GoVersion is the Go toolchain that produced the binary.
	GoVersion = runtime.Version()
)
