// Package version exposes the build metadata stamped into the binary.
package version

import "fmt"

// Overridden at build time through -ldflags.
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String formats the stamped metadata as one line for the -version flag and
// log banners.
func String() string {
	return fmt.Sprintf("notecanvas %s (built %s, commit %s)", Version, BuildTime, GitCommit)
}
