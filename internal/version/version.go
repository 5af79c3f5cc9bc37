// Package version holds esmapd build metadata injected via ldflags:
//
//	-X github.com/kailas-cloud/esmap/internal/version.Version=v0.1.0
package version

import "fmt"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String renders the build metadata on one line.
func String() string {
	return fmt.Sprintf("esmapd %s (commit %s, built %s)", Version, Commit, Date)
}
