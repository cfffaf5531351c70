// Package version carries build metadata injected via ldflags:
// go build -ldflags "-X git.home.luguber.info/inful/pinningd/internal/version.Version=v0.3.0".
package version

import "fmt"

// Version is the release tag of the binary.
var Version = "unknown"

var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version line printed by the CLI and the admin /status endpoint.
func String() string {
	return fmt.Sprintf("pinningd %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
