// Package version holds build information injected with -ldflags, e.g.
//
//	go build -ldflags "-X facial-editor/internal/version.Version=1.2.0"
package version

import "fmt"

var (
	// Version is the semantic version
	Version = "0.1.0"

	// BuildTime is the UTC time when the binary was built
	BuildTime = "unknown"

	// GitCommit is the git commit hash
	GitCommit = "unknown"
)

// String formats the build information on one line.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
