// Package version holds build metadata for the lamina binary, injected
// via ldflags at release time.
package version

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
