// Package version holds build metadata stamped at link time.
package version

// Set via -ldflags, e.g.
// -X github.com/wtsao/yieldwatch/internal/version.Version=v1.2.3
var (
	Version = "dev"
	Commit  = "unknown"
)
