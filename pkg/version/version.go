// Package version carries build metadata injected at link time via
// -ldflags "-X github.com/Sumatoshi-tech/piecetree/pkg/version.Version=...".
package version

// Set by the build; defaults identify a source build.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String renders the build metadata as a single human-readable line.
func String() string {
	return Version + " (commit " + Commit + ", built " + Date + ")"
}
