// Package version carries build metadata, set at link time via
// -ldflags "-X github.com/lflog/lflog/version.Version=...".
package version

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String returns the full version line shown by --version.
func String() string {
	return Version + " (" + Commit + ", " + Date + ")"
}
