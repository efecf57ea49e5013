// Package version reports the build stamped into the crawler binary
package version

import "fmt"

// BuildInfo holds version information about the build
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Info returns the build information
// set at build time with -ldflags "-X 'nhldata/internal/core/version.version=v0.1.0'
// -X 'nhldata/internal/core/version.commit=abcd' -X 'nhldata/internal/core/version.date=2026-10-01'"
func Info() BuildInfo {
	return BuildInfo{
		Service: "nhldata-crawl",
		Version: version,
		Commit:  commit,
		Date:    date,
	}
}

// String renders the one line form printed by --version
func (b BuildInfo) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", b.Service, b.Version, b.Commit, b.Date)
}

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)
