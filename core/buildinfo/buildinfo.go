// Package buildinfo carries release metadata stamped in at link time:
//
//	-X 'github.com/m3rciful/celebguess/core/buildinfo.Version=v1.2.3'
//	-X 'github.com/m3rciful/celebguess/core/buildinfo.Commit=abcdef0'
//	-X 'github.com/m3rciful/celebguess/core/buildinfo.Date=2025-08-30T12:00:00Z'
//
// Unstamped builds fall back to the module version and VCS settings Go
// records in the binary.
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

var (
	// Version reports the semantic version or tag of the build.
	Version = "dev"
	// Commit reports the source control commit used for the build.
	Commit = "local"
	// Date reports the build timestamp in RFC3339 format.
	Date = ""
)

func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch {
		case s.Key == "vcs.revision" && Commit == "local" && len(s.Value) >= 7:
			Commit = s.Value[:7]
		case s.Key == "vcs.time" && Date == "":
			Date = s.Value
		}
	}
}

// Summary renders the metadata on one line, e.g. "v1.2.3 (abcdef0, 2025-08-30T12:00:00Z)".
func Summary() string {
	if Date == "" {
		return fmt.Sprintf("%s (%s)", Version, Commit)
	}
	return fmt.Sprintf("%s (%s, %s)", Version, Commit, Date)
}
