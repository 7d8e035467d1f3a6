// Package version reports build information for the WattsUp tools.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set at build time with -ldflags "-X wattsup-logger/internal/version.Version=..."
var (
	Version   = "0.3.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Commit returns the short commit hash, falling back to the VCS stamp Go
// embeds in module builds.
func Commit() string {
	commit := GitCommit
	if commit == "unknown" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, s := range info.Settings {
				if s.Key == "vcs.revision" {
					commit = s.Value
				}
			}
		}
	}
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return commit
}

// Info returns the multi-line version text printed by --version.
func Info(app string) string {
	result := fmt.Sprintf("%s version %s", app, Version)
	if c := Commit(); c != "unknown" {
		result += fmt.Sprintf(" (commit %s)", c)
	}
	if BuildDate != "unknown" {
		result += fmt.Sprintf("\nBuilt: %s", BuildDate)
	}
	result += fmt.Sprintf("\nGo: %s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	return result
}
