// Package version reports the build identity of the stackup binary.
package version

import (
	"fmt"
	"runtime/debug"
)

// These variables are set at build time via ldflags
var (
	Version   = "dev"
	Commit    = ""
	BuildTime = "unknown"
)

// String returns "stackup <version> (commit: <short>, built: <time>)".
// Without an ldflags commit the VCS revision recorded by the Go toolchain
// is used.
func String() string {
	return fmt.Sprintf("stackup %s (commit: %s, built: %s)", Version, shortCommit(commit()), BuildTime)
}

func commit() string {
	if Commit != "" {
		return Commit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}

func shortCommit(c string) string {
	if len(c) > 7 {
		return c[:7]
	}
	return c
}
