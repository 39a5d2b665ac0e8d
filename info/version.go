package info

import (
	"fmt"
	"runtime"
	"strings"
)

// version info sourced from build flags
var (
	Version   string
	GitCommit string
	GitBranch string
	BuildDate string
	GoVersion string
)

// infoVersion is the version information published in expvar.
type infoVersion struct {
	Version   string
	GitCommit string
	GitBranch string
	BuildDate string
	GoVersion string
}

func init() {
	if Version == "" {
		Version = "0.0.0"
	}
	if GoVersion == "" {
		GoVersion = runtime.Version()
	}
}

func publishVersion() interface{} {
	return infoVersion{
		Version:   Version,
		GitCommit: GitCommit,
		GitBranch: GitBranch,
		BuildDate: BuildDate,
		GoVersion: GoVersion,
	}
}

// VersionString returns the version information filled in at build time
func VersionString() string {
	var b strings.Builder
	if Version != "" {
		fmt.Fprintf(&b, "Version: %s\n", Version)
	}
	if GitCommit != "" {
		fmt.Fprintf(&b, "Git hash: %s\n", GitCommit)
	}
	if GitBranch != "" {
		fmt.Fprintf(&b, "Git branch: %s\n", GitBranch)
	}
	if BuildDate != "" {
		fmt.Fprintf(&b, "Build date: %s\n", BuildDate)
	}
	if GoVersion != "" {
		fmt.Fprintf(&b, "Go Version: %s\n", GoVersion)
	}
	return b.String()
}
