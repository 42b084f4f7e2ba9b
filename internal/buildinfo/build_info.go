package buildinfo

import (
	"fmt"
	"runtime"
)

// BuildInfo holds all sorts of information about the build of an executable artifact.
type BuildInfo struct {
	Version    string
	CommitHash string
	BuildDate  string
}

// String returns the build info as a string.
func (i BuildInfo) String() string {
	return fmt.Sprintf("ddflow version %s (%s) built on %s with %s", i.Version, i.CommitHash,
		i.BuildDate, runtime.Version())
}
