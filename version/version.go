// Package version reports build information of the contractgen binary.
package version

import (
	"fmt"
	"runtime"

	"github.com/Masterminds/semver/v3"
)

// Build information, set at build time via ldflags:
//
//	-X github.com/teranos/contractgen/version.Version=1.2.0
var (
	CommitHash = "dev"
	BuildTime  = "unknown"
	Version    = "dev"
)

// Info contains version and build information
type Info struct {
	CommitHash string `json:"commit_hash"`
	BuildTime  string `json:"build_time"`
	Version    string `json:"version"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

// Get returns the current version information
func Get() Info {
	return Info{
		CommitHash: CommitHash,
		BuildTime:  BuildTime,
		Version:    Version,
		GoVersion:  runtime.Version(),
		Platform:   fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// IsRelease reports whether Version is a tagged semantic version.
func (i Info) IsRelease() bool {
	_, err := semver.NewVersion(i.Version)
	return err == nil
}

// String returns a human-readable version string
func (i Info) String() string {
	if i.IsRelease() {
		return fmt.Sprintf("contractgen %s (commit %s, built %s)", i.Version, i.Short(), i.BuildTime)
	}
	return fmt.Sprintf("contractgen dev (commit %s, built %s)", i.Short(), i.BuildTime)
}

// Short returns the abbreviated commit hash
func (i Info) Short() string {
	if len(i.CommitHash) >= 7 {
		return i.CommitHash[:7]
	}
	return i.CommitHash
}
