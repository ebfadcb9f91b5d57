// Package version holds the version info of a nandfs binary. The
// values are empty in plain `go build` binaries; release builds stamp
// them in through ldflags, see build.go.
package version

import (
	"fmt"
	"strconv"

	"github.com/blang/semver"
)

var (
	// Major will be incremented on big releases.
	Major = ""
	// Minor will be incremented on small releases.
	Minor = ""
	// Patch should be incremented on every released change.
	Patch = ""
	// ReleaseType is "beta", "alpha" or "" for final releases.
	ReleaseType = ""
	// GitRev is the git HEAD this binary was built from.
	GitRev = ""
	// BuildTime is the ISO8601 timestamp of the build.
	BuildTime = ""
)

func parsePart(v, what string) uint64 {
	if v == "" {
		return 0
	}

	num, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		panic(fmt.Sprintf("cannot parse %s version %q: %v", what, v, err))
	}

	return num
}

// Version assembles the stamped build info into a semver version.
func Version() semver.Version {
	vers := semver.Version{
		Major: parsePart(Major, "major"),
		Minor: parsePart(Minor, "minor"),
		Patch: parsePart(Patch, "patch"),
	}

	if ReleaseType != "" {
		if pre, err := semver.NewPRVersion(ReleaseType); err == nil {
			vers.Pre = []semver.PRVersion{pre}
		}
	}

	if len(GitRev) >= 7 {
		vers.Build = []string{GitRev[:7]}
	}

	return vers
}

// Numbers returns a tuple of (major, minor, patch).
func Numbers() (int, int, int) {
	vers := Version()
	return int(vers.Major), int(vers.Minor), int(vers.Patch)
}

// String returns a "vX.Y.Z[-type][+rev]" string.
func String() string {
	return "v" + Version().String()
}
