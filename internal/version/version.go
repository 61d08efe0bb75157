// Package version reports what build of smallworld is running.
//
// Release builds set the variables below with -ldflags, for example:
//
//	go build -ldflags "-X github.com/meigma/smallworld/internal/version.Version=v1.0.0" ./cmd/smallworld
//
// Anything left unset is filled in from the build information the Go
// toolchain embeds (module version and VCS stamp).
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set via -ldflags at build time.
var (
	Version   = ""
	GitCommit = ""
	BuildTime = ""
)

// Info describes a build.
type Info struct {
	Version string
	Commit  string
	Dirty   bool
	Time    string
}

// Get returns the running build's Info.
func Get() Info {
	info, _ := debug.ReadBuildInfo()
	return resolve(info)
}

func resolve(bi *debug.BuildInfo) Info {
	info := Info{Version: Version, Commit: GitCommit, Time: BuildTime}
	if bi == nil {
		return info.withDefaults()
	}
	if info.Version == "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = s.Value
				if len(info.Commit) > 12 {
					info.Commit = info.Commit[:12]
				}
			}
		case "vcs.time":
			if info.Time == "" {
				info.Time = s.Value
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}
	return info.withDefaults()
}

func (i Info) withDefaults() Info {
	if i.Version == "" {
		i.Version = "devel"
	}
	if i.Commit == "" {
		i.Commit = "unknown"
	}
	if i.Time == "" {
		i.Time = "unknown"
	}
	return i
}

// String formats the build for --version output.
func (i Info) String() string {
	dirty := ""
	if i.Dirty {
		dirty = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s) %s %s/%s",
		i.Version, i.Commit, dirty, i.Time, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
