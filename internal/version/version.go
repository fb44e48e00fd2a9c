// Package version reports what jsrepl was built from. Release builds set the
// variables below through -ldflags; other builds fall back to the module and
// VCS data the Go toolchain embeds.
package version

import (
	"fmt"
	"runtime/debug"
)

var (
	Version   = ""
	Commit    = ""
	BuildDate = ""
)

const enginePath = "github.com/dop251/goja"

// Info is the resolved build metadata
type Info struct {
	Version   string
	Commit    string
	BuildDate string
	// Engine is the version of the goja module linked in
	Engine string
}

// Get resolves the build metadata of the running binary
func Get() Info {
	bi, _ := debug.ReadBuildInfo()
	return resolve(bi)
}

func resolve(bi *debug.BuildInfo) Info {
	info := Info{Version: Version, Commit: Commit, BuildDate: BuildDate}
	if bi != nil {
		if info.Version == "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
		for _, s := range bi.Settings {
			switch {
			case s.Key == "vcs.revision" && info.Commit == "":
				info.Commit = shortCommit(s.Value)
			case s.Key == "vcs.time" && info.BuildDate == "":
				info.BuildDate = s.Value
			}
		}
		for _, dep := range bi.Deps {
			if dep.Path == enginePath {
				info.Engine = dep.Version
				if dep.Replace != nil {
					info.Engine = dep.Replace.Version
				}
			}
		}
	}

	if info.Version == "" {
		info.Version = "dev"
	}
	for _, field := range []*string{&info.Commit, &info.BuildDate, &info.Engine} {
		if *field == "" {
			*field = "unknown"
		}
	}
	return info
}

func shortCommit(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}

// String formats the version with its commit, build date and engine
func (i Info) String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s, goja: %s)", i.Version, i.Commit, i.BuildDate, i.Engine)
}
