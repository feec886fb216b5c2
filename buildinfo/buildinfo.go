// Package buildinfo reports which build of a tool produced a results file,
// so that a screen can be re-analyzed with the same code.
package buildinfo

import (
	"fmt"
	"log"
	"runtime/debug"
)

type Info struct {
	Path       string
	Version    string
	GoVersion  string
	Commit     string
	CommitTime string
	Modified   bool
}

func (i Info) String() string {
	if i.Path == "" {
		return "no build information embedded in this binary"
	}

	out := fmt.Sprintf("%s %s (%s)", i.Path, i.Version, i.GoVersion)
	if i.Commit != "" {
		out += fmt.Sprintf(" commit %s at %s", i.Commit, i.CommitTime)
	}
	if i.Modified {
		out += " with uncommitted changes"
	}

	return out
}

// Get reads the build information embedded by the Go toolchain.
func Get() Info {
	z, ok := debug.ReadBuildInfo()
	if !ok {
		return Info{}
	}

	return fromBuildInfo(z)
}

func fromBuildInfo(z *debug.BuildInfo) Info {
	out := Info{
		Path:      z.Path,
		Version:   z.Main.Version,
		GoVersion: z.GoVersion,
	}
	for _, s := range z.Settings {
		switch s.Key {
		case "vcs.revision":
			out.Commit = s.Value
		case "vcs.time":
			out.CommitTime = s.Value
		case "vcs.modified":
			out.Modified = s.Value == "true"
		}
	}

	return out
}

// Log writes the build information to the standard logger.
func Log() {
	log.Println(Get())
}
