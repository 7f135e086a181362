// Package version reports how the dmgview binary was built.
package version

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"time"
)

// Set at build time via -ldflags "-X dmgview/internal/version.Version=...".
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Info describes one build of the binary.
type Info struct {
	Version   string
	Commit    string
	BuildTime string
	GoVersion string
	Platform  string
	Arch      string
	Modified  bool
}

// Read combines the linker-provided values with the VCS stamps recorded by
// the go command.
func Read() Info {
	info := Info{
		Version:   Version,
		Commit:    GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info.applySettings(bi.Settings)
	}
	return info
}

func (i *Info) applySettings(settings []debug.BuildSetting) {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if i.Commit == "unknown" {
				i.Commit = s.Value
			}
		case "vcs.time":
			if i.BuildTime == "unknown" {
				i.BuildTime = s.Value
			}
		case "vcs.modified":
			i.Modified = s.Value == "true"
		}
	}
}

func (i Info) shortCommit() string {
	if i.Commit == "unknown" {
		return ""
	}
	if len(i.Commit) > 7 {
		return i.Commit[:7]
	}
	return i.Commit
}

// Short is the version shown in the window title and the menu header:
// the linked version, or dev-<commit> for untagged builds.
func (i Info) Short() string {
	if i.Version != "dev" {
		return i.Version
	}
	commit := i.shortCommit()
	if commit == "" {
		return "dev"
	}
	if i.Modified {
		return "dev-" + commit + "+dirty"
	}
	return "dev-" + commit
}

// Title returns the window title for the named title, or the bare program
// name and version when name is empty.
func (i Info) Title(name string) string {
	if name == "" {
		return "dmgview " + i.Short()
	}
	return fmt.Sprintf("dmgview - %s", name)
}

// String returns a one-line description used in startup logs.
func (i Info) String() string {
	s := "dmgview version " + i.Version
	if c := i.shortCommit(); c != "" {
		s += " (commit " + c + ")"
	}
	if i.BuildTime != "unknown" {
		if t, err := time.Parse(time.RFC3339, i.BuildTime); err == nil {
			s += " built on " + t.Format("2006-01-02 15:04:05")
		} else {
			s += " built on " + i.BuildTime
		}
	}
	return s + fmt.Sprintf(" with %s for %s/%s", i.GoVersion, i.Platform, i.Arch)
}

// Write prints the -version report.
func (i Info) Write(w io.Writer) error {
	_, err := fmt.Fprintf(w, "dmgview - monochrome handheld presentation harness\n"+
		"Version:     %s\n"+
		"Git Commit:  %s\n"+
		"Build Time:  %s\n"+
		"Go Version:  %s\n"+
		"Platform:    %s/%s\n",
		i.Short(), i.Commit, i.BuildTime, i.GoVersion, i.Platform, i.Arch)
	return err
}
