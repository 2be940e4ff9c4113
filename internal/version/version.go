// Package version reports build information for herodex
package version

import (
	"encoding/json"
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

// Set at build time with -ldflags "-X github.com/iiroan/herodex/internal/version.Version=..."
var (
	Version   = ""
	GitCommit = ""
	BuildDate = ""
)

// Info holds version information for a build
type Info struct {
	Version   string    `json:"version"`
	GitCommit string    `json:"git_commit,omitempty"`
	GitDirty  bool      `json:"git_dirty,omitempty"`
	BuildDate time.Time `json:"build_date,omitempty"`
	GoVersion string    `json:"go_version"`
	Platform  string    `json:"platform"`
}

// Get resolves the build information from the linker flags, falling back
// to the module build info embedded by the Go toolchain.
func Get() Info {
	info := Info{
		Version:   Version,
		GitCommit: GitCommit,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if t, err := time.Parse(time.RFC3339, BuildDate); err == nil {
		info.BuildDate = t
	}

	build, ok := debug.ReadBuildInfo()
	if !ok {
		if info.Version == "" {
			info.Version = "dev"
		}
		return info
	}
	return fromBuildInfo(info, build)
}

func fromBuildInfo(info Info, build *debug.BuildInfo) Info {
	for _, setting := range build.Settings {
		switch setting.Key {
		case "vcs.revision":
			if info.GitCommit == "" {
				info.GitCommit = setting.Value
			}
		case "vcs.modified":
			info.GitDirty = setting.Value == "true"
		case "vcs.time":
			if info.BuildDate.IsZero() {
				if t, err := time.Parse(time.RFC3339, setting.Value); err == nil {
					info.BuildDate = t
				}
			}
		}
	}

	if info.Version == "" {
		switch {
		case build.Main.Version != "" && build.Main.Version != "(devel)":
			info.Version = build.Main.Version
		case info.GitCommit != "":
			info.Version = "dev-" + Short(info.GitCommit)
		default:
			info.Version = "dev"
		}
	}
	return info
}

// Short truncates a commit hash to seven characters.
func Short(commit string) string {
	if len(commit) > 7 {
		return commit[:7]
	}
	return commit
}

// String formats the info on one line
func (v Info) String() string {
	s := "herodex " + v.Version
	if v.GitCommit != "" {
		s += " (" + Short(v.GitCommit)
		if v.GitDirty {
			s += ", dirty"
		}
		s += ")"
	}
	return fmt.Sprintf("%s %s %s", s, v.GoVersion, v.Platform)
}

// JSON returns the info as indented JSON
func (v Info) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling version: %w", err)
	}
	return data, nil
}
