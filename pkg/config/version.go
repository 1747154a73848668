// Package config identifies a trackctl build. Release builds stamp
// Version, Commit and BuildTime with -ldflags "-X"; development builds
// fall back to the VCS stamp the go command embeds.
package config

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Stamped at link time.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	Modified  bool   `json:"modified,omitempty"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the stamped values, completed from the embedded
// VCS settings when the linker left them unset.
func GetBuildInfo() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		fillFromVCS(&info, bi.Settings)
	}
	return info
}

func fillFromVCS(info *BuildInfo, settings []debug.BuildSetting) {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "unknown" && s.Value != "" {
				info.Commit = s.Value
				if len(info.Commit) > 12 {
					info.Commit = info.Commit[:12]
				}
			}
		case "vcs.time":
			if info.BuildTime == "unknown" && s.Value != "" {
				info.BuildTime = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
}

// VersionString is the human-readable line printed by `trackctl version`.
func VersionString() string {
	info := GetBuildInfo()
	commit := info.Commit
	if info.Modified {
		commit += "+dirty"
	}
	return fmt.Sprintf("trackctl %s (%s) built at %s with %s",
		info.Version, commit, info.BuildTime, info.GoVersion)
}

// ShortVersionString returns just the version.
func ShortVersionString() string {
	return Version
}

// UserAgent is sent with every backend request.
func UserAgent() string {
	return fmt.Sprintf("trackctl/%s (%s/%s)", Version, runtime.GOOS, runtime.GOARCH)
}
