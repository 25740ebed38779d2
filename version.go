package swapicache

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/rs/zerolog"
)

// Release metadata, set with -ldflags "-X github.com/iagooteles/swapicache.GitCommit=...".
var (
	Version   = "v0.3.0"
	GitCommit = ""
	BuildDate = ""
)

// BuildInfo describes the running build.
type BuildInfo struct {
	Version   string
	Commit    string
	Date      string
	GoVersion string
	Modified  bool
}

// Build returns the build metadata. Commit and date fall back to the VCS
// stamp embedded by the go command when -ldflags did not set them.
func Build() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		Commit:    GitCommit,
		Date:      BuildDate,
		GoVersion: runtime.Version(),
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range bi.Settings {
			switch setting.Key {
			case "vcs.revision":
				if info.Commit == "" {
					info.Commit = setting.Value
				}
			case "vcs.time":
				if info.Date == "" {
					info.Date = setting.Value
				}
			case "vcs.modified":
				info.Modified = setting.Value == "true"
			}
		}
	}

	if info.Commit == "" {
		info.Commit = "unknown"
	}
	if info.Date == "" {
		info.Date = "unknown"
	}
	return info
}

// String renders the build on one line, with the commit shortened.
func (b BuildInfo) String() string {
	commit := b.Commit
	if len(commit) > 12 {
		commit = commit[:12]
	}
	if b.Modified {
		commit += "-dirty"
	}
	return fmt.Sprintf("swapicache %s (commit %s, built %s, %s)", b.Version, commit, b.Date, b.GoVersion)
}

// MarshalZerologObject adds the build fields to a log event.
func (b BuildInfo) MarshalZerologObject(e *zerolog.Event) {
	e.Str("version", b.Version).
		Str("commit", b.Commit).
		Str("buildDate", b.Date).
		Str("goVersion", b.GoVersion).
		Bool("modified", b.Modified)
}

var _ zerolog.LogObjectMarshaler = BuildInfo{}
