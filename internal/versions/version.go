// Package versions reports build information for the birdsync binary.
package versions

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

const unknownStr = "unknown"

// Build information, set with -ldflags "-X github.com/jcu-ap03/birdsync/internal/versions.Version=..."
var (
	Version = "dev"
	//nolint:goconst // placeholder overridden at build time
	Commit = unknownStr
	//nolint:goconst // placeholder overridden at build time
	BuildDate = unknownStr
)

// Info describes the running binary
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// String formats the info for the version command
func (i Info) String() string {
	return fmt.Sprintf("birdsync %s\n  commit:     %s\n  built:      %s\n  go version: %s\n  platform:   %s",
		i.Version, i.Commit, i.BuildDate, i.GoVersion, i.Platform)
}

// Get returns the build information of the running binary
func Get() Info {
	return resolve(Version, Commit, BuildDate, readVCS)
}

func readVCS() map[string]string {
	out := make(map[string]string)
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return out
	}
	for _, setting := range info.Settings {
		out[setting.Key] = setting.Value
	}
	return out
}

// resolve fills unset values of development builds from the VCS stamp
func resolve(version, commit, buildDate string, vcs func() map[string]string) Info {
	if strings.HasPrefix(version, "dev") {
		settings := vcs()
		if commit == unknownStr && settings["vcs.revision"] != "" {
			commit = settings["vcs.revision"]
		}
		if buildDate == unknownStr && settings["vcs.time"] != "" {
			buildDate = settings["vcs.time"]
		}
	}

	if t, err := time.Parse(time.RFC3339, buildDate); err == nil {
		buildDate = t.UTC().Format("2006-01-02 15:04:05 MST")
	}

	if version == "dev" {
		version = fmt.Sprintf("build-%.*s", 8, commit)
	}

	return Info{
		Version:   version,
		Commit:    commit,
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}
