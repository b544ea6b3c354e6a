package versions

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	vcs := func() map[string]string {
		return map[string]string{
			"vcs.revision": "0123456789abcdef",
			"vcs.time":     "2026-01-02T03:04:05Z",
		}
	}

	tests := []struct {
		name      string
		version   string
		commit    string
		buildDate string
		want      Info
	}{
		{
			name:      "development build uses the VCS stamp",
			version:   "dev",
			commit:    unknownStr,
			buildDate: unknownStr,
			want: Info{
				Version:   "build-01234567",
				Commit:    "0123456789abcdef",
				BuildDate: "2026-01-02 03:04:05 UTC",
			},
		},
		{
			name:      "release build keeps its values",
			version:   "v1.2.0",
			commit:    "feedface",
			buildDate: "2026-02-03T04:05:06Z",
			want: Info{
				Version:   "v1.2.0",
				Commit:    "feedface",
				BuildDate: "2026-02-03 04:05:06 UTC",
			},
		},
		{
			name:      "dev prefix keeps explicit commit",
			version:   "dev-local",
			commit:    "abc",
			buildDate: unknownStr,
			want: Info{
				Version:   "dev-local",
				Commit:    "abc",
				BuildDate: "2026-01-02 03:04:05 UTC",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := resolve(tt.version, tt.commit, tt.buildDate, vcs)
			tt.want.GoVersion = runtime.Version()
			tt.want.Platform = runtime.GOOS + "/" + runtime.GOARCH
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_NoVCS(t *testing.T) {
	t.Parallel()

	got := resolve("dev", unknownStr, unknownStr, func() map[string]string { return map[string]string{} })
	assert.Equal(t, "build-unknown", got.Version)
	assert.Equal(t, unknownStr, got.BuildDate)
}

func TestInfoString(t *testing.T) {
	t.Parallel()

	s := Info{Version: "v1", Commit: "c", BuildDate: "d", GoVersion: "go1.25", Platform: "linux/amd64"}.String()
	assert.Contains(t, s, "birdsync v1")
	assert.Contains(t, s, "linux/amd64")
}
