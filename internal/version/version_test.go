package version

import (
	"runtime"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveBuildInfo(t *testing.T) {
	t.Parallel()

	bi := &debug.BuildInfo{
		Main: debug.Module{Version: "v1.2.3"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	}
	assert.Equal(t, Info{
		Version: "v1.2.3",
		Commit:  "0123456789ab",
		Dirty:   true,
		Time:    "2026-01-02T03:04:05Z",
	}, resolve(bi))
}

func TestResolveDefaults(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Info{Version: "devel", Commit: "unknown", Time: "unknown"}, resolve(nil))

	devel := &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}}
	assert.Equal(t, "devel", resolve(devel).Version)
}

func TestInfoString(t *testing.T) {
	t.Parallel()

	info := Info{Version: "v1.0.0", Commit: "abc123", Dirty: true, Time: "now"}
	want := "v1.0.0 (abc123-dirty, now) " + runtime.Version() + " " + runtime.GOOS + "/" + runtime.GOARCH
	assert.Equal(t, want, info.String())
}
