package smallworld

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meigma/smallworld/region"
	"github.com/meigma/smallworld/u8"
)

type file struct {
	path string
	data []byte
}

// archiveOf builds an archive holding each file in its own payload slot.
func archiveOf(tb testing.TB, files ...file) *u8.Archive {
	tb.Helper()
	a := u8.New()
	for _, f := range files {
		require.NoError(tb, a.AddFile(f.path, a.AddPayload(f.data)))
	}
	return a
}

// release returns the regional files of r's release, with contents chosen by
// content.
func release(r region.Region, content func(region.Role) []byte) []file {
	files := make([]file, 0, len(region.Roles()))
	for _, role := range region.Roles() {
		files = append(files, file{region.Path(role, r), content(role)})
	}
	return files
}

// stock is the contents every release agrees on.
func stock(role region.Role) []byte {
	return []byte("stock " + role.String())
}

// edited replaces the layout with a region-specific variant.
func edited(tag string) func(region.Role) []byte {
	return func(role region.Role) []byte {
		if role == region.Layout {
			return []byte("edited layout " + tag)
		}
		return stock(role)
	}
}

func passthroughFiles() []file {
	return []file{
		{"arc/anim/custom_extra.brlan", []byte("extra animation")},
		{"arc/blyt/notes.txt", []byte("not a layout")},
		{"arc/font/title.brfnt", []byte("font data")},
	}
}

// contents flattens an archive to path -> data.
func contents(a *u8.Archive) map[string]string {
	m := make(map[string]string)
	for e := range a.Files() {
		m[e.Path] = string(e.Data)
	}
	return m
}

// join concatenates file lists, keeping the first file for each path. The
// International and North American releases share the logo filename.
func join(groups ...[]file) []file {
	var out []file
	seen := make(map[string]bool)
	for _, g := range groups {
		for _, f := range g {
			key := strings.ToLower(f.path)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, f)
		}
	}
	return out
}

func mustSerialize(tb testing.TB, a *u8.Archive) []byte {
	tb.Helper()
	data, err := u8.Serialize(a)
	require.NoError(tb, err)
	return data
}
