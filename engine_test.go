package smallworld

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/smallworld/internal/sizing"
	"github.com/meigma/smallworld/internal/testutil"
	"github.com/meigma/smallworld/region"
	"github.com/meigma/smallworld/u8"
)

func TestMergeSingleRelease(t *testing.T) {
	t.Parallel()

	a := archiveOf(t, join(release(region.J, stock), passthroughFiles())...)
	out, err := Merge(a, DefaultPolicy())
	require.NoError(t, err)

	for _, role := range region.Roles() {
		id := u8.NoPayload
		for _, r := range region.All() {
			n, ok := out.Lookup(region.Path(role, r))
			require.True(t, ok, "%s/%s", role, r)
			if id == u8.NoPayload {
				id = n.Payload()
			}
			assert.Equal(t, id, n.Payload(), "%s/%s shares the payload", role, r)
			assert.Equal(t, stock(role), out.Payload(n.Payload()))
		}
	}
}

func TestMergeIdempotent(t *testing.T) {
	t.Parallel()

	a := archiveOf(t, join(release(region.P, stock), release(region.K, stock), passthroughFiles())...)
	once, err := Merge(a, DefaultPolicy())
	require.NoError(t, err)
	twice, err := Merge(once, DefaultPolicy())
	require.NoError(t, err)

	assert.Equal(t, contents(once), contents(twice))
	assert.Equal(t, mustSerialize(t, once), mustSerialize(t, twice))
}

func TestSplitThenMerge(t *testing.T) {
	t.Parallel()

	a := archiveOf(t, join(release(region.P, edited("P")), release(region.E, edited("E")), passthroughFiles())...)
	merged, err := Merge(a, Prefer(region.P))
	require.NoError(t, err)

	for _, r := range region.All() {
		t.Run(r.String(), func(t *testing.T) {
			t.Parallel()

			split, err := Split(merged, r, DefaultPolicy())
			require.NoError(t, err)

			files := contents(split)
			for _, role := range region.Roles() {
				assert.Contains(t, files, region.Path(role, r))
			}
			assert.Len(t, files, len(region.Roles())+len(passthroughFiles()))

			again, err := Merge(split, DefaultPolicy())
			require.NoError(t, err)
			assert.Equal(t, contents(merged), contents(again))
		})
	}
}

func TestSplitKeepsOnlyTargetNames(t *testing.T) {
	t.Parallel()

	a := archiveOf(t, join(release(region.W, stock), release(region.C, stock))...)
	out, err := Split(a, region.E, DefaultPolicy())
	require.NoError(t, err)

	var paths []string
	for e := range out.Files() {
		paths = append(paths, e.Path)
	}
	assert.Equal(t, []string{
		"arc/anim/openingTitle_US_00_inPress.brlan",
		"arc/anim/openingTitle_US_00_inTitle.brlan",
		"arc/anim/openingTitle_US_00_loopPress.brlan",
		"arc/anim/openingTitle_US_00_outPress.brlan",
		"arc/blyt/openingTitle_US_00.brlyt",
		"arc/timg/wiiMario_Title_logo_local_00.tpl",
	}, paths)
}

func TestPassthroughPreserved(t *testing.T) {
	t.Parallel()

	a := archiveOf(t, join(release(region.P, stock), passthroughFiles())...)
	shared := a.AddPayload([]byte("shared by two names"))
	require.NoError(t, a.AddFile("misc/one.bin", shared))
	require.NoError(t, a.AddFile("misc/two.bin", shared))
	_, err := a.Mkdir("empty/dir")
	require.NoError(t, err)

	merged, err := Merge(a, DefaultPolicy())
	require.NoError(t, err)
	split, err := Split(a, region.K, DefaultPolicy())
	require.NoError(t, err)

	for name, out := range map[string]*u8.Archive{"merge": merged, "split": split} {
		files := contents(out)
		for _, f := range passthroughFiles() {
			assert.Equal(t, string(f.data), files[f.path], "%s: %s", name, f.path)
		}
		one, ok := out.Lookup("misc/one.bin")
		require.True(t, ok, name)
		two, ok := out.Lookup("misc/two.bin")
		require.True(t, ok, name)
		assert.Equal(t, one.Payload(), two.Payload(), "%s: shared passthrough payload", name)

		dir, ok := out.Lookup("empty/dir")
		require.True(t, ok, name)
		assert.True(t, dir.IsDir())
	}
}

func TestMergeStrictConflict(t *testing.T) {
	t.Parallel()

	a := archiveOf(t, join(release(region.P, edited("P")), release(region.J, stock))...)
	out, err := Merge(a, Strict{})
	require.Error(t, err)
	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrConflict)

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "merge", conflict.Op)
	assert.Equal(t, region.Layout, conflict.Role)
	require.Len(t, conflict.Candidates, 2)
	assert.Equal(t, region.NewSet(region.P), conflict.Candidates[0].Regions)
	assert.Equal(t, region.NewSet(region.J), conflict.Candidates[1].Regions)
	assert.Contains(t, err.Error(), "layout")
}

func TestMergeNilPolicyIsStrict(t *testing.T) {
	t.Parallel()

	a := archiveOf(t, join(release(region.P, edited("P")), release(region.J, stock))...)
	_, err := Merge(a, nil)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestMergePreferRegion(t *testing.T) {
	t.Parallel()

	// Three releases, two distinct layouts.
	a := archiveOf(t, join(
		release(region.P, edited("P")),
		release(region.E, stock),
		release(region.J, stock),
	)...)

	tests := []struct {
		prefer region.Region
		want   []byte
	}{
		{region.P, edited("P")(region.Layout)},
		{region.E, stock(region.Layout)},
		{region.J, stock(region.Layout)},
	}
	for _, tt := range tests {
		t.Run(tt.prefer.String(), func(t *testing.T) {
			t.Parallel()

			out, err := Merge(a, Prefer(tt.prefer))
			require.NoError(t, err)
			for _, r := range region.All() {
				got, err := out.ReadFile(region.Path(region.Layout, r))
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestMergePreferredRegionMissing(t *testing.T) {
	t.Parallel()

	a := archiveOf(t, join(release(region.P, edited("P")), release(region.J, stock))...)
	_, err := Merge(a, Prefer(region.K))

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, region.Layout, conflict.Role)
}

func TestSplitConflict(t *testing.T) {
	t.Parallel()

	a := archiveOf(t, join(release(region.W, edited("W")), release(region.C, stock))...)
	_, err := Split(a, region.W, DefaultPolicy())

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "split", conflict.Op)

	out, err := Split(a, region.W, Prefer(region.C))
	require.NoError(t, err)
	got, err := out.ReadFile(region.Path(region.Layout, region.W))
	require.NoError(t, err)
	assert.Equal(t, stock(region.Layout), got)
}

func TestMergeRedundantSharing(t *testing.T) {
	t.Parallel()

	input := mustSerialize(t, archiveOf(t, join(release(region.K, stock), passthroughFiles())...))
	data, err := MergeBytes(input, DefaultPolicy())
	require.NoError(t, err)

	out, err := u8.Parse(data)
	require.NoError(t, err)
	for _, role := range region.Roles() {
		first, err := out.ReadFile(region.Path(role, region.P))
		require.NoError(t, err)
		firstNode, _ := out.Lookup(region.Path(role, region.P))
		for _, r := range region.All() {
			got, err := out.ReadFile(region.Path(role, r))
			require.NoError(t, err)
			assert.Equal(t, first, got, "%s/%s", role, r)

			n, _ := out.Lookup(region.Path(role, r))
			assert.Equal(t, firstNode.Payload(), n.Payload(), "%s/%s points at the same range", role, r)
		}
	}
}

func TestMergeMinimality(t *testing.T) {
	t.Parallel()

	big := func(role region.Role) []byte {
		return bytes.Repeat([]byte{byte(role) + 1}, 4096)
	}
	input := mustSerialize(t, archiveOf(t, release(region.P, big)...))

	single, err := MergeBytes(input, DefaultPolicy(), WithTargets(region.NewSet(region.P)))
	require.NoError(t, err)
	all, err := MergeBytes(input, DefaultPolicy())
	require.NoError(t, err)

	// The extra regions add names only: a node and a string each, plus at
	// most one block of alignment before the data.
	var extra int
	for _, role := range region.Roles() {
		for _, r := range []region.Region{region.E, region.J, region.K, region.W, region.C} {
			if region.Path(role, r) == region.Path(role, region.P) {
				continue
			}
			extra += 12 + len(region.Filename(role, r)) + 1
		}
	}
	assert.LessOrEqual(t, len(all)-len(single), sizing.AlignUp(extra, u8.DataAlignment))

	var payloads int
	for _, role := range region.Roles() {
		payloads += sizing.AlignUp(len(big(role)), u8.DataAlignment)
	}
	assert.Less(t, len(all), payloads+sizing.AlignUp(extra, u8.DataAlignment)+1024)
}

func TestMergeDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	a := archiveOf(t, join(release(region.J, stock), passthroughFiles())...)
	before := mustSerialize(t, a)

	_, err := Merge(a, DefaultPolicy())
	require.NoError(t, err)
	_, err = Split(a, region.C, DefaultPolicy())
	require.NoError(t, err)

	assert.Equal(t, before, mustSerialize(t, a))
}

func TestMergeOutputDoesNotAliasInput(t *testing.T) {
	t.Parallel()

	a := archiveOf(t, release(region.J, stock)...)
	out, err := Merge(a, DefaultPolicy())
	require.NoError(t, err)

	got, err := out.ReadFile(region.Path(region.Layout, region.J))
	require.NoError(t, err)
	got[0] ^= 0xff

	src, err := a.ReadFile(region.Path(region.Layout, region.J))
	require.NoError(t, err)
	assert.Equal(t, stock(region.Layout), src)
}

func TestMergeTargets(t *testing.T) {
	t.Parallel()

	a := archiveOf(t, release(region.P, stock)...)
	out, err := Merge(a, DefaultPolicy(), WithTargets(region.NewSet(region.J, region.K)))
	require.NoError(t, err)

	assert.Len(t, contents(out), 2*len(region.Roles()))
	_, ok := out.Lookup(region.Path(region.Layout, region.P))
	assert.False(t, ok, "the source release is not a target")

	_, err = Merge(a, DefaultPolicy(), WithTargets(0))
	assert.ErrorIs(t, err, ErrNoTargets)
}

func TestMergeSharedImageNamedOnce(t *testing.T) {
	t.Parallel()

	a := archiveOf(t, release(region.C, stock)...)
	out, err := Merge(a, DefaultPolicy(), WithTargets(region.NewSet(region.P, region.E)))
	require.NoError(t, err)

	dir, ok := out.Lookup(region.ImageDir)
	require.True(t, ok)
	require.Len(t, dir.Children(), 1)
	assert.Equal(t, "wiiMario_Title_logo_local_00.tpl", dir.Children()[0].Name())
}

func TestMergeAbsentRolesStayAbsent(t *testing.T) {
	t.Parallel()

	a := archiveOf(t, file{region.Path(region.Layout, region.E), []byte("layout")})
	out, err := Merge(a, DefaultPolicy())
	require.NoError(t, err)

	assert.Len(t, contents(out), len(region.All()))
	_, ok := out.Lookup(region.AnimDir)
	assert.False(t, ok)
	_, ok = out.Lookup(region.ImageDir)
	assert.False(t, ok)
}

func TestMergeEmptyArchive(t *testing.T) {
	t.Parallel()

	out, err := Merge(u8.New(), DefaultPolicy())
	require.NoError(t, err)
	assert.Empty(t, out.Root().Children())
}

func TestMergeSortsChildren(t *testing.T) {
	t.Parallel()

	a := archiveOf(t, join(passthroughFiles(), release(region.W, stock))...)
	out, err := Merge(a, DefaultPolicy())
	require.NoError(t, err)

	dir, ok := out.Lookup(region.LayoutDir)
	require.True(t, ok)
	var names []string
	for _, c := range dir.Children() {
		names = append(names, c.Name())
	}
	assert.IsNonDecreasing(t, lower(names))
	assert.Contains(t, names, "notes.txt")
}

func lower(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = strings.ToLower(n)
	}
	return out
}

func TestMergeCaseInsensitiveInput(t *testing.T) {
	t.Parallel()

	a := archiveOf(t, file{"arc/blyt/OPENINGTITLE_KR_00.BRLYT", []byte("layout")})
	out, err := Merge(a, DefaultPolicy())
	require.NoError(t, err)

	for _, r := range region.All() {
		got, err := out.ReadFile(region.Path(region.Layout, r))
		require.NoError(t, err)
		assert.Equal(t, []byte("layout"), got)
	}
}

func TestSplitInvalidRegion(t *testing.T) {
	t.Parallel()

	_, err := Split(u8.New(), region.Region(17), DefaultPolicy())
	assert.ErrorIs(t, err, ErrInvalidRegion)
}

func TestMergeBytesFormatError(t *testing.T) {
	t.Parallel()

	_, err := MergeBytes(make([]byte, 0x20), DefaultPolicy())
	assert.ErrorIs(t, err, ErrBadMagic)

	_, err = SplitBytes([]byte("U8"), region.P, DefaultPolicy())
	assert.ErrorIs(t, err, ErrTruncated)

	var formatErr *u8.FormatError
	assert.ErrorAs(t, err, &formatErr)
}

func TestMergeLogsResolution(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	a := archiveOf(t, join(release(region.P, edited("P")), release(region.J, stock))...)
	_, err := Merge(a, Prefer(region.J), WithLogger(logger))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "resolved conflict")
	assert.Contains(t, out, fmt.Sprintf("role=%s", region.Layout))
	assert.Contains(t, out, `policy="prefer J"`)
}

func TestSplitSharedRangeArchive(t *testing.T) {
	t.Parallel()

	var layouts []testutil.Node
	for _, r := range region.All() {
		layouts = append(layouts, testutil.File(region.Filename(region.Layout, r), []byte("layout")))
	}
	raw := testutil.BuildU8Shared(t,
		testutil.Dir("arc",
			testutil.Dir("blyt", layouts...),
			testutil.File("readme.txt", []byte("layout")),
		),
	)

	data, err := SplitBytes(raw, region.J, DefaultPolicy())
	require.NoError(t, err)
	out, err := u8.Parse(data)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"arc/blyt/openingTitle_13.brlyt": "layout",
		"arc/readme.txt":                 "layout",
	}, contents(out))

	merged, err := MergeBytes(raw, DefaultPolicy())
	require.NoError(t, err)
	assert.Len(t, merged, len(raw), "identical contents are stored once")
}

func TestMergeSources(t *testing.T) {
	t.Parallel()

	// Mirrors converting a mixed archive with only the E and C files as
	// sources: P's files are left where they are.
	a := archiveOf(t, join(
		release(region.P, edited("P")),
		release(region.E, stock),
		release(region.C, stock),
		[]file{{"arc/anim/some other random thing", []byte("whatever")}},
	)...)

	out, err := Merge(a, DefaultPolicy(),
		WithSources(region.NewSet(region.E, region.C)),
		WithTargets(region.NewSet(region.W)))
	require.NoError(t, err, "P's differing layout is not a source, so nothing conflicts")

	files := contents(out)
	for _, role := range region.Roles() {
		assert.Equal(t, string(stock(role)), files[region.Path(role, region.W)], role.String())
		if role != region.Image {
			assert.NotContains(t, files, region.Path(role, region.E))
		}
		assert.NotContains(t, files, region.Path(role, region.C))
	}
	for _, role := range []region.Role{region.InPress, region.InTitle, region.LoopPress, region.OutPress, region.Layout} {
		assert.Contains(t, files, region.Path(role, region.P), "non-source files are kept")
	}
	assert.Equal(t, string(edited("P")(region.Layout)), files[region.Path(region.Layout, region.P)])
	assert.NotContains(t, files, region.Path(region.Image, region.P), "the shared logo name belongs to source E")
	assert.Equal(t, "whatever", files["arc/anim/some other random thing"])
}

func TestClassifySources(t *testing.T) {
	t.Parallel()

	a := archiveOf(t, join(release(region.P, stock), release(region.K, stock))...)
	cls := Classify(a, WithSources(region.NewSet(region.E)))

	require.Len(t, cls.Groups, 1, "only the logo name is shared with E")
	assert.Equal(t, region.Image, cls.Groups[0].Role)
	assert.Equal(t, region.NewSet(region.E), cls.Groups[0].Regions())
	assert.Len(t, cls.Passthrough, 2*len(region.Roles())-1)
}

func TestMergeNameTakenByPassthrough(t *testing.T) {
	t.Parallel()

	a := archiveOf(t, join(release(region.P, edited("P")), release(region.J, stock))...)
	opts := []Option{
		WithSources(region.NewSet(region.J)),
		WithTargets(region.NewSet(region.P, region.J)),
	}

	_, err := Merge(a, DefaultPolicy(), opts...)
	require.ErrorIs(t, err, ErrNameTaken)
	assert.Contains(t, err.Error(), region.Path(region.InPress, region.P))

	out, err := Merge(a, Prefer(region.J), opts...)
	require.NoError(t, err)
	got, err := out.ReadFile(region.Path(region.Layout, region.P))
	require.NoError(t, err)
	assert.Equal(t, stock(region.Layout), got, "the source version replaces the copied-through file")
}

func TestMergeRejectsUnknownRegionBits(t *testing.T) {
	t.Parallel()

	a := archiveOf(t, release(region.J, stock)...)

	_, err := Merge(a, DefaultPolicy(), WithTargets(region.Set(0xc0)))
	require.ErrorIs(t, err, ErrNoTargets)

	_, err = Merge(a, DefaultPolicy(), WithSources(region.Set(0xc0)))
	require.ErrorIs(t, err, ErrNoSources)

	_, err = Split(a, region.J, DefaultPolicy(), WithSources(0))
	require.ErrorIs(t, err, ErrNoSources)
}

func TestMergeNonASCIICaseIsDistinct(t *testing.T) {
	t.Parallel()

	// U+017F folds to "s" under Unicode rules but not under the archive's
	// ASCII-only comparison, so this is an unrelated file.
	lookalike := "arc/anim/openingTitle_EU_00_inPreſs.brlan"
	a := archiveOf(t, join(release(region.P, stock), []file{{lookalike, []byte("other")}})...)

	out, err := Merge(a, DefaultPolicy())
	require.NoError(t, err)

	files := contents(out)
	assert.Equal(t, "other", files[lookalike])
	assert.Equal(t, string(stock(region.InPress)), files[region.Path(region.InPress, region.P)])
}
