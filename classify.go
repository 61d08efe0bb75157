package smallworld

import (
	"github.com/opencontainers/go-digest"

	"github.com/meigma/smallworld/region"
	"github.com/meigma/smallworld/u8"
)

// Candidate is one distinct version of a logical file.
type Candidate struct {
	// Digest identifies the contents. Two candidates of a group never share
	// a digest.
	Digest digest.Digest

	// Data is the file contents. It aliases the classified archive.
	Data []byte

	// Regions are the regions whose filename carried this version.
	Regions region.Set

	// Paths are the archive paths carrying this version, in archive order.
	Paths []string
}

// ConflictGroup collects the distinct versions of one logical file found in
// an archive.
type ConflictGroup struct {
	Role       region.Role
	Candidates []Candidate
}

// Regions returns every region that supplied the file.
func (g ConflictGroup) Regions() region.Set {
	var s region.Set
	for _, c := range g.Candidates {
		s = s.Union(c.Regions)
	}
	return s
}

// Conflicting reports whether the regions disagree on the contents.
func (g ConflictGroup) Conflicting() bool {
	return len(g.Candidates) > 1
}

func (g ConflictGroup) conflict(op string) error {
	return &ConflictError{Op: op, Role: g.Role, Candidates: g.Candidates}
}

// Classification is the analysis of an archive that Merge and Split act on.
type Classification struct {
	// Groups holds one group per logical file present, in role order.
	// Logical files with no regional filename in the archive are absent.
	Groups []ConflictGroup

	// Passthrough lists the files that are not a source region's version of
	// a logical file, in archive order. They are copied to the output
	// unchanged.
	Passthrough []string
}

// Conflicts returns the groups whose regions disagree.
func (c *Classification) Conflicts() []ConflictGroup {
	var out []ConflictGroup
	for _, g := range c.Groups {
		if g.Conflicting() {
			out = append(out, g)
		}
	}
	return out
}

// Classify sorts the files of a into regional versions of each logical file
// and passthrough files. Candidates are compared by content digest, so
// identical copies under different regional names form a single candidate.
//
// Only WithSources affects classification: files named for regions outside
// the sources are passthrough files.
func Classify(a *u8.Archive, opts ...Option) *Classification {
	return classify(a, newConfig(opts).sources)
}

func classify(a *u8.Archive, sources region.Set) *Classification {
	groups := make(map[region.Role]*ConflictGroup)
	cls := &Classification{}

	for e := range a.Files() {
		role, regions, ok := sourceLookup(e.Path, sources)
		if !ok {
			cls.Passthrough = append(cls.Passthrough, e.Path)
			continue
		}
		g := groups[role]
		if g == nil {
			g = &ConflictGroup{Role: role}
			groups[role] = g
		}
		g.add(e, regions)
	}

	for _, role := range region.Roles() {
		if g, ok := groups[role]; ok {
			cls.Groups = append(cls.Groups, *g)
		}
	}
	return cls
}

// sourceLookup is region.Lookup restricted to the source regions.
func sourceLookup(path string, sources region.Set) (region.Role, region.Set, bool) {
	role, regions, ok := region.Lookup(path)
	if !ok {
		return 0, 0, false
	}
	regions = regions.Intersect(sources)
	if regions.Empty() {
		return 0, 0, false
	}
	return role, regions, true
}

func (g *ConflictGroup) add(e u8.Entry, regions region.Set) {
	d := digest.FromBytes(e.Data)
	for i := range g.Candidates {
		c := &g.Candidates[i]
		if c.Digest == d {
			c.Regions = c.Regions.Union(regions)
			c.Paths = append(c.Paths, e.Path)
			return
		}
	}
	g.Candidates = append(g.Candidates, Candidate{
		Digest:  d,
		Data:    e.Data,
		Regions: regions,
		Paths:   []string{e.Path},
	})
}
