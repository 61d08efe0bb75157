package region

import (
	"errors"
	"fmt"
	"iter"
	"strings"
)

// Region is one of the game's release regions, named by the letter in its
// game code (SMNP01, SMNE01, ...).
type Region uint8

// Regions in their default priority order.
const (
	P Region = iota // International (Europe, Australia)
	E               // North America
	J               // Japan
	K               // Korea
	W               // Taiwan
	C               // China

	numRegions = iota
)

// Errors returned by the parsing functions.
var (
	// ErrUnknownRegion is returned for a name that is not a known region.
	ErrUnknownRegion = errors.New("region: unknown region")

	// ErrDuplicateRegion is returned when a list names a region twice.
	ErrDuplicateRegion = errors.New("region: region listed more than once")
)

var regionInfo = [numRegions]struct {
	code        string
	description string
	aliases     []string
}{
	P: {"P", "International", []string{"EU", "PAL", "INTERNATIONAL"}},
	E: {"E", "North America", []string{"US", "USA", "NA"}},
	J: {"J", "Japan", []string{"JP", "JPN"}},
	K: {"K", "Korea", []string{"KR", "KOR"}},
	W: {"W", "Taiwan", []string{"TW", "TWN"}},
	C: {"C", "China", []string{"CN", "CHN"}},
}

// All returns every region in default priority order.
func All() []Region {
	return []Region{P, E, J, K, W, C}
}

// Valid reports whether r is a known region.
func (r Region) Valid() bool {
	return r < numRegions
}

// String returns the region's game-code letter.
func (r Region) String() string {
	if !r.Valid() {
		return fmt.Sprintf("Region(%d)", uint8(r))
	}
	return regionInfo[r].code
}

// Description returns a human-readable name for the region.
func (r Region) Description() string {
	if !r.Valid() {
		return r.String()
	}
	return regionInfo[r].description
}

// Set parses s into r. Together with String and Type it lets a Region be
// used directly as a command-line flag value.
func (r *Region) Set(s string) error {
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Type names the flag value type.
func (r *Region) Type() string {
	return "region"
}

// Parse parses a region letter (P, E, J, K, W, C) or a common alias such as
// "EU" or "US". Matching is case-insensitive.
func Parse(s string) (Region, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for _, r := range All() {
		info := regionInfo[r]
		if name == info.code {
			return r, nil
		}
		for _, alias := range info.aliases {
			if name == alias {
				return r, nil
			}
		}
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownRegion, s)
}

// ParseList parses "all" (every region in default order) or a
// comma-separated list of regions, preserving the listed order.
func ParseList(s string) ([]Region, error) {
	if strings.EqualFold(strings.TrimSpace(s), "all") {
		return All(), nil
	}
	var seen Set
	var out []Region
	for _, item := range strings.Split(s, ",") {
		r, err := Parse(item)
		if err != nil {
			return nil, err
		}
		if seen.Has(r) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRegion, r)
		}
		seen = seen.Add(r)
		out = append(out, r)
	}
	return out, nil
}

// Set is a set of regions.
type Set uint8

// NewSet returns a set holding the given regions.
func NewSet(regions ...Region) Set {
	var s Set
	for _, r := range regions {
		s = s.Add(r)
	}
	return s
}

// AllSet returns the set of every region.
func AllSet() Set {
	return NewSet(All()...)
}

// Add returns s with r added. Invalid regions are ignored.
func (s Set) Add(r Region) Set {
	if !r.Valid() {
		return s
	}
	return s | 1<<r
}

// Has reports whether r is in s.
func (s Set) Has(r Region) bool {
	return r.Valid() && s&(1<<r) != 0
}

// Union returns the regions in either set.
func (s Set) Union(o Set) Set {
	return s | o
}

// Intersect returns the regions in both sets.
func (s Set) Intersect(o Set) Set {
	return s & o
}

// Empty reports whether s has no valid regions. Bits outside the known
// regions are ignored.
func (s Set) Empty() bool {
	return s&AllSet() == 0
}

// Len returns the number of regions in s.
func (s Set) Len() int {
	n := 0
	for range s.All() {
		n++
	}
	return n
}

// All iterates over the regions in s in default priority order.
func (s Set) All() iter.Seq[Region] {
	return func(yield func(Region) bool) {
		for _, r := range All() {
			if s.Has(r) && !yield(r) {
				return
			}
		}
	}
}

// First returns the highest-priority region in s.
func (s Set) First() (Region, bool) {
	for r := range s.All() {
		return r, true
	}
	return 0, false
}

// String returns the regions as a comma-separated list, e.g. "P,E".
func (s Set) String() string {
	var parts []string
	for r := range s.All() {
		parts = append(parts, r.String())
	}
	return strings.Join(parts, ",")
}

// Set parses a region list (see ParseList) into s, for use as a flag value.
func (s *Set) Set(v string) error {
	regions, err := ParseList(v)
	if err != nil {
		return err
	}
	*s = NewSet(regions...)
	return nil
}

// Type names the flag value type.
func (s *Set) Type() string {
	return "regions"
}
