package smallworld

import (
	"fmt"

	"github.com/meigma/smallworld/region"
)

// Policy decides which contents win when the regional copies of a logical
// file differ.
//
// The set of policies is closed: use [Strict] or [PreferRegion].
type Policy interface {
	// resolve picks one candidate of g, or reports a conflict.
	resolve(op string, g ConflictGroup) (Candidate, error)

	// replacesNames reports whether a resolved file may take over a name
	// held by a file that was copied through.
	replacesNames() bool

	fmt.Stringer
}

// DefaultPolicy returns the policy used when none is given: [Strict].
func DefaultPolicy() Policy {
	return Strict{}
}

// Strict refuses to choose: any logical file with more than one distinct
// version fails the operation.
type Strict struct{}

func (Strict) resolve(op string, g ConflictGroup) (Candidate, error) {
	if len(g.Candidates) == 1 {
		return g.Candidates[0], nil
	}
	return Candidate{}, g.conflict(op)
}

func (Strict) replacesNames() bool { return false }

func (Strict) String() string {
	return "strict"
}

// PreferRegion resolves conflicts in favour of the version shipped by
// Region. A conflicting file that Region did not supply still fails; there is
// no further fallback. A file copied through under a name the output needs
// is replaced. The zero value prefers [region.P].
type PreferRegion struct {
	Region region.Region
}

// Prefer returns a PreferRegion policy for r.
func Prefer(r region.Region) PreferRegion {
	return PreferRegion{Region: r}
}

func (p PreferRegion) resolve(op string, g ConflictGroup) (Candidate, error) {
	if len(g.Candidates) == 1 {
		return g.Candidates[0], nil
	}
	for _, c := range g.Candidates {
		if c.Regions.Has(p.Region) {
			return c, nil
		}
	}
	return Candidate{}, g.conflict(op)
}

func (PreferRegion) replacesNames() bool { return true }

func (p PreferRegion) String() string {
	return "prefer " + p.Region.String()
}
