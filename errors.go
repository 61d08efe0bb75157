package smallworld

import (
	"errors"
	"fmt"
	"strings"

	"github.com/meigma/smallworld/region"
	"github.com/meigma/smallworld/u8"
)

// Sentinel errors.
var (
	// ErrConflict is returned when regions disagree on the contents of a
	// logical file and the policy does not resolve it. The concrete error is
	// a *ConflictError.
	ErrConflict = errors.New("smallworld: conflicting file contents")

	// ErrNoTargets is returned when a merge is asked to emit no regions.
	ErrNoTargets = errors.New("smallworld: no target regions")

	// ErrNoSources is returned when no region is left to read files from.
	ErrNoSources = errors.New("smallworld: no source regions")

	// ErrNameTaken is returned when a filename the output needs is held by a
	// file that is not a source version and the policy does not replace it.
	ErrNameTaken = errors.New("smallworld: filename already in use")

	// ErrInvalidRegion is returned for a split target that is not a known region.
	ErrInvalidRegion = errors.New("smallworld: invalid region")
)

// Errors re-exported from u8.
var (
	// ErrBadMagic is returned when the input is not a U8 archive.
	ErrBadMagic = u8.ErrBadMagic

	// ErrTruncated is returned when the input archive is cut short.
	ErrTruncated = u8.ErrTruncated

	// ErrMalformed is returned when the input archive's tables are inconsistent.
	ErrMalformed = u8.ErrMalformed
)

// ConflictError reports a logical file whose regional copies differ.
type ConflictError struct {
	// Op is "merge" or "split".
	Op string

	// Role is the logical file that disagreed.
	Role region.Role

	// Candidates are the distinct contents found, in archive order.
	Candidates []Candidate
}

func (e *ConflictError) Error() string {
	versions := make([]string, 0, len(e.Candidates))
	for _, c := range e.Candidates {
		versions = append(versions, fmt.Sprintf("%s %s", c.Regions, shortDigest(c)))
	}
	return fmt.Sprintf("%v: %s: %d different versions of the %s (%s)",
		ErrConflict, e.Op, len(e.Candidates), e.Role, strings.Join(versions, "; "))
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

func shortDigest(c Candidate) string {
	enc := c.Digest.Encoded()
	if len(enc) > 12 {
		enc = enc[:12]
	}
	return string(c.Digest.Algorithm()) + ":" + enc
}
