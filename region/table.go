package region

import (
	"fmt"

	"github.com/meigma/smallworld/u8"
)

// Role is a logical file of openingTitle.arc that each region stores under
// its own filename.
type Role uint8

// Roles in archive order.
const (
	InPress   Role = iota // "press 2" prompt fade-in animation
	InTitle               // title fade-in animation
	LoopPress             // "press 2" prompt loop animation
	OutPress              // "press 2" prompt fade-out animation
	Layout                // title screen layout
	Image                 // title logo texture

	numRoles = iota
)

// Archive directories holding the region-specific files.
const (
	AnimDir   = "arc/anim"
	LayoutDir = "arc/blyt"
	ImageDir  = "arc/timg"
)

var roleInfo = [numRoles]struct {
	name string
	dir  string
}{
	InPress:   {"inPress animation", AnimDir},
	InTitle:   {"inTitle animation", AnimDir},
	LoopPress: {"loopPress animation", AnimDir},
	OutPress:  {"outPress animation", AnimDir},
	Layout:    {"layout", LayoutDir},
	Image:     {"logo image", ImageDir},
}

// filenames is indexed by role, then region. The International and North
// American releases ship the same logo texture under the same name.
var filenames = [numRoles][numRegions]string{
	InPress: {
		P: "openingTitle_EU_00_inPress.brlan",
		E: "openingTitle_US_00_inPress.brlan",
		J: "openingTitle_13_inPress.brlan",
		K: "openingTitle_KR_00_inPress.brlan",
		W: "openingTitle_TW_00_inPress.brlan",
		C: "openingTitle_CN_00_inPress.brlan",
	},
	InTitle: {
		P: "openingTitle_EU_00_inTitle.brlan",
		E: "openingTitle_US_00_inTitle.brlan",
		J: "openingTitle_13_inTitle.brlan",
		K: "openingTitle_KR_00_inTitle.brlan",
		W: "openingTitle_TW_00_inTitle.brlan",
		C: "openingTitle_CN_00_inTitle.brlan",
	},
	LoopPress: {
		P: "openingTitle_EU_00_loopPress.brlan",
		E: "openingTitle_US_00_loopPress.brlan",
		J: "openingTitle_13_loopPress.brlan",
		K: "openingTitle_KR_00_loopPress.brlan",
		W: "openingTitle_TW_00_loopPress.brlan",
		C: "openingTitle_CN_00_loopPress.brlan",
	},
	OutPress: {
		P: "openingTitle_EU_00_outPress.brlan",
		E: "openingTitle_US_00_outPress.brlan",
		J: "openingTitle_13_outPress.brlan",
		K: "openingTitle_KR_00_outPress.brlan",
		W: "openingTitle_TW_00_outPress.brlan",
		C: "openingTitle_CN_00_outPress.brlan",
	},
	Layout: {
		P: "openingTitle_EU_00.brlyt",
		E: "openingTitle_US_00.brlyt",
		J: "openingTitle_13.brlyt",
		K: "openingTitle_KR_00.brlyt",
		W: "openingTitle_TW_00.brlyt",
		C: "openingTitle_CN_00.brlyt",
	},
	Image: {
		P: "wiiMario_Title_logo_local_00.tpl",
		E: "wiiMario_Title_logo_local_00.tpl",
		J: "wiiMario_Title_logo_00.tpl",
		K: "wiiMario_Title_logo_KOR.tpl",
		W: "wiiMario_Title_logo_TW.tpl",
		C: "wiiMario_Title_logo_CN.tpl",
	},
}

// match is a reverse-lookup result.
type match struct {
	role    Role
	regions Set
}

// byPath maps folded archive paths (see u8.FoldName) to the role and regions
// using them.
var byPath = func() map[string]match {
	m := make(map[string]match)
	for _, role := range Roles() {
		for _, r := range All() {
			key := u8.FoldName(Path(role, r))
			entry := m[key]
			entry.role = role
			entry.regions = entry.regions.Add(r)
			m[key] = entry
		}
	}
	return m
}()

// Roles returns every role in archive order.
func Roles() []Role {
	return []Role{InPress, InTitle, LoopPress, OutPress, Layout, Image}
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r < numRoles
}

// String returns a short human-readable name for the role.
func (r Role) String() string {
	if !r.Valid() {
		return fmt.Sprintf("Role(%d)", uint8(r))
	}
	return roleInfo[r].name
}

// Dir returns the archive directory holding the role's files.
func (r Role) Dir() string {
	return roleInfo[r].dir
}

// Filename returns the base filename region expects for role.
func Filename(role Role, r Region) string {
	return filenames[role][r]
}

// Path returns the full archive path region expects for role.
func Path(role Role, r Region) string {
	return role.Dir() + "/" + Filename(role, r)
}

// Lookup returns the role stored at an archive path and every region that
// expects that exact path. The path is normalized with u8.NormalizePath and
// compared the way the archive compares names, ignoring ASCII case only.
// Paths that belong to no role report ok == false.
func Lookup(path string) (role Role, regions Set, ok bool) {
	m, ok := byPath[u8.FoldName(u8.NormalizePath(path))]
	return m.role, m.regions, ok
}
