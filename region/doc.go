// Package region holds the fixed table of region-specific filenames inside
// New Super Mario Bros. Wii's openingTitle.arc.
//
// Each [Role] is one logical file (a title-screen animation, the layout or
// the logo texture) that every [Region] expects under its own name. The
// table maps (role, region) to an archive path and back.
package region
