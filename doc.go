// Package smallworld makes the title screen archive of New Super Mario Bros.
// Wii (openingTitle.arc) region-free, and converts region-free archives back
// to a single region.
//
// Every release of the game loads its title screen layout, animations and
// logo from filenames that carry a region tag. A region-free archive lists
// every region's filename for each of these files, with all names pointing at
// one shared payload, so the same archive works in every release.
//
// The archive container itself lives in the [u8] package and the static
// filename table in the [region] package. This package holds the conversion
// engine.
//
// # Merging
//
// Merge an archive taken from one or more releases:
//
//	out, err := smallworld.MergeBytes(data, smallworld.DefaultPolicy())
//	if err != nil {
//	    return err
//	}
//
// When two regions ship different contents for the same logical file, the
// default [Strict] policy fails with a [*ConflictError] rather than picking
// one. [Prefer] resolves such conflicts in favour of one region instead.
//
// # Splitting
//
// Editing one filename of a region-free archive would break the sharing, so
// edits go through a split:
//
//	single, err := smallworld.SplitBytes(data, region.P, smallworld.DefaultPolicy())
//
// Split keeps one filename per logical file. Merging the edited archive again
// restores the region-free form.
//
// Entries the filename table does not recognize are carried through both
// operations unchanged.
package smallworld
