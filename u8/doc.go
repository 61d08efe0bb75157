// Package u8 reads and writes U8 archives, the "U\xaa8-" container the Wii
// uses to bundle layouts, animations and textures into a single .arc file.
//
// An archive is a shallow directory tree of named nodes. File nodes refer to
// payload slots held in the archive's arena by [PayloadID], so several names
// can share one copy of the underlying bytes:
//
//	a := u8.New()
//	id := a.AddPayload(data)
//	_ = a.AddFile("arc/blyt/openingTitle_EU_00.brlyt", id)
//	_ = a.AddFile("arc/blyt/openingTitle_US_00.brlyt", id)
//	out, err := u8.Serialize(a)
//
// [Parse] turns raw bytes into an [Archive] and [Serialize] turns it back.
// Payload contents are never interpreted.
package u8
