// Package patch provides byte-precise reads and writes against an in-memory
// SNES ROM image.
//
// Every write is validated against the image's addrspace.Space: the
// address must be inside the image and inside a writable region, and the
// value must fit in a byte. Writes return a WriteReport carrying the value
// that was overwritten, so a caller can undo by report instead of keeping
// a full snapshot.
//
// Writes only touch memory. Persisting the image is an explicit Save or
// WriteTo call; nothing is flushed per byte.
//
// Basic usage:
//
//	eng, err := patch.Load("game.sfc")
//	if err != nil {
//		return err
//	}
//	if _, err := eng.WriteBytes(0x274F4, []int{0xE7, 0x03}); err != nil {
//		return err
//	}
//	if _, err := eng.RecomputeChecksum(); err != nil {
//		return err
//	}
//	return eng.Save("game.patched.sfc")
package patch
