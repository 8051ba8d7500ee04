// Package buf contains bounds and endian helpers for raw image buffers.
package buf

import "encoding/binary"

// U16LE reads a little-endian uint16 from b. Returns 0 when b is too short.
func U16LE(b []byte) uint16 {
	if len(b) < 2 {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

// PutU16LE writes v to b[off:off+2]. It reports false when the range does
// not fit.
func PutU16LE(b []byte, off int, v uint16) bool {
	dst, ok := Slice(b, off, 2)
	if !ok {
		return false
	}
	binary.LittleEndian.PutUint16(dst, v)
	return true
}
