package format

import (
	"fmt"
	"math/bits"

	"github.com/joshuapare/romkit/internal/buf"
)

// Checksum is the header checksum pair. A consistent pair satisfies
// Sum + Complement == 0xFFFF.
type Checksum struct {
	Sum        uint16
	Complement uint16
}

// Valid reports whether the pair is self-consistent. It says nothing about
// whether Sum matches the image contents; see VerifyChecksum.
func (c Checksum) Valid() bool {
	return uint32(c.Sum)+uint32(c.Complement) == 0xFFFF
}

func (c Checksum) String() string {
	return fmt.Sprintf("checksum=0x%04X complement=0x%04X", c.Sum, c.Complement)
}

// ComputeChecksum returns the checksum the header at base should carry.
//
// The sum is taken with the checksum field set to 0x0000 and the complement
// to 0xFFFF, so the result does not depend on what the fields currently
// hold. Images whose size is not a power of two have their tail mirrored up
// to the next power of two, matching what cartridge hardware presents.
// The image is left unchanged.
func ComputeChecksum(image []byte, base int) (Checksum, error) {
	field, ok := buf.Slice(image, base+HeaderComplementOffset, 4)
	if !ok {
		return Checksum{}, fmt.Errorf("checksum field at 0x%06X: %w", base+HeaderComplementOffset, ErrTruncated)
	}
	var saved [4]byte
	copy(saved[:], field)
	field[0], field[1], field[2], field[3] = 0xFF, 0xFF, 0x00, 0x00
	sum, _ := mirroredSum(image)
	copy(field, saved[:])

	s := uint16(sum)
	return Checksum{Sum: s, Complement: 0xFFFF - s}, nil
}

// ApplyChecksum computes the checksum and writes both fields.
func ApplyChecksum(image []byte, base int) (Checksum, error) {
	c, err := ComputeChecksum(image, base)
	if err != nil {
		return Checksum{}, err
	}
	buf.PutU16LE(image, base+HeaderComplementOffset, c.Complement)
	buf.PutU16LE(image, base+HeaderChecksumOffset, c.Sum)
	return c, nil
}

// VerifyChecksum reports whether the stored pair matches the image contents.
func VerifyChecksum(image []byte, base int) bool {
	want, err := ComputeChecksum(image, base)
	if err != nil {
		return false
	}
	got := Checksum{
		Complement: buf.U16LE(image[base+HeaderComplementOffset:]),
		Sum:        buf.U16LE(image[base+HeaderChecksumOffset:]),
	}
	return got == want
}

// mirroredSum returns the byte sum of data mirrored to a power-of-two length,
// along with that length. uint32 wraparound is harmless: only the low 16
// bits are kept.
func mirroredSum(data []byte) (uint32, int) {
	n := len(data)
	if n == 0 {
		return 0, 0
	}
	p := 1 << (bits.Len(uint(n)) - 1)
	head := plainSum(data[:p])
	if p == n {
		return head, n
	}
	tail, tailLen := mirroredSum(data[p:])
	return head + tail*uint32(p/tailLen), 2 * p
}

func plainSum(data []byte) uint32 {
	var s uint32
	for _, b := range data {
		s += uint32(b)
	}
	return s
}
