// Package format houses the low-level layout of SNES cartridge images: the
// internal header, the valid image sizes, the optional copier header and
// the checksum algorithm. It is independent from the public API so the
// engine, backup and catalog packages can share one definition.
package format

// MapMode identifies how the cartridge maps ROM into the CPU bus.
type MapMode uint8

const (
	LoROM   MapMode = iota // 32 KiB chunks in the upper half of each bank
	HiROM                  // 64 KiB banks, contiguous
	ExHiROM                // HiROM extended past 4 MiB
)

func (m MapMode) String() string {
	switch m {
	case LoROM:
		return "LoROM"
	case HiROM:
		return "HiROM"
	case ExHiROM:
		return "ExHiROM"
	default:
		return "unknown"
	}
}

// HeaderBase returns the image offset of the internal header for m.
func (m MapMode) HeaderBase() int {
	switch m {
	case HiROM:
		return HiROMHeaderBase
	case ExHiROM:
		return ExHiROMHeaderBase
	default:
		return LoROMHeaderBase
	}
}

// Header locations by mapping. The header mirrors CPU $00:FFC0-$00:FFDF.
const (
	LoROMHeaderBase   = 0x007FC0
	HiROMHeaderBase   = 0x00FFC0
	ExHiROMHeaderBase = 0x40FFC0
)

// Header layout, relative to the header base.
//
//	Offset  Size  Description
//	------  ----  ----------------------------------------------------------
//	 0x00    21   Title (JIS X 0201, space padded)
//	 0x15     1   Map mode (0x20 LoROM, 0x21 HiROM, 0x25 ExHiROM, +0x10 FastROM)
//	 0x16     1   Cartridge type (coprocessor / SRAM / battery)
//	 0x17     1   ROM size, log2(KiB)
//	 0x18     1   SRAM size, log2(KiB)
//	 0x19     1   Destination / region code
//	 0x1A     1   Developer id (0x33 = extended header present)
//	 0x1B     1   Version
//	 0x1C     2   Checksum complement (little-endian)
//	 0x1E     2   Checksum (little-endian)
//	 0x20    32   Interrupt vectors
const (
	HeaderTitleOffset      = 0x00
	HeaderTitleLen         = 21
	HeaderMapModeOffset    = 0x15
	HeaderCartTypeOffset   = 0x16
	HeaderROMSizeOffset    = 0x17
	HeaderSRAMSizeOffset   = 0x18
	HeaderRegionOffset     = 0x19
	HeaderDeveloperOffset  = 0x1A
	HeaderVersionOffset    = 0x1B
	HeaderComplementOffset = 0x1C
	HeaderChecksumOffset   = 0x1E

	// HeaderLen is the size of the header proper.
	HeaderLen = 0x20

	// VectorsOffset and VectorsLen locate the interrupt vector table that
	// follows the header.
	VectorsOffset = 0x20
	VectorsLen    = 0x20

	// ResetVectorOffset is the emulation-mode RESET vector ($FFFC), relative
	// to the header base.
	ResetVectorOffset = 0x3C
)

// CopierHeaderSize is the size of the optional header prepended by backup
// devices (SMC/SWC). It is not part of the cartridge image.
const CopierHeaderSize = 512

// ValidSizes lists the image sizes accepted at load time, in bytes.
var ValidSizes = []int{
	0x040000, // 2 Mbit
	0x080000, // 4 Mbit
	0x100000, // 8 Mbit
	0x180000, // 12 Mbit
	0x200000, // 16 Mbit
	0x280000, // 20 Mbit
	0x300000, // 24 Mbit
	0x400000, // 32 Mbit
	0x600000, // 48 Mbit
	0x800000, // 64 Mbit
}

// IsValidSize reports whether n is one of ValidSizes.
func IsValidSize(n int) bool {
	for _, s := range ValidSizes {
		if s == n {
			return true
		}
	}
	return false
}

// SplitCopierHeader separates a copier header from the cartridge image.
// Files whose length is 512 bytes past a 1 KiB boundary carry one; copier
// is nil otherwise. Both results alias data.
func SplitCopierHeader(data []byte) (copier, image []byte) {
	if len(data)%1024 == CopierHeaderSize {
		return data[:CopierHeaderSize], data[CopierHeaderSize:]
	}
	return nil, data
}
