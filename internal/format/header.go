package format

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"

	"github.com/joshuapare/romkit/internal/buf"
)

// Header captures the fields of the SNES internal header.
type Header struct {
	Base         int     // image offset the header was read from
	Mode         MapMode // mapping the header location implies
	Title        string  // decoded, trailing padding removed
	MapModeByte  uint8
	CartType     uint8
	ROMSizeCode  uint8
	SRAMSizeCode uint8
	Region       uint8
	Developer    uint8
	Version      uint8
	Checksum     Checksum
	ResetVector  uint16
}

// FastROM reports whether the map mode byte selects 3.58 MHz ROM access.
func (h Header) FastROM() bool {
	return h.MapModeByte&0x10 != 0
}

// ROMSizeBytes decodes the ROM size code (2^n KiB). Returns 0 for codes
// outside the documented range.
func (h Header) ROMSizeBytes() int {
	if h.ROMSizeCode < 0x08 || h.ROMSizeCode > 0x0D {
		return 0
	}
	return 1024 << h.ROMSizeCode
}

// ParseHeader reads the header at mode's base.
func ParseHeader(image []byte, mode MapMode) (Header, error) {
	base := mode.HeaderBase()
	raw, ok := buf.Slice(image, base, HeaderLen+VectorsLen)
	if !ok {
		return Header{}, fmt.Errorf("%s header at 0x%06X: %w", mode, base, ErrTruncated)
	}
	return Header{
		Base:         base,
		Mode:         mode,
		Title:        decodeTitle(raw[HeaderTitleOffset : HeaderTitleOffset+HeaderTitleLen]),
		MapModeByte:  raw[HeaderMapModeOffset],
		CartType:     raw[HeaderCartTypeOffset],
		ROMSizeCode:  raw[HeaderROMSizeOffset],
		SRAMSizeCode: raw[HeaderSRAMSizeOffset],
		Region:       raw[HeaderRegionOffset],
		Developer:    raw[HeaderDeveloperOffset],
		Version:      raw[HeaderVersionOffset],
		Checksum: Checksum{
			Complement: buf.U16LE(raw[HeaderComplementOffset:]),
			Sum:        buf.U16LE(raw[HeaderChecksumOffset:]),
		},
		ResetVector: buf.U16LE(raw[ResetVectorOffset:]),
	}, nil
}

// DetectMapMode scores every candidate header location and returns the most
// plausible mapping. Ties prefer LoROM, then HiROM. An image with no
// plausible header (for example all zeroes) detects as LoROM.
func DetectMapMode(image []byte) MapMode {
	best, bestScore := LoROM, -1
	for _, mode := range []MapMode{LoROM, HiROM, ExHiROM} {
		if mode == ExHiROM && len(image) <= 0x400000 {
			continue
		}
		if s := scoreHeader(image, mode); s > bestScore {
			best, bestScore = mode, s
		}
	}
	return best
}

func scoreHeader(image []byte, mode MapMode) int {
	h, err := ParseHeader(image, mode)
	if err != nil {
		return -1
	}
	score := 0
	if h.Checksum.Valid() {
		score += 4
		if h.Checksum.Sum != 0 && h.Checksum.Sum != 0xFFFF {
			score += 2
		}
	}
	var wantNibble uint8
	switch mode {
	case HiROM:
		wantNibble = 0x01
	case ExHiROM:
		wantNibble = 0x05
	}
	if h.MapModeByte&0x0F == wantNibble {
		score += 2
	}
	if h.MapModeByte&0xE0 == 0x20 {
		score++
	}
	if h.ResetVector >= 0x8000 {
		score += 2
	}
	if h.ROMSizeBytes() != 0 {
		score++
	}
	if titlePrintable(image[h.Base : h.Base+HeaderTitleLen]) {
		score++
	}
	return score
}

func titlePrintable(raw []byte) bool {
	for _, c := range raw {
		switch {
		case c == 0x00, c >= 0x20 && c <= 0x7E, c >= 0xA1 && c <= 0xDF:
		default:
			return false
		}
	}
	return true
}

// decodeTitle decodes the JIS X 0201 title. Single-byte Shift JIS is a
// superset of JIS X 0201 (ASCII plus half-width katakana at 0xA1-0xDF).
func decodeTitle(raw []byte) string {
	decoded, err := japanese.ShiftJIS.NewDecoder().Bytes(raw)
	if err != nil || !utf8.Valid(decoded) {
		var sb strings.Builder
		for _, c := range raw {
			if c >= 0x20 && c <= 0x7E {
				sb.WriteByte(c)
			}
		}
		decoded = []byte(sb.String())
	}
	return strings.TrimRight(string(decoded), " \x00")
}
