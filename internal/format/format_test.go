package format

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/romkit/internal/buf"
)

// mkImage builds a zeroed image with a plausible header for mode.
func mkImage(t *testing.T, size int, mode MapMode, title string) []byte {
	t.Helper()
	img := make([]byte, size)
	base := mode.HeaderBase()
	copy(img[base:base+HeaderTitleLen], []byte(title))
	for i := len(title); i < HeaderTitleLen; i++ {
		img[base+i] = ' '
	}
	switch mode {
	case LoROM:
		img[base+HeaderMapModeOffset] = 0x20
	case HiROM:
		img[base+HeaderMapModeOffset] = 0x21
	case ExHiROM:
		img[base+HeaderMapModeOffset] = 0x25
	}
	img[base+HeaderROMSizeOffset] = 0x0A
	buf.PutU16LE(img, base+ResetVectorOffset, 0x8000)
	return img
}

func TestApplyChecksum_ComplementInvariant(t *testing.T) {
	img := mkImage(t, 0x100000, LoROM, "ZELDA TEST")
	img[0x274F4] = 0xE7
	img[0x274F5] = 0x03

	c, err := ApplyChecksum(img, LoROMHeaderBase)
	require.NoError(t, err)
	require.True(t, c.Valid())
	require.Equal(t, uint32(0xFFFF), uint32(c.Sum)+uint32(c.Complement))
	require.True(t, VerifyChecksum(img, LoROMHeaderBase))

	h, err := ParseHeader(img, LoROM)
	require.NoError(t, err)
	require.Equal(t, c, h.Checksum)
}

func TestComputeChecksum_IndependentOfStoredFields(t *testing.T) {
	img := mkImage(t, 0x80000, LoROM, "A")
	first, err := ComputeChecksum(img, LoROMHeaderBase)
	require.NoError(t, err)

	buf.PutU16LE(img, LoROMHeaderBase+HeaderChecksumOffset, 0x1234)
	buf.PutU16LE(img, LoROMHeaderBase+HeaderComplementOffset, 0x9999)
	second, err := ComputeChecksum(img, LoROMHeaderBase)
	require.NoError(t, err)
	require.Equal(t, first, second)

	require.Equal(t, uint16(0x1234), buf.U16LE(img[LoROMHeaderBase+HeaderChecksumOffset:]),
		"ComputeChecksum must not modify the image")
}

func TestVerifyChecksum_DetectsStaleSum(t *testing.T) {
	img := mkImage(t, 0x100000, LoROM, "STALE")
	_, err := ApplyChecksum(img, LoROMHeaderBase)
	require.NoError(t, err)

	img[0x1000]++
	require.False(t, VerifyChecksum(img, LoROMHeaderBase))
}

func TestMirroredSum(t *testing.T) {
	// 3 bytes: head [1,2] + tail [3] mirrored twice.
	sum, n := mirroredSum([]byte{1, 2, 3})
	require.Equal(t, uint32(1+2+3+3), sum)
	require.Equal(t, 4, n)

	// 12 Mbit image: 1 MiB head plus 512 KiB tail counted twice.
	img := make([]byte, 0x180000)
	img[0] = 1
	img[0x100000] = 1
	sum, n = mirroredSum(img)
	require.Equal(t, uint32(3), sum)
	require.Equal(t, 0x200000, n)
}

func TestChecksum_Truncated(t *testing.T) {
	_, err := ComputeChecksum(make([]byte, 0x100), LoROMHeaderBase)
	require.ErrorIs(t, err, ErrTruncated)
}

func TestDetectMapMode(t *testing.T) {
	tests := []struct {
		name string
		size int
		mode MapMode
	}{
		{"lorom", 0x100000, LoROM},
		{"hirom", 0x200000, HiROM},
		{"exhirom", 0x600000, ExHiROM},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := mkImage(t, tt.size, tt.mode, "DETECT")
			_, err := ApplyChecksum(img, tt.mode.HeaderBase())
			require.NoError(t, err)
			require.Equal(t, tt.mode, DetectMapMode(img))
		})
	}
}

func TestDetectMapMode_BlankImageIsLoROM(t *testing.T) {
	require.Equal(t, LoROM, DetectMapMode(make([]byte, 0x100000)))
}

func TestParseHeader_Fields(t *testing.T) {
	img := mkImage(t, 0x100000, LoROM, "THE LEGEND OF ZELDA")
	img[LoROMHeaderBase+HeaderMapModeOffset] = 0x30
	img[LoROMHeaderBase+HeaderVersionOffset] = 2

	h, err := ParseHeader(img, LoROM)
	require.NoError(t, err)
	require.Equal(t, "THE LEGEND OF ZELDA", h.Title)
	require.True(t, h.FastROM())
	require.Equal(t, uint8(2), h.Version)
	require.Equal(t, 0x100000, h.ROMSizeBytes())
	require.Equal(t, LoROMHeaderBase, h.Base)
}

func TestParseHeader_KatakanaTitle(t *testing.T) {
	img := make([]byte, 0x80000)
	copy(img[LoROMHeaderBase:], []byte{0xBE, 0xDE, 0xD9, 0xC0, ' ', ' '})

	h, err := ParseHeader(img, LoROM)
	require.NoError(t, err)
	require.Equal(t, "ｾﾞﾙﾀ", h.Title)
}

func TestSplitCopierHeader(t *testing.T) {
	data := make([]byte, 0x80000+CopierHeaderSize)
	data[CopierHeaderSize] = 0xAA

	copier, img := SplitCopierHeader(data)
	require.Len(t, copier, CopierHeaderSize)
	require.Len(t, img, 0x80000)
	require.Equal(t, byte(0xAA), img[0])

	copier, img = SplitCopierHeader(make([]byte, 0x80000))
	require.Nil(t, copier)
	require.Len(t, img, 0x80000)
}

func TestIsValidSize(t *testing.T) {
	require.True(t, IsValidSize(0x100000))
	require.True(t, IsValidSize(0x180000))
	require.False(t, IsValidSize(0x100001))
	require.False(t, IsValidSize(0))
}
