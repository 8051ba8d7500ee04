package addrspace

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/romkit/internal/format"
	"github.com/joshuapare/romkit/pkg/types"
)

func newDefaultSpace(t *testing.T, size int) *Space {
	t.Helper()
	s, err := New(size, LoROM, DefaultRegions(size, format.LoROMHeaderBase)...)
	require.NoError(t, err)
	return s
}

func TestSpace_Validate(t *testing.T) {
	s := newDefaultSpace(t, 0x100000)

	require.True(t, s.Validate(0))
	require.True(t, s.Validate(0xFFFFF))
	require.False(t, s.Validate(0x100000))
	require.False(t, s.Validate(0xFFFFFFFF))
}

func TestSpace_ClassifyInnermost(t *testing.T) {
	s := newDefaultSpace(t, 0x100000)

	r, ok := s.Classify(0x274F4)
	require.True(t, ok)
	require.Equal(t, "rom", r.Name)
	require.True(t, s.IsWritable(0x274F4))

	r, ok = s.Classify(format.LoROMHeaderBase + format.HeaderChecksumOffset)
	require.True(t, ok)
	require.Equal(t, "header", r.Name)
	require.False(t, s.IsWritable(format.LoROMHeaderBase+format.HeaderChecksumOffset))

	r, ok = s.Classify(format.LoROMHeaderBase + format.ResetVectorOffset)
	require.True(t, ok)
	require.Equal(t, "vectors", r.Name)

	// Just past the vectors falls back to the enclosing rom region.
	r, ok = s.Classify(format.LoROMHeaderBase + 0x40)
	require.True(t, ok)
	require.Equal(t, "rom", r.Name)

	_, ok = s.Classify(0x100000)
	require.False(t, ok)
}

func TestSpace_DeepNestingAndSiblings(t *testing.T) {
	s, err := New(0x1000, LoROM,
		Region{Name: "bank", Start: 0x000, End: 0x1000, Writable: false},
		Region{Name: "table", Start: 0x100, End: 0x200, Writable: true},
		Region{Name: "entry", Start: 0x140, End: 0x150, Writable: false},
		Region{Name: "sibling", Start: 0x300, End: 0x400, Writable: true},
	)
	require.NoError(t, err)

	tests := []struct {
		addr     Address
		name     string
		writable bool
	}{
		{0x050, "bank", false},
		{0x100, "table", true},
		{0x145, "entry", false},
		{0x150, "table", true},
		{0x250, "bank", false},
		{0x3FF, "sibling", true},
	}
	for _, tt := range tests {
		r, ok := s.Classify(tt.addr)
		require.True(t, ok, tt.addr.String())
		require.Equal(t, tt.name, r.Name, tt.addr.String())
		require.Equal(t, tt.writable, s.IsWritable(tt.addr), tt.addr.String())
	}
}

func TestSpace_UnmappedNeverWritable(t *testing.T) {
	s, err := New(0x1000, LoROM, Region{Name: "patch", Start: 0x800, End: 0x900, Writable: true})
	require.NoError(t, err)

	_, ok := s.Classify(0x10)
	require.False(t, ok)
	require.False(t, s.IsWritable(0x10))
	require.ErrorIs(t, s.CheckWritable(0x10), types.ErrNotWritable)
	require.ErrorIs(t, s.CheckWritable(0x1000), types.ErrOutOfBounds)
	require.NoError(t, s.CheckWritable(0x850))
}

func TestNew_RejectsPartialOverlap(t *testing.T) {
	_, err := New(0x1000, LoROM,
		Region{Name: "a", Start: 0x000, End: 0x200},
		Region{Name: "b", Start: 0x100, End: 0x300},
	)
	require.ErrorIs(t, err, types.ErrInvalidValue)
	require.Contains(t, err.Error(), "partially overlaps")
}

func TestNew_RejectsBadRegions(t *testing.T) {
	_, err := New(0x1000, LoROM, Region{Name: "past", Start: 0xF00, End: 0x1001})
	require.ErrorIs(t, err, types.ErrOutOfBounds)

	_, err = New(0x1000, LoROM, Region{Name: "empty", Start: 0x10, End: 0x10})
	require.ErrorIs(t, err, types.ErrInvalidValue)

	_, err = New(0, LoROM)
	require.ErrorIs(t, err, types.ErrInvalidSize)
}

func TestNew_EqualRangesNest(t *testing.T) {
	s, err := New(0x100, LoROM,
		Region{Name: "outer", Start: 0, End: 0x100, Writable: true},
		Region{Name: "inner", Start: 0, End: 0x100, Writable: false},
	)
	require.NoError(t, err)
	r, ok := s.Classify(0x10)
	require.True(t, ok)
	require.Equal(t, "inner", r.Name, "later of two equal regions is the more specific")
}

func TestSpace_CheckRange(t *testing.T) {
	s := newDefaultSpace(t, 0x100000)
	require.NoError(t, s.CheckRange(0x274F4, 2))
	require.NoError(t, s.CheckRange(0x100000, 0))
	require.ErrorIs(t, s.CheckRange(0xFFFFF, 2), types.ErrOutOfBounds)
}

func TestLoadRegions_JSONC(t *testing.T) {
	src := `[
  // player stats
  {"name": "stats", "start": "0x274F0", "end": "0x27500", "writable": true, "purpose": "hp/mp"},
  {"name": "font", "start": 4096, "end": 8192, "writable": false},
]`
	regions, err := LoadRegions(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, regions, 2)
	require.Equal(t, Region{Name: "stats", Start: 0x274F0, End: 0x27500, Writable: true, Purpose: "hp/mp"}, regions[0])
	require.Equal(t, Address(0x1000), regions[1].Start)

	s, err := New(0x100000, LoROM, regions...)
	require.NoError(t, err)
	require.True(t, s.IsWritable(0x274F4))
}

func TestLoadRegions_Errors(t *testing.T) {
	_, err := LoadRegions(strings.NewReader(`[{"name": "x", "start": 0, "end": 1, "color": "red"}]`))
	require.ErrorIs(t, err, types.ErrInvalidValue, "unknown fields are rejected")

	_, err = LoadRegions(strings.NewReader(`[{"start": 0, "end": 1}]`))
	require.ErrorIs(t, err, types.ErrInvalidValue)
}

func TestDefaultRegions_SmallImage(t *testing.T) {
	regions := DefaultRegions(0x100, format.LoROMHeaderBase)
	require.Len(t, regions, 1, "header outside the image is not mapped")
}
