package addrspace

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/romkit/pkg/types"
)

func TestLoROM_Conversion(t *testing.T) {
	s, err := New(0x100000, LoROM)
	require.NoError(t, err)

	bus, err := s.ToBus(0x274F4)
	require.NoError(t, err)
	require.Equal(t, "$04:F4F4", bus.String())

	a, err := s.FromBus(bus)
	require.NoError(t, err)
	require.Equal(t, Address(0x274F4), a)

	// FastROM mirror resolves to the same offset.
	a, err = s.FromBus(NewBusAddress(0x84, 0xF4F4))
	require.NoError(t, err)
	require.Equal(t, Address(0x274F4), a)

	_, err = s.FromBus(NewBusAddress(0x00, 0x2100))
	require.ErrorIs(t, err, types.ErrOutOfBounds, "lower half of a LoROM bank is not ROM")

	_, err = s.FromBus(NewBusAddress(0x7E, 0xF36D))
	require.ErrorIs(t, err, types.ErrOutOfBounds, "WRAM is not ROM")

	_, err = s.FromBus(NewBusAddress(0x20, 0x8000))
	require.ErrorIs(t, err, types.ErrOutOfBounds, "bank $20 is past a 1 MiB image")
}

func TestHiROM_Conversion(t *testing.T) {
	s, err := New(0x200000, HiROM)
	require.NoError(t, err)

	bus, err := s.ToBus(0x1234AB)
	require.NoError(t, err)
	require.Equal(t, NewBusAddress(0xD2, 0x34AB), bus)

	a, err := s.FromBus(bus)
	require.NoError(t, err)
	require.Equal(t, Address(0x1234AB), a)

	a, err = s.FromBus(NewBusAddress(0x12, 0xC000))
	require.NoError(t, err)
	require.Equal(t, Address(0x12C000), a)

	_, err = s.FromBus(NewBusAddress(0x12, 0x4000))
	require.ErrorIs(t, err, types.ErrOutOfBounds)
}

func TestExHiROM_Conversion(t *testing.T) {
	s, err := New(0x600000, ExHiROM)
	require.NoError(t, err)

	for _, a := range []Address{0x000000, 0x3FFFFF, 0x400000, 0x5ABCDE} {
		bus, err := s.ToBus(a)
		require.NoError(t, err, a.String())
		back, err := s.FromBus(bus)
		require.NoError(t, err, a.String())
		require.Equal(t, a, back, bus.String())
	}

	bus, err := s.ToBus(0x400000)
	require.NoError(t, err)
	require.Equal(t, NewBusAddress(0x40, 0x0000), bus)
}

func TestLoROM_RoundTripAllBanks(t *testing.T) {
	s, err := New(0x400000, LoROM)
	require.NoError(t, err)

	for a := Address(0); int(a) < s.Size(); a += 0x7FFF {
		bus, err := s.ToBus(a)
		require.NoError(t, err)
		require.NotEqual(t, uint8(0x7E), bus.Bank())
		require.NotEqual(t, uint8(0x7F), bus.Bank())
		back, err := s.FromBus(bus)
		require.NoError(t, err)
		require.Equal(t, a, back)
	}
}

func TestToBus_OutOfBounds(t *testing.T) {
	s, err := New(0x100000, LoROM)
	require.NoError(t, err)
	_, err = s.ToBus(0x100000)
	require.ErrorIs(t, err, types.ErrOutOfBounds)
}
