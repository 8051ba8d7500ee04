package addrspace

import (
	"github.com/joshuapare/romkit/pkg/types"
)

const exHiROMSplit = 0x400000

// FromBus converts a CPU bus address to an image offset using the space's
// mapping. WRAM banks ($7E-$7F), I/O windows and addresses beyond the
// image fail with an OutOfBounds error.
func (s *Space) FromBus(b BusAddress) (Address, error) {
	const op = "addrspace.FromBus"
	bank, off := b.Bank(), uint32(b.Offset())
	if bank == 0x7E || bank == 0x7F {
		return 0, types.New(types.ErrKindOutOfBounds, op, "%s is work RAM, not ROM", b)
	}

	var a uint32
	switch s.mapping {
	case HiROM:
		if !fullBank(bank) && off < 0x8000 {
			return 0, types.New(types.ErrKindOutOfBounds, op, "%s is in the system area of a HiROM bank", b)
		}
		a = uint32(bank&0x3F)<<16 | off
	case ExHiROM:
		if !fullBank(bank) && off < 0x8000 {
			return 0, types.New(types.ErrKindOutOfBounds, op, "%s is in the system area of an ExHiROM bank", b)
		}
		a = uint32(bank&0x3F)<<16 | off
		if bank&0x80 == 0 {
			a += exHiROMSplit
		}
	default:
		if off < 0x8000 {
			return 0, types.New(types.ErrKindOutOfBounds, op, "%s is in the lower half of a LoROM bank", b)
		}
		a = uint32(bank&0x7F)<<15 | (off & 0x7FFF)
	}

	if !s.Validate(Address(a)) {
		return 0, types.New(types.ErrKindOutOfBounds, op, "%s maps to %s, past image end 0x%06X", b, Address(a), s.size)
	}
	return Address(a), nil
}

// ToBus converts an image offset to its canonical bus address: banks
// $00-$7D (then $FE-$FF) for LoROM, $C0-$FF for HiROM, and $C0-$FF then
// $40-$7D for ExHiROM.
func (s *Space) ToBus(a Address) (BusAddress, error) {
	const op = "addrspace.ToBus"
	if !s.Validate(a) {
		return 0, types.New(types.ErrKindOutOfBounds, op, "address %s outside image of 0x%06X bytes", a, s.size)
	}
	v := uint32(a)
	switch s.mapping {
	case HiROM:
		if v >= exHiROMSplit {
			return 0, types.New(types.ErrKindOutOfBounds, op, "address %s beyond HiROM reach", a)
		}
		return NewBusAddress(uint8(0xC0|v>>16), uint16(v)), nil
	case ExHiROM:
		if v < exHiROMSplit {
			return NewBusAddress(uint8(0xC0|v>>16), uint16(v)), nil
		}
		bank := 0x40 | (v-exHiROMSplit)>>16
		if bank >= 0x7E {
			return 0, types.New(types.ErrKindOutOfBounds, op, "address %s falls under the work RAM banks", a)
		}
		return NewBusAddress(uint8(bank), uint16(v)), nil
	default:
		bank := v >> 15
		if bank >= 0x80 {
			return 0, types.New(types.ErrKindOutOfBounds, op, "address %s beyond LoROM reach", a)
		}
		if bank >= 0x7E {
			bank |= 0x80
		}
		return NewBusAddress(uint8(bank), uint16(0x8000|v&0x7FFF)), nil
	}
}

// fullBank reports whether every offset of bank maps to ROM under HiROM
// style mappings.
func fullBank(bank uint8) bool {
	return (bank >= 0x40 && bank <= 0x7D) || bank >= 0xC0
}
