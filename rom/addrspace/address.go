package addrspace

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/joshuapare/romkit/pkg/types"
)

// Address is an offset into the ROM image.
type Address uint32

func (a Address) String() string {
	return fmt.Sprintf("0x%06X", uint32(a))
}

// MarshalText renders the address as 0x-prefixed hex.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText accepts 0x-prefixed hex or plain decimal.
func (a *Address) UnmarshalText(text []byte) error {
	v, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// UnmarshalJSON accepts either a JSON number or a hex/decimal string.
func (a *Address) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		return a.UnmarshalText([]byte(s))
	}
	var v uint32
	if err := json.Unmarshal(data, &v); err != nil {
		return types.Wrap(types.ErrKindInvalidValue, "addrspace.Address", err, "invalid address %s", data)
	}
	*a = Address(v)
	return nil
}

// ParseAddress parses a file offset: "0x274F4", "274F4h" or decimal "160500".
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	base := 10
	switch {
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		s, base = s[2:], 16
	case strings.HasSuffix(s, "h"), strings.HasSuffix(s, "H"):
		s, base = s[:len(s)-1], 16
	}
	v, err := strconv.ParseUint(s, base, 32)
	if err != nil {
		return 0, types.Wrap(types.ErrKindInvalidValue, "addrspace.ParseAddress", err, "invalid address %q", s)
	}
	return Address(v), nil
}

// BusAddress is a 24-bit CPU bus address: bank in bits 16-23, offset in
// bits 0-15.
type BusAddress uint32

// NewBusAddress composes a bus address from bank and offset.
func NewBusAddress(bank uint8, offset uint16) BusAddress {
	return BusAddress(uint32(bank)<<16 | uint32(offset))
}

// Bank returns bits 16-23.
func (b BusAddress) Bank() uint8 { return uint8(b >> 16) }

// Offset returns bits 0-15.
func (b BusAddress) Offset() uint16 { return uint16(b) }

func (b BusAddress) String() string {
	return fmt.Sprintf("$%02X:%04X", b.Bank(), b.Offset())
}

// MarshalText renders the address as "$BB:OOOO".
func (b BusAddress) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText accepts any form ParseBusAddress does.
func (b *BusAddress) UnmarshalText(text []byte) error {
	v, err := ParseBusAddress(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// ParseBusAddress parses "$7E:F36D", "7E:F36D", "$7EF36D" or "0x7EF36D".
func ParseBusAddress(s string) (BusAddress, error) {
	const op = "addrspace.ParseBusAddress"
	orig := s
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
	}
	if bank, off, ok := strings.Cut(s, ":"); ok {
		b, err := strconv.ParseUint(bank, 16, 8)
		if err != nil {
			return 0, types.Wrap(types.ErrKindInvalidValue, op, err, "invalid bank in %q", orig)
		}
		o, err := strconv.ParseUint(off, 16, 16)
		if err != nil {
			return 0, types.Wrap(types.ErrKindInvalidValue, op, err, "invalid offset in %q", orig)
		}
		return NewBusAddress(uint8(b), uint16(o)), nil
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, types.Wrap(types.ErrKindInvalidValue, op, err, "invalid bus address %q", orig)
	}
	if v > 0xFFFFFF {
		return 0, types.New(types.ErrKindInvalidValue, op, "bus address %q exceeds 24 bits", orig)
	}
	return BusAddress(v), nil
}
