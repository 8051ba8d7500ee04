package catalog

import (
	"fmt"
	"reflect"

	"github.com/joshuapare/romkit/rom/addrspace"
)

// Payload is the category-specific part of a discovery. Each category has
// exactly one payload type, and a discovery only accepts the payload of
// its own category.
type Payload interface {
	Category() Category
	clone() Payload
	validate(d *Discovery) error
}

// MemoryPayload describes a variable in ROM or its mirror in work RAM.
type MemoryPayload struct {
	DataType   string                `json:"data_type,omitempty"` // e.g. "u8", "u16", "flags"
	RAMAddress *addrspace.BusAddress `json:"ram_address,omitempty"`
	Min        *int                  `json:"min,omitempty"`
	Max        *int                  `json:"max,omitempty"`
	Values     map[string]string     `json:"values,omitempty"` // value -> meaning
}

func (*MemoryPayload) Category() Category { return CategoryMemory }

func (p *MemoryPayload) clone() Payload {
	c := *p
	c.RAMAddress = clonePtr(p.RAMAddress)
	c.Min, c.Max = clonePtr(p.Min), clonePtr(p.Max)
	if p.Values != nil {
		c.Values = make(map[string]string, len(p.Values))
		for k, v := range p.Values {
			c.Values[k] = v
		}
	}
	return &c
}

func (p *MemoryPayload) validate(*Discovery) error {
	if p.Min != nil && p.Max != nil && *p.Min > *p.Max {
		return fmt.Errorf("min %d greater than max %d", *p.Min, *p.Max)
	}
	return nil
}

// ItemPayload describes an inventory item.
type ItemPayload struct {
	ItemID   int    `json:"item_id"`
	Slot     string `json:"slot,omitempty"`
	MaxCount int    `json:"max_count,omitempty"`
}

func (*ItemPayload) Category() Category { return CategoryItem }
func (p *ItemPayload) clone() Payload   { c := *p; return &c }

func (p *ItemPayload) validate(*Discovery) error {
	if p.ItemID < 0 || p.MaxCount < 0 {
		return fmt.Errorf("negative item id or count")
	}
	return nil
}

// SpritePayload describes a sprite definition.
type SpritePayload struct {
	SpriteID int `json:"sprite_id"`
	Palette  int `json:"palette,omitempty"`
	Width    int `json:"width,omitempty"`
	Height   int `json:"height,omitempty"`
}

func (*SpritePayload) Category() Category { return CategorySprite }
func (p *SpritePayload) clone() Payload   { c := *p; return &c }

func (p *SpritePayload) validate(*Discovery) error {
	if p.Palette < 0 || p.Palette > 7 {
		return fmt.Errorf("palette %d outside 0-7", p.Palette)
	}
	return nil
}

// RoutinePayload describes a code routine.
type RoutinePayload struct {
	Signature string                `json:"signature,omitempty"`
	Entry     *addrspace.BusAddress `json:"entry,omitempty"`
	Return    string                `json:"return,omitempty"` // "rts", "rtl" or "rti"
	Clobbers  []string              `json:"clobbers,omitempty"`
}

func (*RoutinePayload) Category() Category { return CategoryRoutine }

func (p *RoutinePayload) clone() Payload {
	c := *p
	c.Entry = clonePtr(p.Entry)
	c.Clobbers = cloneStrings(p.Clobbers)
	return &c
}

func (p *RoutinePayload) validate(*Discovery) error {
	switch p.Return {
	case "", "rts", "rtl", "rti":
		return nil
	default:
		return fmt.Errorf("return %q (want rts, rtl or rti)", p.Return)
	}
}

// TablePayload describes a table of fixed-size entries.
type TablePayload struct {
	EntrySize  int    `json:"entry_size"`
	EntryCount int    `json:"entry_count"`
	IndexedBy  string `json:"indexed_by,omitempty"`
}

func (*TablePayload) Category() Category { return CategoryTable }
func (p *TablePayload) clone() Payload   { c := *p; return &c }

func (p *TablePayload) validate(d *Discovery) error {
	if p.EntrySize < 1 || p.EntryCount < 1 {
		return fmt.Errorf("table needs entry_size and entry_count of at least 1")
	}
	if p.EntrySize > d.Size/p.EntryCount {
		return fmt.Errorf("%d entries of %d bytes exceed size %d", p.EntryCount, p.EntrySize, d.Size)
	}
	return nil
}

// PointerPayload describes a pointer (or pointer table entry).
type PointerPayload struct {
	Width  int                `json:"width"` // 2 (near) or 3 (long)
	Target *addrspace.Address `json:"target,omitempty"`
}

func (*PointerPayload) Category() Category { return CategoryPointer }

func (p *PointerPayload) clone() Payload {
	c := *p
	c.Target = clonePtr(p.Target)
	return &c
}

func (p *PointerPayload) validate(*Discovery) error {
	if p.Width != 2 && p.Width != 3 {
		return fmt.Errorf("pointer width %d (want 2 or 3)", p.Width)
	}
	return nil
}

// TextPayload describes an encoded string or text block.
type TextPayload struct {
	Encoding   string `json:"encoding,omitempty"`
	Terminator *int   `json:"terminator,omitempty"`
	MaxLength  int    `json:"max_length,omitempty"`
}

func (*TextPayload) Category() Category { return CategoryText }

func (p *TextPayload) clone() Payload {
	c := *p
	c.Terminator = clonePtr(p.Terminator)
	return &c
}

func (p *TextPayload) validate(*Discovery) error {
	if p.Terminator != nil && (*p.Terminator < 0 || *p.Terminator > 0xFF) {
		return fmt.Errorf("terminator %d is not a byte", *p.Terminator)
	}
	return nil
}

// AudioPayload describes sound data.
type AudioPayload struct {
	Format     string `json:"format,omitempty"` // e.g. "brr", "sequence"
	SampleRate int    `json:"sample_rate,omitempty"`
	Loop       bool   `json:"loop,omitempty"`
}

func (*AudioPayload) Category() Category { return CategoryAudio }
func (p *AudioPayload) clone() Payload   { c := *p; return &c }
func (p *AudioPayload) validate(*Discovery) error {
	if p.SampleRate < 0 {
		return fmt.Errorf("negative sample rate")
	}
	return nil
}

// GraphicsPayload describes tile or bitmap data.
type GraphicsPayload struct {
	Format      string `json:"format,omitempty"` // e.g. "2bpp", "4bpp", "mode7"
	Compression string `json:"compression,omitempty"`
	TileCount   int    `json:"tile_count,omitempty"`
}

func (*GraphicsPayload) Category() Category { return CategoryGraphics }
func (p *GraphicsPayload) clone() Payload   { c := *p; return &c }
func (p *GraphicsPayload) validate(*Discovery) error {
	if p.TileCount < 0 {
		return fmt.Errorf("negative tile count")
	}
	return nil
}

// BehaviorPayload describes a game behavior that is not tied to one byte
// range.
type BehaviorPayload struct {
	Trigger    string   `json:"trigger,omitempty"`
	Effect     string   `json:"effect,omitempty"`
	Conditions []string `json:"conditions,omitempty"`
}

func (*BehaviorPayload) Category() Category { return CategoryBehavior }

func (p *BehaviorPayload) clone() Payload {
	c := *p
	c.Conditions = cloneStrings(p.Conditions)
	return &c
}

func (p *BehaviorPayload) validate(*Discovery) error { return nil }

// newPayload returns an empty payload for c.
func newPayload(c Category) (Payload, error) {
	switch c {
	case CategoryMemory:
		return &MemoryPayload{}, nil
	case CategoryItem:
		return &ItemPayload{}, nil
	case CategorySprite:
		return &SpritePayload{}, nil
	case CategoryRoutine:
		return &RoutinePayload{}, nil
	case CategoryTable:
		return &TablePayload{}, nil
	case CategoryPointer:
		return &PointerPayload{}, nil
	case CategoryText:
		return &TextPayload{}, nil
	case CategoryAudio:
		return &AudioPayload{}, nil
	case CategoryGraphics:
		return &GraphicsPayload{}, nil
	case CategoryBehavior:
		return &BehaviorPayload{}, nil
	default:
		return nil, fmt.Errorf("no payload for %s", c)
	}
}

// isNilPayload reports whether p is nil or holds a nil pointer.
func isNilPayload(p Payload) bool {
	if p == nil {
		return true
	}
	v := reflect.ValueOf(p)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
