package catalog

import (
	"fmt"
	"strings"
)

// Category is the closed set of discovery kinds.
type Category uint8

const (
	CategoryMemory Category = iota + 1
	CategoryItem
	CategorySprite
	CategoryRoutine
	CategoryTable
	CategoryPointer
	CategoryText
	CategoryAudio
	CategoryGraphics
	CategoryBehavior
)

var categoryNames = map[Category]string{
	CategoryMemory:   "memory",
	CategoryItem:     "item",
	CategorySprite:   "sprite",
	CategoryRoutine:  "routine",
	CategoryTable:    "table",
	CategoryPointer:  "pointer",
	CategoryText:     "text",
	CategoryAudio:    "audio",
	CategoryGraphics: "graphics",
	CategoryBehavior: "behavior",
}

// id prefixes used by NewID
var categoryPrefixes = map[Category]string{
	CategoryMemory:   "mem",
	CategoryItem:     "item",
	CategorySprite:   "spr",
	CategoryRoutine:  "rtn",
	CategoryTable:    "tbl",
	CategoryPointer:  "ptr",
	CategoryText:     "txt",
	CategoryAudio:    "aud",
	CategoryGraphics: "gfx",
	CategoryBehavior: "beh",
}

// Categories lists every category in declaration order.
func Categories() []Category {
	out := make([]Category, 0, len(categoryNames))
	for c := CategoryMemory; c <= CategoryBehavior; c++ {
		out = append(out, c)
	}
	return out
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	_, ok := categoryNames[c]
	return ok
}

// AddressBound reports whether discoveries of c must carry an address
// range. Only behaviors may omit one.
func (c Category) AddressBound() bool {
	return c != CategoryBehavior
}

func (c Category) String() string {
	if n, ok := categoryNames[c]; ok {
		return n
	}
	return fmt.Sprintf("category(%d)", uint8(c))
}

// ParseCategory maps a name such as "memory" to its Category.
func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for c, n := range categoryNames {
		if n == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", s)
}

func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid category %d", uint8(c))
	}
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(text []byte) error {
	v, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Confidence orders how certain a discovery is.
type Confidence uint8

const (
	ConfidenceExperimental Confidence = iota + 1
	ConfidenceLow
	ConfidenceMedium
	ConfidenceHigh
	ConfidenceVerified
)

var confidenceNames = map[Confidence]string{
	ConfidenceExperimental: "experimental",
	ConfidenceLow:          "low",
	ConfidenceMedium:       "medium",
	ConfidenceHigh:         "high",
	ConfidenceVerified:     "verified",
}

// Valid reports whether c is a known level.
func (c Confidence) Valid() bool {
	_, ok := confidenceNames[c]
	return ok
}

func (c Confidence) String() string {
	if n, ok := confidenceNames[c]; ok {
		return n
	}
	return fmt.Sprintf("confidence(%d)", uint8(c))
}

// ParseConfidence maps a level name such as "high" to its Confidence.
func ParseConfidence(s string) (Confidence, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for c, n := range confidenceNames {
		if n == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown confidence %q", s)
}

func (c Confidence) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid confidence %d", uint8(c))
	}
	return []byte(c.String()), nil
}

func (c *Confidence) UnmarshalText(text []byte) error {
	v, err := ParseConfidence(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
