package addrspace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/tidwall/jsonc"

	"github.com/joshuapare/romkit/internal/format"
	"github.com/joshuapare/romkit/pkg/types"
)

// Region is a named, bounded sub-range [Start, End) of the image.
type Region struct {
	Name     string  `json:"name"`
	Start    Address `json:"start"`
	End      Address `json:"end"` // exclusive
	Writable bool    `json:"writable"`
	Purpose  string  `json:"purpose,omitempty"`
}

// Contains reports whether a lies inside the region.
func (r Region) Contains(a Address) bool {
	return r.Start <= a && a < r.End
}

// ContainsRegion reports whether other lies entirely inside r.
func (r Region) ContainsRegion(other Region) bool {
	return r.Start <= other.Start && other.End <= r.End
}

// Overlaps reports whether two regions share at least one byte.
func (r Region) Overlaps(other Region) bool {
	return r.Start < other.End && other.Start < r.End
}

// Len returns the size of the region in bytes.
func (r Region) Len() int {
	return int(r.End - r.Start)
}

func (r Region) String() string {
	mode := "ro"
	if r.Writable {
		mode = "rw"
	}
	return fmt.Sprintf("%s[%s-%s %s]", r.Name, r.Start, r.End, mode)
}

// DefaultRegions returns the standard map for an image of size bytes with
// its header at headerBase: the whole image writable, with the header and
// the interrupt vectors carved out read-only.
func DefaultRegions(size, headerBase int) []Region {
	regions := []Region{{
		Name:     "rom",
		Start:    0,
		End:      Address(size),
		Writable: true,
		Purpose:  "cartridge ROM",
	}}
	if headerBase+format.VectorsOffset+format.VectorsLen > size {
		return regions
	}
	return append(regions,
		Region{
			Name:    "header",
			Start:   Address(headerBase),
			End:     Address(headerBase + format.HeaderLen),
			Purpose: "internal header (title, map mode, checksum)",
		},
		Region{
			Name:    "vectors",
			Start:   Address(headerBase + format.VectorsOffset),
			End:     Address(headerBase + format.VectorsOffset + format.VectorsLen),
			Purpose: "interrupt vectors",
		},
	)
}

// LoadRegions parses a region map. The input is JSON and may contain
// comments and trailing commas:
//
//	[
//	  // Link's stats table
//	  {"name": "stats", "start": "0x274F0", "end": "0x27500", "writable": true},
//	]
func LoadRegions(r io.Reader) ([]Region, error) {
	const op = "addrspace.LoadRegions"
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, types.Wrap(types.ErrKindPersistence, op, err, "read region map")
	}
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(raw)))
	dec.DisallowUnknownFields()
	var regions []Region
	if err := dec.Decode(&regions); err != nil {
		return nil, types.Wrap(types.ErrKindInvalidValue, op, err, "decode region map")
	}
	for i, reg := range regions {
		if reg.Name == "" {
			return nil, types.New(types.ErrKindInvalidValue, op, "region %d has no name", i)
		}
	}
	return regions, nil
}
