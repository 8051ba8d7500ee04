package addrspace

import (
	"sort"

	"github.com/joshuapare/romkit/internal/buf"
	"github.com/joshuapare/romkit/internal/format"
	"github.com/joshuapare/romkit/pkg/types"
)

// Mapping identifies the cartridge bus mapping.
type Mapping = format.MapMode

const (
	LoROM   = format.LoROM
	HiROM   = format.HiROM
	ExHiROM = format.ExHiROM
)

// Space is the validated address space of one image. It is immutable after
// New and safe to share.
type Space struct {
	size    int
	mapping Mapping
	regions []Region // sorted by Start, outer region first on equal Start
}

// New builds a Space for an image of size bytes. Regions must lie inside
// the image and must either nest or be disjoint.
func New(size int, mapping Mapping, regions ...Region) (*Space, error) {
	const op = "addrspace.New"
	if size <= 0 {
		return nil, types.New(types.ErrKindInvalidSize, op, "image size %d", size)
	}

	sorted := make([]Region, len(regions))
	copy(sorted, regions)
	for _, r := range sorted {
		if r.Start >= r.End {
			return nil, types.New(types.ErrKindInvalidValue, op, "region %s is empty or inverted", r)
		}
		if int(r.End) > size {
			return nil, types.New(types.ErrKindOutOfBounds, op, "region %s extends past image end 0x%06X", r, size)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End > sorted[j].End
	})

	// Walk with a stack of open enclosing regions. A region that starts
	// inside the top of the stack must also end inside it.
	var open []Region
	for _, r := range sorted {
		for len(open) > 0 && open[len(open)-1].End <= r.Start {
			open = open[:len(open)-1]
		}
		if len(open) > 0 && r.End > open[len(open)-1].End {
			return nil, types.New(types.ErrKindInvalidValue, op,
				"region %s partially overlaps %s", r, open[len(open)-1])
		}
		open = append(open, r)
	}

	return &Space{size: size, mapping: mapping, regions: sorted}, nil
}

// Size returns the image size in bytes.
func (s *Space) Size() int { return s.size }

// Mapping returns the bus mapping used for conversions.
func (s *Space) Mapping() Mapping { return s.mapping }

// Regions returns a copy of the regions in classification order.
func (s *Space) Regions() []Region {
	out := make([]Region, len(s.regions))
	copy(out, s.regions)
	return out
}

// Validate reports whether 0 <= a < size.
func (s *Space) Validate(a Address) bool {
	return int64(a) < int64(s.size)
}

// Classify returns the innermost region containing a.
func (s *Space) Classify(a Address) (Region, bool) {
	if !s.Validate(a) {
		return Region{}, false
	}
	// Last region starting at or before a. With nested-or-disjoint regions
	// the innermost container is the nearest one at or before it.
	i := sort.Search(len(s.regions), func(i int) bool {
		return s.regions[i].Start > a
	}) - 1
	for ; i >= 0; i-- {
		if s.regions[i].Contains(a) {
			return s.regions[i], true
		}
	}
	return Region{}, false
}

// IsWritable reports whether a lies in a writable innermost region.
// Unmapped addresses are never writable.
func (s *Space) IsWritable(a Address) bool {
	r, ok := s.Classify(a)
	return ok && r.Writable
}

// CheckRange returns an OutOfBounds error unless n bytes starting at a fit
// in the image. n == 0 is valid for any a <= size.
func (s *Space) CheckRange(a Address, n int) error {
	if _, err := buf.CheckRange(s.size, int(a), n); err != nil {
		return types.Wrap(types.ErrKindOutOfBounds, "addrspace.CheckRange", err,
			"range %s+%d outside image of 0x%06X bytes", a, n, s.size)
	}
	return nil
}

// CheckWritable returns OutOfBounds or NotWritable errors for a.
func (s *Space) CheckWritable(a Address) error {
	const op = "addrspace.CheckWritable"
	if !s.Validate(a) {
		return types.New(types.ErrKindOutOfBounds, op, "address %s outside image of 0x%06X bytes", a, s.size)
	}
	r, ok := s.Classify(a)
	if !ok {
		return types.New(types.ErrKindNotWritable, op, "address %s is not in any region", a)
	}
	if !r.Writable {
		return types.New(types.ErrKindNotWritable, op, "address %s is in read-only region %s", a, r.Name)
	}
	return nil
}
