package patch

import (
	"sort"

	"github.com/joshuapare/romkit/rom/addrspace"
)

// Range is a modified byte range of the image.
type Range struct {
	Start addrspace.Address `json:"start"`
	Len   int               `json:"len"`
}

// End returns the exclusive end of the range.
func (r Range) End() addrspace.Address {
	return r.Start + addrspace.Address(r.Len)
}

// dirtyTracker accumulates modified ranges. Add is an append; ranges are
// sorted and merged only when read.
type dirtyTracker struct {
	ranges []Range
}

func (t *dirtyTracker) add(start addrspace.Address, n int) {
	if n <= 0 {
		return
	}
	t.ranges = append(t.ranges, Range{Start: start, Len: n})
}

func (t *dirtyTracker) reset() {
	t.ranges = t.ranges[:0]
}

// coalesce sorts the ranges and merges overlapping or adjacent ones.
func (t *dirtyTracker) coalesce() []Range {
	if len(t.ranges) == 0 {
		return nil
	}
	sorted := make([]Range, len(t.ranges))
	copy(sorted, t.ranges)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	merged := make([]Range, 0, len(sorted))
	current := sorted[0]
	for _, next := range sorted[1:] {
		if next.Start <= current.End() {
			if end := next.End(); end > current.End() {
				current.Len = int(end - current.Start)
			}
			continue
		}
		merged = append(merged, current)
		current = next
	}
	return append(merged, current)
}
