package catalog

import (
	"sort"
	"strings"

	"github.com/joshuapare/romkit/rom/addrspace"
)

// span is one addressed discovery in the address index.
type span struct {
	start, end addrspace.Address
	id         string
}

// indices are the secondary lookups over the primary map. Id lists are
// kept in insertion order.
type indices struct {
	byCategory   map[Category][]string
	byTag        map[string][]string // lower-cased tag
	byConfidence map[Confidence][]string
	byAddress    []span // sorted by start
	maxSpan      addrspace.Address
}

func newIndices() *indices {
	return &indices{
		byCategory:   make(map[Category][]string),
		byTag:        make(map[string][]string),
		byConfidence: make(map[Confidence][]string),
	}
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// insert adds d to every index. It cannot fail; callers validate first.
func (ix *indices) insert(d *Discovery) {
	ix.byCategory[d.Category] = append(ix.byCategory[d.Category], d.ID)
	ix.byConfidence[d.Confidence] = append(ix.byConfidence[d.Confidence], d.ID)

	seen := make(map[string]bool, len(d.Tags))
	for _, tag := range d.Tags {
		t := normalizeTag(tag)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		ix.byTag[t] = append(ix.byTag[t], d.ID)
	}

	if start, end, ok := d.Range(); ok {
		s := span{start: start, end: end, id: d.ID}
		i := sort.Search(len(ix.byAddress), func(i int) bool {
			return ix.byAddress[i].start > start
		})
		ix.byAddress = append(ix.byAddress, span{})
		copy(ix.byAddress[i+1:], ix.byAddress[i:])
		ix.byAddress[i] = s
		if n := end - start; n > ix.maxSpan {
			ix.maxSpan = n
		}
	}
}

// tagged returns the ids carrying every tag, in insertion order.
func (ix *indices) tagged(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	lists := make([][]string, 0, len(tags))
	for _, tag := range tags {
		l := ix.byTag[normalizeTag(tag)]
		if len(l) == 0 {
			return nil
		}
		lists = append(lists, l)
	}
	// Filter the shortest list against the others.
	sort.Slice(lists, func(i, j int) bool { return len(lists[i]) < len(lists[j]) })
	out := append([]string(nil), lists[0]...)
	for _, l := range lists[1:] {
		set := make(map[string]struct{}, len(l))
		for _, id := range l {
			set[id] = struct{}{}
		}
		kept := out[:0]
		for _, id := range out {
			if _, ok := set[id]; ok {
				kept = append(kept, id)
			}
		}
		out = kept
	}
	return out
}

// containing returns the ids whose range holds a, ordered by start.
func (ix *indices) containing(a addrspace.Address) []string {
	// Spans starting after a cannot hold it; spans starting more than
	// maxSpan before it cannot reach it.
	hi := sort.Search(len(ix.byAddress), func(i int) bool {
		return ix.byAddress[i].start > a
	})
	var out []string
	for i := hi - 1; i >= 0; i-- {
		s := ix.byAddress[i]
		if a-s.start >= ix.maxSpan {
			break
		}
		if a < s.end {
			out = append(out, s.id)
		}
	}
	// Reverse into ascending start order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
