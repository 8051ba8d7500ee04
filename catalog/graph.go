package catalog

import (
	"github.com/joshuapare/romkit/pkg/types"
)

// Related walks RelatedIDs and Dependencies breadth-first from id, up to
// depth hops (depth <= 0 means unlimited). The start entry is excluded and
// every entry appears once, so cycles terminate. Links to unknown ids are
// skipped.
func (c *Catalog) Related(id string, depth int) ([]Discovery, error) {
	start, ok := c.byID[id]
	if !ok {
		return nil, types.New(types.ErrKindNotFound, "catalog.Related", "discovery %q not found", id)
	}

	visited := map[string]bool{id: true}
	frontier := []*Discovery{start}
	var out []Discovery
	for hop := 1; len(frontier) > 0 && (depth <= 0 || hop <= depth); hop++ {
		var next []*Discovery
		for _, d := range frontier {
			for _, link := range links(d) {
				if visited[link] {
					continue
				}
				visited[link] = true
				if n, ok := c.byID[link]; ok {
					next = append(next, n)
					out = append(out, n.Clone())
				}
			}
		}
		frontier = next
	}
	return out, nil
}

func links(d *Discovery) []string {
	out := make([]string, 0, len(d.RelatedIDs)+len(d.Dependencies))
	out = append(out, d.RelatedIDs...)
	return append(out, d.Dependencies...)
}

// History returns id followed by its predecessors, newest first.
func (c *Catalog) History(id string) ([]Discovery, error) {
	d, ok := c.byID[id]
	if !ok {
		return nil, types.New(types.ErrKindNotFound, "catalog.History", "discovery %q not found", id)
	}
	seen := make(map[string]bool)
	var out []Discovery
	for d != nil && !seen[d.ID] {
		seen[d.ID] = true
		out = append(out, d.Clone())
		d = c.byID[d.PreviousVersionID]
	}
	return out, nil
}

// Latest follows the successor chain from id to its newest version.
func (c *Catalog) Latest(id string) (Discovery, error) {
	if _, ok := c.byID[id]; !ok {
		return Discovery{}, types.New(types.ErrKindNotFound, "catalog.Latest", "discovery %q not found", id)
	}
	seen := map[string]bool{id: true}
	for {
		next, ok := c.successor[id]
		if !ok || seen[next] {
			break
		}
		seen[next] = true
		id = next
	}
	return c.byID[id].Clone(), nil
}

// Superseded reports whether id has a newer version.
func (c *Catalog) Superseded(id string) bool {
	_, ok := c.successor[id]
	return ok
}
