package catalog

import (
	"sort"
	"strings"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

// Search returns the discoveries whose name or description contains text,
// case-insensitively. No match yields an empty result, not an error.
func (c *Catalog) Search(text string) []Discovery {
	needle := strings.ToLower(text)
	var out []Discovery
	for _, id := range c.order {
		d := c.byID[id]
		if strings.Contains(strings.ToLower(d.Name), needle) ||
			strings.Contains(strings.ToLower(d.Description), needle) {
			out = append(out, d.Clone())
		}
	}
	return out
}

// Match is a fuzzy search hit.
type Match struct {
	Discovery Discovery
	Score     int
}

// FuzzySearch ranks discoveries against pattern with fzf's matcher over
// name, tags and description. Higher scores rank first; ties keep
// insertion order. limit <= 0 returns every match.
func (c *Catalog) FuzzySearch(pattern string, limit int) []Match {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if pattern == "" {
		return nil
	}
	runes := []rune(pattern)
	slab := util.MakeSlab(100*1024, 2048)

	var out []Match
	for _, id := range c.order {
		d := c.byID[id]
		chars := util.ToChars([]byte(searchText(d)))
		res, _ := algo.FuzzyMatchV2(false, true, true, &chars, runes, false, slab)
		if res.Start < 0 || res.Score <= 0 {
			continue
		}
		out = append(out, Match{Discovery: d.Clone(), Score: res.Score})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func searchText(d *Discovery) string {
	var sb strings.Builder
	sb.WriteString(d.Name)
	for _, t := range d.Tags {
		sb.WriteByte(' ')
		sb.WriteString(t)
	}
	if d.Description != "" {
		sb.WriteByte(' ')
		sb.WriteString(d.Description)
	}
	return sb.String()
}
