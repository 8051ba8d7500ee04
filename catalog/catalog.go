package catalog

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/joshuapare/romkit/internal/logger"
	"github.com/joshuapare/romkit/pkg/types"
	"github.com/joshuapare/romkit/rom/addrspace"
)

// Option configures a Catalog.
type Option func(*Catalog)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Catalog) { c.log = l }
}

// WithClock sets the time source for CreatedAt and validation stamps.
func WithClock(now func() time.Time) Option {
	return func(c *Catalog) { c.now = now }
}

// Catalog is an indexed, append-only set of discoveries bound to one
// address space.
//
// The Catalog is NOT safe for concurrent use.
type Catalog struct {
	space     *addrspace.Space
	store     Store // nil for memory-only catalogs
	log       *slog.Logger
	now       func() time.Time
	byID      map[string]*Discovery
	order     []string          // ids in insertion order
	successor map[string]string // id -> id of the entry superseding it
	idx       *indices
}

// New returns an empty, memory-only catalog.
func New(space *addrspace.Space, opts ...Option) *Catalog {
	c := &Catalog{
		space:     space,
		now:       time.Now,
		byID:      make(map[string]*Discovery),
		successor: make(map[string]string),
		idx:       newIndices(),
	}
	for _, o := range opts {
		o(c)
	}
	c.log = logger.OrDiscard(c.log)
	return c
}

// Space returns the address space discoveries are validated against.
func (c *Catalog) Space() *addrspace.Space { return c.space }

// Len returns the number of discoveries, superseded ones included.
func (c *Catalog) Len() int { return len(c.order) }

// Close is the shutdown hook. Every mutation is already persisted, so it
// only logs.
func (c *Catalog) Close() error {
	c.log.Debug("catalog closed", "discoveries", len(c.order))
	return nil
}

// Add validates d and inserts a copy of it. A zero CreatedAt is set to
// the current time. When the catalog is file-backed the new state is
// persisted first; a failed write leaves the catalog unchanged.
func (c *Catalog) Add(d Discovery) error {
	return c.add(d, "catalog.Add")
}

func (c *Catalog) add(d Discovery, op string) error {
	d = d.Clone()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = c.now()
	}
	if err := c.check(&d, op); err != nil {
		return err
	}
	if err := c.persist(&d, op); err != nil {
		return err
	}
	c.insert(&d)
	c.log.Info("discovery added", "id", d.ID, "category", d.Category.String(), "confidence", d.Confidence.String())
	return nil
}

// check validates d against the catalog's current state.
func (c *Catalog) check(d *Discovery, op string) error {
	if err := validate(d, c.space, op); err != nil {
		return err
	}
	if _, ok := c.byID[d.ID]; ok {
		return types.New(types.ErrKindDuplicateID, op, "discovery %q already exists", d.ID)
	}
	if prev := d.PreviousVersionID; prev != "" {
		if _, ok := c.byID[prev]; !ok {
			return types.New(types.ErrKindNotFound, op, "previous version %q not found", prev)
		}
		if next, ok := c.successor[prev]; ok {
			return types.New(types.ErrKindInvalidValue, op, "%q is already superseded by %q", prev, next)
		}
	}
	return nil
}

// validate checks d on its own, without reference to other entries.
func validate(d *Discovery, space *addrspace.Space, op string) error {
	if strings.TrimSpace(d.ID) == "" {
		return types.New(types.ErrKindInvalidValue, op, "discovery id is empty")
	}
	if !d.Category.Valid() {
		return types.New(types.ErrKindInvalidValue, op, "discovery %q has invalid category %d", d.ID, uint8(d.Category))
	}
	if !d.Confidence.Valid() {
		return types.New(types.ErrKindInvalidValue, op, "discovery %q has invalid confidence %d", d.ID, uint8(d.Confidence))
	}
	if !isNilPayload(d.Payload) {
		if pc := d.Payload.Category(); pc != d.Category {
			return types.New(types.ErrKindInvalidValue, op, "discovery %q: %s payload on %s discovery", d.ID, pc, d.Category)
		}
	}

	switch {
	case d.Address != nil:
		if d.Size < 1 {
			return types.New(types.ErrKindInvalidValue, op, "discovery %q: size %d, want at least 1", d.ID, d.Size)
		}
		if err := space.CheckRange(*d.Address, d.Size); err != nil {
			return types.Wrap(types.ErrKindOutOfBounds, op, err, "discovery %q", d.ID)
		}
	case d.Category.AddressBound():
		return types.New(types.ErrKindInvalidValue, op, "%s discovery %q needs an address", d.Category, d.ID)
	case d.Size != 0:
		return types.New(types.ErrKindInvalidValue, op, "discovery %q has a size but no address", d.ID)
	}

	if !isNilPayload(d.Payload) {
		if err := d.Payload.validate(d); err != nil {
			return types.Wrap(types.ErrKindInvalidValue, op, err, "discovery %q payload", d.ID)
		}
	}
	if d.Validation != nil && strings.TrimSpace(d.Validation.By) == "" {
		return types.New(types.ErrKindInvalidValue, op, "discovery %q validation has no validator", d.ID)
	}
	return nil
}

// persist writes the current entries plus next to the store.
func (c *Catalog) persist(next *Discovery, op string) error {
	if c.store == nil {
		return nil
	}
	list := make([]*Discovery, 0, len(c.order)+1)
	for _, id := range c.order {
		list = append(list, c.byID[id])
	}
	data, err := encodeFile(append(list, next))
	if err != nil {
		return types.Wrap(types.ErrKindPersistence, op, err, "encode catalog")
	}
	if err := c.store.Save(data); err != nil {
		return types.Wrap(types.ErrKindPersistence, op, err, "save catalog")
	}
	return nil
}

// insert applies a validated, persisted discovery: primary map first,
// then the indices.
func (c *Catalog) insert(d *Discovery) {
	c.byID[d.ID] = d
	c.order = append(c.order, d.ID)
	if d.PreviousVersionID != "" {
		c.successor[d.PreviousVersionID] = d.ID
	}
	c.idx.insert(d)
}

// Get returns a copy of discovery id.
func (c *Catalog) Get(id string) (Discovery, bool) {
	d, ok := c.byID[id]
	if !ok {
		return Discovery{}, false
	}
	return d.Clone(), true
}

// All returns every discovery in insertion order.
func (c *Catalog) All() []Discovery {
	return c.collect(c.order)
}

// FindByCategory returns the discoveries of category cat.
func (c *Catalog) FindByCategory(cat Category) []Discovery {
	return c.collect(c.idx.byCategory[cat])
}

// FindByTags returns the discoveries carrying every tag. Tags compare
// case-insensitively. No tags yields no results.
func (c *Catalog) FindByTags(tags ...string) []Discovery {
	return c.collect(c.idx.tagged(tags))
}

// FindByAddress returns the discoveries whose range contains a, ordered by
// range start.
func (c *Catalog) FindByAddress(a addrspace.Address) []Discovery {
	return c.collect(c.idx.containing(a))
}

// FindByConfidence returns the discoveries at level or above.
func (c *Catalog) FindByConfidence(level Confidence) []Discovery {
	var out []Discovery
	for _, id := range c.order {
		if d := c.byID[id]; d.Confidence >= level {
			out = append(out, d.Clone())
		}
	}
	return out
}

func (c *Catalog) collect(ids []string) []Discovery {
	if len(ids) == 0 {
		return nil
	}
	out := make([]Discovery, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.byID[id].Clone())
	}
	return out
}

// Supersede adds next as the corrected version of oldID, setting its
// PreviousVersionID. The old entry is kept unchanged. Raising confidence
// above the old entry's level requires next to carry a Validation.
func (c *Catalog) Supersede(oldID string, next Discovery) (Discovery, error) {
	const op = "catalog.Supersede"
	old, ok := c.byID[oldID]
	if !ok {
		return Discovery{}, types.New(types.ErrKindNotFound, op, "discovery %q not found", oldID)
	}
	if next.Confidence > old.Confidence && next.Validation == nil {
		return Discovery{}, types.New(types.ErrKindInvalidValue, op,
			"raising %q from %s to %s needs a validation; use Promote", oldID, old.Confidence, next.Confidence)
	}
	next.PreviousVersionID = oldID
	if err := c.add(next, op); err != nil {
		return Discovery{}, err
	}
	return c.byID[next.ID].Clone(), nil
}

// Promote records an explicit confidence change by validator. It adds a
// superseding copy of id with the new level, marked validated.
func (c *Catalog) Promote(id string, level Confidence, validator string) (Discovery, error) {
	const op = "catalog.Promote"
	old, ok := c.byID[id]
	if !ok {
		return Discovery{}, types.New(types.ErrKindNotFound, op, "discovery %q not found", id)
	}
	if strings.TrimSpace(validator) == "" {
		return Discovery{}, types.New(types.ErrKindInvalidValue, op, "promoting %q needs a validator", id)
	}
	if !level.Valid() {
		return Discovery{}, types.New(types.ErrKindInvalidValue, op, "invalid confidence %d", uint8(level))
	}
	if level == old.Confidence {
		return Discovery{}, types.New(types.ErrKindInvalidValue, op, "%q is already %s", id, level)
	}

	next := old.Clone()
	next.ID = c.NewID(old.Category)
	next.Confidence = level
	next.Validated = true
	now := c.now()
	next.Validation = &Validation{By: validator, At: now}
	next.CreatedAt = now
	return c.Supersede(id, next)
}

// NewID returns an unused id for cat, such as "mem-0004". The id is not
// reserved until a discovery using it is added.
func (c *Catalog) NewID(cat Category) string {
	prefix := categoryPrefixes[cat]
	if prefix == "" {
		prefix = "disc"
	}
	prefix += "-"
	highest := 0
	for id := range c.byID {
		rest, ok := strings.CutPrefix(id, prefix)
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(rest); err == nil && n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%s%04d", prefix, highest+1)
}

// Stats summarizes the catalog.
type Stats struct {
	Total        int
	Current      int // not superseded
	Validated    int
	ByCategory   map[Category]int
	ByConfidence map[Confidence]int
}

// Stats returns counts over every discovery.
func (c *Catalog) Stats() Stats {
	s := Stats{
		Total:        len(c.order),
		ByCategory:   make(map[Category]int),
		ByConfidence: make(map[Confidence]int),
	}
	for _, id := range c.order {
		d := c.byID[id]
		if _, superseded := c.successor[id]; !superseded {
			s.Current++
		}
		if d.Validated {
			s.Validated++
		}
		s.ByCategory[d.Category]++
		s.ByConfidence[d.Confidence]++
	}
	return s
}
