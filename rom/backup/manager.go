package backup

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joshuapare/romkit/internal/logger"
	"github.com/joshuapare/romkit/pkg/types"
)

const idPrefix = "bk-"

// Source is the image a Manager backs up. *patch.Engine satisfies it.
type Source interface {
	Snapshot() []byte
	Replace(data []byte) error
	Size() int
}

// Option configures a Manager.
type Option func(*Manager)

// WithStore persists every new backup to s.
func WithStore(s *Store) Option {
	return func(m *Manager) { m.store = s }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithClock sets the time source for backup timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// Manager keeps the backups of one image.
//
// The Manager is NOT safe for concurrent use.
type Manager struct {
	src     Source
	store   *Store
	log     *slog.Logger
	now     func() time.Time
	entries map[string]*entry
	order   []string // ids in creation order
	seq     uint64   // last allocated sequence number
}

// NewManager returns a Manager for src with no backups.
func NewManager(src Source, opts ...Option) *Manager {
	m := &Manager{
		src:     src,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
	for _, o := range opts {
		o(m)
	}
	m.log = logger.OrDiscard(m.log)
	return m
}

// OpenManager returns a Manager for src backed by store, preloaded with the
// backups already in the store. Backups whose size does not match src are
// skipped with a warning.
func OpenManager(src Source, store *Store, opts ...Option) (*Manager, error) {
	m := NewManager(src, append(opts, WithStore(store))...)
	entries, err := store.load()
	if err != nil {
		return nil, types.Wrap(types.ErrKindPersistence, "backup.OpenManager", err, "load backups from %s", store.Dir())
	}
	for _, e := range entries {
		if e.seq > m.seq {
			m.seq = e.seq
		}
		if e.meta.Size != src.Size() {
			m.log.Warn("backup skipped: size mismatch", "id", e.meta.ID, "size", e.meta.Size, "image_size", src.Size())
			continue
		}
		m.register(e)
	}
	m.log.Info("backups loaded", "dir", store.Dir(), "count", len(m.order))
	return m, nil
}

// CreateBackup captures a full copy of the current image.
func (m *Manager) CreateBackup(description string) (Backup, error) {
	data := m.src.Snapshot()
	e := &entry{
		meta: Backup{
			Timestamp:   m.now(),
			Description: description,
			Size:        len(data),
			Kind:        KindFull,
			Digest:      digestOf(data),
		},
		data: data,
	}
	if err := m.add(e, "backup.CreateBackup"); err != nil {
		return Backup{}, err
	}
	m.log.Info("backup created", "id", e.meta.ID, "description", description, "digest", e.meta.Digest.Short())
	return e.meta, nil
}

// CreateDelta captures the bytes that differ between the current image and
// the full backup baseID.
func (m *Manager) CreateDelta(baseID, description string) (Backup, error) {
	const op = "backup.CreateDelta"
	base, ok := m.entries[baseID]
	if !ok {
		return Backup{}, types.New(types.ErrKindNotFound, op, "backup %q not found", baseID)
	}
	if base.meta.Kind != KindFull {
		return Backup{}, types.New(types.ErrKindInvalidValue, op, "base %q is a %s backup, want full", baseID, base.meta.Kind)
	}
	cur := m.src.Snapshot()
	if len(cur) != len(base.data) {
		return Backup{}, types.New(types.ErrKindInvalidSize, op, "image of %d bytes, base of %d", len(cur), len(base.data))
	}

	e := &entry{
		meta: Backup{
			Timestamp:   m.now(),
			Description: description,
			Size:        len(cur),
			Kind:        KindDelta,
			BaseID:      baseID,
			Digest:      digestOf(cur),
		},
		spans: diffSpans(base.data, cur),
	}
	if err := m.add(e, op); err != nil {
		return Backup{}, err
	}
	m.log.Info("delta backup created", "id", e.meta.ID, "base", baseID, "spans", len(e.spans))
	return e.meta, nil
}

// add assigns the next id, persists e when a store is attached, and only
// then registers it.
func (m *Manager) add(e *entry, op string) error {
	seq := m.seq + 1
	e.seq = seq
	e.meta.ID = fmt.Sprintf("%s%04d", idPrefix, seq)
	if m.store != nil {
		if err := m.store.put(e); err != nil {
			return types.Wrap(types.ErrKindPersistence, op, err, "persist backup %s", e.meta.ID)
		}
	}
	m.seq = seq
	m.register(e)
	return nil
}

func (m *Manager) register(e *entry) {
	m.entries[e.meta.ID] = e
	m.order = append(m.order, e.meta.ID)
}

// Image reconstructs the image held by backup id and verifies its digest.
func (m *Manager) Image(id string) ([]byte, error) {
	const op = "backup.Image"
	e, ok := m.entries[id]
	if !ok {
		return nil, types.New(types.ErrKindNotFound, op, "backup %q not found", id)
	}
	var data []byte
	switch e.meta.Kind {
	case KindDelta:
		base, ok := m.entries[e.meta.BaseID]
		if !ok {
			return nil, types.New(types.ErrKindCorrupt, op, "delta %s base %q missing", id, e.meta.BaseID)
		}
		var err error
		if data, err = applySpans(base.data, e.spans); err != nil {
			return nil, types.Wrap(types.ErrKindCorrupt, op, err, "apply delta %s", id)
		}
	default:
		data = append([]byte(nil), e.data...)
	}
	if got := digestOf(data); got != e.meta.Digest {
		return nil, types.New(types.ErrKindCorrupt, op, "backup %s digest %s, recorded %s", id, got.Short(), e.meta.Digest.Short())
	}
	return data, nil
}

// RestoreBackup replaces the live image with backup id. The backup is kept,
// so restoring is repeatable.
func (m *Manager) RestoreBackup(id string) error {
	data, err := m.Image(id)
	if err != nil {
		return fmt.Errorf("backup.RestoreBackup: %w", err)
	}
	if err := m.src.Replace(data); err != nil {
		return fmt.Errorf("backup.RestoreBackup: %w", err)
	}
	m.log.Info("backup restored", "id", id)
	return nil
}

// ListBackups returns every backup in creation order.
func (m *Manager) ListBackups() []Backup {
	out := make([]Backup, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.entries[id].meta)
	}
	return out
}

// Get returns the metadata of backup id.
func (m *Manager) Get(id string) (Backup, bool) {
	e, ok := m.entries[id]
	if !ok {
		return Backup{}, false
	}
	return e.meta, true
}

// DeleteBackup removes backup id, and its store file if any. A full backup
// cannot be deleted while deltas depend on it.
func (m *Manager) DeleteBackup(id string) error {
	const op = "backup.DeleteBackup"
	if _, ok := m.entries[id]; !ok {
		return types.New(types.ErrKindNotFound, op, "backup %q not found", id)
	}
	var deps []string
	for _, other := range m.order {
		if m.entries[other].meta.BaseID == id {
			deps = append(deps, other)
		}
	}
	if len(deps) > 0 {
		return types.New(types.ErrKindInUse, op, "backup %s is the base of %s", id, strings.Join(deps, ", "))
	}
	if m.store != nil {
		if err := m.store.remove(id); err != nil {
			return types.Wrap(types.ErrKindPersistence, op, err, "remove backup %s", id)
		}
	}
	delete(m.entries, id)
	for i, other := range m.order {
		if other == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.log.Info("backup deleted", "id", id)
	return nil
}

// Len returns the number of backups held.
func (m *Manager) Len() int { return len(m.order) }

