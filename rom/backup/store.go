package backup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joshuapare/romkit/internal/writer"
)

const (
	envelopeVersion = 1
	fileSuffix      = ".bak"
)

// envelope is the on-disk form of one backup.
type envelope struct {
	Version     int         `cbor:"1,keyasint"`
	ID          string      `cbor:"2,keyasint"`
	Seq         uint64      `cbor:"3,keyasint"`
	Timestamp   int64       `cbor:"4,keyasint"` // unix nanoseconds
	Description string      `cbor:"5,keyasint,omitempty"`
	Kind        Kind        `cbor:"6,keyasint"`
	BaseID      string      `cbor:"7,keyasint,omitempty"`
	Size        int         `cbor:"8,keyasint"`
	Digest      []byte      `cbor:"9,keyasint"`
	Compression Compression `cbor:"10,keyasint"`
	RawLen      int         `cbor:"11,keyasint"`
	Payload     []byte      `cbor:"12,keyasint"`
	Spans       []spanRef   `cbor:"13,keyasint,omitempty"` // delta spans; data is concatenated in Payload
}

type spanRef struct {
	Off int `cbor:"1,keyasint"`
	Len int `cbor:"2,keyasint"`
}

// Store persists backups under a directory, one "<id>.bak" file each.
//
// A Store assumes a single writer. Two processes sharing a directory see
// undefined results.
type Store struct {
	dir         string
	compression Compression
}

// NewStore opens (creating if needed) a backup directory.
func NewStore(dir string, c Compression) (*Store, error) {
	if _, err := ParseCompression(string(c)); err != nil {
		return nil, err
	}
	if c == "" {
		c = CompressionZstd
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}
	return &Store{dir: dir, compression: c}, nil
}

// Dir returns the backup directory.
func (s *Store) Dir() string { return s.dir }

// Compression returns the compression applied to new backups.
func (s *Store) Compression() Compression { return s.compression }

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+fileSuffix)
}

func (s *Store) put(e *entry) error {
	env := envelope{
		Version:     envelopeVersion,
		ID:          e.meta.ID,
		Seq:         e.seq,
		Timestamp:   e.meta.Timestamp.UnixNano(),
		Description: e.meta.Description,
		Kind:        e.meta.Kind,
		BaseID:      e.meta.BaseID,
		Size:        e.meta.Size,
		Digest:      e.meta.Digest[:],
	}

	raw := e.data
	if e.meta.Kind == KindDelta {
		raw = nil
		env.Spans = make([]spanRef, len(e.spans))
		for i, sp := range e.spans {
			env.Spans[i] = spanRef{Off: sp.Off, Len: len(sp.Data)}
			raw = append(raw, sp.Data...)
		}
	}
	packed, used, err := compress(raw, s.compression)
	if err != nil {
		return err
	}
	env.Compression, env.RawLen, env.Payload = used, len(raw), packed

	out, err := encMode.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode %s: %w", e.meta.ID, err)
	}
	return writer.WriteFile(s.path(e.meta.ID), out)
}

func (s *Store) remove(id string) error {
	if err := os.Remove(s.path(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// load reads every backup in the directory, ordered by creation sequence.
func (s *Store) load() ([]*entry, error) {
	files, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var entries []*entry
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), fileSuffix) {
			continue
		}
		e, err := s.read(filepath.Join(s.dir, f.Name()))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name(), err)
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	return entries, nil
}

func (s *Store) read(path string) (*entry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var env envelope
	if err := decMode.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Version != envelopeVersion {
		return nil, fmt.Errorf("envelope version %d not supported", env.Version)
	}
	if len(env.Digest) != len(Digest{}) {
		return nil, fmt.Errorf("digest of %d bytes", len(env.Digest))
	}
	payload, err := decompress(env.Payload, env.Compression, env.RawLen)
	if err != nil {
		return nil, err
	}

	e := &entry{
		seq: env.Seq,
		meta: Backup{
			ID:          env.ID,
			Timestamp:   time.Unix(0, env.Timestamp).UTC(),
			Description: env.Description,
			Size:        env.Size,
			Kind:        env.Kind,
			BaseID:      env.BaseID,
		},
	}
	copy(e.meta.Digest[:], env.Digest)

	switch env.Kind {
	case KindFull:
		if len(payload) != env.Size {
			return nil, fmt.Errorf("full payload of %d bytes for image of %d", len(payload), env.Size)
		}
		e.data = payload
	case KindDelta:
		off := 0
		for _, ref := range env.Spans {
			if ref.Len < 0 || off+ref.Len > len(payload) {
				return nil, errors.New("delta spans exceed payload")
			}
			e.spans = append(e.spans, span{Off: ref.Off, Data: payload[off : off+ref.Len]})
			off += ref.Len
		}
		if off != len(payload) {
			return nil, errors.New("delta payload has trailing bytes")
		}
	default:
		return nil, fmt.Errorf("unknown backup kind %q", env.Kind)
	}
	return e, nil
}
