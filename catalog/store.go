package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/joshuapare/romkit/internal/writer"
	"github.com/joshuapare/romkit/pkg/types"
	"github.com/joshuapare/romkit/rom/addrspace"
)

// SchemaVersion versions the persisted catalog format.
type SchemaVersion struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
	Patch int `json:"patch"`
}

func (v SchemaVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// CurrentSchema is the version written by this package. Files with a
// different major version are refused.
var CurrentSchema = SchemaVersion{Major: 1, Minor: 0, Patch: 0}

// Store is the durable backing of a catalog. Load returns nil data when
// nothing has been saved yet.
type Store interface {
	Load() ([]byte, error)
	Save(data []byte) error
}

// FileStore keeps the catalog in a single JSON file, rewritten atomically
// on every save.
type FileStore struct {
	Path string
}

func (s *FileStore) Load() ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

func (s *FileStore) Save(data []byte) error {
	return writer.WriteFile(s.Path, data)
}

// MemStore keeps the serialized catalog in memory.
type MemStore struct {
	w writer.MemWriter
}

func (s *MemStore) Load() ([]byte, error) {
	if s.w.Writes == 0 {
		return nil, nil
	}
	return append([]byte(nil), s.w.Buf...), nil
}

func (s *MemStore) Save(data []byte) error {
	return s.w.WriteAll(data)
}

// Saves returns how many times the store was written.
func (s *MemStore) Saves() int { return s.w.Writes }

type fileJSON struct {
	SchemaVersion SchemaVersion     `json:"schema_version"`
	Records       []json.RawMessage `json:"records"`
}

type versionProbe struct {
	SchemaVersion SchemaVersion `json:"schema_version"`
}

type recordJSON struct {
	SchemaVersion SchemaVersion   `json:"schema_version"`
	Discovery     json.RawMessage `json:"discovery"`
}

type recordOut struct {
	SchemaVersion SchemaVersion `json:"schema_version"`
	Discovery     *Discovery    `json:"discovery"`
}

func encodeFile(list []*Discovery) ([]byte, error) {
	out := struct {
		SchemaVersion SchemaVersion `json:"schema_version"`
		Records       []recordOut   `json:"records"`
	}{SchemaVersion: CurrentSchema, Records: make([]recordOut, len(list))}
	for i, d := range list {
		out.Records[i] = recordOut{SchemaVersion: CurrentSchema, Discovery: d}
	}
	return json.MarshalIndent(out, "", "  ")
}

// Open loads the catalog file at path (an absent file is an empty catalog)
// and keeps it in sync with every mutation.
func Open(path string, space *addrspace.Space, opts ...Option) (*Catalog, error) {
	return OpenStore(&FileStore{Path: path}, space, opts...)
}

// OpenStore loads a catalog from store. The whole file is decoded and
// validated before anything is loaded: a schema major other than
// CurrentSchema.Major fails with SchemaVersion, and any invalid record
// fails the open. No catalog is returned on error.
func OpenStore(store Store, space *addrspace.Space, opts ...Option) (*Catalog, error) {
	const op = "catalog.Open"
	data, err := store.Load()
	if err != nil {
		return nil, types.Wrap(types.ErrKindPersistence, op, err, "load catalog")
	}

	c := New(space, opts...)
	c.store = store
	if data == nil {
		c.log.Info("catalog opened", "discoveries", 0, "new", true)
		return c, nil
	}

	list, err := c.decodeFile(data, op)
	if err != nil {
		return nil, err
	}

	// Validate as a sequence of adds on a scratch catalog, so duplicate ids
	// and dangling predecessors are caught before c is touched.
	scratch := New(space)
	for _, d := range list {
		if err := scratch.check(d, op); err != nil {
			return nil, err
		}
		scratch.insert(d)
	}
	c.byID, c.order, c.successor, c.idx = scratch.byID, scratch.order, scratch.successor, scratch.idx
	c.log.Info("catalog opened", "discoveries", len(c.order))
	return c, nil
}

func (c *Catalog) decodeFile(data []byte, op string) ([]*Discovery, error) {
	// The version is checked before strict decoding, so a file from an
	// unsupported major reports SchemaVersion even if its layout differs.
	var probe versionProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, types.Wrap(types.ErrKindPersistence, op, err, "decode catalog")
	}
	if err := c.checkVersion(probe.SchemaVersion, "file", op); err != nil {
		return nil, err
	}
	var f fileJSON
	if err := decodeStrict(data, &f); err != nil {
		return nil, types.Wrap(types.ErrKindPersistence, op, err, "decode catalog")
	}

	list := make([]*Discovery, 0, len(f.Records))
	for i, raw := range f.Records {
		var rp versionProbe
		if err := json.Unmarshal(raw, &rp); err != nil {
			return nil, types.Wrap(types.ErrKindPersistence, op, err, "decode record %d", i)
		}
		if err := c.checkVersion(rp.SchemaVersion, fmt.Sprintf("record %d", i), op); err != nil {
			return nil, err
		}
		var r recordJSON
		if err := decodeStrict(raw, &r); err != nil {
			return nil, types.Wrap(types.ErrKindPersistence, op, err, "decode record %d", i)
		}
		var d Discovery
		if err := json.Unmarshal(r.Discovery, &d); err != nil {
			return nil, types.Wrap(types.ErrKindPersistence, op, err, "decode record %d discovery", i)
		}
		list = append(list, &d)
	}
	return list, nil
}

func (c *Catalog) checkVersion(v SchemaVersion, what, op string) error {
	if v.Major != CurrentSchema.Major {
		return types.New(types.ErrKindSchemaVersion, op,
			"%s schema version %s, supported major is %d", what, v, CurrentSchema.Major)
	}
	if v.Minor > CurrentSchema.Minor {
		c.log.Warn("catalog written by a newer minor version", "where", what, "version", v.String(), "supported", CurrentSchema.String())
	}
	return nil
}
