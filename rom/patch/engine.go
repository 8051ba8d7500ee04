package patch

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joshuapare/romkit/internal/buf"
	"github.com/joshuapare/romkit/internal/format"
	"github.com/joshuapare/romkit/internal/logger"
	"github.com/joshuapare/romkit/pkg/types"
	"github.com/joshuapare/romkit/rom/addrspace"
)

// Engine owns one ROM image and mediates every access to it.
//
// The Engine is NOT safe for concurrent use. Callers that need parallelism
// work on independent engines.
type Engine struct {
	image  []byte
	copier []byte // optional 512-byte copier header, re-emitted on save
	space  *addrspace.Space
	dirty  dirtyTracker
	log    *slog.Logger
	now    func() time.Time
}

// Load reads the image at path. A copier header is detected and stripped.
func Load(path string, opts ...Option) (*Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.Wrap(types.ErrKindPersistence, "patch.Load", err, "read %s", path)
	}
	eng, err := New(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	eng.log.Info("image loaded", "path", path, "size", len(eng.image),
		"mapping", eng.space.Mapping().String(), "copier_header", eng.copier != nil)
	return eng, nil
}

// New builds an engine over a copy of data. The image length (after any
// copier header) must be one of format.ValidSizes.
func New(data []byte, opts ...Option) (*Engine, error) {
	const op = "patch.New"
	cfg := config{}
	for _, o := range opts {
		o(&cfg)
	}

	copier, image := format.SplitCopierHeader(data)
	if !format.IsValidSize(len(image)) {
		return nil, types.Wrap(types.ErrKindInvalidSize, op, format.ErrBadSize, "image of %d bytes", len(image))
	}

	mapping := cfg.mapping
	if !cfg.hasMapping {
		mapping = format.DetectMapMode(image)
	}
	regions := cfg.regions
	if !cfg.hasRegions {
		regions = addrspace.DefaultRegions(len(image), mapping.HeaderBase())
	}
	space, err := addrspace.New(len(image), mapping, regions...)
	if err != nil {
		return nil, err
	}

	now := cfg.now
	if now == nil {
		now = time.Now
	}
	eng := &Engine{
		image: append([]byte(nil), image...),
		space: space,
		log:   logger.OrDiscard(cfg.logger),
		now:   now,
	}
	if copier != nil {
		eng.copier = append([]byte(nil), copier...)
	}
	return eng, nil
}

// Space returns the address space the engine validates against.
func (e *Engine) Space() *addrspace.Space { return e.space }

// Size returns the image length in bytes.
func (e *Engine) Size() int { return len(e.image) }

// HasCopierHeader reports whether the source file carried a copier header.
func (e *Engine) HasCopierHeader() bool { return e.copier != nil }

// ReadByte returns the byte at a. It takes an address, so Engine is not an
// io.ByteReader.
func (e *Engine) ReadByte(a addrspace.Address) (byte, error) {
	if !e.space.Validate(a) {
		return 0, types.New(types.ErrKindOutOfBounds, "patch.ReadByte",
			"address %s outside image of 0x%06X bytes", a, len(e.image))
	}
	return e.image[a], nil
}

// ReadBytes returns a copy of n bytes starting at a. It never returns a
// short read.
func (e *Engine) ReadBytes(a addrspace.Address, n int) ([]byte, error) {
	const op = "patch.ReadBytes"
	if n < 0 {
		return nil, types.New(types.ErrKindInvalidValue, op, "negative count %d", n)
	}
	if err := e.space.CheckRange(a, n); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out := make([]byte, n)
	copy(out, e.image[int(a):int(a)+n])
	return out, nil
}

// ReadU16 returns the little-endian 16-bit value at a.
func (e *Engine) ReadU16(a addrspace.Address) (uint16, error) {
	b, err := e.ReadBytes(a, 2)
	if err != nil {
		return 0, err
	}
	return buf.U16LE(b), nil
}

// WriteByte stores v at a and reports the value it replaced. It fails with
// OutOfBounds, NotWritable or InvalidValue (v outside [0, 255]); a failed
// call leaves the image unchanged. Engine is not an io.ByteWriter.
func (e *Engine) WriteByte(a addrspace.Address, v int) (WriteReport, error) {
	if err := e.checkWrite(a, v); err != nil {
		return WriteReport{}, fmt.Errorf("patch.WriteByte: %w", err)
	}
	r := e.apply(a, byte(v))
	e.log.Debug("byte written", "address", a.String(), "original", r.Original, "new", r.New)
	return r, nil
}

// WriteBytes stores vals starting at a. Every byte is validated before any
// is written, so a failure at any position leaves the image as it was.
func (e *Engine) WriteBytes(a addrspace.Address, vals []int) ([]WriteReport, error) {
	const op = "patch.WriteBytes"
	if err := e.space.CheckRange(a, len(vals)); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for i, v := range vals {
		if err := e.checkWrite(a+addrspace.Address(i), v); err != nil {
			return nil, fmt.Errorf("%s: byte %d of %d: %w", op, i, len(vals), err)
		}
	}

	reports := make([]WriteReport, len(vals))
	for i, v := range vals {
		reports[i] = e.apply(a+addrspace.Address(i), byte(v))
	}
	e.log.Debug("bytes written", "address", a.String(), "count", len(vals))
	return reports, nil
}

// WriteU16 stores v little-endian at a and a+1.
func (e *Engine) WriteU16(a addrspace.Address, v uint16) ([]WriteReport, error) {
	return e.WriteBytes(a, []int{int(v & 0xFF), int(v >> 8)})
}

// Undo restores the original value of each report, newest first. Region
// checks are skipped: every report describes a write that was allowed.
func (e *Engine) Undo(reports []WriteReport) error {
	for i := len(reports) - 1; i >= 0; i-- {
		r := reports[i]
		if !e.space.Validate(r.Address) {
			return types.New(types.ErrKindOutOfBounds, "patch.Undo",
				"report %d address %s outside image", i, r.Address)
		}
		e.image[r.Address] = r.Original
		e.dirty.add(r.Address, 1)
	}
	if len(reports) > 0 {
		e.log.Debug("writes undone", "count", len(reports))
	}
	return nil
}

func (e *Engine) checkWrite(a addrspace.Address, v int) error {
	if err := e.space.CheckWritable(a); err != nil {
		return err
	}
	if v < 0 || v > 0xFF {
		return types.New(types.ErrKindInvalidValue, "patch.checkWrite", "value %d at %s is not a byte", v, a)
	}
	return nil
}

func (e *Engine) apply(a addrspace.Address, v byte) WriteReport {
	r := WriteReport{Address: a, Original: e.image[a], New: v, Timestamp: e.now()}
	e.image[a] = v
	e.dirty.add(a, 1)
	return r
}

// Snapshot returns a copy of the current image.
func (e *Engine) Snapshot() []byte {
	return append([]byte(nil), e.image...)
}

// Replace overwrites the whole image with a copy of data. The length must
// match the loaded image.
func (e *Engine) Replace(data []byte) error {
	if len(data) != len(e.image) {
		return types.New(types.ErrKindInvalidSize, "patch.Replace",
			"replacement of %d bytes for image of %d bytes", len(data), len(e.image))
	}
	copy(e.image, data)
	e.dirty.add(0, len(e.image))
	return nil
}

// Dirty returns the sorted, merged ranges modified since the engine was
// created or last saved.
func (e *Engine) Dirty() []Range {
	return e.dirty.coalesce()
}
