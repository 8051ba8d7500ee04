package patch

import (
	"bytes"
	"io"

	"github.com/joshuapare/romkit/internal/writer"
	"github.com/joshuapare/romkit/pkg/types"
)

// Save writes the image (with its copier header, if one was loaded) to
// path atomically and clears the dirty ranges.
func (e *Engine) Save(path string) error {
	if err := e.SaveTo(&writer.FileWriter{Path: path}); err != nil {
		return err
	}
	e.log.Info("image saved", "path", path, "size", len(e.image))
	return nil
}

// SaveTo emits the image to sink and clears the dirty ranges.
func (e *Engine) SaveTo(sink writer.Sink) error {
	if err := sink.WriteAll(e.fileBytes()); err != nil {
		return types.Wrap(types.ErrKindPersistence, "patch.Save", err, "write image")
	}
	e.dirty.reset()
	return nil
}

// WriteTo writes the file form of the image to w. Dirty ranges are kept.
func (e *Engine) WriteTo(w io.Writer) (int64, error) {
	return bytes.NewReader(e.fileBytes()).WriteTo(w)
}

func (e *Engine) fileBytes() []byte {
	if e.copier == nil {
		return e.image
	}
	out := make([]byte, 0, len(e.copier)+len(e.image))
	out = append(out, e.copier...)
	return append(out, e.image...)
}
