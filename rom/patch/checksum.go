package patch

import (
	"fmt"

	"github.com/joshuapare/romkit/internal/format"
	"github.com/joshuapare/romkit/rom/addrspace"
)

// Header parses the internal header at the mapping's header base.
func (e *Engine) Header() (format.Header, error) {
	h, err := format.ParseHeader(e.image, e.space.Mapping())
	if err != nil {
		return format.Header{}, fmt.Errorf("patch.Header: %w", err)
	}
	return h, nil
}

// RecomputeChecksum recomputes the header checksum over the current image
// and writes the checksum and its complement. It bypasses region write
// checks, since the header is normally read-only to callers.
func (e *Engine) RecomputeChecksum() (format.Checksum, error) {
	base := e.space.Mapping().HeaderBase()
	c, err := format.ApplyChecksum(e.image, base)
	if err != nil {
		return format.Checksum{}, fmt.Errorf("patch.RecomputeChecksum: %w", err)
	}
	e.dirty.add(addrspace.Address(base+format.HeaderComplementOffset), 4)
	e.log.Info("checksum recomputed", "checksum", fmt.Sprintf("0x%04X", c.Sum),
		"complement", fmt.Sprintf("0x%04X", c.Complement))
	return c, nil
}

// VerifyChecksum reports whether the stored checksum pair matches the
// image contents.
func (e *Engine) VerifyChecksum() bool {
	return format.VerifyChecksum(e.image, e.space.Mapping().HeaderBase())
}
