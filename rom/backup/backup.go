package backup

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/zeebo/blake3"
)

// Kind distinguishes full copies from deltas.
type Kind string

const (
	KindFull  Kind = "full"
	KindDelta Kind = "delta"
)

// Digest is a BLAKE3-256 hash of an image.
type Digest [32]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// Short returns the first 12 hex digits.
func (d Digest) Short() string { return d.String()[:12] }

func digestOf(image []byte) Digest {
	return Digest(blake3.Sum256(image))
}

// Backup describes one captured image. It carries no image bytes.
type Backup struct {
	ID          string
	Timestamp   time.Time
	Description string
	Size        int // size of the reconstructed image
	Kind        Kind
	BaseID      string // full backup a delta applies to; empty for full backups
	Digest      Digest
}

func (b Backup) String() string {
	if b.Kind == KindDelta {
		return fmt.Sprintf("%s delta of %s (%s) %q", b.ID, b.BaseID, b.Digest.Short(), b.Description)
	}
	return fmt.Sprintf("%s full (%s) %q", b.ID, b.Digest.Short(), b.Description)
}

// span is a run of bytes that differ from a delta's base.
type span struct {
	Off  int
	Data []byte
}

// entry is a registered backup with its payload.
type entry struct {
	meta  Backup
	seq   uint64
	data  []byte // full image, KindFull only
	spans []span // KindDelta only
}

// diffSpans returns the runs where cur differs from base. Both slices
// must have the same length. Runs separated by fewer than mergeGap equal
// bytes are joined to keep the span count down.
func diffSpans(base, cur []byte) []span {
	const mergeGap = 8
	var spans []span
	i := 0
	for i < len(cur) {
		if base[i] == cur[i] {
			i++
			continue
		}
		start, end := i, i+1
		for j := end; j < len(cur) && j-end < mergeGap; j++ {
			if base[j] != cur[j] {
				end = j + 1
			}
		}
		spans = append(spans, span{Off: start, Data: append([]byte(nil), cur[start:end]...)})
		i = end
	}
	return spans
}

// applySpans writes spans over a copy of base.
func applySpans(base []byte, spans []span) ([]byte, error) {
	out := append([]byte(nil), base...)
	for _, s := range spans {
		if s.Off < 0 || s.Off+len(s.Data) > len(out) {
			return nil, fmt.Errorf("span at 0x%06X+%d outside image of %d bytes", s.Off, len(s.Data), len(out))
		}
		copy(out[s.Off:], s.Data)
	}
	return out, nil
}
