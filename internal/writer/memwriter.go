package writer

// MemWriter captures bytes in memory.
type MemWriter struct {
	Buf    []byte
	Writes int
}

// WriteAll stores a copy of buf, replacing any previous contents.
func (w *MemWriter) WriteAll(buf []byte) error {
	w.Buf = append(w.Buf[:0], buf...)
	w.Writes++
	return nil
}
