package backup

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/romkit/pkg/types"
	"github.com/joshuapare/romkit/rom/patch"
)

const imageSize = 0x40000

func newEngine(t *testing.T) *patch.Engine {
	t.Helper()
	img := make([]byte, imageSize)
	for i := range img[:0x1000] {
		img[i] = byte(i * 7)
	}
	eng, err := patch.New(img)
	require.NoError(t, err)
	return eng
}

func fixedClock() func() time.Time {
	t := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func TestCreateAndRestore(t *testing.T) {
	eng := newEngine(t)
	m := NewManager(eng, WithClock(fixedClock()))
	before := eng.Snapshot()

	b, err := m.CreateBackup("before edits")
	require.NoError(t, err)
	require.Equal(t, "bk-0001", b.ID)
	require.Equal(t, KindFull, b.Kind)
	require.Equal(t, imageSize, b.Size)
	require.Equal(t, digestOf(before), b.Digest)

	_, err = eng.WriteBytes(0x100, []int{1, 2, 3, 4})
	require.NoError(t, err)
	require.NotEqual(t, before, eng.Snapshot())

	require.NoError(t, m.RestoreBackup(b.ID))
	require.True(t, bytes.Equal(before, eng.Snapshot()))

	// Restoring keeps the backup and can be repeated.
	_, err = eng.WriteByte(0x200, 0xFF)
	require.NoError(t, err)
	require.NoError(t, m.RestoreBackup(b.ID))
	require.True(t, bytes.Equal(before, eng.Snapshot()))
	require.Equal(t, 1, m.Len())
}

func TestBackupIsCopiedByValue(t *testing.T) {
	eng := newEngine(t)
	m := NewManager(eng)

	b, err := m.CreateBackup("")
	require.NoError(t, err)
	_, err = eng.WriteByte(0x10, 0x42)
	require.NoError(t, err)

	img, err := m.Image(b.ID)
	require.NoError(t, err)
	require.Equal(t, byte(0x10*7), img[0x10])
}

func TestRestoreBackup_NotFound(t *testing.T) {
	m := NewManager(newEngine(t))
	require.ErrorIs(t, m.RestoreBackup("bk-9999"), types.ErrNotFound)
	require.ErrorIs(t, m.DeleteBackup("bk-9999"), types.ErrNotFound)
	_, ok := m.Get("bk-9999")
	require.False(t, ok)
}

func TestDelta_RoundTrip(t *testing.T) {
	eng := newEngine(t)
	m := NewManager(eng)

	base, err := m.CreateBackup("base")
	require.NoError(t, err)

	_, err = eng.WriteBytes(0x100, []int{0xAA, 0xBB})
	require.NoError(t, err)
	_, err = eng.WriteByte(0x3FFFF, 0xCC)
	require.NoError(t, err)
	edited := eng.Snapshot()

	d, err := m.CreateDelta(base.ID, "two edits")
	require.NoError(t, err)
	require.Equal(t, KindDelta, d.Kind)
	require.Equal(t, base.ID, d.BaseID)
	require.Len(t, m.entries[d.ID].spans, 2)

	require.NoError(t, m.RestoreBackup(base.ID))
	require.NoError(t, m.RestoreBackup(d.ID))
	require.True(t, bytes.Equal(edited, eng.Snapshot()))
}

func TestDelta_RequiresFullBase(t *testing.T) {
	m := NewManager(newEngine(t))
	_, err := m.CreateDelta("bk-0001", "")
	require.ErrorIs(t, err, types.ErrNotFound)

	base, err := m.CreateBackup("")
	require.NoError(t, err)
	d, err := m.CreateDelta(base.ID, "")
	require.NoError(t, err)
	_, err = m.CreateDelta(d.ID, "")
	require.ErrorIs(t, err, types.ErrInvalidValue)
}

func TestDigestMismatchDetected(t *testing.T) {
	eng := newEngine(t)
	m := NewManager(eng)
	b, err := m.CreateBackup("")
	require.NoError(t, err)

	m.entries[b.ID].data[0x20] ^= 0xFF
	_, err = eng.WriteByte(0x30, 0x01)
	require.NoError(t, err)
	live := eng.Snapshot()

	require.ErrorIs(t, m.RestoreBackup(b.ID), types.ErrCorrupt)
	require.True(t, bytes.Equal(live, eng.Snapshot()), "a corrupt backup is never applied")
}

func TestDeleteBackup(t *testing.T) {
	m := NewManager(newEngine(t))
	base, err := m.CreateBackup("base")
	require.NoError(t, err)
	d, err := m.CreateDelta(base.ID, "delta")
	require.NoError(t, err)
	other, err := m.CreateBackup("other")
	require.NoError(t, err)

	require.ErrorIs(t, m.DeleteBackup(base.ID), types.ErrInUse)
	require.NoError(t, m.DeleteBackup(d.ID))
	require.NoError(t, m.DeleteBackup(base.ID))

	list := m.ListBackups()
	require.Len(t, list, 1)
	require.Equal(t, other.ID, list[0].ID)

	next, err := m.CreateBackup("")
	require.NoError(t, err)
	require.Equal(t, "bk-0004", next.ID, "ids are never reused")
}

func TestListBackups_CreationOrder(t *testing.T) {
	m := NewManager(newEngine(t), WithClock(fixedClock()))
	var want []string
	for i := 0; i < 5; i++ {
		b, err := m.CreateBackup("")
		require.NoError(t, err)
		want = append(want, b.ID)
	}
	var got []string
	for _, b := range m.ListBackups() {
		got = append(got, b.ID)
	}
	require.Equal(t, want, got)
}

func TestStore_RoundTrip(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionZstd, CompressionLZ4} {
		t.Run(string(c), func(t *testing.T) {
			dir := t.TempDir()
			store, err := NewStore(dir, c)
			require.NoError(t, err)

			eng := newEngine(t)
			m := NewManager(eng, WithStore(store), WithClock(fixedClock()))
			base, err := m.CreateBackup("base")
			require.NoError(t, err)
			_, err = eng.WriteBytes(0x800, []int{9, 8, 7})
			require.NoError(t, err)
			edited := eng.Snapshot()
			_, err = m.CreateDelta(base.ID, "edit")
			require.NoError(t, err)

			_, err = os.Stat(filepath.Join(dir, base.ID+".bak"))
			require.NoError(t, err)

			fresh := newEngine(t)
			reopened, err := OpenManager(fresh, store)
			require.NoError(t, err)
			if diff := cmp.Diff(m.ListBackups(), reopened.ListBackups()); diff != "" {
				t.Fatalf("reloaded backups differ (-want +got):\n%s", diff)
			}

			require.NoError(t, reopened.RestoreBackup("bk-0002"))
			require.True(t, bytes.Equal(edited, fresh.Snapshot()))

			next, err := reopened.CreateBackup("after reload")
			require.NoError(t, err)
			require.Equal(t, "bk-0003", next.ID)
		})
	}
}

func TestStore_DeleteRemovesFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, CompressionZstd)
	require.NoError(t, err)
	m := NewManager(newEngine(t), WithStore(store))

	b, err := m.CreateBackup("")
	require.NoError(t, err)
	require.NoError(t, m.DeleteBackup(b.ID))
	_, err = os.Stat(filepath.Join(dir, b.ID+".bak"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestStore_PersistFailureNotRegistered(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "backups")
	store, err := NewStore(dir, CompressionNone)
	require.NoError(t, err)
	m := NewManager(newEngine(t), WithStore(store))

	// Replace the directory with a file so writes fail.
	require.NoError(t, os.RemoveAll(dir))
	require.NoError(t, os.WriteFile(dir, nil, 0o644))

	_, err = m.CreateBackup("doomed")
	require.ErrorIs(t, err, types.ErrPersistence)
	require.Zero(t, m.Len())
}

func TestOpenManager_SkipsSizeMismatch(t *testing.T) {
	store, err := NewStore(t.TempDir(), CompressionZstd)
	require.NoError(t, err)
	m := NewManager(newEngine(t), WithStore(store))
	_, err = m.CreateBackup("")
	require.NoError(t, err)

	bigger, err := patch.New(make([]byte, 0x80000))
	require.NoError(t, err)
	reopened, err := OpenManager(bigger, store)
	require.NoError(t, err)
	require.Zero(t, reopened.Len())

	b, err := reopened.CreateBackup("")
	require.NoError(t, err)
	require.Equal(t, "bk-0002", b.ID, "skipped backups still reserve their ids")
}

func TestOpenManager_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, CompressionZstd)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bk-0001.bak"), []byte("not cbor"), 0o644))

	_, err = OpenManager(newEngine(t), store)
	require.ErrorIs(t, err, types.ErrPersistence)
}

func TestDiffSpans(t *testing.T) {
	base := make([]byte, 64)
	cur := append([]byte(nil), base...)
	cur[2] = 1
	cur[5] = 1  // within the merge gap of byte 2
	cur[30] = 1 // far away

	spans := diffSpans(base, cur)
	require.Len(t, spans, 2)
	require.Equal(t, 2, spans[0].Off)
	require.Equal(t, []byte{1, 0, 0, 1}, spans[0].Data)
	require.Equal(t, span{Off: 30, Data: []byte{1}}, spans[1])

	out, err := applySpans(base, spans)
	require.NoError(t, err)
	require.Equal(t, cur, out)

	require.Empty(t, diffSpans(base, base))
}

func TestParseCompression(t *testing.T) {
	c, err := ParseCompression("")
	require.NoError(t, err)
	require.Equal(t, CompressionZstd, c)

	c, err = ParseCompression(" LZ4 ")
	require.NoError(t, err)
	require.Equal(t, CompressionLZ4, c)

	_, err = ParseCompression("gzip")
	require.Error(t, err)
}

func TestCompress_IncompressibleStoredRaw(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03}
	for _, c := range []Compression{CompressionZstd, CompressionLZ4} {
		packed, used, err := compress(data, c)
		require.NoError(t, err)
		require.Equal(t, CompressionNone, used)
		require.Equal(t, data, packed)
	}
}
