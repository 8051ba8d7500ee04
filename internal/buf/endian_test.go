package buf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestU16LE(t *testing.T) {
	require.Equal(t, uint16(999), U16LE([]byte{0xE7, 0x03}))
	require.Equal(t, uint16(0), U16LE([]byte{0xE7}))
}

func TestPutU16LE(t *testing.T) {
	b := make([]byte, 2)
	require.True(t, PutU16LE(b, 0, 0xBEEF))
	require.Equal(t, []byte{0xEF, 0xBE}, b)
	require.False(t, PutU16LE(b, 1, 0))
}
