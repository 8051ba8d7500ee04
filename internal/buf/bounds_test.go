package buf

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddOverflowSafe(t *testing.T) {
	sum, ok := AddOverflowSafe(10, 5)
	require.True(t, ok)
	require.Equal(t, 15, sum)

	_, ok = AddOverflowSafe(math.MaxInt, 1)
	require.False(t, ok, "expected overflow when adding to MaxInt")

	_, ok = AddOverflowSafe(math.MinInt, -1)
	require.False(t, ok, "expected underflow when subtracting from MinInt")
}

func TestCheckRange(t *testing.T) {
	end, err := CheckRange(0x100000, 0x274F4, 2)
	require.NoError(t, err)
	require.Equal(t, 0x274F6, end)

	_, err = CheckRange(0x100000, 0xFFFFF, 2)
	require.Error(t, err)

	_, err = CheckRange(16, -1, 1)
	require.Error(t, err)

	_, err = CheckRange(16, 1, -1)
	require.Error(t, err)

	_, err = CheckRange(16, math.MaxInt, 2)
	require.Error(t, err)

	end, err = CheckRange(16, 16, 0)
	require.NoError(t, err, "empty range at end is valid")
	require.Equal(t, 16, end)
}

func TestSlice(t *testing.T) {
	data := []byte{0, 1, 2, 3, 4}

	got, ok := Slice(data, 1, 3)
	require.True(t, ok)
	require.Equal(t, []byte{1, 2, 3}, got)

	_, ok = Slice(data, 4, 2)
	require.False(t, ok, "Slice should fail when extending beyond len")
}
