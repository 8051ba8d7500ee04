package types

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestError_IsMatchesKind(t *testing.T) {
	err := New(ErrKindOutOfBounds, "patch.ReadByte", "address 0x%06X outside image of %d bytes", 0x100000, 0x100000)

	require.ErrorIs(t, err, ErrOutOfBounds)
	require.NotErrorIs(t, err, ErrNotWritable)
	require.Equal(t, "patch.ReadByte: address 0x100000 outside image of 1048576 bytes", err.Error())
}

func TestError_IsThroughWrapping(t *testing.T) {
	inner := Wrap(ErrKindPersistence, "catalog.Add", os.ErrPermission, "write %s", "catalog.json")
	outer := fmt.Errorf("add discovery: %w", inner)

	require.ErrorIs(t, outer, ErrPersistence)
	require.ErrorIs(t, outer, os.ErrPermission)

	kind, ok := KindOf(outer)
	require.True(t, ok)
	require.Equal(t, ErrKindPersistence, kind)
}

func TestError_DefaultMessage(t *testing.T) {
	require.Equal(t, "transaction already active", ErrTransactionActive.Error())

	var nilErr *Error
	require.Equal(t, "<nil>", nilErr.Error())
}

func TestKindOf_PlainError(t *testing.T) {
	_, ok := KindOf(errors.New("plain"))
	require.False(t, ok)
}
