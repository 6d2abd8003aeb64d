package translator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewDropKeep(t *testing.T) {
	dk, err := NewDropKeep(3, 1)
	require.NoError(t, err)
	require.Equal(t, uint16(3), dk.Drop)
	require.Equal(t, uint16(1), dk.Keep)
	require.False(t, dk.IsNoop())
}

func TestNewDropKeepNoop(t *testing.T) {
	dk, err := NewDropKeep(0, 2)
	require.NoError(t, err)
	require.True(t, dk.IsNoop())
}

func TestNewDropKeepRejectsNegative(t *testing.T) {
	_, err := NewDropKeep(-1, 0)
	require.Error(t, err)

	_, err = NewDropKeep(0, -1)
	require.Error(t, err)
}

func TestNewDropKeepRejectsOutOfRange(t *testing.T) {
	_, err := NewDropKeep(0x10000, 0)
	require.Error(t, err)

	_, err = NewDropKeep(0, 0x10000)
	require.Error(t, err)
}
