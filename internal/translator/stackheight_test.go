package translator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStackHeightTracksMax(t *testing.T) {
	h := newStackHeight()
	require.NoError(t, h.push())
	require.NoError(t, h.push())
	h.pop1()
	require.NoError(t, h.push())
	require.Equal(t, 2, h.height())
	require.Equal(t, 2, h.maxHeight())
}

func TestStackHeightPopN(t *testing.T) {
	h := newStackHeight()
	require.NoError(t, h.pushN(5))
	h.popN(3)
	require.Equal(t, 2, h.height())
	require.Equal(t, 5, h.maxHeight())
}

func TestStackHeightReset(t *testing.T) {
	h := newStackHeight()
	require.NoError(t, h.pushN(4))
	h.reset(1)
	require.Equal(t, 1, h.height())
	require.Equal(t, 4, h.maxHeight())
}

func TestStackHeightRejectsOverflow(t *testing.T) {
	h := newStackHeight()
	var err error
	for i := 0; i < 1<<20 && err == nil; i++ {
		err = h.push()
	}
	require.Error(t, err)
}
