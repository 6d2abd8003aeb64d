package rvalue

import (
	"math"
	"testing"

	"github.com/rwasm-labs/rwasm/internal/rwasmerr"
	"github.com/stretchr/testify/require"
)

func TestI32Arith(t *testing.T) {
	require.Equal(t, int32(7), I32Add(FromI32(3), FromI32(4)).I32())
	require.Equal(t, int32(-1), I32Sub(FromI32(3), FromI32(4)).I32())
	require.Equal(t, int32(12), I32Mul(FromI32(3), FromI32(4)).I32())

	v, err := I32DivS(FromI32(7), FromI32(2))
	require.NoError(t, err)
	require.Equal(t, int32(3), v.I32())

	_, err = I32DivS(FromI32(1), FromI32(0))
	require.ErrorIs(t, err, rwasmerr.New(rwasmerr.IntegerDivisionByZero))

	_, err = I32DivS(FromI32(math.MinInt32), FromI32(-1))
	require.ErrorIs(t, err, rwasmerr.New(rwasmerr.IntegerOverflow))

	r, err := I32RemS(FromI32(math.MinInt32), FromI32(-1))
	require.NoError(t, err)
	require.Equal(t, int32(0), r.I32())
}

func TestI32BitwiseAndRotate(t *testing.T) {
	require.Equal(t, uint32(0x80000000), I32Rotl(FromU32(1), FromI32(31)).U32())
	require.Equal(t, uint32(2), I32Rotr(FromU32(1), FromI32(31)).U32())
	require.Equal(t, uint32(1), I32Clz(FromU32(0x40000000)).U32())
	require.Equal(t, uint32(0), I32Ctz(FromU32(1)).U32())
	require.Equal(t, uint32(4), I32Popcnt(FromU32(0xF0)).U32())
}

func TestFloatMinMaxNaN(t *testing.T) {
	require.True(t, isNaN32(F32Min(FromF32(float32(math.NaN())), FromF32(1)).F32()))
	require.True(t, isNaN32(F32Max(FromF32(1), FromF32(float32(math.NaN()))).F32()))
	require.Equal(t, float64(-1.1), F64Min(FromF64(-1.1), FromF64(123)).F64())
	require.Equal(t, math.Inf(1), F64Max(FromF64(math.Inf(1)), FromF64(123)).F64())
}

func isNaN32(f float32) bool { return f != f }

func TestTruncSat(t *testing.T) {
	require.Equal(t, int32(math.MaxInt32), I32TruncSatF64S(FromF64(1e20)).I32())
	require.Equal(t, int32(math.MinInt32), I32TruncSatF64S(FromF64(-1e20)).I32())
	require.Equal(t, int32(0), I32TruncSatF64S(FromF64(math.NaN())).I32())

	_, err := I32TruncF64S(FromF64(1e20))
	require.ErrorIs(t, err, rwasmerr.New(rwasmerr.BadConversionToInteger))
}

func TestMemoryBounds(t *testing.T) {
	mem := make([]byte, 8)
	mem[0] = 0x48
	v, err := Load(mem, 0, 0, 1, false, false)
	require.NoError(t, err)
	require.Equal(t, uint32(0x48), v.U32())

	_, err = Load(mem, 7, 0, 4, false, false)
	require.ErrorIs(t, err, rwasmerr.New(rwasmerr.MemoryOutOfBounds))

	require.NoError(t, Store(mem, 4, 0, 4, FromU32(0xdeadbeef)))
	v, err = Load(mem, 4, 0, 4, false, true)
	require.NoError(t, err)
	require.Equal(t, uint64(0xdeadbeef), v.U64())
}

func TestFuncRefEncoding(t *testing.T) {
	ref := FromFuncRef(3)
	require.False(t, ref.IsNullRef())
	require.Equal(t, uint32(3), ref.FuncIndex())
	require.True(t, NullFuncRef.IsNullRef())
}
