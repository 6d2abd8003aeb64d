package rvalue

import (
	"math"

	"github.com/rwasm-labs/rwasm/internal/rwasmerr"
)

func I32WrapI64(a UntypedValue) UntypedValue { return FromI32(int32(i64u(a))) }

func I64ExtendI32S(a UntypedValue) UntypedValue { return FromI64(int64(i32s(a))) }
func I64ExtendI32U(a UntypedValue) UntypedValue { return FromI64(int64(i32u(a))) }

func I32Extend8S(a UntypedValue) UntypedValue  { return FromI32(int32(int8(i32u(a)))) }
func I32Extend16S(a UntypedValue) UntypedValue { return FromI32(int32(int16(i32u(a)))) }
func I64Extend8S(a UntypedValue) UntypedValue  { return FromI64(int64(int8(i64u(a)))) }
func I64Extend16S(a UntypedValue) UntypedValue { return FromI64(int64(int16(i64u(a)))) }
func I64Extend32S(a UntypedValue) UntypedValue { return FromI64(int64(int32(i64u(a)))) }

func F32DemoteF64(a UntypedValue) UntypedValue   { return FromF32(float32(f64(a))) }
func F64PromoteF32(a UntypedValue) UntypedValue  { return FromF64(float64(f32(a))) }
func F32ConvertI32S(a UntypedValue) UntypedValue { return FromF32(float32(i32s(a))) }
func F32ConvertI32U(a UntypedValue) UntypedValue { return FromF32(float32(i32u(a))) }
func F32ConvertI64S(a UntypedValue) UntypedValue { return FromF32(float32(i64s(a))) }
func F32ConvertI64U(a UntypedValue) UntypedValue { return FromF32(float32(i64u(a))) }
func F64ConvertI32S(a UntypedValue) UntypedValue { return FromF64(float64(i32s(a))) }
func F64ConvertI32U(a UntypedValue) UntypedValue { return FromF64(float64(i32u(a))) }
func F64ConvertI64S(a UntypedValue) UntypedValue { return FromF64(float64(i64s(a))) }
func F64ConvertI64U(a UntypedValue) UntypedValue { return FromF64(float64(i64u(a))) }

// truncating float-to-int conversions trap on NaN, infinity, and
// out-of-range values per the WASM spec (BadConversionToInteger).

func I32TruncF32S(a UntypedValue) (UntypedValue, error) { return truncToInt(float64(f32(a)), -2147483648, 2147483647, func(v float64) UntypedValue { return FromI32(int32(v)) }) }
func I32TruncF32U(a UntypedValue) (UntypedValue, error) { return truncToInt(float64(f32(a)), 0, 4294967295, func(v float64) UntypedValue { return FromU32(uint32(v)) }) }
func I32TruncF64S(a UntypedValue) (UntypedValue, error) { return truncToInt(f64(a), -2147483648, 2147483647, func(v float64) UntypedValue { return FromI32(int32(v)) }) }
func I32TruncF64U(a UntypedValue) (UntypedValue, error) { return truncToInt(f64(a), 0, 4294967295, func(v float64) UntypedValue { return FromU32(uint32(v)) }) }
func I64TruncF32S(a UntypedValue) (UntypedValue, error) { return truncToInt(float64(f32(a)), -9223372036854775808, 9223372036854775807, func(v float64) UntypedValue { return FromI64(int64(v)) }) }
func I64TruncF32U(a UntypedValue) (UntypedValue, error) { return truncToInt(float64(f32(a)), 0, 18446744073709551615, func(v float64) UntypedValue { return FromU64(uint64(v)) }) }
func I64TruncF64S(a UntypedValue) (UntypedValue, error) { return truncToInt(f64(a), -9223372036854775808, 9223372036854775807, func(v float64) UntypedValue { return FromI64(int64(v)) }) }
func I64TruncF64U(a UntypedValue) (UntypedValue, error) { return truncToInt(f64(a), 0, 18446744073709551615, func(v float64) UntypedValue { return FromU64(uint64(v)) }) }

func truncToInt(v float64, lo, hi float64, conv func(float64) UntypedValue) (UntypedValue, error) {
	if math.IsNaN(v) {
		return 0, rwasmerr.New(rwasmerr.BadConversionToInteger)
	}
	t := math.Trunc(v)
	if t < lo || t >= hi+1 {
		return 0, rwasmerr.New(rwasmerr.BadConversionToInteger)
	}
	return conv(t), nil
}

// saturating float-to-int conversions never trap: out-of-range values
// saturate to the nearest representable bound, NaN converts to zero.

func I32TruncSatF32S(a UntypedValue) UntypedValue {
	return FromI32(satI32(float64(f32(a))))
}
func I32TruncSatF32U(a UntypedValue) UntypedValue {
	return FromU32(satU32(float64(f32(a))))
}
func I32TruncSatF64S(a UntypedValue) UntypedValue { return FromI32(satI32(f64(a))) }
func I32TruncSatF64U(a UntypedValue) UntypedValue { return FromU32(satU32(f64(a))) }
func I64TruncSatF32S(a UntypedValue) UntypedValue {
	return FromI64(satI64(float64(f32(a))))
}
func I64TruncSatF32U(a UntypedValue) UntypedValue {
	return FromU64(satU64(float64(f32(a))))
}
func I64TruncSatF64S(a UntypedValue) UntypedValue { return FromI64(satI64(f64(a))) }
func I64TruncSatF64U(a UntypedValue) UntypedValue { return FromU64(satU64(f64(a))) }

func satI32(v float64) int32 {
	if math.IsNaN(v) {
		return 0
	}
	t := math.Trunc(v)
	if t < -2147483648 {
		return math.MinInt32
	}
	if t > 2147483647 {
		return math.MaxInt32
	}
	return int32(t)
}

func satU32(v float64) uint32 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	t := math.Trunc(v)
	if t > 4294967295 {
		return math.MaxUint32
	}
	return uint32(t)
}

func satI64(v float64) int64 {
	if math.IsNaN(v) {
		return 0
	}
	t := math.Trunc(v)
	if t < -9223372036854775808 {
		return math.MinInt64
	}
	if t >= 9223372036854775808 {
		return math.MaxInt64
	}
	return int64(t)
}

func satU64(v float64) uint64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	t := math.Trunc(v)
	if t >= 18446744073709551615 {
		return math.MaxUint64
	}
	return uint64(t)
}
