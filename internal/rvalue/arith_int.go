package rvalue

import (
	"math/bits"

	"github.com/rwasm-labs/rwasm/internal/rwasmerr"
)

// --- i32 arithmetic ---

func I32Add(a, b UntypedValue) UntypedValue { return FromI32(i32s(a) + i32s(b)) }
func I32Sub(a, b UntypedValue) UntypedValue { return FromI32(i32s(a) - i32s(b)) }
func I32Mul(a, b UntypedValue) UntypedValue { return FromI32(i32s(a) * i32s(b)) }

func I32DivS(a, b UntypedValue) (UntypedValue, error) {
	x, y := i32s(a), i32s(b)
	if y == 0 {
		return 0, rwasmerr.New(rwasmerr.IntegerDivisionByZero)
	}
	if x == -2147483648 && y == -1 {
		return 0, rwasmerr.New(rwasmerr.IntegerOverflow)
	}
	return FromI32(x / y), nil
}

func I32DivU(a, b UntypedValue) (UntypedValue, error) {
	x, y := i32u(a), i32u(b)
	if y == 0 {
		return 0, rwasmerr.New(rwasmerr.IntegerDivisionByZero)
	}
	return FromU32(x / y), nil
}

func I32RemS(a, b UntypedValue) (UntypedValue, error) {
	x, y := i32s(a), i32s(b)
	if y == 0 {
		return 0, rwasmerr.New(rwasmerr.IntegerDivisionByZero)
	}
	if x == -2147483648 && y == -1 {
		return FromI32(0), nil
	}
	return FromI32(x % y), nil
}

func I32RemU(a, b UntypedValue) (UntypedValue, error) {
	x, y := i32u(a), i32u(b)
	if y == 0 {
		return 0, rwasmerr.New(rwasmerr.IntegerDivisionByZero)
	}
	return FromU32(x % y), nil
}

func I32And(a, b UntypedValue) UntypedValue  { return FromU32(i32u(a) & i32u(b)) }
func I32Or(a, b UntypedValue) UntypedValue   { return FromU32(i32u(a) | i32u(b)) }
func I32Xor(a, b UntypedValue) UntypedValue  { return FromU32(i32u(a) ^ i32u(b)) }
func I32Shl(a, b UntypedValue) UntypedValue  { return FromU32(i32u(a) << (i32u(b) % 32)) }
func I32ShrS(a, b UntypedValue) UntypedValue { return FromI32(i32s(a) >> (i32u(b) % 32)) }
func I32ShrU(a, b UntypedValue) UntypedValue { return FromU32(i32u(a) >> (i32u(b) % 32)) }
func I32Rotl(a, b UntypedValue) UntypedValue {
	return FromU32(bits.RotateLeft32(i32u(a), int(i32u(b)%32)))
}
func I32Rotr(a, b UntypedValue) UntypedValue {
	return FromU32(bits.RotateLeft32(i32u(a), -int(i32u(b)%32)))
}

func I32Clz(a UntypedValue) UntypedValue    { return FromU32(uint32(bits.LeadingZeros32(i32u(a)))) }
func I32Ctz(a UntypedValue) UntypedValue    { return FromU32(uint32(bits.TrailingZeros32(i32u(a)))) }
func I32Popcnt(a UntypedValue) UntypedValue { return FromU32(uint32(bits.OnesCount32(i32u(a)))) }

func I32Eqz(a UntypedValue) UntypedValue        { return FromBool(i32u(a) == 0) }
func I32Eq(a, b UntypedValue) UntypedValue      { return FromBool(i32u(a) == i32u(b)) }
func I32Ne(a, b UntypedValue) UntypedValue      { return FromBool(i32u(a) != i32u(b)) }
func I32LtS(a, b UntypedValue) UntypedValue     { return FromBool(i32s(a) < i32s(b)) }
func I32LtU(a, b UntypedValue) UntypedValue     { return FromBool(i32u(a) < i32u(b)) }
func I32GtS(a, b UntypedValue) UntypedValue     { return FromBool(i32s(a) > i32s(b)) }
func I32GtU(a, b UntypedValue) UntypedValue     { return FromBool(i32u(a) > i32u(b)) }
func I32LeS(a, b UntypedValue) UntypedValue     { return FromBool(i32s(a) <= i32s(b)) }
func I32LeU(a, b UntypedValue) UntypedValue     { return FromBool(i32u(a) <= i32u(b)) }
func I32GeS(a, b UntypedValue) UntypedValue     { return FromBool(i32s(a) >= i32s(b)) }
func I32GeU(a, b UntypedValue) UntypedValue     { return FromBool(i32u(a) >= i32u(b)) }

// --- i64 arithmetic ---

func I64Add(a, b UntypedValue) UntypedValue { return FromI64(i64s(a) + i64s(b)) }
func I64Sub(a, b UntypedValue) UntypedValue { return FromI64(i64s(a) - i64s(b)) }
func I64Mul(a, b UntypedValue) UntypedValue { return FromI64(i64s(a) * i64s(b)) }

func I64DivS(a, b UntypedValue) (UntypedValue, error) {
	x, y := i64s(a), i64s(b)
	if y == 0 {
		return 0, rwasmerr.New(rwasmerr.IntegerDivisionByZero)
	}
	if x == -9223372036854775808 && y == -1 {
		return 0, rwasmerr.New(rwasmerr.IntegerOverflow)
	}
	return FromI64(x / y), nil
}

func I64DivU(a, b UntypedValue) (UntypedValue, error) {
	x, y := i64u(a), i64u(b)
	if y == 0 {
		return 0, rwasmerr.New(rwasmerr.IntegerDivisionByZero)
	}
	return FromU64(x / y), nil
}

func I64RemS(a, b UntypedValue) (UntypedValue, error) {
	x, y := i64s(a), i64s(b)
	if y == 0 {
		return 0, rwasmerr.New(rwasmerr.IntegerDivisionByZero)
	}
	if x == -9223372036854775808 && y == -1 {
		return FromI64(0), nil
	}
	return FromI64(x % y), nil
}

func I64RemU(a, b UntypedValue) (UntypedValue, error) {
	x, y := i64u(a), i64u(b)
	if y == 0 {
		return 0, rwasmerr.New(rwasmerr.IntegerDivisionByZero)
	}
	return FromU64(x % y), nil
}

func I64And(a, b UntypedValue) UntypedValue  { return FromU64(i64u(a) & i64u(b)) }
func I64Or(a, b UntypedValue) UntypedValue   { return FromU64(i64u(a) | i64u(b)) }
func I64Xor(a, b UntypedValue) UntypedValue  { return FromU64(i64u(a) ^ i64u(b)) }
func I64Shl(a, b UntypedValue) UntypedValue  { return FromU64(i64u(a) << (i64u(b) % 64)) }
func I64ShrS(a, b UntypedValue) UntypedValue { return FromI64(i64s(a) >> (i64u(b) % 64)) }
func I64ShrU(a, b UntypedValue) UntypedValue { return FromU64(i64u(a) >> (i64u(b) % 64)) }
func I64Rotl(a, b UntypedValue) UntypedValue {
	return FromU64(bits.RotateLeft64(i64u(a), int(i64u(b)%64)))
}
func I64Rotr(a, b UntypedValue) UntypedValue {
	return FromU64(bits.RotateLeft64(i64u(a), -int(i64u(b)%64)))
}

func I64Clz(a UntypedValue) UntypedValue    { return FromU64(uint64(bits.LeadingZeros64(i64u(a)))) }
func I64Ctz(a UntypedValue) UntypedValue    { return FromU64(uint64(bits.TrailingZeros64(i64u(a)))) }
func I64Popcnt(a UntypedValue) UntypedValue { return FromU64(uint64(bits.OnesCount64(i64u(a)))) }

func I64Eqz(a UntypedValue) UntypedValue    { return FromBool(i64u(a) == 0) }
func I64Eq(a, b UntypedValue) UntypedValue  { return FromBool(i64u(a) == i64u(b)) }
func I64Ne(a, b UntypedValue) UntypedValue  { return FromBool(i64u(a) != i64u(b)) }
func I64LtS(a, b UntypedValue) UntypedValue { return FromBool(i64s(a) < i64s(b)) }
func I64LtU(a, b UntypedValue) UntypedValue { return FromBool(i64u(a) < i64u(b)) }
func I64GtS(a, b UntypedValue) UntypedValue { return FromBool(i64s(a) > i64s(b)) }
func I64GtU(a, b UntypedValue) UntypedValue { return FromBool(i64u(a) > i64u(b)) }
func I64LeS(a, b UntypedValue) UntypedValue { return FromBool(i64s(a) <= i64s(b)) }
func I64LeU(a, b UntypedValue) UntypedValue { return FromBool(i64u(a) <= i64u(b)) }
func I64GeS(a, b UntypedValue) UntypedValue { return FromBool(i64s(a) >= i64s(b)) }
func I64GeU(a, b UntypedValue) UntypedValue { return FromBool(i64u(a) >= i64u(b)) }
