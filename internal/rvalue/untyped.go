// Package rvalue implements the untyped 64-bit value cell the interpreter
// and translator pass around on the operand stack, along with the typed
// arithmetic, comparison, conversion, and memory-access operations WASM
// numeric instructions need. A cell carries no type tag of its own; the
// opcode dispatching on it determines how the 64 bits are read.
package rvalue

import (
	"math"
)

// UntypedValue is the stack cell type: 64 raw bits reinterpreted according to
// the instruction operating on it (i32, i64, f32, f64, funcref, or
// externref). i32 and f32 occupy the low 32 bits; the upper 32 bits of an
// i32/f32 cell are zero.
type UntypedValue uint64

// FuncRefOffset is added to a function index to obtain its cell
// representation; zero is reserved for the null funcref.
const FuncRefOffset = 1000

// NullFuncRef and NullExternRef are the zero null encoding; altNullRef is
// the alternative one, u32::MAX (all-ones in the low 32 bits). IsNullRef
// accepts both.
const (
	NullFuncRef   UntypedValue = 0
	NullExternRef UntypedValue = 0
	altNullRef    UntypedValue = UntypedValue(math.MaxUint32)
)

func FromI32(v int32) UntypedValue   { return UntypedValue(uint32(v)) }
func FromU32(v uint32) UntypedValue  { return UntypedValue(v) }
func FromI64(v int64) UntypedValue   { return UntypedValue(v) }
func FromU64(v uint64) UntypedValue  { return UntypedValue(v) }
func FromF32(v float32) UntypedValue { return UntypedValue(math.Float32bits(v)) }
func FromF64(v float64) UntypedValue { return UntypedValue(math.Float64bits(v)) }

func FromBool(v bool) UntypedValue {
	if v {
		return UntypedValue(1)
	}
	return UntypedValue(0)
}

// FromFuncRef encodes a concrete function index as a funcref cell.
func FromFuncRef(index uint32) UntypedValue { return UntypedValue(index + FuncRefOffset) }

func (v UntypedValue) I32() int32     { return int32(uint32(v)) }
func (v UntypedValue) U32() uint32    { return uint32(v) }
func (v UntypedValue) I64() int64     { return int64(v) }
func (v UntypedValue) U64() uint64    { return uint64(v) }
func (v UntypedValue) F32() float32   { return math.Float32frombits(uint32(v)) }
func (v UntypedValue) F64() float64   { return math.Float64frombits(uint64(v)) }
func (v UntypedValue) Bool() bool     { return v != 0 }
func (v UntypedValue) IsNullRef() bool {
	return v == NullFuncRef || v == altNullRef
}

// FuncIndex returns the decoded function index of a non-null funcref cell.
func (v UntypedValue) FuncIndex() uint32 { return uint32(v) - FuncRefOffset }

func i32u(v UntypedValue) uint32 { return uint32(v) }
func i32s(v UntypedValue) int32  { return int32(uint32(v)) }
func i64u(v UntypedValue) uint64 { return uint64(v) }
func i64s(v UntypedValue) int64  { return int64(v) }
func f32(v UntypedValue) float32 { return v.F32() }
func f64(v UntypedValue) float64 { return v.F64() }
