package rvalue

import (
	"math"

	"github.com/rwasm-labs/rwasm/internal/moremath"
)

func F32Abs(a UntypedValue) UntypedValue  { return FromF32(float32(math.Abs(float64(f32(a))))) }
func F32Neg(a UntypedValue) UntypedValue  { return FromF32(-f32(a)) }
func F32Ceil(a UntypedValue) UntypedValue  { return FromF32(float32(math.Ceil(float64(f32(a))))) }
func F32Floor(a UntypedValue) UntypedValue { return FromF32(float32(math.Floor(float64(f32(a))))) }
func F32Trunc(a UntypedValue) UntypedValue { return FromF32(float32(math.Trunc(float64(f32(a))))) }
func F32Nearest(a UntypedValue) UntypedValue {
	return FromF32(moremath.WasmCompatNearestF32(f32(a)))
}
func F32Sqrt(a UntypedValue) UntypedValue { return FromF32(float32(math.Sqrt(float64(f32(a))))) }

func F32Add(a, b UntypedValue) UntypedValue { return FromF32(f32(a) + f32(b)) }
func F32Sub(a, b UntypedValue) UntypedValue { return FromF32(f32(a) - f32(b)) }
func F32Mul(a, b UntypedValue) UntypedValue { return FromF32(f32(a) * f32(b)) }
func F32Div(a, b UntypedValue) UntypedValue { return FromF32(f32(a) / f32(b)) }
func F32Min(a, b UntypedValue) UntypedValue {
	return FromF32(float32(moremath.WasmCompatMin(float64(f32(a)), float64(f32(b)))))
}
func F32Max(a, b UntypedValue) UntypedValue {
	return FromF32(float32(moremath.WasmCompatMax(float64(f32(a)), float64(f32(b)))))
}
func F32Copysign(a, b UntypedValue) UntypedValue {
	return FromF32(float32(math.Copysign(float64(f32(a)), float64(f32(b)))))
}

func F32Eq(a, b UntypedValue) UntypedValue { return FromBool(f32(a) == f32(b)) }
func F32Ne(a, b UntypedValue) UntypedValue { return FromBool(f32(a) != f32(b)) }
func F32Lt(a, b UntypedValue) UntypedValue { return FromBool(f32(a) < f32(b)) }
func F32Gt(a, b UntypedValue) UntypedValue { return FromBool(f32(a) > f32(b)) }
func F32Le(a, b UntypedValue) UntypedValue { return FromBool(f32(a) <= f32(b)) }
func F32Ge(a, b UntypedValue) UntypedValue { return FromBool(f32(a) >= f32(b)) }

func F64Abs(a UntypedValue) UntypedValue     { return FromF64(math.Abs(f64(a))) }
func F64Neg(a UntypedValue) UntypedValue     { return FromF64(-f64(a)) }
func F64Ceil(a UntypedValue) UntypedValue    { return FromF64(math.Ceil(f64(a))) }
func F64Floor(a UntypedValue) UntypedValue   { return FromF64(math.Floor(f64(a))) }
func F64Trunc(a UntypedValue) UntypedValue   { return FromF64(math.Trunc(f64(a))) }
func F64Nearest(a UntypedValue) UntypedValue { return FromF64(moremath.WasmCompatNearestF64(f64(a))) }
func F64Sqrt(a UntypedValue) UntypedValue    { return FromF64(math.Sqrt(f64(a))) }

func F64Add(a, b UntypedValue) UntypedValue { return FromF64(f64(a) + f64(b)) }
func F64Sub(a, b UntypedValue) UntypedValue { return FromF64(f64(a) - f64(b)) }
func F64Mul(a, b UntypedValue) UntypedValue { return FromF64(f64(a) * f64(b)) }
func F64Div(a, b UntypedValue) UntypedValue { return FromF64(f64(a) / f64(b)) }
func F64Min(a, b UntypedValue) UntypedValue { return FromF64(moremath.WasmCompatMin(f64(a), f64(b))) }
func F64Max(a, b UntypedValue) UntypedValue { return FromF64(moremath.WasmCompatMax(f64(a), f64(b))) }
func F64Copysign(a, b UntypedValue) UntypedValue {
	return FromF64(math.Copysign(f64(a), f64(b)))
}

func F64Eq(a, b UntypedValue) UntypedValue { return FromBool(f64(a) == f64(b)) }
func F64Ne(a, b UntypedValue) UntypedValue { return FromBool(f64(a) != f64(b)) }
func F64Lt(a, b UntypedValue) UntypedValue { return FromBool(f64(a) < f64(b)) }
func F64Gt(a, b UntypedValue) UntypedValue { return FromBool(f64(a) > f64(b)) }
func F64Le(a, b UntypedValue) UntypedValue { return FromBool(f64(a) <= f64(b)) }
func F64Ge(a, b UntypedValue) UntypedValue { return FromBool(f64(a) >= f64(b)) }
