// Package moremath implements floating point helpers that math.Min, math.Max,
// and math.Round do not provide bit-exact equivalents for under the Wasm
// numeric spec (NaN propagation, signed zero, and round-half-to-even).
package moremath

import "math"

// WasmCompatMin is identical to math.Min except either argument being NaN
// always yields NaN, even when the other argument is -Inf.
// https://github.com/golang/go/blob/1d20a362d0ca4898d77865e314ef6f73582daef0/src/math/dim.go#L74-L91
func WasmCompatMin(x, y float64) float64 {
	switch {
	case math.IsNaN(x) || math.IsNaN(y):
		return math.NaN()
	case math.IsInf(x, -1) || math.IsInf(y, -1):
		return math.Inf(-1)
	case x == 0 && x == y:
		if math.Signbit(x) {
			return x
		}
		return y
	}
	if x < y {
		return x
	}
	return y
}

// WasmCompatMax is identical to math.Max except either argument being NaN
// always yields NaN, even when the other argument is +Inf.
// https://github.com/golang/go/blob/1d20a362d0ca4898d77865e314ef6f73582daef0/src/math/dim.go#L42-L59
func WasmCompatMax(x, y float64) float64 {
	switch {
	case math.IsNaN(x) || math.IsNaN(y):
		return math.NaN()
	case math.IsInf(x, 1) || math.IsInf(y, 1):
		return math.Inf(1)
	case x == 0 && x == y:
		if math.Signbit(x) {
			return y
		}
		return x
	}
	if x > y {
		return x
	}
	return y
}

// WasmCompatNearestF32 rounds to the nearest integral value, with ties
// rounding to the nearest even, unlike math.Round which rounds ties away
// from zero.
func WasmCompatNearestF32(f float32) float32 {
	return float32(wasmCompatNearest(float64(f)))
}

// WasmCompatNearestF64 is the float64 equivalent of WasmCompatNearestF32.
func WasmCompatNearestF64(f float64) float64 {
	return wasmCompatNearest(f)
}

func wasmCompatNearest(f float64) float64 {
	if f == 0 {
		return f
	}
	ceil := math.Ceil(f)
	floor := math.Floor(f)
	distToCeil := ceil - f
	distToFloor := f - floor
	switch {
	case distToCeil < distToFloor:
		return ceil
	case distToFloor < distToCeil:
		return floor
	default:
		if math.Mod(ceil, 2) == 0 {
			return ceil
		}
		return floor
	}
}
