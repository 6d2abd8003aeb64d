package wasmsrc

import (
	"math"

	"github.com/rwasm-labs/rwasm/internal/compileerr"
	"github.com/rwasm-labs/rwasm/internal/leb128"
)

// loadVarint adapts the slice-based internal/leb128 loaders (which return a
// value plus bytes-consumed) to OperatorReader's running position, so every
// immediate decode in operator.go shares one error-wrapping path.
func loadVarint[T any](r *OperatorReader, decode func([]byte) (T, uint64, error)) (T, error) {
	var zero T
	if r.pos >= len(r.body) {
		return zero, compileerr.New(compileerr.MalformedInput, "truncated instruction immediate")
	}
	v, n, err := decode(r.body[r.pos:])
	if err != nil {
		return zero, compileerr.New(compileerr.MalformedInput, "bad varint immediate")
	}
	r.pos += int(n)
	return v, nil
}

func decodeU32(b []byte) (uint32, uint64, error) { return leb128.LoadUint32(b) }
func decodeI32(b []byte) (int32, uint64, error)  { return leb128.LoadInt32(b) }
func decodeI64(b []byte) (int64, uint64, error)  { return leb128.LoadInt64(b) }

func bitsToF32(b []byte) float32 {
	bits := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	return math.Float32frombits(bits)
}

func bitsToF64(b []byte) float64 {
	var bits uint64
	for i := 0; i < 8; i++ {
		bits |= uint64(b[i]) << (8 * i)
	}
	return math.Float64frombits(bits)
}
