// Package leb128 encodes and decodes the variable-length integer encoding
// WebAssembly and rWASM binaries use for indices, counts, and immediates.
//
// No WASM-aware LEB128 library appears anywhere in the retrieval pack, so
// this is a from-scratch implementation built against the encoding rules in
// the WebAssembly spec appendix: unsigned and signed variants, each capped
// at the bit width of the value being decoded, with the final group's spare
// bits required to be a correct sign/zero extension rather than silently
// ignored.
package leb128

import (
	"errors"
	"io"
)

// ErrOverflow is returned when a decoded value cannot be represented by the
// requested bit width, including when the source encodes more continuation
// groups than the bit width allows.
var ErrOverflow = errors.New("leb128: integer overflow")

// LoadUint32 decodes an unsigned 32-bit integer from the front of b,
// returning the value and the number of bytes consumed.
func LoadUint32(b []byte) (uint32, uint64, error) {
	v, n, err := loadUnsigned(&sliceReader{b}, 32)
	return uint32(v), n, err
}

// LoadUint64 decodes an unsigned 64-bit integer from the front of b.
func LoadUint64(b []byte) (uint64, uint64, error) {
	return loadUnsigned(&sliceReader{b}, 64)
}

// LoadInt32 decodes a signed 32-bit integer from the front of b.
func LoadInt32(b []byte) (int32, uint64, error) {
	v, n, err := loadSigned(&sliceReader{b}, 32)
	return int32(v), n, err
}

// LoadInt64 decodes a signed 64-bit integer from the front of b.
func LoadInt64(b []byte) (int64, uint64, error) {
	return loadSigned(&sliceReader{b}, 64)
}

// DecodeUint32 is the io.ByteReader counterpart of LoadUint32, used while
// streaming a section whose total length is not known up front.
func DecodeUint32(r io.ByteReader) (uint32, uint64, error) {
	v, n, err := loadUnsigned(r, 32)
	return uint32(v), n, err
}

// DecodeUint64 is the io.ByteReader counterpart of LoadUint64.
func DecodeUint64(r io.ByteReader) (uint64, uint64, error) {
	return loadUnsigned(r, 64)
}

// DecodeInt32 is the io.ByteReader counterpart of LoadInt32.
func DecodeInt32(r io.ByteReader) (int32, uint64, error) {
	v, n, err := loadSigned(r, 32)
	return int32(v), n, err
}

// DecodeInt64 is the io.ByteReader counterpart of LoadInt64.
func DecodeInt64(r io.ByteReader) (int64, uint64, error) {
	return loadSigned(r, 64)
}

// DecodeInt33AsInt64 decodes a signed value encoded with up to 33 significant
// bits (the block-type and memarg alignment immediates in the WASM binary
// format use this width) and sign-extends it to int64.
func DecodeInt33AsInt64(r io.ByteReader) (int64, uint64, error) {
	return loadSigned(r, 33)
}

// EncodeUint32 encodes v as an unsigned LEB128 byte sequence.
func EncodeUint32(v uint32) []byte { return encodeUnsigned(uint64(v)) }

// EncodeUint64 encodes v as an unsigned LEB128 byte sequence.
func EncodeUint64(v uint64) []byte { return encodeUnsigned(v) }

// EncodeInt32 encodes v as a signed LEB128 byte sequence.
func EncodeInt32(v int32) []byte { return encodeSigned(int64(v)) }

// EncodeInt64 encodes v as a signed LEB128 byte sequence.
func EncodeInt64(v int64) []byte { return encodeSigned(v) }

// sliceReader adapts a byte slice to io.ByteReader without allocating.
type sliceReader struct {
	b []byte
}

func (s *sliceReader) ReadByte() (byte, error) {
	if len(s.b) == 0 {
		return 0, io.ErrUnexpectedEOF
	}
	c := s.b[0]
	s.b = s.b[1:]
	return c, nil
}

func loadUnsigned(r io.ByteReader, bits uint) (uint64, uint64, error) {
	var result uint64
	var shift uint
	var n uint64
	for {
		c, err := r.ReadByte()
		if err != nil {
			return 0, 0, err
		}
		n++
		if shift+7 >= bits {
			remaining := bits - shift
			var allowed byte = 0x7f
			if remaining < 7 {
				allowed = byte(1<<remaining) - 1
			}
			payload := c & 0x7f
			if payload&^allowed != 0 {
				return 0, 0, ErrOverflow
			}
			if c&0x80 != 0 {
				return 0, 0, ErrOverflow
			}
			result |= uint64(payload) << shift
			return result, n, nil
		}
		result |= uint64(c&0x7f) << shift
		shift += 7
		if c&0x80 == 0 {
			return result, n, nil
		}
	}
}

func loadSigned(r io.ByteReader, bits uint) (int64, uint64, error) {
	var result int64
	var shift uint
	var n uint64
	for {
		c, err := r.ReadByte()
		if err != nil {
			return 0, 0, err
		}
		n++
		if shift+7 >= bits {
			remaining := bits - shift
			var allowed byte = 0x7f
			if remaining < 7 {
				allowed = byte(1<<remaining) - 1
			}
			payload := c & 0x7f
			signBitSet := remaining > 0 && payload&(1<<(remaining-1)) != 0
			hi := payload &^ allowed
			if signBitSet {
				if hi != 0x7f&^allowed {
					return 0, 0, ErrOverflow
				}
			} else if hi != 0 {
				return 0, 0, ErrOverflow
			}
			if c&0x80 != 0 {
				return 0, 0, ErrOverflow
			}
			result |= int64(payload&allowed) << shift
			if signBitSet && bits < 64 {
				result |= int64(-1) << bits
			}
			return result, n, nil
		}
		result |= int64(c&0x7f) << shift
		shift += 7
		if c&0x80 == 0 {
			if c&0x40 != 0 {
				result |= int64(-1) << shift
			}
			return result, n, nil
		}
	}
}

func encodeUnsigned(v uint64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			out = append(out, b|0x80)
		} else {
			out = append(out, b)
			return out
		}
	}
}

func encodeSigned(v int64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			out = append(out, b)
			return out
		}
		out = append(out, b|0x80)
	}
}
