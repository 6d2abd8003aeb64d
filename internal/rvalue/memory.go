package rvalue

import (
	"encoding/binary"

	"github.com/rwasm-labs/rwasm/internal/rwasmerr"
)

// Load reads an n-byte little-endian value at address+offset from mem and
// zero- or sign-extends it into a 32 or 64-bit cell, matching the WASM
// iNN.loadMM_{s,u} family. signed controls extension for widths narrower
// than the destination; width64 selects the i64 destination variants.
func Load(mem []byte, address, offset uint32, width int, signed, width64 bool) (UntypedValue, error) {
	addr, ok := boundsCheck(mem, address, offset, uint32(width))
	if !ok {
		return 0, rwasmerr.New(rwasmerr.MemoryOutOfBounds)
	}
	var raw uint64
	for i := 0; i < width; i++ {
		raw |= uint64(mem[addr+uint32(i)]) << (8 * i)
	}
	if signed {
		shift := uint(64 - width*8)
		signExtended := int64(raw<<shift) >> shift
		if width64 {
			return FromI64(signExtended), nil
		}
		return FromI32(int32(signExtended)), nil
	}
	if width64 {
		return FromU64(raw), nil
	}
	return FromU32(uint32(raw)), nil
}

// Store writes the low width bytes of value, little-endian, to
// mem[address+offset:].
func Store(mem []byte, address, offset uint32, width int, value UntypedValue) error {
	addr, ok := boundsCheck(mem, address, offset, uint32(width))
	if !ok {
		return rwasmerr.New(rwasmerr.MemoryOutOfBounds)
	}
	raw := uint64(value)
	for i := 0; i < width; i++ {
		mem[addr+uint32(i)] = byte(raw >> (8 * i))
	}
	return nil
}

func F32Load(mem []byte, address, offset uint32) (UntypedValue, error) {
	addr, ok := boundsCheck(mem, address, offset, 4)
	if !ok {
		return 0, rwasmerr.New(rwasmerr.MemoryOutOfBounds)
	}
	return UntypedValue(binary.LittleEndian.Uint32(mem[addr : addr+4])), nil
}

func F64Load(mem []byte, address, offset uint32) (UntypedValue, error) {
	addr, ok := boundsCheck(mem, address, offset, 8)
	if !ok {
		return 0, rwasmerr.New(rwasmerr.MemoryOutOfBounds)
	}
	return UntypedValue(binary.LittleEndian.Uint64(mem[addr : addr+8])), nil
}

func F32Store(mem []byte, address, offset uint32, value UntypedValue) error {
	addr, ok := boundsCheck(mem, address, offset, 4)
	if !ok {
		return rwasmerr.New(rwasmerr.MemoryOutOfBounds)
	}
	binary.LittleEndian.PutUint32(mem[addr:addr+4], uint32(value))
	return nil
}

func F64Store(mem []byte, address, offset uint32, value UntypedValue) error {
	addr, ok := boundsCheck(mem, address, offset, 8)
	if !ok {
		return rwasmerr.New(rwasmerr.MemoryOutOfBounds)
	}
	binary.LittleEndian.PutUint64(mem[addr:addr+8], uint64(value))
	return nil
}

// boundsCheck computes address+offset as a 33-bit quantity (to detect
// overflow of the 32-bit address space) and verifies the accessed range
// [addr, addr+width) falls within mem.
func boundsCheck(mem []byte, address, offset, width uint32) (uint32, bool) {
	addr := uint64(address) + uint64(offset)
	end := addr + uint64(width)
	if end > uint64(len(mem)) {
		return 0, false
	}
	return uint32(addr), true
}
