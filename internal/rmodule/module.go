// Package rmodule implements the bit-exact rWASM binary container format: a
// compiled module serialized as a fixed sequence of sections (code, memory,
// element, source program counter, function table), readable back into the
// same in-memory representation the translator produces.
package rmodule

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/rwasm-labs/rwasm/internal/opcode"
)

// Magic and version bytes identifying an rWASM binary. The second magic
// byte, 0x52, reads as the letter "R".
const (
	magicByte0  = 0xef
	magicByte1  = 0x52
	versionByte = 0x01
)

// Module is the decoded form of an rWASM binary: one flat code section, one
// merged memory blob, one merged element (funcref table contents) blob, the
// synthesized entrypoint's starting program counter, and the per-function
// code-section offsets.
type Module struct {
	CodeSection    []opcode.Instruction
	MemorySection  []byte
	ElementSection []uint32
	SourcePC       uint32
	FuncSection    []uint32
}

// Encode serializes m to w in the order magic, version, code section, memory
// section, element section, source program counter, function section.
func (m *Module) Encode(w io.Writer) error {
	if _, err := w.Write([]byte{magicByte0, magicByte1, versionByte}); err != nil {
		return err
	}
	if err := encodeInstructions(w, m.CodeSection); err != nil {
		return fmt.Errorf("rmodule: encode code section: %w", err)
	}
	if err := encodeBytes(w, m.MemorySection); err != nil {
		return fmt.Errorf("rmodule: encode memory section: %w", err)
	}
	if err := encodeUint32Slice(w, m.ElementSection); err != nil {
		return fmt.Errorf("rmodule: encode element section: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, m.SourcePC); err != nil {
		return fmt.Errorf("rmodule: encode source pc: %w", err)
	}
	if err := encodeUint32Slice(w, m.FuncSection); err != nil {
		return fmt.Errorf("rmodule: encode func section: %w", err)
	}
	return nil
}

// EncodeToBytes is Encode into a fresh buffer.
func (m *Module) EncodeToBytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := m.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads a Module previously written by Encode. It returns an error
// wrapping ErrInvalidMagic or ErrUnsupportedVersion for malformed headers.
func Decode(r io.Reader) (*Module, error) {
	var header [3]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("rmodule: read header: %w", err)
	}
	if header[0] != magicByte0 || header[1] != magicByte1 {
		return nil, ErrInvalidMagic
	}
	if header[2] != versionByte {
		return nil, ErrUnsupportedVersion
	}

	code, err := decodeInstructions(r)
	if err != nil {
		return nil, fmt.Errorf("rmodule: decode code section: %w", err)
	}
	mem, err := decodeBytes(r)
	if err != nil {
		return nil, fmt.Errorf("rmodule: decode memory section: %w", err)
	}
	elem, err := decodeUint32Slice(r)
	if err != nil {
		return nil, fmt.Errorf("rmodule: decode element section: %w", err)
	}
	var sourcePC uint32
	if err := binary.Read(r, binary.LittleEndian, &sourcePC); err != nil {
		return nil, fmt.Errorf("rmodule: decode source pc: %w", err)
	}
	funcs, err := decodeUint32Slice(r)
	if err != nil {
		return nil, fmt.Errorf("rmodule: decode func section: %w", err)
	}

	return &Module{
		CodeSection:    code,
		MemorySection:  mem,
		ElementSection: elem,
		SourcePC:       sourcePC,
		FuncSection:    funcs,
	}, nil
}

// DecodeBytes is Decode over an in-memory buffer.
func DecodeBytes(data []byte) (*Module, error) {
	return Decode(bytes.NewReader(data))
}

func encodeBytes(w io.Writer, b []byte) error {
	if err := binary.Write(w, binary.LittleEndian, uint64(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func decodeBytes(r io.Reader) ([]byte, error) {
	var length uint64
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return nil, err
	}
	if length == 0 {
		return nil, nil
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func encodeUint32Slice(w io.Writer, values []uint32) error {
	if err := binary.Write(w, binary.LittleEndian, uint64(len(values))); err != nil {
		return err
	}
	for _, v := range values {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	return nil
}

func decodeUint32Slice(r io.Reader) ([]uint32, error) {
	var length uint64
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return nil, err
	}
	if length == 0 {
		return nil, nil
	}
	values := make([]uint32, length)
	for i := range values {
		if err := binary.Read(r, binary.LittleEndian, &values[i]); err != nil {
			return nil, err
		}
	}
	return values, nil
}
