package wasmsrc

import (
	"github.com/rwasm-labs/rwasm/internal/compileerr"
	"github.com/rwasm-labs/rwasm/internal/rvalue"
)

// Op identifies a source WASM operator. Unlike internal/opcode.Opcode (the
// flat rWASM target set), this still carries the MVP's structured control
// flow (block/loop/if/else/end) -- the translator consumes that structure
// directly while lowering, rather than it being pre-flattened here.
type Op uint16

const (
	OpUnreachable Op = iota
	OpNop
	OpBlock
	OpLoop
	OpIf
	OpElse
	OpEnd
	OpBr
	OpBrIf
	OpBrTable
	OpReturn
	OpCall
	OpCallIndirect
	OpDrop
	OpSelect
	OpSelectTyped
	OpLocalGet
	OpLocalSet
	OpLocalTee
	OpGlobalGet
	OpGlobalSet
	OpTableGet
	OpTableSet
	OpLoad
	OpStore
	OpMemorySize
	OpMemoryGrow
	OpI32Const
	OpI64Const
	OpF32Const
	OpF64Const
	OpCompare
	OpUnary
	OpBinary
	OpConvert
	OpRefNull
	OpRefIsNull
	OpRefFunc
	OpMemoryInit
	OpDataDrop
	OpMemoryCopy
	OpMemoryFill
	OpTableInit
	OpElemDrop
	OpTableCopy
	OpTableGrow
	OpTableSize
	OpTableFill
)

// BlockType is a structured control instruction's type annotation: either
// empty, a single value type, or an index into the module's type section
// (used for multi-value blocks).
type BlockType struct {
	Empty    bool
	SingleOK bool
	Single   ValType
	TypeIdx  uint32
}

// MemArg is the alignment/offset pair every load/store carries.
type MemArg struct {
	Align  uint32
	Offset uint32
}

// Operator is one decoded source-WASM instruction. Only the fields
// meaningful for Op are populated; see the per-Op comments in the
// translator for which.
type Operator struct {
	Op        Op
	RawByte   byte // the concrete opcode byte, e.g. distinguishes i32.add from i32.sub within OpBinary
	Block     BlockType
	RelDepth  uint32   // Br/BrIf/relative label depth
	Targets   []uint32 // BrTable: depths for each case, Targets[len-1] is the default
	LocalIdx  uint32
	GlobalIdx uint32
	TableIdx  uint32
	TableIdx2 uint32 // table.copy/table.init's second table operand
	FuncIdx   uint32
	TypeIdx   uint32
	SegIdx    uint32
	MemArg    MemArg
	Const     rvalue.UntypedValue
	ValType   ValType
}

// OperatorReader pulls one Operator at a time from a function body or
// constant expression byte stream, mirroring the pull-based
// `OperatorsReader` the original drives via `visit_operator` in
// func_builder.rs -- kept here as a reusable primitive since both function
// bodies and element/data offset expressions need it.
type OperatorReader struct {
	body []byte
	pos  int
}

func NewOperatorReader(body []byte) *OperatorReader {
	return &OperatorReader{body: body}
}

// Done reports whether the stream is exhausted (only true after the
// top-level `end` of a function body has been consumed).
func (r *OperatorReader) Done() bool { return r.pos >= len(r.body) }

func (r *OperatorReader) readByte() (byte, error) {
	if r.pos >= len(r.body) {
		return 0, compileerr.New(compileerr.MalformedInput, "truncated instruction stream")
	}
	b := r.body[r.pos]
	r.pos++
	return b, nil
}

func (r *OperatorReader) readU32() (uint32, error) {
	return loadVarint(r, decodeU32)
}

func (r *OperatorReader) readI32() (int32, error) {
	return loadVarint(r, decodeI32)
}

func (r *OperatorReader) readI64() (int64, error) {
	return loadVarint(r, decodeI64)
}

func (r *OperatorReader) readF32() (float32, error) {
	if r.pos+4 > len(r.body) {
		return 0, compileerr.New(compileerr.MalformedInput, "truncated f32.const")
	}
	b := r.body[r.pos : r.pos+4]
	r.pos += 4
	return bitsToF32(b), nil
}

func (r *OperatorReader) readF64() (float64, error) {
	if r.pos+8 > len(r.body) {
		return 0, compileerr.New(compileerr.MalformedInput, "truncated f64.const")
	}
	b := r.body[r.pos : r.pos+8]
	r.pos += 8
	return bitsToF64(b), nil
}

func (r *OperatorReader) readMemArg() (MemArg, error) {
	align, err := r.readU32()
	if err != nil {
		return MemArg{}, err
	}
	offset, err := r.readU32()
	if err != nil {
		return MemArg{}, err
	}
	return MemArg{Align: align, Offset: offset}, nil
}

func (r *OperatorReader) readBlockType() (BlockType, error) {
	if r.pos >= len(r.body) {
		return BlockType{}, compileerr.New(compileerr.MalformedInput, "truncated block type")
	}
	b := r.body[r.pos]
	switch b {
	case 0x40:
		r.pos++
		return BlockType{Empty: true}, nil
	case byte(ValI32), byte(ValI64), byte(ValF32), byte(ValF64), byte(ValFuncRef), byte(ValExternRef):
		r.pos++
		return BlockType{SingleOK: true, Single: ValType(b)}, nil
	default:
		idx, err := r.readI64() // blocktype indices are encoded as a signed 33-bit LEB128
		if err != nil {
			return BlockType{}, err
		}
		if idx < 0 {
			return BlockType{}, compileerr.New(compileerr.MalformedInput, "negative block type index")
		}
		return BlockType{TypeIdx: uint32(idx)}, nil
	}
}

// Next decodes the next operator. Callers drive this in a loop until Done
// returns true (after the function body's outermost `end`).
func (r *OperatorReader) Next() (Operator, error) {
	opByte, err := r.readByte()
	if err != nil {
		return Operator{}, err
	}
	switch opByte {
	case 0x00:
		return Operator{Op: OpUnreachable}, nil
	case 0x01:
		return Operator{Op: OpNop}, nil
	case 0x02, 0x03, 0x04:
		bt, err := r.readBlockType()
		if err != nil {
			return Operator{}, err
		}
		op := OpBlock
		if opByte == 0x03 {
			op = OpLoop
		} else if opByte == 0x04 {
			op = OpIf
		}
		return Operator{Op: op, Block: bt}, nil
	case 0x05:
		return Operator{Op: OpElse}, nil
	case 0x0b:
		return Operator{Op: OpEnd}, nil
	case 0x0c, 0x0d:
		depth, err := r.readU32()
		if err != nil {
			return Operator{}, err
		}
		op := OpBr
		if opByte == 0x0d {
			op = OpBrIf
		}
		return Operator{Op: op, RelDepth: depth}, nil
	case 0x0e:
		n, err := r.readU32()
		if err != nil {
			return Operator{}, err
		}
		targets := make([]uint32, n+1)
		for i := range targets {
			d, err := r.readU32()
			if err != nil {
				return Operator{}, err
			}
			targets[i] = d
		}
		return Operator{Op: OpBrTable, Targets: targets}, nil
	case 0x0f:
		return Operator{Op: OpReturn}, nil
	case 0x10:
		idx, err := r.readU32()
		if err != nil {
			return Operator{}, err
		}
		return Operator{Op: OpCall, FuncIdx: idx}, nil
	case 0x11:
		typeIdx, err := r.readU32()
		if err != nil {
			return Operator{}, err
		}
		tableIdx, err := r.readU32()
		if err != nil {
			return Operator{}, err
		}
		return Operator{Op: OpCallIndirect, TypeIdx: typeIdx, TableIdx: tableIdx}, nil
	case 0x1a:
		return Operator{Op: OpDrop}, nil
	case 0x1b:
		return Operator{Op: OpSelect}, nil
	case 0x1c:
		n, err := r.readU32()
		if err != nil {
			return Operator{}, err
		}
		if n != 1 {
			return Operator{}, compileerr.New(compileerr.UnsupportedProposal, "typed select with more than one type")
		}
		t, err := r.readByte()
		if err != nil {
			return Operator{}, err
		}
		return Operator{Op: OpSelectTyped, ValType: ValType(t)}, nil
	case 0x20, 0x21, 0x22:
		idx, err := r.readU32()
		if err != nil {
			return Operator{}, err
		}
		op := OpLocalGet
		if opByte == 0x21 {
			op = OpLocalSet
		} else if opByte == 0x22 {
			op = OpLocalTee
		}
		return Operator{Op: op, LocalIdx: idx}, nil
	case 0x23, 0x24:
		idx, err := r.readU32()
		if err != nil {
			return Operator{}, err
		}
		op := OpGlobalGet
		if opByte == 0x24 {
			op = OpGlobalSet
		}
		return Operator{Op: op, GlobalIdx: idx}, nil
	case 0x25, 0x26:
		idx, err := r.readU32()
		if err != nil {
			return Operator{}, err
		}
		op := OpTableGet
		if opByte == 0x26 {
			op = OpTableSet
		}
		return Operator{Op: op, TableIdx: idx}, nil
	case 0x28, 0x29, 0x2a, 0x2b, 0x2c, 0x2d, 0x2e, 0x2f,
		0x30, 0x31, 0x32, 0x33, 0x34, 0x35:
		ma, err := r.readMemArg()
		if err != nil {
			return Operator{}, err
		}
		return Operator{Op: OpLoad, RawByte: opByte, MemArg: ma}, nil
	case 0x36, 0x37, 0x38, 0x39, 0x3a, 0x3b, 0x3c, 0x3d, 0x3e:
		ma, err := r.readMemArg()
		if err != nil {
			return Operator{}, err
		}
		return Operator{Op: OpStore, RawByte: opByte, MemArg: ma}, nil
	case 0x3f:
		if _, err := r.readByte(); err != nil { // reserved memory index, always 0
			return Operator{}, err
		}
		return Operator{Op: OpMemorySize}, nil
	case 0x40:
		if _, err := r.readByte(); err != nil {
			return Operator{}, err
		}
		return Operator{Op: OpMemoryGrow}, nil
	case 0x41:
		v, err := r.readI32()
		if err != nil {
			return Operator{}, err
		}
		return Operator{Op: OpI32Const, Const: rvalue.FromI32(v)}, nil
	case 0x42:
		v, err := r.readI64()
		if err != nil {
			return Operator{}, err
		}
		return Operator{Op: OpI64Const, Const: rvalue.FromI64(v)}, nil
	case 0x43:
		v, err := r.readF32()
		if err != nil {
			return Operator{}, err
		}
		return Operator{Op: OpF32Const, Const: rvalue.FromF32(v)}, nil
	case 0x44:
		v, err := r.readF64()
		if err != nil {
			return Operator{}, err
		}
		return Operator{Op: OpF64Const, Const: rvalue.FromF64(v)}, nil
	case 0x45, 0x50:
		return Operator{Op: OpCompare, RawByte: opByte}, nil
	case 0xd1:
		return Operator{Op: OpRefIsNull}, nil
	case 0xd0:
		t, err := r.readByte()
		if err != nil {
			return Operator{}, err
		}
		return Operator{Op: OpRefNull, ValType: ValType(t)}, nil
	case 0xd2:
		idx, err := r.readU32()
		if err != nil {
			return Operator{}, err
		}
		return Operator{Op: OpRefFunc, FuncIdx: idx}, nil
	case 0xfc:
		return r.nextPrefixed()
	default:
		if opByte >= 0x46 && opByte <= 0x66 {
			return Operator{Op: OpCompare, RawByte: opByte}, nil
		}
		if opByte >= 0x67 && opByte <= 0x8a {
			if opByte == 0x67 || opByte == 0x68 || opByte == 0x69 ||
				opByte == 0x79 || opByte == 0x7a || opByte == 0x7b {
				return Operator{Op: OpUnary, RawByte: opByte}, nil
			}
			return Operator{Op: OpBinary, RawByte: opByte}, nil
		}
		if opByte >= 0x8b && opByte <= 0xa6 {
			isUnary := opByte <= 0x91 || (opByte >= 0x99 && opByte <= 0x9f)
			if isUnary {
				return Operator{Op: OpUnary, RawByte: opByte}, nil
			}
			return Operator{Op: OpBinary, RawByte: opByte}, nil
		}
		if opByte >= 0xa7 && opByte <= 0xbf {
			return Operator{Op: OpConvert, RawByte: opByte}, nil
		}
		if opByte >= 0xc0 && opByte <= 0xc4 {
			return Operator{Op: OpConvert, RawByte: opByte}, nil
		}
		return Operator{}, compileerr.New(compileerr.MalformedInput, "unknown opcode byte")
	}
}

// nextPrefixed decodes the 0xFC-prefixed family: saturating truncation and
// bulk-memory operators.
func (r *OperatorReader) nextPrefixed() (Operator, error) {
	sub, err := r.readU32()
	if err != nil {
		return Operator{}, err
	}
	switch sub {
	case 0, 1, 2, 3, 4, 5, 6, 7:
		return Operator{Op: OpConvert, RawByte: 0xfc, TypeIdx: sub}, nil
	case 8:
		dataIdx, err := r.readU32()
		if err != nil {
			return Operator{}, err
		}
		if _, err := r.readByte(); err != nil { // reserved memory index
			return Operator{}, err
		}
		return Operator{Op: OpMemoryInit, SegIdx: dataIdx}, nil
	case 9:
		dataIdx, err := r.readU32()
		if err != nil {
			return Operator{}, err
		}
		return Operator{Op: OpDataDrop, SegIdx: dataIdx}, nil
	case 10:
		if _, err := r.readByte(); err != nil {
			return Operator{}, err
		}
		if _, err := r.readByte(); err != nil {
			return Operator{}, err
		}
		return Operator{Op: OpMemoryCopy}, nil
	case 11:
		if _, err := r.readByte(); err != nil {
			return Operator{}, err
		}
		return Operator{Op: OpMemoryFill}, nil
	case 12:
		elemIdx, err := r.readU32()
		if err != nil {
			return Operator{}, err
		}
		tableIdx, err := r.readU32()
		if err != nil {
			return Operator{}, err
		}
		return Operator{Op: OpTableInit, SegIdx: elemIdx, TableIdx: tableIdx}, nil
	case 13:
		elemIdx, err := r.readU32()
		if err != nil {
			return Operator{}, err
		}
		return Operator{Op: OpElemDrop, SegIdx: elemIdx}, nil
	case 14:
		dst, err := r.readU32()
		if err != nil {
			return Operator{}, err
		}
		src, err := r.readU32()
		if err != nil {
			return Operator{}, err
		}
		return Operator{Op: OpTableCopy, TableIdx: dst, TableIdx2: src}, nil
	case 15:
		idx, err := r.readU32()
		if err != nil {
			return Operator{}, err
		}
		return Operator{Op: OpTableGrow, TableIdx: idx}, nil
	case 16:
		idx, err := r.readU32()
		if err != nil {
			return Operator{}, err
		}
		return Operator{Op: OpTableSize, TableIdx: idx}, nil
	case 17:
		idx, err := r.readU32()
		if err != nil {
			return Operator{}, err
		}
		return Operator{Op: OpTableFill, TableIdx: idx}, nil
	default:
		return Operator{}, compileerr.New(compileerr.UnsupportedProposal, "unknown 0xfc-prefixed opcode")
	}
}
