package translator

import "github.com/rwasm-labs/rwasm/internal/opcode"

// These tables map a source WASM opcode byte to its rWASM target opcode for
// the instruction families that lower one-to-one with no change in shape:
// comparisons, unary/binary numeric ops, conversions, loads, and stores.
// Control flow, calls, locals/globals, and the bulk-memory/reference-type
// family all need bespoke lowering and are handled directly in
// func_translator.go instead of through a table.

var compareOps = map[byte]opcode.Opcode{
	0x45: opcode.I32Eqz, 0x46: opcode.I32Eq, 0x47: opcode.I32Ne,
	0x48: opcode.I32LtS, 0x49: opcode.I32LtU, 0x4a: opcode.I32GtS, 0x4b: opcode.I32GtU,
	0x4c: opcode.I32LeS, 0x4d: opcode.I32LeU, 0x4e: opcode.I32GeS, 0x4f: opcode.I32GeU,
	0x50: opcode.I64Eqz, 0x51: opcode.I64Eq, 0x52: opcode.I64Ne,
	0x53: opcode.I64LtS, 0x54: opcode.I64LtU, 0x55: opcode.I64GtS, 0x56: opcode.I64GtU,
	0x57: opcode.I64LeS, 0x58: opcode.I64LeU, 0x59: opcode.I64GeS, 0x5a: opcode.I64GeU,
	0x5b: opcode.F32Eq, 0x5c: opcode.F32Ne, 0x5d: opcode.F32Lt, 0x5e: opcode.F32Gt,
	0x5f: opcode.F32Le, 0x60: opcode.F32Ge,
	0x61: opcode.F64Eq, 0x62: opcode.F64Ne, 0x63: opcode.F64Lt, 0x64: opcode.F64Gt,
	0x65: opcode.F64Le, 0x66: opcode.F64Ge,
}

var unaryOps = map[byte]opcode.Opcode{
	0x67: opcode.I32Clz, 0x68: opcode.I32Ctz, 0x69: opcode.I32Popcnt,
	0x79: opcode.I64Clz, 0x7a: opcode.I64Ctz, 0x7b: opcode.I64Popcnt,
	0x8b: opcode.F32Abs, 0x8c: opcode.F32Neg, 0x8d: opcode.F32Ceil, 0x8e: opcode.F32Floor,
	0x8f: opcode.F32Trunc, 0x90: opcode.F32Nearest, 0x91: opcode.F32Sqrt,
	0x99: opcode.F64Abs, 0x9a: opcode.F64Neg, 0x9b: opcode.F64Ceil, 0x9c: opcode.F64Floor,
	0x9d: opcode.F64Trunc, 0x9e: opcode.F64Nearest, 0x9f: opcode.F64Sqrt,
}

var binaryOps = map[byte]opcode.Opcode{
	0x6a: opcode.I32Add, 0x6b: opcode.I32Sub, 0x6c: opcode.I32Mul,
	0x6d: opcode.I32DivS, 0x6e: opcode.I32DivU, 0x6f: opcode.I32RemS, 0x70: opcode.I32RemU,
	0x71: opcode.I32And, 0x72: opcode.I32Or, 0x73: opcode.I32Xor,
	0x74: opcode.I32Shl, 0x75: opcode.I32ShrS, 0x76: opcode.I32ShrU,
	0x77: opcode.I32Rotl, 0x78: opcode.I32Rotr,
	0x7c: opcode.I64Add, 0x7d: opcode.I64Sub, 0x7e: opcode.I64Mul,
	0x7f: opcode.I64DivS, 0x80: opcode.I64DivU, 0x81: opcode.I64RemS, 0x82: opcode.I64RemU,
	0x83: opcode.I64And, 0x84: opcode.I64Or, 0x85: opcode.I64Xor,
	0x86: opcode.I64Shl, 0x87: opcode.I64ShrS, 0x88: opcode.I64ShrU,
	0x89: opcode.I64Rotl, 0x8a: opcode.I64Rotr,
	0x92: opcode.F32Add, 0x93: opcode.F32Sub, 0x94: opcode.F32Mul, 0x95: opcode.F32Div,
	0x96: opcode.F32Min, 0x97: opcode.F32Max, 0x98: opcode.F32Copysign,
	0xa0: opcode.F64Add, 0xa1: opcode.F64Sub, 0xa2: opcode.F64Mul, 0xa3: opcode.F64Div,
	0xa4: opcode.F64Min, 0xa5: opcode.F64Max, 0xa6: opcode.F64Copysign,
}

var convertOps = map[byte]opcode.Opcode{
	0xa7: opcode.I32WrapI64,
	0xa8: opcode.I32TruncF32S, 0xa9: opcode.I32TruncF32U,
	0xaa: opcode.I32TruncF64S, 0xab: opcode.I32TruncF64U,
	0xac: opcode.I64ExtendI32S, 0xad: opcode.I64ExtendI32U,
	0xae: opcode.I64TruncF32S, 0xaf: opcode.I64TruncF32U,
	0xb0: opcode.I64TruncF64S, 0xb1: opcode.I64TruncF64U,
	0xb2: opcode.F32ConvertI32S, 0xb3: opcode.F32ConvertI32U,
	0xb4: opcode.F32ConvertI64S, 0xb5: opcode.F32ConvertI64U, 0xb6: opcode.F32DemoteF64,
	0xb7: opcode.F64ConvertI32S, 0xb8: opcode.F64ConvertI32U,
	0xb9: opcode.F64ConvertI64S, 0xba: opcode.F64ConvertI64U, 0xbb: opcode.F64PromoteF32,
	0xc0: opcode.I32Extend8S, 0xc1: opcode.I32Extend16S,
	0xc2: opcode.I64Extend8S, 0xc3: opcode.I64Extend16S, 0xc4: opcode.I64Extend32S,
}

// reinterpretOps is the *.reinterpret_* family (0xbc-0xbf): since a stack
// cell is already an untyped 64-bit pattern with i32/f32 sharing the low 32
// bits and i64/f64 sharing all 64, reinterpreting one as the other changes
// no bits at all. These lower to nothing -- the only WASM numeric family
// with a true no-op translation on this value representation.
var reinterpretOps = map[byte]bool{
	0xbc: true, 0xbd: true, 0xbe: true, 0xbf: true,
}

// saturatingTruncOps maps the 0xFC-prefixed sub-opcode index (0-7) to its
// target opcode.
var saturatingTruncOps = map[uint32]opcode.Opcode{
	0: opcode.I32TruncSatF32S, 1: opcode.I32TruncSatF32U,
	2: opcode.I32TruncSatF64S, 3: opcode.I32TruncSatF64U,
	4: opcode.I64TruncSatF32S, 5: opcode.I64TruncSatF32U,
	6: opcode.I64TruncSatF64S, 7: opcode.I64TruncSatF64U,
}

var loadOps = map[byte]opcode.Opcode{
	0x28: opcode.I32Load, 0x29: opcode.I64Load, 0x2a: opcode.F32Load, 0x2b: opcode.F64Load,
	0x2c: opcode.I32Load8S, 0x2d: opcode.I32Load8U, 0x2e: opcode.I32Load16S, 0x2f: opcode.I32Load16U,
	0x30: opcode.I64Load8S, 0x31: opcode.I64Load8U, 0x32: opcode.I64Load16S, 0x33: opcode.I64Load16U,
	0x34: opcode.I64Load32S, 0x35: opcode.I64Load32U,
}

var storeOps = map[byte]opcode.Opcode{
	0x36: opcode.I32Store, 0x37: opcode.I64Store, 0x38: opcode.F32Store, 0x39: opcode.F64Store,
	0x3a: opcode.I32Store8, 0x3b: opcode.I32Store16,
	0x3c: opcode.I64Store8, 0x3d: opcode.I64Store16, 0x3e: opcode.I64Store32,
}
