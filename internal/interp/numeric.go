package interp

import (
	"github.com/rwasm-labs/rwasm/internal/opcode"
	"github.com/rwasm-labs/rwasm/internal/rvalue"
	"github.com/rwasm-labs/rwasm/internal/rwasmerr"
)

// The four dispatch tables below are this port's equivalent of alu.rs's and
// fpu.rs's per-opcode match arms: Go has no macro to generate one function
// per opcode cheaply, so instead every pure numeric opcode is registered
// once, here, against the rvalue function that already implements it
// (arith_int.go, arith_float.go, convert.go). execNumeric below looks an
// opcode up in whichever table claims it.

type binaryOp func(a, b rvalue.UntypedValue) rvalue.UntypedValue
type fallibleBinaryOp func(a, b rvalue.UntypedValue) (rvalue.UntypedValue, error)
type unaryOp func(a rvalue.UntypedValue) rvalue.UntypedValue
type fallibleUnaryOp func(a rvalue.UntypedValue) (rvalue.UntypedValue, error)

var binaryOps = map[opcode.Opcode]binaryOp{
	opcode.I32Add: rvalue.I32Add, opcode.I32Sub: rvalue.I32Sub, opcode.I32Mul: rvalue.I32Mul,
	opcode.I32And: rvalue.I32And, opcode.I32Or: rvalue.I32Or, opcode.I32Xor: rvalue.I32Xor,
	opcode.I32Shl: rvalue.I32Shl, opcode.I32ShrS: rvalue.I32ShrS, opcode.I32ShrU: rvalue.I32ShrU,
	opcode.I32Rotl: rvalue.I32Rotl, opcode.I32Rotr: rvalue.I32Rotr,
	opcode.I32Eq: rvalue.I32Eq, opcode.I32Ne: rvalue.I32Ne,
	opcode.I32LtS: rvalue.I32LtS, opcode.I32LtU: rvalue.I32LtU,
	opcode.I32GtS: rvalue.I32GtS, opcode.I32GtU: rvalue.I32GtU,
	opcode.I32LeS: rvalue.I32LeS, opcode.I32LeU: rvalue.I32LeU,
	opcode.I32GeS: rvalue.I32GeS, opcode.I32GeU: rvalue.I32GeU,

	opcode.I64Add: rvalue.I64Add, opcode.I64Sub: rvalue.I64Sub, opcode.I64Mul: rvalue.I64Mul,
	opcode.I64And: rvalue.I64And, opcode.I64Or: rvalue.I64Or, opcode.I64Xor: rvalue.I64Xor,
	opcode.I64Shl: rvalue.I64Shl, opcode.I64ShrS: rvalue.I64ShrS, opcode.I64ShrU: rvalue.I64ShrU,
	opcode.I64Rotl: rvalue.I64Rotl, opcode.I64Rotr: rvalue.I64Rotr,
	opcode.I64Eq: rvalue.I64Eq, opcode.I64Ne: rvalue.I64Ne,
	opcode.I64LtS: rvalue.I64LtS, opcode.I64LtU: rvalue.I64LtU,
	opcode.I64GtS: rvalue.I64GtS, opcode.I64GtU: rvalue.I64GtU,
	opcode.I64LeS: rvalue.I64LeS, opcode.I64LeU: rvalue.I64LeU,
	opcode.I64GeS: rvalue.I64GeS, opcode.I64GeU: rvalue.I64GeU,

	opcode.F32Add: rvalue.F32Add, opcode.F32Sub: rvalue.F32Sub, opcode.F32Mul: rvalue.F32Mul,
	opcode.F32Div: rvalue.F32Div, opcode.F32Min: rvalue.F32Min, opcode.F32Max: rvalue.F32Max,
	opcode.F32Copysign: rvalue.F32Copysign,
	opcode.F32Eq:       rvalue.F32Eq, opcode.F32Ne: rvalue.F32Ne,
	opcode.F32Lt: rvalue.F32Lt, opcode.F32Gt: rvalue.F32Gt, opcode.F32Le: rvalue.F32Le, opcode.F32Ge: rvalue.F32Ge,

	opcode.F64Add: rvalue.F64Add, opcode.F64Sub: rvalue.F64Sub, opcode.F64Mul: rvalue.F64Mul,
	opcode.F64Div: rvalue.F64Div, opcode.F64Min: rvalue.F64Min, opcode.F64Max: rvalue.F64Max,
	opcode.F64Copysign: rvalue.F64Copysign,
	opcode.F64Eq:       rvalue.F64Eq, opcode.F64Ne: rvalue.F64Ne,
	opcode.F64Lt: rvalue.F64Lt, opcode.F64Gt: rvalue.F64Gt, opcode.F64Le: rvalue.F64Le, opcode.F64Ge: rvalue.F64Ge,
}

var fallibleBinaryOps = map[opcode.Opcode]fallibleBinaryOp{
	opcode.I32DivS: rvalue.I32DivS, opcode.I32DivU: rvalue.I32DivU,
	opcode.I32RemS: rvalue.I32RemS, opcode.I32RemU: rvalue.I32RemU,
	opcode.I64DivS: rvalue.I64DivS, opcode.I64DivU: rvalue.I64DivU,
	opcode.I64RemS: rvalue.I64RemS, opcode.I64RemU: rvalue.I64RemU,
}

var unaryOps = map[opcode.Opcode]unaryOp{
	opcode.I32Clz: rvalue.I32Clz, opcode.I32Ctz: rvalue.I32Ctz, opcode.I32Popcnt: rvalue.I32Popcnt,
	opcode.I64Clz: rvalue.I64Clz, opcode.I64Ctz: rvalue.I64Ctz, opcode.I64Popcnt: rvalue.I64Popcnt,
	opcode.I32Eqz: rvalue.I32Eqz, opcode.I64Eqz: rvalue.I64Eqz,

	opcode.F32Abs: rvalue.F32Abs, opcode.F32Neg: rvalue.F32Neg, opcode.F32Ceil: rvalue.F32Ceil,
	opcode.F32Floor: rvalue.F32Floor, opcode.F32Trunc: rvalue.F32Trunc, opcode.F32Nearest: rvalue.F32Nearest,
	opcode.F32Sqrt: rvalue.F32Sqrt,
	opcode.F64Abs:  rvalue.F64Abs, opcode.F64Neg: rvalue.F64Neg, opcode.F64Ceil: rvalue.F64Ceil,
	opcode.F64Floor: rvalue.F64Floor, opcode.F64Trunc: rvalue.F64Trunc, opcode.F64Nearest: rvalue.F64Nearest,
	opcode.F64Sqrt: rvalue.F64Sqrt,

	opcode.I32WrapI64: rvalue.I32WrapI64,
	opcode.I64ExtendI32S: rvalue.I64ExtendI32S, opcode.I64ExtendI32U: rvalue.I64ExtendI32U,
	opcode.I32Extend8S: rvalue.I32Extend8S, opcode.I32Extend16S: rvalue.I32Extend16S,
	opcode.I64Extend8S: rvalue.I64Extend8S, opcode.I64Extend16S: rvalue.I64Extend16S, opcode.I64Extend32S: rvalue.I64Extend32S,

	opcode.F32ConvertI32S: rvalue.F32ConvertI32S, opcode.F32ConvertI32U: rvalue.F32ConvertI32U,
	opcode.F32ConvertI64S: rvalue.F32ConvertI64S, opcode.F32ConvertI64U: rvalue.F32ConvertI64U,
	opcode.F32DemoteF64:   rvalue.F32DemoteF64,
	opcode.F64ConvertI32S: rvalue.F64ConvertI32S, opcode.F64ConvertI32U: rvalue.F64ConvertI32U,
	opcode.F64ConvertI64S: rvalue.F64ConvertI64S, opcode.F64ConvertI64U: rvalue.F64ConvertI64U,
	opcode.F64PromoteF32: rvalue.F64PromoteF32,

	opcode.I32TruncSatF32S: rvalue.I32TruncSatF32S, opcode.I32TruncSatF32U: rvalue.I32TruncSatF32U,
	opcode.I32TruncSatF64S: rvalue.I32TruncSatF64S, opcode.I32TruncSatF64U: rvalue.I32TruncSatF64U,
	opcode.I64TruncSatF32S: rvalue.I64TruncSatF32S, opcode.I64TruncSatF32U: rvalue.I64TruncSatF32U,
	opcode.I64TruncSatF64S: rvalue.I64TruncSatF64S, opcode.I64TruncSatF64U: rvalue.I64TruncSatF64U,
}

var fallibleUnaryOps = map[opcode.Opcode]fallibleUnaryOp{
	opcode.I32TruncF32S: rvalue.I32TruncF32S, opcode.I32TruncF32U: rvalue.I32TruncF32U,
	opcode.I32TruncF64S: rvalue.I32TruncF64S, opcode.I32TruncF64U: rvalue.I32TruncF64U,
	opcode.I64TruncF32S: rvalue.I64TruncF32S, opcode.I64TruncF32U: rvalue.I64TruncF32U,
	opcode.I64TruncF64S: rvalue.I64TruncF64S, opcode.I64TruncF64U: rvalue.I64TruncF64U,
}

// execNumeric dispatches every opcode none of the other category handlers
// claim: plain arithmetic, comparison, bitwise, and conversion instructions,
// all of which read their operands from (and write their result to) the top
// of the value stack with no other side effect.
func (e *Executor[T]) execNumeric(instr opcode.Instruction) error {
	op := instr.Op
	if op.IsFloatOpcode() && !e.config.FloatsEnabled {
		return rwasmerr.New(rwasmerr.FloatsAreDisabled)
	}
	if fn, ok := binaryOps[op]; ok {
		a, b := e.valueStack.Pop2()
		e.valueStack.Push(fn(a, b))
		e.ip++
		return nil
	}
	if fn, ok := fallibleBinaryOps[op]; ok {
		a, b := e.valueStack.Pop2()
		v, err := fn(a, b)
		if err != nil {
			return err
		}
		e.valueStack.Push(v)
		e.ip++
		return nil
	}
	if fn, ok := unaryOps[op]; ok {
		v := fn(e.valueStack.Pop())
		e.valueStack.Push(v)
		e.ip++
		return nil
	}
	if fn, ok := fallibleUnaryOps[op]; ok {
		v, err := fn(e.valueStack.Pop())
		if err != nil {
			return err
		}
		e.valueStack.Push(v)
		e.ip++
		return nil
	}
	return rwasmerr.New(rwasmerr.MalformedBinary)
}
