package interp

import (
	"github.com/rwasm-labs/rwasm/internal/opcode"
	"github.com/rwasm-labs/rwasm/internal/rvalue"
	"github.com/rwasm-labs/rwasm/internal/rwasmerr"
)

// execStack dispatches the opcodes that only move values between locals,
// globals, constants, and the operand stack -- grounded on
// vm/executor/stack.rs.
func (e *Executor[T]) execStack(instr opcode.Instruction) error {
	switch instr.Op {
	case opcode.LocalGet:
		depth := instr.LocalDepth()
		e.valueStack.Push(e.valueStack.NthBack(int(depth)))
		e.ip++
	case opcode.LocalSet:
		depth := instr.LocalDepth()
		v := e.valueStack.Pop()
		e.valueStack.SetNthBack(int(depth), v)
		e.ip++
	case opcode.LocalTee:
		depth := instr.LocalDepth()
		v := e.valueStack.Last()
		e.valueStack.SetNthBack(int(depth), v)
		e.ip++
	case opcode.Drop:
		e.valueStack.Drop()
		e.ip++
	case opcode.Select:
		e.valueStack.EvalTop3(func(a, b, cond rvalue.UntypedValue) rvalue.UntypedValue {
			if cond.Bool() {
				return a
			}
			return b
		})
		e.ip++
	case opcode.RefFunc:
		e.valueStack.Push(rvalue.FromFuncRef(instr.FuncIdx()))
		e.ip++
	case opcode.I32Const, opcode.I64Const:
		e.valueStack.Push(instr.UntypedValue())
		e.ip++
	case opcode.F32Const, opcode.F64Const:
		if !e.config.FloatsEnabled {
			return rwasmerr.New(rwasmerr.FloatsAreDisabled)
		}
		e.valueStack.Push(instr.UntypedValue())
		e.ip++
	case opcode.GlobalGet:
		e.valueStack.Push(e.globals[instr.GlobalIdx()])
		e.ip++
	case opcode.GlobalSet:
		e.globals[instr.GlobalIdx()] = e.valueStack.Pop()
		e.ip++
	default:
		return rwasmerr.New(rwasmerr.MalformedBinary)
	}
	return nil
}
