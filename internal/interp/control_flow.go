package interp

import (
	"github.com/rwasm-labs/rwasm/internal/limits"
	"github.com/rwasm-labs/rwasm/internal/opcode"
	"github.com/rwasm-labs/rwasm/internal/rwasmerr"
)

// execControlFlow dispatches branches, returns, and calls -- every opcode
// that can move the instruction pointer somewhere other than ip+1.
// Grounded on vm/executor/control_flow.rs. Several opcodes read a second
// (or third) instruction's payload as a trailing data slot rather than
// carrying it inline; see fetchDropKeep/fetchTableIndex and
// internal/translator/func_translator.go's emitBranch/visitBrTable/
// visitCallIndirect for the emission side of that convention.
func (e *Executor[T]) execControlFlow(instr opcode.Instruction) error {
	switch instr.Op {
	case opcode.Unreachable:
		return rwasmerr.New(rwasmerr.UnreachableCodeReached)

	case opcode.ConsumeFuel:
		if e.fuelEnabled() {
			if err := e.tryConsumeFuel(uint64(instr.BlockFuel())); err != nil {
				return err
			}
		}
		e.ip++
		return nil

	case opcode.SignatureCheck:
		if e.lastSignatureSet && e.lastSignature != instr.SignatureIdx() {
			return rwasmerr.New(rwasmerr.BadSignature)
		}
		e.lastSignatureSet = false
		e.ip++
		return nil

	case opcode.StackAlloc:
		if err := e.valueStack.Reserve(int(instr.StackAlloc())); err != nil {
			return err
		}
		e.ip++
		return nil

	case opcode.Br:
		e.ip += int(instr.BranchOffset())
		return nil

	case opcode.BrIfEqz:
		if e.valueStack.Pop().Bool() {
			e.ip++
		} else {
			e.ip += int(instr.BranchOffset())
		}
		return nil

	case opcode.BrIfNez:
		if e.valueStack.Pop().Bool() {
			e.ip += int(instr.BranchOffset())
		} else {
			e.ip++
		}
		return nil

	case opcode.BrAdjust:
		dk := e.fetchDropKeep(1)
		e.valueStack.DropKeep(dk)
		e.ip += int(instr.BranchOffset())
		return nil

	case opcode.BrAdjustIfNez:
		if e.valueStack.Pop().Bool() {
			dk := e.fetchDropKeep(1)
			e.valueStack.DropKeep(dk)
			e.ip += int(instr.BranchOffset())
		} else {
			e.ip += 2
		}
		return nil

	case opcode.BrTable:
		targets := instr.BranchTableTargets()
		idx := int(e.valueStack.Pop().U32())
		maxIndex := int(targets) - 1
		normalized := idx
		if normalized < 0 {
			normalized = 0
		}
		if normalized > maxIndex {
			normalized = maxIndex
		}
		e.ip += 2*normalized + 1
		return nil

	case opcode.Return:
		e.valueStack.DropKeep(instr.DropKeep())
		return e.doReturn()

	case opcode.ReturnIfNez:
		if !e.valueStack.Pop().Bool() {
			e.ip++
			return nil
		}
		e.valueStack.DropKeep(instr.DropKeep())
		return e.doReturn()

	case opcode.ReturnCallInternal:
		funcIdx := instr.CompiledFunc()
		dk := e.fetchDropKeep(1)
		e.valueStack.DropKeep(dk)
		target, err := e.funcEntry(funcIdx)
		if err != nil {
			return err
		}
		e.ip = target
		return nil

	case opcode.ReturnCall:
		funcIdx := instr.FuncIdx()
		dk := e.fetchDropKeep(1)
		e.valueStack.DropKeep(dk)
		e.ip += 2
		return e.invokeSyscall(funcIdx)

	case opcode.ReturnCallIndirect:
		sigIdx := instr.SignatureIdx()
		dk := e.fetchDropKeep(1)
		tableIdx := e.fetchTableIndex(2)
		operandIdx := e.valueStack.Pop().U32()
		e.valueStack.DropKeep(dk)
		e.lastSignature, e.lastSignatureSet = sigIdx, true
		target, err := e.resolveIndirectTarget(tableIdx, operandIdx)
		if err != nil {
			return err
		}
		e.ip = target
		return nil

	case opcode.CallInternal:
		funcIdx := instr.CompiledFunc()
		e.ip++
		if len(e.callStack) >= limits.MaxRecursionDepth {
			return rwasmerr.New(rwasmerr.StackOverflow)
		}
		target, err := e.funcEntry(funcIdx)
		if err != nil {
			return err
		}
		e.pushCallStack(e.ip)
		e.ip = target
		return nil

	case opcode.Call:
		funcIdx := instr.FuncIdx()
		e.ip++
		return e.invokeSyscall(funcIdx)

	case opcode.CallIndirect:
		sigIdx := instr.SignatureIdx()
		tableIdx := e.fetchTableIndex(1)
		operandIdx := e.valueStack.Pop().U32()
		e.lastSignature, e.lastSignatureSet = sigIdx, true
		target, err := e.resolveIndirectTarget(tableIdx, operandIdx)
		if err != nil {
			return err
		}
		e.ip += 2
		if len(e.callStack) >= limits.MaxRecursionDepth {
			return rwasmerr.New(rwasmerr.StackOverflow)
		}
		e.pushCallStack(e.ip)
		e.ip = target
		return nil
	}
	return rwasmerr.New(rwasmerr.MalformedBinary)
}

// doReturn implements Return/ReturnIfNez's shared tail: pop the call stack
// to resume the caller, or signal a clean top-level halt (exit code 0) if
// there is no caller to resume.
func (e *Executor[T]) doReturn() error {
	if len(e.callStack) == 0 {
		return rwasmerr.NewExecutionHalted(0)
	}
	e.ip = e.popCallStack()
	return nil
}
