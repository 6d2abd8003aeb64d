// Package codebuf provides the small append-only instruction buffer shared
// by the segment builder and the function translator: both need to grow a
// flat rWASM code sequence one instruction at a time and occasionally patch
// an already-emitted branch once its target becomes known.
package codebuf

import (
	"github.com/rwasm-labs/rwasm/internal/opcode"
	"github.com/rwasm-labs/rwasm/internal/rvalue"
)

// Builder accumulates a sequence of instructions. The zero value is usable.
type Builder struct {
	code []opcode.Instruction
}

// New returns a Builder seeded the same way the original's InstructionSet
// default does: a single Return with a no-op DropKeep, so an empty function
// body is still valid, trap-free bytecode.
func New() *Builder {
	b := &Builder{}
	b.Push(opcode.WithDropKeep(opcode.Return, opcode.DropKeep{}))
	return b
}

// Push appends instr and returns its index in the code section.
func (b *Builder) Push(instr opcode.Instruction) uint32 {
	idx := uint32(len(b.code))
	b.code = append(b.code, instr)
	return idx
}

// Len reports the current instruction count.
func (b *Builder) Len() uint32 { return uint32(len(b.code)) }

// At returns a pointer to the instruction at idx, for patching a
// placeholder branch offset or stack-alloc height once it becomes known.
func (b *Builder) At(idx uint32) *opcode.Instruction { return &b.code[idx] }

// Code returns the accumulated instructions. The slice is owned by the
// Builder; callers that need to keep it past further Push calls should copy.
func (b *Builder) Code() []opcode.Instruction { return b.code }

// Clear empties the buffer for reuse.
func (b *Builder) Clear() { b.code = b.code[:0] }

func (b *Builder) isReturnLast() bool {
	if len(b.code) == 0 {
		return false
	}
	return b.code[len(b.code)-1].Op == opcode.Return
}

// Finalize appends a trailing Return(DropKeep{}) when one isn't already the
// last instruction. Used for synthesized bodies (entrypoint, tests) where a
// translator pass wouldn't otherwise guarantee a terminating instruction.
func (b *Builder) Finalize(injectReturn bool) {
	if injectReturn && !b.isReturnLast() {
		b.Push(opcode.WithDropKeep(opcode.Return, opcode.DropKeep{}))
	}
}

// Convenience constructors for the instructions the segment builder and
// translator emit most often; named after the original's op_* helpers but
// collapsed to the handful actually needed rather than one method per
// opcode, since Go has no macro to generate the full set cheaply.

func (b *Builder) I32Const(v int32) uint32 {
	return b.Push(opcode.WithUntypedValue(opcode.I32Const, rvalue.FromI32(v)))
}

func (b *Builder) I64Const(v int64) uint32 {
	return b.Push(opcode.WithUntypedValue(opcode.I64Const, rvalue.FromI64(v)))
}

func (b *Builder) F32Const(v float32) uint32 {
	return b.Push(opcode.WithUntypedValue(opcode.F32Const, rvalue.FromF32(v)))
}

func (b *Builder) F64Const(v float64) uint32 {
	return b.Push(opcode.WithUntypedValue(opcode.F64Const, rvalue.FromF64(v)))
}

func (b *Builder) GlobalGet(idx uint32) uint32 {
	return b.Push(opcode.WithGlobalIdx(opcode.GlobalGet, idx))
}

func (b *Builder) GlobalSet(idx uint32) uint32 {
	return b.Push(opcode.WithGlobalIdx(opcode.GlobalSet, idx))
}

func (b *Builder) RefFunc(idx uint32) uint32 {
	return b.Push(opcode.WithFuncIdx(opcode.RefFunc, idx))
}

func (b *Builder) MemoryGrow() uint32 { return b.Push(opcode.Simple(opcode.MemoryGrow)) }
func (b *Builder) Drop() uint32       { return b.Push(opcode.Simple(opcode.Drop)) }

func (b *Builder) MemoryInit(segIdx uint32) uint32 {
	return b.Push(opcode.WithDataSegmentIdx(opcode.MemoryInit, segIdx))
}

func (b *Builder) DataDrop(segIdx uint32) uint32 {
	return b.Push(opcode.WithDataSegmentIdx(opcode.DataDrop, segIdx))
}

func (b *Builder) TableInit(segIdx uint32) uint32 {
	return b.Push(opcode.WithElementSegmentIdx(opcode.TableInit, segIdx))
}

func (b *Builder) TableGet(tableIdx uint32) uint32 {
	return b.Push(opcode.WithTableIdx(opcode.TableGet, tableIdx))
}

func (b *Builder) ElemDrop(segIdx uint32) uint32 {
	return b.Push(opcode.WithElementSegmentIdx(opcode.ElemDrop, segIdx))
}

func (b *Builder) CallInternal(funcIdx uint32) uint32 {
	return b.Push(opcode.WithCompiledFunc(opcode.CallInternal, funcIdx))
}

func (b *Builder) LocalDepth(op opcode.Opcode, depth uint32) uint32 {
	return b.Push(opcode.WithLocalDepth(op, depth))
}

func (b *Builder) Br(op opcode.Opcode, offset opcode.BranchOffset) uint32 {
	return b.Push(opcode.WithBranchOffset(op, offset))
}

func (b *Builder) Return(dk opcode.DropKeep) uint32 {
	return b.Push(opcode.WithDropKeep(opcode.Return, dk))
}
