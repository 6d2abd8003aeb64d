package opcode

import "github.com/rwasm-labs/rwasm/internal/rvalue"

// DropKeep is the (drop, keep) pair applied to the top of the value stack on
// branch and return, implementing WASM's structured-control value
// propagation once control flow has been flattened. Both fields are
// bounded to 16 bits: a function whose simulated stack height exceeds
// 65535 fails translation rather than encoding a DropKeep that silently
// truncates.
type DropKeep struct {
	Drop uint16
	Keep uint16
}

// IsNoop reports whether applying this DropKeep has no observable effect.
func (dk DropKeep) IsNoop() bool { return dk.Drop == 0 }

// Instruction is an (opcode, payload) pair. Only one of the typed fields
// below is meaningful for a given Op; which one is determined by Op's
// classification (see the Is* predicates). This flat-struct shape (rather
// than an interface-typed payload) keeps a code section a plain slice of
// fixed-size values, cheap to index and to encode.
type Instruction struct {
	Op Opcode

	// imm holds the payload for every variant whose natural representation
	// fits in 64 bits: LocalDepth, BranchOffset, BlockFuel, CompiledFunc,
	// FuncIdx, SignatureIdx, GlobalIdx, AddressOffset, DataSegmentIdx,
	// TableIdx, ElementSegmentIdx, UntypedValue, and StackAlloc.
	imm uint64

	// dropKeep holds the DropKeep payload; kept as a separate field (rather
	// than packed into imm) so its two 16-bit halves stay individually
	// addressable without shifting.
	dropKeep DropKeep
}

// BranchOffset is a signed instruction-pointer delta applied when a branch
// is taken.
type BranchOffset int32

func Simple(op Opcode) Instruction { return Instruction{Op: op} }

func WithLocalDepth(op Opcode, depth uint32) Instruction {
	return Instruction{Op: op, imm: uint64(depth)}
}

func WithBranchOffset(op Opcode, offset BranchOffset) Instruction {
	return Instruction{Op: op, imm: uint64(uint32(offset))}
}

// WithBranchTableTargets builds a br_table instruction. The payload is only
// the target count: the actual targets are not carried by this instruction
// at all. A br_table with N targets (the default included) is emitted as
// this instruction with payload N, immediately followed in the code section
// by N fixed two-slot groups (the last being the default target) -- group i sits at relative offset 2*i+1 from the br_table
// instruction itself, and is either a bare Br (its second slot an unread
// filler) or a BrAdjust followed by its Return(drop_keep) data slot. This
// mirrors BranchTableTargets being a bare u32 count in the original rather
// than an inline vector.
func WithBranchTableTargets(op Opcode, count uint32) Instruction {
	return Instruction{Op: op, imm: uint64(count)}
}

func WithBlockFuel(op Opcode, fuel uint32) Instruction {
	return Instruction{Op: op, imm: uint64(fuel)}
}

func WithDropKeep(op Opcode, dk DropKeep) Instruction {
	return Instruction{Op: op, dropKeep: dk}
}

func WithCompiledFunc(op Opcode, index uint32) Instruction {
	return Instruction{Op: op, imm: uint64(index)}
}

func WithFuncIdx(op Opcode, index uint32) Instruction {
	return Instruction{Op: op, imm: uint64(index)}
}

func WithSignatureIdx(op Opcode, index uint32) Instruction {
	return Instruction{Op: op, imm: uint64(index)}
}

func WithGlobalIdx(op Opcode, index uint32) Instruction {
	return Instruction{Op: op, imm: uint64(index)}
}

func WithAddressOffset(op Opcode, offset uint32) Instruction {
	return Instruction{Op: op, imm: uint64(offset)}
}

func WithDataSegmentIdx(op Opcode, index uint32) Instruction {
	return Instruction{Op: op, imm: uint64(index)}
}

func WithTableIdx(op Opcode, index uint32) Instruction {
	return Instruction{Op: op, imm: uint64(index)}
}

func WithElementSegmentIdx(op Opcode, index uint32) Instruction {
	return Instruction{Op: op, imm: uint64(index)}
}

func WithUntypedValue(op Opcode, value rvalue.UntypedValue) Instruction {
	return Instruction{Op: op, imm: uint64(value)}
}

func WithStackAlloc(op Opcode, maxHeight uint32) Instruction {
	return Instruction{Op: op, imm: uint64(maxHeight)}
}

func (i Instruction) LocalDepth() uint32         { return uint32(i.imm) }
func (i Instruction) BranchOffset() BranchOffset { return BranchOffset(uint32(i.imm)) }
func (i Instruction) BranchTableTargets() uint32 { return uint32(i.imm) }
func (i Instruction) BlockFuel() uint32          { return uint32(i.imm) }
func (i Instruction) DropKeep() DropKeep         { return i.dropKeep }
func (i Instruction) CompiledFunc() uint32       { return uint32(i.imm) }
func (i Instruction) FuncIdx() uint32            { return uint32(i.imm) }
func (i Instruction) SignatureIdx() uint32       { return uint32(i.imm) }
func (i Instruction) GlobalIdx() uint32          { return uint32(i.imm) }
func (i Instruction) AddressOffset() uint32      { return uint32(i.imm) }
func (i Instruction) DataSegmentIdx() uint32     { return uint32(i.imm) }
func (i Instruction) TableIdx() uint32           { return uint32(i.imm) }
func (i Instruction) ElementSegmentIdx() uint32  { return uint32(i.imm) }
func (i Instruction) UntypedValue() rvalue.UntypedValue { return rvalue.UntypedValue(i.imm) }
func (i Instruction) StackAlloc() uint32         { return uint32(i.imm) }

// SetBranchOffset patches an already-emitted branch instruction's target
// once it becomes known; used by the translator when a forward branch's
// destination is only discovered after the rest of the block is emitted.
func (i *Instruction) SetBranchOffset(offset BranchOffset) {
	i.imm = uint64(uint32(offset))
}

// SetStackAlloc patches a function's StackAlloc placeholder once the
// translator has finished simulating the function body and knows the
// maximum observed stack height.
func (i *Instruction) SetStackAlloc(maxHeight uint32) {
	i.imm = uint64(maxHeight)
}

// SetBlockFuel patches a ConsumeFuel placeholder once the translator knows
// how many source operators its straight-line block actually contains.
func (i *Instruction) SetBlockFuel(fuel uint32) {
	i.imm = uint64(fuel)
}

// SetCompiledFunc patches a CallInternal target, used by the module
// translator to shift every call site by one once the synthesized
// entrypoint is prepended to the code section as function 0.
func (i *Instruction) SetCompiledFunc(index uint32) {
	i.imm = uint64(index)
}
