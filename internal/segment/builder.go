// Package segment implements the merge step of WASM → rWASM translation:
// every data segment is flattened into one memory blob, every element
// segment into one funcref-index blob, and the module-level initialization
// that WASM spreads across the global/memory/table/start sections is
// re-expressed as a prologue of ordinary instructions the interpreter runs
// before calling into user code. rWASM has no section headers at runtime;
// this builder is where those sections stop existing as such.
package segment

import (
	"github.com/rwasm-labs/rwasm/internal/codebuf"
	"github.com/rwasm-labs/rwasm/internal/compileerr"
	"github.com/rwasm-labs/rwasm/internal/limits"
	"github.com/rwasm-labs/rwasm/internal/rvalue"
)

// memRegion records a passive or active data segment's span within the
// merged global memory blob, keyed by its original segment index.
type memRegion struct {
	offset uint32
	length uint32
}

// elemRegion is the element-segment analog of memRegion.
type elemRegion struct {
	offset uint32
	length uint32
}

// Builder accumulates the merged memory blob, merged element blob, and the
// entrypoint prologue bytecode that initializes globals, grows memory, and
// forces-active data/element segments into place.
type Builder struct {
	globalMemory  []byte
	memorySegs    map[uint32]memRegion
	globalElement []uint32
	elementSegs   map[uint32]elemRegion

	totalAllocatedPages uint32

	Entrypoint *codebuf.Builder
}

// New returns an empty Builder with a fresh entrypoint prologue buffer.
func New() *Builder {
	return &Builder{
		memorySegs:  make(map[uint32]memRegion),
		elementSegs: make(map[uint32]elemRegion),
		Entrypoint:  codebuf.New(),
	}
}

// MemorySection returns the merged, length-prefix-free memory blob in the
// shape RwasmModule.MemorySection expects.
func (b *Builder) MemorySection() []byte { return b.globalMemory }

// ElementSection returns the merged element (funcref index) blob.
func (b *Builder) ElementSection() []uint32 { return b.globalElement }

// AddGlobalVariable emits the prologue instructions that compute a global's
// initial value and store it to globalIdx. Globals are native 64-bit
// UntypedValue cells here (see DESIGN.md on the dropped i64-splitting mode),
// so unlike the legacy build this never doubles an index or a push.
func (b *Builder) AddGlobalVariable(globalIdx uint32, init GlobalInit) error {
	switch init.Kind {
	case GlobalInitConst:
		switch init.Type {
		case ValI32:
			b.Entrypoint.I32Const(init.Const.I32())
		case ValI64:
			b.Entrypoint.I64Const(init.Const.I64())
		case ValF32:
			b.Entrypoint.F32Const(init.Const.F32())
		case ValF64:
			// The original pushes F64 globals with op_i64_const rather
			// than op_f64_const; the raw bits are identical either way
			// since the global's slot carries its own declared type, so
			// this quirk is preserved rather than "corrected" silently
			// (see DESIGN.md).
			b.Entrypoint.I64Const(int64(init.Const))
		case ValFuncRef, ValExternRef:
			// A null reference is bit-identical to a plain 64-bit zero on
			// the untyped stack representation used everywhere else here.
			b.Entrypoint.I64Const(int64(init.Const))
		default:
			return compileerr.New(compileerr.MalformedInput, "unsupported global init type")
		}
	case GlobalInitFuncRef:
		b.Entrypoint.RefFunc(init.Ref)
	case GlobalInitGlobalRef:
		b.Entrypoint.GlobalGet(init.Ref)
	default:
		return compileerr.New(compileerr.MalformedInput, "unrecognized global init kind")
	}
	b.Entrypoint.GlobalSet(globalIdx)
	return nil
}

// AddMemoryPages emits a memory.grow prologue call for initialPages, unless
// it's zero, and tracks the module's total allocated pages against
// limits.MaxMemoryPages.
func (b *Builder) AddMemoryPages(initialPages uint32) error {
	next := b.totalAllocatedPages + initialPages
	if next < b.totalAllocatedPages { // overflow
		next = ^uint32(0)
	}
	if next >= limits.MaxMemoryPages {
		return compileerr.New(compileerr.MemorySegmentOverflow, "total memory pages exceed the configured limit")
	}
	if initialPages > 0 {
		b.Entrypoint.I32Const(int32(initialPages))
		b.Entrypoint.MemoryGrow()
		b.Entrypoint.Drop()
	}
	b.totalAllocatedPages = next
	return nil
}

// AddActiveMemory appends bytes to the merged memory blob and emits a
// memory.init/data.drop pair that force-copies them to offset at
// entrypoint time, then immediately marks the segment dropped -- rWASM has
// no notion of an "active" segment surviving past module start.
func (b *Builder) AddActiveMemory(segIdx uint32, offset rvalue.UntypedValue, bytes []byte) {
	dataOffset := uint32(len(b.globalMemory))
	dataLength := uint32(len(bytes))
	b.globalMemory = append(b.globalMemory, bytes...)

	maxAffectedPage, overflowed := memoryPageOverflow(offset.U32(), dataLength, b.totalAllocatedPages)

	b.Entrypoint.I32Const(int32(offset.U32()))
	b.Entrypoint.I32Const(int32(dataOffset))
	if overflowed || maxAffectedPage > b.totalAllocatedPages {
		b.Entrypoint.I32Const(-1) // u32::MAX, forces an out-of-bounds trap
	} else {
		b.Entrypoint.I32Const(int32(dataLength))
	}
	// +1 on both instructions: MemoryInit's dropped-segment check and
	// DataDrop's dropped-segment set must read the same bitset slot for a
	// given segment, matching AddActiveElements' TableInit/ElemDrop pairing
	// below (see DESIGN.md).
	b.Entrypoint.MemoryInit(segIdx + 1)
	b.Entrypoint.DataDrop(segIdx + 1)

	b.memorySegs[segIdx] = memRegion{offset: dataOffset, length: dataLength}
}

// memoryPageOverflow computes, in the original's checked-arithmetic style,
// whether writing length bytes at offset would touch a page beyond what's
// currently allocated. The second return value reports whether the bounds
// computation itself overflowed (treated as "yes, overflow" by the caller).
func memoryPageOverflow(offset, length, allocatedPages uint32) (uint32, bool) {
	end := uint64(offset) + uint64(length) + uint64(limits.BytesPerMemoryPage) - 1
	if end > 0xffffffff {
		return 0, true
	}
	return uint32(end) / limits.BytesPerMemoryPage, false
}

// AddPassiveMemory appends bytes to the merged memory blob without any
// prologue instructions; the segment stays dormant until a memory.init
// opcode in user code references it.
func (b *Builder) AddPassiveMemory(segIdx uint32, bytes []byte) {
	dataOffset := uint32(len(b.globalMemory))
	dataLength := uint32(len(bytes))
	b.globalMemory = append(b.globalMemory, bytes...)
	b.memorySegs[segIdx] = memRegion{offset: dataOffset, length: dataLength}
}

// AddActiveElements appends elements to the merged element blob and emits a
// table.init/table.get/elem.drop prologue sequence that force-copies them
// into tableIdx at entrypoint time, then drops the segment.
func (b *Builder) AddActiveElements(segIdx, tableIdx uint32, offset rvalue.UntypedValue, elements []uint32) {
	segOffset := uint32(len(b.globalElement))
	b.globalElement = append(b.globalElement, elements...)
	segLength := uint32(len(b.globalElement)) - segOffset

	b.Entrypoint.I32Const(int32(offset.U32()))
	b.Entrypoint.I32Const(int32(segOffset))
	b.Entrypoint.I32Const(int32(segLength))
	b.Entrypoint.TableInit(segIdx + 1)
	b.Entrypoint.TableGet(tableIdx)
	b.Entrypoint.ElemDrop(segIdx + 1)

	b.elementSegs[segIdx] = elemRegion{offset: segOffset, length: segLength}
}

// AddPassiveElements appends elements to the merged element blob without
// emitting any prologue instructions.
func (b *Builder) AddPassiveElements(segIdx uint32, elements []uint32) {
	segOffset := uint32(len(b.globalElement))
	b.globalElement = append(b.globalElement, elements...)
	segLength := uint32(len(b.globalElement)) - segOffset
	b.elementSegs[segIdx] = elemRegion{offset: segOffset, length: segLength}
}

// AddStartFunction emits the prologue call to a WASM start function. The
// original always emits this unconditionally, even when an explicit
// entrypoint is also configured -- see DESIGN.md's decision to preserve
// "start first" ordering.
func (b *Builder) AddStartFunction(funcIdx uint32) {
	b.Entrypoint.CallInternal(funcIdx)
}
