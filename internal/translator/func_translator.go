package translator

import (
	"github.com/rwasm-labs/rwasm/internal/codebuf"
	"github.com/rwasm-labs/rwasm/internal/compileerr"
	"github.com/rwasm-labs/rwasm/internal/opcode"
	"github.com/rwasm-labs/rwasm/internal/wasmsrc"
)

// funcTranslator lowers one WASM function body into a flat rWASM
// instruction sequence, per SPEC_FULL.md §4.4. It owns its own codebuf and
// is discarded once the caller has copied the result into the module-wide
// code section.
type funcTranslator struct {
	mod *moduleContext

	sig    wasmsrc.FuncType
	locals []wasmsrc.ValType // params ++ declared locals, indexed by WASM local index

	code   *codebuf.Builder
	height *stackHeight
	frames []controlFrame

	// dead and deadDepth implement straight-line dead-code elision: once an
	// unconditional terminator (unreachable/return/br/br_table) is emitted,
	// everything up to the next else/end at the same nesting is unreachable
	// and is parsed (to keep the frame stack balanced) but not translated.
	dead      bool
	deadDepth int

	stackAllocIdx uint32
}

// translateFunction drives the whole per-function pipeline described in
// SPEC_FULL.md §4.4: signature check, stack-alloc placeholder, locals
// zero-init, body translation, stack-alloc patch. It returns the function's
// finished instruction sequence.
func translateFunction(mod *moduleContext, typeIdx uint32, sig wasmsrc.FuncType, code wasmsrc.Code) ([]opcode.Instruction, error) {
	locals := make([]wasmsrc.ValType, 0, len(sig.Params)+len(code.Locals))
	locals = append(locals, sig.Params...)
	locals = append(locals, code.Locals...)

	ft := &funcTranslator{
		mod:    mod,
		sig:    sig,
		locals: locals,
		code:   &codebuf.Builder{},
		height: newStackHeight(),
	}

	ft.code.Push(opcode.WithSignatureIdx(opcode.SignatureCheck, typeIdx))
	ft.stackAllocIdx = ft.code.Push(opcode.WithStackAlloc(opcode.StackAlloc, 0xffffffff))

	if err := ft.height.pushN(len(sig.Params)); err != nil {
		return nil, err
	}
	for _, lt := range code.Locals {
		ft.emitZero(lt)
		if err := ft.height.push(); err != nil {
			return nil, err
		}
	}

	outer := controlFrame{
		isFunc:        true,
		branchArity:   len(sig.Results),
		endArity:      len(sig.Results),
		heightAtEntry: ft.height.height(),
	}
	outer.fuelIdx = ft.code.Push(opcode.WithBlockFuel(opcode.ConsumeFuel, 0))
	ft.frames = []controlFrame{outer}

	if err := ft.translateBody(code.Body); err != nil {
		return nil, err
	}

	if err := ft.emitImplicitReturn(len(sig.Results)); err != nil {
		return nil, err
	}
	ft.code.At(ft.stackAllocIdx).SetStackAlloc(uint32(ft.height.maxHeight()))
	return ft.code.Code(), nil
}

// emitImplicitReturn appends the function's terminating Return unconditionally,
// even when the body already provably terminates on every path (an explicit
// `return`, or a trailing unconditional `br`/`br_table` out to the function's
// own label). Peeking at whether the last emitted raw Instruction already
// happens to carry Op==Return is not a reliable test: Return is reused as a
// BrAdjust's immediately-following drop_keep payload and as br_table's unread
// filler slot for a bare-Br target, so the truly last instruction in the
// stream can be one of those data slots rather than a live, reachable
// Return dispatch -- in that case skipping this call would leave a branch's
// patched target pointing one-past-the-end of this function's own code,
// landing on whatever happens to follow it once every function is
// concatenated together. Emitting this unconditionally costs a few
// unreachable bytes on the already-terminated paths and is never wrong.
// Unlike a branch out of a nested block, returning tears down the whole call
// frame: drop/keep are computed against the true physical stack height,
// discarding params and locals along with any leftover temporaries.
func (ft *funcTranslator) emitImplicitReturn(numResults int) error {
	dk, err := NewDropKeep(ft.height.height()-numResults, numResults)
	if err != nil {
		return err
	}
	ft.code.Return(dk)
	return nil
}

// emitReturn lowers the source `return` instruction directly to a standalone
// Return(drop_keep), per spec.md's lowering table: "drop = stack height -
// result arity, keep = result arity". Unlike `br`/`br_if` (always Br/BrAdjust
// plus a peeked data slot, even when targeting the function's own label),
// `return` carries no branch offset at all -- it's already sitting at the
// point execution leaves the function, so there's nothing to jump to.
func (ft *funcTranslator) emitReturn() error {
	numResults := len(ft.sig.Results)
	dk, err := NewDropKeep(ft.height.height()-numResults, numResults)
	if err != nil {
		return err
	}
	ft.code.Return(dk)
	return nil
}

func (ft *funcTranslator) emitZero(t wasmsrc.ValType) {
	switch t {
	case wasmsrc.ValF32:
		ft.code.F32Const(0)
	case wasmsrc.ValF64:
		ft.code.F64Const(0)
	default:
		// i32, i64, funcref, externref all zero-init as a plain 0 cell; a
		// null reference is bit-identical to an integer zero on this
		// untyped stack representation.
		ft.code.I64Const(0)
	}
}

func (ft *funcTranslator) top() *controlFrame { return &ft.frames[len(ft.frames)-1] }

func (ft *funcTranslator) frameAt(depth uint32) *controlFrame {
	return &ft.frames[len(ft.frames)-1-int(depth)]
}

func (ft *funcTranslator) translateBody(body []byte) error {
	r := wasmsrc.NewOperatorReader(body)
	for !r.Done() {
		op, err := r.Next()
		if err != nil {
			return err
		}
		if err := ft.visit(op); err != nil {
			return err
		}
	}
	return nil
}

// visit dispatches one source operator, honoring dead-code elision.
func (ft *funcTranslator) visit(op wasmsrc.Operator) error {
	if ft.dead {
		return ft.visitDead(op)
	}
	ft.top().fuelCount++
	switch op.Op {
	case wasmsrc.OpUnreachable:
		ft.code.Push(opcode.Simple(opcode.Unreachable))
		ft.markDead()
		return nil
	case wasmsrc.OpNop:
		return nil
	case wasmsrc.OpBlock:
		return ft.visitBlock(op)
	case wasmsrc.OpLoop:
		return ft.visitLoop(op)
	case wasmsrc.OpIf:
		return ft.visitIf(op)
	case wasmsrc.OpElse:
		return ft.visitElse()
	case wasmsrc.OpEnd:
		return ft.visitEnd()
	case wasmsrc.OpBr:
		if err := ft.emitBranch(op.RelDepth, opcode.Br, opcode.BrAdjust); err != nil {
			return err
		}
		ft.markDead()
		return nil
	case wasmsrc.OpBrIf:
		ft.height.pop1()
		return ft.emitBranch(op.RelDepth, opcode.BrIfNez, opcode.BrAdjustIfNez)
	case wasmsrc.OpBrTable:
		ft.height.pop1()
		if err := ft.visitBrTable(op); err != nil {
			return err
		}
		ft.markDead()
		return nil
	case wasmsrc.OpReturn:
		if err := ft.emitReturn(); err != nil {
			return err
		}
		ft.markDead()
		return nil
	case wasmsrc.OpCall:
		return ft.visitCall(op)
	case wasmsrc.OpCallIndirect:
		return ft.visitCallIndirect(op)
	case wasmsrc.OpDrop:
		ft.code.Drop()
		ft.height.pop1()
		return nil
	case wasmsrc.OpSelect, wasmsrc.OpSelectTyped:
		ft.code.Push(opcode.Simple(opcode.Select))
		ft.height.popN(2)
		return nil
	case wasmsrc.OpLocalGet:
		return ft.visitLocalGet(op.LocalIdx)
	case wasmsrc.OpLocalSet:
		return ft.visitLocalSet(op.LocalIdx)
	case wasmsrc.OpLocalTee:
		return ft.visitLocalTee(op.LocalIdx)
	case wasmsrc.OpGlobalGet:
		ft.code.GlobalGet(op.GlobalIdx)
		return ft.height.push()
	case wasmsrc.OpGlobalSet:
		ft.code.GlobalSet(op.GlobalIdx)
		ft.height.pop1()
		return nil
	case wasmsrc.OpTableGet:
		ft.code.TableGet(op.TableIdx)
		return nil
	case wasmsrc.OpTableSet:
		ft.code.Push(opcode.WithTableIdx(opcode.TableSet, op.TableIdx))
		ft.height.popN(2)
		return nil
	case wasmsrc.OpLoad:
		target, ok := loadOps[op.RawByte]
		if !ok {
			return compileerr.New(compileerr.MalformedInput, "unknown load opcode")
		}
		ft.code.Push(opcode.WithAddressOffset(target, op.MemArg.Offset))
		return nil
	case wasmsrc.OpStore:
		target, ok := storeOps[op.RawByte]
		if !ok {
			return compileerr.New(compileerr.MalformedInput, "unknown store opcode")
		}
		ft.code.Push(opcode.WithAddressOffset(target, op.MemArg.Offset))
		ft.height.popN(2)
		return nil
	case wasmsrc.OpMemorySize:
		ft.code.Push(opcode.Simple(opcode.MemorySize))
		return ft.height.push()
	case wasmsrc.OpMemoryGrow:
		ft.code.MemoryGrow()
		return nil
	case wasmsrc.OpI32Const:
		ft.code.I32Const(op.Const.I32())
		return ft.height.push()
	case wasmsrc.OpI64Const:
		ft.code.I64Const(op.Const.I64())
		return ft.height.push()
	case wasmsrc.OpF32Const:
		ft.code.F32Const(op.Const.F32())
		return ft.height.push()
	case wasmsrc.OpF64Const:
		ft.code.F64Const(op.Const.F64())
		return ft.height.push()
	case wasmsrc.OpCompare:
		target, ok := compareOps[op.RawByte]
		if !ok {
			return compileerr.New(compileerr.MalformedInput, "unknown comparison opcode")
		}
		ft.code.Push(opcode.Simple(target))
		if op.RawByte == 0x45 || op.RawByte == 0x50 { // i32.eqz / i64.eqz: unary
			return nil
		}
		ft.height.pop1()
		return nil
	case wasmsrc.OpUnary:
		if err := ft.checkFloat(op.RawByte); err != nil {
			return err
		}
		target, ok := unaryOps[op.RawByte]
		if !ok {
			return compileerr.New(compileerr.MalformedInput, "unknown unary opcode")
		}
		ft.code.Push(opcode.Simple(target))
		return nil
	case wasmsrc.OpBinary:
		if err := ft.checkFloat(op.RawByte); err != nil {
			return err
		}
		target, ok := binaryOps[op.RawByte]
		if !ok {
			return compileerr.New(compileerr.MalformedInput, "unknown binary opcode")
		}
		ft.code.Push(opcode.Simple(target))
		ft.height.pop1()
		return nil
	case wasmsrc.OpConvert:
		return ft.visitConvert(op)
	case wasmsrc.OpRefNull:
		ft.code.I64Const(0)
		return ft.height.push()
	case wasmsrc.OpRefIsNull:
		// No dedicated ref-comparison opcode: a reference is a plain
		// untyped 64-bit cell with 0 meaning null, so the existing i64.eqz
		// check already answers "is this ref null".
		ft.code.Push(opcode.Simple(opcode.I64Eqz))
		return nil
	case wasmsrc.OpRefFunc:
		ft.code.RefFunc(op.FuncIdx)
		return ft.height.push()
	case wasmsrc.OpMemoryInit:
		// MemoryInit and DataDrop must agree on which dropped-segment bitset
		// slot a given segment occupies; +1 here matches DataDrop below (and
		// TableInit/ElemDrop's own +1 pairing) rather than leaving this one
		// opcode reading the raw index (see DESIGN.md).
		ft.code.MemoryInit(op.SegIdx + 1)
		ft.code.DataDrop(op.SegIdx + 1)
		ft.height.popN(3)
		return nil
	case wasmsrc.OpDataDrop:
		ft.code.DataDrop(op.SegIdx + 1)
		return nil
	case wasmsrc.OpMemoryCopy:
		ft.code.Push(opcode.Simple(opcode.MemoryCopy))
		ft.height.popN(3)
		return nil
	case wasmsrc.OpMemoryFill:
		ft.code.Push(opcode.Simple(opcode.MemoryFill))
		ft.height.popN(3)
		return nil
	case wasmsrc.OpTableInit:
		ft.code.TableInit(op.SegIdx + 1)
		ft.code.TableGet(op.TableIdx)
		ft.code.ElemDrop(op.SegIdx + 1)
		ft.height.popN(3)
		return nil
	case wasmsrc.OpElemDrop:
		ft.code.ElemDrop(op.SegIdx + 1)
		return nil
	case wasmsrc.OpTableCopy:
		ft.code.Push(opcode.WithTableIdx(opcode.TableCopy, op.TableIdx))
		ft.code.TableGet(op.TableIdx2)
		ft.height.popN(3)
		return nil
	case wasmsrc.OpTableGrow:
		ft.code.Push(opcode.WithTableIdx(opcode.TableGrow, op.TableIdx))
		ft.height.pop1()
		return nil
	case wasmsrc.OpTableSize:
		ft.code.Push(opcode.WithTableIdx(opcode.TableSize, op.TableIdx))
		return ft.height.push()
	case wasmsrc.OpTableFill:
		ft.code.Push(opcode.WithTableIdx(opcode.TableFill, op.TableIdx))
		ft.height.popN(3)
		return nil
	default:
		return compileerr.New(compileerr.MalformedInput, "unhandled operator")
	}
}

// checkFloat rejects float-family arithmetic when the module was compiled
// with floats disabled (spec.md's FloatsAreDisabled trap is a *runtime*
// concern for ad-hoc host-constructed modules; for ones we translate
// ourselves it's simpler and earlier to refuse at compile time).
func (ft *funcTranslator) checkFloat(rawByte byte) error {
	if ft.mod.cfg.EnableFloatingPoint {
		return nil
	}
	if rawByte >= 0x8b && rawByte <= 0xa6 {
		return compileerr.New(compileerr.UnsupportedLocalType, "floating-point instruction with floats disabled")
	}
	return nil
}

func (ft *funcTranslator) visitConvert(op wasmsrc.Operator) error {
	if op.RawByte == 0xfc {
		target, ok := saturatingTruncOps[op.TypeIdx]
		if !ok {
			return compileerr.New(compileerr.MalformedInput, "unknown saturating conversion")
		}
		ft.code.Push(opcode.Simple(target))
		return nil
	}
	if reinterpretOps[op.RawByte] {
		// True no-op: i32/f32 share the low 32 bits, i64/f64 share all 64,
		// so reinterpreting changes nothing on this untyped stack cell.
		return nil
	}
	target, ok := convertOps[op.RawByte]
	if !ok {
		return compileerr.New(compileerr.MalformedInput, "unknown conversion opcode")
	}
	if err := ft.checkFloat(op.RawByte); err != nil {
		return err
	}
	ft.code.Push(opcode.Simple(target))
	return nil
}

func (ft *funcTranslator) visitLocalGet(idx uint32) error {
	depth := ft.localDepth(idx)
	ft.code.LocalDepth(opcode.LocalGet, depth)
	return ft.height.push()
}

func (ft *funcTranslator) visitLocalSet(idx uint32) error {
	ft.height.pop1()
	depth := ft.localDepth(idx)
	ft.code.LocalDepth(opcode.LocalSet, depth)
	return nil
}

func (ft *funcTranslator) visitLocalTee(idx uint32) error {
	depth := ft.localDepth(idx)
	ft.code.LocalDepth(opcode.LocalTee, depth)
	return nil
}

// localDepth computes the distance from the current stack top down to
// local idx's slot, with depth 1 naming the top value itself (the
// interpreter's NthBack convention). local.get takes the height before its
// push and local.tee with its operand still on the stack; local.set takes it
// after popping its operand, since the interpreter pops before writing.
// Locals occupy the bottom len(ft.locals) slots of the function's frame, in
// declaration order starting at 0.
func (ft *funcTranslator) localDepth(idx uint32) uint32 {
	h := ft.height.height()
	return uint32(h) - idx
}

// visitCall lowers a direct call. Imported and defined functions share one
// compiled-func index space in the finished module -- every import's
// trampoline occupies that import's own WASM function index, so a call site
// never needs to distinguish the two cases.
func (ft *funcTranslator) visitCall(op wasmsrc.Operator) error {
	sig := ft.mod.funcType(op.FuncIdx)
	ft.code.CallInternal(op.FuncIdx)
	ft.height.popN(len(sig.Params))
	return ft.height.pushN(len(sig.Results))
}

func (ft *funcTranslator) visitCallIndirect(op wasmsrc.Operator) error {
	sig := ft.mod.types[op.TypeIdx]
	ft.height.pop1() // the dynamic table-element index operand
	ft.code.Push(opcode.WithSignatureIdx(opcode.CallIndirect, op.TypeIdx))
	ft.code.TableGet(op.TableIdx)
	ft.height.popN(len(sig.Params))
	return ft.height.pushN(len(sig.Results))
}

func (ft *funcTranslator) visitBlock(op wasmsrc.Operator) error {
	// A block's params are already sitting on the stack where the caller
	// left them; only its result arity matters for branch bookkeeping.
	_, results := ft.mod.blockArity(op.Block)
	f := controlFrame{
		branchArity:   results,
		endArity:      results,
		heightAtEntry: ft.height.height(),
	}
	f.fuelIdx = ft.code.Push(opcode.WithBlockFuel(opcode.ConsumeFuel, 0))
	ft.frames = append(ft.frames, f)
	return nil
}

func (ft *funcTranslator) visitLoop(op wasmsrc.Operator) error {
	params, _ := ft.mod.blockArity(op.Block)
	f := controlFrame{
		isLoop:        true,
		branchArity:   params,
		endArity:      params,
		heightAtEntry: ft.height.height(),
	}
	f.fuelIdx = ft.code.Push(opcode.WithBlockFuel(opcode.ConsumeFuel, 0))
	f.loopStart = f.fuelIdx
	ft.frames = append(ft.frames, f)
	return nil
}

func (ft *funcTranslator) visitIf(op wasmsrc.Operator) error {
	_, results := ft.mod.blockArity(op.Block)
	ft.height.pop1() // the condition
	idx := ft.code.Br(opcode.BrIfEqz, 0)
	f := controlFrame{
		isIf:          true,
		branchArity:   results,
		endArity:      results,
		heightAtEntry: ft.height.height(),
		ifElseIdx:     idx,
	}
	f.fuelIdx = ft.code.Push(opcode.WithBlockFuel(opcode.ConsumeFuel, 0))
	ft.frames = append(ft.frames, f)
	return nil
}

func (ft *funcTranslator) visitElse() error {
	f := ft.top()
	ft.code.At(f.fuelIdx).SetBlockFuel(f.fuelCount)

	jumpToEnd := ft.code.Br(opcode.Br, 0)
	f.pendingEnd = append(f.pendingEnd, jumpToEnd)
	ft.patchBranch(f.ifElseIdx, ft.code.Len())
	f.sawElse = true
	ft.height.reset(f.heightAtEntry)
	f.fuelIdx = ft.code.Push(opcode.WithBlockFuel(opcode.ConsumeFuel, 0))
	f.fuelCount = 0
	return nil
}

func (ft *funcTranslator) visitEnd() error {
	f := ft.top()
	ft.code.At(f.fuelIdx).SetBlockFuel(f.fuelCount)

	if f.isIf && !f.sawElse {
		ft.patchBranch(f.ifElseIdx, ft.code.Len())
	}
	for _, idx := range f.pendingEnd {
		ft.patchBranch(idx, ft.code.Len())
	}
	ft.height.reset(f.heightAtEntry + f.endArity)

	ft.frames = ft.frames[:len(ft.frames)-1]
	return nil
}

func (ft *funcTranslator) markDead() {
	ft.dead = true
	ft.deadDepth = 0
}

// visitDead keeps the frame stack (and fuel/stack-alloc bookkeeping)
// balanced while skipping translation of instructions that can't execute,
// exiting dead mode exactly when the frame that went unreachable reaches its
// matching else/end.
func (ft *funcTranslator) visitDead(op wasmsrc.Operator) error {
	switch op.Op {
	case wasmsrc.OpBlock, wasmsrc.OpLoop, wasmsrc.OpIf:
		ft.deadDepth++
		return nil
	case wasmsrc.OpElse:
		if ft.deadDepth == 0 {
			ft.dead = false
			return ft.visitElse()
		}
		return nil
	case wasmsrc.OpEnd:
		if ft.deadDepth == 0 {
			ft.dead = false
			return ft.visitEnd()
		}
		ft.deadDepth--
		return nil
	default:
		return nil
	}
}

// emitBranch lowers a branch to the label at relative depth, choosing
// between a bare branch (no value adjustment) and a BrAdjust[IfNez]
// followed by a Return(drop_keep) data slot, per SPEC_FULL.md §4.4 step 6.
func (ft *funcTranslator) emitBranch(depth uint32, plainOp, adjustOp opcode.Opcode) error {
	f := ft.frameAt(depth)
	base := f.heightAtEntry
	if f.isFunc {
		// A branch to the function's own label is a return: it tears down
		// the whole call frame, not just the values above this block.
		base = 0
	}
	drop := ft.height.height() - f.branchArity - base
	dk, err := NewDropKeep(drop, f.branchArity)
	if err != nil {
		return err
	}
	var idx uint32
	if dk.IsNoop() {
		idx = ft.code.Br(plainOp, 0)
	} else {
		idx = ft.code.Br(adjustOp, 0)
		ft.code.Return(dk)
	}
	if f.isLoop {
		ft.patchBranch(idx, f.loopStart)
	} else {
		f.pendingEnd = append(f.pendingEnd, idx)
	}
	return nil
}

func (ft *funcTranslator) patchBranch(idx, target uint32) {
	off := opcode.BranchOffset(int64(target) - int64(idx))
	ft.code.At(idx).SetBranchOffset(off)
}

// visitBrTable lowers br_table to BrTable(N) followed by N fixed stride-2
// groups, one per entry of op.Targets (the default target last, and
// counted in N), addressed as `2*i+1` instructions past the BrTable
// itself (SPEC_FULL.md §4.4.1, §4.7.1). Group i is either a bare Br (padded
// with an inert Return(DropKeep{}) filler slot, never read) or a
// BrAdjust+Return(drop_keep) pair.
func (ft *funcTranslator) visitBrTable(op wasmsrc.Operator) error {
	n := len(op.Targets)
	ft.code.Push(opcode.WithBranchTableTargets(opcode.BrTable, uint32(n)))
	startHeight := ft.height.height()

	for _, depth := range op.Targets {
		ft.height.reset(startHeight)
		f := ft.frameAt(depth)
		base := f.heightAtEntry
		if f.isFunc {
			base = 0
		}
		drop := ft.height.height() - f.branchArity - base
		dk, err := NewDropKeep(drop, f.branchArity)
		if err != nil {
			return err
		}
		var idx uint32
		if dk.IsNoop() {
			idx = ft.code.Br(opcode.Br, 0)
			ft.code.Return(opcode.DropKeep{}) // filler; never read for a bare Br
		} else {
			idx = ft.code.Br(opcode.BrAdjust, 0)
			ft.code.Return(dk)
		}
		if f.isLoop {
			ft.patchBranch(idx, f.loopStart)
		} else {
			f.pendingEnd = append(f.pendingEnd, idx)
		}
	}
	return nil
}
