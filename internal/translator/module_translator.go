package translator

import (
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/rwasm-labs/rwasm/internal/codebuf"
	"github.com/rwasm-labs/rwasm/internal/compileerr"
	"github.com/rwasm-labs/rwasm/internal/opcode"
	"github.com/rwasm-labs/rwasm/internal/rmodule"
	"github.com/rwasm-labs/rwasm/internal/rvalue"
	"github.com/rwasm-labs/rwasm/internal/segment"
	"github.com/rwasm-labs/rwasm/internal/wasmsrc"
)

// Translate drives the whole module-level pipeline described in
// SPEC_FULL.md §4.5: resolve every import against cfg.ImportLinker,
// materialize globals/memory/tables/elements/data through the segment
// builder, translate every function body, then splice in the synthesized
// entrypoint and renumber call targets to match.
func Translate(logger *zap.Logger, src *wasmsrc.Module, cfg CompilationConfig) (*rmodule.Module, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(src.Imports) > 0 && !cfg.WrapImportFunctions {
		// Unwrapped imports would need compiled-func indices to skip past
		// the import range entirely (the legacy build's "no intersection"
		// index scheme) with calls to the syscall dispatched directly --
		// a mode SPEC_FULL.md §4.6 never describes, so it's out of scope
		// here (see DESIGN.md).
		return nil, compileerr.New(compileerr.UnsupportedProposal, "unwrapped import functions are not supported")
	}

	mod := &moduleContext{cfg: cfg, types: src.Types}
	for _, imp := range src.Imports {
		mod.funcTypeIdx = append(mod.funcTypeIdx, imp.FuncTypeIdx)
	}
	for _, typeIdx := range src.Functions {
		mod.funcTypeIdx = append(mod.funcTypeIdx, typeIdx)
	}

	trampolines, err := resolveImports(src, cfg)
	if err != nil {
		return nil, err
	}

	seg := segment.New()

	for i, g := range src.Globals {
		init, err := convertGlobalInit(g)
		if err != nil {
			return nil, err
		}
		if err := seg.AddGlobalVariable(uint32(i), init); err != nil {
			return nil, err
		}
	}

	if len(src.Memories) > 0 {
		if err := seg.AddMemoryPages(src.Memories[0].Min); err != nil {
			return nil, err
		}
	}
	for i, t := range src.Tables {
		growTable(seg.Entrypoint, uint32(i), t.Limits.Min)
	}

	if err := materializeElements(seg, src); err != nil {
		return nil, err
	}
	if err := materializeData(seg, src); err != nil {
		return nil, err
	}

	funcBodies := make([][]opcode.Instruction, 0, len(src.Codes))
	for i, code := range src.Codes {
		typeIdx := src.Functions[i]
		sig := src.Types[typeIdx]
		body, err := translateFunction(mod, typeIdx, sig, code)
		if err != nil {
			logger.Debug("function translation failed", zap.Int("index", i), zap.Error(err))
			return nil, err
		}
		funcBodies = append(funcBodies, body)
	}

	if src.HasStart {
		// src.Start is already a combined (imports-first) WASM function
		// index, the same index space our compiled-func layout uses, so it
		// needs no further offsetting.
		seg.AddStartFunction(src.Start)
	}

	entrypoint, err := buildEntrypoint(src, cfg, seg.Entrypoint)
	if err != nil {
		return nil, err
	}

	return assemble(seg, trampolines, funcBodies, entrypoint), nil
}

// resolveImports resolves every imported function against cfg.ImportLinker
// and synthesizes its trampoline (SPEC_FULL.md §4.6). All of a module's
// import problems are reported together rather than stopping at the first.
func resolveImports(src *wasmsrc.Module, cfg CompilationConfig) ([][]opcode.Instruction, error) {
	trampolines := make([][]opcode.Instruction, 0, src.NumImportedFuncs)
	var errs error
	for _, imp := range src.Imports {
		ft := src.Types[imp.FuncTypeIdx]
		if cfg.ImportLinker == nil {
			errs = multierr.Append(errs, compileerr.New(compileerr.ImportResolutionFailed, imp.Module+"::"+imp.Field+" (no import linker configured)"))
			continue
		}
		entity, err := cfg.ImportLinker.Resolve(ImportName{Module: imp.Module, Field: imp.Field}, ft.Params, ft.Results)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		trampolines = append(trampolines, buildTrampoline(entity))
	}
	if errs != nil {
		return nil, errs
	}
	return trampolines, nil
}

// buildTrampoline synthesizes the internal function every call to an import
// is rewritten to target instead of reaching the syscall directly.
func buildTrampoline(entity ImportLinkerEntity) []opcode.Instruction {
	b := &codebuf.Builder{}
	b.Push(opcode.WithSignatureIdx(opcode.SignatureCheck, 0))
	b.Push(opcode.WithStackAlloc(opcode.StackAlloc, 0))
	b.Push(opcode.WithBlockFuel(opcode.ConsumeFuel, entity.BlockFuel))
	b.Push(opcode.WithFuncIdx(opcode.Call, entity.SysFuncIdx))
	b.Return(opcode.DropKeep{})
	return b.Code()
}

// growTable emits the prologue sequence that grows table idx from empty to
// its declared initial size, filled with the null funcref. There's no
// dedicated segment-builder helper for this (unlike memory pages) since
// table.grow's own two-operand shape -- fill value, then delta -- is cheap
// to emit directly.
func growTable(b *codebuf.Builder, idx, initialSize uint32) {
	if initialSize == 0 {
		return
	}
	b.I64Const(0) // FUNC_REF_NULL fill value
	b.I32Const(int32(initialSize))
	b.Push(opcode.WithTableIdx(opcode.TableGrow, idx))
	b.Drop()
}

func convertGlobalInit(g wasmsrc.Global) (segment.GlobalInit, error) {
	typ, err := convertValType(g.Type.Type)
	if err != nil {
		return segment.GlobalInit{}, err
	}
	switch g.Init.Kind {
	case wasmsrc.InitConst, wasmsrc.InitRefNull:
		return segment.GlobalInit{Kind: segment.GlobalInitConst, Type: typ, Const: g.Init.Value}, nil
	case wasmsrc.InitRefFunc:
		return segment.GlobalInit{Kind: segment.GlobalInitFuncRef, Type: typ, Ref: g.Init.RefIndex}, nil
	case wasmsrc.InitGlobalGet:
		// A global.get initializer may only reference an *earlier imported*
		// global per the WASM spec, and imported globals are always
		// rejected (spec.md line 15), so this shape can never legally occur
		// in an accepted module; reject it explicitly instead of
		// mis-resolving it against the wrong index space.
		return segment.GlobalInit{}, compileerr.New(compileerr.ConstEvaluationFailed, "global.get initializer has no valid target: imported globals are not supported")
	default:
		return segment.GlobalInit{}, compileerr.New(compileerr.MalformedInput, "unrecognized global init kind")
	}
}

func convertValType(t wasmsrc.ValType) (segment.ValType, error) {
	switch t {
	case wasmsrc.ValI32:
		return segment.ValI32, nil
	case wasmsrc.ValI64:
		return segment.ValI64, nil
	case wasmsrc.ValF32:
		return segment.ValF32, nil
	case wasmsrc.ValF64:
		return segment.ValF64, nil
	case wasmsrc.ValFuncRef:
		return segment.ValFuncRef, nil
	case wasmsrc.ValExternRef:
		return segment.ValExternRef, nil
	default:
		return 0, compileerr.New(compileerr.MalformedInput, "unknown value type")
	}
}

// constOffset resolves an active segment's offset expression to a plain
// u32. Active segment offsets are always a bare i32 constant in the
// accepted subset (global.get offsets face the same imported-global-only
// restriction as convertGlobalInit above, so they're rejected the same way).
func constOffset(ce wasmsrc.ConstExpr) (rvalue.UntypedValue, error) {
	if ce.Kind != wasmsrc.InitConst {
		return 0, compileerr.New(compileerr.ConstEvaluationFailed, "active segment offset must be a constant expression")
	}
	return ce.Value, nil
}

func materializeElements(seg *segment.Builder, src *wasmsrc.Module) error {
	for i, e := range src.Elements {
		funcs := make([]uint32, len(e.Funcs))
		for j, fi := range e.Funcs {
			if fi == wasmsrc.NullFuncIndex {
				funcs[j] = 0 // FUNC_REF_NULL
				continue
			}
			funcs[j] = uint32(rvalue.FromFuncRef(fi))
		}
		switch e.Mode {
		case wasmsrc.ElemActive:
			offset, err := constOffset(e.Offset)
			if err != nil {
				return err
			}
			seg.AddActiveElements(uint32(i), e.TableIdx, offset, funcs)
		case wasmsrc.ElemPassive, wasmsrc.ElemDeclared:
			// A declared segment only exists to make its functions legal
			// ref.func targets; it's never copied into a table, so it's
			// materialized as passive data nobody ever table.inits from.
			seg.AddPassiveElements(uint32(i), funcs)
		}
	}
	return nil
}

func materializeData(seg *segment.Builder, src *wasmsrc.Module) error {
	for i, d := range src.Data {
		if d.Active {
			offset, err := constOffset(d.Offset)
			if err != nil {
				return err
			}
			seg.AddActiveMemory(uint32(i), offset, d.Bytes)
			continue
		}
		seg.AddPassiveMemory(uint32(i), d.Bytes)
	}
	return nil
}

// buildEntrypoint implements finalization steps 1-3 (SPEC_FULL.md §4.5):
// determine the entry point, emit the state router if configured, and
// terminate with Return(none). prologue is the segment builder's
// accumulated global/memory/table/element/data/start initialization, which
// always runs before either.
func buildEntrypoint(src *wasmsrc.Module, cfg CompilationConfig, prologue *codebuf.Builder) ([]opcode.Instruction, error) {
	b := prologue

	hasStart := src.HasStart // already emitted into the prologue by AddStartFunction
	mainIdx, hasMain := findExport(src, cfg.EntrypointName)

	// "start" and an explicit entrypoint name are not treated as mutually
	// exclusive: the original emits the start call unconditionally and then
	// still honors a configured entrypoint name afterward, a "possibly
	// buggy" ordering spec.md itself calls out and DESIGN.md (Open Question
	// 1) preserves rather than "fixes".
	if hasMain {
		// mainIdx is an export's combined WASM function index, already in the
		// same index space as the compiled-func layout below; no offset.
		b.CallInternal(mainIdx)
	}
	if !hasStart && !hasMain {
		if cfg.StateRouter == nil {
			return nil, compileerr.New(compileerr.MissingEntrypoint, "no start function, no matching export, and no state router configured")
		}
	}
	if cfg.StateRouter != nil {
		if err := emitStateRouter(src, cfg, b); err != nil {
			return nil, err
		}
	}

	b.Return(opcode.DropKeep{})
	return b.Code(), nil
}

func findExport(src *wasmsrc.Module, name string) (uint32, bool) {
	if name == "" {
		return 0, false
	}
	for _, e := range src.Exports {
		if e.Kind == wasmsrc.ExportFunc && e.Name == name {
			return e.Index, true
		}
	}
	return 0, false
}

// emitStateRouter implements §4.5.1: dispatch to one of several exported
// functions by comparing an externally supplied state value against each
// configured route in turn.
func emitStateRouter(src *wasmsrc.Module, cfg CompilationConfig, b *codebuf.Builder) error {
	op, arg := cfg.stateOpcode()
	b.Push(opcode.WithLocalDepth(op, arg))

	for _, route := range cfg.StateRouter.States {
		idx, ok := findExport(src, route.Name)
		if !ok {
			return compileerr.New(compileerr.MissingEntrypoint, "state router route refers to unknown export: "+route.Name)
		}
		b.Push(opcode.WithLocalDepth(opcode.LocalGet, 1))
		b.I32Const(int32(route.State))
		b.Push(opcode.Simple(opcode.I32Eq))
		skip := b.Br(opcode.BrIfEqz, 0)
		b.Drop() // drop the duplicated state value before dispatch
		b.CallInternal(idx)
		b.Return(opcode.DropKeep{})
		off := opcode.BranchOffset(int64(b.Len()) - int64(skip))
		b.At(skip).SetBranchOffset(off)
	}
	b.Drop() // no route matched: drop the state value and fall through
	return nil
}

// assemble performs finalization steps 4-6: prepend the entrypoint to the
// code section, shifting every other function's start PC by its length,
// and rewrite every CallInternal payload k -> k+1 to account for it.
func assemble(seg *segment.Builder, trampolines, funcBodies [][]opcode.Instruction, entrypoint []opcode.Instruction) *rmodule.Module {
	var body []opcode.Instruction
	var funcSection []uint32

	allFuncs := make([][]opcode.Instruction, 0, len(trampolines)+len(funcBodies))
	allFuncs = append(allFuncs, trampolines...)
	allFuncs = append(allFuncs, funcBodies...)

	for _, fn := range allFuncs {
		funcSection = append(funcSection, uint32(len(body)))
		body = append(body, fn...)
	}

	// funcSection above is relative to body alone (entrypoint not yet
	// prepended); shift every entry by entrypointLen before code becomes
	// entrypoint+body, so each one lands on its function's true offset in
	// the final, single code section.
	entrypointLen := uint32(len(entrypoint))
	for i := range funcSection {
		funcSection[i] += entrypointLen
	}

	code := make([]opcode.Instruction, 0, entrypointLen+uint32(len(body)))
	code = append(code, entrypoint...)
	code = append(code, body...)

	// Branch offsets are relative to the branch instruction itself, so
	// prepending the entrypoint never disturbs them -- only CallInternal
	// targets, which index the separate function table below, need the +1
	// shift to account for the entrypoint becoming function 0.
	for i := range code {
		if code[i].Op == opcode.CallInternal {
			code[i].SetCompiledFunc(code[i].CompiledFunc() + 1)
		}
	}

	funcSection = append([]uint32{0}, funcSection...)

	return &rmodule.Module{
		CodeSection:    code,
		MemorySection:  seg.MemorySection(),
		ElementSection: seg.ElementSection(),
		SourcePC:       0,
		FuncSection:    funcSection,
	}
}
