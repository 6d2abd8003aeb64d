package translator

import "github.com/rwasm-labs/rwasm/internal/wasmsrc"

// moduleContext carries the module-wide facts a single function's
// translation needs: how to resolve a WASM function index (imported or
// internal) to a call target, and how to resolve a block-type / call-target
// type index to a concrete signature.
type moduleContext struct {
	cfg CompilationConfig

	types []wasmsrc.FuncType

	// funcTypeIdx[i] is the type index of function i in the combined
	// (imports-first) WASM function index space. Imported and defined
	// functions occupy one shared compiled-func index space in the finished
	// module too: every import's trampoline (see SPEC_FULL.md §4.6) is
	// placed at that import's own WASM function index, so a call site never
	// needs to know whether its target is imported.
	funcTypeIdx []uint32
}

func (m *moduleContext) funcType(idx uint32) wasmsrc.FuncType {
	return m.types[m.funcTypeIdx[idx]]
}

// blockArity resolves a structured control instruction's type annotation to
// (paramCount, resultCount).
func (m *moduleContext) blockArity(bt wasmsrc.BlockType) (params, results int) {
	if bt.Empty {
		return 0, 0
	}
	if bt.SingleOK {
		return 0, 1
	}
	ft := m.types[bt.TypeIdx]
	return len(ft.Params), len(ft.Results)
}
