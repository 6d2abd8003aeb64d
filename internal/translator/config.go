package translator

import "github.com/rwasm-labs/rwasm/internal/opcode"

// StateRouterConfig turns a single entrypoint into a dispatcher over several
// exported functions, selected by an input state value -- used by the ZK
// circuit host to run one of several "instructions" from one compiled
// module without re-translating. Mirrors config.rs's StateRouterConfig.
type StateRouterConfig struct {
	// States pairs an exported function name with the state value that
	// selects it, tried in order.
	States []StateRoute

	// Opcode optionally overrides the instruction that produces "the
	// current state" value to compare each route against. The zero value
	// means "not set"; CompilationConfig.stateOpcode fills in the default
	// (local.get 0) when absent.
	Opcode    opcode.Opcode
	OpcodeSet bool
	OpcodeArg uint32
}

type StateRoute struct {
	Name  string
	State uint32
}

// CompilationConfig controls one module's WASM -> rWASM translation. The
// zero value has no state router, no entrypoint override, no import linker
// and the malformed-entrypoint check on, but floats disabled and
// WrapImportFunctions off (so a module with imports is rejected);
// DefaultConfig enables both.
type CompilationConfig struct {
	StateRouter                     *StateRouterConfig
	EntrypointName                  string
	ImportLinker                    *ImportLinker
	WrapImportFunctions             bool
	AllowMalformedEntrypointFuncType bool
	BuiltinsConsumeFuel             bool
	EnableFloatingPoint             bool
}

// DefaultConfig returns the translator's baseline configuration: floats
// enabled (spec.md's MVP includes f32/f64 by default, see DESIGN.md Open
// Question 3), malformed-entrypoint check enforced, no state router, imports
// always wrapped in a trampoline (the only import-call strategy SPEC_FULL.md
// §4.6 describes; see DESIGN.md on WrapImportFunctions).
func DefaultConfig() CompilationConfig {
	return CompilationConfig{EnableFloatingPoint: true, WrapImportFunctions: true}
}

func (c CompilationConfig) WithStateRouter(r StateRouterConfig) CompilationConfig {
	c.StateRouter = &r
	return c
}

func (c CompilationConfig) WithEntrypointName(name string) CompilationConfig {
	c.EntrypointName = name
	return c
}

func (c CompilationConfig) WithImportLinker(l *ImportLinker) CompilationConfig {
	c.ImportLinker = l
	return c
}

func (c CompilationConfig) WithWrapImportFunctions(v bool) CompilationConfig {
	c.WrapImportFunctions = v
	return c
}

func (c CompilationConfig) WithAllowMalformedEntrypointFuncType(v bool) CompilationConfig {
	c.AllowMalformedEntrypointFuncType = v
	return c
}

func (c CompilationConfig) WithBuiltinsConsumeFuel(v bool) CompilationConfig {
	c.BuiltinsConsumeFuel = v
	return c
}

func (c CompilationConfig) WithEnableFloatingPoint(v bool) CompilationConfig {
	c.EnableFloatingPoint = v
	return c
}

// stateOpcode resolves the instruction used to fetch "the current state"
// value for router dispatch: the configured override, or local.get 0 (the
// entrypoint's first parameter) by default.
func (c CompilationConfig) stateOpcode() (opcode.Opcode, uint32) {
	if c.StateRouter != nil && c.StateRouter.OpcodeSet {
		return c.StateRouter.Opcode, c.StateRouter.OpcodeArg
	}
	return opcode.LocalGet, 0
}
