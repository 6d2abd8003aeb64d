// Package interp implements the rWASM interpreter: a stack-machine executor
// over a compiled rmodule.Module, with a concrete memory/table/global model,
// fuel metering, structured traps, and a syscall-handler boundary. Grounded
// on original_source/src/vm/*.rs and src/vm/executor/*.rs -- the "legacy"
// engine, whose flat-blob-plus-dropped-bitset segment model matches the
// actual rmodule.Module wire format (see DESIGN.md).
package interp

import "go.uber.org/zap"

// ExecutorConfig controls one Executor's construction. The zero value is
// usable (no fuel limit, tracing off) but has floats disabled;
// DefaultExecutorConfig enables them. Mirrors
// translator.CompilationConfig's value-receiver functional-options shape.
type ExecutorConfig struct {
	// FuelLimit caps total fuel consumption; nil means unmetered. Exceeding
	// it at a fuel-consuming instruction traps with rwasmerr.OutOfFuel.
	FuelLimit *uint64

	// TraceEnabled requests per-instruction tracing hooks. The base
	// Executor does not implement tracing itself; this
	// field exists so callers wiring a tracer have somewhere configured to
	// read the flag from.
	TraceEnabled bool

	// FloatsEnabled gates every f32/f64 instruction; disabling it traps
	// with rwasmerr.FloatsAreDisabled instead of executing.
	FloatsEnabled bool

	// Logger is used only for one-time setup diagnostics in New -- never on
	// the hot dispatch path, which must stay allocation- and log-free.
	Logger *zap.Logger

	// Costs overrides the fuel cost table; the zero value resolves to
	// DefaultFuelCosts in New.
	Costs *FuelCosts
}

// DefaultExecutorConfig returns the interpreter's baseline configuration:
// unmetered, tracing off, floats enabled (matching translator.DefaultConfig's
// EnableFloatingPoint default).
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{FloatsEnabled: true}
}

func (c ExecutorConfig) WithFuelLimit(limit uint64) ExecutorConfig {
	c.FuelLimit = &limit
	return c
}

func (c ExecutorConfig) WithTraceEnabled(v bool) ExecutorConfig {
	c.TraceEnabled = v
	return c
}

func (c ExecutorConfig) WithFloatsEnabled(v bool) ExecutorConfig {
	c.FloatsEnabled = v
	return c
}

func (c ExecutorConfig) WithLogger(l *zap.Logger) ExecutorConfig {
	c.Logger = l
	return c
}

func (c ExecutorConfig) WithFuelCosts(costs FuelCosts) ExecutorConfig {
	c.Costs = &costs
	return c
}

// FuelCosts is the per-unit fuel price table spec.md §4.8 defines. The
// translator inlines Base-unit costs as static ConsumeFuel deposits at block
// heads; the interpreter charges the per-byte/per-element rates dynamically
// for bulk memory/table operations, since their length is a runtime operand
// the translator can't know ahead of time (DESIGN.md Open Question 10).
type FuelCosts struct {
	Base                 uint64
	Entity                uint64
	Load                  uint64
	Store                 uint64
	Call                  uint64
	MemoryBytesPerFuel    uint64
	RegistersPerFuel      uint64
	BranchKeptPerFuel     uint64
	FuncLocalsPerFuel     uint64
	TableElementsPerFuel  uint64
}

// DefaultFuelCosts returns spec.md §4.8's hard-coded defaults.
func DefaultFuelCosts() FuelCosts {
	return FuelCosts{
		Base:                 1,
		Entity:                1,
		Load:                  1,
		Store:                 1,
		Call:                  1,
		MemoryBytesPerFuel:    64,
		RegistersPerFuel:      8,
		BranchKeptPerFuel:     8,
		FuncLocalsPerFuel:     8,
		TableElementsPerFuel:  8,
	}
}

// FuelForBytes converts a byte count into the fuel charge for a bulk memory
// operation, rounding up so any partial chunk still costs one unit.
func (c FuelCosts) FuelForBytes(n uint64) uint64 { return ceilDiv(n, c.MemoryBytesPerFuel) }

// FuelForElements is FuelForBytes' table-element analog.
func (c FuelCosts) FuelForElements(n uint64) uint64 { return ceilDiv(n, c.TableElementsPerFuel) }

func ceilDiv(n, d uint64) uint64 {
	if d == 0 {
		return n
	}
	return (n + d - 1) / d
}
