// Package rwasm is the library's public entry point: compile a WebAssembly
// binary down to the flattened rWASM representation, then run it. Grounded
// on wazero's root-package facade style (a small Compile/NewRuntime surface
// over the internal packages that do the real work), adapted to rWASM's
// two-stage compile-then-execute shape rather than wazero's
// compile-then-instantiate-into-a-shared-Runtime one, since rWASM has no
// multi-module linking story to support (spec.md Non-goals).
package rwasm

import (
	"bytes"
	"io"

	"go.uber.org/zap"

	"github.com/rwasm-labs/rwasm/internal/interp"
	"github.com/rwasm-labs/rwasm/internal/rmodule"
	"github.com/rwasm-labs/rwasm/internal/translator"
	"github.com/rwasm-labs/rwasm/internal/wasmsrc"
)

// Module is a compiled rWASM program: a single flat code section plus its
// merged memory/element blobs and entrypoint, ready to be encoded to bytes
// or handed straight to NewRuntime.
type Module struct {
	inner *rmodule.Module
}

// Compile decodes a WebAssembly binary and translates it into rWASM per
// cfg. A nil logger is replaced with zap.NewNop(), matching
// translator.Translate's own default.
func Compile(logger *zap.Logger, wasmBinary []byte, cfg translator.CompilationConfig) (*Module, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	src, err := wasmsrc.Decode(bytes.NewReader(wasmBinary))
	if err != nil {
		return nil, err
	}
	compiled, err := translator.Translate(logger, src, cfg)
	if err != nil {
		return nil, err
	}
	return &Module{inner: compiled}, nil
}

// DecodeModule reads a previously-Encoded rWASM module back, skipping
// translation entirely -- the path a ZK prover takes when it receives
// already-compiled rWASM bytecode rather than source WASM.
func DecodeModule(r io.Reader) (*Module, error) {
	m, err := rmodule.Decode(r)
	if err != nil {
		return nil, err
	}
	return &Module{inner: m}, nil
}

// Encode serializes m to its binary rWASM wire format.
func (m *Module) Encode(w io.Writer) error { return m.inner.Encode(w) }

// Runtime wraps a single compiled Module together with the interpreter
// Executor running it, parameterized over T, the opaque host context a
// syscall handler receives through interp.Caller[T].
type Runtime[T any] struct {
	exec *interp.Executor[T]
}

// NewRuntime constructs a Runtime ready to Run module. handler may be nil,
// in which case every syscall traps with UnknownExternalFunction (the
// Executor's default construction contract, spec.md §4.7).
func NewRuntime[T any](module *Module, cfg interp.ExecutorConfig, handler interp.SyscallHandler[T], ctx T) *Runtime[T] {
	return &Runtime[T]{exec: interp.New(module.inner, cfg, handler, ctx)}
}

// Run drives the module to completion, returning its exit code on a clean
// halt or the trap that stopped it.
func (r *Runtime[T]) Run() (int32, error) { return r.exec.Run() }

// Reset rewinds the Runtime so the same compiled Module can be run again
// (spec.md §7: reuse requires reset()).
func (r *Runtime[T]) Reset() { r.exec.Reset() }

// Context returns the current host context.
func (r *Runtime[T]) Context() T { return r.exec.Context() }

// SetContext replaces the host context, typically between Reset and Run.
func (r *Runtime[T]) SetContext(ctx T) { r.exec.SetContext(ctx) }
