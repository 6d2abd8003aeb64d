package interp

import (
	"github.com/rwasm-labs/rwasm/internal/rvalue"
	"github.com/rwasm-labs/rwasm/internal/rwasmerr"
)

// SyscallHandler implements one syscall's behavior: the opaque function
// index a Call/ReturnCall instruction names, dispatched through a Caller
// façade rather than given direct access to the Executor. Grounded on
// vm/handler.rs's `type SyscallHandler<T> = fn(Caller<T>, u32) -> Result<...>`.
//
// A handler that wants to terminate the program cleanly returns
// rwasmerr.NewExecutionHalted(code); Run catches that specific error and
// converts it to a successful return. Any other error is either an
// *rwasmerr.Error the handler constructed itself (propagated unchanged) or
// an arbitrary error, which invokeSyscall wraps as HostInterruption.
type SyscallHandler[T any] func(caller Caller[T], funcIdx uint32) error

// alwaysFailingSyscallHandler is the default installed when New is given a
// nil handler, matching spec.md §4.7's "syscall handler defaults to reject
// all" construction contract.
func alwaysFailingSyscallHandler[T any](_ Caller[T], funcIdx uint32) error {
	return rwasmerr.NewUnknownExternalFunction(funcIdx)
}

// Caller is the syscall boundary a handler sees: it can read and mutate the
// host context, move values across the value stack, and read/write linear
// memory, but it must never re-enter Run (spec.md §5 forbids syscall
// reentrancy). Caller is a thin value wrapper around the Executor it was
// constructed from, cheap to pass by value the way Rust passes it by move.
type Caller[T any] struct {
	exec *Executor[T]
}

func newCaller[T any](e *Executor[T]) Caller[T] { return Caller[T]{exec: e} }

// Context returns the host context by value. Go has no borrow checker to
// distinguish a shared read from ContextMut's exclusive one; both simply
// read/write the same field, matching what the original's &T/&mut T split
// amounts to in practice (single-threaded, no concurrent syscalls).
func (c Caller[T]) Context() T { return c.exec.ctx }

// ContextMut returns a pointer to the host context for in-place mutation.
func (c Caller[T]) ContextMut() *T { return &c.exec.ctx }

// StackPush pushes one value onto the operand stack, for a syscall handler
// returning a result.
func (c Caller[T]) StackPush(v rvalue.UntypedValue) { c.exec.valueStack.Push(v) }

// StackPop pops one value, for a syscall handler reading its last argument.
func (c Caller[T]) StackPop() rvalue.UntypedValue { return c.exec.valueStack.Pop() }

// StackPopN pops n values and returns them in their original push order
// (the deepest of the n values, popped last, ends up at index 0), mirroring the original's stack_pop_n::<N>() destructuring
// pattern. Go has no const generics for the array-length parameter the
// original uses, so this takes n as an ordinary argument instead.
func (c Caller[T]) StackPopN(n int) []rvalue.UntypedValue {
	out := make([]rvalue.UntypedValue, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = c.exec.valueStack.Pop()
	}
	return out
}

// MemoryRead copies len(buf) bytes starting at offset out of linear memory.
func (c Caller[T]) MemoryRead(offset uint32, buf []byte) error {
	return c.exec.memoryRead(offset, buf)
}

// MemoryWrite copies data into linear memory starting at offset.
func (c Caller[T]) MemoryWrite(offset uint32, data []byte) error {
	return c.exec.memoryWrite(offset, data)
}

// RemainingFuel reports how much fuel is left before OutOfFuel, or
// math.MaxUint64 when the Executor is unmetered.
func (c Caller[T]) RemainingFuel() uint64 { return c.exec.RemainingFuel() }

// TryConsumeFuel charges n fuel against the Executor's budget, letting a
// syscall handler account for its own cost the same way bulk memory/table
// opcodes do.
func (c Caller[T]) TryConsumeFuel(n uint64) error { return c.exec.tryConsumeFuelIfEnabled(n) }
