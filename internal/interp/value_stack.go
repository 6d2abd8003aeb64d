package interp

import (
	"github.com/rwasm-labs/rwasm/internal/opcode"
	"github.com/rwasm-labs/rwasm/internal/rvalue"
	"github.com/rwasm-labs/rwasm/internal/rwasmerr"
)

// ValueStack is the interpreter's single operand stack. Grounded on
// vm/value_stack.rs, but dropping that file's raw-pointer caching of the
// current stack pointer across calls: the Rust engine keeps a local `sp`
// copy for speed and periodically syncs it back, a pattern that exists only
// to dodge bounds-check overhead on a borrowed slice. A Go slice index is
// already cheap, so every ValueStack method here mutates sp directly and
// there is no separate "sync" step or sp-staleness bug class to worry about
// (see DESIGN.md).
type ValueStack struct {
	entries []rvalue.UntypedValue
	sp      int
	maxLen  int
}

// NewValueStack allocates a stack with an initial backing length and a hard
// ceiling enforced by Reserve.
func NewValueStack(initialLen, maxLen int) *ValueStack {
	if initialLen <= 0 {
		initialLen = 1
	}
	return &ValueStack{entries: make([]rvalue.UntypedValue, initialLen), maxLen: maxLen}
}

// Len reports the number of live cells (the current stack pointer).
func (vs *ValueStack) Len() int { return vs.sp }

// Reset empties the stack without releasing its backing array.
// Executor.Reset does not call it; it allocates a fresh ValueStack.
func (vs *ValueStack) Reset() { vs.sp = 0 }

// Reserve ensures capacity for `additional` more pushes beyond the current
// stack pointer, growing the backing array as needed and failing with
// StackOverflow if that would exceed maxLen. StackAlloc calls this once per
// function entry with that function's translator-computed max stack height.
func (vs *ValueStack) Reserve(additional int) error {
	needed := vs.sp + additional
	if vs.maxLen > 0 && needed > vs.maxLen {
		return rwasmerr.New(rwasmerr.StackOverflow)
	}
	if needed > len(vs.entries) {
		grown := make([]rvalue.UntypedValue, needed)
		copy(grown, vs.entries)
		vs.entries = grown
	}
	return nil
}

// Push appends a value, growing the backing array if StackAlloc under-
// reserved (this should not happen for well-formed modules, but growing
// here instead of panicking keeps failures memory-safe rather than fatal).
func (vs *ValueStack) Push(v rvalue.UntypedValue) {
	if vs.sp >= len(vs.entries) {
		vs.entries = append(vs.entries, v)
	} else {
		vs.entries[vs.sp] = v
	}
	vs.sp++
}

// Pop removes and returns the top value.
func (vs *ValueStack) Pop() rvalue.UntypedValue {
	vs.sp--
	return vs.entries[vs.sp]
}

// Pop2 pops the top two values, returning them as (lhs, rhs) where rhs was
// the topmost (pushed last, popped first) -- the WASM operand order for
// every binary instruction.
func (vs *ValueStack) Pop2() (lhs, rhs rvalue.UntypedValue) {
	rhs = vs.Pop()
	lhs = vs.Pop()
	return
}

// Pop3 pops the top three values, returning (fst, snd, trd) where fst is the
// deepest (pushed first) and trd is the topmost (pushed last, popped
// first) -- matching memory.fill/copy/init's (dst, val|src, len) and
// table.fill/copy/init's analogous operand order.
func (vs *ValueStack) Pop3() (fst, snd, trd rvalue.UntypedValue) {
	trd = vs.Pop()
	snd = vs.Pop()
	fst = vs.Pop()
	return
}

// Drop discards the top value without returning it.
func (vs *ValueStack) Drop() { vs.sp-- }

// Last peeks the top value without popping it (select's operand evaluation
// order, local.tee's read-before-overwrite).
func (vs *ValueStack) Last() rvalue.UntypedValue { return vs.entries[vs.sp-1] }

// NthBack returns the value `depth` cells back from the top, where depth=1
// is the top element itself -- local.get's addressing convention.
func (vs *ValueStack) NthBack(depth int) rvalue.UntypedValue { return vs.entries[vs.sp-depth] }

// SetNthBack overwrites the value `depth` cells back from the top.
func (vs *ValueStack) SetNthBack(depth int, v rvalue.UntypedValue) { vs.entries[vs.sp-depth] = v }

// EvalTop3 replaces the top three cells with a single value computed from
// them, in (deepest, middle, topmost) order -- select's evaluation shape.
func (vs *ValueStack) EvalTop3(f func(a, b, c rvalue.UntypedValue) rvalue.UntypedValue) {
	c := vs.Pop()
	b := vs.Pop()
	a := vs.Pop()
	vs.Push(f(a, b, c))
}

// DropKeep shifts the top `keep` cells down by `drop` positions and shrinks
// the stack pointer by `drop`, preserving the top-most `keep` values
// bit-for-bit -- the operation every block/loop exit and every call
// return compiles down to.
func (vs *ValueStack) DropKeep(dk opcode.DropKeep) {
	if dk.Drop == 0 {
		return
	}
	if dk.Keep == 0 {
		vs.sp -= int(dk.Drop)
		return
	}
	keep := int(dk.Keep)
	src := vs.sp - keep
	dst := src - int(dk.Drop)
	copy(vs.entries[dst:dst+keep], vs.entries[src:src+keep])
	vs.sp -= int(dk.Drop)
}
