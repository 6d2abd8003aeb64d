package translator

// controlFrame tracks one level of WASM's structured control flow
// (block/loop/if, plus an implicit outermost frame for the function body
// itself) while it's being flattened into rWASM's flat branch offsets.
//
// branchArity is how many values a branch *to* this frame's label carries:
// the block's result arity for block/if/function, the block's *param*
// arity for loop (a backward branch re-enters with the loop's inputs, not
// its eventual outputs). endArity is always the frame's declared result
// arity -- what's left on the stack once the frame falls through its `end`
// normally.
type controlFrame struct {
	isLoop      bool
	isFunc      bool // the implicit outermost frame: branching out tears down the whole call frame, not just this block
	branchArity int
	endArity    int

	// heightAtEntry is the simulated stack height at the moment control
	// entered this frame's body (after the block's own params, if any, are
	// already accounted for).
	heightAtEntry int

	// loopStart is the instruction index a backward branch jumps to;
	// meaningful only when isLoop.
	loopStart uint32

	// pendingEnd holds the indices of Br/BrAdjust instructions (the first
	// slot of a 1- or 2-slot branch) whose offset is only known once this
	// frame's `end` position is emitted.
	pendingEnd []uint32

	// ifElseIdx is the BrIfEqz emitted for an `if` test, patched at `else`
	// (if present) or `end` (if not). Unused for block/loop/function frames.
	ifElseIdx uint32
	isIf      bool
	sawElse   bool

	// fuelIdx is the ConsumeFuel placeholder for the current straight-line
	// sub-block (the frame's body, or its else-branch once entered), and
	// fuelCount is the running count of source operators charged to it.
	fuelIdx   uint32
	fuelCount uint32
}
