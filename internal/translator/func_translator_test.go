package translator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rwasm-labs/rwasm/internal/opcode"
	"github.com/rwasm-labs/rwasm/internal/wasmsrc"
)

func translateTestFunc(t *testing.T, sig wasmsrc.FuncType, body []byte, locals ...wasmsrc.ValType) []opcode.Instruction {
	t.Helper()
	mod := &moduleContext{
		cfg:   DefaultConfig(),
		types: []wasmsrc.FuncType{sig},
	}
	code, err := translateFunction(mod, 0, sig, wasmsrc.Code{Locals: locals, Body: body})
	require.NoError(t, err)
	return code
}

// TestTranslateFunctionAddition walks a two-param i32 addition function
// instruction by instruction: `local.get 0; local.get 1; i32.add`, relying
// on the implicit trailing return spec.md's lowering always appends.
func TestTranslateFunctionAddition(t *testing.T) {
	sig := wasmsrc.FuncType{Params: []wasmsrc.ValType{wasmsrc.ValI32, wasmsrc.ValI32}, Results: []wasmsrc.ValType{wasmsrc.ValI32}}
	body := []byte{
		0x20, 0x00, // local.get 0
		0x20, 0x01, // local.get 1
		0x6a,       // i32.add
		0x0b,       // end
	}
	code := translateTestFunc(t, sig, body)
	require.Len(t, code, 7)

	require.Equal(t, opcode.SignatureCheck, code[0].Op)
	require.Equal(t, opcode.StackAlloc, code[1].Op)
	require.Equal(t, uint32(4), code[1].StackAlloc())
	require.Equal(t, opcode.ConsumeFuel, code[2].Op)
	require.Equal(t, uint32(4), code[2].BlockFuel())

	require.Equal(t, opcode.LocalGet, code[3].Op)
	require.Equal(t, uint32(2), code[3].LocalDepth())
	require.Equal(t, opcode.LocalGet, code[4].Op)
	require.Equal(t, uint32(2), code[4].LocalDepth())

	require.Equal(t, opcode.I32Add, code[5].Op)

	require.Equal(t, opcode.Return, code[6].Op)
	require.Equal(t, opcode.DropKeep{Drop: 2, Keep: 1}, code[6].DropKeep())
}

// TestTranslateFunctionExplicitReturnStillGetsImplicitOne checks the central
// fix this package's hand-tracing surfaced: even when the source body
// already ends in an explicit `return`, the lowering still appends its own
// unconditional trailing Return rather than trying to detect that one
// already covers every path.
func TestTranslateFunctionExplicitReturnStillGetsImplicitOne(t *testing.T) {
	sig := wasmsrc.FuncType{Params: []wasmsrc.ValType{wasmsrc.ValI32}, Results: []wasmsrc.ValType{wasmsrc.ValI32}}
	body := []byte{
		0x20, 0x00, // local.get 0
		0x0f,       // return
		0x20, 0x00, // local.get 0 (dead, never translated)
		0x0b, // end
	}
	code := translateTestFunc(t, sig, body)
	require.Len(t, code, 6)

	require.Equal(t, opcode.LocalGet, code[3].Op)
	require.Equal(t, uint32(1), code[3].LocalDepth())

	require.Equal(t, opcode.Return, code[4].Op)
	require.Equal(t, opcode.DropKeep{Drop: 1, Keep: 1}, code[4].DropKeep())

	// The unconditional trailing Return this package's translateFunction
	// always appends, landing right after the explicit one above -- dead,
	// unreachable bytes, but never wrong, and load-bearing the moment a
	// branch target (rather than a source return) is the thing that
	// precedes it; see the br_table test below.
	require.Equal(t, opcode.Return, code[5].Op)
	require.Equal(t, opcode.DropKeep{Drop: 1, Keep: 1}, code[5].DropKeep())
}

// TestTranslateFunctionIfElse walks `if (result i32) i32.const 1 else
// i32.const 2 end`, checking both the BrIfEqz skip-to-else patch and the
// end-of-then unconditional jump-past-else patch land where expected.
func TestTranslateFunctionIfElse(t *testing.T) {
	sig := wasmsrc.FuncType{Params: []wasmsrc.ValType{wasmsrc.ValI32}, Results: []wasmsrc.ValType{wasmsrc.ValI32}}
	body := []byte{
		0x20, 0x00, // local.get 0 (condition)
		0x04, 0x7f, // if (result i32)
		0x41, 0x01, // i32.const 1
		0x05,       // else
		0x41, 0x02, // i32.const 2
		0x0b, // end (if)
		0x0b, // end (func)
	}
	code := translateTestFunc(t, sig, body)
	require.Len(t, code, 11)

	require.Equal(t, uint32(2), code[1].StackAlloc())
	require.Equal(t, uint32(3), code[2].BlockFuel()) // outer frame: local.get, if, end

	require.Equal(t, opcode.BrIfEqz, code[4].Op)
	require.Equal(t, opcode.BranchOffset(4), code[4].BranchOffset()) // -> index 8, else branch

	require.Equal(t, uint32(2), code[5].BlockFuel()) // if-then block: i32.const, else

	require.Equal(t, opcode.I32Const, code[6].Op)

	require.Equal(t, opcode.Br, code[7].Op)
	require.Equal(t, opcode.BranchOffset(3), code[7].BranchOffset()) // -> index 10, past else

	require.Equal(t, uint32(2), code[8].BlockFuel()) // else block: i32.const, end
	require.Equal(t, opcode.I32Const, code[9].Op)

	require.Equal(t, opcode.Return, code[10].Op)
	require.Equal(t, opcode.DropKeep{Drop: 1, Keep: 1}, code[10].DropKeep())
}

// TestTranslateFunctionLoopBr walks `loop br 0 end`, an infinite loop whose
// only exit is a trap from fuel exhaustion or host-side cancellation, to
// check the backward branch patches straight to the loop's own
// ConsumeFuel slot.
func TestTranslateFunctionLoopBr(t *testing.T) {
	sig := wasmsrc.FuncType{}
	body := []byte{
		0x03, 0x40, // loop (empty type)
		0x0c, 0x00, // br 0
		0x0b, // end (loop)
		0x0b, // end (func)
	}
	code := translateTestFunc(t, sig, body)
	require.Len(t, code, 6)

	require.Equal(t, uint32(0), code[1].StackAlloc())
	require.Equal(t, uint32(2), code[2].BlockFuel()) // outer frame: loop, end
	require.Equal(t, uint32(1), code[3].BlockFuel()) // loop frame: br

	require.Equal(t, opcode.Br, code[4].Op)
	require.Equal(t, opcode.BranchOffset(-1), code[4].BranchOffset()) // back to index 3

	require.Equal(t, opcode.Return, code[5].Op)
	require.Equal(t, opcode.DropKeep{}, code[5].DropKeep())
}

// TestTranslateFunctionBrTable is the trace that originally surfaced the
// emitImplicitReturn hazard: two nested zero-arity blocks, a br_table
// selecting between them, and nothing else in the function body. Both
// br_table arms are bare-Br groups padded with an unread filler Return --
// if the function's own terminating Return were skipped because the last
// raw instruction already happened to carry Op==Return (the old,
// unsound check), both patched branch targets would point one past this
// function's own code, landing on whatever the next function in the
// module starts with. They must land on this function's own Return.
func TestTranslateFunctionBrTable(t *testing.T) {
	sig := wasmsrc.FuncType{Params: []wasmsrc.ValType{wasmsrc.ValI32}}
	body := []byte{
		0x02, 0x40, // block (empty) -- outer, depth 1 from the br_table
		0x02, 0x40, // block (empty) -- inner, depth 0 from the br_table
		0x20, 0x00, // local.get 0 (selector)
		0x0e, 0x01, 0x00, 0x01, // br_table [0, default=1]
		0x0b, // end (inner block)
		0x0b, // end (outer block)
		0x0b, // end (func)
	}
	code := translateTestFunc(t, sig, body)
	require.Len(t, code, 12)

	require.Equal(t, opcode.BrTable, code[6].Op)
	require.Equal(t, uint32(2), code[6].BranchTableTargets())

	require.Equal(t, opcode.Br, code[7].Op)
	require.Equal(t, opcode.BranchOffset(4), code[7].BranchOffset()) // -> index 11
	require.Equal(t, opcode.Return, code[8].Op)                      // unread filler

	require.Equal(t, opcode.Br, code[9].Op)
	require.Equal(t, opcode.BranchOffset(2), code[9].BranchOffset()) // -> index 11
	require.Equal(t, opcode.Return, code[10].Op)                     // unread filler

	// Index 11 is this function's own unconditional implicit return, the
	// landing point both br_table arms above patch themselves to target.
	require.Equal(t, opcode.Return, code[11].Op)
	require.Equal(t, opcode.DropKeep{Drop: 1, Keep: 0}, code[11].DropKeep())
}
