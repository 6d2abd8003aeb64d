package interp

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rwasm-labs/rwasm/internal/codebuf"
	"github.com/rwasm-labs/rwasm/internal/opcode"
	"github.com/rwasm-labs/rwasm/internal/rmodule"
	"github.com/rwasm-labs/rwasm/internal/rvalue"
	"github.com/rwasm-labs/rwasm/internal/rwasmerr"
)

// These six scenarios are spec.md §8's end-to-end list, hand-built as raw
// instruction sequences since no WAT parser exists anywhere in the
// retrieval pack (see internal/wasmsrc's package doc).

// TestRunExitZeroWithNoSyscall covers scenario 1: a bare top-level Return
// with an empty call stack halts cleanly with exit code 0.
func TestRunExitZeroWithNoSyscall(t *testing.T) {
	b := &codebuf.Builder{}
	b.Return(opcode.DropKeep{})
	module := &rmodule.Module{CodeSection: b.Code()}

	exec := New[struct{}](module, DefaultExecutorConfig(), nil, struct{}{})
	code, err := exec.Run()
	require.NoError(t, err)
	require.Equal(t, int32(0), code)
}

// TestRunSyscallHalt covers scenario 2: a syscall handler that returns
// NewExecutionHalted stops the run and surfaces its exit code as success.
func TestRunSyscallHalt(t *testing.T) {
	b := &codebuf.Builder{}
	b.Push(opcode.WithFuncIdx(opcode.Call, 0))
	module := &rmodule.Module{CodeSection: b.Code()}

	handler := func(_ Caller[struct{}], funcIdx uint32) error {
		require.Equal(t, uint32(0), funcIdx)
		return rwasmerr.NewExecutionHalted(123)
	}
	exec := New(module, DefaultExecutorConfig(), handler, struct{}{})
	code, err := exec.Run()
	require.NoError(t, err)
	require.Equal(t, int32(123), code)
}

// TestRunDefaultSyscallHandlerRejectsUnknownCall confirms New's nil-handler
// default: every call index traps as UnknownExternalFunction.
func TestRunDefaultSyscallHandlerRejectsUnknownCall(t *testing.T) {
	b := &codebuf.Builder{}
	b.Push(opcode.WithFuncIdx(opcode.Call, 7))
	module := &rmodule.Module{CodeSection: b.Code()}

	exec := New[struct{}](module, DefaultExecutorConfig(), nil, struct{}{})
	_, err := exec.Run()
	rerr, ok := err.(*rwasmerr.Error)
	require.True(t, ok)
	require.Equal(t, rwasmerr.UnknownExternalFunction, rerr.Kind)
	require.Equal(t, uint32(7), rerr.FuncIndex)
}

// TestRunMemoryStoreThenLoad covers scenario 3: growing memory, storing a
// value, and loading it back through the same linear memory.
func TestRunMemoryStoreThenLoad(t *testing.T) {
	b := &codebuf.Builder{}
	b.I32Const(1)
	b.MemoryGrow()
	b.Drop()
	b.I32Const(0)
	b.I32Const(42)
	b.Push(opcode.WithAddressOffset(opcode.I32Store, 0))
	b.I32Const(0)
	b.Push(opcode.WithAddressOffset(opcode.I32Load, 0))
	b.Push(opcode.WithFuncIdx(opcode.Call, 0))
	module := &rmodule.Module{CodeSection: b.Code()}

	var observed rvalue.UntypedValue
	handler := func(c Caller[struct{}], _ uint32) error {
		observed = c.StackPop()
		return rwasmerr.NewExecutionHalted(7)
	}
	exec := New(module, DefaultExecutorConfig(), handler, struct{}{})
	code, err := exec.Run()
	require.NoError(t, err)
	require.Equal(t, int32(7), code)
	require.Equal(t, int32(42), observed.I32())
}

// TestRunCallIndirectThroughTable covers scenario 4: growing a table,
// populating it with a funcref, and dispatching through call_indirect.
func TestRunCallIndirectThroughTable(t *testing.T) {
	b := &codebuf.Builder{}
	b.RefFunc(1)                                        // 0: init value for table.grow
	b.I32Const(1)                                        // 1: delta
	b.Push(opcode.WithTableIdx(opcode.TableGrow, 0))      // 2: table.grow 0
	b.Drop()                                             // 3: discard old size
	b.I32Const(0)                                        // 4: operand index into table
	b.Push(opcode.WithSignatureIdx(opcode.CallIndirect, 0)) // 5: call_indirect (sig 0)
	b.TableGet(0)                                        // 6: trailing table-index data slot
	callReturnSite := b.Push(opcode.WithFuncIdx(opcode.Call, 0)) // 7: continuation after the call returns
	calleeEntry := b.I32Const(777)                       // 8: callee body
	b.Return(opcode.DropKeep{Drop: 0, Keep: 1})          // 9: return, keeping the sentinel

	module := &rmodule.Module{
		CodeSection: b.Code(),
		FuncSection: []uint32{0, calleeEntry},
	}
	require.EqualValues(t, 7, callReturnSite)

	var observed rvalue.UntypedValue
	handler := func(c Caller[struct{}], _ uint32) error {
		observed = c.StackPop()
		return rwasmerr.NewExecutionHalted(55)
	}
	exec := New(module, DefaultExecutorConfig(), handler, struct{}{})
	code, err := exec.Run()
	require.NoError(t, err)
	require.Equal(t, int32(55), code)
	require.Equal(t, int32(777), observed.I32())
}

// TestRunCallIndirectOutOfBoundsTraps confirms an operand index past the
// table's current size traps with TableOutOfBounds.
func TestRunCallIndirectOutOfBoundsTraps(t *testing.T) {
	b := &codebuf.Builder{}
	b.RefFunc(0)
	b.I32Const(1)
	b.Push(opcode.WithTableIdx(opcode.TableGrow, 0))
	b.Drop()
	b.I32Const(5) // out of bounds: table only has 1 element
	b.Push(opcode.WithSignatureIdx(opcode.CallIndirect, 0))
	b.TableGet(0)
	module := &rmodule.Module{CodeSection: b.Code()}

	exec := New[struct{}](module, DefaultExecutorConfig(), nil, struct{}{})
	_, err := exec.Run()
	require.ErrorIs(t, err, rwasmerr.New(rwasmerr.TableOutOfBounds))
}

// TestRunCallIndirectToNullTraps confirms an in-bounds but never-populated
// table slot (decoding as the null funcref) traps with IndirectCallToNull
// rather than jumping to a bogus target.
func TestRunCallIndirectToNullTraps(t *testing.T) {
	b := &codebuf.Builder{}
	b.I32Const(0) // init: the null funcref encoding
	b.I32Const(2) // delta
	b.Push(opcode.WithTableIdx(opcode.TableGrow, 0))
	b.Drop()
	b.I32Const(0) // in-bounds index into the still-null table
	b.Push(opcode.WithSignatureIdx(opcode.CallIndirect, 0))
	b.TableGet(0)
	module := &rmodule.Module{CodeSection: b.Code()}

	exec := New[struct{}](module, DefaultExecutorConfig(), nil, struct{}{})
	_, err := exec.Run()
	require.ErrorIs(t, err, rwasmerr.New(rwasmerr.IndirectCallToNull))
}

// TestRunGlobalMutatingLoop covers scenario 5: a loop that decrements a
// global to zero using br_if_nez, then reports the final value.
func TestRunGlobalMutatingLoop(t *testing.T) {
	b := &codebuf.Builder{}
	b.I32Const(5)
	b.GlobalSet(0)
	loopHead := b.GlobalGet(0)
	b.I32Const(1)
	b.Push(opcode.Simple(opcode.I32Sub))
	b.GlobalSet(0)
	b.GlobalGet(0)
	brIdx := b.Br(opcode.BrIfNez, 0)
	b.At(brIdx).SetBranchOffset(opcode.BranchOffset(int32(loopHead) - int32(brIdx)))
	b.GlobalGet(0)
	b.Push(opcode.WithFuncIdx(opcode.Call, 0))
	module := &rmodule.Module{CodeSection: b.Code()}

	var observed rvalue.UntypedValue
	handler := func(c Caller[struct{}], _ uint32) error {
		observed = c.StackPop()
		return rwasmerr.NewExecutionHalted(9)
	}
	exec := New(module, DefaultExecutorConfig(), handler, struct{}{})
	code, err := exec.Run()
	require.NoError(t, err)
	require.Equal(t, int32(9), code)
	require.Equal(t, int32(0), observed.I32())
}

// TestRunFuelExhaustionTraps covers scenario 6: a ConsumeFuel instruction
// whose charge exceeds the configured limit raises OutOfFuel.
func TestRunFuelExhaustionTraps(t *testing.T) {
	b := &codebuf.Builder{}
	b.Push(opcode.WithBlockFuel(opcode.ConsumeFuel, 10))
	b.Return(opcode.DropKeep{})
	module := &rmodule.Module{CodeSection: b.Code()}

	cfg := DefaultExecutorConfig().WithFuelLimit(5)
	exec := New[struct{}](module, cfg, nil, struct{}{})
	_, err := exec.Run()
	require.ErrorIs(t, err, rwasmerr.New(rwasmerr.OutOfFuel))
}

// TestRunFuelSufficientForConsumeFuel confirms a charge within budget does
// not trap and execution proceeds past it.
func TestRunFuelSufficientForConsumeFuel(t *testing.T) {
	b := &codebuf.Builder{}
	b.Push(opcode.WithBlockFuel(opcode.ConsumeFuel, 3))
	b.Return(opcode.DropKeep{})
	module := &rmodule.Module{CodeSection: b.Code()}

	cfg := DefaultExecutorConfig().WithFuelLimit(10)
	exec := New[struct{}](module, cfg, nil, struct{}{})
	code, err := exec.Run()
	require.NoError(t, err)
	require.Equal(t, int32(0), code)
	require.EqualValues(t, 7, exec.RemainingFuel())
}

// TestFloatsDisabledTrapsOnFloatConst confirms the runtime float gate traps
// independently of any compile-time check the translator might have done.
func TestFloatsDisabledTrapsOnFloatConst(t *testing.T) {
	b := &codebuf.Builder{}
	b.F32Const(1.5)
	module := &rmodule.Module{CodeSection: b.Code()}

	cfg := DefaultExecutorConfig().WithFloatsEnabled(false)
	exec := New[struct{}](module, cfg, nil, struct{}{})
	_, err := exec.Run()
	require.ErrorIs(t, err, rwasmerr.New(rwasmerr.FloatsAreDisabled))
}

// TestMemoryGrowBeyondLimitRecoversLocally confirms MemoryGrow's failure
// converts to pushing u32::MAX rather than trapping the whole run (spec.md
// §7's "locally recovered conditions").
func TestMemoryGrowBeyondLimitRecoversLocally(t *testing.T) {
	b := &codebuf.Builder{}
	b.I32Const(1 << 20) // far beyond limits.MaxMemoryPages
	b.MemoryGrow()
	b.Push(opcode.WithFuncIdx(opcode.Call, 0))
	module := &rmodule.Module{CodeSection: b.Code()}

	var observed rvalue.UntypedValue
	handler := func(c Caller[struct{}], _ uint32) error {
		observed = c.StackPop()
		return rwasmerr.NewExecutionHalted(0)
	}
	exec := New(module, DefaultExecutorConfig(), handler, struct{}{})
	_, err := exec.Run()
	require.NoError(t, err)
	require.Equal(t, uint32(0xFFFFFFFF), observed.U32())
}

// TestResetAllowsRerun confirms Reset clears all runtime state so the same
// compiled Module can be run again after a trap.
func TestResetAllowsRerun(t *testing.T) {
	b := &codebuf.Builder{}
	b.Push(opcode.Simple(opcode.Unreachable))
	module := &rmodule.Module{CodeSection: b.Code()}

	exec := New[struct{}](module, DefaultExecutorConfig(), nil, struct{}{})
	_, err := exec.Run()
	require.ErrorIs(t, err, rwasmerr.New(rwasmerr.UnreachableCodeReached))

	exec.Reset()
	_, err = exec.Run()
	require.ErrorIs(t, err, rwasmerr.New(rwasmerr.UnreachableCodeReached))
}
