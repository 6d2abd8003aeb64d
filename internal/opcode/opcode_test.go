package opcode

import (
	"testing"

	"github.com/rwasm-labs/rwasm/internal/rvalue"
	"github.com/stretchr/testify/require"
)

func TestOpcodeString(t *testing.T) {
	require.Equal(t, "i32.add", I32Add.String())
	require.Equal(t, "call_internal", CallInternal.String())
}

func TestClassification(t *testing.T) {
	require.True(t, I32Add.IsArithUnsignedOpcode())
	require.True(t, I64DivS.IsArithSignedOpcode())
	require.True(t, F64Sqrt.IsFloatOpcode())
	require.False(t, I32Add.IsFloatOpcode())
	require.True(t, MemoryGrow.IsSystemOpcode())
	require.True(t, CallInternal.IsControlFlowOpcode())
}

func TestInstructionPayloads(t *testing.T) {
	i := WithDropKeep(BrAdjust, DropKeep{Drop: 3, Keep: 1})
	require.Equal(t, uint16(3), i.DropKeep().Drop)
	require.Equal(t, uint16(1), i.DropKeep().Keep)

	c := WithUntypedValue(I32Const, rvalue.FromI32(42))
	require.Equal(t, int32(42), c.UntypedValue().I32())

	b := WithBranchOffset(Br, BranchOffset(-7))
	require.Equal(t, BranchOffset(-7), b.BranchOffset())
	b.SetBranchOffset(12)
	require.Equal(t, BranchOffset(12), b.BranchOffset())

	bt := WithBranchTableTargets(BrTable, 3)
	require.Equal(t, uint32(3), bt.BranchTableTargets())

	sa := WithStackAlloc(StackAlloc, 1<<20)
	require.Equal(t, uint32(1<<20), sa.StackAlloc())
	sa.SetStackAlloc(42)
	require.Equal(t, uint32(42), sa.StackAlloc())
}

func TestValidOpcodeRange(t *testing.T) {
	require.True(t, StackAlloc.IsValid())
	require.False(t, Opcode(0xff).IsValid())
}
