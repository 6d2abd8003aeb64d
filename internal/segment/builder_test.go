package segment

import (
	"testing"

	"github.com/rwasm-labs/rwasm/internal/opcode"
	"github.com/rwasm-labs/rwasm/internal/rvalue"
	"github.com/stretchr/testify/require"
)

func TestAddGlobalVariableConst(t *testing.T) {
	b := New()
	require.NoError(t, b.AddGlobalVariable(0, GlobalInit{Kind: GlobalInitConst, Type: ValI32, Const: rvalue.FromI32(42)}))

	code := b.Entrypoint.Code()
	// code[0] is the default seeded Return; the const+global.set pair follows.
	require.Equal(t, opcode.I32Const, code[1].Op)
	require.Equal(t, int32(42), code[1].UntypedValue().I32())
	require.Equal(t, opcode.GlobalSet, code[2].Op)
	require.Equal(t, uint32(0), code[2].GlobalIdx())
}

func TestAddGlobalVariableFuncRef(t *testing.T) {
	b := New()
	require.NoError(t, b.AddGlobalVariable(1, GlobalInit{Kind: GlobalInitFuncRef, Ref: 7}))

	code := b.Entrypoint.Code()
	require.Equal(t, opcode.RefFunc, code[1].Op)
	require.Equal(t, uint32(7), code[1].FuncIdx())
	require.Equal(t, opcode.GlobalSet, code[2].Op)
}

func TestAddMemoryPagesOverflow(t *testing.T) {
	b := New()
	err := b.AddMemoryPages(2000)
	require.Error(t, err)
}

func TestAddActiveMemoryMerge(t *testing.T) {
	b := New()
	require.NoError(t, b.AddMemoryPages(1))
	b.AddActiveMemory(0, rvalue.FromI32(0), []byte{1, 2, 3, 4})

	require.Equal(t, []byte{1, 2, 3, 4}, b.MemorySection())
	code := b.Entrypoint.Code()
	last := code[len(code)-1]
	require.Equal(t, opcode.DataDrop, last.Op)
	require.Equal(t, uint32(1), last.DataSegmentIdx())
}

func TestAddPassiveAndActiveElements(t *testing.T) {
	b := New()
	b.AddPassiveElements(0, []uint32{10, 11})
	b.AddActiveElements(1, 0, rvalue.FromI32(0), []uint32{20, 21, 22})

	require.Equal(t, []uint32{10, 11, 20, 21, 22}, b.ElementSection())
	code := b.Entrypoint.Code()
	last := code[len(code)-1]
	require.Equal(t, opcode.ElemDrop, last.Op)
	require.Equal(t, uint32(2), last.ElementSegmentIdx())
}

func TestAddStartFunction(t *testing.T) {
	b := New()
	b.AddStartFunction(3)
	code := b.Entrypoint.Code()
	last := code[len(code)-1]
	require.Equal(t, opcode.CallInternal, last.Op)
	require.Equal(t, uint32(3), last.CompiledFunc())
}
