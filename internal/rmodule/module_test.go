package rmodule

import (
	"testing"

	"github.com/rwasm-labs/rwasm/internal/opcode"
	"github.com/rwasm-labs/rwasm/internal/rvalue"
	"github.com/stretchr/testify/require"
)

func TestModuleRoundTrip(t *testing.T) {
	module := &Module{
		CodeSection: []opcode.Instruction{
			opcode.WithUntypedValue(opcode.I32Const, rvalue.FromI32(100)),
			opcode.WithUntypedValue(opcode.I32Const, rvalue.FromI32(20)),
			opcode.Simple(opcode.I32Add),
			opcode.WithUntypedValue(opcode.I32Const, rvalue.FromI32(3)),
			opcode.Simple(opcode.I32Add),
			opcode.Simple(opcode.Drop),
		},
		MemorySection:  nil,
		FuncSection:    []uint32{0, 1, 2, 3, 4},
		ElementSection: []uint32{5, 6, 7, 8, 9},
		SourcePC:       7,
	}

	encoded, err := module.EncodeToBytes()
	require.NoError(t, err)
	require.Equal(t, byte(0xef), encoded[0])
	require.Equal(t, byte(0x52), encoded[1])
	require.Equal(t, byte(0x01), encoded[2])

	decoded, err := DecodeBytes(encoded)
	require.NoError(t, err)
	require.Equal(t, module, decoded)
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	_, err := DecodeBytes([]byte{0x00, 0x00, 0x01})
	require.ErrorIs(t, err, ErrInvalidMagic)
}

func TestDecodeRejectsBadVersion(t *testing.T) {
	_, err := DecodeBytes([]byte{0xef, 0x52, 0x02})
	require.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestInstructionPayloadShapes(t *testing.T) {
	code := []opcode.Instruction{
		opcode.WithLocalDepth(opcode.LocalGet, 3),
		opcode.WithBranchOffset(opcode.Br, opcode.BranchOffset(-5)),
		opcode.WithBranchTableTargets(opcode.BrTable, 4),
		opcode.WithDropKeep(opcode.Return, opcode.DropKeep{Drop: 2, Keep: 1}),
		opcode.WithStackAlloc(opcode.StackAlloc, 128),
		opcode.Simple(opcode.Unreachable),
	}
	module := &Module{CodeSection: code, FuncSection: []uint32{0}, ElementSection: nil}

	encoded, err := module.EncodeToBytes()
	require.NoError(t, err)
	decoded, err := DecodeBytes(encoded)
	require.NoError(t, err)
	require.Equal(t, code, decoded.CodeSection)
}
