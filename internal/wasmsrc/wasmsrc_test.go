package wasmsrc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

// minimalModule encodes, by hand, a one-function module exporting "main"
// as func() -> i32 whose body is `i32.const 42; end`.
func minimalModule() []byte {
	var b []byte
	b = append(b, 0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00) // magic + version

	// type section: one func type, () -> (i32)
	b = append(b, 0x01, 0x05, 0x01, 0x60, 0x00, 0x01, 0x7f)
	// function section: function 0 uses type 0
	b = append(b, 0x03, 0x02, 0x01, 0x00)
	// export section: export function 0 as "main"
	b = append(b, 0x07, 0x08, 0x01, 0x04, 'm', 'a', 'i', 'n', 0x00, 0x00)
	// code section: one body, no locals, i32.const 42; end
	b = append(b, 0x0a, 0x05, 0x01, 0x04, 0x00, 0x41, 0x2a, 0x0b)

	return b
}

func TestDecodeMinimalModule(t *testing.T) {
	m, err := Decode(bytes.NewReader(minimalModule()))
	require.NoError(t, err)

	require.Len(t, m.Types, 1)
	require.Empty(t, m.Types[0].Params)
	require.Equal(t, []ValType{ValI32}, m.Types[0].Results)

	require.Equal(t, []uint32{0}, m.Functions)

	require.Len(t, m.Exports, 1)
	require.Equal(t, "main", m.Exports[0].Name)
	require.Equal(t, ExportFunc, m.Exports[0].Kind)
	require.Equal(t, uint32(0), m.Exports[0].Index)

	require.Len(t, m.Codes, 1)
	require.Empty(t, m.Codes[0].Locals)

	r := NewOperatorReader(m.Codes[0].Body)
	op, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, OpI32Const, op.Op)
	require.Equal(t, int32(42), op.Const.I32())

	op, err = r.Next()
	require.NoError(t, err)
	require.Equal(t, OpEnd, op.Op)
	require.True(t, r.Done())
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	bad := append([]byte{0x01, 0x02, 0x03, 0x04}, minimalModule()[4:]...)
	_, err := Decode(bytes.NewReader(bad))
	require.Error(t, err)
}

func TestDecodeRejectsImportedMemory(t *testing.T) {
	var b []byte
	b = append(b, 0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00)
	// import section: one memory import "env"::"mem", limits {min:1, no max}
	content := []byte{0x01, 0x03, 'e', 'n', 'v', 0x03, 'm', 'e', 'm', 0x02, 0x00, 0x01}
	b = append(b, 0x02, byte(len(content)))
	b = append(b, content...)

	_, err := Decode(bytes.NewReader(b))
	require.Error(t, err)
}

func TestDecodeRejectsMultipleMemories(t *testing.T) {
	var b []byte
	b = append(b, 0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00)
	// memory section: two memories, each {min:1, no max}
	content := []byte{0x02, 0x00, 0x01, 0x00, 0x01}
	b = append(b, 0x05, byte(len(content)))
	b = append(b, content...)

	_, err := Decode(bytes.NewReader(b))
	require.Error(t, err)
}

func TestDecodeLocalsExpansion(t *testing.T) {
	// code body: two locals groups (2 x i32, 1 x i64), body = local.get 0; end
	body := []byte{0x02, 0x02, 0x7f, 0x01, 0x7e, 0x20, 0x00, 0x0b}
	locals, rest, err := decodeLocalsFromBytes(body)
	require.NoError(t, err)
	require.Equal(t, []ValType{ValI32, ValI32, ValI64}, locals)

	r := NewOperatorReader(rest)
	op, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, OpLocalGet, op.Op)
	require.Equal(t, uint32(0), op.LocalIdx)
}

func TestOperatorReaderBrTable(t *testing.T) {
	// br_table with 2 explicit targets (depths 1, 2) and default depth 0
	body := []byte{0x0e, 0x02, 0x01, 0x02, 0x00}
	r := NewOperatorReader(body)
	op, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, OpBrTable, op.Op)
	require.Equal(t, []uint32{1, 2, 0}, op.Targets)
}
