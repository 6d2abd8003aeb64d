package rmodule

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/rwasm-labs/rwasm/internal/opcode"
	"github.com/rwasm-labs/rwasm/internal/rvalue"
)

func encodeInstructions(w io.Writer, code []opcode.Instruction) error {
	if err := binary.Write(w, binary.LittleEndian, uint64(len(code))); err != nil {
		return err
	}
	for _, instr := range code {
		if err := binary.Write(w, binary.LittleEndian, uint8(instr.Op)); err != nil {
			return err
		}
		if err := encodeInstructionPayload(w, instr); err != nil {
			return fmt.Errorf("%s: %w", instr.Op, err)
		}
	}
	return nil
}

func decodeInstructions(r io.Reader) ([]opcode.Instruction, error) {
	var length uint64
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return nil, err
	}
	code := make([]opcode.Instruction, length)
	for i := range code {
		var tag uint8
		if err := binary.Read(r, binary.LittleEndian, &tag); err != nil {
			return nil, err
		}
		op := opcode.Opcode(tag)
		if !op.IsValid() {
			return nil, fmt.Errorf("%w: 0x%02x", ErrUnknownOpcode, tag)
		}
		instr, err := decodeInstructionPayload(r, op)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		code[i] = instr
	}
	return code, nil
}

// encodeInstructionPayload and decodeInstructionPayload dispatch on opcode
// exactly the way the original binary_format module does: every opcode maps
// to exactly one payload shape, grouped below by shape rather than
// repeated per opcode.
func encodeInstructionPayload(w io.Writer, instr opcode.Instruction) error {
	op := instr.Op
	switch {
	case op == opcode.LocalGet || op == opcode.LocalSet || op == opcode.LocalTee:
		return writeU32(w, instr.LocalDepth())
	case op == opcode.Br || op == opcode.BrIfEqz || op == opcode.BrIfNez ||
		op == opcode.BrAdjust || op == opcode.BrAdjustIfNez:
		return writeU32(w, uint32(instr.BranchOffset()))
	case op == opcode.BrTable:
		return writeU32(w, instr.BranchTableTargets())
	case op == opcode.ConsumeFuel:
		return writeU32(w, instr.BlockFuel())
	case op == opcode.Return || op == opcode.ReturnIfNez:
		dk := instr.DropKeep()
		if err := writeU16(w, dk.Drop); err != nil {
			return err
		}
		return writeU16(w, dk.Keep)
	case op == opcode.ReturnCallInternal || op == opcode.CallInternal:
		return writeU32(w, instr.CompiledFunc())
	case op == opcode.ReturnCall || op == opcode.Call || op == opcode.RefFunc:
		return writeU32(w, instr.FuncIdx())
	case op == opcode.ReturnCallIndirect || op == opcode.CallIndirect || op == opcode.SignatureCheck:
		return writeU32(w, instr.SignatureIdx())
	case op == opcode.GlobalGet || op == opcode.GlobalSet:
		return writeU32(w, instr.GlobalIdx())
	case op.IsMemoryLoadOpcode() || op.IsMemoryStoreOpcode():
		return writeU32(w, instr.AddressOffset())
	case op == opcode.MemoryInit || op == opcode.DataDrop:
		return writeU32(w, instr.DataSegmentIdx())
	case op == opcode.TableSize || op == opcode.TableGrow || op == opcode.TableFill ||
		op == opcode.TableGet || op == opcode.TableSet || op == opcode.TableCopy:
		return writeU32(w, instr.TableIdx())
	case op == opcode.TableInit || op == opcode.ElemDrop:
		return writeU32(w, instr.ElementSegmentIdx())
	case op == opcode.I32Const || op == opcode.I64Const || op == opcode.F32Const || op == opcode.F64Const:
		return writeU64(w, uint64(instr.UntypedValue()))
	case op == opcode.StackAlloc:
		return writeU32(w, instr.StackAlloc())
	default:
		return nil // EmptyData
	}
}

func decodeInstructionPayload(r io.Reader, op opcode.Opcode) (opcode.Instruction, error) {
	switch {
	case op == opcode.LocalGet || op == opcode.LocalSet || op == opcode.LocalTee:
		v, err := readU32(r)
		return opcode.WithLocalDepth(op, v), err
	case op == opcode.Br || op == opcode.BrIfEqz || op == opcode.BrIfNez ||
		op == opcode.BrAdjust || op == opcode.BrAdjustIfNez:
		v, err := readU32(r)
		return opcode.WithBranchOffset(op, opcode.BranchOffset(int32(v))), err
	case op == opcode.BrTable:
		v, err := readU32(r)
		return opcode.WithBranchTableTargets(op, v), err
	case op == opcode.ConsumeFuel:
		v, err := readU32(r)
		return opcode.WithBlockFuel(op, v), err
	case op == opcode.Return || op == opcode.ReturnIfNez:
		drop, err := readU16(r)
		if err != nil {
			return opcode.Instruction{}, err
		}
		keep, err := readU16(r)
		if err != nil {
			return opcode.Instruction{}, err
		}
		return opcode.WithDropKeep(op, opcode.DropKeep{Drop: drop, Keep: keep}), nil
	case op == opcode.ReturnCallInternal || op == opcode.CallInternal:
		v, err := readU32(r)
		return opcode.WithCompiledFunc(op, v), err
	case op == opcode.ReturnCall || op == opcode.Call || op == opcode.RefFunc:
		v, err := readU32(r)
		return opcode.WithFuncIdx(op, v), err
	case op == opcode.ReturnCallIndirect || op == opcode.CallIndirect || op == opcode.SignatureCheck:
		v, err := readU32(r)
		return opcode.WithSignatureIdx(op, v), err
	case op == opcode.GlobalGet || op == opcode.GlobalSet:
		v, err := readU32(r)
		return opcode.WithGlobalIdx(op, v), err
	case op.IsMemoryLoadOpcode() || op.IsMemoryStoreOpcode():
		v, err := readU32(r)
		return opcode.WithAddressOffset(op, v), err
	case op == opcode.MemoryInit || op == opcode.DataDrop:
		v, err := readU32(r)
		return opcode.WithDataSegmentIdx(op, v), err
	case op == opcode.TableSize || op == opcode.TableGrow || op == opcode.TableFill ||
		op == opcode.TableGet || op == opcode.TableSet || op == opcode.TableCopy:
		v, err := readU32(r)
		return opcode.WithTableIdx(op, v), err
	case op == opcode.TableInit || op == opcode.ElemDrop:
		v, err := readU32(r)
		return opcode.WithElementSegmentIdx(op, v), err
	case op == opcode.I32Const || op == opcode.I64Const || op == opcode.F32Const || op == opcode.F64Const:
		v, err := readU64(r)
		return opcode.WithUntypedValue(op, rvalue.UntypedValue(v)), err
	case op == opcode.StackAlloc:
		v, err := readU32(r)
		return opcode.WithStackAlloc(op, v), err
	default:
		return opcode.Simple(op), nil
	}
}

func writeU16(w io.Writer, v uint16) error { return binary.Write(w, binary.LittleEndian, v) }
func writeU32(w io.Writer, v uint32) error { return binary.Write(w, binary.LittleEndian, v) }
func writeU64(w io.Writer, v uint64) error { return binary.Write(w, binary.LittleEndian, v) }

func readU16(r io.Reader) (uint16, error) {
	var v uint16
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func readU32(r io.Reader) (uint32, error) {
	var v uint32
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func readU64(r io.Reader) (uint64, error) {
	var v uint64
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}
