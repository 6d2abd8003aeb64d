package interp

import (
	"math"

	"github.com/rwasm-labs/rwasm/internal/limits"
	"github.com/rwasm-labs/rwasm/internal/opcode"
	"github.com/rwasm-labs/rwasm/internal/rvalue"
	"github.com/rwasm-labs/rwasm/internal/rwasmerr"
)

// execSystem dispatches the memory/table instance opcodes -- everything
// that reads or mutates global/table/memory state rather than just the
// value stack -- grounded on vm/executor/system.rs. The dropped-segment
// bitsets (emptyDataSegments, emptyElementSegments) are keyed by the same
// +1-shifted index the translator emits for both the *Init and *Drop half
// of a pair (see internal/segment/builder.go and DESIGN.md).
func (e *Executor[T]) execSystem(instr opcode.Instruction) error {
	switch instr.Op {
	case opcode.MemorySize:
		e.valueStack.Push(rvalue.FromU32(e.globalMemory.CurrentPages()))
		e.ip++
		return nil

	case opcode.MemoryGrow:
		delta := e.valueStack.Pop().U32()
		if e.fuelEnabled() {
			cost := e.fuelCosts.FuelForBytes(uint64(delta) * limits.BytesPerMemoryPage)
			if err := e.tryConsumeFuel(cost); err != nil {
				return err
			}
		}
		old, err := e.globalMemory.Grow(delta)
		if err != nil {
			e.valueStack.Push(rvalue.FromU32(math.MaxUint32))
		} else {
			e.valueStack.Push(rvalue.FromU32(old))
		}
		e.ip++
		return nil

	case opcode.MemoryFill:
		d, val, n := e.valueStack.Pop3()
		length := n.U32()
		if e.fuelEnabled() {
			if err := e.tryConsumeFuel(e.fuelCosts.FuelForBytes(uint64(length))); err != nil {
				return err
			}
		}
		mem := e.globalMemory.Data()
		offset := d.U32()
		if uint64(offset)+uint64(length) > uint64(len(mem)) {
			return rwasmerr.New(rwasmerr.MemoryOutOfBounds)
		}
		b := byte(val.U32())
		for i := uint32(0); i < length; i++ {
			mem[offset+i] = b
		}
		e.ip++
		return nil

	case opcode.MemoryCopy:
		d, s, n := e.valueStack.Pop3()
		length := n.U32()
		if e.fuelEnabled() {
			if err := e.tryConsumeFuel(e.fuelCosts.FuelForBytes(uint64(length))); err != nil {
				return err
			}
		}
		mem := e.globalMemory.Data()
		dst, src := d.U32(), s.U32()
		if uint64(src)+uint64(length) > uint64(len(mem)) {
			return rwasmerr.New(rwasmerr.MemoryOutOfBounds)
		}
		if uint64(dst)+uint64(length) > uint64(len(mem)) {
			return rwasmerr.New(rwasmerr.MemoryOutOfBounds)
		}
		copy(mem[dst:dst+length], mem[src:src+length])
		e.ip++
		return nil

	case opcode.MemoryInit:
		segIdx := instr.DataSegmentIdx()
		dropped := e.emptyDataSegments[segIdx]
		d, s, n := e.valueStack.Pop3()
		length := n.U32()
		if e.fuelEnabled() {
			if err := e.tryConsumeFuel(e.fuelCosts.FuelForBytes(uint64(length))); err != nil {
				return err
			}
		}
		mem := e.globalMemory.Data()
		dst, src := d.U32(), s.U32()
		if uint64(dst)+uint64(length) > uint64(len(mem)) {
			return rwasmerr.New(rwasmerr.MemoryOutOfBounds)
		}
		source := e.module.MemorySection
		if dropped {
			source = nil
		}
		if uint64(src)+uint64(length) > uint64(len(source)) {
			return rwasmerr.New(rwasmerr.MemoryOutOfBounds)
		}
		copy(mem[dst:dst+length], source[src:src+length])
		e.ip++
		return nil

	case opcode.DataDrop:
		e.emptyDataSegments[instr.DataSegmentIdx()] = true
		e.ip++
		return nil

	case opcode.TableSize:
		e.valueStack.Push(rvalue.FromU32(e.resolveTable(instr.TableIdx()).Size()))
		e.ip++
		return nil

	case opcode.TableGrow:
		init, delta := e.valueStack.Pop2()
		d := delta.U32()
		if e.fuelEnabled() {
			if err := e.tryConsumeFuel(e.fuelCosts.FuelForElements(uint64(d))); err != nil {
				return err
			}
		}
		result := e.resolveTable(instr.TableIdx()).GrowUntyped(d, init)
		e.valueStack.Push(rvalue.FromU32(result))
		e.ip++
		return nil

	case opcode.TableFill:
		i, val, n := e.valueStack.Pop3()
		length := n.U32()
		if e.fuelEnabled() {
			if err := e.tryConsumeFuel(e.fuelCosts.FuelForElements(uint64(length))); err != nil {
				return err
			}
		}
		if err := e.resolveTable(instr.TableIdx()).FillUntyped(i.U32(), val, length); err != nil {
			return err
		}
		e.ip++
		return nil

	case opcode.TableGet:
		index := e.valueStack.Pop().U32()
		value, ok := e.resolveTable(instr.TableIdx()).GetUntyped(index)
		if !ok {
			return rwasmerr.New(rwasmerr.TableOutOfBounds)
		}
		e.valueStack.Push(value)
		e.ip++
		return nil

	case opcode.TableSet:
		index, value := e.valueStack.Pop2()
		if err := e.resolveTable(instr.TableIdx()).SetUntyped(index.U32(), value); err != nil {
			return err
		}
		e.ip++
		return nil

	case opcode.TableCopy:
		dstTableIdx := instr.TableIdx()
		srcTableIdx := e.fetchTableIndex(1)
		d, s, n := e.valueStack.Pop3()
		length := n.U32()
		if e.fuelEnabled() {
			if err := e.tryConsumeFuel(e.fuelCosts.FuelForElements(uint64(length))); err != nil {
				return err
			}
		}
		if srcTableIdx != dstTableIdx {
			if err := tableCopyCross(e.resolveTable(dstTableIdx), e.resolveTable(srcTableIdx), d.U32(), s.U32(), length); err != nil {
				return err
			}
		} else if err := e.resolveTable(dstTableIdx).CopyWithin(d.U32(), s.U32(), length); err != nil {
			return err
		}
		e.ip += 2
		return nil

	case opcode.TableInit:
		elemSegIdx := instr.ElementSegmentIdx()
		tableIdx := e.fetchTableIndex(1)
		d, s, n := e.valueStack.Pop3()
		length := n.U32()
		if e.fuelEnabled() {
			if err := e.tryConsumeFuel(e.fuelCosts.FuelForElements(uint64(length))); err != nil {
				return err
			}
		}
		elements := e.module.ElementSection
		if e.emptyElementSegments[elemSegIdx] {
			elements = nil
		}
		if err := e.resolveTable(tableIdx).InitUntyped(d.U32(), elements, s.U32(), length); err != nil {
			return err
		}
		e.ip += 2
		return nil

	case opcode.ElemDrop:
		e.emptyElementSegments[instr.ElementSegmentIdx()] = true
		e.ip++
		return nil
	}
	return rwasmerr.New(rwasmerr.MalformedBinary)
}
