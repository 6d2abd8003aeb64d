package interp

import (
	"github.com/rwasm-labs/rwasm/internal/opcode"
	"github.com/rwasm-labs/rwasm/internal/rvalue"
	"github.com/rwasm-labs/rwasm/internal/rwasmerr"
)

// execLoad dispatches the iNN.loadMM_{s,u} / fNN.load family. Every load
// pops a dynamic base address, adds the instruction's static
// AddressOffset, and reads width bytes from the single linear memory.
func (e *Executor[T]) execLoad(instr opcode.Instruction) error {
	op := instr.Op
	if (op == opcode.F32Load || op == opcode.F64Load) && !e.config.FloatsEnabled {
		return rwasmerr.New(rwasmerr.FloatsAreDisabled)
	}
	address := e.valueStack.Pop().U32()
	offset := instr.AddressOffset()
	mem := e.globalMemory.Data()

	var v rvalue.UntypedValue
	var err error
	switch op {
	case opcode.I32Load:
		v, err = rvalue.Load(mem, address, offset, 4, false, false)
	case opcode.I64Load:
		v, err = rvalue.Load(mem, address, offset, 8, false, true)
	case opcode.F32Load:
		v, err = rvalue.F32Load(mem, address, offset)
	case opcode.F64Load:
		v, err = rvalue.F64Load(mem, address, offset)
	case opcode.I32Load8S:
		v, err = rvalue.Load(mem, address, offset, 1, true, false)
	case opcode.I32Load8U:
		v, err = rvalue.Load(mem, address, offset, 1, false, false)
	case opcode.I32Load16S:
		v, err = rvalue.Load(mem, address, offset, 2, true, false)
	case opcode.I32Load16U:
		v, err = rvalue.Load(mem, address, offset, 2, false, false)
	case opcode.I64Load8S:
		v, err = rvalue.Load(mem, address, offset, 1, true, true)
	case opcode.I64Load8U:
		v, err = rvalue.Load(mem, address, offset, 1, false, true)
	case opcode.I64Load16S:
		v, err = rvalue.Load(mem, address, offset, 2, true, true)
	case opcode.I64Load16U:
		v, err = rvalue.Load(mem, address, offset, 2, false, true)
	case opcode.I64Load32S:
		v, err = rvalue.Load(mem, address, offset, 4, true, true)
	case opcode.I64Load32U:
		v, err = rvalue.Load(mem, address, offset, 4, false, true)
	default:
		return rwasmerr.New(rwasmerr.MalformedBinary)
	}
	if err != nil {
		return err
	}
	e.valueStack.Push(v)
	e.ip++
	return nil
}

// execStore dispatches the iNN.storeMM / fNN.store family. WASM's stack
// order puts the value on top and the address beneath it, so value is
// popped first.
func (e *Executor[T]) execStore(instr opcode.Instruction) error {
	op := instr.Op
	if (op == opcode.F32Store || op == opcode.F64Store) && !e.config.FloatsEnabled {
		return rwasmerr.New(rwasmerr.FloatsAreDisabled)
	}
	value := e.valueStack.Pop()
	address := e.valueStack.Pop().U32()
	offset := instr.AddressOffset()
	mem := e.globalMemory.Data()

	var err error
	switch op {
	case opcode.I32Store:
		err = rvalue.Store(mem, address, offset, 4, value)
	case opcode.I64Store:
		err = rvalue.Store(mem, address, offset, 8, value)
	case opcode.F32Store:
		err = rvalue.F32Store(mem, address, offset, value)
	case opcode.F64Store:
		err = rvalue.F64Store(mem, address, offset, value)
	case opcode.I32Store8:
		err = rvalue.Store(mem, address, offset, 1, value)
	case opcode.I32Store16:
		err = rvalue.Store(mem, address, offset, 2, value)
	case opcode.I64Store8:
		err = rvalue.Store(mem, address, offset, 1, value)
	case opcode.I64Store16:
		err = rvalue.Store(mem, address, offset, 2, value)
	case opcode.I64Store32:
		err = rvalue.Store(mem, address, offset, 4, value)
	default:
		return rwasmerr.New(rwasmerr.MalformedBinary)
	}
	if err != nil {
		return err
	}
	e.ip++
	return nil
}
