package interp

import (
	"math"

	"github.com/rwasm-labs/rwasm/internal/limits"
	"github.com/rwasm-labs/rwasm/internal/opcode"
	"github.com/rwasm-labs/rwasm/internal/rmodule"
	"github.com/rwasm-labs/rwasm/internal/rvalue"
	"github.com/rwasm-labs/rwasm/internal/rwasmerr"
)

const defaultStackLen = 64

// Executor runs a compiled rmodule.Module to completion, one instruction at
// a time, over a concrete memory/table/global model it owns. Grounded on
// vm/executor/mod.rs's Executor<T>: the module and an opaque host context T
// are the only two things a caller supplies; everything else (memory,
// tables, globals, the call stack, fuel accounting) is runtime state this
// struct allocates fresh in New and can reset via Reset for module reuse.
type Executor[T any] struct {
	module    *rmodule.Module
	config    ExecutorConfig
	fuelCosts FuelCosts

	valueStack   *ValueStack
	globalMemory *memoryEntity
	tables       map[uint32]*tableEntity
	globals      map[uint32]rvalue.UntypedValue

	emptyDataSegments    map[uint32]bool
	emptyElementSegments map[uint32]bool

	callStack []int
	ip        int

	// lastSignature/lastSignatureSet implement call_indirect's two-step
	// signature check: the CallIndirect/ReturnCallIndirect instruction
	// records the expected type index here before jumping, and the
	// SignatureCheck placeholder at the callee's entry consumes it.
	lastSignature    uint32
	lastSignatureSet bool

	consumedFuel uint64

	syscallHandler SyscallHandler[T]
	ctx            T
}

// New constructs an Executor ready to Run module from its source program
// counter. A nil handler installs alwaysFailingSyscallHandler, matching
// spec.md §4.7's "syscall handler defaults to reject all".
func New[T any](module *rmodule.Module, cfg ExecutorConfig, handler SyscallHandler[T], ctx T) *Executor[T] {
	if handler == nil {
		handler = alwaysFailingSyscallHandler[T]
	}
	costs := DefaultFuelCosts()
	if cfg.Costs != nil {
		costs = *cfg.Costs
	}
	e := &Executor[T]{
		module:               module,
		config:               cfg,
		fuelCosts:            costs,
		valueStack:           NewValueStack(defaultStackLen, limits.MaxStackHeight),
		globalMemory:         newMemoryEntity(),
		tables:               make(map[uint32]*tableEntity),
		globals:              make(map[uint32]rvalue.UntypedValue),
		emptyDataSegments:    make(map[uint32]bool),
		emptyElementSegments: make(map[uint32]bool),
		ip:                   int(module.SourcePC),
		syscallHandler:       handler,
		ctx:                  ctx,
	}
	return e
}

// Reset rewinds the Executor to its just-constructed state so it can run
// the same module again after a trap or a completed run (spec.md §7: reuse
// requires reset()). Fresh memory/tables/globals are allocated rather than
// cleared in place, matching New's own allocation shape.
func (e *Executor[T]) Reset() {
	e.valueStack = NewValueStack(defaultStackLen, limits.MaxStackHeight)
	e.globalMemory = newMemoryEntity()
	e.tables = make(map[uint32]*tableEntity)
	e.globals = make(map[uint32]rvalue.UntypedValue)
	e.emptyDataSegments = make(map[uint32]bool)
	e.emptyElementSegments = make(map[uint32]bool)
	e.callStack = nil
	e.ip = int(e.module.SourcePC)
	e.lastSignature = 0
	e.lastSignatureSet = false
	e.consumedFuel = 0
}

// Context returns the host context by value.
func (e *Executor[T]) Context() T { return e.ctx }

// SetContext replaces the host context, for a caller seeding per-run state
// between Reset and Run.
func (e *Executor[T]) SetContext(ctx T) { e.ctx = ctx }

func (e *Executor[T]) fuelEnabled() bool { return e.config.FuelLimit != nil }

// tryConsumeFuel charges n fuel unconditionally, trapping with OutOfFuel if
// that would exceed the configured limit. Callers gate this behind
// fuelEnabled themselves where the charge is optional (bulk ops); ConsumeFuel
// calls it only after checking fuelEnabled too, so an unmetered Executor
// never pays for accounting it has no limit to enforce.
func (e *Executor[T]) tryConsumeFuel(n uint64) error {
	if e.consumedFuel+n > *e.config.FuelLimit {
		return rwasmerr.New(rwasmerr.OutOfFuel)
	}
	e.consumedFuel += n
	return nil
}

// tryConsumeFuelIfEnabled is tryConsumeFuel's no-op-when-unmetered variant,
// used by Caller.TryConsumeFuel so a syscall handler can charge fuel without
// checking fuelEnabled itself first.
func (e *Executor[T]) tryConsumeFuelIfEnabled(n uint64) error {
	if !e.fuelEnabled() {
		return nil
	}
	return e.tryConsumeFuel(n)
}

// RemainingFuel reports how much fuel remains, or math.MaxUint64 when
// unmetered.
func (e *Executor[T]) RemainingFuel() uint64 {
	if !e.fuelEnabled() {
		return math.MaxUint64
	}
	limit := *e.config.FuelLimit
	if e.consumedFuel >= limit {
		return 0
	}
	return limit - e.consumedFuel
}

// resolveTable returns the table at idx, lazily allocating it on first
// touch (system.rs's TableGrow comment: tables are created via
// entry().or_insert_with, not eagerly at construction).
func (e *Executor[T]) resolveTable(idx uint32) *tableEntity {
	t, ok := e.tables[idx]
	if !ok {
		t = newTableEntity()
		e.tables[idx] = t
	}
	return t
}

func (e *Executor[T]) memoryRead(offset uint32, buf []byte) error {
	mem := e.globalMemory.Data()
	if uint64(offset)+uint64(len(buf)) > uint64(len(mem)) {
		return rwasmerr.New(rwasmerr.MemoryOutOfBounds)
	}
	copy(buf, mem[offset:offset+uint32(len(buf))])
	return nil
}

func (e *Executor[T]) memoryWrite(offset uint32, data []byte) error {
	mem := e.globalMemory.Data()
	if uint64(offset)+uint64(len(data)) > uint64(len(mem)) {
		return rwasmerr.New(rwasmerr.MemoryOutOfBounds)
	}
	copy(mem[offset:offset+uint32(len(data))], data)
	return nil
}

// fetchDropKeep reads the DropKeep payload of the instruction rel slots
// ahead of the instruction pointer -- the trailing-data-slot convention
// func_translator.go uses for BrAdjust/BrAdjustIfNez/ReturnCallIndirect
// instead of carrying DropKeep on the branch instruction itself.
func (e *Executor[T]) fetchDropKeep(rel int) opcode.DropKeep {
	return e.module.CodeSection[e.ip+rel].DropKeep()
}

// fetchTableIndex reads the TableIdx payload of the instruction rel slots
// ahead of the instruction pointer -- CallIndirect/TableCopy/TableInit's
// trailing TableGet data slot.
func (e *Executor[T]) fetchTableIndex(rel int) uint32 {
	return e.module.CodeSection[e.ip+rel].TableIdx()
}

func (e *Executor[T]) pushCallStack(returnIP int) {
	e.callStack = append(e.callStack, returnIP)
}

func (e *Executor[T]) popCallStack() int {
	n := len(e.callStack) - 1
	ip := e.callStack[n]
	e.callStack = e.callStack[:n]
	return ip
}

// funcEntry resolves a function index to the code-section offset its body
// starts at, per module.FuncSection.
func (e *Executor[T]) funcEntry(funcIdx uint32) (int, error) {
	if funcIdx >= uint32(len(e.module.FuncSection)) {
		return 0, rwasmerr.New(rwasmerr.UnresolvedFunction)
	}
	return int(e.module.FuncSection[funcIdx]), nil
}

// resolveIndirectTarget looks operandIdx up in table tableIdx, rejecting an
// out-of-bounds index, a null cell (checked via IsNullRef so both the 0 and
// the alternative math.MaxUint32 null encodings are honored, per spec.md §9),
// and finally resolving the surviving funcref to its entry point.
func (e *Executor[T]) resolveIndirectTarget(tableIdx, operandIdx uint32) (int, error) {
	cell, ok := e.resolveTable(tableIdx).GetUntyped(operandIdx)
	if !ok {
		return 0, rwasmerr.New(rwasmerr.TableOutOfBounds)
	}
	if cell.IsNullRef() {
		return 0, rwasmerr.New(rwasmerr.IndirectCallToNull)
	}
	return e.funcEntry(cell.FuncIndex())
}

// invokeSyscall dispatches funcIdx through the installed SyscallHandler. A
// handler error that is already an *rwasmerr.Error propagates unchanged
// (this is how a handler signals ExecutionHalted); any other error is
// wrapped as HostInterruption, matching spec.md §5.
func (e *Executor[T]) invokeSyscall(funcIdx uint32) error {
	err := e.syscallHandler(newCaller(e), funcIdx)
	if err == nil {
		return nil
	}
	if rerr, ok := err.(*rwasmerr.Error); ok {
		return rerr
	}
	return rwasmerr.NewHostInterruption(err)
}

// step executes exactly one instruction, routing by the opcode's broad
// category to the matching exec* handler -- each handler is responsible for
// advancing e.ip itself (by 1, by 2, by a branch offset, or not at all when
// it traps).
func (e *Executor[T]) step() error {
	instr := e.module.CodeSection[e.ip]
	op := instr.Op
	switch {
	case op.IsControlFlowOpcode():
		return e.execControlFlow(instr)
	case op.IsSystemOpcode():
		return e.execSystem(instr)
	case op.IsStackOpcode():
		return e.execStack(instr)
	case op.IsMemoryLoadOpcode():
		return e.execLoad(instr)
	case op.IsMemoryStoreOpcode():
		return e.execStore(instr)
	default:
		return e.execNumeric(instr)
	}
}

// Run drives the fetch-dispatch loop until the program halts (a top-level
// Return/ReturnIfNez with an empty call stack, or a syscall handler
// returning NewExecutionHalted) or traps. ExecutionHalted is the one error
// Run treats as success, unwrapping it into an exit code; every other error
// propagates to the caller as the run's failure.
func (e *Executor[T]) Run() (int32, error) {
	for {
		if e.ip < 0 || e.ip >= len(e.module.CodeSection) {
			return 0, rwasmerr.New(rwasmerr.UnresolvedFunction)
		}
		err := e.step()
		if err == nil {
			continue
		}
		if rerr, ok := err.(*rwasmerr.Error); ok && rerr.Kind == rwasmerr.ExecutionHalted {
			return rerr.ExitCode, nil
		}
		return 0, err
	}
}
