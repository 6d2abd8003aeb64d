package wasmsrc

import "github.com/rwasm-labs/rwasm/internal/rvalue"

// ValType is a WASM value type, encoded exactly as its binary format byte
// so decoding never needs a translation table.
type ValType byte

const (
	ValI32       ValType = 0x7f
	ValI64       ValType = 0x7e
	ValF32       ValType = 0x7d
	ValF64       ValType = 0x7c
	ValFuncRef   ValType = 0x70
	ValExternRef ValType = 0x6f
)

func (t ValType) IsReference() bool { return t == ValFuncRef || t == ValExternRef }

// NullFuncIndex marks a null/declared-but-empty slot in an element
// segment's function index list. No real function index ever equals it.
const NullFuncIndex uint32 = 0xffffffff

// FuncType is a function signature: parameter types followed by result
// types. Multi-value (more than one result) is part of the accepted
// proposal subset, so Results is a slice, not a single optional type.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

// Limits is a min/max pair shared by table and memory declarations. Max is
// only meaningful when HasMax is set.
type Limits struct {
	Min    uint32
	Max    uint32
	HasMax bool
}

// TableType describes one table declaration or import.
type TableType struct {
	ElemType ValType // ValFuncRef or ValExternRef
	Limits   Limits
}

// ImportKind distinguishes the four things a module may import. Only
// ImportFunc is accepted by the translator (imported memory, table, and
// global are explicitly out of scope), but all four are decoded so the
// translator can produce a precise compileerr.UnsupportedProposal /
// MalformedInput diagnostic rather than a raw parse failure.
type ImportKind uint8

const (
	ImportFunc ImportKind = iota
	ImportTable
	ImportMemory
	ImportGlobal
)

// Import is one entry of the import section, in declaration order -- the
// order that also assigns the low end of each imported kind's index space.
type Import struct {
	Module string
	Field  string
	Kind   ImportKind

	// Exactly one of the following is meaningful, selected by Kind.
	FuncTypeIdx uint32
	TableType   TableType
	MemoryType  Limits
	GlobalType  GlobalType
}

// GlobalType is a global variable's declared value type and mutability.
type GlobalType struct {
	Type    ValType
	Mutable bool
}

// GlobalInitKind selects which shape a global (or active element/data
// offset) constant expression takes. WASM's accepted proposal subset here
// allows a plain constant, a ref.null, a ref.func, or a global.get
// referencing an earlier *imported* global -- nothing more elaborate
// (extended-const arithmetic is not part of the accepted subset).
type GlobalInitKind uint8

const (
	InitConst GlobalInitKind = iota
	InitRefNull
	InitRefFunc
	InitGlobalGet
)

// ConstExpr is a decoded constant expression: a global's initializer, or an
// active element/data segment's offset expression.
type ConstExpr struct {
	Kind     GlobalInitKind
	Type     ValType
	Value    rvalue.UntypedValue
	RefIndex uint32 // meaningful for InitRefFunc (function index) and InitGlobalGet (global index)
}

// Global is one entry of the global section.
type Global struct {
	Type GlobalType
	Init ConstExpr
}

// ExportKind mirrors ImportKind for the export side.
type ExportKind uint8

const (
	ExportFunc ExportKind = iota
	ExportTable
	ExportMemory
	ExportGlobal
)

// Export is one entry of the export section.
type Export struct {
	Name  string
	Kind  ExportKind
	Index uint32
}

// ElemMode distinguishes the three element segment modes the bulk-memory
// proposal introduced: Active (force-copied into a table at instantiation,
// the only mode the pre-bulk-memory MVP had), Passive (left dormant until a
// table.init references it), and Declared (never copied anywhere; exists
// only to make a function index a legal ref.func target).
type ElemMode uint8

const (
	ElemActive ElemMode = iota
	ElemPassive
	ElemDeclared
)

// ElemSegment is one entry of the element section, always normalized to a
// concrete function-index list: the encoding permits element expressions
// (one const-expr per element) as well as plain function-index vectors, but
// this translator's accepted subset only ever produces funcref values from
// either shape.
type ElemSegment struct {
	Mode     ElemMode
	TableIdx uint32 // only meaningful when Mode == ElemActive
	Offset   ConstExpr
	ElemType ValType
	Funcs    []uint32
}

// DataSegment is one entry of the data section.
type DataSegment struct {
	Active    bool
	MemoryIdx uint32 // only meaningful when Active; always DefaultMemoryIndex here
	Offset    ConstExpr
	Bytes     []byte
}

// Code is one function body: its locals (already expanded from the
// run-length compressed declaration into per-local types) and the raw
// operator byte stream, left undecoded here -- the translator drives an
// OperatorReader over Body directly so it can interleave decoding with
// per-opcode lowering exactly like func_builder.rs's visitor does.
type Code struct {
	Locals []ValType
	Body   []byte
}
