package segment

import "github.com/rwasm-labs/rwasm/internal/rvalue"

// ValType is the small set of WASM value types a global variable's declared
// type can carry. Reference types are included because globals of type
// funcref/externref are legal, even though only funcref ever holds a
// non-null init expression in this translator.
type ValType uint8

const (
	ValI32 ValType = iota
	ValI64
	ValF32
	ValF64
	ValFuncRef
	ValExternRef
)

// GlobalInitKind selects which of a global's three legal initializer shapes
// is present, mirroring the resolution order the original tries in turn:
// a constant expression, a bare ref.func, or a reference to an earlier
// imported/defined global.
type GlobalInitKind uint8

const (
	GlobalInitConst GlobalInitKind = iota
	GlobalInitFuncRef
	GlobalInitGlobalRef
)

// GlobalInit describes how a global's initial value is computed. Exactly
// one of Const or Ref is meaningful, selected by Kind: Const for
// GlobalInitConst, Ref (a function index or a global index) for
// GlobalInitFuncRef and GlobalInitGlobalRef.
type GlobalInit struct {
	Kind  GlobalInitKind
	Type  ValType
	Const rvalue.UntypedValue
	Ref   uint32
}
