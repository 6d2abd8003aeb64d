package wasmsrc

import (
	"go.uber.org/multierr"

	"github.com/rwasm-labs/rwasm/internal/compileerr"
	"github.com/rwasm-labs/rwasm/internal/leb128"
	"github.com/rwasm-labs/rwasm/internal/rvalue"
)

func decodeTypeSection(br *byteReader, m *Module) error {
	count, err := br.readU32Leb("type count")
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		form, err := br.readByte("type form")
		if err != nil {
			return err
		}
		if form != 0x60 {
			return compileerr.New(compileerr.MalformedInput, "type section entry is not a func type")
		}
		ft, err := decodeFuncType(br)
		if err != nil {
			return err
		}
		m.Types = append(m.Types, ft)
	}
	return nil
}

func decodeFuncType(br *byteReader) (FuncType, error) {
	pCount, err := br.readU32Leb("param count")
	if err != nil {
		return FuncType{}, err
	}
	params := make([]ValType, pCount)
	for i := range params {
		t, err := br.readValType("param type")
		if err != nil {
			return FuncType{}, err
		}
		params[i] = t
	}
	rCount, err := br.readU32Leb("result count")
	if err != nil {
		return FuncType{}, err
	}
	results := make([]ValType, rCount)
	for i := range results {
		t, err := br.readValType("result type")
		if err != nil {
			return FuncType{}, err
		}
		results[i] = t
	}
	return FuncType{Params: params, Results: results}, nil
}

// decodeImportSection accumulates, rather than fail-fasts on, every
// rejected import it finds (non-func kinds), since the translator wants to
// report all of a module's problems in one compile, not stop at the first.
func decodeImportSection(br *byteReader, m *Module) error {
	count, err := br.readU32Leb("import count")
	if err != nil {
		return err
	}
	var errs error
	for i := uint32(0); i < count; i++ {
		mod, err := br.readString("import module name")
		if err != nil {
			return err
		}
		field, err := br.readString("import field name")
		if err != nil {
			return err
		}
		kindByte, err := br.readByte("import kind")
		if err != nil {
			return err
		}
		imp := Import{Module: mod, Field: field}
		switch kindByte {
		case 0x00:
			imp.Kind = ImportFunc
			idx, err := br.readU32Leb("import func type index")
			if err != nil {
				return err
			}
			imp.FuncTypeIdx = idx
			m.NumImportedFuncs++
		case 0x01:
			imp.Kind = ImportTable
			elemType, err := br.readValType("import table elem type")
			if err != nil {
				return err
			}
			lim, err := br.readLimits("import table")
			if err != nil {
				return err
			}
			imp.TableType = TableType{ElemType: elemType, Limits: lim}
			errs = multierr.Append(errs, compileerr.New(compileerr.UnsupportedProposal, "imported tables are not supported: "+mod+"::"+field))
		case 0x02:
			imp.Kind = ImportMemory
			lim, err := br.readLimits("import memory")
			if err != nil {
				return err
			}
			imp.MemoryType = lim
			errs = multierr.Append(errs, compileerr.New(compileerr.UnsupportedProposal, "imported memories are not supported: "+mod+"::"+field))
		case 0x03:
			imp.Kind = ImportGlobal
			gt, err := decodeGlobalType(br)
			if err != nil {
				return err
			}
			imp.GlobalType = gt
			errs = multierr.Append(errs, compileerr.New(compileerr.UnsupportedProposal, "imported globals are not supported: "+mod+"::"+field))
		default:
			return compileerr.New(compileerr.MalformedInput, "unknown import kind")
		}
		m.Imports = append(m.Imports, imp)
	}
	return errs
}

func decodeGlobalType(br *byteReader) (GlobalType, error) {
	t, err := br.readValType("global type")
	if err != nil {
		return GlobalType{}, err
	}
	mutByte, err := br.readByte("global mutability")
	if err != nil {
		return GlobalType{}, err
	}
	if mutByte > 1 {
		return GlobalType{}, compileerr.New(compileerr.MalformedInput, "bad global mutability flag")
	}
	return GlobalType{Type: t, Mutable: mutByte == 1}, nil
}

func decodeFunctionSection(br *byteReader, m *Module) error {
	count, err := br.readU32Leb("function count")
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		idx, err := br.readU32Leb("function type index")
		if err != nil {
			return err
		}
		m.Functions = append(m.Functions, idx)
	}
	return nil
}

func decodeTableSection(br *byteReader, m *Module) error {
	count, err := br.readU32Leb("table count")
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		elemType, err := br.readValType("table elem type")
		if err != nil {
			return err
		}
		lim, err := br.readLimits("table")
		if err != nil {
			return err
		}
		m.Tables = append(m.Tables, TableType{ElemType: elemType, Limits: lim})
	}
	return nil
}

func decodeMemorySection(br *byteReader, m *Module) error {
	count, err := br.readU32Leb("memory count")
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		lim, err := br.readLimits("memory")
		if err != nil {
			return err
		}
		m.Memories = append(m.Memories, lim)
	}
	return nil
}

// decodeConstExpr reads a single constant expression terminated by an
// `end` opcode (0x0b): the only shapes this accepted proposal subset
// allows are a typed const, ref.null, ref.func, or global.get of an earlier
// imported global.
func decodeConstExpr(br *byteReader) (ConstExpr, error) {
	opByte, err := br.readByte("const expr opcode")
	if err != nil {
		return ConstExpr{}, err
	}
	var ce ConstExpr
	switch opByte {
	case 0x41: // i32.const
		v, err := br.readI32Leb("i32.const value")
		if err != nil {
			return ConstExpr{}, err
		}
		ce = ConstExpr{Kind: InitConst, Type: ValI32, Value: rvalue.FromI32(v)}
	case 0x42: // i64.const
		v, err := br.readI64Leb("i64.const value")
		if err != nil {
			return ConstExpr{}, err
		}
		ce = ConstExpr{Kind: InitConst, Type: ValI64, Value: rvalue.FromI64(v)}
	case 0x43: // f32.const
		v, err := br.readF32()
		if err != nil {
			return ConstExpr{}, err
		}
		ce = ConstExpr{Kind: InitConst, Type: ValF32, Value: rvalue.FromF32(v)}
	case 0x44: // f64.const
		v, err := br.readF64()
		if err != nil {
			return ConstExpr{}, err
		}
		ce = ConstExpr{Kind: InitConst, Type: ValF64, Value: rvalue.FromF64(v)}
	case 0xd0: // ref.null
		t, err := br.readValType("ref.null type")
		if err != nil {
			return ConstExpr{}, err
		}
		ce = ConstExpr{Kind: InitRefNull, Type: t}
	case 0xd2: // ref.func
		idx, err := br.readU32Leb("ref.func index")
		if err != nil {
			return ConstExpr{}, err
		}
		ce = ConstExpr{Kind: InitRefFunc, Type: ValFuncRef, RefIndex: idx}
	case 0x23: // global.get
		idx, err := br.readU32Leb("global.get index")
		if err != nil {
			return ConstExpr{}, err
		}
		ce = ConstExpr{Kind: InitGlobalGet, RefIndex: idx}
	default:
		return ConstExpr{}, compileerr.New(compileerr.ConstEvaluationFailed, "unsupported constant expression opcode")
	}
	end, err := br.readByte("const expr terminator")
	if err != nil {
		return ConstExpr{}, err
	}
	if end != 0x0b {
		return ConstExpr{}, compileerr.New(compileerr.ConstEvaluationFailed, "constant expression missing end opcode")
	}
	return ce, nil
}

func decodeGlobalSection(br *byteReader, m *Module) error {
	count, err := br.readU32Leb("global count")
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		gt, err := decodeGlobalType(br)
		if err != nil {
			return err
		}
		init, err := decodeConstExpr(br)
		if err != nil {
			return err
		}
		m.Globals = append(m.Globals, Global{Type: gt, Init: init})
	}
	return nil
}

func decodeExportSection(br *byteReader, m *Module) error {
	count, err := br.readU32Leb("export count")
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		name, err := br.readString("export name")
		if err != nil {
			return err
		}
		kindByte, err := br.readByte("export kind")
		if err != nil {
			return err
		}
		idx, err := br.readU32Leb("export index")
		if err != nil {
			return err
		}
		var kind ExportKind
		switch kindByte {
		case 0x00:
			kind = ExportFunc
		case 0x01:
			kind = ExportTable
		case 0x02:
			kind = ExportMemory
		case 0x03:
			kind = ExportGlobal
		default:
			return compileerr.New(compileerr.MalformedInput, "unknown export kind")
		}
		m.Exports = append(m.Exports, Export{Name: name, Kind: kind, Index: idx})
	}
	return nil
}

// decodeElementSection implements the bulk-memory proposal's full 8-variant
// element segment encoding (flags 0 through 7), normalizing every shape --
// whether it carries bare function indices or element expressions -- to a
// concrete Funcs list.
func decodeElementSection(br *byteReader, m *Module) error {
	count, err := br.readU32Leb("element segment count")
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		flags, err := br.readU32Leb("element segment flags")
		if err != nil {
			return err
		}
		seg := ElemSegment{ElemType: ValFuncRef}
		hasExplicitTable := flags&0x02 != 0
		usesExpressions := flags&0x04 != 0

		switch flags & 0x03 {
		case 0x00:
			seg.Mode = ElemActive
			seg.TableIdx = 0
			off, err := decodeConstExpr(br)
			if err != nil {
				return err
			}
			seg.Offset = off
		case 0x01:
			seg.Mode = ElemPassive
		case 0x02:
			seg.Mode = ElemActive
			if hasExplicitTable {
				idx, err := br.readU32Leb("element segment table index")
				if err != nil {
					return err
				}
				seg.TableIdx = idx
			}
			off, err := decodeConstExpr(br)
			if err != nil {
				return err
			}
			seg.Offset = off
		case 0x03:
			seg.Mode = ElemDeclared
		}

		if usesExpressions {
			if flags&0x03 != 0x00 {
				t, err := br.readValType("element segment reftype")
				if err != nil {
					return err
				}
				seg.ElemType = t
			}
			n, err := br.readU32Leb("element expression count")
			if err != nil {
				return err
			}
			funcs := make([]uint32, 0, n)
			for j := uint32(0); j < n; j++ {
				ce, err := decodeConstExpr(br)
				if err != nil {
					return err
				}
				switch ce.Kind {
				case InitRefFunc:
					funcs = append(funcs, ce.RefIndex)
				case InitRefNull:
					// NullFuncIndex (all-ones) marks a hole in the table:
					// no valid function index ever reaches this value, so
					// the translator/interpreter can treat it as "traps on
					// call" without a separate tagged representation.
					funcs = append(funcs, NullFuncIndex)
				default:
					return compileerr.New(compileerr.MalformedInput, "element expression must be ref.func or ref.null")
				}
			}
			seg.Funcs = funcs
		} else {
			if flags&0x03 != 0x00 {
				elemKind, err := br.readByte("element segment elemkind")
				if err != nil {
					return err
				}
				if elemKind != 0x00 {
					return compileerr.New(compileerr.MalformedInput, "unsupported elemkind")
				}
			}
			n, err := br.readU32Leb("element function count")
			if err != nil {
				return err
			}
			funcs := make([]uint32, n)
			for j := range funcs {
				idx, err := br.readU32Leb("element function index")
				if err != nil {
					return err
				}
				funcs[j] = idx
			}
			seg.Funcs = funcs
		}

		m.Elements = append(m.Elements, seg)
	}
	return nil
}

func decodeDataSection(br *byteReader, m *Module) error {
	count, err := br.readU32Leb("data segment count")
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		flags, err := br.readU32Leb("data segment flags")
		if err != nil {
			return err
		}
		seg := DataSegment{}
		switch flags {
		case 0:
			seg.Active = true
			off, err := decodeConstExpr(br)
			if err != nil {
				return err
			}
			seg.Offset = off
		case 1:
			seg.Active = false
		case 2:
			seg.Active = true
			idx, err := br.readU32Leb("data segment memory index")
			if err != nil {
				return err
			}
			if idx != 0 {
				return compileerr.New(compileerr.NonDefaultMemoryIndex, "data segment references non-default memory")
			}
			seg.MemoryIdx = idx
			off, err := decodeConstExpr(br)
			if err != nil {
				return err
			}
			seg.Offset = off
		default:
			return compileerr.New(compileerr.MalformedInput, "unknown data segment flags")
		}
		n, err := br.readU32Leb("data segment length")
		if err != nil {
			return err
		}
		bytes, err := br.readN(int(n))
		if err != nil {
			return err
		}
		seg.Bytes = bytes
		m.Data = append(m.Data, seg)
	}
	return nil
}

func decodeCodeSection(br *byteReader, m *Module) error {
	count, err := br.readU32Leb("code entry count")
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		size, err := br.readU32Leb("code body size")
		if err != nil {
			return err
		}
		body, err := br.readN(int(size))
		if err != nil {
			return err
		}
		locals, rest, err := decodeLocalsFromBytes(body)
		if err != nil {
			return err
		}
		m.Codes = append(m.Codes, Code{Locals: locals, Body: rest})
	}
	return nil
}

// decodeLocalsFromBytes expands the run-length-compressed local
// declarations (groups of (count, type)) into one ValType per local, and
// returns the unconsumed tail of body as the function's raw operator
// stream. It works directly off a byte slice (rather than the bufio-backed
// byteReader the rest of this file uses) because the caller needs to know
// exactly how many bytes the locals declarations occupied so the remainder
// can be handed to the operator reader untouched.
func decodeLocalsFromBytes(body []byte) ([]ValType, []byte, error) {
	groupCount, n, err := leb128.LoadUint32(body)
	if err != nil {
		return nil, nil, compileerr.New(compileerr.MalformedInput, "bad varint: local group count")
	}
	pos := int(n)
	var locals []ValType
	for i := uint32(0); i < groupCount; i++ {
		if pos >= len(body) {
			return nil, nil, compileerr.New(compileerr.MalformedInput, "truncated local group size")
		}
		groupSize, n, err := leb128.LoadUint32(body[pos:])
		if err != nil {
			return nil, nil, compileerr.New(compileerr.MalformedInput, "bad varint: local group size")
		}
		pos += int(n)
		if pos >= len(body) {
			return nil, nil, compileerr.New(compileerr.MalformedInput, "truncated local type")
		}
		t := ValType(body[pos])
		switch t {
		case ValI32, ValI64, ValF32, ValF64, ValFuncRef, ValExternRef:
		default:
			return nil, nil, compileerr.New(compileerr.UnsupportedLocalType, "local type")
		}
		pos++
		for j := uint32(0); j < groupSize; j++ {
			locals = append(locals, t)
		}
	}
	return locals, body[pos:], nil
}
