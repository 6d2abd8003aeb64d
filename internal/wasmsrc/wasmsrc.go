// Package wasmsrc is a minimal streaming decoder for the subset of the
// WebAssembly binary format this project accepts as translator input: the
// MVP plus bulk-memory, reference-types, sign-extension,
// saturating-float-to-int, multi-value, and mutable-globals. No conformant
// Go parser/validator library exists anywhere in the retrieval pack (wazero
// included -- its own internal/wasm/binary package ships no real source,
// only stripped test files), so this package is hand-written, laid out the
// way that stripped package's test files imply: one file per section kind,
// a shared LEB128 varint reader, and a pull-based operator reader for
// function bodies and constant expressions.
//
// This package only decodes and performs the structural checks that are
// cheap to do inline (known section order, matching function/code and data
// count/data segment counts, single default memory); type and function index
// references are not range-checked here. It intentionally does not validate full type
// soundness of instruction sequences -- that's the translator's job, which
// walks the operator stream with the enclosing function's type and locals
// in scope.
package wasmsrc

import (
	"io"

	"github.com/rwasm-labs/rwasm/internal/compileerr"
)

// Magic and version are the four bytes every WASM binary starts with.
const (
	magicByte0 = 0x00
	magicByte1 = 0x61 // 'a'
	magicByte2 = 0x73 // 's'
	magicByte3 = 0x6d // 'm'
	versionLE  = 0x01
)

// sectionID identifies a top-level module section.
type sectionID uint8

const (
	sectionCustom sectionID = iota
	sectionType
	sectionImport
	sectionFunction
	sectionTable
	sectionMemory
	sectionGlobal
	sectionExport
	sectionStart
	sectionElement
	sectionCode
	sectionData
	sectionDataCount
)

// Module is the decoded shape of a source WASM binary: one slice per
// section, indices kept exactly as the binary declares them (imported
// functions/globals occupy index space before module-defined ones, per the
// WASM spec's shared index space rule).
type Module struct {
	Types     []FuncType
	Imports   []Import
	Functions []uint32 // FuncIdx -> index into Types, module-defined functions only
	Tables    []TableType
	Memories  []Limits
	Globals   []Global
	Exports   []Export
	HasStart  bool
	Start     uint32
	Elements  []ElemSegment
	Codes     []Code
	Data      []DataSegment

	// DataCountPresent and DataCount record the optional data count
	// section, used only to validate the data section's segment count
	// matches ahead of time; rWASM's translator doesn't otherwise need it.
	DataCountPresent bool
	DataCount        uint32

	// NumImportedFuncs lets callers split the shared function index space
	// back into "imported" vs. "defined" without re-scanning Imports.
	// Imported tables, memories, and globals are all rejected, so no
	// equivalent split is needed for those index spaces.
	NumImportedFuncs uint32
}

// Decode reads a complete WASM binary module from r.
func Decode(r io.Reader) (*Module, error) {
	br := newByteReader(r)

	var magic [4]byte
	if _, err := io.ReadFull(br.r, magic[:]); err != nil {
		return nil, compileerr.New(compileerr.MalformedInput, "truncated module header")
	}
	if magic != [4]byte{magicByte0, magicByte1, magicByte2, magicByte3} {
		return nil, compileerr.New(compileerr.MalformedInput, "bad magic number")
	}
	var version [4]byte
	if _, err := io.ReadFull(br.r, version[:]); err != nil {
		return nil, compileerr.New(compileerr.MalformedInput, "truncated version field")
	}
	if version != [4]byte{versionLE, 0, 0, 0} {
		return nil, compileerr.New(compileerr.MalformedInput, "unsupported module version")
	}

	m := &Module{}
	var lastNonCustom sectionID = sectionCustom
	for {
		id, ok, err := br.tryReadByte()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		size, err := br.readU32Leb("section size")
		if err != nil {
			return nil, err
		}
		body, err := br.readN(int(size))
		if err != nil {
			return nil, err
		}
		sr := newByteReaderFromBytes(body)

		sid := sectionID(id)
		if sid != sectionCustom && sid != sectionDataCount {
			if sid <= lastNonCustom {
				return nil, compileerr.New(compileerr.MalformedInput, "sections out of order")
			}
			lastNonCustom = sid
		}

		switch sid {
		case sectionCustom:
			// Skipped entirely; rWASM carries no debug/name-section data.
		case sectionType:
			if err := decodeTypeSection(sr, m); err != nil {
				return nil, err
			}
		case sectionImport:
			if err := decodeImportSection(sr, m); err != nil {
				return nil, err
			}
		case sectionFunction:
			if err := decodeFunctionSection(sr, m); err != nil {
				return nil, err
			}
		case sectionTable:
			if err := decodeTableSection(sr, m); err != nil {
				return nil, err
			}
		case sectionMemory:
			if err := decodeMemorySection(sr, m); err != nil {
				return nil, err
			}
		case sectionGlobal:
			if err := decodeGlobalSection(sr, m); err != nil {
				return nil, err
			}
		case sectionExport:
			if err := decodeExportSection(sr, m); err != nil {
				return nil, err
			}
		case sectionStart:
			idx, err := sr.readU32Leb("start function index")
			if err != nil {
				return nil, err
			}
			m.HasStart = true
			m.Start = idx
		case sectionElement:
			if err := decodeElementSection(sr, m); err != nil {
				return nil, err
			}
		case sectionDataCount:
			count, err := sr.readU32Leb("data count")
			if err != nil {
				return nil, err
			}
			m.DataCountPresent = true
			m.DataCount = count
		case sectionCode:
			if err := decodeCodeSection(sr, m); err != nil {
				return nil, err
			}
		case sectionData:
			if err := decodeDataSection(sr, m); err != nil {
				return nil, err
			}
		default:
			return nil, compileerr.New(compileerr.MalformedInput, "unknown section id")
		}
	}

	if len(m.Functions) != len(m.Codes) {
		return nil, compileerr.New(compileerr.MalformedInput, "function and code section counts differ")
	}
	if len(m.Memories) > 1 {
		return nil, compileerr.New(compileerr.NonDefaultMemoryIndex, "only a single default memory is permitted")
	}
	if m.DataCountPresent && m.DataCount != uint32(len(m.Data)) {
		return nil, compileerr.New(compileerr.MalformedInput, "data count and data section segment counts differ")
	}
	return m, nil
}
