package interp

import (
	"math"

	"github.com/rwasm-labs/rwasm/internal/limits"
	"github.com/rwasm-labs/rwasm/internal/rvalue"
	"github.com/rwasm-labs/rwasm/internal/rwasmerr"
)

// tableEntity is one funcref table, a flat slice indexed from zero -- no
// per-segment region indirection, matching the merged single
// rmodule.Module.ElementSection this engine reads from (see DESIGN.md).
// Tables are created lazily: a module may declare N table imports/
// instances, but the Executor only allocates a tableEntity the first time
// an opcode actually touches a given table index (table_entity.rs's own
// "entry().or_insert_with" pattern, per system.rs's TableGrow comment).
type tableEntity struct {
	elements []rvalue.UntypedValue
}

func newTableEntity() *tableEntity { return &tableEntity{} }

func (t *tableEntity) Size() uint32 { return uint32(len(t.elements)) }

// GrowUntyped appends delta cells initialized to init, returning the prior
// size, or math.MaxUint32 if growth would exceed limits.MaxTableSize.
func (t *tableEntity) GrowUntyped(delta uint32, init rvalue.UntypedValue) uint32 {
	old := uint32(len(t.elements))
	next := uint64(old) + uint64(delta)
	if next > limits.MaxTableSize {
		return math.MaxUint32
	}
	grown := make([]rvalue.UntypedValue, next)
	copy(grown, t.elements)
	for i := old; i < uint32(next); i++ {
		grown[i] = init
	}
	t.elements = grown
	return old
}

func (t *tableEntity) GetUntyped(index uint32) (rvalue.UntypedValue, bool) {
	if index >= uint32(len(t.elements)) {
		return 0, false
	}
	return t.elements[index], true
}

func (t *tableEntity) SetUntyped(index uint32, value rvalue.UntypedValue) error {
	if index >= uint32(len(t.elements)) {
		return rwasmerr.New(rwasmerr.TableOutOfBounds)
	}
	t.elements[index] = value
	return nil
}

func (t *tableEntity) FillUntyped(dst uint32, val rvalue.UntypedValue, length uint32) error {
	if uint64(dst)+uint64(length) > uint64(len(t.elements)) {
		return rwasmerr.New(rwasmerr.TableOutOfBounds)
	}
	for i := uint32(0); i < length; i++ {
		t.elements[dst+i] = val
	}
	return nil
}

// InitUntyped copies length cells from elements[src:] into t[dst:]. Both
// ranges are bounds-checked before any copy happens, even when length is
// zero, matching table_entity.rs's init_untyped.
func (t *tableEntity) InitUntyped(dst uint32, elements []uint32, src, length uint32) error {
	if uint64(dst)+uint64(length) > uint64(len(t.elements)) {
		return rwasmerr.New(rwasmerr.TableOutOfBounds)
	}
	if uint64(src)+uint64(length) > uint64(len(elements)) {
		return rwasmerr.New(rwasmerr.TableOutOfBounds)
	}
	for i := uint32(0); i < length; i++ {
		t.elements[dst+i] = rvalue.UntypedValue(elements[src+i])
	}
	return nil
}

// CopyWithin copies length cells within the same table. Go's copy already
// handles overlap correctly (memmove semantics), matching
// table_entity.rs's copy_within.
func (t *tableEntity) CopyWithin(dst, src, length uint32) error {
	if uint64(dst)+uint64(length) > uint64(len(t.elements)) {
		return rwasmerr.New(rwasmerr.TableOutOfBounds)
	}
	if uint64(src)+uint64(length) > uint64(len(t.elements)) {
		return rwasmerr.New(rwasmerr.TableOutOfBounds)
	}
	copy(t.elements[dst:dst+length], t.elements[src:src+length])
	return nil
}

// tableCopyCross copies between two distinct tables, per table_entity.rs's
// cross-table TableEntity::copy.
func tableCopyCross(dst, src *tableEntity, dstIdx, srcIdx, length uint32) error {
	if uint64(dstIdx)+uint64(length) > uint64(len(dst.elements)) {
		return rwasmerr.New(rwasmerr.TableOutOfBounds)
	}
	if uint64(srcIdx)+uint64(length) > uint64(len(src.elements)) {
		return rwasmerr.New(rwasmerr.TableOutOfBounds)
	}
	copy(dst.elements[dstIdx:dstIdx+length], src.elements[srcIdx:srcIdx+length])
	return nil
}
