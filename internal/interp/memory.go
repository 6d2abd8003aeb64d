package interp

import (
	"github.com/rwasm-labs/rwasm/internal/limits"
	"github.com/rwasm-labs/rwasm/internal/rwasmerr"
)

// memoryEntity is rWASM's single linear memory. Grounded on vm/memory.rs;
// rWASM allows exactly one memory (limits.DefaultMemoryIndex), so unlike
// tables there is no per-index map -- the Executor owns one memoryEntity
// directly.
type memoryEntity struct {
	data  []byte
	pages uint32
}

func newMemoryEntity() *memoryEntity { return &memoryEntity{} }

func (m *memoryEntity) CurrentPages() uint32 { return m.pages }

// Data returns the live backing slice. Callers must re-fetch after any Grow
// call rather than caching it, since growth reallocates.
func (m *memoryEntity) Data() []byte { return m.data }

// Grow adds delta pages and returns the page count from before the growth.
// A zero delta is a no-op that still reports the current page count, per
// vm/memory.rs. Exceeding limits.MaxMemoryPages fails rather than growing
// partially; the caller (MemoryGrow's dispatch) converts this failure into
// pushing u32::MAX rather than trapping.
func (m *memoryEntity) Grow(delta uint32) (uint32, error) {
	old := m.pages
	if delta == 0 {
		return old, nil
	}
	next := uint64(m.pages) + uint64(delta)
	if next > limits.MaxMemoryPages {
		return 0, rwasmerr.New(rwasmerr.GrowthOperationLimited)
	}
	grown := make([]byte, next*limits.BytesPerMemoryPage)
	copy(grown, m.data)
	m.data = grown
	m.pages = uint32(next)
	return old, nil
}
