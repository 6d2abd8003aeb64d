package translator

import (
	"github.com/rwasm-labs/rwasm/internal/compileerr"
	"github.com/rwasm-labs/rwasm/internal/limits"
)

// stackHeight simulates the operand stack's height during translation, the
// same role ValueStackHeight plays in the original: the translator never
// executes anything, but every opcode's effect on stack height has to be
// tracked to compute DropKeep pairs and the function's eventual
// stack_alloc size.
type stackHeight struct {
	current int
	max     int
}

func newStackHeight() *stackHeight { return &stackHeight{} }

func (h *stackHeight) push() error {
	h.current++
	if h.current > h.max {
		h.max = h.current
	}
	if h.max > limits.MaxStackHeight {
		return compileerr.New(compileerr.DropKeepOutOfBounds, "function exceeds the maximum stack height")
	}
	return nil
}

func (h *stackHeight) pushN(n int) error {
	for i := 0; i < n; i++ {
		if err := h.push(); err != nil {
			return err
		}
	}
	return nil
}

func (h *stackHeight) pop1() { h.current-- }

func (h *stackHeight) popN(n int) { h.current -= n }

func (h *stackHeight) height() int { return h.current }

func (h *stackHeight) maxHeight() int { return h.max }

// reset sets the simulated height to n, used when entering a block/loop/if
// whose parameters are already accounted for, or when unreachable code
// resets tracking to whatever the enclosing frame expects at its `end`.
func (h *stackHeight) reset(n int) { h.current = n }
