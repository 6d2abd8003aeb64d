package translator

import (
	"github.com/rwasm-labs/rwasm/internal/compileerr"
	"github.com/rwasm-labs/rwasm/internal/opcode"
)

// NewDropKeep builds an opcode.DropKeep from the translator's int-valued
// stack-height arithmetic, bounding both fields to 16 bits. A function
// whose simulated stack height would require a DropKeep beyond u16 range
// fails translation rather than silently truncating -- matching
// drop_keep.rs's own u16 fields.
func NewDropKeep(drop, keep int) (opcode.DropKeep, error) {
	if drop < 0 || keep < 0 || drop > 0xffff || keep > 0xffff {
		return opcode.DropKeep{}, compileerr.New(compileerr.DropKeepOutOfBounds, "drop/keep exceeds 16-bit range")
	}
	return opcode.DropKeep{Drop: uint16(drop), Keep: uint16(keep)}, nil
}
