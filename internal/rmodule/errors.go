package rmodule

import "errors"

var (
	// ErrInvalidMagic is returned when a binary's first two bytes are not
	// 0xef 0x52.
	ErrInvalidMagic = errors.New("rmodule: invalid magic bytes")
	// ErrUnsupportedVersion is returned when the version byte following the
	// magic is anything other than the current format version.
	ErrUnsupportedVersion = errors.New("rmodule: unsupported binary version")
	// ErrUnknownOpcode is returned when the code section contains a byte
	// outside the closed opcode range.
	ErrUnknownOpcode = errors.New("rmodule: unknown opcode")
)
