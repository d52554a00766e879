package qvm

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFormat reports a bad magic number or a truncated or inconsistent container.
	ErrInvalidFormat = errors.New("invalid qvm format")
	// ErrUnknownOpcode reports an opcode byte outside the opcode table.
	ErrUnknownOpcode = errors.New("unknown opcode")
	// ErrTruncatedOperand reports an operand that runs past the end of the code segment.
	ErrTruncatedOperand = errors.New("truncated operand")
	// ErrSegmentBounds reports a read that runs past its owning segment.
	ErrSegmentBounds = errors.New("segment bounds exceeded")
)

// DecodeError records where in the instruction stream decoding stopped.
type DecodeError struct {
	Index  int   // ordinal of the instruction being decoded
	Offset int   // byte offset of its opcode within the code segment
	Opcode uint8 // opcode byte, when one was read
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("instruction %d at code offset 0x%x (opcode %d): %v", e.Index, e.Offset, e.Opcode, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidFormat, fmt.Sprintf(format, args...))
}
