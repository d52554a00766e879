// Package disasm decodes the Q3VM instruction stream and re-serializes it.
package disasm

import (
	"encoding/binary"
	"errors"

	"qvmdis/internal/qvm"
)

// Inst is one decoded instruction.
type Inst struct {
	Index  int    // ordinal in the instruction stream
	Offset int    // byte offset of the opcode within the code segment
	Op     Opcode // opcode
	Arg    int32  // operand; a width-1 operand is zero-extended
	Raw    []byte // operand bytes exactly as read, nil for width 0
}

// HasArg reports whether the instruction carries an operand.
func (i Inst) HasArg() bool { return i.Op.Width() > 0 }

// Size is the encoded size of the instruction in bytes.
func (i Inst) Size() int { return 1 + i.Op.Width() }

// Stream is a linear sequence of instructions.
type Stream []Inst

// Next returns the instruction after i, if any.
func (s Stream) Next(i int) (Inst, bool) {
	if i+1 < 0 || i+1 >= len(s) {
		return Inst{}, false
	}
	return s[i+1], true
}

// Decode reads exactly count instructions from code. When decoding fails the
// instructions decoded before the failure are returned along with a *qvm.DecodeError.
func Decode(code []byte, count int) (Stream, error) {
	// Every instruction takes at least one byte, so the header count cannot be
	// trusted to size the stream.
	out := make(Stream, 0, min(max(count, 0), len(code)))
	pos := 0
	for idx := 0; idx < count; idx++ {
		if pos >= len(code) {
			return out, &qvm.DecodeError{Index: idx, Offset: pos, Err: qvm.ErrSegmentBounds}
		}
		b := code[pos]
		op, info, err := Lookup(b)
		if err != nil {
			return out, &qvm.DecodeError{Index: idx, Offset: pos, Opcode: b, Err: err}
		}
		in := Inst{Index: idx, Offset: pos, Op: op}
		end := pos + 1 + info.Width
		if end > len(code) {
			return out, &qvm.DecodeError{Index: idx, Offset: pos, Opcode: b, Err: qvm.ErrTruncatedOperand}
		}
		switch info.Width {
		case 1:
			in.Raw = code[pos+1 : end]
			in.Arg = int32(in.Raw[0])
		case 4:
			in.Raw = code[pos+1 : end]
			in.Arg = int32(binary.LittleEndian.Uint32(in.Raw))
		}
		out = append(out, in)
		pos = end
	}
	return out, nil
}

// DecodeImage decodes the image's code segment using its header instruction count.
func DecodeImage(im *qvm.Image) (Stream, error) {
	return Decode(im.Code, int(im.Header.InstructionCount))
}

// IsDecodeError reports whether err came from the decoder.
func IsDecodeError(err error) bool {
	var de *qvm.DecodeError
	return errors.As(err, &de)
}
