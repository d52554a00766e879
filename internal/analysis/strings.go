// Package analysis classifies const operands of a decoded Q3VM stream and fingerprints
// its functions.
package analysis

import "strings"

// StringResult is a string recovered from the literal segment.
type StringResult struct {
	Value      string // escaped for display
	Len        int    // raw byte length, terminator excluded
	Terminated bool   // false when the segment ended before a NUL
}

// ReadCString scans seg from off up to the first NUL. The scan never leaves the
// segment; running off its end ends the string with Terminated unset.
func ReadCString(seg []byte, off int) StringResult {
	if off < 0 || off >= len(seg) {
		return StringResult{}
	}
	raw := seg[off:]
	end := len(raw)
	terminated := false
	for i, b := range raw {
		if b == 0 {
			end = i
			terminated = true
			break
		}
	}
	return StringResult{Value: EscapeString(raw[:end]), Len: end, Terminated: terminated}
}

// EscapeString renders newlines and tabs as \n and \t; other bytes pass through.
func EscapeString(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, c := range b {
		switch c {
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// IsPrintable reports whether c is printable ASCII.
func IsPrintable(c byte) bool { return c >= 0x20 && c <= 0x7e }
