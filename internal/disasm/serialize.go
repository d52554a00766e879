package disasm

// Serialize writes the stream back out as opcode and operand bytes exactly as they
// were read. The output decodes to the same stream.
func Serialize(s Stream) []byte {
	n := 0
	for _, in := range s {
		n += in.Size()
	}
	out := make([]byte, 0, n)
	for _, in := range s {
		out = append(out, byte(in.Op))
		out = append(out, in.Raw...)
	}
	return out
}

// Function is a run of instructions starting at an enter instruction.
type Function struct {
	Entry  int    // ordinal of the enter instruction
	Offset int    // code offset of the enter instruction
	Code   Stream // the enter instruction and everything up to the next one
}

// Functions splits the stream at enter instructions. Instructions before the first
// enter are not part of any function.
func Functions(s Stream) []Function {
	var funcs []Function
	start := -1
	for i, in := range s {
		if in.Op != OpEnter {
			continue
		}
		if start >= 0 {
			funcs = append(funcs, Function{Entry: s[start].Index, Offset: s[start].Offset, Code: s[start:i]})
		}
		start = i
	}
	if start >= 0 {
		funcs = append(funcs, Function{Entry: s[start].Index, Offset: s[start].Offset, Code: s[start:]})
	}
	return funcs
}
