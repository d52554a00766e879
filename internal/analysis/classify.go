package analysis

import (
	"encoding/binary"
	"fmt"
	"strings"

	"qvmdis/internal/disasm"
	"qvmdis/internal/qvm"
)

// Operand is the classification of a const operand.
type Operand struct {
	Kind   Kind
	Name   string       // resolved function, syscall or data symbol
	String StringResult // KindString
	Word   [4]byte      // KindData: the word the pointer addresses
	Padded bool         // KindData: the word ran past the data segment
}

// Value is the addressed data word as a little-endian unsigned integer.
func (o Operand) Value() uint32 { return binary.LittleEndian.Uint32(o.Word[:]) }

// Comment is the trailing annotation for the instruction line.
func (o Operand) Comment() string {
	if o.Name == "" {
		return ""
	}
	if o.Kind.IsCall() {
		return o.Name + " ()"
	}
	return o.Name
}

// AnnotatedInst is a decoded instruction with what the classifier found.
type AnnotatedInst struct {
	disasm.Inst
	Operand  Operand
	FuncName string // enter instructions only, when the function is named
}

// String formats the instruction line: ordinal, mnemonic, operand and comment.
// Preamble lines for strings, data words and function banners are added by the renderer.
func (a AnnotatedInst) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%08x  %-13s", a.Index, a.Op)
	if a.HasArg() {
		sb.WriteString(" ")
		sb.WriteString(FormatArg(a.Inst))
	}
	if c := a.Operand.Comment(); c != "" {
		sb.WriteString("  // ")
		sb.WriteString(c)
	}
	return strings.TrimRight(sb.String(), " ")
}

// FormatArg renders an operand as signed hex with a sign column, or as unsigned hex
// for the one-byte operand of arg.
func FormatArg(in disasm.Inst) string {
	if in.Op.Width() == 1 {
		return fmt.Sprintf(" 0x%x", uint8(in.Arg))
	}
	v := int64(in.Arg)
	if v < 0 {
		return fmt.Sprintf("-0x%x", -v)
	}
	return fmt.Sprintf(" 0x%x", v)
}

// Classify annotates every instruction of code. Only const operands are classified;
// the decision for each uses the opcode of the instruction that follows it. names may
// be nil.
func Classify(im *qvm.Image, code disasm.Stream, names Names) []AnnotatedInst {
	return ClassifyWith(DefaultRules(), im, code, names)
}

// ClassifyWith is Classify with a caller-supplied rule chain.
func ClassifyWith(rules *RuleChain, im *qvm.Image, code disasm.Stream, names Names) []AnnotatedInst {
	if names == nil {
		names = noNames{}
	}
	out := make([]AnnotatedInst, len(code))
	for i, in := range code {
		a := AnnotatedInst{Inst: in}
		switch in.Op {
		case disasm.OpEnter:
			a.FuncName, _ = names.Function(int32(in.Index))
		case disasm.OpConst:
			site := ConstSite{Inst: in, Image: im, Names: names}
			if next, ok := code.Next(i); ok {
				site.Next = next.Op
			}
			a.Operand = rules.Classify(site)
		}
		out[i] = a
	}
	return out
}
