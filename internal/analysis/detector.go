package analysis

import (
	"qvmdis/internal/disasm"
	"qvmdis/internal/qvm"
)

// Rule classifies the operand of a const instruction. It returns false when it does
// not apply so the next rule can try.
type Rule interface {
	Classify(c ConstSite) (Operand, bool)
}

// RuleFunc adapts a function to Rule.
type RuleFunc func(c ConstSite) (Operand, bool)

func (f RuleFunc) Classify(c ConstSite) (Operand, bool) { return f(c) }

// ConstSite is a const instruction together with what follows it.
type ConstSite struct {
	Inst  disasm.Inst
	Next  disasm.Opcode // OpUndef when the const is the last instruction
	Image *qvm.Image
	Names Names
}

// feedsControl reports whether the const supplies the target of a call or jump.
func (c ConstSite) feedsControl() bool {
	return c.Next == disasm.OpCall || c.Next == disasm.OpJump
}

// RuleChain tries rules in order and falls back to a plain literal.
type RuleChain struct {
	rules []Rule
}

// NewRuleChain creates a chain from rules in priority order.
func NewRuleChain(rules ...Rule) *RuleChain {
	return &RuleChain{rules: rules}
}

// Classify runs the chain.
func (rc *RuleChain) Classify(c ConstSite) Operand {
	for _, r := range rc.rules {
		if op, ok := r.Classify(c); ok {
			return op
		}
	}
	return Operand{Kind: KindLiteral}
}

// DefaultRules is string pointer, data pointer, then call target.
func DefaultRules() *RuleChain {
	return NewRuleChain(RuleFunc(stringPointer), RuleFunc(dataPointer), RuleFunc(callTarget))
}

func stringPointer(c ConstSite) (Operand, bool) {
	parm := int64(c.Inst.Arg)
	dataLen := int64(len(c.Image.Data))
	if c.feedsControl() || parm < dataLen || parm >= dataLen+int64(len(c.Image.Lit)) {
		return Operand{}, false
	}
	s := ReadCString(c.Image.Lit, int(parm-dataLen))
	op := Operand{Kind: KindString, String: s}
	op.Name, _ = c.Names.Data(c.Inst.Arg)
	return op, true
}

func dataPointer(c ConstSite) (Operand, bool) {
	parm := c.Inst.Arg
	if c.feedsControl() || parm < 0 || int(parm) >= len(c.Image.Data) {
		return Operand{}, false
	}
	w, ok := c.Image.DataWord(int(parm))
	op := Operand{Kind: KindData, Word: w, Padded: !ok}
	op.Name, _ = c.Names.Data(parm)
	return op, true
}

func callTarget(c ConstSite) (Operand, bool) {
	if c.Next != disasm.OpCall {
		return Operand{}, false
	}
	parm := c.Inst.Arg
	if parm < 0 {
		if name, ok := c.Names.Syscall(parm); ok {
			return Operand{Kind: KindSyscall, Name: name}, true
		}
	}
	op := Operand{Kind: KindFunction}
	if parm < 0 {
		op.Kind = KindSyscall
	}
	op.Name, _ = c.Names.Function(parm)
	return op, true
}
