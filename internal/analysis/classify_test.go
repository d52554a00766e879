package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qvmdis/internal/disasm"
	"qvmdis/internal/qvm"
)

type fakeNames struct {
	funcs, syscalls, data map[int32]string
}

func (f fakeNames) Function(v int32) (string, bool) {
	n, ok := f.funcs[v]
	return n, ok
}

func (f fakeNames) Syscall(v int32) (string, bool) {
	n, ok := f.syscalls[v]
	return n, ok
}

func (f fakeNames) Data(v int32) (string, bool) {
	n, ok := f.data[v]
	return n, ok
}

func inst(idx int, op disasm.Opcode, arg int32) disasm.Inst {
	return disasm.Inst{Index: idx, Op: op, Arg: arg}
}

func testImage() *qvm.Image {
	return &qvm.Image{
		Data: []byte{0x78, 0x56, 0x34, 0x12, 0xaa, 0xbb},
		Lit:  []byte("hello\x00tail"),
	}
}

func TestClassifyConsts(t *testing.T) {
	im := testImage()
	names := fakeNames{
		funcs:    map[int32]string{0: "vmMain", 0x10: "CG_Init"},
		syscalls: map[int32]string{-2: "trap_Print"},
		data:     map[int32]string{0: "cg_version", 6: "helloStr"},
	}
	code := disasm.Stream{
		inst(0, disasm.OpEnter, 8),
		inst(1, disasm.OpConst, 6), // lit offset 0
		inst(2, disasm.OpArg, 8),
		inst(3, disasm.OpConst, 0),
		inst(4, disasm.OpLoad4, 0),
		inst(5, disasm.OpConst, -2),
		inst(6, disasm.OpCall, 0),
		inst(7, disasm.OpConst, 0x10),
		inst(8, disasm.OpCall, 0),
		inst(9, disasm.OpConst, 6),
		inst(10, disasm.OpJump, 0),
		inst(11, disasm.OpConst, 1000),
		inst(12, disasm.OpPush, 0),
		inst(13, disasm.OpConst, 4),
	}

	out := Classify(im, code, names)
	require.Len(t, out, len(code))

	assert.Equal(t, "vmMain", out[0].FuncName)

	assert.Equal(t, KindString, out[1].Operand.Kind)
	assert.Equal(t, "hello", out[1].Operand.String.Value)
	assert.True(t, out[1].Operand.String.Terminated)
	assert.Equal(t, "helloStr", out[1].Operand.Name)

	assert.Equal(t, KindData, out[3].Operand.Kind)
	assert.EqualValues(t, 0x12345678, out[3].Operand.Value())
	assert.Equal(t, "cg_version", out[3].Operand.Name)

	assert.Equal(t, KindSyscall, out[5].Operand.Kind)
	assert.Equal(t, "trap_Print ()", out[5].Operand.Comment())

	assert.Equal(t, KindFunction, out[7].Operand.Kind)
	assert.Equal(t, "CG_Init", out[7].Operand.Name)

	assert.Equal(t, KindLiteral, out[9].Operand.Kind, "jump targets are never pointers")
	assert.Equal(t, KindLiteral, out[11].Operand.Kind)

	assert.Equal(t, KindData, out[13].Operand.Kind, "last instruction has no successor")
	assert.True(t, out[13].Operand.Padded)
	assert.Equal(t, [4]byte{0xaa, 0xbb, 0, 0}, out[13].Operand.Word)

	for _, i := range []int{2, 4, 6} {
		assert.Equal(t, KindNone, out[i].Operand.Kind)
	}
}

func TestClassifyUnnamedCalls(t *testing.T) {
	code := disasm.Stream{
		inst(0, disasm.OpConst, -5),
		inst(1, disasm.OpCall, 0),
		inst(2, disasm.OpConst, 3),
		inst(3, disasm.OpCall, 0),
	}
	out := Classify(testImage(), code, nil)

	assert.Equal(t, KindSyscall, out[0].Operand.Kind)
	assert.Empty(t, out[0].Operand.Comment())
	assert.Equal(t, KindFunction, out[2].Operand.Kind, "call beats data pointer")
}

func TestClassifyUnterminatedString(t *testing.T) {
	code := disasm.Stream{inst(0, disasm.OpConst, 12), inst(1, disasm.OpArg, 4)}
	out := Classify(testImage(), code, nil)

	op := out[0].Operand
	require.Equal(t, KindString, op.Kind)
	assert.Equal(t, "tail", op.String.Value)
	assert.False(t, op.String.Terminated)
}

func TestClassifyWithCustomRules(t *testing.T) {
	always := RuleFunc(func(c ConstSite) (Operand, bool) {
		return Operand{Kind: KindData, Name: "custom"}, true
	})
	code := disasm.Stream{inst(0, disasm.OpConst, 1000)}

	out := ClassifyWith(NewRuleChain(always), testImage(), code, nil)
	assert.Equal(t, "custom", out[0].Operand.Name)

	out = ClassifyWith(NewRuleChain(), testImage(), code, nil)
	assert.Equal(t, KindLiteral, out[0].Operand.Kind)
}

func TestAnnotatedInstString(t *testing.T) {
	tests := []struct {
		name string
		a    AnnotatedInst
		want string
	}{
		{
			"no operand",
			AnnotatedInst{Inst: inst(1, disasm.OpBreak, 0)},
			"00000001  break",
		},
		{
			"positive",
			AnnotatedInst{Inst: inst(0, disasm.OpConst, 4)},
			"00000000  const" + strings.Repeat(" ", 10) + "0x4",
		},
		{
			"negative with call",
			AnnotatedInst{Inst: inst(0x1f, disasm.OpConst, -2), Operand: Operand{Kind: KindSyscall, Name: "trap_Print"}},
			"0000001f  const" + strings.Repeat(" ", 9) + "-0x2  // trap_Print ()",
		},
		{
			"one byte operand",
			AnnotatedInst{Inst: inst(2, disasm.OpArg, 0xfc)},
			"00000002  arg" + strings.Repeat(" ", 12) + "0xfc",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.String())
		})
	}
}

func TestReadCString(t *testing.T) {
	seg := []byte("a\tb\nc\x00xyz")

	s := ReadCString(seg, 0)
	assert.Equal(t, `a\tb\nc`, s.Value)
	assert.Equal(t, 5, s.Len)
	assert.True(t, s.Terminated)

	s = ReadCString(seg, 7)
	assert.Equal(t, "yz", s.Value)
	assert.False(t, s.Terminated)

	assert.Equal(t, StringResult{}, ReadCString(seg, len(seg)))
	assert.Equal(t, StringResult{}, ReadCString(seg, -1))
}

func TestHashFunctions(t *testing.T) {
	body := []byte{
		0x03, 0x08, 0x00, 0x00, 0x00,
		0x02,
		0x04, 0x08, 0x00, 0x00, 0x00,
	}
	code, err := disasm.Decode(append(append([]byte{}, body...), body...), 6)
	require.NoError(t, err)

	hashes := HashFunctions(code)
	require.Len(t, hashes, 2)
	assert.Equal(t, 0, hashes[0].Entry)
	assert.Equal(t, 3, hashes[1].Entry)
	assert.Equal(t, 11, hashes[1].Offset)
	assert.Equal(t, 3, hashes[1].Size)
	assert.Equal(t, hashes[0].Hash, hashes[1].Hash, "identical bodies hash alike")
	assert.Len(t, hashes[0].Hash, 64)

	assert.NotEqual(t, hashes[0].Hash, StreamDigest(code))
}
