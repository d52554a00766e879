package disasm

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qvmdis/internal/qvm"
)

func TestDecodeTwoBreaks(t *testing.T) {
	s, err := Decode([]byte{0x02, 0x02}, 2)
	require.NoError(t, err)
	require.Len(t, s, 2)
	for i, in := range s {
		assert.Equal(t, OpBreak, in.Op)
		assert.Equal(t, "break", in.Op.String())
		assert.Equal(t, i, in.Index)
		assert.Equal(t, i, in.Offset)
		assert.False(t, in.HasArg())
		assert.Nil(t, in.Raw)
	}
}

func TestDecodeOperands(t *testing.T) {
	code := []byte{
		0x03, 0x10, 0x00, 0x00, 0x00, // enter 0x10
		0x08, 0xfc, 0xff, 0xff, 0xff, // const -4
		0x21, 0x08, // arg 8
		0x05, // call
	}
	s, err := Decode(code, 4)
	require.NoError(t, err)
	require.Len(t, s, 4)

	assert.Equal(t, OpEnter, s[0].Op)
	assert.EqualValues(t, 0x10, s[0].Arg)

	assert.Equal(t, OpConst, s[1].Op)
	assert.EqualValues(t, -4, s[1].Arg)
	assert.Equal(t, 5, s[1].Offset)

	assert.Equal(t, OpArg, s[2].Op)
	assert.EqualValues(t, 8, s[2].Arg)
	assert.Equal(t, 2, s[2].Size())

	assert.Equal(t, OpCall, s[3].Op)
	assert.Equal(t, 12, s[3].Offset)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		code    []byte
		count   int
		decoded int
		offset  int
		opcode  uint8
		want    error
	}{
		{"unknown opcode", []byte{0x02, 99, 0x02}, 3, 1, 1, 99, qvm.ErrUnknownOpcode},
		{"unknown opcode after const", []byte{0x08, 0x01, 0x00, 0x00, 0x00, 0x02, 0xff}, 3, 2, 6, 0xff, qvm.ErrUnknownOpcode},
		{"truncated operand", []byte{0x02, 0x08, 0x01, 0x02}, 2, 1, 1, 0x08, qvm.ErrTruncatedOperand},
		{"truncated arg", []byte{0x21}, 1, 0, 0, 0x21, qvm.ErrTruncatedOperand},
		{"count past code", []byte{0x02}, 2, 1, 1, 0, qvm.ErrSegmentBounds},
		{"huge count", []byte{0x02, 0x02}, math.MaxInt32, 2, 2, 0, qvm.ErrSegmentBounds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Decode(tt.code, tt.count)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, IsDecodeError(err))
			assert.Len(t, s, tt.decoded)

			var de *qvm.DecodeError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tt.decoded, de.Index)
			assert.Equal(t, tt.offset, de.Offset)
			assert.Equal(t, tt.opcode, de.Opcode)
		})
	}
}

func TestDecodeImageHugeInstructionCount(t *testing.T) {
	raw, err := (&qvm.Image{
		Header: qvm.Header{InstructionCount: math.MaxInt32},
		Code:   []byte{0x02, 0x02},
	}).MarshalBinary()
	require.NoError(t, err)
	im, err := qvm.Parse(bytes.NewReader(raw))
	require.NoError(t, err)

	s, err := DecodeImage(im)
	assert.ErrorIs(t, err, qvm.ErrSegmentBounds)
	assert.Len(t, s, 2)
}

func TestDecodeIgnoresTrailingBytes(t *testing.T) {
	s, err := Decode([]byte{0x02, 0x02, 0x00, 0x00}, 2)
	require.NoError(t, err)
	assert.Len(t, s, 2)
}

func TestLookup(t *testing.T) {
	op, info, err := Lookup(0x08)
	require.NoError(t, err)
	assert.Equal(t, OpConst, op)
	assert.Equal(t, OpInfo{Name: "const", Width: 4}, info)

	_, _, err = Lookup(byte(NumOpcodes))
	assert.ErrorIs(t, err, qvm.ErrUnknownOpcode)

	widths := map[int]int{}
	for b := 0; b < NumOpcodes; b++ {
		widths[Opcode(b).Width()]++
	}
	assert.Equal(t, 59, NumOpcodes)
	assert.Equal(t, 1, widths[1], "only arg has a one-byte operand")
}

func TestSerializeRoundTrip(t *testing.T) {
	code := []byte{
		0x03, 0x08, 0x00, 0x00, 0x00,
		0x08, 0x2a, 0x00, 0x00, 0x00,
		0x21, 0x08,
		0x08, 0xff, 0xff, 0xff, 0xff,
		0x05,
		0x04, 0x08, 0x00, 0x00, 0x00,
	}
	s, err := Decode(code, 6)
	require.NoError(t, err)
	assert.Equal(t, code, Serialize(s))

	again, err := Decode(Serialize(s), len(s))
	require.NoError(t, err)
	assert.Equal(t, s, again)
}

func TestFunctions(t *testing.T) {
	code := []byte{
		0x00,                         // undef before any function
		0x03, 0x00, 0x00, 0x00, 0x00, // enter
		0x04, 0x00, 0x00, 0x00, 0x00, // leave
		0x03, 0x00, 0x00, 0x00, 0x00, // enter
		0x02,                         // break
		0x04, 0x00, 0x00, 0x00, 0x00, // leave
	}
	s, err := Decode(code, 6)
	require.NoError(t, err)

	funcs := Functions(s)
	require.Len(t, funcs, 2)
	assert.Equal(t, 1, funcs[0].Entry)
	assert.Equal(t, 1, funcs[0].Offset)
	assert.Len(t, funcs[0].Code, 2)
	assert.Equal(t, 3, funcs[1].Entry)
	assert.Equal(t, 11, funcs[1].Offset)
	assert.Len(t, funcs[1].Code, 3)

	assert.Empty(t, Functions(s[:1]))
}

func TestDecodeImage(t *testing.T) {
	im := &qvm.Image{Header: qvm.Header{InstructionCount: 1}, Code: []byte{0x02}}
	s, err := DecodeImage(im)
	require.NoError(t, err)
	assert.Len(t, s, 1)
}
