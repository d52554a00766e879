package disasm

import (
	"fmt"

	"qvmdis/internal/qvm"
)

// Opcode is a Q3VM instruction byte.
type Opcode uint8

const (
	OpUndef Opcode = iota
	OpIgnore
	OpBreak
	OpEnter
	OpLeave
	OpCall
	OpPush
	OpPop
	OpConst
	OpLocal
	OpJump
	OpEQ
	OpNE
	OpLTI
	OpLEI
	OpGTI
	OpGEI
	OpLTU
	OpLEU
	OpGTU
	OpGEU
	OpEQF
	OpNEF
	OpLTF
	OpLEF
	OpGTF
	OpGEF
	OpLoad1
	OpLoad2
	OpLoad4
	OpStore1
	OpStore2
	OpStore4
	OpArg
	OpBlockCopy
	OpSex8
	OpSex16
	OpNegI
	OpAdd
	OpSub
	OpDivI
	OpDivU
	OpModI
	OpModU
	OpMulI
	OpMulU
	OpBand
	OpBor
	OpBxor
	OpBcom
	OpLsh
	OpRshI
	OpRshU
	OpNegF
	OpAddF
	OpSubF
	OpDivF
	OpMulF
	OpCvIF
	OpCvFI

	// NumOpcodes is the size of the opcode table.
	NumOpcodes = int(OpCvFI) + 1
)

// OpInfo describes one opcode table entry.
type OpInfo struct {
	Name  string
	Width int // operand bytes following the opcode: 0, 1 or 4
}

var opTable = [NumOpcodes]OpInfo{
	OpUndef:     {"undef", 0},
	OpIgnore:    {"ignore", 0},
	OpBreak:     {"break", 0},
	OpEnter:     {"enter", 4},
	OpLeave:     {"leave", 4},
	OpCall:      {"call", 0},
	OpPush:      {"push", 0},
	OpPop:       {"pop", 0},
	OpConst:     {"const", 4},
	OpLocal:     {"local", 4},
	OpJump:      {"jump", 0},
	OpEQ:        {"eq", 4},
	OpNE:        {"ne", 4},
	OpLTI:       {"lti", 4},
	OpLEI:       {"lei", 4},
	OpGTI:       {"gti", 4},
	OpGEI:       {"gei", 4},
	OpLTU:       {"ltu", 4},
	OpLEU:       {"leu", 4},
	OpGTU:       {"gtu", 4},
	OpGEU:       {"geu", 4},
	OpEQF:       {"eqf", 4},
	OpNEF:       {"nef", 4},
	OpLTF:       {"ltf", 4},
	OpLEF:       {"lef", 4},
	OpGTF:       {"gtf", 4},
	OpGEF:       {"gef", 4},
	OpLoad1:     {"load1", 0},
	OpLoad2:     {"load2", 0},
	OpLoad4:     {"load4", 0},
	OpStore1:    {"store1", 0},
	OpStore2:    {"store2", 0},
	OpStore4:    {"store4", 0},
	OpArg:       {"arg", 1},
	OpBlockCopy: {"block_copy", 4},
	OpSex8:      {"sex8", 0},
	OpSex16:     {"sex16", 0},
	OpNegI:      {"negi", 0},
	OpAdd:       {"add", 0},
	OpSub:       {"sub", 0},
	OpDivI:      {"divi", 0},
	OpDivU:      {"divu", 0},
	OpModI:      {"modi", 0},
	OpModU:      {"modu", 0},
	OpMulI:      {"muli", 0},
	OpMulU:      {"mulu", 0},
	OpBand:      {"band", 0},
	OpBor:       {"bor", 0},
	OpBxor:      {"bxor", 0},
	OpBcom:      {"bcom", 0},
	OpLsh:       {"lsh", 0},
	OpRshI:      {"rshi", 0},
	OpRshU:      {"rshu", 0},
	OpNegF:      {"negf", 0},
	OpAddF:      {"addf", 0},
	OpSubF:      {"subf", 0},
	OpDivF:      {"divf", 0},
	OpMulF:      {"mulf", 0},
	OpCvIF:      {"cvif", 0},
	OpCvFI:      {"cvfi", 0},
}

// Lookup returns the table entry for b, or ErrUnknownOpcode when b is past the table.
func Lookup(b byte) (Opcode, OpInfo, error) {
	if int(b) >= NumOpcodes {
		return 0, OpInfo{}, fmt.Errorf("%w: %d", qvm.ErrUnknownOpcode, b)
	}
	return Opcode(b), opTable[b], nil
}

// Info returns the table entry for a known opcode.
func (op Opcode) Info() OpInfo {
	if int(op) >= NumOpcodes {
		return OpInfo{Name: fmt.Sprintf("op%d", uint8(op))}
	}
	return opTable[op]
}

func (op Opcode) String() string { return op.Info().Name }

// Width is the operand size in bytes.
func (op Opcode) Width() int { return op.Info().Width }
