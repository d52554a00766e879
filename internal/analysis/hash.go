package analysis

import (
	"crypto/sha256"
	"encoding/hex"

	"qvmdis/internal/disasm"
)

// FuncHash fingerprints one function of the stream.
type FuncHash struct {
	Entry  int    // ordinal of the enter instruction
	Offset int    // code offset of the enter instruction
	Size   int    // instruction count
	Hash   string // hex SHA-256 of the serialized instructions
}

// HashFunctions hashes each function's serialized instruction bytes. The hash depends
// only on opcodes and operands, never on symbol names.
func HashFunctions(code disasm.Stream) []FuncHash {
	funcs := disasm.Functions(code)
	out := make([]FuncHash, 0, len(funcs))
	for _, f := range funcs {
		sum := sha256.Sum256(disasm.Serialize(f.Code))
		out = append(out, FuncHash{
			Entry:  f.Entry,
			Offset: f.Offset,
			Size:   len(f.Code),
			Hash:   hex.EncodeToString(sum[:]),
		})
	}
	return out
}

// StreamDigest is the hex SHA-256 of the whole serialized stream.
func StreamDigest(code disasm.Stream) string {
	sum := sha256.Sum256(disasm.Serialize(code))
	return hex.EncodeToString(sum[:])
}
