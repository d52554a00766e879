// Package render formats a decoded image as text. Every function is a pure pass over
// already decoded state.
package render

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/xlab/treeprint"

	"qvmdis/internal/analysis"
	"qvmdis/internal/disasm"
	"qvmdis/internal/qvm"
	"qvmdis/internal/symbols"
)

const banner = "========================"

// Header prints instruction count and segment placement.
func Header(w io.Writer, h qvm.Header) error {
	seg := func(name string, off, length int32) string {
		return fmt.Sprintf("%-4s seg offset: 0x%08x  length: 0x%x  %d\n", name, off, length, length)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "instruction count: 0x%x\n", h.InstructionCount)
	sb.WriteString(seg("CODE", h.CodeOffset, h.CodeLength))
	sb.WriteString(seg("DATA", h.DataOffset, h.DataLength))
	sb.WriteString(seg("LIT", h.LitOffset(), h.LitLength))
	sb.WriteString(seg("BSS", h.BSSOffset(), h.BSSLength))
	_, err := io.WriteString(w, sb.String())
	return err
}

// Layout draws the container as a tree of segments.
func Layout(im *qvm.Image) string {
	h := im.Header
	root := treeprint.NewWithRoot(fmt.Sprintf("qvm magic=0x%08x instructions=%d", uint32(h.Magic), h.InstructionCount))
	root.AddMetaNode(fmt.Sprintf("0x%08x", 0), fmt.Sprintf("header (%d bytes)", qvm.HeaderSize))
	root.AddMetaNode(fmt.Sprintf("0x%08x", h.CodeOffset), fmt.Sprintf("code (%d bytes)", h.CodeLength))
	image := root.AddMetaBranch(fmt.Sprintf("0x%08x", h.DataOffset), "image memory")
	image.AddMetaNode(fmt.Sprintf("+0x%x", 0), fmt.Sprintf("data (%d bytes)", h.DataLength))
	image.AddMetaNode(fmt.Sprintf("+0x%x", h.DataLength), fmt.Sprintf("lit (%d bytes)", h.LitLength))
	image.AddMetaNode(fmt.Sprintf("+0x%x", h.DataLength+h.LitLength), fmt.Sprintf("bss (%d bytes, not stored)", h.BSSLength))
	return root.String()
}

// Code prints the annotated instruction listing. Function entries get a banner with
// the function name when known; string and data pointers are shown on a line of their
// own above the const that loads them.
func Code(w io.Writer, listing []analysis.AnnotatedInst) error {
	if _, err := io.WriteString(w, "/* Code Segment */\n"); err != nil {
		return err
	}
	return Instructions(w, listing)
}

// Instructions prints listing lines without the segment marker.
func Instructions(w io.Writer, listing []analysis.AnnotatedInst) error {
	var sb strings.Builder
	for _, a := range listing {
		switch {
		case a.Op == disasm.OpEnter:
			sb.WriteString("\n")
			if a.FuncName != "" {
				fmt.Fprintf(&sb, "%s ()\n", a.FuncName)
			}
			sb.WriteString(banner + "\n")
		case a.Operand.Kind == analysis.KindString:
			s := a.Operand.String
			fmt.Fprintf(&sb, "\n  \"%s\"\n", s.Value)
			if !s.Terminated {
				sb.WriteString("  // unterminated\n")
			}
		case a.Operand.Kind == analysis.KindData:
			b := a.Operand.Word
			fmt.Fprintf(&sb, "\n  %02x %02x %02x %02x  (0x%x)\n", b[0], b[1], b[2], b[3], a.Operand.Value())
		}
		sb.WriteString(a.String())
		sb.WriteString("\n")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// Data dumps the data segment as little-endian words. A trailing partial word is
// padded with zero bytes.
func Data(w io.Writer, data []byte) error {
	var sb strings.Builder
	sb.WriteString("/* Data Segment */\n")
	for i := 0; i < len(data); i += 4 {
		var b [4]byte
		copy(b[:], data[i:])
		fmt.Fprintf(&sb, "0x%08x   %02x %02x %02x %02x    0x%x\n", i, b[0], b[1], b[2], b[3], binary.LittleEndian.Uint32(b[:]))
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// Lit dumps the literal segment. Addresses continue from the end of the data segment.
// Printable runs are quoted, a NUL or the end of the segment ends a line, and any other
// unprintable byte is shown as bare hex between the runs around it.
func Lit(w io.Writer, lit []byte, base int) error {
	var sb strings.Builder
	sb.WriteString("/* Lit Segment */\n")
	for off := 0; off < len(lit); {
		fmt.Fprintf(&sb, "0x%08x ", base+off)
		var run []byte
		i := off
		for ; i < len(lit) && lit[i] != 0; i++ {
			c := lit[i]
			switch {
			case c == '\n' || c == '\t' || analysis.IsPrintable(c):
				run = append(run, c)
			default:
				if len(run) > 0 {
					fmt.Fprintf(&sb, " \"%s\"", analysis.EscapeString(run))
					run = run[:0]
				}
				fmt.Fprintf(&sb, " 0x%x", c)
			}
		}
		fmt.Fprintf(&sb, " \"%s\"\n", analysis.EscapeString(run))
		off = i + 1
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// FuncHashes prints one `<ordinal> <code offset> <hash>` line per function.
func FuncHashes(w io.Writer, hashes []analysis.FuncHash) error {
	var sb strings.Builder
	for _, h := range hashes {
		fmt.Fprintf(&sb, "%08x %08x %s\n", h.Entry, h.Offset, h.Hash)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// HashMap prints `0x<ordinal> <name> <hash>` lines.
func HashMap(w io.Writer, entries []symbols.HashEntry) error {
	var sb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&sb, "0x%x %s %s\n", e.Entry, e.Name, e.Hash)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
