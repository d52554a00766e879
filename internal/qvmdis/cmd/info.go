package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"qvmdis/internal/analysis"
	"qvmdis/internal/qvmdis/styles"
	"qvmdis/internal/render"
)

var infoCmd = &cobra.Command{
	Use:   "info [file]",
	Short: "Summarize the container header",
	Long:  "Print the header fields, segment layout, checksum and function counts of an image.",
	Example: `
qvmdis info cgame.qvm
  `,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := resolveOptions(cmd)
		if err != nil {
			return err
		}
		s, err := openSession(args[0], opts)
		if err != nil {
			return err
		}

		md := infoMarkdown(args[0], s)
		if !opts.color || !term.IsTerminal(os.Stdout.Fd()) {
			fmt.Fprint(cmd.OutOrStdout(), md)
			return nil
		}

		width := 80
		if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
			width = w
		}
		out, err := styles.GetMarkdownRenderer(width - 2).Render(md)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

// infoMarkdown describes an opened image as markdown for glamour.
func infoMarkdown(path string, s *session) string {
	h := s.image.Header
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", filepath.Base(path))
	fmt.Fprintf(&sb, "- **size** %d bytes\n", s.image.Size)
	fmt.Fprintf(&sb, "- **crc32** `0x%08x`\n", s.image.CRC32)
	fmt.Fprintf(&sb, "- **code digest** `%s`\n\n", analysis.StreamDigest(s.code))

	sb.WriteString("## Header\n\n")
	sb.WriteString("| field | offset | length |\n|---|---|---|\n")
	fmt.Fprintf(&sb, "| instructions | | %d |\n", h.InstructionCount)
	fmt.Fprintf(&sb, "| code | 0x%08x | %d |\n", h.CodeOffset, h.CodeLength)
	fmt.Fprintf(&sb, "| data | 0x%08x | %d |\n", h.DataOffset, h.DataLength)
	fmt.Fprintf(&sb, "| lit | 0x%08x | %d |\n", h.LitOffset(), h.LitLength)
	fmt.Fprintf(&sb, "| bss | 0x%08x | %d |\n\n", h.BSSOffset(), h.BSSLength)

	sb.WriteString("## Layout\n\n```\n")
	sb.WriteString(render.Layout(s.image))
	sb.WriteString("```\n\n")

	named := 0
	for _, f := range s.hashes {
		if _, ok := s.names.Function(int32(f.Entry)); ok {
			named++
		}
	}
	var strs, data, calls int
	for _, a := range s.listing {
		switch {
		case a.Operand.Kind == analysis.KindString:
			strs++
		case a.Operand.Kind == analysis.KindData:
			data++
		case a.Operand.Kind.IsCall():
			calls++
		}
	}
	sb.WriteString("## Functions\n\n")
	fmt.Fprintf(&sb, "- %d functions, %d named\n", len(s.hashes), named)
	fmt.Fprintf(&sb, "- %d syscall names\n", len(s.names.SyscallNames))
	fmt.Fprintf(&sb, "- %d string, %d data and %d call constants\n", strs, data, calls)
	return sb.String()
}
