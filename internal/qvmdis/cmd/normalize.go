package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"qvmdis/internal/analysis"
	"qvmdis/internal/disasm"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize [file]",
	Short: "Write the re-serialized code stream",
	Long: `Decode the code segment and serialize it again. The output drops any padding
after the last instruction, so two images with the same code produce the same bytes.
Without --output the SHA-256 of the stream is printed.`,
	Example: `
# Print the digest of the code stream
qvmdis normalize cgame.qvm

# Write the normalized code to a file
qvmdis normalize -o cgame.code cgame.qvm
  `,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := resolveOptions(cmd)
		if err != nil {
			return err
		}
		// Names do not change the stream.
		opts.mapFile, opts.syscallFile, opts.hashMapFile = "", "", ""
		s, err := openSession(args[0], opts)
		if err != nil {
			return err
		}

		out, _ := cmd.Flags().GetString("output")
		if out == "" {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", analysis.StreamDigest(s.code), args[0])
			return nil
		}
		code := disasm.Serialize(s.code)
		if err := os.WriteFile(out, code, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		slog.Info("Wrote code stream", "file", out, "bytes", len(code), "instructions", len(s.code))
		return nil
	},
}

func init() {
	normalizeCmd.Flags().StringP("output", "o", "", "Write the serialized stream to this file")
}
