package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"qvmdis/internal/qvmdis/log"
	"qvmdis/internal/render"
	"qvmdis/internal/ui/colorize"
)

func init() {
	rootCmd.PersistentFlags().String("map", "", "q3asm linker map naming functions and data")
	rootCmd.PersistentFlags().String("syscalls", "", "q3asm syscall table (equ lines)")
	rootCmd.PersistentFlags().String("hmap", "", "Function hash map naming functions by content")
	rootCmd.PersistentFlags().Bool("strict", false, "Check segment layout against the file size")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ./qvmdis.toml)")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable syntax highlighting")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug")

	rootCmd.Flags().BoolP("help", "h", false, "Help")
	rootCmd.Flags().Bool("header", false, "Print the header report")
	rootCmd.Flags().Bool("code", false, "Print the code listing")
	rootCmd.Flags().Bool("data", false, "Print the data segment")
	rootCmd.Flags().Bool("lit", false, "Print the literal segment")
	rootCmd.Flags().Bool("func-hash", false, "Print one hash line per function")
	rootCmd.Flags().String("cpuprofile", "", "Write CPU profile to file")

	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(hmapCmd)
	rootCmd.AddCommand(normalizeCmd)
}

var rootCmd = &cobra.Command{
	Use:   "qvmdis [file]",
	Short: "Quake 3 virtual machine disassembler",
	Long: `qvmdis parses .qvm bytecode containers and prints an annotated disassembly.
Constants are classified as string pointers, data pointers, call targets or plain
literals, and named from optional linker maps, syscall tables and hash maps.`,
	Example: `
# Print header, code, data and literal listings
qvmdis cgame.qvm

# Code only, with names from the linker map
qvmdis --code --map cgame.map cgame.qvm

# Function hashes for building a hash map
qvmdis --func-hash cgame.qvm
  `,
	Args: cobra.ExactArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		debug, _ := cmd.Flags().GetBool("debug")
		if !cmd.Flags().Changed("debug") {
			if cfg, err := loadConfig(cmd); err == nil {
				debug = cfg.Debug
			}
		}
		log.Setup(debug)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cpuprofile, _ := cmd.Flags().GetString("cpuprofile")
		if cpuprofile != "" {
			f, err := os.Create(cpuprofile)
			if err != nil {
				return fmt.Errorf("could not create CPU profile: %v", err)
			}
			defer f.Close()
			if err := pprof.StartCPUProfile(f); err != nil {
				return fmt.Errorf("could not start CPU profile: %v", err)
			}
			defer pprof.StopCPUProfile()
		}

		opts, err := resolveOptions(cmd)
		if err != nil {
			return err
		}
		s, err := openSession(args[0], opts)
		if err != nil {
			return err
		}

		var m modes
		m.header, _ = cmd.Flags().GetBool("header")
		m.code, _ = cmd.Flags().GetBool("code")
		m.data, _ = cmd.Flags().GetBool("data")
		m.lit, _ = cmd.Flags().GetBool("lit")
		m.funcHash, _ = cmd.Flags().GetBool("func-hash")
		if m.none() {
			m = modes{header: true, code: true, data: true, lit: true}
		}
		return runListing(cmd.OutOrStdout(), s, m, opts.color)
	},
}

// modes selects the listings printed by the root command.
type modes struct {
	header, code, data, lit, funcHash bool
}

func (m modes) none() bool {
	return !m.header && !m.code && !m.data && !m.lit && !m.funcHash
}

// runListing writes the selected listings in header, code, data, lit, hash order.
func runListing(w io.Writer, s *session, m modes, color bool) error {
	var sb strings.Builder
	steps := []struct {
		on  bool
		run func(io.Writer) error
	}{
		{m.header, func(w io.Writer) error { return render.Header(w, s.image.Header) }},
		{m.code, func(w io.Writer) error { return render.Code(w, s.listing) }},
		{m.data, func(w io.Writer) error { return render.Data(w, s.image.Data) }},
		{m.lit, func(w io.Writer) error { return render.Lit(w, s.image.Lit, len(s.image.Data)) }},
		{m.funcHash, func(w io.Writer) error { return render.FuncHashes(w, s.hashes) }},
	}
	first := true
	for _, st := range steps {
		if !st.on {
			continue
		}
		if !first {
			sb.WriteString("\n")
		}
		first = false
		if err := st.run(&sb); err != nil {
			return err
		}
	}

	out := sb.String()
	if color && colorize.Enabled() {
		if hl, err := colorize.Listing(out); err == nil {
			out = hl
		}
	}
	_, err := io.WriteString(w, out)
	return err
}

// plainOutput is set when stdout is not a terminal; listings are then never highlighted.
var plainOutput bool

func Execute() {
	// Plain cobra when piped so fang's styled help and errors stay out of captured output.
	if !term.IsTerminal(os.Stdout.Fd()) {
		plainOutput = true
		if err := rootCmd.Execute(); err != nil {
			os.Exit(1)
		}
		return
	}

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}
