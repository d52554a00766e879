package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"qvmdis/internal/analysis"
	"qvmdis/internal/disasm"
	"qvmdis/internal/qvm"
	"qvmdis/internal/qvmdis/config"
	"qvmdis/internal/symbols"
)

// options are the symbol sources and checks shared by every command that opens an image.
type options struct {
	mapFile     string
	syscallFile string
	hashMapFile string
	strict      bool
	color       bool
}

// session is an image decoded and annotated once, then rendered by the commands.
type session struct {
	image   *qvm.Image
	code    disasm.Stream
	names   *symbols.Table
	hashes  []analysis.FuncHash
	listing []analysis.AnnotatedInst
}

// loadConfig reads --config, or qvmdis.toml from the working directory when present.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return config.Load(path)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return config.LoadDefault(cwd)
}

// resolveOptions merges qvmdis.toml with the command line; flags win.
func resolveOptions(cmd *cobra.Command) (options, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return options{}, err
	}

	opts := options{
		mapFile:     cfg.Map,
		syscallFile: cfg.Syscalls,
		hashMapFile: cfg.HashMap,
		strict:      cfg.Strict,
		color:       cfg.ColorEnabled(),
	}
	flags := cmd.Flags()
	if flags.Changed("map") {
		opts.mapFile, _ = flags.GetString("map")
	}
	if flags.Changed("syscalls") {
		opts.syscallFile, _ = flags.GetString("syscalls")
	}
	if flags.Changed("hmap") {
		opts.hashMapFile, _ = flags.GetString("hmap")
	}
	if flags.Changed("strict") {
		opts.strict, _ = flags.GetBool("strict")
	}
	if noColor, _ := flags.GetBool("no-color"); noColor || plainOutput {
		opts.color = false
	}
	return opts, nil
}

// openSession loads, checks, decodes and annotates the image at path.
func openSession(path string, opts options) (*session, error) {
	im, err := qvm.Open(path)
	if err != nil {
		return nil, err
	}
	slog.Debug("Parsed header",
		"file", path,
		"instructions", im.Header.InstructionCount,
		"code", im.Header.CodeLength,
		"data", im.Header.DataLength,
		"lit", im.Header.LitLength,
		"bss", im.Header.BSSLength)

	if opts.strict {
		if err := im.Validate(im.Size); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	code, err := disasm.DecodeImage(im)
	if err != nil {
		if disasm.IsDecodeError(err) {
			slog.Debug("Decoding stopped", "file", path, "decoded", len(code))
		}
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	s := &session{image: im, code: code, names: symbols.New()}
	if opts.mapFile != "" {
		if err := s.names.LoadMap(opts.mapFile); err != nil {
			return nil, err
		}
	}
	if opts.syscallFile != "" {
		if err := s.names.LoadSyscalls(opts.syscallFile); err != nil {
			return nil, err
		}
	}
	s.hashes = analysis.HashFunctions(code)
	if opts.hashMapFile != "" {
		added, err := s.names.LoadHashMap(opts.hashMapFile, s.hashes)
		if err != nil {
			return nil, err
		}
		slog.Debug("Named functions by hash", "file", opts.hashMapFile, "count", added)
	}
	slog.Debug("Loaded symbols", "count", s.names.Len())

	s.listing = analysis.Classify(im, code, s.names)
	return s, nil
}

// functionListing returns the annotated instructions of f.
func (s *session) functionListing(f analysis.FuncHash) []analysis.AnnotatedInst {
	end := f.Entry + f.Size
	if end > len(s.listing) {
		end = len(s.listing)
	}
	return s.listing[f.Entry:end]
}
