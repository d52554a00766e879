package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"qvmdis/internal/render"
	"qvmdis/internal/symbols"
)

var hmapCmd = &cobra.Command{
	Use:   "hmap [map] [file]",
	Short: "Build a function hash map from a linker map",
	Long: `Hash every function of the image and pair the hashes with the function names
of the linker map. The result names functions of other builds that contain the same
code, through the --hmap flag.`,
	Example: `
# Build a hash map and use it on a stripped build
qvmdis hmap cgame.map cgame.qvm -o cgame.hmap
qvmdis --hmap cgame.hmap other/cgame.qvm
  `,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		mapPath, qvmPath := args[0], args[1]

		opts, err := resolveOptions(cmd)
		if err != nil {
			return err
		}
		opts.mapFile, opts.syscallFile, opts.hashMapFile = "", "", ""
		s, err := openSession(qvmPath, opts)
		if err != nil {
			return err
		}

		f, err := os.Open(mapPath)
		if err != nil {
			return err
		}
		defer f.Close()
		entries, err := symbols.ParseMap(f)
		if err != nil {
			return fmt.Errorf("%s: %w", mapPath, err)
		}
		hm := symbols.BuildHashMap(symbols.FunctionsFromMap(entries), s.hashes)
		slog.Debug("Built hash map", "functions", len(s.hashes), "named", len(hm))

		var w io.Writer = cmd.OutOrStdout()
		if out, _ := cmd.Flags().GetString("output"); out != "" {
			of, err := os.Create(out)
			if err != nil {
				return err
			}
			defer of.Close()
			w = of
		}
		return render.HashMap(w, hm)
	},
}

func init() {
	hmapCmd.Flags().StringP("output", "o", "", "Write the hash map to this file")
}
