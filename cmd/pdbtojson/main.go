// Command pdbtojson dumps the classes, enums, functions, global variables
// and typedefs of a PDB file to JSON.
//
// Usage:
//
//	pdbtojson [flags] <path-to-pdb> [source-file-prefix]
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jtang613/pdbtojson/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.NewViper()

	cmd := &cobra.Command{
		Use:   "pdbtojson <path-to-pdb> [source-file-prefix]",
		Short: "Dump PDB debug information to JSON",
		Long: "pdbtojson reads a Microsoft PDB file and writes its classes, enums, global functions, " +
			"global variables and typedefs to a JSON document. When a source-file prefix is given, " +
			"symbols declared in files outside it are left out; symbols with no known file are always kept.",
		Args:          cobra.RangeArgs(1, 2),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			if err := config.ReadFile(v); err != nil {
				return report(err)
			}
			cfg, err := config.FromViper(v, args)
			if err != nil {
				return report(err)
			}
			return report(run(cfg))
		},
	}

	flags := cmd.Flags()
	flags.StringP(config.KeyOutput, "o", config.DefaultOutput, "Output JSON file")
	flags.StringSlice(config.KeyExclude, nil, "Gitignore-style pattern of source files to leave out (repeatable)")
	flags.String(config.KeyLogLevel, config.DefaultLogLevel, "Log level: silent, error, warning, info or debug")
	flags.Bool(config.KeyNoProgress, false, "Disable the progress bar")

	v.BindPFlag(config.KeyOutput, flags.Lookup(config.KeyOutput))
	v.BindPFlag(config.KeyExclude, flags.Lookup(config.KeyExclude))
	v.BindPFlag(config.KeyLogLevel, flags.Lookup(config.KeyLogLevel))
	v.BindPFlag(config.KeyNoProgress, flags.Lookup(config.KeyNoProgress))

	return cmd
}
