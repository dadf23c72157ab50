package main

import (
	"github.com/spf13/cobra"

	"github.com/licshee/dutiful/gosrc"
	"github.com/licshee/dutiful/ir"
)

func newImportCmd() *cobra.Command {
	var (
		outputPath string
		include    []string
	)

	cmd := &cobra.Command{
		Use:   "import <go-package>",
		Short: "Build a module image from a Go package's API",
		Example: `  dutiful import strings
  dutiful import encoding/json --include Decoder,Encoder -o json.dtm`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter map[string]bool
			if len(include) > 0 {
				filter = make(map[string]bool, len(include))
				for _, name := range include {
					filter[name] = true
				}
			}

			mod, err := gosrc.Import(args[0], filter)
			if err != nil {
				return err
			}

			output := outputPath
			if output == "" {
				output = gosrc.ImageFileName(args[0])
			}
			if err := ir.SaveImage(output, mod); err != nil {
				return err
			}
			printf(cmd, "Imported %d types from %s into %s\n", len(mod.Types()), args[0], output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output image path")
	cmd.Flags().StringSliceVar(&include, "include", nil, "Only import these type names")
	return cmd
}
