package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/licshee/dutiful/config"
	"github.com/licshee/dutiful/ir"
	"github.com/licshee/dutiful/weaver"
)

func newWeaveCmd() *cobra.Command {
	var (
		configPath string
		outputPath string
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "weave [module]",
		Short: "Weave dutiful methods into a module image",
		Long: `Weave loads a module image, appends dutiful variants of its eligible
methods and saves the result.

Configuration is read from --config (a dutiful.toml or an XML file holding a
<Dutiful> element) or from the nearest dutiful.toml. The module path defaults
to the manifest's [module] input.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadManifest(configPath)
			if err != nil {
				return err
			}

			input, output := m.InputPath(), m.OutputPath()
			if len(args) == 1 {
				input, output = args[0], args[0]
			}
			if outputPath != "" {
				output = outputPath
			}
			if input == "" {
				return fmt.Errorf("no module given and no [module] input configured")
			}

			mod, err := ir.LoadImage(input)
			if err != nil {
				return err
			}

			report, err := weaver.New(mod, m.Weaver.Rules()).Execute()
			if err != nil {
				return err
			}

			for _, c := range report.Collisions {
				color.New(color.FgYellow).Fprintf(cmd.ErrOrStderr(),
					"Warning: %s already declares %s, skipped\n", c.Type, c.Signature)
			}
			for _, w := range report.Woven {
				printf(cmd, "  %s::%s\n", w.Type, w.Name)
			}
			printf(cmd, "%s\n", report)

			if dryRun {
				return nil
			}
			if err := ir.SaveImage(output, mod); err != nil {
				return err
			}
			printf(cmd, "Wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Configuration file (.toml or .xml)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output image path (default: overwrite the input)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be woven without saving")
	return cmd
}

// loadManifest loads the explicit configuration file, or the nearest
// dutiful.toml, or an empty manifest when neither exists.
func loadManifest(path string) (*config.Manifest, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	m, err := config.FindAndLoad(".")
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", config.ManifestName, err)
	}
	if m == nil {
		m = &config.Manifest{}
	}
	return m, nil
}
