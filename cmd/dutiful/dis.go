package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/licshee/dutiful/ir"
)

func newDisCmd() *cobra.Command {
	var typeName string

	cmd := &cobra.Command{
		Use:   "dis <module>",
		Short: "Disassemble a module image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mod, err := ir.LoadImage(args[0])
			if err != nil {
				return err
			}

			if typeName == "" {
				printf(cmd, "%s", mod.DisassembleModule())
				return nil
			}
			t := mod.LookupType(typeName)
			if t == nil {
				return fmt.Errorf("type %s not found in %s", typeName, mod.Name)
			}
			printf(cmd, "%s", mod.DisassembleType(t))
			return nil
		},
	}

	cmd.Flags().StringVarP(&typeName, "type", "t", "", "Only disassemble this type (full name)")
	return cmd
}
