package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

type Deps struct {
	sk *SchemaKit

	Direct   bool
	Relative bool
}

func NewDeps(sk *SchemaKit) *cobra.Command {
	d := &Deps{sk: sk}
	cmd := &cobra.Command{
		Use:   "deps FILE",
		Short: "List the dependency closure of a schema document",
		Args:  cobra.ExactArgs(1),
		RunE:  d.Run,
	}
	cmd.Flags().BoolVar(&d.Direct, "direct", false, "list only the direct dependencies")
	cmd.Flags().BoolVar(&d.Relative, "relative", false, "print paths relative to the root document's directory")
	return cmd
}

func (d *Deps) Run(cmd *cobra.Command, args []string) error {
	reg := d.sk.registry()
	doc, err := reg.Load(args[0])
	if err != nil {
		return err
	}
	deps := doc.Dependencies()
	if d.Direct {
		deps = doc.DirectDependencies()
	}
	if d.Relative {
		for i, p := range deps {
			if rel, err := filepath.Rel(reg.BaseDir(), p); err == nil {
				deps[i] = rel
			}
		}
	}

	out := cmd.OutOrStdout()
	return d.sk.print(out, map[string]any{"document": doc.Path(), "dependencies": deps}, func() error {
		for _, p := range deps {
			fmt.Fprintln(out, p)
		}
		return nil
	})
}
