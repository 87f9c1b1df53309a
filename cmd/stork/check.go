package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stork-lang/stork/internal/store"
)

func newCheckCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "check PATH...",
		Short: "Type and effect check source files",
		Long: `Compiles every .stork file named or found beneath the named directories
and reports diagnostics. Files are compiled together, so they may use
one another by module name.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := findSources(args)
			if err != nil {
				return err
			}
			p, err := g.compile(files, store.Builtins{}, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d modules, %d systems\n", len(p.paths), len(p.ix.Systems()))
			return nil
		},
	}
}
