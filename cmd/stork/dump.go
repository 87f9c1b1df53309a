package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/stork-lang/stork/internal/parser"
	"github.com/stork-lang/stork/internal/pretty"
	"github.com/stork-lang/stork/internal/store"
	"github.com/stork-lang/stork/internal/syntax"
)

func newDumpCommand(g *globals) *cobra.Command {
	var flags struct {
		cst     bool
		trivia  bool
		types   bool
		effects bool
	}
	cmd := &cobra.Command{
		Use:   "dump FILE...",
		Short: "Print the syntax tree or the resolved IR of source files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if flags.cst {
				for _, file := range args {
					src, err := os.ReadFile(file)
					if err != nil {
						return err
					}
					root, diags := parser.Parse(string(src), parser.WithFilename(file))
					fmt.Fprint(out, syntax.Dump(root, flags.trivia))
					if len(diags) > 0 {
						fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d syntax errors\n", file, len(diags))
					}
				}
				return nil
			}

			p, err := g.compile(args, store.Builtins{}, out, cmd.ErrOrStderr())
			if p == nil {
				return err
			}
			pr := pretty.New(p.ix.Modules(), p.ix.Cache())
			pr.Types = flags.types
			pr.Effects = flags.effects
			for _, path := range p.paths {
				m, ok := p.ix.Modules().Lookup(path)
				if !ok {
					return errors.Errorf("module %s not loaded", path)
				}
				if err := pr.Module(out, m); err != nil {
					return err
				}
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&flags.cst, "cst", false, "print the concrete syntax tree instead of the IR")
	cmd.Flags().BoolVar(&flags.trivia, "trivia", false, "include whitespace and comments in the syntax tree")
	cmd.Flags().BoolVar(&flags.types, "types", true, "annotate IR nodes with their types")
	cmd.Flags().BoolVar(&flags.effects, "effects", true, "annotate IR nodes with their access sets")
	return cmd
}
