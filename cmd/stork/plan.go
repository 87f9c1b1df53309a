package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stork-lang/stork/internal/access"
	"github.com/stork-lang/stork/internal/compiler"
	"github.com/stork-lang/stork/internal/ir"
	"github.com/stork-lang/stork/internal/schedule"
)

func newPlanCommand(g *globals) *cobra.Command {
	var worldPath string
	cmd := &cobra.Command{
		Use:   "plan FILE...",
		Short: "Print the stages systems would run in",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := readWorld(worldPath)
			if err != nil {
				return err
			}
			host, err := w.Builtins()
			if err != nil {
				return err
			}
			p, err := g.compile(args, host, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			writePlan(cmd.OutOrStdout(), p.ix, schedule.ForIndex(p.ix))
			return nil
		},
	}
	cmd.Flags().StringVar(&worldPath, "world", "", "TOML file declaring host types")
	return cmd
}

func writePlan(w io.Writer, ix *compiler.Index, plan schedule.Plan) {
	for i, stage := range plan.Stages {
		fmt.Fprintf(w, "stage %d\n", i)
		for _, sys := range stage {
			fmt.Fprintf(w, "  %s %s\n", sys, describeAccess(ix, ix.Access(sys.Index)))
		}
	}
}

// describeAccess renders an access set with item names in place of node
// indices.
func describeAccess(ix *compiler.Index, set access.Set) string {
	effects := set.Sorted()
	parts := make([]string, len(effects))
	for i, e := range effects {
		if e.Kind == access.Exclusive || !e.Target.Valid() {
			parts[i] = e.Kind.String()
			continue
		}
		parts[i] = fmt.Sprintf("%s(%s)", e.Kind, itemName(ix, e.Target))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func itemName(ix *compiler.Index, g ir.GlobalIdx) string {
	m := ix.Modules().Module(g.Module)
	id, ok := ir.ItemName(m.Node(g.Index))
	if !ok {
		return g.String()
	}
	if m.Prelude {
		return id.String()
	}
	return compiler.QualifiedName(m.Path, id.String())
}
