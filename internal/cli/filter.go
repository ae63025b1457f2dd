package cli

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/houndview/pkg/edgefilter"
	"github.com/matzehuels/houndview/pkg/explore"
	"github.com/matzehuels/houndview/pkg/params"
)

func (c *CLI) filterCommand() *cobra.Command {
	var (
		include, exclude []string
		reset, list, run bool
		out              outputOptions
	)
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Edit the edge types pathfinding may traverse",
		Long: `Edit the edge types pathfinding may traverse.

Without flags an interactive editor opens. The result is committed to
the current location in the navigation history; pass --run to repeat the
current pathfinding search with the new filter.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			current, err := c.currentLocation(ctx)
			if err != nil {
				return err
			}
			if list {
				writeFilterList(cmd.OutOrStdout(), edgefilter.Committed(current))
				return nil
			}

			var next params.State
			switch {
			case reset:
				next = edgefilter.Commit(current, edgefilter.NewTree())
			case len(include) > 0 || len(exclude) > 0:
				if next, err = applyEdgeFlags(current, include, exclude); err != nil {
					return err
				}
			default:
				editor := edgefilter.Open(current)
				final, err := tea.NewProgram(NewFilterModel(editor), tea.WithContext(ctx)).Run()
				if err != nil {
					return err
				}
				if fm, ok := final.(FilterModel); !ok || !fm.Applied {
					printDetail("Filter unchanged")
					return nil
				}
				next = editor.Apply(current)
			}

			if next.Equal(current) {
				printDetail("Filter unchanged")
				return nil
			}
			c.remember(ctx, next)
			describeFilter(edgefilter.Committed(next))

			if !run {
				return nil
			}
			if next.SearchType() != params.SearchTypePathfinding {
				printWarning("Current location is not a pathfinding search; nothing to run")
				return nil
			}
			if err := out.validate(); err != nil {
				return err
			}
			return c.execute(cmd, explore.Route(next), &out)
		},
	}
	f := cmd.Flags()
	f.StringSliceVar(&include, "include", nil, "select exactly these edge types")
	f.StringSliceVar(&exclude, "exclude", nil, "deselect these edge types")
	f.BoolVar(&reset, "reset", false, "restore the default selection")
	f.BoolVar(&list, "list", false, "print the current selection")
	f.BoolVar(&run, "run", false, "re-run the current pathfinding search")
	cmd.MarkFlagsMutuallyExclusive("include", "exclude", "reset", "list")
	_ = cmd.RegisterFlagCompletionFunc("include", completeEdgeTypes)
	_ = cmd.RegisterFlagCompletionFunc("exclude", completeEdgeTypes)
	out.register(cmd, f, FormatTable)
	return cmd
}

func describeFilter(t edgefilter.Tree) {
	if t.IsDefault() {
		printSuccess("Edge filter reset to the default selection")
		return
	}
	printSuccess("Edge filter updated: %d of %d edge types selected", len(t.Selected()), len(t.Leaves()))
	printDetail("relationship_kinds=%s", edgefilter.PathFilter(t.Selected()))
}

// writeFilterList prints the selection as an indented checklist.
func writeFilterList(w io.Writer, t edgefilter.Tree) {
	for _, c := range t.Visible("") {
		fmt.Fprintf(w, "%s %s\n", checkbox(c.State.Checked, c.State.Indeterminate), c.Name)
		for _, s := range c.Subcategories {
			fmt.Fprintf(w, "  %s %s\n", checkbox(s.State.Checked, s.State.Indeterminate), s.Name)
			for _, l := range s.Leaves {
				fmt.Fprintf(w, "    %s %s\n", checkbox(l.Checked, false), l.EdgeType)
			}
		}
	}
}
