package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/houndview/pkg/graph"
)

func (c *CLI) exportCommand() *cobra.Command {
	var out outputOptions
	cmd := &cobra.Command{
		Use:   "export <graph.json>",
		Short: "Convert a saved graph to another format",
		Long: `Convert a saved graph to another format.

The input may be a graph written with --format json, or a raw API
response in either graph shape. Use "-" to read standard input.`,
		Example: `  houndview search node admin -f json -o admin.json
  houndview export admin.json -f svg -o admin.svg
  houndview search path alice dc01 -f json | houndview export - -f dot`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := out.validate(); err != nil {
				return err
			}
			var (
				g   graph.GraphData
				err error
			)
			if args[0] == "-" {
				g, err = graph.ReadGraph(cmd.InOrStdin())
			} else {
				g, err = graph.ReadGraphFile(args[0])
			}
			if err != nil {
				return err
			}
			stats := graph.Stats(g)
			c.Logger.Debug("graph loaded", "nodes", stats.Nodes, "edges", stats.Edges, "dangling", stats.Dangling)
			return out.write(cmd.Context(), cmd.OutOrStdout(), g)
		},
	}
	out.register(cmd, cmd.Flags(), FormatSVG)
	return cmd
}
