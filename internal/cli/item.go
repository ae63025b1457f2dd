package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/houndview/pkg/itemid"
)

func (c *CLI) itemCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Inspect graph item identifiers",
	}
	cmd.AddCommand(c.itemDecodeCommand())
	cmd.AddCommand(c.itemFetchCommand())
	return cmd
}

// itemJSON is the machine-readable form of a decoded id.
type itemJSON struct {
	Raw      string          `json:"raw"`
	Type     itemid.ItemType `json:"type"`
	Form     string          `json:"form"`
	NodeID   string          `json:"nodeId,omitempty"`
	SourceID string          `json:"sourceId,omitempty"`
	EdgeType string          `json:"edgeType,omitempty"`
	TargetID string          `json:"targetId,omitempty"`
	EdgeKey  string          `json:"edgeKey,omitempty"`
	Cypher   string          `json:"cypher"`
}

func (c *CLI) itemDecodeCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "decode <item-id>...",
		Short: "Show how item ids are interpreted",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			for i, raw := range args {
				d := itemid.Decode(raw)
				if asJSON {
					if err := json.NewEncoder(w).Encode(toItemJSON(d)); err != nil {
						return err
					}
					continue
				}
				if i > 0 {
					fmt.Fprintln(w)
				}
				writeDecoded(w, d)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print one JSON object per id")
	return cmd
}

func toItemJSON(d itemid.Decoded) itemJSON {
	return itemJSON{
		Raw:      d.Raw,
		Type:     d.Type(),
		Form:     d.Form.String(),
		NodeID:   d.NodeID,
		SourceID: d.SourceID,
		EdgeType: d.EdgeType,
		TargetID: d.TargetID,
		EdgeKey:  d.EdgeKey,
		Cypher:   d.CypherQuery,
	}
}

func writeDecoded(w io.Writer, d itemid.Decoded) {
	kv := func(k, v string) {
		if v != "" {
			fmt.Fprintf(w, "%-10s %s\n", k, v)
		}
	}
	kv("id", d.Raw)
	kv("form", d.Form.String())
	kv("node", d.NodeID)
	kv("source", d.SourceID)
	kv("edge type", d.EdgeType)
	kv("target", d.TargetID)
	kv("edge key", d.EdgeKey)
	kv("cypher", d.CypherQuery)
}

func (c *CLI) itemFetchCommand() *cobra.Command {
	var out outputOptions
	cmd := &cobra.Command{
		Use:   "fetch <item-id>",
		Short: "Load a single node or edge from the graph database",
		Long: `Load a single node or edge from the graph database configured under
[neo4j], using the cypher query its id decodes to.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := out.validate(); err != nil {
				return err
			}
			ctx := cmd.Context()
			db, err := c.openGraphDB(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if err := db.Close(context.WithoutCancel(ctx)); err != nil {
					c.Logger.Debug("close graph database", "err", err)
				}
			}()

			spinner := newSpinner(ctx, "Fetching "+args[0]+"...")
			spinner.Start()
			prog := newProgress(c.Logger)
			g, err := db.FetchItem(ctx, args[0])
			spinner.Stop()
			if err != nil {
				return err
			}
			prog.done("item fetched", "id", args[0], "nodes", len(g.Nodes))
			return out.write(ctx, cmd.OutOrStdout(), g)
		},
	}
	out.register(cmd, cmd.Flags(), FormatJSON)
	return cmd
}
