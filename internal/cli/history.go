package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/houndview/pkg/explore"
	"github.com/matzehuels/houndview/pkg/params"
	"github.com/matzehuels/houndview/pkg/session"
)

func (c *CLI) historyCommand() *cobra.Command {
	var clear bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the locations in the navigation history",
		Long: `List the locations in the navigation history, oldest first. The last
line is the current location.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.sessions()
			if err != nil {
				return err
			}
			if clear {
				if err := store.Reset(cmd.Context()); err != nil {
					return err
				}
				printSuccess("History cleared")
				return nil
			}
			sess, err := store.Load(cmd.Context())
			if err != nil {
				return err
			}
			if sess.Location == "" {
				printInfo("History is empty")
				return nil
			}
			w := cmd.OutOrStdout()
			for i, loc := range sess.History {
				fmt.Fprintf(w, "%3d  %s\n", len(sess.History)-i, describeLocation(loc))
			}
			fmt.Fprintf(w, "%3s  %s\n", "*", describeLocation(sess.Location))
			return nil
		},
	}
	cmd.Flags().BoolVar(&clear, "clear", false, "forget every recorded location")
	return cmd
}

// describeLocation summarizes an encoded location on one line.
func describeLocation(loc string) string {
	st, err := params.ParseQuery(loc)
	if err != nil {
		return loc
	}
	d := explore.Route(st)
	switch st.SearchType() {
	case params.SearchTypeNode:
		return fmt.Sprintf("node %s", st.Primary().Value())
	case params.SearchTypePathfinding:
		s := fmt.Sprintf("path %s %s %s", st.Primary().Value(), iconArrow, st.Secondary().Value())
		if _, ok := st.PathFilters(); ok {
			s += StyleDim.Render(" (filtered)")
		}
		return s
	case params.SearchTypeCypher:
		q, _, err := st.CypherQuery()
		if err != nil {
			return "cypher " + StyleWarning.Render("(undecodable)")
		}
		return "cypher " + truncate(q, 60)
	}
	if d.Enabled {
		return d.Key.String()
	}
	return StyleDim.Render(loc)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func (c *CLI) backCommand() *cobra.Command {
	var (
		out       outputOptions
		printOnly bool
	)
	cmd := &cobra.Command{
		Use:   "back",
		Short: "Return to the previous location and run it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.sessions()
			if err != nil {
				return err
			}
			sess, err := store.Load(ctx)
			if err != nil {
				return err
			}
			st, err := sess.Back(time.Now())
			if err == session.ErrNoHistory {
				printInfo("Already at the oldest location")
				return nil
			}
			if err != nil {
				return err
			}
			if err := store.Save(ctx, sess); err != nil {
				return err
			}
			if printOnly {
				fmt.Fprintln(cmd.OutOrStdout(), c.locationURL(st))
				return nil
			}
			if err := out.validate(); err != nil {
				return err
			}
			return c.execute(cmd, explore.Route(st), &out)
		},
	}
	out.register(cmd, cmd.Flags(), FormatTable)
	cmd.Flags().BoolVar(&printOnly, "print", false, "print the location instead of running it")
	return cmd
}
