package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/houndview/pkg/edgefilter"
	"github.com/matzehuels/houndview/pkg/errors"
	"github.com/matzehuels/houndview/pkg/explore"
	"github.com/matzehuels/houndview/pkg/graph"
	"github.com/matzehuels/houndview/pkg/itemid"
	"github.com/matzehuels/houndview/pkg/params"
	"github.com/matzehuels/houndview/pkg/session"
)

// =============================================================================
// Location builders
// =============================================================================

// locationHandler receives the location a mode subcommand built.
type locationHandler func(cmd *cobra.Command, st params.State) error

// modeCommands returns one subcommand per search mode. Each builds a
// location from its arguments and passes it to handle. search and url
// share them so both accept exactly the same input.
func (c *CLI) modeCommands(handle locationHandler) []*cobra.Command {
	return []*cobra.Command{
		c.nodeModeCommand(handle),
		c.pathModeCommand(handle),
		c.cypherModeCommand(handle),
		c.relationshipModeCommand(handle),
		c.edgeModeCommand(handle, "composition", params.SearchTypeComposition,
			"Show the edges that compose a post-processed edge"),
		c.edgeModeCommand(handle, "acl", params.SearchTypeACLInheritance,
			"Show how an ACL edge is inherited"),
		c.locationModeCommand(handle),
	}
}

func (c *CLI) nodeModeCommand(handle locationHandler) *cobra.Command {
	return &cobra.Command{
		Use:   "node <term>",
		Short: "Search for a node by name or object id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			term := strings.Join(args, " ")
			if err := errors.ValidateSearchTerm(term); err != nil {
				return err
			}
			return handle(cmd, params.State{}.NodeSearch(term))
		},
	}
}

func (c *CLI) pathModeCommand(handle locationHandler) *cobra.Command {
	var include, exclude []string
	cmd := &cobra.Command{
		Use:   "path <start> <end>",
		Short: "Find the shortest paths between two nodes",
		Long: `Find the shortest paths between two nodes.

Without --include or --exclude the edge filter saved in the navigation
history is kept. --include keeps only the listed edge types; --exclude
drops the listed ones from the default selection.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, term := range args {
				if err := errors.ValidateSearchTerm(term); err != nil {
					return err
				}
			}
			base, err := c.currentLocation(cmd.Context())
			if err != nil {
				return err
			}
			st := base.PathSearch(args[0], args[1]).
				WithPanelSelection(params.None()).
				WithExpandedRelationships(nil, false)
			st, err = applyEdgeFlags(st, include, exclude)
			if err != nil {
				return err
			}
			return handle(cmd, st)
		},
	}
	cmd.Flags().StringSliceVar(&include, "include", nil, "edge types to traverse (replaces the filter)")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "edge types to skip")
	cmd.MarkFlagsMutuallyExclusive("include", "exclude")
	_ = cmd.RegisterFlagCompletionFunc("include", completeEdgeTypes)
	_ = cmd.RegisterFlagCompletionFunc("exclude", completeEdgeTypes)
	return cmd
}

// applyEdgeFlags commits an include or exclude list to st.
func applyEdgeFlags(st params.State, include, exclude []string) (params.State, error) {
	if len(include) == 0 && len(exclude) == 0 {
		return st, nil
	}
	for _, t := range append(append([]string{}, include...), exclude...) {
		if !edgefilter.IsKnown(t) {
			return st, errors.New(errors.ErrCodeInvalidEdgeKind, "unknown edge type %q", t)
		}
	}
	tree := edgefilter.NewTree()
	if len(include) > 0 {
		tree = edgefilter.FromSelected(include)
	}
	for _, t := range exclude {
		if isChecked(tree, t) {
			tree = tree.ToggleLeaf(t)
		}
	}
	return edgefilter.Commit(st, tree), nil
}

func isChecked(t edgefilter.Tree, edgeType string) bool {
	for _, l := range t.Leaves() {
		if l.EdgeType == edgeType {
			return l.Checked
		}
	}
	return false
}

func completeEdgeTypes(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return edgefilter.AllEdgeTypes(), cobra.ShellCompDirectiveNoFileComp
}

func (c *CLI) cypherModeCommand(handle locationHandler) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "cypher [query]",
		Short: "Run a cypher query",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var query string
			switch {
			case file != "" && len(args) > 0:
				return errors.New(errors.ErrCodeInvalidInput, "give a query or --file, not both")
			case file != "":
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("read query: %w", err)
				}
				query = string(data)
			case len(args) == 1:
				query = args[0]
			}
			if err := errors.ValidateCypher(query); err != nil {
				return err
			}
			return handle(cmd, params.State{}.CypherSearchFor(query))
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "read the query from a file")
	return cmd
}

func (c *CLI) relationshipModeCommand(handle locationHandler) *cobra.Command {
	return &cobra.Command{
		Use:   "relationship <item-id> <kind> [section]...",
		Short: "Show a relationship section of a node",
		Long: `Show a relationship section of a node.

Sections are given outermost first, as they are expanded in the entity
panel. Without sections the first section of the kind is shown:

  houndview search relationship S-1-5-21-1 User
  houndview search relationship S-1-5-21-1 Domain "Inbound Object Control"
  houndview search relationship 42 Computer "Local Admins" "Direct Members"`,
		Args: cobra.MinimumNArgs(2),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			switch {
			case len(args) == 1:
				return explore.EntityKinds(), cobra.ShellCompDirectiveNoFileComp
			case len(args) >= 2:
				return sectionLabels(args[1]), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, kind, sections := args[0], args[1], args[2:]
			if itemid.Decode(id).IsEdge() {
				return errors.New(errors.ErrCodeInvalidItemID, "%q is an edge; relationships belong to nodes", id)
			}
			tree, ok := explore.Sections(kind)
			if !ok {
				return errors.New(errors.ErrCodeInvalidInput, "unknown entity kind %q (one of %s)",
					kind, strings.Join(explore.EntityKinds(), ", "))
			}
			if len(sections) > 0 {
				if _, ok := tree.FindLeaf(sections[len(sections)-1]); !ok {
					return errors.New(errors.ErrCodeInvalidInput, "%s has no section %q", kind, sections[len(sections)-1])
				}
			}
			st := params.State{}.RelationshipSearch(id, kind, sections...).WithPanelSelection(params.Some(id))
			return handle(cmd, st)
		},
	}
}

// sectionLabels lists every section label of kind, groups included.
func sectionLabels(kind string) []string {
	tree, ok := explore.Sections(kind)
	if !ok {
		return nil
	}
	var labels []string
	tree.Walk(func(s explore.Section) bool {
		labels = append(labels, s.Label)
		return false
	})
	return labels
}

func (c *CLI) edgeModeCommand(handle locationHandler, use string, mode params.SearchType, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <edge-item-id>",
		Short: short,
		Long: short + `.

The edge is addressed by its item id: <source>_<kind>_<target>, with
numeric graph ids, for example 12_ADCSESC1_34.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := itemid.Decode(args[0])
			if _, _, ok := d.Endpoints(); !ok {
				return errors.New(errors.ErrCodeInvalidItemID, "%q is not an edge item id", args[0])
			}
			return handle(cmd, params.State{}.EdgeSearch(mode, args[0]).WithPanelSelection(params.Some(args[0])))
		},
	}
}

func (c *CLI) locationModeCommand(handle locationHandler) *cobra.Command {
	return &cobra.Command{
		Use:   "location <query-string>",
		Short: "Use a raw explore location such as searchType=node&primarySearch=admin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := args[0]
			if _, q, ok := strings.Cut(raw, "?"); ok {
				raw = q
			}
			st, err := params.ParseQuery(raw)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidInput, err, "parse location")
			}
			return handle(cmd, st)
		},
	}
}

// =============================================================================
// search
// =============================================================================

// pageOptions selects the table form of a relationship section.
type pageOptions struct {
	table bool
	skip  int
	limit int
}

func (c *CLI) searchCommand() *cobra.Command {
	var (
		out  outputOptions
		page pageOptions
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Run an explore search",
		Long: `Run an explore search and print the resulting graph.

Every search is remembered in the navigation history, so "houndview back"
returns to the previous one and "houndview history" lists them.`,
	}
	out.register(cmd, cmd.PersistentFlags(), FormatTable)
	cmd.PersistentFlags().BoolVar(&page.table, "table", false, "relationship searches: fetch the section as a table page")
	cmd.PersistentFlags().IntVar(&page.skip, "skip", 0, "table rows to skip")
	cmd.PersistentFlags().IntVar(&page.limit, "limit", explore.DefaultPageLimit, "table rows per page")

	for _, sub := range c.modeCommands(func(cmd *cobra.Command, st params.State) error {
		return c.runSearch(cmd, st, &out, page)
	}) {
		cmd.AddCommand(sub)
	}
	return cmd
}

// runSearch records st in the navigation history and executes it.
func (c *CLI) runSearch(cmd *cobra.Command, st params.State, out *outputOptions, page pageOptions) error {
	if err := out.validate(); err != nil {
		return err
	}
	ctx := cmd.Context()
	c.remember(ctx, st)

	d := explore.Route(st)
	if page.table {
		if st.SearchType() != params.SearchTypeRelationship {
			return errors.New(errors.ErrCodeInvalidInput, "--table applies to relationship searches only")
		}
		d = explore.RouteSectionTable(st, explore.Page{Skip: page.skip, Limit: page.limit})
	}
	return c.execute(cmd, d, out)
}

// execute runs d and prints its result.
func (c *CLI) execute(cmd *cobra.Command, d explore.Descriptor, out *outputOptions) error {
	ctx := cmd.Context()
	if !d.Enabled {
		return errors.New(errors.ErrCodeInvalidInput, "the location does not select a runnable search")
	}
	d = d.WithRetry(c.cfg().Explore.Retry)

	exec, closeCache, err := c.newExecutor(ctx)
	if err != nil {
		return err
	}
	defer closeCache()

	spinner := newSpinner(ctx, fmt.Sprintf("Running %s search...", modeName(d.Mode)))
	spinner.Start()
	prog := newProgress(c.Logger)
	res, err := exec.Execute(ctx, d)
	spinner.Stop()
	if err != nil {
		return describeFailure(err)
	}

	w := cmd.OutOrStdout()
	if res.Table != nil {
		prog.done("section page fetched", "rows", len(res.Table.Data), "cached", res.Cached)
		writeSectionTable(w, res.Table)
		return nil
	}

	stats := graph.Stats(res.Graph)
	prog.done(modeName(d.Mode)+" search done", "nodes", stats.Nodes, "edges", stats.Edges, "cached", res.Cached)
	if stats.Dangling > 0 {
		c.Logger.Warn("result has edges with missing endpoints", "count", stats.Dangling)
	}
	if out.toTerminal() {
		printStats(stats, res.Cached)
	}
	return out.write(ctx, w, res.Graph)
}

// describeFailure turns a query failure into the error shown to the user.
// Cancellation passes through so main can exit quietly.
func describeFailure(err error) error {
	if explore.IsCancellation(err) {
		return err
	}
	var qe *explore.QueryError
	if !stderrors.As(err, &qe) {
		return err
	}
	return errors.Wrap(failureCode(qe.Err), qe.Err, "%s", qe.Message.Text)
}

func failureCode(err error) errors.Code {
	if stderrors.Is(err, explore.ErrEmptyResult) {
		return errors.ErrCodeEmptyResult
	}
	if code := errors.GetCode(err); code != "" {
		return code
	}
	var coded interface{ Code() errors.Code }
	if stderrors.As(err, &coded) {
		return coded.Code()
	}
	return errors.ErrCodeInternal
}

func modeName(m params.SearchType) string {
	switch m {
	case params.SearchTypeACLInheritance:
		return "ACL inheritance"
	case params.SearchTypeNone:
		return "explore"
	}
	return strings.ToLower(string(m))
}

// =============================================================================
// url
// =============================================================================

// explorePath is where the BloodHound UI serves the explore page.
const explorePath = "/ui/explore"

func (c *CLI) urlCommand() *cobra.Command {
	var save bool
	cmd := &cobra.Command{
		Use:   "url",
		Short: "Print the explore page location for a search without running it",
	}
	cmd.PersistentFlags().BoolVar(&save, "save", false, "also record the location in the navigation history")
	for _, sub := range c.modeCommands(func(cmd *cobra.Command, st params.State) error {
		if save {
			c.remember(cmd.Context(), st)
		}
		fmt.Fprintln(cmd.OutOrStdout(), c.locationURL(st))
		return nil
	}) {
		cmd.AddCommand(sub)
	}
	return cmd
}

// locationURL is the explore page URL for st, or just its query string
// when no API URL is configured.
func (c *CLI) locationURL(st params.State) string {
	q := st.Encode()
	base := strings.TrimRight(c.cfg().API.URL, "/")
	if base == "" {
		return "?" + q
	}
	if q == "" {
		return base + explorePath
	}
	return base + explorePath + "?" + q
}

// =============================================================================
// Navigation history
// =============================================================================

// currentLocation returns the location last recorded in the history, or
// the empty location.
func (c *CLI) currentLocation(ctx context.Context) (params.State, error) {
	store, err := c.sessions()
	if err != nil {
		c.Logger.Debug("history unavailable", "err", err)
		return params.State{}, nil
	}
	sess, err := store.Load(ctx)
	if err != nil {
		c.Logger.Debug("history unreadable", "err", err)
		return params.State{}, nil
	}
	return sess.State()
}

// remember records st as the current location. Failures are logged and
// never fail the command.
func (c *CLI) remember(ctx context.Context, st params.State) {
	store, err := c.sessions()
	if err == nil {
		var sess *session.Session
		if sess, err = store.Load(ctx); err == nil {
			sess.Push(st, time.Now())
			err = store.Save(ctx, sess)
		}
	}
	if err != nil {
		c.Logger.Warn("navigation history not saved", "err", err)
	}
}
