// Package graphdb fetches single graph items straight from the Neo4j
// store backing the API.
//
// Item ids are decoded with [itemid.Decode]; the decoded cypher query is
// run through the official driver and its nodes, relationships and paths
// are converted into canonical [graph.GraphData]. Edge keys follow
// [itemid.EdgeKey], so items fetched here line up with graphs returned
// by the REST transport.
//
// # Usage
//
//	f, err := graphdb.Open(ctx, graphdb.Options{URI: "neo4j://localhost:7687", User: "neo4j", Password: pw})
//	if err != nil {
//	    return err
//	}
//	defer f.Close(ctx)
//	g, err := f.FetchItem(ctx, "12_MemberOf_40")
package graphdb

import (
	"context"
	"fmt"
	"strconv"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/matzehuels/houndview/pkg/errors"
	"github.com/matzehuels/houndview/pkg/graph"
	"github.com/matzehuels/houndview/pkg/itemid"
)

// DefaultDatabase is used when Options.Database is empty.
const DefaultDatabase = "neo4j"

// Runner executes a cypher query and buffers every record.
type Runner interface {
	Run(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error)
}

// Options configures [Open].
type Options struct {
	URI      string
	User     string
	Password string
	Database string
}

// driverRunner runs queries through a driver against one database.
type driverRunner struct {
	driver   neo4j.DriverWithContext
	database string
}

func (r driverRunner) Run(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error) {
	return neo4j.ExecuteQuery(ctx, r.driver, query, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(r.database),
		neo4j.ExecuteQueryWithReadersRouting())
}

// Fetcher resolves item ids against the graph store.
type Fetcher struct {
	runner Runner
	close  func(context.Context) error
}

// New wraps an existing runner.
func New(r Runner) *Fetcher {
	return &Fetcher{runner: r, close: func(context.Context) error { return nil }}
}

// Open connects to Neo4j and verifies connectivity.
func Open(ctx context.Context, opts Options) (*Fetcher, error) {
	if opts.URI == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "neo4j uri is required")
	}
	db := opts.Database
	if db == "" {
		db = DefaultDatabase
	}
	driver, err := neo4j.NewDriverWithContext(opts.URI, neo4j.BasicAuth(opts.User, opts.Password, ""))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "create neo4j driver")
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to %s", opts.URI)
	}
	return &Fetcher{
		runner: driverRunner{driver: driver, database: db},
		close:  driver.Close,
	}, nil
}

// Close releases the driver.
func (f *Fetcher) Close(ctx context.Context) error { return f.close(ctx) }

// FetchItem loads the node or edge named by itemID. Ids whose numeric
// parts do not parse are rejected before anything reaches the store.
func (f *Fetcher) FetchItem(ctx context.Context, itemID string) (graph.GraphData, error) {
	d := itemid.Decode(itemID)
	if err := checkDecoded(d); err != nil {
		return graph.GraphData{}, err
	}
	g, err := f.Query(ctx, d.CypherQuery)
	if err != nil {
		return graph.GraphData{}, err
	}
	if g.IsEmpty() {
		return g, errors.New(errors.ErrCodeNotFound, "item %s not found", itemID)
	}
	return g, nil
}

// Query runs an arbitrary read query and converts its records.
func (f *Fetcher) Query(ctx context.Context, cypher string) (graph.GraphData, error) {
	if err := errors.ValidateCypher(cypher); err != nil {
		return graph.GraphData{}, err
	}
	res, err := f.runner.Run(ctx, cypher, nil)
	if err != nil {
		if ctx.Err() != nil {
			return graph.GraphData{}, ctx.Err()
		}
		return graph.GraphData{}, errors.Wrap(errors.ErrCodeNetwork, err, "run cypher")
	}
	return Convert(res.Records), nil
}

func checkDecoded(d itemid.Decoded) error {
	switch d.Form {
	case itemid.FormEdgeByEndpoints:
		if _, _, ok := d.Endpoints(); !ok {
			return errors.New(errors.ErrCodeInvalidItemID, "edge endpoints of %q are not graph ids", d.Raw)
		}
		if err := errors.ValidateEdgeKind(d.EdgeType); err != nil {
			return err
		}
	case itemid.FormEdgeByKey:
		// The pattern only admits digits.
	default:
		if _, err := strconv.ParseInt(d.NodeID, 10, 64); err != nil {
			return errors.New(errors.ErrCodeInvalidItemID, "node id %q is not a graph id", d.Raw)
		}
	}
	return nil
}

// =============================================================================
// Record conversion
// =============================================================================

// Convert collects every node, relationship and path in records into a
// canonical graph. Relationship endpoints missing from the records are
// added as bare nodes keyed by their internal id.
func Convert(records []*neo4j.Record) graph.GraphData {
	c := converter{g: graph.NewGraphData(), seen: map[string]bool{}}
	for _, rec := range records {
		for _, v := range rec.Values {
			c.value(v)
		}
	}
	for _, e := range c.g.Edges {
		for _, key := range []string{e.Source, e.Target} {
			if _, ok := c.g.Nodes[key]; !ok {
				c.g.Nodes[key] = graph.NodeRecord{Label: key}
			}
		}
	}
	return c.g
}

type converter struct {
	g    graph.GraphData
	seen map[string]bool
}

func (c *converter) value(v any) {
	switch t := v.(type) {
	case neo4j.Node:
		c.node(t)
	case neo4j.Relationship:
		c.relationship(t)
	case neo4j.Path:
		for _, n := range t.Nodes {
			c.node(n)
		}
		for _, r := range t.Relationships {
			c.relationship(r)
		}
	case []any:
		for _, x := range t {
			c.value(x)
		}
	case map[string]any:
		for _, x := range t {
			c.value(x)
		}
	}
}

//nolint:staticcheck // BloodHound addresses items by the legacy integer id.
func (c *converter) node(n neo4j.Node) {
	key := strconv.FormatInt(n.Id, 10)
	tags := joinTags(n.Props["system_tags"])
	tierZero, owned := graph.FlagsFromTags(tags)
	if b, ok := n.Props["isTierZero"].(bool); ok && b {
		tierZero = true
	}
	c.g.Nodes[key] = graph.NodeRecord{
		Label:         nodeLabel(n),
		Kind:          nodeKind(n.Labels),
		ObjectID:      str(n.Props["objectid"]),
		IsTierZero:    tierZero,
		IsOwnedObject: owned,
		LastSeen:      str(n.Props["lastseen"]),
		Properties:    n.Props,
	}
}

//nolint:staticcheck // see node
func (c *converter) relationship(r neo4j.Relationship) {
	src := strconv.FormatInt(r.StartId, 10)
	tgt := strconv.FormatInt(r.EndId, 10)
	key := itemid.EdgeKey(src, r.Type, tgt)
	if c.seen[key] {
		return
	}
	c.seen[key] = true
	c.g.Edges = append(c.g.Edges, graph.EdgeRecord{
		Source:         src,
		Target:         tgt,
		Label:          r.Type,
		Kind:           r.Type,
		LastSeen:       str(r.Props["lastseen"]),
		ImpactPercent:  impact(r.Props["composite_risk_impact_percent"]),
		ExploreGraphID: key,
		Data:           r.Props,
	})
}

// genericLabels are the shared labels every AD or Azure node carries.
var genericLabels = map[string]bool{"Base": true, "AZBase": true}

func nodeKind(labels []string) string {
	for _, l := range labels {
		if !genericLabels[l] {
			return l
		}
	}
	if len(labels) > 0 {
		return labels[0]
	}
	return ""
}

//nolint:staticcheck // see node
func nodeLabel(n neo4j.Node) string {
	for _, k := range []string{"name", "objectid"} {
		if s := str(n.Props[k]); s != "" {
			return s
		}
	}
	return strconv.FormatInt(n.Id, 10)
}

func str(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func joinTags(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		s := ""
		for i, x := range t {
			if i > 0 {
				s += " "
			}
			s += str(x)
		}
		return s
	default:
		return ""
	}
}

func impact(v any) *float64 {
	switch t := v.(type) {
	case float64:
		return &t
	case int64:
		f := float64(t)
		return &f
	}
	return nil
}
