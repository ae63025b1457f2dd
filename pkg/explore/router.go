package explore

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/houndview/pkg/edgefilter"
	"github.com/matzehuels/houndview/pkg/graph"
	"github.com/matzehuels/houndview/pkg/itemid"
	"github.com/matzehuels/houndview/pkg/params"
)

// defaultRetry is the number of extra attempts for graph fetches. Cypher
// queries are never retried since the server has already run them.
const defaultRetry = 2

type strategy func(s params.State) Descriptor

var strategies = map[params.SearchType]strategy{
	params.SearchTypeNode:           routeNode,
	params.SearchTypePathfinding:    routePathfinding,
	params.SearchTypeCypher:         routeCypher,
	params.SearchTypeRelationship:   routeRelationship,
	params.SearchTypeComposition:    routeComposition,
	params.SearchTypeACLInheritance: routeACLInheritance,
}

// Route maps s to the descriptor of its search mode. It never fails: an
// unknown or absent mode, or missing required parameters, yield a
// disabled descriptor.
func Route(s params.State) Descriptor {
	if fn, ok := strategies[s.SearchType()]; ok {
		return fn(s)
	}
	return disabled(s.SearchType(), unknownMessage)
}

func disabled(mode params.SearchType, msg func(error) Message) Descriptor {
	return Descriptor{Mode: mode, ErrorMessage: msg}
}

func graphResult(raw []byte, err error) (Result, error) {
	if err != nil {
		return Result{}, err
	}
	g, err := graph.DecodePayload(raw)
	if err != nil {
		return Result{}, err
	}
	return Result{Graph: g}, nil
}

// =============================================================================
// Strategies
// =============================================================================

func routeNode(s params.State) Descriptor {
	mode := params.SearchTypeNode
	if !s.Primary().Truthy() {
		return disabled(mode, nodeMessage)
	}
	term := s.Primary().Value()
	return Descriptor{
		Mode:    mode,
		Enabled: true,
		Key:     key(mode, term),
		Fetch: func(ctx context.Context, t Transport) (Result, error) {
			return graphResult(t.Search(ctx, term))
		},
		Retry:        defaultRetry,
		ErrorMessage: nodeMessage,
	}
}

func routePathfinding(s params.State) Descriptor {
	mode := params.SearchTypePathfinding
	if !s.Primary().Truthy() || !s.Secondary().Truthy() {
		return disabled(mode, pathfindingMessage)
	}
	start, end := s.Primary().Value(), s.Secondary().Value()
	filter := edgefilter.QueryFilter(s)
	return Descriptor{
		Mode:    mode,
		Enabled: true,
		Key:     key(mode, start, end, filter),
		Fetch: func(ctx context.Context, t Transport) (Result, error) {
			return graphResult(t.ShortestPath(ctx, start, end, filter))
		},
		Retry:        defaultRetry,
		ErrorMessage: pathfindingMessage,
	}
}

func routeCypher(s params.State) Descriptor {
	mode := params.SearchTypeCypher
	query, ok, decodeErr := s.CypherQuery()
	if !ok {
		return disabled(mode, cypherMessage)
	}
	if decodeErr != nil {
		// Undecodable input still runs so the failure reaches the user.
		encoded := s.CypherSearch().Value()
		return Descriptor{
			Mode:    mode,
			Enabled: true,
			Key:     key(mode, "invalid", encoded),
			Fetch: func(context.Context, Transport) (Result, error) {
				return Result{}, decodeErr
			},
			ErrorMessage: cypherMessage,
		}
	}
	if strings.TrimSpace(query) == "" {
		return disabled(mode, cypherMessage)
	}
	return Descriptor{
		Mode:    mode,
		Enabled: true,
		Key:     key(mode, query),
		Fetch: func(ctx context.Context, t Transport) (Result, error) {
			return graphResult(t.Cypher(ctx, query, true))
		},
		ErrorMessage: cypherMessage,
	}
}

// relationshipTarget resolves the entity and section a relationship
// query addresses.
type relationshipTarget struct {
	id      string
	kind    string
	section Section
}

// resolveRelationship finds the section a relationship location opens.
//
// The node is relationshipQueryItemId, or panelSelection in the nested
// panel form. relationshipQueryType names either an entity kind or a
// section label. Expanded labels are tried innermost first, then a
// relationshipQueryType label. Without a kind the generic Base and AZBase
// trees are searched first, then every other kind in sorted order. A bare
// kind with nothing expanded opens its first leaf.
func resolveRelationship(s params.State) (relationshipTarget, bool) {
	id := s.RelationshipItemID()
	if !id.Truthy() {
		id = s.PanelSelection()
	}
	if !id.Truthy() || itemid.Decode(id.Value()).IsEdge() {
		return relationshipTarget{}, false
	}

	queryType := s.RelationshipQueryType()
	kinds := searchOrder()
	kindGiven := false
	if queryType.Truthy() {
		if _, ok := Sections(queryType.Value()); ok {
			kinds, kindGiven = []string{queryType.Value()}, true
		}
	}

	expanded, _ := s.ExpandedRelationships()
	labels := slices.Clone(expanded)
	slices.Reverse(labels)
	if queryType.Truthy() && !kindGiven {
		labels = append(labels, queryType.Value())
	}
	for _, label := range labels {
		for _, kind := range kinds {
			tree, _ := Sections(kind)
			if sec, ok := tree.FindLeaf(label); ok {
				return relationshipTarget{id: id.Value(), kind: kind, section: sec}, true
			}
		}
	}

	if kindGiven && len(expanded) == 0 {
		tree, _ := Sections(kinds[0])
		if sec, ok := tree.FirstLeaf(); ok {
			return relationshipTarget{id: id.Value(), kind: kinds[0], section: sec}, true
		}
	}
	return relationshipTarget{}, false
}

// searchOrder lists the kinds searched when a location names no kind.
func searchOrder() []string {
	generic := []string{"Base", "AZBase"}
	out := slices.Clone(generic)
	for _, k := range EntityKinds() {
		if !slices.Contains(generic, k) {
			out = append(out, k)
		}
	}
	return out
}

func routeRelationship(s params.State) Descriptor {
	mode := params.SearchTypeRelationship
	rt, ok := resolveRelationship(s)
	if !ok {
		return disabled(mode, relationshipMessage)
	}
	ep := *rt.section.Endpoint
	return Descriptor{
		Mode:    mode,
		Enabled: true,
		Key:     key(mode, rt.id, rt.kind, ep.Entity, ep.Related, "graph"),
		Fetch: func(ctx context.Context, t Transport) (Result, error) {
			return graphResult(t.EntitySection(ctx, ep, rt.id, Page{Graph: true}))
		},
		Retry:        defaultRetry,
		ErrorMessage: relationshipMessage,
	}
}

// RouteSectionTable routes the table form of the relationship section
// addressed by s. It is disabled whenever the graph form would be.
func RouteSectionTable(s params.State, page Page) Descriptor {
	mode := params.SearchTypeRelationship
	rt, ok := resolveRelationship(s)
	if !ok {
		return disabled(mode, relationshipMessage)
	}
	ep := *rt.section.Endpoint
	page.Graph = false
	if page.Limit <= 0 {
		page.Limit = DefaultPageLimit
	}
	return Descriptor{
		Mode:    mode,
		Enabled: true,
		Key: key(mode, rt.id, rt.kind, ep.Entity, ep.Related, "table",
			strconv.Itoa(page.Skip), strconv.Itoa(page.Limit)),
		Fetch: func(ctx context.Context, t Transport) (Result, error) {
			raw, err := t.EntitySection(ctx, ep, rt.id, page)
			if err != nil {
				return Result{}, err
			}
			var p SectionPage
			if err := json.Unmarshal(raw, &p); err != nil {
				return Result{}, fmt.Errorf("decode section page: %w", err)
			}
			return Result{Table: &p}, nil
		},
		Retry:        defaultRetry,
		ErrorMessage: relationshipMessage,
	}
}

// edgeFetch is the shared shape of composition and ACL inheritance.
type edgeFetch func(t Transport, ctx context.Context, source, target int64, edgeType string) ([]byte, error)

func routeEdge(s params.State, mode params.SearchType, fetch edgeFetch, msg func(error) Message) Descriptor {
	id := s.RelationshipItemID()
	if !id.Truthy() {
		return disabled(mode, msg)
	}
	d := itemid.Decode(id.Value())
	source, target, ok := d.Endpoints()
	if !ok {
		return disabled(mode, msg)
	}
	edgeType := d.EdgeType
	return Descriptor{
		Mode:    mode,
		Enabled: true,
		Key:     key(mode, d.SourceID, edgeType, d.TargetID),
		Fetch: func(ctx context.Context, t Transport) (Result, error) {
			res, err := graphResult(fetch(t, ctx, source, target, edgeType))
			if err != nil {
				return Result{}, err
			}
			if res.Graph.IsEmpty() {
				return Result{}, &EmptyResultError{Mode: mode}
			}
			return res, nil
		},
		Retry:        defaultRetry,
		ErrorMessage: msg,
	}
}

func routeComposition(s params.State) Descriptor {
	return routeEdge(s, params.SearchTypeComposition, Transport.EdgeComposition, compositionMessage)
}

func routeACLInheritance(s params.State) Descriptor {
	return routeEdge(s, params.SearchTypeACLInheritance, Transport.ACLInheritance, aclInheritanceMessage)
}
