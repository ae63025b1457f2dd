// Package itemid decodes composite item identifiers that refer to either a
// node or an edge of an explore graph.
//
// Three forms are accepted:
//
//	<nodeKey>                       node
//	[rel_]<src>_<EdgeKind>_<tgt>    edge addressed by endpoints and kind
//	rel_<edgeKey>                   edge addressed by its own key
//
// [Decode] is total: anything that does not match an edge form is a node.
// Encoding is not its inverse. Edge keys are built ad hoc with [EdgeKey]
// wherever a composite key is needed, and a bare rel_<edgeKey> id cannot be
// turned back into endpoints and kind.
package itemid

import (
	"fmt"
	"regexp"
	"strconv"
)

// ItemType is the coarse kind of thing an identifier refers to.
type ItemType string

const (
	ItemNode ItemType = "node"
	ItemEdge ItemType = "edge"
)

// Form tags which of the three identifier shapes matched.
type Form int

const (
	// FormNode is the default interpretation.
	FormNode Form = iota
	// FormEdgeByEndpoints carries source, edge kind and target.
	FormEdgeByEndpoints
	// FormEdgeByKey carries only the edge's own key.
	FormEdgeByKey
)

// String returns the form name used in logs.
func (f Form) String() string {
	switch f {
	case FormEdgeByEndpoints:
		return "edge-by-endpoints"
	case FormEdgeByKey:
		return "edge-by-key"
	default:
		return "node"
	}
}

const relPrefix = "rel_"

var (
	endpointsRe = regexp.MustCompile(`^(?:rel_)?(\d+)_(.+)_(\d+)$`)
	edgeKeyRe   = regexp.MustCompile(`^rel_(\d+)$`)
)

// Decoded is the classified form of an item identifier. Only the fields
// belonging to Form are populated.
type Decoded struct {
	Raw  string
	Form Form

	// FormNode
	NodeID string

	// FormEdgeByEndpoints
	SourceID string
	EdgeType string
	TargetID string

	// FormEdgeByKey
	EdgeKey string

	// CypherQuery fetches the single referenced item from the graph store.
	CypherQuery string
}

// Decode classifies itemID. It never fails; malformed ids fall through to
// the node interpretation. Numeric captures are not range checked, so
// callers that need numbers must use [Decoded.SourceNumeric] and
// [Decoded.TargetNumeric].
func Decode(itemID string) Decoded {
	if m := endpointsRe.FindStringSubmatch(itemID); m != nil {
		return Decoded{
			Raw:      itemID,
			Form:     FormEdgeByEndpoints,
			SourceID: m[1],
			EdgeType: m[2],
			TargetID: m[3],
			CypherQuery: fmt.Sprintf(
				"MATCH p = (s)-[r:%s]->(t) WHERE ID(s) = %s AND ID(t) = %s RETURN p LIMIT 1",
				m[2], m[1], m[3]),
		}
	}
	if m := edgeKeyRe.FindStringSubmatch(itemID); m != nil {
		return Decoded{
			Raw:         itemID,
			Form:        FormEdgeByKey,
			EdgeKey:     m[1],
			CypherQuery: fmt.Sprintf("MATCH p = ()-[r]->() WHERE ID(r) = %s RETURN p LIMIT 1", m[1]),
		}
	}
	return Decoded{
		Raw:         itemID,
		Form:        FormNode,
		NodeID:      itemID,
		CypherQuery: fmt.Sprintf("MATCH (n) WHERE ID(n) = %s RETURN n LIMIT 1", itemID),
	}
}

// Type reports whether the identifier names a node or an edge.
func (d Decoded) Type() ItemType {
	if d.Form == FormNode {
		return ItemNode
	}
	return ItemEdge
}

// IsEdge is shorthand for Type() == ItemEdge.
func (d Decoded) IsEdge() bool { return d.Form != FormNode }

// SourceNumeric parses the source endpoint as an internal graph id.
func (d Decoded) SourceNumeric() (int64, bool) {
	return parseID(d.SourceID)
}

// TargetNumeric parses the target endpoint as an internal graph id.
func (d Decoded) TargetNumeric() (int64, bool) {
	return parseID(d.TargetID)
}

// Endpoints returns both numeric endpoints, or ok=false when the id is not
// an endpoint-addressed edge or either side does not fit an int64.
func (d Decoded) Endpoints() (source, target int64, ok bool) {
	if d.Form != FormEdgeByEndpoints {
		return 0, 0, false
	}
	s, sok := d.SourceNumeric()
	t, tok := d.TargetNumeric()
	return s, t, sok && tok
}

func parseID(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	return n, err == nil
}

// EdgeKey builds the composite key "<source>_<kind>_<target>" used as an
// edge's explore graph id.
func EdgeKey(source, kind, target string) string {
	return source + "_" + kind + "_" + target
}

// RelKey builds the rel_<edgeKey> form for an edge known only by its key.
func RelKey(edgeKey string) string {
	return relPrefix + edgeKey
}
