package graph

import (
	"encoding/json"
	"fmt"
	"strings"
)

// =============================================================================
// Constants
// =============================================================================

// System tags that drive node flags.
const (
	TagTierZero = "admin_tier_0"
	TagOwned    = "owned"
)

// Well-known data keys in flat items.
const (
	keyNodeType    = "nodetype"
	keyObjectID    = "objectid"
	keyName        = "name"
	keySystemTags  = "system_tags"
	keyLastSeen    = "lastSeen"
	keyLastSeenLow = "lastseen"
	keyTierZero    = "isTierZero"
	keyImpact      = "composite_risk_impact_percent"
	keyProperties  = "properties"
)

// =============================================================================
// GraphData - Canonical Model
// =============================================================================

// GraphData is the canonical graph consumed by rendering and export.
// Node keys are unique within one query result.
type GraphData struct {
	Nodes map[string]NodeRecord `json:"nodes"`
	Edges []EdgeRecord          `json:"edges"`
}

// NodeRecord is a canonical node.
type NodeRecord struct {
	Label         string         `json:"label"`
	Kind          string         `json:"kind"`
	ObjectID      string         `json:"objectId"`
	IsTierZero    bool           `json:"isTierZero"`
	IsOwnedObject bool           `json:"isOwnedObject"`
	LastSeen      string         `json:"lastSeen"`
	Properties    map[string]any `json:"properties,omitempty"`
}

// EdgeRecord is a canonical edge. Source and Target are node keys.
type EdgeRecord struct {
	Source         string         `json:"source"`
	Target         string         `json:"target"`
	Label          string         `json:"label"`
	Kind           string         `json:"kind"`
	LastSeen       string         `json:"lastSeen"`
	ImpactPercent  *float64       `json:"impactPercent,omitempty"`
	ExploreGraphID string         `json:"exploreGraphId"`
	Data           map[string]any `json:"data,omitempty"`
}

// NewGraphData returns an empty graph with a non-nil node map.
func NewGraphData() GraphData {
	return GraphData{Nodes: map[string]NodeRecord{}, Edges: []EdgeRecord{}}
}

// IsEmpty reports whether the graph has no nodes.
func (g GraphData) IsEmpty() bool { return len(g.Nodes) == 0 }

// =============================================================================
// GraphResponse - Wire Shape B
// =============================================================================

// GraphResponse is the separated-list wire shape returned by graph
// endpoints such as shortest path, cypher and edge composition.
type GraphResponse struct {
	Data GraphData `json:"data"`
}

// =============================================================================
// FlatGraph - Wire Shape A
// =============================================================================

// Label is the text label of a flat item.
type Label struct {
	Text string `json:"text"`
}

// FlatNode is a node item of a flat graph.
type FlatNode struct {
	Label    *Label         `json:"label,omitempty"`
	LastSeen string         `json:"lastSeen,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// FlatLink is a link item of a flat graph. ID1 and ID2 are endpoint keys.
type FlatLink struct {
	ID1      string         `json:"id1"`
	ID2      string         `json:"id2"`
	Label    *Label         `json:"label,omitempty"`
	LastSeen string         `json:"lastSeen,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// FlatItem holds exactly one of Node or Link.
type FlatItem struct {
	Node *FlatNode
	Link *FlatLink
}

// IsLink reports whether the item is a link.
func (i FlatItem) IsLink() bool { return i.Link != nil }

// NodeItem wraps n as a flat item.
func NodeItem(n FlatNode) FlatItem { return FlatItem{Node: &n} }

// LinkItem wraps l as a flat item.
func LinkItem(l FlatLink) FlatItem { return FlatItem{Link: &l} }

// UnmarshalJSON classifies the raw item by the presence of "id1".
func (i *FlatItem) UnmarshalJSON(b []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(b, &probe); err != nil {
		return fmt.Errorf("flat item: %w", err)
	}
	*i = FlatItem{}
	if _, ok := probe["id1"]; ok {
		var l FlatLink
		if err := json.Unmarshal(b, &l); err != nil {
			return fmt.Errorf("flat link: %w", err)
		}
		i.Link = &l
		return nil
	}
	var n FlatNode
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("flat node: %w", err)
	}
	i.Node = &n
	return nil
}

// MarshalJSON writes whichever variant is set.
func (i FlatItem) MarshalJSON() ([]byte, error) {
	switch {
	case i.Link != nil:
		return json.Marshal(i.Link)
	case i.Node != nil:
		return json.Marshal(i.Node)
	default:
		return []byte("{}"), nil
	}
}

// FlatGraph is the flat wire shape keyed by composite item key.
type FlatGraph map[string]FlatItem

// =============================================================================
// Tags
// =============================================================================

// TagsFrom returns the system tags implied by the node flags.
func TagsFrom(isTierZero, isOwned bool) []string {
	var tags []string
	if isTierZero {
		tags = append(tags, TagTierZero)
	}
	if isOwned {
		tags = append(tags, TagOwned)
	}
	return tags
}

// FlagsFromTags derives node flags by substring search of the joined tags.
func FlagsFromTags(tags string) (isTierZero, isOwned bool) {
	return strings.Contains(tags, TagTierZero), strings.Contains(tags, TagOwned)
}

// joinTags accepts system_tags as a string or a list and returns the
// whitespace-joined form.
func joinTags(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []string:
		return strings.Join(t, " ")
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			if s, ok := p.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	default:
		return ""
	}
}
