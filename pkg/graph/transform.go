package graph

import (
	"encoding/json"
	"fmt"
	"maps"

	"github.com/matzehuels/houndview/pkg/itemid"
)

// ResolveLastSeen picks the last-seen timestamp for an item: top, then
// data["lastSeen"], then data["lastseen"], else "".
func ResolveLastSeen(top string, data map[string]any) string {
	if top != "" {
		return top
	}
	if s := stringOf(data[keyLastSeen]); s != "" {
		return s
	}
	return stringOf(data[keyLastSeenLow])
}

// ToCanonical converts a flat graph into canonical [GraphData]. Link items
// keep their entry key as ExploreGraphID.
func ToCanonical(flat FlatGraph) GraphData {
	out := NewGraphData()
	for key, item := range flat {
		if item.IsLink() {
			out.Edges = append(out.Edges, edgeFromLink(key, *item.Link))
			continue
		}
		if item.Node != nil {
			out.Nodes[key] = nodeFromFlat(*item.Node)
		}
	}
	sortEdges(out.Edges)
	return out
}

func nodeFromFlat(n FlatNode) NodeRecord {
	tier0, owned := FlagsFromTags(joinTags(n.Data[keySystemTags]))
	rec := NodeRecord{
		Kind:          stringOf(n.Data[keyNodeType]),
		ObjectID:      stringOf(n.Data[keyObjectID]),
		IsTierZero:    tier0,
		IsOwnedObject: owned,
		LastSeen:      ResolveLastSeen(n.LastSeen, n.Data),
	}
	if n.Label != nil {
		rec.Label = n.Label.Text
	}
	if len(n.Data) > 0 {
		rec.Properties = maps.Clone(n.Data)
	}
	return rec
}

func edgeFromLink(key string, l FlatLink) EdgeRecord {
	lastSeen := ResolveLastSeen(l.LastSeen, l.Data)
	data := make(map[string]any, len(l.Data)+1)
	maps.Copy(data, l.Data)
	data[keyLastSeenLow] = lastSeen

	var kind string
	if l.Label != nil {
		kind = l.Label.Text
	}
	return EdgeRecord{
		Source:         l.ID1,
		Target:         l.ID2,
		Label:          kind,
		Kind:           kind,
		LastSeen:       lastSeen,
		ImpactPercent:  floatOf(l.Data[keyImpact]),
		ExploreGraphID: key,
		Data:           data,
	}
}

// ToFlat expands a separated-list response into the flat wire shape.
// Edges are keyed by [itemid.EdgeKey].
func ToFlat(resp GraphResponse) FlatGraph {
	out := make(FlatGraph, len(resp.Data.Nodes)+len(resp.Data.Edges))
	for key, n := range resp.Data.Nodes {
		data := map[string]any{
			keyNodeType:    n.Kind,
			keyName:        n.Label,
			keyObjectID:    n.ObjectID,
			keySystemTags:  joinTags(TagsFrom(n.IsTierZero, n.IsOwnedObject)),
			keyLastSeenLow: ResolveLastSeen(n.LastSeen, n.Properties),
			keyTierZero:    n.IsTierZero,
		}
		maps.Copy(data, n.Properties)
		out[key] = NodeItem(FlatNode{Label: &Label{Text: n.Label}, Data: data})
	}
	for _, e := range resp.Data.Edges {
		lastSeen := ResolveLastSeen(e.LastSeen, e.Data)
		data := make(map[string]any, len(e.Data)+1)
		maps.Copy(data, e.Data)
		data[keyLastSeenLow] = lastSeen
		if props, ok := e.Data[keyProperties].(map[string]any); ok {
			maps.Copy(data, props)
		}
		out[itemid.EdgeKey(e.Source, e.Kind, e.Target)] = LinkItem(FlatLink{
			ID1:      e.Source,
			ID2:      e.Target,
			Label:    &Label{Text: e.Kind},
			LastSeen: lastSeen,
			Data:     data,
		})
	}
	return out
}

// Normalize fills derived fields of a separated-list response: missing
// edge ExploreGraphIDs and edge last-seen values. Integrity is not checked.
func Normalize(g GraphData) GraphData {
	if g.Nodes == nil {
		g.Nodes = map[string]NodeRecord{}
	}
	edges := make([]EdgeRecord, len(g.Edges))
	for i, e := range g.Edges {
		if e.ExploreGraphID == "" {
			e.ExploreGraphID = itemid.EdgeKey(e.Source, e.Kind, e.Target)
		}
		e.LastSeen = ResolveLastSeen(e.LastSeen, e.Data)
		if e.Label == "" {
			e.Label = e.Kind
		}
		edges[i] = e
	}
	g.Edges = edges
	return g
}

// IsGraphResponse reports whether raw has both data.nodes and data.edges.
func IsGraphResponse(raw []byte) bool {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return false
	}
	inner, ok := top["data"]
	if !ok {
		return false
	}
	var data map[string]json.RawMessage
	if err := json.Unmarshal(inner, &data); err != nil {
		return false
	}
	_, hasNodes := data["nodes"]
	_, hasEdges := data["edges"]
	return hasNodes && hasEdges
}

// DecodePayload turns either wire shape into canonical [GraphData].
// A flat payload may arrive bare or wrapped in {"data": ...}.
func DecodePayload(raw []byte) (GraphData, error) {
	if IsGraphResponse(raw) {
		var resp GraphResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			return GraphData{}, fmt.Errorf("decode graph response: %w", err)
		}
		return Normalize(resp.Data), nil
	}

	var wrapped struct {
		Data json.RawMessage `json:"data"`
	}
	body := raw
	if err := json.Unmarshal(raw, &wrapped); err == nil && len(wrapped.Data) > 0 && wrapped.Data[0] == '{' {
		body = wrapped.Data
	}
	var flat FlatGraph
	if err := json.Unmarshal(body, &flat); err != nil {
		return GraphData{}, fmt.Errorf("decode flat graph: %w", err)
	}
	return ToCanonical(flat), nil
}

// GraphStats summarizes a graph for logging.
type GraphStats struct {
	Nodes    int
	Edges    int
	Dangling int
	TierZero int
	Owned    int
}

// Stats counts nodes, edges, flagged nodes and edges whose endpoints are
// missing.
func Stats(g GraphData) GraphStats {
	s := GraphStats{Nodes: len(g.Nodes), Edges: len(g.Edges)}
	for _, n := range g.Nodes {
		if n.IsTierZero {
			s.TierZero++
		}
		if n.IsOwnedObject {
			s.Owned++
		}
	}
	for _, e := range g.Edges {
		_, src := g.Nodes[e.Source]
		_, tgt := g.Nodes[e.Target]
		if !src || !tgt {
			s.Dangling++
		}
	}
	return s
}

func stringOf(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func floatOf(v any) *float64 {
	switch t := v.(type) {
	case float64:
		return &t
	case int:
		f := float64(t)
		return &f
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return &f
		}
	}
	return nil
}
