package params

// Location helpers for the common transitions. Each starts from s and keeps
// unrelated parameters such as pathFilters and panelSelection.

// NodeSearch selects node mode for term.
func (s State) NodeSearch(term string) State {
	return s.WithSearchType(SearchTypeNode).
		WithPrimary(Some(term)).
		WithSecondary(None())
}

// PathSearch selects pathfinding mode between two terms.
func (s State) PathSearch(primary, secondary string) State {
	return s.WithSearchType(SearchTypePathfinding).
		WithPrimary(Some(primary)).
		WithSecondary(Some(secondary))
}

// CypherSearchFor selects cypher mode for a raw query.
func (s State) CypherSearchFor(raw string) State {
	return s.WithSearchType(SearchTypeCypher).WithCypherQuery(raw)
}

// EdgeSearch selects an edge-scoped mode (composition or ACL inheritance)
// for the given composite edge id.
func (s State) EdgeSearch(mode SearchType, edgeItemID string) State {
	return s.WithSearchType(mode).WithRelationshipItemID(Some(edgeItemID))
}

// RelationshipSearch selects relationship mode for a node, its entity kind
// and the expanded section path, outermost first.
func (s State) RelationshipSearch(itemID, entityKind string, sections ...string) State {
	return s.WithSearchType(SearchTypeRelationship).
		WithRelationshipItemID(Some(itemID)).
		WithRelationshipQueryType(Some(entityKind)).
		WithExpandedRelationships(sections, true)
}
