package edgefilter

import (
	"strings"

	"github.com/matzehuels/houndview/pkg/params"
)

// Filter string prefixes understood by the shortest-path endpoint.
const (
	prefixInclude = "in:"
	prefixExclude = "nin:"
)

// Serialize returns the pathFilters values for a committed tree. present
// is false when the tree equals the full default set, so default
// locations stay clean. An empty selection serializes as the sentinel.
func Serialize(t Tree) (values []string, present bool) {
	if t.IsDefault() {
		return nil, false
	}
	selected := t.Selected()
	if len(selected) == 0 {
		return []string{params.EmptyFilterSentinel}, true
	}
	return selected, true
}

// Committed returns the tree committed in s, or the full default tree when
// s carries no filter.
func Committed(s params.State) Tree {
	selected, ok := s.PathFilters()
	if !ok {
		return NewTree()
	}
	return FromSelected(selected)
}

// Commit returns s with t stored as its pathFilters parameter.
func Commit(s params.State, t Tree) params.State {
	values, present := Serialize(t)
	return s.WithPathFilters(values, present)
}

// PathFilter builds the "in:A,B" relationship_kinds value for selected
// edge types.
func PathFilter(selected []string) string {
	return prefixInclude + strings.Join(selected, ",")
}

// ExcludeFilter builds the "nin:A,B" relationship_kinds value.
func ExcludeFilter(excluded []string) string {
	return prefixExclude + strings.Join(excluded, ",")
}

// QueryFilter returns the relationship_kinds value for the state's
// committed selection, defaulting to every known edge type.
func QueryFilter(s params.State) string {
	selected, ok := s.PathFilters()
	if !ok {
		return PathFilter(AllEdgeTypes())
	}
	return PathFilter(selected)
}
