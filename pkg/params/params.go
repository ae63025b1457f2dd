// Package params models the navigable explore location as an immutable
// value.
//
// A [State] is parsed fresh from the location query on every read and is
// never mutated. Every With* method returns a new State; communicating the
// new location to the rest of the application is the caller's job.
//
// Every parameter is optional and absence is distinct from the empty
// string:
//
//	searchType=cypher&cypherSearch=   cypherSearch present, empty
//	searchType=cypher                 cypherSearch absent
package params

import (
	"net/url"
	"slices"
	"strings"
)

// Query parameter names.
const (
	KeySearchType            = "searchType"
	KeyPrimarySearch         = "primarySearch"
	KeySecondarySearch       = "secondarySearch"
	KeyCypherSearch          = "cypherSearch"
	KeyPathFilters           = "pathFilters"
	KeyRelationshipItemID    = "relationshipQueryItemId"
	KeyRelationshipQueryType = "relationshipQueryType"
	KeyPanelSelection        = "panelSelection"
	KeyExpandedRelationships = "expandedRelationships"
)

// EmptyFilterSentinel marks an explicitly empty path filter selection.
const EmptyFilterSentinel = "empty"

// SearchType selects the search mode.
type SearchType string

// Known search modes. Any other value is carried as-is and treated as
// unrecognized by the router.
const (
	SearchTypeNone           SearchType = ""
	SearchTypeNode           SearchType = "node"
	SearchTypePathfinding    SearchType = "pathfinding"
	SearchTypeCypher         SearchType = "cypher"
	SearchTypeRelationship   SearchType = "relationship"
	SearchTypeComposition    SearchType = "composition"
	SearchTypeACLInheritance SearchType = "aclinheritance"
)

// SearchTypes lists the known modes.
var SearchTypes = []SearchType{
	SearchTypeNode,
	SearchTypePathfinding,
	SearchTypeCypher,
	SearchTypeRelationship,
	SearchTypeComposition,
	SearchTypeACLInheritance,
}

// Known reports whether t is one of [SearchTypes].
func (t SearchType) Known() bool { return slices.Contains(SearchTypes, t) }

// Opt is an optional string parameter.
type Opt struct {
	value string
	set   bool
}

// Some returns a present Opt.
func Some(v string) Opt { return Opt{value: v, set: true} }

// None returns an absent Opt.
func None() Opt { return Opt{} }

// Get returns the value and whether it is present.
func (o Opt) Get() (string, bool) { return o.value, o.set }

// IsSet reports presence, including the empty string.
func (o Opt) IsSet() bool { return o.set }

// Value returns the value, or "" when absent.
func (o Opt) Value() string { return o.value }

// Truthy reports whether the parameter is present and non-empty.
func (o Opt) Truthy() bool { return o.set && o.value != "" }

// list is an optional repeated parameter.
type list struct {
	values []string
	set    bool
}

func (l list) clone() list {
	return list{values: slices.Clone(l.values), set: l.set}
}

// State is the canonical view of the explore location.
type State struct {
	searchType      Opt
	primarySearch   Opt
	secondarySearch Opt
	cypherSearch    Opt
	relItemID       Opt
	relQueryType    Opt
	panelSelection  Opt
	pathFilters     list
	expanded        list
}

// Parse builds a State from location query values.
func Parse(values url.Values) State {
	opt := func(key string) Opt {
		v, ok := values[key]
		if !ok {
			return None()
		}
		if len(v) == 0 {
			return Some("")
		}
		return Some(v[0])
	}
	multi := func(key string) list {
		v, ok := values[key]
		if !ok {
			return list{}
		}
		return list{values: slices.Clone(v), set: true}
	}
	return State{
		searchType:      opt(KeySearchType),
		primarySearch:   opt(KeyPrimarySearch),
		secondarySearch: opt(KeySecondarySearch),
		cypherSearch:    opt(KeyCypherSearch),
		relItemID:       opt(KeyRelationshipItemID),
		relQueryType:    opt(KeyRelationshipQueryType),
		panelSelection:  opt(KeyPanelSelection),
		pathFilters:     multi(KeyPathFilters),
		expanded:        multi(KeyExpandedRelationships),
	}
}

// ParseQuery parses a raw query string, with or without a leading "?".
func ParseQuery(raw string) (State, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	if err != nil {
		return State{}, err
	}
	return Parse(values), nil
}

// Values returns the location query for s. Absent parameters are omitted.
func (s State) Values() url.Values {
	v := url.Values{}
	put := func(key string, o Opt) {
		if o.set {
			v.Set(key, o.value)
		}
	}
	put(KeySearchType, s.searchType)
	put(KeyPrimarySearch, s.primarySearch)
	put(KeySecondarySearch, s.secondarySearch)
	put(KeyCypherSearch, s.cypherSearch)
	put(KeyRelationshipItemID, s.relItemID)
	put(KeyRelationshipQueryType, s.relQueryType)
	put(KeyPanelSelection, s.panelSelection)
	if s.pathFilters.set {
		v[KeyPathFilters] = slices.Clone(s.pathFilters.values)
	}
	if s.expanded.set {
		v[KeyExpandedRelationships] = slices.Clone(s.expanded.values)
	}
	return v
}

// Encode returns the query string for s with keys sorted.
func (s State) Encode() string { return s.Values().Encode() }

// Equal reports whether two states encode to the same location.
func (s State) Equal(o State) bool { return s.Encode() == o.Encode() }

// =============================================================================
// Getters
// =============================================================================

// SearchType returns the selected mode, or SearchTypeNone when absent.
func (s State) SearchType() SearchType { return SearchType(s.searchType.value) }

// Primary returns primarySearch.
func (s State) Primary() Opt { return s.primarySearch }

// Secondary returns secondarySearch.
func (s State) Secondary() Opt { return s.secondarySearch }

// CypherSearch returns the base64 encoded cypherSearch parameter.
func (s State) CypherSearch() Opt { return s.cypherSearch }

// RelationshipItemID returns relationshipQueryItemId.
func (s State) RelationshipItemID() Opt { return s.relItemID }

// RelationshipQueryType returns relationshipQueryType.
func (s State) RelationshipQueryType() Opt { return s.relQueryType }

// PanelSelection returns panelSelection.
func (s State) PanelSelection() Opt { return s.panelSelection }

// RawPathFilters returns pathFilters exactly as present in the location.
func (s State) RawPathFilters() ([]string, bool) {
	return slices.Clone(s.pathFilters.values), s.pathFilters.set
}

// PathFilters returns the committed edge-type selection. ok is false when
// no filter is committed. The sentinel value yields an empty selection.
func (s State) PathFilters() (selected []string, ok bool) {
	if !s.pathFilters.set {
		return nil, false
	}
	selected = []string{}
	for _, v := range s.pathFilters.values {
		if v == EmptyFilterSentinel || v == "" {
			continue
		}
		selected = append(selected, v)
	}
	return selected, true
}

// ExpandedRelationships returns the expanded section labels, outermost first.
func (s State) ExpandedRelationships() ([]string, bool) {
	return slices.Clone(s.expanded.values), s.expanded.set
}

// =============================================================================
// Setters
// =============================================================================

func (s State) copy() State {
	c := s
	c.pathFilters = s.pathFilters.clone()
	c.expanded = s.expanded.clone()
	return c
}

// WithSearchType sets searchType. SearchTypeNone removes it.
func (s State) WithSearchType(t SearchType) State {
	c := s.copy()
	if t == SearchTypeNone {
		c.searchType = None()
	} else {
		c.searchType = Some(string(t))
	}
	return c
}

// WithPrimary sets primarySearch.
func (s State) WithPrimary(v Opt) State {
	c := s.copy()
	c.primarySearch = v
	return c
}

// WithSecondary sets secondarySearch.
func (s State) WithSecondary(v Opt) State {
	c := s.copy()
	c.secondarySearch = v
	return c
}

// WithCypherSearch sets the already encoded cypherSearch parameter.
func (s State) WithCypherSearch(v Opt) State {
	c := s.copy()
	c.cypherSearch = v
	return c
}

// WithCypherQuery encodes raw and stores it as cypherSearch.
func (s State) WithCypherQuery(raw string) State {
	return s.WithCypherSearch(Some(EncodeCypher(raw)))
}

// WithRelationshipItemID sets relationshipQueryItemId.
func (s State) WithRelationshipItemID(v Opt) State {
	c := s.copy()
	c.relItemID = v
	return c
}

// WithRelationshipQueryType sets relationshipQueryType.
func (s State) WithRelationshipQueryType(v Opt) State {
	c := s.copy()
	c.relQueryType = v
	return c
}

// WithPanelSelection sets panelSelection.
func (s State) WithPanelSelection(v Opt) State {
	c := s.copy()
	c.panelSelection = v
	return c
}

// WithPathFilters sets the raw pathFilters values. present=false removes
// the parameter.
func (s State) WithPathFilters(values []string, present bool) State {
	c := s.copy()
	if !present {
		c.pathFilters = list{}
	} else {
		c.pathFilters = list{values: slices.Clone(values), set: true}
	}
	return c
}

// WithExpandedRelationships sets the expanded section labels. present=false
// removes the parameter.
func (s State) WithExpandedRelationships(labels []string, present bool) State {
	c := s.copy()
	if !present {
		c.expanded = list{}
	} else {
		c.expanded = list{values: slices.Clone(labels), set: true}
	}
	return c
}
