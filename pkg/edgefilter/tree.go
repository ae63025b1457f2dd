// Package edgefilter implements the three-level edge-type selection used to
// scope pathfinding: category, subcategory and edge type.
//
// Leaves carry a checked flag. Groups derive their display state from
// their leaves: checked when every leaf is checked, indeterminate when the
// leaves disagree. Toggling a group checks every leaf unless all are
// already checked, in which case every leaf is unchecked.
//
// A [Tree] is a value. Every operation returns a new Tree and never
// modifies its receiver.
package edgefilter

import (
	"slices"
	"strings"
)

// EdgeCheckbox is one leaf of the selection.
type EdgeCheckbox struct {
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	EdgeType    string `json:"edgeType"`
	Checked     bool   `json:"checked"`
}

// Level is the depth of a group.
type Level int

const (
	LevelCategory Level = iota
	LevelSubcategory
)

// Group identifies a category, or a subcategory within its category.
type Group struct {
	Level       Level
	Category    string
	Subcategory string
}

// CategoryGroup returns the group for a whole category.
func CategoryGroup(category string) Group {
	return Group{Level: LevelCategory, Category: category}
}

// SubcategoryGroup returns the group for a subcategory of category.
func SubcategoryGroup(category, subcategory string) Group {
	return Group{Level: LevelSubcategory, Category: category, Subcategory: subcategory}
}

func (g Group) contains(l EdgeCheckbox) bool {
	if l.Category != g.Category {
		return false
	}
	return g.Level == LevelCategory || l.Subcategory == g.Subcategory
}

// GroupState is the derived display state of a group.
type GroupState struct {
	Checked       bool
	Indeterminate bool
}

// Tree is the full selection, one leaf per taxonomy edge type.
type Tree struct {
	leaves []EdgeCheckbox
}

// NewTree returns the full taxonomy with every leaf checked.
func NewTree() Tree {
	var leaves []EdgeCheckbox
	for _, c := range Taxonomy {
		for _, s := range c.Subcategories {
			for _, et := range s.EdgeTypes {
				leaves = append(leaves, EdgeCheckbox{
					Category:    c.Name,
					Subcategory: s.Name,
					EdgeType:    et,
					Checked:     true,
				})
			}
		}
	}
	return Tree{leaves: leaves}
}

// FromSelected returns the taxonomy with exactly the named edge types
// checked. Unknown names are ignored.
func FromSelected(selected []string) Tree {
	t := NewTree()
	for i := range t.leaves {
		t.leaves[i].Checked = slices.Contains(selected, t.leaves[i].EdgeType)
	}
	return t
}

// Leaves returns a copy of all leaves in taxonomy order.
func (t Tree) Leaves() []EdgeCheckbox { return slices.Clone(t.leaves) }

// ToggleLeaf flips exactly the leaf for edgeType.
func (t Tree) ToggleLeaf(edgeType string) Tree {
	out := t.clone()
	for i := range out.leaves {
		if out.leaves[i].EdgeType == edgeType {
			out.leaves[i].Checked = !out.leaves[i].Checked
		}
	}
	return out
}

// ToggleGroup unchecks every leaf of g when all are checked, and checks
// every leaf otherwise, including when g is indeterminate.
func (t Tree) ToggleGroup(g Group) Tree {
	target := !t.State(g).Checked
	out := t.clone()
	for i := range out.leaves {
		if g.contains(out.leaves[i]) {
			out.leaves[i].Checked = target
		}
	}
	return out
}

// State derives the display state of g. A group without leaves is
// vacuously checked.
func (t Tree) State(g Group) GroupState {
	return stateOf(t.groupLeaves(g))
}

func stateOf(leaves []EdgeCheckbox) GroupState {
	st := GroupState{Checked: true}
	for _, l := range leaves {
		if !l.Checked {
			st.Checked = false
		}
		if l.Checked != leaves[0].Checked {
			st.Indeterminate = true
		}
	}
	return st
}

func (t Tree) groupLeaves(g Group) []EdgeCheckbox {
	var out []EdgeCheckbox
	for _, l := range t.leaves {
		if g.contains(l) {
			out = append(out, l)
		}
	}
	return out
}

// Selected returns the checked edge types in taxonomy order.
func (t Tree) Selected() []string {
	out := []string{}
	for _, l := range t.leaves {
		if l.Checked {
			out = append(out, l.EdgeType)
		}
	}
	return out
}

// Excluded returns the unchecked edge types in taxonomy order.
func (t Tree) Excluded() []string {
	out := []string{}
	for _, l := range t.leaves {
		if !l.Checked {
			out = append(out, l.EdgeType)
		}
	}
	return out
}

// IsDefault reports whether every leaf is checked.
func (t Tree) IsDefault() bool {
	for _, l := range t.leaves {
		if !l.Checked {
			return false
		}
	}
	return true
}

// Equal reports whether both trees select the same edge types.
func (t Tree) Equal(o Tree) bool {
	return slices.Equal(t.Selected(), o.Selected())
}

func (t Tree) clone() Tree { return Tree{leaves: slices.Clone(t.leaves)} }

// =============================================================================
// Search
// =============================================================================

// VisibleSubcategory is a subcategory with its matching leaves.
type VisibleSubcategory struct {
	Name   string
	State  GroupState
	Leaves []EdgeCheckbox
}

// VisibleCategory is a category with its visible subcategories.
type VisibleCategory struct {
	Name          string
	State         GroupState
	Subcategories []VisibleSubcategory
}

// Visible narrows leaves to those whose edge type contains query, case
// insensitively, and keeps a group only when one of its leaves matches.
// Group states are computed over all of a group's leaves, so searching
// never changes what a group toggle does.
func (t Tree) Visible(query string) []VisibleCategory {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []VisibleCategory
	for _, c := range Taxonomy {
		vc := VisibleCategory{Name: c.Name, State: t.State(CategoryGroup(c.Name))}
		for _, s := range c.Subcategories {
			g := SubcategoryGroup(c.Name, s.Name)
			var matched []EdgeCheckbox
			for _, l := range t.groupLeaves(g) {
				if strings.Contains(strings.ToLower(l.EdgeType), q) {
					matched = append(matched, l)
				}
			}
			if len(matched) == 0 {
				continue
			}
			vc.Subcategories = append(vc.Subcategories, VisibleSubcategory{
				Name:   s.Name,
				State:  t.State(g),
				Leaves: matched,
			})
		}
		if len(vc.Subcategories) > 0 {
			out = append(out, vc)
		}
	}
	return out
}
