package edgefilter

import "github.com/matzehuels/houndview/pkg/params"

// Editor holds unapplied edits to the filter. The draft is the only state
// allowed to diverge from the location, and it is either committed with
// Apply or discarded with Cancel, never merged.
type Editor struct {
	committed Tree
	draft     Tree
}

// Open starts editing from the selection committed in s.
func Open(s params.State) *Editor {
	t := Committed(s)
	return &Editor{committed: t, draft: t}
}

// Draft returns the current draft.
func (e *Editor) Draft() Tree { return e.draft }

// Dirty reports whether the draft differs from the committed selection.
func (e *Editor) Dirty() bool { return !e.draft.Equal(e.committed) }

// ToggleLeaf edits the draft.
func (e *Editor) ToggleLeaf(edgeType string) { e.draft = e.draft.ToggleLeaf(edgeType) }

// ToggleGroup edits the draft.
func (e *Editor) ToggleGroup(g Group) { e.draft = e.draft.ToggleGroup(g) }

// Update replaces the draft.
func (e *Editor) Update(t Tree) { e.draft = t }

// Apply commits the draft into s and returns the new location state.
func (e *Editor) Apply(s params.State) params.State {
	e.committed = e.draft
	return Commit(s, e.draft)
}

// Cancel discards the draft and returns the restored selection.
func (e *Editor) Cancel() Tree {
	e.draft = e.committed
	return e.draft
}
