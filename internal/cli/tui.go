package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/houndview/pkg/edgefilter"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listGroupStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorGray)
)

// =============================================================================
// FilterModel - Interactive edge filter editing
// =============================================================================

// filterRow is one visible line: a category, a subcategory or an edge type.
type filterRow struct {
	depth         int
	label         string
	group         *edgefilter.Group
	checked       bool
	indeterminate bool
}

// FilterModel is the bubbletea model for editing the pathfinding edge
// filter. Edits go to the editor's draft; Applied reports whether the
// user committed them.
type FilterModel struct {
	Editor    *edgefilter.Editor
	Applied   bool
	Query     string
	Searching bool
	Cursor    int
	Height    int
	Offset    int

	rows []filterRow
}

// NewFilterModel creates a filter model over e.
func NewFilterModel(e *edgefilter.Editor) FilterModel {
	m := FilterModel{Editor: e, Height: 20}
	m.rebuild()
	return m
}

func (m *FilterModel) rebuild() {
	m.rows = nil
	for _, c := range m.Editor.Draft().Visible(m.Query) {
		cg := edgefilter.CategoryGroup(c.Name)
		m.rows = append(m.rows, filterRow{
			depth: 0, label: c.Name, group: &cg,
			checked: c.State.Checked, indeterminate: c.State.Indeterminate,
		})
		for _, s := range c.Subcategories {
			sg := edgefilter.SubcategoryGroup(c.Name, s.Name)
			m.rows = append(m.rows, filterRow{
				depth: 1, label: s.Name, group: &sg,
				checked: s.State.Checked, indeterminate: s.State.Indeterminate,
			})
			for _, l := range s.Leaves {
				m.rows = append(m.rows, filterRow{depth: 2, label: l.EdgeType, checked: l.Checked})
			}
		}
	}
	if m.Cursor >= len(m.rows) {
		m.Cursor = max(len(m.rows)-1, 0)
	}
	m.clampOffset()
}

func (m *FilterModel) clampOffset() {
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m *FilterModel) toggle() {
	if len(m.rows) == 0 {
		return
	}
	r := m.rows[m.Cursor]
	if r.group != nil {
		m.Editor.ToggleGroup(*r.group)
	} else {
		m.Editor.ToggleLeaf(r.label)
	}
	m.rebuild()
}

func (m FilterModel) Init() tea.Cmd {
	return nil
}

func (m FilterModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.Searching {
			return m.updateSearch(msg)
		}
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.Editor.Cancel()
			return m, tea.Quit
		case "enter":
			m.Applied = true
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				m.clampOffset()
			}
		case "down", "j":
			if m.Cursor < len(m.rows)-1 {
				m.Cursor++
				m.clampOffset()
			}
		case " ", "x":
			m.toggle()
		case "/":
			m.Searching = true
		case "r":
			m.Editor.Update(edgefilter.NewTree())
			m.rebuild()
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
		m.clampOffset()
	}
	return m, nil
}

func (m FilterModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.Editor.Cancel()
		return m, tea.Quit
	case tea.KeyEnter:
		m.Searching = false
	case tea.KeyEsc:
		m.Searching = false
		m.Query = ""
	case tea.KeyBackspace:
		if r := []rune(m.Query); len(r) > 0 {
			m.Query = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.Query += " "
	case tea.KeyRunes:
		m.Query += string(msg.Runes)
	default:
		return m, nil
	}
	m.Cursor, m.Offset = 0, 0
	m.rebuild()
	return m, nil
}

func (m FilterModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Pathfinding Edge Filter"))
	if m.Editor.Dirty() {
		b.WriteString(StyleWarning.Render("  (modified)"))
	}
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  space toggle  / search  r reset  ⏎ apply  esc cancel"))
	b.WriteString("\n")
	switch {
	case m.Searching:
		b.WriteString("/" + m.Query + "█")
	case m.Query != "":
		b.WriteString(listDimStyle.Render("filter: " + m.Query))
	}
	b.WriteString("\n\n")

	if len(m.rows) == 0 {
		b.WriteString(listDimStyle.Render("  no edge types match"))
		b.WriteString("\n")
	}
	end := min(m.Offset+m.Height, len(m.rows))
	for i := m.Offset; i < end; i++ {
		r := m.rows[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		line := strings.Repeat("  ", r.depth) + checkbox(r.checked, r.indeterminate) + " " + r.label

		style := listNormalStyle
		switch {
		case i == m.Cursor:
			style = listSelectedStyle
		case r.depth < 2:
			style = listGroupStyle
		}
		b.WriteString(cursor + style.Render(line) + "\n")
	}

	draft := m.Editor.Draft()
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("%d of %d edge types selected",
		len(draft.Selected()), len(draft.Leaves()))))
	return b.String()
}

func checkbox(checked, indeterminate bool) string {
	switch {
	case indeterminate:
		return "[-]"
	case checked:
		return "[x]"
	}
	return "[ ]"
}
