package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/houndview/pkg/explore"
	"github.com/matzehuels/houndview/pkg/graph"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - links
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleLink for locations and URLs.
	StyleLink = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleTierZero = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	styleOwned    = lipgloss.NewStyle().Foreground(colorYellow)

	styleTableHeader = lipgloss.NewStyle().Foreground(colorGray).Bold(true).Padding(0, 1)
	styleTableCell   = lipgloss.NewStyle().Padding(0, 1)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(14)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// =============================================================================
// Stats Display
// =============================================================================

// printStats prints graph statistics on a single line.
func printStats(stats graph.GraphStats, cached bool) {
	parts := []string{
		fmt.Sprintf("%d nodes", stats.Nodes),
		fmt.Sprintf("%d edges", stats.Edges),
	}
	if stats.TierZero > 0 {
		parts = append(parts, fmt.Sprintf("%d tier zero", stats.TierZero))
	}
	if stats.Owned > 0 {
		parts = append(parts, fmt.Sprintf("%d owned", stats.Owned))
	}

	status := iconFresh
	statusStyle := styleComputed
	if cached {
		status = iconCached
		statusStyle = styleCached
	}

	line := "  "
	for i, part := range parts {
		if i > 0 {
			line += StyleDim.Render(" · ")
		}
		line += StyleDim.Render(part)
	}
	fmt.Println(line + StyleDim.Render(" · ") + statusStyle.Render(status))
}

// =============================================================================
// Tables
// =============================================================================

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleTableHeader
			}
			return styleTableCell
		})
}

// writeGraphTable writes the nodes of g, then its edges, as tables.
// Rows are sorted by node key so output is stable.
func writeGraphTable(w io.Writer, g graph.GraphData) {
	nodes := newTable("Key", "Kind", "Label", "Object ID", "Flags")
	for _, k := range slices.Sorted(maps.Keys(g.Nodes)) {
		n := g.Nodes[k]
		nodes.Row(k, n.Kind, n.Label, n.ObjectID, nodeFlags(n))
	}
	fmt.Fprintln(w, nodes.Render())

	if len(g.Edges) == 0 {
		return
	}
	edges := newTable("Source", "Kind", "Target", "Impact")
	for _, e := range g.Edges {
		impact := ""
		if e.ImpactPercent != nil {
			impact = fmt.Sprintf("%.0f%%", *e.ImpactPercent)
		}
		edges.Row(labelOf(g, e.Source), e.Kind, labelOf(g, e.Target), impact)
	}
	fmt.Fprintln(w, edges.Render())
}

func nodeFlags(n graph.NodeRecord) string {
	var flags []string
	if n.IsTierZero {
		flags = append(flags, styleTierZero.Render("tier0"))
	}
	if n.IsOwnedObject {
		flags = append(flags, styleOwned.Render("owned"))
	}
	return strings.Join(flags, " ")
}

func labelOf(g graph.GraphData, key string) string {
	if n, ok := g.Nodes[key]; ok && n.Label != "" {
		return n.Label
	}
	return key
}

// writeSectionTable writes one section page. Columns are the union of
// the row keys, with name and objectid first when present.
func writeSectionTable(w io.Writer, p *explore.SectionPage) {
	cols := sectionColumns(p.Data)
	t := newTable(cols...)
	for _, row := range p.Data {
		cells := make([]string, len(cols))
		for i, c := range cols {
			if v, ok := row[c]; ok && v != nil {
				cells[i] = fmt.Sprint(v)
			}
		}
		t.Row(cells...)
	}
	fmt.Fprintln(w, t.Render())
	end := p.Skip + len(p.Data)
	fmt.Fprintln(w, StyleDim.Render(fmt.Sprintf("  rows %d-%d of %d", min(p.Skip+1, end), end, p.Count)))
}

func sectionColumns(rows []map[string]any) []string {
	seen := map[string]bool{}
	for _, r := range rows {
		for k, v := range r {
			if _, nested := v.(map[string]any); !nested {
				seen[k] = true
			}
		}
	}
	var cols []string
	for _, k := range []string{"name", "objectid"} {
		if seen[k] {
			cols = append(cols, k)
			delete(seen, k)
		}
	}
	return append(cols, slices.Sorted(maps.Keys(seen))...)
}
