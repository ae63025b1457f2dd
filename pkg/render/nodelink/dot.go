package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/houndview/pkg/graph"
	"github.com/matzehuels/houndview/pkg/render"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the object id and last-seen time to node labels and the
	// kind to edge labels. When false nodes show only their label.
	Detailed bool

	// Direction is the Graphviz rankdir. Defaults to LR.
	Direction string
}

// kindColors fills common node kinds. Others are white.
var kindColors = map[string]string{
	"User":           "#17e625",
	"Group":          "#dbe617",
	"Computer":       "#e67873",
	"Domain":         "#17e6b9",
	"GPO":            "#998e4a",
	"OU":             "#ffaa00",
	"Container":      "#f79a78",
	"AZUser":         "#34d2eb",
	"AZGroup":        "#f57c9b",
	"AZTenant":       "#54f2f2",
	"AZApp":          "#03fc84",
	"AZKeyVault":     "#ed658c",
	"AZVM":           "#f9adfc",
	"AZSubscription": "#d2ccf2",
}

// ToDOT converts a canonical graph to Graphviz DOT. Nodes and edges are
// emitted in key order so equal graphs produce equal output.
//
// Tier zero nodes get a double border and owned nodes a red outline.
func ToDOT(g graph.GraphData, opts Options) string {
	dir := opts.Direction
	if dir == "" {
		dir = "LR"
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", dir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontsize=10];\n")
	buf.WriteString("\n")

	for _, key := range slices.Sorted(maps.Keys(g.Nodes)) {
		n := g.Nodes[key]
		attrs := fmtAttrs(n, fmtLabel(n, opts.Detailed))
		fmt.Fprintf(&buf, "  %q [%s];\n", key, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	edges := slices.Clone(g.Edges)
	slices.SortFunc(edges, func(a, b graph.EdgeRecord) int {
		return strings.Compare(a.ExploreGraphID, b.ExploreGraphID)
	})
	for _, e := range edges {
		fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", e.Source, e.Target, e.Label)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n graph.NodeRecord, detailed bool) string {
	label := n.Label
	if n.Kind != "" {
		label = n.Kind + ": " + label
	}
	if !detailed {
		return label
	}
	var parts []string
	if n.ObjectID != "" {
		parts = append(parts, "objectid: "+n.ObjectID)
	}
	if n.LastSeen != "" {
		parts = append(parts, "last seen: "+n.LastSeen)
	}
	if len(parts) == 0 {
		return label
	}
	return label + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(n graph.NodeRecord, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if c, ok := kindColors[n.Kind]; ok {
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", c))
	}
	if n.IsTierZero {
		attrs = append(attrs, "peripheries=2")
	}
	if n.IsOwnedObject {
		attrs = append(attrs, "color=red", "penwidth=2")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion. A scale of 2.0
// doubles the resolution.
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
