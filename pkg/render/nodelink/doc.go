// Package nodelink renders explore graphs as node-link diagrams.
//
// # Usage
//
// Convert a canonical graph to DOT, then render to SVG:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// PDF and PNG go through SVG:
//
//	pdf, err := nodelink.RenderPDF(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot, 2.0)
//
// # Styling
//
// Nodes are filled by kind. Tier zero nodes carry a double border and
// owned nodes a red outline. Edges are labelled with their kind.
//
// # Dependencies
//
// [github.com/goccy/go-graphviz] renders SVG in process. PDF and PNG
// conversion requires librsvg (rsvg-convert).
package nodelink
