// Package render converts rendered graph output between formats.
//
// [ToPDF] and [ToPNG] shell out to rsvg-convert (from librsvg) to turn the
// SVG produced by the [nodelink] renderer into PDF or PNG.
//
//	dot := nodelink.ToDOT(g, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	pdf, err := render.ToPDF(ctx, svg)
//
// [nodelink]: github.com/matzehuels/houndview/pkg/render/nodelink
package render
