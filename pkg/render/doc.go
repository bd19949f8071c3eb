// Package render turns analyzed food webs into pictures.
//
// # Overview
//
// The [nodelink] subpackage draws a web as a positioned node-link diagram:
// nodes sit exactly where the stress layout put them, are colored by trophic
// level, and the longest feeding cycle is highlighted.
//
//	dot := nodelink.ToDOT(g, &analysis, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] convert any SVG using the external rsvg-convert tool
// (from librsvg). Without it both return an UNSUPPORTED error; check
// [Available] first to skip those formats.
//
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)  // 2x zoom
//
// [nodelink]: github.com/matzehuels/foodweb/pkg/render/nodelink
package render

// Output formats understood by the renderers.
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
	FormatPDF = "pdf"
	FormatPNG = "png"
)
