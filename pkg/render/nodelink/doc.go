// Package nodelink renders food webs as positioned node-link diagrams.
//
// # Overview
//
// Unlike a layered Graphviz drawing, positions are not computed here: every
// node is pinned (pos="x,y!") at the coordinates produced by the stress
// layout, and Graphviz's neato engine only routes the arrows. Feeding links
// point from resource to consumer.
//
// # Usage
//
//	dot := nodelink.ToDOT(g, &analysis, nodelink.Options{Labels: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// For PDF or PNG output:
//
//	pdf, err := nodelink.RenderPDF(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot, 2.0)
//
// # Styling
//
// Nodes are filled on a green-to-red ramp by trophic level (basal species
// green, top predators red). Nodes on the reported longest cycle get a thick
// outline and the cycle's links are drawn in crimson. Archived nodes and
// links are not drawn.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
