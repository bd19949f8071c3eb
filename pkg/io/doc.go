// Package io imports and exports food webs in plain-text edge-list form.
//
// # Overview
//
// Field data often arrives as a list of "who eats whom" pairs rather than
// the JSON node-link format of pkg/graph. This package converts between the
// two so that such lists can be fed straight into the pipeline:
//
//	# kelp forest
//	node 1 Kelp
//	node 2 Urchin
//	node 3 Sea otter
//	1 2
//	2 3
//
// # Line Format
//
//   - Blank lines and lines starting with '#' are ignored.
//   - "node ID [LABEL...]" declares a node and its optional label.
//   - "SOURCE TARGET" declares a feeding link from resource to consumer.
//     Endpoints not declared with a node line are created implicitly.
//
// Fields are separated by whitespace or commas, so two-column CSV exports
// work unchanged. Errors carry the offending line number.
//
// # Format Detection
//
// [Import] picks the reader from the file extension: ".json" uses
// [graph.ReadGraphFile], anything else is read as an edge list.
//
// # Export
//
// [WriteEdgeList] emits node lines for every active node (in ID order) and
// link lines for every active link. Archived nodes, flags and positions are
// not representable; use the JSON format when they matter.
package io
