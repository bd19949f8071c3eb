// Package graph provides serialization types for food webs and their
// analyses.
//
// This package defines the canonical wire format used for JSON files, API
// responses, cache entries and MongoDB documents.
//
// # Architecture
//
// The package sits at the serialization boundary between the live network
// and external formats:
//
//   - [Graph], [Analysis], [Document]: Serialization types (this package)
//   - pkg/core/web.Store: Live network with archive
//   - pkg/engine.Analysis: Derived state keyed by node ID
//
// Use [ToStore]/[FromStore] and [NewAnalysis] to convert between them.
//
// # Graph Serialization
//
// Graphs use a node-link JSON format. Node IDs are integers; links are
// directed from resource to consumer:
//
//	{
//	  "nodes": [{"id": 1, "label": "Kelp"}, {"id": 2, "label": "Urchin"}],
//	  "links": [{"source": 1, "target": 2}]
//	}
//
// Optional node fields: pos ({x, y}), focus ({x, y, z}), flags
// (any of "source", "target", "focus", or ["none"]; omitted means all),
// archived. Optional link fields: removable, archived.
//
// Common operations:
//
//	g, _ := graph.ReadGraphFile("reef.json")    // File → Graph
//	store, _ := graph.ToStore(g)                // Graph → live store
//	out := graph.FromStore(store, g.Labels())   // live store → Graph
//	graph.WriteGraphFile(out, "output.json")    // Graph → File
//
// # Determinism
//
// [FromStore] sorts nodes by ID and links by (source, target), so marshaling
// the same network always yields the same bytes. Cache keys rely on this.
package graph
