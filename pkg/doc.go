// Package pkg provides the core libraries of foodweb, a layout and analysis
// engine for directed species interaction networks.
//
// # Overview
//
// A food web is a directed graph whose links point from a resource to its
// consumer. foodweb keeps a live, editable copy of the network, computes a
// stress layout for drawing it, and derives trophic levels, feeding chain
// heights, the longest feeding cycle and the connected components. The pkg
// directory is organized into four areas:
//
//  1. [core] - Domain logic (the live store and the solvers)
//  2. [engine] - Scheduling of heavy recomputation and per-frame refinement
//  3. [pipeline] - Batch orchestration (load → analyze → render)
//  4. Infrastructure - caching, persistence, HTTP fetching and the API
//
// # Architecture
//
// The data flow of a batch run:
//
//	JSON graph / edge list (file or URL)
//	         ↓
//	    [graph] / [io] packages (decode, validate)
//	         ↓
//	    [core/web] Store (live network with archive)
//	         ↓
//	    [engine] (layout ∥ trophic ∥ cycles, components)
//	         ↓
//	    [render/nodelink] (Graphviz DOT, SVG, PNG, PDF)
//
// Interactive use keeps the store alive instead: mutations mark it dirty, the
// engine dispatches a heavy run on the next tick (in the background when
// configured) and refines one node per tick in between.
//
// # Quick Start
//
//	g, _ := graph.ReadGraphFile("reef.json")
//	store, _ := graph.ToStore(g)
//	eng := engine.New(store, engine.Options{Seed: 42})
//	_ = eng.Wait(ctx)
//	a := eng.Analysis()
//	fmt.Println(a.ComponentCount, a.MaxChainHeight, a.MaxCycleLength)
//
// # Main Packages
//
// ## Core Domain Logic
//
// [core/web] - The network store: active and archived nodes and links, the
// mutation guards, change notification and immutable snapshots.
//
// [core/layout] - Stress majorization by stochastic gradient descent, with
// alignment to previous positions and single-node refinement.
//
// [core/trophic] - Trophic levels by iterative averaging and feeding chain
// heights by breadth-first search from basal species.
//
// [core/cycles] - The longest simple feeding cycle.
//
// [core/components] - Weakly connected components.
//
// ## Orchestration
//
// [engine] - Runs the solvers concurrently on snapshots and applies results
// to the store, coalescing edits made while a run is in flight.
//
// [pipeline] - Cached batch pipeline shared by the CLI and the API.
//
// [session] - Live engines held for API clients, with idle expiry.
//
// ## Serialization and Rendering
//
// [graph] - JSON node-link format, analyses and stored documents.
//
// [io] - Plain edge-list import and export.
//
// [render] - Output formats and SVG conversion; [render/nodelink] draws
// positioned node-link diagrams with Graphviz.
//
// ## Infrastructure
//
// [cache] - Content-addressed cache with file, LRU, Redis and null backends.
//
// [store] - Named web documents in memory, on disk or in MongoDB.
//
// [httputil] - Cached, retrying fetches of remote web files.
//
// [api] - HTTP API over stored webs and live sessions.
//
// [config] - TOML configuration.
//
// [errors] - Coded errors shared by the CLI and the API.
//
// [observability] - Hooks for metrics and tracing.
//
// [buildinfo] - Version information set at link time.
package pkg
