// Package web provides the mutable species-interaction network that the
// layout and analysis solvers operate on.
//
// # Overview
//
// A [Store] owns node and link existence. Nodes carry a stable integer ID, a
// 2D stress position written back by the layout solver, an optional 3D focus
// position used by interactive front ends, capability flags, and a lifecycle
// state. Links are directed (resource → consumer) and carry a removable flag.
//
// The store enforces three structural invariants on links:
//
//   - at most one link per ordered pair
//   - a link and its reverse never coexist
//   - self-links are forbidden
//
// Violations are programmer errors. Mutating methods panic with an error that
// wraps one of the package sentinels ([ErrDuplicateNode], [ErrSelfLink], ...).
// Callers that accept untrusted input validate first with the guard methods
// [Store.HasNode], [Store.CanAddLink], [Store.CanRemoveLink] and friends.
//
// # Archive
//
// [Store.ArchiveNode] is a soft delete: the node and all incident links move
// to a parallel archive. [Store.RestoreNode] brings the node back together
// with every archived link whose other endpoint is still active. Archived IDs
// are never reused; only [Store.RemoveNodePermanently] frees them.
//
// # Snapshots
//
// Solvers never read the store directly. [Store.Snapshot] captures an
// immutable, index-addressed copy of the active graph with sorted adjacency
// lists, so results are deterministic and a snapshot can be handed to a
// background goroutine while the store keeps changing.
//
// # Concurrency
//
// Store is not safe for concurrent use. All mutations are expected to happen
// on a single interactive goroutine. Snapshots are read-only and may be
// shared freely.
package web
