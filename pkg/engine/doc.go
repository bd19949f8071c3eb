// Package engine keeps the layout and analysis of a live network current
// while it is being edited.
//
// # Overview
//
// An [Engine] wraps a [web.Store]. Mutations go straight to the store; the
// engine observes them and schedules work:
//
//   - A heavy recomputation runs the full layout solver, the trophic solver
//     and the longest-cycle finder on a [web.Snapshot]. The three solvers run
//     concurrently under an errgroup, each on an instance the engine owns.
//   - Between heavy runs the [layout.Refiner] moves one node per tick,
//     starting with the nodes a mutation touched.
//
// # Ticks
//
// [Engine.Tick] is meant to be called once per frame by the interactive
// layer. In order, it:
//
//  1. applies a finished heavy result, if one is waiting, writing positions
//     only for nodes that are still active;
//  2. dispatches a new heavy run when the store is dirty and none is in
//     flight;
//  3. otherwise, when no heavy run is in flight or pending, runs one
//     refinement step.
//
// With [Options.Background] the heavy run executes on its own goroutine and
// its result comes back over a channel; without it the run executes inline
// inside Tick. Both modes produce identical results for the same sequence of
// mutations.
//
// # Coalescing
//
// At most one heavy run is in flight. Mutations arriving during a run only
// mark the store dirty again; the next run picks them all up at once. Runs are
// never cancelled midway.
//
// # Notifications
//
// [Engine.Subscribe] returns a channel that receives a [Settled] event each
// time a heavy result is applied. [Engine.Wait] blocks until no heavy work is
// pending, which is what batch tools and tests want.
//
// # Concurrency
//
// The Engine and its store are not safe for concurrent use. Tick, Wait and
// all store mutations must happen on one goroutine; only the heavy run leaves
// it, and it only reads its own snapshot.
package engine
