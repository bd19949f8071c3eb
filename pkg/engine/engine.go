package engine

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/foodweb/pkg/core/cycles"
	"github.com/matzehuels/foodweb/pkg/core/layout"
	"github.com/matzehuels/foodweb/pkg/core/trophic"
	"github.com/matzehuels/foodweb/pkg/core/web"
	"github.com/matzehuels/foodweb/pkg/observability"
)

// subscriberBuffer is the capacity of each Subscribe channel. Events for a
// subscriber whose buffer is full are dropped.
const subscriberBuffer = 16

// Options configures an [Engine].
type Options struct {
	Layout  layout.Options
	Trophic trophic.Options

	// Background runs heavy recomputations on their own goroutine.
	Background bool

	// Seed, when non-zero, overrides Layout.Seed and seeds the refiner.
	Seed uint64

	// Logger receives debug events. Nil discards them.
	Logger *log.Logger

	// Hooks receives engine events. Nil uses the registered global hooks.
	Hooks observability.EngineHooks
}

// Settled is published each time a heavy result has been applied.
type Settled struct {
	Version  uint64 // store version the result was computed from
	Current  uint64 // store version when it was applied
	Duration time.Duration
}

// Stale reports whether the store changed while the result was computed.
func (s Settled) Stale() bool { return s.Current != s.Version }

// Action reports what a call to [Engine.Tick] did.
type Action uint8

const (
	Applied    Action = 1 << iota // a heavy result was applied
	Dispatched                    // a heavy run was started
	Refined                       // one node was refined

	Idle Action = 0
)

func (a Action) String() string {
	if a == Idle {
		return "idle"
	}
	var parts []string
	if a&Applied != 0 {
		parts = append(parts, "applied")
	}
	if a&Dispatched != 0 {
		parts = append(parts, "dispatched")
	}
	if a&Refined != 0 {
		parts = append(parts, "refined")
	}
	return strings.Join(parts, "+")
}

// Engine schedules layout and analysis work for a [web.Store].
type Engine struct {
	store  *web.Store
	logger *log.Logger
	hooks  observability.EngineHooks
	bg     bool

	layout  *layout.Solver
	trophic *trophic.Solver
	cycles  *cycles.Finder
	refiner *layout.Refiner

	// placed holds IDs that have received a solved position at least once.
	placed map[int]bool

	// pending forces a heavy run on a store that was loaded before the
	// engine attached to it.
	pending    bool
	inFlight   bool
	dispatched time.Time
	results    chan outcome

	analysis Analysis
	subs     []chan Settled
	runs     int
}

// New creates an engine observing store. The store must not be shared with
// another engine.
func New(store *web.Store, opts Options) *Engine {
	if opts.Seed != 0 {
		opts.Layout.Seed = opts.Seed
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	hooks := opts.Hooks
	if hooks == nil {
		hooks = observability.Engine()
	}

	solver := layout.NewSolver(opts.Layout)
	e := &Engine{
		store:   store,
		logger:  logger,
		hooks:   hooks,
		bg:      opts.Background,
		layout:  solver,
		trophic: trophic.NewSolver(opts.Trophic),
		cycles:  cycles.NewFinder(),
		refiner: layout.NewRefiner(solver.Options().Seed),
		placed:  make(map[int]bool),
		results: make(chan outcome, 1),
		pending: store.NodeCount() > 0,
	}
	for _, n := range store.Nodes() {
		e.refiner.Touch(n.ID)
		// Loaded positions anchor the first solve's alignment.
		if n.Pos != (r2.Vec{}) {
			e.placed[n.ID] = true
		}
	}
	store.Subscribe(e.observe)
	return e
}

// Store returns the observed store.
func (e *Engine) Store() *web.Store { return e.store }

// Analysis returns the most recently applied analysis. Its zero value means
// no heavy run has completed yet.
func (e *Engine) Analysis() Analysis { return e.analysis }

// Position returns the current stress position of an active or archived node.
func (e *Engine) Position(id int) (r2.Vec, bool) {
	n, ok := e.store.Node(id)
	return n.Pos, ok
}

// Positions returns the current positions of all active nodes.
func (e *Engine) Positions() map[int]r2.Vec {
	nodes := e.store.Nodes()
	pos := make(map[int]r2.Vec, len(nodes))
	for _, n := range nodes {
		pos[n.ID] = n.Pos
	}
	return pos
}

// Busy reports whether heavy work is in flight or pending.
func (e *Engine) Busy() bool { return e.inFlight || e.stale() }

func (e *Engine) stale() bool { return e.pending || e.store.Dirty() }

// Runs returns the number of heavy runs dispatched so far.
func (e *Engine) Runs() int { return e.runs }

// Subscribe returns a channel receiving a [Settled] event per applied heavy
// result. The channel is closed by [Engine.Close].
func (e *Engine) Subscribe() <-chan Settled {
	ch := make(chan Settled, subscriberBuffer)
	e.subs = append(e.subs, ch)
	return ch
}

func (e *Engine) observe(m web.Mutation) {
	e.refiner.Touch(m.Touched...)
	if m.Kind == web.NodeRemoved {
		delete(e.placed, m.Node)
	}
	if e.inFlight {
		e.hooks.OnCoalesced(context.Background(), m.Version)
	}
}

// Tick advances the engine by one frame. See the package documentation for
// the order of work.
func (e *Engine) Tick() Action {
	act := Idle
	if e.inFlight {
		select {
		case out := <-e.results:
			e.apply(out)
			act |= Applied
		default:
		}
	}
	if !e.inFlight && e.stale() {
		e.dispatch(context.Background())
		act |= Dispatched
		if !e.inFlight {
			act |= Applied
		}
		return act
	}
	if act == Idle && !e.inFlight && !e.stale() && e.refine() {
		act |= Refined
	}
	return act
}

// Wait runs heavy work until the store is clean and nothing is in flight.
func (e *Engine) Wait(ctx context.Context) error {
	for {
		if e.inFlight {
			select {
			case out := <-e.results:
				e.apply(out)
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}
		if !e.stale() {
			return nil
		}
		e.dispatch(ctx)
	}
}

// Close waits for an in-flight run to finish, discards it, drops queued
// refinement work and closes every subscriber channel.
func (e *Engine) Close() {
	if e.inFlight {
		<-e.results
		e.inFlight = false
	}
	e.refiner.Forget()
	for _, ch := range e.subs {
		close(ch)
	}
	e.subs = nil
}

func (e *Engine) dispatch(ctx context.Context) {
	snap := e.store.Snapshot()
	e.store.MarkClean()
	e.pending = false

	prev := make(map[int]r2.Vec, len(e.placed))
	for i, id := range snap.IDs {
		if e.placed[id] {
			prev[id] = snap.Pos[i]
		}
	}

	e.inFlight = true
	e.dispatched = time.Now()
	e.runs++
	e.hooks.OnDispatch(ctx, snap.Version, snap.Len())
	e.logger.Debug("dispatch", "version", snap.Version, "nodes", snap.Len(), "links", snap.LinkCount(), "background", e.bg)

	if !e.bg {
		e.apply(e.compute(snap, prev))
		return
	}
	go func() {
		e.results <- e.compute(snap, prev)
	}()
}

func (e *Engine) compute(snap *web.Snapshot, prev map[int]r2.Vec) outcome {
	out := outcome{snap: snap}

	var g errgroup.Group
	g.Go(func() error {
		out.layout = e.layout.Solve(snap, prev)
		return nil
	})
	g.Go(func() error {
		out.trophic = e.trophic.Solve(snap)
		return nil
	})
	g.Go(func() error {
		out.cycles = e.cycles.Longest(snap)
		return nil
	})
	_ = g.Wait()

	return out
}

func (e *Engine) apply(out outcome) {
	out.checkFinite()

	for i, id := range out.snap.IDs {
		if !e.store.HasNode(id) {
			continue
		}
		e.store.SetPosition(id, out.layout.Positions[i])
		e.placed[id] = true
	}
	e.analysis = out.analysis()
	e.inFlight = false

	ev := Settled{
		Version:  out.snap.Version,
		Current:  e.store.Version(),
		Duration: time.Since(e.dispatched),
	}
	e.hooks.OnSettled(context.Background(), ev.Version, ev.Duration)
	e.logger.Debug("settled",
		"version", ev.Version,
		"stale", ev.Stale(),
		"stress", out.layout.Stress,
		"components", e.analysis.ComponentCount,
		"cycle", e.analysis.MaxCycleLength,
		"duration", ev.Duration)

	for _, ch := range e.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (e *Engine) refine() bool {
	id, pos, ok := e.refiner.Step(e.store)
	if !ok {
		return false
	}
	e.store.SetPosition(id, pos)
	return true
}
