package engine

import (
	"context"
	"errors"
	"math"
	"reflect"
	"sync"
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/foodweb/pkg/core/web"
	"github.com/matzehuels/foodweb/pkg/observability"
)

type countingHooks struct {
	observability.NoopEngineHooks

	mu         sync.Mutex
	active     int
	maxActive  int
	dispatches int
	coalesced  int
}

func (h *countingHooks) OnDispatch(context.Context, uint64, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dispatches++
	h.active++
	h.maxActive = max(h.maxActive, h.active)
}

func (h *countingHooks) OnSettled(context.Context, uint64, time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.active--
}

func (h *countingHooks) OnCoalesced(context.Context, uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.coalesced++
}

// script is a fixed sequence of edits exercising every mutation kind.
func script(s *web.Store) {
	for id := range 8 {
		s.AddNode(web.Node{ID: id, Flags: web.AllFlags})
	}
	for _, l := range [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 1}, {0, 4}, {4, 5}, {6, 7}} {
		s.AddLink(web.Link{Source: l[0], Target: l[1], Removable: true})
	}
}

func script2(s *web.Store) {
	s.ArchiveNode(4)
	s.AddLink(web.Link{Source: 2, Target: 6})
	s.RestoreNode(4)
	s.RemoveLink(6, 7)
	s.RemoveNodePermanently(7)
}

func wait(t *testing.T, e *Engine) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Wait(ctx); err != nil {
		t.Fatalf("Wait() = %v", err)
	}
}

func positions(s *web.Store) map[int]r2.Vec {
	out := map[int]r2.Vec{}
	for _, n := range s.Nodes() {
		out[n.ID] = n.Pos
	}
	return out
}

func TestBackgroundMatchesSynchronous(t *testing.T) {
	run := func(background bool) (Analysis, map[int]r2.Vec) {
		s := web.NewStore()
		e := New(s, Options{Background: background, Seed: 11})
		defer e.Close()

		script(s)
		wait(t, e)
		script2(s)
		wait(t, e)
		return e.Analysis(), positions(s)
	}

	syncA, syncPos := run(false)
	bgA, bgPos := run(true)

	if !reflect.DeepEqual(syncA, bgA) {
		t.Errorf("analyses differ:\nsync: %+v\nbg:   %+v", syncA, bgA)
	}
	if !reflect.DeepEqual(syncPos, bgPos) {
		t.Errorf("positions differ:\nsync: %v\nbg:   %v", syncPos, bgPos)
	}
}

func TestAnalysisOfPath(t *testing.T) {
	s := web.NewStore()
	e := New(s, Options{})
	for id := range 4 {
		s.AddNode(web.Node{ID: id})
	}
	for id := range 3 {
		s.AddLink(web.Link{Source: id, Target: id + 1})
	}
	wait(t, e)

	a := e.Analysis()
	if a.Nodes != 4 || a.Links != 3 || a.ComponentCount != 1 {
		t.Errorf("counts: %+v", a)
	}
	if a.MaxChainHeight != 3 || !reflect.DeepEqual(a.Tallest, []int{3}) {
		t.Errorf("MaxChainHeight=%d Tallest=%v, want 3 [3]", a.MaxChainHeight, a.Tallest)
	}
	for id := range 4 {
		if math.Abs(a.Levels[id]-float64(id+1)) > 1e-6 {
			t.Errorf("level(%d) = %v, want %d", id, a.Levels[id], id+1)
		}
	}
	if a.MaxCycleLength != 0 || a.Cycle != nil {
		t.Errorf("cycle: %d %v, want none", a.MaxCycleLength, a.Cycle)
	}
	if a.Degenerate || !a.Converged {
		t.Errorf("Degenerate=%v Converged=%v", a.Degenerate, a.Converged)
	}
	if a.Version != s.Version() {
		t.Errorf("Version = %d, want %d", a.Version, s.Version())
	}
}

func TestAnalysisOfCycles(t *testing.T) {
	s := web.NewStore()
	e := New(s, Options{Background: true})
	defer e.Close()
	script(s)
	wait(t, e)

	a := e.Analysis()
	if a.MaxCycleLength != 3 || !reflect.DeepEqual(a.Cycle, []int{1, 2, 3}) || a.CycleTies != 1 {
		t.Errorf("cycle = %d %v ties %d", a.MaxCycleLength, a.Cycle, a.CycleTies)
	}
	if a.ComponentCount != 2 {
		t.Errorf("ComponentCount = %d, want 2", a.ComponentCount)
	}
	if a.ComponentOf[6] == a.ComponentOf[0] {
		t.Error("6 and 0 should be in different components")
	}

	s.AddLink(web.Link{Source: 5, Target: 6})
	wait(t, e)
	if got := e.Analysis().ComponentCount; got != 1 {
		t.Errorf("after joining: ComponentCount = %d, want 1", got)
	}
}

func TestCoalescing(t *testing.T) {
	hooks := &countingHooks{}
	s := web.NewStore()
	e := New(s, Options{Background: true, Hooks: hooks})
	defer e.Close()

	script(s)
	if got := e.Tick(); got&Dispatched == 0 {
		t.Fatalf("Tick() = %v, want a dispatch", got)
	}

	// The run cannot be applied before the next Tick or Wait, so these all
	// coalesce.
	for id := 10; id < 15; id++ {
		s.AddNode(web.Node{ID: id})
	}
	if !e.Busy() {
		t.Error("engine should be busy")
	}
	wait(t, e)

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	if hooks.dispatches != 2 {
		t.Errorf("dispatches = %d, want 2", hooks.dispatches)
	}
	if hooks.coalesced != 5 {
		t.Errorf("coalesced = %d, want 5", hooks.coalesced)
	}
	if hooks.maxActive != 1 {
		t.Errorf("max concurrent runs = %d, want 1", hooks.maxActive)
	}
	if e.Analysis().Nodes != 13 {
		t.Errorf("Nodes = %d, want 13", e.Analysis().Nodes)
	}
}

func TestApplySkipsArchivedNodes(t *testing.T) {
	s := web.NewStore()
	e := New(s, Options{Background: true})
	defer e.Close()

	script(s)
	s.SetPosition(5, r2.Vec{X: -40, Y: -40})
	e.Tick()
	s.ArchiveNode(5)
	wait(t, e)

	if pos, _ := e.Position(5); pos != (r2.Vec{X: -40, Y: -40}) {
		t.Errorf("archived node moved to %v", pos)
	}
	if _, ok := e.Analysis().Levels[5]; ok {
		t.Error("latest analysis should not include the archived node")
	}
}

func TestSubscribe(t *testing.T) {
	s := web.NewStore()
	e := New(s, Options{Background: true})
	ch := e.Subscribe()

	script(s)
	wait(t, e)

	select {
	case ev := <-ch:
		if ev.Version != s.Version() || ev.Stale() {
			t.Errorf("event = %+v, want fresh version %d", ev, s.Version())
		}
	default:
		t.Fatal("no settled event")
	}

	e.Close()
	if _, ok := <-ch; ok {
		t.Error("channel should be closed")
	}
}

func TestTickRefinesBetweenRuns(t *testing.T) {
	s := web.NewStore()
	e := New(s, Options{})
	script(s)

	if got := e.Tick(); got != Applied|Dispatched {
		t.Fatalf("first Tick() = %v, want applied+dispatched", got)
	}

	s.SetPosition(5, r2.Vec{X: 100, Y: 100})
	refined := false
	for range 20 {
		if e.Tick() == Refined {
			refined = true
		}
	}
	if !refined {
		t.Fatal("no refinement step ran")
	}
	if pos, _ := e.Position(5); r2.Norm(pos) > 100 {
		t.Errorf("node 5 still far away at %v", pos)
	}
}

func TestTickSkipsRefineWhileRunInFlight(t *testing.T) {
	s := web.NewStore()
	e := New(s, Options{Background: true})
	defer e.Close()

	for id := range 400 {
		s.AddNode(web.Node{ID: id})
	}
	for id := range 399 {
		s.AddLink(web.Link{Source: id, Target: id + 1})
	}

	if got := e.Tick(); got != Dispatched {
		t.Fatalf("first Tick() = %v, want dispatched", got)
	}
	for range 5 {
		if !e.inFlight {
			break
		}
		if got := e.Tick(); got&Refined != 0 {
			t.Fatalf("Tick() = %v while a heavy run was in flight", got)
		}
	}

	wait(t, e)
	if got := e.Tick(); got != Refined {
		t.Errorf("Tick() after settling = %v, want refined", got)
	}
}

func TestCloseDropsRefinerQueue(t *testing.T) {
	s := web.NewStore()
	e := New(s, Options{})
	script(s)
	if e.refiner.Pending() == 0 {
		t.Fatal("mutations should queue refinement work")
	}
	e.Close()
	if n := e.refiner.Pending(); n != 0 {
		t.Errorf("Pending() after Close = %d, want 0", n)
	}
}

func TestIdleTick(t *testing.T) {
	e := New(web.NewStore(), Options{})
	if got := e.Tick(); got != Idle {
		t.Errorf("Tick() on empty store = %v, want idle", got)
	}
}

func TestCheckFinite(t *testing.T) {
	s := web.NewStore()
	s.AddNode(web.Node{ID: 1})
	snap := s.Snapshot()

	out := outcome{snap: snap}
	out.layout.Positions = []r2.Vec{{X: math.NaN()}}
	out.trophic.Levels = []float64{1}

	defer func() {
		err, _ := recover().(error)
		if !errors.Is(err, ErrNaN) {
			t.Errorf("recover() = %v, want ErrNaN", err)
		}
	}()
	out.checkFinite()
}

func TestActionString(t *testing.T) {
	tests := []struct {
		a    Action
		want string
	}{
		{Idle, "idle"},
		{Refined, "refined"},
		{Applied | Dispatched, "applied+dispatched"},
	}
	for _, tt := range tests {
		if got := tt.a.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.a, got, tt.want)
		}
	}
}

func TestPreloadedStoreIsSolved(t *testing.T) {
	s := web.NewStore()
	for id := range 3 {
		s.AddNode(web.Node{ID: id, Flags: web.AllFlags})
	}
	s.AddLink(web.Link{Source: 0, Target: 1})
	s.AddLink(web.Link{Source: 1, Target: 2})
	s.MarkClean()

	e := New(s, Options{})
	defer e.Close()
	if !e.Busy() {
		t.Fatal("engine on a populated store should have work pending")
	}
	if got := e.Tick(); got != Dispatched|Applied {
		t.Fatalf("first Tick = %v, want applied+dispatched", got)
	}
	if a := e.Analysis(); a.Nodes != 3 || a.MaxChainHeight != 2 {
		t.Errorf("analysis = %+v", a)
	}
	if e.Busy() {
		t.Error("engine still busy after synchronous run")
	}
}
