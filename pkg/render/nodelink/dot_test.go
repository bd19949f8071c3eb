package nodelink

import (
	"context"
	"strings"
	"testing"

	errs "github.com/matzehuels/foodweb/pkg/errors"
	"github.com/matzehuels/foodweb/pkg/graph"
	"github.com/matzehuels/foodweb/pkg/render"
)

func triangle() (graph.Graph, *graph.Analysis) {
	g := graph.Graph{
		Nodes: []graph.Node{
			{ID: 1, Label: "Kelp"},
			{ID: 2, Label: "Urchin"},
			{ID: 3, Label: "Otter"},
			{ID: 4, Label: "Orca", Archived: true},
		},
		Links: []graph.Link{
			{Source: 1, Target: 2},
			{Source: 2, Target: 3, Removable: true},
			{Source: 3, Target: 1},
			{Source: 3, Target: 4, Archived: true},
		},
	}
	a := &graph.Analysis{
		Nodes:          3,
		MaxCycleLength: 3,
		Cycle:          []int{1, 2, 3},
		Metrics: []graph.NodeMetric{
			{ID: 1, Level: 1, X: 0, Y: 0},
			{ID: 2, Level: 2, X: 1, Y: 0},
			{ID: 3, Level: 3, X: 0.5, Y: 0.866},
		},
	}
	return g, a
}

func TestToDOT_Basic(t *testing.T) {
	g, a := triangle()
	dot := ToDOT(g, a, Options{})

	for _, want := range []string{
		"digraph G",
		"layout=neato",
		`1 [label="1"`,
		`pos="1.000,0.000!"`,
		`pos="0.500,0.866!"`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() output missing %q", want)
		}
	}
	if strings.Contains(dot, "Orca") || strings.Contains(dot, "3 -> 4") {
		t.Error("archived node or link should not be drawn")
	}
}

func TestToDOT_Labels(t *testing.T) {
	g, a := triangle()
	dot := ToDOT(g, a, Options{Labels: true, Detailed: true})
	if !strings.Contains(dot, `label="Otter\nL 3.00  H 0"`) {
		t.Errorf("detailed label missing:\n%s", dot)
	}
}

func TestToDOT_CycleHighlight(t *testing.T) {
	g, a := triangle()

	dot := ToDOT(g, a, Options{})
	for _, want := range []string{"1 -> 2 [color=crimson", "3 -> 1 [color=crimson", "penwidth=3"} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %q", want)
		}
	}
	if !strings.Contains(dot, "2 -> 3 [color=crimson, penwidth=2.5, style=dashed]") {
		t.Error("removable cycle link should be highlighted and dashed")
	}

	plain := ToDOT(g, a, Options{NoHighlight: true})
	if strings.Contains(plain, "crimson") {
		t.Error("NoHighlight should suppress the cycle highlight")
	}
}

func TestToDOT_Scale(t *testing.T) {
	g, a := triangle()
	dot := ToDOT(g, a, Options{Scale: 2})
	if !strings.Contains(dot, `pos="2.000,0.000!"`) {
		t.Error("Scale not applied to positions")
	}
}

func TestToDOT_NoAnalysis(t *testing.T) {
	g := graph.Graph{Nodes: []graph.Node{{ID: 7, Pos: &graph.Point{X: 3, Y: 4}}}}
	dot := ToDOT(g, nil, Options{})
	if !strings.Contains(dot, `pos="3.000,4.000!"`) {
		t.Error("stored position should be used without an analysis")
	}
	if !strings.Contains(dot, levelColor(1, 1)) {
		t.Error("nodes without analysis should use the basal color")
	}
}

func TestLevelColor(t *testing.T) {
	tests := []struct {
		level, max float64
		want       string
	}{
		{1, 3, "0.333 0.550 0.950"},
		{3, 3, "0.000 0.550 0.950"},
		{2, 3, "0.167 0.550 0.950"},
		{5, 3, "0.000 0.550 0.950"},
		{1, 1, "0.333 0.550 0.950"},
	}
	for _, tt := range tests {
		if got := levelColor(tt.level, tt.max); got != tt.want {
			t.Errorf("levelColor(%v, %v) = %q, want %q", tt.level, tt.max, got, tt.want)
		}
	}
}

func TestRenderSVG(t *testing.T) {
	g, a := triangle()
	svg, err := RenderSVG(context.Background(), ToDOT(g, a, Options{Labels: true}))
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	s := string(svg)
	if !strings.Contains(s, "<svg") || !strings.Contains(s, "Otter") {
		t.Errorf("unexpected SVG output: %.200s", s)
	}
}

func TestRenderFormats(t *testing.T) {
	out, err := Render(context.Background(), "digraph G {}", render.FormatDOT)
	if err != nil || string(out) != "digraph G {}" {
		t.Errorf("Render(dot) = %q, %v", out, err)
	}
	if _, err := Render(context.Background(), "digraph G {}", "gif"); !errs.Is(err, errs.ErrCodeUnsupported) {
		t.Errorf("Render(gif) err = %v, want UNSUPPORTED", err)
	}
}
