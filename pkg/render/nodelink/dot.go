package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	errs "github.com/matzehuels/foodweb/pkg/errors"
	"github.com/matzehuels/foodweb/pkg/graph"
	"github.com/matzehuels/foodweb/pkg/render"
)

// DefaultScale is the drawing size of one layout unit, in inches.
const DefaultScale = 1.0

// Options configures node-link rendering.
type Options struct {
	// Scale is the size of one layout unit in inches. Zero means DefaultScale.
	Scale float64

	// Labels shows node labels instead of bare IDs.
	Labels bool

	// Detailed appends trophic level and height to each label.
	Detailed bool

	// NoHighlight disables the longest-cycle highlight.
	NoHighlight bool
}

// ToDOT converts a web to Graphviz DOT with pinned positions. a supplies
// positions, levels and the cycle; when nil, stored node positions are used
// and every node is drawn in the basal color.
func ToDOT(g graph.Graph, a *graph.Analysis, opts Options) string {
	scale := opts.Scale
	if scale <= 0 {
		scale = DefaultScale
	}
	maxLevel := 1.0
	if a != nil {
		maxLevel = a.MaxLevel()
	}
	onCycle := cycleLinks(a, opts.NoHighlight)

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  outputorder=edgesfirst;\n")
	buf.WriteString("  splines=true;\n")
	buf.WriteString("  node [shape=circle, style=filled, fontsize=12, width=0.4, fixedsize=false];\n")
	buf.WriteString("  edge [arrowsize=0.6, color=\"#00000080\"];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes {
		if n.Archived {
			continue
		}
		attrs := nodeAttrs(n, a, opts, scale, maxLevel)
		fmt.Fprintf(&buf, "  %d [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, l := range g.Links {
		if l.Archived {
			continue
		}
		var attrs []string
		if onCycle[[2]int{l.Source, l.Target}] {
			attrs = append(attrs, "color=crimson", "penwidth=2.5")
		}
		if l.Removable {
			attrs = append(attrs, "style=dashed")
		}
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %d -> %d;\n", l.Source, l.Target)
		} else {
			fmt.Fprintf(&buf, "  %d -> %d [%s];\n", l.Source, l.Target, strings.Join(attrs, ", "))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n graph.Node, a *graph.Analysis, opts Options, scale, maxLevel float64) []string {
	x, y := 0.0, 0.0
	if n.Pos != nil {
		x, y = n.Pos.X, n.Pos.Y
	}
	level, height := 1.0, 0
	metric, ok := graph.NodeMetric{}, false
	if a != nil {
		metric, ok = a.Metric(n.ID)
	}
	if ok {
		x, y = metric.X, metric.Y
		level, height = metric.Level, metric.Height
	}

	attrs := []string{
		fmt.Sprintf("label=%q", fmtLabel(n, opts, level, height, ok)),
		fmt.Sprintf("pos=\"%s,%s!\"", fmtFloat(x*scale), fmtFloat(y*scale)),
		fmt.Sprintf("fillcolor=%q", levelColor(level, maxLevel)),
		fmt.Sprintf("tooltip=%q", fmt.Sprintf("level %.2f", level)),
	}
	if a != nil && !opts.NoHighlight && a.OnCycle(n.ID) {
		attrs = append(attrs, "penwidth=3", "color=crimson")
	}
	return attrs
}

func fmtLabel(n graph.Node, opts Options, level float64, height int, analyzed bool) string {
	label := strconv.Itoa(n.ID)
	if opts.Labels {
		label = n.DisplayLabel()
	}
	if !opts.Detailed || !analyzed {
		return label
	}
	h := "-"
	if height >= 0 {
		h = strconv.Itoa(height)
	}
	return fmt.Sprintf("%s\nL %.2f  H %s", label, level, h)
}

// levelColor maps level 1 to green and maxLevel to red, as a Graphviz HSV
// triple.
func levelColor(level, maxLevel float64) string {
	t := 0.0
	if maxLevel > 1 {
		t = min(max((level-1)/(maxLevel-1), 0), 1)
	}
	hue := (1 - t) / 3
	return fmt.Sprintf("%.3f 0.550 0.950", hue)
}

func cycleLinks(a *graph.Analysis, disabled bool) map[[2]int]bool {
	links := make(map[[2]int]bool)
	if a == nil || disabled || len(a.Cycle) < 2 {
		return links
	}
	for i, id := range a.Cycle {
		next := a.Cycle[(i+1)%len(a.Cycle)]
		links[[2]int{id, next}] = true
	}
	return links
}

func fmtFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 3, 64)
}

// RenderSVG renders DOT to SVG with Graphviz's neato engine, honoring pinned
// positions.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.-]+)\s+([0-9.-]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's fixed-size svg tag with one that
// scales to its container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// RenderPDF renders DOT to PDF via SVG.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders DOT to PNG via SVG at the given scale.
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}

// Render produces the requested format. FormatDOT returns the DOT source.
func Render(ctx context.Context, dot, format string) ([]byte, error) {
	switch format {
	case render.FormatDOT:
		return []byte(dot), nil
	case render.FormatSVG:
		return RenderSVG(ctx, dot)
	case render.FormatPDF:
		return RenderPDF(ctx, dot)
	case render.FormatPNG:
		return RenderPNG(ctx, dot, 2.0)
	default:
		return nil, errs.New(errs.ErrCodeUnsupported, "unsupported format %q", format)
	}
}
