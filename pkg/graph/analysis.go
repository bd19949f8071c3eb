package graph

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/foodweb/pkg/engine"
)

// =============================================================================
// Analysis - Derived State Serialization
// =============================================================================

// Analysis is the serialized form of [engine.Analysis] plus node positions.
// Per-node values are flattened into Metrics, sorted by ID, so the format
// stays valid BSON (which has no integer map keys).
type Analysis struct {
	Version uint64 `json:"version" bson:"version"`
	Nodes   int    `json:"nodes" bson:"nodes"`
	Links   int    `json:"links" bson:"links"`

	ComponentCount int     `json:"component_count" bson:"component_count"`
	Components     [][]int `json:"components" bson:"components"`

	MaxChainHeight int   `json:"max_chain_height" bson:"max_chain_height"`
	Tallest        []int `json:"tallest" bson:"tallest"`
	Degenerate     bool  `json:"degenerate,omitempty" bson:"degenerate,omitempty"`
	Converged      bool  `json:"converged" bson:"converged"`
	Iterations     int   `json:"iterations" bson:"iterations"`

	MaxCycleLength int   `json:"max_cycle_length" bson:"max_cycle_length"`
	CycleTies      int   `json:"cycle_ties,omitempty" bson:"cycle_ties,omitempty"`
	Cycle          []int `json:"cycle,omitempty" bson:"cycle,omitempty"`

	Stress  float64      `json:"stress" bson:"stress"`
	Metrics []NodeMetric `json:"metrics" bson:"metrics"`
}

// NodeMetric holds the derived values of one node.
type NodeMetric struct {
	ID        int     `json:"id" bson:"id"`
	Level     float64 `json:"level" bson:"level"`
	Height    int     `json:"height" bson:"height"` // -1 when unreachable from a basal node
	Component int     `json:"component" bson:"component"`
	X         float64 `json:"x" bson:"x"`
	Y         float64 `json:"y" bson:"y"`
}

// NewAnalysis converts an engine analysis. positions supplies the current
// layout by node ID; nodes without a position get the origin.
func NewAnalysis(a engine.Analysis, positions map[int]r2.Vec) Analysis {
	out := Analysis{
		Version:        a.Version,
		Nodes:          a.Nodes,
		Links:          a.Links,
		ComponentCount: a.ComponentCount,
		Components:     a.Components,
		MaxChainHeight: a.MaxChainHeight,
		Tallest:        a.Tallest,
		Degenerate:     a.Degenerate,
		Converged:      a.Converged,
		Iterations:     a.Iterations,
		MaxCycleLength: a.MaxCycleLength,
		CycleTies:      a.CycleTies,
		Cycle:          a.Cycle,
		Stress:         a.Stress,
		Metrics:        make([]NodeMetric, 0, len(a.Levels)),
	}
	if out.Components == nil {
		out.Components = [][]int{}
	}
	if out.Tallest == nil {
		out.Tallest = []int{}
	}
	for _, members := range a.Components {
		for _, id := range members {
			p := positions[id]
			out.Metrics = append(out.Metrics, NodeMetric{
				ID:        id,
				Level:     a.Levels[id],
				Height:    a.Heights[id],
				Component: a.ComponentOf[id],
				X:         p.X,
				Y:         p.Y,
			})
		}
	}
	sortMetrics(out.Metrics)
	return out
}

// Metric returns the metrics of node id.
func (a *Analysis) Metric(id int) (NodeMetric, bool) {
	for _, m := range a.Metrics {
		if m.ID == id {
			return m, true
		}
	}
	return NodeMetric{}, false
}

// MaxLevel returns the largest trophic level, or 1 for an empty analysis.
func (a *Analysis) MaxLevel() float64 {
	maxLevel := 1.0
	for _, m := range a.Metrics {
		maxLevel = max(maxLevel, m.Level)
	}
	return maxLevel
}

// OnCycle reports whether id lies on the reported longest cycle.
func (a *Analysis) OnCycle(id int) bool {
	for _, c := range a.Cycle {
		if c == id {
			return true
		}
	}
	return false
}

// MarshalAnalysis serializes an Analysis to indented JSON bytes.
func MarshalAnalysis(a Analysis) ([]byte, error) {
	return json.MarshalIndent(a, "", "  ")
}

// UnmarshalAnalysis deserializes JSON bytes into an Analysis.
func UnmarshalAnalysis(data []byte) (Analysis, error) {
	var a Analysis
	if err := json.Unmarshal(data, &a); err != nil {
		return Analysis{}, fmt.Errorf("unmarshal analysis: %w", err)
	}
	if len(a.Metrics) != a.Nodes {
		return Analysis{}, fmt.Errorf("analysis lists %d metrics for %d nodes", len(a.Metrics), a.Nodes)
	}
	return a, nil
}

// WriteAnalysisFile writes an Analysis to a JSON file.
func WriteAnalysisFile(a Analysis, path string) error {
	data, err := MarshalAnalysis(a)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadAnalysisFile reads an Analysis from a JSON file.
func ReadAnalysisFile(path string) (Analysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Analysis{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalAnalysis(data)
}

// =============================================================================
// Document - Stored Web
// =============================================================================

// Document is a named web as persisted by pkg/store and served by pkg/api.
type Document struct {
	Name      string    `json:"name" bson:"_id"`
	Graph     Graph     `json:"graph" bson:"graph"`
	Seed      uint64    `json:"seed,omitempty" bson:"seed,omitempty"`
	Analysis  *Analysis `json:"analysis,omitempty" bson:"analysis,omitempty"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func sortMetrics(m []NodeMetric) {
	for i := 1; i < len(m); i++ {
		for j := i; j > 0 && m[j].ID < m[j-1].ID; j-- {
			m[j], m[j-1] = m[j-1], m[j]
		}
	}
}
