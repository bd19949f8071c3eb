package io

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/foodweb/pkg/graph"
)

// WriteEdgeList writes the active part of g as an edge list. Nodes without
// a label still get a node line so isolated species survive the round trip.
func WriteEdgeList(g graph.Graph, w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, n := range g.Nodes {
		if n.Archived {
			continue
		}
		if n.Label != "" {
			fmt.Fprintf(bw, "node %d %s\n", n.ID, n.Label)
		} else {
			fmt.Fprintf(bw, "node %d\n", n.ID)
		}
	}
	for _, l := range g.Links {
		if l.Archived {
			continue
		}
		fmt.Fprintf(bw, "%d %d\n", l.Source, l.Target)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// ExportEdgeList writes g to an edge-list file at path.
func ExportEdgeList(g graph.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteEdgeList(g, f)
}
