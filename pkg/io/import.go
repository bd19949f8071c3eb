package io

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	errs "github.com/matzehuels/foodweb/pkg/errors"
	"github.com/matzehuels/foodweb/pkg/graph"
)

// ReadEdgeList decodes an edge list from r. Node and link order follow first
// appearance. Structural problems such as self-loops are left to
// [graph.ToStore]; ReadEdgeList only rejects malformed lines.
func ReadEdgeList(r io.Reader) (graph.Graph, error) {
	g := graph.Graph{Nodes: []graph.Node{}, Links: []graph.Link{}}
	index := make(map[int]int)

	ensure := func(id int) int {
		if i, ok := index[id]; ok {
			return i
		}
		index[id] = len(g.Nodes)
		g.Nodes = append(g.Nodes, graph.Node{ID: id})
		return index[id]
	}

	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.FieldsFunc(text, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		})

		if fields[0] == "node" {
			if len(fields) < 2 {
				return graph.Graph{}, lineError(line, "node line needs an ID")
			}
			id, err := parseID(fields[1])
			if err != nil {
				return graph.Graph{}, lineError(line, "%v", err)
			}
			i := ensure(id)
			g.Nodes[i].Label = strings.Join(fields[2:], " ")
			continue
		}

		if len(fields) != 2 {
			return graph.Graph{}, lineError(line, "expected SOURCE TARGET, got %d fields", len(fields))
		}
		src, err := parseID(fields[0])
		if err != nil {
			return graph.Graph{}, lineError(line, "%v", err)
		}
		dst, err := parseID(fields[1])
		if err != nil {
			return graph.Graph{}, lineError(line, "%v", err)
		}
		ensure(src)
		ensure(dst)
		g.Links = append(g.Links, graph.Link{Source: src, Target: dst})
	}
	if err := sc.Err(); err != nil {
		return graph.Graph{}, fmt.Errorf("scan: %w", err)
	}
	return g, nil
}

// ImportEdgeList reads an edge-list file.
func ImportEdgeList(path string) (graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return graph.Graph{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadEdgeList(f)
}

// Import reads a web from path, choosing JSON or edge-list decoding by file
// extension.
func Import(path string) (graph.Graph, error) {
	if isJSON(path) {
		return graph.ReadGraphFile(path)
	}
	return ImportEdgeList(path)
}

// Decode reads a web from r, choosing the decoder by the extension of name
// as [Import] does.
func Decode(name string, r io.Reader) (graph.Graph, error) {
	if isJSON(name) {
		return graph.ReadGraph(r)
	}
	return ReadEdgeList(r)
}

func isJSON(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".json")
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid node ID %q", s)
	}
	if err := errs.ValidateNodeID(id); err != nil {
		return 0, err
	}
	return id, nil
}

func lineError(line int, format string, args ...any) error {
	return errs.New(errs.ErrCodeInvalidFormat, "line %d: %s", line, fmt.Sprintf(format, args...))
}
