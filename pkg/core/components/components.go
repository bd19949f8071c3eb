// Package components partitions a network snapshot into weakly connected
// components.
//
// Components are discovered by breadth-first flood fill over the undirected
// view of a [web.Snapshot]. Component IDs are assigned in first-seen order:
// the component containing the lowest node index gets ID 0, the next
// unvisited node starts component 1, and so on. Members of each component are
// listed in BFS discovery order.
package components

import "github.com/matzehuels/foodweb/pkg/core/web"

// Result is the component partition of a snapshot.
type Result struct {
	// Of maps node index to component ID.
	Of []int
	// Members lists node indices per component in discovery order.
	Members [][]int
}

// Count returns the number of components.
func (r Result) Count() int { return len(r.Members) }

// Analyze flood-fills the undirected adjacency of snap.
func Analyze(snap *web.Snapshot) Result {
	return AnalyzeAdjacency(snap.Undirected)
}

// AnalyzeAdjacency flood-fills an undirected adjacency list.
func AnalyzeAdjacency(adj [][]int) Result {
	n := len(adj)
	res := Result{Of: make([]int, n)}
	for i := range res.Of {
		res.Of[i] = web.Unreachable
	}

	queue := make([]int, 0, n)
	for start := 0; start < n; start++ {
		if res.Of[start] != web.Unreachable {
			continue
		}
		id := len(res.Members)
		res.Of[start] = id
		queue = append(queue[:0], start)
		for head := 0; head < len(queue); head++ {
			for _, next := range adj[queue[head]] {
				if res.Of[next] == web.Unreachable {
					res.Of[next] = id
					queue = append(queue, next)
				}
			}
		}
		res.Members = append(res.Members, append([]int(nil), queue...))
	}
	return res
}
