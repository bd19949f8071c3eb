package web

// Direction selects which adjacency a traversal follows.
type Direction int

const (
	// Undirected follows links in both directions.
	Undirected Direction = iota
	// Forward follows links from resource to consumer.
	Forward
	// Backward follows links from consumer to resource.
	Backward
)

// Unreachable marks nodes a breadth-first search did not reach.
const Unreachable = -1

// BFS computes hop distances from every source over adj. Nodes not reached
// get [Unreachable]. If keep is non-nil, only nodes with keep[i] set are
// entered (sources included). dist is reused when it has the right length;
// otherwise a new slice is allocated.
func BFS(adj [][]int, sources []int, dist []int, keep []bool) []int {
	n := len(adj)
	if len(dist) != n {
		dist = make([]int, n)
	}
	for i := range dist {
		dist[i] = Unreachable
	}

	queue := make([]int, 0, n)
	for _, s := range sources {
		if keep != nil && !keep[s] {
			continue
		}
		if dist[s] == Unreachable {
			dist[s] = 0
			queue = append(queue, s)
		}
	}

	for head := 0; head < len(queue); head++ {
		curr := queue[head]
		for _, next := range adj[curr] {
			if dist[next] != Unreachable || (keep != nil && !keep[next]) {
				continue
			}
			dist[next] = dist[curr] + 1
			queue = append(queue, next)
		}
	}
	return dist
}

// Reach marks in mark every node reachable from src over adj, restricted to
// nodes with keep[i] set when keep is non-nil. It returns the number of
// nodes marked, src included.
func Reach(adj [][]int, src int, mark []bool, keep []bool) int {
	for i := range mark {
		mark[i] = false
	}
	if keep != nil && !keep[src] {
		return 0
	}
	mark[src] = true
	count := 1
	stack := []int{src}
	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range adj[curr] {
			if mark[next] || (keep != nil && !keep[next]) {
				continue
			}
			mark[next] = true
			count++
			stack = append(stack, next)
		}
	}
	return count
}
