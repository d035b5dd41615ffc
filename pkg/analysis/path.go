package analysis

import "github.com/vanderheijden86/strata/pkg/metrics"

// ShortestPath returns the fewest-hop path from `from` to `to`, endpoints
// included. Among equally short paths the one reached through the
// first-enqueued neighbour wins. ok is false when either ID is unknown or
// the nodes are disconnected.
func (g *Graph) ShortestPath(from, to string) (path []string, ok bool) {
	defer metrics.Timer(metrics.ShortestPath)()

	s, okS := g.index[from]
	t, okT := g.index[to]
	if !okS || !okT {
		return nil, false
	}
	if s == t {
		return []string{from}, true
	}

	parent := g.bfs(s, nil)
	if parent[t] < 0 {
		return nil, false
	}
	var rev []int
	for v := t; v != s; v = parent[v] {
		rev = append(rev, v)
	}
	rev = append(rev, s)

	path = make([]string, len(rev))
	for i, v := range rev {
		path[len(rev)-1-i] = g.ids[v]
	}
	return path, true
}

// bfs runs a breadth-first search from s and returns the discovery parent
// of every node (-1 if unreached; s is its own parent). If order is not
// nil, visited nodes are appended to it in discovery order.
func (g *Graph) bfs(s int, order *[]int) []int {
	parent := make([]int, len(g.ids))
	for i := range parent {
		parent[i] = -1
	}
	parent[s] = s
	queue := []int{s}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		if order != nil {
			*order = append(*order, v)
		}
		for _, w := range g.adj[v] {
			if parent[w] < 0 {
				parent[w] = v
				queue = append(queue, w)
			}
		}
	}
	return parent
}

// Hops returns the number of edges on the shortest path, or -1.
func (g *Graph) Hops(from, to string) int {
	p, ok := g.ShortestPath(from, to)
	if !ok {
		return -1
	}
	return len(p) - 1
}
