// Package analysis provides pure graph analytics over a static node/edge
// snapshot: shortest paths, an approximate betweenness centrality,
// label-propagation communities and connected components.
package analysis

import (
	"github.com/vanderheijden86/strata/pkg/model"

	"gonum.org/v1/gonum/graph/simple"
)

// Graph is an undirected adjacency built from a dataset. Neighbour order
// follows edge iteration order, which makes every traversal here
// deterministic for a fixed input.
type Graph struct {
	ids   []string
	index map[string]int
	adj   [][]int
	edges int
}

// NewGraph builds the adjacency. Edges referencing unknown nodes, self
// loops and repeated pairs are skipped.
func NewGraph(nodes []model.Node, edges []model.Edge) *Graph {
	g := &Graph{
		ids:   make([]string, 0, len(nodes)),
		index: make(map[string]int, len(nodes)),
	}
	for _, n := range nodes {
		if _, dup := g.index[n.ID]; dup {
			continue
		}
		g.index[n.ID] = len(g.ids)
		g.ids = append(g.ids, n.ID)
	}
	g.adj = make([][]int, len(g.ids))

	type pair struct{ a, b int }
	seen := make(map[pair]struct{}, len(edges))
	for _, e := range edges {
		s, okS := g.index[e.Source]
		t, okT := g.index[e.Target]
		if !okS || !okT || s == t {
			continue
		}
		key := pair{min(s, t), max(s, t)}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		g.adj[s] = append(g.adj[s], t)
		g.adj[t] = append(g.adj[t], s)
		g.edges++
	}
	return g
}

// FromDataset is shorthand for NewGraph(ds.Nodes, ds.Edges).
func FromDataset(ds model.Dataset) *Graph {
	return NewGraph(ds.Nodes, ds.Edges)
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.ids) }

// EdgeCount returns the number of distinct undirected edges.
func (g *Graph) EdgeCount() int { return g.edges }

// IDs returns node IDs in insertion order.
func (g *Graph) IDs() []string {
	out := make([]string, len(g.ids))
	copy(out, g.ids)
	return out
}

// Neighbors returns the neighbours of id in adjacency order.
func (g *Graph) Neighbors(id string) []string {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	out := make([]string, len(g.adj[i]))
	for k, j := range g.adj[i] {
		out[k] = g.ids[j]
	}
	return out
}

// Degree returns the number of distinct neighbours of id.
func (g *Graph) Degree(id string) int {
	i, ok := g.index[id]
	if !ok {
		return 0
	}
	return len(g.adj[i])
}

// gonum returns the same topology as a gonum undirected graph whose node
// IDs are the indexes into g.ids.
func (g *Graph) gonum() *simple.UndirectedGraph {
	ug := simple.NewUndirectedGraph()
	for i := range g.ids {
		ug.AddNode(simple.Node(int64(i)))
	}
	for s, ns := range g.adj {
		for _, t := range ns {
			if s < t {
				ug.SetEdge(ug.NewEdge(simple.Node(int64(s)), simple.Node(int64(t))))
			}
		}
	}
	return ug
}
