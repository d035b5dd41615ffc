package analysis

import (
	"sort"

	"gonum.org/v1/gonum/graph/topo"

	"github.com/vanderheijden86/strata/pkg/metrics"
)

// LabelPropagationRounds bounds the number of propagation rounds.
const LabelPropagationRounds = 5

// Communities assigns each node a community label by synchronous label
// propagation. Every node starts with its own ID; in each round every node
// takes the most common label among its neighbours as they were at the end
// of the previous round, breaking ties by the first label met in adjacency
// order. Propagation stops after LabelPropagationRounds or once a round
// changes nothing. Isolated nodes keep their own label.
func (g *Graph) Communities() map[string]string {
	defer metrics.Timer(metrics.CommunityCompute)()

	n := len(g.ids)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = i
	}
	next := make([]int, n)
	counts := make(map[int]int)

	for round := 0; round < LabelPropagationRounds; round++ {
		changed := false
		for v := 0; v < n; v++ {
			if len(g.adj[v]) == 0 {
				next[v] = labels[v]
				continue
			}
			clear(counts)
			top := 0
			for _, w := range g.adj[v] {
				counts[labels[w]]++
				top = max(top, counts[labels[w]])
			}
			best := -1
			for _, w := range g.adj[v] {
				if counts[labels[w]] == top {
					best = labels[w]
					break
				}
			}
			next[v] = best
			if best != labels[v] {
				changed = true
			}
		}
		labels, next = next, labels
		if !changed {
			break
		}
	}

	out := make(map[string]string, n)
	for v, l := range labels {
		out[g.ids[v]] = g.ids[l]
	}
	return out
}

// Groups inverts a label map into sorted member lists, ordered by size
// descending then label.
func Groups(labels map[string]string) [][]string {
	byLabel := make(map[string][]string)
	for id, l := range labels {
		byLabel[l] = append(byLabel[l], id)
	}
	keys := make([]string, 0, len(byLabel))
	for l, members := range byLabel {
		sort.Strings(members)
		keys = append(keys, l)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := byLabel[keys[i]], byLabel[keys[j]]
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return keys[i] < keys[j]
	})
	out := make([][]string, len(keys))
	for i, k := range keys {
		out[i] = byLabel[k]
	}
	return out
}

// Components returns the connected components, largest first, each sorted
// by ID.
func (g *Graph) Components() [][]string {
	cc := topo.ConnectedComponents(g.gonum())
	out := make([][]string, 0, len(cc))
	for _, comp := range cc {
		ids := make([]string, len(comp))
		for i, node := range comp {
			ids[i] = g.ids[node.ID()]
		}
		sort.Strings(ids)
		out = append(out, ids)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i][0] < out[j][0]
	})
	return out
}
