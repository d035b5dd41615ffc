// Package testutil provides deterministic dataset fixtures for graph and
// timeline tests.
package testutil

import (
	"fmt"
	"math/rand"

	"github.com/vanderheijden86/strata/pkg/model"
)

// Generator creates fixtures from a seeded source.
type Generator struct {
	rng *rand.Rand
}

// New creates a Generator. A zero seed is replaced by 42 so fixtures stay
// reproducible.
func New(seed int64) *Generator {
	if seed == 0 {
		seed = 42
	}
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// NodeID returns the canonical fixture ID for index i.
func NodeID(i int) string {
	return fmt.Sprintf("n%d", i)
}

func (g *Generator) nodes(n int) []model.Node {
	out := make([]model.Node, n)
	for i := range out {
		out[i] = model.Node{
			ID:         NodeID(i),
			Category:   model.Categories[i%len(model.Categories)],
			Importance: float64(g.rng.Intn(50)),
			Label:      fmt.Sprintf("Node %d", i),
		}
	}
	return out
}

func edge(a, b int) model.Edge {
	return model.Edge{Source: NodeID(a), Target: NodeID(b), Strength: 10}
}

// Named builds a dataset from explicit IDs and "A-B" edge pairs.
func Named(ids []string, pairs ...[2]string) model.Dataset {
	ds := model.Dataset{ID: "named"}
	for _, id := range ids {
		ds.Nodes = append(ds.Nodes, model.Node{ID: id, Category: model.CategoryConcept})
	}
	for _, p := range pairs {
		ds.Edges = append(ds.Edges, model.Edge{Source: p[0], Target: p[1], Strength: 10})
	}
	return ds
}

// Chain links n0-n1-...-n{size-1}.
func (g *Generator) Chain(size int) model.Dataset {
	ds := model.Dataset{ID: fmt.Sprintf("chain-%d", size), Nodes: g.nodes(size)}
	for i := 1; i < size; i++ {
		ds.Edges = append(ds.Edges, edge(i-1, i))
	}
	return ds
}

// Star connects n0 (the hub) to every other node.
func (g *Generator) Star(spokes int) model.Dataset {
	ds := model.Dataset{ID: fmt.Sprintf("star-%d", spokes), Nodes: g.nodes(spokes + 1)}
	for i := 1; i <= spokes; i++ {
		ds.Edges = append(ds.Edges, edge(0, i))
	}
	return ds
}

// Cycle links a ring of size nodes.
func (g *Generator) Cycle(size int) model.Dataset {
	ds := g.Chain(size)
	ds.ID = fmt.Sprintf("cycle-%d", size)
	if size > 2 {
		ds.Edges = append(ds.Edges, edge(size-1, 0))
	}
	return ds
}

// Complete connects every pair.
func (g *Generator) Complete(size int) model.Dataset {
	ds := model.Dataset{ID: fmt.Sprintf("complete-%d", size), Nodes: g.nodes(size)}
	for i := 0; i < size; i++ {
		for j := i + 1; j < size; j++ {
			ds.Edges = append(ds.Edges, edge(i, j))
		}
	}
	return ds
}

// Disconnected creates `components` separate chains of componentSize nodes.
func (g *Generator) Disconnected(components, componentSize int) model.Dataset {
	ds := model.Dataset{
		ID:    fmt.Sprintf("disconnected-%dx%d", components, componentSize),
		Nodes: g.nodes(components * componentSize),
	}
	for c := 0; c < components; c++ {
		base := c * componentSize
		for i := 1; i < componentSize; i++ {
			ds.Edges = append(ds.Edges, edge(base+i-1, base+i))
		}
	}
	return ds
}

// Barbell joins two complete cliques of size k with a single bridge edge
// between n{k-1} and n{k}.
func (g *Generator) Barbell(k int) model.Dataset {
	ds := model.Dataset{ID: fmt.Sprintf("barbell-%d", k), Nodes: g.nodes(2 * k)}
	for side := 0; side < 2; side++ {
		base := side * k
		for i := 0; i < k; i++ {
			for j := i + 1; j < k; j++ {
				ds.Edges = append(ds.Edges, edge(base+i, base+j))
			}
		}
	}
	ds.Edges = append(ds.Edges, edge(k-1, k))
	return ds
}

// Random creates size nodes with each pair connected with probability p.
func (g *Generator) Random(size int, p float64) model.Dataset {
	ds := model.Dataset{ID: fmt.Sprintf("random-%d", size), Nodes: g.nodes(size)}
	for i := 0; i < size; i++ {
		for j := i + 1; j < size; j++ {
			if g.rng.Float64() < p {
				ds.Edges = append(ds.Edges, edge(i, j))
			}
		}
	}
	return ds
}

// Events creates n timeline events spread uniformly over [start, end),
// assigned round-robin to `tracks` lanes.
func (g *Generator) Events(n int, start, end float64, tracks int) []model.TimelineEvent {
	if tracks <= 0 {
		tracks = 1
	}
	out := make([]model.TimelineEvent, n)
	for i := range out {
		out[i] = model.TimelineEvent{
			ID:        fmt.Sprintf("e%d", i),
			Timestamp: start + g.rng.Float64()*(end-start),
			Track:     i % tracks,
			Category:  model.Categories[i%len(model.Categories)],
			Title:     fmt.Sprintf("Event %d", i),
		}
		if i > 0 && i%5 == 0 {
			out[i].Related = []string{fmt.Sprintf("e%d", i-1)}
		}
	}
	return out
}

// DeepTime returns events spanning from prehistory to the present hour,
// the magnitude range the timeline must handle.
func DeepTime() []model.TimelineEvent {
	return []model.TimelineEvent{
		{ID: "cave", Timestamp: -1.08e12, Category: model.CategoryWork, Title: "Cave paintings"},
		{ID: "rome", Timestamp: -6.95e10, Category: model.CategoryPlace, Title: "Founding of Rome"},
		{ID: "print", Timestamp: -1.66e10, Category: model.CategoryWork, Title: "Printing press", Track: 1},
		{ID: "moon", Timestamp: -1.46e7, Category: model.CategoryEvent, Title: "Moon landing", Related: []string{"print"}},
		{ID: "now", Timestamp: 1.7e9, Category: model.CategoryEvent, Title: "Now", Track: 2},
		{ID: "now+1h", Timestamp: 1.7e9 + 3600, Category: model.CategoryEvent, Title: "An hour later", Track: 2},
	}
}
