package analysis

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/graph/network"

	"github.com/vanderheijden86/strata/pkg/metrics"
)

// Centrality scores every node by how often it lies strictly inside the
// single BFS shortest path chosen for each ordered (source, target) pair,
// normalised so the maximum is 1. Only one path per pair is credited, so
// this approximates betweenness rather than computing it exactly; use
// ExactBetweenness for the full measure.
//
// Sources are processed in parallel. The result does not depend on the
// number of workers.
func (g *Graph) Centrality(ctx context.Context) (map[string]float64, error) {
	defer metrics.Timer(metrics.CentralityCompute)()

	n := len(g.ids)
	out := make(map[string]float64, n)
	if n == 0 {
		return out, nil
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	partial := make([][]int, workers)

	eg, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		eg.Go(func() error {
			counts := make([]int, n)
			var order []int
			size := make([]int, n)
			for s := w; s < n; s += workers {
				if err := ctx.Err(); err != nil {
					return err
				}
				order = order[:0]
				parent := g.bfs(s, &order)
				// Every target below v in the BFS tree routes through v.
				for i := len(order) - 1; i >= 0; i-- {
					v := order[i]
					size[v]++
					if v == s {
						continue
					}
					counts[v] += size[v] - 1
					size[parent[v]] += size[v]
				}
				for _, v := range order {
					size[v] = 0
				}
			}
			partial[w] = counts
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	total := make([]int, n)
	maxCount := 0
	for _, counts := range partial {
		for v, c := range counts {
			total[v] += c
			if total[v] > maxCount {
				maxCount = total[v]
			}
		}
	}
	for v, id := range g.ids {
		if maxCount == 0 {
			out[id] = 0
			continue
		}
		out[id] = float64(total[v]) / float64(maxCount)
	}
	return out, nil
}

// ExactBetweenness computes Brandes betweenness over all shortest paths
// and normalises it to [0,1].
func (g *Graph) ExactBetweenness() map[string]float64 {
	out := make(map[string]float64, len(g.ids))
	for _, id := range g.ids {
		out[id] = 0
	}
	if len(g.ids) == 0 {
		return out
	}
	raw := network.Betweenness(g.gonum())
	maxV := 0.0
	for _, v := range raw {
		if v > maxV {
			maxV = v
		}
	}
	if maxV == 0 {
		return out
	}
	for idx, v := range raw {
		out[g.ids[idx]] = v / maxV
	}
	return out
}
