package analysis

import (
	"context"
	"fmt"
	"sort"
)

// Kind names an analytics request.
type Kind string

const (
	KindPath        Kind = "path"
	KindCentrality  Kind = "centrality"
	KindCommunities Kind = "communities"
	KindComponents  Kind = "components"
	KindBetweenness Kind = "betweenness"
)

// Request asks for one analysis. From and To are used by KindPath only.
type Request struct {
	Kind Kind   `json:"kind"`
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// Result carries the output of Run. Only the fields for the requested kind
// are set.
type Result struct {
	Kind       Kind               `json:"kind"`
	Path       []string           `json:"path,omitempty"`
	Found      bool               `json:"found"`
	Scores     map[string]float64 `json:"scores,omitempty"`
	Labels     map[string]string  `json:"labels,omitempty"`
	Components [][]string         `json:"components,omitempty"`
}

// Run dispatches req against g.
func Run(ctx context.Context, g *Graph, req Request) (Result, error) {
	res := Result{Kind: req.Kind}
	switch req.Kind {
	case KindPath:
		res.Path, res.Found = g.ShortestPath(req.From, req.To)
	case KindCentrality:
		scores, err := g.Centrality(ctx)
		if err != nil {
			return res, err
		}
		res.Scores, res.Found = scores, true
	case KindBetweenness:
		res.Scores, res.Found = g.ExactBetweenness(), true
	case KindCommunities:
		res.Labels, res.Found = g.Communities(), true
	case KindComponents:
		res.Components, res.Found = g.Components(), true
	default:
		return res, fmt.Errorf("unknown analysis kind %q", req.Kind)
	}
	return res, nil
}

// Ranked is a (node, score) pair.
type Ranked struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// TopN returns the n highest scores, ties ordered by ID.
func TopN(scores map[string]float64, n int) []Ranked {
	out := make([]Ranked, 0, len(scores))
	for id, s := range scores {
		out = append(out, Ranked{ID: id, Score: s})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Summary describes a graph at a glance.
type Summary struct {
	Nodes       int    `json:"nodes"`
	Edges       int    `json:"edges"`
	Components  int    `json:"components"`
	Communities int    `json:"communities"`
	MostCentral string `json:"most_central,omitempty"`
}

// Summarize computes a Summary.
func Summarize(ctx context.Context, g *Graph) (Summary, error) {
	s := Summary{
		Nodes:       g.NodeCount(),
		Edges:       g.EdgeCount(),
		Components:  len(g.Components()),
		Communities: len(Groups(g.Communities())),
	}
	scores, err := g.Centrality(ctx)
	if err != nil {
		return s, err
	}
	if top := TopN(scores, 1); len(top) == 1 && top[0].Score > 0 {
		s.MostCentral = top[0].ID
	}
	return s, nil
}
