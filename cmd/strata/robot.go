package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/strata/internal/datasource"
	"github.com/vanderheijden86/strata/pkg/analysis"
	"github.com/vanderheijden86/strata/pkg/metrics"
)

// robotRequest collects the --robot-* flags.
type robotRequest struct {
	Path        string
	Centrality  bool
	Communities bool
	Components  bool
	Metrics     bool
}

func (r robotRequest) any() bool {
	return r.Path != "" || r.Centrality || r.Communities || r.Components || r.Metrics
}

type robotPath struct {
	From  string   `json:"from"`
	To    string   `json:"to"`
	Found bool     `json:"found"`
	Path  []string `json:"path,omitempty"`
	Hops  int      `json:"hops"`
}

type robotOutput struct {
	GeneratedAt string                `json:"generated_at"`
	Source      string                `json:"source"`
	DatasetID   string                `json:"dataset_id,omitempty"`
	Summary     *analysis.Summary     `json:"summary,omitempty"`
	Path        *robotPath            `json:"path,omitempty"`
	Centrality  []analysis.Ranked     `json:"centrality,omitempty"`
	Communities [][]string            `json:"communities,omitempty"`
	Components  [][]string            `json:"components,omitempty"`
	Metrics     []metrics.TimingStats `json:"metrics,omitempty"`
	Dropped     int                   `json:"dropped_edges,omitempty"`
	UsageHints  []string              `json:"usage_hints,omitempty"`
}

// parsePair reads "A:B".
func parsePair(s string) (from, to string, err error) {
	from, to, ok := strings.Cut(s, ":")
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if !ok || from == "" || to == "" {
		return "", "", fmt.Errorf("invalid --robot-path %q (expected FROM:TO)", s)
	}
	return from, to, nil
}

func runRobot(ctx context.Context, w io.Writer, req robotRequest, res datasource.Result) error {
	out := robotOutput{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Source:      res.Source,
		DatasetID:   res.Dataset.ID,
		Dropped:     res.Report.DroppedEdges,
	}
	g := analysis.FromDataset(res.Dataset)

	if req.Path != "" {
		from, to, err := parsePair(req.Path)
		if err != nil {
			return err
		}
		r, err := analysis.Run(ctx, g, analysis.Request{Kind: analysis.KindPath, From: from, To: to})
		if err != nil {
			return err
		}
		out.Path = &robotPath{From: from, To: to, Found: r.Found, Path: r.Path}
		if r.Found {
			out.Path.Hops = len(r.Path) - 1
		} else {
			out.Path.Hops = -1
		}
	}
	if req.Centrality {
		r, err := analysis.Run(ctx, g, analysis.Request{Kind: analysis.KindCentrality})
		if err != nil {
			return err
		}
		out.Centrality = analysis.TopN(r.Scores, 0)
	}
	if req.Communities {
		r, err := analysis.Run(ctx, g, analysis.Request{Kind: analysis.KindCommunities})
		if err != nil {
			return err
		}
		out.Communities = analysis.Groups(r.Labels)
	}
	if req.Components {
		r, err := analysis.Run(ctx, g, analysis.Request{Kind: analysis.KindComponents})
		if err != nil {
			return err
		}
		out.Components = r.Components
	}
	if req.Metrics {
		sum, err := analysis.Summarize(ctx, g)
		if err != nil {
			return err
		}
		out.Summary = &sum
		out.Metrics = metrics.AllTimingStats()
	}

	out.UsageHints = []string{
		"path.hops is -1 when the nodes are not connected",
		"centrality counts shortest-path transits, normalised to a maximum of 1, highest first",
		"communities and components are sorted largest first",
	}
	return writeRobotOutput(w, out)
}

func writeRobotOutput(w io.Writer, out robotOutput) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
