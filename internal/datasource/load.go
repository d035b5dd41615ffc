package datasource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/strata/pkg/debug"
	"github.com/vanderheijden86/strata/pkg/metrics"
	"github.com/vanderheijden86/strata/pkg/model"
)

// Result is a loaded, normalised dataset.
type Result struct {
	Dataset  model.Dataset
	Report   model.Report
	Source   string
	LoadedAt time.Time
}

// Load fetches every collection q asks for, concurrently, merges them and
// normalises the result. Any failure is a *DataError.
func Load(ctx context.Context, src Source, q Query) (Result, error) {
	defer metrics.Timer(metrics.DatasetLoad)()

	kinds, err := q.kinds()
	if err != nil {
		return Result{}, &DataError{Op: "fetch", Source: src.Name(), Cause: fmt.Errorf("%w %q", err, q.Kind)}
	}

	parts := make([]model.Dataset, len(kinds))
	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		g.Go(func() error {
			ds, err := src.Fetch(gctx, kind, q)
			if err != nil {
				return err
			}
			parts[i] = ds
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var de *DataError
		if errors.As(err, &de) {
			return Result{}, err
		}
		return Result{}, &DataError{Op: "fetch", Source: src.Name(), Cause: fmt.Errorf("%w: %w", ErrFetch, err)}
	}

	merged := merge(parts)
	if merged.ID == "" {
		merged.ID = src.Name()
	}
	if q.Entity != "" {
		merged.ID += "#" + q.Entity
	}

	ds, rep, err := model.Normalize(merged)
	if err != nil {
		return Result{}, &DataError{Op: "normalize", Source: src.Name(), Cause: err}
	}
	if rep.DroppedEdges > 0 || rep.DroppedRelated > 0 {
		debug.Log("datasource: %s dropped %d dangling edges, %d dangling related refs",
			src.Name(), rep.DroppedEdges, rep.DroppedRelated)
	}
	return Result{Dataset: ds, Report: rep, Source: src.Name(), LoadedAt: time.Now()}, nil
}

func merge(parts []model.Dataset) model.Dataset {
	var out model.Dataset
	for _, p := range parts {
		if out.ID == "" {
			out.ID = p.ID
		}
		out.Nodes = append(out.Nodes, p.Nodes...)
		out.Edges = append(out.Edges, p.Edges...)
		out.Events = append(out.Events, p.Events...)
	}
	return out
}
