package model

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyDataset is returned when a dataset has no nodes and no events.
	ErrEmptyDataset = errors.New("dataset is empty")
	// ErrMalformed wraps record-level validation failures.
	ErrMalformed = errors.New("malformed record")
)

// Report summarises what Normalize changed.
type Report struct {
	Nodes          int
	Edges          int
	Events         int
	DroppedEdges   int
	DroppedRelated int
}

// Normalize validates a freshly loaded dataset. Edges whose endpoints are
// missing are dropped, as are related-event references that point nowhere.
// Duplicate IDs and invalid records are errors wrapping ErrMalformed.
func Normalize(ds Dataset) (Dataset, Report, error) {
	var rep Report
	if ds.IsEmpty() {
		return ds, rep, ErrEmptyDataset
	}

	out := Dataset{ID: ds.ID}
	seen := make(map[string]struct{}, len(ds.Nodes))
	out.Nodes = make([]Node, 0, len(ds.Nodes))
	for _, n := range ds.Nodes {
		if err := n.Validate(); err != nil {
			return Dataset{}, rep, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if _, dup := seen[n.ID]; dup {
			return Dataset{}, rep, fmt.Errorf("%w: duplicate node ID %q", ErrMalformed, n.ID)
		}
		seen[n.ID] = struct{}{}
		out.Nodes = append(out.Nodes, n.Clone())
	}

	out.Edges = make([]Edge, 0, len(ds.Edges))
	for _, e := range ds.Edges {
		_, okS := seen[e.Source]
		_, okT := seen[e.Target]
		if !okS || !okT || !finite(e.Strength) {
			rep.DroppedEdges++
			continue
		}
		out.Edges = append(out.Edges, e)
	}

	eventIDs := make(map[string]struct{}, len(ds.Events))
	for _, ev := range ds.Events {
		if err := ev.Validate(); err != nil {
			return Dataset{}, rep, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if _, dup := eventIDs[ev.ID]; dup {
			return Dataset{}, rep, fmt.Errorf("%w: duplicate event ID %q", ErrMalformed, ev.ID)
		}
		eventIDs[ev.ID] = struct{}{}
	}
	out.Events = make([]TimelineEvent, 0, len(ds.Events))
	for _, ev := range ds.Events {
		if len(ev.Related) > 0 {
			related := make([]string, 0, len(ev.Related))
			for _, r := range ev.Related {
				if _, ok := eventIDs[r]; ok && r != ev.ID {
					related = append(related, r)
				} else {
					rep.DroppedRelated++
				}
			}
			ev.Related = related
		}
		out.Events = append(out.Events, ev)
	}

	rep.Nodes = len(out.Nodes)
	rep.Edges = len(out.Edges)
	rep.Events = len(out.Events)
	return out, rep, nil
}
