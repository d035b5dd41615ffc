package datasource

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vanderheijden86/strata/pkg/model"
)

// Change describes what a reload changed.
type Change struct {
	AddedNodes    []string
	RemovedNodes  []string
	AddedEvents   []string
	RemovedEvents []string
	// MovedEvents have a different timestamp or track.
	MovedEvents []string
	EdgesBefore int
	EdgesAfter  int
}

// Empty reports whether the reload changed nothing that is drawn.
func (c Change) Empty() bool {
	return len(c.AddedNodes) == 0 && len(c.RemovedNodes) == 0 &&
		len(c.AddedEvents) == 0 && len(c.RemovedEvents) == 0 &&
		len(c.MovedEvents) == 0 && c.EdgesBefore == c.EdgesAfter
}

// Summary returns a one-line description for the status bar.
func (c Change) Summary() string {
	if c.Empty() {
		return "no changes"
	}
	var parts []string
	add := func(n int, format string) {
		if n > 0 {
			parts = append(parts, fmt.Sprintf(format, n))
		}
	}
	add(len(c.AddedNodes), "+%d nodes")
	add(len(c.RemovedNodes), "-%d nodes")
	add(len(c.AddedEvents), "+%d events")
	add(len(c.RemovedEvents), "-%d events")
	add(len(c.MovedEvents), "%d moved")
	if d := c.EdgesAfter - c.EdgesBefore; d != 0 {
		parts = append(parts, fmt.Sprintf("%+d edges", d))
	}
	return strings.Join(parts, ", ")
}

// Diff compares two loads of the same source. ID lists are sorted.
func Diff(before, after model.Dataset) Change {
	c := Change{EdgesBefore: len(before.Edges), EdgesAfter: len(after.Edges)}

	oldNodes := make(map[string]struct{}, len(before.Nodes))
	for _, n := range before.Nodes {
		oldNodes[n.ID] = struct{}{}
	}
	newNodes := make(map[string]struct{}, len(after.Nodes))
	for _, n := range after.Nodes {
		newNodes[n.ID] = struct{}{}
		if _, ok := oldNodes[n.ID]; !ok {
			c.AddedNodes = append(c.AddedNodes, n.ID)
		}
	}
	for id := range oldNodes {
		if _, ok := newNodes[id]; !ok {
			c.RemovedNodes = append(c.RemovedNodes, id)
		}
	}

	oldEvents := make(map[string]model.TimelineEvent, len(before.Events))
	for _, ev := range before.Events {
		oldEvents[ev.ID] = ev
	}
	newEvents := make(map[string]struct{}, len(after.Events))
	for _, ev := range after.Events {
		newEvents[ev.ID] = struct{}{}
		prev, ok := oldEvents[ev.ID]
		switch {
		case !ok:
			c.AddedEvents = append(c.AddedEvents, ev.ID)
		case prev.Timestamp != ev.Timestamp || prev.Track != ev.Track:
			c.MovedEvents = append(c.MovedEvents, ev.ID)
		}
	}
	for id := range oldEvents {
		if _, ok := newEvents[id]; !ok {
			c.RemovedEvents = append(c.RemovedEvents, id)
		}
	}

	for _, list := range [][]string{c.AddedNodes, c.RemovedNodes, c.AddedEvents, c.RemovedEvents, c.MovedEvents} {
		sort.Strings(list)
	}
	return c
}
