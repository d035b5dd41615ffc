// Package spatial provides the interval partition used to cull timeline
// events outside the visible time range.
package spatial

import (
	"sort"

	"github.com/vanderheijden86/strata/pkg/metrics"
	"github.com/vanderheijden86/strata/pkg/model"
)

// Capacity is the largest bucket a node holds before it divides.
const Capacity = 10

// Bounds is a closed timestamp interval.
type Bounds struct {
	Min, Max float64
	Empty    bool
}

// Intersects reports whether b overlaps [lo, hi].
func (b Bounds) Intersects(lo, hi float64) bool {
	if b.Empty {
		return false
	}
	return b.Min <= hi && lo <= b.Max
}

// Contains reports whether ts lies inside b.
func (b Bounds) Contains(ts float64) bool {
	return !b.Empty && ts >= b.Min && ts <= b.Max
}

// Width is Max-Min, or 0 for empty bounds.
func (b Bounds) Width() float64 {
	if b.Empty {
		return 0
	}
	return b.Max - b.Min
}

type node struct {
	bounds Bounds
	events []model.TimelineEvent
	left   *node
	right  *node
}

func (n *node) divided() bool { return n.left != nil }

// Index is a read-only binary partition of events over the timestamp axis.
// Build a new one on every dataset load.
type Index struct {
	root *node
	size int
	byID map[string]model.TimelineEvent
}

// Build constructs the index from events. The input slice is not retained.
func Build(events []model.TimelineEvent) *Index {
	defer metrics.Timer(metrics.SpatialBuild)()

	if len(events) == 0 {
		return &Index{root: &node{bounds: Bounds{Empty: true}}}
	}

	b := Bounds{Min: events[0].Timestamp, Max: events[0].Timestamp}
	for _, ev := range events[1:] {
		if ev.Timestamp < b.Min {
			b.Min = ev.Timestamp
		}
		if ev.Timestamp > b.Max {
			b.Max = ev.Timestamp
		}
	}

	owned := make([]model.TimelineEvent, len(events))
	copy(owned, events)
	root := &node{bounds: b}
	insertAll(root, owned)
	byID := make(map[string]model.TimelineEvent, len(owned))
	for _, ev := range owned {
		byID[ev.ID] = ev
	}
	return &Index{root: root, size: len(events), byID: byID}
}

// insertAll fills n with events, dividing while the bucket exceeds
// Capacity. A node whose bounds have no width cannot be split further and
// keeps an oversized bucket.
func insertAll(n *node, events []model.TimelineEvent) {
	if len(events) <= Capacity || n.bounds.Width() == 0 {
		n.events = events
		return
	}
	mid := n.bounds.Min + (n.bounds.Max-n.bounds.Min)/2
	if mid <= n.bounds.Min || mid >= n.bounds.Max {
		// Adjacent floats; no representable midpoint.
		n.events = events
		return
	}

	var lo, hi []model.TimelineEvent
	for _, ev := range events {
		if ev.Timestamp <= mid {
			lo = append(lo, ev)
		} else {
			hi = append(hi, ev)
		}
	}
	n.left = &node{bounds: Bounds{Min: n.bounds.Min, Max: mid}}
	n.right = &node{bounds: Bounds{Min: mid, Max: n.bounds.Max}}
	insertAll(n.left, lo)
	insertAll(n.right, hi)
}

// Query returns every event with min <= timestamp <= max, ordered by
// timestamp then ID.
func (ix *Index) Query(min, max float64) []model.TimelineEvent {
	defer metrics.Timer(metrics.SpatialQuery)()

	if ix == nil || ix.root == nil || min > max {
		return nil
	}
	var out []model.TimelineEvent
	ix.root.query(min, max, &out)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp < out[j].Timestamp
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (n *node) query(min, max float64, out *[]model.TimelineEvent) {
	if !n.bounds.Intersects(min, max) {
		return
	}
	if n.divided() {
		n.left.query(min, max, out)
		n.right.query(min, max, out)
		return
	}
	for _, ev := range n.events {
		if ev.Timestamp >= min && ev.Timestamp <= max {
			*out = append(*out, ev)
		}
	}
}

// Event returns the event with the given ID, visible or not. Connection
// lines use it to reach endpoints outside the query range.
func (ix *Index) Event(id string) (model.TimelineEvent, bool) {
	if ix == nil {
		return model.TimelineEvent{}, false
	}
	ev, ok := ix.byID[id]
	return ev, ok
}

// Len returns the number of indexed events.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return ix.size
}

// Bounds returns the observed timestamp range.
func (ix *Index) Bounds() Bounds {
	if ix == nil || ix.root == nil {
		return Bounds{Empty: true}
	}
	return ix.root.bounds
}

// Depth returns the height of the partition tree. A single bucket is 1.
func (ix *Index) Depth() int {
	if ix == nil || ix.root == nil {
		return 0
	}
	return ix.root.depth()
}

func (n *node) depth() int {
	if !n.divided() {
		return 1
	}
	l, r := n.left.depth(), n.right.depth()
	if l > r {
		return l + 1
	}
	return r + 1
}

// Divided reports whether the root was split into children.
func (ix *Index) Divided() bool {
	return ix != nil && ix.root != nil && ix.root.divided()
}

// Stats reports the shape of the tree.
type Stats struct {
	Events    int `json:"events"`
	Leaves    int `json:"leaves"`
	Depth     int `json:"depth"`
	MaxBucket int `json:"max_bucket"`
}

// Stats walks the tree and summarises it.
func (ix *Index) Stats() Stats {
	s := Stats{Events: ix.Len(), Depth: ix.Depth()}
	if ix == nil || ix.root == nil {
		return s
	}
	var walk func(*node)
	walk = func(n *node) {
		if n.divided() {
			walk(n.left)
			walk(n.right)
			return
		}
		s.Leaves++
		if len(n.events) > s.MaxBucket {
			s.MaxBucket = len(n.events)
		}
	}
	walk(ix.root)
	return s
}
