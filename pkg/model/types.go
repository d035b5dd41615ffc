// Package model defines the dataset records strata visualises: graph nodes
// and edges, and timeline events.
package model

import (
	"fmt"
	"math"
)

// Node is a graph entity. X and Y are optional seed coordinates; FX and FY
// set together mark the node as pinned.
type Node struct {
	ID         string   `json:"id" yaml:"id"`
	Category   Category `json:"category" yaml:"category"`
	Importance float64  `json:"importance,omitempty" yaml:"importance,omitempty"`
	Label      string   `json:"label,omitempty" yaml:"label,omitempty"`
	X          float64  `json:"x,omitempty" yaml:"x,omitempty"`
	Y          float64  `json:"y,omitempty" yaml:"y,omitempty"`
	FX         *float64 `json:"fx,omitempty" yaml:"fx,omitempty"`
	FY         *float64 `json:"fy,omitempty" yaml:"fy,omitempty"`
	Link       string   `json:"link,omitempty" yaml:"link,omitempty"`
}

// Pinned reports whether the node carries a fixed position.
func (n Node) Pinned() bool {
	return n.FX != nil && n.FY != nil
}

// HasSeed reports whether the node was given a starting position.
func (n Node) HasSeed() bool {
	return n.X != 0 || n.Y != 0
}

// DisplayLabel returns the label, falling back to the ID.
func (n Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	c := n
	if n.FX != nil {
		v := *n.FX
		c.FX = &v
	}
	if n.FY != nil {
		v := *n.FY
		c.FY = &v
	}
	return c
}

// Edge connects Source to Target. Direction only matters for arrow drawing.
type Edge struct {
	Source   string  `json:"source" yaml:"source"`
	Target   string  `json:"target" yaml:"target"`
	Label    string  `json:"label,omitempty" yaml:"label,omitempty"`
	Strength float64 `json:"strength,omitempty" yaml:"strength,omitempty"`
}

// TimelineEvent is a point on the temporal axis, measured in seconds since
// the Unix epoch. Negative timestamps are valid.
type TimelineEvent struct {
	ID        string   `json:"id" yaml:"id"`
	Timestamp float64  `json:"timestamp" yaml:"timestamp"`
	Track     int      `json:"track,omitempty" yaml:"track,omitempty"`
	Category  Category `json:"category" yaml:"category"`
	Title     string   `json:"title,omitempty" yaml:"title,omitempty"`
	Related   []string `json:"related,omitempty" yaml:"related,omitempty"`
}

// Dataset is one load of records. It is replaced wholesale on reload.
type Dataset struct {
	ID     string          `json:"id,omitempty" yaml:"id,omitempty"`
	Nodes  []Node          `json:"nodes,omitempty" yaml:"nodes,omitempty"`
	Edges  []Edge          `json:"edges,omitempty" yaml:"edges,omitempty"`
	Events []TimelineEvent `json:"events,omitempty" yaml:"events,omitempty"`
}

// NodeByID returns the node with the given ID.
func (d Dataset) NodeByID(id string) (Node, bool) {
	for _, n := range d.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// IsEmpty reports whether the dataset has nothing to show.
func (d Dataset) IsEmpty() bool {
	return len(d.Nodes) == 0 && len(d.Events) == 0
}

// Validate checks a single node.
func (n Node) Validate() error {
	if n.ID == "" {
		return fmt.Errorf("node ID cannot be empty")
	}
	if !finite(n.Importance) || !finite(n.X) || !finite(n.Y) {
		return fmt.Errorf("node %s: non-finite number", n.ID)
	}
	if (n.FX == nil) != (n.FY == nil) {
		return fmt.Errorf("node %s: fx and fy must be set together", n.ID)
	}
	return nil
}

// Validate checks a single event.
func (e TimelineEvent) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("event ID cannot be empty")
	}
	if !finite(e.Timestamp) {
		return fmt.Errorf("event %s: non-finite timestamp", e.ID)
	}
	if e.Track < 0 {
		return fmt.Errorf("event %s: negative track %d", e.ID, e.Track)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
