package store

import (
	"github.com/vanderheijden86/strata/pkg/layout"
	"github.com/vanderheijden86/strata/pkg/model"
	"github.com/vanderheijden86/strata/pkg/view"
)

// LayoutOf records the node positions of a snapshot.
func LayoutOf(snap layout.Snapshot) []NodePosition {
	out := make([]NodePosition, 0, len(snap.Nodes))
	for _, n := range snap.Nodes {
		p := NodePosition{ID: n.ID, X: n.X, Y: n.Y}
		if n.Pinned {
			fx, fy := n.FX, n.FY
			p.FX, p.FY = &fx, &fy
		}
		out = append(out, p)
	}
	return out
}

// Seed returns copies of nodes with saved positions as seeds and saved pins
// restored. Nodes without a saved position are unchanged. It reports how
// many nodes were seeded.
func Seed(nodes []model.Node, saved []NodePosition) ([]model.Node, int) {
	byID := make(map[string]NodePosition, len(saved))
	for _, p := range saved {
		byID[p.ID] = p
	}
	out := make([]model.Node, len(nodes))
	seeded := 0
	for i, n := range nodes {
		n = n.Clone()
		if p, ok := byID[n.ID]; ok {
			n.X, n.Y = p.X, p.Y
			if p.FX != nil && p.FY != nil {
				fx, fy := *p.FX, *p.FY
				n.FX, n.FY = &fx, &fy
			}
			seeded++
		}
		out[i] = n
	}
	return out, seeded
}

// RecordView captures the parts of a viewport worth restoring.
func RecordView(v view.State) *ViewRecord {
	return &ViewRecord{Zoom: v.Zoom, CenterX: v.CenterX, CenterY: v.CenterY}
}

// Apply restores r onto v. Zoom is clamped to v's bounds.
func (r *ViewRecord) Apply(v *view.State) {
	if r == nil {
		return
	}
	v.SetZoom(r.Zoom)
	v.CenterX = r.CenterX
	if v.Axis != view.AxisHorizontal {
		v.CenterY = r.CenterY
	}
}
