package render

import (
	"github.com/vanderheijden86/strata/pkg/layout"
	"github.com/vanderheijden86/strata/pkg/metrics"
	"github.com/vanderheijden86/strata/pkg/model"
	"github.com/vanderheijden86/strata/pkg/view"
)

// GraphOptions configures GraphScene.
type GraphOptions struct {
	Theme     Theme
	NodeBase  float64
	EdgeBase  float64
	ArrowSize float64
	Labels    bool
	// LabelMinZoom hides node labels below this zoom.
	LabelMinZoom float64
	Selected     string
	// Highlight marks a node path; consecutive pairs are highlighted edges.
	Highlight []string
	// Communities colours nodes by community label instead of category.
	Communities map[string]int
}

// DefaultGraphOptions returns the standard node and edge sizing.
func DefaultGraphOptions() GraphOptions {
	return GraphOptions{
		Theme:        Light,
		NodeBase:     4,
		EdgeBase:     1,
		ArrowSize:    6,
		Labels:       true,
		LabelMinZoom: 0.5,
	}
}

// GraphScene lays out a layout snapshot. Positions stay in layout space; the
// pan and zoom of v are applied once through the scene transform.
func GraphScene(v view.State, snap layout.Snapshot, ds model.Dataset, opts GraphOptions) *Scene {
	defer metrics.Timer(metrics.SceneBuild)()

	if opts.Theme.Name == "" {
		opts.Theme = Light
	}
	s := &Scene{Background: opts.Theme.Background, Transform: UniformsFor(v)}

	nodes := make(map[string]model.Node, len(ds.Nodes))
	for _, n := range ds.Nodes {
		nodes[n.ID] = n
	}
	pos := snap.ByID()

	onPath := make(map[[2]string]bool, len(opts.Highlight))
	inPath := make(map[string]bool, len(opts.Highlight))
	for i, id := range opts.Highlight {
		inPath[id] = true
		if i > 0 {
			a, b := opts.Highlight[i-1], id
			onPath[[2]string{a, b}] = true
			onPath[[2]string{b, a}] = true
		}
	}

	for _, e := range ds.Edges {
		from, okFrom := pos[e.Source]
		to, okTo := pos[e.Target]
		if !okFrom || !okTo {
			continue
		}
		l := Line{
			X1:    from.X,
			Y1:    from.Y,
			X2:    to.X,
			Y2:    to.Y,
			Width: EdgeWidth(opts.EdgeBase, e.Strength),
			Color: opts.Theme.Edge,
			Arrow: opts.ArrowSize,
			Inset: NodeRadius(opts.NodeBase, nodes[e.Target].Importance),
		}
		if onPath[[2]string{e.Source, e.Target}] {
			l.Color = opts.Theme.Highlight
			l.Width += 1
		}
		s.Lines = append(s.Lines, l)
	}

	for _, ns := range snap.Nodes {
		n := nodes[ns.ID]
		m := Marker{
			ID:     ns.ID,
			X:      ns.X,
			Y:      ns.Y,
			Radius: NodeRadius(opts.NodeBase, n.Importance),
			Fill:   opts.Theme.CategoryColor(n.Category),
		}
		if c, ok := opts.Communities[ns.ID]; ok {
			m.Fill = CommunityColor(c)
		}
		switch {
		case ns.ID == opts.Selected || inPath[ns.ID]:
			m.Stroke = opts.Theme.Highlight
			m.StrokeWidth = 2
		case ns.Pinned:
			m.Stroke = opts.Theme.Pinned
			m.StrokeWidth = 2
		}
		s.Markers = append(s.Markers, m)
	}

	if opts.Labels && v.Zoom >= opts.LabelMinZoom {
		for _, m := range s.Markers {
			text := m.ID
			if n, ok := nodes[m.ID]; ok {
				text = n.DisplayLabel()
			}
			s.Labels = append(s.Labels, Label{
				X:       m.X,
				Y:       m.Y,
				DY:      m.Radius + glyphHeight,
				AnchorX: 0.5,
				Text:    text,
				Color:   opts.Theme.Text,
			})
		}
	}
	return s
}
