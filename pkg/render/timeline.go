package render

import (
	"math"

	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/strata/pkg/metrics"
	"github.com/vanderheijden86/strata/pkg/model"
	"github.com/vanderheijden86/strata/pkg/spatial"
	"github.com/vanderheijden86/strata/pkg/view"
)

// Character cell of basicfont.Face7x13, used for label layout.
const (
	glyphWidth  = 7.0
	glyphHeight = 13.0
)

// Limits that keep a frame bounded when zoomed far out.
const (
	maxBands     = 4096
	maxGridLines = 1024
	minBandPx    = 2.0
	minGridPx    = 4.0
)

// TimelineOptions configures TimelineScene.
type TimelineOptions struct {
	Theme        Theme
	LaneTop      float64
	LaneHeight   float64
	MarkerRadius float64
	// Labels draws event titles next to markers, skipping any that would
	// overlap the previous label in the same lane.
	Labels bool
	// LabelsOnly draws titles without era bands or connection lines.
	LabelsOnly bool
	Selected   string
}

// DefaultTimelineOptions returns the standard lane layout.
func DefaultTimelineOptions() TimelineOptions {
	return TimelineOptions{
		Theme:        Light,
		LaneTop:      40,
		LaneHeight:   28,
		MarkerRadius: 5,
		Labels:       true,
	}
}

// LaneY is the lane centre in pixels for track.
func (o TimelineOptions) LaneY(track int) float64 {
	return o.LaneTop + float64(max(track, 0))*o.LaneHeight
}

// TimelineFrame is a built timeline scene plus the events it shows.
type TimelineFrame struct {
	Scene    *Scene
	Visible  []model.TimelineEvent
	Era      view.GridInterval
	Interval view.GridInterval
}

// TimelineScene queries idx for the visible range of v and lays the result
// out as a Scene. The query is widened by one marker radius so markers
// straddling the viewport edge are kept.
func TimelineScene(v view.State, idx *spatial.Index, opts TimelineOptions) TimelineFrame {
	defer metrics.Timer(metrics.SceneBuild)()

	if opts.Theme.Name == "" {
		opts.Theme = Light
	}
	if opts.LaneHeight <= 0 {
		opts.LaneHeight = DefaultTimelineOptions().LaneHeight
	}
	if opts.MarkerRadius <= 0 {
		opts.MarkerRadius = DefaultTimelineOptions().MarkerRadius
	}

	u := UniformsFor(v)
	s := &Scene{Background: opts.Theme.Background, Transform: u}
	frame := TimelineFrame{Scene: s}
	if v.Zoom <= 0 || v.Width <= 0 {
		return frame
	}

	lo, hi := v.VisibleRange()
	margin := opts.MarkerRadius / v.Zoom
	visible := idx.Query(lo-margin, hi+margin)
	frame.Visible = visible

	frame.Era = view.ChooseGridInterval(v.Zoom)
	frame.Interval = view.FinestGridInterval(v.Zoom)
	if !opts.LabelsOnly {
		s.Bands = eraBands(lo, hi, frame.Era, v.Zoom, opts.Theme)
	}
	s.Grid, s.Labels = gridLines(lo, hi, frame.Interval, v.Zoom, opts.Theme)

	if !opts.LabelsOnly {
		s.Lines = connections(visible, idx, opts)
	}

	for _, ev := range visible {
		m := Marker{
			ID:     ev.ID,
			X:      ev.Timestamp,
			Y:      opts.LaneY(ev.Track),
			Radius: opts.MarkerRadius,
			Fill:   opts.Theme.CategoryColor(ev.Category),
		}
		if ev.ID == opts.Selected {
			m.Stroke = opts.Theme.Highlight
			m.StrokeWidth = 2
		}
		s.Markers = append(s.Markers, m)
	}

	if opts.Labels || opts.LabelsOnly {
		s.Labels = append(s.Labels, eventLabels(visible, v, opts)...)
	}
	return frame
}

// eraBands alternates band colours on era boundaries so adjacent eras stay
// distinguishable. Bands narrower than minBandPx are not drawn.
func eraBands(lo, hi float64, era view.GridInterval, zoom float64, t Theme) []Band {
	if era.Seconds*zoom < minBandPx {
		return nil
	}
	first := math.Floor(lo / era.Seconds)
	last := math.Floor(hi / era.Seconds)
	if last-first+1 > maxBands {
		return nil
	}
	out := make([]Band, 0, int(last-first)+1)
	for k := first; k <= last; k++ {
		c := t.BandA
		if math.Mod(math.Abs(k), 2) == 1 {
			c = t.BandB
		}
		out = append(out, Band{X0: k * era.Seconds, X1: (k + 1) * era.Seconds, Color: c})
	}
	return out
}

func gridLines(lo, hi float64, interval view.GridInterval, zoom float64, t Theme) ([]GridLine, []Label) {
	if interval.Seconds*zoom < minGridPx {
		return nil, nil
	}
	ticks := view.GridLines(lo, hi, interval, maxGridLines)
	lines := make([]GridLine, 0, len(ticks))
	labels := make([]Label, 0, len(ticks))
	for _, x := range ticks {
		lines = append(lines, GridLine{X: x, Color: t.Grid})
		labels = append(labels, Label{
			X:     x,
			Y:     glyphHeight + 2,
			DX:    3,
			Text:  view.FormatTick(x, interval),
			Color: t.Subtle,
		})
	}
	return lines, labels
}

// connections draws one line per related pair where at least one end is
// visible. Endpoints outside the view are resolved through the index.
func connections(visible []model.TimelineEvent, idx *spatial.Index, opts TimelineOptions) []Line {
	seen := make(map[[2]string]bool)
	var out []Line
	for _, ev := range visible {
		for _, rid := range ev.Related {
			other, ok := idx.Event(rid)
			if !ok || other.ID == ev.ID {
				continue
			}
			key := [2]string{ev.ID, other.ID}
			if other.ID < ev.ID {
				key = [2]string{other.ID, ev.ID}
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, Line{
				X1:    ev.Timestamp,
				Y1:    opts.LaneY(ev.Track),
				X2:    other.Timestamp,
				Y2:    opts.LaneY(other.Track),
				Width: 1,
				Color: opts.Theme.Connection,
			})
		}
	}
	return out
}

// eventLabels places titles to the right of markers. Events arrive sorted
// by timestamp, so each lane only needs to remember where its last label
// ended.
func eventLabels(visible []model.TimelineEvent, v view.State, opts TimelineOptions) []Label {
	lastEnd := make(map[int]float64)
	var out []Label
	for _, ev := range visible {
		if ev.Title == "" {
			continue
		}
		sx, _ := v.ToScreen(ev.Timestamp, 0)
		start := sx + opts.MarkerRadius + 3
		if end, ok := lastEnd[ev.Track]; ok && start < end+glyphWidth {
			continue
		}
		text := runewidth.Truncate(ev.Title, 32, "...")
		lastEnd[ev.Track] = start + float64(runewidth.StringWidth(text))*glyphWidth
		out = append(out, Label{
			X:     ev.Timestamp,
			Y:     opts.LaneY(ev.Track),
			DX:    opts.MarkerRadius + 3,
			DY:    glyphHeight/2 - 2,
			Text:  text,
			Color: opts.Theme.Text,
		})
	}
	return out
}
