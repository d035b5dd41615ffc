package export

import (
	"fmt"
	"image"
	"time"

	"github.com/vanderheijden86/strata/pkg/hooks"
	"github.com/vanderheijden86/strata/pkg/layout"
	"github.com/vanderheijden86/strata/pkg/model"
	"github.com/vanderheijden86/strata/pkg/render"
	"github.com/vanderheijden86/strata/pkg/spatial"
	"github.com/vanderheijden86/strata/pkg/view"
)

// View kinds a Still can show.
const (
	KindGraph    = "graph"
	KindTimeline = "timeline"
)

// Still is everything needed to render one frame away from the
// interactive session.
type Still struct {
	Kind     string
	View     view.State
	Dataset  model.Dataset
	Snapshot layout.Snapshot
	Index    *spatial.Index
	Graph    render.GraphOptions
	Timeline render.TimelineOptions
	Backend  render.Options
	// Reading drops era bands and relationship lines, leaving markers and
	// labels.
	Reading bool
}

// Scene builds the scene of the still.
func (s Still) Scene() *render.Scene {
	if s.Kind == KindTimeline {
		opts := s.Timeline
		opts.LabelsOnly = opts.LabelsOnly || s.Reading
		return render.TimelineScene(s.View, s.Index, opts).Scene
	}
	opts := s.Graph
	if s.Reading {
		opts.Labels = true
		opts.LabelMinZoom = 0
	}
	scene := render.GraphScene(s.View, s.Snapshot, s.Dataset, opts)
	if s.Reading {
		scene.Lines = nil
	}
	return scene
}

// Render draws the still at the size of its view with a renderer of its
// own.
func (s Still) Render() (*render.Scene, *image.RGBA, string, error) {
	w, h := int(s.View.Width), int(s.View.Height)
	if w <= 0 || h <= 0 {
		return nil, nil, "", fmt.Errorf("invalid frame size %dx%d", w, h)
	}
	r := render.NewRenderer(s.Backend, w, h)
	scene := s.Scene()
	if err := r.Draw(scene); err != nil {
		return nil, nil, "", fmt.Errorf("draw %s frame: %w", s.Kind, err)
	}
	return scene, r.Image(), r.Name(), nil
}

// Write renders the still and saves it per opts.
func (s Still) Write(opts Options) (string, error) {
	scene, img, _, err := s.Render()
	if err != nil {
		return "", err
	}
	return Save(opts, scene, img)
}

// Publish writes the still with the export hooks of projectDir around it.
// A failing pre-export hook cancels the write; a failing post-export hook
// is reported after the file exists. The summary is empty when no hook
// ran.
func (s Still) Publish(opts Options, projectDir string, noHooks bool) (path, summary string, err error) {
	opts, err = opts.Resolve()
	if err != nil {
		return "", "", err
	}
	ec := hooks.ExportContext{
		Path:       opts.Path,
		Format:     opts.Format,
		Kind:       s.Kind,
		NodeCount:  len(s.Dataset.Nodes),
		EventCount: len(s.Dataset.Events),
		Timestamp:  time.Now(),
	}
	h, err := hooks.Prepare(projectDir, ec, noHooks)
	if err != nil {
		return "", "", err
	}
	if h != nil {
		if err := h.RunPreExport(); err != nil {
			return "", h.Summary(), fmt.Errorf("export cancelled: %w", err)
		}
	}
	path, err = s.Write(opts)
	if err != nil || h == nil {
		return path, "", err
	}
	err = h.RunPostExport()
	return path, h.Summary(), err
}

// Rescale returns v resized to w x h pixels showing the same data: the
// zoom scales with the width, or for graphs with whichever side shrinks
// most. The zoom bounds are widened if needed so the result is exact.
func Rescale(v view.State, w, h int) view.State {
	if w <= 0 || h <= 0 || v.Width <= 0 || v.Height <= 0 {
		v.Resize(float64(max(w, 1)), float64(max(h, 1)))
		return v
	}
	factor := float64(w) / v.Width
	if v.Axis == view.AxisBoth {
		factor = min(factor, float64(h)/v.Height)
	}
	zoom := v.Zoom * factor
	v.Resize(float64(w), float64(h))
	v.MinZoom = min(v.MinZoom, zoom)
	v.MaxZoom = max(v.MaxZoom, zoom)
	v.SetZoom(zoom)
	return v
}
