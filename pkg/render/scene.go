// Package render draws timeline and graph views through one frame contract.
//
// A Scene describes a frame in data space: era bands and grid lines, then
// relationship lines, then markers, then labels. Scene builders turn a
// view.State plus a spatial index or a layout snapshot into a Scene; a
// Backend turns a Scene into pixels. Two backends exist: a vertex pipeline
// that builds quads and runs them through a device, and an immediate-mode
// canvas. Both clear the frame and draw every layer in the same order on
// every call.
package render

import (
	"image/color"
	"math"

	"github.com/vanderheijden86/strata/pkg/view"
)

// Uniforms map data space to screen pixels. For the timeline ZoomY is 1 and
// CenterY is half the height, so lane coordinates pass through as pixels.
type Uniforms struct {
	ZoomX   float64
	ZoomY   float64
	CenterX float64
	CenterY float64
	Width   float64
	Height  float64
}

// UniformsFor derives the transform of a view.
func UniformsFor(v view.State) Uniforms {
	u := Uniforms{
		ZoomX:   v.Zoom,
		ZoomY:   v.ZoomY(),
		CenterX: v.CenterX,
		CenterY: v.CenterY,
		Width:   v.Width,
		Height:  v.Height,
	}
	if v.Axis == view.AxisHorizontal {
		u.CenterY = v.Height / 2
	}
	return u
}

// ToScreen maps a data-space point to pixels.
func (u Uniforms) ToScreen(x, y float64) (float64, float64) {
	return u.Width/2 + (x-u.CenterX)*u.ZoomX, u.Height/2 + (y-u.CenterY)*u.ZoomY
}

// ToData maps pixels to data space.
func (u Uniforms) ToData(sx, sy float64) (float64, float64) {
	return u.CenterX + (sx-u.Width/2)/u.ZoomX, u.CenterY + (sy-u.Height/2)/u.ZoomY
}

// Band is a full-height vertical strip between two data x values.
type Band struct {
	X0, X1 float64
	Color  color.RGBA
}

// GridLine is a one pixel full-height vertical line.
type GridLine struct {
	X     float64
	Color color.RGBA
}

// Line joins two data-space points. Width and Arrow are pixels. When Arrow
// is positive a head is drawn at the target end, pulled back by Inset pixels
// so it sits on the rim of the target marker.
type Line struct {
	X1, Y1 float64
	X2, Y2 float64
	Width  float64
	Color  color.RGBA
	Arrow  float64
	Inset  float64
}

// Marker is a filled circle with an optional outline. Radius and
// StrokeWidth are pixels.
type Marker struct {
	ID          string
	X, Y        float64
	Radius      float64
	Fill        color.RGBA
	Stroke      color.RGBA
	StrokeWidth float64
}

// Label is text whose baseline starts at the data-space point offset by
// (DX, DY) pixels. AnchorX shifts the text left by that fraction of its
// width.
type Label struct {
	X, Y    float64
	DX, DY  float64
	AnchorX float64
	Text    string
	Color   color.RGBA
}

// Scene is one frame. Backends draw the slices in declaration order.
type Scene struct {
	Background color.RGBA
	Transform  Uniforms
	Bands      []Band
	Grid       []GridLine
	Lines      []Line
	Markers    []Marker
	Labels     []Label
}

// Items returns the number of drawable items in the scene.
func (s *Scene) Items() int {
	if s == nil {
		return 0
	}
	return len(s.Bands) + len(s.Grid) + len(s.Lines) + len(s.Markers) + len(s.Labels)
}

// NodeRadius is the marker radius for a node of the given importance.
func NodeRadius(base, importance float64) float64 {
	return base + importance/10
}

// EdgeWidth is the stroke width for an edge of the given strength.
func EdgeWidth(base, strength float64) float64 {
	return base + strength/25
}

// ScreenSegment returns the line endpoints in pixels, with the target end
// pulled back by Inset.
func ScreenSegment(l Line, u Uniforms) (x1, y1, x2, y2 float64) {
	x1, y1 = u.ToScreen(l.X1, l.Y1)
	x2, y2 = u.ToScreen(l.X2, l.Y2)
	if l.Inset > 0 {
		dx, dy := x2-x1, y2-y1
		d := math.Hypot(dx, dy)
		if d > l.Inset {
			x2 -= dx / d * l.Inset
			y2 -= dy / d * l.Inset
		}
	}
	return
}

// ArrowHead returns the tip and the two base corners of the arrow for l in
// pixels. ok is false when the line has no arrow or no length.
func ArrowHead(l Line, u Uniforms) (pts [3][2]float64, ok bool) {
	if l.Arrow <= 0 {
		return pts, false
	}
	x1, y1, x2, y2 := ScreenSegment(l, u)
	dx, dy := x2-x1, y2-y1
	d := math.Hypot(dx, dy)
	if d < 1e-9 {
		return pts, false
	}
	ux, uy := dx/d, dy/d
	bx, by := x2-ux*l.Arrow, y2-uy*l.Arrow
	half := l.Arrow / 2
	pts[0] = [2]float64{x2, y2}
	pts[1] = [2]float64{bx - uy*half, by + ux*half}
	pts[2] = [2]float64{bx + uy*half, by - ux*half}
	return pts, true
}
