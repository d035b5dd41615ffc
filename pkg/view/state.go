// Package view holds the pan/zoom state shared by the interaction layer and
// the renderer, and the transforms between data space and screen space.
package view

import "math"

// Axis selects which axes zoom applies to.
type Axis int

const (
	// AxisHorizontal zooms only x; y is screen pixels (timeline lanes).
	AxisHorizontal Axis = iota
	// AxisBoth zooms x and y uniformly (graph layout space).
	AxisBoth
)

// Default zoom bounds. Timeline zoom is pixels per second, so the range spans
// roughly ten millennia per screen to minutes per screen.
const (
	DefaultTimelineMinZoom = 1e-12
	DefaultTimelineMaxZoom = 10.0
	DefaultGraphMinZoom    = 0.05
	DefaultGraphMaxZoom    = 20.0
)

// State is the viewport. Only the interaction layer mutates it.
type State struct {
	Zoom    float64 `json:"zoom"`
	CenterX float64 `json:"center_x"`
	CenterY float64 `json:"center_y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	MinZoom float64 `json:"min_zoom"`
	MaxZoom float64 `json:"max_zoom"`
	Axis    Axis    `json:"axis"`
}

// NewTimeline returns a horizontal-only view of the given size.
func NewTimeline(width, height float64) State {
	return State{
		Zoom:    1,
		Width:   width,
		Height:  height,
		MinZoom: DefaultTimelineMinZoom,
		MaxZoom: DefaultTimelineMaxZoom,
		Axis:    AxisHorizontal,
	}
}

// NewGraph returns a uniformly zoomed view of the given size.
func NewGraph(width, height float64) State {
	return State{
		Zoom:    1,
		Width:   width,
		Height:  height,
		MinZoom: DefaultGraphMinZoom,
		MaxZoom: DefaultGraphMaxZoom,
		Axis:    AxisBoth,
	}
}

// Clamp returns z limited to [MinZoom, MaxZoom].
func (s State) Clamp(z float64) float64 {
	if math.IsNaN(z) {
		return s.Zoom
	}
	if z < s.MinZoom {
		return s.MinZoom
	}
	if z > s.MaxZoom {
		return s.MaxZoom
	}
	return z
}

// SetZoom sets the zoom, clamped.
func (s *State) SetZoom(z float64) {
	s.Zoom = s.Clamp(z)
}

// Resize updates the viewport dimensions.
func (s *State) Resize(w, h float64) {
	s.Width, s.Height = w, h
}

// ZoomY is the vertical scale factor.
func (s State) ZoomY() float64 {
	if s.Axis == AxisHorizontal {
		return 1
	}
	return s.Zoom
}

// ToScreen maps a data-space point to screen pixels.
func (s State) ToScreen(x, y float64) (float64, float64) {
	sx := s.Width/2 + (x-s.CenterX)*s.Zoom
	sy := s.Height/2 + (y-s.CenterY)*s.ZoomY()
	return sx, sy
}

// ToData maps screen pixels back to data space.
func (s State) ToData(sx, sy float64) (float64, float64) {
	x := s.CenterX + (sx-s.Width/2)/s.Zoom
	y := s.CenterY + (sy-s.Height/2)/s.ZoomY()
	return x, y
}

// VisibleRange returns the data-space x interval covered by the viewport.
func (s State) VisibleRange() (float64, float64) {
	half := s.Width / 2 / s.Zoom
	return s.CenterX - half, s.CenterX + half
}

// VisibleRect returns the data-space rectangle covered by the viewport.
func (s State) VisibleRect() (minX, minY, maxX, maxY float64) {
	minX, minY = s.ToData(0, 0)
	maxX, maxY = s.ToData(s.Width, s.Height)
	return
}

// Pan moves the view by a screen-space delta. Dragging right moves the
// content right, so the center moves left in data space.
func (s *State) Pan(dxScreen, dyScreen float64) {
	s.CenterX -= dxScreen / s.Zoom
	if s.Axis == AxisBoth {
		s.CenterY -= dyScreen / s.Zoom
	}
}

// PanData moves the center by a data-space delta.
func (s *State) PanData(dx, dy float64) {
	s.CenterX += dx
	if s.Axis == AxisBoth {
		s.CenterY += dy
	}
}

// ZoomAt multiplies zoom by (1+delta), keeping the data point under
// (mouseX, mouseY) fixed on screen.
func (s *State) ZoomAt(mouseX, mouseY, delta float64) {
	old := s.Zoom
	next := s.Clamp(old * (1 + delta))
	if next == old {
		return
	}
	offX := mouseX - s.Width/2
	s.CenterX += offX/old - offX/next
	if s.Axis == AxisBoth {
		offY := mouseY - s.Height/2
		s.CenterY += offY/old - offY/next
	}
	s.Zoom = next
}

// ScaleZoom multiplies zoom by factor around the viewport center.
func (s *State) ScaleZoom(factor float64) {
	s.SetZoom(s.Zoom * factor)
}

// Home resets the center to the origin.
func (s *State) Home() {
	s.CenterX, s.CenterY = 0, 0
}

// FitX sets zoom and center so [lo, hi] fills the width with a margin.
func (s *State) FitX(lo, hi float64) {
	if hi <= lo || s.Width <= 0 {
		s.CenterX = lo
		return
	}
	s.CenterX = lo + (hi-lo)/2
	s.SetZoom(s.Width * 0.9 / (hi - lo))
}

// FitRect fits a data-space rectangle into the viewport (graph views).
func (s *State) FitRect(minX, minY, maxX, maxY float64) {
	w, h := maxX-minX, maxY-minY
	s.CenterX = minX + w/2
	s.CenterY = minY + h/2
	if w <= 0 && h <= 0 {
		return
	}
	zx, zy := math.Inf(1), math.Inf(1)
	if w > 0 {
		zx = s.Width * 0.9 / w
	}
	if h > 0 && s.Axis == AxisBoth {
		zy = s.Height * 0.9 / h
	}
	s.SetZoom(math.Min(zx, zy))
}
