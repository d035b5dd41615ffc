// Package interact turns pointer, wheel and key input into view changes and
// node pin requests.
//
// The Controller is the only writer of the view.State it is given. It never
// touches simulation state; node drags become requests on a Pinner, which
// the layout engine implements by sending itself messages.
package interact

import (
	"math"
	"time"

	"github.com/vanderheijden86/strata/pkg/debug"
	"github.com/vanderheijden86/strata/pkg/render"
	"github.com/vanderheijden86/strata/pkg/view"
)

// Pinner receives node drag requests.
type Pinner interface {
	Pin(id string, x, y float64)
	Drag(id string, x, y float64)
	EndDrag(id string)
	Release(id string)
}

// Config tunes gesture handling.
type Config struct {
	// Friction multiplies the inertia velocity every frame.
	Friction float64 `yaml:"friction"`
	// StopSpeed ends inertia once the velocity drops below it (pixels per
	// frame).
	StopSpeed float64 `yaml:"stop_speed"`
	// KeyPanPixels is the arrow-key step; it is divided by zoom.
	KeyPanPixels float64 `yaml:"key_pan_pixels"`
	ZoomIn       float64 `yaml:"zoom_in"`
	ZoomOut      float64 `yaml:"zoom_out"`
	// DoublePress is the longest gap between two presses on the same node
	// that counts as a release gesture.
	DoublePress time.Duration `yaml:"double_press"`
	// FlingWindow drops the release velocity when the pointer rested longer
	// than this before going up.
	FlingWindow time.Duration `yaml:"fling_window"`
	// HitSlop widens node hit targets, in pixels.
	HitSlop float64 `yaml:"hit_slop"`
}

// DefaultConfig returns the standard gesture settings.
func DefaultConfig() Config {
	return Config{
		Friction:     0.95,
		StopSpeed:    0.1,
		KeyPanPixels: 50,
		ZoomIn:       1.2,
		ZoomOut:      0.8,
		DoublePress:  350 * time.Millisecond,
		FlingWindow:  100 * time.Millisecond,
		HitSlop:      2,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Friction <= 0 || c.Friction >= 1 {
		c.Friction = d.Friction
	}
	if c.StopSpeed <= 0 {
		c.StopSpeed = d.StopSpeed
	}
	if c.KeyPanPixels <= 0 {
		c.KeyPanPixels = d.KeyPanPixels
	}
	if c.ZoomIn <= 1 {
		c.ZoomIn = d.ZoomIn
	}
	if c.ZoomOut <= 0 || c.ZoomOut >= 1 {
		c.ZoomOut = d.ZoomOut
	}
	if c.DoublePress <= 0 {
		c.DoublePress = d.DoublePress
	}
	if c.FlingWindow <= 0 {
		c.FlingWindow = d.FlingWindow
	}
	if c.HitSlop < 0 {
		c.HitSlop = 0
	}
	return c
}

// Key is a navigation key.
type Key int

const (
	KeyLeft Key = iota
	KeyRight
	KeyUp
	KeyDown
	KeyZoomIn
	KeyZoomOut
	KeyHome
)

// Target is a node that can be grabbed, in data space with a pixel radius.
type Target struct {
	ID     string
	X, Y   float64
	Radius float64
}

// TargetsFromScene returns the grabbable markers of a scene.
func TargetsFromScene(s *render.Scene) []Target {
	if s == nil {
		return nil
	}
	out := make([]Target, 0, len(s.Markers))
	for _, m := range s.Markers {
		if m.ID == "" {
			continue
		}
		out = append(out, Target{ID: m.ID, X: m.X, Y: m.Y, Radius: m.Radius + m.StrokeWidth})
	}
	return out
}

// Controller handles gestures for one view.
type Controller struct {
	cfg    Config
	view   *view.State
	pinner Pinner

	targets []Target

	panning      bool
	lastX, lastY float64
	lastMove     time.Time
	vx, vy       float64
	coasting     bool

	dragID    string
	pressID   string
	pressAt   time.Time
	selected  string
	onRelease func(id string)
}

// New returns a controller for v. pinner may be nil for views without
// draggable nodes.
func New(v *view.State, pinner Pinner, cfg Config) *Controller {
	return &Controller{cfg: cfg.withDefaults(), view: v, pinner: pinner}
}

// View returns the controlled view.
func (c *Controller) View() *view.State { return c.view }

// Selected is the last node pressed, or "".
func (c *Controller) Selected() string { return c.selected }

// Select marks id as selected without a gesture.
func (c *Controller) Select(id string) { c.selected = id }

// Dragging is the node being dragged, or "".
func (c *Controller) Dragging() string { return c.dragID }

// Coasting reports whether inertia is active.
func (c *Controller) Coasting() bool { return c.coasting }

// Velocity is the current pan velocity in pixels per frame.
func (c *Controller) Velocity() (float64, float64) { return c.vx, c.vy }

// OnRelease registers a callback run after a node is released.
func (c *Controller) OnRelease(fn func(id string)) { c.onRelease = fn }

// SetTargets replaces the nodes available for hit testing. Later targets
// are drawn on top and win ties.
func (c *Controller) SetTargets(ts []Target) {
	c.targets = ts
}

// HitTest returns the topmost target under the screen point.
func (c *Controller) HitTest(sx, sy float64) (Target, bool) {
	for i := len(c.targets) - 1; i >= 0; i-- {
		t := c.targets[i]
		tx, ty := c.view.ToScreen(t.X, t.Y)
		if math.Hypot(sx-tx, sy-ty) <= t.Radius+c.cfg.HitSlop {
			return t, true
		}
	}
	return Target{}, false
}

// PointerDown starts a pan, or a node drag when a node is under the
// pointer and a Pinner is set. A second press on the same node within
// DoublePress releases it instead.
func (c *Controller) PointerDown(sx, sy float64, at time.Time) {
	c.stopCoasting()

	if c.pinner != nil {
		if t, ok := c.HitTest(sx, sy); ok {
			c.selected = t.ID
			if t.ID == c.pressID && at.Sub(c.pressAt) <= c.cfg.DoublePress {
				c.pressID = ""
				c.Release(t.ID)
				return
			}
			c.pressID, c.pressAt = t.ID, at
			c.dragID = t.ID
			c.pinner.Pin(t.ID, t.X, t.Y)
			return
		}
	}

	c.pressID = ""
	c.panning = true
	c.lastX, c.lastY, c.lastMove = sx, sy, at
	c.vx, c.vy = 0, 0
}

// PointerMove continues the active gesture.
func (c *Controller) PointerMove(sx, sy float64, at time.Time) {
	switch {
	case c.dragID != "":
		x, y := c.view.ToData(sx, sy)
		c.pinner.Drag(c.dragID, x, y)
	case c.panning:
		dx, dy := sx-c.lastX, sy-c.lastY
		if c.view.Axis == view.AxisHorizontal {
			dy = 0
		}
		c.view.Pan(dx, dy)
		c.vx, c.vy = dx, dy
		c.lastX, c.lastY, c.lastMove = sx, sy, at
	}
}

// PointerUp ends the gesture. A pan released while moving keeps coasting.
func (c *Controller) PointerUp(sx, sy float64, at time.Time) {
	if c.dragID != "" {
		c.pinner.EndDrag(c.dragID)
		c.dragID = ""
		return
	}
	if !c.panning {
		return
	}
	c.panning = false
	if at.Sub(c.lastMove) > c.cfg.FlingWindow {
		c.vx, c.vy = 0, 0
	}
	c.coasting = math.Hypot(c.vx, c.vy) >= c.cfg.StopSpeed
}

// Step advances inertia by one frame. It returns false once inertia has
// stopped.
func (c *Controller) Step() bool {
	if !c.coasting {
		return false
	}
	c.vx *= c.cfg.Friction
	c.vy *= c.cfg.Friction
	if math.Hypot(c.vx, c.vy) < c.cfg.StopSpeed {
		c.stopCoasting()
		return false
	}
	c.view.Pan(c.vx, c.vy)
	return true
}

func (c *Controller) stopCoasting() {
	c.coasting = false
	c.vx, c.vy = 0, 0
}

// Wheel zooms by (1 + delta) anchored at the pointer. The result is
// clamped to the view's zoom bounds.
func (c *Controller) Wheel(sx, sy, delta float64) {
	if math.IsNaN(delta) {
		debug.Log("interact: ignoring NaN wheel delta")
		return
	}
	c.view.ZoomAt(sx, sy, delta)
}

// Key applies a navigation key.
func (c *Controller) Key(k Key) {
	step := c.cfg.KeyPanPixels / c.view.Zoom
	switch k {
	case KeyLeft:
		c.view.PanData(-step, 0)
	case KeyRight:
		c.view.PanData(step, 0)
	case KeyUp:
		c.view.PanData(0, -step)
	case KeyDown:
		c.view.PanData(0, step)
	case KeyZoomIn:
		c.view.ScaleZoom(c.cfg.ZoomIn)
	case KeyZoomOut:
		c.view.ScaleZoom(c.cfg.ZoomOut)
	case KeyHome:
		c.stopCoasting()
		c.view.Home()
	}
}

// Release unpins id so it rejoins the simulation.
func (c *Controller) Release(id string) {
	if c.pinner == nil || id == "" {
		return
	}
	if c.dragID == id {
		c.dragID = ""
	}
	c.pinner.Release(id)
	if c.onRelease != nil {
		c.onRelease(id)
	}
}
