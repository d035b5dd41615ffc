package view

import (
	"math"
	"testing"

	"pgregory.net/rapid"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

func TestZoomAt_CenterAnchor(t *testing.T) {
	s := NewTimeline(800, 400)
	s.ZoomAt(400, 200, 0.5)
	if s.Zoom != 1.5 {
		t.Errorf("expected zoom 1.5, got %v", s.Zoom)
	}
	if s.CenterX != 0 {
		t.Errorf("expected center unchanged, got %v", s.CenterX)
	}
}

func TestZoomAt_KeepsPointUnderPointer(t *testing.T) {
	s := NewGraph(800, 600)
	s.CenterX, s.CenterY = 120, -40
	mx, my := 650.0, 80.0
	beforeX, beforeY := s.ToData(mx, my)

	s.ZoomAt(mx, my, 0.25)

	afterX, afterY := s.ToData(mx, my)
	if !approx(beforeX, afterX) || !approx(beforeY, afterY) {
		t.Errorf("anchor drifted: (%v,%v) -> (%v,%v)", beforeX, beforeY, afterX, afterY)
	}
}

func TestZoomAt_TimelineIgnoresY(t *testing.T) {
	s := NewTimeline(800, 400)
	s.ZoomAt(100, 10, 1)
	if s.CenterY != 0 {
		t.Errorf("timeline zoom must not move the vertical center, got %v", s.CenterY)
	}
	if s.ZoomY() != 1 {
		t.Errorf("timeline vertical scale must be 1, got %v", s.ZoomY())
	}
}

func TestPan(t *testing.T) {
	s := NewTimeline(800, 400)
	s.Zoom = 2
	s.Pan(100, 50)
	if s.CenterX != -50 {
		t.Errorf("expected center -50, got %v", s.CenterX)
	}
	if s.CenterY != 0 {
		t.Errorf("timeline pan must not move y, got %v", s.CenterY)
	}
}

func TestToScreenToData_RoundTrip(t *testing.T) {
	s := NewGraph(1024, 768)
	s.Zoom, s.CenterX, s.CenterY = 3.5, 10, 20
	sx, sy := s.ToScreen(42, -7)
	x, y := s.ToData(sx, sy)
	if !approx(x, 42) || !approx(y, -7) {
		t.Errorf("round trip gave (%v,%v)", x, y)
	}
}

func TestToScreen_TimelineFormula(t *testing.T) {
	s := NewTimeline(800, 400)
	s.Zoom, s.CenterX = 0.5, 1000
	sx, _ := s.ToScreen(1200, 0)
	if sx != 500 {
		t.Errorf("expected 400 + 200*0.5 = 500, got %v", sx)
	}
}

func TestZoomStaysClamped(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := NewGraph(800, 600)
		ops := rapid.SliceOfN(rapid.IntRange(0, 2), 1, 60).Draw(t, "ops")
		for i, op := range ops {
			switch op {
			case 0:
				d := rapid.Float64Range(-0.99, 5).Draw(t, "delta")
				x := rapid.Float64Range(0, 800).Draw(t, "mx")
				s.ZoomAt(x, 300, d)
			case 1:
				s.ScaleZoom(1.2)
			case 2:
				s.ScaleZoom(0.8)
			}
			if s.Zoom < s.MinZoom || s.Zoom > s.MaxZoom {
				t.Fatalf("step %d: zoom %v outside [%v,%v]", i, s.Zoom, s.MinZoom, s.MaxZoom)
			}
		}
	})
}

func TestSetZoom_NaNIgnored(t *testing.T) {
	s := NewGraph(100, 100)
	s.SetZoom(math.NaN())
	if s.Zoom != 1 {
		t.Errorf("NaN zoom should be ignored, got %v", s.Zoom)
	}
}

func TestFitX(t *testing.T) {
	s := NewTimeline(900, 300)
	s.FitX(0, 1000)
	if s.CenterX != 500 {
		t.Errorf("expected center 500, got %v", s.CenterX)
	}
	lo, hi := s.VisibleRange()
	if lo > 0 || hi < 1000 {
		t.Errorf("range [%v,%v] does not cover data", lo, hi)
	}
}
