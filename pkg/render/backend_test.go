package render

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"
)

var (
	red   = color.RGBA{0xdc, 0x26, 0x26, 0xff}
	blue  = color.RGBA{0x25, 0x63, 0xeb, 0xff}
	green = color.RGBA{0x05, 0x96, 0x69, 0xff}
	white = color.RGBA{0xff, 0xff, 0xff, 0xff}
)

func probe(img *image.RGBA, x, y float64) color.RGBA {
	return img.RGBAAt(int(math.Floor(x)), int(math.Floor(y)))
}

func testScene(w, h float64) *Scene {
	u := Uniforms{ZoomX: 2, ZoomY: 2, CenterX: 10, CenterY: 5, Width: w, Height: h}
	return &Scene{
		Background: white,
		Transform:  u,
		Bands:      []Band{{X0: -100, X1: 0, Color: green}},
		Lines: []Line{
			{X1: 0, Y1: 0, X2: 30, Y2: 20, Width: 3, Color: blue},
		},
		Markers: []Marker{
			{ID: "a", X: 15, Y: 10, Radius: 6, Fill: red},
			{ID: "b", X: 40, Y: 25, Radius: 8, Fill: blue, Stroke: green, StrokeWidth: 4},
		},
	}
}

func drawWith(t *testing.T, b Backend, s *Scene) *image.RGBA {
	t.Helper()
	if err := b.DrawFrame(s); err != nil {
		t.Fatalf("%s DrawFrame: %v", b.Name(), err)
	}
	return b.Image()
}

func TestBackends_PaintMarkersAtSamePixels(t *testing.T) {
	const w, h = 160, 120
	s := testScene(w, h)

	p, err := NewPipeline(DefaultAdapter, w, h)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	backends := []Backend{p, NewCanvas(w, h)}

	for _, b := range backends {
		img := drawWith(t, b, s)
		for _, m := range s.Markers {
			x, y := s.Transform.ToScreen(m.X, m.Y)
			if got := probe(img, x, y); got != m.Fill {
				t.Errorf("%s: marker %s centre = %v, want %v", b.Name(), m.ID, got, m.Fill)
			}
		}
		if got := probe(img, w-2, 1); got != white {
			t.Errorf("%s: background = %v, want %v", b.Name(), got, white)
		}
		// Band covers x < 0 in data space, i.e. screen x < 60.
		if got := probe(img, 10, h-2); got != green {
			t.Errorf("%s: band = %v, want %v", b.Name(), got, green)
		}
		// Outline ring of marker b.
		bx, by := s.Transform.ToScreen(40, 25)
		if got := probe(img, bx+10, by); got != green {
			t.Errorf("%s: stroke ring = %v, want %v", b.Name(), got, green)
		}
	}
}

func TestBackends_MarkersDrawOverLines(t *testing.T) {
	const w, h = 100, 100
	s := &Scene{
		Background: white,
		Transform:  Uniforms{ZoomX: 1, ZoomY: 1, CenterX: 50, CenterY: 50, Width: w, Height: h},
		Lines:      []Line{{X1: 0, Y1: 50.5, X2: 100, Y2: 50.5, Width: 4, Color: blue}},
		Markers:    []Marker{{X: 50.5, Y: 50.5, Radius: 5, Fill: red}},
	}
	p, err := NewPipeline(DefaultAdapter, w, h)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	for _, b := range []Backend{p, NewCanvas(w, h)} {
		img := drawWith(t, b, s)
		if got := img.RGBAAt(50, 50); got != red {
			t.Errorf("%s: centre = %v, want marker colour", b.Name(), got)
		}
		if got := img.RGBAAt(20, 50); got != blue {
			t.Errorf("%s: line = %v, want %v", b.Name(), got, blue)
		}
	}
}

func TestBackends_FullRedrawEachFrame(t *testing.T) {
	const w, h = 80, 80
	p, err := NewPipeline(DefaultAdapter, w, h)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	for _, b := range []Backend{p, NewCanvas(w, h)} {
		first := &Scene{
			Background: white,
			Transform:  Uniforms{ZoomX: 1, ZoomY: 1, CenterX: 40, CenterY: 40, Width: w, Height: h},
			Markers:    []Marker{{X: 20.5, Y: 20.5, Radius: 6, Fill: red}},
		}
		drawWith(t, b, first)
		second := *first
		second.Markers = nil
		img := drawWith(t, b, &second)
		if got := img.RGBAAt(20, 20); got != white {
			t.Errorf("%s: stale marker survived redraw: %v", b.Name(), got)
		}
	}
}

func TestPipeline_TwoTrianglesPerMarker(t *testing.T) {
	p, err := NewPipeline(DefaultAdapter, 64, 64)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	s := &Scene{
		Background: white,
		Transform:  Uniforms{ZoomX: 1, ZoomY: 1, Width: 64, Height: 64},
		Markers:    []Marker{{X: 0, Y: 0, Radius: 4, Fill: red}, {X: 10, Y: 10, Radius: 4, Fill: blue}},
	}
	drawWith(t, p, s)
	if got := len(p.Vertices()); got != 12 {
		t.Fatalf("vertices = %d, want 12", got)
	}
}

func TestPipeline_OriginRelativePrecision(t *testing.T) {
	// Centuries in seconds: far beyond float32's integer precision.
	const center = 6.3e12
	u := Uniforms{ZoomX: 1, ZoomY: 1, CenterX: center, CenterY: 50, Width: 200, Height: 100}
	s := &Scene{
		Background: white,
		Transform:  u,
		Markers:    []Marker{{X: center + 30.5, Y: 50.5, Radius: 3, Fill: red}},
	}
	p, err := NewPipeline(DefaultAdapter, 200, 100)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	img := drawWith(t, p, s)
	if got := img.RGBAAt(130, 50); got != red {
		t.Fatalf("marker at large timestamp drawn at wrong pixel: %v", got)
	}
}

func TestUniformBuffer_ProjectMatchesTransform(t *testing.T) {
	u := Uniforms{ZoomX: 3, ZoomY: 0.5, CenterX: 100, CenterY: -20, Width: 300, Height: 200}
	b := newQuadBuilder(u, nil)
	ub := b.uniforms(300, 200)
	for _, pt := range [][2]float64{{100, -20}, {150, 40}, {0, 0}, {-50, 400}} {
		wantX, wantY := u.ToScreen(pt[0], pt[1])
		gotX, gotY := ub.Project(b.rel(pt[0], pt[1]))
		if math.Abs(gotX-wantX) > 1e-3 || math.Abs(gotY-wantY) > 1e-3 {
			t.Errorf("Project(%v) = (%v,%v), want (%v,%v)", pt, gotX, gotY, wantX, wantY)
		}
	}
}

func TestUniformBuffer_CarriesCenter(t *testing.T) {
	const ts = 1.7e9 + 0.37
	u := Uniforms{ZoomX: 40, ZoomY: 1, CenterX: ts, CenterY: 60, Width: 200, Height: 100}
	b := newQuadBuilder(u, nil)
	ub := b.uniforms(200, 100)

	cx, cy := ub.ViewCenter()
	if math.Abs(cx-ts) > 1e-6 || cy != 60 {
		t.Errorf("ViewCenter = (%v, %v), want (%v, 60)", cx, cy, ts)
	}
	if ub.Center[0] == 0 {
		t.Error("centre residual missing from the uniform buffer")
	}
	// A point 0.5 data units right of the centre lands 20 px right of the
	// middle even though float32 cannot hold the timestamp itself.
	x, _ := ub.Project(b.rel(ts+0.5, 60))
	if math.Abs(x-120) > 0.05 {
		t.Errorf("Project = %v, want 120", x)
	}
	sx, _ := ub.Project(b.fromScreen(150, 50))
	if math.Abs(sx-150) > 0.05 {
		t.Errorf("fromScreen round trip = %v, want 150", sx)
	}
}

func TestNewRenderer_PrefersPipeline(t *testing.T) {
	t.Setenv(EnvDisableGPU, "")
	r := NewRenderer(Options{Backend: BackendAuto}, 64, 64)
	if r.Name() != BackendPipeline {
		t.Fatalf("backend = %s, want pipeline", r.Name())
	}
	if r.Fallback() != nil {
		t.Fatalf("unexpected fallback: %v", r.Fallback())
	}
}

func TestNewRenderer_CanvasRequested(t *testing.T) {
	r := NewRenderer(Options{Backend: BackendCanvas}, 64, 64)
	if r.Name() != BackendCanvas {
		t.Fatalf("backend = %s, want canvas", r.Name())
	}
	if r.Fallback() != nil {
		t.Fatalf("explicit canvas is not a fallback: %v", r.Fallback())
	}
}

func TestNewRenderer_FallsBack(t *testing.T) {
	RegisterAdapter("broken", func() (Device, error) { return nil, errors.New("device lost") })
	t.Cleanup(func() { RegisterAdapter("broken", nil) })

	tests := []struct {
		name    string
		opts    Options
		w, h    int
		env     string
		wantErr error
	}{
		{"missing adapter", Options{Adapter: "nope"}, 64, 64, "", ErrNoAdapter},
		{"disabled by env", Options{}, 64, 64, "1", ErrNoAdapter},
		{"viewport beyond limits", Options{}, referenceMaxDimension + 1, 64, "", ErrUnsupported},
		{"adapter error", Options{Adapter: "broken"}, 64, 64, "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvDisableGPU, tt.env)
			r := NewRenderer(tt.opts, tt.w, tt.h)
			if r.Name() != BackendCanvas {
				t.Fatalf("backend = %s, want canvas", r.Name())
			}
			err := r.Fallback()
			var be *BackendError
			if !errors.As(err, &be) {
				t.Fatalf("Fallback() = %v, want *BackendError", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("Fallback() = %v, want %v", err, tt.wantErr)
			}
			if err := r.Draw(&Scene{Background: white, Transform: Uniforms{ZoomX: 1, ZoomY: 1}}); err != nil {
				t.Fatalf("Draw after fallback: %v", err)
			}
		})
	}
}

func TestRenderer_ResizeBeyondLimitsFallsBackPermanently(t *testing.T) {
	t.Setenv(EnvDisableGPU, "")
	r := NewRenderer(Options{}, 64, 64)
	if r.Name() != BackendPipeline {
		t.Fatalf("backend = %s, want pipeline", r.Name())
	}
	r.Resize(referenceMaxDimension+10, 32)
	if r.Name() != BackendCanvas {
		t.Fatalf("backend after oversize resize = %s, want canvas", r.Name())
	}
	if !errors.Is(r.Fallback(), ErrUnsupported) {
		t.Fatalf("Fallback() = %v, want ErrUnsupported", r.Fallback())
	}
	r.Resize(64, 64)
	if r.Name() != BackendCanvas {
		t.Fatal("renderer re-probed the pipeline after falling back")
	}
	if got := r.Image().Bounds().Dx(); got != 64 {
		t.Fatalf("image width = %d, want 64", got)
	}
}

func TestRenderer_DrawNilScene(t *testing.T) {
	r := NewRenderer(Options{Backend: BackendCanvas}, 8, 8)
	if err := r.Draw(nil); err == nil {
		t.Fatal("expected error for nil scene")
	}
}

func TestAdapters_ListsReference(t *testing.T) {
	found := false
	for _, name := range Adapters() {
		if name == DefaultAdapter {
			found = true
		}
	}
	if !found {
		t.Fatalf("Adapters() = %v, missing %q", Adapters(), DefaultAdapter)
	}
}
