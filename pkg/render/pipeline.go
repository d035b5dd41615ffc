package render

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Vertex is one entry of the vertex buffer. Position is relative to the
// frame origin (the view centre rounded to float32) so float32 keeps
// precision at large timestamps. UV spans [-1, 1] across marker quads and is zero elsewhere.
type Vertex struct {
	Position [2]float32
	Color    [4]float32
	UV       [2]float32
}

// UniformBuffer carries the per-frame transform to the vertex stage. The
// view centre is split in two: Origin is the float32 value vertex positions
// are relative to, Center is what remains of the centre after it, so
// Origin + Center is the centre without float32 rounding loss.
type UniformBuffer struct {
	Zoom     [2]float32
	Origin   [2]float32
	Center   [2]float32
	Viewport [2]float32
}

// Project is the vertex stage: origin-relative data space to clip space,
// then clip space to pixels.
func (u UniformBuffer) Project(p [2]float32) (float64, float64) {
	w, h := float64(u.Viewport[0]), float64(u.Viewport[1])
	clipX := (float64(p[0]) - float64(u.Center[0])) * float64(u.Zoom[0]) / (w / 2)
	clipY := -(float64(p[1]) - float64(u.Center[1])) * float64(u.Zoom[1]) / (h / 2)
	return (clipX + 1) * w / 2, (1 - clipY) * h / 2
}

// ViewCenter returns the data-space centre the buffer was built for.
func (u UniformBuffer) ViewCenter() (float64, float64) {
	return float64(u.Origin[0]) + float64(u.Center[0]), float64(u.Origin[1]) + float64(u.Center[1])
}

// Limits describes what a device can render.
type Limits struct {
	MaxDimension int
}

// Device executes draw passes. Vertices form a triangle list.
type Device interface {
	Limits() Limits
	Configure(w, h int) error
	Draw(clear color.RGBA, u UniformBuffer, vertices []Vertex) error
	Target() *image.RGBA
}

// AdapterFunc acquires a device.
type AdapterFunc func() (Device, error)

// DefaultAdapter is the adapter used when none is configured.
const DefaultAdapter = "reference"

var (
	adaptersMu sync.RWMutex
	adapters   = map[string]AdapterFunc{}
)

// RegisterAdapter makes a device source available to NewPipeline. A later
// registration under the same name replaces the earlier one.
func RegisterAdapter(name string, f AdapterFunc) {
	adaptersMu.Lock()
	defer adaptersMu.Unlock()
	if f == nil {
		delete(adapters, name)
		return
	}
	adapters[name] = f
}

// Adapters lists registered adapter names.
func Adapters() []string {
	adaptersMu.RLock()
	defer adaptersMu.RUnlock()
	out := make([]string, 0, len(adapters))
	for name := range adapters {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func init() {
	RegisterAdapter(DefaultAdapter, newReferenceDevice)
}

// Pipeline is the vertex pipeline backend. Every frame it rebuilds the
// vertex buffer as quads, uploads the uniforms and submits one pass. Labels
// are drawn over the result.
type Pipeline struct {
	adapter  string
	dev      Device
	w, h     int
	vertices []Vertex
	face     font.Face
}

// NewPipeline acquires the named adapter and configures it for w by h.
func NewPipeline(adapter string, w, h int) (*Pipeline, error) {
	adaptersMu.RLock()
	f, ok := adapters[adapter]
	adaptersMu.RUnlock()
	if !ok {
		return nil, &BackendError{Adapter: adapter, Cause: ErrNoAdapter}
	}
	dev, err := f()
	if err != nil {
		return nil, &BackendError{Adapter: adapter, Cause: err}
	}
	if dev == nil {
		return nil, &BackendError{Adapter: adapter, Cause: ErrNoAdapter}
	}
	p := &Pipeline{adapter: adapter, dev: dev, face: basicfont.Face7x13}
	if err := p.Resize(w, h); err != nil {
		return nil, &BackendError{Adapter: adapter, Cause: err}
	}
	return p, nil
}

func (p *Pipeline) Name() string { return BackendPipeline }

// Adapter is the adapter name the pipeline was built on.
func (p *Pipeline) Adapter() string { return p.adapter }

// Resize reconfigures the device. It fails with ErrUnsupported when the
// size exceeds the device limits.
func (p *Pipeline) Resize(w, h int) error {
	lim := p.dev.Limits()
	if lim.MaxDimension > 0 && (w > lim.MaxDimension || h > lim.MaxDimension) {
		return fmt.Errorf("%w: %dx%d exceeds %d", ErrUnsupported, w, h, lim.MaxDimension)
	}
	if err := p.dev.Configure(w, h); err != nil {
		return err
	}
	p.w, p.h = w, h
	return nil
}

// Vertices returns the vertex buffer of the last frame.
func (p *Pipeline) Vertices() []Vertex {
	return p.vertices
}

// DrawFrame implements Backend.
func (p *Pipeline) DrawFrame(s *Scene) error {
	u := s.Transform
	u.Width, u.Height = float64(p.w), float64(p.h)
	b := newQuadBuilder(u, p.vertices[:0])

	_, top := u.ToData(0, 0)
	_, bottom := u.ToData(0, u.Height)
	lo, _ := u.ToData(-1, 0)
	hi, _ := u.ToData(u.Width+1, 0)
	for _, band := range s.Bands {
		x0, x1 := max(band.X0, lo), min(band.X1, hi)
		if x1 <= x0 {
			continue
		}
		b.rect(x0, top, x1, bottom, band.Color)
	}
	halfPx := 0.5 / u.ZoomX
	for _, g := range s.Grid {
		b.rect(g.X-halfPx, top, g.X+halfPx, bottom, g.Color)
	}
	for _, l := range s.Lines {
		b.line(l)
	}
	for _, m := range s.Markers {
		if m.StrokeWidth > 0 {
			b.circle(m.X, m.Y, m.Radius+m.StrokeWidth, m.Stroke)
		}
		b.circle(m.X, m.Y, m.Radius, m.Fill)
	}
	p.vertices = b.out

	uniforms := b.uniforms(p.w, p.h)
	if err := p.dev.Draw(s.Background, uniforms, p.vertices); err != nil {
		return err
	}

	target := p.dev.Target()
	for _, l := range s.Labels {
		x, y := u.ToScreen(l.X, l.Y)
		p.drawString(target, l, x+l.DX, y+l.DY)
	}
	return nil
}

// drawString matches gg's anchored text placement: x shifts left by
// AnchorX of the advance width and y is the baseline.
func (p *Pipeline) drawString(dst *image.RGBA, l Label, x, y float64) {
	if l.Text == "" {
		return
	}
	width := float64(font.MeasureString(p.face, l.Text)) / 64
	x -= l.AnchorX * width
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(l.Color),
		Face: p.face,
		Dot:  fixed.Point26_6{X: fixed.Int26_6(math.Round(x * 64)), Y: fixed.Int26_6(math.Round(y * 64))},
	}
	d.DrawString(l.Text)
}

// Image implements Backend.
func (p *Pipeline) Image() *image.RGBA {
	return p.dev.Target()
}

// quadBuilder appends triangles in origin-relative data space. Pixel sizes
// are divided by the zoom so the vertex stage maps them back to pixels.
type quadBuilder struct {
	u      Uniforms
	origin [2]float64
	out    []Vertex
}

func newQuadBuilder(u Uniforms, out []Vertex) quadBuilder {
	return quadBuilder{
		u:      u,
		origin: [2]float64{float64(float32(u.CenterX)), float64(float32(u.CenterY))},
		out:    out,
	}
}

// uniforms returns the buffer matching the builder's origin.
func (b *quadBuilder) uniforms(w, h int) UniformBuffer {
	return UniformBuffer{
		Zoom:     [2]float32{float32(b.u.ZoomX), float32(b.u.ZoomY)},
		Origin:   [2]float32{float32(b.origin[0]), float32(b.origin[1])},
		Center:   [2]float32{float32(b.u.CenterX - b.origin[0]), float32(b.u.CenterY - b.origin[1])},
		Viewport: [2]float32{float32(w), float32(h)},
	}
}

func (b *quadBuilder) rel(x, y float64) [2]float32 {
	return [2]float32{float32(x - b.origin[0]), float32(y - b.origin[1])}
}

// fromScreen converts a pixel position to an origin-relative vertex
// position.
func (b *quadBuilder) fromScreen(sx, sy float64) [2]float32 {
	return [2]float32{
		float32((sx-b.u.Width/2)/b.u.ZoomX + b.u.CenterX - b.origin[0]),
		float32((sy-b.u.Height/2)/b.u.ZoomY + b.u.CenterY - b.origin[1]),
	}
}

func (b *quadBuilder) quad(p [4][2]float32, uv [4][2]float32, c color.RGBA) {
	col := rgbaVec(c)
	v := func(i int) Vertex { return Vertex{Position: p[i], Color: col, UV: uv[i]} }
	b.out = append(b.out, v(0), v(1), v(2), v(0), v(2), v(3))
}

func (b *quadBuilder) rect(x0, y0, x1, y1 float64, c color.RGBA) {
	b.quad([4][2]float32{b.rel(x0, y0), b.rel(x1, y0), b.rel(x1, y1), b.rel(x0, y1)}, [4][2]float32{}, c)
}

func (b *quadBuilder) circle(x, y, r float64, c color.RGBA) {
	dx, dy := r/b.u.ZoomX, r/b.u.ZoomY
	b.quad(
		[4][2]float32{b.rel(x-dx, y-dy), b.rel(x+dx, y-dy), b.rel(x+dx, y+dy), b.rel(x-dx, y+dy)},
		[4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}},
		c,
	)
}

func (b *quadBuilder) line(l Line) {
	x1, y1, x2, y2 := ScreenSegment(l, b.u)
	dx, dy := x2-x1, y2-y1
	d := math.Hypot(dx, dy)
	if d < 1e-9 || l.Width <= 0 {
		return
	}
	hw := l.Width / 2
	nx, ny := -dy/d*hw, dx/d*hw
	b.quad([4][2]float32{
		b.fromScreen(x1+nx, y1+ny),
		b.fromScreen(x2+nx, y2+ny),
		b.fromScreen(x2-nx, y2-ny),
		b.fromScreen(x1-nx, y1-ny),
	}, [4][2]float32{}, l.Color)

	if pts, ok := ArrowHead(l, b.u); ok {
		col := rgbaVec(l.Color)
		for _, pt := range pts {
			b.out = append(b.out, Vertex{Position: b.fromScreen(pt[0], pt[1]), Color: col})
		}
	}
}

// rgbaVec converts a premultiplied colour to straight-alpha floats.
func rgbaVec(c color.RGBA) [4]float32 {
	if c.A == 0 {
		return [4]float32{}
	}
	a := float32(c.A)
	return [4]float32{float32(c.R) / a, float32(c.G) / a, float32(c.B) / a, a / 255}
}
