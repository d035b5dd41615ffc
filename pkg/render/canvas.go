package render

import (
	"errors"
	"image"
	"image/draw"

	"git.sr.ht/~sbinet/gg"
	"golang.org/x/image/font/basicfont"
)

// Canvas is the immediate-mode backend. Each item is transformed to pixels
// in Go and drawn with one gg call.
type Canvas struct {
	dc *gg.Context
	w  int
	h  int
}

// NewCanvas returns a canvas of the given size.
func NewCanvas(w, h int) *Canvas {
	c := &Canvas{}
	_ = c.Resize(w, h)
	return c
}

func (c *Canvas) Name() string { return BackendCanvas }

// Resize replaces the drawing context.
func (c *Canvas) Resize(w, h int) error {
	if w <= 0 || h <= 0 {
		return errors.New("canvas: non-positive size")
	}
	if c.dc != nil && c.w == w && c.h == h {
		return nil
	}
	c.dc = gg.NewContext(w, h)
	c.dc.SetFontFace(basicfont.Face7x13)
	c.w, c.h = w, h
	return nil
}

// DrawFrame implements Backend.
func (c *Canvas) DrawFrame(s *Scene) error {
	dc := c.dc
	u := s.Transform
	u.Width, u.Height = float64(c.w), float64(c.h)
	h := float64(c.h)

	dc.SetColor(s.Background)
	dc.Clear()

	for _, b := range s.Bands {
		x0, _ := u.ToScreen(b.X0, 0)
		x1, _ := u.ToScreen(b.X1, 0)
		x0, x1 = max(x0, 0), min(x1, float64(c.w))
		if x1 <= x0 {
			continue
		}
		dc.SetColor(b.Color)
		dc.DrawRectangle(x0, 0, x1-x0, h)
		dc.Fill()
	}

	dc.SetLineWidth(1)
	for _, g := range s.Grid {
		x, _ := u.ToScreen(g.X, 0)
		dc.SetColor(g.Color)
		dc.DrawLine(x, 0, x, h)
		dc.Stroke()
	}

	for _, l := range s.Lines {
		x1, y1, x2, y2 := ScreenSegment(l, u)
		dc.SetColor(l.Color)
		dc.SetLineWidth(l.Width)
		dc.DrawLine(x1, y1, x2, y2)
		dc.Stroke()
		if pts, ok := ArrowHead(l, u); ok {
			dc.NewSubPath()
			dc.MoveTo(pts[0][0], pts[0][1])
			dc.LineTo(pts[1][0], pts[1][1])
			dc.LineTo(pts[2][0], pts[2][1])
			dc.ClosePath()
			dc.Fill()
		}
	}

	for _, m := range s.Markers {
		x, y := u.ToScreen(m.X, m.Y)
		if m.StrokeWidth > 0 {
			dc.SetColor(m.Stroke)
			dc.DrawCircle(x, y, m.Radius+m.StrokeWidth)
			dc.Fill()
		}
		dc.SetColor(m.Fill)
		dc.DrawCircle(x, y, m.Radius)
		dc.Fill()
	}

	for _, l := range s.Labels {
		x, y := u.ToScreen(l.X, l.Y)
		dc.SetColor(l.Color)
		dc.DrawStringAnchored(l.Text, x+l.DX, y+l.DY, l.AnchorX, 0)
	}
	return nil
}

// Image implements Backend.
func (c *Canvas) Image() *image.RGBA {
	if im, ok := c.dc.Image().(*image.RGBA); ok {
		return im
	}
	src := c.dc.Image()
	out := image.NewRGBA(src.Bounds())
	draw.Draw(out, out.Bounds(), src, src.Bounds().Min, draw.Src)
	return out
}
