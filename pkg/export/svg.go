package export

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"

	"github.com/ajstarks/svgo"

	"github.com/vanderheijden86/strata/pkg/render"
)

// SaveSVG writes the vector description of s to path.
func SaveSVG(s *render.Scene, path, title string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteSVG(file, s, title); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// WriteSVG describes s as SVG, layer for layer in the order the backends
// draw it. Coordinates are the scene's screen transform rounded to pixels.
func WriteSVG(w io.Writer, s *render.Scene, title string) error {
	u := s.Transform
	width, height := int(u.Width), int(u.Height)
	if width <= 0 || height <= 0 {
		return fmt.Errorf("scene has no viewport")
	}

	canvas := svg.New(w)
	canvas.Start(width, height)
	if title != "" {
		canvas.Title(title)
	}
	canvas.Rect(0, 0, width, height, fmt.Sprintf("fill:%s", css(s.Background)))

	canvas.Gid("bands")
	for _, b := range s.Bands {
		x0, _ := u.ToScreen(b.X0, 0)
		x1, _ := u.ToScreen(b.X1, 0)
		x0, x1 = math.Max(x0, 0), math.Min(x1, u.Width)
		if x1 <= x0 {
			continue
		}
		canvas.Rect(px(x0), 0, px(x1)-px(x0), height, fmt.Sprintf("fill:%s", css(b.Color)))
	}
	for _, g := range s.Grid {
		x, _ := u.ToScreen(g.X, 0)
		canvas.Line(px(x), 0, px(x), height, fmt.Sprintf("stroke:%s;stroke-width:1", css(g.Color)))
	}
	canvas.Gend()

	canvas.Gid("lines")
	for _, l := range s.Lines {
		x1, y1, x2, y2 := render.ScreenSegment(l, u)
		canvas.Line(px(x1), px(y1), px(x2), px(y2),
			fmt.Sprintf("stroke:%s;stroke-width:%.1f", css(l.Color), l.Width))
		if pts, ok := render.ArrowHead(l, u); ok {
			canvas.Polygon(
				[]int{px(pts[0][0]), px(pts[1][0]), px(pts[2][0])},
				[]int{px(pts[0][1]), px(pts[1][1]), px(pts[2][1])},
				fmt.Sprintf("fill:%s", css(l.Color)),
			)
		}
	}
	canvas.Gend()

	canvas.Gid("markers")
	for _, m := range s.Markers {
		x, y := u.ToScreen(m.X, m.Y)
		style := fmt.Sprintf("fill:%s", css(m.Fill))
		if m.StrokeWidth > 0 {
			style += fmt.Sprintf(";stroke:%s;stroke-width:%.1f", css(m.Stroke), m.StrokeWidth)
		}
		canvas.Circle(px(x), px(y), px(m.Radius+m.StrokeWidth/2), style)
	}
	canvas.Gend()

	canvas.Gid("labels")
	for _, l := range s.Labels {
		x, y := u.ToScreen(l.X, l.Y)
		anchor := "start"
		switch {
		case l.AnchorX >= 0.75:
			anchor = "end"
		case l.AnchorX >= 0.25:
			anchor = "middle"
		}
		canvas.Text(px(x+l.DX), px(y+l.DY), l.Text,
			fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace;text-anchor:%s", css(l.Color), anchor))
	}
	canvas.Gend()

	canvas.End()
	return nil
}

func px(v float64) int {
	return int(math.Round(v))
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
