package render

import (
	"errors"
	"image"
	"image/color"
	"math"
)

// referenceMaxDimension mirrors the common texture size limit of real
// adapters so oversized viewports take the same fallback path.
const referenceMaxDimension = 8192

// referenceDevice rasterises triangle lists on the CPU. Coverage uses edge
// functions sampled at pixel centres with an ownership rule for shared
// edges, so the two triangles of a quad never blend a pixel twice.
type referenceDevice struct {
	target *image.RGBA
}

func newReferenceDevice() (Device, error) {
	return &referenceDevice{}, nil
}

func (d *referenceDevice) Limits() Limits {
	return Limits{MaxDimension: referenceMaxDimension}
}

func (d *referenceDevice) Configure(w, h int) error {
	if w <= 0 || h <= 0 {
		return errors.New("reference device: non-positive size")
	}
	if d.target != nil && d.target.Bounds().Dx() == w && d.target.Bounds().Dy() == h {
		return nil
	}
	d.target = image.NewRGBA(image.Rect(0, 0, w, h))
	return nil
}

func (d *referenceDevice) Target() *image.RGBA {
	return d.target
}

func (d *referenceDevice) Draw(clear color.RGBA, u UniformBuffer, vertices []Vertex) error {
	if d.target == nil {
		return errors.New("reference device: not configured")
	}
	pix := d.target.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = clear.R, clear.G, clear.B, clear.A
	}
	for i := 0; i+2 < len(vertices); i += 3 {
		d.triangle(u, vertices[i], vertices[i+1], vertices[i+2])
	}
	return nil
}

type screenVertex struct {
	x, y float64
	v    Vertex
}

func orient(ax, ay, bx, by, px, py float64) float64 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

// owns decides which of two triangles sharing an edge covers pixel centres
// lying exactly on it. The rule is antisymmetric in the edge direction and
// the neighbours traverse a shared edge in opposite directions.
func owns(a, b screenVertex) bool {
	dx, dy := b.x-a.x, b.y-a.y
	return dy < 0 || (dy == 0 && dx > 0)
}

func covers(w float64, a, b screenVertex) bool {
	return w > 0 || (w == 0 && owns(a, b))
}

func (d *referenceDevice) triangle(u UniformBuffer, va, vb, vc Vertex) {
	project := func(v Vertex) screenVertex {
		x, y := u.Project(v.Position)
		return screenVertex{x: x, y: y, v: v}
	}
	a, b, c := project(va), project(vb), project(vc)
	area := orient(a.x, a.y, b.x, b.y, c.x, c.y)
	if area == 0 || math.IsNaN(area) || math.IsInf(area, 0) {
		return
	}
	if area < 0 {
		b, c = c, b
		area = -area
	}

	bounds := d.target.Bounds()
	minX := int(math.Max(0, math.Floor(min(a.x, b.x, c.x))))
	minY := int(math.Max(0, math.Floor(min(a.y, b.y, c.y))))
	maxX := int(math.Min(float64(bounds.Dx()-1), math.Ceil(max(a.x, b.x, c.x))))
	maxY := int(math.Min(float64(bounds.Dy()-1), math.Ceil(max(a.y, b.y, c.y))))

	for y := minY; y <= maxY; y++ {
		py := float64(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float64(x) + 0.5
			w0 := orient(b.x, b.y, c.x, c.y, px, py)
			w1 := orient(c.x, c.y, a.x, a.y, px, py)
			w2 := orient(a.x, a.y, b.x, b.y, px, py)
			if !covers(w0, b, c) || !covers(w1, c, a) || !covers(w2, a, b) {
				continue
			}
			l0, l1, l2 := w0/area, w1/area, w2/area
			uu := l0*float64(a.v.UV[0]) + l1*float64(b.v.UV[0]) + l2*float64(c.v.UV[0])
			vv := l0*float64(a.v.UV[1]) + l1*float64(b.v.UV[1]) + l2*float64(c.v.UV[1])
			if uu*uu+vv*vv > 1 {
				continue
			}
			var col [4]float64
			for k := range col {
				col[k] = l0*float64(a.v.Color[k]) + l1*float64(b.v.Color[k]) + l2*float64(c.v.Color[k])
			}
			blend(d.target, x, y, col)
		}
	}
}

// blend composites a straight-alpha colour over the premultiplied target.
func blend(dst *image.RGBA, x, y int, c [4]float64) {
	a := math.Max(0, math.Min(1, c[3]))
	if a == 0 {
		return
	}
	i := dst.PixOffset(x, y)
	for k := 0; k < 3; k++ {
		src := math.Max(0, math.Min(1, c[k])) * 255 * a
		dst.Pix[i+k] = uint8(math.Round(src + float64(dst.Pix[i+k])*(1-a)))
	}
	dst.Pix[i+3] = uint8(math.Round(255*a + float64(dst.Pix[i+3])*(1-a)))
}
