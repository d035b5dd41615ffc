package ui

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/strata/pkg/render"
)

// upperHalf draws the top pixel of a cell in the foreground colour and the
// bottom pixel in the background colour.
const upperHalf = '▀'

// Terminal cells stand in for the 7x13 glyph cell that scene labels are
// laid out for.
const (
	fontW = 7.0
	fontH = 13.0
)

// asciiRamp shades cells by luminance when the terminal has no colour.
const asciiRamp = " .:-=+*#%@"

type cell struct {
	ch     rune
	fg, bg color.RGBA
	text   bool
	skip   bool
}

// Frame is a rendered image folded into terminal cells, two pixels per
// cell, with label text overlaid.
type Frame struct {
	Cols, Rows int
	cells      []cell
}

// Blit folds img into cols x rows cells. Pixel row 2r is the top half of
// cell row r and 2r+1 the bottom half. Pixels outside img read as the
// nearest edge pixel.
func Blit(img *image.RGBA, cols, rows int) *Frame {
	f := &Frame{Cols: max(cols, 0), Rows: max(rows, 0)}
	f.cells = make([]cell, f.Cols*f.Rows)
	if img == nil || img.Rect.Empty() {
		return f
	}
	b := img.Rect
	at := func(x, y int) color.RGBA {
		x = min(max(x, b.Min.X), b.Max.X-1)
		y = min(max(y, b.Min.Y), b.Max.Y-1)
		return img.RGBAAt(x, y)
	}
	for r := 0; r < f.Rows; r++ {
		for c := 0; c < f.Cols; c++ {
			f.cells[r*f.Cols+c] = cell{
				ch: upperHalf,
				fg: at(b.Min.X+c, b.Min.Y+2*r),
				bg: at(b.Min.X+c, b.Min.Y+2*r+1),
			}
		}
	}
	return f
}

// Cell returns the glyph and colours at (col, row).
func (f *Frame) Cell(col, row int) (ch rune, fg, bg color.RGBA) {
	if col < 0 || row < 0 || col >= f.Cols || row >= f.Rows {
		return 0, color.RGBA{}, color.RGBA{}
	}
	c := f.cells[row*f.Cols+col]
	return c.ch, c.fg, c.bg
}

// Overlay writes labels as terminal text over the pixels. Offsets given
// in glyph pixels become whole cells; text running off the frame is
// clipped.
func (f *Frame) Overlay(labels []render.Label, u render.Uniforms) {
	for _, l := range labels {
		if l.Text == "" {
			continue
		}
		sx, sy := u.ToScreen(l.X, l.Y)
		if math.IsNaN(sx) || math.IsNaN(sy) {
			continue
		}
		width := float64(runewidth.StringWidth(l.Text))
		col := int(math.Round(sx + l.DX/fontW - l.AnchorX*width))
		row := int(math.Floor(sy/2)) + int(math.Round(l.DY/fontH))
		f.text(col, row, l.Text, l.Color)
	}
}

// text writes s at (col, row) in colour fg.
func (f *Frame) text(col, row int, s string, fg color.RGBA) {
	if row < 0 || row >= f.Rows {
		return
	}
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if col >= f.Cols {
			return
		}
		if col >= 0 && col+w <= f.Cols {
			i := row*f.Cols + col
			bg := mix(f.cells[i].fg, f.cells[i].bg)
			f.cells[i] = cell{ch: r, fg: fg, bg: bg, text: true}
			if w == 2 {
				f.cells[i+1] = cell{fg: fg, bg: bg, text: true, skip: true}
			}
		}
		col += w
	}
}

func mix(a, b color.RGBA) color.RGBA {
	return color.RGBA{
		R: uint8((uint16(a.R) + uint16(b.R)) / 2),
		G: uint8((uint16(a.G) + uint16(b.G)) / 2),
		B: uint8((uint16(a.B) + uint16(b.B)) / 2),
		A: 0xff,
	}
}

// Render returns the frame as terminal rows joined by newlines. Runs of
// cells with equal colours share one style. Without colour support pixels
// are shaded with ASCII characters and only label text keeps its glyphs.
func (f *Frame) Render(r *lipgloss.Renderer, profile colorprofile.Profile) string {
	var sb strings.Builder
	for row := 0; row < f.Rows; row++ {
		if row > 0 {
			sb.WriteByte('\n')
		}
		line := f.cells[row*f.Cols : (row+1)*f.Cols]
		if profile <= colorprofile.Ascii {
			writeASCII(&sb, line)
			continue
		}
		writeRuns(&sb, r, line)
	}
	return sb.String()
}

func writeASCII(sb *strings.Builder, line []cell) {
	for _, c := range line {
		switch {
		case c.skip:
		case c.text:
			sb.WriteRune(c.ch)
		default:
			l := (luminance(c.fg) + luminance(c.bg)) / 2
			i := int(math.Round(l * float64(len(asciiRamp)-1)))
			// Dark shades get dense glyphs, so light backgrounds stay blank.
			sb.WriteByte(asciiRamp[len(asciiRamp)-1-i])
		}
	}
}

func writeRuns(sb *strings.Builder, r *lipgloss.Renderer, line []cell) {
	start := 0
	for i := 1; i <= len(line); i++ {
		if i < len(line) && line[i].fg == line[start].fg && line[i].bg == line[start].bg {
			continue
		}
		var run strings.Builder
		for _, c := range line[start:i] {
			if !c.skip {
				run.WriteRune(c.ch)
			}
		}
		style := r.NewStyle().
			Foreground(lipgloss.Color(hexColor(line[start].fg))).
			Background(lipgloss.Color(hexColor(line[start].bg)))
		sb.WriteString(style.Render(run.String()))
		start = i
	}
}

func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// luminance is the relative brightness of c in [0, 1].
func luminance(c color.RGBA) float64 {
	return (0.2126*float64(c.R) + 0.7152*float64(c.G) + 0.0722*float64(c.B)) / 255
}
