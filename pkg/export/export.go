// Package export writes the current frame to disk, either as the rendered
// PNG or as an SVG description of the same scene.
package export

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.sr.ht/~sbinet/gg"

	"github.com/vanderheijden86/strata/pkg/debug"
	"github.com/vanderheijden86/strata/pkg/render"
)

// Formats accepted by Options.Format.
const (
	FormatPNG = "png"
	FormatSVG = "svg"
)

// Options controls a frame export.
type Options struct {
	Path   string // Output path; format inferred from extension when Format empty
	Format string // "svg" or "png" (case-insensitive). If empty, inferred from Path.
	Title  string // Optional title written into the SVG document
}

// Resolve fills Format from the path extension, appends the extension to a
// bare path, and validates the result.
func (o Options) Resolve() (Options, error) {
	format := strings.ToLower(strings.TrimPrefix(o.Format, "."))
	if format == "" {
		switch strings.ToLower(filepath.Ext(o.Path)) {
		case ".svg":
			format = FormatSVG
		case ".png":
			format = FormatPNG
		default:
			format = FormatPNG
			if o.Path != "" && filepath.Ext(o.Path) == "" {
				o.Path = o.Path + ".png"
			}
		}
	}
	if format != FormatSVG && format != FormatPNG {
		return o, fmt.Errorf("unsupported format %q (want svg or png)", format)
	}
	if o.Path == "" {
		return o, fmt.Errorf("output path is required")
	}
	o.Format = format
	return o, nil
}

// DefaultFilename names an export of the given view kind taken at t.
func DefaultFilename(kind, format string, t time.Time) string {
	if kind == "" {
		kind = "view"
	}
	if format == "" {
		format = FormatPNG
	}
	return fmt.Sprintf("strata-%s-%s.%s", kind, t.Format("20060102-150405"), format)
}

// Save writes the frame in the resolved format. The PNG path uses img, the
// rendered frame; the SVG path re-describes scene.
func Save(opts Options, scene *render.Scene, img image.Image) (string, error) {
	opts, err := opts.Resolve()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return "", fmt.Errorf("create parent dir: %w", err)
	}

	switch opts.Format {
	case FormatPNG:
		if img == nil {
			return "", fmt.Errorf("no rendered frame to export")
		}
		err = SavePNG(img, opts.Path)
	case FormatSVG:
		if scene == nil {
			return "", fmt.Errorf("no scene to export")
		}
		err = SaveSVG(scene, opts.Path, opts.Title)
	default:
		err = fmt.Errorf("unhandled format %q", opts.Format)
	}
	if err != nil {
		return "", err
	}
	debug.Log("export: wrote %s (%s)", opts.Path, opts.Format)
	return opts.Path, nil
}

// SavePNG encodes img as PNG at path.
func SavePNG(img image.Image, path string) error {
	if err := gg.SavePNG(path, img); err != nil {
		return fmt.Errorf("save png: %w", err)
	}
	return nil
}
