package render

import (
	"errors"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/vanderheijden86/strata/pkg/debug"
	"github.com/vanderheijden86/strata/pkg/metrics"
)

// Backend draws a Scene into its frame buffer. DrawFrame clears the buffer
// to the scene background and draws bands, grid, lines, markers, then
// labels, redrawing everything on every call.
type Backend interface {
	Name() string
	Resize(w, h int) error
	DrawFrame(s *Scene) error
	Image() *image.RGBA
}

// Backend names accepted by Options.Backend.
const (
	BackendAuto     = "auto"
	BackendPipeline = "pipeline"
	BackendCanvas   = "canvas"
)

// EnvDisableGPU forces the canvas backend when set to a true value.
const EnvDisableGPU = "STRATA_DISABLE_GPU"

var (
	// ErrNoAdapter means no pipeline adapter could be acquired.
	ErrNoAdapter = errors.New("no pipeline adapter available")
	// ErrUnsupported means the adapter lacks a capability the frame needs.
	ErrUnsupported = errors.New("pipeline feature unsupported")
)

// BackendError records why the pipeline backend was not used.
type BackendError struct {
	Adapter string
	Cause   error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("render backend %q: %v", e.Adapter, e.Cause)
}

func (e *BackendError) Unwrap() error {
	return e.Cause
}

// Options selects the backend.
type Options struct {
	// Backend is auto, pipeline or canvas. Auto and pipeline both probe the
	// pipeline and fall back to the canvas on failure.
	Backend string
	// Adapter names a registered pipeline adapter. Empty uses the default.
	Adapter string
}

// Renderer owns the backend chosen at construction. After a fallback it
// never probes the pipeline again.
type Renderer struct {
	backend  Backend
	fallback *BackendError
}

// NewRenderer probes the pipeline once and falls back to the canvas if it
// cannot be used. The reason for a fallback is logged and kept, never
// returned.
func NewRenderer(opts Options, w, h int) *Renderer {
	w, h = max(w, 1), max(h, 1)
	r := &Renderer{}

	if strings.EqualFold(opts.Backend, BackendCanvas) {
		r.backend = NewCanvas(w, h)
		return r
	}

	adapter := opts.Adapter
	if adapter == "" {
		adapter = DefaultAdapter
	}
	if gpuDisabled() {
		r.fallBack(w, h, &BackendError{Adapter: adapter, Cause: fmt.Errorf("%w: disabled by %s", ErrNoAdapter, EnvDisableGPU)})
		return r
	}

	p, err := NewPipeline(adapter, w, h)
	if err != nil {
		var be *BackendError
		if !errors.As(err, &be) {
			be = &BackendError{Adapter: adapter, Cause: err}
		}
		r.fallBack(w, h, be)
		return r
	}
	r.backend = p
	debug.Log("render: using pipeline adapter %q", adapter)
	return r
}

func (r *Renderer) fallBack(w, h int, err *BackendError) {
	r.fallback = err
	r.backend = NewCanvas(w, h)
	debug.Log("render: falling back to canvas: %v", err)
}

func gpuDisabled() bool {
	switch strings.ToLower(os.Getenv(EnvDisableGPU)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// Name is the active backend name.
func (r *Renderer) Name() string {
	return r.backend.Name()
}

// Backend returns the active backend.
func (r *Renderer) Backend() Backend {
	return r.backend
}

// Fallback returns why the pipeline was abandoned, or nil.
func (r *Renderer) Fallback() error {
	if r.fallback == nil {
		return nil
	}
	return r.fallback
}

// Resize resizes the frame buffer. A pipeline that cannot serve the new
// size is replaced by the canvas for the rest of the renderer's life.
func (r *Renderer) Resize(w, h int) {
	w, h = max(w, 1), max(h, 1)
	if err := r.backend.Resize(w, h); err != nil {
		be := &BackendError{Adapter: r.backend.Name(), Cause: err}
		if p, ok := r.backend.(*Pipeline); ok {
			be.Adapter = p.Adapter()
		}
		r.fallBack(w, h, be)
	}
}

// Draw renders s with the active backend.
func (r *Renderer) Draw(s *Scene) error {
	defer metrics.Timer(metrics.FrameDraw)()
	if s == nil {
		return errors.New("render: nil scene")
	}
	return r.backend.DrawFrame(s)
}

// Image is the most recent frame.
func (r *Renderer) Image() *image.RGBA {
	return r.backend.Image()
}
