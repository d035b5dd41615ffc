package hooks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/vanderheijden86/strata/pkg/debug"
)

// maxSummaryOutput caps the stderr quoted per hook in Summary.
const maxSummaryOutput = 200

// Result records one hook run.
type Result struct {
	Hook     Hook
	Phase    Phase
	Success  bool
	Stdout   string
	Stderr   string
	Err      error
	Duration time.Duration
}

// Executor runs the hooks of one export.
type Executor struct {
	config  *Config
	export  ExportContext
	results []Result
}

// NewExecutor returns an executor for cfg and the export described by ec.
func NewExecutor(cfg *Config, ec ExportContext) *Executor {
	if cfg == nil {
		cfg = &Config{}
	}
	return &Executor{config: cfg, export: ec}
}

// Prepare loads the hooks for projectDir. It returns nil when hooks are
// disabled or none are configured.
func Prepare(projectDir string, ec ExportContext, disabled bool) (*Executor, error) {
	if disabled {
		return nil, nil
	}
	cfg, warnings, err := Load(projectDir)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		debug.Log("hooks: %s", w)
	}
	if cfg.Empty() {
		return nil, nil
	}
	return NewExecutor(cfg, ec), nil
}

// RunPreExport runs the pre-export hooks in order, stopping at the first
// failing hook whose policy is fail.
func (e *Executor) RunPreExport() error { return e.run(PreExport) }

// RunPostExport runs the post-export hooks in order.
func (e *Executor) RunPostExport() error { return e.run(PostExport) }

func (e *Executor) run(phase Phase) error {
	for _, h := range e.config.Phase(phase) {
		r := e.runHook(phase, h)
		e.results = append(e.results, r)
		if !r.Success && h.OnError == OnErrorFail {
			return fmt.Errorf("%s hook %q: %w", phase, h.Name, r.Err)
		}
	}
	return nil
}

func (e *Executor) runHook(phase Phase, h Hook) Result {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", h.Command)
	cmd.Env = append(os.Environ(), e.export.Env()...)
	for k, v := range h.Env {
		cmd.Env = append(cmd.Env, k+"="+os.ExpandEnv(v))
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &stdout, &stderr
	// Do not wait for grandchildren holding the pipes after a timeout.
	cmd.WaitDelay = time.Second

	start := time.Now()
	err := cmd.Run()
	r := Result{
		Hook:     h,
		Phase:    phase,
		Stdout:   strings.TrimSpace(stdout.String()),
		Stderr:   strings.TrimSpace(stderr.String()),
		Duration: time.Since(start),
	}
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		r.Err = fmt.Errorf("timed out after %v", timeout)
	case err != nil:
		r.Err = err
	default:
		r.Success = true
	}
	debug.Log("hooks: %s %q success=%v in %v", phase, h.Name, r.Success, r.Duration)
	return r
}

// Results returns the runs so far in order.
func (e *Executor) Results() []Result {
	return append([]Result(nil), e.results...)
}

// Summary is a short report of the runs, quoting the stderr of failures.
func (e *Executor) Summary() string {
	if len(e.results) == 0 {
		return ""
	}
	ok := 0
	for _, r := range e.results {
		if r.Success {
			ok++
		}
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "hooks: %d succeeded, %d failed", ok, len(e.results)-ok)
	for _, r := range e.results {
		if r.Success {
			continue
		}
		fmt.Fprintf(&sb, "\n  %s %s: %v", r.Phase, r.Hook.Name, r.Err)
		if r.Stderr != "" {
			fmt.Fprintf(&sb, "\n    stderr: %s", truncate(r.Stderr, maxSummaryOutput))
		}
	}
	return sb.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
