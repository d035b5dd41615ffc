// Package hooks runs user commands around exports. Hooks are configured in
// .strata/hooks.yaml of the working directory, or in hooks.yaml of the
// strata config directory, and run before (pre-export) and after
// (post-export) a frame is written.
package hooks

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/strata/pkg/config"
)

// Phase says when a hook runs.
type Phase string

const (
	// PreExport runs before the frame is written. Failure cancels the export.
	PreExport Phase = "pre-export"
	// PostExport runs after the file exists. Failure is reported only.
	PostExport Phase = "post-export"
)

// Failure policies.
const (
	OnErrorFail     = "fail"
	OnErrorContinue = "continue"
)

// DefaultTimeout bounds a hook without its own timeout.
const DefaultTimeout = 30 * time.Second

// Hook is one configured command.
type Hook struct {
	Name    string            `yaml:"name"`
	Command string            `yaml:"command"`
	Timeout time.Duration     `yaml:"timeout,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`
	OnError string            `yaml:"on_error,omitempty"`
}

// UnmarshalYAML accepts timeouts as durations ("5s") or bare seconds.
func (h *Hook) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Name    string            `yaml:"name"`
		Command string            `yaml:"command"`
		Timeout string            `yaml:"timeout"`
		Env     map[string]string `yaml:"env"`
		OnError string            `yaml:"on_error"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*h = Hook{Name: raw.Name, Command: raw.Command, Env: raw.Env, OnError: raw.OnError}

	if raw.Timeout == "" {
		return nil
	}
	if d, err := time.ParseDuration(raw.Timeout); err == nil {
		h.Timeout = d
		return nil
	}
	secs, err := strconv.ParseFloat(raw.Timeout, 64)
	if err != nil {
		return fmt.Errorf("invalid timeout %q", raw.Timeout)
	}
	h.Timeout = time.Duration(secs * float64(time.Second))
	return nil
}

// Config holds the hooks of both phases.
type Config struct {
	PreExport  []Hook `yaml:"pre-export,omitempty"`
	PostExport []Hook `yaml:"post-export,omitempty"`
}

// Empty reports whether no hook is configured.
func (c *Config) Empty() bool {
	return c == nil || len(c.PreExport)+len(c.PostExport) == 0
}

// Phase returns the hooks of p.
func (c *Config) Phase(p Phase) []Hook {
	if c == nil {
		return nil
	}
	switch p {
	case PreExport:
		return c.PreExport
	case PostExport:
		return c.PostExport
	}
	return nil
}

// ExportContext describes the export to hooks through the environment.
type ExportContext struct {
	Path       string
	Format     string
	Kind       string
	NodeCount  int
	EventCount int
	Timestamp  time.Time
}

// Env returns the STRATA_* variables for the export.
func (c ExportContext) Env() []string {
	return []string{
		"STRATA_EXPORT_PATH=" + c.Path,
		"STRATA_EXPORT_FORMAT=" + c.Format,
		"STRATA_VIEW_KIND=" + c.Kind,
		"STRATA_NODE_COUNT=" + strconv.Itoa(c.NodeCount),
		"STRATA_EVENT_COUNT=" + strconv.Itoa(c.EventCount),
		"STRATA_TIMESTAMP=" + c.Timestamp.Format(time.RFC3339),
	}
}

// Paths returns the hook files consulted for projectDir, most specific
// first.
func Paths(projectDir string) []string {
	var out []string
	if projectDir != "" {
		out = append(out, filepath.Join(projectDir, ".strata", "hooks.yaml"))
	}
	if dir := config.ConfigDir(); dir != "" {
		out = append(out, filepath.Join(dir, "hooks.yaml"))
	}
	return out
}

// Load reads the first hook file that exists. No file means no hooks. The
// returned warnings name hooks that were skipped.
func Load(projectDir string) (*Config, []string, error) {
	for _, path := range Paths(projectDir) {
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("reading hooks: %w", err)
		}
		return Parse(data, path)
	}
	return &Config{}, nil, nil
}

// Parse decodes a hook file and applies defaults.
func Parse(data []byte, name string) (*Config, []string, error) {
	var doc struct {
		Hooks Config `yaml:"hooks"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	var warnings []string
	cfg := &Config{}
	cfg.PreExport, warnings = normalize(doc.Hooks.PreExport, PreExport, warnings)
	cfg.PostExport, warnings = normalize(doc.Hooks.PostExport, PostExport, warnings)
	return cfg, warnings, nil
}

// normalize drops hooks without a command and fills defaults: pre-export
// hooks fail the export, post-export hooks continue.
func normalize(in []Hook, phase Phase, warnings []string) ([]Hook, []string) {
	var out []Hook
	for i, h := range in {
		if strings.TrimSpace(h.Command) == "" {
			warnings = append(warnings, fmt.Sprintf("%s hook %d has no command; skipped", phase, i+1))
			continue
		}
		if h.Timeout <= 0 {
			h.Timeout = DefaultTimeout
		}
		if h.OnError == "" {
			h.OnError = OnErrorContinue
			if phase == PreExport {
				h.OnError = OnErrorFail
			}
		}
		if h.Name == "" {
			h.Name = fmt.Sprintf("%s-%d", phase, i+1)
		}
		out = append(out, h)
	}
	return out, warnings
}
