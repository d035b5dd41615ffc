// Package config handles loading and saving strata configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/strata/config.yaml
//   - Data:    ~/.local/share/strata/ (exports)
//   - State:   ~/.local/state/strata/ (persisted layouts and view state)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/strata/pkg/interact"
	"github.com/vanderheijden86/strata/pkg/layout"
	"github.com/vanderheijden86/strata/pkg/view"
)

const appName = "strata"

// Source is a named dataset location that --source can refer to.
type Source struct {
	Name     string `yaml:"name"`
	Location string `yaml:"location"`
	Kind     string `yaml:"kind,omitempty"` // graph or timeline
}

// SourceConfig holds dataset fetch defaults.
type SourceConfig struct {
	Default     string        `yaml:"default,omitempty"`
	Kind        string        `yaml:"kind,omitempty"`
	Entity      string        `yaml:"entity,omitempty"`
	Depth       int           `yaml:"depth,omitempty"`
	Types       []string      `yaml:"types,omitempty"`
	Limit       int           `yaml:"limit,omitempty"`
	HTTPTimeout time.Duration `yaml:"http_timeout,omitempty"`
	Watch       bool          `yaml:"watch"`
	Named       []Source      `yaml:"named,omitempty"`
}

// RenderConfig holds renderer settings.
type RenderConfig struct {
	Backend    string  `yaml:"backend,omitempty"` // auto, pipeline, canvas
	Adapter    string  `yaml:"adapter,omitempty"`
	FPS        int     `yaml:"fps,omitempty"`
	Theme      string  `yaml:"theme,omitempty"` // light, dark
	Width      int     `yaml:"width,omitempty"`
	Height     int     `yaml:"height,omitempty"`
	Labels     bool    `yaml:"labels"`
	NodeBase   float64 `yaml:"node_base,omitempty"`
	EdgeBase   float64 `yaml:"edge_base,omitempty"`
	LaneHeight float64 `yaml:"lane_height,omitempty"`
}

// InteractionConfig holds zoom bounds and gesture tuning.
type InteractionConfig struct {
	TimelineMinZoom float64         `yaml:"timeline_min_zoom,omitempty"`
	TimelineMaxZoom float64         `yaml:"timeline_max_zoom,omitempty"`
	GraphMinZoom    float64         `yaml:"graph_min_zoom,omitempty"`
	GraphMaxZoom    float64         `yaml:"graph_max_zoom,omitempty"`
	Gestures        interact.Config `yaml:",inline"`
}

// StoreConfig controls view-state persistence.
type StoreConfig struct {
	Path     string        `yaml:"path,omitempty"`
	Debounce time.Duration `yaml:"debounce,omitempty"`
	Disabled bool          `yaml:"disabled,omitempty"`
}

// Config is the top-level configuration for strata.
type Config struct {
	Simulation  layout.Config     `yaml:"simulation"`
	Render      RenderConfig      `yaml:"render"`
	Interaction InteractionConfig `yaml:"interaction"`
	Source      SourceConfig      `yaml:"source"`
	Store       StoreConfig       `yaml:"store"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Simulation: layout.DefaultConfig(),
		Render: RenderConfig{
			Backend:    "auto",
			FPS:        30,
			Theme:      "light",
			Width:      1200,
			Height:     800,
			Labels:     true,
			NodeBase:   4,
			EdgeBase:   1,
			LaneHeight: 28,
		},
		Interaction: InteractionConfig{
			TimelineMinZoom: view.DefaultTimelineMinZoom,
			TimelineMaxZoom: view.DefaultTimelineMaxZoom,
			GraphMinZoom:    view.DefaultGraphMinZoom,
			GraphMaxZoom:    view.DefaultGraphMaxZoom,
			Gestures:        interact.DefaultConfig(),
		},
		Source: SourceConfig{
			Kind:        "graph",
			Depth:       2,
			Limit:       500,
			HTTPTimeout: 15 * time.Second,
			Watch:       true,
		},
		Store: StoreConfig{
			Debounce: 500 * time.Millisecond,
		},
	}
}

// ConfigDir returns the XDG config directory for strata.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

// DataDir returns the XDG data directory for strata.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", appName)
}

// StateDir returns the XDG state directory for strata.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", appName)
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// StorePath returns the view-state database path.
func (c Config) StorePath() string {
	if c.Store.Path != "" {
		return expandHome(c.Store.Path)
	}
	dir := StateDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "views.db")
}

// ExportDir returns where exports go when no directory is given.
func ExportDir() string {
	dir := DataDir()
	if dir == "" {
		return "."
	}
	return filepath.Join(dir, "exports")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Simulation = cfg.Simulation.Validate()
	if cfg.Render.FPS <= 0 {
		cfg.Render.FPS = DefaultConfig().Render.FPS
	}
	for i := range cfg.Source.Named {
		cfg.Source.Named[i].Location = expandHome(cfg.Source.Named[i].Location)
	}
	cfg.Source.Default = expandHome(cfg.Source.Default)

	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// FindSource returns the named source, or nil.
func (c Config) FindSource(name string) *Source {
	for i := range c.Source.Named {
		if strings.EqualFold(c.Source.Named[i].Name, name) {
			return &c.Source.Named[i]
		}
	}
	return nil
}

// ResolveSource maps a --source argument to a location and kind. Named
// sources win over paths; an empty argument uses the configured default.
func (c Config) ResolveSource(arg string) (location, kind string) {
	kind = c.Source.Kind
	if arg == "" {
		arg = c.Source.Default
	}
	if s := c.FindSource(arg); s != nil {
		if s.Kind != "" {
			kind = s.Kind
		}
		return s.Location, kind
	}
	return expandHome(arg), kind
}

// TimelineView returns an empty timeline view with the configured bounds.
func (c Config) TimelineView(w, h float64) view.State {
	v := view.NewTimeline(w, h)
	if c.Interaction.TimelineMinZoom > 0 {
		v.MinZoom = c.Interaction.TimelineMinZoom
	}
	if c.Interaction.TimelineMaxZoom > v.MinZoom {
		v.MaxZoom = c.Interaction.TimelineMaxZoom
	}
	return v
}

// GraphView returns an empty graph view with the configured bounds.
func (c Config) GraphView(w, h float64) view.State {
	v := view.NewGraph(w, h)
	if c.Interaction.GraphMinZoom > 0 {
		v.MinZoom = c.Interaction.GraphMinZoom
	}
	if c.Interaction.GraphMaxZoom > v.MinZoom {
		v.MaxZoom = c.Interaction.GraphMaxZoom
	}
	v.SetZoom(v.Zoom)
	return v
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
