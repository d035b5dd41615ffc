package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Render.Backend != "auto" {
		t.Errorf("expected backend 'auto', got %q", cfg.Render.Backend)
	}
	if cfg.Render.FPS != 30 {
		t.Errorf("expected 30 fps, got %d", cfg.Render.FPS)
	}
	if cfg.Simulation.AlphaMin != 0.001 {
		t.Errorf("expected alpha_min 0.001, got %v", cfg.Simulation.AlphaMin)
	}
	if cfg.Interaction.Gestures.Friction != 0.95 {
		t.Errorf("expected friction 0.95, got %v", cfg.Interaction.Gestures.Friction)
	}
	if cfg.Store.Debounce != 500*time.Millisecond {
		t.Errorf("expected 500ms debounce, got %v", cfg.Store.Debounce)
	}
}

func TestLoadFrom_NonExistent(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.Render.Theme != "light" {
		t.Errorf("expected default config, got theme %q", cfg.Render.Theme)
	}
}

func TestLoadFrom_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
simulation:
  link_distance: 60
  charge_strength: -120
  tick_interval: 33ms

render:
  backend: canvas
  theme: dark
  fps: 60

interaction:
  graph_max_zoom: 8
  friction: 0.9
  double_press: 250ms

source:
  kind: timeline
  http_timeout: 5s
  named:
    - name: museum
      location: https://cms.example.org/api
      kind: graph
    - name: local
      location: ~/data/events.yaml

store:
  debounce: 1s
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.Simulation.LinkDistance != 60 || cfg.Simulation.ChargeStrength != -120 {
		t.Errorf("simulation = %+v", cfg.Simulation)
	}
	if cfg.Simulation.TickInterval != 33*time.Millisecond {
		t.Errorf("tick interval = %v", cfg.Simulation.TickInterval)
	}
	// Unset fields keep defaults.
	if cfg.Simulation.AlphaDecay != DefaultConfig().Simulation.AlphaDecay {
		t.Errorf("alpha decay = %v", cfg.Simulation.AlphaDecay)
	}
	if cfg.Render.Backend != "canvas" || cfg.Render.Theme != "dark" || cfg.Render.FPS != 60 {
		t.Errorf("render = %+v", cfg.Render)
	}
	if cfg.Interaction.GraphMaxZoom != 8 || cfg.Interaction.Gestures.Friction != 0.9 {
		t.Errorf("interaction = %+v", cfg.Interaction)
	}
	if cfg.Interaction.Gestures.DoublePress != 250*time.Millisecond {
		t.Errorf("double press = %v", cfg.Interaction.Gestures.DoublePress)
	}
	if cfg.Source.HTTPTimeout != 5*time.Second || cfg.Source.Kind != "timeline" {
		t.Errorf("source = %+v", cfg.Source)
	}
	if len(cfg.Source.Named) != 2 {
		t.Fatalf("expected 2 named sources, got %d", len(cfg.Source.Named))
	}
	home, _ := os.UserHomeDir()
	if got, want := cfg.Source.Named[1].Location, filepath.Join(home, "data/events.yaml"); got != want {
		t.Errorf("expected expanded path %q, got %q", want, got)
	}
	if cfg.Store.Debounce != time.Second {
		t.Errorf("debounce = %v", cfg.Store.Debounce)
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte("render: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFrom(path)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadFrom_ClampsSimulation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("simulation:\n  velocity_decay: 5\nrender:\n  fps: -1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Simulation.VelocityDecay > 1 {
		t.Errorf("velocity decay not clamped: %v", cfg.Simulation.VelocityDecay)
	}
	if cfg.Render.FPS != 30 {
		t.Errorf("fps = %d, want default", cfg.Render.FPS)
	}
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.Render.Theme = "dark"
	cfg.Source.Named = []Source{{Name: "a", Location: "/tmp/a.json"}}
	cfg.Interaction.Gestures.DoublePress = 400 * time.Millisecond

	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if loaded.Render.Theme != "dark" {
		t.Errorf("theme = %q", loaded.Render.Theme)
	}
	if loaded.Interaction.Gestures.DoublePress != 400*time.Millisecond {
		t.Errorf("double press = %v", loaded.Interaction.Gestures.DoublePress)
	}
	if loaded.FindSource("A") == nil {
		t.Error("named source lost")
	}
}

func TestResolveSource(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Source.Default = "museum"
	cfg.Source.Named = []Source{
		{Name: "museum", Location: "https://cms.example.org", Kind: "timeline"},
		{Name: "plain", Location: "/data/g.json"},
	}

	tests := []struct {
		arg      string
		wantLoc  string
		wantKind string
	}{
		{"", "https://cms.example.org", "timeline"},
		{"MUSEUM", "https://cms.example.org", "timeline"},
		{"plain", "/data/g.json", "graph"},
		{"/other/file.yaml", "/other/file.yaml", "graph"},
	}
	for _, tt := range tests {
		loc, kind := cfg.ResolveSource(tt.arg)
		if loc != tt.wantLoc || kind != tt.wantKind {
			t.Errorf("ResolveSource(%q) = (%q,%q), want (%q,%q)", tt.arg, loc, kind, tt.wantLoc, tt.wantKind)
		}
	}
}

func TestViews_UseConfiguredBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Interaction.GraphMinZoom = 0.5
	cfg.Interaction.GraphMaxZoom = 4
	v := cfg.GraphView(100, 100)
	if v.MinZoom != 0.5 || v.MaxZoom != 4 {
		t.Errorf("graph bounds = [%v,%v]", v.MinZoom, v.MaxZoom)
	}
	v.SetZoom(100)
	if v.Zoom != 4 {
		t.Errorf("zoom = %v, want clamp to 4", v.Zoom)
	}
	tv := cfg.TimelineView(100, 100)
	if tv.MinZoom != DefaultConfig().Interaction.TimelineMinZoom {
		t.Errorf("timeline min = %v", tv.MinZoom)
	}
}

func TestStorePath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", dir)
	cfg := DefaultConfig()
	if got, want := cfg.StorePath(), filepath.Join(dir, "strata", "views.db"); got != want {
		t.Errorf("StorePath = %q, want %q", got, want)
	}
	cfg.Store.Path = "/explicit.db"
	if cfg.StorePath() != "/explicit.db" {
		t.Errorf("explicit path ignored: %q", cfg.StorePath())
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		input    string
		expected string
	}{
		{"~/foo", filepath.Join(home, "foo")},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
		{"", ""},
	}

	for _, tt := range tests {
		got := expandHome(tt.input)
		if got != tt.expected {
			t.Errorf("expandHome(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestConfigDir_XDGOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	got := ConfigDir()
	expected := filepath.Join(dir, "strata")
	if got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

func TestDataDir_XDGOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)

	got := DataDir()
	expected := filepath.Join(dir, "strata")
	if got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
	if ExportDir() != filepath.Join(expected, "exports") {
		t.Errorf("ExportDir = %q", ExportDir())
	}
}

func TestStateDir_XDGOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", dir)

	got := StateDir()
	expected := filepath.Join(dir, "strata")
	if got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}
