package main

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/strata/internal/datasource"
	"github.com/vanderheijden86/strata/pkg/config"
	"github.com/vanderheijden86/strata/pkg/export"
	"github.com/vanderheijden86/strata/pkg/model"
	"github.com/vanderheijden86/strata/pkg/testutil"
)

func TestNormalizeKind(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "graph", false},
		{"graph", "graph", false},
		{" Timeline ", "timeline", false},
		{"map", "", true},
	}
	for _, tt := range tests {
		got, err := normalizeKind(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("normalizeKind(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestBuildQuery_FlagsOverConfig(t *testing.T) {
	sc := config.SourceConfig{Entity: "rome", Depth: 2, Types: []string{"person"}, Limit: 50}

	q := buildQuery(sc, "graph", "", 0, "", 0)
	if q.Entity != "rome" || q.Depth != 2 || q.Limit != 50 || len(q.Types) != 1 {
		t.Errorf("defaults not applied: %+v", q)
	}

	q = buildQuery(sc, "timeline", "athens", 3, "place, event ,", 10)
	if q.Kind != "timeline" || q.Entity != "athens" || q.Depth != 3 || q.Limit != 10 {
		t.Errorf("flags not applied: %+v", q)
	}
	if strings.Join(q.Types, "|") != "place|event" {
		t.Errorf("types = %q", q.Types)
	}
}

func TestParseCenter(t *testing.T) {
	x, _, hasY, err := parseCenter("12.5")
	if err != nil || x != 12.5 || hasY {
		t.Errorf("parseCenter(12.5) = %g %v %v", x, hasY, err)
	}
	x, y, hasY, err := parseCenter("-3, 4")
	if err != nil || x != -3 || y != 4 || !hasY {
		t.Errorf("parseCenter(-3, 4) = %g %g %v %v", x, y, hasY, err)
	}
	for _, bad := range []string{"", "a", "1,b", "1,2,3"} {
		if _, _, _, err := parseCenter(bad); err == nil {
			t.Errorf("parseCenter(%q) accepted", bad)
		}
	}
}

func TestParsePair(t *testing.T) {
	from, to, err := parsePair("A:B")
	if err != nil || from != "A" || to != "B" {
		t.Errorf("parsePair(A:B) = %q %q %v", from, to, err)
	}
	for _, bad := range []string{"AB", ":B", "A:"} {
		if _, _, err := parsePair(bad); err == nil {
			t.Errorf("parsePair(%q) accepted", bad)
		}
	}
}

func chainResult() datasource.Result {
	ds := testutil.Named([]string{"A", "B", "C", "D", "E"},
		[2]string{"A", "B"}, [2]string{"B", "C"}, [2]string{"C", "D"})
	ds.ID = "chain"
	return datasource.Result{Dataset: ds, Source: "test"}
}

func TestRunRobot_PathAndComponents(t *testing.T) {
	var buf bytes.Buffer
	req := robotRequest{Path: "A:D", Components: true, Centrality: true}
	if err := runRobot(context.Background(), &buf, req, chainResult()); err != nil {
		t.Fatalf("runRobot: %v", err)
	}

	var out robotOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if out.Path == nil || !out.Path.Found || out.Path.Hops != 3 {
		t.Fatalf("path = %+v", out.Path)
	}
	testutil.AssertPath(t, out.Path.Path, out.Path.Found, "A", "B", "C", "D")
	if len(out.Components) != 2 || len(out.Components[0]) != 4 {
		t.Errorf("components = %v", out.Components)
	}
	if len(out.Centrality) != 5 || out.Centrality[0].Score != 1 {
		t.Errorf("centrality = %v", out.Centrality)
	}
	if out.Communities != nil || out.Metrics != nil {
		t.Error("unrequested sections present")
	}
}

func TestRunRobot_Disconnected(t *testing.T) {
	var buf bytes.Buffer
	if err := runRobot(context.Background(), &buf, robotRequest{Path: "A:E"}, chainResult()); err != nil {
		t.Fatalf("runRobot: %v", err)
	}
	var out robotOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Path.Found || out.Path.Hops != -1 {
		t.Errorf("path = %+v, want not found", out.Path)
	}
}

func TestRunRobot_Metrics(t *testing.T) {
	var buf bytes.Buffer
	if err := runRobot(context.Background(), &buf, robotRequest{Metrics: true}, chainResult()); err != nil {
		t.Fatalf("runRobot: %v", err)
	}
	var out robotOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Summary == nil || out.Summary.Nodes != 5 || out.Summary.Components != 2 {
		t.Errorf("summary = %+v", out.Summary)
	}
}

func smallConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.Render.Width, cfg.Render.Height = 200, 120
	cfg.Render.Backend = "canvas"
	return cfg
}

func checkPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if b := img.Bounds(); b.Dx() != w || b.Dy() != h {
		t.Errorf("export is %dx%d, want %dx%d", b.Dx(), b.Dy(), w, h)
	}
}

func TestRunExport_Graph(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.png")
	got, _, err := runExport(context.Background(), smallConfig(), "graph", chainResult(), export.Options{Path: path}, headless{Ticks: 50, NoHooks: true})
	if err != nil {
		t.Fatalf("runExport: %v", err)
	}
	checkPNG(t, got, 200, 120)
}

func TestRunExport_TimelineSVG(t *testing.T) {
	res := datasource.Result{Dataset: model.Dataset{ID: "tl", Events: testutil.DeepTime()}}
	path := filepath.Join(t.TempDir(), "timeline.svg")
	got, _, err := runExport(context.Background(), smallConfig(), "timeline", res, export.Options{Path: path}, headless{Center: "0", NoHooks: true})
	if err != nil {
		t.Fatalf("runExport: %v", err)
	}
	data, err := os.ReadFile(got)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte("<svg")) {
		t.Error("export is not an SVG document")
	}
}

func TestBuildStill_ZoomAndCenterFlags(t *testing.T) {
	s, err := buildStill(context.Background(), smallConfig(), "graph", chainResult(), headless{Ticks: 10, Zoom: 2, Center: "5,-5"})
	if err != nil {
		t.Fatalf("buildStill: %v", err)
	}
	if s.View.Zoom != 2 || s.View.CenterX != 5 || s.View.CenterY != -5 {
		t.Errorf("view = zoom %g centre (%g, %g)", s.View.Zoom, s.View.CenterX, s.View.CenterY)
	}
	if len(s.Snapshot.Nodes) != 5 {
		t.Errorf("snapshot has %d nodes, want 5", len(s.Snapshot.Nodes))
	}

	if _, err := buildStill(context.Background(), smallConfig(), "timeline", chainResult(), headless{Center: "x"}); err == nil {
		t.Error("bad --center accepted")
	}
}
