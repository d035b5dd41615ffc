package ui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/strata/internal/datasource"
	"github.com/vanderheijden86/strata/pkg/config"
	"github.com/vanderheijden86/strata/pkg/layout"
	"github.com/vanderheijden86/strata/pkg/model"
	"github.com/vanderheijden86/strata/pkg/search"
	"github.com/vanderheijden86/strata/pkg/store"
	"github.com/vanderheijden86/strata/pkg/testutil"
	"github.com/vanderheijden86/strata/pkg/watcher"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return nm, cmd
}

func timelineDataset() model.Dataset {
	return model.Dataset{ID: "tl", Events: testutil.New(1).Events(40, 0, 1000, 3)}
}

func newTimeline(t *testing.T, ds model.Dataset) Model {
	t.Helper()
	m := NewModel(Options{
		Kind:   KindTimeline,
		Config: config.DefaultConfig(),
		Result: datasource.Result{Dataset: ds},
	})
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m, _ = send(t, m, frameMsg(time.Now()))
	return m
}

func newGraph(t *testing.T) (Model, *layout.Engine) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Simulation.TickInterval = 0

	ds := testutil.Named([]string{"A", "B", "C", "D"}, [2]string{"A", "B"}, [2]string{"B", "C"}, [2]string{"C", "D"})
	ds.ID = "g"
	e := layout.NewEngine(cfg.Simulation, layout.WithLogLevel(layout.LogLevelNone))
	t.Cleanup(e.Close)
	e.Send(layout.Start{Nodes: ds.Nodes, Edges: ds.Edges}, layout.Tick{N: 20})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		ev, err := e.Next(ctx)
		if err != nil {
			t.Fatalf("waiting for the first tick: %v", err)
		}
		if _, ok := ev.(layout.TickEvent); ok {
			break
		}
	}

	m := NewModel(Options{
		Kind:   KindGraph,
		Config: cfg,
		Result: datasource.Result{Dataset: ds},
		Engine: e,
	})
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m, _ = send(t, m, frameMsg(time.Now()))
	return m, e
}

// frameUntil steps frames until cond holds.
func frameUntil(t *testing.T, m Model, cond func(Model) bool) Model {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond(m) {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met; status %q", m.status)
		}
		time.Sleep(5 * time.Millisecond)
		m, _ = send(t, m, frameMsg(time.Now()))
	}
	return m
}

func TestModel_InitializingUntilSized(t *testing.T) {
	m := NewModel(Options{Kind: KindTimeline, Config: config.DefaultConfig()})
	if got := m.View(); got != "Initializing…" {
		t.Errorf("View before size = %q", got)
	}
	if m.Init() == nil {
		t.Error("Init returned no command")
	}

	m, _ = send(t, m, readyTimeoutMsg{})
	if !m.ready || m.width != 80 || m.height != 24 {
		t.Errorf("after timeout: ready=%v size=%dx%d, want 80x24", m.ready, m.width, m.height)
	}
}

func TestModel_TimelineFitsAndDraws(t *testing.T) {
	ds := timelineDataset()
	m := newTimeline(t, ds)

	lo, hi := m.view.VisibleRange()
	for _, ev := range ds.Events {
		if ev.Timestamp < lo || ev.Timestamp > hi {
			t.Fatalf("event %s at %g outside the fitted range [%g, %g]", ev.ID, ev.Timestamp, lo, hi)
		}
	}
	if len(m.markers) == 0 {
		t.Fatal("no markers on screen after fitting")
	}

	out := m.View()
	if got := strings.Count(out, "\n"); got != 22+1 {
		t.Errorf("view has %d newlines, want frame rows plus chrome", got)
	}
	if !strings.Contains(out, m.renderer.Name()) {
		t.Error("status bar does not name the backend")
	}
}

func TestModel_ZoomKeysAndWheel(t *testing.T) {
	m := newTimeline(t, timelineDataset())

	z := m.view.Zoom
	m, _ = send(t, m, runes("+"))
	if m.view.Zoom <= z {
		t.Errorf("zoom in: %g -> %g", z, m.view.Zoom)
	}

	z = m.view.Zoom
	m, _ = send(t, m, tea.MouseMsg{X: 40, Y: 5, Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown})
	if m.view.Zoom >= z {
		t.Errorf("wheel down: %g -> %g", z, m.view.Zoom)
	}

	z = m.view.Zoom
	m, _ = send(t, m, tea.MouseMsg{X: 40, Y: 23, Action: tea.MouseActionPress, Button: tea.MouseButtonWheelUp})
	if m.view.Zoom != z {
		t.Error("wheel over the status bar changed the zoom")
	}

	m, _ = send(t, m, runes("0"))
	lo, hi := m.view.VisibleRange()
	if lo > 0 || hi < 1000 {
		t.Errorf("fit shows [%g, %g], want the whole dataset", lo, hi)
	}
}

func TestModel_ThemeAndReadingArePersisted(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()
	saver := store.NewSaver(st, 10*time.Millisecond)

	m := NewModel(Options{
		Kind:   KindTimeline,
		Config: config.DefaultConfig(),
		Result: datasource.Result{Dataset: timelineDataset()},
		Saver:  saver,
	})
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 60, Height: 20})

	before := m.palette.Name
	m, _ = send(t, m, runes("t"))
	m, _ = send(t, m, runes("r"))
	m, _ = send(t, m, runes("+"))
	m, _ = send(t, m, frameMsg(time.Now()))
	if m.palette.Name == before {
		t.Fatal("theme did not toggle")
	}
	if !m.reading {
		t.Fatal("reading mode not on")
	}
	if err := saver.Close(); err != nil {
		t.Fatalf("saver Close: %v", err)
	}

	state, err := st.Load(context.Background(), m.viewID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if state.Prefs == nil || state.Prefs.Theme != m.palette.Name || !state.Prefs.Reading {
		t.Errorf("saved prefs = %+v", state.Prefs)
	}
	if state.View == nil {
		t.Error("viewport was not saved")
	}
}

func TestModel_SavedPrefsAndViewAreRestored(t *testing.T) {
	m := NewModel(Options{
		Kind:   KindTimeline,
		Config: config.DefaultConfig(),
		Result: datasource.Result{Dataset: timelineDataset()},
		Saved: store.State{
			View:  &store.ViewRecord{Zoom: 2, CenterX: 123},
			Prefs: &store.Preferences{Theme: "dark", Reading: true},
		},
	})
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 60, Height: 20})

	if m.palette.Name != "dark" || !m.reading {
		t.Errorf("prefs not restored: theme %s reading %v", m.palette.Name, m.reading)
	}
	if m.view.Zoom != 2 || m.view.CenterX != 123 {
		t.Errorf("view = zoom %g centre %g, want the saved one", m.view.Zoom, m.view.CenterX)
	}
}

func TestModel_QuitAndHelp(t *testing.T) {
	m := newTimeline(t, timelineDataset())

	m, _ = send(t, m, runes("?"))
	if !m.showHelp || !strings.Contains(m.View(), "Navigation") {
		t.Fatal("help overlay not shown")
	}
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.showHelp {
		t.Fatal("esc did not close the help")
	}

	_, cmd := send(t, m, runes("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestModel_TabSelectsOnScreenMarkers(t *testing.T) {
	m := newTimeline(t, timelineDataset())

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	first := m.ctrl.Selected()
	if first == "" {
		t.Fatal("tab selected nothing")
	}
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if second := m.ctrl.Selected(); second == first {
		t.Errorf("tab stayed on %s", first)
	}
	if m.prevSelected != first {
		t.Errorf("previous selection = %q, want %q", m.prevSelected, first)
	}
}

func TestModel_AnalyticsNeedTheGraph(t *testing.T) {
	m := newTimeline(t, timelineDataset())
	m, _ = send(t, m, runes("c"))
	if !strings.Contains(m.status, "graph view") {
		t.Errorf("status = %q", m.status)
	}
}

func TestModel_GraphCentralityAndPath(t *testing.T) {
	m, _ := newGraph(t)
	if len(m.markers) != 4 {
		t.Fatalf("%d markers on screen, want 4", len(m.markers))
	}

	m, _ = send(t, m, runes("c"))
	m = frameUntil(t, m, func(m Model) bool { return strings.HasPrefix(m.status, "central:") })
	if sel := m.ctrl.Selected(); sel != "B" && sel != "C" {
		t.Errorf("most central node = %q, want B or C", sel)
	}

	m.ctrl.Select("A")
	m.trackSelection()
	m.ctrl.Select("D")
	m.trackSelection()
	m, _ = send(t, m, runes("p"))
	m = frameUntil(t, m, func(m Model) bool { return strings.HasPrefix(m.status, "path:") })
	if strings.Join(m.highlight, ",") != "A,B,C,D" {
		t.Errorf("highlight = %v", m.highlight)
	}

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.highlight != nil || m.ctrl.Selected() != "" {
		t.Error("esc did not clear the path and selection")
	}
}

func TestModel_GraphCommunitiesToggle(t *testing.T) {
	m, _ := newGraph(t)

	m, _ = send(t, m, runes("m"))
	m = frameUntil(t, m, func(m Model) bool { return m.communities != nil })
	if len(m.communities) != 4 {
		t.Errorf("%d nodes coloured, want 4", len(m.communities))
	}
	m, _ = send(t, m, runes("m"))
	if m.communities != nil {
		t.Error("second m did not switch communities off")
	}
}

func TestModel_ReloadAppliesDiff(t *testing.T) {
	ds := timelineDataset()
	m := newTimeline(t, ds)

	next := ds
	next.Events = append(append([]model.TimelineEvent(nil), ds.Events...), model.TimelineEvent{ID: "late", Timestamp: 500})
	m, _ = send(t, m, reloadMsg{res: datasource.Result{Dataset: next}})

	if !strings.Contains(m.status, "+1 events") {
		t.Errorf("status = %q", m.status)
	}
	if _, ok := m.index.Event("late"); !ok {
		t.Error("index was not rebuilt")
	}
}

func TestModel_ReloadErrorKeepsData(t *testing.T) {
	ds := timelineDataset()
	m := newTimeline(t, ds)

	m, _ = send(t, m, reloadMsg{err: errors.New("parse failed")})
	if !m.statusErr || !strings.Contains(m.status, "parse failed") {
		t.Errorf("status = %q err=%v", m.status, m.statusErr)
	}
	if len(m.ds.Events) != len(ds.Events) {
		t.Error("dataset replaced after a failed reload")
	}
	if !strings.Contains(m.View(), "parse failed") {
		t.Error("error not shown in the status bar")
	}
}

func TestModel_ReloadsCoalesce(t *testing.T) {
	ds := timelineDataset()
	path := testutil.WriteDataset(t, t.TempDir(), "data.json", ds)
	m := newTimeline(t, ds)
	m.src = datasource.NewFileSource(path)

	m, cmd := send(t, m, fileEventMsg(watcher.Event{Path: path, Op: watcher.OpChanged}))
	if cmd == nil || !m.reloading {
		t.Fatal("change did not start a reload")
	}
	m, _ = send(t, m, fileEventMsg(watcher.Event{Path: path, Op: watcher.OpChanged}))
	if !m.reloadNext {
		t.Fatal("change during a reload was dropped")
	}

	m, cmd = send(t, m, reloadMsg{res: datasource.Result{Dataset: ds}})
	if cmd == nil || !m.reloading || m.reloadNext {
		t.Error("queued change did not start a second reload")
	}

	m, _ = send(t, m, fileEventMsg(watcher.Event{Path: path, Op: watcher.OpRemoved}))
	if !m.statusErr {
		t.Error("removal not reported")
	}
}

func TestModel_ExportResult(t *testing.T) {
	m := newTimeline(t, timelineDataset())

	m, _ = send(t, m, exportMsg{path: "/tmp/out.png"})
	if m.lastExport != "/tmp/out.png" || !strings.Contains(m.status, "exported") {
		t.Errorf("lastExport %q status %q", m.lastExport, m.status)
	}
	m, _ = send(t, m, exportMsg{err: errors.New("disk full")})
	if !m.statusErr {
		t.Error("export failure not reported")
	}

	s := m.exportStill()
	if int(s.View.Width) != m.cfg.Render.Width || int(s.View.Height) != m.cfg.Render.Height {
		t.Errorf("export view %gx%g, want the configured size", s.View.Width, s.View.Height)
	}
	wantLo, wantHi := m.view.VisibleRange()
	lo, hi := s.View.VisibleRange()
	testutil.AssertNear(t, "export lo", lo, wantLo, 1e-6*(wantHi-wantLo))
	testutil.AssertNear(t, "export hi", hi, wantHi, 1e-6*(wantHi-wantLo))
}

func TestModel_FindJumpsToEvent(t *testing.T) {
	ds := timelineDataset()
	m := newTimeline(t, ds)
	target := ds.Events[7]

	m, _ = send(t, m, runes("/"))
	if !m.finding {
		t.Fatal("/ did not open the find prompt")
	}
	m, cmd := send(t, m, runes("q"))
	if cmd != nil || !m.finding {
		t.Fatal("q quit while typing a query")
	}
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	m, _ = send(t, m, runes(target.ID))
	if p := m.findPrompt(); !strings.HasPrefix(p, "/"+target.ID+"  → ") {
		t.Errorf("prompt = %q", p)
	}
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.finding {
		t.Error("enter left the prompt open")
	}
	if m.ctrl.Selected() != target.ID {
		t.Errorf("selected %q, want %q", m.ctrl.Selected(), target.ID)
	}
	if m.view.CenterX != target.Timestamp {
		t.Errorf("centre %g, want %g", m.view.CenterX, target.Timestamp)
	}
}

func TestFindPrompt_CountsExtraHits(t *testing.T) {
	m := Model{findQuery: "ro", findHits: []search.Match{
		{ID: "rome", Text: "Rome (rome)"},
		{ID: "byz", Text: "Byzantium (byz)"},
		{ID: "troy", Text: "Troy (troy)"},
	}}
	if got, want := m.findPrompt(), "/ro  → Rome (rome) (+2)"; got != want {
		t.Errorf("prompt = %q, want %q", got, want)
	}
	m.findHits = m.findHits[:1]
	if got, want := m.findPrompt(), "/ro  → Rome (rome)"; got != want {
		t.Errorf("single hit prompt = %q, want %q", got, want)
	}
	m.findHits = nil
	if got, want := m.findPrompt(), "/ro  no match"; got != want {
		t.Errorf("no hit prompt = %q, want %q", got, want)
	}
}

func TestModel_FindNoMatchAndCancel(t *testing.T) {
	m := newTimeline(t, timelineDataset())

	m, _ = send(t, m, runes("/"))
	m, _ = send(t, m, runes("zzzzzz"))
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !strings.Contains(m.status, "no match") {
		t.Errorf("status = %q", m.status)
	}

	m, _ = send(t, m, runes("/"))
	m, _ = send(t, m, runes("e"))
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.finding || m.ctrl.Selected() != "" {
		t.Errorf("esc: finding=%v selected=%q", m.finding, m.ctrl.Selected())
	}
}

func TestModel_FindCentresOnNode(t *testing.T) {
	m, _ := newGraph(t)
	m = frameUntil(t, m, func(m Model) bool { return len(m.snap.Nodes) == 4 })

	m, _ = send(t, m, runes("/"))
	m, _ = send(t, m, runes("c"))
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.ctrl.Selected() != "C" {
		t.Fatalf("selected %q, want C", m.ctrl.Selected())
	}
	pos := m.snap.ByID()["C"]
	if m.view.CenterX != pos.X || m.view.CenterY != pos.Y {
		t.Errorf("centre (%g, %g), want (%g, %g)", m.view.CenterX, m.view.CenterY, pos.X, pos.Y)
	}
}
