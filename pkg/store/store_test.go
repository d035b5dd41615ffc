package store

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/vanderheijden86/strata/pkg/layout"
	"github.com/vanderheijden86/strata/pkg/model"
	"github.com/vanderheijden86/strata/pkg/view"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state", "views.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func ptr(f float64) *float64 { return &f }

func TestStore_MissingStateIsEmpty(t *testing.T) {
	s := openTemp(t)
	st, err := s.Load(context.Background(), "nothing/graph")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !st.Empty() || st.ViewID != "nothing/graph" {
		t.Errorf("Load on empty store = %+v", st)
	}
}

func TestStore_RoundTrip(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	id := ViewID("atlas", "graph")

	want := State{
		ViewID: id,
		Layout: []NodePosition{
			{ID: "a", X: 1.5, Y: -2},
			{ID: "b", X: 10, Y: 20, FX: ptr(10), FY: ptr(20)},
		},
		View:  &ViewRecord{Zoom: 2.5, CenterX: 3, CenterY: 4},
		Prefs: &Preferences{Theme: "Dark", Reading: true},
	}
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load(ctx, id)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Layout) != 2 || got.Layout[0].ID != "a" || got.Layout[0].FX != nil {
		t.Fatalf("layout = %+v", got.Layout)
	}
	if b := got.Layout[1]; b.FX == nil || *b.FX != 10 || *b.FY != 20 {
		t.Errorf("pin lost: %+v", b)
	}
	if *got.View != *want.View {
		t.Errorf("view = %+v, want %+v", got.View, want.View)
	}
	if got.Prefs.Theme != "dark" || !got.Prefs.Reading {
		t.Errorf("prefs = %+v", got.Prefs)
	}

	// Views are isolated.
	other, err := s.Load(ctx, ViewID("atlas", "timeline"))
	if err != nil || !other.Empty() {
		t.Errorf("other view = %+v, %v", other, err)
	}
}

func TestStore_PartialSaveKeepsOtherSections(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	id := "ds/graph"

	if err := s.Save(ctx, State{ViewID: id, Layout: []NodePosition{{ID: "a", X: 1, Y: 1}}}); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, State{ViewID: id, Prefs: &Preferences{Theme: "light"}}); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Load(ctx, id)
	if len(got.Layout) != 1 || got.Prefs == nil || got.View != nil {
		t.Errorf("partial save = %+v", got)
	}

	// A non-nil empty layout clears it.
	if err := s.Save(ctx, State{ViewID: id, Layout: []NodePosition{}}); err != nil {
		t.Fatal(err)
	}
	got, _ = s.Load(ctx, id)
	if len(got.Layout) != 0 || got.Prefs == nil {
		t.Errorf("after clearing layout = %+v", got)
	}
}

func TestStore_SkipsNonFinite(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	err := s.Save(ctx, State{ViewID: "v", Layout: []NodePosition{
		{ID: "nan", X: math.NaN(), Y: 0},
		{ID: "ok", X: 1, Y: 2},
	}})
	if err != nil {
		t.Fatal(err)
	}
	got, _ := s.Load(ctx, "v")
	if len(got.Layout) != 1 || got.Layout[0].ID != "ok" {
		t.Errorf("layout = %+v", got.Layout)
	}
}

func TestStore_Delete(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	_ = s.Save(ctx, State{ViewID: "v", View: &ViewRecord{Zoom: 1}, Prefs: &Preferences{}})
	if err := s.Delete(ctx, "v"); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Load(ctx, "v"); !got.Empty() {
		t.Errorf("after Delete = %+v", got)
	}
}

func TestOpen_CorruptFileIsReplaced(t *testing.T) {
	path := filepath.Join(t.TempDir(), "views.db")
	junk := []byte("this is not a sqlite database, just some bytes that look wrong enough")
	if err := os.WriteFile(path, junk, 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open corrupt: %v", err)
	}
	defer s.Close()

	st, err := s.Load(context.Background(), "any")
	if err != nil || !st.Empty() {
		t.Errorf("Load after recovery = %+v, %v", st, err)
	}
	aside, err := os.ReadFile(path + ".corrupt")
	if err != nil || string(aside) != string(junk) {
		t.Errorf("corrupt file not preserved: %v", err)
	}
}

func TestStore_ClosedDatabaseReportsStorageError(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "views.db"))
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	st, err := s.Load(context.Background(), "v")
	var se *StorageError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StorageError", err)
	}
	if !st.Empty() {
		t.Errorf("state on failure = %+v, want empty", st)
	}
	if err := s.Save(context.Background(), State{ViewID: "v", View: &ViewRecord{Zoom: 1}}); !errors.As(err, &se) {
		t.Errorf("Save err = %v, want *StorageError", err)
	}
}

func TestStore_NilIsNoop(t *testing.T) {
	var s *Store
	if err := s.Save(context.Background(), State{ViewID: "v"}); err != nil {
		t.Error(err)
	}
	if st, err := s.Load(context.Background(), "v"); err != nil || !st.Empty() {
		t.Errorf("nil Load = %+v, %v", st, err)
	}
	if err := s.Close(); err != nil {
		t.Error(err)
	}
}

func TestStore_RoundTripProperty(t *testing.T) {
	s := openTemp(t)
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 20).Draw(rt, "n")
		layout := make([]NodePosition, n)
		for i := range layout {
			layout[i] = NodePosition{
				ID: string(rune('a'+i%26)) + string(rune('0'+i/26)),
				X:  rapid.Float64Range(-1e6, 1e6).Draw(rt, "x"),
				Y:  rapid.Float64Range(-1e6, 1e6).Draw(rt, "y"),
			}
			if rapid.Bool().Draw(rt, "pinned") {
				layout[i].FX, layout[i].FY = ptr(layout[i].X), ptr(layout[i].Y)
			}
		}
		if err := s.Save(context.Background(), State{ViewID: "prop", Layout: layout}); err != nil {
			rt.Fatalf("Save: %v", err)
		}
		got, err := s.Load(context.Background(), "prop")
		if err != nil {
			rt.Fatalf("Load: %v", err)
		}
		if len(got.Layout) != n {
			rt.Fatalf("loaded %d positions, saved %d", len(got.Layout), n)
		}
		byID := make(map[string]NodePosition, n)
		for _, p := range got.Layout {
			byID[p.ID] = p
		}
		for _, p := range layout {
			q := byID[p.ID]
			if q.X != p.X || q.Y != p.Y || (p.FX == nil) != (q.FX == nil) {
				rt.Fatalf("position %s: got %+v, want %+v", p.ID, q, p)
			}
		}
	})
}

func TestSaver_DebouncesAndMerges(t *testing.T) {
	s := openTemp(t)
	saver := NewSaver(s, 40*time.Millisecond)

	for i := 0; i < 5; i++ {
		saver.Schedule(State{ViewID: "v", View: &ViewRecord{Zoom: float64(i + 1)}})
		time.Sleep(5 * time.Millisecond)
	}
	saver.Schedule(State{ViewID: "v", Prefs: &Preferences{Theme: "dark"}})
	if saver.Writes() != 0 {
		t.Fatalf("wrote before the delay elapsed")
	}

	deadline := time.Now().Add(time.Second)
	for saver.Writes() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if saver.Writes() != 1 {
		t.Fatalf("writes = %d, want 1 batched write", saver.Writes())
	}

	got, _ := s.Load(context.Background(), "v")
	if got.View == nil || got.View.Zoom != 5 || got.Prefs == nil || got.Prefs.Theme != "dark" {
		t.Errorf("saved = %+v", got)
	}
}

func TestSaver_CloseFlushes(t *testing.T) {
	s := openTemp(t)
	saver := NewSaver(s, time.Hour)
	saver.Schedule(State{ViewID: "v", View: &ViewRecord{Zoom: 3}})
	if saver.Pending() != 1 {
		t.Fatalf("pending = %d", saver.Pending())
	}
	if err := saver.Close(); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Load(context.Background(), "v")
	if got.View == nil || got.View.Zoom != 3 {
		t.Errorf("not flushed on close: %+v", got)
	}

	saver.Schedule(State{ViewID: "v", View: &ViewRecord{Zoom: 9}})
	if saver.Pending() != 0 {
		t.Error("Schedule after Close should be ignored")
	}
}

func TestSaver_FailuresAreCounted(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "views.db"))
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	saver := NewSaver(s, time.Hour)
	saver.Schedule(State{ViewID: "v", View: &ViewRecord{Zoom: 1}})
	if err := saver.Flush(context.Background()); err == nil {
		t.Fatal("expected flush error")
	}
	var se *StorageError
	if saver.Failures() != 1 || !errors.As(saver.LastError(), &se) {
		t.Errorf("failures = %d, last = %v", saver.Failures(), saver.LastError())
	}
}

func TestSeedAndLayoutOf(t *testing.T) {
	snap := layout.Snapshot{Nodes: []layout.NodeState{
		{ID: "a", X: 1, Y: 2},
		{ID: "b", X: 3, Y: 4, Pinned: true, FX: 3, FY: 4},
	}}
	saved := LayoutOf(snap)

	nodes := []model.Node{{ID: "a"}, {ID: "b"}, {ID: "c", X: 7}}
	seeded, n := Seed(nodes, saved)
	if n != 2 {
		t.Errorf("seeded = %d, want 2", n)
	}
	if seeded[0].X != 1 || seeded[0].Y != 2 || seeded[0].Pinned() {
		t.Errorf("a = %+v", seeded[0])
	}
	if !seeded[1].Pinned() || *seeded[1].FX != 3 {
		t.Errorf("b = %+v", seeded[1])
	}
	if seeded[2].X != 7 {
		t.Errorf("unsaved node changed: %+v", seeded[2])
	}
	if nodes[1].Pinned() {
		t.Error("Seed mutated its input")
	}
}

func TestViewRecordApply(t *testing.T) {
	v := view.NewGraph(800, 600)
	(&ViewRecord{Zoom: 1e9, CenterX: 5, CenterY: 6}).Apply(&v)
	if v.Zoom != v.MaxZoom || v.CenterX != 5 || v.CenterY != 6 {
		t.Errorf("graph view = %+v", v)
	}

	tl := view.NewTimeline(800, 600)
	RecordView(view.State{Zoom: 0.5, CenterX: 100, CenterY: 42}).Apply(&tl)
	if tl.Zoom != 0.5 || tl.CenterX != 100 || tl.CenterY != 0 {
		t.Errorf("timeline view = %+v", tl)
	}

	var none *ViewRecord
	none.Apply(&tl)
}
