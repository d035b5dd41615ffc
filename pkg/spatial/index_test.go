package spatial

import (
	"fmt"
	"sort"
	"testing"

	"pgregory.net/rapid"

	"github.com/vanderheijden86/strata/pkg/model"
)

func events(ts ...float64) []model.TimelineEvent {
	out := make([]model.TimelineEvent, len(ts))
	for i, v := range ts {
		out[i] = model.TimelineEvent{ID: fmt.Sprintf("e%d", i), Timestamp: v}
	}
	return out
}

func ids(evs []model.TimelineEvent) []string {
	out := make([]string, len(evs))
	for i, e := range evs {
		out[i] = e.ID
	}
	sort.Strings(out)
	return out
}

func linearScan(evs []model.TimelineEvent, lo, hi float64) []model.TimelineEvent {
	var out []model.TimelineEvent
	for _, e := range evs {
		if e.Timestamp >= lo && e.Timestamp <= hi {
			out = append(out, e)
		}
	}
	return out
}

func TestQuery_SingleBucket(t *testing.T) {
	ix := Build(events(0, 100, 200, 300))
	if ix.Divided() {
		t.Fatal("four events should fit in one bucket")
	}
	got := ix.Query(50, 250)
	if len(got) != 2 || got[0].Timestamp != 100 || got[1].Timestamp != 200 {
		t.Errorf("expected {100,200}, got %v", got)
	}
}

func TestBuild_Empty(t *testing.T) {
	ix := Build(nil)
	if !ix.Bounds().Empty {
		t.Error("expected empty bounds")
	}
	if ix.Divided() {
		t.Error("empty index should have no children")
	}
	if got := ix.Query(-1e18, 1e18); len(got) != 0 {
		t.Errorf("expected no events, got %d", len(got))
	}
}

func TestBuild_SingleEvent(t *testing.T) {
	ix := Build(events(42))
	if ix.Divided() {
		t.Error("single event should not divide")
	}
	if got := ix.Query(42, 42); len(got) != 1 {
		t.Errorf("expected 1 event at the exact timestamp, got %d", len(got))
	}
	if got := ix.Query(43, 50); len(got) != 0 {
		t.Errorf("expected none outside, got %d", len(got))
	}
}

func TestBuild_DividesAboveCapacity(t *testing.T) {
	ts := make([]float64, 25)
	for i := range ts {
		ts[i] = float64(i * 10)
	}
	ix := Build(events(ts...))
	if !ix.Divided() {
		t.Fatal("expected root to divide")
	}
	st := ix.Stats()
	if st.MaxBucket > Capacity {
		t.Errorf("bucket of %d exceeds capacity", st.MaxBucket)
	}
	if st.Events != 25 {
		t.Errorf("expected 25 events, got %d", st.Events)
	}
}

func TestBuild_IdenticalTimestamps(t *testing.T) {
	ts := make([]float64, 30)
	for i := range ts {
		ts[i] = 7
	}
	ix := Build(events(ts...))
	if ix.Divided() {
		t.Error("zero-width bounds must not divide")
	}
	if got := ix.Query(7, 7); len(got) != 30 {
		t.Errorf("expected 30, got %d", len(got))
	}
}

func TestQuery_InvertedRange(t *testing.T) {
	ix := Build(events(1, 2, 3))
	if got := ix.Query(3, 1); len(got) != 0 {
		t.Errorf("expected empty result for min > max, got %d", len(got))
	}
}

func TestQuery_HugeMagnitudes(t *testing.T) {
	// Deep time next to the present, many orders of magnitude apart.
	evs := events(-3.15e14, -6.3e10, 0, 1.7e9, 1.7e9+3600, 1.7e9+7200)
	ix := Build(evs)
	got := ix.Query(1.7e9, 1.7e9+3600)
	if len(got) != 2 {
		t.Errorf("expected 2 events in the hour window, got %d", len(got))
	}
}

func TestQuery_MatchesLinearScan(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ts := rapid.SliceOfN(rapid.Float64Range(-1e6, 1e6), 0, 200).Draw(t, "ts")
		evs := events(ts...)
		ix := Build(evs)

		a := rapid.Float64Range(-1.2e6, 1.2e6).Draw(t, "a")
		b := rapid.Float64Range(-1.2e6, 1.2e6).Draw(t, "b")
		if a > b {
			a, b = b, a
		}

		want := ids(linearScan(evs, a, b))
		got := ids(ix.Query(a, b))
		if len(got) != len(want) {
			t.Fatalf("query(%v,%v): got %d events, want %d", a, b, len(got), len(want))
		}
		for i := range got {
			if got[i] != want[i] {
				t.Fatalf("query(%v,%v): mismatch at %d: %s vs %s", a, b, i, got[i], want[i])
			}
		}
	})
}

func TestQuery_ExactEndpoints(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ts := rapid.SliceOfN(rapid.IntRange(-500, 500), 1, 120).Draw(t, "ts")
		fs := make([]float64, len(ts))
		for i, v := range ts {
			fs[i] = float64(v)
		}
		ix := Build(events(fs...))
		pick := fs[rapid.IntRange(0, len(fs)-1).Draw(t, "pick")]
		if len(ix.Query(pick, pick)) == 0 {
			t.Fatalf("point query at %v found nothing", pick)
		}
	})
}

func BenchmarkQuery_100k(b *testing.B) {
	ts := make([]float64, 100_000)
	for i := range ts {
		ts[i] = float64(i) * 86400
	}
	ix := Build(events(ts...))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ix.Query(5e8, 5e8+86400*30)
	}
}
