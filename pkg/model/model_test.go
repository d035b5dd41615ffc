package model

import (
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in   string
		want Category
	}{
		{"person", CategoryPerson},
		{" Organisation ", CategoryOrganization},
		{"place", CategoryPlace},
		{"event", CategoryEvent},
		{"work", CategoryWork},
		{"concept", CategoryConcept},
		{"spaceship", CategoryUnknown},
		{"", CategoryUnknown},
	}
	for _, tt := range tests {
		if got := ParseCategory(tt.in); got != tt.want {
			t.Errorf("ParseCategory(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCategory_UnknownBranch(t *testing.T) {
	c := ParseCategory("mystery")
	if c.IsKnown() {
		t.Error("unknown category reported as known")
	}
	if c.Glyph() != "?" {
		t.Errorf("expected '?' glyph, got %q", c.Glyph())
	}
	if c.String() != "unknown" {
		t.Errorf("expected 'unknown', got %q", c.String())
	}
	for _, k := range Categories {
		if !k.IsKnown() {
			t.Errorf("%v should be known", k)
		}
		if k.Glyph() == "?" {
			t.Errorf("%v should have its own glyph", k)
		}
	}
}

func TestCategory_JSONAndYAML(t *testing.T) {
	var n Node
	if err := json.Unmarshal([]byte(`{"id":"a","category":"place"}`), &n); err != nil {
		t.Fatal(err)
	}
	if n.Category != CategoryPlace {
		t.Errorf("json: expected place, got %v", n.Category)
	}

	var ev TimelineEvent
	if err := yaml.Unmarshal([]byte("id: e\ntimestamp: 10\ncategory: bogus\n"), &ev); err != nil {
		t.Fatal(err)
	}
	if ev.Category != CategoryUnknown {
		t.Errorf("yaml: expected unknown, got %v", ev.Category)
	}

	out, err := json.Marshal(Node{ID: "b", Category: CategoryWork})
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"id":"b","category":"work"}` {
		t.Errorf("unexpected json: %s", out)
	}
}

func TestNormalize_DropsDanglingEdges(t *testing.T) {
	ds := Dataset{
		Nodes: []Node{{ID: "a"}, {ID: "b"}},
		Edges: []Edge{
			{Source: "a", Target: "b"},
			{Source: "a", Target: "ghost"},
		},
	}
	out, rep, err := Normalize(ds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Edges) != 1 || rep.DroppedEdges != 1 {
		t.Errorf("expected 1 edge and 1 dropped, got %d edges, %d dropped", len(out.Edges), rep.DroppedEdges)
	}
}

func TestNormalize_DuplicateIDs(t *testing.T) {
	_, _, err := Normalize(Dataset{Nodes: []Node{{ID: "a"}, {ID: "a"}}})
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}

	_, _, err = Normalize(Dataset{Events: []TimelineEvent{{ID: "e"}, {ID: "e", Timestamp: 5}}})
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed for events, got %v", err)
	}
}

func TestNormalize_Empty(t *testing.T) {
	_, _, err := Normalize(Dataset{})
	if !errors.Is(err, ErrEmptyDataset) {
		t.Errorf("expected ErrEmptyDataset, got %v", err)
	}
}

func TestNormalize_HalfPinRejected(t *testing.T) {
	x := 1.0
	_, _, err := Normalize(Dataset{Nodes: []Node{{ID: "a", FX: &x}}})
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
}

func TestNormalize_PrunesRelated(t *testing.T) {
	ds := Dataset{Events: []TimelineEvent{
		{ID: "a", Timestamp: 1, Related: []string{"b", "missing", "a"}},
		{ID: "b", Timestamp: 2},
	}}
	out, rep, err := Normalize(ds)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Events[0].Related) != 1 || out.Events[0].Related[0] != "b" {
		t.Errorf("expected related [b], got %v", out.Events[0].Related)
	}
	if rep.DroppedRelated != 2 {
		t.Errorf("expected 2 dropped references, got %d", rep.DroppedRelated)
	}
}

func TestNode_CloneIsDeep(t *testing.T) {
	x, y := 1.0, 2.0
	n := Node{ID: "a", FX: &x, FY: &y}
	c := n.Clone()
	*c.FX = 99
	if *n.FX != 1 {
		t.Error("clone shares pin storage with original")
	}
}
