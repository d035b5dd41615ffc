package testutil

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/strata/pkg/model"
)

// AssertPath checks a shortest-path result.
func AssertPath(t *testing.T, got []string, ok bool, want ...string) {
	t.Helper()
	if len(want) == 0 {
		if ok {
			t.Errorf("expected no path, got %v", got)
		}
		return
	}
	if !ok {
		t.Fatalf("expected path %v, got none", want)
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("expected path %v, got %v", want, got)
	}
}

// AssertNear fails when |got-want| > tol.
func AssertNear(t *testing.T, name string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: expected %v (±%v), got %v", name, want, tol, got)
	}
}

// AssertUnitRange fails when any score lies outside [0,1].
func AssertUnitRange(t *testing.T, scores map[string]float64) {
	t.Helper()
	for id, s := range scores {
		if s < 0 || s > 1 || math.IsNaN(s) {
			t.Errorf("score for %s out of [0,1]: %v", id, s)
		}
	}
}

// AssertNoDuplicateIDs verifies node and event IDs are unique.
func AssertNoDuplicateIDs(t *testing.T, ds model.Dataset) {
	t.Helper()
	seen := make(map[string]bool)
	for _, n := range ds.Nodes {
		if seen[n.ID] {
			t.Errorf("duplicate node ID: %s", n.ID)
		}
		seen[n.ID] = true
	}
	seen = make(map[string]bool)
	for _, e := range ds.Events {
		if seen[e.ID] {
			t.Errorf("duplicate event ID: %s", e.ID)
		}
		seen[e.ID] = true
	}
}

// WriteDataset writes ds as JSON into dir and returns the path.
func WriteDataset(t *testing.T, dir, name string, ds model.Dataset) string {
	t.Helper()
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		t.Fatalf("marshal dataset: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	return path
}
