package analysis

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/vanderheijden86/strata/pkg/testutil"
)

func TestShortestPath_ABC(t *testing.T) {
	ds := testutil.Named([]string{"A", "B", "C"}, [2]string{"A", "B"}, [2]string{"B", "C"})
	g := FromDataset(ds)

	p, ok := g.ShortestPath("A", "C")
	testutil.AssertPath(t, p, ok, "A", "B", "C")
}

func TestShortestPath_SameNode(t *testing.T) {
	g := FromDataset(testutil.New(1).Chain(3))
	p, ok := g.ShortestPath("n1", "n1")
	testutil.AssertPath(t, p, ok, "n1")
}

func TestShortestPath_Disconnected(t *testing.T) {
	g := FromDataset(testutil.New(1).Disconnected(2, 3))
	p, ok := g.ShortestPath("n0", "n5")
	testutil.AssertPath(t, p, ok)
	if g.Hops("n0", "n5") != -1 {
		t.Error("expected -1 hops for disconnected nodes")
	}
}

func TestShortestPath_UnknownNode(t *testing.T) {
	g := FromDataset(testutil.New(1).Chain(3))
	if _, ok := g.ShortestPath("n0", "missing"); ok {
		t.Error("expected no path to an unknown node")
	}
}

func TestShortestPath_TieBreakByDiscoveryOrder(t *testing.T) {
	// Two equal routes S-X-T and S-Y-T; X is enqueued first.
	ds := testutil.Named([]string{"S", "X", "Y", "T"},
		[2]string{"S", "X"}, [2]string{"S", "Y"},
		[2]string{"Y", "T"}, [2]string{"X", "T"})
	g := FromDataset(ds)
	p, ok := g.ShortestPath("S", "T")
	testutil.AssertPath(t, p, ok, "S", "X", "T")

	// Reordering the edges flips the winner.
	ds.Edges[0], ds.Edges[1] = ds.Edges[1], ds.Edges[0]
	g = FromDataset(ds)
	p, ok = g.ShortestPath("S", "T")
	testutil.AssertPath(t, p, ok, "S", "Y", "T")
}

func TestShortestPath_IgnoresDirection(t *testing.T) {
	ds := testutil.Named([]string{"A", "B"}, [2]string{"B", "A"})
	p, ok := FromDataset(ds).ShortestPath("A", "B")
	testutil.AssertPath(t, p, ok, "A", "B")
}

func TestShortestPath_SymmetricLength(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(2, 25).Draw(t, "n")
		p := rapid.Float64Range(0, 0.4).Draw(t, "p")
		seed := rapid.Int64Range(1, 1<<30).Draw(t, "seed")
		g := FromDataset(testutil.New(seed).Random(n, p))

		a := testutil.NodeID(rapid.IntRange(0, n-1).Draw(t, "a"))
		b := testutil.NodeID(rapid.IntRange(0, n-1).Draw(t, "b"))
		ab, okAB := g.ShortestPath(a, b)
		ba, okBA := g.ShortestPath(b, a)
		if okAB != okBA {
			t.Fatalf("reachability differs: %v vs %v", okAB, okBA)
		}
		if len(ab) != len(ba) {
			t.Fatalf("path lengths differ: %v vs %v", ab, ba)
		}
		for i := 1; i < len(ab); i++ {
			if !contains(g.Neighbors(ab[i-1]), ab[i]) {
				t.Fatalf("%s-%s is not an edge", ab[i-1], ab[i])
			}
		}
	})
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func TestNewGraph_SkipsDanglingSelfAndDuplicate(t *testing.T) {
	ds := testutil.Named([]string{"A", "B"},
		[2]string{"A", "B"}, [2]string{"B", "A"},
		[2]string{"A", "A"}, [2]string{"A", "ghost"})
	g := FromDataset(ds)
	if g.EdgeCount() != 1 {
		t.Errorf("expected 1 edge, got %d", g.EdgeCount())
	}
	if g.Degree("A") != 1 {
		t.Errorf("expected degree 1, got %d", g.Degree("A"))
	}
}
