package hnsw

import (
	"math/rand"
	"testing"
)

// buildLineGraph places n points at (0,0), (1,0), (2,0), ... and wires
// each to its immediate neighbors at level 0, giving searchLayer/
// searchLayerClosest a simple deterministic topology to traverse.
func buildLineGraph(t *testing.T, n int) (*graph, *storage) {
	t.Helper()
	cfg := Config{Dim: 1, M: 8, EfConstruction: 50, Ef: 20, Capacity: n}.withDefaults()
	store := newStorage(cfg)
	links := newLinkArena()
	g := newGraph(cfg, store, links)

	for i := 0; i < n; i++ {
		store.writeVectorF32(uint32(i), []float32{float32(i)})
		store.setLabel(uint32(i), uint64(i))
	}
	for i := 0; i < n; i++ {
		var adj []uint32
		if i > 0 {
			adj = append(adj, uint32(i-1))
		}
		if i < n-1 {
			adj = append(adj, uint32(i+1))
		}
		g.setNeighborsAt(uint32(i), 0, adj)
	}
	return g, store
}

func TestSearchLayerClosestDescendsToNearest(t *testing.T) {
	g, _ := buildLineGraph(t, 10)
	got := g.searchLayerClosest([]float32{7}, 0, 0)
	if got != 7 {
		t.Errorf("searchLayerClosest() = %d, want 7", got)
	}
}

func TestSearchLayerReturnsEfClosestOrdered(t *testing.T) {
	g, _ := buildLineGraph(t, 10)
	results := g.searchLayer([]float32{5}, 0, 3, 0, nil)
	if len(results) != 3 {
		t.Fatalf("searchLayer() returned %d results, want 3", len(results))
	}
	if results[0].slot != 5 {
		t.Errorf("closest result slot = %d, want 5", results[0].slot)
	}
	for i := 1; i < len(results); i++ {
		if results[i].dist < results[i-1].dist {
			t.Errorf("results not sorted ascending: %+v", results)
		}
	}
}

func TestSearchLayerHonorsFilter(t *testing.T) {
	g, store := buildLineGraph(t, 10)
	// Labels equal slot index here; only accept even labels.
	filter := func(label uint64) bool { return label%2 == 0 }
	results := g.searchLayer([]float32{5}, 0, 4, 0, filter)
	for _, r := range results {
		if store.getLabel(r.slot)%2 != 0 {
			t.Errorf("searchLayer with filter returned odd-labeled slot %d", r.slot)
		}
	}
}

func TestSearchLayerSkipsDeletedSlots(t *testing.T) {
	g, store := buildLineGraph(t, 10)
	store.setDeleted(5, true)
	results := g.searchLayer([]float32{5}, 0, 10, 0, nil)
	for _, r := range results {
		if r.slot == 5 {
			t.Errorf("searchLayer returned deleted slot 5")
		}
	}
}

func TestSelectNeighborsHeuristicKeepsAllWhenUnderM(t *testing.T) {
	g, _ := buildLineGraph(t, 10)
	candidates := []scoredSlot{{slot: 4, dist: 1}, {slot: 6, dist: 1}}
	got := g.selectNeighborsHeuristic([]float32{5}, candidates, 5)
	if len(got) != 2 {
		t.Errorf("selectNeighborsHeuristic() = %v, want both candidates kept", got)
	}
}

// TestSelectNeighborsHeuristicPrunesShadowedCandidates exercises the
// pairwise rule itself: points lie on a line at 0..9, query is at 5.
// Candidates 5, 4 and 6 are admitted first (closest); candidate 3 is then
// shadowed because 4 (already kept) is closer to 3 than the query is, so
// 3 is pruned even though there's still room under m.
func TestSelectNeighborsHeuristicPrunesShadowedCandidates(t *testing.T) {
	g, _ := buildLineGraph(t, 10)
	candidates := []scoredSlot{
		{slot: 5, dist: 0},
		{slot: 4, dist: 1},
		{slot: 6, dist: 1},
		{slot: 3, dist: 4},
	}
	got := g.selectNeighborsHeuristic([]float32{5}, candidates, 4)
	want := []uint32{5, 4, 6}
	if len(got) != len(want) {
		t.Fatalf("selectNeighborsHeuristic() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("selectNeighborsHeuristic() = %v, want %v", got, want)
		}
	}
}

func TestRandomLevelNeverExceedsCap(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		lvl := randomLevel(rng, 0.25)
		if lvl < 0 || lvl > 32 {
			t.Fatalf("randomLevel() = %d, out of bounds", lvl)
		}
	}
}
