// The HNSW proximity graph itself: level assignment, greedy descent,
// searchLayer, and heuristic neighbor selection.
//
// Grounded on gibram's HNSWIndex (other_examples/pkg-vector-index.go):
// same overall shape (randomLevel via geometric decay, searchLayerClosest
// for the single-best-neighbor descent through upper layers, searchLayer
// as the ef-bounded expansion at the insertion/query layer, a neighbor
// selection step for new edges and for trimming — here the pairwise
// heuristic in selectNeighborsHeuristic). Generalized from gibram's map[uint64]*hnswNode plus
// []uint64 friend lists to this package's slot-indexed storage and
// disk-backed adjacency, and from a single hard-coded cosine similarity
// to the pluggable kernelFunc distance.go resolves per Config.Metric.
package hnsw

import (
	"math"
	"math/rand"
)

// randomLevel draws a new node's top layer as ⌊−ln(U)·mL⌋ for U uniform in
// (0,1], with mL = 1/ln(M), capped at 32 layers as a sanity bound (gibram
// caps at MaxLevel=16; 32 is generous headroom that is astronomically
// unlikely to bind in practice).
func randomLevel(rng *rand.Rand, mL float64) int {
	const maxLevel = 32
	level := math.Floor(-math.Log(1-rng.Float64()) * mL)
	if !(level < maxLevel) {
		return maxLevel
	}
	return int(level)
}

// graph holds the traversal state shared by insert and query: the
// storage backing vectors/level-0 adjacency, the level>0 link arena, the
// entry point, and the kernel used to score every comparison.
type graph struct {
	cfg     Config
	store   *storage
	links   *linkArena
	kernel  kernelFunc
	entry   uint32
	hasEntry bool
	entryLevel int
}

func newGraph(cfg Config, store *storage, links *linkArena) *graph {
	return &graph{
		cfg:    cfg,
		store:  store,
		links:  links,
		kernel: kernelFor(cfg.Metric),
	}
}

func (g *graph) vectorOf(slot uint32, scratch []float32) []float32 {
	g.store.readVector(slot, scratch)
	return scratch
}

// distance scores query against the vector stored at slot.
func (g *graph) distance(query []float32, slot uint32, scratch []float32) float32 {
	g.vectorOf(slot, scratch)
	return g.kernel(query, scratch)
}

func (g *graph) neighborsAt(slot uint32, level int) []uint32 {
	if level == 0 {
		return g.store.readLevel0Adj(slot)
	}
	return g.links.get(slot, level)
}

func (g *graph) setNeighborsAt(slot uint32, level int, list []uint32) {
	if level == 0 {
		g.store.writeLevel0Adj(slot, list)
		return
	}
	g.links.set(slot, level, list)
}

// searchLayerClosest performs single-best-neighbor greedy descent through
// one upper layer, mirroring gibram's searchLayerClosest.
func (g *graph) searchLayerClosest(query []float32, entry uint32, level int) uint32 {
	scratch := make([]float32, len(query))
	curr := entry
	currDist := g.distance(query, curr, scratch)

	for {
		improved := false
		for _, nb := range g.neighborsAt(curr, level) {
			// A tombstoned node keeps serving as a routing hop (spec.md
			// §3 invariant 1) — only passesFilter, applied to the final
			// result set in searchLayer, excludes it from answers.
			d := g.distance(query, nb, scratch)
			if d < currDist {
				curr = nb
				currDist = d
				improved = true
			}
		}
		if !improved {
			return curr
		}
	}
}

// searchLayer expands the ef-bounded candidate frontier at level,
// returning up to ef slots ordered closest-first. Mirrors gibram's
// searchLayer (min-heap of candidates to expand, max-heap of the best-ef
// results seen), generalized to this package's container/heap queues and
// pooled visited sets instead of a per-call map.
func (g *graph) searchLayer(query []float32, entry uint32, ef int, level int, filter func(label uint64) bool) []scoredSlot {
	scratch := make([]float32, len(query))
	visited := getVisitedSet(len(g.store.table) / max(g.store.stride, 1))
	defer putVisitedSet(visited)

	candidates := newMinHeap()
	results := newMaxHeap()

	d0 := g.distance(query, entry, scratch)
	visited.visit(entry)
	candidates.push(scoredSlot{entry, d0})
	if passesFilter(g, entry, filter) {
		results.push(scoredSlot{entry, d0})
	}

	for candidates.Len() > 0 {
		curr := candidates.pop()

		if results.Len() >= ef && curr.dist > results.peek().dist {
			break
		}

		for _, nb := range g.neighborsAt(curr.slot, level) {
			if !visited.visit(nb) {
				continue
			}
			d := g.distance(query, nb, scratch)

			if results.Len() < ef || d < results.peek().dist {
				candidates.push(scoredSlot{nb, d})
				if passesFilter(g, nb, filter) {
					results.push(scoredSlot{nb, d})
					if results.Len() > ef {
						results.pop()
					}
				}
			}
		}
	}

	return results.sortedAscending()
}

func passesFilter(g *graph, slot uint32, filter func(label uint64) bool) bool {
	if g.store.getDeleted(slot) {
		return false
	}
	if filter == nil {
		return true
	}
	return filter(g.store.getLabel(slot))
}

// selectNeighborsHeuristic implements the pairwise diversity heuristic
// spec.md §4.4.3 mandates as the only selection policy, for both fresh
// edges and edge-list trimming after backlinks overflow: candidates are
// walked closest-to-query first, and a candidate is kept only if no
// already-kept neighbor is strictly closer to it than the query is —
// i.e. it isn't "shadowed" by a better-placed neighbor already chosen.
// This is HNSW's standard relative-neighborhood selection rather than
// gibram's plain closest-M truncation (other_examples/pkg-vector-
// index.go); it needs the graph to score candidate-to-candidate
// distances, so it's a *graph method rather than a free function.
// candidates must already be sorted ascending by distance to query, as
// both searchLayer's return value and insert.go's pre-sorted backlink
// set are.
func (g *graph) selectNeighborsHeuristic(query []float32, candidates []scoredSlot, m int) []uint32 {
	kScratch := make([]float32, len(query))
	cScratch := make([]float32, len(query))
	kept := make([]uint32, 0, m)
	for _, c := range candidates {
		if len(kept) >= m {
			break
		}
		shadowed := false
		for _, k := range kept {
			kVec := g.vectorOf(k, kScratch)
			if g.distance(kVec, c.slot, cScratch) < c.dist {
				shadowed = true
				break
			}
		}
		if !shadowed {
			kept = append(kept, c.slot)
		}
	}
	return kept
}

