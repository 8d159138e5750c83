// Query surface: SearchKNN, SearchKNNCloserFirst, filtered search, and
// direct label lookup.
//
// Both search entry points mirror gibram's Search (other_examples/pkg-
// vector-index.go): greedy descent through the upper layers to find a
// good entry point at layer 0, then a single searchLayer call with ef =
// max(configured Ef, k), truncated to the k closest. They differ only in
// final ordering — SearchKNN returns the max-heap view, SearchKNNCloserFirst
// sorts ascending — per the two distinct ops spec.md §4.4.4 calls for.
// Filtering is layered on top of searchLayer itself (graph.go's
// passesFilter) rather than applied as a post-hoc step, so a restrictive
// filter doesn't starve the result set the way filtering after the fact
// would.
package hnsw

import "container/heap"

// Neighbor is one result of a k-nearest-neighbor query.
type Neighbor struct {
	Label    uint64
	Distance float32
}

// SearchKNN returns the k nearest live neighbors of query under the
// index's configured metric, in max-heap order (spec.md §4.4.4): index 0
// is the farthest of the k, not the closest, the same array shape
// searchLayer's bounded result heap uses internally. Callers that want
// results sorted closest-first should use SearchKNNCloserFirst instead.
// filter, if non-nil, restricts results to labels for which it returns
// true. Filtered-out and soft-deleted nodes are still expanded as routing
// hops but never take one of the ef result places, so a narrow filter does
// not crowd matching labels out of the result set.
func (idx *Index) SearchKNN(query []float32, k int, filter func(label uint64) bool) ([]Neighbor, error) {
	results, err := idx.knn(query, k, filter)
	if err != nil {
		return nil, err
	}
	out := make([]Neighbor, len(results))
	for i, r := range results {
		out[i] = Neighbor{Label: idx.store.getLabel(r.slot), Distance: r.dist}
	}
	return out, nil
}

// SearchKNNCloserFirst returns the same k nearest neighbors SearchKNN
// would, sorted ascending by distance so index 0 is the closest match
// (spec.md §4.4.4).
func (idx *Index) SearchKNNCloserFirst(query []float32, k int, filter func(label uint64) bool) ([]Neighbor, error) {
	results, err := idx.knn(query, k, filter)
	if err != nil {
		return nil, err
	}
	sorted := (*maxHeap)(&results).sortedAscending()
	out := make([]Neighbor, len(sorted))
	for i, r := range sorted {
		out[i] = Neighbor{Label: idx.store.getLabel(r.slot), Distance: r.dist}
	}
	return out, nil
}

// knn runs the greedy upper-layer descent followed by a bounded
// searchLayer at level 0, then trims the result set to the k closest
// while preserving max-heap order (root = farthest of the k).
func (idx *Index) knn(query []float32, k int, filter func(label uint64) bool) ([]scoredSlot, error) {
	if idx.closed.Load() {
		return nil, ErrClosed
	}
	if len(query) != idx.cfg.Dim {
		return nil, ErrDimensionMismatch
	}
	if idx.cfg.Metric.normalizes() {
		query = normalize(query)
	}

	idx.mu.RLock()
	hasEntry := idx.graph.hasEntry
	entry := idx.graph.entry
	entryLevel := idx.graph.entryLevel
	idx.mu.RUnlock()

	if !hasEntry {
		return nil, nil
	}

	curr := entry
	for l := entryLevel; l > 0; l-- {
		curr = idx.graph.searchLayerClosest(query, curr, l)
	}

	ef := idx.cfg.Ef
	if k > ef {
		ef = k
	}
	// searchLayer returns its ef candidates sorted ascending (closest
	// first); keep the k closest, then re-heapify as a maxHeap so the
	// returned order matches SearchKNN's documented max-heap-view
	// contract (root = farthest of the k) rather than staying sorted.
	results := idx.graph.searchLayer(query, curr, ef, 0, filter)
	if len(results) > k {
		results = results[:k]
	}
	h := make(maxHeap, len(results))
	copy(h, results)
	heap.Init(&h)
	return []scoredSlot(h), nil
}

// GetDataByLabel returns the vector originally supplied to Add for
// label, undoing any internal normalization (spec.md §4.9): for metrics
// that normalize, the satellite original-vector table is returned
// verbatim; for metrics that don't, the working vector already equals
// the caller's input.
func (idx *Index) GetDataByLabel(label uint64) ([]float32, error) {
	if idx.closed.Load() {
		return nil, ErrClosed
	}
	slot, ok := idx.directory.lookup(label)
	if !ok {
		return nil, ErrLabelNotFound
	}
	if idx.store.getDeleted(slot) {
		return nil, ErrLabelNotFound
	}

	out := make([]float32, idx.cfg.Dim)
	if idx.originalNeeded() {
		idx.store.readOriginalF32(slot, out)
	} else {
		idx.store.readVector(slot, out)
	}
	return out, nil
}

// GetAllLabels returns every label ever bound in the index, split into
// those currently live and those soft-deleted (spec.md §4.4.7, §4.7), in
// unspecified order within each set.
func (idx *Index) GetAllLabels() (live []uint64, deleted []uint64) {
	entries := idx.directory.all()
	live = make([]uint64, 0, len(entries))
	deleted = make([]uint64, 0)
	for _, e := range entries {
		if idx.store.getDeleted(e.slot) {
			deleted = append(deleted, e.label)
		} else {
			live = append(live, e.label)
		}
	}
	return live, deleted
}
