// Add: insert a new label/vector pair, or update the vector at an
// existing label in place.
//
// Mirrors gibram's Add (other_examples/pkg-vector-index.go): draw a
// level, descend greedily from the entry point down to level+1, then at
// each level from min(level, entryLevel) down to 0 run searchLayer,
// heuristically select up to M neighbors, and wire the connection both
// ways with heuristic trimming on the neighbor side if it overflows.
// Generalized to this package's slot/label split, on-disk adjacency, and
// the single collapsed lock order resolved in spec.md §9: Add takes the
// directory lock only inside lookup/allocate, writes the new node's own
// record, and then, once per layer, locks the new slot plus every
// neighbor it rewires at that layer in ascending order (lockMany, under
// the slot-lock structural read lock) while it rewrites their adjacency.
package hnsw

func (idx *Index) Add(label uint64, vector []float32) error {
	if idx.closed.Load() {
		return ErrClosed
	}
	if len(vector) != idx.cfg.Dim {
		return ErrDimensionMismatch
	}
	raw := vector
	working := vector
	if idx.cfg.Metric.normalizes() {
		working = normalize(vector)
	}

	if slot, ok := idx.directory.lookup(label); ok {
		return idx.replaceInPlace(slot, working, raw)
	}
	return idx.insertNew(label, working, raw)
}

func (idx *Index) insertNew(label uint64, vector, raw []float32) error {
	slot, err := idx.directory.allocate(label)
	if err == ErrCapacityExceeded {
		if !idx.cfg.AutoResize {
			return ErrCapacityExceeded
		}
		if err2 := idx.growLocked(idx.currentCapacity() * 2); err2 != nil {
			return err2
		}
		slot, err = idx.directory.allocate(label)
	}
	if err == errLabelExists {
		// Another Add bound this label between Add's lookup and allocate.
		if existing, ok := idx.directory.lookup(label); ok {
			return idx.replaceInPlace(existing, vector, raw)
		}
	}
	if err != nil {
		return err
	}

	level := idx.drawLevel()

	idx.graph.links.ensureLevels(slot, level)
	idx.store.setLabel(slot, label)
	idx.store.setLevel(slot, level)
	idx.store.setDeleted(slot, false)
	if idx.originalNeeded() {
		idx.storeOriginal(slot, raw)
	}
	idx.store.writeVector(slot, vector)

	idx.mu.Lock()
	hadEntry := idx.graph.hasEntry
	entry := idx.graph.entry
	entryLevel := idx.graph.entryLevel
	if !hadEntry {
		idx.graph.entry = slot
		idx.graph.hasEntry = true
		idx.graph.entryLevel = level
	}
	idx.mu.Unlock()

	if !hadEntry {
		return nil
	}

	curr := entry
	for l := entryLevel; l > level; l-- {
		curr = idx.graph.searchLayerClosest(vector, curr, l)
	}

	top := min(level, entryLevel)
	for l := top; l >= 0; l-- {
		candidates := idx.graph.searchLayer(vector, curr, idx.cfg.EfConstruction, l, nil)
		selected := idx.graph.selectNeighborsHeuristic(vector, candidates, idx.graph.cfg.capAt(l))

		unlock := idx.slotLocks.lockMany(append(append([]uint32{}, selected...), slot))
		idx.graph.setNeighborsAt(slot, l, selected)
		for _, nb := range selected {
			back := append(idx.graph.neighborsAt(nb, l), slot)
			if len(back) > idx.graph.cfg.capAt(l)*2 {
				scratch := make([]float32, idx.cfg.Dim)
				scored := make([]scoredSlot, 0, len(back))
				nbVec := idx.graph.vectorOf(nb, scratch)
				for _, cand := range back {
					d := idx.graph.distance(nbVec, cand, make([]float32, idx.cfg.Dim))
					scored = append(scored, scoredSlot{cand, d})
				}
				sortScoredAscending(scored)
				back = idx.graph.selectNeighborsHeuristic(nbVec, scored, idx.graph.cfg.capAt(l))
			}
			idx.graph.setNeighborsAt(nb, l, back)
		}
		unlock()

		if len(selected) > 0 {
			curr = selected[0]
		}
	}

	if level > entryLevel {
		idx.mu.Lock()
		idx.graph.entry = slot
		idx.graph.entryLevel = level
		idx.mu.Unlock()
	}

	return nil
}

// replaceInPlace overwrites the vector stored at an existing label's
// slot without touching the graph topology, per spec.md §4.7: a repeat
// Add call on a live label updates the vector in place and leaves
// existing edges untouched until the next rebuild. If the label was
// tombstoned, this is the addSameLabel transition back to live (spec.md
// §3's state diagram) — the deleted bit is cleared, but connectivity is
// whatever the slot already has until the next Rebuild.
func (idx *Index) replaceInPlace(slot uint32, vector, raw []float32) error {
	unlock := idx.slotLocks.lockOne(slot)
	defer unlock()

	idx.store.setDeleted(slot, false)
	if idx.originalNeeded() {
		idx.storeOriginal(slot, raw)
	}
	idx.store.writeVector(slot, vector)
	return nil
}

func sortScoredAscending(s []scoredSlot) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1].dist > s[j].dist; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
