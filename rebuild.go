// Rebuild and ValidateIntegrity.
//
// Grounded on gibram's Rebuild/ValidateIntegrity/TryLoadWithRebuild
// (other_examples/pkg-vector-index.go): snapshot every live vector,
// discard the graph, and re-insert from scratch with fresh levels;
// validate checks level bounds and that every adjacency entry of a live
// node points at an in-bounds slot bound to a label (a soft-deleted slot
// counts, since Delete leaves edges to it in place).
// Generalized from gibram's in-memory map rebuild to this package's
// slot/label split — rebuilding reuses each label's existing slot rather
// than allocating new ones, since Rebuild must not disturb the label
// directory's bindings (only the graph topology is being discarded).
package hnsw

import "fmt"

// Rebuild discards the current graph topology and reinserts every live
// label from scratch with freshly drawn levels, compacting away any
// soft-deleted tombstones' edges. It does not change which slot a label
// occupies.
func (idx *Index) Rebuild() error {
	if idx.closed.Load() {
		return ErrClosed
	}

	entries := idx.directory.all()
	type liveVec struct {
		label uint64
		slot  uint32
		vec   []float32
	}
	live := make([]liveVec, 0, len(entries))
	for _, e := range entries {
		if idx.store.getDeleted(e.slot) {
			continue
		}
		vec := make([]float32, idx.cfg.Dim)
		idx.store.readVector(e.slot, vec)
		live = append(live, liveVec{e.label, e.slot, vec})
	}

	idx.mu.Lock()
	idx.graph.links = newLinkArena()
	idx.graph.hasEntry = false
	idx.graph.entry = 0
	idx.graph.entryLevel = 0
	idx.mu.Unlock()

	for _, lv := range live {
		level := idx.drawLevel()
		idx.store.setLevel(lv.slot, level)
		idx.store.writeLevel0Adj(lv.slot, nil)
		idx.graph.links.ensureLevels(lv.slot, level)

		idx.mu.Lock()
		hadEntry := idx.graph.hasEntry
		entry := idx.graph.entry
		entryLevel := idx.graph.entryLevel
		if !hadEntry {
			idx.graph.entry = lv.slot
			idx.graph.hasEntry = true
			idx.graph.entryLevel = level
		}
		idx.mu.Unlock()

		if !hadEntry {
			continue
		}

		curr := entry
		for l := entryLevel; l > level; l-- {
			curr = idx.graph.searchLayerClosest(lv.vec, curr, l)
		}
		top := min(level, entryLevel)
		for l := top; l >= 0; l-- {
			candidates := idx.graph.searchLayer(lv.vec, curr, idx.cfg.EfConstruction, l, nil)
			selected := idx.graph.selectNeighborsHeuristic(lv.vec, candidates, idx.graph.cfg.capAt(l))
			unlock := idx.slotLocks.lockMany(append(append([]uint32{}, selected...), lv.slot))
			idx.graph.setNeighborsAt(lv.slot, l, selected)
			for _, nb := range selected {
				back := append(idx.graph.neighborsAt(nb, l), lv.slot)
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
			idx.graph.entry = lv.slot
			idx.graph.entryLevel = level
			idx.mu.Unlock()
		}
	}

	return nil
}

// ValidateIntegrity checks that every live slot's recorded level is in
// range and that its adjacency lists, up to that level, point only at
// in-bounds slots bound to a label. An edge to a soft-deleted slot is
// valid, since Delete leaves edges in place. It returns
// ErrInternalCorruption wrapped with detail if a check fails.
func (idx *Index) ValidateIntegrity() error {
	entries := idx.directory.all()
	live := make(map[uint32]bool, len(entries))
	bound := make(map[uint32]bool, len(entries))
	for _, e := range entries {
		bound[e.slot] = true
		if !idx.store.getDeleted(e.slot) {
			live[e.slot] = true
		}
	}

	for slot := range live {
		level := idx.store.getLevel(slot)
		if level < 0 || level > 32 {
			return fmt.Errorf("%w: slot %d has invalid level %d", ErrInternalCorruption, slot, level)
		}
		for l := 0; l <= level; l++ {
			for _, nb := range idx.graph.neighborsAt(slot, l) {
				if !idx.store.boundsOK(nb) {
					return fmt.Errorf("%w: slot %d level %d references out-of-bounds slot %d", ErrInternalCorruption, slot, l, nb)
				}
				if !bound[nb] {
					return fmt.Errorf("%w: slot %d level %d references unbound slot %d", ErrInternalCorruption, slot, l, nb)
				}
			}
		}
	}
	return nil
}
