// Soft deletion: markDelete (Delete) and unmarkDelete flip the per-slot
// deleted bit without touching the label directory or the graph's
// topology, leaving the slot's edges in place until the next Rebuild —
// gibram's Remove (other_examples/pkg-vector-index.go) reconnects
// neighbors immediately instead, but spec.md §4.10 explicitly calls for
// a soft-delete-then-rebuild model so a query hot-path never pays
// removal's graph-surgery cost, and §3 invariant 1 requires a deleted
// entry point to keep serving as a search jump-off rather than being
// reassigned.
package hnsw

// Delete soft-deletes label: it stops being returned from SearchKNN and
// GetDataByLabel, but its slot, label binding, and adjacency lists are
// left untouched so the node can still be traversed as a routing hop and
// so a later Add of the same label (or unmarkDelete) can revive it.
func (idx *Index) Delete(label uint64) error {
	if idx.closed.Load() {
		return ErrClosed
	}
	slot, ok := idx.directory.lookup(label)
	if !ok {
		return ErrLabelNotFound
	}

	unlock := idx.slotLocks.lockOne(slot)
	idx.store.setDeleted(slot, true)
	unlock()

	return nil
}

// UnmarkDelete clears label's soft-delete flag without altering
// connectivity (spec.md §4.4.5, §4.7): the node resumes appearing in
// query results with whatever edges it already has, which may be stale
// or absent if the graph was rebuilt while it was tombstoned.
func (idx *Index) UnmarkDelete(label uint64) error {
	if idx.closed.Load() {
		return ErrClosed
	}
	slot, ok := idx.directory.lookup(label)
	if !ok {
		return ErrLabelNotFound
	}

	unlock := idx.slotLocks.lockOne(slot)
	idx.store.setDeleted(slot, false)
	unlock()

	return nil
}
