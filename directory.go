// Label directory: the bidirectional mapping between external uint64
// labels and internal slot indices.
//
// Grounded on jpl-au/folio's pluggable hash.go (hashLabel, same two
// algorithms) generalized from folio's string-keyed document IDs to an
// open-addressed table of uint64 labels, with linear probing — the
// structure gibram's plain map[uint64]*node (other_examples) stands in
// for conceptually, but spec.md requires an explicit directory with O(1)
// slot lookup. A label's binding, once made, is permanent: soft deletion
// is purely a storage-level flag (see delete.go) that never touches this
// table, since spec.md §3 forbids reusing a slot for a different label —
// only resize grows capacity, and only a repeat Add of the SAME label
// ever revives a tombstoned slot.
package hnsw

import (
	"errors"
	"sync"
)

// errLabelExists signals to Add's caller that the label is already bound
// to a slot, so an update-in-place path should run instead of allocating.
var errLabelExists = errors.New("hnsw: label already exists")

type dirState uint8

const (
	dirEmpty dirState = iota
	dirOccupied
)

type dirEntry struct {
	label uint64
	slot  uint32
	state dirState
}

// labelDirectory owns the label→slot mapping. It is locked independently
// of, and beneath, the index's structural lock but above any per-slot
// lock, per the lock ordering spec.md §7 requires. A bucket, once
// occupied, stays occupied for the lifetime of the index — whether the
// slot it names is live or soft-deleted is storage's concern, tracked by
// the per-slot deleted bit, not this table's.
type labelDirectory struct {
	mu sync.RWMutex

	alg     HashAlgorithm
	buckets []dirEntry
	count   int // occupied

	bloom *bloomFilter

	nextSlot uint32
	capacity uint32
}

const maxLoadFactorNum, maxLoadFactorDen = 7, 10 // grow past 70% load

func newLabelDirectory(alg HashAlgorithm, capacity int) *labelDirectory {
	d := &labelDirectory{
		alg:      alg,
		buckets:  make([]dirEntry, nextPow2(capacity*2)),
		bloom:    newBloomFilter(capacity),
		capacity: uint32(capacity),
	}
	return d
}

func nextPow2(n int) int {
	p := 16
	for p < n {
		p *= 2
	}
	return p
}

// lookup returns the slot bound to label, if any.
func (d *labelDirectory) lookup(label uint64) (uint32, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.bloom.mayContain(label) {
		return 0, false
	}
	return d.find(label)
}

// find performs the linear probe without taking the bloom filter
// shortcut; callers that already hold the lock and have ruled the bloom
// filter out (or are mutating) call this directly.
func (d *labelDirectory) find(label uint64) (uint32, bool) {
	mask := uint64(len(d.buckets) - 1)
	idx := hashLabel(label, d.alg) & mask
	start := idx
	for {
		e := d.buckets[idx]
		switch e.state {
		case dirEmpty:
			return 0, false
		case dirOccupied:
			if e.label == label {
				return e.slot, true
			}
		}
		idx = (idx + 1) & mask
		if idx == start {
			return 0, false
		}
	}
}

// allocate reserves a fresh slot for label by extending the high-water
// mark. It returns ErrCapacityExceeded if none remain; the caller is
// responsible for growing storage and retrying when AutoResize is
// enabled. Slots are never recycled from a deleted label — spec.md §3
// requires every slot a label ever occupied to keep naming that label.
func (d *labelDirectory) allocate(label uint64) (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.find(label); exists {
		return 0, errLabelExists
	}

	if d.nextSlot >= d.capacity {
		return 0, ErrCapacityExceeded
	}
	slot := d.nextSlot
	d.nextSlot++

	d.insertBucket(label, slot)
	return slot, nil
}

// bind records label→slot for a slot chosen by the caller. Open and
// RestoreSnapshot use it to rebuild the directory from the record table;
// it checks neither capacity nor an existing binding for label.
func (d *labelDirectory) bind(label uint64, slot uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.insertBucket(label, slot)
	if slot >= d.nextSlot {
		d.nextSlot = slot + 1
	}
}

func (d *labelDirectory) insertBucket(label uint64, slot uint32) {
	if (d.count+1)*maxLoadFactorDen > len(d.buckets)*maxLoadFactorNum {
		d.grow()
	}
	mask := uint64(len(d.buckets) - 1)
	idx := hashLabel(label, d.alg) & mask
	for {
		if d.buckets[idx].state != dirOccupied {
			d.buckets[idx] = dirEntry{label: label, slot: slot, state: dirOccupied}
			d.count++
			d.bloom.add(label)
			return
		}
		idx = (idx + 1) & mask
	}
}

// grow doubles the bucket array and rehashes every occupied entry.
// Callers must already hold d.mu.
func (d *labelDirectory) grow() {
	old := d.buckets
	d.buckets = make([]dirEntry, len(old)*2)
	d.count = 0
	mask := uint64(len(d.buckets) - 1)
	for _, e := range old {
		if e.state != dirOccupied {
			continue
		}
		idx := hashLabel(e.label, d.alg) & mask
		for d.buckets[idx].state == dirOccupied {
			idx = (idx + 1) & mask
		}
		d.buckets[idx] = e
		d.count++
	}
}

// all returns every (label, slot) pair ever bound, live or soft-deleted,
// used by GetAllLabels and Rebuild.
func (d *labelDirectory) all() []dirEntry {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]dirEntry, 0, d.count)
	for _, e := range d.buckets {
		if e.state == dirOccupied {
			out = append(out, e)
		}
	}
	return out
}
