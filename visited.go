// Epoch-tagged visited sets for graph traversal.
//
// searchLayer needs a "have I seen this slot yet" set on every call.
// Allocating and zeroing a fresh one per query is wasted work under
// concurrent query load, so — following the sync.Pool buffer-reuse
// pattern other_examples/page.go uses for compact buffers — visited sets
// are pooled and reset cheaply between uses via an epoch counter instead
// of a full memset: a slot is "visited in this call" when its stamp
// equals the set's current epoch, not some fixed sentinel value.
package hnsw

import "sync"

type visitedSet struct {
	stamps []uint32
	epoch  uint32
}

func (v *visitedSet) reset(capacity int) {
	if cap(v.stamps) < capacity {
		v.stamps = make([]uint32, capacity)
		v.epoch = 0
	}
	v.stamps = v.stamps[:capacity]
	v.epoch++
	if v.epoch == 0 {
		// Wrapped after 2^32 reuses; clear for real rather than mis-treat
		// every slot as already visited.
		for i := range v.stamps {
			v.stamps[i] = 0
		}
		v.epoch = 1
	}
}

func (v *visitedSet) visit(slot uint32) bool {
	if v.stamps[slot] == v.epoch {
		return false
	}
	v.stamps[slot] = v.epoch
	return true
}

func (v *visitedSet) isVisited(slot uint32) bool {
	return v.stamps[slot] == v.epoch
}

var visitedPool = sync.Pool{
	New: func() any { return &visitedSet{} },
}

func getVisitedSet(capacity int) *visitedSet {
	v := visitedPool.Get().(*visitedSet)
	v.reset(capacity)
	return v
}

func putVisitedSet(v *visitedSet) {
	visitedPool.Put(v)
}
