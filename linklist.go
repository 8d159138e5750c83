// Variable-length adjacency storage for layers above 0.
//
// record.go's fixed-stride level-0 record always has room for an M0
// neighbor list because every live node has a layer-0 list. Levels above
// 0 are the exception, not the rule (geometric decay per mL means most
// nodes never rise past layer 0-2), so they're kept out of the fixed
// stride entirely and held here instead, addressed per spec.md §6 "by an
// offset table in the header or by scanning" — this package chooses the
// scanning form: link_lists.bin holds self-describing per-slot records
// that decodeLinkArena walks in sequence, with no offset table.
package hnsw

import "sync"

// linkArena holds, per slot, the adjacency lists for every level above 0
// that slot participates in. Indexed by level starting at 1 (level 0
// always lives in the record table).
type linkArena struct {
	mu   sync.RWMutex
	byNode map[uint32][][]uint32 // byNode[slot][level-1] = neighbor slots
}

func newLinkArena() *linkArena {
	return &linkArena{byNode: make(map[uint32][][]uint32)}
}

func (a *linkArena) get(slot uint32, level int) []uint32 {
	if level <= 0 {
		return nil
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	levels := a.byNode[slot]
	idx := level - 1
	if idx >= len(levels) {
		return nil
	}
	return levels[idx]
}

func (a *linkArena) set(slot uint32, level int, neighbors []uint32) {
	if level <= 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	levels := a.byNode[slot]
	idx := level - 1
	for len(levels) <= idx {
		levels = append(levels, nil)
	}
	levels[idx] = append([]uint32(nil), neighbors...)
	a.byNode[slot] = levels
}

// ensureLevels allocates (empty) adjacency lists for every level 1..top
// for slot, called once when a node is first inserted at a level above 0.
func (a *linkArena) ensureLevels(slot uint32, top int) {
	if top <= 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	levels := a.byNode[slot]
	for len(levels) < top {
		levels = append(levels, []uint32{})
	}
	a.byNode[slot] = levels
}

// remove drops every level>0 adjacency list owned by slot. Slots are never
// reused, so no index operation calls it; Rebuild replaces the whole arena
// instead.
func (a *linkArena) remove(slot uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.byNode, slot)
}

// topLevel returns the highest level slot has an adjacency list for, or
// 0 if it only exists at layer 0.
func (a *linkArena) topLevel(slot uint32) int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.byNode[slot])
}

// encode serializes the arena to link_lists.bin's payload: for every
// slot with level>0 adjacency, a [slot, levelCount, (levelLen, entries...)*]
// record. Order is unspecified; decode rebuilds the map regardless.
func (a *linkArena) encode() []byte {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var buf []byte
	put32 := func(v uint32) {
		var b [4]byte
		byteOrder.PutUint32(b[:], v)
		buf = append(buf, b[:]...)
	}

	for slot, levels := range a.byNode {
		put32(slot)
		put32(uint32(len(levels)))
		for _, lvl := range levels {
			put32(uint32(len(lvl)))
			for _, n := range lvl {
				put32(n)
			}
		}
	}
	return buf
}

func decodeLinkArena(buf []byte) (*linkArena, error) {
	a := newLinkArena()
	get32 := func() (uint32, bool) {
		if len(buf) < 4 {
			return 0, false
		}
		v := byteOrder.Uint32(buf[:4])
		buf = buf[4:]
		return v, true
	}

	for len(buf) > 0 {
		slot, ok := get32()
		if !ok {
			return nil, ErrFormatMismatch
		}
		levelCount, ok := get32()
		if !ok {
			return nil, ErrFormatMismatch
		}
		levels := make([][]uint32, levelCount)
		for i := range levels {
			n, ok := get32()
			if !ok {
				return nil, ErrFormatMismatch
			}
			lvl := make([]uint32, n)
			for j := range lvl {
				v, ok := get32()
				if !ok {
					return nil, ErrFormatMismatch
				}
				lvl[j] = v
			}
			levels[i] = lvl
		}
		a.byNode[slot] = levels
	}
	return a, nil
}
