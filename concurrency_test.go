package hnsw

import "testing"

func TestSortedUniqueSlots(t *testing.T) {
	got := sortedUniqueSlots([]uint32{5, 1, 5, 3, 1, 2})
	want := []uint32{1, 2, 3, 5}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestSlotLocksLockManyIsReentrantSafe(t *testing.T) {
	sl := newSlotLocks(8)
	unlock := sl.lockMany([]uint32{3, 1, 3, 5})
	unlock()

	// A second acquisition after unlock must not deadlock.
	done := make(chan struct{})
	go func() {
		u := sl.lockMany([]uint32{1, 5})
		u()
		close(done)
	}()
	<-done
}

func TestSlotLocksGrow(t *testing.T) {
	sl := newSlotLocks(2)
	sl.grow(10)
	unlock := sl.lockOne(9)
	unlock()
}
