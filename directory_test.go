package hnsw

import "testing"

func TestDirectoryAllocateAndLookup(t *testing.T) {
	d := newLabelDirectory(HashXXHash3, 16)
	slot, err := d.allocate(100)
	if err != nil {
		t.Fatalf("allocate() error = %v", err)
	}
	got, ok := d.lookup(100)
	if !ok || got != slot {
		t.Errorf("lookup(100) = (%d, %v), want (%d, true)", got, ok, slot)
	}
}

func TestDirectoryAllocateDuplicateFails(t *testing.T) {
	d := newLabelDirectory(HashXXHash3, 16)
	if _, err := d.allocate(1); err != nil {
		t.Fatalf("first allocate() error = %v", err)
	}
	if _, err := d.allocate(1); err != errLabelExists {
		t.Errorf("second allocate() error = %v, want errLabelExists", err)
	}
}

func TestDirectoryBindingIsPermanent(t *testing.T) {
	d := newLabelDirectory(HashXXHash3, 16)
	slot, err := d.allocate(1)
	if err != nil {
		t.Fatalf("allocate(1) error = %v", err)
	}

	// Soft deletion lives entirely in storage (see delete.go); the
	// directory has no release/reuse mechanism at all, so label 1's
	// binding must still resolve and a different label must never be
	// handed slot 1.
	got, ok := d.lookup(1)
	if !ok || got != slot {
		t.Fatalf("lookup(1) = (%d, %v), want (%d, true)", got, ok, slot)
	}

	newSlot, err := d.allocate(2)
	if err != nil {
		t.Fatalf("allocate(2) error = %v", err)
	}
	if newSlot == slot {
		t.Errorf("allocate(2) reused label 1's slot %d, want a fresh slot", slot)
	}
}

func TestDirectoryCapacityExceeded(t *testing.T) {
	d := newLabelDirectory(HashXXHash3, 2)
	if _, err := d.allocate(1); err != nil {
		t.Fatal(err)
	}
	if _, err := d.allocate(2); err != nil {
		t.Fatal(err)
	}
	if _, err := d.allocate(3); err != ErrCapacityExceeded {
		t.Errorf("allocate() past capacity = %v, want ErrCapacityExceeded", err)
	}
}

func TestDirectoryGrowsBucketsUnderLoad(t *testing.T) {
	d := newLabelDirectory(HashXXHash3, 16)
	// Raise capacity the way growLocked does on resize, leaving the bucket
	// table at its initial size so allocate has to grow it.
	d.capacity = 1000
	initial := len(d.buckets)
	for i := uint64(0); i < 1000; i++ {
		if _, err := d.allocate(i); err != nil {
			t.Fatalf("allocate(%d) error = %v", i, err)
		}
	}
	if len(d.buckets) <= initial {
		t.Errorf("bucket count = %d after 1000 allocations, want more than initial %d", len(d.buckets), initial)
	}
	for i := uint64(0); i < 1000; i++ {
		if _, ok := d.lookup(i); !ok {
			t.Errorf("lookup(%d) failed after bucket growth", i)
		}
	}
}

func TestDirectoryBlake2bAlgorithm(t *testing.T) {
	d := newLabelDirectory(HashBlake2b, 16)
	slot, err := d.allocate(7)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := d.lookup(7)
	if !ok || got != slot {
		t.Errorf("lookup with blake2b = (%d, %v), want (%d, true)", got, ok, slot)
	}
}
