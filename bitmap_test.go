package hnsw

import "testing"

func TestDirtyBitmapMarksCorrectPage(t *testing.T) {
	recordsPerPage := 4
	d := newDirtyBitmap(recordsPerPage, 32)

	d.markSlot(5) // page 1
	pages := d.dirtyPages()
	if len(pages) != 1 || pages[0] != 1 {
		t.Errorf("dirtyPages() = %v, want [1]", pages)
	}
}

func TestDirtyBitmapClear(t *testing.T) {
	d := newDirtyBitmap(4, 32)
	d.markSlot(1)
	d.markSlot(9)
	d.clear()
	if pages := d.dirtyPages(); len(pages) != 0 {
		t.Errorf("dirtyPages() after clear = %v, want empty", pages)
	}
}

func TestDirtyBitmapGrowPreservesBits(t *testing.T) {
	d := newDirtyBitmap(4, 32)
	d.markSlot(1)
	d.grow(4, 256)
	pages := d.dirtyPages()
	if len(pages) != 1 || pages[0] != 0 {
		t.Errorf("dirtyPages() after grow = %v, want [0]", pages)
	}
}

func TestDirtyBitmapClearPage(t *testing.T) {
	d := newDirtyBitmap(4, 32)
	d.markSlot(1)
	d.markSlot(9)
	d.clearPage(0)
	pages := d.dirtyPages()
	if len(pages) != 1 || pages[0] != 2 {
		t.Errorf("dirtyPages() = %v, want [2]", pages)
	}
}
