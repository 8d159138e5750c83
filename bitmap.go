// Page-granular dirty tracking.
//
// jpl-au/folio tracks exactly one crash bit for the whole file (the
// header's _e field, flipped around every write in header.go). A record
// table shared by thousands of concurrent inserts needs finer grain: one
// bit per page, so a flush only rewrites the pages actually touched since
// the last one instead of the whole table. dirtyBitmap is that
// generalization — same "dirty means must be flushed before the file is
// considered consistent" idea, sized to page count instead of 1 bit.
package hnsw

import (
	"math/bits"
	"sync"
)

type dirtyBitmap struct {
	mu             sync.Mutex
	recordsPerPage int
	words          []uint64
	numPages       int
}

func newDirtyBitmap(recordsPerPage, capacity int) *dirtyBitmap {
	d := &dirtyBitmap{recordsPerPage: recordsPerPage}
	d.resizePages(pageCount(recordsPerPage, capacity))
	return d
}

func pageCount(recordsPerPage, capacity int) int {
	if recordsPerPage <= 0 {
		recordsPerPage = 1
	}
	return (capacity + recordsPerPage - 1) / recordsPerPage
}

func (d *dirtyBitmap) resizePages(numPages int) {
	d.numPages = numPages
	d.words = make([]uint64, (numPages+63)/64)
}

func (d *dirtyBitmap) markSlot(slot uint32) {
	page := int(slot) / d.recordsPerPage
	d.mu.Lock()
	d.words[page/64] |= 1 << uint(page%64)
	d.mu.Unlock()
}

// grow extends the bitmap to cover a larger capacity, preserving existing
// bits. recordsPerPage is re-passed in case a future change ever makes it
// capacity-dependent; today it is constant for the life of an index.
func (d *dirtyBitmap) grow(recordsPerPage, newCapacity int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	newPages := pageCount(recordsPerPage, newCapacity)
	if newPages <= d.numPages {
		return
	}
	grown := make([]uint64, (newPages+63)/64)
	copy(grown, d.words)
	d.words = grown
	d.numPages = newPages
	d.recordsPerPage = recordsPerPage
}

// dirtyPages returns the sorted list of page indices with their dirty bit
// set, without clearing them.
func (d *dirtyBitmap) dirtyPages() []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	var pages []int
	for w, word := range d.words {
		for word != 0 {
			bit := bits.TrailingZeros64(word)
			page := w*64 + bit
			if page < d.numPages {
				pages = append(pages, page)
			}
			word &^= 1 << uint(bit)
		}
	}
	return pages
}

// clear resets every dirty bit, typically called right after a successful
// flush of all previously-reported dirty pages.
func (d *dirtyBitmap) clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.words {
		d.words[i] = 0
	}
}

// clearPage clears a single page's dirty bit, used when a flush commits
// pages one at a time rather than as a single batch.
func (d *dirtyBitmap) clearPage(page int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.words[page/64] &^= 1 << uint(page%64)
}
