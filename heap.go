// Candidate and result priority queues used by searchLayer.
//
// gibram's HNSW (other_examples/pkg-vector-index.go) hand-rolls a
// priorityQueue type with its own sift-up/down. This package instead
// implements container/heap.Interface directly, the idiomatic Go way to
// get a binary heap without writing the swap logic by hand — same
// min-heap-of-candidates / max-heap-of-results shape, different
// mechanism.
package hnsw

import "container/heap"

type scoredSlot struct {
	slot uint32
	dist float32
}

// minHeap pops the closest (smallest distance) element first; used as
// the candidate frontier during searchLayer's greedy expansion.
type minHeap []scoredSlot

func (h minHeap) Len() int            { return len(h) }
func (h minHeap) Less(i, j int) bool  { return h[i].dist < h[j].dist }
func (h minHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x any)         { *h = append(*h, x.(scoredSlot)) }
func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// maxHeap pops the farthest (largest distance) element first; used as
// the bounded result set so the current worst candidate is always at the
// top and can be evicted in O(log ef) when a closer one arrives.
type maxHeap []scoredSlot

func (h maxHeap) Len() int            { return len(h) }
func (h maxHeap) Less(i, j int) bool  { return h[i].dist > h[j].dist }
func (h maxHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *maxHeap) Push(x any)         { *h = append(*h, x.(scoredSlot)) }
func (h *maxHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func newMinHeap() *minHeap {
	h := &minHeap{}
	heap.Init(h)
	return h
}

func newMaxHeap() *maxHeap {
	h := &maxHeap{}
	heap.Init(h)
	return h
}

func (h *minHeap) push(s scoredSlot) { heap.Push(h, s) }
func (h *minHeap) pop() scoredSlot   { return heap.Pop(h).(scoredSlot) }
func (h *minHeap) peek() scoredSlot  { return (*h)[0] }

func (h *maxHeap) push(s scoredSlot) { heap.Push(h, s) }
func (h *maxHeap) pop() scoredSlot   { return heap.Pop(h).(scoredSlot) }
func (h *maxHeap) peek() scoredSlot  { return (*h)[0] }

// sortedAscending drains a maxHeap's contents into a slice ordered by
// increasing distance (closest first), the order query results are
// returned in.
func (h *maxHeap) sortedAscending() []scoredSlot {
	n := h.Len()
	out := make([]scoredSlot, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = h.pop()
	}
	return out
}
