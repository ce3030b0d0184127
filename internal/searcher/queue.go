package searcher

import (
	"math"
	"slices"
)

// Item is a heap entry. Value is never owned by the heap.
type Item[P any] struct {
	Value    P
	Distance float64
	seq      uint64 // offer order, used to break distance ties when sorting
}

// BoundedMaxHeap retains the capacity smallest-distance items offered to it.
// It is a binary max-heap on Distance: the root holds the largest retained
// distance. It does NOT implement container/heap to avoid interface overhead.
type BoundedMaxHeap[P any] struct {
	items    []Item[P]
	capacity int
	offers   uint64
}

// NewBoundedMaxHeap creates a heap that retains at most capacity items.
// It panics if capacity is not positive; callers validate k first.
func NewBoundedMaxHeap[P any](capacity int) *BoundedMaxHeap[P] {
	if capacity <= 0 {
		panic("searcher: heap capacity must be positive")
	}
	return &BoundedMaxHeap[P]{
		items:    make([]Item[P], 0, capacity),
		capacity: capacity,
	}
}

// Offer proposes a candidate.
// While the heap is below capacity every offer is accepted. At capacity the
// candidate replaces the root only if its distance is strictly smaller;
// otherwise it is rejected and Offer returns false.
func (h *BoundedMaxHeap[P]) Offer(value P, distance float64) bool {
	item := Item[P]{Value: value, Distance: distance, seq: h.offers}
	h.offers++

	if len(h.items) < h.capacity {
		h.items = append(h.items, item)
		h.siftUp(len(h.items) - 1)
		return true
	}

	if distance < h.items[0].Distance {
		h.items[0] = item
		h.siftDown(0)
		return true
	}
	return false
}

// Worst returns the largest retained distance, i.e. the Nth-best distance
// found so far. Until the heap is full it returns +Inf and false.
func (h *BoundedMaxHeap[P]) Worst() (float64, bool) {
	if len(h.items) < h.capacity {
		return math.Inf(1), false
	}
	return h.items[0].Distance, true
}

// Len returns the number of retained items.
func (h *BoundedMaxHeap[P]) Len() int {
	return len(h.items)
}

// Cap returns the capacity of the heap.
func (h *BoundedMaxHeap[P]) Cap() int {
	return h.capacity
}

// Full reports whether the heap holds capacity items.
func (h *BoundedMaxHeap[P]) Full() bool {
	return len(h.items) == h.capacity
}

// Drain returns all retained items in heap order and empties the heap.
func (h *BoundedMaxHeap[P]) Drain() []Item[P] {
	out := h.items
	h.items = make([]Item[P], 0, h.capacity)
	return out
}

// DrainSorted returns all retained items ascending by distance and empties
// the heap. Equal distances keep the order in which they were offered.
func (h *BoundedMaxHeap[P]) DrainSorted() []Item[P] {
	out := h.Drain()
	slices.SortFunc(out, func(a, b Item[P]) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		default:
			return 0
		}
	})
	return out
}

func parent(i int) int { return (i - 1) / 2 }

func children(i int) (int, int) { return 2*i + 1, 2*i + 2 }

// siftUp moves the element at index i up the heap until the heap invariant is restored.
func (h *BoundedMaxHeap[P]) siftUp(i int) {
	for i > 0 {
		p := parent(i)
		if h.items[i].Distance <= h.items[p].Distance {
			break
		}
		h.items[i], h.items[p] = h.items[p], h.items[i]
		i = p
	}
}

// siftDown moves the element at index i down the heap until the heap invariant is restored.
func (h *BoundedMaxHeap[P]) siftDown(i int) {
	n := len(h.items)
	for {
		largest := i
		left, right := children(i)
		if left < n && h.items[left].Distance > h.items[largest].Distance {
			largest = left
		}
		if right < n && h.items[right].Distance > h.items[largest].Distance {
			largest = right
		}
		if largest == i {
			return
		}
		h.items[i], h.items[largest] = h.items[largest], h.items[i]
		i = largest
	}
}
