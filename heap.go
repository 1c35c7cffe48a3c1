package desmod

import "container/heap"

// priorityHeap is a generic adapter over container/heap, generalizing the
// teacher package's timerHeap (see loop.go's timerHeap in the eventloop
// package this kernel is derived from) to an injectable ordering. The
// kernel keeps a separate min-heap (for at-least thresholds, earliest
// scheduled time) and max-heap (for at-most thresholds) rather than
// negating a single comparator, per the source design notes.
type priorityHeap[T any] struct {
	items []T
	less  func(a, b T) bool
}

func newPriorityHeap[T any](less func(a, b T) bool) *priorityHeap[T] {
	return &priorityHeap[T]{less: less}
}

func (h *priorityHeap[T]) Len() int { return len(h.items) }

func (h *priorityHeap[T]) Less(i, j int) bool { return h.less(h.items[i], h.items[j]) }

func (h *priorityHeap[T]) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *priorityHeap[T]) Push(x any) { h.items = append(h.items, x.(T)) }

func (h *priorityHeap[T]) Pop() any {
	old := h.items
	n := len(old)
	x := old[n-1]
	var zero T
	old[n-1] = zero
	h.items = old[:n-1]
	return x
}

func (h *priorityHeap[T]) top() (T, bool) {
	if len(h.items) == 0 {
		var zero T
		return zero, false
	}
	return h.items[0], true
}

func (h *priorityHeap[T]) push(x T) { heap.Push(h, x) }

func (h *priorityHeap[T]) pop() T { return heap.Pop(h).(T) }

// removeWhere removes the first element matching pred, rebuilding heap
// structure. Returns false if no element matched.
func (h *priorityHeap[T]) removeWhere(pred func(T) bool) bool {
	for i, item := range h.items {
		if pred(item) {
			heap.Remove(h, i)
			return true
		}
	}
	return false
}
