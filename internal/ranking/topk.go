package ranking

import "sort"

// linearInsertLimit is the size below which insertion scans linearly
// instead of binary searching.
const linearInsertLimit = 20

// TopK keeps the k best items seen so far in sorted order. less(a, b)
// reports whether a ranks before b. The result equals a stable sort of every
// added item truncated to k.
type TopK[T any] struct {
	k     int
	less  func(a, b T) bool
	items []T
}

func NewTopK[T any](k int, less func(a, b T) bool) *TopK[T] {
	capHint := k
	if capHint < 0 {
		capHint = 0
	}
	return &TopK[T]{
		k:     k,
		less:  less,
		items: make([]T, 0, capHint+1),
	}
}

// Add offers x and reports whether it was kept.
func (t *TopK[T]) Add(x T) bool {
	if t.k <= 0 {
		return false
	}
	n := len(t.items)
	if n == t.k && !t.less(x, t.items[n-1]) {
		return false
	}

	pos := t.position(x)
	t.items = append(t.items, x)
	copy(t.items[pos+1:], t.items[pos:n])
	t.items[pos] = x
	if len(t.items) > t.k {
		var zero T
		t.items[t.k] = zero
		t.items = t.items[:t.k]
	}
	return true
}

// position is the index of the first item x ranks before, so equal items
// keep arrival order.
func (t *TopK[T]) position(x T) int {
	n := len(t.items)
	if n < linearInsertLimit {
		for i := 0; i < n; i++ {
			if t.less(x, t.items[i]) {
				return i
			}
		}
		return n
	}
	return sort.Search(n, func(i int) bool { return t.less(x, t.items[i]) })
}

// Items returns the kept items, best first.
func (t *TopK[T]) Items() []T {
	out := make([]T, len(t.items))
	copy(out, t.items)
	return out
}

func (t *TopK[T]) Len() int { return len(t.items) }
