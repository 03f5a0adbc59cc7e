package listset

// Iterator provides a forward-only view over the set. Logically deleted
// nodes are skipped.
//
// For the Striped, Optimistic, Lazy and Lock-Free variants iteration is
// weakly consistent: it never fails, and it reports every element present
// for the whole iteration, but elements inserted or removed meanwhile may or
// may not appear. For the other variants removed nodes are recycled at once,
// so iterate only while no operation is in flight.
type Iterator[T any] struct {
	s       *Set[T]
	current *node[T]
	elem    T
	valid   bool
}

// Iterator returns a new iterator positioned before the first element.
func (s *Set[T]) Iterator() *Iterator[T] {
	return &Iterator[T]{s: s}
}

// Valid reports whether the iterator currently points at an element.
func (it *Iterator[T]) Valid() bool {
	if it == nil {
		return false
	}
	return it.valid
}

// Element returns the element at the iterator's current position.
// It should only be called when Valid reports true.
func (it *Iterator[T]) Element() T {
	var zero T
	if it == nil || !it.valid {
		return zero
	}
	return it.elem
}

// SeekGE positions the iterator at the first element greater than or equal
// to key. It returns true if such an element exists.
func (it *Iterator[T]) SeekGE(key T) bool {
	if it == nil || it.s == nil {
		return false
	}

	_, curr := it.s.c.findPredecessor(key)
	return it.settle(curr)
}

// Next advances the iterator to the next element and reports whether it
// moved. If the iterator was not valid, it advances to the first element.
func (it *Iterator[T]) Next() bool {
	if it == nil || it.s == nil {
		return false
	}

	start := it.s.c.head
	if it.valid {
		start = it.current
	}
	return it.settle(start.next.Ref())
}

// settle moves to the first unmarked node at or after n.
func (it *Iterator[T]) settle(n *node[T]) bool {
	for n != nil && n.kind == interiorNode && n.marked() {
		n = n.next.Ref()
	}
	if n == nil || n.kind != interiorNode {
		it.invalidate()
		return false
	}
	it.current = n
	it.elem = n.elem
	it.valid = true
	return true
}

func (it *Iterator[T]) invalidate() {
	it.current = nil
	it.valid = false
	var zero T
	it.elem = zero
}

// Range calls fn for each element in order until fn returns false.
func (s *Set[T]) Range(fn func(elem T) bool) {
	it := s.Iterator()
	for it.Next() {
		if !fn(it.Element()) {
			return
		}
	}
}
