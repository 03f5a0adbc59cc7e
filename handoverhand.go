package listset

// handOverHand locks each successor before releasing its predecessor, so a
// search always holds one or two adjacent nodes. Locks are taken head to
// tail only.
type handOverHand[T any] struct {
	*chain[T]
}

// lockedFind returns pred and curr with both locks held. It has the same
// result as findPredecessor.
func (s handOverHand[T]) lockedFind(key T) (pred, curr *node[T]) {
	pred = s.head
	pred.mu.Lock()
	curr = pred.next.Ref()
	curr.mu.Lock()
	stepped()
	for s.before(curr, key) {
		pred.mu.Unlock()
		pred = curr
		curr = curr.next.Ref()
		curr.mu.Lock()
		stepped()
	}
	return pred, curr
}

func (s handOverHand[T]) member(key T) bool {
	pred, curr := s.lockedFind(key)
	ok := s.matches(curr, key)
	pred.mu.Unlock()
	curr.mu.Unlock()
	return ok
}

func (s handOverHand[T]) insert(key T) bool {
	pred, curr := s.lockedFind(key)
	ok := !s.matches(curr, key)
	if ok {
		s.link(pred, curr, key)
	}
	pred.mu.Unlock()
	curr.mu.Unlock()
	return ok
}

func (s handOverHand[T]) remove(key T) bool {
	pred, curr := s.lockedFind(key)
	ok := s.matches(curr, key)
	if ok {
		s.unlink(pred, curr)
	}
	pred.mu.Unlock()
	curr.mu.Unlock()
	if ok {
		// Anyone who could reach curr had to hold pred first.
		s.releaseNode(curr)
	}
	return ok
}
