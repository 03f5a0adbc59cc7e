package listset

// optimistic searches without locks, then locks predecessor and successor in
// list order and validates by walking from the head again. Removed nodes keep
// their forward link, so a search that wanders onto one still reaches the
// tail.
type optimistic[T any] struct {
	*chain[T]
}

// validateReachable checks that pred is still reachable from the head and
// still points at curr. Caller holds the locks of both nodes.
func (s optimistic[T]) validateReachable(pred, curr *node[T]) bool {
	for n := s.head; ; n = n.next.Ref() {
		if n == pred {
			return pred.next.Ref() == curr
		}
		if n.kind == tailNode || (n.kind == interiorNode && s.compare(n.elem, pred.elem) > 0) {
			return false
		}
	}
}

// attempt runs fn with pred and curr locked and validated. It reports false
// when validation failed and the operation has to start over.
func (s optimistic[T]) attempt(key T, fn func(pred, curr *node[T]) bool) (ok, valid bool) {
	pred, curr := s.findPredecessor(key)
	s.located(key)

	pred.mu.Lock()
	defer pred.mu.Unlock()
	curr.mu.Lock()
	defer curr.mu.Unlock()

	if !s.validateReachable(pred, curr) {
		return false, false
	}
	return fn(pred, curr), true
}

func (s optimistic[T]) member(key T) bool {
	for attempts := 1; ; attempts++ {
		ok, valid := s.attempt(key, func(_, curr *node[T]) bool {
			return s.matches(curr, key)
		})
		if valid {
			return ok
		}
		s.backoff("member", attempts)
	}
}

func (s optimistic[T]) insert(key T) bool {
	for attempts := 1; ; attempts++ {
		ok, valid := s.attempt(key, func(pred, curr *node[T]) bool {
			if s.matches(curr, key) {
				return false
			}
			s.link(pred, curr, key)
			return true
		})
		if valid {
			return ok
		}
		s.backoff("insert", attempts)
	}
}

func (s optimistic[T]) remove(key T) bool {
	for attempts := 1; ; attempts++ {
		ok, valid := s.attempt(key, func(pred, curr *node[T]) bool {
			if !s.matches(curr, key) {
				return false
			}
			s.unlink(pred, curr)
			return true
		})
		if valid {
			return ok
		}
		s.backoff("remove", attempts)
	}
}
