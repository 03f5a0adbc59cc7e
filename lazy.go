package listset

// lazy keeps a per-node removed mark, set under the node's lock before the
// node is unlinked. Member never locks: a marked node that is still linked is
// reported absent.
type lazy[T any] struct {
	*chain[T]
}

// validateUnmarked checks that pred and curr are both live and adjacent.
// Caller holds the locks of both nodes.
func (c *chain[T]) validateUnmarked(pred, curr *node[T]) bool {
	return !pred.marked() && !curr.marked() && pred.next.Ref() == curr
}

// retire logically deletes curr and then unlinks it. Caller holds the locks
// of pred and curr, so neither link can change underneath.
func (c *chain[T]) retire(pred, curr *node[T]) {
	succ := curr.next.Ref()
	curr.next.AttemptMark(succ, true)
	pred.next.Store(succ, false)
	c.removed()
}

func (s lazy[T]) member(key T) bool {
	curr := s.head.next.Ref()
	for s.before(curr, key) {
		curr = curr.next.Ref()
	}
	return s.matches(curr, key) && !curr.marked()
}

func (s lazy[T]) insert(key T) bool {
	for attempts := 1; ; attempts++ {
		pred, curr := s.findPredecessor(key)
		s.located(key)

		pred.mu.Lock()
		curr.mu.Lock()
		if s.validateUnmarked(pred, curr) {
			ok := !s.matches(curr, key)
			if ok {
				s.link(pred, curr, key)
			}
			curr.mu.Unlock()
			pred.mu.Unlock()
			return ok
		}
		curr.mu.Unlock()
		pred.mu.Unlock()

		s.backoff("insert", attempts)
	}
}

func (s lazy[T]) remove(key T) bool {
	for attempts := 1; ; attempts++ {
		pred, curr := s.findPredecessor(key)
		s.located(key)

		pred.mu.Lock()
		curr.mu.Lock()
		if s.validateUnmarked(pred, curr) {
			ok := s.matches(curr, key)
			if ok {
				s.retire(pred, curr)
			}
			curr.mu.Unlock()
			pred.mu.Unlock()
			return ok
		}
		curr.mu.Unlock()
		pred.mu.Unlock()

		s.backoff("remove", attempts)
	}
}
