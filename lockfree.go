package listset

// lockFree never locks. The mark on a node's outgoing link is its logical
// deletion flag; physical unlinking is a compare-and-set on the
// predecessor's link and may be done by any goroutine that passes by.
type lockFree[T any] struct {
	*chain[T]
}

// find returns adjacent pred and curr with both unmarked at the time they
// were read, unlinking every marked node it meets on the way. A failed
// unlink means pred itself changed, so the search starts over from the head.
func (s lockFree[T]) find(key T) (*node[T], *node[T]) {
	for attempts := 1; ; attempts++ {
		if pred, curr, ok := s.tryFind(key); ok {
			return pred, curr
		}
		s.backoff("find", attempts)
	}
}

func (s lockFree[T]) tryFind(key T) (pred, curr *node[T], ok bool) {
	pred = s.head
	curr = pred.next.Ref()
	for {
		succ, marked := curr.next.Load()
		for marked {
			if !pred.next.CompareAndSet(curr, false, succ, false) {
				return nil, nil, false
			}
			s.metrics.IncHelp()
			s.inst.Helps.Add(1)
			curr = succ
			succ, marked = curr.next.Load()
		}
		if !s.before(curr, key) {
			return pred, curr, true
		}
		pred = curr
		curr = succ
	}
}

// member is wait-free: it never helps and never restarts.
func (s lockFree[T]) member(key T) bool {
	curr := s.head.next.Ref()
	for s.before(curr, key) {
		curr = curr.next.Ref()
	}
	return s.matches(curr, key) && !curr.marked()
}

func (s lockFree[T]) insert(key T) bool {
	for attempts := 1; ; attempts++ {
		pred, curr := s.find(key)
		if s.matches(curr, key) {
			return false
		}
		s.located(key)

		n := s.acquireNode(key, curr)
		if pred.next.CompareAndSet(curr, false, n, false) {
			s.inserted()
			return true
		}
		s.backoff("insert", attempts)
	}
}

func (s lockFree[T]) remove(key T) bool {
	for attempts := 1; ; attempts++ {
		pred, curr := s.find(key)
		if !s.matches(curr, key) {
			return false
		}
		s.located(key)

		succ := curr.next.Ref()
		// Setting the mark is the linearization point. It fails if another
		// remover marked curr first or an insert changed curr's successor.
		if !curr.next.CompareAndSet(succ, false, succ, true) {
			s.backoff("remove", attempts)
			continue
		}
		s.removed()

		if afterLogicalDeleteHook != nil {
			afterLogicalDeleteHook(key)
		}

		if !pred.next.CompareAndSet(curr, false, succ, false) {
			// pred changed under us; a fresh search unlinks curr on its way.
			s.find(key)
		}
		return true
	}
}
