package listset

import "sync"

type stripeLock struct {
	sync.Mutex
	// Pad to cache line size to prevent false sharing.
	_ [56]byte
}

// striped guards the list with a fixed array of locks. Each node is bound to
// one stripe for life; holding a node's stripe is holding the node. An
// operation searches without locks, takes the stripes of predecessor and
// successor in ascending index order, then validates as the Lazy variant
// does.
type striped[T any] struct {
	*chain[T]
	locks []stripeLock
}

func newStriped[T any](c *chain[T]) *striped[T] {
	return &striped[T]{chain: c, locks: make([]stripeLock, c.stripes)}
}

// stripeOf picks the stripe for a new node. Sentinels and every node of a
// single-stripe set use stripe 0.
func (c *chain[T]) stripeOf(elem T) uint32 {
	if c.stripes <= 1 {
		return 0
	}
	if c.hasher != nil {
		return uint32(c.hasher(elem) % uint64(c.stripes))
	}
	return uint32(c.rng.Intn(c.stripes))
}

func (s *striped[T]) lockPair(pred, curr *node[T]) {
	lo, hi := pred.stripe, curr.stripe
	if lo > hi {
		lo, hi = hi, lo
	}
	s.locks[lo].Lock()
	if hi != lo {
		s.locks[hi].Lock()
	}
}

func (s *striped[T]) unlockPair(pred, curr *node[T]) {
	lo, hi := pred.stripe, curr.stripe
	if lo > hi {
		lo, hi = hi, lo
	}
	if hi != lo {
		s.locks[hi].Unlock()
	}
	s.locks[lo].Unlock()
}

// attempt runs fn with pred and curr locked and validated. It reports false
// when validation failed and the caller must search again.
func (s *striped[T]) attempt(key T, fn func(pred, curr *node[T]) bool) (ok, valid bool) {
	pred, curr := s.findPredecessor(key)
	s.located(key)

	s.lockPair(pred, curr)
	defer s.unlockPair(pred, curr)

	if !s.validateUnmarked(pred, curr) {
		return false, false
	}
	return fn(pred, curr), true
}

func (s *striped[T]) member(key T) bool {
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

func (s *striped[T]) insert(key T) bool {
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

func (s *striped[T]) remove(key T) bool {
	for attempts := 1; ; attempts++ {
		ok, valid := s.attempt(key, func(pred, curr *node[T]) bool {
			if !s.matches(curr, key) {
				return false
			}
			s.retire(pred, curr)
			return true
		})
		if valid {
			return ok
		}
		s.backoff("remove", attempts)
	}
}
