package listset

import "sync"

// coarse serializes every operation behind one lock.
type coarse[T any] struct {
	*chain[T]
	mu sync.Mutex
}

func (s *coarse[T]) member(key T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seqMember(key)
}

func (s *coarse[T]) insert(key T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seqInsert(key)
}

func (s *coarse[T]) remove(key T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seqRemove(key)
}
