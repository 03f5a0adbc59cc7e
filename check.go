package listset

import (
	"github.com/pkg/errors"
)

var (
	// ErrBrokenChain means the walk from the head fell off before the tail.
	ErrBrokenChain = errors.New("chain does not reach the tail")
	// ErrOutOfOrder means two reachable elements are not strictly ascending,
	// which also covers duplicates and cycles.
	ErrOutOfOrder = errors.New("elements not strictly ascending")
	// ErrMarkedReachable means a logically deleted node is still linked.
	ErrMarkedReachable = errors.New("removed node still reachable")
	// ErrLengthMismatch means the counted length disagrees with Len.
	ErrLengthMismatch = errors.New("length counter disagrees with chain")
)

// Check walks the chain from head to tail and verifies that it is strictly
// ascending, reaches the tail, holds no logically deleted node and agrees
// with Len. Call it only while no operation is in flight.
func (s *Set[T]) Check() error {
	c := s.c
	var (
		prev  *node[T]
		count int64
	)
	for n := c.head.next.Ref(); ; n = n.next.Ref() {
		if n == nil {
			return errors.Wrapf(ErrBrokenChain, "after %d elements", count)
		}
		if n.kind == tailNode {
			break
		}
		if n.marked() {
			return errors.Wrapf(ErrMarkedReachable, "at position %d", count)
		}
		if prev != nil && c.compare(prev.elem, n.elem) >= 0 {
			return errors.Wrapf(ErrOutOfOrder, "at position %d: %v then %v", count, prev.elem, n.elem)
		}
		prev = n
		count++
	}

	if got := s.Len(); got != count {
		return errors.Wrapf(ErrLengthMismatch, "walked %d, counter %d", count, got)
	}
	return nil
}

// Elements returns the elements in order. Like Check, it expects a
// quiescent set.
func (s *Set[T]) Elements() []T {
	var out []T
	for n := s.Head().Next(); n != nil && !n.IsLast(); n = n.Next() {
		out = append(out, n.Element())
	}
	return out
}
