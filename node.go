package listset

import "sync"

type nodeKind uint8

const (
	interiorNode nodeKind = iota
	headNode
	tailNode
)

// node holds one element and a link to its successor.
// The mark on next is the node's own logical-deletion flag; lock-based
// variants other than Lazy and Striped never set it.
type node[T any] struct {
	elem   T
	kind   nodeKind
	next   MarkedRef[node[T]]
	mu     sync.Mutex
	stripe uint32
}

func newSentinels[T any]() (*node[T], *node[T]) {
	head := &node[T]{kind: headNode}
	tail := &node[T]{kind: tailNode}
	head.next.Store(tail, false)
	return head, tail
}

func (n *node[T]) marked() bool {
	return n.next.Marked()
}

// NodeView is a read-only view of one cell of the chain, used to walk and
// assert over a quiescent set. Element on a sentinel returns the zero value.
type NodeView[T any] interface {
	Element() T
	Next() NodeView[T]
	IsLast() bool
}

// Element returns the node's element.
func (n *node[T]) Element() T {
	return n.elem
}

// Next returns the successor, or nil past the tail.
func (n *node[T]) Next() NodeView[T] {
	next := n.next.Ref()
	if next == nil {
		return nil
	}
	return next
}

// IsLast reports whether n is the tail sentinel.
func (n *node[T]) IsLast() bool {
	return n.kind == tailNode
}
