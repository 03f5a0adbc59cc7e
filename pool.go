package listset

import "sync"

// nodePool recycles nodes for variants in which an unlinked node is owned
// exclusively by the goroutine that removed it. Variants that let readers
// traverse without locks must not recycle: a reader may still be standing
// on the removed node.
type nodePool[T any] struct {
	enabled bool
	p       sync.Pool
}

func newNodePool[T any](enabled bool) *nodePool[T] {
	np := &nodePool[T]{enabled: enabled}
	np.p.New = func() any { return new(node[T]) }
	return np
}

func (c *chain[T]) acquireNode(elem T, succ *node[T]) *node[T] {
	var n *node[T]
	if c.pool.enabled {
		n = c.pool.p.Get().(*node[T])
	} else {
		n = new(node[T])
	}
	n.elem = elem
	n.kind = interiorNode
	n.stripe = c.stripeOf(elem)
	n.next.Store(succ, false)
	return n
}

func (c *chain[T]) releaseNode(n *node[T]) {
	if !c.pool.enabled || n == nil || n == c.head || n == c.tail {
		return
	}

	var zero T
	n.elem = zero
	n.stripe = 0
	n.next.Store(nil, false)

	c.pool.p.Put(n)
}
