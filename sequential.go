package listset

import (
	"github.com/go-kit/kit/log"
)

// chain is the node list shared by every variant together with the
// unsynchronized sorted-list algorithm. Variants wrap it with their own
// synchronization.
type chain[T any] struct {
	head    *node[T]
	tail    *node[T]
	compare func(a, b T) int
	variant Variant

	metrics *counters
	inst    Instruments
	pool    *nodePool[T]
	logger  log.Logger
	policy  retryPolicy

	stripes int
	hasher  func(elem any) uint64
	rng     *RNG
}

// before reports whether n sorts strictly before key. The tail never does.
func (c *chain[T]) before(n *node[T], key T) bool {
	return n.kind == interiorNode && c.compare(n.elem, key) < 0
}

// matches reports whether n is an interior node holding key.
func (c *chain[T]) matches(n *node[T], key T) bool {
	return n.kind == interiorNode && c.compare(n.elem, key) == 0
}

// findPredecessor returns the last node before the first node whose element
// is not less than key, and that node. If key is in the list it is held by
// curr; otherwise it belongs between pred and curr. The walk ends at the
// tail at the latest.
func (c *chain[T]) findPredecessor(key T) (pred, curr *node[T]) {
	pred = c.head
	curr = pred.next.Ref()
	for c.before(curr, key) {
		pred = curr
		curr = curr.next.Ref()
	}
	return pred, curr
}

// link splices a new node holding key between pred and curr.
func (c *chain[T]) link(pred, curr *node[T], key T) {
	n := c.acquireNode(key, curr)
	pred.next.Store(n, false)
	c.inserted()
}

// unlink detaches curr, which must be pred's successor, and hands its
// successor link to pred.
func (c *chain[T]) unlink(pred, curr *node[T]) {
	pred.next.Store(curr.next.Ref(), false)
	c.removed()
}

func (c *chain[T]) inserted() {
	c.metrics.AddLen(1)
	c.inst.Inserts.Add(1)
}

func (c *chain[T]) removed() {
	c.metrics.AddLen(-1)
	c.inst.Removes.Add(1)
}

func (c *chain[T]) seqMember(key T) bool {
	_, curr := c.findPredecessor(key)
	return c.matches(curr, key)
}

func (c *chain[T]) seqInsert(key T) bool {
	pred, curr := c.findPredecessor(key)
	if c.matches(curr, key) {
		return false
	}
	c.link(pred, curr, key)
	return true
}

func (c *chain[T]) seqRemove(key T) bool {
	pred, curr := c.findPredecessor(key)
	if !c.matches(curr, key) {
		return false
	}
	c.unlink(pred, curr)
	c.releaseNode(curr)
	return true
}

// sequential is the baseline. It is not safe for concurrent use.
type sequential[T any] struct {
	*chain[T]
}

func (s sequential[T]) member(key T) bool { return s.seqMember(key) }
func (s sequential[T]) insert(key T) bool { return s.seqInsert(key) }
func (s sequential[T]) remove(key T) bool { return s.seqRemove(key) }
