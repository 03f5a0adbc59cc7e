package listset

import (
	"cmp"
	"hash/maphash"
	"strings"

	"github.com/pkg/errors"
)

// Variant selects the synchronization discipline of a Set.
type Variant int

const (
	// VariantSequential is the unsynchronized baseline.
	VariantSequential Variant = iota
	// VariantCoarse guards the whole list with one mutex.
	VariantCoarse
	// VariantStriped guards nodes with a fixed array of mutexes.
	VariantStriped
	// VariantHandOverHand locks nodes pairwise while walking.
	VariantHandOverHand
	// VariantOptimistic searches unlocked, then locks and revalidates.
	VariantOptimistic
	// VariantLazy adds a removed mark and a lock-free Member.
	VariantLazy
	// VariantLockFree uses marked references and never locks.
	VariantLockFree
)

var variantNames = [...]string{
	VariantSequential:   "sequential",
	VariantCoarse:       "coarse",
	VariantStriped:      "striped",
	VariantHandOverHand: "hand-over-hand",
	VariantOptimistic:   "optimistic",
	VariantLazy:         "lazy",
	VariantLockFree:     "lock-free",
}

// ErrUnknownVariant is returned by ParseVariant for an unrecognized name.
var ErrUnknownVariant = errors.New("unknown variant")

// Variants lists every variant, baseline first.
func Variants() []Variant {
	return []Variant{
		VariantSequential,
		VariantCoarse,
		VariantStriped,
		VariantHandOverHand,
		VariantOptimistic,
		VariantLazy,
		VariantLockFree,
	}
}

// ConcurrentVariants lists every variant that is safe for concurrent use.
func ConcurrentVariants() []Variant {
	return Variants()[1:]
}

func (v Variant) String() string {
	if v < 0 || int(v) >= len(variantNames) {
		return "unknown"
	}
	return variantNames[v]
}

// ParseVariant maps a variant name, as printed by String, back to the
// Variant. Matching ignores case, and underscores stand for dashes.
func ParseVariant(name string) (Variant, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
	for v, n := range variantNames {
		if n == norm {
			return Variant(v), nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownVariant, "parse %q", name)
}

// recycles reports whether removed nodes are exclusively owned by the
// remover and may be reused at once.
func (v Variant) recycles() bool {
	switch v {
	case VariantSequential, VariantCoarse, VariantHandOverHand:
		return true
	default:
		return false
	}
}

type strategy[T any] interface {
	member(key T) bool
	insert(key T) bool
	remove(key T) bool
}

// Set is a sorted set of distinct elements kept in a singly linked list
// between two sentinels. All variants except VariantSequential are safe for
// concurrent use and linearizable.
type Set[T any] struct {
	c   *chain[T]
	ops strategy[T]
}

// New returns an empty set of an ordered element type.
func New[T cmp.Ordered](v Variant, opts ...Option) *Set[T] {
	seed := maphash.MakeSeed()
	hashOpt := WithHasher(func(elem any) uint64 {
		return maphash.Comparable(seed, elem.(T))
	})
	return NewFunc(v, cmp.Compare[T], append([]Option{hashOpt}, opts...)...)
}

// NewFunc returns an empty set ordered by compare, which must define a total
// order and return a negative number, zero or a positive number as
// cmp.Compare does. It panics on an unknown variant.
func NewFunc[T any](v Variant, compare func(a, b T) int, opts ...Option) *Set[T] {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}

	rng := newRNG()
	head, tail := newSentinels[T]()
	c := &chain[T]{
		head:    head,
		tail:    tail,
		compare: compare,
		variant: v,
		metrics: newCounters(),
		inst:    cfg.instruments,
		pool:    newNodePool[T](v.recycles()),
		logger:  cfg.logger,
		policy: retryPolicy{
			yieldAfter: cfg.yieldAfter,
			warnAfter:  cfg.warnAfter,
		},
		rng: rng,
	}

	s := &Set[T]{c: c}
	switch v {
	case VariantSequential:
		s.ops = sequential[T]{c}
	case VariantCoarse:
		s.ops = &coarse[T]{chain: c}
	case VariantStriped:
		c.stripes = cfg.stripes
		c.hasher = cfg.hasher
		s.ops = newStriped(c)
	case VariantHandOverHand:
		s.ops = handOverHand[T]{c}
	case VariantOptimistic:
		s.ops = optimistic[T]{c}
	case VariantLazy:
		s.ops = lazy[T]{c}
	case VariantLockFree:
		s.ops = lockFree[T]{c}
	default:
		panic(errors.Wrapf(ErrUnknownVariant, "listset: variant %d", int(v)))
	}
	return s
}

// Variant returns the set's synchronization discipline.
func (s *Set[T]) Variant() Variant {
	return s.c.variant
}

// Member reports whether key is in the set.
func (s *Set[T]) Member(key T) bool {
	return s.ops.member(key)
}

// Insert adds key. It returns false, leaving the set unchanged, if key is
// already present.
func (s *Set[T]) Insert(key T) bool {
	return s.ops.insert(key)
}

// Remove deletes key. It returns false, leaving the set unchanged, if key is
// absent.
func (s *Set[T]) Remove(key T) bool {
	return s.ops.remove(key)
}

// Head returns the head sentinel for a read-only walk of the chain. The walk
// is meaningful only while no operation is in flight.
func (s *Set[T]) Head() NodeView[T] {
	return s.c.head
}

// Len returns the number of elements. It is exact only at a quiescent point.
func (s *Set[T]) Len() int64 {
	return s.c.metrics.Len()
}

// Stats returns the set's length and contention counters.
func (s *Set[T]) Stats() Stats {
	return s.c.metrics.Stats()
}
