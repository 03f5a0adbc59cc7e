package listset

import "sync/atomic"

// markedPair is never mutated after it is published.
type markedPair[T any] struct {
	ref  *T
	mark bool
}

// MarkedRef is an atomically updatable (reference, mark) pair.
//
// Every update installs a freshly allocated pair, so the reference and the
// mark always change together in a single compare-and-swap. A pair is kept
// alive by the garbage collector for as long as any goroutine holds it,
// which rules out ABA on the pair pointer itself.
//
// The zero value holds (nil, false) and is ready to use.
type MarkedRef[T any] struct {
	p atomic.Pointer[markedPair[T]]
}

// newMarkedRef returns a MarkedRef holding (ref, mark).
func newMarkedRef[T any](ref *T, mark bool) *MarkedRef[T] {
	r := &MarkedRef[T]{}
	r.Store(ref, mark)
	return r
}

// Load returns the reference and the mark as one consistent snapshot.
func (r *MarkedRef[T]) Load() (*T, bool) {
	p := r.p.Load()
	if p == nil {
		return nil, false
	}
	return p.ref, p.mark
}

// Ref returns the current reference.
func (r *MarkedRef[T]) Ref() *T {
	ref, _ := r.Load()
	return ref
}

// Marked returns the current mark.
func (r *MarkedRef[T]) Marked() bool {
	_, mark := r.Load()
	return mark
}

// Store unconditionally sets both fields.
func (r *MarkedRef[T]) Store(ref *T, mark bool) {
	r.p.Store(&markedPair[T]{ref: ref, mark: mark})
}

// CompareAndSet sets the pair to (newRef, newMark) if and only if the live
// pair equals (expRef, expMark). On failure the stored pair is unchanged.
func (r *MarkedRef[T]) CompareAndSet(expRef *T, expMark bool, newRef *T, newMark bool) bool {
	for {
		cur := r.p.Load()
		var curRef *T
		var curMark bool
		if cur != nil {
			curRef, curMark = cur.ref, cur.mark
		}
		if curRef != expRef || curMark != expMark {
			return false
		}
		if newRef == curRef && newMark == curMark {
			return true
		}
		if r.p.CompareAndSwap(cur, &markedPair[T]{ref: newRef, mark: newMark}) {
			return true
		}
		// Another pair was installed between Load and CAS; its fields may
		// still equal the expected ones, so re-check instead of failing.
	}
}

// AttemptMark sets the mark to newMark if the live reference is expRef,
// leaving the reference untouched.
func (r *MarkedRef[T]) AttemptMark(expRef *T, newMark bool) bool {
	for {
		cur := r.p.Load()
		var curRef *T
		var curMark bool
		if cur != nil {
			curRef, curMark = cur.ref, cur.mark
		}
		if curRef != expRef {
			return false
		}
		if curMark == newMark {
			return true
		}
		if r.p.CompareAndSwap(cur, &markedPair[T]{ref: curRef, mark: newMark}) {
			return true
		}
	}
}
