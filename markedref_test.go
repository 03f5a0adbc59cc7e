package listset

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkedRefZeroValue(t *testing.T) {
	var r MarkedRef[int]
	ref, mark := r.Load()
	assert.Nil(t, ref)
	assert.False(t, mark)

	a := new(int)
	require.True(t, r.CompareAndSet(nil, false, a, false))
	assert.Same(t, a, r.Ref())
}

func TestMarkedRefCompareAndSetRequiresBothFields(t *testing.T) {
	a, b := new(int), new(int)
	r := newMarkedRef(a, false)

	// Wrong mark, right reference.
	assert.False(t, r.CompareAndSet(a, true, b, false))
	// Right mark, wrong reference.
	assert.False(t, r.CompareAndSet(b, false, b, true))

	ref, mark := r.Load()
	assert.Same(t, a, ref, "failed CAS must leave the reference unchanged")
	assert.False(t, mark, "failed CAS must leave the mark unchanged")

	require.True(t, r.CompareAndSet(a, false, b, true))
	ref, mark = r.Load()
	assert.Same(t, b, ref)
	assert.True(t, mark)
}

func TestMarkedRefMarkOnlyAndRefOnlyUpdates(t *testing.T) {
	a, b := new(int), new(int)
	r := newMarkedRef(a, false)

	require.True(t, r.CompareAndSet(a, false, a, true), "mark-only update")
	ref, mark := r.Load()
	assert.Same(t, a, ref)
	assert.True(t, mark)

	// A marked link must refuse an unmarked expectation: this is what keeps an
	// insert from splicing behind a logically deleted node.
	assert.False(t, r.CompareAndSet(a, false, b, false))

	require.True(t, r.CompareAndSet(a, true, b, true), "reference-only update")
	ref, mark = r.Load()
	assert.Same(t, b, ref)
	assert.True(t, mark)
}

func TestMarkedRefAttemptMark(t *testing.T) {
	a, b := new(int), new(int)
	r := newMarkedRef(a, false)

	assert.False(t, r.AttemptMark(b, true))
	assert.False(t, r.Marked())

	assert.True(t, r.AttemptMark(a, true))
	assert.True(t, r.Marked())
	assert.Same(t, a, r.Ref())
}

func TestMarkedRefConcurrentMarkersExactlyOneWins(t *testing.T) {
	const goroutines = 16
	for range 200 {
		a := new(int)
		r := newMarkedRef(a, false)

		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)
		start := make(chan struct{})
		for range goroutines {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				if r.CompareAndSet(a, false, a, true) {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}()
		}
		close(start)
		wg.Wait()

		require.Equal(t, 1, wins)
	}
}

func TestMarkedRefNeverTearsUnderContention(t *testing.T) {
	refs := []*int{new(int), new(int)}
	r := newMarkedRef(refs[0], false)

	// Writers only ever install (refs[0], false) or (refs[1], true); a reader
	// seeing any other combination observed a partial update.
	stop := make(chan struct{})
	var wg sync.WaitGroup
	for w := range 4 {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; ; i++ {
				select {
				case <-stop:
					return
				default:
				}
				if (i+w)%2 == 0 {
					r.CompareAndSet(refs[0], false, refs[1], true)
				} else {
					r.CompareAndSet(refs[1], true, refs[0], false)
				}
			}
		}(w)
	}

	for range 100000 {
		ref, mark := r.Load()
		if (ref == refs[0]) == mark {
			close(stop)
			wg.Wait()
			t.Fatalf("torn read: ref0=%v mark=%v", ref == refs[0], mark)
		}
	}
	close(stop)
	wg.Wait()
}
