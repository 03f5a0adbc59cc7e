package listset

import (
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"runtime/pprof"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dumpGoroutinesOnFailure(t *testing.T) {
	t.Cleanup(func() {
		if t.Failed() {
			pprof.Lookup("goroutine").WriteTo(os.Stderr, 2)
		}
	})
}

func TestConcurrentDisjointInserts(t *testing.T) {
	dumpGoroutinesOnFailure(t)

	forEachVariant(t, ConcurrentVariants(), func(t *testing.T, v Variant) {
		s := New[int](v)

		goroutines := max(2*runtime.GOMAXPROCS(0), 8)
		const perGoroutine = 200

		var wg sync.WaitGroup
		for g := range goroutines {
			wg.Add(1)
			go func(g int) {
				defer wg.Done()
				// Interleave keys across goroutines so neighbours belong to
				// different writers.
				for i := range perGoroutine {
					if !s.Insert(i*goroutines + g) {
						t.Errorf("insert of fresh key %d reported duplicate", i*goroutines+g)
					}
				}
			}(g)
		}
		wg.Wait()

		total := goroutines * perGoroutine
		for k := range total {
			require.True(t, s.Member(k), "lost update for key %d", k)
		}
		require.Len(t, s.Elements(), total)
		require.NoError(t, s.Check())
	})
}

func TestConcurrentSameKeyInsert(t *testing.T) {
	forEachVariant(t, ConcurrentVariants(), func(t *testing.T, v Variant) {
		for range 300 {
			s := New[int](v)
			s.Insert(5)
			s.Insert(15)

			var wins atomic.Int32
			start := make(chan struct{})
			var wg sync.WaitGroup
			for range 2 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					<-start
					if s.Insert(10) {
						wins.Add(1)
					}
				}()
			}
			close(start)
			wg.Wait()

			require.EqualValues(t, 1, wins.Load())
			require.Equal(t, []int{5, 10, 15}, s.Elements())
			require.NoError(t, s.Check())
		}
	})
}

func TestInsertRemoveRacingOnOneKey(t *testing.T) {
	forEachVariant(t, ConcurrentVariants(), func(t *testing.T, v Variant) {
		s := New[int](v)
		s.Insert(0)
		s.Insert(2)

		const iterations = 5000
		var inserted, removed atomic.Int64

		start := make(chan struct{})
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			<-start
			for range iterations {
				if s.Insert(1) {
					inserted.Add(1)
				}
			}
		}()
		go func() {
			defer wg.Done()
			<-start
			for range iterations {
				if s.Remove(1) {
					removed.Add(1)
				}
			}
		}()
		close(start)
		wg.Wait()

		// Successful inserts and removes of one key must alternate in any
		// linearization, starting from absent.
		net := inserted.Load() - removed.Load()
		require.Contains(t, []int64{0, 1}, net)
		assert.Equal(t, net == 1, s.Member(1))
		require.NoError(t, s.Check())
	})
}

func TestConcurrentMixedOperationsStorm(t *testing.T) {
	dumpGoroutinesOnFailure(t)

	seed := time.Now().UnixNano()
	t.Logf("test seed=%d", seed)

	forEachVariant(t, ConcurrentVariants(), func(t *testing.T, v Variant) {
		s := New[int](v, WithStripes(4))

		const keySpace = 128
		goroutines := max(2*runtime.GOMAXPROCS(0), 4)
		const operationsPerGoroutine = 2000

		// balance[k] is successful inserts minus successful removes of k.
		var balance [keySpace]atomic.Int64

		var wg sync.WaitGroup
		for g := range goroutines {
			wg.Add(1)
			go func(seed int64) {
				defer wg.Done()
				r := rand.New(rand.NewSource(seed))
				for range operationsPerGoroutine {
					key := r.Intn(keySpace)
					switch r.Intn(3) {
					case 0:
						if s.Insert(key) {
							balance[key].Add(1)
						}
					case 1:
						if s.Remove(key) {
							balance[key].Add(-1)
						}
					case 2:
						s.Member(key)
					}
				}
			}(seed + int64(g))
		}
		wg.Wait()

		require.NoError(t, s.Check())
		for k := range keySpace {
			b := balance[k].Load()
			if b != 0 && b != 1 {
				t.Fatalf("key %d: inserts minus removes = %d", k, b)
			}
			if s.Member(k) != (b == 1) {
				t.Fatalf("key %d: member=%v but balance=%d", k, s.Member(k), b)
			}
		}
	})
}

func TestCascadeRemovalsWithReaders(t *testing.T) {
	// Readers walk unlocked here, which only the non-recycling variants
	// allow while writers run.
	variants := []Variant{VariantStriped, VariantOptimistic, VariantLazy, VariantLockFree}

	forEachVariant(t, variants, func(t *testing.T, v Variant) {
		s := New[int](v)

		const totalKeys = 1024
		for i := range totalKeys {
			s.Insert(i)
		}

		const workers = 8
		var removers sync.WaitGroup
		removers.Add(workers)
		for w := range workers {
			go func(offset int) {
				defer removers.Done()
				for k := offset; k < totalKeys; k += workers {
					if !s.Remove(k) {
						t.Errorf("remove of present key %d failed", k)
					}
				}
			}(w)
		}

		stop := make(chan struct{})
		errCh := make(chan error, 1)
		var reader sync.WaitGroup
		reader.Add(1)
		go func() {
			defer reader.Done()
			r := rand.New(rand.NewSource(1234))
			for {
				select {
				case <-stop:
					return
				default:
				}

				key := r.Intn(totalKeys)
				it := s.Iterator()
				if it.SeekGE(key) && it.Element() < key {
					select {
					case errCh <- fmt.Errorf("iterator returned %d < seek %d", it.Element(), key):
					default:
					}
					return
				}
			}
		}()

		removers.Wait()
		close(stop)
		reader.Wait()

		select {
		case err := <-errCh:
			t.Fatal(err)
		default:
		}

		assert.Zero(t, s.Len())
		assert.Empty(t, s.Elements())
		require.NoError(t, s.Check())
	})
}

func TestLazyMemberIgnoresHeldLocks(t *testing.T) {
	s := New[int](VariantLazy)
	for _, k := range []int{1, 2, 3} {
		s.Insert(k)
	}

	// Hold every node lock as a stalled writer would.
	var held []*node[int]
	for n := s.c.head; ; n = n.next.Ref() {
		n.mu.Lock()
		held = append(held, n)
		if n == s.c.tail {
			break
		}
	}
	defer func() {
		for _, n := range held {
			n.mu.Unlock()
		}
	}()

	done := make(chan [4]bool, 1)
	go func() {
		done <- [4]bool{s.Member(1), s.Member(2), s.Member(3), s.Member(4)}
	}()

	select {
	case got := <-done:
		assert.Equal(t, [4]bool{true, true, true, false}, got)
	case <-time.After(5 * time.Second):
		t.Fatal("Member blocked on a writer-held lock")
	}
}

func TestLockFreeMemberDuringStalledRemove(t *testing.T) {
	s := New[int](VariantLockFree)
	for _, k := range []int{1, 2, 3} {
		s.Insert(k)
	}

	marked := make(chan struct{})
	resume := make(chan struct{})
	afterLogicalDeleteHook = func(any) {
		close(marked)
		<-resume
	}
	defer func() { afterLogicalDeleteHook = nil }()

	removed := make(chan bool, 1)
	go func() { removed <- s.Remove(2) }()
	<-marked

	// The remover is parked between its mark and its unlink.
	done := make(chan bool, 1)
	go func() { done <- s.Member(2) }()
	select {
	case got := <-done:
		assert.False(t, got, "a marked node is absent even while still linked")
	case <-time.After(5 * time.Second):
		t.Fatal("Member waited on a stalled remover")
	}
	assert.True(t, s.Member(3))

	close(resume)
	require.True(t, <-removed)
	assert.Equal(t, []int{1, 3}, s.Elements())
	require.NoError(t, s.Check())
}

// nodeOf returns the linked node holding key. The set must be quiescent.
func nodeOf(t *testing.T, s *Set[int], key int) *node[int] {
	t.Helper()
	for n := s.c.head.next.Ref(); n != s.c.tail; n = n.next.Ref() {
		if n.elem == key {
			return n
		}
	}
	t.Fatalf("key %d not linked", key)
	return nil
}

// stallWriterAt leaves the set as a writer removing key would leave it if it
// stopped halfway: holding the locks of key and its predecessor, or for
// Lock-Free, parked between marking and unlinking. The returned func lets
// the writer finish.
func stallWriterAt(t *testing.T, s *Set[int], key int) func() {
	t.Helper()
	var once sync.Once

	switch s.Variant() {
	case VariantStriped:
		st := s.ops.(*striped[int])
		pred, curr := nodeOf(t, s, key-2), nodeOf(t, s, key)
		st.lockPair(pred, curr)
		return func() { once.Do(func() { st.unlockPair(pred, curr) }) }

	case VariantLockFree:
		parked := make(chan struct{})
		resume := make(chan struct{})
		afterLogicalDeleteHook = func(k any) {
			if k.(int) != key {
				return
			}
			close(parked)
			<-resume
		}
		removed := make(chan bool, 1)
		go func() { removed <- s.Remove(key) }()
		<-parked
		return func() {
			once.Do(func() {
				close(resume)
				assert.True(t, <-removed)
				afterLogicalDeleteHook = nil
			})
		}

	default:
		pred, curr := nodeOf(t, s, key-2), nodeOf(t, s, key)
		pred.mu.Lock()
		curr.mu.Lock()
		return func() {
			once.Do(func() {
				curr.mu.Unlock()
				pred.mu.Unlock()
			})
		}
	}
}

func TestDisjointWritersProceedPastStalledWriter(t *testing.T) {
	dumpGoroutinesOnFailure(t)

	variants := []Variant{VariantStriped, VariantHandOverHand, VariantOptimistic, VariantLazy, VariantLockFree}

	forEachVariant(t, variants, func(t *testing.T, v Variant) {
		// Stripe of k is k%16, so the stalled pair (60, 62) sits on
		// stripes 12 and 14 and the early keys never touch them.
		s := New[int](v,
			WithStripes(16),
			WithHasher(func(elem any) uint64 { return uint64(elem.(int)) }),
		)
		for k := 0; k < 64; k += 2 {
			require.True(t, s.Insert(k))
		}

		release := stallWriterAt(t, s, 62)
		defer release()

		done := make(chan [4]bool, 1)
		go func() {
			done <- [4]bool{s.Insert(1), s.Remove(2), s.Member(1), s.Member(2)}
		}()

		select {
		case got := <-done:
			assert.Equal(t, [4]bool{true, true, true, false}, got)
		case <-time.After(5 * time.Second):
			t.Fatal("writer on an early key waited on a stalled writer near the tail")
		}

		release()
		if v == VariantLockFree {
			assert.False(t, s.Member(62))
		}
		require.NoError(t, s.Check())
	})
}

func TestHandOverHandHoldsAtMostTwoLocks(t *testing.T) {
	s := New[int](VariantHandOverHand)
	for k := range 32 {
		s.Insert(k)
	}

	steps := 0
	handOverHandStepHook = func() {
		steps++
		held := 0
		for n := s.c.head; n != nil; n = n.next.Ref() {
			if n.mu.TryLock() {
				n.mu.Unlock()
			} else {
				held++
			}
		}
		assert.Equal(t, 2, held, "step %d", steps)
	}
	defer func() { handOverHandStepHook = nil }()

	require.True(t, s.Remove(20))
	require.True(t, s.Insert(20))
	assert.True(t, s.Member(31))
	assert.False(t, s.Member(40))
	assert.Greater(t, steps, 20)
}
