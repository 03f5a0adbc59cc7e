// Package workload drives concurrent operation mixes against a set and
// verifies the outcome against per-key success counts.
package workload

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/metailurini/listset"
)

// Distribution picks the keys operations target.
type Distribution int

const (
	Uniform Distribution = iota
	Ascending
	Zipf
)

var (
	// ErrUnknownDistribution is returned by ParseDistribution.
	ErrUnknownDistribution = errors.New("unknown distribution")
	// ErrInconsistent means the final set disagrees with the history of
	// successful operations.
	ErrInconsistent = errors.New("set inconsistent with operation history")
)

func (d Distribution) String() string {
	switch d {
	case Uniform:
		return "uniform"
	case Ascending:
		return "ascending"
	case Zipf:
		return "zipf"
	default:
		return "unknown"
	}
}

// ParseDistribution maps a name to a Distribution. An empty name is Uniform.
func ParseDistribution(name string) (Distribution, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "uniform":
		return Uniform, nil
	case "ascending":
		return Ascending, nil
	case "zipf", "zipfian":
		return Zipf, nil
	default:
		return 0, errors.Wrapf(ErrUnknownDistribution, "parse %q", name)
	}
}

// Spec describes one run.
type Spec struct {
	Goroutines      int
	OpsPerGoroutine int
	KeyRange        int
	// Prefill inserts every other key below 2*Prefill, capped at KeyRange.
	Prefill       int
	InsertPercent int
	RemovePercent int
	Distribution  Distribution
	// Seed of zero picks one from the clock.
	Seed int64
}

// Result summarizes one run.
type Result struct {
	Variant  listset.Variant
	Seed     int64
	Ops      int64
	Inserted int64
	Removed  int64
	Hits     int64
	Elapsed  time.Duration
	Stats    listset.Stats
}

// Throughput returns operations per second.
func (r Result) Throughput() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Ops) / r.Elapsed.Seconds()
}

// Run prefills s, drives spec.Goroutines goroutines against it and then
// verifies that s holds exactly the keys whose successful inserts outnumber
// their successful removes. Cancelling ctx stops the goroutines early; the
// verification still runs on what was done.
func Run(ctx context.Context, s *listset.Set[int], spec Spec) (Result, error) {
	if spec.Goroutines <= 0 || spec.KeyRange <= 0 {
		return Result{}, errors.New("workload: goroutines and key range must be positive")
	}
	if spec.Seed == 0 {
		spec.Seed = time.Now().UnixNano()
	}

	balance := make([]atomic.Int64, spec.KeyRange)
	for i := 0; i < spec.Prefill && 2*i < spec.KeyRange; i++ {
		if s.Insert(2 * i) {
			balance[2*i].Add(1)
		}
	}

	res := Result{Variant: s.Variant(), Seed: spec.Seed}
	var ascending atomic.Uint64

	start := time.Now()
	var wg sync.WaitGroup
	for g := range spec.Goroutines {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			r := rand.New(rand.NewSource(seed))
			var zipf *rand.Zipf
			if spec.Distribution == Zipf && spec.KeyRange > 1 {
				zipf = rand.NewZipf(r, 1.2, 1, uint64(spec.KeyRange-1))
			}

			var ops, inserted, removed, hits int64
			for i := 0; i < spec.OpsPerGoroutine; i++ {
				if i%1024 == 0 && ctx.Err() != nil {
					break
				}

				var key int
				switch {
				case spec.Distribution == Ascending:
					key = int((ascending.Add(1) - 1) % uint64(spec.KeyRange))
				case zipf != nil:
					key = int(zipf.Uint64())
				default:
					key = r.Intn(spec.KeyRange)
				}

				switch p := r.Intn(100); {
				case p < spec.InsertPercent:
					if s.Insert(key) {
						balance[key].Add(1)
						inserted++
					}
				case p < spec.InsertPercent+spec.RemovePercent:
					if s.Remove(key) {
						balance[key].Add(-1)
						removed++
					}
				default:
					if s.Member(key) {
						hits++
					}
				}
				ops++
			}

			atomic.AddInt64(&res.Ops, ops)
			atomic.AddInt64(&res.Inserted, inserted)
			atomic.AddInt64(&res.Removed, removed)
			atomic.AddInt64(&res.Hits, hits)
		}(spec.Seed + int64(g))
	}
	wg.Wait()
	res.Elapsed = time.Since(start)
	res.Stats = s.Stats()

	if err := Verify(s, balance); err != nil {
		return res, err
	}
	return res, nil
}

// Verify checks the chain invariant of a quiescent s and that key k is
// present exactly when balance[k] is 1.
func Verify(s *listset.Set[int], balance []atomic.Int64) error {
	if err := s.Check(); err != nil {
		return errors.Wrap(err, "invariant")
	}

	for k := range balance {
		b := balance[k].Load()
		if b != 0 && b != 1 {
			return errors.Wrapf(ErrInconsistent, "key %d: inserts minus removes is %d", k, b)
		}
		if got := s.Member(k); got != (b == 1) {
			return errors.Wrapf(ErrInconsistent, "key %d: member=%t, history says %t", k, got, b == 1)
		}
	}

	for _, k := range s.Elements() {
		if k < 0 || k >= len(balance) {
			return errors.Wrapf(ErrInconsistent, "key %d outside the key range", k)
		}
	}
	return nil
}
