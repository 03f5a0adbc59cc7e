package listset

import (
	"math/bits"
	"math/rand/v2"
	"runtime"
	"sync/atomic"
)

type metricShard struct {
	retries atomic.Int64
	helps   atomic.Int64
	length  atomic.Int64
	// Pad to cache line size to prevent false sharing.
	_ [40]byte
}

// counters keeps a set's length and contention counts spread over per-P
// shards so that concurrent writers do not serialize on one cache line.
// The shard is picked with the runtime's per-thread generator; a shared
// generator would put every writer back on a single word.
type counters struct {
	shards []metricShard
	mask   uint32
}

// Stats is a point-in-time sum of a set's counters.
type Stats struct {
	Len     int64
	Retries int64
	Helps   int64
}

func newCounters() *counters {
	shardCount := nextPowerOfTwo(runtime.GOMAXPROCS(0))
	return &counters{
		shards: make([]metricShard, shardCount),
		mask:   uint32(shardCount - 1),
	}
}

func nextPowerOfTwo(v int) int {
	if v <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(v-1))
}

func (m *counters) shard() *metricShard {
	if m.mask == 0 {
		return &m.shards[0]
	}
	return &m.shards[rand.Uint32()&m.mask]
}

func (m *counters) IncRetry() {
	m.shard().retries.Add(1)
}

func (m *counters) IncHelp() {
	m.shard().helps.Add(1)
}

func (m *counters) AddLen(d int64) {
	m.shard().length.Add(d)
}

// Len sums the length shards. It is exact only at a quiescent point.
func (m *counters) Len() int64 {
	var total int64
	for i := range m.shards {
		total += m.shards[i].length.Load()
	}
	return total
}

func (m *counters) Stats() Stats {
	var s Stats
	for i := range m.shards {
		s.Len += m.shards[i].length.Load()
		s.Retries += m.shards[i].retries.Load()
		s.Helps += m.shards[i].helps.Load()
	}
	return s
}
