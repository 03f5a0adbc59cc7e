package listset

import (
	"runtime"

	"github.com/go-kit/kit/log/level"
)

// retryPolicy governs the unbounded retry loops of the Striped, Optimistic,
// Lazy and Lock-Free variants. Attempts are never capped and never sleep.
type retryPolicy struct {
	yieldAfter int
	warnAfter  int
}

// backoff records the failed attempt number attempts of op.
func (c *chain[T]) backoff(op string, attempts int) {
	c.metrics.IncRetry()
	c.inst.Retries.Add(1)

	if c.policy.warnAfter > 0 && attempts == c.policy.warnAfter {
		level.Warn(c.logger).Log(
			"msg", "operation keeps failing validation",
			"variant", c.variant,
			"op", op,
			"attempts", attempts,
		)
	}

	if c.policy.yieldAfter > 0 && attempts >= c.policy.yieldAfter {
		runtime.Gosched()
	}
}
