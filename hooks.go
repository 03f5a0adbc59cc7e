package listset

// Test hooks (kept separate so instrumentation doesn't clutter logic).
// They must not block or mutate the set in ways that affect correctness.
var (
	// afterLocateHook runs after an unlocked search, before locks are taken
	// (Striped, Optimistic, Lazy) or before the linking CAS (Lock-Free).
	afterLocateHook func(v Variant, key any)

	// afterLogicalDeleteHook runs in Lock-Free removal between marking the
	// node and unlinking it.
	afterLogicalDeleteHook func(key any)

	// handOverHandStepHook runs each time a hand-over-hand search has
	// locked its next node.
	handOverHandStepHook func()
)

func (c *chain[T]) located(key T) {
	if afterLocateHook != nil {
		afterLocateHook(c.variant, key)
	}
}

func stepped() {
	if handOverHandStepHook != nil {
		handOverHandStepHook()
	}
}
