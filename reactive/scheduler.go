package reactive

// schedule adds c to the pending queue if it is not already there and, for
// the first entry of a cycle, signals OnWake so the host can arrange a
// deferred Flush. Any number of writes within one synchronous turn collapse
// into one wake.
func (rt *Runtime) schedule(c *Computation) {
	if c.stopped || rt.pendingSet.Contains(c) {
		return
	}
	rt.pendingSet.Add(c)
	rt.pending = append(rt.pending, c)
	if !rt.flushQueued {
		rt.flushQueued = true
		if rt.OnWake != nil {
			rt.OnWake()
		}
	}
}

// Flush runs one batch cycle: it snapshots and clears the pending queue, then
// executes the snapshotted computations in the order they were scheduled.
// Work scheduled by those executions lands in a fresh cycle (OnWake fires
// again) rather than being run recursively; Flush reports whether such a
// follow-up cycle is waiting.
func (rt *Runtime) Flush() (more bool) {
	batch := rt.pending
	rt.pending = nil
	rt.pendingSet.Clear()
	rt.flushQueued = false

	for _, c := range batch {
		c.Run()
	}
	return len(rt.pending) > 0
}

// Settle flushes until no computation remains pending. Hosts without an
// event loop (tests, benchmarks) use it as the end-of-turn boundary.
func (rt *Runtime) Settle() {
	for rt.Flush() {
	}
}

// Pending reports how many computations await the next flush.
func (rt *Runtime) Pending() int {
	return len(rt.pending)
}
