package reactive

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// Computation is a tracked function plus its live dependency set. It is
// created once per binding site, re-run any number of times, and torn down by
// whoever owns the binding via Stop.
type Computation struct {
	rt      *Runtime
	fn      func() error
	deps    mapset.Set[depKey]
	running bool
	stopped bool
}

// Effect creates a computation and runs fn once immediately with the
// computation installed as the active tracker. Dependencies always reflect
// only the most recent run: the full set is detached before every execution,
// so branchy reads are handled correctly.
func Effect(rt *Runtime, fn func() error) *Computation {
	c := &Computation{
		rt:   rt,
		fn:   fn,
		deps: mapset.NewThreadUnsafeSet[depKey](),
	}
	c.Run()
	return c
}

// Run re-executes the computation exactly as its initial run did. Errors from
// fn are routed to the runtime's error handler and also returned.
func (c *Computation) Run() error {
	if c.stopped {
		return nil
	}
	c.rt.detach(c)

	prev := c.rt.active
	c.rt.active = c
	c.running = true
	err := c.fn()
	c.running = false
	c.rt.active = prev

	if err != nil {
		c.rt.onError(c, err)
	}
	return err
}

// Stop detaches the computation from everything it observed and marks it
// inert. Further runs and notifications are no-ops.
func (c *Computation) Stop() {
	if c.stopped {
		return
	}
	c.stopped = true
	c.rt.detach(c)
}
