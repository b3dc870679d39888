package reactive_test

import (
	"errors"
	"testing"

	"github.com/delaneyj/domparty/reactive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, rt *reactive.Runtime, raw map[string]any) *reactive.Map {
	t.Helper()
	var m *reactive.Map
	require.NoError(t, reactive.Root(rt, func() error {
		m = reactive.WrapMap(rt, raw)
		return nil
	}))
	return m
}

// n writes to observed state within one synchronous turn cause at most one
// re-run of each affected computation
func TestBatchingCollapsesWrites(t *testing.T) {
	rt := reactive.NewRuntime(nil)
	m := newStore(t, rt, map[string]any{"count": 0})

	runs := 0
	reactive.Effect(rt, func() error {
		m.Get("count")
		runs++
		return nil
	})
	assert.Equal(t, 1, runs)

	for i := 1; i <= 10; i++ {
		m.Set("count", i)
	}
	assert.Equal(t, 1, runs, "no re-run until the flush boundary")
	assert.Equal(t, 1, rt.Pending())

	rt.Settle()
	assert.Equal(t, 2, runs)
}

// a computation scheduled by several writes in one turn runs once, and a
// computation scheduled earlier runs before one scheduled later
func TestFlushOrderAndDedup(t *testing.T) {
	rt := reactive.NewRuntime(nil)
	m := newStore(t, rt, map[string]any{"a": 0, "b": 0})

	var order []string
	reactive.Effect(rt, func() error {
		m.Get("a")
		order = append(order, "first")
		return nil
	})
	reactive.Effect(rt, func() error {
		m.Get("b")
		order = append(order, "second")
		return nil
	})
	order = nil

	m.Set("a", 1)
	m.Set("b", 1)
	m.Set("a", 2) // first is already pending
	rt.Settle()
	assert.Equal(t, []string{"first", "second"}, order)
}

// the host wake callback fires once per cycle no matter how many writes land
func TestWakeOncePerCycle(t *testing.T) {
	rt := reactive.NewRuntime(nil)
	m := newStore(t, rt, map[string]any{"x": 0})

	reactive.Effect(rt, func() error {
		m.Get("x")
		return nil
	})

	wakes := 0
	rt.OnWake = func() { wakes++ }

	m.Set("x", 1)
	m.Set("x", 2)
	m.Set("x", 3)
	assert.Equal(t, 1, wakes)

	rt.Settle()
	m.Set("x", 4)
	assert.Equal(t, 2, wakes)
}

// work scheduled during a flush lands in a fresh cycle instead of being run
// recursively
func TestReentrantScheduleRollsToNextCycle(t *testing.T) {
	rt := reactive.NewRuntime(nil)
	m := newStore(t, rt, map[string]any{"src": 0, "derived": 0})

	reactive.Effect(rt, func() error {
		m.Set("derived", m.GetInt("src")*2)
		return nil
	})
	downstream := 0
	reactive.Effect(rt, func() error {
		m.Get("derived")
		downstream++
		return nil
	})
	downstream = 0

	m.Set("src", 5)
	more := rt.Flush() // runs the deriving computation, schedules downstream
	assert.True(t, more)
	assert.Equal(t, 0, downstream)

	rt.Settle()
	assert.Equal(t, 1, downstream)
	assert.Equal(t, 10, m.GetInt("derived"))
}

// a computation writing to its own dependency mid-run does not schedule
// itself, but stays schedulable from external writes
func TestSelfNotifySuppressed(t *testing.T) {
	rt := reactive.NewRuntime(nil)
	m := newStore(t, rt, map[string]any{"n": 0})

	runs := 0
	reactive.Effect(rt, func() error {
		runs++
		m.Set("n", m.GetInt("n")+1)
		return nil
	})
	assert.Equal(t, 1, runs)
	assert.Equal(t, 0, rt.Pending())

	m.Set("n", 100)
	rt.Settle()
	assert.Equal(t, 2, runs)
	assert.Equal(t, 101, m.GetInt("n"))
}

// dependencies reflect only the most recent run: after a branch flips, writes
// to the no-longer-read property must not re-run the computation
func TestDependencyPruning(t *testing.T) {
	rt := reactive.NewRuntime(nil)
	m := newStore(t, rt, map[string]any{"flag": true, "left": 0, "right": 0})

	runs := 0
	reactive.Effect(rt, func() error {
		runs++
		if m.GetBool("flag") {
			m.Get("left")
		} else {
			m.Get("right")
		}
		return nil
	})
	assert.Equal(t, 1, runs)

	m.Set("flag", false)
	rt.Settle()
	assert.Equal(t, 2, runs)

	m.Set("left", 99) // pruned after the flip
	rt.Settle()
	assert.Equal(t, 2, runs)

	m.Set("right", 1)
	rt.Settle()
	assert.Equal(t, 3, runs)
}

// Stop detaches a computation for good: no further notification reaches it
func TestStopDetaches(t *testing.T) {
	rt := reactive.NewRuntime(nil)
	m := newStore(t, rt, map[string]any{"x": 0})

	runs := 0
	c := reactive.Effect(rt, func() error {
		m.Get("x")
		runs++
		return nil
	})
	c.Stop()

	m.Set("x", 1)
	rt.Settle()
	assert.Equal(t, 1, runs)
	assert.NoError(t, c.Run(), "running a stopped computation is a no-op")
}

// computation errors are routed to the runtime error handler and do not stop
// the flush
func TestErrorRouting(t *testing.T) {
	boom := errors.New("boom")
	var caught []error
	rt := reactive.NewRuntime(func(_ *reactive.Computation, err error) {
		caught = append(caught, err)
	})
	m := newStore(t, rt, map[string]any{"x": 0})

	reactive.Effect(rt, func() error {
		m.Get("x")
		return boom
	})
	healthy := 0
	reactive.Effect(rt, func() error {
		m.Get("x")
		healthy++
		return nil
	})
	healthy = 0

	m.Set("x", 1)
	rt.Settle()
	assert.Equal(t, 1, healthy)
	require.Len(t, caught, 2) // initial run and the flushed re-run
	assert.ErrorIs(t, caught[1], boom)
}

// the counter scenario: render depends on count, two increments in one turn,
// one re-render showing the final value
func TestCounterScenario(t *testing.T) {
	rt := reactive.NewRuntime(nil)
	m := newStore(t, rt, map[string]any{"count": 0})

	renders := 0
	var shown int
	reactive.Effect(rt, func() error {
		shown = m.GetInt("count")
		renders++
		return nil
	})

	m.Set("count", m.GetInt("count")+1)
	m.Set("count", m.GetInt("count")+1)
	rt.Settle()

	assert.Equal(t, 2, renders, "initial render plus one batched update")
	assert.Equal(t, 2, shown)
}
