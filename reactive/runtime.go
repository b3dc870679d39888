// Package reactive implements dependency-tracked state containers and the
// batched computation runtime that keeps views synchronized with them.
package reactive

import (
	"fmt"
	"log"

	mapset "github.com/deckarep/golang-set/v2"
)

// OnErrorFunc receives errors returned by computation functions.
type OnErrorFunc func(from *Computation, err error)

// depKey identifies one observed (container, property) pair. The owner is
// always a *Map or *List pointer, so map-key comparability is by identity.
type depKey struct {
	owner any
	key   string
}

// Reserved property keys for non-property level dependencies.
const (
	lenKey  = "\x00len"
	keysKey = "\x00keys"
)

// Runtime owns every piece of state the engine needs: the dependency graph,
// the wrap-identity caches, the pending-computation queue and the active
// computation register. Nothing is package-global, so independent runtimes
// never observe each other.
//
// Execution is single-threaded and cooperative. The runtime performs no
// locking; callers must confine a runtime to one goroutine.
type Runtime struct {
	graph  map[depKey]mapset.Set[*Computation]
	active *Computation
	roots  int

	pending     []*Computation
	pendingSet  mapset.Set[*Computation]
	flushQueued bool

	maps  map[uintptr]*Map
	lists map[uintptr]*List

	onError OnErrorFunc

	// OnWake is called at most once per flush cycle, when the first
	// computation of a new cycle is scheduled. Hosts with an event loop use
	// it to arrange a deferred Flush at the end of the current turn.
	OnWake func()
}

// NewRuntime creates a runtime. Errors returned by computation functions are
// routed to onError; passing nil installs a logging fallback so errors are
// never silently dropped.
func NewRuntime(onError OnErrorFunc) *Runtime {
	if onError == nil {
		onError = func(from *Computation, err error) {
			log.Printf("reactive: unhandled computation error: %v", err)
		}
	}
	return &Runtime{
		graph:      map[depKey]mapset.Set[*Computation]{},
		pendingSet: mapset.NewThreadUnsafeSet[*Computation](),
		maps:       map[uintptr]*Map{},
		lists:      map[uintptr]*List{},
		onError:    onError,
	}
}

// Root establishes a setup scope for fn. State constructors (Wrap, WrapMap,
// WrapList) may only run inside a root or inside an active computation; the
// scope is how the mounting collaborator signals that user code is allowed
// to create state.
func Root(rt *Runtime, fn func() error) error {
	rt.roots++
	defer func() { rt.roots-- }()
	if err := fn(); err != nil {
		return fmt.Errorf("reactive root: %w", err)
	}
	return nil
}

func (rt *Runtime) inSetup() bool {
	return rt.roots > 0 || rt.active != nil
}

func (rt *Runtime) mustSetup(what string) {
	if !rt.inSetup() {
		panic("reactive: " + what + " called outside a Root or computation; establish a setup scope first")
	}
}

// track records a dependency edge from (owner, key) to the active
// computation. Reading with no active computation is a cheap no-op.
func (rt *Runtime) track(owner any, key string) {
	if rt.active == nil {
		return
	}
	k := depKey{owner: owner, key: key}
	set, ok := rt.graph[k]
	if !ok {
		set = mapset.NewThreadUnsafeSet[*Computation]()
		rt.graph[k] = set
	}
	set.Add(rt.active)
	rt.active.deps.Add(k)
}

// notify schedules every computation depending on (owner, key). A computation
// notifying itself mid-run is suppressed; it stays schedulable from external
// writes.
func (rt *Runtime) notify(owner any, key string) {
	set, ok := rt.graph[depKey{owner: owner, key: key}]
	if !ok {
		return
	}
	for _, c := range set.ToSlice() {
		if c.running {
			continue
		}
		rt.schedule(c)
	}
}

// detach removes every dependency edge recorded for c, pruning empty graph
// entries so conditionally-read properties do not leak.
func (rt *Runtime) detach(c *Computation) {
	c.deps.Each(func(k depKey) bool {
		if set, ok := rt.graph[k]; ok {
			set.Remove(c)
			if set.Cardinality() == 0 {
				delete(rt.graph, k)
			}
		}
		return false
	})
	c.deps.Clear()
}
