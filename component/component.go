// Package component is the registration sugar over the reactive runtime and
// template renderer: named setup functions, mounted once per container, with
// props forwarded as reactive records.
package component

import (
	"fmt"

	"github.com/delaneyj/domparty/dom"
	"github.com/delaneyj/domparty/reactive"
	"github.com/delaneyj/domparty/template"
)

// Setup runs once per mount inside a reactive setup scope. It creates the
// component's state through ctx and returns the render function whose reads
// are tracked on every re-run.
type Setup func(ctx *Ctx) (render func() *template.Result, err error)

// Ctx is what a setup function sees: the runtime (for state construction),
// the renderer (for nested manual renders) and the mount props.
type Ctx struct {
	Runtime  *reactive.Runtime
	Renderer *template.Renderer
	Props    *reactive.Map
}

// State wraps a record as component state. Only valid during setup or inside
// a computation, which Mount guarantees.
func (c *Ctx) State(raw map[string]any) *reactive.Map {
	return reactive.WrapMap(c.Runtime, raw)
}

// StateList wraps a sequence as component state.
func (c *Ctx) StateList(raw []any) *reactive.List {
	return reactive.WrapList(c.Runtime, raw)
}

// Registry maps component names to setup functions.
type Registry struct {
	defs map[string]Setup
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: map[string]Setup{}}
}

// Define registers a component. Redefining a name is a programming error and
// panics, matching the collision behavior users expect from registries.
func (reg *Registry) Define(name string, setup Setup) {
	if _, exists := reg.defs[name]; exists {
		panic(fmt.Sprintf("component: %q already defined", name))
	}
	reg.defs[name] = setup
}

// Handle is one mounted component: its render computation and teardown.
type Handle struct {
	comp *reactive.Computation
}

// Stop detaches the component's render computation. DOM content is left in
// place; callers clear the container if they want it gone.
func (h *Handle) Stop() {
	h.comp.Stop()
}

// Mount instantiates a registered component into container. The setup
// function runs exactly once inside a reactive root; the returned render
// function runs under a tracked computation that re-renders the container
// whenever its dependencies change.
func (reg *Registry) Mount(rt *reactive.Runtime, r *template.Renderer, name string, props map[string]any, container *dom.Element) (*Handle, error) {
	setup, ok := reg.defs[name]
	if !ok {
		return nil, fmt.Errorf("component: %q not defined", name)
	}

	var render func() *template.Result
	err := reactive.Root(rt, func() error {
		ctx := &Ctx{
			Runtime:  rt,
			Renderer: r,
			Props:    reactive.WrapMap(rt, props),
		}
		var err error
		render, err = setup(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("component %q: %w", name, err)
	}
	if render == nil {
		return nil, fmt.Errorf("component %q: setup returned no render function", name)
	}

	comp := reactive.Effect(rt, func() error {
		return r.Render(render(), container)
	})
	return &Handle{comp: comp}, nil
}
