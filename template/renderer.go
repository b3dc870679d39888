package template

import (
	"fmt"
	"log"

	"github.com/cespare/xxhash/v2"
	"github.com/delaneyj/domparty/dom"
)

// Stats counts the DOM work a renderer has performed. Tests and benchmarks
// use it to verify change suppression and diff minimality.
type Stats struct {
	PartCommits    int
	ItemsMutated   int
	InstanceBuilds int
	BulkReplaces   int
	SliceSteps     int
}

// IdleFunc schedules one unit of deferred list work. The renderer re-arms
// itself after every step, so a host integrates time-sliced rendering by
// queueing the callback into its idle period.
type IdleFunc func(step func())

// Renderer owns everything one render root needs: the per-container
// instance registry, the runtime template cache, the idle-work hook and the
// diagnostic logger. Independent renderers share nothing.
type Renderer struct {
	instances map[*dom.Element]*instance
	byDigest  map[uint64]*Descriptor

	idle   IdleFunc
	logger *log.Logger

	stats Stats
}

// RendererOption configures a renderer.
type RendererOption func(*Renderer)

// WithIdle installs the idle-period scheduler used for time-sliced large
// list rendering. Without it, slice jobs run to completion synchronously.
func WithIdle(fn IdleFunc) RendererOption {
	return func(r *Renderer) { r.idle = fn }
}

// WithLogger redirects the diagnostic channel.
func WithLogger(l *log.Logger) RendererOption {
	return func(r *Renderer) { r.logger = l }
}

// NewRenderer creates an empty renderer.
func NewRenderer(opts ...RendererOption) *Renderer {
	r := &Renderer{
		instances: map[*dom.Element]*instance{},
		byDigest:  map[uint64]*Descriptor{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HTML is the runtime construction path for callers whose literal segments
// are not package-level Define sites. The compiled descriptor is cached by a
// digest of the segment sequence, so each distinct sequence parses at most
// once per renderer lifetime.
func (r *Renderer) HTML(segs []string, values ...any) *Result {
	h := xxhash.New()
	for _, seg := range segs {
		_, _ = h.WriteString(seg)
		_, _ = h.Write([]byte{0})
	}
	digest := h.Sum64()

	d, ok := r.byDigest[digest]
	if !ok {
		var err error
		d, err = Compile(segs)
		if err != nil {
			panic(err)
		}
		r.byDigest[digest] = d
	}
	return d.Bind(values...)
}

// Render reconciles v into container. The first render (or a render whose
// descriptor differs from the container's current instance) discards prior
// content and builds a fresh instance; a same-descriptor render skips all
// structural work and only updates parts whose values changed. Passing
// anything but a *Result is a usage error.
func (r *Renderer) Render(v any, container *dom.Element) error {
	res, ok := v.(*Result)
	if !ok {
		return fmt.Errorf("template: render requires a *Result, got %T", v)
	}

	in := r.instances[container]
	if in == nil || in.desc != res.Desc {
		if in != nil {
			in.cancelJobs()
		}
		container.RemoveAllChildren()
		var nodes []dom.Node
		in, nodes = r.newInstance(res.Desc)
		for _, n := range nodes {
			container.AppendChild(n)
		}
		r.instances[container] = in
	}
	in.update(r, res.Values)
	return nil
}

// Release forgets the instance bound to container and clears its content.
func (r *Renderer) Release(container *dom.Element) {
	if in, ok := r.instances[container]; ok {
		in.cancelJobs()
		delete(r.instances, container)
		container.RemoveAllChildren()
	}
}

// Stats returns a snapshot of the renderer's work counters.
func (r *Renderer) Stats() Stats {
	return r.stats
}

// ResetStats zeroes the work counters.
func (r *Renderer) ResetStats() {
	r.stats = Stats{}
}

func (r *Renderer) logf(format string, args ...any) {
	if r.logger != nil {
		r.logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

func (r *Renderer) scheduleIdle(step func()) {
	if r.idle == nil {
		step()
		return
	}
	r.idle(step)
}
