package template

import (
	"fmt"
	"strings"

	"github.com/delaneyj/domparty/dom"
	"github.com/valyala/quicktemplate"
)

const (
	// Below this length the per-index algorithm always wins.
	bulkListMin = 256
	// Lists at least this long stream across idle steps instead of one
	// blocking append.
	sliceMin = 4096
	// Items appended per idle step.
	sliceChunk = 1024
	// A same-length update touching no more than 1/nth of the items is
	// cheaper per-index than a full bulk rewrite.
	bulkChangeDenom = 8
)

// listItem is the snapshot of one rendered list entry: its committed value,
// its instance when the entry is a template result, and the DOM nodes it
// occupies.
type listItem struct {
	value any
	inst  *instance
	nodes []dom.Node
}

// applyList runs the list reconciliation algorithm: per-index compare and
// update-in-place over the shared prefix, surplus append, deficit trailing
// removal. Large homogeneous lists of simple wrapper templates short-circuit
// into the bulk path.
func (p *contentPart) applyList(r *Renderer, vs []any) {
	if p.kind != ckList {
		p.clear()
		p.kind = ckList
	}
	// An earlier bulk pass that could not be mapped back to per-item nodes
	// leaves its output in extra; per-item diffing must start clean.
	if len(p.items) == 0 && len(p.extra) > 0 {
		p.clear()
		p.kind = ckList
	}

	if p.bulkEligible(vs) {
		p.applyBulk(r, vs)
		return
	}

	shared := len(vs)
	if len(p.items) < shared {
		shared = len(p.items)
	}
	for i := 0; i < shared; i++ {
		it := p.items[i]
		if contentEqual(it.value, vs[i]) {
			continue
		}
		p.updateItem(r, it, vs[i])
	}

	switch {
	case len(vs) > len(p.items):
		par := p.parent()
		ref := p.endRef()
		for i := len(p.items); i < len(vs); i++ {
			it := p.buildItem(r, vs[i])
			for _, n := range it.nodes {
				par.InsertBefore(n, ref)
			}
			p.items = append(p.items, it)
		}
	case len(vs) < len(p.items):
		par := p.parent()
		for _, it := range p.items[len(vs):] {
			for _, n := range it.nodes {
				par.RemoveChild(n)
			}
		}
		p.items = p.items[:len(vs)]
	}
}

// endRef returns the node after the last rendered item, i.e. the insertion
// point for appends.
func (p *contentPart) endRef() dom.Node {
	if len(p.items) == 0 {
		return p.afterAnchor()
	}
	last := p.items[len(p.items)-1]
	if len(last.nodes) == 0 {
		return p.afterAnchor()
	}
	par := p.parent()
	i := par.IndexOf(last.nodes[len(last.nodes)-1])
	children := par.Children()
	if i >= 0 && i+1 < len(children) {
		return children[i+1]
	}
	return nil
}

// updateItem reconciles one changed entry in place: a result with the same
// descriptor delegates into the existing child instance, a primitive reuses
// the existing text node, anything else rebuilds just this child.
func (p *contentPart) updateItem(r *Renderer, it *listItem, nv any) {
	r.stats.ItemsMutated++

	if res, ok := nv.(*Result); ok && it.inst != nil && it.inst.desc == res.Desc {
		it.inst.update(r, res.Values)
		it.value = nv
		return
	}
	if isPrimitiveValue(nv) && it.inst == nil && len(it.nodes) == 1 {
		if t, ok := it.nodes[0].(*dom.Text); ok {
			t.Data = fmt.Sprint(nv)
			it.value = nv
			r.stats.PartCommits++
			return
		}
	}

	par := p.parent()
	var ref dom.Node
	if len(it.nodes) > 0 {
		i := par.IndexOf(it.nodes[len(it.nodes)-1])
		children := par.Children()
		if i >= 0 && i+1 < len(children) {
			ref = children[i+1]
		}
	}
	for _, n := range it.nodes {
		par.RemoveChild(n)
	}
	fresh := p.buildItem(r, nv)
	for _, n := range fresh.nodes {
		par.InsertBefore(n, ref)
	}
	*it = *fresh
}

// buildItem materializes the detached nodes for one list entry.
func (p *contentPart) buildItem(r *Renderer, v any) *listItem {
	switch tv := v.(type) {
	case *Result:
		in, nodes := r.newInstance(tv.Desc)
		in.update(r, tv.Values)
		return &listItem{value: v, inst: in, nodes: nodes}
	case Raw:
		nodes, err := dom.ParseFragment(string(tv))
		if err != nil {
			r.logf("template: raw list item failed to parse, rendering as text: %v", err)
			return &listItem{value: v, nodes: []dom.Node{dom.NewText(string(tv))}}
		}
		return &listItem{value: v, nodes: nodes}
	case string:
		if looksLikeMarkup(tv) {
			if nodes, err := dom.ParseFragment(tv); err == nil {
				return &listItem{value: v, nodes: nodes}
			}
		}
		return &listItem{value: v, nodes: []dom.Node{dom.NewText(tv)}}
	default:
		s := fmt.Sprint(tv)
		if !isPrimitiveValue(tv) && isMisuseSignature(s) {
			r.logf("template: list item is %T; bind a nested template result or a primitive (rendering %q as text)", v, s)
		}
		return &listItem{value: v, nodes: []dom.Node{dom.NewText(s)}}
	}
}

// bulkEligible gates the serialize-everything path: the list is long enough,
// every entry is a single-slot simple wrapper sharing one descriptor with a
// primitive value, and a partial in-place update would not be cheaper.
func (p *contentPart) bulkEligible(vs []any) bool {
	if len(vs) < bulkListMin {
		return false
	}
	var desc *Descriptor
	for _, v := range vs {
		res, ok := v.(*Result)
		if !ok || !res.Desc.simple {
			return false
		}
		if desc == nil {
			desc = res.Desc
		} else if res.Desc != desc {
			return false
		}
		if !isPrimitiveValue(res.Values[0]) {
			return false
		}
	}
	if len(p.items) == len(vs) && len(p.items) > 0 {
		changed := 0
		for i, it := range p.items {
			if !contentEqual(it.value, vs[i]) {
				changed++
			}
		}
		if changed <= len(vs)/bulkChangeDenom {
			return false
		}
	}
	return true
}

// applyBulk discards the current list content and rebuilds it from one
// serialized markup string. Very large lists stream in chunks across idle
// steps under a cancellable job.
func (p *contentPart) applyBulk(r *Renderer, vs []any) {
	p.clear()
	p.kind = ckList
	r.stats.BulkReplaces++

	if len(vs) >= sliceMin {
		job := &sliceJob{part: p, values: append([]any(nil), vs...)}
		p.job = job
		r.scheduleIdle(func() { job.step(r) })
		return
	}
	p.appendChunk(r, vs)
}

// appendChunk serializes entries through the template's own literal
// segments, parses the combined markup once, and splices the nodes in at the
// tail of the list region.
func (p *contentPart) appendChunk(r *Renderer, vs []any) {
	if len(vs) == 0 {
		return
	}
	desc := vs[0].(*Result).Desc

	var b strings.Builder
	qw := quicktemplate.AcquireWriter(&b)
	for _, v := range vs {
		res := v.(*Result)
		qw.N().S(desc.segs[0])
		qw.E().V(res.Values[0])
		qw.N().S(desc.segs[1])
	}
	quicktemplate.ReleaseWriter(qw)

	nodes, err := dom.ParseFragment(b.String())
	if err != nil {
		r.logf("template: bulk list serialization failed to parse: %v", err)
		return
	}

	par := p.parent()
	ref := p.endRef()
	for _, n := range nodes {
		par.InsertBefore(n, ref)
	}

	if items := groupItems(vs, nodes); items != nil {
		p.items = append(p.items, items...)
	} else {
		// Could not map nodes back per item; keep them only for cleanup and
		// let the next update start fresh.
		p.extra = append(p.extra, nodes...)
	}
}

// groupItems assigns parsed nodes back to their source entries: one
// significant node per entry, with whitespace-only text attached to the
// preceding group. Returns nil when the mapping does not line up.
func groupItems(vs []any, nodes []dom.Node) []*listItem {
	items := make([]*listItem, 0, len(vs))
	var cur *listItem
	for _, n := range nodes {
		if t, ok := n.(*dom.Text); ok && strings.TrimSpace(t.Data) == "" {
			if cur != nil {
				cur.nodes = append(cur.nodes, n)
			}
			continue
		}
		if len(items) == len(vs) {
			return nil
		}
		cur = &listItem{value: vs[len(items)], nodes: []dom.Node{n}}
		items = append(items, cur)
	}
	if len(items) != len(vs) {
		return nil
	}
	return items
}

// sliceJob is one in-flight time-sliced list build. A superseding update to
// the same slot flips cancelled before the job's next step runs.
type sliceJob struct {
	part      *contentPart
	values    []any
	next      int
	cancelled bool
}

func (j *sliceJob) step(r *Renderer) {
	if j.cancelled {
		return
	}
	end := j.next + sliceChunk
	if end > len(j.values) {
		end = len(j.values)
	}
	j.part.appendChunk(r, j.values[j.next:end])
	r.stats.SliceSteps++
	j.next = end

	if j.next < len(j.values) {
		r.scheduleIdle(func() { j.step(r) })
		return
	}
	if j.part.job == j {
		j.part.job = nil
	}
}
