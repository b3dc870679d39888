package template

import (
	"strings"

	"github.com/delaneyj/domparty/dom"
)

// part is one live update handle bound to an interpolation slot.
type part interface {
	apply(r *Renderer, v any)
	cancel()
}

// instance is one concrete materialization of a descriptor: a cloned
// skeleton whose markers have been replaced by live parts. Structural
// identity is guaranteed by descriptor identity, so updates only touch
// leaf values.
type instance struct {
	desc  *Descriptor
	parts []part // sparse: a slot whose marker did not survive parsing stays nil
}

// newInstance clones the descriptor's skeleton, walks it in document order
// and materializes a part for every marker found. The returned nodes are
// detached and ready to mount.
func (r *Renderer) newInstance(desc *Descriptor) (*instance, []dom.Node) {
	frag := dom.NewElement("template")
	for _, n := range desc.nodes {
		frag.AppendChild(n.Clone())
	}

	in := &instance{
		desc:  desc,
		parts: make([]part, len(desc.slots)),
	}
	bindParts(frag, in.parts)

	nodes := append([]dom.Node(nil), frag.Children()...)
	frag.RemoveAllChildren()
	r.stats.InstanceBuilds++
	return in, nodes
}

// bindParts replaces comment markers with empty anchor text nodes and strips
// placeholder attributes, binding each slot index to its part.
func bindParts(el *dom.Element, parts []part) {
	for _, child := range append([]dom.Node(nil), el.Children()...) {
		switch tc := child.(type) {
		case *dom.Comment:
			if !strings.HasPrefix(tc.Data, markerPrefix) {
				continue
			}
			idx, ok := markerIndex(tc.Data)
			if !ok || idx >= len(parts) {
				continue
			}
			anchor := dom.NewText("")
			el.ReplaceChild(anchor, tc)
			parts[idx] = &contentPart{anchor: anchor}
		case *dom.Element:
			for _, a := range append([]dom.Attr(nil), tc.Attrs()...) {
				idx, ok := markerIndex(a.Value)
				if !ok || idx >= len(parts) {
					continue
				}
				tc.RemoveAttribute(a.Name)
				parts[idx] = &attrPart{el: tc, name: a.Name}
			}
			bindParts(tc, parts)
		}
	}
}

// update feeds each part its new value. Parts suppress unchanged commits
// themselves.
func (in *instance) update(r *Renderer, values []any) {
	for i, p := range in.parts {
		if p == nil || i >= len(values) {
			continue
		}
		p.apply(r, values[i])
	}
}

// cancelJobs invalidates any in-flight time-sliced list work.
func (in *instance) cancelJobs() {
	for _, p := range in.parts {
		if p != nil {
			p.cancel()
		}
	}
}
