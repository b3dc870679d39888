package template

import (
	"fmt"
	"maps"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/delaneyj/domparty/dom"
)

// attrPart binds one interpolation slot to an element attribute, listener
// slot or live property, dispatched by attribute name.
type attrPart struct {
	el   *dom.Element
	name string

	committed bool
	last      any
	detach    func()
}

func (p *attrPart) cancel() {}

func (p *attrPart) apply(r *Renderer, v any) {
	if p.committed && attrEqual(p.last, v) {
		return
	}
	p.committed = true
	p.last = v
	r.stats.PartCommits++

	name := p.name
	switch {
	case name == "class":
		p.el.SetAttribute("class", classString(v))
	case name == "style":
		p.el.SetAttribute("style", styleString(v))
	case len(name) > 2 && strings.EqualFold(name[:2], "on"):
		if p.detach != nil {
			p.detach()
			p.detach = nil
		}
		if h := asHandler(v); h != nil {
			p.detach = p.el.AddEventListener(strings.ToLower(name[2:]), h)
		}
	case strings.HasPrefix(name, "."):
		p.el.SetProp(name[1:], v)
	default:
		switch tv := v.(type) {
		case nil:
			p.el.RemoveAttribute(name)
		case bool:
			if tv {
				p.el.SetAttribute(name, "")
			} else {
				p.el.RemoveAttribute(name)
			}
		default:
			p.el.SetAttribute(name, fmt.Sprint(tv))
		}
	}
}

// classString renders class values: a name→bool mapping becomes the union of
// truthy names, anything else is set literally.
func classString(v any) string {
	switch tv := v.(type) {
	case map[string]bool:
		names := make([]string, 0, len(tv))
		for name, on := range tv {
			if on {
				names = append(names, name)
			}
		}
		sort.Strings(names)
		return strings.Join(names, " ")
	case string:
		return tv
	default:
		return fmt.Sprint(tv)
	}
}

// styleString renders style values: a mapping applies each entry as a style
// property, anything else is the raw style text.
func styleString(v any) string {
	switch tv := v.(type) {
	case map[string]string:
		props := make([]string, 0, len(tv))
		for name, val := range tv {
			props = append(props, name+": "+val)
		}
		sort.Strings(props)
		return strings.Join(props, "; ")
	case map[string]any:
		props := make([]string, 0, len(tv))
		for name, val := range tv {
			props = append(props, name+": "+fmt.Sprint(val))
		}
		sort.Strings(props)
		return strings.Join(props, "; ")
	case string:
		return tv
	default:
		return fmt.Sprint(tv)
	}
}

func asHandler(v any) dom.EventHandler {
	switch h := v.(type) {
	case dom.EventHandler:
		return h
	case func(*dom.Event):
		return h
	default:
		return nil
	}
}

type contentKind uint8

const (
	ckNone contentKind = iota
	ckText
	ckHTML
	ckInstance
	ckList
)

// contentPart binds one interpolation slot to a content region. The anchor
// text node replaces the marker comment and stays put for the lifetime of
// the instance: primitives render into its character data, everything else
// renders as sibling nodes inserted after it.
type contentPart struct {
	anchor *dom.Text

	committed bool
	last      any
	kind      contentKind

	nested *instance
	extra  []dom.Node
	items  []*listItem
	job    *sliceJob
}

func (p *contentPart) cancel() {
	if p.job != nil {
		p.job.cancelled = true
		p.job = nil
	}
}

func (p *contentPart) apply(r *Renderer, v any) {
	if p.committed && contentEqual(p.last, v) {
		return
	}
	// A superseding update invalidates any in-flight slice job before it can
	// write stale results.
	p.cancel()

	switch tv := v.(type) {
	case nil:
		p.setText(r, "")
	case Raw:
		p.setHTML(r, string(tv))
	case string:
		if looksLikeMarkup(tv) {
			p.setHTML(r, tv)
		} else {
			p.setText(r, tv)
		}
	case *Result:
		p.setResult(r, tv)
	case []any:
		p.applyList(r, tv)
		p.committed = true
		p.last = append([]any(nil), tv...)
		return
	default:
		s := fmt.Sprint(tv)
		if !isPrimitiveValue(tv) && isMisuseSignature(s) {
			r.logf("template: content slot received %T; bind a nested template result, a []any, or mark markup with template.Raw (rendering %q as text)", v, s)
		}
		p.setText(r, s)
	}
	p.committed = true
	p.last = v
}

func (p *contentPart) parent() *dom.Element {
	return p.anchor.Parent()
}

// afterAnchor returns the node the next rendered sibling should be inserted
// before, i.e. whatever currently follows the anchor.
func (p *contentPart) afterAnchor() dom.Node {
	par := p.parent()
	i := par.IndexOf(p.anchor)
	children := par.Children()
	if i >= 0 && i+1 < len(children) {
		return children[i+1]
	}
	return nil
}

// clear removes every node this part has rendered, leaving only the anchor.
func (p *contentPart) clear() {
	par := p.parent()
	for _, n := range p.extra {
		par.RemoveChild(n)
	}
	for _, it := range p.items {
		for _, n := range it.nodes {
			par.RemoveChild(n)
		}
	}
	p.extra = nil
	p.items = nil
	p.nested = nil
	p.anchor.Data = ""
	p.kind = ckNone
}

func (p *contentPart) setText(r *Renderer, s string) {
	if p.kind != ckText && p.kind != ckNone {
		p.clear()
	}
	p.kind = ckText
	p.anchor.Data = s
	r.stats.PartCommits++
}

func (p *contentPart) setHTML(r *Renderer, markup string) {
	p.clear()
	nodes, err := dom.ParseFragment(markup)
	if err != nil {
		r.logf("template: injected markup failed to parse, rendering as text: %v", err)
		p.setText(r, markup)
		return
	}
	p.insertNodes(nodes, p.afterAnchor())
	p.extra = nodes
	p.kind = ckHTML
	r.stats.PartCommits++
}

func (p *contentPart) setResult(r *Renderer, res *Result) {
	if p.kind == ckInstance && p.nested != nil && p.nested.desc == res.Desc {
		// Same shape as before: recursive reconciliation, no rebuild.
		p.nested.update(r, res.Values)
		return
	}
	p.clear()
	in, nodes := r.newInstance(res.Desc)
	p.insertNodes(nodes, p.afterAnchor())
	in.update(r, res.Values)
	p.nested = in
	p.extra = nodes
	p.kind = ckInstance
	r.stats.PartCommits++
}

func (p *contentPart) insertNodes(nodes []dom.Node, ref dom.Node) {
	par := p.parent()
	for _, n := range nodes {
		par.InsertBefore(n, ref)
	}
}

func isPrimitiveValue(v any) bool {
	switch v.(type) {
	case nil, bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, uintptr,
		float32, float64, complex64, complex128:
		return true
	}
	return false
}

// contentEqual implements the per-kind change comparison: reference equality
// for primitives, descriptor identity plus recursive value equality for
// nested results, and element-by-element structural equality for arrays.
func contentEqual(a, b any) bool {
	switch av := a.(type) {
	case *Result:
		bv, ok := b.(*Result)
		if !ok || av.Desc != bv.Desc || len(av.Values) != len(bv.Values) {
			return false
		}
		for i := range av.Values {
			if !contentEqual(av.Values[i], bv.Values[i]) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !contentEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Raw:
		bv, ok := b.(Raw)
		return ok && av == bv
	default:
		return isPrimitiveValue(a) && isPrimitiveValue(b) && a == b
	}
}

func attrEqual(a, b any) bool {
	switch av := a.(type) {
	case map[string]bool:
		bv, ok := b.(map[string]bool)
		return ok && maps.Equal(av, bv)
	case map[string]string:
		bv, ok := b.(map[string]string)
		return ok && maps.Equal(av, bv)
	default:
		if isPrimitiveValue(a) && isPrimitiveValue(b) {
			return a == b
		}
		if isFuncValue(a) && isFuncValue(b) {
			return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
		}
		return false
	}
}

func isFuncValue(v any) bool {
	return v != nil && reflect.TypeOf(v).Kind() == reflect.Func
}

// looksLikeMarkup is the deliberate ergonomic shortcut for strings that
// contain tag-like substrings. It is an explicit, bounded heuristic and not
// a security boundary; Raw is the unconditional path.
var markupRe = regexp.MustCompile(`<[!/a-zA-Z][^>]*>`)

func looksLikeMarkup(s string) bool {
	return markupRe.MatchString(s)
}

// isMisuseSignature matches the generic composite-to-string shapes fmt
// produces, the signal that a raw object landed where renderable content was
// expected.
func isMisuseSignature(s string) bool {
	return strings.HasPrefix(s, "map[") ||
		strings.HasPrefix(s, "&{") ||
		strings.HasPrefix(s, "{") ||
		strings.HasPrefix(s, "&[")
}
