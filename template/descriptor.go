// Package template implements the tagged-template compiler, the per-slot
// update handles ("parts") and the renderer that keeps mounted instances
// synchronized with new template results.
package template

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/delaneyj/domparty/dom"
)

// markerPrefix tags interpolation positions inside compiled markup: comment
// data for content slots, placeholder attribute values for attribute slots.
const markerPrefix = "dp$"

type slotKind uint8

const (
	slotContent slotKind = iota
	slotAttribute
)

type slot struct {
	kind slotKind
	attr string
}

// Descriptor is the cached, parsed, immutable shape of one template call
// site: the literal segments, the DOM skeleton with positional markers and
// the classification of every interpolation slot. Descriptors are never
// mutated after compilation.
type Descriptor struct {
	segs  []string
	nodes []dom.Node
	slots []slot

	// simple marks single-slot wrapper templates ("<li>", "</li>") that the
	// bulk list path can serialize wholesale.
	simple bool
}

// Define compiles a template at its call site. Declare descriptors as
// package variables so each syntactic call site parses exactly once:
//
//	var row = template.Define(`<li class="`, `">`, `</li>`)
//
// Define panics on malformed markup; it is the analog of regexp.MustCompile.
func Define(segs ...string) *Descriptor {
	d, err := Compile(segs)
	if err != nil {
		panic(err)
	}
	return d
}

// Compile parses literal segments into a descriptor. An interpolation slot
// is classified as attribute position when the most recent unmatched '<' in
// the accumulated markup follows the most recent '>'; everything else is
// content position. The scan is lexical, not a full parse: callers must not
// interpolate raw '<' or '>' inside attribute values.
func Compile(segs []string) (*Descriptor, error) {
	if len(segs) == 0 {
		return nil, fmt.Errorf("template: at least one literal segment required")
	}
	nSlots := len(segs) - 1

	var b strings.Builder
	inAttr := make([]bool, nSlots)
	for i, seg := range segs {
		b.WriteString(seg)
		if i >= nSlots {
			break
		}
		acc := b.String()
		if strings.LastIndexByte(acc, '<') > strings.LastIndexByte(acc, '>') {
			inAttr[i] = true
			b.WriteString(markerPrefix + strconv.Itoa(i))
		} else {
			b.WriteString("<!--" + markerPrefix + strconv.Itoa(i) + "-->")
		}
	}

	nodes, err := dom.ParseFragment(b.String())
	if err != nil {
		return nil, fmt.Errorf("template: compile: %w", err)
	}

	d := &Descriptor{
		segs:  append([]string(nil), segs...),
		nodes: nodes,
		slots: make([]slot, nSlots),
	}
	for i := range d.slots {
		if inAttr[i] {
			d.slots[i] = slot{kind: slotAttribute}
		}
	}
	// Resolve attribute names by locating the placeholder values in the
	// parsed skeleton; the parser may have reordered nothing but has
	// lowercased names.
	for _, n := range nodes {
		resolveAttrSlots(n, d.slots)
	}

	d.simple = nSlots == 1 && len(segs) == 2 && d.slots[0].kind == slotContent
	return d, nil
}

func resolveAttrSlots(n dom.Node, slots []slot) {
	el, ok := n.(*dom.Element)
	if !ok {
		return
	}
	for _, a := range el.Attrs() {
		idx, found := markerIndex(a.Value)
		if found && idx < len(slots) && slots[idx].kind == slotAttribute {
			slots[idx].attr = a.Name
		}
	}
	for _, c := range el.Children() {
		resolveAttrSlots(c, slots)
	}
}

// markerIndex extracts the slot index from marker text like "dp$3". The
// marker may be embedded in a longer attribute value.
func markerIndex(s string) (int, bool) {
	at := strings.Index(s, markerPrefix)
	if at < 0 {
		return 0, false
	}
	rest := s[at+len(markerPrefix):]
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	idx, err := strconv.Atoi(rest[:end])
	if err != nil {
		return 0, false
	}
	return idx, true
}

// Slots reports the interpolation count.
func (d *Descriptor) Slots() int {
	return len(d.slots)
}

// Bind pairs the descriptor with one set of interpolation values, producing
// a renderable result. The value count must match the slot count.
func (d *Descriptor) Bind(values ...any) *Result {
	if len(values) != len(d.slots) {
		panic(fmt.Sprintf("template: descriptor has %d slots, got %d values", len(d.slots), len(values)))
	}
	return &Result{Desc: d, Values: append([]any(nil), values...)}
}

// Result is one template call: a descriptor plus the values for its slots.
type Result struct {
	Desc   *Descriptor
	Values []any
}

// Raw marks a string for unconditional markup injection, bypassing the
// markup-detection heuristic. It is an explicit opt-out, not a sanitizer.
type Raw string
