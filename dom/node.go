// Package dom is a small in-memory document model: elements, text and
// comment nodes with attributes, live properties and event listeners. It is
// the render target the view layer mutates; no browser is involved.
package dom

// Node is one tree node. Concrete kinds are *Element, *Text and *Comment.
type Node interface {
	Parent() *Element
	Clone() Node
	setParent(p *Element)
}

// Attr is one element attribute. Order is preserved for serialization.
type Attr struct {
	Name  string
	Value string
}

// Element is a tagged node with attributes, children, live properties and
// event listeners. Properties carry non-string values that never serialize,
// mirroring how custom elements receive rich data.
type Element struct {
	Tag string

	parent    *Element
	attrs     []Attr
	children  []Node
	props     map[string]any
	listeners map[string][]*registration
}

// NewElement creates an element with the given tag.
func NewElement(tag string) *Element {
	return &Element{Tag: tag}
}

func (e *Element) Parent() *Element     { return e.parent }
func (e *Element) setParent(p *Element) { e.parent = p }

// Clone deep-copies tag, attributes and children. Listeners and properties
// are runtime state and are not cloned.
func (e *Element) Clone() Node {
	c := &Element{Tag: e.Tag}
	c.attrs = append([]Attr(nil), e.attrs...)
	for _, child := range e.children {
		cc := child.Clone()
		cc.setParent(c)
		c.children = append(c.children, cc)
	}
	return c
}

// Children returns the child list. Callers must not mutate it directly.
func (e *Element) Children() []Node { return e.children }

// FirstChild returns the first child or nil.
func (e *Element) FirstChild() Node {
	if len(e.children) == 0 {
		return nil
	}
	return e.children[0]
}

// IndexOf returns the child position of n, or -1.
func (e *Element) IndexOf(n Node) int {
	for i, c := range e.children {
		if c == n {
			return i
		}
	}
	return -1
}

// AppendChild adds n as the last child, detaching it from any prior parent.
func (e *Element) AppendChild(n Node) {
	if p := n.Parent(); p != nil {
		p.RemoveChild(n)
	}
	n.setParent(e)
	e.children = append(e.children, n)
}

// InsertBefore places n immediately before ref. A nil ref appends.
func (e *Element) InsertBefore(n Node, ref Node) {
	if ref == nil {
		e.AppendChild(n)
		return
	}
	i := e.IndexOf(ref)
	if i < 0 {
		e.AppendChild(n)
		return
	}
	if p := n.Parent(); p != nil {
		p.RemoveChild(n)
	}
	n.setParent(e)
	e.children = append(e.children, nil)
	copy(e.children[i+1:], e.children[i:])
	e.children[i] = n
}

// RemoveChild detaches n. Unknown children are ignored.
func (e *Element) RemoveChild(n Node) {
	i := e.IndexOf(n)
	if i < 0 {
		return
	}
	copy(e.children[i:], e.children[i+1:])
	e.children = e.children[:len(e.children)-1]
	n.setParent(nil)
}

// ReplaceChild swaps old for n in place, keeping the position.
func (e *Element) ReplaceChild(n Node, old Node) {
	i := e.IndexOf(old)
	if i < 0 {
		return
	}
	if p := n.Parent(); p != nil {
		p.RemoveChild(n)
	}
	old.setParent(nil)
	n.setParent(e)
	e.children[i] = n
}

// RemoveAllChildren empties the element.
func (e *Element) RemoveAllChildren() {
	for _, c := range e.children {
		c.setParent(nil)
	}
	e.children = nil
}

// GetAttribute reads one attribute.
func (e *Element) GetAttribute(name string) (string, bool) {
	for _, a := range e.attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttribute writes one attribute, replacing any previous value.
func (e *Element) SetAttribute(name, value string) {
	for i, a := range e.attrs {
		if a.Name == name {
			e.attrs[i].Value = value
			return
		}
	}
	e.attrs = append(e.attrs, Attr{Name: name, Value: value})
}

// RemoveAttribute deletes one attribute if present.
func (e *Element) RemoveAttribute(name string) {
	for i, a := range e.attrs {
		if a.Name == name {
			e.attrs = append(e.attrs[:i], e.attrs[i+1:]...)
			return
		}
	}
}

// HasAttribute reports attribute presence.
func (e *Element) HasAttribute(name string) bool {
	_, ok := e.GetAttribute(name)
	return ok
}

// Attrs returns the attribute list in document order.
func (e *Element) Attrs() []Attr { return e.attrs }

// SetProp assigns a live property. Properties hold arbitrary values and are
// invisible to serialization.
func (e *Element) SetProp(name string, v any) {
	if e.props == nil {
		e.props = map[string]any{}
	}
	e.props[name] = v
}

// Prop reads a live property.
func (e *Element) Prop(name string) (any, bool) {
	v, ok := e.props[name]
	return v, ok
}

// TextContent concatenates all descendant text data.
func (e *Element) TextContent() string {
	out := ""
	for _, c := range e.children {
		switch tc := c.(type) {
		case *Text:
			out += tc.Data
		case *Element:
			out += tc.TextContent()
		}
	}
	return out
}

// Text is a character-data node.
type Text struct {
	Data   string
	parent *Element
}

// NewText creates a text node.
func NewText(data string) *Text { return &Text{Data: data} }

func (t *Text) Parent() *Element     { return t.parent }
func (t *Text) setParent(p *Element) { t.parent = p }
func (t *Text) Clone() Node          { return &Text{Data: t.Data} }

// Comment is a comment node. The view layer uses comments as slot markers in
// template skeletons.
type Comment struct {
	Data   string
	parent *Element
}

// NewComment creates a comment node.
func NewComment(data string) *Comment { return &Comment{Data: data} }

func (c *Comment) Parent() *Element     { return c.parent }
func (c *Comment) setParent(p *Element) { c.parent = p }
func (c *Comment) Clone() Node          { return &Comment{Data: c.Data} }
