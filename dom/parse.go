package dom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseFragment parses markup into a list of nodes, preserving comment nodes
// so templates can use them as slot markers. Parsing happens in a generic
// block context; table-section content that the HTML tree-construction rules
// would relocate is a known limitation callers must avoid.
func ParseFragment(markup string) ([]Node, error) {
	context := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	}
	parsed, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return nil, fmt.Errorf("dom: parse fragment: %w", err)
	}
	var out []Node
	for _, hn := range parsed {
		if n := convert(hn); n != nil {
			out = append(out, n)
		}
	}
	return out, nil
}

// MustParseFragment is ParseFragment for known-good markup.
func MustParseFragment(markup string) []Node {
	nodes, err := ParseFragment(markup)
	if err != nil {
		panic(err)
	}
	return nodes
}

func convert(hn *html.Node) Node {
	switch hn.Type {
	case html.ElementNode:
		el := NewElement(hn.Data)
		for _, a := range hn.Attr {
			el.SetAttribute(a.Key, a.Val)
		}
		for c := hn.FirstChild; c != nil; c = c.NextSibling {
			if n := convert(c); n != nil {
				el.AppendChild(n)
			}
		}
		return el
	case html.TextNode:
		return NewText(hn.Data)
	case html.CommentNode:
		return NewComment(hn.Data)
	default:
		// Doctype and document nodes cannot appear in fragments we build.
		return nil
	}
}

// SetInnerHTML replaces an element's children with the parse of markup.
func (e *Element) SetInnerHTML(markup string) error {
	nodes, err := ParseFragment(markup)
	if err != nil {
		return err
	}
	e.RemoveAllChildren()
	for _, n := range nodes {
		e.AppendChild(n)
	}
	return nil
}
