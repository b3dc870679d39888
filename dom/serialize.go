package dom

import (
	"bytes"
	"io"

	"github.com/valyala/quicktemplate"
)

// Elements serialized without closing tags, per the HTML void element list.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// WriteHTML serializes n to w, escaping text and attribute values.
func WriteHTML(w io.Writer, n Node) {
	qw := quicktemplate.AcquireWriter(w)
	writeNode(qw, n)
	quicktemplate.ReleaseWriter(qw)
}

func writeNode(qw *quicktemplate.Writer, n Node) {
	switch tn := n.(type) {
	case *Text:
		qw.E().S(tn.Data)
	case *Comment:
		qw.N().S("<!--")
		qw.N().S(tn.Data)
		qw.N().S("-->")
	case *Element:
		qw.N().S("<")
		qw.N().S(tn.Tag)
		for _, a := range tn.attrs {
			qw.N().S(" ")
			qw.N().S(a.Name)
			if a.Value != "" {
				qw.N().S(`="`)
				qw.E().S(a.Value)
				qw.N().S(`"`)
			}
		}
		qw.N().S(">")
		if voidElements[tn.Tag] {
			return
		}
		for _, c := range tn.children {
			writeNode(qw, c)
		}
		qw.N().S("</")
		qw.N().S(tn.Tag)
		qw.N().S(">")
	}
}

// OuterHTML serializes the node itself.
func OuterHTML(n Node) string {
	var buf bytes.Buffer
	WriteHTML(&buf, n)
	return buf.String()
}

// InnerHTML serializes an element's children.
func (e *Element) InnerHTML() string {
	var buf bytes.Buffer
	qw := quicktemplate.AcquireWriter(&buf)
	for _, c := range e.children {
		writeNode(qw, c)
	}
	quicktemplate.ReleaseWriter(qw)
	return buf.String()
}

// EscapeText HTML-escapes s the same way serialization does. The view layer
// uses it when building bulk markup for large lists.
func EscapeText(s string) string {
	var buf bytes.Buffer
	qw := quicktemplate.AcquireWriter(&buf)
	qw.E().S(s)
	quicktemplate.ReleaseWriter(qw)
	return buf.String()
}
