package dom

import (
	"strings"

	"golang.org/x/net/html"
	a "golang.org/x/net/html/atom"
)

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", `"`, "&quot;")
)

// EscapeText escapes s for use as element text content.
func EscapeText(s string) string { return textEscaper.Replace(s) }

func unescape(s string) string { return html.UnescapeString(s) }

// String serializes the whole tree.
func (t *Tree) String() string {
	var b strings.Builder
	t.render(&b, t.root)
	return b.String()
}

func (t *Tree) render(b *strings.Builder, id NodeID) {
	n := &t.nodes[id]
	switch n.kind {
	case TextNode, CommentNode, DoctypeNode:
		b.WriteString(n.raw)
		return
	case RootNode:
		for c := n.firstChild; c != NoNode; c = t.nodes[c].next {
			t.render(b, c)
		}
		return
	}

	verbatim := n.rawTag != "" && !n.edited
	if verbatim {
		b.WriteString(n.rawTag)
	} else {
		b.WriteByte('<')
		b.WriteString(n.tag)
		for _, at := range n.attrs {
			b.WriteByte(' ')
			b.WriteString(at.Key)
			if at.Val != "" {
				b.WriteString(`="`)
				b.WriteString(attrEscaper.Replace(at.Val))
				b.WriteByte('"')
			}
		}
		if n.selfClosing {
			b.WriteString("/>")
		} else {
			b.WriteByte('>')
		}
	}
	if n.selfClosing || isVoid(a.Lookup([]byte(n.tag))) {
		return
	}
	for c := n.firstChild; c != NoNode; c = t.nodes[c].next {
		t.render(b, c)
	}
	if verbatim && n.rawEnd != "" {
		b.WriteString(n.rawEnd)
		return
	}
	b.WriteString("</")
	b.WriteString(n.tag)
	b.WriteByte('>')
}
