// Package dom holds a mutable HTML tree addressed by stable node indices.
//
// Nodes live in a single arena owned by a Tree. Parent and sibling links are
// indices into that arena, so cloning and detaching never creates cycles of
// owning pointers. Detached nodes stay in the arena until the Tree is dropped.
package dom

import "strings"

// NodeID addresses a node inside a Tree.
type NodeID int32

// NoNode is the null NodeID.
const NoNode NodeID = -1

type Kind uint8

const (
	RootNode Kind = iota
	ElementNode
	TextNode
	CommentNode
	DoctypeNode
)

func (k Kind) String() string {
	switch k {
	case RootNode:
		return "root"
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	case CommentNode:
		return "comment"
	case DoctypeNode:
		return "doctype"
	default:
		return "unknown"
	}
}

// Attr is a single element attribute. Val is the decoded value.
type Attr struct {
	Key string
	Val string
}

type node struct {
	kind Kind
	tag  string
	// raw holds the source text for text, comment and doctype nodes.
	raw         string
	attrs       []Attr
	selfClosing bool
	// rawTag and rawEnd hold the source start and end tags of a parsed
	// element. Both are emitted as long as the attributes are unedited.
	rawTag, rawEnd string
	edited         bool

	parent, firstChild, lastChild, prev, next NodeID
}

// Tree is an ordered, rooted HTML tree.
type Tree struct {
	nodes []node
	root  NodeID
}

// New returns a tree holding only an empty root.
func New() *Tree {
	t := &Tree{}
	t.root = t.alloc(node{kind: RootNode})
	return t
}

func (t *Tree) alloc(n node) NodeID {
	n.parent, n.firstChild, n.lastChild, n.prev, n.next = NoNode, NoNode, NoNode, NoNode, NoNode
	t.nodes = append(t.nodes, n)
	return NodeID(len(t.nodes) - 1)
}

// Copy returns an independent deep copy of the whole arena. Node ids are
// preserved, so an id valid in t is valid in the copy.
func (t *Tree) Copy() *Tree {
	out := &Tree{nodes: make([]node, len(t.nodes)), root: t.root}
	copy(out.nodes, t.nodes)
	for i := range out.nodes {
		if a := out.nodes[i].attrs; a != nil {
			out.nodes[i].attrs = append([]Attr(nil), a...)
		}
	}
	return out
}

func (t *Tree) Root() NodeID { return t.root }

// NewText allocates a detached text node from already-escaped source text.
func (t *Tree) NewText(raw string) NodeID {
	return t.alloc(node{kind: TextNode, raw: raw})
}

func (t *Tree) newRaw(kind Kind, raw string) NodeID {
	return t.alloc(node{kind: kind, raw: raw})
}

func (t *Tree) Kind(id NodeID) Kind     { return t.nodes[id].kind }
func (t *Tree) Tag(id NodeID) string    { return t.nodes[id].tag }
func (t *Tree) Parent(id NodeID) NodeID { return t.nodes[id].parent }

func (t *Tree) FirstChild(id NodeID) NodeID  { return t.nodes[id].firstChild }
func (t *Tree) NextSibling(id NodeID) NodeID { return t.nodes[id].next }

// IsElement reports whether id is an element node.
func (t *Tree) IsElement(id NodeID) bool {
	return id != NoNode && t.nodes[id].kind == ElementNode
}

// Attrs returns a copy of the attributes of id in source order.
func (t *Tree) Attrs(id NodeID) []Attr {
	return append([]Attr(nil), t.nodes[id].attrs...)
}

func (t *Tree) attrIndex(id NodeID, key string) int {
	for i, a := range t.nodes[id].attrs {
		if a.Key == key {
			return i
		}
	}
	return -1
}

// Attr returns the value of attribute key on id.
func (t *Tree) Attr(id NodeID, key string) (string, bool) {
	if i := t.attrIndex(id, key); i >= 0 {
		return t.nodes[id].attrs[i].Val, true
	}
	return "", false
}

func (t *Tree) HasAttr(id NodeID, key string) bool {
	return t.attrIndex(id, key) >= 0
}

// SetAttr sets key in place, or appends it when absent.
func (t *Tree) SetAttr(id NodeID, key, val string) {
	t.nodes[id].edited = true
	if i := t.attrIndex(id, key); i >= 0 {
		t.nodes[id].attrs[i].Val = val
		return
	}
	t.nodes[id].attrs = append(t.nodes[id].attrs, Attr{Key: key, Val: val})
}

// RemoveAttr deletes key from id. It is a no-op when key is absent.
func (t *Tree) RemoveAttr(id NodeID, key string) {
	if i := t.attrIndex(id, key); i >= 0 {
		a := t.nodes[id].attrs
		t.nodes[id].attrs = append(a[:i:i], a[i+1:]...)
		t.nodes[id].edited = true
	}
}

// ReplaceAttr swaps attribute from for to with the given value. When to is
// not present yet it takes over the position of from; otherwise the existing
// to is updated and from is dropped.
func (t *Tree) ReplaceAttr(id NodeID, from, to, val string) {
	if t.HasAttr(id, to) {
		t.SetAttr(id, to, val)
		t.RemoveAttr(id, from)
		return
	}
	if i := t.attrIndex(id, from); i >= 0 {
		t.nodes[id].attrs[i] = Attr{Key: to, Val: val}
		t.nodes[id].edited = true
		return
	}
	t.SetAttr(id, to, val)
}

// TextContent concatenates the decoded text of all text descendants of id.
func (t *Tree) TextContent(id NodeID) string {
	var b strings.Builder
	t.Walk(id, func(n NodeID) bool {
		if t.nodes[n].kind == TextNode {
			b.WriteString(unescape(t.nodes[n].raw))
		}
		return true
	})
	return b.String()
}

// Walk visits id and its descendants in document order. Returning false from
// fn skips the children of the visited node.
func (t *Tree) Walk(id NodeID, fn func(NodeID) bool) {
	if !fn(id) {
		return
	}
	for c := t.nodes[id].firstChild; c != NoNode; {
		// read next first so fn may detach c
		next := t.nodes[c].next
		t.Walk(c, fn)
		c = next
	}
}

// QueryAttr returns every element at or below id carrying attribute key, in
// document order.
func (t *Tree) QueryAttr(id NodeID, key string) []NodeID {
	var out []NodeID
	t.Walk(id, func(n NodeID) bool {
		if t.nodes[n].kind == ElementNode && t.HasAttr(n, key) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Attached reports whether id is still reachable from the root.
func (t *Tree) Attached(id NodeID) bool {
	for n := id; n != NoNode; n = t.nodes[n].parent {
		if n == t.root {
			return true
		}
	}
	return false
}

// AppendChild attaches the detached node child as the last child of parent.
func (t *Tree) AppendChild(parent, child NodeID) {
	p := &t.nodes[parent]
	c := &t.nodes[child]
	c.parent = parent
	c.prev = p.lastChild
	c.next = NoNode
	if p.lastChild != NoNode {
		t.nodes[p.lastChild].next = child
	} else {
		p.firstChild = child
	}
	p.lastChild = child
}

// InsertBefore attaches the detached node n immediately before ref.
func (t *Tree) InsertBefore(ref, n NodeID) {
	parent := t.nodes[ref].parent
	prev := t.nodes[ref].prev
	c := &t.nodes[n]
	c.parent, c.prev, c.next = parent, prev, ref
	t.nodes[ref].prev = n
	if prev != NoNode {
		t.nodes[prev].next = n
	} else if parent != NoNode {
		t.nodes[parent].firstChild = n
	}
}

// Remove detaches id from its parent. The subtree below id stays intact.
func (t *Tree) Remove(id NodeID) {
	n := &t.nodes[id]
	if n.prev != NoNode {
		t.nodes[n.prev].next = n.next
	} else if n.parent != NoNode {
		t.nodes[n.parent].firstChild = n.next
	}
	if n.next != NoNode {
		t.nodes[n.next].prev = n.prev
	} else if n.parent != NoNode {
		t.nodes[n.parent].lastChild = n.prev
	}
	n.parent, n.prev, n.next = NoNode, NoNode, NoNode
}

// ReplaceWithText puts a text node holding the escaped form of text in place
// of id and returns the new node.
func (t *Tree) ReplaceWithText(id NodeID, text string) NodeID {
	txt := t.NewText(EscapeText(text))
	if t.nodes[id].parent != NoNode {
		t.InsertBefore(id, txt)
	}
	t.Remove(id)
	return txt
}

// Clone deep-copies the subtree rooted at id. The copy is detached.
func (t *Tree) Clone(id NodeID) NodeID {
	src := t.nodes[id]
	cp := t.alloc(node{
		kind:        src.kind,
		tag:         src.tag,
		raw:         src.raw,
		attrs:       append([]Attr(nil), src.attrs...),
		selfClosing: src.selfClosing,
		rawTag:      src.rawTag,
		rawEnd:      src.rawEnd,
		edited:      src.edited,
	})
	for c := src.firstChild; c != NoNode; c = t.nodes[c].next {
		t.AppendChild(cp, t.Clone(c))
	}
	return cp
}

// IsBlank reports whether id is a text node made only of whitespace.
func (t *Tree) IsBlank(id NodeID) bool {
	return t.nodes[id].kind == TextNode && strings.TrimSpace(t.nodes[id].raw) == ""
}
