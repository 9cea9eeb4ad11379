package dom

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustParse(t *testing.T, src string) *Tree {
	t.Helper()
	tree, err := Parse(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return tree
}

func TestParseRoundTrip(t *testing.T) {
	cases := []string{
		`<div>hello</div>`,
		`<!DOCTYPE html><html><head><title>T &amp; U</title></head><body></body></html>`,
		"<ul>\n  <li class=\"a\">one</li>\n  <li>two</li>\n</ul>",
		`<p>a<br>b<img src="x.png"></p>`,
		`<p>a<br/>b</p>`,
		`<!-- note --><span>x &lt; y</span>`,
		`<script>if (a < b) { x(); }</script>`,
		`<input disabled>`,
		`<DIV Class='a' data-x=1 hidden=""><input type='text' disabled></DIV>`,
		`<p   id="x" >y</p >`,
		`plain text only`,
	}
	for _, src := range cases {
		t.Run(src, func(t *testing.T) {
			tree := mustParse(t, src)
			if diff := cmp.Diff(src, tree.String()); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		`<div>`,
		`<div><span></div>`,
		`</p>`,
		`<div></div></div>`,
	}
	for _, src := range cases {
		t.Run(src, func(t *testing.T) {
			_, err := Parse(src)
			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("want *SyntaxError, got %v", err)
			}
		})
	}
}

func TestParseStrayVoidEndTag(t *testing.T) {
	tree := mustParse(t, `<p>a</br></p>`)
	if got := tree.String(); got != `<p>a</p>` {
		t.Fatalf("got %q", got)
	}
}

func TestEscapableTextIsParsed(t *testing.T) {
	tree := mustParse(t, `<head><title>a <b vl-if="x">b</b></title></head><textarea><i>c</i></textarea>`)
	if got := len(tree.QueryAttr(tree.Root(), "vl-if")); got != 1 {
		t.Fatalf("found %d vl-if elements inside title, want 1", got)
	}
	if got := tree.TextContent(tree.Root()); got != "a bc" {
		t.Fatalf("text content %q", got)
	}
}

func TestEditedTagIsResynthesized(t *testing.T) {
	tree := mustParse(t, `<P Class='a'  vl-id=k><B  x=1>t</B></P>`)
	p := tree.FirstChild(tree.Root())
	tree.ReplaceAttr(p, "vl-id", "id", "v")
	if got, want := tree.String(), `<p class="a" id="v"><B  x=1>t</B></p>`; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestDuplicateAttributesKeepFirst(t *testing.T) {
	tree := mustParse(t, `<div id="a" id="b"></div>`)
	div := tree.FirstChild(tree.Root())
	if diff := cmp.Diff([]Attr{{Key: "id", Val: "a"}}, tree.Attrs(div)); diff != "" {
		t.Fatalf("attrs (-want +got):\n%s", diff)
	}
}

func TestAttributeEditing(t *testing.T) {
	tree := mustParse(t, `<div id="x" vl-class="c" title="t"></div>`)
	div := tree.FirstChild(tree.Root())

	tree.ReplaceAttr(div, "vl-class", "class", "big")
	if got := tree.String(); got != `<div id="x" class="big" title="t"></div>` {
		t.Fatalf("replace in place: got %q", got)
	}

	tree.SetAttr(div, "data-n", `a"b`)
	tree.RemoveAttr(div, "title")
	if got := tree.String(); got != `<div id="x" class="big" data-n="a&quot;b"></div>` {
		t.Fatalf("set/remove: got %q", got)
	}

	tree.SetAttr(div, "vl-id", "y")
	tree.ReplaceAttr(div, "vl-id", "id", "z")
	if got := tree.String(); got != `<div id="z" class="big" data-n="a&quot;b"></div>` {
		t.Fatalf("replace existing: got %q", got)
	}
}

func TestCloneInsertRemove(t *testing.T) {
	tree := mustParse(t, `<ul><li>x</li></ul>`)
	ul := tree.FirstChild(tree.Root())
	li := tree.FirstChild(ul)

	for i := 0; i < 2; i++ {
		c := tree.Clone(li)
		if tree.Attached(c) {
			t.Fatalf("clone should start detached")
		}
		tree.InsertBefore(li, c)
	}
	tree.Remove(li)

	if tree.Attached(li) {
		t.Fatalf("removed node still attached")
	}
	if got := tree.String(); got != `<ul><li>x</li><li>x</li></ul>` {
		t.Fatalf("got %q", got)
	}
}

func TestCopyIsIndependent(t *testing.T) {
	tree := mustParse(t, `<p class="a">x</p>`)
	cp := tree.Copy()
	p := cp.FirstChild(cp.Root())
	cp.SetAttr(p, "class", "b")
	cp.ReplaceWithText(cp.FirstChild(p), "<y>")

	if got := tree.String(); got != `<p class="a">x</p>` {
		t.Fatalf("original mutated: %q", got)
	}
	if got := cp.String(); got != `<p class="b">&lt;y&gt;</p>` {
		t.Fatalf("copy: %q", got)
	}
}

func TestQueryAttrDocumentOrder(t *testing.T) {
	tree := mustParse(t, `<div m="1"><p m="2"><b m="3"></b></p></div><i m="4"></i>`)
	var got []string
	for _, id := range tree.QueryAttr(tree.Root(), "m") {
		v, _ := tree.Attr(id, "m")
		got = append(got, v)
	}
	if diff := cmp.Diff([]string{"1", "2", "3", "4"}, got); diff != "" {
		t.Fatalf("order (-want +got):\n%s", diff)
	}
}

func TestTextContentDecodes(t *testing.T) {
	tree := mustParse(t, `<span>a &amp; <b>b</b></span>`)
	if got := tree.TextContent(tree.Root()); got != "a & b" {
		t.Fatalf("got %q", got)
	}
}
