package dom

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	a "golang.org/x/net/html/atom"
)

// SyntaxError reports markup that is not well formed.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at offset %d", e.Msg, e.Offset)
}

// Parse builds a Tree from src. It uses the tokenizer from golang.org/x/net/html
// but not the HTML5 tree construction rules: the resulting tree mirrors the
// source as written, and every non-void element must be closed explicitly.
func Parse(src string) (*Tree, error) {
	p := &parser{
		t: New(),
		z: html.NewTokenizer(strings.NewReader(src)),
	}
	p.oe = append(p.oe, p.t.root)
	if err := p.run(); err != nil {
		return nil, err
	}
	return p.t, nil
}

type parser struct {
	t *Tree
	z *html.Tokenizer
	// oe is the stack of open elements, with the root at the bottom.
	oe     []NodeID
	offset int
}

func (p *parser) top() NodeID { return p.oe[len(p.oe)-1] }

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Offset: p.offset, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) run() error {
	for {
		tt := p.z.Next()
		// Raw must be copied before Token, which lower-cases the buffer in place.
		raw := string(p.z.Raw())
		switch tt {
		case html.ErrorToken:
			if err := p.z.Err(); !errors.Is(err, io.EOF) {
				return p.errorf("tokenizer: %v", err)
			}
			if len(p.oe) > 1 {
				return p.errorf("unclosed element <%s>", p.t.Tag(p.top()))
			}
			return nil
		case html.TextToken:
			p.t.AppendChild(p.top(), p.t.NewText(raw))
		case html.CommentToken:
			p.t.AppendChild(p.top(), p.t.newRaw(CommentNode, raw))
		case html.DoctypeToken:
			p.t.AppendChild(p.top(), p.t.newRaw(DoctypeNode, raw))
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := p.z.Token()
			if tt == html.StartTagToken && isEscapable(tok.DataAtom) {
				// markup inside title and textarea is parsed, not kept as text
				p.z.NextIsNotRawText()
			}
			p.addElement(tok, raw, tt == html.SelfClosingTagToken)
		case html.EndTagToken:
			tok := p.z.Token()
			if isVoid(tok.DataAtom) {
				break
			}
			if len(p.oe) == 1 {
				return p.errorf("unexpected closing tag </%s>", tok.Data)
			}
			if open := p.t.Tag(p.top()); open != tok.Data {
				return p.errorf("unexpected closing tag </%s>, expected </%s>", tok.Data, open)
			}
			p.t.nodes[p.top()].rawEnd = raw
			p.oe = p.oe[:len(p.oe)-1]
		}
		p.offset += len(raw)
	}
}

func (p *parser) addElement(tok html.Token, raw string, selfClosing bool) {
	attrs := make([]Attr, 0, len(tok.Attr))
	seen := make(map[string]struct{}, len(tok.Attr))
	for _, at := range tok.Attr {
		// first occurrence wins, as in browsers
		if _, dup := seen[at.Key]; dup {
			continue
		}
		seen[at.Key] = struct{}{}
		attrs = append(attrs, Attr{Key: at.Key, Val: at.Val})
	}
	n := p.t.alloc(node{
		kind:        ElementNode,
		tag:         tok.Data,
		attrs:       attrs,
		selfClosing: selfClosing,
		rawTag:      raw,
		// a dropped duplicate means the source tag no longer matches attrs
		edited: len(attrs) != len(tok.Attr),
	})
	p.t.AppendChild(p.top(), n)
	if !selfClosing && !isVoid(tok.DataAtom) {
		p.oe = append(p.oe, n)
	}
}

func isVoid(tag a.Atom) bool {
	switch tag {
	case a.Area, a.Base, a.Br, a.Col, a.Embed, a.Hr, a.Img, a.Input,
		a.Keygen, a.Link, a.Meta, a.Param, a.Source, a.Track, a.Wbr:
		return true
	}
	return false
}

// isEscapable reports whether the tokenizer would treat the content of tag as
// escapable raw text.
func isEscapable(tag a.Atom) bool {
	return tag == a.Title || tag == a.Textarea
}
