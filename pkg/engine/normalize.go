package engine

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	a "golang.org/x/net/html/atom"
)

const (
	directivePrefix = "vl-"

	attrVariable = directivePrefix + "variable"
	attrBinding  = directivePrefix + "attr"
	attrFor      = directivePrefix + "for"
	attrIf       = directivePrefix + "if"
	attrElse     = directivePrefix + "else"
)

// Names never contain whitespace or braces, so adjacent placeholders on one
// line stay separate matches.
var variablePattern = regexp.MustCompile(`\{\{\s*([^\s{}]*)\s*\}\}`)

// Normalize rewrites raw markup so directives become visible to tree
// queries: every {{ name }} in text content turns into
// <span vl-variable>name</span>, and every start tag carrying a vl-<name>
// attribute binding gets a vl-attr marker after its tag name. Comments,
// doctypes, script and style bodies, attribute values and all whitespace
// outside the rewritten regions pass through byte for byte.
func Normalize(markup string) string {
	var b strings.Builder
	b.Grow(len(markup))
	z := html.NewTokenizer(strings.NewReader(markup))
	var rawText bool
	for {
		tt := z.Next()
		raw := string(z.Raw())
		switch tt {
		case html.ErrorToken:
			// an unterminated tag at the end is left for the parser to report
			b.WriteString(raw)
			return b.String()
		case html.TextToken:
			if rawText {
				b.WriteString(raw)
			} else {
				b.WriteString(wrapVariables(raw))
			}
			rawText = false
			continue
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tt == html.StartTagToken {
				if tok.DataAtom == a.Title || tok.DataAtom == a.Textarea {
					z.NextIsNotRawText()
				}
				rawText = isRawText(tok.DataAtom)
			}
			if needsMarker(tok.Attr) {
				raw = markBinding(raw)
			}
			b.WriteString(raw)
			continue
		}
		rawText = false
		b.WriteString(raw)
	}
}

func wrapVariables(text string) string {
	return variablePattern.ReplaceAllString(text, `<span `+attrVariable+`>${1}</span>`)
}

// needsMarker reports whether attrs hold an attribute binding but no marker.
func needsMarker(attrs []html.Attribute) bool {
	var found bool
	for _, at := range attrs {
		if at.Key == attrBinding {
			return false
		}
		if strings.HasPrefix(at.Key, directivePrefix) && !isStructural(at.Key) {
			found = true
		}
	}
	return found
}

// markBinding inserts the marker right after the tag name of a raw start tag.
func markBinding(tag string) string {
	i := 1
	for i < len(tag) && !strings.ContainsRune(" \t\n\f\r/>", rune(tag[i])) {
		i++
	}
	return tag[:i] + " " + attrBinding + tag[i:]
}

// isRawText reports whether the tokenizer reads the body of tag as raw text.
func isRawText(tag a.Atom) bool {
	switch tag {
	case a.Script, a.Style, a.Xmp, a.Iframe, a.Noembed, a.Noframes, a.Noscript, a.Plaintext:
		return true
	}
	return false
}

// isStructural reports whether an attribute name belongs to a directive that
// is not an attribute binding.
func isStructural(name string) bool {
	switch name {
	case attrFor, attrIf, attrElse, attrVariable, attrBinding:
		return true
	}
	return false
}
