package engine

import (
	"strings"

	"github.com/neurodesk/vltemplate/pkg/dom"
)

// Directive is a single directive occurrence found in a tree. The set of
// implementations is closed.
type Directive interface {
	directive()
}

// Interpolation is a {{ name }} placeholder.
type Interpolation struct {
	Node dom.NodeID
	Name string
}

func (*Interpolation) directive() {}

// Binding is one vl-<target>="<initializer>" attribute.
type Binding struct {
	Attr        string
	Target      string
	Initializer string
}

// AttributeBinding is an element carrying one or more bindings.
type AttributeBinding struct {
	Node     dom.NodeID
	Bindings []Binding
}

func (*AttributeBinding) directive() {}

// Loop is an element carrying vl-for. Params is the raw attribute value.
type Loop struct {
	Node   dom.NodeID
	Params string
}

func (*Loop) directive() {}

// Conditional is an element carrying vl-if. Params is the raw attribute value.
type Conditional struct {
	Node   dom.NodeID
	Params string
}

func (*Conditional) directive() {}

type pass int

const (
	passConditionals pass = iota
	passLoops
	passVariables
	passBindings
)

// passes lists the resolution order.
var passes = []pass{passConditionals, passLoops, passVariables, passBindings}

func (p pass) String() string {
	switch p {
	case passConditionals:
		return "conditionals"
	case passLoops:
		return "loops"
	case passVariables:
		return "variables"
	case passBindings:
		return "bindings"
	default:
		return "unknown"
	}
}

// scan collects the directives handled by pass p at or below root, in
// document order. Loops nested in another loop are left to the expansion of
// their enclosing loop.
func scan(t *dom.Tree, root dom.NodeID, p pass) []Directive {
	var out []Directive
	t.Walk(root, func(n dom.NodeID) bool {
		if !t.IsElement(n) {
			return true
		}
		switch p {
		case passConditionals:
			if v, ok := t.Attr(n, attrIf); ok {
				out = append(out, &Conditional{Node: n, Params: v})
			}
		case passLoops:
			if v, ok := t.Attr(n, attrFor); ok {
				out = append(out, &Loop{Node: n, Params: v})
				return false
			}
		case passVariables:
			if t.HasAttr(n, attrVariable) {
				out = append(out, &Interpolation{Node: n, Name: strings.TrimSpace(t.TextContent(n))})
				return false
			}
		case passBindings:
			if bs := bindingsOf(t, n); len(bs) > 0 || t.HasAttr(n, attrBinding) {
				out = append(out, &AttributeBinding{Node: n, Bindings: bs})
			}
		}
		return true
	})
	return out
}

func bindingsOf(t *dom.Tree, n dom.NodeID) []Binding {
	var out []Binding
	for _, a := range t.Attrs(n) {
		if !strings.HasPrefix(a.Key, directivePrefix) || isStructural(a.Key) {
			continue
		}
		out = append(out, Binding{
			Attr:        a.Key,
			Target:      strings.TrimPrefix(a.Key, directivePrefix),
			Initializer: a.Val,
		})
	}
	return out
}
