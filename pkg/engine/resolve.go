package engine

import (
	"fmt"
	"log/slog"
	"regexp"

	"github.com/neurodesk/vltemplate/pkg/dom"
)

var (
	loopParams      = regexp.MustCompile(`^\s*(\w+)\s+in\s+(\w+)\s*$`)
	conditionParams = regexp.MustCompile(`^\s*(\w+)\s*$`)
)

// resolver mutates a tree in place. The first failure aborts resolution and
// leaves the tree partially resolved.
type resolver struct {
	tree *dom.Tree
	log  *slog.Logger
}

func (r *resolver) run(ctx Context) error {
	root := r.tree.Root()
	for _, p := range passes {
		if err := r.resolveAll(root, p, ctx); err != nil {
			return err
		}
		if p == passConditionals {
			r.stripOrphanElse()
		}
	}
	return nil
}

func (r *resolver) resolveAll(root dom.NodeID, p pass, ctx Context) error {
	ds := scan(r.tree, root, p)
	if len(ds) > 0 {
		r.log.Debug("resolving directives", "pass", p.String(), "directives", len(ds))
	}
	for _, d := range ds {
		if err := r.resolve(d, ctx); err != nil {
			return err
		}
	}
	return nil
}

func (r *resolver) resolve(d Directive, ctx Context) error {
	switch d := d.(type) {
	case *Conditional:
		return r.conditional(d, ctx)
	case *Loop:
		return r.loop(d, ctx)
	case *Interpolation:
		return r.interpolation(d, ctx)
	case *AttributeBinding:
		return r.binding(d, ctx)
	default:
		return fmt.Errorf("unhandled directive: %T", d)
	}
}

func (r *resolver) conditional(d *Conditional, ctx Context) error {
	t := r.tree
	// dropped together with an enclosing branch
	if !t.Attached(d.Node) {
		return nil
	}
	m := conditionParams.FindStringSubmatch(d.Params)
	if m == nil {
		return &IncorrectConditionParamsError{Params: d.Params}
	}
	v, ok := ctx.Lookup(m[1])
	if !ok {
		return &NotDefinedError{Entity: EntityVariable, Name: m[1]}
	}

	alt := r.alternative(d.Node)
	if v.Truth() {
		t.RemoveAttr(d.Node, attrIf)
		if alt != dom.NoNode {
			t.Remove(alt)
		}
		return nil
	}
	t.Remove(d.Node)
	if alt != dom.NoNode {
		t.RemoveAttr(alt, attrElse)
	}
	return nil
}

// alternative returns the vl-else element paired with n, skipping
// whitespace-only text in between, or dom.NoNode.
func (r *resolver) alternative(n dom.NodeID) dom.NodeID {
	t := r.tree
	s := t.NextSibling(n)
	for s != dom.NoNode && t.IsBlank(s) {
		s = t.NextSibling(s)
	}
	if t.IsElement(s) && t.HasAttr(s, attrElse) {
		return s
	}
	return dom.NoNode
}

// stripOrphanElse removes vl-else markers that no vl-if claimed.
func (r *resolver) stripOrphanElse() {
	for _, n := range r.tree.QueryAttr(r.tree.Root(), attrElse) {
		r.log.Debug("vl-else without a preceding vl-if", "tag", r.tree.Tag(n))
		r.tree.RemoveAttr(n, attrElse)
	}
}

func (r *resolver) loop(d *Loop, ctx Context) error {
	m := loopParams.FindStringSubmatch(d.Params)
	if m == nil {
		return &IncorrectForParamsError{Params: d.Params}
	}
	iterator, source := m[1], m[2]
	items, err := ctx.Sequence(source)
	if err != nil {
		return err
	}
	r.log.Debug("expanding loop", "iterator", iterator, "source", source, "items", len(items))

	t := r.tree
	t.RemoveAttr(d.Node, attrFor)
	for _, item := range items {
		clone := t.Clone(d.Node)
		scope := Context{iterator: item}
		if err := r.resolveAll(clone, passLoops, scope); err != nil {
			return err
		}
		if err := r.resolveAll(clone, passVariables, scope); err != nil {
			return err
		}
		t.InsertBefore(d.Node, clone)
	}
	t.Remove(d.Node)
	return nil
}

func (r *resolver) interpolation(d *Interpolation, ctx Context) error {
	if d.Name == "" {
		return &ValidationError{Reason: "empty interpolation"}
	}
	v, ok := ctx.Lookup(d.Name)
	if !ok {
		return &NotDefinedError{Entity: EntityVariable, Name: d.Name}
	}
	r.tree.ReplaceWithText(d.Node, v.String())
	return nil
}

func (r *resolver) binding(d *AttributeBinding, ctx Context) error {
	for _, b := range d.Bindings {
		if b.Initializer == "" {
			return &EmptyAttributeError{Attribute: b.Target}
		}
		v, ok := ctx.Lookup(b.Initializer)
		if !ok {
			return &NotDefinedError{Entity: EntityAttributeInitializer, Name: b.Initializer}
		}
		r.tree.ReplaceAttr(d.Node, b.Attr, b.Target, v.String())
	}
	r.tree.RemoveAttr(d.Node, attrBinding)
	return nil
}
