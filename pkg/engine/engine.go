// Package engine compiles HTML templates annotated with vl-* directives.
//
// A template is normalized, parsed and validated once by New. Each call to
// Engine.Compile resolves a fresh copy of that tree against a Context in four
// ordered passes (conditionals, loops, variables, attribute bindings) and
// serializes the result.
package engine

import (
	"log/slog"

	"github.com/neurodesk/vltemplate/pkg/dom"
)

// Engine holds a parsed template. Compile may be called any number of times;
// calls do not affect each other. Concurrent calls are safe because the
// parsed tree is never mutated after New returns.
type Engine struct {
	tree *dom.Tree
	log  *slog.Logger
}

// Option configures an Engine in New.
type Option func(*Engine)

// WithLogger sets the logger used for debug tracing. The default is
// slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// New normalizes and parses markup. It fails with a *ValidationError when
// the markup is not well formed or contains an empty interpolation.
func New(markup string, opts ...Option) (*Engine, error) {
	e := &Engine{log: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}

	tree, err := dom.Parse(Normalize(markup))
	if err != nil {
		return nil, &ValidationError{Reason: err.Error(), Cause: err}
	}
	for _, d := range scan(tree, tree.Root(), passVariables) {
		if d.(*Interpolation).Name == "" {
			return nil, &ValidationError{Reason: "empty interpolation"}
		}
	}

	e.tree = tree
	return e, nil
}

// Compile resolves every directive against ctx and returns the resulting
// HTML. A nil ctx is treated as empty. The first failing directive aborts
// the call.
func (e *Engine) Compile(ctx Context) (string, error) {
	if ctx == nil {
		ctx = Context{}
	}
	tree := e.tree.Copy()
	r := &resolver{tree: tree, log: e.log}
	if err := r.run(ctx); err != nil {
		return "", err
	}
	return tree.String(), nil
}

// Compile is a shorthand for New followed by Engine.Compile.
func Compile(markup string, ctx Context, opts ...Option) (string, error) {
	e, err := New(markup, opts...)
	if err != nil {
		return "", err
	}
	return e.Compile(ctx)
}
