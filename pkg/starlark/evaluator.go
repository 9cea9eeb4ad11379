package starlark

import (
	"fmt"
	"log/slog"

	"github.com/neurodesk/vltemplate/pkg/engine"
	"go.starlark.net/starlark"
)

// Evaluator runs Starlark scripts that produce template contexts.
type Evaluator struct {
	thread   *starlark.Thread
	builtins starlark.StringDict
	globals  starlark.StringDict
	log      *slog.Logger
}

// NewEvaluator creates an evaluator. A nil logger means slog.Default().
func NewEvaluator(log *slog.Logger) *Evaluator {
	if log == nil {
		log = slog.Default()
	}
	e := &Evaluator{
		builtins: CreateBuiltins(),
		globals:  make(starlark.StringDict),
		log:      log,
	}
	e.thread = &starlark.Thread{
		Name: "vltemplate",
		Print: func(_ *starlark.Thread, msg string) {
			e.log.Info(msg, "source", "starlark")
		},
	}
	return e
}

// SetGlobal makes value visible to scripts under name.
func (e *Evaluator) SetGlobal(name string, value engine.Value) {
	e.globals[name] = ConvertToStarlark(value)
}

// LoadContext exposes every entry of ctx as a global.
func (e *Evaluator) LoadContext(ctx engine.Context) {
	for key, value := range ctx {
		e.SetGlobal(key, value)
	}
}

func (e *Evaluator) predeclared() starlark.StringDict {
	predeclared := make(starlark.StringDict, len(e.builtins)+len(e.globals))
	for k, v := range e.builtins {
		predeclared[k] = v
	}
	for k, v := range e.globals {
		predeclared[k] = v
	}
	return predeclared
}

// ExecFile executes a Starlark file. src may be nil (the file is read from
// disk), a string or a []byte. The resulting globals are kept for Export.
func (e *Evaluator) ExecFile(filename string, src any) (starlark.StringDict, error) {
	globals, err := starlark.ExecFile(e.thread, filename, src, e.predeclared())
	if err != nil {
		return nil, fmt.Errorf("starlark execution error: %w", err)
	}
	for k, v := range globals {
		e.globals[k] = v
	}
	return globals, nil
}

// Export converts the current globals into a template context. Names that
// start with an underscore, builtins and callables are skipped.
func (e *Evaluator) Export() engine.Context {
	ctx := make(engine.Context)
	for key, value := range e.globals {
		if !isExportable(key, value) {
			continue
		}
		ctx[key] = ConvertFromStarlark(value)
	}
	return ctx
}

func isExportable(key string, value starlark.Value) bool {
	if key == "" || key[0] == '_' {
		return false
	}
	if _, ok := value.(starlark.Callable); ok {
		return false
	}
	return true
}
