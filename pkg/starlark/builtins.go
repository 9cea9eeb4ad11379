package starlark

import (
	"os"

	"go.starlark.net/starlark"
)

// CreateBuiltins returns the builtins available to context scripts in
// addition to the Starlark universe.
func CreateBuiltins() starlark.StringDict {
	return starlark.StringDict{
		"getenv": starlark.NewBuiltin("getenv", getenv),
	}
}

// getenv(name, default="") returns the value of an environment variable.
func getenv(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name, def string
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "name", &name, "default?", &def); err != nil {
		return starlark.None, err
	}
	if v, ok := os.LookupEnv(name); ok {
		return starlark.String(v), nil
	}
	return starlark.String(def), nil
}
