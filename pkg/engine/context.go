package engine

// Context maps identifiers to values. The resolver never mutates it.
type Context map[string]Value

// NewContext converts a map[string]any, such as decoded JSON or YAML, into a
// Context.
func NewContext(m map[string]any) Context {
	ctx := make(Context, len(m))
	for k, v := range m {
		ctx[k] = FromGo(v)
	}
	return ctx
}

// Has reports whether name is bound, even to a none value.
func (c Context) Has(name string) bool {
	_, ok := c[name]
	return ok
}

// Lookup returns the value bound to name.
func (c Context) Lookup(name string) (Value, bool) {
	v, ok := c[name]
	if ok && v == nil {
		v = NoneValue{}
	}
	return v, ok
}

// Sequence returns the elements bound to name. It fails with a
// NotDefinedError when name is unbound and an IncorrectTypeError when the
// value is not a list.
func (c Context) Sequence(name string) ([]Value, error) {
	v, ok := c.Lookup(name)
	if !ok {
		return nil, &NotDefinedError{Entity: EntityVariable, Name: name}
	}
	list, ok := v.(ListValue)
	if !ok {
		return nil, &IncorrectTypeError{Name: name}
	}
	return list, nil
}
