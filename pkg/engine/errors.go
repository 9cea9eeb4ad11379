package engine

import (
	"errors"
	"fmt"
)

// Error is implemented by every error the engine returns. Kind names the
// error class, e.g. "NotDefinedError".
type Error interface {
	error
	Kind() string
}

// EntityType tells which directive's lookup failed.
type EntityType string

const (
	EntityVariable             EntityType = "variable"
	EntityAttributeInitializer EntityType = "attribute-initializer"
)

// ValidationError reports malformed markup or an empty interpolation.
type ValidationError struct {
	Reason string
	Cause  error
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return "markup is not valid: " + e.Reason
	}
	return "markup is not valid"
}

func (e *ValidationError) Unwrap() error { return e.Cause }
func (*ValidationError) Kind() string    { return "ValidationError" }

// NotDefinedError reports an identifier missing from the context.
type NotDefinedError struct {
	Entity EntityType
	Name   string
}

func (e *NotDefinedError) Error() string {
	return fmt.Sprintf("%s %q is not defined", e.Entity, e.Name)
}

func (*NotDefinedError) Kind() string { return "NotDefinedError" }

// EmptyAttributeError reports an attribute binding without an initializer.
type EmptyAttributeError struct {
	Attribute string
}

func (e *EmptyAttributeError) Error() string {
	return fmt.Sprintf("attribute %q has an empty initializer", e.Attribute)
}

func (*EmptyAttributeError) Kind() string { return "EmptyAttributeError" }

// IncorrectForParamsError reports a vl-for value not shaped like
// "<item> in <items>".
type IncorrectForParamsError struct {
	Params string
}

func (e *IncorrectForParamsError) Error() string {
	return fmt.Sprintf("incorrect vl-for params %q, expected \"<item> in <items>\"", e.Params)
}

func (*IncorrectForParamsError) Kind() string { return "IncorrectForParamsError" }

// IncorrectTypeError reports a loop source that is not a list.
type IncorrectTypeError struct {
	Name string
}

func (e *IncorrectTypeError) Error() string {
	return fmt.Sprintf("variable %q has incorrect type, expected an array", e.Name)
}

func (*IncorrectTypeError) Kind() string { return "IncorrectTypeError" }

// IncorrectConditionParamsError reports a vl-if value that is not a single
// identifier.
type IncorrectConditionParamsError struct {
	Params string
}

func (e *IncorrectConditionParamsError) Error() string {
	return fmt.Sprintf("incorrect vl-if params %q, expected a single identifier", e.Params)
}

func (*IncorrectConditionParamsError) Kind() string { return "IncorrectConditionParamsError" }

var (
	_ Error = &ValidationError{}
	_ Error = &NotDefinedError{}
	_ Error = &EmptyAttributeError{}
	_ Error = &IncorrectForParamsError{}
	_ Error = &IncorrectTypeError{}
	_ Error = &IncorrectConditionParamsError{}
)

// Describe formats err as "<Kind>: <message>". Errors outside the engine's
// taxonomy are reported with the kind "Error".
func Describe(err error) string {
	var e Error
	if errors.As(err, &e) {
		return e.Kind() + ": " + e.Error()
	}
	return "Error: " + err.Error()
}
