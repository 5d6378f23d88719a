package codegen

import (
	"fmt"

	"github.com/strager/whilejvm/jvm"
	"github.com/strager/whilejvm/lang"
)

func at(pos lang.Pos, msg string) string {
	if !pos.IsValid() {
		return msg
	}
	return pos.String() + ": " + msg
}

// UnboundVariableError is a reference to a name with no visible declaration.
type UnboundVariableError struct {
	Name string
	Pos  lang.Pos
}

func (e *UnboundVariableError) Error() string {
	return at(e.Pos, "unbound variable "+e.Name)
}

// UnboundFunctionError is a call to a function the program does not declare.
type UnboundFunctionError struct {
	Name string
	Pos  lang.Pos
}

func (e *UnboundFunctionError) Error() string {
	return at(e.Pos, "unbound function "+e.Name)
}

// UnsupportedConstructError is a well-typed construct the backend cannot lower.
type UnsupportedConstructError struct {
	What string
	Pos  lang.Pos
}

func (e *UnsupportedConstructError) Error() string {
	return at(e.Pos, "unsupported construct: "+e.What)
}

type UnsupportedCastError struct {
	From lang.Type
	To   lang.Type
	Pos  lang.Pos
}

func (e *UnsupportedCastError) Error() string {
	return at(e.Pos, fmt.Sprintf("unsupported cast from %s to %s", e.From, e.To))
}

// UnsupportedTypeError is a source type with no machine representation.
type UnsupportedTypeError struct {
	Type   lang.Type
	Reason string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported type %s: %s", e.Type, e.Reason)
}

type UnresolvedLabelError struct {
	Label  jvm.Label
	Reason string
}

func (e *UnresolvedLabelError) Error() string {
	return fmt.Sprintf("label %s: %s", e.Label, e.Reason)
}

type DuplicateParameterError struct {
	Function string
	Name     string
}

func (e *DuplicateParameterError) Error() string {
	return fmt.Sprintf("duplicate parameter %s in %s", e.Name, e.Function)
}

type DuplicateFunctionError struct {
	Name string
	Pos  lang.Pos
}

func (e *DuplicateFunctionError) Error() string {
	return at(e.Pos, "duplicate function "+e.Name)
}

// TypeMismatchError means the AST's type attributes disagree with each other.
// Upstream type checking should make it impossible.
type TypeMismatchError struct {
	Context string
	Want    jvm.Type
	Got     jvm.Type
	Pos     lang.Pos
}

func (e *TypeMismatchError) Error() string {
	return at(e.Pos, fmt.Sprintf("type mismatch in %s: want %s, got %s", e.Context, e.Want, e.Got))
}

// FunctionError attributes a code generation failure to a function.
type FunctionError struct {
	Function string
	Pos      lang.Pos
	Err      error
}

func (e *FunctionError) Error() string {
	return fmt.Sprintf("function %s: %v", e.Function, e.Err)
}

func (e *FunctionError) Unwrap() error { return e.Err }

// Cause lets github.com/pkg/errors.Cause see through the wrapper.
func (e *FunctionError) Cause() error { return e.Err }
