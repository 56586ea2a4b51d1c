package object

import (
	"fmt"

	"hsl/internal/ast"
	"hsl/internal/interop"
)

// VirtualFunction is a function declared by the script, closed over the scope
// it was declared in.
type VirtualFunction struct {
	Declaration   ast.Function
	Closure       *VariableScope
	IsConstructor bool
}

func (f *VirtualFunction) Type() ObjectType { return FUNCTION_OBJ }
func (f *VirtualFunction) Inspect() string {
	return fmt.Sprintf("<function %s>", f.Declaration.FunctionName())
}

func (f *VirtualFunction) Name() string { return f.Declaration.FunctionName() }
func (f *VirtualFunction) Arity() int   { return len(f.Declaration.Parameters()) }

// Bind returns a copy of f whose closure has `this` bound to instance.
func (f *VirtualFunction) Bind(instance InstanceReference) *VirtualFunction {
	scope := NewEnclosedScope(f.Closure)
	scope.Define("this", instance)
	return &VirtualFunction{
		Declaration:   f.Declaration,
		Closure:       scope,
		IsConstructor: f.IsConstructor,
	}
}

// NativeFunction backs a `native function` declaration with a host module
// function.
type NativeFunction struct {
	Module string
	Name   string
	Params int
	Fn     func(args []any) (any, error)
}

func (n *NativeFunction) Type() ObjectType { return NATIVE_FUNCTION_OBJ }
func (n *NativeFunction) Inspect() string {
	return fmt.Sprintf("<native function %s.%s>", n.Module, n.Name)
}
func (n *NativeFunction) Arity() int { return n.Params }

// ExternalFunction is a host function or a host method bound to its receiver.
// Its arity is decided per call by overload lookup, so Arity reports -1.
type ExternalFunction struct {
	Name        string
	Executables []interop.Executable
	Receiver    any
}

func (e *ExternalFunction) Type() ObjectType { return EXTERNAL_FUNCTION_OBJ }
func (e *ExternalFunction) Inspect() string  { return fmt.Sprintf("<external function %s>", e.Name) }
func (e *ExternalFunction) Arity() int       { return -1 }

// Call picks the best overload for args and invokes it.
func (e *ExternalFunction) Call(args []any) (any, error) {
	exe, err := interop.Lookup(e.Executables, args)
	if err != nil {
		return nil, err
	}
	return exe.Invoke(e.Receiver, args)
}
