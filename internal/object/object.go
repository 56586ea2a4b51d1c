package object

import (
	"bytes"
	"fmt"
	"strings"

	"hsl/internal/interop"
)

const (
	ARRAY_OBJ = "ARRAY"

	FUNCTION_OBJ          = "FUNCTION"
	NATIVE_FUNCTION_OBJ   = "NATIVE_FUNCTION"
	EXTERNAL_FUNCTION_OBJ = "EXTERNAL_FUNCTION"

	CLASS_OBJ             = "CLASS"
	EXTERNAL_CLASS_OBJ    = "EXTERNAL_CLASS"
	INSTANCE_OBJ          = "INSTANCE"
	EXTERNAL_INSTANCE_OBJ = "EXTERNAL_INSTANCE"

	UNINITIALIZED_OBJ = "UNINITIALIZED"
)

type ObjectType string

// Object is implemented by every composite runtime value. Scalars are carried
// as plain Go values: nil, bool, float64, string and rune.
type Object interface {
	Type() ObjectType
	Inspect() string
}

type Array struct {
	Elements []any
}

func NewArray(elements ...any) *Array {
	if elements == nil {
		elements = []any{}
	}
	return &Array{Elements: elements}
}

func (a *Array) Type() ObjectType { return ARRAY_OBJ }
func (a *Array) Inspect() string {
	var out bytes.Buffer

	elements := make([]string, len(a.Elements))
	for i, e := range a.Elements {
		elements[i] = Inspect(e)
	}

	out.WriteString("[")
	out.WriteString(strings.Join(elements, ", "))
	out.WriteString("]")
	return out.String()
}

// Values exposes the elements to host code expecting a slice.
func (a *Array) Values() []any { return a.Elements }

var _ interop.Sequence = (*Array)(nil)

// Placeholder is bound to a class name while the class is being built, so
// the class body may refer to itself.
type Placeholder struct {
	Name string
}

func (p *Placeholder) Type() ObjectType { return UNINITIALIZED_OBJ }
func (p *Placeholder) Inspect() string  { return fmt.Sprintf("<uninitialized %s>", p.Name) }

// Callable is implemented by every value scripts can call.
type Callable interface {
	Object
	Arity() int
}
