package object

import (
	"fmt"

	"hsl/internal/ast"
	"hsl/internal/interop"
)

// ClassReference is either a VirtualClass declared by the script or an
// ExternalClass wrapping a host type.
type ClassReference interface {
	Object
	ClassName() string
	Super() ClassReference
	IsFinal() bool
}

// InstanceReference is either a VirtualInstance or an ExternalInstance.
type InstanceReference interface {
	Object
	Class() ClassReference
}

type VirtualClass struct {
	Name        string
	Superclass  ClassReference
	Final       bool
	Constructor *VirtualFunction
	Methods     map[string]*VirtualFunction
	Fields      []*ast.FieldStatement
	// Scope is where the class body was evaluated; field initializers run in
	// a child of it with `this` bound.
	Scope *VariableScope
}

func (c *VirtualClass) Type() ObjectType      { return CLASS_OBJ }
func (c *VirtualClass) Inspect() string       { return fmt.Sprintf("<class %s>", c.Name) }
func (c *VirtualClass) ClassName() string     { return c.Name }
func (c *VirtualClass) Super() ClassReference { return c.Superclass }
func (c *VirtualClass) IsFinal() bool         { return c.Final }

// FindMethod looks name up in the class, then along its virtual superclass
// chain.
func (c *VirtualClass) FindMethod(name string) (*VirtualFunction, bool) {
	for class := c; class != nil; {
		if m, ok := class.Methods[name]; ok {
			return m, true
		}
		class, _ = class.Superclass.(*VirtualClass)
	}
	return nil, false
}

// FindConstructor returns the nearest declared constructor, if any.
func (c *VirtualClass) FindConstructor() *VirtualFunction {
	for class := c; class != nil; {
		if class.Constructor != nil {
			return class.Constructor
		}
		class, _ = class.Superclass.(*VirtualClass)
	}
	return nil
}

// HostRoot returns the external class at the top of the superclass chain.
func (c *VirtualClass) HostRoot() (*ExternalClass, bool) {
	var super ClassReference = c
	for super != nil {
		switch s := super.(type) {
		case *ExternalClass:
			return s, true
		case *VirtualClass:
			super = s.Superclass
		default:
			return nil, false
		}
	}
	return nil, false
}

// Lineage lists the virtual classes from the root of the chain down to c.
func (c *VirtualClass) Lineage() []*VirtualClass {
	var chain []*VirtualClass
	for class := c; class != nil; {
		chain = append([]*VirtualClass{class}, chain...)
		class, _ = class.Superclass.(*VirtualClass)
	}
	return chain
}

type VirtualInstance struct {
	Of     *VirtualClass
	Fields map[string]any
	// Delegate is the host object backing an instance whose class extends an
	// external class.
	Delegate any
}

func NewVirtualInstance(class *VirtualClass) *VirtualInstance {
	return &VirtualInstance{Of: class, Fields: make(map[string]any)}
}

func (i *VirtualInstance) Type() ObjectType      { return INSTANCE_OBJ }
func (i *VirtualInstance) Inspect() string       { return fmt.Sprintf("<%s instance>", i.Of.Name) }
func (i *VirtualInstance) Class() ClassReference { return i.Of }

// HostObject lets host code receive the delegate when one exists.
func (i *VirtualInstance) HostObject() any {
	if i.Delegate != nil {
		return i.Delegate
	}
	return i
}

type ExternalClass struct {
	HostType interop.Type
	Alias    string
}

func (c *ExternalClass) Type() ObjectType      { return EXTERNAL_CLASS_OBJ }
func (c *ExternalClass) Inspect() string       { return fmt.Sprintf("<class %s>", c.ClassName()) }
func (c *ExternalClass) Super() ClassReference { return nil }
func (c *ExternalClass) IsFinal() bool         { return c.HostType.IsFinal() }

func (c *ExternalClass) ClassName() string {
	if c.Alias != "" {
		return c.Alias
	}
	return c.HostType.Name()
}

// Construct selects the best matching host constructor for args.
func (c *ExternalClass) Construct(args []any) (*ExternalInstance, error) {
	ctor, err := interop.Lookup(c.HostType.Constructors(), args)
	if err != nil {
		return nil, err
	}
	v, err := ctor.Invoke(nil, args)
	if err != nil {
		return nil, err
	}
	return &ExternalInstance{Of: c, Value: v}, nil
}

// Method returns the host method name bound to receiver.
func (c *ExternalClass) Method(receiver any, name string) (*ExternalFunction, bool) {
	methods := c.HostType.Methods(name)
	if len(methods) == 0 {
		return nil, false
	}
	return &ExternalFunction{Name: c.ClassName() + "." + name, Executables: methods, Receiver: receiver}, true
}

type ExternalInstance struct {
	Of    *ExternalClass
	Value any
}

func (i *ExternalInstance) Type() ObjectType      { return EXTERNAL_INSTANCE_OBJ }
func (i *ExternalInstance) Inspect() string       { return fmt.Sprintf("<%s instance>", i.Of.ClassName()) }
func (i *ExternalInstance) Class() ClassReference { return i.Of }
func (i *ExternalInstance) HostObject() any       { return i.Value }

var (
	_ interop.HostValue = (*ExternalInstance)(nil)
	_ interop.HostValue = (*VirtualInstance)(nil)
)
