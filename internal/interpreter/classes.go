package interpreter

import (
	"errors"
	"log/slog"

	"hsl/internal/ast"
	"hsl/internal/diagnostic"
	"hsl/internal/interop"
	"hsl/internal/object"
	"hsl/internal/token"
)

// executeClass binds a class in two phases: the name first holds a
// placeholder, then the finished class replaces it in the same scope.
func (i *Interpreter) executeClass(s *ast.ClassStatement) error {
	var superclass object.ClassReference
	if s.Superclass != nil {
		v, err := i.Evaluate(s.Superclass)
		if err != nil {
			return err
		}
		class, ok := v.(object.ClassReference)
		if !ok {
			return diagnostic.Runtime(s.Superclass.Name, "Superclass must be a class")
		}
		if class.IsFinal() {
			return diagnostic.Runtime(s.Superclass.Name, "Cannot extend class '%s'", declaredName(class))
		}
		superclass = class
	}

	enclosing := i.CurrentEnv()
	enclosing.Define(s.Name.Lexeme, &object.Placeholder{Name: s.Name.Lexeme})

	scope := enclosing
	if superclass != nil {
		scope = object.NewEnclosedScope(enclosing)
		scope.Define("super", superclass)
		i.PushEnv(scope)
	}

	class := &object.VirtualClass{
		Name:       s.Name.Lexeme,
		Superclass: superclass,
		Final:      s.Final,
		Methods:    make(map[string]*object.VirtualFunction, len(s.Methods)),
		Fields:     s.Fields,
		Scope:      scope,
	}
	for _, m := range s.Methods {
		class.Methods[m.Name.Lexeme] = &object.VirtualFunction{Declaration: m, Closure: scope}
	}
	if s.Constructor != nil {
		class.Constructor = &object.VirtualFunction{Declaration: s.Constructor, Closure: scope, IsConstructor: true}
	}

	if superclass != nil {
		i.PopEnv()
	}
	enclosing.Define(s.Name.Lexeme, class)

	i.logger.Debug("class defined",
		slog.String("class", class.Name),
		slog.Int("methods", len(class.Methods)),
		slog.Int("fields", len(class.Fields)),
	)
	return nil
}

// declaredName is the name a class was declared with, ignoring any alias it
// was imported under.
func declaredName(class object.ClassReference) string {
	if c, ok := class.(*object.ExternalClass); ok {
		return c.HostType.Name()
	}
	return class.ClassName()
}

// instantiate allocates an instance, seeds its fields from every class in
// the chain, root first, then runs the nearest constructor. Classes rooted in
// a host type get a host delegate, built from the call arguments when no
// script constructor exists.
func (i *Interpreter) instantiate(at token.Token, class *object.VirtualClass, args []any) (any, error) {
	instance := object.NewVirtualInstance(class)
	ctor := class.FindConstructor()

	root, hosted := class.HostRoot()
	if hosted {
		var hostArgs []any
		if ctor == nil {
			hostArgs = args
		}
		delegate, err := root.Construct(hostArgs)
		if err != nil {
			return nil, diagnostic.Interop(at, err, "Cannot construct '%s': %v", root.ClassName(), err)
		}
		instance.Delegate = delegate.Value
	}

	for _, c := range class.Lineage() {
		if err := i.initializeFields(c, instance); err != nil {
			return nil, err
		}
	}

	if ctor != nil {
		if err := checkArity(at, ctor.Arity(), len(args)); err != nil {
			return nil, err
		}
		if _, err := i.callFunction(at, ctor.Bind(instance), args); err != nil {
			return nil, err
		}
	} else if !hosted {
		if err := checkArity(at, 0, len(args)); err != nil {
			return nil, err
		}
	}
	return instance, nil
}

func (i *Interpreter) initializeFields(class *object.VirtualClass, instance *object.VirtualInstance) error {
	if len(class.Fields) == 0 {
		return nil
	}
	scope := object.NewEnclosedScope(class.Scope)
	scope.Define("this", instance)
	i.PushEnv(scope)
	defer i.PopEnv()

	for _, field := range class.Fields {
		var value any
		if field.Initializer != nil {
			v, err := i.Evaluate(field.Initializer)
			if err != nil {
				return err
			}
			value = v
		}
		instance.Fields[field.Name.Lexeme] = value
	}
	return nil
}

// get reads a property: fields first, then methods along the class chain,
// then members of the host object behind the instance.
func (i *Interpreter) get(name token.Token, target any) (any, error) {
	switch t := target.(type) {
	case *object.VirtualInstance:
		if v, ok := t.Fields[name.Lexeme]; ok {
			return v, nil
		}
		if m, ok := t.Of.FindMethod(name.Lexeme); ok {
			return m.Bind(t), nil
		}
		if root, ok := t.Of.HostRoot(); ok && t.Delegate != nil {
			if v, ok := i.hostMember(root, t.Delegate, name.Lexeme); ok {
				return v, nil
			}
		}

	case *object.ExternalInstance:
		if v, ok := i.hostMember(t.Of, t.Value, name.Lexeme); ok {
			return v, nil
		}

	case *object.Array:
		if name.Lexeme == "length" {
			return float64(len(t.Elements)), nil
		}

	case string:
		if name.Lexeme == "length" {
			return float64(len([]rune(t))), nil
		}

	default:
		return nil, diagnostic.Runtime(name, "Only instances have properties, got %s", object.TypeName(target))
	}
	return nil, diagnostic.Runtime(name, "Undefined property '%s'", name.Lexeme)
}

func (i *Interpreter) hostMember(class *object.ExternalClass, receiver any, name string) (any, bool) {
	if v, ok := class.HostType.Field(receiver, name); ok {
		return i.wrap(v), true
	}
	if m, ok := class.Method(receiver, name); ok {
		return m, true
	}
	return nil, false
}

func (i *Interpreter) evalSet(e *ast.Set) (any, error) {
	target, err := i.Evaluate(e.Object)
	if err != nil {
		return nil, err
	}
	var current any
	if e.Operator != nil {
		if current, err = i.get(e.Name, target); err != nil {
			return nil, err
		}
	}
	value, err := i.Evaluate(e.Value)
	if err != nil {
		return nil, err
	}
	if e.Operator != nil {
		if value, err = binary(*e.Operator, current, value); err != nil {
			return nil, err
		}
	}

	switch t := target.(type) {
	case *object.VirtualInstance:
		if _, own := t.Fields[e.Name.Lexeme]; !own && t.Delegate != nil {
			root, _ := t.Of.HostRoot()
			err := root.HostType.SetField(t.Delegate, e.Name.Lexeme, value)
			if err == nil {
				return value, nil
			}
			if !errors.Is(err, interop.ErrNoSuchMember) {
				return nil, diagnostic.Interop(e.Name, err, "Cannot set '%s': %v", e.Name.Lexeme, err)
			}
		}
		t.Fields[e.Name.Lexeme] = value
		return value, nil

	case *object.ExternalInstance:
		err := t.Of.HostType.SetField(t.Value, e.Name.Lexeme, value)
		if errors.Is(err, interop.ErrNoSuchMember) {
			return nil, diagnostic.Runtime(e.Name, "Undefined property '%s'", e.Name.Lexeme)
		}
		if err != nil {
			return nil, diagnostic.Interop(e.Name, err, "Cannot set '%s': %v", e.Name.Lexeme, err)
		}
		return value, nil
	}
	return nil, diagnostic.Runtime(e.Name, "Only instances have fields, got %s", object.TypeName(target))
}

// evalSuper finds the method on the superclass bound at the class
// definition, and binds it to the current `this`, which lives one scope
// nearer.
func (i *Interpreter) evalSuper(e *ast.Super) (any, error) {
	distance := i.locals[e]
	sv, _ := i.CurrentEnv().GetAt(distance, "super")
	tv, _ := i.CurrentEnv().GetAt(distance-1, "this")
	instance, ok := tv.(*object.VirtualInstance)
	if !ok {
		return nil, diagnostic.Runtime(e.Keyword, "Cannot use 'super' outside of a method")
	}

	switch superclass := sv.(type) {
	case *object.VirtualClass:
		if m, ok := superclass.FindMethod(e.Method.Lexeme); ok {
			return m.Bind(instance), nil
		}
		if root, ok := superclass.HostRoot(); ok && instance.Delegate != nil {
			if m, ok := root.Method(instance.Delegate, e.Method.Lexeme); ok {
				return m, nil
			}
		}
	case *object.ExternalClass:
		if m, ok := superclass.Method(instance.Delegate, e.Method.Lexeme); ok {
			return m, nil
		}
	}
	return nil, diagnostic.Runtime(e.Method, "Undefined property '%s'", e.Method.Lexeme)
}
