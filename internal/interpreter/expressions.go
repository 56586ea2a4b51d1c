package interpreter

import (
	"fmt"
	"math"

	"hsl/internal/ast"
	"hsl/internal/diagnostic"
	"hsl/internal/object"
	"hsl/internal/token"
)

func (i *Interpreter) Evaluate(expr ast.Expression) (any, error) {
	switch e := expr.(type) {
	case *ast.Literal:
		return e.Value, nil

	case *ast.Grouping:
		return i.Evaluate(e.Expression)

	case *ast.Variable:
		return i.lookUpVariable(e.Name, e)

	case *ast.Assign:
		value, err := i.Evaluate(e.Value)
		if err != nil {
			return nil, err
		}
		if distance, ok := i.locals[e]; ok {
			if i.CurrentEnv().AssignAt(distance, e.Name.Lexeme, value) {
				return value, nil
			}
		} else if i.globals.Assign(e.Name.Lexeme, value) {
			return value, nil
		}
		return nil, diagnostic.Runtime(e.Name, "Undefined variable '%s'", e.Name.Lexeme)

	case *ast.Unary:
		right, err := i.Evaluate(e.Right)
		if err != nil {
			return nil, err
		}
		return unary(e.Operator, right)

	case *ast.Binary:
		left, err := i.Evaluate(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := i.Evaluate(e.Right)
		if err != nil {
			return nil, err
		}
		return binary(e.Operator, left, right)

	case *ast.Bitwise:
		left, err := i.Evaluate(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := i.Evaluate(e.Right)
		if err != nil {
			return nil, err
		}
		return bitwise(e.Operator, left, right)

	case *ast.Logical:
		left, err := i.condition(e.Left, e.Operator)
		if err != nil {
			return nil, err
		}
		if e.Operator.Type == token.LOGICAL_OR && left {
			return true, nil
		}
		if e.Operator.Type == token.LOGICAL_AND && !left {
			return false, nil
		}
		return i.condition(e.Right, e.Operator)

	case *ast.Ternary:
		ok, err := i.condition(e.Condition, e.Token)
		if err != nil {
			return nil, err
		}
		if ok {
			return i.Evaluate(e.Then)
		}
		return i.Evaluate(e.Else)

	case *ast.Array:
		elements := make([]any, len(e.Elements))
		for n, el := range e.Elements {
			v, err := i.Evaluate(el)
			if err != nil {
				return nil, err
			}
			elements[n] = v
		}
		return object.NewArray(elements...), nil

	case *ast.Index:
		target, err := i.Evaluate(e.Object)
		if err != nil {
			return nil, err
		}
		index, err := i.Evaluate(e.Index)
		if err != nil {
			return nil, err
		}
		return i.index(e.Bracket, target, index)

	case *ast.IndexSet:
		return i.evalIndexSet(e)

	case *ast.Call:
		return i.evalCall(e)

	case *ast.Get:
		target, err := i.Evaluate(e.Object)
		if err != nil {
			return nil, err
		}
		return i.get(e.Name, target)

	case *ast.Set:
		return i.evalSet(e)

	case *ast.This:
		return i.lookUpVariable(e.Keyword, e)

	case *ast.Super:
		return i.evalSuper(e)
	}
	return nil, fmt.Errorf("unknown expression %T", expr)
}

func (i *Interpreter) lookUpVariable(name token.Token, expr ast.Expression) (any, error) {
	var (
		value any
		ok    bool
	)
	if distance, local := i.locals[expr]; local {
		value, ok = i.CurrentEnv().GetAt(distance, name.Lexeme)
	} else {
		value, ok = i.globals.Get(name.Lexeme)
	}
	if !ok {
		return nil, diagnostic.Runtime(name, "Undefined variable '%s'", name.Lexeme)
	}
	if p, pending := value.(*object.Placeholder); pending {
		return nil, diagnostic.Runtime(name, "Class '%s' is not defined yet", p.Name)
	}
	return value, nil
}

func (i *Interpreter) arguments(exprs []ast.Expression) ([]any, error) {
	args := make([]any, len(exprs))
	for n, expr := range exprs {
		v, err := i.Evaluate(expr)
		if err != nil {
			return nil, err
		}
		args[n] = v
	}
	return args, nil
}

// integer accepts only numbers with no fractional part.
func integer(v any) (int, bool) {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}

func (i *Interpreter) index(at token.Token, target, index any) (any, error) {
	n, ok := integer(index)
	if !ok {
		return nil, diagnostic.Runtime(at, "Index must be an integer, got %s", object.TypeName(index))
	}

	switch t := target.(type) {
	case *object.Array:
		if n < 0 || n >= len(t.Elements) {
			return nil, diagnostic.Runtime(at, "Index %d out of bounds for length %d", n, len(t.Elements))
		}
		return t.Elements[n], nil
	case string:
		runes := []rune(t)
		if n < 0 || n >= len(runes) {
			return nil, diagnostic.Runtime(at, "Index %d out of bounds for length %d", n, len(runes))
		}
		return runes[n], nil
	}
	return nil, diagnostic.Runtime(at, "Cannot index a value of type %s", object.TypeName(target))
}

func (i *Interpreter) evalIndexSet(e *ast.IndexSet) (any, error) {
	target, err := i.Evaluate(e.Object)
	if err != nil {
		return nil, err
	}
	index, err := i.Evaluate(e.Index)
	if err != nil {
		return nil, err
	}
	var current any
	if e.Operator != nil {
		if current, err = i.index(e.Bracket, target, index); err != nil {
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

	arr, ok := target.(*object.Array)
	if !ok {
		return nil, diagnostic.Runtime(e.Bracket, "Cannot assign to an index of type %s", object.TypeName(target))
	}
	n, ok := integer(index)
	if !ok {
		return nil, diagnostic.Runtime(e.Bracket, "Index must be an integer, got %s", object.TypeName(index))
	}
	if n < 0 || n >= len(arr.Elements) {
		return nil, diagnostic.Runtime(e.Bracket, "Index %d out of bounds for length %d", n, len(arr.Elements))
	}
	arr.Elements[n] = value
	return value, nil
}

func (i *Interpreter) evalCall(e *ast.Call) (any, error) {
	callee, err := i.Evaluate(e.Callee)
	if err != nil {
		return nil, err
	}
	args, err := i.arguments(e.Arguments)
	if err != nil {
		return nil, err
	}

	if _, method := e.Callee.(*ast.Get); method {
		if _, ok := callee.(*object.ExternalClass); ok {
			return nil, diagnostic.Runtime(e.Paren, "Cannot call a class with an instance")
		}
	}
	return i.call(e.Paren, callee, args)
}

func (i *Interpreter) call(at token.Token, callee any, args []any) (any, error) {
	switch fn := callee.(type) {
	case *object.VirtualFunction:
		if err := checkArity(at, fn.Arity(), len(args)); err != nil {
			return nil, err
		}
		return i.callFunction(at, fn, args)

	case *object.NativeFunction:
		if err := checkArity(at, fn.Arity(), len(args)); err != nil {
			return nil, err
		}
		v, err := fn.Fn(args)
		if err != nil {
			return nil, diagnostic.Interop(at, err, "Native function '%s.%s' failed: %v", fn.Module, fn.Name, err)
		}
		return i.wrap(v), nil

	case *object.ExternalFunction:
		v, err := fn.Call(args)
		if err != nil {
			return nil, diagnostic.Interop(at, err, "Call to '%s' failed: %v", fn.Name, err)
		}
		return i.wrap(v), nil

	case *object.VirtualClass:
		return i.instantiate(at, fn, args)

	case *object.ExternalClass:
		inst, err := fn.Construct(args)
		if err != nil {
			return nil, diagnostic.Interop(at, err, "Cannot construct '%s': %v", fn.ClassName(), err)
		}
		return inst, nil
	}
	return nil, diagnostic.Runtime(at, "Can only call functions and classes, got %s", object.TypeName(callee))
}

func checkArity(at token.Token, arity, got int) error {
	if arity != got {
		return diagnostic.Runtime(at, "Expected %d arguments but got %d", arity, got)
	}
	return nil
}

// callFunction runs fn's body in a new scope holding its parameters.
func (i *Interpreter) callFunction(at token.Token, fn *object.VirtualFunction, args []any) (any, error) {
	if i.depth >= i.maxDepth {
		return nil, diagnostic.Runtime(at, "Stack overflow")
	}
	i.depth++
	defer func() { i.depth-- }()

	scope := object.NewEnclosedScope(fn.Closure)
	for n, param := range fn.Declaration.Parameters() {
		scope.Define(param.Lexeme, args[n])
	}

	c, err := i.executeBlock(fn.Declaration.Statements(), scope)
	if err != nil {
		return nil, err
	}
	if fn.IsConstructor {
		this, _ := fn.Closure.GetAt(0, "this")
		return this, nil
	}
	if c.flow == flowReturn {
		return c.value, nil
	}
	return nil, nil
}
