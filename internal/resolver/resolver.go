// Package resolver performs the static pass between parsing and
// interpretation. It computes, for every local variable reference, how many
// scopes separate the use from the declaration, and rejects scripts that break
// the scoping rules of the language before any of it runs.
//
// Top-level declarations are final: once a name is declared as a global
// variable, function, class or native function it can neither be declared
// again nor assigned to, from anywhere in the script.
package resolver

import (
	"maps"

	"hsl/internal/ast"
	"hsl/internal/diagnostic"
	"hsl/internal/token"
)

// Binding kinds, as named in diagnostics.
const (
	KindVariable       = "variable"
	KindFunction       = "function"
	KindClass          = "class"
	KindNativeFunction = "native function"
)

type functionType int

const (
	noFunction functionType = iota
	function
	method
	constructor
)

type classType int

const (
	noClass classType = iota
	class
	subclass
)

type local struct {
	defined bool
	final   bool
}

// NativeCheck reports whether a host module can satisfy a native function
// declaration.
type NativeCheck func(module, function string) bool

type Option func(*Resolver)

// WithNativeCheck makes native function declarations fail resolution when no
// registered module provides them.
func WithNativeCheck(check NativeCheck) Option {
	return func(r *Resolver) {
		r.nativeCheck = check
	}
}

type Resolver struct {
	nativeCheck NativeCheck

	scopes  []map[string]*local
	globals map[string]string // name -> binding kind
	locals  map[ast.Expression]int

	// assignments to names that were not declared yet at the point of use
	pending []*ast.Assign

	currentFunction functionType
	currentClass    classType
	loopDepth       int
}

func New(opts ...Option) *Resolver {
	r := &Resolver{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve walks the program and returns the resolution distance of every
// local reference. Unlisted references are globals. Every call starts from a
// clean state, so resolving the same statements twice yields equal tables.
func (r *Resolver) Resolve(statements []ast.Statement) (map[ast.Expression]int, error) {
	r.globals = make(map[string]string)
	return r.resolveProgram(statements)
}

// Continue resolves statements against the globals declared by earlier calls,
// as an interactive session does. Globals declared by a chunk that fails to
// resolve are forgotten.
func (r *Resolver) Continue(statements []ast.Statement) (map[ast.Expression]int, error) {
	if r.globals == nil {
		r.globals = make(map[string]string)
	}
	saved := maps.Clone(r.globals)
	locals, err := r.resolveProgram(statements)
	if err != nil {
		r.globals = saved
	}
	return locals, err
}

func (r *Resolver) resolveProgram(statements []ast.Statement) (map[ast.Expression]int, error) {
	r.scopes = nil
	r.locals = make(map[ast.Expression]int)
	r.pending = nil
	r.currentFunction = noFunction
	r.currentClass = noClass
	r.loopDepth = 0

	if err := r.resolveStatements(statements); err != nil {
		return nil, err
	}

	for _, assign := range r.pending {
		if kind, ok := r.globals[assign.Name.Lexeme]; ok {
			return nil, reassignError(assign.Name, kind)
		}
	}
	return r.locals, nil
}

// Globals returns the finality table built by the last call to Resolve.
func (r *Resolver) Globals() map[string]string {
	return r.globals
}

func reassignError(name token.Token, kind string) error {
	return diagnostic.Resolution(name, "Cannot reassign %s '%s'", kind, name.Lexeme)
}

func (r *Resolver) resolveStatements(statements []ast.Statement) error {
	for _, stmt := range statements {
		if err := r.resolveStatement(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resolver) resolveStatement(stmt ast.Statement) error {
	switch s := stmt.(type) {
	case *ast.BlockStatement:
		r.beginScope()
		defer r.endScope()
		return r.resolveStatements(s.Statements)

	case *ast.VarStatement:
		if err := r.declare(s.Name, KindVariable, s.Final); err != nil {
			return err
		}
		if s.Initializer != nil {
			if err := r.resolveExpression(s.Initializer); err != nil {
				return err
			}
		}
		r.define(s.Name)
		return nil

	case *ast.FunctionStatement:
		if err := r.declare(s.Name, KindFunction, false); err != nil {
			return err
		}
		r.define(s.Name)
		return r.resolveFunction(s, function)

	case *ast.NativeFunctionStatement:
		return r.resolveNativeFunction(s)

	case *ast.ClassStatement:
		return r.resolveClass(s)

	case *ast.ExpressionStatement:
		return r.resolveExpression(s.Expression)

	case *ast.PrintStatement:
		return r.resolveExpression(s.Expression)

	case *ast.YieldStatement:
		return r.resolveExpression(s.Value)

	case *ast.IfStatement:
		if err := r.resolveExpression(s.Condition); err != nil {
			return err
		}
		if err := r.resolveStatement(s.Then); err != nil {
			return err
		}
		if s.Else != nil {
			return r.resolveStatement(s.Else)
		}
		return nil

	case *ast.WhileStatement:
		if err := r.resolveExpression(s.Condition); err != nil {
			return err
		}
		if s.Increment != nil {
			if err := r.resolveExpression(s.Increment); err != nil {
				return err
			}
		}
		return r.resolveLoopBody(s.Body)

	case *ast.DoWhileStatement:
		if err := r.resolveLoopBody(s.Body); err != nil {
			return err
		}
		return r.resolveExpression(s.Condition)

	case *ast.RepeatStatement:
		if err := r.resolveExpression(s.Count); err != nil {
			return err
		}
		return r.resolveLoopBody(s.Body)

	case *ast.BreakStatement:
		if r.loopDepth == 0 {
			return diagnostic.Resolution(s.Token, "Cannot use 'break' outside of a loop")
		}
		return nil

	case *ast.ContinueStatement:
		if r.loopDepth == 0 {
			return diagnostic.Resolution(s.Token, "Cannot use 'continue' outside of a loop")
		}
		return nil

	case *ast.ReturnStatement:
		if r.currentFunction == noFunction {
			return diagnostic.Resolution(s.Token, "Cannot return from top-level code")
		}
		if s.ReturnValue == nil {
			return nil
		}
		if r.currentFunction == constructor {
			return diagnostic.Resolution(s.Token, "Cannot return a value from a constructor")
		}
		return r.resolveExpression(s.ReturnValue)
	}
	return nil
}

func (r *Resolver) resolveLoopBody(body ast.Statement) error {
	r.loopDepth++
	defer func() { r.loopDepth-- }()
	return r.resolveStatement(body)
}

func (r *Resolver) resolveNativeFunction(s *ast.NativeFunctionStatement) error {
	if len(r.scopes) > 0 {
		return diagnostic.Resolution(s.Token, "Native function '%s' must be declared at top level", s.Name.Lexeme)
	}
	if r.nativeCheck != nil && !r.nativeCheck(s.Module.Lexeme, s.Name.Lexeme) {
		return diagnostic.Resolution(s.Name, "No module provides native function '%s.%s'", s.Module.Lexeme, s.Name.Lexeme)
	}
	if err := r.declare(s.Name, KindNativeFunction, true); err != nil {
		return err
	}

	seen := make(map[string]bool, len(s.Params))
	for _, param := range s.Params {
		if seen[param.Lexeme] {
			return diagnostic.Resolution(param, "Variable '%s' is already declared in this scope", param.Lexeme)
		}
		seen[param.Lexeme] = true
	}
	return nil
}

func (r *Resolver) resolveFunction(fn ast.Function, kind functionType) error {
	enclosingFunction := r.currentFunction
	enclosingLoops := r.loopDepth
	r.currentFunction = kind
	r.loopDepth = 0
	defer func() {
		r.currentFunction = enclosingFunction
		r.loopDepth = enclosingLoops
	}()

	r.beginScope()
	defer r.endScope()

	for _, param := range fn.Parameters() {
		if err := r.declare(param, KindVariable, false); err != nil {
			return err
		}
		r.define(param)
	}
	return r.resolveStatements(fn.Statements())
}

func (r *Resolver) resolveClass(s *ast.ClassStatement) error {
	enclosingClass := r.currentClass
	r.currentClass = class
	defer func() { r.currentClass = enclosingClass }()

	if err := r.declare(s.Name, KindClass, false); err != nil {
		return err
	}
	r.define(s.Name)

	if s.Superclass != nil {
		if s.Superclass.Name.Lexeme == s.Name.Lexeme {
			return diagnostic.Resolution(s.Superclass.Name, "A class cannot extend itself")
		}
		r.currentClass = subclass
		if err := r.resolveExpression(s.Superclass); err != nil {
			return err
		}
		r.beginScope()
		r.scopes[len(r.scopes)-1]["super"] = &local{defined: true, final: true}
		defer r.endScope()
	}

	r.beginScope()
	r.scopes[len(r.scopes)-1]["this"] = &local{defined: true, final: true}
	defer r.endScope()

	for _, field := range s.Fields {
		if field.Initializer == nil {
			continue
		}
		if err := r.resolveExpression(field.Initializer); err != nil {
			return err
		}
	}
	if s.Constructor != nil {
		if err := r.resolveFunction(s.Constructor, constructor); err != nil {
			return err
		}
	}
	for _, m := range s.Methods {
		if err := r.resolveFunction(m, method); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resolver) resolveExpression(expr ast.Expression) error {
	switch e := expr.(type) {
	case *ast.Variable:
		if len(r.scopes) > 0 {
			if l, ok := r.scopes[len(r.scopes)-1][e.Name.Lexeme]; ok && !l.defined {
				return diagnostic.Resolution(e.Name, "Cannot read local variable '%s' in its own initializer", e.Name.Lexeme)
			}
		}
		r.resolveLocal(e, e.Name.Lexeme)
		return nil

	case *ast.Assign:
		if err := r.resolveExpression(e.Value); err != nil {
			return err
		}
		if l, ok := r.resolveLocal(e, e.Name.Lexeme); ok {
			if l.final {
				return reassignError(e.Name, KindVariable)
			}
			return nil
		}
		if kind, ok := r.globals[e.Name.Lexeme]; ok {
			return reassignError(e.Name, kind)
		}
		r.pending = append(r.pending, e)
		return nil

	case *ast.Literal:
		return nil

	case *ast.Grouping:
		return r.resolveExpression(e.Expression)

	case *ast.Unary:
		return r.resolveExpression(e.Right)

	case *ast.Binary:
		return r.resolveExpressions(e.Left, e.Right)

	case *ast.Logical:
		return r.resolveExpressions(e.Left, e.Right)

	case *ast.Bitwise:
		return r.resolveExpressions(e.Left, e.Right)

	case *ast.Ternary:
		return r.resolveExpressions(e.Condition, e.Then, e.Else)

	case *ast.Call:
		if err := r.resolveExpression(e.Callee); err != nil {
			return err
		}
		return r.resolveExpressions(e.Arguments...)

	case *ast.Get:
		return r.resolveExpression(e.Object)

	case *ast.Set:
		return r.resolveExpressions(e.Value, e.Object)

	case *ast.Index:
		return r.resolveExpressions(e.Object, e.Index)

	case *ast.IndexSet:
		return r.resolveExpressions(e.Value, e.Object, e.Index)

	case *ast.Array:
		return r.resolveExpressions(e.Elements...)

	case *ast.This:
		if r.currentClass == noClass {
			return diagnostic.Resolution(e.Keyword, "Cannot use 'this' outside of a class")
		}
		r.resolveLocal(e, "this")
		return nil

	case *ast.Super:
		switch r.currentClass {
		case noClass:
			return diagnostic.Resolution(e.Keyword, "Cannot use 'super' outside of a class")
		case class:
			return diagnostic.Resolution(e.Keyword, "Cannot use 'super' in a class with no superclass")
		}
		r.resolveLocal(e, "super")
		return nil
	}
	return nil
}

func (r *Resolver) resolveExpressions(exprs ...ast.Expression) error {
	for _, expr := range exprs {
		if err := r.resolveExpression(expr); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resolver) beginScope() {
	r.scopes = append(r.scopes, make(map[string]*local))
}

func (r *Resolver) endScope() {
	r.scopes = r.scopes[:len(r.scopes)-1]
}

// declare registers a name in the innermost scope, or in the finality table at
// top level.
func (r *Resolver) declare(name token.Token, kind string, final bool) error {
	if len(r.scopes) == 0 {
		if existing, ok := r.globals[name.Lexeme]; ok {
			return reassignError(name, existing)
		}
		r.globals[name.Lexeme] = kind
		return nil
	}

	scope := r.scopes[len(r.scopes)-1]
	if _, ok := scope[name.Lexeme]; ok {
		return diagnostic.Resolution(name, "Variable '%s' is already declared in this scope", name.Lexeme)
	}
	scope[name.Lexeme] = &local{final: final}
	return nil
}

func (r *Resolver) define(name token.Token) {
	if len(r.scopes) == 0 {
		return
	}
	r.scopes[len(r.scopes)-1][name.Lexeme].defined = true
}

func (r *Resolver) resolveLocal(expr ast.Expression, name string) (*local, bool) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if l, ok := r.scopes[i][name]; ok {
			r.locals[expr] = len(r.scopes) - 1 - i
			return l, true
		}
	}
	return nil, false
}
