// Package interpreter walks a resolved program and executes it against a
// scope chain rooted at a fresh global scope.
package interpreter

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"reflect"

	"hsl/internal/ast"
	"hsl/internal/diagnostic"
	"hsl/internal/interop"
	"hsl/internal/object"
	"hsl/internal/token"
)

// DefaultResult is the results key used by `yield` without `as` and by the
// value of the last top-level expression statement.
const DefaultResult = "$__result__$"

const defaultMaxDepth = 1024

// Results receives the values a script yields.
type Results interface {
	AddNamedResult(id string, value any)
}

type Option func(*Interpreter)

func WithOutput(w io.Writer) Option {
	return func(i *Interpreter) { i.out = w }
}

func WithResults(results Results) Option {
	return func(i *Interpreter) { i.results = results }
}

func WithLogger(logger *slog.Logger) Option {
	return func(i *Interpreter) { i.logger = logger }
}

// WithMaxDepth bounds the depth of nested script calls.
func WithMaxDepth(depth int) Option {
	return func(i *Interpreter) { i.maxDepth = depth }
}

type flow int

const (
	flowNormal flow = iota
	flowBreak
	flowContinue
	flowReturn
)

// completion is how a statement finished. Return values travel with it.
type completion struct {
	flow  flow
	value any
}

var normal = completion{}

type Interpreter struct {
	globals  *object.VariableScope
	envStack []*object.VariableScope
	locals   map[ast.Expression]int

	imports  map[string]any
	classes  []*object.ExternalClass
	modules  map[string]interop.Module
	out      io.Writer
	results  Results
	logger   *slog.Logger
	depth    int
	maxDepth int

	// current is the token of the statement being executed.
	current token.Token
	// yielded is set once an unnamed yield has run during the current call.
	yielded bool
}

func New(opts ...Option) *Interpreter {
	i := &Interpreter{
		imports:  make(map[string]any),
		modules:  make(map[string]interop.Module),
		out:      os.Stdout,
		logger:   slog.Default(),
		maxDepth: defaultMaxDepth,
	}
	for _, opt := range opts {
		opt(i)
	}
	i.reset()
	return i
}

// Import makes a host value visible to scripts under name. Types become
// external classes, modules back `native function` declarations, Go
// functions become external functions and any other value is converted as if
// host code had returned it.
func (i *Interpreter) Import(name string, value any) error {
	var imported any
	switch v := value.(type) {
	case interop.Type:
		class := &object.ExternalClass{HostType: v, Alias: name}
		i.classes = append(i.classes, class)
		imported = class
	case interop.Module:
		i.RegisterModule(v)
		return nil
	default:
		if value != nil && reflect.TypeOf(value).Kind() == reflect.Func {
			exe, err := interop.FuncOf(name, value)
			if err != nil {
				return err
			}
			imported = &object.ExternalFunction{Name: name, Executables: []interop.Executable{exe}}
			break
		}
		imported = i.wrap(value)
	}
	i.imports[name] = imported
	i.globals.Define(name, imported)
	return nil
}

// RegisterModule adds a host module for `native function` declarations.
func (i *Interpreter) RegisterModule(m interop.Module) {
	i.modules[m.Name()] = m
}

// Supports reports whether a registered module provides module.function.
func (i *Interpreter) Supports(module, function string) bool {
	m, ok := i.modules[module]
	return ok && m.Supports(function)
}

func (i *Interpreter) Globals() *object.VariableScope { return i.globals }

func (i *Interpreter) reset() {
	i.globals = object.NewScope()
	for name, v := range i.imports {
		i.globals.Define(name, v)
	}
	i.envStack = []*object.VariableScope{i.globals}
	i.depth = 0
}

func (i *Interpreter) PushEnv(env *object.VariableScope) {
	i.envStack = append(i.envStack, env)
}

func (i *Interpreter) CurrentEnv() *object.VariableScope {
	return i.envStack[len(i.envStack)-1]
}

func (i *Interpreter) PopEnv() {
	i.envStack = i.envStack[:len(i.envStack)-1]
}

// Interpret runs statements in a fresh global scope. locals is the table
// produced by resolving the same statements.
func (i *Interpreter) Interpret(statements []ast.Statement, locals map[ast.Expression]int) error {
	return i.run(statements, locals, false)
}

// Continue runs statements against the globals left by the previous call, as
// an interactive session does.
func (i *Interpreter) Continue(statements []ast.Statement, locals map[ast.Expression]int) error {
	return i.run(statements, locals, true)
}

func (i *Interpreter) run(statements []ast.Statement, locals map[ast.Expression]int, keep bool) (err error) {
	if !keep {
		i.reset()
	}
	i.envStack = i.envStack[:1]
	i.locals = locals
	i.yielded = false

	defer func() {
		if r := recover(); r != nil {
			i.envStack = i.envStack[:1]
			i.depth = 0
			err = diagnostic.Runtime(i.current, "Internal error: %v", r)
		}
	}()

	var last any
	hasLast := false
	for _, stmt := range statements {
		if s, ok := stmt.(*ast.ExpressionStatement); ok {
			i.current = s.Token
			v, err := i.Evaluate(s.Expression)
			if err != nil {
				return err
			}
			last, hasLast = v, true
			continue
		}
		if _, err := i.execute(stmt); err != nil {
			return err
		}
	}

	if hasLast && !i.yielded {
		i.yield(DefaultResult, last)
	}
	return nil
}

func (i *Interpreter) yield(id string, value any) {
	if id == DefaultResult {
		i.yielded = true
	}
	if i.results != nil {
		i.results.AddNamedResult(id, value)
	}
}

func (i *Interpreter) execute(stmt ast.Statement) (completion, error) {
	i.current = ast.StatementToken(stmt)
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		_, err := i.Evaluate(s.Expression)
		return normal, err

	case *ast.PrintStatement:
		v, err := i.Evaluate(s.Expression)
		if err != nil {
			return normal, err
		}
		fmt.Fprintln(i.out, object.Inspect(v))
		return normal, nil

	case *ast.YieldStatement:
		v, err := i.Evaluate(s.Value)
		if err != nil {
			return normal, err
		}
		id := DefaultResult
		if s.Name != nil {
			id = s.Name.Lexeme
		}
		i.yield(id, v)
		return normal, nil

	case *ast.VarStatement:
		var value any
		if s.Initializer != nil {
			v, err := i.Evaluate(s.Initializer)
			if err != nil {
				return normal, err
			}
			value = v
		}
		i.CurrentEnv().Define(s.Name.Lexeme, value)
		return normal, nil

	case *ast.BlockStatement:
		return i.executeBlock(s.Statements, object.NewEnclosedScope(i.CurrentEnv()))

	case *ast.IfStatement:
		ok, err := i.condition(s.Condition, s.Token)
		if err != nil {
			return normal, err
		}
		if ok {
			return i.execute(s.Then)
		}
		if s.Else != nil {
			return i.execute(s.Else)
		}
		return normal, nil

	case *ast.WhileStatement:
		return i.executeWhile(s)

	case *ast.DoWhileStatement:
		for {
			c, err := i.execute(s.Body)
			if err != nil || c.flow == flowReturn {
				return c, err
			}
			if c.flow == flowBreak {
				return normal, nil
			}
			ok, err := i.condition(s.Condition, s.Token)
			if err != nil || !ok {
				return normal, err
			}
		}

	case *ast.RepeatStatement:
		return i.executeRepeat(s)

	case *ast.BreakStatement:
		return completion{flow: flowBreak}, nil

	case *ast.ContinueStatement:
		return completion{flow: flowContinue}, nil

	case *ast.ReturnStatement:
		var value any
		if s.ReturnValue != nil {
			v, err := i.Evaluate(s.ReturnValue)
			if err != nil {
				return normal, err
			}
			value = v
		}
		return completion{flow: flowReturn, value: value}, nil

	case *ast.FunctionStatement:
		fn := &object.VirtualFunction{Declaration: s, Closure: i.CurrentEnv()}
		i.CurrentEnv().Define(s.Name.Lexeme, fn)
		return normal, nil

	case *ast.NativeFunctionStatement:
		return normal, i.executeNativeFunction(s)

	case *ast.ClassStatement:
		return normal, i.executeClass(s)
	}
	return normal, fmt.Errorf("unknown statement %T", stmt)
}

// executeBlock runs statements in env and restores the visiting scope
// afterwards, whatever the outcome.
func (i *Interpreter) executeBlock(statements []ast.Statement, env *object.VariableScope) (completion, error) {
	i.PushEnv(env)
	defer i.PopEnv()

	for _, stmt := range statements {
		c, err := i.execute(stmt)
		if err != nil || c.flow != flowNormal {
			return c, err
		}
	}
	return normal, nil
}

func (i *Interpreter) executeWhile(s *ast.WhileStatement) (completion, error) {
	for {
		ok, err := i.condition(s.Condition, s.Token)
		if err != nil || !ok {
			return normal, err
		}
		c, err := i.execute(s.Body)
		if err != nil || c.flow == flowReturn {
			return c, err
		}
		if c.flow == flowBreak {
			return normal, nil
		}
		if s.Increment != nil {
			if _, err := i.Evaluate(s.Increment); err != nil {
				return normal, err
			}
		}
	}
}

func (i *Interpreter) executeRepeat(s *ast.RepeatStatement) (completion, error) {
	v, err := i.Evaluate(s.Count)
	if err != nil {
		return normal, err
	}
	n, ok := v.(float64)
	if !ok {
		return normal, diagnostic.Runtime(s.Token, "Repeat count must be a number")
	}
	for count := int64(n); count > 0; count-- {
		c, err := i.execute(s.Body)
		if err != nil || c.flow == flowReturn {
			return c, err
		}
		if c.flow == flowBreak {
			break
		}
	}
	return normal, nil
}

func (i *Interpreter) executeNativeFunction(s *ast.NativeFunctionStatement) error {
	module, name := s.Module.Lexeme, s.Name.Lexeme
	m, ok := i.modules[module]
	if !ok || !m.Supports(name) {
		return diagnostic.Runtime(s.Name, "No module provides native function '%s.%s'", module, name)
	}
	i.CurrentEnv().Define(name, &object.NativeFunction{
		Module: module,
		Name:   name,
		Params: len(s.Params),
		Fn: func(args []any) (any, error) {
			return m.Call(name, args)
		},
	})
	i.logger.Debug("native function bound", slog.String("module", module), slog.String("function", name))
	return nil
}

// condition evaluates expr and insists on a boolean.
func (i *Interpreter) condition(expr ast.Expression, at token.Token) (bool, error) {
	v, err := i.Evaluate(expr)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, diagnostic.Runtime(at, "Condition must be a boolean")
	}
	return b, nil
}

// wrap converts a host result, preferring imported classes so aliases are
// kept.
func (i *Interpreter) wrap(v any) any {
	out := object.FromHost(v)
	if inst, ok := out.(*object.ExternalInstance); ok {
		for _, class := range i.classes {
			if class.HostType.Matches(inst.Value) {
				inst.Of = class
				break
			}
		}
	}
	return out
}
