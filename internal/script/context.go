// Package script drives a source text through lexing, parsing, resolution and
// interpretation, and keeps everything a run produced in a ScriptContext.
package script

import (
	"maps"
	"sync"

	"hsl/internal/ast"
	"hsl/internal/diagnostic"
	"hsl/internal/interpreter"
	"hsl/internal/lexer"
	"hsl/internal/parser"
	"hsl/internal/resolver"
	"hsl/internal/token"
)

// DefaultResult is the key of the result produced without an explicit name.
const DefaultResult = interpreter.DefaultResult

type State int

const (
	CREATED State = iota
	LEXED
	PARSED
	RESOLVED
	RUNNING
	COMPLETED
	FAILED
)

var stateNames = [...]string{"CREATED", "LEXED", "PARSED", "RESOLVED", "RUNNING", "COMPLETED", "FAILED"}

func (s State) String() string { return stateNames[s] }

// ScriptContext holds one script, the artifacts derived from it and the
// results of running it. A context must not be interpreted from two
// goroutines at once.
type ScriptContext struct {
	id     string
	source string

	tokens     []token.Token
	comments   []token.Comment
	statements []ast.Statement
	locals     map[ast.Expression]int
	cached     *compiled

	lexer       *lexer.Lexer
	parser      *parser.Parser
	resolver    *resolver.Resolver
	interpreter *interpreter.Interpreter

	mu      sync.Mutex
	state   State
	err     error
	results map[string]any
}

func newContext(id, source string) *ScriptContext {
	return &ScriptContext{
		id:      id,
		source:  source,
		results: make(map[string]any),
	}
}

// ID identifies the run in logs and stored results.
func (sc *ScriptContext) ID() string                     { return sc.id }
func (sc *ScriptContext) Source() string                 { return sc.source }
func (sc *ScriptContext) Tokens() []token.Token          { return sc.tokens }
func (sc *ScriptContext) Comments() []token.Comment      { return sc.comments }
func (sc *ScriptContext) Statements() []ast.Statement    { return sc.statements }
func (sc *ScriptContext) Locals() map[ast.Expression]int { return sc.locals }

// Lexer and Parser return the stages that produced the context's tokens and
// statements. Contexts served from the compile cache share them with the
// context that filled the cache entry.
func (sc *ScriptContext) Lexer() *lexer.Lexer                   { return sc.lexer }
func (sc *ScriptContext) Parser() *parser.Parser                { return sc.parser }
func (sc *ScriptContext) Resolver() *resolver.Resolver          { return sc.resolver }
func (sc *ScriptContext) Interpreter() *interpreter.Interpreter { return sc.interpreter }

// Program wraps the parsed statements for the AST printers.
func (sc *ScriptContext) Program() *ast.Program {
	return &ast.Program{Statements: sc.statements}
}

func (sc *ScriptContext) State() State {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.state
}

// Err is the terminal error of a FAILED context.
func (sc *ScriptContext) Err() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.err
}

// Diagnostic returns the terminal error as a ScriptError when it is one.
func (sc *ScriptContext) Diagnostic() (*diagnostic.ScriptError, bool) {
	return diagnostic.As(sc.Err())
}

func (sc *ScriptContext) AddResult(value any) {
	sc.AddNamedResult(DefaultResult, value)
}

func (sc *ScriptContext) AddNamedResult(id string, value any) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.results[id] = value
}

func (sc *ScriptContext) Result() (any, bool) {
	return sc.NamedResult(DefaultResult)
}

func (sc *ScriptContext) NamedResult(id string) (any, bool) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	v, ok := sc.results[id]
	return v, ok
}

// Results returns a copy of the results map.
func (sc *ScriptContext) Results() map[string]any {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return maps.Clone(sc.results)
}

// Clear empties the results only; tokens, statements and resolution are
// kept for the next run.
func (sc *ScriptContext) Clear() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	clear(sc.results)
}

// advance moves from one of the expected states to next. FAILED is final.
func (sc *ScriptContext) advance(next State, from ...State) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	for _, s := range from {
		if sc.state == s {
			sc.state = next
			return nil
		}
	}
	return &StateError{Have: sc.state, Want: from}
}

// fail records err as the terminal error, attaching the source to script
// diagnostics. It returns the recorded error.
func (sc *ScriptContext) fail(err error) error {
	if se, ok := diagnostic.As(err); ok {
		se.WithSource(sc.source)
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.state != FAILED {
		sc.state = FAILED
		sc.err = err
	}
	return sc.err
}
