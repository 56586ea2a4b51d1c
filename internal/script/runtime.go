package script

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"

	"hsl/internal/ast"
	"hsl/internal/interop"
	"hsl/internal/interpreter"
	"hsl/internal/lexer"
	"hsl/internal/parser"
	"hsl/internal/resolver"
	"hsl/internal/token"
)

const defaultCacheSize = 128

// StateError is returned when a stage is requested out of order.
type StateError struct {
	Have State
	Want []State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("script is %s, expected one of %v", e.Have, e.Want)
}

// compiled is what the cache keeps per source text. Tokens and statements
// are never mutated after parsing, so contexts can share them.
// compiled is a compile cache entry. It keeps the lexer and parser so that
// contexts served from the cache still reference the stages that produced
// their artifacts.
type compiled struct {
	lexer      *lexer.Lexer
	parser     *parser.Parser
	tokens     []token.Token
	comments   []token.Comment
	statements []ast.Statement
}

type importEntry struct {
	name  string
	value any
}

type Option func(*Runtime)

// WithOutput sets where `print` writes.
func WithOutput(w io.Writer) Option {
	return func(r *Runtime) { r.out = w }
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) { r.logger = logger }
}

// WithCacheSize sets how many compiled sources are kept. Zero disables the
// cache.
func WithCacheSize(size int) Option {
	return func(r *Runtime) { r.cacheSize = size }
}

func WithMaxDepth(depth int) Option {
	return func(r *Runtime) { r.maxDepth = depth }
}

// WithStrictNatives makes resolution fail for native functions that no
// registered module provides.
func WithStrictNatives() Option {
	return func(r *Runtime) { r.strictNatives = true }
}

// Runtime creates and drives script contexts. Its import table is shared by
// every context it creates and must not change while scripts run.
type Runtime struct {
	imports []importEntry
	modules []interop.Module

	out           io.Writer
	logger        *slog.Logger
	cacheSize     int
	cache         *lru.Cache
	maxDepth      int
	strictNatives bool
}

func NewRuntime(opts ...Option) (*Runtime, error) {
	r := &Runtime{
		out:       os.Stdout,
		logger:    slog.Default(),
		cacheSize: defaultCacheSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.cacheSize > 0 {
		cache, err := lru.New(r.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("creating compile cache: %w", err)
		}
		r.cache = cache
	}
	return r, nil
}

// Import exposes a host value to scripts under name.
func (r *Runtime) Import(name string, value any) *Runtime {
	r.imports = append(r.imports, importEntry{name: name, value: value})
	return r
}

func (r *Runtime) Imports(values map[string]any) *Runtime {
	for name, v := range values {
		r.Import(name, v)
	}
	return r
}

// Module registers a host module for `native function` declarations.
func (r *Runtime) Module(m interop.Module) *Runtime {
	r.modules = append(r.modules, m)
	return r
}

// NewContext prepares a context for source with its own interpreter.
func (r *Runtime) NewContext(source string) (*ScriptContext, error) {
	sc := newContext(uuid.New().String(), source)
	interp, err := r.newInterpreter(sc, r.logger.With(slog.String("run", sc.id)))
	if err != nil {
		return nil, err
	}
	sc.interpreter = interp
	return sc, nil
}

// NewInterpreter returns an interpreter configured like the ones the runtime
// gives its contexts, for hosts that keep globals between inputs.
func (r *Runtime) NewInterpreter(results interpreter.Results) (*interpreter.Interpreter, error) {
	return r.newInterpreter(results, r.logger)
}

// NewResolver returns a resolver configured for interp.
func (r *Runtime) NewResolver(interp *interpreter.Interpreter) *resolver.Resolver {
	var opts []resolver.Option
	if r.strictNatives {
		opts = append(opts, resolver.WithNativeCheck(interp.Supports))
	}
	return resolver.New(opts...)
}

func (r *Runtime) newInterpreter(results interpreter.Results, logger *slog.Logger) (*interpreter.Interpreter, error) {
	opts := []interpreter.Option{
		interpreter.WithOutput(r.out),
		interpreter.WithResults(results),
		interpreter.WithLogger(logger),
	}
	if r.maxDepth > 0 {
		opts = append(opts, interpreter.WithMaxDepth(r.maxDepth))
	}
	interp := interpreter.New(opts...)
	for _, m := range r.modules {
		interp.RegisterModule(m)
	}
	for _, entry := range r.imports {
		if err := interp.Import(entry.name, entry.value); err != nil {
			return nil, fmt.Errorf("importing %s: %w", entry.name, err)
		}
	}
	return interp, nil
}

func (r *Runtime) log(sc *ScriptContext, stage string, started time.Time, err error) {
	attrs := []any{
		slog.String("run", sc.id),
		slog.String("stage", stage),
		slog.Duration("took", time.Since(started)),
	}
	if err != nil {
		r.logger.Debug("stage failed", append(attrs, slog.String("error", err.Error()))...)
		return
	}
	r.logger.Debug("stage completed", attrs...)
}

func cacheKey(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// Tokenize lexes the source, or takes tokens from the compile cache.
func (r *Runtime) Tokenize(sc *ScriptContext) error {
	if err := sc.advance(LEXED, CREATED); err != nil {
		return err
	}
	started := time.Now()

	if r.cache != nil {
		if v, ok := r.cache.Get(cacheKey(sc.source)); ok {
			sc.cached = v.(*compiled)
			sc.lexer = sc.cached.lexer
			sc.tokens, sc.comments = sc.cached.tokens, sc.cached.comments
			r.logger.Debug("compile cache hit", slog.String("run", sc.id))
			return nil
		}
	}

	sc.lexer = lexer.New(sc.source)
	tokens, comments, err := sc.lexer.Tokenize()
	r.log(sc, "lexing", started, err)
	if err != nil {
		return sc.fail(err)
	}
	sc.tokens, sc.comments = tokens, comments
	return nil
}

func (r *Runtime) Parse(sc *ScriptContext) error {
	if err := sc.advance(PARSED, LEXED); err != nil {
		return err
	}
	if sc.cached != nil {
		sc.parser = sc.cached.parser
		sc.statements = sc.cached.statements
		return nil
	}
	started := time.Now()

	sc.parser = parser.New(sc.tokens)
	program, err := sc.parser.ParseProgram()
	r.log(sc, "parsing", started, err)
	if err != nil {
		return sc.fail(err)
	}
	sc.statements = program.Statements

	if r.cache != nil {
		sc.cached = &compiled{
			lexer:      sc.lexer,
			parser:     sc.parser,
			tokens:     sc.tokens,
			comments:   sc.comments,
			statements: sc.statements,
		}
		r.cache.Add(cacheKey(sc.source), sc.cached)
	}
	return nil
}

func (r *Runtime) Resolve(sc *ScriptContext) error {
	if err := sc.advance(RESOLVED, PARSED); err != nil {
		return err
	}
	started := time.Now()

	sc.resolver = r.NewResolver(sc.interpreter)
	locals, err := sc.resolver.Resolve(sc.statements)
	r.log(sc, "resolving", started, err)
	if err != nil {
		return sc.fail(err)
	}
	sc.locals = locals
	return nil
}

func (r *Runtime) Interpret(sc *ScriptContext) error {
	if err := sc.advance(RUNNING, RESOLVED); err != nil {
		return err
	}
	started := time.Now()

	err := sc.interpreter.Interpret(sc.statements, sc.locals)
	r.log(sc, "interpreting", started, err)
	if err != nil {
		return sc.fail(err)
	}
	return sc.advance(COMPLETED, RUNNING)
}

// Compile runs every stage up to and including resolution.
func (r *Runtime) Compile(sc *ScriptContext) error {
	for _, stage := range []func(*ScriptContext) error{r.Tokenize, r.Parse, r.Resolve} {
		if err := stage(sc); err != nil {
			return err
		}
	}
	return nil
}

// Run executes source to completion. The context is returned even when the
// run fails, so results yielded before the failure stay readable.
func (r *Runtime) Run(source string) (*ScriptContext, error) {
	sc, err := r.NewContext(source)
	if err != nil {
		return nil, err
	}
	if err := r.Compile(sc); err != nil {
		return sc, err
	}
	return sc, r.Interpret(sc)
}

// RunContext is Run bounded by ctx. Interpretation cannot be interrupted, so
// on cancellation the context is marked FAILED and abandoned to finish on its
// own goroutine.
func (r *Runtime) RunContext(ctx context.Context, source string) (*ScriptContext, error) {
	sc, err := r.NewContext(source)
	if err != nil {
		return nil, err
	}
	if err := r.Compile(sc); err != nil {
		return sc, err
	}

	done := make(chan error, 1)
	go func() {
		done <- r.Interpret(sc)
	}()

	select {
	case err := <-done:
		return sc, err
	case <-ctx.Done():
		r.logger.Warn("script abandoned", slog.String("run", sc.id), slog.String("reason", ctx.Err().Error()))
		return sc, sc.fail(fmt.Errorf("script %s abandoned: %w", sc.id, ctx.Err()))
	}
}

// Rerun clears the results of a completed context, resolves it again and
// interprets it in a fresh global scope, without lexing or parsing.
func (r *Runtime) Rerun(sc *ScriptContext) error {
	if err := sc.advance(PARSED, COMPLETED); err != nil {
		return err
	}
	sc.Clear()
	if err := r.Resolve(sc); err != nil {
		return err
	}
	return r.Interpret(sc)
}

// IsStateError reports whether err came from calling a stage out of order.
func IsStateError(err error) bool {
	var se *StateError
	return errors.As(err, &se)
}
