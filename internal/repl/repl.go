// Package repl runs scripts interactively. Globals survive between inputs,
// and so does their finality: a variable declared at the prompt can no more
// be reassigned than one declared at the top of a file.
package repl

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"

	"hsl/internal/diagnostic"
	"hsl/internal/interpreter"
	"hsl/internal/lexer"
	"hsl/internal/object"
	"hsl/internal/parser"
	"hsl/internal/resolver"
	"hsl/internal/script"
	"hsl/internal/token"
)

const (
	PROMPT   = ">> "
	CONTINUE = ".. "
)

// Session evaluates inputs against one long-lived interpreter.
type Session struct {
	interp   *interpreter.Interpreter
	resolver *resolver.Resolver
	results  map[string]any
	last     any
	hasLast  bool
}

func NewSession(rt *script.Runtime) (*Session, error) {
	s := &Session{results: make(map[string]any)}
	interp, err := rt.NewInterpreter(s)
	if err != nil {
		return nil, err
	}
	s.interp = interp
	s.resolver = rt.NewResolver(interp)
	return s, nil
}

func (s *Session) AddNamedResult(id string, value any) {
	if id == interpreter.DefaultResult {
		s.last, s.hasLast = value, true
	}
	s.results[id] = value
}

func (s *Session) Results() map[string]any { return maps.Clone(s.results) }

func (s *Session) Globals() []string { return s.interp.Globals().Names() }

// Eval runs one input. It returns the rendering of the value the input
// produced, if any.
func (s *Session) Eval(source string) (string, bool, error) {
	s.last, s.hasLast = nil, false

	tokens, _, err := lexer.New(source).Tokenize()
	if err != nil {
		return "", false, attach(err, source)
	}
	program, err := parser.New(tokens).ParseProgram()
	if err != nil {
		return "", false, attach(err, source)
	}
	locals, err := s.resolver.Continue(program.Statements)
	if err != nil {
		return "", false, attach(err, source)
	}
	if err := s.interp.Continue(program.Statements, locals); err != nil {
		return "", false, attach(err, source)
	}
	if !s.hasLast {
		return "", false, nil
	}
	return object.Inspect(s.last), true, nil
}

func attach(err error, source string) error {
	if se, ok := diagnostic.As(err); ok {
		se.WithSource(source)
	}
	return err
}

// Incomplete reports whether err only means the input stopped too early, so
// more lines should be read before evaluating it.
func Incomplete(err error) bool {
	se, ok := diagnostic.As(err)
	if !ok {
		return false
	}
	switch se.Kind {
	case diagnostic.ParseError:
		return se.Token.Type == token.EOF
	case diagnostic.LexicalError:
		return se.Message == "Unterminated block comment" || se.Message == "Unterminated string"
	}
	return false
}

// Start reads inputs until end of input or :quit. History is loaded from and
// saved to historyFile when it is set.
func Start(rt *script.Runtime, historyFile string, out, errOut io.Writer) error {
	session, err := NewSession(rt)
	if err != nil {
		return err
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if historyFile != "" {
		if f, err := os.Open(historyFile); err == nil {
			_, _ = ln.ReadHistory(f)
			f.Close()
		}
		defer func() {
			if f, err := os.Create(historyFile); err == nil {
				_, _ = ln.WriteHistory(f)
				f.Close()
			}
		}()
	}

	red := color.New(color.FgRed)
	for {
		source, ok := read(ln, session)
		if !ok {
			fmt.Fprintln(out)
			return nil
		}
		trimmed := strings.TrimSpace(source)
		if trimmed == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(source, "\n", " "))

		if strings.HasPrefix(trimmed, ":") {
			if quit := command(session, trimmed, out); quit {
				return nil
			}
			continue
		}

		value, ok, err := session.Eval(source)
		if err != nil {
			red.Fprintln(errOut, err)
			continue
		}
		if ok {
			fmt.Fprintln(out, value)
		}
	}
}

// read collects lines until they form a complete input.
func read(ln *liner.State, session *Session) (string, bool) {
	var b strings.Builder
	for {
		prompt := PROMPT
		if b.Len() > 0 {
			prompt = CONTINUE
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") || !needsMore(src) {
			return src, true
		}
	}
}

func needsMore(src string) bool {
	tokens, _, err := lexer.New(src).Tokenize()
	if err != nil {
		return Incomplete(err)
	}
	_, err = parser.New(tokens).ParseProgram()
	return err != nil && Incomplete(err)
}

func command(session *Session, input string, out io.Writer) bool {
	switch strings.ToLower(input) {
	case ":quit", ":q":
		return true
	case ":results":
		results := session.Results()
		for _, name := range slices.Sorted(maps.Keys(results)) {
			fmt.Fprintf(out, "%s = %s\n", name, object.Inspect(results[name]))
		}
	case ":globals":
		fmt.Fprintln(out, strings.Join(session.Globals(), " "))
	default:
		fmt.Fprintln(out, "unknown command, try :results, :globals or :quit")
	}
	return false
}
