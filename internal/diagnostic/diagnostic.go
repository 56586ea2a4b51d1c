// Package diagnostic describes the single terminal error a script run can end
// with, and renders it as a message followed by the offending source line and a
// caret under the token that caused it.
package diagnostic

import (
	"errors"
	"fmt"
	"strings"

	"hsl/internal/token"
)

type Phase int

const (
	LEXING Phase = iota
	PARSING
	RESOLVING
	INTERPRETING
)

var phaseNames = [...]string{"LEXING", "PARSING", "RESOLVING", "INTERPRETING"}
var phaseVerbs = [...]string{"lexing", "parsing", "resolving", "interpreting"}

func (p Phase) String() string { return phaseNames[p] }

// Verb is the word used in the rendered diagnostic ("While resolving at ...").
func (p Phase) Verb() string { return phaseVerbs[p] }

type Kind int

const (
	LexicalError Kind = iota
	ParseError
	ResolutionError
	RuntimeError
	HostInteropError
)

var kindNames = [...]string{"LexicalError", "ParseError", "ResolutionError", "RuntimeError", "HostInteropError"}

func (k Kind) String() string { return kindNames[k] }

// ScriptError is raised by every pipeline stage. The source text is attached
// by the script context before the error leaves the engine, which is what
// enables the source line and caret part of the rendering.
type ScriptError struct {
	Kind    Kind
	Phase   Phase
	Message string
	Token   token.Token
	Cause   error

	source string
	hasSrc bool
}

func New(kind Kind, phase Phase, at token.Token, format string, args ...any) *ScriptError {
	return &ScriptError{
		Kind:    kind,
		Phase:   phase,
		Message: fmt.Sprintf(format, args...),
		Token:   at,
	}
}

func Lexical(line, column int, format string, args ...any) *ScriptError {
	at := token.Token{Type: token.ILLEGAL, Line: line, Column: column}
	return New(LexicalError, LEXING, at, format, args...)
}

func Parse(at token.Token, format string, args ...any) *ScriptError {
	return New(ParseError, PARSING, at, format, args...)
}

func Resolution(at token.Token, format string, args ...any) *ScriptError {
	return New(ResolutionError, RESOLVING, at, format, args...)
}

func Runtime(at token.Token, format string, args ...any) *ScriptError {
	return New(RuntimeError, INTERPRETING, at, format, args...)
}

// Interop wraps a failure raised by host code so its message survives.
func Interop(at token.Token, cause error, format string, args ...any) *ScriptError {
	err := New(HostInteropError, INTERPRETING, at, format, args...)
	err.Cause = cause
	return err
}

// WithSource attaches the script text. It returns the receiver.
func (e *ScriptError) WithSource(source string) *ScriptError {
	e.source = source
	e.hasSrc = true
	return e
}

func (e *ScriptError) Unwrap() error { return e.Cause }

func (e *ScriptError) Line() int   { return e.Token.Line }
func (e *ScriptError) Column() int { return e.Token.Column }

// Header is the first line of the rendered diagnostic.
func (e *ScriptError) Header() string {
	msg := strings.TrimSuffix(e.Message, ".")
	return fmt.Sprintf("%s. While %s at line %d, column %d.", msg, e.Phase.Verb(), e.Token.Line, e.Token.Column)
}

func (e *ScriptError) Error() string {
	if !e.hasSrc {
		return e.Header()
	}
	line := SourceLine(e.source, e.Token.Line)
	caret := strings.Repeat(" ", max(e.Token.Column, 0)) + "^"
	return e.Header() + "\n" + line + "\n" + caret
}

// SourceLine returns the 1-based line of source without its terminator, or an
// empty string when the line does not exist.
func SourceLine(source string, line int) string {
	if line < 1 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if line > len(lines) {
		return ""
	}
	return strings.TrimSuffix(lines[line-1], "\r")
}

// As extracts a ScriptError from an error chain.
func As(err error) (*ScriptError, bool) {
	var se *ScriptError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
