// Package interop is the single seam between scripts and host Go values. The
// engine only sees the Type, Executable and Module interfaces declared here;
// the reflect-backed implementations are what hosts normally register.
package interop

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoSuchMember = errors.New("no such member")
	ErrNoMatch      = errors.New("no matching overload")
	ErrFinal        = errors.New("type is final")
)

// Executable is one invocable host constructor, method or function.
type Executable interface {
	Name() string
	Arity() int
	IsVariadic() bool
	// Score rates how well args fit the parameters. The boolean is false when
	// the arguments cannot be passed at all.
	Score(args []any) (int, bool)
	// Invoke calls the executable. Receiver is ignored by constructors and
	// free functions.
	Invoke(receiver any, args []any) (any, error)
}

// Type describes a host type that scripts may construct, inspect and, when it
// is not final, extend.
type Type interface {
	Name() string
	QualifiedName() string
	IsFinal() bool
	Constructors() []Executable
	Methods(name string) []Executable
	Field(receiver any, name string) (any, bool)
	SetField(receiver any, name string, value any) error
	Matches(value any) bool
}

// Module provides the implementations behind `native function` declarations.
type Module interface {
	Name() string
	Supports(function string) bool
	Call(function string, args []any) (any, error)
}

// Sequence is implemented by script arrays so they can be passed where the
// host expects a slice.
type Sequence interface {
	Values() []any
}

// HostValue is implemented by script wrappers around host objects.
type HostValue interface {
	HostObject() any
}

// Lookup picks the executable whose parameters fit args best. Ties go to the
// earliest candidate.
func Lookup(executables []Executable, args []any) (Executable, error) {
	if len(executables) == 0 {
		return nil, ErrNoSuchMember
	}

	var best Executable
	bestScore := -1
	for _, e := range executables {
		score, ok := e.Score(args)
		if !ok {
			continue
		}
		if score > bestScore {
			best, bestScore = e, score
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: %s(%s)", ErrNoMatch, executables[0].Name(), describeArgs(args))
	}
	return best, nil
}

func describeArgs(args []any) string {
	parts := make([]string, len(args))
	for i, a := range args {
		if a == nil {
			parts[i] = "null"
			continue
		}
		if hv, ok := a.(HostValue); ok {
			a = hv.HostObject()
		}
		parts[i] = fmt.Sprintf("%T", a)
	}
	return strings.Join(parts, ", ")
}
