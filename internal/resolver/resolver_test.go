package resolver

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hsl/internal/ast"
	"hsl/internal/diagnostic"
	"hsl/internal/lexer"
	"hsl/internal/parser"
)

func parse(t *testing.T, input string) []ast.Statement {
	t.Helper()
	tokens, _, err := lexer.New(input).Tokenize()
	require.NoError(t, err)
	program, err := parser.New(tokens).ParseProgram()
	require.NoError(t, err)
	return program.Statements
}

// distances keys each resolved variable reference by name and position.
func distances(locals map[ast.Expression]int) map[string]int {
	out := make(map[string]int, len(locals))
	for expr, depth := range locals {
		switch e := expr.(type) {
		case *ast.Variable:
			out[fmt.Sprintf("%s@%d:%d", e.Name.Lexeme, e.Name.Line, e.Name.Column)] = depth
		case *ast.Assign:
			out[fmt.Sprintf("%s=@%d:%d", e.Name.Lexeme, e.Name.Line, e.Name.Column)] = depth
		case *ast.This:
			out[fmt.Sprintf("this@%d:%d", e.Keyword.Line, e.Keyword.Column)] = depth
		case *ast.Super:
			out[fmt.Sprintf("super@%d:%d", e.Keyword.Line, e.Keyword.Column)] = depth
		}
	}
	return out
}

func TestResolutionDistances(t *testing.T) {
	statements := parse(t, `var a = 1;
function f(p) {
  var b = p;
  {
    var c = b;
    return a + c;
  }
}`)

	locals, err := New().Resolve(statements)
	require.NoError(t, err)

	expected := map[string]int{
		"p@3:10": 0,
		"b@5:12": 1,
		"c@6:15": 0,
	}
	if diff := cmp.Diff(expected, distances(locals)); diff != "" {
		t.Errorf("distances mismatch (-want +got):\n%s", diff)
	}
}

func TestClassDistances(t *testing.T) {
	statements := parse(t, `class A { function f() { return 1; } }
class B extends A {
  var tag = this;
  function f() { return super.f() + 1; }
  function g() { return this.f(); }
}`)

	locals, err := New().Resolve(statements)
	require.NoError(t, err)

	expected := map[string]int{
		"this@3:12":  0,
		"super@4:24": 2,
		"this@5:24":  1,
	}
	if diff := cmp.Diff(expected, distances(locals)); diff != "" {
		t.Errorf("distances mismatch (-want +got):\n%s", diff)
	}
}

func TestLocalAssignment(t *testing.T) {
	statements := parse(t, `function counter() {
  var count = 0;
  function increment() {
    count += 1;
    return count;
  }
  return increment;
}`)

	locals, err := New().Resolve(statements)
	require.NoError(t, err)

	got := distances(locals)
	assert.Equal(t, 1, got["count=@4:4"])
	assert.Equal(t, 1, got["count@4:4"])
	assert.Equal(t, 1, got["count@5:11"])
	assert.Equal(t, 0, got["increment@7:9"])
}

func TestResolveIsIdempotent(t *testing.T) {
	statements := parse(t, `var total = 0;
class Shape {
  var sides = 0;
  constructor(n) { this.sides = n; }
  function describe() { return "shape with " + this.sides; }
}
class Square extends Shape {
  constructor() { super.describe(); this.sides = 4; }
}
function sum(values) {
  var acc = 0;
  for (var i = 0; i < 3; i++) { acc += values[i]; }
  return acc;
}
yield sum([1, 2, 3]) as total_sum;`)

	r := New()
	first, err := r.Resolve(statements)
	require.NoError(t, err)
	firstCopy := make(map[ast.Expression]int, len(first))
	for k, v := range first {
		firstCopy[k] = v
	}

	second, err := r.Resolve(statements)
	require.NoError(t, err)
	third, err := New().Resolve(statements)
	require.NoError(t, err)

	if diff := cmp.Diff(firstCopy, second); diff != "" {
		t.Errorf("second resolution differs (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(firstCopy, third); diff != "" {
		t.Errorf("fresh resolver differs (-first +third):\n%s", diff)
	}
}

func TestGlobals(t *testing.T) {
	statements := parse(t, `var a = 1;
function f() { var local = 2; }
class C { }
native function math.max(a, b);`)

	r := New()
	_, err := r.Resolve(statements)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"a":   KindVariable,
		"f":   KindFunction,
		"C":   KindClass,
		"max": KindNativeFunction,
	}, r.Globals())
}

func TestResolutionErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
		line    int
		column  int
	}{
		{"reassign final variable", "var x = 1;\nx = 2;", "Cannot reassign variable 'x'", 2, 0},
		{"redeclare function", "function x() { }\nfunction x() { }", "Cannot reassign function 'x'", 2, 9},
		{"redeclare class", "class User { }\nclass User { }", "Cannot reassign class 'User'", 2, 6},
		{"redeclare native function", "native function math.max(a, b);\nfunction max() { }", "Cannot reassign native function 'max'", 2, 9},
		{"function over variable", "var y = 1;\nfunction y() { }", "Cannot reassign variable 'y'", 2, 9},
		{"compound assignment to global", "var n = 1;\nn += 1;", "Cannot reassign variable 'n'", 2, 0},
		{"assignment before declaration", "function f() { g = 1; }\nvar g = 2;", "Cannot reassign variable 'g'", 1, 15},
		{"final local", "function f() { final var a = 1; a = 2; }", "Cannot reassign variable 'a'", 1, 32},
		{"own initializer", "{ var a = a; }", "Cannot read local variable 'a' in its own initializer", 1, 10},
		{"local redeclaration", "{ var a = 1; var a = 2; }", "Variable 'a' is already declared in this scope", 1, 17},
		{"duplicate parameter", "function f(a, a) { }", "Variable 'a' is already declared in this scope", 1, 14},
		{"top-level return", "return 1;", "Cannot return from top-level code", 1, 0},
		{"constructor return value", "class A { constructor() { return 1; } }", "Cannot return a value from a constructor", 1, 26},
		{"this outside class", "print this;", "Cannot use 'this' outside of a class", 1, 6},
		{"super without superclass", "class A { function f() { return super.f(); } }", "Cannot use 'super' in a class with no superclass", 1, 32},
		{"super outside class", "function f() { super.g(); }", "Cannot use 'super' outside of a class", 1, 15},
		{"self inheritance", "class A extends A { }", "A class cannot extend itself", 1, 16},
		{"break outside loop", "break;", "Cannot use 'break' outside of a loop", 1, 0},
		{"continue inside nested function", "while (true) { function f() { continue; } }", "Cannot use 'continue' outside of a loop", 1, 30},
		{"nested native function", "{ native function m.f(); }", "Native function 'f' must be declared at top level", 1, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().Resolve(parse(t, tt.input))
			require.Error(t, err)

			se, ok := diagnostic.As(err)
			require.True(t, ok)
			assert.Equal(t, diagnostic.ResolutionError, se.Kind)
			assert.Equal(t, diagnostic.RESOLVING, se.Phase)
			assert.Equal(t, tt.message, se.Message)
			assert.Equal(t, tt.line, se.Line())
			assert.Equal(t, tt.column, se.Column())
		})
	}
}

func TestNativeCheck(t *testing.T) {
	check := WithNativeCheck(func(module, function string) bool {
		return module == "math"
	})

	_, err := New(check).Resolve(parse(t, "native function math.max(a, b);"))
	require.NoError(t, err)

	_, err = New(check).Resolve(parse(t, "native function strings.upper(s);"))
	require.Error(t, err)
	se, ok := diagnostic.As(err)
	require.True(t, ok)
	assert.Equal(t, "No module provides native function 'strings.upper'", se.Message)
	assert.Equal(t, 24, se.Column())
}

func TestLoopsAndLocalsResolve(t *testing.T) {
	inputs := []string{
		"function f() { var a = 1; a = 2; return a; }",
		"for (var i = 0; i < 3; i++) { if (i == 1) continue; }",
		"var done = false; while (!done) { break; }",
		"repeat (3) { var x = 1; x = x + 1; }",
		"do { break; } while (true);",
	}
	for _, input := range inputs {
		_, err := New().Resolve(parse(t, input))
		assert.NoError(t, err, input)
	}
}

func TestContinueKeepsFinality(t *testing.T) {
	r := New()

	_, err := r.Continue(parse(t, "var x = 1;"))
	require.NoError(t, err)

	_, err = r.Continue(parse(t, "x = 2;"))
	require.Error(t, err)
	se, ok := diagnostic.As(err)
	require.True(t, ok)
	assert.Equal(t, "Cannot reassign variable 'x'", se.Message)

	// a failed chunk declares nothing
	_, err = r.Continue(parse(t, "var y = 1;\nvar x = 3;"))
	require.Error(t, err)
	_, err = r.Continue(parse(t, "var y = 2;"))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"x": KindVariable, "y": KindVariable}, r.Globals())
}
