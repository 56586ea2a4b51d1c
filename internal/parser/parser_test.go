package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hsl/internal/ast"
	"hsl/internal/diagnostic"
	"hsl/internal/lexer"
)

func parse(t *testing.T, input string) *ast.Program {
	t.Helper()
	tokens, _, err := lexer.New(input).Tokenize()
	require.NoError(t, err)
	program, err := New(tokens).ParseProgram()
	require.NoError(t, err, "input: %s", input)
	return program
}

func parseError(t *testing.T, input string) *diagnostic.ScriptError {
	t.Helper()
	tokens, _, err := lexer.New(input).Tokenize()
	require.NoError(t, err)
	_, err = New(tokens).ParseProgram()
	require.Error(t, err, "input: %s", input)
	se, ok := diagnostic.As(err)
	require.True(t, ok)
	return se
}

func TestOperatorPrecedenceParsing(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1 + 2 * 3;", "(1 + (2 * 3));"},
		{"a = b = c;", "(a = (b = c));"},
		{"-a * b;", "((-a) * b);"},
		{"-a.b;", "(-a.b);"},
		{"!true == false;", "((!true) == false);"},
		{"a || b && c;", "(a || (b && c));"},
		{"a | b ^ c & d;", "(a | (b ^ (c & d)));"},
		{"a & b == c;", "(a & (b == c));"},
		{"1 << 2 + 3;", "(1 << (2 + 3));"},
		{"a < b == c > d;", "((a < b) == (c > d));"},
		{"c ? a : b ? d : e;", "(c ? a : (b ? d : e));"},
		{"x = c ? 1 : 2;", "(x = (c ? 1 : 2));"},
		{"x += 2;", "(x = (x + 2));"},
		{"x /= 2;", "(x = (x / 2));"},
		{"x++;", "(x = (x + 1));"},
		{"--x;", "(x = (x - 1));"},
		{"a.b += 2;", "(a.b += 2);"},
		{"arr[i]++;", "(arr[i] += 1);"},
		{"--o.n;", "(o.n -= 1);"},
		{"a.b.c = 1;", "(a.b.c = 1);"},
		{"f(1, 2)(3);", "f(1, 2)(3);"},
		{"arr[1 + 1] = 5;", "(arr[(1 + 1)] = 5);"},
		{"(1 + 2) * 3;", "(((1 + 2)) * 3);"},
		{"super.f() + 1;", "(super.f() + 1);"},
		{"~a % 2;", "((~a) % 2);"},
		{`[1, "a", 'c', null, true];`, `[1, "a", 'c', null, true];`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			program := parse(t, tt.input)
			require.Len(t, program.Statements, 1)
			assert.Equal(t, tt.expected, program.String())
		})
	}
}

func TestStatements(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"var x = 1;", "var x = 1;"},
		{"var x;", "var x;"},
		{"final var y = 2;", "final var y = 2;"},
		{"if (a) print 1; else { print 2; }", "if (a) print 1; else { print 2; }"},
		{"while (x < 3) x++;", "while ((x < 3)) (x = (x + 1));"},
		{"for (var i = 0; i < 3; i++) print i;", "{ var i = 0; for (; (i < 3); (i = (i + 1))) print i; }"},
		{"for (;;) break;", "while (true) break;"},
		{"do x++; while (x < 3);", "do (x = (x + 1)); while ((x < 3));"},
		{"repeat (3) print 1;", "repeat (3) print 1;"},
		{"function add(a, b) { return a + b; }", "function add(a, b) { return (a + b); }"},
		{"native function math.max(a, b);", "native function math.max(a, b);"},
		{"final class User { }", "final class User { }"},
		{"yield x as total;", "yield x as total;"},
		{`yield x as "total";`, "yield x as total;"},
		{"yield 1;", "yield 1;"},
		{"return;", "return;"},
		{
			"class B extends A { var n = 1; constructor(x) { this.n = x; } function f() { return super.f() + 1; } }",
			"class B extends A { var n = 1; constructor(x) { (this.n = x); } function f() { return (super.f() + 1); } }",
		},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			program := parse(t, tt.input)
			require.Len(t, program.Statements, 1)
			assert.Equal(t, tt.expected, program.String())
		})
	}
}

func TestClassStatementShape(t *testing.T) {
	program := parse(t, `class Admin extends User {
    var level = 1;
    var name;
    function promote() { this.level++; }
    constructor(name) { this.name = name; }
}`)

	require.Len(t, program.Statements, 1)
	class, ok := program.Statements[0].(*ast.ClassStatement)
	require.True(t, ok)

	assert.Equal(t, "Admin", class.Name.Lexeme)
	require.NotNil(t, class.Superclass)
	assert.Equal(t, "User", class.Superclass.Name.Lexeme)
	assert.Equal(t, 1, class.Superclass.Name.Line)
	assert.Equal(t, 20, class.Superclass.Name.Column)
	assert.False(t, class.Final)
	assert.Len(t, class.Fields, 2)
	assert.Len(t, class.Methods, 1)
	require.NotNil(t, class.Constructor)
	assert.Equal(t, "name", class.Constructor.Params[0].Lexeme)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input   string
		message string
		line    int
		column  int
	}{
		{"var = 1;", "Expected identifier after 'var', got '='", 1, 4},
		{"print 1", "Expected ';' after value, got end of input", 1, 7},
		{"1 + ;", "Expected expression, got ';'", 1, 4},
		{"1 = 2;", "Invalid assignment target", 1, 2},
		{"a + b = c;", "Invalid assignment target", 1, 6},
		{"class A { print 1; }", "Unexpected 'print' in body of class 'A'", 1, 10},
		{"class A { constructor() {} constructor() {} }", "Class 'A' already has a constructor", 1, 27},
		{"class A { function f() {} function f() {} }", "Method 'f' is already defined in class 'A'", 1, 35},
		{"if (x { }", "Expected ')' after if condition, got '{'", 1, 6},
		{"final function f() {}", "Expected 'var' or 'class' after 'final', got 'function'", 1, 6},
		{"{ var a = 1;", "Expected '}' after block, got end of input", 1, 12},
		{"final var z;", "Final variable 'z' must be initialized", 1, 10},
		{"native function max(a);", "Expected '.' after native module name, got '('", 1, 19},
		{"var a = 1;\nwhile true {}", "Expected '(' after 'while', got 'true'", 2, 6},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			se := parseError(t, tt.input)
			assert.Equal(t, diagnostic.ParseError, se.Kind)
			assert.Equal(t, diagnostic.PARSING, se.Phase)
			assert.Equal(t, tt.message, se.Message)
			assert.Equal(t, tt.line, se.Line())
			assert.Equal(t, tt.column, se.Column())
		})
	}
}

func TestRenderASTAsText(t *testing.T) {
	program := parse(t, "function f(a) { if (a) { return 1; } }")
	expected := "function f(a) {\n  if a {\n    return 1\n  }\n}"
	assert.Equal(t, expected, RenderASTAsText(program, 0))
}

func TestRenderASTAsJSON(t *testing.T) {
	program := parse(t, "var x = 1 + 2;")
	out, err := RenderASTAsJSON(program)
	require.NoError(t, err)
	assert.Contains(t, out, `"type": "Program"`)
	assert.Contains(t, out, `"type": "VarStatement"`)
	assert.Contains(t, out, `"operator": "+"`)
}
