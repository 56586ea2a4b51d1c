package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hsl/internal/diagnostic"
	"hsl/internal/token"
)

func TestNextToken(t *testing.T) {
	input := `var five = 5;
final class User extends Base { }
function add(x, y) { return x + y; }
native function math.max(a, b);
!- / * % ~5;
5 < 10 > 5 <= 10 >= 5 << 1 >> 2;
a && b || c & d | e ^ f;
x += 1; x -= 1; x *= 2; x /= 2; x++; x--;
10 == 10; 10 != 9;
c ? a : b;
"foo\tbar" 'c' [1, 2];
yield this.name as result;
`

	tests := []struct {
		expectedType   token.TokenType
		expectedLexeme string
	}{
		{token.VAR, "var"},
		{token.IDENT, "five"},
		{token.ASSIGN, "="},
		{token.NUMBER, "5"},
		{token.SEMICOLON, ";"},
		{token.FINAL, "final"},
		{token.CLASS, "class"},
		{token.IDENT, "User"},
		{token.EXTENDS, "extends"},
		{token.IDENT, "Base"},
		{token.LBRACE, "{"},
		{token.RBRACE, "}"},
		{token.FUNCTION, "function"},
		{token.IDENT, "add"},
		{token.LPAREN, "("},
		{token.IDENT, "x"},
		{token.COMMA, ","},
		{token.IDENT, "y"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.RETURN, "return"},
		{token.IDENT, "x"},
		{token.PLUS, "+"},
		{token.IDENT, "y"},
		{token.SEMICOLON, ";"},
		{token.RBRACE, "}"},
		{token.NATIVE, "native"},
		{token.FUNCTION, "function"},
		{token.IDENT, "math"},
		{token.PERIOD, "."},
		{token.IDENT, "max"},
		{token.LPAREN, "("},
		{token.IDENT, "a"},
		{token.COMMA, ","},
		{token.IDENT, "b"},
		{token.RPAREN, ")"},
		{token.SEMICOLON, ";"},
		{token.BANG, "!"},
		{token.MINUS, "-"},
		{token.SLASH, "/"},
		{token.ASTERISK, "*"},
		{token.PERCENT, "%"},
		{token.COMPLEMENT, "~"},
		{token.NUMBER, "5"},
		{token.SEMICOLON, ";"},
		{token.NUMBER, "5"},
		{token.LT, "<"},
		{token.NUMBER, "10"},
		{token.GT, ">"},
		{token.NUMBER, "5"},
		{token.LT_EQ, "<="},
		{token.NUMBER, "10"},
		{token.GT_EQ, ">="},
		{token.NUMBER, "5"},
		{token.SHIFT_LEFT, "<<"},
		{token.NUMBER, "1"},
		{token.SHIFT_RIGHT, ">>"},
		{token.NUMBER, "2"},
		{token.SEMICOLON, ";"},
		{token.IDENT, "a"},
		{token.LOGICAL_AND, "&&"},
		{token.IDENT, "b"},
		{token.LOGICAL_OR, "||"},
		{token.IDENT, "c"},
		{token.BITWISE_AND, "&"},
		{token.IDENT, "d"},
		{token.BITWISE_OR, "|"},
		{token.IDENT, "e"},
		{token.BITWISE_XOR, "^"},
		{token.IDENT, "f"},
		{token.SEMICOLON, ";"},
		{token.IDENT, "x"},
		{token.PLUS_EQ, "+="},
		{token.NUMBER, "1"},
		{token.SEMICOLON, ";"},
		{token.IDENT, "x"},
		{token.MINUS_EQ, "-="},
		{token.NUMBER, "1"},
		{token.SEMICOLON, ";"},
		{token.IDENT, "x"},
		{token.ASTERISK_EQ, "*="},
		{token.NUMBER, "2"},
		{token.SEMICOLON, ";"},
		{token.IDENT, "x"},
		{token.SLASH_EQ, "/="},
		{token.NUMBER, "2"},
		{token.SEMICOLON, ";"},
		{token.IDENT, "x"},
		{token.INCREMENT, "++"},
		{token.SEMICOLON, ";"},
		{token.IDENT, "x"},
		{token.DECREMENT, "--"},
		{token.SEMICOLON, ";"},
		{token.NUMBER, "10"},
		{token.EQ, "=="},
		{token.NUMBER, "10"},
		{token.SEMICOLON, ";"},
		{token.NUMBER, "10"},
		{token.NOT_EQ, "!="},
		{token.NUMBER, "9"},
		{token.SEMICOLON, ";"},
		{token.IDENT, "c"},
		{token.QUESTION, "?"},
		{token.IDENT, "a"},
		{token.COLON, ":"},
		{token.IDENT, "b"},
		{token.SEMICOLON, ";"},
		{token.STRING, `"foo\tbar"`},
		{token.CHAR, `'c'`},
		{token.LBRACKET, "["},
		{token.NUMBER, "1"},
		{token.COMMA, ","},
		{token.NUMBER, "2"},
		{token.RBRACKET, "]"},
		{token.SEMICOLON, ";"},
		{token.YIELD, "yield"},
		{token.THIS, "this"},
		{token.PERIOD, "."},
		{token.IDENT, "name"},
		{token.AS, "as"},
		{token.IDENT, "result"},
		{token.SEMICOLON, ";"},
		{token.EOF, ""},
	}

	tokens, _, err := New(input).Tokenize()
	require.NoError(t, err)
	require.Len(t, tokens, len(tests))

	for i, tt := range tests {
		tok := tokens[i]
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q (%q)", i, tt.expectedType, tok.Type, tok.Lexeme)
		}
		if tok.Lexeme != tt.expectedLexeme {
			t.Fatalf("tests[%d] - lexeme wrong. expected=%q, got=%q", i, tt.expectedLexeme, tok.Lexeme)
		}
	}
}

func TestLiteralDecoding(t *testing.T) {
	tests := []struct {
		input    string
		expected any
	}{
		{"42", 42.0},
		{"3.25", 3.25},
		{"1e3", 1000.0},
		{"2.5E-1", 0.25},
		{"1_000_000", 1000000.0},
		{"0xFF", 255.0},
		{"0b101", 5.0},
		{`"a\nb"`, "a\nb"},
		{`"tab\there"`, "tab\there"},
		{`"quote \" inside"`, `quote " inside`},
		{`"ABC"`, "ABC"},
		{`'x'`, 'x'},
		{`'\n'`, '\n'},
		{`'\''`, '\''},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens, _, err := New(tt.input).Tokenize()
			require.NoError(t, err)
			require.Len(t, tokens, 2)
			assert.Equal(t, tt.expected, tokens[0].Literal)
		})
	}
}

func TestPositions(t *testing.T) {
	input := "var x = 1;\n  x = 2;\n\tclass User { }"
	tokens, _, err := New(input).Tokenize()
	require.NoError(t, err)

	tests := []struct {
		index  int
		lexeme string
		line   int
		column int
	}{
		{0, "var", 1, 0},
		{1, "x", 1, 4},
		{3, "1", 1, 8},
		{5, "x", 2, 2},
		{7, "2", 2, 6},
		{9, "class", 3, 1},
		{10, "User", 3, 7},
	}
	for _, tt := range tests {
		tok := tokens[tt.index]
		assert.Equal(t, tt.lexeme, tok.Lexeme)
		assert.Equal(t, tt.line, tok.Line, "line of %q", tt.lexeme)
		assert.Equal(t, tt.column, tok.Column, "column of %q", tt.lexeme)
	}
}

func TestComments(t *testing.T) {
	input := `// leading comment
var a = 1; // trailing
/* block
   comment */
var b = 2;`

	tokens, comments, err := New(input).Tokenize()
	require.NoError(t, err)
	require.Len(t, comments, 3)

	assert.Equal(t, token.Comment{Line: 1, EndLine: 1, Text: "leading comment"}, comments[0])
	assert.Equal(t, token.Comment{Line: 2, EndLine: 2, Text: "trailing"}, comments[1])
	assert.Equal(t, 3, comments[2].Line)
	assert.Equal(t, 4, comments[2].EndLine)
	assert.Equal(t, "block\n   comment", comments[2].Text)

	// comments never reach the token stream
	for _, tok := range tokens {
		assert.NotContains(t, tok.Lexeme, "comment")
	}
	assert.Equal(t, 5, tokens[5].Line)
}

func TestLexicalErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
		line    int
		column  int
	}{
		{"unterminated string", "var s = \"abc", "Unterminated string", 1, 8},
		{"unterminated char", "var c = 'a", "Unterminated char literal", 1, 8},
		{"empty char", "var c = '';", "Empty char literal", 1, 8},
		{"invalid number", "var n = 12abc;", "Invalid numeric literal '12abc'", 1, 8},
		{"invalid hex", "var n = 0xZZ;", "Invalid numeric literal '0xZZ'", 1, 8},
		{"bad underscore", "var n = 1__0;", "Underscore must be between digits in number literal", 1, 8},
		{"unknown symbol", "var a = 1;\nvar b = @;", "Unexpected character '@'", 2, 8},
		{"unterminated comment", "/* never closed", "Unterminated block comment", 1, 0},
		{"bad escape", `"\q"`, `Invalid escape sequence '\q'`, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := New(tt.input).Tokenize()
			require.Error(t, err)

			se, ok := diagnostic.As(err)
			require.True(t, ok)
			assert.Equal(t, diagnostic.LexicalError, se.Kind)
			assert.Equal(t, diagnostic.LEXING, se.Phase)
			assert.Equal(t, tt.message, se.Message)
			assert.Equal(t, tt.line, se.Line())
			assert.Equal(t, tt.column, se.Column())
		})
	}
}
