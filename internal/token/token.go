package token

import "fmt"

type TokenType string

const (
	ILLEGAL = "ILLEGAL"
	EOF     = "EOF"

	// Identifiers + literals
	IDENT  = "IDENT"  // add, foobar, x, y, ...
	NUMBER = "NUMBER" // 1343456, 3.14, 0xFF
	STRING = "STRING" // "foobar"
	CHAR   = "CHAR"   // 'a'

	// Operators
	ASSIGN      = "="
	PLUS        = "+"
	MINUS       = "-"
	BANG        = "!"
	ASTERISK    = "*"
	SLASH       = "/"
	PERCENT     = "%"
	QUESTION    = "?"
	INCREMENT   = "++"
	DECREMENT   = "--"
	PLUS_EQ     = "+="
	MINUS_EQ    = "-="
	ASTERISK_EQ = "*="
	SLASH_EQ    = "/="

	LT    = "<"
	LT_EQ = "<="
	GT    = ">"
	GT_EQ = ">="

	COMPLEMENT  = "~"
	BITWISE_AND = "&"
	BITWISE_OR  = "|"
	BITWISE_XOR = "^"
	SHIFT_LEFT  = "<<"
	SHIFT_RIGHT = ">>"

	LOGICAL_AND = "&&"
	LOGICAL_OR  = "||"

	EQ     = "=="
	NOT_EQ = "!="

	// Delimiters
	PERIOD    = "."
	COMMA     = ","
	SEMICOLON = ";"
	COLON     = ":"

	LPAREN   = "("
	RPAREN   = ")"
	LBRACE   = "{"
	RBRACE   = "}"
	LBRACKET = "["
	RBRACKET = "]"

	// Keywords
	VAR         = "VAR"
	FINAL       = "FINAL"
	FUNCTION    = "FUNCTION"
	NATIVE      = "NATIVE"
	CLASS       = "CLASS"
	EXTENDS     = "EXTENDS"
	CONSTRUCTOR = "CONSTRUCTOR"
	THIS        = "THIS"
	SUPER       = "SUPER"
	TRUE        = "TRUE"
	FALSE       = "FALSE"
	NULL        = "NULL"
	IF          = "IF"
	ELSE        = "ELSE"
	WHILE       = "WHILE"
	DO          = "DO"
	FOR         = "FOR"
	REPEAT      = "REPEAT"
	BREAK       = "BREAK"
	CONTINUE    = "CONTINUE"
	RETURN      = "RETURN"
	PRINT       = "PRINT"
	YIELD       = "YIELD"
	AS          = "AS"
)

// Token is immutable once produced by the lexer. Line is 1-based, Column is the
// 0-based offset of the first character of the lexeme within its line.
type Token struct {
	Type    TokenType
	Lexeme  string
	Literal any // float64, string or rune for literal tokens
	Line    int
	Column  int
}

func (t Token) String() string {
	if t.Literal != nil {
		return fmt.Sprintf("%s %q %v", t.Type, t.Lexeme, t.Literal)
	}
	return fmt.Sprintf("%s %q", t.Type, t.Lexeme)
}

// Synthetic creates a token that does not originate from source text, used when
// the parser desugars constructs such as compound assignment.
func Synthetic(t TokenType, lexeme string, at Token) Token {
	return Token{Type: t, Lexeme: lexeme, Line: at.Line, Column: at.Column}
}

// Comment is retained for tooling and never evaluated.
type Comment struct {
	Line    int
	EndLine int
	Text    string
}

var keywords = map[string]TokenType{
	// constants
	"null":  NULL,
	"true":  TRUE,
	"false": FALSE,

	// declarations
	"var":         VAR,
	"final":       FINAL,
	"function":    FUNCTION,
	"native":      NATIVE,
	"class":       CLASS,
	"extends":     EXTENDS,
	"constructor": CONSTRUCTOR,
	"this":        THIS,
	"super":       SUPER,

	// flow control
	"if":       IF,
	"else":     ELSE,
	"while":    WHILE,
	"do":       DO,
	"for":      FOR,
	"repeat":   REPEAT,
	"break":    BREAK,
	"continue": CONTINUE,
	"return":   RETURN,

	// host interaction
	"print": PRINT,
	"yield": YIELD,
	"as":    AS,
}

func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// IsKeyword reports whether the lexeme is reserved.
func IsKeyword(ident string) bool {
	_, ok := keywords[ident]
	return ok
}
