package lexer

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"hsl/internal/diagnostic"
	"hsl/internal/token"
)

type Lexer struct {
	input        string
	position     int  // current byte position in input (points to start of current rune)
	readPosition int  // next byte position in input (start of next rune)
	ch           rune // current rune under examination; 0 means EOF

	line   int // line of ch, 1-based
	column int // column of ch, 0-based rune offset within the line

	comments []token.Comment
}

func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: -1}
	l.readChar()
	return l
}

// Tokenize consumes the whole input in one pass. The token slice always ends
// with an EOF token. The first lexical error aborts the pass.
func (l *Lexer) Tokenize() ([]token.Token, []token.Comment, error) {
	var tokens []token.Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			return tokens, l.comments, nil
		}
	}
}

// Comments returns the comments collected so far.
func (l *Lexer) Comments() []token.Comment {
	return l.comments
}

func (l *Lexer) NextToken() (token.Token, error) {
	if err := l.skipWhitespace(); err != nil {
		return token.Token{}, err
	}

	switch {
	case l.ch == 0 && l.position >= len(l.input):
		return token.Token{Type: token.EOF, Line: l.line, Column: l.column}, nil
	case l.ch == '"':
		return l.readString()
	case l.ch == '\'':
		return l.readCharLiteral()
	case isDigit(l.ch):
		return l.readNumber()
	case isLetter(l.ch):
		line, col := l.line, l.column
		ident := l.readIdentifier()
		return token.Token{Type: token.LookupIdent(ident), Lexeme: ident, Line: line, Column: col}, nil
	}
	return l.readOperator()
}

func (l *Lexer) skipWhitespace() error {
	for {
		switch l.ch {
		case ' ', '\t', '\r', '\n', '\f':
			l.readChar()
		case '/':
			switch l.peekChar() {
			case '/':
				l.readLineComment()
			case '*':
				if err := l.readBlockComment(); err != nil {
					return err
				}
			default:
				return nil
			}
		default:
			return nil
		}
	}
}

func (l *Lexer) readLineComment() {
	line := l.line
	l.readChar() // consume first '/'
	l.readChar() // consume second '/'
	start := l.position
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
	text := strings.TrimSpace(l.input[start:l.position])
	l.comments = append(l.comments, token.Comment{Line: line, EndLine: line, Text: text})
}

func (l *Lexer) readBlockComment() error {
	line, col := l.line, l.column
	l.readChar() // consume '/'
	l.readChar() // consume '*'
	start := l.position
	for {
		if l.ch == 0 && l.position >= len(l.input) {
			return diagnostic.Lexical(line, col, "Unterminated block comment")
		}
		if l.ch == '*' && l.peekChar() == '/' {
			break
		}
		l.readChar()
	}
	text := strings.TrimSpace(l.input[start:l.position])
	endLine := l.line
	l.readChar() // consume '*'
	l.readChar() // consume '/'
	l.comments = append(l.comments, token.Comment{Line: line, EndLine: endLine, Text: text})
	return nil
}

// readChar advances by one UTF-8 rune, updating byte positions and the
// line/column of the new current rune
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	} else {
		l.column++
	}
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = l.readPosition
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += size
}

// peekChar returns the next rune without advancing; returns 0 at EOF
func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

// readIdentifier returns the substring (bytes) covering the identifier runes
func (l *Lexer) readIdentifier() string {
	start := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

// readNumber decodes decimal, hexadecimal (0x) and binary (0b) literals into a
// float64. Underscores are allowed between digits.
func (l *Lexer) readNumber() (token.Token, error) {
	line, col := l.line, l.column
	start := l.position

	if l.ch == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X' || l.peekChar() == 'b' || l.peekChar() == 'B') {
		return l.readPrefixedNumber(line, col, start)
	}

	var digits strings.Builder
	if err := l.readDigits(&digits, isDigit, line, col); err != nil {
		return token.Token{}, err
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		digits.WriteRune(l.ch)
		l.readChar()
		if err := l.readDigits(&digits, isDigit, line, col); err != nil {
			return token.Token{}, err
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		digits.WriteRune(l.ch)
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			digits.WriteRune(l.ch)
			l.readChar()
		}
		if !isDigit(l.ch) {
			return token.Token{}, l.invalidNumber(start, line, col)
		}
		for isDigit(l.ch) {
			digits.WriteRune(l.ch)
			l.readChar()
		}
	}
	if isLetter(l.ch) {
		return token.Token{}, l.invalidNumber(start, line, col)
	}

	value, err := strconv.ParseFloat(digits.String(), 64)
	if err != nil {
		return token.Token{}, l.invalidNumber(start, line, col)
	}
	return token.Token{Type: token.NUMBER, Lexeme: l.input[start:l.position], Literal: value, Line: line, Column: col}, nil
}

func (l *Lexer) readPrefixedNumber(line, col, start int) (token.Token, error) {
	l.readChar() // consume '0'
	base := 16
	accept := isHexDigit
	if l.ch == 'b' || l.ch == 'B' {
		base = 2
		accept = isBinaryDigit
	}
	l.readChar() // consume 'x' or 'b'

	var digits strings.Builder
	if !accept(l.ch) {
		return token.Token{}, l.invalidNumber(start, line, col)
	}
	if err := l.readDigits(&digits, accept, line, col); err != nil {
		return token.Token{}, err
	}
	if isLetter(l.ch) || isDigit(l.ch) {
		return token.Token{}, l.invalidNumber(start, line, col)
	}
	value, err := strconv.ParseUint(digits.String(), base, 64)
	if err != nil {
		return token.Token{}, l.invalidNumber(start, line, col)
	}
	return token.Token{Type: token.NUMBER, Lexeme: l.input[start:l.position], Literal: float64(value), Line: line, Column: col}, nil
}

func (l *Lexer) readDigits(out *strings.Builder, accept func(rune) bool, line, col int) error {
	for accept(l.ch) || l.ch == '_' {
		if l.ch == '_' {
			// Rule: _ must be between digits
			prev, _ := utf8.DecodeLastRuneInString(l.input[:l.position])
			if !accept(prev) || !accept(l.peekChar()) {
				return diagnostic.Lexical(line, col, "Underscore must be between digits in number literal")
			}
		} else {
			out.WriteRune(l.ch)
		}
		l.readChar()
	}
	return nil
}

func (l *Lexer) invalidNumber(start, line, col int) error {
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '.' {
		l.readChar()
	}
	return diagnostic.Lexical(line, col, "Invalid numeric literal '%s'", l.input[start:l.position])
}

// Unicode-aware helpers
func isLetter(ch rune) bool {
	// Letters, underscore, and categories like Letter and Mark to support identifiers like café,变量
	return ch == '_' || ch == '$' || unicode.IsLetter(ch) || unicode.Is(unicode.Mn, ch) || unicode.Is(unicode.Mc, ch)
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch rune) bool {
	return (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func isBinaryDigit(ch rune) bool {
	return ch == '0' || ch == '1'
}
