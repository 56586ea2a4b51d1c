package lexer

import (
	"strconv"
	"strings"

	"hsl/internal/diagnostic"
	"hsl/internal/token"
)

// readString reads a double-quoted string, decoding escapes. Strings may span
// lines; reaching the end of input first is a lexical error reported at the
// opening quote.
func (l *Lexer) readString() (token.Token, error) {
	line, col := l.line, l.column
	start := l.position
	var result strings.Builder

	l.readChar() // consume opening '"'
	for l.ch != '"' {
		if l.ch == 0 && l.position >= len(l.input) {
			return token.Token{}, diagnostic.Lexical(line, col, "Unterminated string")
		}
		if l.ch == '\\' {
			r, err := l.readEscape()
			if err != nil {
				return token.Token{}, err
			}
			result.WriteRune(r)
			continue
		}
		result.WriteRune(l.ch)
		l.readChar()
	}
	l.readChar() // consume closing '"'

	return token.Token{
		Type:    token.STRING,
		Lexeme:  l.input[start:l.position],
		Literal: result.String(),
		Line:    line,
		Column:  col,
	}, nil
}

// readCharLiteral reads a single-quoted character such as 'a' or '\n'.
func (l *Lexer) readCharLiteral() (token.Token, error) {
	line, col := l.line, l.column
	start := l.position

	l.readChar() // consume opening '\''
	var value rune
	switch {
	case l.ch == 0 && l.position >= len(l.input), l.ch == '\n':
		return token.Token{}, diagnostic.Lexical(line, col, "Unterminated char literal")
	case l.ch == '\'':
		return token.Token{}, diagnostic.Lexical(line, col, "Empty char literal")
	case l.ch == '\\':
		r, err := l.readEscape()
		if err != nil {
			return token.Token{}, err
		}
		value = r
	default:
		value = l.ch
		l.readChar()
	}
	if l.ch != '\'' {
		return token.Token{}, diagnostic.Lexical(line, col, "Unterminated char literal")
	}
	l.readChar() // consume closing '\''

	return token.Token{
		Type:    token.CHAR,
		Lexeme:  l.input[start:l.position],
		Literal: value,
		Line:    line,
		Column:  col,
	}, nil
}

// readEscape decodes the escape sequence starting at the current backslash and
// leaves the lexer on the rune following it.
func (l *Lexer) readEscape() (rune, error) {
	line, col := l.line, l.column
	l.readChar() // consume '\'
	var r rune
	switch l.ch {
	case 'n':
		r = '\n'
	case 't':
		r = '\t'
	case 'r':
		r = '\r'
	case '0':
		r = 0
	case '\\':
		r = '\\'
	case '"':
		r = '"'
	case '\'':
		r = '\''
	case 'u':
		hex := make([]rune, 0, 4)
		for range 4 {
			l.readChar()
			if !isHexDigit(l.ch) {
				return 0, diagnostic.Lexical(line, col, "Invalid unicode escape")
			}
			hex = append(hex, l.ch)
		}
		code, _ := strconv.ParseUint(string(hex), 16, 32)
		r = rune(code)
	default:
		return 0, diagnostic.Lexical(line, col, "Invalid escape sequence '\\%c'", l.ch)
	}
	l.readChar()
	return r, nil
}
