package lexer

import (
	"hsl/internal/diagnostic"
	"hsl/internal/token"
)

// readOperator handles punctuation and operators, preferring the longest match.
func (l *Lexer) readOperator() (token.Token, error) {
	var tok token.Token

	switch l.ch {
	case '=':
		tok = l.handleCompoundToken(token.ASSIGN, '=', token.EQ)
	case '+':
		tok = l.handleCompoundToken2(token.PLUS, '+', token.INCREMENT, '=', token.PLUS_EQ)
	case '-':
		tok = l.handleCompoundToken2(token.MINUS, '-', token.DECREMENT, '=', token.MINUS_EQ)
	case '*':
		tok = l.handleCompoundToken(token.ASTERISK, '=', token.ASTERISK_EQ)
	case '/':
		tok = l.handleCompoundToken(token.SLASH, '=', token.SLASH_EQ)
	case '%':
		tok = l.newToken(token.PERCENT)
	case '!':
		tok = l.handleCompoundToken(token.BANG, '=', token.NOT_EQ)
	case '<':
		tok = l.handleCompoundToken2(token.LT, '=', token.LT_EQ, '<', token.SHIFT_LEFT)
	case '>':
		tok = l.handleCompoundToken2(token.GT, '=', token.GT_EQ, '>', token.SHIFT_RIGHT)
	case '&':
		tok = l.handleCompoundToken(token.BITWISE_AND, '&', token.LOGICAL_AND)
	case '|':
		tok = l.handleCompoundToken(token.BITWISE_OR, '|', token.LOGICAL_OR)
	case '^':
		tok = l.newToken(token.BITWISE_XOR)
	case '~':
		tok = l.newToken(token.COMPLEMENT)
	case '?':
		tok = l.newToken(token.QUESTION)
	case ':':
		tok = l.newToken(token.COLON)
	case '.':
		tok = l.newToken(token.PERIOD)
	case ',':
		tok = l.newToken(token.COMMA)
	case ';':
		tok = l.newToken(token.SEMICOLON)
	case '(':
		tok = l.newToken(token.LPAREN)
	case ')':
		tok = l.newToken(token.RPAREN)
	case '{':
		tok = l.newToken(token.LBRACE)
	case '}':
		tok = l.newToken(token.RBRACE)
	case '[':
		tok = l.newToken(token.LBRACKET)
	case ']':
		tok = l.newToken(token.RBRACKET)
	default:
		return token.Token{}, diagnostic.Lexical(l.line, l.column, "Unexpected character '%c'", l.ch)
	}

	l.readChar()
	return tok, nil
}

// newToken builds a single-rune token at the current position without advancing.
func (l *Lexer) newToken(tokenType token.TokenType) token.Token {
	return token.Token{Type: tokenType, Lexeme: string(l.ch), Line: l.line, Column: l.column}
}

func (l *Lexer) handleCompoundToken(
	t token.TokenType,
	ch1 rune,
	t1 token.TokenType,
) token.Token {
	if l.peekChar() == ch1 {
		tok := token.Token{Type: t1, Line: l.line, Column: l.column}
		first := l.ch
		l.readChar()
		tok.Lexeme = string(first) + string(l.ch)
		return tok
	}
	return l.newToken(t)
}

func (l *Lexer) handleCompoundToken2(
	t token.TokenType,
	ch1 rune,
	t1 token.TokenType,
	ch2 rune,
	t2 token.TokenType,
) token.Token {
	switch l.peekChar() {
	case ch1:
		return l.handleCompoundToken(t, ch1, t1)
	case ch2:
		return l.handleCompoundToken(t, ch2, t2)
	}
	return l.newToken(t)
}
