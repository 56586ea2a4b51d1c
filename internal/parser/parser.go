package parser

import (
	"strings"

	"hsl/internal/ast"
	"hsl/internal/diagnostic"
	"hsl/internal/token"
)

const (
	_           int = iota
	LOWEST          // statement level
	ASSIGNMENT      // = += -= *= /=
	TERNARY         // c ? a : b
	LOGICAL_OR      // ||
	LOGICAL_AND     // &&
	BITWISE_OR      // |
	BITWISE_XOR     // ^
	BITWISE_AND     // &
	EQUALS          // == !=
	COMPARISON      // > or <
	SHIFT           // << >>
	SUM             // +
	PRODUCT         // *
	PREFIX          // -X or !X
	CALL            // myFunction(X), obj.field, array[index], x++
)

var precedences = map[token.TokenType]int{
	token.ASSIGN:      ASSIGNMENT,
	token.PLUS_EQ:     ASSIGNMENT,
	token.MINUS_EQ:    ASSIGNMENT,
	token.ASTERISK_EQ: ASSIGNMENT,
	token.SLASH_EQ:    ASSIGNMENT,
	token.QUESTION:    TERNARY,
	token.LOGICAL_OR:  LOGICAL_OR,
	token.LOGICAL_AND: LOGICAL_AND,
	token.BITWISE_OR:  BITWISE_OR,
	token.BITWISE_XOR: BITWISE_XOR,
	token.BITWISE_AND: BITWISE_AND,
	token.EQ:          EQUALS,
	token.NOT_EQ:      EQUALS,
	token.LT:          COMPARISON,
	token.LT_EQ:       COMPARISON,
	token.GT:          COMPARISON,
	token.GT_EQ:       COMPARISON,
	token.SHIFT_LEFT:  SHIFT,
	token.SHIFT_RIGHT: SHIFT,
	token.PLUS:        SUM,
	token.MINUS:       SUM,
	token.SLASH:       PRODUCT,
	token.ASTERISK:    PRODUCT,
	token.PERCENT:     PRODUCT,
	token.PERIOD:      CALL,
	token.LPAREN:      CALL,
	token.LBRACKET:    CALL,
	token.INCREMENT:   CALL,
	token.DECREMENT:   CALL,
}

// compound assignment operators and the binary operator they expand to
var compoundOperators = map[token.TokenType]token.TokenType{
	token.PLUS_EQ:     token.PLUS,
	token.MINUS_EQ:    token.MINUS,
	token.ASTERISK_EQ: token.ASTERISK,
	token.SLASH_EQ:    token.SLASH,
	token.INCREMENT:   token.PLUS,
	token.DECREMENT:   token.MINUS,
}

type (
	prefixParseFn func() (ast.Expression, error)
	infixParseFn  func(ast.Expression) (ast.Expression, error)
)

// Parser is a Pratt parser over a fully lexed token slice. It stops at the
// first malformed construct.
type Parser struct {
	tokens []token.Token
	pos    int

	curToken  token.Token
	peekToken token.Token

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn
}

func New(tokens []token.Token) *Parser {
	p := &Parser{tokens: tokens}

	p.prefixParseFns = make(map[token.TokenType]prefixParseFn)
	p.registerPrefix(token.IDENT, p.parseVariable)
	p.registerPrefix(token.NUMBER, p.parseLiteral)
	p.registerPrefix(token.STRING, p.parseLiteral)
	p.registerPrefix(token.CHAR, p.parseLiteral)
	p.registerPrefix(token.TRUE, p.parseLiteral)
	p.registerPrefix(token.FALSE, p.parseLiteral)
	p.registerPrefix(token.NULL, p.parseLiteral)
	p.registerPrefix(token.BANG, p.parseUnaryExpression)
	p.registerPrefix(token.MINUS, p.parseUnaryExpression)
	p.registerPrefix(token.COMPLEMENT, p.parseUnaryExpression)
	p.registerPrefix(token.INCREMENT, p.parsePrefixIncrement)
	p.registerPrefix(token.DECREMENT, p.parsePrefixIncrement)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpression)
	p.registerPrefix(token.LBRACKET, p.parseArrayLiteral)
	p.registerPrefix(token.THIS, p.parseThis)
	p.registerPrefix(token.SUPER, p.parseSuper)

	p.infixParseFns = make(map[token.TokenType]infixParseFn)
	for _, t := range []token.TokenType{
		token.PLUS, token.MINUS, token.SLASH, token.ASTERISK, token.PERCENT,
		token.EQ, token.NOT_EQ, token.LT, token.LT_EQ, token.GT, token.GT_EQ,
	} {
		p.registerInfix(t, p.parseBinaryExpression)
	}
	p.registerInfix(token.LOGICAL_AND, p.parseLogicalExpression)
	p.registerInfix(token.LOGICAL_OR, p.parseLogicalExpression)
	for _, t := range []token.TokenType{
		token.BITWISE_AND, token.BITWISE_OR, token.BITWISE_XOR, token.SHIFT_LEFT, token.SHIFT_RIGHT,
	} {
		p.registerInfix(t, p.parseBitwiseExpression)
	}
	p.registerInfix(token.QUESTION, p.parseTernaryExpression)
	p.registerInfix(token.ASSIGN, p.parseAssignmentExpression)
	for t := range compoundOperators {
		if t == token.INCREMENT || t == token.DECREMENT {
			p.registerInfix(t, p.parsePostfixIncrement)
			continue
		}
		p.registerInfix(t, p.parseCompoundAssignment)
	}
	p.registerInfix(token.LPAREN, p.parseCallExpression)
	p.registerInfix(token.PERIOD, p.parseGetExpression)
	p.registerInfix(token.LBRACKET, p.parseIndexExpression)

	// Read two tokens, so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()

	return p
}

func (p *Parser) registerPrefix(tokenType token.TokenType, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType token.TokenType, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	if p.pos < len(p.tokens) {
		p.peekToken = p.tokens[p.pos]
		p.pos++
		return
	}
	// past the end: keep answering EOF at the last known position
	p.peekToken = token.Token{Type: token.EOF, Line: p.curToken.Line, Column: p.curToken.Column}
}

func (p *Parser) curTokenIs(t token.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) fail(at token.Token, format string, args ...any) error {
	return diagnostic.Parse(at, format, args...)
}

// expectPeek advances when the next token has the wanted type, and otherwise
// reports the unexpected token.
func (p *Parser) expectPeek(t token.TokenType, context string) error {
	if p.peekTokenIs(t) {
		p.nextToken()
		return nil
	}
	return p.fail(p.peekToken, "Expected %s %s, got %s", describe(t), context, describeToken(p.peekToken))
}

func describe(t token.TokenType) string {
	switch t {
	case token.IDENT:
		return "identifier"
	case token.EOF:
		return "end of input"
	}
	return "'" + strings.ToLower(string(t)) + "'"
}

func describeToken(tok token.Token) string {
	if tok.Type == token.EOF {
		return "end of input"
	}
	return "'" + tok.Lexeme + "'"
}

// ParseProgram parses the whole token stream into top-level statements.
func (p *Parser) ParseProgram() (*ast.Program, error) {
	program := &ast.Program{Statements: []ast.Statement{}}

	for !p.curTokenIs(token.EOF) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		program.Statements = append(program.Statements, stmt)
		p.nextToken()
	}

	return program, nil
}

// parseStatement is entered with curToken on the first token of a statement and
// leaves curToken on its last token.
func (p *Parser) parseStatement() (ast.Statement, error) {
	switch p.curToken.Type {
	case token.VAR:
		return p.parseVarStatement(false)
	case token.FINAL:
		return p.parseFinalDeclaration()
	case token.FUNCTION:
		return p.parseFunctionStatement()
	case token.NATIVE:
		return p.parseNativeFunctionStatement()
	case token.CLASS:
		return p.parseClassStatement(false)
	case token.IF:
		return p.parseIfStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.DO:
		return p.parseDoWhileStatement()
	case token.FOR:
		return p.parseForStatement()
	case token.REPEAT:
		return p.parseRepeatStatement()
	case token.BREAK:
		stmt := &ast.BreakStatement{Token: p.curToken}
		return stmt, p.expectPeek(token.SEMICOLON, "after 'break'")
	case token.CONTINUE:
		stmt := &ast.ContinueStatement{Token: p.curToken}
		return stmt, p.expectPeek(token.SEMICOLON, "after 'continue'")
	case token.RETURN:
		return p.parseReturnStatement()
	case token.PRINT:
		return p.parsePrintStatement()
	case token.YIELD:
		return p.parseYieldStatement()
	case token.LBRACE:
		return p.parseBlockStatement()
	case token.CONSTRUCTOR:
		return nil, p.fail(p.curToken, "Constructor declared outside of a class")
	default:
		return p.parseExpressionStatement()
	}
}

func (p *Parser) parseFinalDeclaration() (ast.Statement, error) {
	switch p.peekToken.Type {
	case token.VAR:
		p.nextToken()
		return p.parseVarStatement(true)
	case token.CLASS:
		p.nextToken()
		return p.parseClassStatement(true)
	}
	return nil, p.fail(p.peekToken, "Expected 'var' or 'class' after 'final', got %s", describeToken(p.peekToken))
}

func (p *Parser) parseVarStatement(final bool) (*ast.VarStatement, error) {
	stmt := &ast.VarStatement{Token: p.curToken, Final: final}

	if err := p.expectPeek(token.IDENT, "after 'var'"); err != nil {
		return nil, err
	}
	stmt.Name = p.curToken

	if p.peekTokenIs(token.ASSIGN) {
		p.nextToken()
		p.nextToken()
		value, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		stmt.Initializer = value
	} else if final {
		return nil, p.fail(stmt.Name, "Final variable '%s' must be initialized", stmt.Name.Lexeme)
	}

	if err := p.expectPeek(token.SEMICOLON, "after variable declaration"); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseExpressionStatement() (*ast.ExpressionStatement, error) {
	stmt := &ast.ExpressionStatement{Token: p.curToken}

	expr, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	stmt.Expression = expr

	if err := p.expectPeek(token.SEMICOLON, "after expression"); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parsePrintStatement() (*ast.PrintStatement, error) {
	stmt := &ast.PrintStatement{Token: p.curToken}
	p.nextToken()

	expr, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	stmt.Expression = expr

	if err := p.expectPeek(token.SEMICOLON, "after value"); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseYieldStatement() (*ast.YieldStatement, error) {
	stmt := &ast.YieldStatement{Token: p.curToken}
	p.nextToken()

	value, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	stmt.Value = value

	if p.peekTokenIs(token.AS) {
		p.nextToken()
		// the name is an identifier or a quoted string
		if p.peekTokenIs(token.STRING) {
			p.nextToken()
			name := p.curToken
			name.Lexeme, _ = name.Literal.(string)
			stmt.Name = &name
		} else {
			if err := p.expectPeek(token.IDENT, "after 'as'"); err != nil {
				return nil, err
			}
			name := p.curToken
			stmt.Name = &name
		}
	}

	if err := p.expectPeek(token.SEMICOLON, "after yielded value"); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseReturnStatement() (*ast.ReturnStatement, error) {
	stmt := &ast.ReturnStatement{Token: p.curToken}

	if p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
		return stmt, nil
	}

	p.nextToken()
	value, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	stmt.ReturnValue = value

	if err := p.expectPeek(token.SEMICOLON, "after return value"); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseBlockStatement() (*ast.BlockStatement, error) {
	block := &ast.BlockStatement{Token: p.curToken}
	statements, err := p.parseBlockBody()
	if err != nil {
		return nil, err
	}
	block.Statements = statements
	return block, nil
}

// parseBlockBody is entered on '{' and leaves curToken on the matching '}'.
func (p *Parser) parseBlockBody() ([]ast.Statement, error) {
	statements := []ast.Statement{}
	p.nextToken()

	for !p.curTokenIs(token.RBRACE) {
		if p.curTokenIs(token.EOF) {
			return nil, p.fail(p.curToken, "Expected '}' after block, got end of input")
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)
		p.nextToken()
	}
	return statements, nil
}

// parseCondition reads a parenthesised expression following the current token.
func (p *Parser) parseCondition(keyword string) (ast.Expression, error) {
	if err := p.expectPeek(token.LPAREN, "after '"+keyword+"'"); err != nil {
		return nil, err
	}
	p.nextToken()
	condition, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if err := p.expectPeek(token.RPAREN, "after "+keyword+" condition"); err != nil {
		return nil, err
	}
	return condition, nil
}

func (p *Parser) parseBody() (ast.Statement, error) {
	p.nextToken()
	if p.curTokenIs(token.EOF) {
		return nil, p.fail(p.curToken, "Expected statement, got end of input")
	}
	return p.parseStatement()
}

func (p *Parser) parseIfStatement() (*ast.IfStatement, error) {
	stmt := &ast.IfStatement{Token: p.curToken}

	condition, err := p.parseCondition("if")
	if err != nil {
		return nil, err
	}
	stmt.Condition = condition

	if stmt.Then, err = p.parseBody(); err != nil {
		return nil, err
	}

	if p.peekTokenIs(token.ELSE) {
		p.nextToken()
		if stmt.Else, err = p.parseBody(); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (p *Parser) parseWhileStatement() (*ast.WhileStatement, error) {
	stmt := &ast.WhileStatement{Token: p.curToken}

	condition, err := p.parseCondition("while")
	if err != nil {
		return nil, err
	}
	stmt.Condition = condition

	if stmt.Body, err = p.parseBody(); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseDoWhileStatement() (*ast.DoWhileStatement, error) {
	stmt := &ast.DoWhileStatement{Token: p.curToken}

	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	stmt.Body = body

	if err := p.expectPeek(token.WHILE, "after do body"); err != nil {
		return nil, err
	}
	if stmt.Condition, err = p.parseCondition("while"); err != nil {
		return nil, err
	}
	if err := p.expectPeek(token.SEMICOLON, "after do-while condition"); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseRepeatStatement() (*ast.RepeatStatement, error) {
	stmt := &ast.RepeatStatement{Token: p.curToken}

	count, err := p.parseCondition("repeat")
	if err != nil {
		return nil, err
	}
	stmt.Count = count

	if stmt.Body, err = p.parseBody(); err != nil {
		return nil, err
	}
	return stmt, nil
}

// parseForStatement desugars `for (init; cond; incr) body` into a block holding
// the initializer and a while loop carrying the increment.
func (p *Parser) parseForStatement() (ast.Statement, error) {
	forToken := p.curToken
	if err := p.expectPeek(token.LPAREN, "after 'for'"); err != nil {
		return nil, err
	}
	p.nextToken()

	var initializer ast.Statement
	var err error
	switch p.curToken.Type {
	case token.SEMICOLON:
	case token.VAR:
		initializer, err = p.parseVarStatement(false)
	default:
		initializer, err = p.parseExpressionStatement()
	}
	if err != nil {
		return nil, err
	}
	p.nextToken()

	var condition ast.Expression = &ast.Literal{Token: token.Synthetic(token.TRUE, "true", forToken), Value: true}
	if !p.curTokenIs(token.SEMICOLON) {
		if condition, err = p.parseExpression(LOWEST); err != nil {
			return nil, err
		}
		if err := p.expectPeek(token.SEMICOLON, "after loop condition"); err != nil {
			return nil, err
		}
	}
	p.nextToken()

	var increment ast.Expression
	if !p.curTokenIs(token.RPAREN) {
		if increment, err = p.parseExpression(LOWEST); err != nil {
			return nil, err
		}
		if err := p.expectPeek(token.RPAREN, "after for clauses"); err != nil {
			return nil, err
		}
	}

	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}

	loop := &ast.WhileStatement{Token: forToken, Condition: condition, Body: body, Increment: increment}
	if initializer == nil {
		return loop, nil
	}
	return &ast.BlockStatement{
		Token:      token.Synthetic(token.LBRACE, "{", forToken),
		Statements: []ast.Statement{initializer, loop},
	}, nil
}

// parseParameters is entered on '(' and leaves curToken on ')'.
func (p *Parser) parseParameters() ([]token.Token, error) {
	params := []token.Token{}

	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return params, nil
	}

	if err := p.expectPeek(token.IDENT, "in parameter list"); err != nil {
		return nil, err
	}
	params = append(params, p.curToken)

	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		if err := p.expectPeek(token.IDENT, "in parameter list"); err != nil {
			return nil, err
		}
		params = append(params, p.curToken)
	}

	if err := p.expectPeek(token.RPAREN, "after parameters"); err != nil {
		return nil, err
	}
	return params, nil
}

func (p *Parser) parseFunctionStatement() (*ast.FunctionStatement, error) {
	stmt := &ast.FunctionStatement{Token: p.curToken}

	if err := p.expectPeek(token.IDENT, "after 'function'"); err != nil {
		return nil, err
	}
	stmt.Name = p.curToken

	if err := p.expectPeek(token.LPAREN, "after function name"); err != nil {
		return nil, err
	}
	params, err := p.parseParameters()
	if err != nil {
		return nil, err
	}
	stmt.Params = params

	if err := p.expectPeek(token.LBRACE, "before function body"); err != nil {
		return nil, err
	}
	if stmt.Body, err = p.parseBlockBody(); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseNativeFunctionStatement() (*ast.NativeFunctionStatement, error) {
	stmt := &ast.NativeFunctionStatement{Token: p.curToken}

	if err := p.expectPeek(token.FUNCTION, "after 'native'"); err != nil {
		return nil, err
	}
	if err := p.expectPeek(token.IDENT, "as native module name"); err != nil {
		return nil, err
	}
	stmt.Module = p.curToken
	if err := p.expectPeek(token.PERIOD, "after native module name"); err != nil {
		return nil, err
	}
	if err := p.expectPeek(token.IDENT, "as native function name"); err != nil {
		return nil, err
	}
	stmt.Name = p.curToken

	if err := p.expectPeek(token.LPAREN, "after function name"); err != nil {
		return nil, err
	}
	params, err := p.parseParameters()
	if err != nil {
		return nil, err
	}
	stmt.Params = params

	if err := p.expectPeek(token.SEMICOLON, "after native function declaration"); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseClassStatement(final bool) (*ast.ClassStatement, error) {
	stmt := &ast.ClassStatement{Token: p.curToken, Final: final}

	if err := p.expectPeek(token.IDENT, "after 'class'"); err != nil {
		return nil, err
	}
	stmt.Name = p.curToken

	if p.peekTokenIs(token.EXTENDS) {
		p.nextToken()
		if err := p.expectPeek(token.IDENT, "after 'extends'"); err != nil {
			return nil, err
		}
		stmt.Superclass = &ast.Variable{Name: p.curToken}
	}

	if err := p.expectPeek(token.LBRACE, "before class body"); err != nil {
		return nil, err
	}
	p.nextToken()

	methods := map[string]bool{}
	for !p.curTokenIs(token.RBRACE) {
		switch p.curToken.Type {
		case token.VAR:
			field, err := p.parseFieldStatement()
			if err != nil {
				return nil, err
			}
			stmt.Fields = append(stmt.Fields, field)
		case token.FUNCTION:
			method, err := p.parseFunctionStatement()
			if err != nil {
				return nil, err
			}
			if methods[method.Name.Lexeme] {
				return nil, p.fail(method.Name, "Method '%s' is already defined in class '%s'", method.Name.Lexeme, stmt.Name.Lexeme)
			}
			methods[method.Name.Lexeme] = true
			stmt.Methods = append(stmt.Methods, method)
		case token.CONSTRUCTOR:
			if stmt.Constructor != nil {
				return nil, p.fail(p.curToken, "Class '%s' already has a constructor", stmt.Name.Lexeme)
			}
			ctor, err := p.parseConstructorStatement()
			if err != nil {
				return nil, err
			}
			stmt.Constructor = ctor
		case token.EOF:
			return nil, p.fail(p.curToken, "Expected '}' after class body, got end of input")
		default:
			return nil, p.fail(p.curToken, "Unexpected %s in body of class '%s'", describeToken(p.curToken), stmt.Name.Lexeme)
		}
		p.nextToken()
	}
	return stmt, nil
}

func (p *Parser) parseFieldStatement() (*ast.FieldStatement, error) {
	field := &ast.FieldStatement{Token: p.curToken}

	if err := p.expectPeek(token.IDENT, "after 'var'"); err != nil {
		return nil, err
	}
	field.Name = p.curToken

	if p.peekTokenIs(token.ASSIGN) {
		p.nextToken()
		p.nextToken()
		value, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		field.Initializer = value
	}

	if err := p.expectPeek(token.SEMICOLON, "after field declaration"); err != nil {
		return nil, err
	}
	return field, nil
}

func (p *Parser) parseConstructorStatement() (*ast.ConstructorStatement, error) {
	ctor := &ast.ConstructorStatement{Token: p.curToken}

	if err := p.expectPeek(token.LPAREN, "after 'constructor'"); err != nil {
		return nil, err
	}
	params, err := p.parseParameters()
	if err != nil {
		return nil, err
	}
	ctor.Params = params

	if err := p.expectPeek(token.LBRACE, "before constructor body"); err != nil {
		return nil, err
	}
	if ctor.Body, err = p.parseBlockBody(); err != nil {
		return nil, err
	}
	return ctor, nil
}

func (p *Parser) parseExpression(precedence int) (ast.Expression, error) {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		return nil, p.fail(p.curToken, "Expected expression, got %s", describeToken(p.curToken))
	}
	leftExp, err := prefix()
	if err != nil {
		return nil, err
	}

	for !p.peekTokenIs(token.SEMICOLON) && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp, nil
		}

		p.nextToken()

		if leftExp, err = infix(leftExp); err != nil {
			return nil, err
		}
	}

	return leftExp, nil
}

func (p *Parser) peekPrecedence() int {
	if p, ok := precedences[p.peekToken.Type]; ok {
		return p
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if p, ok := precedences[p.curToken.Type]; ok {
		return p
	}
	return LOWEST
}

func (p *Parser) parseVariable() (ast.Expression, error) {
	return &ast.Variable{Name: p.curToken}, nil
}

func (p *Parser) parseLiteral() (ast.Expression, error) {
	lit := &ast.Literal{Token: p.curToken}
	switch p.curToken.Type {
	case token.TRUE:
		lit.Value = true
	case token.FALSE:
		lit.Value = false
	case token.NULL:
		lit.Value = nil
	default:
		lit.Value = p.curToken.Literal
	}
	return lit, nil
}

func (p *Parser) parseUnaryExpression() (ast.Expression, error) {
	expr := &ast.Unary{Operator: p.curToken}
	p.nextToken()

	right, err := p.parseExpression(PREFIX)
	if err != nil {
		return nil, err
	}
	expr.Right = right
	return expr, nil
}

func (p *Parser) parseGroupedExpression() (ast.Expression, error) {
	group := &ast.Grouping{Token: p.curToken}
	p.nextToken()

	expr, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	group.Expression = expr

	if err := p.expectPeek(token.RPAREN, "after expression"); err != nil {
		return nil, err
	}
	return group, nil
}

func (p *Parser) parseArrayLiteral() (ast.Expression, error) {
	array := &ast.Array{Token: p.curToken}
	elements, err := p.parseExpressionList(token.RBRACKET, "after array elements")
	if err != nil {
		return nil, err
	}
	array.Elements = elements
	return array, nil
}

func (p *Parser) parseThis() (ast.Expression, error) {
	return &ast.This{Keyword: p.curToken}, nil
}

func (p *Parser) parseSuper() (ast.Expression, error) {
	expr := &ast.Super{Keyword: p.curToken}
	if err := p.expectPeek(token.PERIOD, "after 'super'"); err != nil {
		return nil, err
	}
	if err := p.expectPeek(token.IDENT, "as superclass method name"); err != nil {
		return nil, err
	}
	expr.Method = p.curToken
	return expr, nil
}

// parseExpressionList is entered on the opening delimiter and leaves curToken
// on the closing one.
func (p *Parser) parseExpressionList(end token.TokenType, context string) ([]ast.Expression, error) {
	list := []ast.Expression{}

	if p.peekTokenIs(end) {
		p.nextToken()
		return list, nil
	}

	p.nextToken()
	item, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	list = append(list, item)

	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		if item, err = p.parseExpression(LOWEST); err != nil {
			return nil, err
		}
		list = append(list, item)
	}

	if err := p.expectPeek(end, context); err != nil {
		return nil, err
	}
	return list, nil
}

func (p *Parser) parseBinaryExpression(left ast.Expression) (ast.Expression, error) {
	expr := &ast.Binary{Left: left, Operator: p.curToken}
	right, err := p.parseRight()
	if err != nil {
		return nil, err
	}
	expr.Right = right
	return expr, nil
}

func (p *Parser) parseLogicalExpression(left ast.Expression) (ast.Expression, error) {
	expr := &ast.Logical{Left: left, Operator: p.curToken}
	right, err := p.parseRight()
	if err != nil {
		return nil, err
	}
	expr.Right = right
	return expr, nil
}

func (p *Parser) parseBitwiseExpression(left ast.Expression) (ast.Expression, error) {
	expr := &ast.Bitwise{Left: left, Operator: p.curToken}
	right, err := p.parseRight()
	if err != nil {
		return nil, err
	}
	expr.Right = right
	return expr, nil
}

// parseRight parses the right operand of a left-associative operator.
func (p *Parser) parseRight() (ast.Expression, error) {
	precedence := p.curPrecedence()
	p.nextToken()
	return p.parseExpression(precedence)
}

func (p *Parser) parseTernaryExpression(condition ast.Expression) (ast.Expression, error) {
	expr := &ast.Ternary{Token: p.curToken, Condition: condition}
	p.nextToken()

	then, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	expr.Then = then

	if err := p.expectPeek(token.COLON, "in ternary expression"); err != nil {
		return nil, err
	}
	p.nextToken()

	// right-associative: a ? b : c ? d : e
	if expr.Else, err = p.parseExpression(ASSIGNMENT); err != nil {
		return nil, err
	}
	return expr, nil
}

func (p *Parser) parseAssignmentExpression(target ast.Expression) (ast.Expression, error) {
	operator := p.curToken
	p.nextToken()

	// right-associative: a = b = c
	value, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	return assignTo(target, operator, value)
}

func (p *Parser) parseCompoundAssignment(target ast.Expression) (ast.Expression, error) {
	operator := p.curToken
	p.nextToken()

	value, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	return compoundAssign(target, operator, value)
}

func (p *Parser) parsePostfixIncrement(target ast.Expression) (ast.Expression, error) {
	operator := p.curToken
	return compoundAssign(target, operator, one(operator))
}

func (p *Parser) parsePrefixIncrement() (ast.Expression, error) {
	operator := p.curToken
	p.nextToken()

	target, err := p.parseExpression(PREFIX)
	if err != nil {
		return nil, err
	}
	return compoundAssign(target, operator, one(operator))
}

// expand builds `target op value` for a compound operator such as += or ++.
func expand(target ast.Expression, operator token.Token, value ast.Expression) ast.Expression {
	binary := compoundOperators[operator.Type]
	return &ast.Binary{
		Left:     target,
		Operator: token.Synthetic(binary, string(binary), operator),
		Right:    value,
	}
}

// compoundAssign applies a compound operator to target. A variable target
// desugars to `x = x op value`; property and index targets keep the operator
// so their object and index are evaluated once.
func compoundAssign(target ast.Expression, operator token.Token, value ast.Expression) (ast.Expression, error) {
	binary := compoundOperators[operator.Type]
	op := token.Synthetic(binary, string(binary), operator)
	switch t := target.(type) {
	case *ast.Get:
		return &ast.Set{Object: t.Object, Name: t.Name, Value: value, Operator: &op}, nil
	case *ast.Index:
		return &ast.IndexSet{Object: t.Object, Bracket: t.Bracket, Index: t.Index, Value: value, Operator: &op}, nil
	}
	return assignTo(target, operator, expand(target, operator, value))
}

func one(at token.Token) ast.Expression {
	return &ast.Literal{Token: token.Token{Type: token.NUMBER, Lexeme: "1", Literal: 1.0, Line: at.Line, Column: at.Column}, Value: 1.0}
}

func assignTo(target ast.Expression, operator token.Token, value ast.Expression) (ast.Expression, error) {
	switch t := target.(type) {
	case *ast.Variable:
		return &ast.Assign{Name: t.Name, Operator: operator, Value: value}, nil
	case *ast.Get:
		return &ast.Set{Object: t.Object, Name: t.Name, Value: value}, nil
	case *ast.Index:
		return &ast.IndexSet{Object: t.Object, Bracket: t.Bracket, Index: t.Index, Value: value}, nil
	}
	return nil, diagnostic.Parse(operator, "Invalid assignment target")
}

func (p *Parser) parseCallExpression(callee ast.Expression) (ast.Expression, error) {
	call := &ast.Call{Callee: callee, Paren: p.curToken}
	args, err := p.parseExpressionList(token.RPAREN, "after arguments")
	if err != nil {
		return nil, err
	}
	call.Arguments = args
	return call, nil
}

func (p *Parser) parseGetExpression(object ast.Expression) (ast.Expression, error) {
	if err := p.expectPeek(token.IDENT, "as property name after '.'"); err != nil {
		return nil, err
	}
	return &ast.Get{Object: object, Name: p.curToken}, nil
}

func (p *Parser) parseIndexExpression(object ast.Expression) (ast.Expression, error) {
	expr := &ast.Index{Object: object, Bracket: p.curToken}
	p.nextToken()

	index, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	expr.Index = index

	if err := p.expectPeek(token.RBRACKET, "after index"); err != nil {
		return nil, err
	}
	return expr, nil
}
