package ast

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"hsl/internal/token"
)

// The base Node interface
type Node interface {
	TokenLiteral() string
	String() string
}

type Statement interface {
	Node
	statementNode()
}

type Expression interface {
	Node
	expressionNode()
}

// Function is implemented by the declarations that produce a callable body:
// plain functions and class constructors.
type Function interface {
	Statement
	FunctionName() string
	Parameters() []token.Token
	Statements() []Statement
}

type Program struct {
	Statements []Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

func (p *Program) String() string {
	var out bytes.Buffer
	for i, s := range p.Statements {
		if i > 0 {
			out.WriteString("\n")
		}
		out.WriteString(s.String())
	}
	return out.String()
}

// StatementToken returns the token a statement starts at.
func StatementToken(s Statement) token.Token {
	switch s := s.(type) {
	case *ExpressionStatement:
		return s.Token
	case *PrintStatement:
		return s.Token
	case *YieldStatement:
		return s.Token
	case *VarStatement:
		return s.Token
	case *BlockStatement:
		return s.Token
	case *IfStatement:
		return s.Token
	case *WhileStatement:
		return s.Token
	case *DoWhileStatement:
		return s.Token
	case *RepeatStatement:
		return s.Token
	case *BreakStatement:
		return s.Token
	case *ContinueStatement:
		return s.Token
	case *ReturnStatement:
		return s.Token
	case *FunctionStatement:
		return s.Token
	case *NativeFunctionStatement:
		return s.Token
	case *ConstructorStatement:
		return s.Token
	case *FieldStatement:
		return s.Token
	case *ClassStatement:
		return s.Token
	}
	return token.Token{}
}

// Expressions

type Literal struct {
	Token token.Token
	Value any // nil, bool, float64, string or rune
}

func (l *Literal) expressionNode()      {}
func (l *Literal) TokenLiteral() string { return l.Token.Lexeme }
func (l *Literal) String() string {
	switch v := l.Value.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(v)
	case rune:
		return strconv.QuoteRune(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return fmt.Sprint(l.Value)
}

type Variable struct {
	Name token.Token
}

func (v *Variable) expressionNode()      {}
func (v *Variable) TokenLiteral() string { return v.Name.Lexeme }
func (v *Variable) String() string       { return v.Name.Lexeme }

// Assign covers plain assignment and the desugared compound forms (x += 1,
// x++), in which case Operator holds the original operator token.
type Assign struct {
	Name     token.Token
	Operator token.Token
	Value    Expression
}

func (a *Assign) expressionNode()      {}
func (a *Assign) TokenLiteral() string { return a.Name.Lexeme }
func (a *Assign) String() string {
	return "(" + a.Name.Lexeme + " = " + a.Value.String() + ")"
}

type Grouping struct {
	Token      token.Token // the ( token
	Expression Expression
}

func (g *Grouping) expressionNode()      {}
func (g *Grouping) TokenLiteral() string { return g.Token.Lexeme }
func (g *Grouping) String() string       { return "(" + g.Expression.String() + ")" }

type Unary struct {
	Operator token.Token
	Right    Expression
}

func (u *Unary) expressionNode()      {}
func (u *Unary) TokenLiteral() string { return u.Operator.Lexeme }
func (u *Unary) String() string {
	return "(" + u.Operator.Lexeme + u.Right.String() + ")"
}

// Binary holds arithmetic, comparison and equality operations.
type Binary struct {
	Left     Expression
	Operator token.Token
	Right    Expression
}

func (b *Binary) expressionNode()      {}
func (b *Binary) TokenLiteral() string { return b.Operator.Lexeme }
func (b *Binary) String() string       { return infix(b.Left, b.Operator, b.Right) }

// Logical holds the short-circuiting && and || operations.
type Logical struct {
	Left     Expression
	Operator token.Token
	Right    Expression
}

func (l *Logical) expressionNode()      {}
func (l *Logical) TokenLiteral() string { return l.Operator.Lexeme }
func (l *Logical) String() string       { return infix(l.Left, l.Operator, l.Right) }

// Bitwise holds & | ^ << and >>, evaluated on the integer part of numbers.
type Bitwise struct {
	Left     Expression
	Operator token.Token
	Right    Expression
}

func (b *Bitwise) expressionNode()      {}
func (b *Bitwise) TokenLiteral() string { return b.Operator.Lexeme }
func (b *Bitwise) String() string       { return infix(b.Left, b.Operator, b.Right) }

type Ternary struct {
	Token     token.Token // the ? token
	Condition Expression
	Then      Expression
	Else      Expression
}

func (t *Ternary) expressionNode()      {}
func (t *Ternary) TokenLiteral() string { return t.Token.Lexeme }
func (t *Ternary) String() string {
	return "(" + t.Condition.String() + " ? " + t.Then.String() + " : " + t.Else.String() + ")"
}

type Call struct {
	Callee    Expression
	Paren     token.Token // the ( token, used for error positions
	Arguments []Expression
}

func (c *Call) expressionNode()      {}
func (c *Call) TokenLiteral() string { return c.Paren.Lexeme }
func (c *Call) String() string {
	return c.Callee.String() + "(" + joinNodes(c.Arguments, ", ") + ")"
}

type Get struct {
	Object Expression
	Name   token.Token
}

func (g *Get) expressionNode()      {}
func (g *Get) TokenLiteral() string { return g.Name.Lexeme }
func (g *Get) String() string       { return g.Object.String() + "." + g.Name.Lexeme }

type Set struct {
	Object Expression
	Name   token.Token
	Value  Expression
	// Operator is the binary operator of a compound assignment such as += or
	// ++, applied to the current value. Nil for a plain assignment.
	Operator *token.Token
}

func (s *Set) expressionNode()      {}
func (s *Set) TokenLiteral() string { return s.Name.Lexeme }
func (s *Set) String() string {
	return "(" + s.Object.String() + "." + s.Name.Lexeme + " " + AssignmentOperator(s.Operator) + " " + s.Value.String() + ")"
}

type Index struct {
	Object  Expression
	Bracket token.Token
	Index   Expression
}

func (i *Index) expressionNode()      {}
func (i *Index) TokenLiteral() string { return i.Bracket.Lexeme }
func (i *Index) String() string {
	return i.Object.String() + "[" + i.Index.String() + "]"
}

type IndexSet struct {
	Object   Expression
	Bracket  token.Token
	Index    Expression
	Value    Expression
	Operator *token.Token
}

func (i *IndexSet) expressionNode()      {}
func (i *IndexSet) TokenLiteral() string { return i.Bracket.Lexeme }
func (i *IndexSet) String() string {
	return "(" + i.Object.String() + "[" + i.Index.String() + "] " + AssignmentOperator(i.Operator) + " " + i.Value.String() + ")"
}

// AssignmentOperator spells the assignment performed with a compound
// operator, "=" when there is none.
func AssignmentOperator(op *token.Token) string {
	if op == nil {
		return "="
	}
	return op.Lexeme + "="
}

type Array struct {
	Token    token.Token // the [ token
	Elements []Expression
}

func (a *Array) expressionNode()      {}
func (a *Array) TokenLiteral() string { return a.Token.Lexeme }
func (a *Array) String() string       { return "[" + joinNodes(a.Elements, ", ") + "]" }

type This struct {
	Keyword token.Token
}

func (t *This) expressionNode()      {}
func (t *This) TokenLiteral() string { return t.Keyword.Lexeme }
func (t *This) String() string       { return "this" }

type Super struct {
	Keyword token.Token
	Method  token.Token
}

func (s *Super) expressionNode()      {}
func (s *Super) TokenLiteral() string { return s.Keyword.Lexeme }
func (s *Super) String() string       { return "super." + s.Method.Lexeme }

// Statements

type ExpressionStatement struct {
	Token      token.Token // the first token of the expression
	Expression Expression
}

func (es *ExpressionStatement) statementNode()       {}
func (es *ExpressionStatement) TokenLiteral() string { return es.Token.Lexeme }
func (es *ExpressionStatement) String() string {
	return es.Expression.String() + ";"
}

type PrintStatement struct {
	Token      token.Token
	Expression Expression
}

func (ps *PrintStatement) statementNode()       {}
func (ps *PrintStatement) TokenLiteral() string { return ps.Token.Lexeme }
func (ps *PrintStatement) String() string {
	return "print " + ps.Expression.String() + ";"
}

// YieldStatement stores a value in the script results. Without a name the
// value is stored under the default result id.
type YieldStatement struct {
	Token token.Token
	Value Expression
	Name  *token.Token
}

func (ys *YieldStatement) statementNode()       {}
func (ys *YieldStatement) TokenLiteral() string { return ys.Token.Lexeme }
func (ys *YieldStatement) String() string {
	var out bytes.Buffer
	out.WriteString("yield ")
	out.WriteString(ys.Value.String())
	if ys.Name != nil {
		out.WriteString(" as ")
		out.WriteString(ys.Name.Lexeme)
	}
	out.WriteString(";")
	return out.String()
}

type VarStatement struct {
	Token       token.Token // the var token
	Name        token.Token
	Initializer Expression
	Final       bool
}

func (vs *VarStatement) statementNode()       {}
func (vs *VarStatement) TokenLiteral() string { return vs.Token.Lexeme }
func (vs *VarStatement) String() string {
	var out bytes.Buffer
	if vs.Final {
		out.WriteString("final ")
	}
	out.WriteString("var ")
	out.WriteString(vs.Name.Lexeme)
	if vs.Initializer != nil {
		out.WriteString(" = ")
		out.WriteString(vs.Initializer.String())
	}
	out.WriteString(";")
	return out.String()
}

type BlockStatement struct {
	Token      token.Token // the { token
	Statements []Statement
}

func (bs *BlockStatement) statementNode()       {}
func (bs *BlockStatement) TokenLiteral() string { return bs.Token.Lexeme }
func (bs *BlockStatement) String() string {
	var out bytes.Buffer
	out.WriteString("{ ")
	for _, s := range bs.Statements {
		out.WriteString(s.String())
		out.WriteString(" ")
	}
	out.WriteString("}")
	return out.String()
}

type IfStatement struct {
	Token     token.Token
	Condition Expression
	Then      Statement
	Else      Statement
}

func (is *IfStatement) statementNode()       {}
func (is *IfStatement) TokenLiteral() string { return is.Token.Lexeme }
func (is *IfStatement) String() string {
	var out bytes.Buffer
	out.WriteString("if (")
	out.WriteString(is.Condition.String())
	out.WriteString(") ")
	out.WriteString(is.Then.String())
	if is.Else != nil {
		out.WriteString(" else ")
		out.WriteString(is.Else.String())
	}
	return out.String()
}

// WhileStatement also carries desugared for loops, whose increment runs after
// every iteration including those ended by continue.
type WhileStatement struct {
	Token     token.Token
	Condition Expression
	Body      Statement
	Increment Expression
}

func (ws *WhileStatement) statementNode()       {}
func (ws *WhileStatement) TokenLiteral() string { return ws.Token.Lexeme }
func (ws *WhileStatement) String() string {
	if ws.Increment != nil {
		return "for (; " + ws.Condition.String() + "; " + ws.Increment.String() + ") " + ws.Body.String()
	}
	return "while (" + ws.Condition.String() + ") " + ws.Body.String()
}

type DoWhileStatement struct {
	Token     token.Token
	Body      Statement
	Condition Expression
}

func (dw *DoWhileStatement) statementNode()       {}
func (dw *DoWhileStatement) TokenLiteral() string { return dw.Token.Lexeme }
func (dw *DoWhileStatement) String() string {
	return "do " + dw.Body.String() + " while (" + dw.Condition.String() + ");"
}

type RepeatStatement struct {
	Token token.Token
	Count Expression
	Body  Statement
}

func (rs *RepeatStatement) statementNode()       {}
func (rs *RepeatStatement) TokenLiteral() string { return rs.Token.Lexeme }
func (rs *RepeatStatement) String() string {
	return "repeat (" + rs.Count.String() + ") " + rs.Body.String()
}

type BreakStatement struct {
	Token token.Token
}

func (bs *BreakStatement) statementNode()       {}
func (bs *BreakStatement) TokenLiteral() string { return bs.Token.Lexeme }
func (bs *BreakStatement) String() string       { return "break;" }

type ContinueStatement struct {
	Token token.Token
}

func (cs *ContinueStatement) statementNode()       {}
func (cs *ContinueStatement) TokenLiteral() string { return cs.Token.Lexeme }
func (cs *ContinueStatement) String() string       { return "continue;" }

type ReturnStatement struct {
	Token       token.Token // the 'return' token
	ReturnValue Expression
}

func (rs *ReturnStatement) statementNode()       {}
func (rs *ReturnStatement) TokenLiteral() string { return rs.Token.Lexeme }
func (rs *ReturnStatement) String() string {
	if rs.ReturnValue == nil {
		return "return;"
	}
	return "return " + rs.ReturnValue.String() + ";"
}

type FunctionStatement struct {
	Token  token.Token // the 'function' token
	Name   token.Token
	Params []token.Token
	Body   []Statement
}

func (fs *FunctionStatement) statementNode()            {}
func (fs *FunctionStatement) TokenLiteral() string      { return fs.Token.Lexeme }
func (fs *FunctionStatement) FunctionName() string      { return fs.Name.Lexeme }
func (fs *FunctionStatement) Parameters() []token.Token { return fs.Params }
func (fs *FunctionStatement) Statements() []Statement   { return fs.Body }
func (fs *FunctionStatement) String() string {
	return "function " + fs.Name.Lexeme + "(" + joinTokens(fs.Params) + ") " + renderBody(fs.Body)
}

// NativeFunctionStatement declares a function implemented by a host module,
// as in `native function math.max(a, b);`.
type NativeFunctionStatement struct {
	Token  token.Token // the 'native' token
	Module token.Token
	Name   token.Token
	Params []token.Token
}

func (nf *NativeFunctionStatement) statementNode()       {}
func (nf *NativeFunctionStatement) TokenLiteral() string { return nf.Token.Lexeme }
func (nf *NativeFunctionStatement) String() string {
	return "native function " + nf.Module.Lexeme + "." + nf.Name.Lexeme + "(" + joinTokens(nf.Params) + ");"
}

type ConstructorStatement struct {
	Token  token.Token // the 'constructor' token
	Params []token.Token
	Body   []Statement
}

func (cs *ConstructorStatement) statementNode()            {}
func (cs *ConstructorStatement) TokenLiteral() string      { return cs.Token.Lexeme }
func (cs *ConstructorStatement) FunctionName() string      { return "constructor" }
func (cs *ConstructorStatement) Parameters() []token.Token { return cs.Params }
func (cs *ConstructorStatement) Statements() []Statement   { return cs.Body }
func (cs *ConstructorStatement) String() string {
	return "constructor(" + joinTokens(cs.Params) + ") " + renderBody(cs.Body)
}

type FieldStatement struct {
	Token       token.Token // the var token
	Name        token.Token
	Initializer Expression
}

func (fs *FieldStatement) statementNode()       {}
func (fs *FieldStatement) TokenLiteral() string { return fs.Token.Lexeme }
func (fs *FieldStatement) String() string {
	if fs.Initializer == nil {
		return "var " + fs.Name.Lexeme + ";"
	}
	return "var " + fs.Name.Lexeme + " = " + fs.Initializer.String() + ";"
}

type ClassStatement struct {
	Token       token.Token // the 'class' token
	Name        token.Token
	Superclass  *Variable
	Final       bool
	Constructor *ConstructorStatement
	Methods     []*FunctionStatement
	Fields      []*FieldStatement
}

func (cs *ClassStatement) statementNode()       {}
func (cs *ClassStatement) TokenLiteral() string { return cs.Token.Lexeme }
func (cs *ClassStatement) String() string {
	var out bytes.Buffer
	if cs.Final {
		out.WriteString("final ")
	}
	out.WriteString("class ")
	out.WriteString(cs.Name.Lexeme)
	if cs.Superclass != nil {
		out.WriteString(" extends ")
		out.WriteString(cs.Superclass.Name.Lexeme)
	}
	out.WriteString(" { ")
	for _, f := range cs.Fields {
		out.WriteString(f.String())
		out.WriteString(" ")
	}
	if cs.Constructor != nil {
		out.WriteString(cs.Constructor.String())
		out.WriteString(" ")
	}
	for _, m := range cs.Methods {
		out.WriteString(m.String())
		out.WriteString(" ")
	}
	out.WriteString("}")
	return out.String()
}

func infix(left Expression, op token.Token, right Expression) string {
	return "(" + left.String() + " " + op.Lexeme + " " + right.String() + ")"
}

func joinNodes(nodes []Expression, sep string) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	return strings.Join(parts, sep)
}

func joinTokens(tokens []token.Token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.Lexeme
	}
	return strings.Join(parts, ", ")
}

func renderBody(body []Statement) string {
	var out bytes.Buffer
	out.WriteString("{ ")
	for _, s := range body {
		out.WriteString(s.String())
		out.WriteString(" ")
	}
	out.WriteString("}")
	return out.String()
}
