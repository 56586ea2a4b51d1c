package parser

import (
	"fmt"
	"reflect"
	"strings"

	"hsl/internal/ast"
	"hsl/internal/token"
)

// RenderASTAsText produces a human-centric, indented, script-like representation of the AST.
// Expressions are fully parenthesised, which makes it useful for debugging precedence.
func RenderASTAsText(node ast.Node, indent int) string {
	if node == nil || (reflect.ValueOf(node).Kind() == reflect.Ptr && reflect.ValueOf(node).IsNil()) {
		return "nil"
	}

	sp := strings.Repeat("  ", indent)

	switch n := node.(type) {
	case *ast.Program:
		var sb strings.Builder
		for i, s := range n.Statements {
			if i > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(RenderASTAsText(s, 0))
		}
		return sb.String()

	case *ast.VarStatement:
		prefix := "var"
		if n.Final {
			prefix = "final var"
		}
		if n.Initializer == nil {
			return fmt.Sprintf("%s%s %s", sp, prefix, n.Name.Lexeme)
		}
		return fmt.Sprintf("%s%s %s = %s", sp, prefix, n.Name.Lexeme, RenderASTAsText(n.Initializer, 0))

	case *ast.ExpressionStatement:
		return sp + RenderASTAsText(n.Expression, 0)

	case *ast.PrintStatement:
		return fmt.Sprintf("%sprint %s", sp, RenderASTAsText(n.Expression, 0))

	case *ast.YieldStatement:
		if n.Name != nil {
			return fmt.Sprintf("%syield %s as %s", sp, RenderASTAsText(n.Value, 0), n.Name.Lexeme)
		}
		return fmt.Sprintf("%syield %s", sp, RenderASTAsText(n.Value, 0))

	case *ast.ReturnStatement:
		if n.ReturnValue == nil {
			return sp + "return"
		}
		return fmt.Sprintf("%sreturn %s", sp, RenderASTAsText(n.ReturnValue, 0))

	case *ast.BreakStatement:
		return sp + "break"

	case *ast.ContinueStatement:
		return sp + "continue"

	case *ast.BlockStatement:
		return sp + renderStatements(n.Statements, indent)

	case *ast.IfStatement:
		res := fmt.Sprintf("%sif %s %s", sp, RenderASTAsText(n.Condition, 0), renderNested(n.Then, indent))
		if n.Else != nil {
			res += " else " + renderNested(n.Else, indent)
		}
		return res

	case *ast.WhileStatement:
		if n.Increment != nil {
			return fmt.Sprintf("%sfor (; %s; %s) %s", sp, RenderASTAsText(n.Condition, 0), RenderASTAsText(n.Increment, 0), renderNested(n.Body, indent))
		}
		return fmt.Sprintf("%swhile %s %s", sp, RenderASTAsText(n.Condition, 0), renderNested(n.Body, indent))

	case *ast.DoWhileStatement:
		return fmt.Sprintf("%sdo %s while %s", sp, renderNested(n.Body, indent), RenderASTAsText(n.Condition, 0))

	case *ast.RepeatStatement:
		return fmt.Sprintf("%srepeat %s %s", sp, RenderASTAsText(n.Count, 0), renderNested(n.Body, indent))

	case *ast.FunctionStatement:
		return fmt.Sprintf("%sfunction %s(%s) %s", sp, n.Name.Lexeme, renderParams(n.Params), renderStatements(n.Body, indent))

	case *ast.NativeFunctionStatement:
		return fmt.Sprintf("%snative function %s.%s(%s)", sp, n.Module.Lexeme, n.Name.Lexeme, renderParams(n.Params))

	case *ast.ConstructorStatement:
		return fmt.Sprintf("%sconstructor(%s) %s", sp, renderParams(n.Params), renderStatements(n.Body, indent))

	case *ast.FieldStatement:
		if n.Initializer == nil {
			return fmt.Sprintf("%svar %s", sp, n.Name.Lexeme)
		}
		return fmt.Sprintf("%svar %s = %s", sp, n.Name.Lexeme, RenderASTAsText(n.Initializer, 0))

	case *ast.ClassStatement:
		var sb strings.Builder
		sb.WriteString(sp)
		if n.Final {
			sb.WriteString("final ")
		}
		sb.WriteString("class " + n.Name.Lexeme)
		if n.Superclass != nil {
			sb.WriteString(" extends " + n.Superclass.Name.Lexeme)
		}
		sb.WriteString(" {\n")
		for _, f := range n.Fields {
			sb.WriteString(RenderASTAsText(f, indent+1) + "\n")
		}
		if n.Constructor != nil {
			sb.WriteString(RenderASTAsText(n.Constructor, indent+1) + "\n")
		}
		for _, m := range n.Methods {
			sb.WriteString(RenderASTAsText(m, indent+1) + "\n")
		}
		sb.WriteString(sp + "}")
		return sb.String()

	case *ast.Grouping:
		// parenthesisation is already explicit
		return RenderASTAsText(n.Expression, 0)

	case *ast.Unary:
		return fmt.Sprintf("(%s%s)", n.Operator.Lexeme, RenderASTAsText(n.Right, 0))

	case *ast.Binary:
		return fmt.Sprintf("(%s %s %s)", RenderASTAsText(n.Left, 0), n.Operator.Lexeme, RenderASTAsText(n.Right, 0))

	case *ast.Logical:
		return fmt.Sprintf("(%s %s %s)", RenderASTAsText(n.Left, 0), n.Operator.Lexeme, RenderASTAsText(n.Right, 0))

	case *ast.Bitwise:
		return fmt.Sprintf("(%s %s %s)", RenderASTAsText(n.Left, 0), n.Operator.Lexeme, RenderASTAsText(n.Right, 0))

	case *ast.Ternary:
		return fmt.Sprintf("(%s ? %s : %s)", RenderASTAsText(n.Condition, 0), RenderASTAsText(n.Then, 0), RenderASTAsText(n.Else, 0))

	case *ast.Assign:
		return fmt.Sprintf("(%s = %s)", n.Name.Lexeme, RenderASTAsText(n.Value, 0))

	case *ast.Set:
		return fmt.Sprintf("(%s.%s %s %s)", RenderASTAsText(n.Object, 0), n.Name.Lexeme, ast.AssignmentOperator(n.Operator), RenderASTAsText(n.Value, 0))

	case *ast.IndexSet:
		return fmt.Sprintf("(%s[%s] %s %s)", RenderASTAsText(n.Object, 0), RenderASTAsText(n.Index, 0), ast.AssignmentOperator(n.Operator), RenderASTAsText(n.Value, 0))

	case *ast.Call:
		return fmt.Sprintf("%s(%s)", RenderASTAsText(n.Callee, 0), renderExpressions(n.Arguments))

	case *ast.Get:
		return fmt.Sprintf("%s.%s", RenderASTAsText(n.Object, 0), n.Name.Lexeme)

	case *ast.Index:
		return fmt.Sprintf("%s[%s]", RenderASTAsText(n.Object, 0), RenderASTAsText(n.Index, 0))

	case *ast.Array:
		return "[" + renderExpressions(n.Elements) + "]"

	case *ast.Variable, *ast.Literal, *ast.This, *ast.Super:
		return node.String()

	default:
		return fmt.Sprintf("%s<unknown %T>", sp, node)
	}
}

func renderStatements(statements []ast.Statement, indent int) string {
	if len(statements) == 0 {
		return "{}"
	}
	var sb strings.Builder
	sb.WriteString("{\n")
	for _, s := range statements {
		sb.WriteString(RenderASTAsText(s, indent+1))
		sb.WriteString("\n")
	}
	sb.WriteString(strings.Repeat("  ", indent) + "}")
	return sb.String()
}

// renderNested renders a loop or branch body on the same line as its header.
func renderNested(stmt ast.Statement, indent int) string {
	if block, ok := stmt.(*ast.BlockStatement); ok {
		return renderStatements(block.Statements, indent)
	}
	return strings.TrimLeft(RenderASTAsText(stmt, indent), " ")
}

func renderExpressions(exprs []ast.Expression) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = RenderASTAsText(e, 0)
	}
	return strings.Join(parts, ", ")
}

func renderParams(params []token.Token) string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Lexeme
	}
	return strings.Join(names, ", ")
}
