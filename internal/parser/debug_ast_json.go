package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"hsl/internal/ast"
	"hsl/internal/token"
)

// WalkAST recursively traverses an AST and serializes it into a machine-centric map structure.
// This output is designed for stability and tool-chain consumption.
func WalkAST(node ast.Node) interface{} {
	if node == nil || (reflect.ValueOf(node).Kind() == reflect.Ptr && reflect.ValueOf(node).IsNil()) {
		return nil
	}

	switch n := node.(type) {
	case *ast.Program:
		return map[string]interface{}{
			"type":       "Program",
			"statements": walkStatements(n.Statements),
		}

	case *ast.VarStatement:
		return map[string]interface{}{
			"type":        "VarStatement",
			"position":    position(n.Name),
			"name":        n.Name.Lexeme,
			"final":       n.Final,
			"initializer": WalkAST(n.Initializer),
		}

	case *ast.ExpressionStatement:
		return map[string]interface{}{
			"type":       "ExpressionStatement",
			"position":   position(n.Token),
			"expression": WalkAST(n.Expression),
		}

	case *ast.PrintStatement:
		return map[string]interface{}{
			"type":       "PrintStatement",
			"position":   position(n.Token),
			"expression": WalkAST(n.Expression),
		}

	case *ast.YieldStatement:
		m := map[string]interface{}{
			"type":     "YieldStatement",
			"position": position(n.Token),
			"value":    WalkAST(n.Value),
		}
		if n.Name != nil {
			m["name"] = n.Name.Lexeme
		}
		return m

	case *ast.ReturnStatement:
		return map[string]interface{}{
			"type":        "ReturnStatement",
			"position":    position(n.Token),
			"returnValue": WalkAST(n.ReturnValue),
		}

	case *ast.BreakStatement:
		return map[string]interface{}{"type": "BreakStatement", "position": position(n.Token)}

	case *ast.ContinueStatement:
		return map[string]interface{}{"type": "ContinueStatement", "position": position(n.Token)}

	case *ast.BlockStatement:
		return map[string]interface{}{
			"type":       "BlockStatement",
			"position":   position(n.Token),
			"statements": walkStatements(n.Statements),
		}

	case *ast.IfStatement:
		return map[string]interface{}{
			"type":      "IfStatement",
			"position":  position(n.Token),
			"condition": WalkAST(n.Condition),
			"then":      WalkAST(n.Then),
			"else":      WalkAST(n.Else),
		}

	case *ast.WhileStatement:
		return map[string]interface{}{
			"type":      "WhileStatement",
			"position":  position(n.Token),
			"condition": WalkAST(n.Condition),
			"body":      WalkAST(n.Body),
			"increment": WalkAST(n.Increment),
		}

	case *ast.DoWhileStatement:
		return map[string]interface{}{
			"type":      "DoWhileStatement",
			"position":  position(n.Token),
			"body":      WalkAST(n.Body),
			"condition": WalkAST(n.Condition),
		}

	case *ast.RepeatStatement:
		return map[string]interface{}{
			"type":     "RepeatStatement",
			"position": position(n.Token),
			"count":    WalkAST(n.Count),
			"body":     WalkAST(n.Body),
		}

	case *ast.FunctionStatement:
		return map[string]interface{}{
			"type":       "FunctionStatement",
			"position":   position(n.Name),
			"name":       n.Name.Lexeme,
			"parameters": walkParams(n.Params),
			"body":       walkStatements(n.Body),
		}

	case *ast.NativeFunctionStatement:
		return map[string]interface{}{
			"type":       "NativeFunctionStatement",
			"position":   position(n.Name),
			"module":     n.Module.Lexeme,
			"name":       n.Name.Lexeme,
			"parameters": walkParams(n.Params),
		}

	case *ast.ConstructorStatement:
		return map[string]interface{}{
			"type":       "ConstructorStatement",
			"position":   position(n.Token),
			"parameters": walkParams(n.Params),
			"body":       walkStatements(n.Body),
		}

	case *ast.FieldStatement:
		return map[string]interface{}{
			"type":        "FieldStatement",
			"position":    position(n.Name),
			"name":        n.Name.Lexeme,
			"initializer": WalkAST(n.Initializer),
		}

	case *ast.ClassStatement:
		fields := make([]interface{}, len(n.Fields))
		for i, f := range n.Fields {
			fields[i] = WalkAST(f)
		}
		methods := make([]interface{}, len(n.Methods))
		for i, m := range n.Methods {
			methods[i] = WalkAST(m)
		}
		return map[string]interface{}{
			"type":        "ClassStatement",
			"position":    position(n.Name),
			"name":        n.Name.Lexeme,
			"final":       n.Final,
			"superclass":  WalkAST(n.Superclass),
			"constructor": WalkAST(n.Constructor),
			"fields":      fields,
			"methods":     methods,
		}

	case *ast.Literal:
		return map[string]interface{}{
			"type":     "Literal",
			"position": position(n.Token),
			"value":    literalValue(n.Value),
		}

	case *ast.Variable:
		return map[string]interface{}{
			"type":     "Variable",
			"position": position(n.Name),
			"name":     n.Name.Lexeme,
		}

	case *ast.Assign:
		return map[string]interface{}{
			"type":     "Assign",
			"position": position(n.Name),
			"name":     n.Name.Lexeme,
			"operator": n.Operator.Lexeme,
			"value":    WalkAST(n.Value),
		}

	case *ast.Grouping:
		return map[string]interface{}{
			"type":       "Grouping",
			"position":   position(n.Token),
			"expression": WalkAST(n.Expression),
		}

	case *ast.Unary:
		return map[string]interface{}{
			"type":     "Unary",
			"position": position(n.Operator),
			"operator": n.Operator.Lexeme,
			"right":    WalkAST(n.Right),
		}

	case *ast.Binary:
		return walkInfix("Binary", n.Left, n.Operator, n.Right)

	case *ast.Logical:
		return walkInfix("Logical", n.Left, n.Operator, n.Right)

	case *ast.Bitwise:
		return walkInfix("Bitwise", n.Left, n.Operator, n.Right)

	case *ast.Ternary:
		return map[string]interface{}{
			"type":      "Ternary",
			"position":  position(n.Token),
			"condition": WalkAST(n.Condition),
			"then":      WalkAST(n.Then),
			"else":      WalkAST(n.Else),
		}

	case *ast.Call:
		return map[string]interface{}{
			"type":      "Call",
			"position":  position(n.Paren),
			"callee":    WalkAST(n.Callee),
			"arguments": walkExpressions(n.Arguments),
		}

	case *ast.Get:
		return map[string]interface{}{
			"type":     "Get",
			"position": position(n.Name),
			"object":   WalkAST(n.Object),
			"name":     n.Name.Lexeme,
		}

	case *ast.Set:
		return map[string]interface{}{
			"type":     "Set",
			"position": position(n.Name),
			"object":   WalkAST(n.Object),
			"name":     n.Name.Lexeme,
			"operator": ast.AssignmentOperator(n.Operator),
			"value":    WalkAST(n.Value),
		}

	case *ast.Index:
		return map[string]interface{}{
			"type":     "Index",
			"position": position(n.Bracket),
			"object":   WalkAST(n.Object),
			"index":    WalkAST(n.Index),
		}

	case *ast.IndexSet:
		return map[string]interface{}{
			"type":     "IndexSet",
			"position": position(n.Bracket),
			"object":   WalkAST(n.Object),
			"index":    WalkAST(n.Index),
			"operator": ast.AssignmentOperator(n.Operator),
			"value":    WalkAST(n.Value),
		}

	case *ast.Array:
		return map[string]interface{}{
			"type":     "Array",
			"position": position(n.Token),
			"elements": walkExpressions(n.Elements),
		}

	case *ast.This:
		return map[string]interface{}{"type": "This", "position": position(n.Keyword)}

	case *ast.Super:
		return map[string]interface{}{
			"type":     "Super",
			"position": position(n.Keyword),
			"method":   n.Method.Lexeme,
		}

	default:
		return map[string]interface{}{
			"type": "Unknown",
			"node": fmt.Sprintf("%T", n),
		}
	}
}

func position(t token.Token) map[string]int {
	return map[string]int{"line": t.Line, "column": t.Column}
}

func literalValue(v any) any {
	if r, ok := v.(rune); ok {
		return string(r)
	}
	return v
}

func walkInfix(kind string, left ast.Expression, op token.Token, right ast.Expression) interface{} {
	return map[string]interface{}{
		"type":     kind,
		"position": position(op),
		"operator": op.Lexeme,
		"left":     WalkAST(left),
		"right":    WalkAST(right),
	}
}

func walkStatements(statements []ast.Statement) []interface{} {
	result := make([]interface{}, len(statements))
	for i, s := range statements {
		result[i] = WalkAST(s)
	}
	return result
}

func walkExpressions(exprs []ast.Expression) []interface{} {
	result := make([]interface{}, len(exprs))
	for i, e := range exprs {
		result[i] = WalkAST(e)
	}
	return result
}

func walkParams(params []token.Token) []interface{} {
	result := make([]interface{}, len(params))
	for i, p := range params {
		result[i] = p.Lexeme
	}
	return result
}

func RenderASTAsJSON(node ast.Node) (string, error) {
	astMap := WalkAST(node)
	buf := new(bytes.Buffer)
	encoder := json.NewEncoder(buf)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(astMap); err != nil {
		return "", fmt.Errorf("failed to encode JSON: %w", err)
	}
	return buf.String(), nil
}
