package interpreter

import (
	"math"
	"strconv"
	"strings"

	"hsl/internal/diagnostic"
	"hsl/internal/object"
	"hsl/internal/token"
)

// number reads a numeric operand. Chars count as their code point.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case rune:
		return float64(n), true
	}
	return 0, false
}

// relational also accepts strings holding a number.
func relational(v any) (float64, bool) {
	if n, ok := number(v); ok {
		return n, true
	}
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil
	}
	return 0, false
}

func unary(op token.Token, right any) (any, error) {
	switch op.Type {
	case token.MINUS:
		if n, ok := number(right); ok {
			return -n, nil
		}
		return nil, diagnostic.Runtime(op, "Operand must be a number")
	case token.BANG:
		if b, ok := right.(bool); ok {
			return !b, nil
		}
		return nil, diagnostic.Runtime(op, "Condition must be a boolean")
	case token.COMPLEMENT:
		if n, ok := number(right); ok {
			return float64(^int64(n)), nil
		}
		return nil, diagnostic.Runtime(op, "Operand must be a number")
	}
	return nil, diagnostic.Runtime(op, "Unknown operator '%s'", op.Lexeme)
}

func binary(op token.Token, left, right any) (any, error) {
	switch op.Type {
	case token.PLUS:
		return add(op, left, right)
	case token.ASTERISK:
		return multiply(op, left, right)
	case token.EQ:
		return object.Equal(left, right), nil
	case token.NOT_EQ:
		return !object.Equal(left, right), nil
	case token.LT, token.LT_EQ, token.GT, token.GT_EQ:
		return compare(op, left, right)
	}

	l, lok := number(left)
	r, rok := number(right)
	if !lok || !rok {
		return nil, diagnostic.Runtime(op, "Operands must be numbers")
	}
	switch op.Type {
	case token.MINUS:
		return l - r, nil
	case token.SLASH:
		if r == 0 {
			return nil, diagnostic.Runtime(op, "Division by zero")
		}
		return l / r, nil
	case token.PERCENT:
		if r == 0 {
			return nil, diagnostic.Runtime(op, "Division by zero")
		}
		return math.Mod(l, r), nil
	}
	return nil, diagnostic.Runtime(op, "Unknown operator '%s'", op.Lexeme)
}

func add(op token.Token, left, right any) (any, error) {
	switch l := left.(type) {
	case float64:
		switch r := right.(type) {
		case float64:
			return l + r, nil
		case rune:
			return l + float64(r), nil
		}
	case rune:
		switch r := right.(type) {
		case rune:
			return string(l) + string(r), nil
		case float64:
			return float64(l) + r, nil
		}
	}

	_, ls := left.(string)
	_, rs := right.(string)
	if ls || rs {
		return object.Inspect(left) + object.Inspect(right), nil
	}
	return nil, diagnostic.Runtime(op, "Unsupported operand for +")
}

// maxRepeatSize bounds the bytes or elements produced by repeating a string
// or an array.
const maxRepeatSize = 1 << 28

func multiply(op token.Token, left, right any) (any, error) {
	if l, ok := left.(float64); ok {
		if r, ok := right.(float64); ok {
			return l * r, nil
		}
	}

	value, count := left, right
	if _, ok := count.(float64); !ok {
		value, count = right, left
	}
	n, ok := count.(float64)
	if !ok {
		return nil, diagnostic.Runtime(op, "Operands must be numbers")
	}
	times := 0
	if n > 0 {
		times = int(min(n, maxRepeatSize+1))
	}

	var size int
	switch v := value.(type) {
	case string:
		size = len(v)
	case rune:
		size = len(string(v))
	case *object.Array:
		size = len(v.Elements)
	default:
		return nil, diagnostic.Runtime(op, "Operands must be numbers")
	}
	if size > 0 && times > maxRepeatSize/size {
		return nil, diagnostic.Runtime(op, "Repetition result is too large")
	}

	switch v := value.(type) {
	case string:
		return strings.Repeat(v, times), nil
	case rune:
		return strings.Repeat(string(v), times), nil
	}
	a := value.(*object.Array)
	elements := make([]any, 0, size*times)
	for range times {
		elements = append(elements, a.Elements...)
	}
	return object.NewArray(elements...), nil
}

func compare(op token.Token, left, right any) (any, error) {
	l, lok := relational(left)
	r, rok := relational(right)
	if !lok || !rok {
		return nil, diagnostic.Runtime(op, "Operands must be numbers")
	}
	switch op.Type {
	case token.LT:
		return l < r, nil
	case token.LT_EQ:
		return l <= r, nil
	case token.GT:
		return l > r, nil
	default:
		return l >= r, nil
	}
}

func bitwise(op token.Token, left, right any) (any, error) {
	lf, lok := number(left)
	rf, rok := number(right)
	if !lok || !rok {
		return nil, diagnostic.Runtime(op, "Operands must be numbers")
	}
	l, r := int64(lf), int64(rf)

	switch op.Type {
	case token.BITWISE_AND:
		return float64(l & r), nil
	case token.BITWISE_OR:
		return float64(l | r), nil
	case token.BITWISE_XOR:
		return float64(l ^ r), nil
	case token.SHIFT_LEFT, token.SHIFT_RIGHT:
		if r < 0 {
			return nil, diagnostic.Runtime(op, "Negative shift count")
		}
		if op.Type == token.SHIFT_LEFT {
			return float64(l << uint64(r)), nil
		}
		return float64(l >> uint64(r)), nil
	}
	return nil, diagnostic.Runtime(op, "Unknown operator '%s'", op.Lexeme)
}
