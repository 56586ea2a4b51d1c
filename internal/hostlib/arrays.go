package hostlib

import (
	"errors"
	"fmt"

	"hsl/internal/object"
)

var errEmpty = errors.New("array is empty")

func arrayFunctions() map[string]any {
	return map[string]any{
		"length":   func(a *object.Array) int { return len(a.Elements) },
		"push":     push,
		"pop":      pop,
		"slice":    slice,
		"contains": contains,
		"reverse":  reverse,
	}
}

// push appends in place and returns the new length.
func push(a *object.Array, values ...any) int {
	a.Elements = append(a.Elements, values...)
	return len(a.Elements)
}

func pop(a *object.Array) (any, error) {
	n := len(a.Elements)
	if n == 0 {
		return nil, errEmpty
	}
	last := a.Elements[n-1]
	a.Elements = a.Elements[:n-1]
	return last, nil
}

// slice copies the half-open range [from, to).
func slice(a *object.Array, from, to int) (*object.Array, error) {
	if from < 0 || to > len(a.Elements) || from > to {
		return nil, fmt.Errorf("range [%d, %d) out of bounds for length %d", from, to, len(a.Elements))
	}
	elements := make([]any, to-from)
	copy(elements, a.Elements[from:to])
	return object.NewArray(elements...), nil
}

func contains(a *object.Array, value any) bool {
	for _, e := range a.Elements {
		if object.Equal(e, value) {
			return true
		}
	}
	return false
}

func reverse(a *object.Array) *object.Array {
	n := len(a.Elements)
	elements := make([]any, n)
	for i, e := range a.Elements {
		elements[n-1-i] = e
	}
	return object.NewArray(elements...)
}
