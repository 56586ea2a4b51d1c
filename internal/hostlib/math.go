package hostlib

import (
	"fmt"
	"math"
)

func mathFunctions() map[string]any {
	return map[string]any{
		"abs":   math.Abs,
		"floor": math.Floor,
		"ceil":  math.Ceil,
		"round": math.Round,
		"sqrt":  sqrt,
		"pow":   math.Pow,
		"min":   minOf,
		"max":   maxOf,
	}
}

func sqrt(x float64) (float64, error) {
	if x < 0 {
		return 0, fmt.Errorf("square root of negative number %v", x)
	}
	return math.Sqrt(x), nil
}

func minOf(first float64, rest ...float64) float64 {
	for _, v := range rest {
		first = math.Min(first, v)
	}
	return first
}

func maxOf(first float64, rest ...float64) float64 {
	for _, v := range rest {
		first = math.Max(first, v)
	}
	return first
}
