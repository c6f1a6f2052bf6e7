package evaluator

import "math"

// Function is a unary function callable from an expression as name(x).
type Function func(x float64) float64

// Builtins returns the functions every evaluator knows about.
func Builtins() map[string]Function {
	return map[string]Function{
		"round": math.Round, // halves away from zero
		"ceil":  math.Ceil,
	}
}
