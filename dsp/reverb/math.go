//go:build !fastmath

package reverb

import "math"

// mathTanh computes tanh(x) using the standard library.
func mathTanh(x float64) float64 {
	return math.Tanh(x)
}

// mathExp computes e^x using the standard library.
func mathExp(x float64) float64 {
	return math.Exp(x)
}

// mathPow10 computes 10^x using the standard library.
func mathPow10(x float64) float64 {
	return math.Pow(10, x)
}
