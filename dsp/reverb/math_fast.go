//go:build fastmath

package reverb

import (
	"github.com/meko-christian/algo-approx"
)

// ln10 is the natural logarithm of 10, used for base conversions.
const ln10 = 2.302585092994045684017991454684

// mathTanh computes tanh(x) using fast approximation.
// Uses the identity: tanh(x) = (e^(2x) - 1) / (e^(2x) + 1)
func mathTanh(x float64) float64 {
	e := approx.FastExp(2 * x)

	return (e - 1) / (e + 1)
}

// mathExp computes e^x using fast approximation.
func mathExp(x float64) float64 {
	return approx.FastExp(x)
}

// mathPow10 computes 10^x using fast approximation.
// Uses the identity: 10^x = e^(x * ln(10))
func mathPow10(x float64) float64 {
	return approx.FastExp(x * ln10)
}
