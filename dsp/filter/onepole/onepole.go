// Package onepole implements first-order recursive filters: a smoothing
// low-pass used for feedback damping and an RC-style high-pass used for
// DC blocking.
package onepole

import (
	"fmt"
	"math"
)

// LowPass is a one-pole smoothing low-pass.
//
// Output y = (1-a)*x + a*z with state z := y. Higher coefficients give a
// darker response.
type LowPass struct {
	coefficient float64
	state       float64
}

// NewLowPass creates a low-pass with the given coefficient in [0,1].
func NewLowPass(coefficient float64) *LowPass {
	lp := &LowPass{}
	lp.SetCoefficient(coefficient)

	return lp
}

// SetCoefficient sets the smoothing coefficient, clamped to [0,1].
// Non-finite values are ignored.
func (lp *LowPass) SetCoefficient(coefficient float64) {
	if math.IsNaN(coefficient) || math.IsInf(coefficient, 0) {
		return
	}

	if coefficient < 0 {
		coefficient = 0
	}

	if coefficient > 1 {
		coefficient = 1
	}

	lp.coefficient = coefficient
}

// Coefficient returns the smoothing coefficient.
func (lp *LowPass) Coefficient() float64 { return lp.coefficient }

// ProcessSample filters one sample.
func (lp *LowPass) ProcessSample(input float64) float64 {
	y := (1-lp.coefficient)*input + lp.coefficient*lp.state
	lp.state = y

	return y
}

// Reset clears filter memory.
func (lp *LowPass) Reset() {
	lp.state = 0
}

// HighPass is a one-pole RC high-pass / DC blocker.
//
// The difference equation is y[n] = alpha*(y[n-1] + x[n] - x[n-1]) with
// alpha = RC/(RC + 1/fs) and RC = 1/(2*pi*cutoff).
type HighPass struct {
	alpha float64
	inZ   float64
	outZ  float64
}

// NewHighPass creates a high-pass configured for the given cutoff.
func NewHighPass(cutoffHz, sampleRate float64) (*HighPass, error) {
	hp := &HighPass{}

	err := hp.SetCutoff(cutoffHz, sampleRate)
	if err != nil {
		return nil, err
	}

	return hp, nil
}

// SetCutoff reconfigures the cutoff frequency. Both arguments must be
// positive and finite.
func (hp *HighPass) SetCutoff(cutoffHz, sampleRate float64) error {
	if cutoffHz <= 0 || math.IsNaN(cutoffHz) || math.IsInf(cutoffHz, 0) {
		return fmt.Errorf("onepole high-pass cutoff must be > 0: %f", cutoffHz)
	}

	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("onepole high-pass sample rate must be > 0: %f", sampleRate)
	}

	rc := 1 / (2 * math.Pi * cutoffHz)
	hp.alpha = rc / (rc + 1/sampleRate)

	return nil
}

// Alpha returns the recursive coefficient.
func (hp *HighPass) Alpha() float64 { return hp.alpha }

// ProcessSample filters one sample.
func (hp *HighPass) ProcessSample(input float64) float64 {
	y := hp.alpha * (hp.outZ + input - hp.inZ)
	hp.inZ = input
	hp.outZ = y

	return y
}

// Reset clears filter memory.
func (hp *HighPass) Reset() {
	hp.inZ = 0
	hp.outZ = 0
}
