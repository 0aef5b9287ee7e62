package reverb

import (
	"github.com/cwbudde/algo-plateverb/dsp/core"
	"github.com/cwbudde/algo-plateverb/dsp/delay"
)

const (
	minAllpassCoefficient = 0.3
	maxAllpassCoefficient = 0.85

	// Modulated taps keep this many samples away from both buffer ends so
	// that the interpolated read never straddles the write position.
	allpassTapMargin = 4.0
)

// Allpass is a Schroeder allpass diffuser. The read tap can be modulated
// with a fractional offset for chorused diffusion; the difference equation
// is unchanged in both forms:
//
//	y = d - a*x
//	write(x + a*y)
type Allpass struct {
	line        *delay.Line
	tap         int
	coefficient float64
}

// NewAllpass creates an allpass whose delay buffer holds maxDelay samples.
func NewAllpass(maxDelay int) *Allpass {
	return &Allpass{
		line:        delay.New(maxDelay),
		tap:         1,
		coefficient: minAllpassCoefficient,
	}
}

// SetDelay sets the nominal tap in samples, clamped to [1, Len()-1].
func (a *Allpass) SetDelay(samples int) {
	a.tap = core.ClampInt(samples, 1, a.line.Len()-1)
}

// Delay returns the nominal tap in samples.
func (a *Allpass) Delay() int { return a.tap }

// Len returns the delay buffer size.
func (a *Allpass) Len() int { return a.line.Len() }

// SetCoefficient sets the allpass coefficient, clamped to [0.3, 0.85].
func (a *Allpass) SetCoefficient(coefficient float64) {
	a.coefficient = core.Clamp(coefficient, minAllpassCoefficient, maxAllpassCoefficient)
}

// Coefficient returns the allpass coefficient.
func (a *Allpass) Coefficient() float64 { return a.coefficient }

// ProcessSample advances the allpass by one sample using the integer tap.
func (a *Allpass) ProcessSample(input float64) float64 {
	d := a.line.Read(a.tap)
	y := d - a.coefficient*input
	a.line.Write(input + a.coefficient*y)

	return y
}

// ProcessSampleModulated advances the allpass by one sample reading at the
// fractional tap nominal+offset, clamped to [4, Len()-4].
func (a *Allpass) ProcessSampleModulated(input, offset float64) float64 {
	tap := core.Clamp(float64(a.tap)+offset, allpassTapMargin, float64(a.line.Len())-allpassTapMargin)

	d := a.line.ReadLinear(tap)
	y := d - a.coefficient*input
	a.line.Write(input + a.coefficient*y)

	return y
}

// Reset clears the delay buffer.
func (a *Allpass) Reset() {
	a.line.Reset()
}
