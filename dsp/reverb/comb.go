package reverb

import (
	"github.com/cwbudde/algo-plateverb/dsp/core"
	"github.com/cwbudde/algo-plateverb/dsp/delay"
	"github.com/cwbudde/algo-plateverb/dsp/filter/onepole"
)

const (
	minCombFeedback = 0.0
	maxCombFeedback = 0.9999

	// Decay times below this are treated as instantaneous for the RT60
	// gain mapping; avoids division blow-up.
	minRT60Seconds = 0.05
)

// Comb is a Schroeder comb filter with a one-pole low-pass in the feedback
// path for frequency-dependent damping.
type Comb struct {
	line     *delay.Line
	damping  onepole.LowPass
	tap      int
	feedback float64
}

// NewComb creates a comb whose delay buffer holds maxDelay samples.
func NewComb(maxDelay int) *Comb {
	return &Comb{
		line: delay.New(maxDelay),
		tap:  1,
	}
}

// SetDelay sets the loop delay in samples, clamped to [1, Len()-1].
func (c *Comb) SetDelay(samples int) {
	c.tap = core.ClampInt(samples, 1, c.line.Len()-1)
}

// Delay returns the loop delay in samples.
func (c *Comb) Delay() int { return c.tap }

// Len returns the delay buffer size.
func (c *Comb) Len() int { return c.line.Len() }

// SetFeedback sets the base loop gain, clamped to [0, 0.9999].
func (c *Comb) SetFeedback(gain float64) {
	c.feedback = core.Clamp(gain, minCombFeedback, maxCombFeedback)
}

// Feedback returns the base loop gain.
func (c *Comb) Feedback() float64 { return c.feedback }

// SetDamping sets the in-loop low-pass coefficient in [0,1].
func (c *Comb) SetDamping(coefficient float64) {
	c.damping.SetCoefficient(coefficient)
}

// Damping returns the in-loop low-pass coefficient.
func (c *Comb) Damping() float64 { return c.damping.Coefficient() }

// ProcessSample advances the comb by one sample and returns the
// pre-feedback delay output.
//
// scale multiplies the loop gain for this sample only; the effective loop
// gain is feedback*scale. The tail gate uses it to starve the loop while
// closed.
func (c *Comb) ProcessSample(input, scale float64) float64 {
	y := c.line.Read(c.tap)
	damped := core.FlushDenormals(c.damping.ProcessSample(y))
	c.line.Write(input + c.feedback*scale*damped)

	return y
}

// Reset clears the delay buffer and damping filter state.
func (c *Comb) Reset() {
	c.line.Reset()
	c.damping.Reset()
}

// CombGainFromRT60 returns the comb loop gain that decays the loop energy
// by 60 dB in rt60 seconds for the given delay and sample rate:
//
//	g = 10^(-3*delaySamples / (rt60*sampleRate))
//
// rt60 is floored at 0.05 s and the result is clamped to [0, 0.9999].
// The extra loss from the in-loop damping filter is deliberately not
// compensated; damping shortens the audible decay.
func CombGainFromRT60(rt60 float64, delaySamples int, sampleRate float64) float64 {
	if rt60 < minRT60Seconds {
		rt60 = minRT60Seconds
	}

	if sampleRate < 1 {
		sampleRate = 1
	}

	g := mathPow10(-3 * float64(delaySamples) / (rt60 * sampleRate))

	return core.Clamp(g, minCombFeedback, maxCombFeedback)
}
