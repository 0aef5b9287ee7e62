package reverb

import (
	"fmt"
	"math"
)

// Tail gate time constants. The envelope follows the diffused wet signal;
// the gain smoother shapes the audible open/close ramps.
const (
	gateEnvAttackSeconds   = 0.003
	gateEnvReleaseSeconds  = 0.050
	gateGainAttackSeconds  = 0.002
	gateGainReleaseSeconds = 0.020

	// Closing threshold is 0.7x the opening threshold, about 3 dB of
	// hysteresis against chatter.
	gateHysteresisRatio = 0.7
)

// TailGate is the stereo-linked envelope gate applied to the wet tail.
//
// The follower tracks a rectified trigger level with asymmetric
// attack/release; the output gain slews between 0 and 1 with its own pair
// of time constants. Between the open and close thresholds the target gain
// holds its last value.
type TailGate struct {
	envAttack   float64
	envRelease  float64
	gainAttack  float64
	gainRelease float64

	threshold float64

	env  float64
	gain float64
}

// NewTailGate creates a gate with coefficients derived from the fixed time
// constants at the given sample rate.
func NewTailGate(sampleRate float64) (*TailGate, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("tail gate sample rate must be > 0: %f", sampleRate)
	}

	return &TailGate{
		envAttack:   mathExp(-1 / (gateEnvAttackSeconds * sampleRate)),
		envRelease:  mathExp(-1 / (gateEnvReleaseSeconds * sampleRate)),
		gainAttack:  mathExp(-1 / (gateGainAttackSeconds * sampleRate)),
		gainRelease: mathExp(-1 / (gateGainReleaseSeconds * sampleRate)),
		gain:        1,
	}, nil
}

// SetThreshold sets the opening threshold in linear amplitude. Negative or
// non-finite values clamp to zero.
func (g *TailGate) SetThreshold(linear float64) {
	if linear < 0 || math.IsNaN(linear) || math.IsInf(linear, 0) {
		linear = 0
	}

	g.threshold = linear
}

// Threshold returns the opening threshold in linear amplitude.
func (g *TailGate) Threshold() float64 { return g.threshold }

// Gain returns the current smoothed gain without advancing the gate.
func (g *TailGate) Gain() float64 { return g.gain }

// ProcessSample advances the gate with a rectified trigger level and
// returns the new smoothed gain.
func (g *TailGate) ProcessSample(trigger float64) float64 {
	c := g.envRelease
	if trigger > g.env {
		c = g.envAttack
	}

	g.env = c*g.env + (1-c)*trigger

	target := g.gain

	switch {
	case g.env >= g.threshold:
		target = 1
	case g.env <= g.threshold*gateHysteresisRatio:
		target = 0
	}

	c = g.gainRelease
	if target > g.gain {
		c = g.gainAttack
	}

	g.gain = c*g.gain + (1-c)*target

	return g.gain
}

// Reset clears the envelope and reopens the gate.
func (g *TailGate) Reset() {
	g.env = 0
	g.gain = 1
}
